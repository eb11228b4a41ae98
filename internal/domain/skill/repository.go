package skill

import (
	"context"

	"github.com/google/uuid"
)

// LevelRepository スキルレベルの永続化インターフェース
type LevelRepository interface {
	// Level 現在のレベルを取得（未記録の場合はStartLevel）
	Level(ctx context.Context, playerID uuid.UUID, s Skill) (int, error)

	// SetLevel レベルを設定
	SetLevel(ctx context.Context, playerID uuid.UUID, s Skill, level int) error
}
