package reward

import "github.com/google/uuid"

// ProgressionRequest スキルのレベルアップ通知
type ProgressionRequest struct {
	PlayerID uuid.UUID
	Skill    string
	Level    int
}

// ProgressionResponse レベルアップで付与された報酬
type ProgressionResponse struct {
	PlayerID uuid.UUID
	Skill    string
	Level    int
	Coins    int64
	Tokens   int64
}
