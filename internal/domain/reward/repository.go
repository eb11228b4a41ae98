package reward

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRecentRewardNotFound 直近の報酬が見つからないエラー
var ErrRecentRewardNotFound = errors.New("recent reward not found")

// RecentReward レベルアップメッセージ表示用に一時保持する報酬
type RecentReward struct {
	PlayerID  uuid.UUID `json:"player_id"`
	Skill     string    `json:"skill"`
	Level     int       `json:"level"`
	Coins     int64     `json:"coins"`
	Tokens    int64     `json:"tokens"`
	GrantedAt time.Time `json:"granted_at"`
}

// RecentRewardCache 直近の報酬キャッシュ
type RecentRewardCache interface {
	// Put 報酬を保存（TTL経過後に消える）
	Put(ctx context.Context, r *RecentReward) error

	// Take 報酬を取り出して削除する
	Take(ctx context.Context, playerID uuid.UUID, skill string, level int) (*RecentReward, error)
}
