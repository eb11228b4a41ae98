package handler

import "time"

// ProgressionRequest レベルアップ通知リクエスト
// @Description レベルアップ通知リクエスト
type ProgressionRequest struct {
	Skill string `json:"skill" example:"mining"`
	Level int    `json:"level" example:"20"`
}

// RewardResponse 付与された報酬
// @Description 付与された報酬
type RewardResponse struct {
	PlayerID  string     `json:"player_id"`
	Skill     string     `json:"skill" example:"mining"`
	Level     int        `json:"level" example:"20"`
	Coins     int64      `json:"coins" example:"35"`
	Tokens    int64      `json:"tokens" example:"1"`
	GrantedAt *time.Time `json:"granted_at,omitempty"`
}
