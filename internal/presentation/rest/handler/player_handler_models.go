package handler

// JoinRequest 参加通知リクエスト
// @Description 参加通知リクエスト
type JoinRequest struct {
	Name string `json:"name" example:"Steve"`
}
