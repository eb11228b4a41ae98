package handler

// IssueTokenResponse トークン発行レスポンス
// @Description トークン発行レスポンス
type IssueTokenResponse struct {
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzZXJ2ZXJfaWQiOiJzdXJ2aXZhbC0xIn0.signature"`
	ExpiresIn int64  `json:"expires_in" example:"86400"`
	TokenType string `json:"token_type" example:"Bearer"`
}
