package auth

// IssueTokenRequest ホストサーバー用トークンの発行リクエスト
type IssueTokenRequest struct {
	ServerID string
}

// IssueTokenResponse 発行したトークン
type IssueTokenResponse struct {
	Token     string
	ExpiresIn int64  // 秒単位
	TokenType string // "Bearer"
}
