package handler

import "github.com/shopspring/decimal"

// BalanceResponse 残高レスポンス
// @Description 残高レスポンス
type BalanceResponse struct {
	PlayerID string          `json:"player_id" example:"0b6f6b2e-8c1e-4f57-9d8e-2b9b1f0f8b3a"`
	Coins    decimal.Decimal `json:"coins" swaggertype:"string" example:"1250.5"`
	Tokens   decimal.Decimal `json:"tokens" swaggertype:"string" example:"30"`
}

// SetBalanceRequest 残高設定リクエスト
// @Description 残高設定リクエスト
type SetBalanceRequest struct {
	Amount string `json:"amount" example:"1000"`
}

// SetBalanceResponse 残高設定レスポンス
// @Description 残高設定レスポンス
type SetBalanceResponse struct {
	PlayerID   string          `json:"player_id"`
	Currency   string          `json:"currency" example:"coins" enums:"coins,tokens"`
	NewBalance decimal.Decimal `json:"new_balance" swaggertype:"string" example:"1000"`
}
