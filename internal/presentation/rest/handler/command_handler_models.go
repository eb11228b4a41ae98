package handler

import "github.com/shopspring/decimal"

// CommandRequest 外部経済コマンドの転送リクエスト
// @Description 外部経済コマンドの転送リクエスト
type CommandRequest struct {
	Command string `json:"command" example:"/money give Steve 1.5k"`
	Issuer  string `json:"issuer" example:"CONSOLE"`
}

// CommandResponse 転送結果
// @Description handledがfalseの場合、ホストは元のコマンド処理を続ける
type CommandResponse struct {
	Handled    bool             `json:"handled" example:"true"`
	Operation  string           `json:"operation,omitempty" example:"give" enums:"set,give,take"`
	PlayerID   string           `json:"player_id,omitempty"`
	NewBalance *decimal.Decimal `json:"new_balance,omitempty" swaggertype:"string" example:"2500"`
}
