package bridge

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommandRequest 外部経済コマンドの転送リクエスト
type CommandRequest struct {
	Command string
	Issuer  string
}

// CommandResponse 転送結果
//
// Handledがfalseの場合、呼び出し側は元のコマンド処理をそのまま続ける。
type CommandResponse struct {
	Handled    bool
	Operation  Operation
	PlayerID   uuid.UUID
	NewBalance decimal.Decimal
}
