package player

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"skillcoins/internal/domain/currency"
)

// JoinRequest ログインリクエスト
type JoinRequest struct {
	PlayerID uuid.UUID
	Name     string
}

// JoinResponse ログイン時に読み込んだ残高
type JoinResponse struct {
	PlayerID uuid.UUID
	Name     string
	Balances map[currency.CurrencyType]decimal.Decimal
}
