package currency

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceStore 残高の永続化インターフェース
type BalanceStore interface {
	// Load プレイヤーの全通貨の残高を取得（未保存の通貨はマップに含まれない）
	Load(ctx context.Context, playerID uuid.UUID) (map[CurrencyType]decimal.Decimal, error)

	// Save 1通貨の残高を保存
	Save(ctx context.Context, playerID uuid.UUID, currencyType CurrencyType, amount decimal.Decimal) error

	// SaveAll プレイヤーの全通貨の残高を1トランザクションで保存
	SaveAll(ctx context.Context, playerID uuid.UUID, balances map[CurrencyType]decimal.Decimal) error
}
