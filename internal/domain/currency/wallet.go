package currency

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet プレイヤー1人分の残高エンティティ
//
// Wallet自体は同期を持たない。呼び出し側がプレイヤー単位のロックを保持すること。
type Wallet struct {
	playerID uuid.UUID
	balances map[CurrencyType]decimal.Decimal
}

// NewWallet 新しいWalletを作成（負の残高は0に丸める）
func NewWallet(playerID uuid.UUID, balances map[CurrencyType]decimal.Decimal) *Wallet {
	w := &Wallet{
		playerID: playerID,
		balances: make(map[CurrencyType]decimal.Decimal, len(AllCurrencyTypes)),
	}
	for ct, amount := range balances {
		w.balances[ct] = ClampNonNegative(amount)
	}
	return w
}

// PlayerID プレイヤーIDを返す
func (w *Wallet) PlayerID() uuid.UUID {
	return w.playerID
}

// Balance 残高を返す（未設定の通貨は0）
func (w *Wallet) Balance(ct CurrencyType) decimal.Decimal {
	if amount, ok := w.balances[ct]; ok {
		return amount
	}
	return decimal.Zero
}

// Set 残高を設定し、丸めた後の値を返す
func (w *Wallet) Set(ct CurrencyType, amount decimal.Decimal) decimal.Decimal {
	clamped := ClampNonNegative(amount)
	w.balances[ct] = clamped
	return clamped
}

// Snapshot 全通貨の残高のコピーを返す
func (w *Wallet) Snapshot() map[CurrencyType]decimal.Decimal {
	out := make(map[CurrencyType]decimal.Decimal, len(AllCurrencyTypes))
	for _, ct := range AllCurrencyTypes {
		out[ct] = w.Balance(ct)
	}
	return out
}

// ClampNonNegative 負の値を0に丸める
func ClampNonNegative(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// Scale 永続化される残高の小数点以下の桁数（balance DECIMAL(24, 4)）
const Scale int32 = 4

// ValidateScale 保存できる桁数に収まっているかを検証する
//
// 収まらない値は保存時に黙って丸められるため、受け付けずにErrInvalidAmountを返す。
func ValidateScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(Scale)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amount.String(), Scale)
	}
	return nil
}

// ValidateDelta 加減算に使う金額を検証する
func ValidateDelta(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	return ValidateScale(amount)
}
