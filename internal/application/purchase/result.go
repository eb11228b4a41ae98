package purchase

import (
	"github.com/shopspring/decimal"

	"skillcoins/internal/domain/currency"
)

// Reason 購入が成立しなかった理由
type Reason string

const (
	ReasonInsufficientFunds    Reason = "insufficient_funds"
	ReasonInvalidTarget        Reason = "invalid_target"
	ReasonAtMaxAlready         Reason = "at_max_already"
	ReasonConfigurationMissing Reason = "configuration_missing"
	ReasonInventoryFull        Reason = "inventory_full"
	ReasonInsufficientItems    Reason = "insufficient_items"
)

// Result 購入結果
type Result struct {
	Success       bool
	Reason        Reason
	NewBalance    decimal.Decimal
	Currency      currency.CurrencyType
	Cost          decimal.Decimal
	GrantedEffect string
}

// Succeeded 成功した購入結果を作成
func Succeeded(ct currency.CurrencyType, cost, newBalance decimal.Decimal, effect string) *Result {
	return &Result{
		Success:       true,
		NewBalance:    newBalance,
		Currency:      ct,
		Cost:          cost,
		GrantedEffect: effect,
	}
}

// Failed 成立しなかった購入結果を作成
func Failed(reason Reason, ct currency.CurrencyType, balance decimal.Decimal) *Result {
	return &Result{
		Success:    false,
		Reason:     reason,
		NewBalance: balance,
		Currency:   ct,
	}
}

// Quote 現在の選択状態の見積もり
type Quote struct {
	Currency    currency.CurrencyType
	Cost        decimal.Decimal
	Description string
	// Credit trueの場合Costは支払いではなく受け取り（売却）
	Credit bool
}
