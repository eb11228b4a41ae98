// Package purchase は購入ウィザードの選択状態の更新と購入の確定を扱う。
//
// 購入の確定は常に「残高の減算に成功してから効果を付与する」順で行い、
// 減算に失敗した場合は何も付与しない。
package purchase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"skillcoins/internal/domain/currency"
	"skillcoins/internal/domain/session"
)

// Ledger 購入処理が使う台帳操作
type Ledger interface {
	GetBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType) decimal.Decimal
	TrySubtract(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, amount decimal.Decimal) (bool, decimal.Decimal, error)
	AddBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, delta decimal.Decimal) (decimal.Decimal, error)
}

// Orchestrator ウィザードの種類ごとの購入処理
type Orchestrator interface {
	// Kind 担当するウィザードの種類
	Kind() session.WizardKind
	// DefaultOrigin 戻り先が記録されていない場合の戻り先
	DefaultOrigin() session.Origin
	// Open ウィザードを開いたときの初期選択を計算する
	Open(ctx context.Context, playerID uuid.UUID, target session.Target) (session.Selection, error)
	// Apply ウィザード内の操作を適用した選択を返す
	Apply(ctx context.Context, playerID uuid.UUID, sel session.Selection, action session.Action) (session.Selection, error)
	// Quote 選択中の購入の見積もりを返す
	Quote(ctx context.Context, playerID uuid.UUID, sel session.Selection) (*Quote, error)
	// Confirm 購入を確定し、結果と次の選択を返す
	//
	// 検証エラーはエラーとして返す。残高不足は失敗した Result として返す。
	Confirm(ctx context.Context, playerID uuid.UUID, sel session.Selection) (*Result, session.Selection, error)
}

// Notifier 購入完了を外部に知らせる任意の連携先
type Notifier interface {
	PurchaseCompleted(ctx context.Context, playerID uuid.UUID, kind session.WizardKind, result *Result)
}

// NopNotifier 何もしないNotifier
type NopNotifier struct{}

// PurchaseCompleted 何もしない
func (NopNotifier) PurchaseCompleted(context.Context, uuid.UUID, session.WizardKind, *Result) {}

// refund 付与に失敗したときに減算した分を戻す
func refund(ctx context.Context, ledger Ledger, playerID uuid.UUID, ct currency.CurrencyType, amount decimal.Decimal) error {
	_, err := ledger.AddBalance(ctx, playerID, ct, amount)
	return err
}
