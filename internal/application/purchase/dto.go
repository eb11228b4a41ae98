package purchase

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"skillcoins/internal/domain/session"
)

// OpenWizardRequest ウィザードを開くリクエスト
type OpenWizardRequest struct {
	PlayerID uuid.UUID
	Kind     session.WizardKind
	Target   session.Target
	// Resume trueの場合、閉じた直後のセッションがあれば選択状態を引き継ぐ
	Resume bool
}

// WizardView 描画用のウィザードの状態
type WizardView struct {
	Session    session.Session
	Quote      *Quote
	Balance    decimal.Decimal
	Affordable bool
	// Unavailable 見積もりができない理由（見積もりできた場合は空）
	Unavailable Reason
}
