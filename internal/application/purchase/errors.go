package purchase

import (
	"errors"

	"skillcoins/internal/domain/currency"
	"skillcoins/internal/domain/session"
	"skillcoins/internal/domain/shop"
	"skillcoins/internal/domain/skill"
)

var (
	// ErrInvalidTarget 購入対象が存在しない、または選択できない
	ErrInvalidTarget = errors.New("invalid purchase target")
	// ErrAlreadyAtLimit 既に上限に達している
	ErrAlreadyAtLimit = errors.New("already at limit")
	// ErrNoOrchestrator ウィザードの種類に対応する購入処理が無い
	ErrNoOrchestrator = errors.New("no orchestrator for wizard kind")
)

// ReasonFor 検証エラーを購入結果の理由に変換する
//
// 永続化の失敗など、購入結果として扱わないエラーはok=false。
func ReasonFor(err error) (reason Reason, ok bool) {
	switch {
	case errors.Is(err, currency.ErrPersistenceFailure):
		return "", false
	case errors.Is(err, currency.ErrInsufficientFunds):
		return ReasonInsufficientFunds, true
	case errors.Is(err, ErrAlreadyAtLimit):
		return ReasonAtMaxAlready, true
	case errors.Is(err, shop.ErrPriceNotConfigured):
		return ReasonConfigurationMissing, true
	case errors.Is(err, shop.ErrInventoryFull):
		return ReasonInventoryFull, true
	case errors.Is(err, shop.ErrNotEnoughItems):
		return ReasonInsufficientItems, true
	case errors.Is(err, ErrInvalidTarget),
		errors.Is(err, skill.ErrUnknownSkill),
		errors.Is(err, shop.ErrSectionNotFound),
		errors.Is(err, shop.ErrItemNotFound),
		errors.Is(err, shop.ErrInvalidSpawnerTier),
		errors.Is(err, shop.ErrInvalidItemType),
		errors.Is(err, session.ErrInvalidAction):
		return ReasonInvalidTarget, true
	default:
		return "", false
	}
}
