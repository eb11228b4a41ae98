package session

import (
	"fmt"
	"slices"
	"strings"
)

// WizardKind 購入ウィザードの種類
type WizardKind string

const (
	WizardKindCatalogBuy     WizardKind = "catalog_buy"
	WizardKindLevelBuy       WizardKind = "level_buy"
	WizardKindSpawnerTierBuy WizardKind = "spawner_tier_buy"
)

// AllWizardKinds 全てのウィザードの種類
var AllWizardKinds = []WizardKind{WizardKindCatalogBuy, WizardKindLevelBuy, WizardKindSpawnerTierBuy}

// NewWizardKind 文字列からWizardKindを作成
func NewWizardKind(s string) (WizardKind, error) {
	k := WizardKind(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(AllWizardKinds, k) {
		return "", fmt.Errorf("%w: %s", ErrUnknownWizardKind, s)
	}
	return k, nil
}

// String 文字列表現を返す
func (k WizardKind) String() string {
	return string(k)
}

// Origin ウィザードを閉じたときに戻る画面
type Origin string

const (
	OriginNone        Origin = ""
	OriginShopMain    Origin = "shop_main"
	OriginSkillSelect Origin = "skill_select"
	OriginSkillRoad   Origin = "skill_road"
)

// NewOrigin 文字列からOriginを作成（空文字列はOriginNone）
func NewOrigin(s string) (Origin, error) {
	o := Origin(strings.ToLower(strings.TrimSpace(s)))
	switch o {
	case OriginNone, OriginShopMain, OriginSkillSelect, OriginSkillRoad:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownOrigin, s)
	}
}
