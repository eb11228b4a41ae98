package shop

import (
	"fmt"
	"slices"
	"strings"
)

// SpawnerTier スポナーのティア
type SpawnerTier string

const (
	SpawnerTierBasic    SpawnerTier = "BASIC"
	SpawnerTierEnhanced SpawnerTier = "ENHANCED"
	SpawnerTierHyper    SpawnerTier = "HYPER"
	SpawnerTierOmega    SpawnerTier = "OMEGA"
)

// AllSpawnerTiers 全てのティア（安い順）
var AllSpawnerTiers = []SpawnerTier{SpawnerTierBasic, SpawnerTierEnhanced, SpawnerTierHyper, SpawnerTierOmega}

type tierSpec struct {
	spawnRate       float64
	priceMultiplier int64
	prefix          string
}

var tierSpecs = map[SpawnerTier]tierSpec{
	SpawnerTierBasic:    {spawnRate: 1.0, priceMultiplier: 1, prefix: ""},
	SpawnerTierEnhanced: {spawnRate: 1.5, priceMultiplier: 3, prefix: "✦ "},
	SpawnerTierHyper:    {spawnRate: 2.0, priceMultiplier: 6, prefix: "✦✦ "},
	SpawnerTierOmega:    {spawnRate: 3.0, priceMultiplier: 12, prefix: "✦✦✦ "},
}

// NewSpawnerTier 文字列からティアを作成（大文字小文字は区別しない）
func NewSpawnerTier(s string) (SpawnerTier, error) {
	t := SpawnerTier(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidSpawnerTier, s)
	}
	return t, nil
}

// Valid 有効なティアかどうかを返す
func (t SpawnerTier) Valid() bool {
	return slices.Contains(AllSpawnerTiers, t)
}

// String 文字列表現を返す
func (t SpawnerTier) String() string {
	return string(t)
}

// SpawnRateMultiplier スポーン速度の倍率
func (t SpawnerTier) SpawnRateMultiplier() float64 {
	return tierSpecs[t].spawnRate
}

// PriceMultiplier 基本価格に対する表示上の倍率
func (t SpawnerTier) PriceMultiplier() int64 {
	if spec, ok := tierSpecs[t]; ok {
		return spec.priceMultiplier
	}
	return 1
}

// Prefix 表示名の接頭辞
func (t SpawnerTier) Prefix() string {
	return tierSpecs[t].prefix
}
