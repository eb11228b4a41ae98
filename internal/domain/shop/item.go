package shop

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"skillcoins/internal/domain/currency"
)

// ItemType 商品タイプ
type ItemType string

const (
	ItemTypeRegular       ItemType = "regular"
	ItemTypeSkillLevel    ItemType = "skill_level"
	ItemTypeTokenExchange ItemType = "token_exchange"
	ItemTypeSpawner       ItemType = "spawner"
)

// TokenExchangeRate トークン1枚あたりのコイン換算レート
const TokenExchangeRate = 1000

// MaxStackSize 1回の取引で扱える最大数量
const MaxStackSize = 64

// Item カタログの商品
//
// 価格が負の場合、その方向（購入/売却）の取引はできない。
type Item struct {
	ID           string
	Material     string
	BuyPrice     decimal.Decimal
	SellPrice    decimal.Decimal
	Enchantments map[string]int
	Type         ItemType
	Skill        string
	TokenAmount  int64
	Currency     currency.CurrencyType
	SpawnerType  string
	SpawnerTier  SpawnerTier
	PackSize     int
}

// CanBuy 購入可能かどうか
func (i *Item) CanBuy() bool {
	return !i.BuyPrice.IsNegative()
}

// CanSell 売却可能かどうか
func (i *Item) CanSell() bool {
	return !i.SellPrice.IsNegative()
}

// IsSpawner スポナー商品かどうか
func (i *Item) IsSpawner() bool {
	return i.Type == ItemTypeSpawner && i.SpawnerType != ""
}

// DisplayName 表示名
func (i *Item) DisplayName() string {
	if i.IsSpawner() {
		return fmt.Sprintf("%s%s Spawner", i.SpawnerTier.Prefix(), humanize(i.SpawnerType))
	}
	if i.Type == ItemTypeTokenExchange {
		return fmt.Sprintf("%d Skill Tokens", i.TokenAmount)
	}
	return humanize(i.Material)
}

// StackKey インベントリ上で同一と見なすためのキー
//
// エンチャント付きの商品は素材名にエンチャントを名前順で連結し、
// 素の商品とは別に積む。
func (i *Item) StackKey() string {
	if i.IsSpawner() {
		return SpawnerStackKey(i.SpawnerType, i.SpawnerTier)
	}
	key := strings.ToLower(i.Material)
	if len(i.Enchantments) == 0 {
		return key
	}
	names := slices.Sorted(maps.Keys(i.Enchantments))
	parts := make([]string, len(names))
	for n, name := range names {
		parts[n] = fmt.Sprintf("%s=%d", strings.ToLower(name), i.Enchantments[name])
	}
	return key + "#" + strings.Join(parts, ",")
}

// SpawnerStackKey スポナーのスタックキー
func SpawnerStackKey(entityType string, tier SpawnerTier) string {
	return fmt.Sprintf("spawner:%s:%s", strings.ToLower(entityType), strings.ToLower(tier.String()))
}

func humanize(s string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(s), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
