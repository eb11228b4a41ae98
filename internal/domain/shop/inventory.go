package shop

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventorySlots プレイヤーのインベントリのスロット数
const InventorySlots = 36

// ItemGrant プレイヤーに引き渡すアイテム
type ItemGrant struct {
	StackKey     string            `json:"stack_key"`
	Material     string            `json:"material"`
	Quantity     int               `json:"quantity"`
	DisplayName  string            `json:"display_name"`
	Enchantments map[string]int    `json:"enchantments,omitempty"`
	SpawnerType  string            `json:"spawner_type,omitempty"`
	SpawnerTier  SpawnerTier       `json:"spawner_tier,omitempty"`
	SpawnRate    float64           `json:"spawn_rate,omitempty"`
	SellPrice    decimal.Decimal   `json:"sell_price"`
	PackSize     int               `json:"pack_size,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// NewItemGrant カタログ商品から引き渡しアイテムを作成
func NewItemGrant(item *Item, quantity int) *ItemGrant {
	g := &ItemGrant{
		StackKey:     item.StackKey(),
		Material:     item.Material,
		Quantity:     quantity,
		DisplayName:  item.DisplayName(),
		Enchantments: item.Enchantments,
		SellPrice:    item.SellPrice,
	}
	if item.IsSpawner() {
		g.SpawnerType = item.SpawnerType
		g.SpawnerTier = item.SpawnerTier
		g.SpawnRate = item.SpawnerTier.SpawnRateMultiplier()
		g.PackSize = item.PackSize
	}
	return g
}

// Inventory アイテム引き渡し先のインベントリ
type Inventory interface {
	// FreeSlots 空きスロット数
	FreeSlots(ctx context.Context, playerID uuid.UUID) (int, error)

	// Deliver アイテムを引き渡す
	Deliver(ctx context.Context, playerID uuid.UUID, grant *ItemGrant) error

	// Remove アイテムを取り除く（不足している場合はErrNotEnoughItems）
	Remove(ctx context.Context, playerID uuid.UUID, stackKey string, quantity int) error
}
