package purchase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"skillcoins/internal/domain/currency"
	"skillcoins/internal/domain/session"
	"skillcoins/internal/domain/shop"
)

// spawnerResaleRatio 購入したスポナーの売却価格の割合
var spawnerResaleRatio = decimal.NewFromFloat(0.5)

// SpawnerTierOrchestrator ティア付きスポナーを購入する
type SpawnerTierOrchestrator struct {
	ledger    Ledger
	catalog   *shop.Catalog
	inventory shop.Inventory
}

// NewSpawnerTierOrchestrator 新しいSpawnerTierOrchestratorを作成
func NewSpawnerTierOrchestrator(ledger Ledger, catalog *shop.Catalog, inventory shop.Inventory) *SpawnerTierOrchestrator {
	return &SpawnerTierOrchestrator{
		ledger:    ledger,
		catalog:   catalog,
		inventory: inventory,
	}
}

// Kind 担当するウィザードの種類
func (o *SpawnerTierOrchestrator) Kind() session.WizardKind {
	return session.WizardKindSpawnerTierBuy
}

// DefaultOrigin ショップのメイン画面に戻る
func (o *SpawnerTierOrchestrator) DefaultOrigin() session.Origin {
	return session.OriginShopMain
}

// Open エンティティを選び、BASICティアを選択した状態で開く
func (o *SpawnerTierOrchestrator) Open(_ context.Context, _ uuid.UUID, target session.Target) (session.Selection, error) {
	entity := strings.ToUpper(strings.TrimSpace(target.EntityType))
	if entity == "" || !o.catalog.HasSpawner(entity) {
		return session.Selection{}, fmt.Errorf("%w: no spawner for %q", ErrInvalidTarget, target.EntityType)
	}
	return session.Selection{
		EntityType: entity,
		Tier:       shop.SpawnerTierBasic.String(),
	}, nil
}

// Apply ティアの選択のみ受け付ける
func (o *SpawnerTierOrchestrator) Apply(_ context.Context, _ uuid.UUID, sel session.Selection, action session.Action) (session.Selection, error) {
	if action.Type != session.ActionSelectTier {
		return sel, fmt.Errorf("%w: %s", session.ErrInvalidAction, action.Type)
	}
	tier, err := shop.NewSpawnerTier(action.Value)
	if err != nil {
		return sel, err
	}
	sel.Tier = tier.String()
	return sel, nil
}

// Quote 選択中のティアの設定価格。説明には基本価格に対する倍率を添える
func (o *SpawnerTierOrchestrator) Quote(_ context.Context, _ uuid.UUID, sel session.Selection) (*Quote, error) {
	item, err := o.item(sel)
	if err != nil {
		return nil, err
	}
	tier := item.SpawnerTier
	return &Quote{
		Currency:    item.Currency,
		Cost:        item.BuyPrice,
		Description: fmt.Sprintf("%s (%dx base price)", item.DisplayName(), tier.PriceMultiplier()),
	}, nil
}

// Confirm 空きスロットを確認し、代金を減算してからスポナーを引き渡す
func (o *SpawnerTierOrchestrator) Confirm(ctx context.Context, playerID uuid.UUID, sel session.Selection) (*Result, session.Selection, error) {
	item, err := o.item(sel)
	if err != nil {
		return nil, sel, err
	}
	price := item.BuyPrice

	free, err := o.inventory.FreeSlots(ctx, playerID)
	if err != nil {
		return nil, sel, fmt.Errorf("%w: failed to read inventory: %w", currency.ErrPersistenceFailure, err)
	}
	if free < 1 {
		return nil, sel, shop.ErrInventoryFull
	}

	ok, balance, err := o.ledger.TrySubtract(ctx, playerID, item.Currency, price)
	if err != nil {
		return nil, sel, err
	}
	if !ok {
		return Failed(ReasonInsufficientFunds, item.Currency, balance), sel, nil
	}

	grant := shop.NewItemGrant(item, 1)
	grant.SellPrice = price.Mul(spawnerResaleRatio)
	grant.PackSize = 1
	if err := o.inventory.Deliver(ctx, playerID, grant); err != nil {
		if refundErr := refund(ctx, o.ledger, playerID, item.Currency, price); refundErr != nil {
			return nil, sel, fmt.Errorf("%w: failed to deliver spawner (%v) and to refund: %w", currency.ErrPersistenceFailure, err, refundErr)
		}
		return nil, sel, fmt.Errorf("%w: failed to deliver spawner: %w", currency.ErrPersistenceFailure, err)
	}

	return Succeeded(item.Currency, price, balance, grant.DisplayName+" x1"), sel, nil
}

func (o *SpawnerTierOrchestrator) item(sel session.Selection) (*shop.Item, error) {
	if sel.EntityType == "" {
		return nil, fmt.Errorf("%w: entity type is required", ErrInvalidTarget)
	}
	tier, err := shop.NewSpawnerTier(sel.Tier)
	if err != nil {
		return nil, err
	}
	return o.catalog.SpawnerItem(sel.EntityType, tier)
}
