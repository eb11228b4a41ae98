package purchase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"skillcoins/internal/domain/currency"
	"skillcoins/internal/domain/session"
	"skillcoins/internal/domain/shop"
)

// ItemsPerPage カタログ画面の1ページに並ぶ商品数
const ItemsPerPage = 45

// CatalogOrchestrator カタログ商品の購入と売却
type CatalogOrchestrator struct {
	ledger    Ledger
	catalog   *shop.Catalog
	inventory shop.Inventory
}

// NewCatalogOrchestrator 新しいCatalogOrchestratorを作成
func NewCatalogOrchestrator(ledger Ledger, catalog *shop.Catalog, inventory shop.Inventory) *CatalogOrchestrator {
	return &CatalogOrchestrator{
		ledger:    ledger,
		catalog:   catalog,
		inventory: inventory,
	}
}

// Kind 担当するウィザードの種類
func (o *CatalogOrchestrator) Kind() session.WizardKind {
	return session.WizardKindCatalogBuy
}

// DefaultOrigin ショップのメイン画面に戻る
func (o *CatalogOrchestrator) DefaultOrigin() session.Origin {
	return session.OriginShopMain
}

// Open セクションの1ページ目を、商品未選択の購入モードで開く
func (o *CatalogOrchestrator) Open(_ context.Context, _ uuid.UUID, target session.Target) (session.Selection, error) {
	if target.SectionID == "" {
		return session.Selection{}, fmt.Errorf("%w: section is required", ErrInvalidTarget)
	}
	section, err := o.catalog.Section(target.SectionID)
	if err != nil {
		return session.Selection{}, err
	}
	return session.Selection{
		SectionID: section.ID,
		ItemIndex: -1,
		Mode:      session.TradeModeBuy,
		Quantity:  1,
	}, nil
}

// Apply ページ送り、商品選択、売買の切り替え、数量の変更
func (o *CatalogOrchestrator) Apply(_ context.Context, _ uuid.UUID, sel session.Selection, action session.Action) (session.Selection, error) {
	section, err := o.catalog.Section(sel.SectionID)
	if err != nil {
		return sel, err
	}

	switch action.Type {
	case session.ActionNextPage:
		if sel.Page < section.PageCount(ItemsPerPage)-1 {
			sel.Page++
		}
	case session.ActionPreviousPage:
		if sel.Page > 0 {
			sel.Page--
		}
	case session.ActionSelectItem:
		slot, err := action.IntValue()
		if err != nil {
			return sel, err
		}
		if slot < 0 || slot >= ItemsPerPage {
			return sel, fmt.Errorf("%w: slot %d", shop.ErrItemNotFound, slot)
		}
		index := sel.Page*ItemsPerPage + slot
		if _, err := section.ItemAt(index); err != nil {
			return sel, err
		}
		sel.ItemIndex = index
		sel.Quantity = 1
	case session.ActionSetMode:
		switch mode := session.TradeMode(strings.ToLower(action.Value)); mode {
		case session.TradeModeBuy, session.TradeModeSell:
			sel.Mode = mode
		default:
			return sel, fmt.Errorf("%w: mode %q", session.ErrInvalidAction, action.Value)
		}
	case session.ActionIncrement:
		if sel.Quantity < shop.MaxStackSize {
			sel.Quantity++
		}
	case session.ActionDecrement:
		if sel.Quantity > 1 {
			sel.Quantity--
		}
	case session.ActionSetQuantity:
		qty, err := action.IntValue()
		if err != nil {
			return sel, err
		}
		if qty < 1 || qty > shop.MaxStackSize {
			return sel, fmt.Errorf("%w: quantity must be between 1 and %d", session.ErrInvalidAction, shop.MaxStackSize)
		}
		sel.Quantity = qty
	default:
		return sel, fmt.Errorf("%w: %s", session.ErrInvalidAction, action.Type)
	}
	return sel, nil
}

// Quote 購入なら支払額、売却なら受取額
func (o *CatalogOrchestrator) Quote(_ context.Context, _ uuid.UUID, sel session.Selection) (*Quote, error) {
	item, qty, err := o.selected(sel)
	if err != nil {
		return nil, err
	}
	if sel.Mode == session.TradeModeSell {
		if !item.CanSell() {
			return nil, fmt.Errorf("%w: %s cannot be sold", shop.ErrPriceNotConfigured, item.ID)
		}
		return &Quote{
			Currency:    item.Currency,
			Cost:        item.SellPrice.Mul(decimal.NewFromInt(int64(qty))),
			Description: fmt.Sprintf("Sell %s x%d", item.DisplayName(), qty),
			Credit:      true,
		}, nil
	}
	if !item.CanBuy() {
		return nil, fmt.Errorf("%w: %s cannot be bought", shop.ErrPriceNotConfigured, item.ID)
	}
	return &Quote{
		Currency:    item.Currency,
		Cost:        item.BuyPrice.Mul(decimal.NewFromInt(int64(qty))),
		Description: fmt.Sprintf("Buy %s x%d", item.DisplayName(), qty),
	}, nil
}

// Confirm 選択中のモードで取引を確定する
func (o *CatalogOrchestrator) Confirm(ctx context.Context, playerID uuid.UUID, sel session.Selection) (*Result, session.Selection, error) {
	item, qty, err := o.selected(sel)
	if err != nil {
		return nil, sel, err
	}

	var result *Result
	if sel.Mode == session.TradeModeSell {
		result, err = o.sell(ctx, playerID, item, qty)
	} else {
		result, err = o.buy(ctx, playerID, item, qty)
	}
	if err != nil {
		return nil, sel, err
	}

	next := sel
	if result.Success {
		next.Quantity = 1
	}
	return result, next, nil
}

func (o *CatalogOrchestrator) buy(ctx context.Context, playerID uuid.UUID, item *shop.Item, qty int) (*Result, error) {
	if item.Type == shop.ItemTypeSkillLevel {
		return nil, fmt.Errorf("%w: skill levels are bought through the level wizard", ErrInvalidTarget)
	}
	if !item.CanBuy() {
		return nil, fmt.Errorf("%w: %s cannot be bought", shop.ErrPriceNotConfigured, item.ID)
	}
	cost := item.BuyPrice.Mul(decimal.NewFromInt(int64(qty)))

	if item.Type == shop.ItemTypeTokenExchange {
		return o.exchangeTokens(ctx, playerID, item, qty, cost)
	}

	free, err := o.inventory.FreeSlots(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read inventory: %w", currency.ErrPersistenceFailure, err)
	}
	if free < 1 {
		return nil, shop.ErrInventoryFull
	}

	ok, balance, err := o.ledger.TrySubtract(ctx, playerID, item.Currency, cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Failed(ReasonInsufficientFunds, item.Currency, balance), nil
	}

	grant := shop.NewItemGrant(item, qty)
	if err := o.inventory.Deliver(ctx, playerID, grant); err != nil {
		if refundErr := refund(ctx, o.ledger, playerID, item.Currency, cost); refundErr != nil {
			return nil, fmt.Errorf("%w: failed to deliver item (%v) and to refund: %w", currency.ErrPersistenceFailure, err, refundErr)
		}
		return nil, fmt.Errorf("%w: failed to deliver item: %w", currency.ErrPersistenceFailure, err)
	}

	return Succeeded(item.Currency, cost, balance, fmt.Sprintf("%s x%d", grant.DisplayName, qty)), nil
}

func (o *CatalogOrchestrator) exchangeTokens(ctx context.Context, playerID uuid.UUID, item *shop.Item, qty int, cost decimal.Decimal) (*Result, error) {
	ok, balance, err := o.ledger.TrySubtract(ctx, playerID, item.Currency, cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Failed(ReasonInsufficientFunds, item.Currency, balance), nil
	}

	tokens := item.TokenAmount * int64(qty)
	if _, err := o.ledger.AddBalance(ctx, playerID, currency.CurrencyTypeTokens, decimal.NewFromInt(tokens)); err != nil {
		if refundErr := refund(ctx, o.ledger, playerID, item.Currency, cost); refundErr != nil {
			return nil, fmt.Errorf("failed to credit tokens (%v) and to refund: %w", err, refundErr)
		}
		return nil, fmt.Errorf("failed to credit tokens: %w", err)
	}

	return Succeeded(item.Currency, cost, balance, fmt.Sprintf("%d Skill Tokens", tokens)), nil
}

func (o *CatalogOrchestrator) sell(ctx context.Context, playerID uuid.UUID, item *shop.Item, qty int) (*Result, error) {
	if item.Type == shop.ItemTypeSkillLevel || item.Type == shop.ItemTypeTokenExchange {
		return nil, fmt.Errorf("%w: %s items cannot be sold", ErrInvalidTarget, item.Type)
	}
	if !item.CanSell() {
		return nil, fmt.Errorf("%w: %s cannot be sold", shop.ErrPriceNotConfigured, item.ID)
	}
	credit := item.SellPrice.Mul(decimal.NewFromInt(int64(qty)))

	if err := o.inventory.Remove(ctx, playerID, item.StackKey(), qty); err != nil {
		if errors.Is(err, shop.ErrNotEnoughItems) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to remove items: %w", currency.ErrPersistenceFailure, err)
	}

	balance, err := o.ledger.AddBalance(ctx, playerID, item.Currency, credit)
	if err != nil {
		if restoreErr := o.inventory.Deliver(ctx, playerID, shop.NewItemGrant(item, qty)); restoreErr != nil {
			return nil, fmt.Errorf("failed to credit sale (%v) and to restore items: %w", restoreErr, err)
		}
		return nil, fmt.Errorf("failed to credit sale: %w", err)
	}

	return Succeeded(item.Currency, credit, balance, fmt.Sprintf("Sold %s x%d", item.DisplayName(), qty)), nil
}

func (o *CatalogOrchestrator) selected(sel session.Selection) (*shop.Item, int, error) {
	section, err := o.catalog.Section(sel.SectionID)
	if err != nil {
		return nil, 0, err
	}
	if sel.ItemIndex < 0 {
		return nil, 0, fmt.Errorf("%w: no item selected", ErrInvalidTarget)
	}
	item, err := section.ItemAt(sel.ItemIndex)
	if err != nil {
		return nil, 0, err
	}
	qty := sel.Quantity
	if qty < 1 {
		qty = 1
	}
	if qty > shop.MaxStackSize {
		qty = shop.MaxStackSize
	}
	return item, qty, nil
}
