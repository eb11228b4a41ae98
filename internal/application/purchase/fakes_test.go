package purchase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	appsession "skillcoins/internal/application/session"
	"skillcoins/internal/domain/currency"
	"skillcoins/internal/domain/session"
	"skillcoins/internal/domain/shop"
	"skillcoins/internal/domain/skill"
	"skillcoins/internal/infrastructure/concurrency"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// fakeLedger テスト用の台帳
type fakeLedger struct {
	mu       sync.Mutex
	balances map[currency.CurrencyType]decimal.Decimal
	addErr   error
}

func newFakeLedger(coins, tokens int64) *fakeLedger {
	return &fakeLedger{balances: map[currency.CurrencyType]decimal.Decimal{
		currency.CurrencyTypeCoins:  decimal.NewFromInt(coins),
		currency.CurrencyTypeTokens: decimal.NewFromInt(tokens),
	}}
}

func (l *fakeLedger) GetBalance(_ context.Context, _ uuid.UUID, ct currency.CurrencyType) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[ct]
}

func (l *fakeLedger) TrySubtract(_ context.Context, _ uuid.UUID, ct currency.CurrencyType, amount decimal.Decimal) (bool, decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[ct].LessThan(amount) {
		return false, l.balances[ct], nil
	}
	l.balances[ct] = l.balances[ct].Sub(amount)
	return true, l.balances[ct], nil
}

func (l *fakeLedger) AddBalance(_ context.Context, _ uuid.UUID, ct currency.CurrencyType, delta decimal.Decimal) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.addErr != nil {
		return l.balances[ct], l.addErr
	}
	l.balances[ct] = l.balances[ct].Add(delta)
	return l.balances[ct], nil
}

func (l *fakeLedger) set(ct currency.CurrencyType, v int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[ct] = decimal.NewFromInt(v)
}

func (l *fakeLedger) balance(ct currency.CurrencyType) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[ct]
}

// fakeLevels テスト用のスキルレベル
type fakeLevels struct {
	mu     sync.Mutex
	levels map[skill.Skill]int
	setErr error
}

func newFakeLevels(levels map[skill.Skill]int) *fakeLevels {
	if levels == nil {
		levels = make(map[skill.Skill]int)
	}
	return &fakeLevels{levels: levels}
}

func (r *fakeLevels) Level(_ context.Context, _ uuid.UUID, s skill.Skill) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.levels[s]; ok {
		return l, nil
	}
	return skill.StartLevel, nil
}

func (r *fakeLevels) SetLevel(_ context.Context, _ uuid.UUID, s skill.Skill, level int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	r.levels[s] = level
	return nil
}

// fakeInventory テスト用のインベントリ
type fakeInventory struct {
	mu         sync.Mutex
	free       int
	items      map[string]int
	delivered  []*shop.ItemGrant
	deliverErr error
}

func newFakeInventory(free int) *fakeInventory {
	return &fakeInventory{free: free, items: make(map[string]int)}
}

func (i *fakeInventory) FreeSlots(context.Context, uuid.UUID) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.free, nil
}

func (i *fakeInventory) Deliver(_ context.Context, _ uuid.UUID, grant *shop.ItemGrant) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.deliverErr != nil {
		return i.deliverErr
	}
	i.delivered = append(i.delivered, grant)
	i.items[grant.StackKey] += grant.Quantity
	return nil
}

func (i *fakeInventory) Remove(_ context.Context, _ uuid.UUID, stackKey string, quantity int) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.items[stackKey] < quantity {
		return shop.ErrNotEnoughItems
	}
	i.items[stackKey] -= quantity
	return nil
}

// MockNotifier モックNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PurchaseCompleted(ctx context.Context, playerID uuid.UUID, kind session.WizardKind, result *Result) {
	m.Called(ctx, playerID, kind, result)
}

func testItem(id, material string, buy, sell int64) *shop.Item {
	return &shop.Item{
		ID:           id,
		Material:     material,
		BuyPrice:     decimal.NewFromInt(buy),
		SellPrice:    decimal.NewFromInt(sell),
		Enchantments: map[string]int{},
		Type:         shop.ItemTypeRegular,
		Currency:     currency.CurrencyTypeCoins,
		SpawnerTier:  shop.SpawnerTierBasic,
		PackSize:     1,
	}
}

func testSpawner(entity string, tier shop.SpawnerTier, buy int64) *shop.Item {
	item := testItem("spawners/"+entity+"/"+tier.String(), "SPAWNER", buy, -1)
	item.Type = shop.ItemTypeSpawner
	item.SpawnerType = entity
	item.SpawnerTier = tier
	return item
}

func testCatalog() *shop.Catalog {
	tokens := testItem("tokens/1", "SUNFLOWER", 1000, -1)
	tokens.Type = shop.ItemTypeTokenExchange
	tokens.TokenAmount = 1

	level := testItem("levels/1", "EXPERIENCE_BOTTLE", 10, -1)
	level.Type = shop.ItemTypeSkillLevel
	level.Skill = "mining"

	blocks := &shop.Section{ID: "Blocks", Slot: 0, Items: []*shop.Item{
		testItem("blocks/stone", "STONE", 2, 1),
		testItem("blocks/sword", "DIAMOND_SWORD", 1200, -1),
		tokens,
		level,
	}}
	for i := 0; i < 46; i++ {
		blocks.Items = append(blocks.Items, testItem("blocks/filler", "DIRT", 1, 0))
	}

	spawners := &shop.Section{ID: "Spawners", Slot: 1, Items: []*shop.Item{
		testSpawner("ZOMBIE", shop.SpawnerTierBasic, 50000),
		testSpawner("ZOMBIE", shop.SpawnerTierHyper, 300000),
	}}
	return shop.NewCatalog([]*shop.Section{blocks, spawners})
}

type fixture struct {
	service   *PurchaseApplicationService
	ledger    *fakeLedger
	levels    *fakeLevels
	inventory *fakeInventory
	notifier  *MockNotifier
	playerID  uuid.UUID
}

func newFixture(t *testing.T, coins, tokens int64, levels map[skill.Skill]int) *fixture {
	t.Helper()
	registry, err := skill.NewRegistry(skill.DefaultSkills, 100, map[skill.Skill]int{"sorcery": 30})
	require.NoError(t, err)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)
	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))

	f := &fixture{
		ledger:    newFakeLedger(coins, tokens),
		levels:    newFakeLevels(levels),
		inventory: newFakeInventory(10),
		notifier:  new(MockNotifier),
		playerID:  uuid.New(),
	}
	catalog := testCatalog()
	f.service = NewPurchaseApplicationService(
		appsession.NewManager(concurrency.NewKeyedMutex(8), time.Hour, logger),
		f.ledger,
		[]Orchestrator{
			NewLevelBuyOrchestrator(f.ledger, registry, f.levels, 10),
			NewSpawnerTierOrchestrator(f.ledger, catalog, f.inventory),
			NewCatalogOrchestrator(f.ledger, catalog, f.inventory),
		},
		f.notifier,
		logger,
		metrics,
	)
	return f
}

func (f *fixture) open(t *testing.T, kind session.WizardKind, target session.Target) *WizardView {
	t.Helper()
	v, err := f.service.OpenWizard(context.Background(), &OpenWizardRequest{PlayerID: f.playerID, Kind: kind, Target: target})
	require.NoError(t, err)
	return v
}

func (f *fixture) act(t *testing.T, kind session.WizardKind, actionType session.ActionType, value string) *WizardView {
	t.Helper()
	v, err := f.service.UpdateSelection(context.Background(), f.playerID, kind, session.Action{Type: actionType, Value: value})
	require.NoError(t, err)
	return v
}
