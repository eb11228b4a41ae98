package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"skillcoins/internal/domain/currency"
	"skillcoins/internal/infrastructure/concurrency"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// MockBalanceStore モックBalanceStore
type MockBalanceStore struct {
	mock.Mock
}

func (m *MockBalanceStore) Load(ctx context.Context, playerID uuid.UUID) (map[currency.CurrencyType]decimal.Decimal, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[currency.CurrencyType]decimal.Decimal), args.Error(1)
}

func (m *MockBalanceStore) Save(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, amount decimal.Decimal) error {
	args := m.Called(ctx, playerID, currencyType, amount)
	return args.Error(0)
}

func (m *MockBalanceStore) SaveAll(ctx context.Context, playerID uuid.UUID, balances map[currency.CurrencyType]decimal.Decimal) error {
	args := m.Called(ctx, playerID, balances)
	return args.Error(0)
}

// memoryStore 並行テスト用のBalanceStore
type memoryStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]map[currency.CurrencyType]decimal.Decimal
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[uuid.UUID]map[currency.CurrencyType]decimal.Decimal)}
}

func (m *memoryStore) Load(_ context.Context, playerID uuid.UUID) (map[currency.CurrencyType]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[currency.CurrencyType]decimal.Decimal)
	for ct, v := range m.rows[playerID] {
		out[ct] = v
	}
	return out, nil
}

func (m *memoryStore) Save(_ context.Context, playerID uuid.UUID, ct currency.CurrencyType, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[playerID] == nil {
		m.rows[playerID] = make(map[currency.CurrencyType]decimal.Decimal)
	}
	m.rows[playerID][ct] = amount
	return nil
}

func (m *memoryStore) SaveAll(ctx context.Context, playerID uuid.UUID, balances map[currency.CurrencyType]decimal.Decimal) error {
	for ct, v := range balances {
		if err := m.Save(ctx, playerID, ct, v); err != nil {
			return err
		}
	}
	return nil
}

func newTestService(t *testing.T, store currency.BalanceStore) *LedgerService {
	t.Helper()
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)
	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
	return NewLedgerService(store, concurrency.NewKeyedMutex(16), 4, logger, metrics)
}

// scaledStore DECIMAL(24, 4)と同じく保存時に小数点以下4桁へ丸めるBalanceStore
type scaledStore struct {
	*memoryStore
}

func (s scaledStore) Save(ctx context.Context, playerID uuid.UUID, ct currency.CurrencyType, amount decimal.Decimal) error {
	return s.memoryStore.Save(ctx, playerID, ct, amount.Round(currency.Scale))
}

func (s scaledStore) SaveAll(ctx context.Context, playerID uuid.UUID, balances map[currency.CurrencyType]decimal.Decimal) error {
	for ct, v := range balances {
		if err := s.Save(ctx, playerID, ct, v); err != nil {
			return err
		}
	}
	return nil
}

// loaded プレイヤーの残高がキャッシュされているかどうか
func loaded(s *LedgerService, playerID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.wallets[playerID]
	return ok
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestLedgerService_GetBalance(t *testing.T) {
	playerID := uuid.New()

	tests := []struct {
		name       string
		setupMocks func(*MockBalanceStore)
		want       decimal.Decimal
		wantLoaded bool
	}{
		{
			name: "正常系: 保存済みの残高を返す",
			setupMocks: func(m *MockBalanceStore) {
				m.On("Load", mock.Anything, playerID).Return(map[currency.CurrencyType]decimal.Decimal{
					currency.CurrencyTypeCoins: dec(150),
				}, nil).Once()
			},
			want:       dec(150),
			wantLoaded: true,
		},
		{
			name: "正常系: 未保存の場合は0",
			setupMocks: func(m *MockBalanceStore) {
				m.On("Load", mock.Anything, playerID).Return(map[currency.CurrencyType]decimal.Decimal{}, nil).Once()
			},
			want:       decimal.Zero,
			wantLoaded: true,
		},
		{
			name: "異常系: 読み込み失敗でも0を返しキャッシュしない",
			setupMocks: func(m *MockBalanceStore) {
				m.On("Load", mock.Anything, playerID).Return(nil, errors.New("connection refused")).Once()
			},
			want:       decimal.Zero,
			wantLoaded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockBalanceStore)
			tt.setupMocks(store)
			s := newTestService(t, store)

			got := s.GetBalance(context.Background(), playerID, currency.CurrencyTypeCoins)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, tt.wantLoaded, loaded(s, playerID))
			store.AssertExpectations(t)
		})
	}
}

func TestLedgerService_GetBalance_LoadsOnce(t *testing.T) {
	playerID := uuid.New()
	store := new(MockBalanceStore)
	store.On("Load", mock.Anything, playerID).Return(map[currency.CurrencyType]decimal.Decimal{
		currency.CurrencyTypeTokens: dec(3),
	}, nil).Once()

	s := newTestService(t, store)
	for i := 0; i < 3; i++ {
		assert.True(t, dec(3).Equal(s.GetBalance(context.Background(), playerID, currency.CurrencyTypeTokens)))
	}
	store.AssertNumberOfCalls(t, "Load", 1)
}

func TestLedgerService_SetBalance(t *testing.T) {
	playerID := uuid.New()

	tests := []struct {
		name        string
		amount      decimal.Decimal
		setupMocks  func(*MockBalanceStore)
		want        decimal.Decimal
		wantErr     error
		wantBalance decimal.Decimal
	}{
		{
			name:   "正常系: 残高を設定",
			amount: dec(500),
			setupMocks: func(m *MockBalanceStore) {
				m.On("Save", mock.Anything, playerID, currency.CurrencyTypeCoins, dec(500)).Return(nil)
			},
			want:        dec(500),
			wantBalance: dec(500),
		},
		{
			name:   "正常系: 負の値は0に丸める",
			amount: dec(-20),
			setupMocks: func(m *MockBalanceStore) {
				m.On("Save", mock.Anything, playerID, currency.CurrencyTypeCoins, decimal.Zero).Return(nil)
			},
			want:        decimal.Zero,
			wantBalance: decimal.Zero,
		},
		{
			name:        "異常系: 保存できない桁数は拒否",
			amount:      decimal.RequireFromString("0.00004"),
			setupMocks:  func(m *MockBalanceStore) {},
			want:        decimal.Zero,
			wantErr:     currency.ErrInvalidAmount,
			wantBalance: dec(100),
		},
		{
			name:   "異常系: 保存失敗ならキャッシュを更新しない",
			amount: dec(500),
			setupMocks: func(m *MockBalanceStore) {
				m.On("Save", mock.Anything, playerID, currency.CurrencyTypeCoins, dec(500)).Return(errors.New("disk full"))
			},
			want:        dec(100),
			wantErr:     currency.ErrPersistenceFailure,
			wantBalance: dec(100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockBalanceStore)
			store.On("Load", mock.Anything, playerID).Return(map[currency.CurrencyType]decimal.Decimal{
				currency.CurrencyTypeCoins: dec(100),
			}, nil)
			tt.setupMocks(store)
			s := newTestService(t, store)

			got, err := s.SetBalance(context.Background(), playerID, currency.CurrencyTypeCoins, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.True(t, tt.wantBalance.Equal(s.GetBalance(context.Background(), playerID, currency.CurrencyTypeCoins)))
		})
	}
}

func TestLedgerService_SetBalance_LoadFailure(t *testing.T) {
	playerID := uuid.New()
	store := new(MockBalanceStore)
	store.On("Load", mock.Anything, playerID).Return(nil, errors.New("timeout"))

	s := newTestService(t, store)
	_, err := s.SetBalance(context.Background(), playerID, currency.CurrencyTypeCoins, dec(10))
	assert.ErrorIs(t, err, currency.ErrPersistenceFailure)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerService_AddBalance(t *testing.T) {
	playerID := uuid.New()

	t.Run("正常系: 加算", func(t *testing.T) {
		s := newTestService(t, newMemoryStore())
		got, err := s.AddBalance(context.Background(), playerID, currency.CurrencyTypeCoins, dec(15))
		require.NoError(t, err)
		assert.True(t, dec(15).Equal(got))

		got, err = s.AddBalance(context.Background(), playerID, currency.CurrencyTypeCoins, decimal.RequireFromString("0.5"))
		require.NoError(t, err)
		assert.Equal(t, "15.5", got.String())
	})

	t.Run("異常系: 負の加算額", func(t *testing.T) {
		store := new(MockBalanceStore)
		s := newTestService(t, store)
		_, err := s.AddBalance(context.Background(), playerID, currency.CurrencyTypeCoins, dec(-1))
		assert.ErrorIs(t, err, currency.ErrInvalidAmount)
		store.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	})

	t.Run("異常系: 保存失敗", func(t *testing.T) {
		store := new(MockBalanceStore)
		store.On("Load", mock.Anything, playerID).Return(map[currency.CurrencyType]decimal.Decimal{
			currency.CurrencyTypeTokens: dec(5),
		}, nil)
		store.On("Save", mock.Anything, playerID, currency.CurrencyTypeTokens, dec(6)).Return(errors.New("deadlock"))
		s := newTestService(t, store)

		got, err := s.AddBalance(context.Background(), playerID, currency.CurrencyTypeTokens, dec(1))
		assert.ErrorIs(t, err, currency.ErrPersistenceFailure)
		assert.True(t, dec(5).Equal(got))
		assert.True(t, dec(5).Equal(s.GetBalance(context.Background(), playerID, currency.CurrencyTypeTokens)))
	})
}

func TestLedgerService_SubtractBalance(t *testing.T) {
	playerID := uuid.New()

	tests := []struct {
		name    string
		start   int64
		delta   int64
		want    int64
		wantErr error
	}{
		{name: "正常系: 減算", start: 100, delta: 30, want: 70},
		{name: "正常系: 全額減算", start: 30, delta: 30, want: 0},
		{name: "異常系: 残高不足なら変更しない", start: 25, delta: 30, want: 25, wantErr: currency.ErrInsufficientFunds},
		{name: "異常系: 負の減算額", start: 25, delta: -1, want: 0, wantErr: currency.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			require.NoError(t, store.Save(context.Background(), playerID, currency.CurrencyTypeTokens, dec(tt.start)))
			s := newTestService(t, store)

			got, err := s.SubtractBalance(context.Background(), playerID, currency.CurrencyTypeTokens, dec(tt.delta))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestLedgerService_TrySubtract(t *testing.T) {
	playerID := uuid.New()
	store := newMemoryStore()
	require.NoError(t, store.Save(context.Background(), playerID, currency.CurrencyTypeCoins, dec(50)))
	s := newTestService(t, store)

	ok, balance, err := s.TrySubtract(context.Background(), playerID, currency.CurrencyTypeCoins, dec(60))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, dec(50).Equal(balance))

	ok, balance, err = s.TrySubtract(context.Background(), playerID, currency.CurrencyTypeCoins, dec(20))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, dec(30).Equal(balance))
}

func TestLedgerService_HasBalance(t *testing.T) {
	playerID := uuid.New()
	store := newMemoryStore()
	require.NoError(t, store.Save(context.Background(), playerID, currency.CurrencyTypeTokens, dec(10)))
	s := newTestService(t, store)

	assert.True(t, s.HasBalance(context.Background(), playerID, currency.CurrencyTypeTokens, dec(10)))
	assert.False(t, s.HasBalance(context.Background(), playerID, currency.CurrencyTypeTokens, dec(11)))
	assert.False(t, s.HasBalance(context.Background(), playerID, currency.CurrencyTypeCoins, dec(1)))
}

func TestLedgerService_ConcurrentAdd(t *testing.T) {
	playerID := uuid.New()
	s := newTestService(t, newMemoryStore())

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddBalance(context.Background(), playerID, currency.CurrencyTypeCoins, dec(1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, dec(n).Equal(s.GetBalance(context.Background(), playerID, currency.CurrencyTypeCoins)))
}

func TestLedgerService_ConcurrentSubtractNeverNegative(t *testing.T) {
	playerID := uuid.New()
	store := newMemoryStore()
	require.NoError(t, store.Save(context.Background(), playerID, currency.CurrencyTypeTokens, dec(10)))
	s := newTestService(t, store)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := s.TrySubtract(context.Background(), playerID, currency.CurrencyTypeTokens, dec(3))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.True(t, dec(1).Equal(s.GetBalance(context.Background(), playerID, currency.CurrencyTypeTokens)))
}

func TestLedgerService_RoundTripAfterReload(t *testing.T) {
	playerID := uuid.New()
	store := newMemoryStore()

	s := newTestService(t, store)
	_, err := s.SetBalance(context.Background(), playerID, currency.CurrencyTypeCoins, decimal.RequireFromString("1234.5"))
	require.NoError(t, err)
	require.NoError(t, s.Unload(context.Background(), playerID))
	assert.False(t, loaded(s, playerID))

	reloaded := newTestService(t, store)
	assert.Equal(t, "1234.5", reloaded.GetBalance(context.Background(), playerID, currency.CurrencyTypeCoins).String())
}

func TestLedgerService_RoundTripThroughScaledStore(t *testing.T) {
	ctx := context.Background()
	playerID := uuid.New()
	store := scaledStore{memoryStore: newMemoryStore()}
	s := newTestService(t, store)

	_, err := s.SetBalance(ctx, playerID, currency.CurrencyTypeCoins, decimal.RequireFromString("0.00004"))
	assert.ErrorIs(t, err, currency.ErrInvalidAmount)
	assert.False(t, s.HasBalance(ctx, playerID, currency.CurrencyTypeCoins, decimal.RequireFromString("0.00004")))

	_, err = s.AddBalance(ctx, playerID, currency.CurrencyTypeCoins, decimal.RequireFromString("1.23456"))
	assert.ErrorIs(t, err, currency.ErrInvalidAmount)
	_, err = s.SubtractBalance(ctx, playerID, currency.CurrencyTypeCoins, decimal.RequireFromString("0.00001"))
	assert.ErrorIs(t, err, currency.ErrInvalidAmount)

	_, err = s.SetBalance(ctx, playerID, currency.CurrencyTypeCoins, decimal.RequireFromString("12.3456"))
	require.NoError(t, err)
	_, err = s.AddBalance(ctx, playerID, currency.CurrencyTypeCoins, decimal.RequireFromString("0.0001"))
	require.NoError(t, err)
	want := s.GetBalance(ctx, playerID, currency.CurrencyTypeCoins)
	require.NoError(t, s.Unload(ctx, playerID))

	reloaded := newTestService(t, store)
	got := reloaded.GetBalance(ctx, playerID, currency.CurrencyTypeCoins)
	assert.True(t, want.Equal(got), "cached %s, reloaded %s", want, got)
	assert.Equal(t, "12.3457", got.String())
}

func TestLedgerService_Unload(t *testing.T) {
	playerID := uuid.New()

	t.Run("正常系: 未読み込みなら何もしない", func(t *testing.T) {
		store := new(MockBalanceStore)
		s := newTestService(t, store)
		require.NoError(t, s.Unload(context.Background(), playerID))
		store.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("異常系: 保存失敗ならキャッシュを残す", func(t *testing.T) {
		store := new(MockBalanceStore)
		store.On("Load", mock.Anything, playerID).Return(map[currency.CurrencyType]decimal.Decimal{}, nil)
		store.On("SaveAll", mock.Anything, playerID, mock.Anything).Return(errors.New("gone away"))
		s := newTestService(t, store)

		s.GetBalance(context.Background(), playerID, currency.CurrencyTypeCoins)
		err := s.Unload(context.Background(), playerID)
		assert.ErrorIs(t, err, currency.ErrPersistenceFailure)
		assert.True(t, loaded(s, playerID))
	})
}

func TestLedgerService_SaveAll(t *testing.T) {
	players := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	t.Run("正常系: 全プレイヤーを保存", func(t *testing.T) {
		store := new(MockBalanceStore)
		for _, id := range players {
			store.On("Load", mock.Anything, id).Return(map[currency.CurrencyType]decimal.Decimal{
				currency.CurrencyTypeCoins: dec(7),
			}, nil)
			store.On("SaveAll", mock.Anything, id, map[currency.CurrencyType]decimal.Decimal{
				currency.CurrencyTypeCoins:  dec(7),
				currency.CurrencyTypeTokens: decimal.Zero,
			}).Return(nil).Once()
		}
		s := newTestService(t, store)
		for _, id := range players {
			s.GetBalance(context.Background(), id, currency.CurrencyTypeCoins)
		}

		require.NoError(t, s.SaveAll(context.Background()))
		store.AssertExpectations(t)
	})

	t.Run("異常系: 1人でも失敗したらエラー", func(t *testing.T) {
		store := new(MockBalanceStore)
		for i, id := range players {
			store.On("Load", mock.Anything, id).Return(map[currency.CurrencyType]decimal.Decimal{}, nil)
			var saveErr error
			if i == 1 {
				saveErr = errors.New("lock wait timeout")
			}
			store.On("SaveAll", mock.Anything, id, mock.Anything).Return(saveErr)
		}
		s := newTestService(t, store)
		for _, id := range players {
			s.GetBalance(context.Background(), id, currency.CurrencyTypeCoins)
		}

		assert.ErrorIs(t, s.SaveAll(context.Background()), currency.ErrPersistenceFailure)
	})
}
