package reward

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"skillcoins/internal/domain/currency"
	"skillcoins/internal/domain/reward"
	"skillcoins/internal/domain/skill"
	"skillcoins/internal/infrastructure/cache/memory"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// MockBalanceCrediter モック入金先
type MockBalanceCrediter struct {
	mock.Mock
}

func (m *MockBalanceCrediter) AddBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, delta decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, playerID, currencyType, delta)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockLevelRepository モックスキルレベルリポジトリ
type MockLevelRepository struct {
	mock.Mock
}

func (m *MockLevelRepository) Level(ctx context.Context, playerID uuid.UUID, s skill.Skill) (int, error) {
	args := m.Called(ctx, playerID, s)
	return args.Int(0), args.Error(1)
}

func (m *MockLevelRepository) SetLevel(ctx context.Context, playerID uuid.UUID, s skill.Skill, level int) error {
	args := m.Called(ctx, playerID, s, level)
	return args.Error(0)
}

type fixture struct {
	service *RewardApplicationService
	ledger  *MockBalanceCrediter
	levels  *MockLevelRepository
	cache   *memory.RewardCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry, err := skill.NewRegistry(skill.DefaultSkills, 100, nil)
	require.NoError(t, err)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	f := &fixture{
		ledger: new(MockBalanceCrediter),
		levels: new(MockLevelRepository),
		cache:  memory.NewRewardCache(time.Minute),
	}
	f.service = NewRewardApplicationService(
		f.ledger,
		registry,
		f.levels,
		f.cache,
		otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test")),
		metrics,
	)
	return f
}

func TestRewardApplicationService_OnProgressionEvent(t *testing.T) {
	playerID := uuid.New()

	tests := []struct {
		name       string
		req        *ProgressionRequest
		setupMocks func(*MockBalanceCrediter, *MockLevelRepository)
		want       *ProgressionResponse
		wantErr    error
	}{
		{
			name: "正常系: コインとトークンの両方が付与される",
			req:  &ProgressionRequest{PlayerID: playerID, Skill: "Mining", Level: 30},
			setupMocks: func(ml *MockBalanceCrediter, mr *MockLevelRepository) {
				mr.On("SetLevel", mock.Anything, playerID, skill.Skill("mining"), 30).Return(nil)
				ml.On("AddBalance", mock.Anything, playerID, currency.CurrencyTypeTokens, decimal.NewFromInt(2)).Return(decimal.NewFromInt(2), nil).Once()
				ml.On("AddBalance", mock.Anything, playerID, currency.CurrencyTypeCoins, decimal.NewFromInt(50)).Return(decimal.NewFromInt(50), nil).Once()
			},
			want: &ProgressionResponse{PlayerID: playerID, Skill: "mining", Level: 30, Coins: 50, Tokens: 2},
		},
		{
			name: "正常系: 5の倍数はコインのみ",
			req:  &ProgressionRequest{PlayerID: playerID, Skill: "auraskills/farming", Level: 5},
			setupMocks: func(ml *MockBalanceCrediter, mr *MockLevelRepository) {
				mr.On("SetLevel", mock.Anything, playerID, skill.Skill("farming"), 5).Return(nil)
				ml.On("AddBalance", mock.Anything, playerID, currency.CurrencyTypeCoins, decimal.NewFromInt(15)).Return(decimal.NewFromInt(15), nil).Once()
			},
			want: &ProgressionResponse{PlayerID: playerID, Skill: "farming", Level: 5, Coins: 15},
		},
		{
			name: "正常系: マイルストーン以外は付与しない",
			req:  &ProgressionRequest{PlayerID: playerID, Skill: "mining", Level: 7},
			setupMocks: func(ml *MockBalanceCrediter, mr *MockLevelRepository) {
				mr.On("SetLevel", mock.Anything, playerID, skill.Skill("mining"), 7).Return(nil)
			},
			want: &ProgressionResponse{PlayerID: playerID, Skill: "mining", Level: 7},
		},
		{
			name: "正常系: レベルの記録に失敗しても報酬は付与する",
			req:  &ProgressionRequest{PlayerID: playerID, Skill: "mining", Level: 10},
			setupMocks: func(ml *MockBalanceCrediter, mr *MockLevelRepository) {
				mr.On("SetLevel", mock.Anything, playerID, skill.Skill("mining"), 10).Return(errors.New("db down"))
				ml.On("AddBalance", mock.Anything, playerID, currency.CurrencyTypeTokens, decimal.NewFromInt(1)).Return(decimal.NewFromInt(1), nil).Once()
				ml.On("AddBalance", mock.Anything, playerID, currency.CurrencyTypeCoins, decimal.NewFromInt(20)).Return(decimal.NewFromInt(20), nil).Once()
			},
			want: &ProgressionResponse{PlayerID: playerID, Skill: "mining", Level: 10, Coins: 20, Tokens: 1},
		},
		{
			name:       "異常系: 未登録のスキル",
			req:        &ProgressionRequest{PlayerID: playerID, Skill: "cooking", Level: 10},
			setupMocks: func(*MockBalanceCrediter, *MockLevelRepository) {},
			wantErr:    skill.ErrUnknownSkill,
		},
		{
			name:       "異常系: レベルが0",
			req:        &ProgressionRequest{PlayerID: playerID, Skill: "mining", Level: 0},
			setupMocks: func(*MockBalanceCrediter, *MockLevelRepository) {},
			wantErr:    skill.ErrInvalidLevel,
		},
		{
			name: "異常系: コインの入金に失敗",
			req:  &ProgressionRequest{PlayerID: playerID, Skill: "mining", Level: 100},
			setupMocks: func(ml *MockBalanceCrediter, mr *MockLevelRepository) {
				mr.On("SetLevel", mock.Anything, playerID, skill.Skill("mining"), 100).Return(nil)
				ml.On("AddBalance", mock.Anything, playerID, currency.CurrencyTypeTokens, decimal.NewFromInt(7)).Return(decimal.NewFromInt(7), nil).Once()
				ml.On("AddBalance", mock.Anything, playerID, currency.CurrencyTypeCoins, decimal.NewFromInt(360)).Return(decimal.Zero, currency.ErrPersistenceFailure).Once()
			},
			wantErr: currency.ErrPersistenceFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMocks(f.ledger, f.levels)

			got, err := f.service.OnProgressionEvent(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			f.ledger.AssertExpectations(t)
			f.levels.AssertExpectations(t)
		})
	}
}

func TestRewardApplicationService_TakeRecentReward(t *testing.T) {
	playerID := uuid.New()
	f := newFixture(t)
	f.levels.On("SetLevel", mock.Anything, playerID, skill.Skill("fishing"), 20).Return(nil)
	f.ledger.On("AddBalance", mock.Anything, playerID, mock.Anything, mock.Anything).Return(decimal.Zero, nil)

	_, err := f.service.OnProgressionEvent(context.Background(), &ProgressionRequest{PlayerID: playerID, Skill: "fishing", Level: 20})
	require.NoError(t, err)

	r, err := f.service.TakeRecentReward(context.Background(), playerID, "FISHING", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(35), r.Coins)
	assert.Equal(t, int64(1), r.Tokens)

	_, err = f.service.TakeRecentReward(context.Background(), playerID, "fishing", 20)
	assert.ErrorIs(t, err, reward.ErrRecentRewardNotFound)
}
