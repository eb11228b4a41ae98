package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/trace/noop"

	authapp "skillcoins/internal/application/auth"
	bridgeapp "skillcoins/internal/application/bridge"
	playerapp "skillcoins/internal/application/player"
	purchaseapp "skillcoins/internal/application/purchase"
	rewardapp "skillcoins/internal/application/reward"
	"skillcoins/internal/domain/currency"
	"skillcoins/internal/domain/reward"
	"skillcoins/internal/domain/session"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
	restmiddleware "skillcoins/internal/presentation/rest/middleware"
)

// MockBalanceLedger モック台帳
type MockBalanceLedger struct {
	mock.Mock
}

func (m *MockBalanceLedger) Balances(ctx context.Context, playerID uuid.UUID) (map[currency.CurrencyType]decimal.Decimal, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[currency.CurrencyType]decimal.Decimal), args.Error(1)
}

func (m *MockBalanceLedger) SetBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, playerID, currencyType, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockTokenIssuer モックトークン発行
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) IssueServerToken(ctx context.Context, req *authapp.IssueTokenRequest) (*authapp.IssueTokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authapp.IssueTokenResponse), args.Error(1)
}

// MockPlayerLifecycle モックプレイヤーサービス
type MockPlayerLifecycle struct {
	mock.Mock
}

func (m *MockPlayerLifecycle) Join(ctx context.Context, req *playerapp.JoinRequest) (*playerapp.JoinResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*playerapp.JoinResponse), args.Error(1)
}

func (m *MockPlayerLifecycle) Quit(ctx context.Context, playerID uuid.UUID) error {
	args := m.Called(ctx, playerID)
	return args.Error(0)
}

// MockRewardService モック報酬サービス
type MockRewardService struct {
	mock.Mock
}

func (m *MockRewardService) OnProgressionEvent(ctx context.Context, req *rewardapp.ProgressionRequest) (*rewardapp.ProgressionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rewardapp.ProgressionResponse), args.Error(1)
}

func (m *MockRewardService) TakeRecentReward(ctx context.Context, playerID uuid.UUID, skillName string, level int) (*reward.RecentReward, error) {
	args := m.Called(ctx, playerID, skillName, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reward.RecentReward), args.Error(1)
}

// MockCommandBridge モックブリッジ
type MockCommandBridge struct {
	mock.Mock
}

func (m *MockCommandBridge) OnForeignEconomyCommand(ctx context.Context, req *bridgeapp.CommandRequest) (*bridgeapp.CommandResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bridgeapp.CommandResponse), args.Error(1)
}

// MockPurchaseService モック購入サービス
type MockPurchaseService struct {
	mock.Mock
}

func (m *MockPurchaseService) OpenWizard(ctx context.Context, req *purchaseapp.OpenWizardRequest) (*purchaseapp.WizardView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchaseapp.WizardView), args.Error(1)
}

func (m *MockPurchaseService) UpdateSelection(ctx context.Context, playerID uuid.UUID, kind session.WizardKind, action session.Action) (*purchaseapp.WizardView, error) {
	args := m.Called(ctx, playerID, kind, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchaseapp.WizardView), args.Error(1)
}

func (m *MockPurchaseService) Confirm(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) (*purchaseapp.Result, error) {
	args := m.Called(ctx, playerID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchaseapp.Result), args.Error(1)
}

func (m *MockPurchaseService) CloseWizard(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) error {
	args := m.Called(ctx, playerID, kind)
	return args.Error(0)
}

func (m *MockPurchaseService) Back(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) (session.Origin, error) {
	args := m.Called(ctx, playerID, kind)
	return args.Get(0).(session.Origin), args.Error(1)
}

func (m *MockPurchaseService) GetSessionSnapshot(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) (*purchaseapp.WizardView, error) {
	args := m.Called(ctx, playerID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchaseapp.WizardView), args.Error(1)
}

// serve ルートを1つ登録したechoでリクエストを処理する
func serve(t *testing.T, method, route, target, body string, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
	e := echo.New()
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
	e.Add(method, route, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// decode レスポンスボディをmapに読み込む
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}
