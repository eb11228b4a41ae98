// Package bridge は外部プラグインの経済コマンドを台帳へ転送する。
package bridge

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"skillcoins/internal/domain/currency"
	"skillcoins/internal/domain/player"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// Ledger コマンドの転送先
type Ledger interface {
	SetBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, amount decimal.Decimal) (decimal.Decimal, error)
	AddBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, delta decimal.Decimal) (decimal.Decimal, error)
	SubtractBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, delta decimal.Decimal) (decimal.Decimal, error)
}

// BridgeApplicationService 外部経済コマンドの転送サービス
type BridgeApplicationService struct {
	ledger     Ledger
	playerRepo player.PlayerRepository
	logger     *otelinfra.Logger
	metrics    *otelinfra.Metrics
	tracer     trace.Tracer
}

// NewBridgeApplicationService 新しいBridgeApplicationServiceを作成
func NewBridgeApplicationService(
	ledger Ledger,
	playerRepo player.PlayerRepository,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *BridgeApplicationService {
	return &BridgeApplicationService{
		ledger:     ledger,
		playerRepo: playerRepo,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer("bridge-service"),
	}
}

// OnForeignEconomyCommand 外部経済コマンドを台帳に転送する
//
// 認識できないコマンド、金額や対象プレイヤーを解釈できないコマンドは
// Handled=falseで返し、元の処理に任せる。コインのみを対象とする。
// 転送後に永続化が失敗した場合はHandled=trueとエラーを返す（元の処理には戻さない）。
func (s *BridgeApplicationService) OnForeignEconomyCommand(ctx context.Context, req *CommandRequest) (*CommandResponse, error) {
	ctx, span := s.tracer.Start(ctx, "BridgeApplicationService.OnForeignEconomyCommand")
	defer span.End()

	span.SetAttributes(attribute.String("issuer", req.Issuer))

	cmd, ok := ParseCommand(req.Command)
	if !ok {
		return &CommandResponse{Handled: false}, nil
	}

	span.SetAttributes(
		attribute.String("operation", string(cmd.Operation)),
		attribute.String("target", cmd.Target),
	)

	amount, err := ParseAmount(cmd.RawAmount)
	if err != nil {
		s.logger.Warn(ctx, "Failed to parse economy command amount", map[string]interface{}{
			"issuer":  req.Issuer,
			"command": req.Command,
			"amount":  cmd.RawAmount,
		})
		s.metrics.RecordForeignCommand(ctx, string(cmd.Operation), false)
		return &CommandResponse{Handled: false, Operation: cmd.Operation}, nil
	}

	target, err := s.playerRepo.FindByName(ctx, cmd.Target)
	if err != nil {
		fields := map[string]interface{}{
			"issuer": req.Issuer,
			"target": cmd.Target,
		}
		if !errors.Is(err, player.ErrPlayerNotFound) {
			fields["error"] = err.Error()
		}
		s.logger.Warn(ctx, "Economy command target not found", fields)
		s.metrics.RecordForeignCommand(ctx, string(cmd.Operation), false)
		return &CommandResponse{Handled: false, Operation: cmd.Operation}, nil
	}

	resp := &CommandResponse{
		Handled:   true,
		Operation: cmd.Operation,
		PlayerID:  target.ID(),
	}

	switch cmd.Operation {
	case OperationSet:
		resp.NewBalance, err = s.ledger.SetBalance(ctx, target.ID(), currency.CurrencyTypeCoins, amount)
	case OperationGive:
		resp.NewBalance, err = s.ledger.AddBalance(ctx, target.ID(), currency.CurrencyTypeCoins, amount)
	case OperationTake:
		resp.NewBalance, err = s.ledger.SubtractBalance(ctx, target.ID(), currency.CurrencyTypeCoins, amount)
		if errors.Is(err, currency.ErrInsufficientFunds) {
			// 残高不足でもコマンドは消費する（外部側で処理させると残高がずれる）
			s.logger.Warn(ctx, "Economy command take exceeds balance", map[string]interface{}{
				"issuer":    req.Issuer,
				"player_id": target.ID().String(),
				"amount":    amount.String(),
				"balance":   resp.NewBalance.String(),
			})
			err = nil
		}
	}

	s.metrics.RecordForeignCommand(ctx, string(cmd.Operation), true)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to apply economy command", err, map[string]interface{}{
			"issuer":    req.Issuer,
			"player_id": target.ID().String(),
			"operation": string(cmd.Operation),
		})
		return resp, err
	}

	s.logger.Info(ctx, "Economy command redirected to ledger", map[string]interface{}{
		"issuer":      req.Issuer,
		"player_id":   target.ID().String(),
		"operation":   string(cmd.Operation),
		"amount":      amount.String(),
		"new_balance": resp.NewBalance.String(),
	})
	return resp, nil
}
