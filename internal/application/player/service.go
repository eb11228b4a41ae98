// Package player はプレイヤーのログインとログアウトを扱う。
package player

import (
	"context"
	"fmt"
	"time"

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

// Ledger ログイン時の読み込みとログアウト時の書き出し
type Ledger interface {
	Balances(ctx context.Context, playerID uuid.UUID) (map[currency.CurrencyType]decimal.Decimal, error)
	Unload(ctx context.Context, playerID uuid.UUID) error
}

// SessionForgetter ログアウトしたプレイヤーのセッションを破棄する
type SessionForgetter interface {
	ForgetPlayer(playerID uuid.UUID)
}

// PlayerApplicationService プレイヤーのライフサイクルのアプリケーションサービス
type PlayerApplicationService struct {
	ledger     Ledger
	sessions   SessionForgetter
	playerRepo player.PlayerRepository
	logger     *otelinfra.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewPlayerApplicationService 新しいPlayerApplicationServiceを作成
func NewPlayerApplicationService(
	ledger Ledger,
	sessions SessionForgetter,
	playerRepo player.PlayerRepository,
	logger *otelinfra.Logger,
) *PlayerApplicationService {
	return &PlayerApplicationService{
		ledger:     ledger,
		sessions:   sessions,
		playerRepo: playerRepo,
		logger:     logger,
		tracer:     otel.Tracer("player-service"),
		now:        time.Now,
	}
}

// Join 名前とIDの対応を記録し、残高を読み込む
func (s *PlayerApplicationService) Join(ctx context.Context, req *JoinRequest) (*JoinResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PlayerApplicationService.Join")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", req.PlayerID.String()),
		attribute.String("name", req.Name),
	)

	p, err := player.NewPlayer(req.PlayerID, req.Name, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if err := s.playerRepo.Save(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to save player", err, map[string]interface{}{
			"player_id": req.PlayerID.String(),
		})
		return nil, fmt.Errorf("%w: failed to save player: %w", currency.ErrPersistenceFailure, err)
	}

	balances, err := s.ledger.Balances(ctx, req.PlayerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to load balances", err, map[string]interface{}{
			"player_id": req.PlayerID.String(),
		})
		return nil, err
	}

	s.logger.Info(ctx, "Player joined", map[string]interface{}{
		"player_id": req.PlayerID.String(),
		"name":      req.Name,
	})

	return &JoinResponse{
		PlayerID: p.ID(),
		Name:     p.Name(),
		Balances: balances,
	}, nil
}

// Quit 残高を書き出してキャッシュから外し、セッションと戻り先を破棄する
//
// 書き出しに失敗した場合もセッションは破棄する。残高のキャッシュは残るので次回の書き込みで再送される。
func (s *PlayerApplicationService) Quit(ctx context.Context, playerID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "PlayerApplicationService.Quit")
	defer span.End()

	span.SetAttributes(attribute.String("player_id", playerID.String()))

	s.sessions.ForgetPlayer(playerID)

	if err := s.ledger.Unload(ctx, playerID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to flush balances on quit", err, map[string]interface{}{
			"player_id": playerID.String(),
		})
		return err
	}

	s.logger.Info(ctx, "Player quit", map[string]interface{}{
		"player_id": playerID.String(),
	})
	return nil
}
