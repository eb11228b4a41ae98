package reward

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
	"skillcoins/internal/domain/reward"
	"skillcoins/internal/domain/skill"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// BalanceCrediter 報酬の入金先
type BalanceCrediter interface {
	AddBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, delta decimal.Decimal) (decimal.Decimal, error)
}

// RewardApplicationService レベルアップ報酬アプリケーションサービス
type RewardApplicationService struct {
	ledger    BalanceCrediter
	registry  *skill.Registry
	levelRepo skill.LevelRepository
	cache     reward.RecentRewardCache
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

// NewRewardApplicationService 新しいRewardApplicationServiceを作成
func NewRewardApplicationService(
	ledger BalanceCrediter,
	registry *skill.Registry,
	levelRepo skill.LevelRepository,
	cache reward.RecentRewardCache,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *RewardApplicationService {
	return &RewardApplicationService{
		ledger:    ledger,
		registry:  registry,
		levelRepo: levelRepo,
		cache:     cache,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("reward-service"),
		now:       time.Now,
	}
}

// OnProgressionEvent レベルアップ時の報酬を付与する
//
// コインとトークンは独立して入金される。片方の入金後に失敗した場合、入金済みの分は戻さない。
func (s *RewardApplicationService) OnProgressionEvent(ctx context.Context, req *ProgressionRequest) (*ProgressionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RewardApplicationService.OnProgressionEvent")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", req.PlayerID.String()),
		attribute.String("skill", req.Skill),
		attribute.Int("level", req.Level),
	)

	sk, err := s.registry.Resolve(req.Skill)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if req.Level <= 0 {
		err := fmt.Errorf("%w: %d", skill.ErrInvalidLevel, req.Level)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	// レベル購入画面が参照するレベルを同期する
	if err := s.levelRepo.SetLevel(ctx, req.PlayerID, sk, req.Level); err != nil {
		s.logger.Warn(ctx, "Failed to record skill level", map[string]interface{}{
			"player_id": req.PlayerID.String(),
			"skill":     sk.String(),
			"level":     req.Level,
			"error":     err.Error(),
		})
	}

	milestone := reward.MilestoneFor(req.Level)
	resp := &ProgressionResponse{
		PlayerID: req.PlayerID,
		Skill:    sk.String(),
		Level:    req.Level,
	}

	if milestone.Tokens > 0 {
		if _, err := s.ledger.AddBalance(ctx, req.PlayerID, currency.CurrencyTypeTokens, decimal.NewFromInt(milestone.Tokens)); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			s.logger.Error(ctx, "Failed to credit token reward", err, map[string]interface{}{
				"player_id": req.PlayerID.String(),
				"skill":     sk.String(),
				"level":     req.Level,
			})
			return nil, fmt.Errorf("failed to credit token reward: %w", err)
		}
		resp.Tokens = milestone.Tokens
		s.metrics.RecordReward(ctx, currency.CurrencyTypeTokens.String(), milestone.Tokens)
	}

	if milestone.Coins > 0 {
		if _, err := s.ledger.AddBalance(ctx, req.PlayerID, currency.CurrencyTypeCoins, decimal.NewFromInt(milestone.Coins)); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			s.logger.Error(ctx, "Failed to credit coin reward", err, map[string]interface{}{
				"player_id":       req.PlayerID.String(),
				"skill":           sk.String(),
				"level":           req.Level,
				"tokens_credited": resp.Tokens,
			})
			return nil, fmt.Errorf("failed to credit coin reward: %w", err)
		}
		resp.Coins = milestone.Coins
		s.metrics.RecordReward(ctx, currency.CurrencyTypeCoins.String(), milestone.Coins)
	}

	recent := &reward.RecentReward{
		PlayerID:  req.PlayerID,
		Skill:     sk.String(),
		Level:     req.Level,
		Coins:     resp.Coins,
		Tokens:    resp.Tokens,
		GrantedAt: s.now(),
	}
	if err := s.cache.Put(ctx, recent); err != nil {
		s.logger.Warn(ctx, "Failed to cache recent reward", map[string]interface{}{
			"player_id": req.PlayerID.String(),
			"error":     err.Error(),
		})
	}

	if !milestone.IsZero() {
		s.logger.Info(ctx, "Milestone reward credited", map[string]interface{}{
			"player_id": req.PlayerID.String(),
			"skill":     sk.String(),
			"level":     req.Level,
			"coins":     resp.Coins,
			"tokens":    resp.Tokens,
		})
	}

	return resp, nil
}

// TakeRecentReward 直近の報酬を取り出す（取り出した報酬は削除される）
func (s *RewardApplicationService) TakeRecentReward(ctx context.Context, playerID uuid.UUID, skillName string, level int) (*reward.RecentReward, error) {
	ctx, span := s.tracer.Start(ctx, "RewardApplicationService.TakeRecentReward")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("skill", skillName),
		attribute.Int("level", level),
	)

	r, err := s.cache.Take(ctx, playerID, skill.Normalize(skillName).String(), level)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return r, nil
}
