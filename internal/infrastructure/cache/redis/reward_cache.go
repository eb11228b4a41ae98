package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"skillcoins/internal/domain/reward"
)

// RewardCache Redis実装のRecentRewardCache
type RewardCache struct {
	client goredis.Cmdable
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRewardCache 新しいRewardCacheを作成
func NewRewardCache(client goredis.Cmdable, ttl time.Duration) *RewardCache {
	return &RewardCache{
		client: client,
		ttl:    ttl,
		tracer: otel.Tracer("reward-cache"),
	}
}

// Put 報酬を保存
func (c *RewardCache) Put(ctx context.Context, r *reward.RecentReward) error {
	ctx, span := c.tracer.Start(ctx, "RewardCache.Put")
	defer span.End()

	key := rewardKey(r.PlayerID, r.Skill, r.Level)
	span.SetAttributes(
		attribute.String("cache.key", key),
		attribute.Int64("cache.ttl_ms", c.ttl.Milliseconds()),
	)

	data, err := json.Marshal(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to marshal recent reward: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to cache recent reward: %w", err)
	}
	return nil
}

// Take 報酬を取り出して削除する
func (c *RewardCache) Take(ctx context.Context, playerID uuid.UUID, skill string, level int) (*reward.RecentReward, error) {
	ctx, span := c.tracer.Start(ctx, "RewardCache.Take")
	defer span.End()

	key := rewardKey(playerID, skill, level)
	span.SetAttributes(attribute.String("cache.key", key))

	data, err := c.client.GetDel(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		span.SetStatus(otelcodes.Ok, "cache miss")
		return nil, reward.ErrRecentRewardNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to read recent reward: %w", err)
	}

	var r reward.RecentReward
	if err := json.Unmarshal(data, &r); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to unmarshal recent reward: %w", err)
	}
	return &r, nil
}

func rewardKey(playerID uuid.UUID, skill string, level int) string {
	return fmt.Sprintf("skillcoins:reward:%s:%s:%d", playerID, strings.ToLower(skill), level)
}
