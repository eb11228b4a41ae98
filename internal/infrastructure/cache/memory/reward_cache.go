// Package memory はRedisを使わない構成向けのプロセス内キャッシュを提供する。
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"skillcoins/internal/domain/reward"
)

type rewardKey struct {
	playerID uuid.UUID
	skill    string
	level    int
}

type rewardEntry struct {
	reward    reward.RecentReward
	expiresAt time.Time
}

// RewardCache プロセス内のRecentRewardCache
type RewardCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[rewardKey]rewardEntry
}

// NewRewardCache 新しいRewardCacheを作成
func NewRewardCache(ttl time.Duration) *RewardCache {
	return &RewardCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[rewardKey]rewardEntry),
	}
}

// Put 報酬を保存（期限切れのエントリもここで掃除する）
func (c *RewardCache) Put(_ context.Context, r *reward.RecentReward) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	c.entries[keyOf(r.PlayerID, r.Skill, r.Level)] = rewardEntry{
		reward:    *r,
		expiresAt: now.Add(c.ttl),
	}
	return nil
}

// Take 報酬を取り出して削除する
func (c *RewardCache) Take(_ context.Context, playerID uuid.UUID, skill string, level int) (*reward.RecentReward, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := keyOf(playerID, skill, level)
	e, ok := c.entries[k]
	if !ok {
		return nil, reward.ErrRecentRewardNotFound
	}
	delete(c.entries, k)

	if !c.now().Before(e.expiresAt) {
		return nil, reward.ErrRecentRewardNotFound
	}
	r := e.reward
	return &r, nil
}

func keyOf(playerID uuid.UUID, skill string, level int) rewardKey {
	return rewardKey{playerID: playerID, skill: strings.ToLower(skill), level: level}
}
