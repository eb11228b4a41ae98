package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"skillcoins/internal/application/purchase"
	"skillcoins/internal/domain/session"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// PurchaseChannel 購入完了イベントを流すチャンネル
const PurchaseChannel = "skillcoins:purchases"

// PurchaseEvent チャンネルに流す購入完了イベント
type PurchaseEvent struct {
	PlayerID      uuid.UUID `json:"player_id"`
	Kind          string    `json:"kind"`
	Currency      string    `json:"currency"`
	Cost          string    `json:"cost"`
	NewBalance    string    `json:"new_balance"`
	GrantedEffect string    `json:"granted_effect"`
	CompletedAt   time.Time `json:"completed_at"`
}

// PurchasePublisher 購入完了をRedis Pub/Subで通知するpurchase.Notifier
//
// ホスト側はこのチャンネルを購読してボスバー表示などを抑制する。
type PurchasePublisher struct {
	client goredis.Cmdable
	logger *otelinfra.Logger
	now    func() time.Time
}

// NewPurchasePublisher 新しいPurchasePublisherを作成
func NewPurchasePublisher(client goredis.Cmdable, logger *otelinfra.Logger) *PurchasePublisher {
	return &PurchasePublisher{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// PurchaseCompleted 成功した購入だけを通知する。通知の失敗は購入結果に影響しない
func (p *PurchasePublisher) PurchaseCompleted(ctx context.Context, playerID uuid.UUID, kind session.WizardKind, result *purchase.Result) {
	if result == nil || !result.Success {
		return
	}

	data, err := json.Marshal(PurchaseEvent{
		PlayerID:      playerID,
		Kind:          string(kind),
		Currency:      string(result.Currency),
		Cost:          result.Cost.String(),
		NewBalance:    result.NewBalance.String(),
		GrantedEffect: result.GrantedEffect,
		CompletedAt:   p.now().UTC(),
	})
	if err != nil {
		p.logger.Error(ctx, "Failed to marshal purchase event", err, nil)
		return
	}

	if err := p.client.Publish(ctx, PurchaseChannel, data).Err(); err != nil {
		p.logger.Error(ctx, "Failed to publish purchase event", err, map[string]interface{}{
			"player_id": playerID.String(),
			"kind":      string(kind),
		})
	}
}
