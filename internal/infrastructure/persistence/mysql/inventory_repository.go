package mysql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"skillcoins/internal/domain/shop"
)

// InventoryRepository MySQL実装のInventory
//
// inventory_itemsはゲーム側が受け取りに来る配送ボックスとして扱う。
type InventoryRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewInventoryRepository 新しいInventoryRepositoryを作成
func NewInventoryRepository(db *DB) *InventoryRepository {
	return &InventoryRepository{
		db:     db,
		tracer: otel.Tracer("inventory-repository"),
	}
}

// FreeSlots 空きスロット数
func (r *InventoryRepository) FreeSlots(ctx context.Context, playerID uuid.UUID) (int, error) {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.FreeSlots")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.player_id", playerID.String()),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "inventory_items"),
	)

	query := `
		SELECT COUNT(*)
		FROM inventory_items
		WHERE player_id = ? AND quantity > 0
	`

	var used int
	if err := r.db.QueryRowContext(ctx, query, playerID.String()).Scan(&used); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to count inventory slots: %w", err)
	}

	free := shop.InventorySlots - used
	if free < 0 {
		free = 0
	}
	span.SetAttributes(attribute.Int("db.free_slots", free))
	span.SetStatus(otelcodes.Ok, "inventory counted")
	return free, nil
}

// Deliver アイテムを配送ボックスに追加
func (r *InventoryRepository) Deliver(ctx context.Context, playerID uuid.UUID, grant *shop.ItemGrant) error {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.Deliver")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.player_id", playerID.String()),
		attribute.String("db.stack_key", grant.StackKey),
		attribute.Int("db.quantity", grant.Quantity),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "inventory_items"),
	)

	metadata, err := json.Marshal(grant)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to marshal item metadata: %w", err)
	}

	query := `
		INSERT INTO inventory_items (player_id, stack_key, quantity, metadata)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity), metadata = VALUES(metadata)
	`

	if _, err := r.db.ExecContext(ctx, query, playerID.String(), grant.StackKey, grant.Quantity, string(metadata)); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to deliver item: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "item delivered")
	return nil
}

// Remove アイテムを取り除く
func (r *InventoryRepository) Remove(ctx context.Context, playerID uuid.UUID, stackKey string, quantity int) error {
	ctx, span := r.tracer.Start(ctx, "InventoryRepository.Remove")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.player_id", playerID.String()),
		attribute.String("db.stack_key", stackKey),
		attribute.Int("db.quantity", quantity),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "inventory_items"),
	)

	query := `
		UPDATE inventory_items
		SET quantity = quantity - ?
		WHERE player_id = ? AND stack_key = ? AND quantity >= ?
	`

	result, err := r.db.ExecContext(ctx, query, quantity, playerID.String(), stackKey, quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to remove item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Ok, "not enough items")
		return shop.ErrNotEnoughItems
	}

	span.SetStatus(otelcodes.Ok, "item removed")
	return nil
}
