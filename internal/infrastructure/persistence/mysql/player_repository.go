package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"skillcoins/internal/domain/player"
)

// PlayerRepository MySQL実装のPlayerRepository
type PlayerRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewPlayerRepository 新しいPlayerRepositoryを作成
func NewPlayerRepository(db *DB) *PlayerRepository {
	return &PlayerRepository{
		db:     db,
		tracer: otel.Tracer("player-repository"),
	}
}

// FindByName 名前でプレイヤーを取得
func (r *PlayerRepository) FindByName(ctx context.Context, name string) (*player.Player, error) {
	ctx, span := r.tracer.Start(ctx, "PlayerRepository.FindByName")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.player_name", name),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "players"),
	)

	query := `
		SELECT player_id, name, last_seen_at
		FROM players
		WHERE name_key = ?
	`

	var dbPlayerID, dbName string
	var lastSeenAt time.Time
	err := r.db.QueryRowContext(ctx, query, player.NameKey(name)).Scan(&dbPlayerID, &dbName, &lastSeenAt)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "player not found")
		return nil, player.ErrPlayerNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find player: %w", err)
	}

	id, err := player.ParseID(dbPlayerID)
	if err != nil {
		return nil, fmt.Errorf("invalid player id %q: %w", dbPlayerID, err)
	}

	p, err := player.NewPlayer(id, dbName, lastSeenAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct player entity: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "player found")
	return p, nil
}

// Save プレイヤーを保存
//
// 名前が他のプレイヤーから移った場合に備え、同じ名前を持つ古い行の名前キーを先に外す。
func (r *PlayerRepository) Save(ctx context.Context, p *player.Player) error {
	ctx, span := r.tracer.Start(ctx, "PlayerRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.player_id", p.ID().String()),
		attribute.String("db.player_name", p.Name()),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "players"),
	)

	releaseQuery := `
		UPDATE players SET name_key = NULL
		WHERE name_key = ? AND player_id <> ?
	`
	if _, err := r.db.ExecContext(ctx, releaseQuery, player.NameKey(p.Name()), p.ID().String()); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to release player name: %w", err)
	}

	upsertQuery := `
		INSERT INTO players (player_id, name, name_key, last_seen_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), name_key = VALUES(name_key), last_seen_at = VALUES(last_seen_at)
	`
	if _, err := r.db.ExecContext(ctx, upsertQuery, p.ID().String(), p.Name(), player.NameKey(p.Name()), p.LastSeenAt()); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save player: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "player saved")
	return nil
}
