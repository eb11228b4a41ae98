package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"skillcoins/internal/domain/skill"
)

// SkillLevelRepository MySQL実装のLevelRepository
type SkillLevelRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewSkillLevelRepository 新しいSkillLevelRepositoryを作成
func NewSkillLevelRepository(db *DB) *SkillLevelRepository {
	return &SkillLevelRepository{
		db:     db,
		tracer: otel.Tracer("skill-level-repository"),
	}
}

// Level 現在のレベルを取得（未記録の場合はskill.StartLevel）
func (r *SkillLevelRepository) Level(ctx context.Context, playerID uuid.UUID, s skill.Skill) (int, error) {
	ctx, span := r.tracer.Start(ctx, "SkillLevelRepository.Level")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.player_id", playerID.String()),
		attribute.String("db.skill", s.String()),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "skill_levels"),
	)

	query := `
		SELECT level
		FROM skill_levels
		WHERE player_id = ? AND skill = ?
	`

	var level int
	err := r.db.QueryRowContext(ctx, query, playerID.String(), s.String()).Scan(&level)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "skill level not recorded")
		return skill.StartLevel, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to find skill level: %w", err)
	}

	span.SetAttributes(attribute.Int("db.level", level))
	span.SetStatus(otelcodes.Ok, "skill level found")
	return level, nil
}

// SetLevel レベルを設定
func (r *SkillLevelRepository) SetLevel(ctx context.Context, playerID uuid.UUID, s skill.Skill, level int) error {
	ctx, span := r.tracer.Start(ctx, "SkillLevelRepository.SetLevel")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.player_id", playerID.String()),
		attribute.String("db.skill", s.String()),
		attribute.Int("db.level", level),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "skill_levels"),
	)

	query := `
		INSERT INTO skill_levels (player_id, skill, level)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE level = VALUES(level), updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.ExecContext(ctx, query, playerID.String(), s.String(), level); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to set skill level: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "skill level saved")
	return nil
}
