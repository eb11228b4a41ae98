package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"skillcoins/internal/domain/currency"
)

const upsertBalanceQuery = `
		INSERT INTO player_balances (player_id, currency_type, balance)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE balance = VALUES(balance), updated_at = CURRENT_TIMESTAMP
	`

// BalanceStore MySQL実装のBalanceStore
type BalanceStore struct {
	db        *DB
	txManager *TransactionManager
	tracer    trace.Tracer
}

// NewBalanceStore 新しいBalanceStoreを作成
func NewBalanceStore(db *DB, txManager *TransactionManager) *BalanceStore {
	return &BalanceStore{
		db:        db,
		txManager: txManager,
		tracer:    otel.Tracer("balance-store"),
	}
}

// Load プレイヤーの全通貨の残高を取得
func (s *BalanceStore) Load(ctx context.Context, playerID uuid.UUID) (map[currency.CurrencyType]decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "BalanceStore.Load")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.player_id", playerID.String()),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "player_balances"),
	)

	query := `
		SELECT currency_type, balance
		FROM player_balances
		WHERE player_id = ?
	`

	rows, err := s.db.QueryContext(ctx, query, playerID.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[currency.CurrencyType]decimal.Decimal, len(currency.AllCurrencyTypes))
	for rows.Next() {
		var dbCurrencyType, dbBalance string
		if err := rows.Scan(&dbCurrencyType, &dbBalance); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}

		ct, err := currency.NewCurrencyType(dbCurrencyType)
		if err != nil {
			// 廃止された通貨の行は読み飛ばす
			span.AddEvent("skipped unknown currency type", trace.WithAttributes(attribute.String("db.currency_type", dbCurrencyType)))
			continue
		}

		amount, err := decimal.NewFromString(dbBalance)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("invalid balance %q for %s: %w", dbBalance, ct, err)
		}
		balances[ct] = amount
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}

	span.SetAttributes(attribute.Int("db.rows", len(balances)))
	span.SetStatus(otelcodes.Ok, "balances loaded")
	return balances, nil
}

// Save 1通貨の残高を保存（存在しない場合は作成）
func (s *BalanceStore) Save(ctx context.Context, playerID uuid.UUID, ct currency.CurrencyType, amount decimal.Decimal) error {
	ctx, span := s.tracer.Start(ctx, "BalanceStore.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.player_id", playerID.String()),
		attribute.String("db.currency_type", ct.String()),
		attribute.String("db.balance", amount.String()),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "player_balances"),
	)

	if _, err := s.db.ExecContext(ctx, upsertBalanceQuery, playerID.String(), ct.String(), amount.String()); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save balance: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "balance saved")
	return nil
}

// SaveAll プレイヤーの全通貨の残高を1トランザクションで保存
func (s *BalanceStore) SaveAll(ctx context.Context, playerID uuid.UUID, balances map[currency.CurrencyType]decimal.Decimal) error {
	ctx, span := s.tracer.Start(ctx, "BalanceStore.SaveAll")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.player_id", playerID.String()),
		attribute.Int("db.rows", len(balances)),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "player_balances"),
	)

	err := s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		// 行ロックの取得順を固定するため通貨タイプの定義順で書き込む
		for _, ct := range currency.AllCurrencyTypes {
			amount, ok := balances[ct]
			if !ok {
				continue
			}
			if _, err := tx.ExecContext(ctx, upsertBalanceQuery, playerID.String(), ct.String(), amount.String()); err != nil {
				return fmt.Errorf("failed to save %s balance: %w", ct, err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	span.SetStatus(otelcodes.Ok, "balances saved")
	return nil
}
