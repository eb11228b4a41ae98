package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// errLockDeadlock ER_LOCK_DEADLOCK
	errLockDeadlock = 1213
	// errLockWaitTimeout ER_LOCK_WAIT_TIMEOUT
	errLockWaitTimeout = 1205

	defaultTxAttempts = 3
)

// TransactionManager トランザクション管理を提供
//
// 残高の一括保存は複数の行ロックを取るため、デッドロックで失敗した場合は
// トランザクション全体をやり直す。fnは再実行されても結果が変わらないこと。
type TransactionManager struct {
	db          *DB
	tracer      trace.Tracer
	maxAttempts int
}

// NewTransactionManager 新しいトランザクションマネージャーを作成
func NewTransactionManager(db *DB) *TransactionManager {
	return &TransactionManager{
		db:          db,
		tracer:      otel.Tracer("mysql-tx"),
		maxAttempts: defaultTxAttempts,
	}
}

// WithTransaction トランザクション内で関数を実行
//
// fnがエラーを返した場合やパニックした場合はロールバックし、それ以外はコミットする。
// コミットの失敗も呼び出し元に返す。
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	ctx, span := tm.tracerOrDefault().Start(ctx, "TransactionManager.WithTransaction")
	defer span.End()

	attempts := tm.maxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		span.SetAttributes(attribute.Int("tx.attempt", attempt))
		err = tm.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			break
		}
		span.AddEvent("tx.retry", trace.WithAttributes(attribute.String("reason", err.Error())))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	return err
}

func (tm *TransactionManager) runOnce(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	return fn(tx)
}

func (tm *TransactionManager) tracerOrDefault() trace.Tracer {
	if tm.tracer == nil {
		return otel.Tracer("mysql-tx")
	}
	return tm.tracer
}

// isRetryable デッドロックとロック待ちタイムアウトだけをやり直し対象とする
func isRetryable(err error) bool {
	var myErr *mysqldriver.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == errLockDeadlock || myErr.Number == errLockWaitTimeout
}
