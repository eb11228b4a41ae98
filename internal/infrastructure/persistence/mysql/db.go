package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"skillcoins/internal/infrastructure/config"

	_ "github.com/go-sql-driver/mysql"
)

// DB データベース接続とトランザクション管理を提供
type DB struct {
	*sql.DB
}

// pingInterval 起動時の疎通確認の間隔
var pingInterval = time.Second

// NewDB 新しいデータベース接続を作成
//
// MySQLがまだ起動中の場合に備え、ctxが切れるまでPingを繰り返す。
func NewDB(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	wrapped := &DB{DB: db}
	if err := wrapped.waitReady(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return wrapped, nil
}

// waitReady Pingが通るかctxが切れるまで待つ
func (db *DB) waitReady(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to ping database: %w", err)
		case <-ticker.C:
		}
	}
}

// HealthCheck データベースのヘルスチェックを実行
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}

//go:embed schema.sql
var schemaSQL string

// EnsureSchema テーブルが存在しない場合に作成する
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(schemaSQL) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// schemaStatements スキーマを文単位に分割する（ドライバは複数文の実行を許可しないため）
func schemaStatements(schema string) []string {
	var stmts []string
	for _, stmt := range strings.Split(schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
