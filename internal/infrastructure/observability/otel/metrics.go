package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 台帳操作数
	LedgerOperationCount metric.Int64Counter

	// 通貨残高の分布
	CurrencyBalance metric.Float64Gauge

	// 残高不足の発生件数
	InsufficientFundsCount metric.Int64Counter

	// 購入の結果
	PurchaseCount metric.Int64Counter

	// レベルアップ報酬
	RewardCount  metric.Int64Counter
	RewardAmount metric.Int64Counter

	// 外部経済コマンド
	ForeignCommandCount metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	ledgerOperationCount, err := meter.Int64Counter(
		"ledger_operations_total",
		metric.WithDescription("Total number of ledger operations"),
	)
	if err != nil {
		return nil, err
	}

	currencyBalance, err := meter.Float64Gauge(
		"currency_balance",
		metric.WithDescription("Currency balance after a durable write"),
	)
	if err != nil {
		return nil, err
	}

	insufficientFundsCount, err := meter.Int64Counter(
		"insufficient_funds_total",
		metric.WithDescription("Total number of rejected debits due to insufficient funds"),
	)
	if err != nil {
		return nil, err
	}

	purchaseCount, err := meter.Int64Counter(
		"purchases_total",
		metric.WithDescription("Total number of confirmed purchases by result"),
	)
	if err != nil {
		return nil, err
	}

	rewardCount, err := meter.Int64Counter(
		"rewards_total",
		metric.WithDescription("Total number of milestone rewards credited"),
	)
	if err != nil {
		return nil, err
	}

	rewardAmount, err := meter.Int64Counter(
		"reward_amount_total",
		metric.WithDescription("Total amount of currency credited by milestone rewards"),
	)
	if err != nil {
		return nil, err
	}

	foreignCommandCount, err := meter.Int64Counter(
		"foreign_commands_total",
		metric.WithDescription("Total number of foreign economy commands seen by the bridge"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		LedgerOperationCount:   ledgerOperationCount,
		CurrencyBalance:        currencyBalance,
		InsufficientFundsCount: insufficientFundsCount,
		PurchaseCount:          purchaseCount,
		RewardCount:            rewardCount,
		RewardAmount:           rewardAmount,
		ForeignCommandCount:    foreignCommandCount,
		RequestCount:           requestCount,
		ResponseTime:           responseTime,
		ErrorCount:             errorCount,
	}, nil
}

// RecordLedgerOperation 台帳操作を記録
func (m *Metrics) RecordLedgerOperation(ctx context.Context, operation, currencyType string) {
	m.LedgerOperationCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("currency_type", currencyType),
		),
	)
}

// RecordCurrencyBalance 通貨残高を記録
func (m *Metrics) RecordCurrencyBalance(ctx context.Context, currencyType string, balance float64) {
	m.CurrencyBalance.Record(ctx, balance,
		metric.WithAttributes(
			attribute.String("currency_type", currencyType),
		),
	)
}

// RecordInsufficientFunds 残高不足の発生を記録
func (m *Metrics) RecordInsufficientFunds(ctx context.Context, currencyType string) {
	m.InsufficientFundsCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("currency_type", currencyType),
		),
	)
}

// RecordPurchase 購入結果を記録
func (m *Metrics) RecordPurchase(ctx context.Context, wizardKind, result string) {
	m.PurchaseCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("wizard_kind", wizardKind),
			attribute.String("result", result),
		),
	)
}

// RecordReward 報酬の付与を記録
func (m *Metrics) RecordReward(ctx context.Context, currencyType string, amount int64) {
	attrs := metric.WithAttributes(attribute.String("currency_type", currencyType))
	m.RewardCount.Add(ctx, 1, attrs)
	m.RewardAmount.Add(ctx, amount, attrs)
}

// RecordForeignCommand 外部経済コマンドの処理結果を記録
func (m *Metrics) RecordForeignCommand(ctx context.Context, operation string, handled bool) {
	m.ForeignCommandCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.Bool("handled", handled),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
