// Package ledger はプレイヤー残高の読み書きを一元管理する。
//
// 残高はメモリ上にキャッシュされ、変更は必ずBalanceStoreへの書き込みが
// 成功してからキャッシュに反映される。同一プレイヤーへの変更操作は
// プレイヤー単位のロックで直列化される。
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"skillcoins/internal/domain/currency"
	"skillcoins/internal/infrastructure/concurrency"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// LedgerService 残高台帳サービス
type LedgerService struct {
	store            currency.BalanceStore
	locks            *concurrency.KeyedMutex
	flushConcurrency int
	logger           *otelinfra.Logger
	metrics          *otelinfra.Metrics
	tracer           trace.Tracer

	mu      sync.RWMutex
	wallets map[uuid.UUID]*currency.Wallet
}

// NewLedgerService 新しいLedgerServiceを作成
func NewLedgerService(
	store currency.BalanceStore,
	locks *concurrency.KeyedMutex,
	flushConcurrency int,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *LedgerService {
	if flushConcurrency <= 0 {
		flushConcurrency = 1
	}
	return &LedgerService{
		store:            store,
		locks:            locks,
		flushConcurrency: flushConcurrency,
		logger:           logger,
		metrics:          metrics,
		tracer:           otel.Tracer("ledger-service"),
		wallets:          make(map[uuid.UUID]*currency.Wallet),
	}
}

// GetBalance 残高を取得
//
// 読み込みに失敗した場合もエラーにはせず0を返す。失敗した結果はキャッシュしない。
func (s *LedgerService) GetBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType) decimal.Decimal {
	ctx, span := s.tracer.Start(ctx, "LedgerService.GetBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("currency_type", currencyType.String()),
	)

	unlock := s.locks.Lock(playerID)
	defer unlock()

	w, err := s.wallet(ctx, playerID)
	if err != nil {
		span.RecordError(err)
		s.logger.Error(ctx, "Failed to load balance, reporting zero", err, map[string]interface{}{
			"player_id":     playerID.String(),
			"currency_type": currencyType.String(),
		})
		return decimal.Zero
	}
	return w.Balance(currencyType)
}

// Balances 全通貨の残高を取得
func (s *LedgerService) Balances(ctx context.Context, playerID uuid.UUID) (map[currency.CurrencyType]decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.Balances")
	defer span.End()

	span.SetAttributes(attribute.String("player_id", playerID.String()))

	unlock := s.locks.Lock(playerID)
	defer unlock()

	w, err := s.wallet(ctx, playerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return w.Snapshot(), nil
}

// HasBalance 指定額以上の残高があるかどうか
func (s *LedgerService) HasBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, amount decimal.Decimal) bool {
	ctx, span := s.tracer.Start(ctx, "LedgerService.HasBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("currency_type", currencyType.String()),
		attribute.String("amount", amount.String()),
	)

	unlock := s.locks.Lock(playerID)
	defer unlock()

	w, err := s.wallet(ctx, playerID)
	if err != nil {
		span.RecordError(err)
		return false
	}
	return w.Balance(currencyType).GreaterThanOrEqual(amount)
}

// SetBalance 残高を設定（負の値は0に丸める）し、保存後の残高を返す
//
// 保存できる桁数(currency.Scale)を超える金額はErrInvalidAmountで拒否する。
func (s *LedgerService) SetBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, amount decimal.Decimal) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.SetBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("currency_type", currencyType.String()),
		attribute.String("amount", amount.String()),
	)

	if err := currency.ValidateScale(amount); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return decimal.Zero, err
	}

	unlock := s.locks.Lock(playerID)
	defer unlock()

	w, err := s.wallet(ctx, playerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return decimal.Zero, err
	}

	newBalance, err := s.persist(ctx, w, currencyType, currency.ClampNonNegative(amount))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return w.Balance(currencyType), err
	}

	s.metrics.RecordLedgerOperation(ctx, "set", currencyType.String())
	s.logger.Info(ctx, "Balance set", map[string]interface{}{
		"player_id":     playerID.String(),
		"currency_type": currencyType.String(),
		"balance":       newBalance.String(),
	})
	return newBalance, nil
}

// AddBalance 残高を加算し、加算後の残高を返す
func (s *LedgerService) AddBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, delta decimal.Decimal) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.AddBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("currency_type", currencyType.String()),
		attribute.String("delta", delta.String()),
	)

	if err := currency.ValidateDelta(delta); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return decimal.Zero, err
	}

	unlock := s.locks.Lock(playerID)
	defer unlock()

	w, err := s.wallet(ctx, playerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return decimal.Zero, err
	}

	newBalance, err := s.persist(ctx, w, currencyType, w.Balance(currencyType).Add(delta))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return w.Balance(currencyType), err
	}

	s.metrics.RecordLedgerOperation(ctx, "add", currencyType.String())
	s.logger.Debug(ctx, "Balance added", map[string]interface{}{
		"player_id":     playerID.String(),
		"currency_type": currencyType.String(),
		"delta":         delta.String(),
		"balance":       newBalance.String(),
	})
	return newBalance, nil
}

// SubtractBalance 残高を減算し、減算後の残高を返す
//
// 残高が不足している場合は何も変更せず、現在の残高とErrInsufficientFundsを返す。
func (s *LedgerService) SubtractBalance(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, delta decimal.Decimal) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.SubtractBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("currency_type", currencyType.String()),
		attribute.String("delta", delta.String()),
	)

	if err := currency.ValidateDelta(delta); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return decimal.Zero, err
	}

	unlock := s.locks.Lock(playerID)
	defer unlock()

	w, err := s.wallet(ctx, playerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return decimal.Zero, err
	}

	current := w.Balance(currencyType)
	if current.LessThan(delta) {
		s.metrics.RecordInsufficientFunds(ctx, currencyType.String())
		s.logger.Warn(ctx, "Insufficient funds", map[string]interface{}{
			"player_id":     playerID.String(),
			"currency_type": currencyType.String(),
			"balance":       current.String(),
			"requested":     delta.String(),
		})
		return current, currency.ErrInsufficientFunds
	}

	newBalance, err := s.persist(ctx, w, currencyType, current.Sub(delta))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return current, err
	}

	s.metrics.RecordLedgerOperation(ctx, "subtract", currencyType.String())
	s.logger.Debug(ctx, "Balance subtracted", map[string]interface{}{
		"player_id":     playerID.String(),
		"currency_type": currencyType.String(),
		"delta":         delta.String(),
		"balance":       newBalance.String(),
	})
	return newBalance, nil
}

// TrySubtract 残高が足りる場合のみ減算する
//
// 残高不足はエラーではなくok=falseで返す。errは永続化などの失敗のみ。
func (s *LedgerService) TrySubtract(ctx context.Context, playerID uuid.UUID, currencyType currency.CurrencyType, amount decimal.Decimal) (bool, decimal.Decimal, error) {
	newBalance, err := s.SubtractBalance(ctx, playerID, currencyType, amount)
	if errors.Is(err, currency.ErrInsufficientFunds) {
		return false, newBalance, nil
	}
	if err != nil {
		return false, newBalance, err
	}
	return true, newBalance, nil
}

// Unload 残高を保存してからキャッシュから取り除く
//
// 保存に失敗した場合はキャッシュを残したままエラーを返す。
func (s *LedgerService) Unload(ctx context.Context, playerID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "LedgerService.Unload")
	defer span.End()

	span.SetAttributes(attribute.String("player_id", playerID.String()))

	unlock := s.locks.Lock(playerID)
	defer unlock()

	s.mu.RLock()
	w, ok := s.wallets[playerID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	if err := s.store.SaveAll(ctx, playerID, w.Snapshot()); err != nil {
		err = fmt.Errorf("%w: %w", currency.ErrPersistenceFailure, err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to flush balances on unload", err, map[string]interface{}{
			"player_id": playerID.String(),
		})
		return err
	}

	s.mu.Lock()
	delete(s.wallets, playerID)
	s.mu.Unlock()

	s.logger.Info(ctx, "Balances unloaded", map[string]interface{}{
		"player_id": playerID.String(),
	})
	return nil
}

// SaveAll キャッシュ中の全プレイヤーの残高を保存する
func (s *LedgerService) SaveAll(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "LedgerService.SaveAll")
	defer span.End()

	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.wallets))
	for id := range s.wallets {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	span.SetAttributes(attribute.Int("players", len(ids)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.flushConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			unlock := s.locks.Lock(id)
			defer unlock()

			s.mu.RLock()
			w, ok := s.wallets[id]
			s.mu.RUnlock()
			if !ok {
				return nil
			}
			if err := s.store.SaveAll(gctx, id, w.Snapshot()); err != nil {
				return fmt.Errorf("%w: player %s: %w", currency.ErrPersistenceFailure, id, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to flush balances", err, map[string]interface{}{
			"players": len(ids),
		})
		return err
	}

	s.logger.Info(ctx, "All balances flushed", map[string]interface{}{
		"players": len(ids),
	})
	return nil
}

// wallet キャッシュからWalletを取得し、無ければ読み込む（プレイヤーのロックを保持して呼ぶこと）
func (s *LedgerService) wallet(ctx context.Context, playerID uuid.UUID) (*currency.Wallet, error) {
	s.mu.RLock()
	w, ok := s.wallets[playerID]
	s.mu.RUnlock()
	if ok {
		return w, nil
	}

	balances, err := s.store.Load(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", currency.ErrPersistenceFailure, err)
	}

	w = currency.NewWallet(playerID, balances)
	s.mu.Lock()
	s.wallets[playerID] = w
	s.mu.Unlock()
	return w, nil
}

// persist 保存に成功した場合のみWalletを更新する（プレイヤーのロックを保持して呼ぶこと）
func (s *LedgerService) persist(ctx context.Context, w *currency.Wallet, currencyType currency.CurrencyType, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := s.store.Save(ctx, w.PlayerID(), currencyType, amount); err != nil {
		s.logger.Error(ctx, "Failed to persist balance", err, map[string]interface{}{
			"player_id":     w.PlayerID().String(),
			"currency_type": currencyType.String(),
		})
		return decimal.Zero, fmt.Errorf("%w: %w", currency.ErrPersistenceFailure, err)
	}

	newBalance := w.Set(currencyType, amount)
	s.metrics.RecordCurrencyBalance(ctx, currencyType.String(), newBalance.InexactFloat64())
	return newBalance, nil
}
