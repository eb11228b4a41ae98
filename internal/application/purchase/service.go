package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	appsession "skillcoins/internal/application/session"
	"skillcoins/internal/domain/session"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

// PurchaseApplicationService 購入ウィザードのアプリケーションサービス
type PurchaseApplicationService struct {
	sessions      *appsession.Manager
	ledger        Ledger
	orchestrators map[session.WizardKind]Orchestrator
	notifier      Notifier
	logger        *otelinfra.Logger
	metrics       *otelinfra.Metrics
	tracer        trace.Tracer
}

// NewPurchaseApplicationService 新しいPurchaseApplicationServiceを作成
//
// notifierがnilの場合はNopNotifierを使う。
func NewPurchaseApplicationService(
	sessions *appsession.Manager,
	ledger Ledger,
	orchestrators []Orchestrator,
	notifier Notifier,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *PurchaseApplicationService {
	byKind := make(map[session.WizardKind]Orchestrator, len(orchestrators))
	for _, o := range orchestrators {
		byKind[o.Kind()] = o
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &PurchaseApplicationService{
		sessions:      sessions,
		ledger:        ledger,
		orchestrators: byKind,
		notifier:      notifier,
		logger:        logger,
		metrics:       metrics,
		tracer:        otel.Tracer("purchase-service"),
	}
}

// OpenWizard ウィザードを開く
func (s *PurchaseApplicationService) OpenWizard(ctx context.Context, req *OpenWizardRequest) (*WizardView, error) {
	ctx, span := s.tracer.Start(ctx, "PurchaseApplicationService.OpenWizard")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", req.PlayerID.String()),
		attribute.String("wizard_kind", req.Kind.String()),
		attribute.Bool("resume", req.Resume),
	)

	o, err := s.orchestrator(req.Kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if req.Resume {
		if sess, err := s.sessions.Resume(ctx, req.PlayerID, req.Kind); err == nil {
			return s.view(ctx, o, sess), nil
		}
	}

	sel, err := o.Open(ctx, req.PlayerID, req.Target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Warn(ctx, "Failed to open wizard", map[string]interface{}{
			"player_id":   req.PlayerID.String(),
			"wizard_kind": req.Kind.String(),
			"error":       err.Error(),
		})
		return nil, err
	}

	sess := s.sessions.Open(ctx, req.PlayerID, req.Kind, sel, req.Target.Origin)

	s.logger.Info(ctx, "Wizard opened", map[string]interface{}{
		"player_id":   req.PlayerID.String(),
		"wizard_kind": req.Kind.String(),
		"origin":      string(req.Target.Origin),
	})
	return s.view(ctx, o, sess), nil
}

// UpdateSelection ウィザード内の操作を適用する
func (s *PurchaseApplicationService) UpdateSelection(ctx context.Context, playerID uuid.UUID, kind session.WizardKind, action session.Action) (*WizardView, error) {
	ctx, span := s.tracer.Start(ctx, "PurchaseApplicationService.UpdateSelection")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("wizard_kind", kind.String()),
		attribute.String("action", string(action.Type)),
	)

	o, err := s.orchestrator(kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	sess, err := s.sessions.WithSession(playerID, kind, func(cur session.Session) (session.Selection, error) {
		return o.Apply(ctx, playerID, cur.Selection, action)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return s.view(ctx, o, sess), nil
}

// Confirm 選択中の購入を確定する
//
// 検証で弾かれた購入は失敗した Result として返す。永続化の失敗はエラーとして返し、
// その場合は何も付与されていない。
func (s *PurchaseApplicationService) Confirm(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "PurchaseApplicationService.Confirm")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("wizard_kind", kind.String()),
	)

	o, err := s.orchestrator(kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	var result *Result
	_, err = s.sessions.WithSession(playerID, kind, func(cur session.Session) (session.Selection, error) {
		r, next, err := o.Confirm(ctx, playerID, cur.Selection)
		if err != nil {
			return cur.Selection, err
		}
		result = r
		return next, nil
	})
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		reason, ok := ReasonFor(err)
		if !ok {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			s.metrics.RecordPurchase(ctx, kind.String(), "error")
			s.logger.Error(ctx, "Purchase failed", err, map[string]interface{}{
				"player_id":   playerID.String(),
				"wizard_kind": kind.String(),
			})
			return nil, fmt.Errorf("purchase did not happen: %w", err)
		}
		result = &Result{Success: false, Reason: reason}
		if q, qerr := o.Quote(ctx, playerID, s.selection(playerID, kind)); qerr == nil {
			result.Currency = q.Currency
			result.NewBalance = s.ledger.GetBalance(ctx, playerID, q.Currency)
		}
	}

	if result.Success {
		s.metrics.RecordPurchase(ctx, kind.String(), "success")
		s.logger.Info(ctx, "Purchase completed", map[string]interface{}{
			"player_id":   playerID.String(),
			"wizard_kind": kind.String(),
			"cost":        result.Cost.String(),
			"currency":    result.Currency.String(),
			"effect":      result.GrantedEffect,
			"new_balance": result.NewBalance.String(),
		})
		s.notifier.PurchaseCompleted(ctx, playerID, kind, result)
	} else {
		s.metrics.RecordPurchase(ctx, kind.String(), string(result.Reason))
		s.logger.Warn(ctx, "Purchase rejected", map[string]interface{}{
			"player_id":   playerID.String(),
			"wizard_kind": kind.String(),
			"reason":      string(result.Reason),
		})
	}
	return result, nil
}

// CloseWizard ウィザードを閉じる（セッションは猶予期間の後に片付けられる）
func (s *PurchaseApplicationService) CloseWizard(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) error {
	ctx, span := s.tracer.Start(ctx, "PurchaseApplicationService.CloseWizard")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("wizard_kind", kind.String()),
	)

	if _, err := s.orchestrator(kind); err != nil {
		return err
	}
	s.sessions.Close(ctx, playerID, kind)
	return nil
}

// Back セッションを直ちに破棄し、戻り先の画面を返す
func (s *PurchaseApplicationService) Back(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) (session.Origin, error) {
	_, span := s.tracer.Start(ctx, "PurchaseApplicationService.Back")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("wizard_kind", kind.String()),
	)

	o, err := s.orchestrator(kind)
	if err != nil {
		return session.OriginNone, err
	}
	s.sessions.Remove(playerID, kind)
	return s.sessions.ConsumeOrigin(playerID, o.DefaultOrigin()), nil
}

// GetSessionSnapshot 描画用にセッションの状態と見積もりを返す
func (s *PurchaseApplicationService) GetSessionSnapshot(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) (*WizardView, error) {
	ctx, span := s.tracer.Start(ctx, "PurchaseApplicationService.GetSessionSnapshot")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("wizard_kind", kind.String()),
	)

	o, err := s.orchestrator(kind)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(playerID, kind)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, o, sess), nil
}

func (s *PurchaseApplicationService) orchestrator(kind session.WizardKind) (Orchestrator, error) {
	o, ok := s.orchestrators[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoOrchestrator, kind)
	}
	return o, nil
}

func (s *PurchaseApplicationService) selection(playerID uuid.UUID, kind session.WizardKind) session.Selection {
	sess, err := s.sessions.Get(playerID, kind)
	if err != nil {
		return session.Selection{}
	}
	return sess.Selection
}

func (s *PurchaseApplicationService) view(ctx context.Context, o Orchestrator, sess session.Session) *WizardView {
	v := &WizardView{Session: sess, Balance: decimal.Zero}

	q, err := o.Quote(ctx, sess.PlayerID, sess.Selection)
	if err != nil {
		if reason, ok := ReasonFor(err); ok {
			v.Unavailable = reason
		} else {
			s.logger.Warn(ctx, "Failed to quote selection", map[string]interface{}{
				"player_id":   sess.PlayerID.String(),
				"wizard_kind": sess.Kind.String(),
				"error":       err.Error(),
			})
		}
		return v
	}

	v.Quote = q
	v.Balance = s.ledger.GetBalance(ctx, sess.PlayerID, q.Currency)
	v.Affordable = q.Credit || v.Balance.GreaterThanOrEqual(q.Cost)
	return v
}
