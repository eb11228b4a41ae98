// Package session はプレイヤーごとの購入ウィザードのセッションを管理する。
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"skillcoins/internal/domain/session"
	"skillcoins/internal/infrastructure/concurrency"
	otelinfra "skillcoins/internal/infrastructure/observability/otel"
)

type playerState struct {
	sessions map[session.WizardKind]*session.Session
	origin   session.Origin
}

// Manager 購入セッションマネージャー
//
// セッションは (プレイヤー, ウィザードの種類) ごとに1つ。同一プレイヤーの操作は
// プレイヤー単位のロックで直列化され、異なるプレイヤー同士は競合しない。
type Manager struct {
	locks       *concurrency.KeyedMutex
	gracePeriod time.Duration
	logger      *otelinfra.Logger
	tracer      trace.Tracer
	now         func() time.Time
	generation  atomic.Uint64

	mu      sync.RWMutex
	players map[uuid.UUID]*playerState
}

// NewManager 新しいManagerを作成
func NewManager(locks *concurrency.KeyedMutex, gracePeriod time.Duration, logger *otelinfra.Logger) *Manager {
	return &Manager{
		locks:       locks,
		gracePeriod: gracePeriod,
		logger:      logger,
		tracer:      otel.Tracer("session-manager"),
		now:         time.Now,
		players:     make(map[uuid.UUID]*playerState),
	}
}

// Open ウィザードを開き、新しいセッションを作成する
//
// 同じ種類のセッションが既にあれば置き換える。originが空でなければ戻り先として記録する。
func (m *Manager) Open(ctx context.Context, playerID uuid.UUID, kind session.WizardKind, sel session.Selection, origin session.Origin) session.Session {
	_, span := m.tracer.Start(ctx, "Manager.Open")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("wizard_kind", kind.String()),
	)

	unlock := m.locks.Lock(playerID)
	defer unlock()

	st := m.state(playerID, true)
	s := session.NewSession(playerID, kind, sel, m.generation.Add(1), m.now())
	st.sessions[kind] = s
	if origin != session.OriginNone {
		st.origin = origin
	}
	return s.Snapshot()
}

// Resume 閉じた直後のセッションを選択状態を保ったまま開き直す
//
// 既に片付けられている場合はErrSessionNotFound。
func (m *Manager) Resume(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) (session.Session, error) {
	_, span := m.tracer.Start(ctx, "Manager.Resume")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", playerID.String()),
		attribute.String("wizard_kind", kind.String()),
	)

	unlock := m.locks.Lock(playerID)
	defer unlock()

	st := m.state(playerID, false)
	if st == nil || st.sessions[kind] == nil {
		return session.Session{}, session.ErrSessionNotFound
	}
	prev := st.sessions[kind]
	s := session.NewSession(playerID, kind, prev.Selection, m.generation.Add(1), m.now())
	s.OpenedAt = prev.OpenedAt
	st.sessions[kind] = s
	return s.Snapshot(), nil
}

// Get セッションのスナップショットを返す
func (m *Manager) Get(playerID uuid.UUID, kind session.WizardKind) (session.Session, error) {
	unlock := m.locks.Lock(playerID)
	defer unlock()

	s := m.lookup(playerID, kind)
	if s == nil {
		return session.Session{}, session.ErrSessionNotFound
	}
	return s.Snapshot(), nil
}

// Update 開いているセッションの選択状態をfnで更新する
//
// fnがエラーを返した場合、選択状態は変更されない。
func (m *Manager) Update(playerID uuid.UUID, kind session.WizardKind, fn func(sel *session.Selection) error) (session.Session, error) {
	return m.WithSession(playerID, kind, func(s session.Session) (session.Selection, error) {
		next := s.Selection
		err := fn(&next)
		return next, err
	})
}

// WithSession プレイヤーのロックを保持したまま開いているセッションでfnを実行する
//
// fnに渡すセッションはコピー。fnが返した選択状態はerrがnilのときだけ保存される。
func (m *Manager) WithSession(playerID uuid.UUID, kind session.WizardKind, fn func(s session.Session) (session.Selection, error)) (session.Session, error) {
	unlock := m.locks.Lock(playerID)
	defer unlock()

	s := m.lookup(playerID, kind)
	if s == nil || !s.Open {
		return session.Session{}, session.ErrSessionNotFound
	}

	next, err := fn(s.Snapshot())
	if err != nil {
		return s.Snapshot(), err
	}
	next.Kind = kind
	s.Selection = next
	s.UpdatedAt = m.now()
	return s.Snapshot(), nil
}

// Close ウィザードを閉じる
//
// セッションは猶予期間の後に片付けられる。猶予期間中に同じ種類のウィザードが
// 開き直された場合は片付けない。
func (m *Manager) Close(ctx context.Context, playerID uuid.UUID, kind session.WizardKind) {
	unlock := m.locks.Lock(playerID)
	defer unlock()

	s := m.lookup(playerID, kind)
	if s == nil {
		return
	}
	s.Open = false
	s.UpdatedAt = m.now()

	gen := s.Generation()
	ctx = context.WithoutCancel(ctx)
	time.AfterFunc(m.gracePeriod, func() {
		m.cleanup(ctx, playerID, kind, gen)
	})
}

// Remove セッションを直ちに破棄する
func (m *Manager) Remove(playerID uuid.UUID, kind session.WizardKind) {
	unlock := m.locks.Lock(playerID)
	defer unlock()

	if st := m.state(playerID, false); st != nil {
		delete(st.sessions, kind)
		m.prune(playerID, st)
	}
}

// ConsumeOrigin 戻り先を取り出して消去する（未記録ならfallback）
func (m *Manager) ConsumeOrigin(playerID uuid.UUID, fallback session.Origin) session.Origin {
	unlock := m.locks.Lock(playerID)
	defer unlock()

	st := m.state(playerID, false)
	if st == nil || st.origin == session.OriginNone {
		return fallback
	}
	origin := st.origin
	st.origin = session.OriginNone
	m.prune(playerID, st)
	return origin
}

// ForgetPlayer プレイヤーの全セッションと戻り先を破棄する
func (m *Manager) ForgetPlayer(playerID uuid.UUID) {
	unlock := m.locks.Lock(playerID)
	defer unlock()

	m.mu.Lock()
	delete(m.players, playerID)
	m.mu.Unlock()
}

func (m *Manager) cleanup(ctx context.Context, playerID uuid.UUID, kind session.WizardKind, gen uint64) {
	unlock := m.locks.Lock(playerID)
	defer unlock()

	s := m.lookup(playerID, kind)
	if s == nil || s.Open || s.Generation() != gen {
		return
	}
	st := m.state(playerID, false)
	delete(st.sessions, kind)
	m.prune(playerID, st)

	m.logger.Debug(ctx, "Purchase session cleaned up", map[string]interface{}{
		"player_id":   playerID.String(),
		"wizard_kind": kind.String(),
	})
}

// prune セッションも戻り先も残っていなければプレイヤーの状態を捨てる。
// プレイヤーのロックを保持して呼ぶこと
func (m *Manager) prune(playerID uuid.UUID, st *playerState) {
	if len(st.sessions) > 0 || st.origin != session.OriginNone {
		return
	}
	m.mu.Lock()
	delete(m.players, playerID)
	m.mu.Unlock()
}

// lookup プレイヤーのロックを保持して呼ぶこと
func (m *Manager) lookup(playerID uuid.UUID, kind session.WizardKind) *session.Session {
	st := m.state(playerID, false)
	if st == nil {
		return nil
	}
	return st.sessions[kind]
}

// state プレイヤーのロックを保持して呼ぶこと
func (m *Manager) state(playerID uuid.UUID, create bool) *playerState {
	m.mu.RLock()
	st, ok := m.players[playerID]
	m.mu.RUnlock()
	if ok || !create {
		return st
	}

	st = &playerState{sessions: make(map[session.WizardKind]*session.Session)}
	m.mu.Lock()
	m.players[playerID] = st
	m.mu.Unlock()
	return st
}
