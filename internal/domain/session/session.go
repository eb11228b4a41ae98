package session

import (
	"time"

	"github.com/google/uuid"
)

// Session プレイヤーとウィザードの種類ごとの購入セッション
type Session struct {
	PlayerID  uuid.UUID
	Kind      WizardKind
	Selection Selection
	Open      bool
	OpenedAt  time.Time
	UpdatedAt time.Time

	// generation 同じ種類のウィザードが開き直されるたびに増える
	generation uint64
}

// NewSession 新しいSessionを作成
func NewSession(playerID uuid.UUID, kind WizardKind, sel Selection, generation uint64, now time.Time) *Session {
	sel.Kind = kind
	return &Session{
		PlayerID:   playerID,
		Kind:       kind,
		Selection:  sel,
		Open:       true,
		OpenedAt:   now,
		UpdatedAt:  now,
		generation: generation,
	}
}

// Generation 開かれた世代を返す
func (s *Session) Generation() uint64 {
	return s.generation
}

// Snapshot 呼び出し側が変更しても影響しないコピーを返す
func (s *Session) Snapshot() Session {
	return *s
}
