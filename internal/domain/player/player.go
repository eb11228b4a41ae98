package player

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var nameRegex = regexp.MustCompile(`^[A-Za-z0-9_.]{1,32}$`)

// Player プレイヤーエンティティ（名前とIDの対応）
type Player struct {
	id         uuid.UUID
	name       string
	lastSeenAt time.Time
}

// NewPlayer 新しいPlayerを作成
func NewPlayer(id uuid.UUID, name string, lastSeenAt time.Time) (*Player, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidPlayerID
	}
	if !nameRegex.MatchString(name) {
		return nil, ErrInvalidPlayerName
	}
	return &Player{id: id, name: name, lastSeenAt: lastSeenAt}, nil
}

// ID プレイヤーIDを返す
func (p *Player) ID() uuid.UUID {
	return p.id
}

// Name プレイヤー名を返す
func (p *Player) Name() string {
	return p.name
}

// LastSeenAt 最終ログイン日時を返す
func (p *Player) LastSeenAt() time.Time {
	return p.lastSeenAt
}

// NameKey 大文字小文字を区別しない検索キー
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParseID 文字列のプレイヤーIDを解釈する
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidPlayerID
	}
	return id, nil
}
