package player

import "errors"

var (
	// ErrPlayerNotFound プレイヤーが見つからない
	ErrPlayerNotFound = errors.New("player not found")
	// ErrInvalidPlayerID 無効なプレイヤーID
	ErrInvalidPlayerID = errors.New("invalid player id")
	// ErrInvalidPlayerName 無効なプレイヤー名
	ErrInvalidPlayerName = errors.New("invalid player name")
)
