package skill

import "errors"

var (
	// ErrUnknownSkill 未登録のスキル
	ErrUnknownSkill = errors.New("unknown skill")
	// ErrInvalidLevel 無効なレベル
	ErrInvalidLevel = errors.New("invalid level")
)
