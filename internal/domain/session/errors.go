package session

import "errors"

var (
	// ErrSessionNotFound セッションが開かれていない
	ErrSessionNotFound = errors.New("purchase session not found")
	// ErrUnknownWizardKind 未知のウィザード
	ErrUnknownWizardKind = errors.New("unknown wizard kind")
	// ErrUnknownOrigin 未知の戻り先
	ErrUnknownOrigin = errors.New("unknown origin")
	// ErrInvalidAction 適用できない操作
	ErrInvalidAction = errors.New("invalid action")
)
