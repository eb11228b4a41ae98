package currency

import "errors"

var (
	// ErrInsufficientFunds 残高不足エラー
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount 無効な金額エラー
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidCurrencyType 無効な通貨タイプエラー
	ErrInvalidCurrencyType = errors.New("invalid currency type")
	// ErrPersistenceFailure 永続化失敗エラー
	ErrPersistenceFailure = errors.New("persistence failure")
)
