package currency

import (
	"fmt"
	"strings"
)

// CurrencyType 通貨タイプを表す値オブジェクト
type CurrencyType string

const (
	CurrencyTypeCoins  CurrencyType = "coins"  // スキルコイン
	CurrencyTypeTokens CurrencyType = "tokens" // スキルトークン
)

// AllCurrencyTypes 全ての通貨タイプ
var AllCurrencyTypes = []CurrencyType{CurrencyTypeCoins, CurrencyTypeTokens}

// NewCurrencyType 新しいCurrencyTypeを作成（大文字小文字は区別しない）
func NewCurrencyType(s string) (CurrencyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "coins":
		return CurrencyTypeCoins, nil
	case "tokens":
		return CurrencyTypeTokens, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidCurrencyType, s)
	}
}

// String 文字列表現を返す
func (ct CurrencyType) String() string {
	return string(ct)
}

// Valid 有効な通貨タイプかどうかを返す
func (ct CurrencyType) Valid() bool {
	return ct == CurrencyTypeCoins || ct == CurrencyTypeTokens
}
