package bridge

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"skillcoins/internal/domain/currency"
)

// ErrInvalidAmount 金額を解釈できない
var ErrInvalidAmount = errors.New("invalid command amount")

// Operation 外部経済コマンドの操作
type Operation string

const (
	OperationSet  Operation = "set"
	OperationGive Operation = "give"
	OperationTake Operation = "take"
)

// ForeignCommand 認識した外部経済コマンド
type ForeignCommand struct {
	Operation Operation
	Target    string
	RawAmount string
}

var amountPattern = regexp.MustCompile(`^([0-9.]+)([kmbt]?)$`)

var suffixMultipliers = map[string]decimal.Decimal{
	"":  decimal.NewFromInt(1),
	"k": decimal.New(1, 3),
	"m": decimal.New(1, 6),
	"b": decimal.New(1, 9),
	"t": decimal.New(1, 12),
}

// ParseCommand コマンド文字列を解釈する
//
// 認識するのは "/money <set|give|take> <player> <amount>" と
// "/cmi money <set|give|take> <player> <amount>" のみ。先頭のスラッシュは省略できる。
func ParseCommand(raw string) (*ForeignCommand, bool) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(raw), "/"))
	if len(fields) > 0 && strings.EqualFold(fields[0], "cmi") {
		fields = fields[1:]
	}
	if len(fields) < 4 || !strings.EqualFold(fields[0], "money") {
		return nil, false
	}

	op := Operation(strings.ToLower(fields[1]))
	switch op {
	case OperationSet, OperationGive, OperationTake:
	default:
		return nil, false
	}

	return &ForeignCommand{
		Operation: op,
		Target:    fields[2],
		RawAmount: fields[3],
	}, true
}

// ParseAmount "1,500" や "2.5k" のような金額を解釈する（k/m/b/t は千/百万/十億/兆倍）
//
// 接尾辞を掛けた後に小数点以下がcurrency.Scale桁を超える場合は拒否する。
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, ",", "")))
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	base, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	amount := base.Mul(suffixMultipliers[m[2]])
	if err := currency.ValidateScale(amount); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q exceeds %d decimal places", ErrInvalidAmount, raw, currency.Scale)
	}
	return amount, nil
}
