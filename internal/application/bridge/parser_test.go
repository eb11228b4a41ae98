package bridge

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   *ForeignCommand
		wantOK bool
	}{
		{
			name:   "正常系: /money give",
			raw:    "/money give Steve 100",
			want:   &ForeignCommand{Operation: OperationGive, Target: "Steve", RawAmount: "100"},
			wantOK: true,
		},
		{
			name:   "正常系: /cmi money set",
			raw:    "/cmi money SET Alex 1.5k",
			want:   &ForeignCommand{Operation: OperationSet, Target: "Alex", RawAmount: "1.5k"},
			wantOK: true,
		},
		{
			name:   "正常系: コンソールからのスラッシュ無しコマンド",
			raw:    "money take Steve 1,000",
			want:   &ForeignCommand{Operation: OperationTake, Target: "Steve", RawAmount: "1,000"},
			wantOK: true,
		},
		{
			name:   "正常系: 余分な空白",
			raw:    "  /money   give   Steve   5  ",
			want:   &ForeignCommand{Operation: OperationGive, Target: "Steve", RawAmount: "5"},
			wantOK: true,
		},
		{name: "異常系: 引数不足", raw: "/money give Steve"},
		{name: "異常系: 未対応のサブコマンド", raw: "/money pay Steve 10"},
		{name: "異常系: 別のコマンド", raw: "/eco give Steve 10"},
		{name: "異常系: cmiの別サブコマンド", raw: "/cmi heal Steve 10 20"},
		{name: "異常系: 空文字列", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCommand(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "正常系: 整数", raw: "100", want: "100"},
		{name: "正常系: 小数", raw: "12.75", want: "12.75"},
		{name: "正常系: 桁区切り", raw: "1,000,000", want: "1000000"},
		{name: "正常系: k", raw: "2.5k", want: "2500"},
		{name: "正常系: 大文字M", raw: "3M", want: "3000000"},
		{name: "正常系: b", raw: "1b", want: "1000000000"},
		{name: "正常系: t", raw: "0.5t", want: "500000000000"},
		{name: "異常系: 負の値", raw: "-5", wantErr: true},
		{name: "異常系: 未知の接尾辞", raw: "5x", wantErr: true},
		{name: "異常系: 小数点が複数", raw: "1.2.3", wantErr: true},
		{name: "異常系: 数字が無い", raw: "k", wantErr: true},
		{name: "正常系: 接尾辞で桁に収まる", raw: "1.23456k", want: "1234.56"},
		{name: "正常系: 小数点以下4桁", raw: "0.0001", want: "0.0001"},
		{name: "異常系: 小数点以下5桁", raw: "0.00004", wantErr: true},
		{name: "異常系: 接尾辞を掛けても収まらない", raw: "0.00000001k", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}
