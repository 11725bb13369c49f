package financecmd

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-ai-platform/internal/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input       string
		kind        types.TransactionType
		amount      int64
		description string
	}{
		{"25k cafe", types.TransactionExpense, 25_000, "cafe"},
		{"+7tr lương", types.TransactionIncome, 7_000_000, "lương"},
		{"-150k ăn trưa", types.TransactionExpense, 150_000, "ăn trưa"},
		{"1,5tr học phí", types.TransactionExpense, 1_500_000, "học phí"},
		{"2.5M tiền nhà", types.TransactionExpense, 2_500_000, "tiền nhà"},
		{"3triệu thưởng tết", types.TransactionIncome, 3_000_000, "thưởng tết"},
		{"3 triệu", types.TransactionExpense, 3, "triệu"},
		{"3triệu", types.TransactionExpense, 3_000_000, DefaultExpenseDescription},
		{"+500k", types.TransactionIncome, 500_000, DefaultIncomeDescription},
		{"200nghìn gia sư", types.TransactionIncome, 200_000, "gia sư"},
		{"50000 gửi xe", types.TransactionExpense, 50_000, "gửi xe"},
		{"lương 7tr", types.TransactionIncome, 7_000_000, "lương"},
		{"cafe sữa 25K", types.TransactionExpense, 25_000, "cafe sữa"},
		{"  25k   cafe  ", types.TransactionExpense, 25_000, "cafe"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, ok := Parse(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.kind, cmd.Type)
			assert.True(t, cmd.Amount.Equal(decimal.NewFromInt(tt.amount)), "amount %s", cmd.Amount)
			assert.Equal(t, tt.description, cmd.Description)
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"cafe",
		"0k cafe",
		"0,0tr",
		"lương 7",
		"k25 cafe",
		"25x cafe",
	} {
		_, ok := Parse(input)
		assert.False(t, ok, input)
	}
}

func TestParseProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("<n>k <description> is an expense of n thousand", prop.ForAll(
		func(n int64) bool {
			cmd, ok := Parse(fmt.Sprintf("%dk trà sữa", n))
			return ok &&
				cmd.Type == types.TransactionExpense &&
				cmd.Amount.Equal(decimal.NewFromInt(n*1000)) &&
				cmd.Description == "trà sữa"
		},
		gen.Int64Range(1, 1_000_000),
	))

	properties.Property("a leading + is always income", prop.ForAll(
		func(n int64) bool {
			cmd, ok := Parse(fmt.Sprintf("+%dtr", n))
			return ok && cmd.Type == types.TransactionIncome && cmd.Amount.Equal(decimal.NewFromInt(n*1_000_000))
		},
		gen.Int64Range(1, 1_000),
	))

	properties.TestingRun(t)
}

func TestRoute(t *testing.T) {
	tests := []struct {
		input      string
		kind       Kind
		query      Query
		blockchain bool
	}{
		{"Dò lại chi tiêu", KindQuery, QueryReviewToday, false},
		{"chi tiêu tháng này thế nào", KindQuery, QueryMonth, false},
		{"chi tiêu hôm nay", KindQuery, QueryToday, false},
		{"25k cafe", KindTransaction, "", false},
		{"+7tr lương blockchain", KindTransaction, "", true},
		{"xin chào", KindChat, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			intent := Route(tt.input)
			assert.Equal(t, tt.kind, intent.Kind)
			assert.Equal(t, tt.query, intent.Query)
			assert.Equal(t, tt.blockchain, intent.Blockchain)
			if tt.kind == KindTransaction {
				require.NotNil(t, intent.Command)
			}
		})
	}
}

func TestFormatShort(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0"},
		{999, "999"},
		{1_000, "1K"},
		{25_500, "26K"},
		{999_999, "1000K"},
		{1_000_000, "1.0Tr"},
		{7_250_000, "7.3Tr"},
		{1_200_000_000, "1.2B"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatShort(decimal.NewFromInt(tt.amount)), tt.amount)
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "0 ₫", FormatCurrency(decimal.Zero))
	assert.Equal(t, "999 ₫", FormatCurrency(decimal.NewFromInt(999)))
	assert.Equal(t, "1.000 ₫", FormatCurrency(decimal.NewFromInt(1000)))
	assert.Equal(t, "1.234.567 ₫", FormatCurrency(decimal.NewFromInt(1234567)))
	assert.Equal(t, "-25.000 ₫", FormatCurrency(decimal.NewFromInt(-25000)))
	assert.Equal(t, "12.346 ₫", FormatCurrency(decimal.RequireFromString("12345.6")))
}

func TestFormatCurrencyProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("stripping grouping restores the amount", prop.ForAll(
		func(n int64) bool {
			s := FormatCurrency(decimal.NewFromInt(n))
			digits := strings.ReplaceAll(strings.TrimSuffix(s, " ₫"), ".", "")
			return digits == fmt.Sprint(n)
		},
		gen.Int64Range(-1<<40, 1<<40),
	))

	properties.TestingRun(t)
}
