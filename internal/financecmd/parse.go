// Package financecmd parses the short Vietnamese finance commands typed
// into the finance chat, such as "25k cafe" or "+7tr lương".
package financecmd

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/student-ai-platform/internal/types"
)

// Default descriptions when a command carries none
const (
	DefaultIncomeDescription  = "Thu nhập"
	DefaultExpenseDescription = "Chi tiêu"
)

var (
	mainPattern     = regexp.MustCompile(`(?i)^([+\-])?(\d+(?:[,.]\d+)?)(k|tr|m|triệu|nghìn)?(?:\s+(.+))?$`)
	reversedPattern = regexp.MustCompile(`(?i)^(.+?)\s+(\d+(?:[,.]\d+)?)(k|tr|m|triệu|nghìn)$`)

	incomeKeywords = []string{"lương", "thưởng", "thu", "nhận", "bán", "làm thêm", "gia sư", "đầu tư", "cổ tức"}

	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

// Command is a parsed transaction
type Command struct {
	Type        types.TransactionType
	Amount      decimal.Decimal
	Description string
}

// Parse reads "[+|-]<amount>[unit] [description]" or "<description> <amount><unit>".
// Units are k/nghìn (thousand) and tr/m/triệu (million); a comma is a
// decimal point. It returns false when the input matches neither form or
// the amount is not positive.
func Parse(input string) (*Command, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, false
	}

	if m := mainPattern.FindStringSubmatch(input); m != nil {
		sign, number, unit, description := m[1], m[2], m[3], m[4]
		amount, ok := parseAmount(number, unit)
		if !ok {
			return nil, false
		}
		kind := types.TransactionExpense
		if sign == "+" || (description != "" && hasIncomeKeyword(description)) {
			kind = types.TransactionIncome
		}
		return newCommand(kind, amount, description), true
	}

	if m := reversedPattern.FindStringSubmatch(input); m != nil {
		description, number, unit := m[1], m[2], m[3]
		amount, ok := parseAmount(number, unit)
		if !ok {
			return nil, false
		}
		kind := types.TransactionExpense
		if hasIncomeKeyword(description) {
			kind = types.TransactionIncome
		}
		return newCommand(kind, amount, description), true
	}

	return nil, false
}

func newCommand(kind types.TransactionType, amount decimal.Decimal, description string) *Command {
	if description == "" {
		description = DefaultExpenseDescription
		if kind == types.TransactionIncome {
			description = DefaultIncomeDescription
		}
	}
	return &Command{Type: kind, Amount: amount, Description: description}
}

func parseAmount(number, unit string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(strings.Replace(number, ",", ".", 1))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	switch strings.ToLower(unit) {
	case "k", "nghìn":
		amount = amount.Mul(thousand)
	case "tr", "m", "triệu":
		amount = amount.Mul(million)
	}
	return amount, true
}

func hasIncomeKeyword(description string) bool {
	lower := strings.ToLower(description)
	for _, kw := range incomeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
