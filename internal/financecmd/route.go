package financecmd

import "strings"

// Kind is what a chat input asks for
type Kind int

const (
	// KindChat is free text that is neither a query nor a transaction
	KindChat Kind = iota
	// KindQuery asks for a spending report
	KindQuery
	// KindTransaction records a transaction
	KindTransaction
)

// Query identifies a spending report
type Query string

const (
	QueryReviewToday Query = "dò lại chi tiêu hôm nay"
	QueryMonth       Query = "chi tiêu tháng này"
	QueryToday       Query = "chi tiêu hôm nay"
)

// Intent is the classification of one chat input
type Intent struct {
	Kind    Kind
	Query   Query
	Command *Command
	// Blockchain asks for the transaction to be anchored immutably
	Blockchain bool
}

// Route classifies one chat input.
// Queries are checked first, so "dò lại chi tiêu" is never read as a
// transaction.
func Route(input string) Intent {
	lower := strings.ToLower(input)
	switch {
	case strings.Contains(lower, "dò lại chi tiêu"):
		return Intent{Kind: KindQuery, Query: QueryReviewToday}
	case strings.Contains(lower, "chi tiêu tháng"):
		return Intent{Kind: KindQuery, Query: QueryMonth}
	case strings.Contains(lower, "chi tiêu hôm nay"):
		return Intent{Kind: KindQuery, Query: QueryToday}
	}

	if cmd, ok := Parse(input); ok {
		return Intent{
			Kind:       KindTransaction,
			Command:    cmd,
			Blockchain: strings.Contains(lower, "blockchain"),
		}
	}
	return Intent{Kind: KindChat}
}
