package models

import (
	"time"

	"github.com/student-ai-platform/internal/types"
)

// Transaction is a finance ledger entry owned by the backend
type Transaction struct {
	ID          string                `json:"_id"`
	Type        types.TransactionType `json:"type"`
	Amount      float64               `json:"amount"`
	Description string                `json:"description"`
	Category    string                `json:"category,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	Metadata    *TransactionMetadata  `json:"metadata,omitempty"`
	Date        time.Time             `json:"date"`
	CreatedAt   time.Time             `json:"createdAt,omitempty"`
}

// TransactionMetadata carries provenance and blockchain immutability details
type TransactionMetadata struct {
	Source             string  `json:"source,omitempty"`
	OriginalInput      string  `json:"originalInput,omitempty"`
	Confidence         float64 `json:"confidence,omitempty"`
	BlockchainHash     string  `json:"blockchainHash,omitempty"`
	BlockNumber        int64   `json:"blockNumber,omitempty"`
	BlockchainStatus   string  `json:"blockchainStatus,omitempty"`
	VerificationStatus string  `json:"verificationStatus,omitempty"`
	Immutable          bool    `json:"immutable,omitempty"`
}

// IsBlockchain reports whether the transaction was anchored and must not be deleted
func (t *Transaction) IsBlockchain() bool {
	if t.Metadata == nil {
		return false
	}
	return t.Metadata.Immutable || t.Metadata.BlockchainHash != "" || t.Metadata.Source == "blockchain_immutable"
}

// NewTransaction is the request body for creating a transaction
type NewTransaction struct {
	Type        types.TransactionType `json:"type"`
	Amount      float64               `json:"amount"`
	Description string                `json:"description"`
	Category    string                `json:"category,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
}

// TransactionPage is a page of transactions
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Pagination   Pagination    `json:"pagination"`
}

// Pagination describes a page window
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// TransactionCount splits a transaction count by type
type TransactionCount struct {
	Income   int `json:"income"`
	Expenses int `json:"expenses"`
	Total    int `json:"total"`
}

// FinanceSummary is the income/expense overview
type FinanceSummary struct {
	TotalIncome      float64          `json:"total_income"`
	TotalExpenses    float64          `json:"total_expenses"`
	NetAmount        float64          `json:"net_amount"`
	TransactionCount TransactionCount `json:"transaction_count"`
}

// CategoryTotal is one bucket of a category breakdown
type CategoryTotal struct {
	ID    string  `json:"_id"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// CategoryBreakdown is the per-category total listing
type CategoryBreakdown struct {
	Categories []CategoryTotal `json:"categories"`
}

// DailyExpenses is the expense report for one day
type DailyExpenses struct {
	Date        string        `json:"date"`
	Expenses    []Transaction `json:"expenses"`
	TotalAmount float64       `json:"totalAmount"`
	Count       int           `json:"count"`
}

// MonthlyExpenses is the expense report for the current month
type MonthlyExpenses struct {
	Month            int              `json:"month"`
	Year             int              `json:"year"`
	MonthName        string           `json:"monthName"`
	TotalExpenses    float64          `json:"totalExpenses"`
	TotalIncome      float64          `json:"totalIncome"`
	NetAmount        float64          `json:"netAmount"`
	TransactionCount TransactionCount `json:"transactionCount"`
	Categories       []CategoryTotal  `json:"categories"`
	Expenses         []Transaction    `json:"expenses,omitempty"`
}

// TodaySummary is the income/expense overview for today
type TodaySummary struct {
	Date             string           `json:"date"`
	DateFormatted    string           `json:"dateFormatted"`
	TotalIncome      float64          `json:"totalIncome"`
	TotalExpenses    float64          `json:"totalExpenses"`
	NetAmount        float64          `json:"netAmount"`
	TransactionCount TransactionCount `json:"transactionCount"`
	Transactions     []Transaction    `json:"transactions"`
}

// Insight is a generated remark about spending
type Insight struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SpendingCategory is a top spending category
type SpendingCategory struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

// FinanceInsights compares the current period with the previous one
type FinanceInsights struct {
	CurrentPeriod  FinanceSummary `json:"current_period"`
	PreviousPeriod FinanceSummary `json:"previous_period"`
	Trends         struct {
		IncomeChange  float64 `json:"income_change"`
		ExpenseChange float64 `json:"expense_change"`
	} `json:"trends"`
	Insights              []Insight          `json:"insights"`
	TopSpendingCategories []SpendingCategory `json:"top_spending_categories"`
}

// BulkResult is returned by the bulk insert endpoint
type BulkResult struct {
	Count        int           `json:"count"`
	Transactions []Transaction `json:"transactions"`
}

// DetailedSummary is the three month overview handed to the planning model
type DetailedSummary struct {
	FinanceSummary
	CategoryBreakdown  []map[string]interface{} `json:"category_breakdown"`
	MonthlyAverages    map[string]float64       `json:"monthly_averages"`
	RecentTransactions []Transaction            `json:"recent_transactions"`
	AnalysisPeriod     struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	} `json:"analysis_period"`
}

// TransactionFilter narrows a transaction listing; zero values are omitted
type TransactionFilter struct {
	Type      types.TransactionType
	Category  string
	StartDate string
	EndDate   string
}

// BlockchainRecord is the immutable anchor returned for a blockchain-flagged transaction
type BlockchainRecord struct {
	Hash               string  `json:"hash"`
	BlockNumber        int64   `json:"block_number"`
	UserAddress        string  `json:"user_address"`
	Amount             float64 `json:"amount"`
	Description        string  `json:"description"`
	Category           string  `json:"category"`
	TransactionID      string  `json:"transaction_id"`
	Immutable          bool    `json:"immutable"`
	VerificationStatus string  `json:"verification_status"`
}

// BlockchainTransactionResult is returned by the blockchain-anchored create call
type BlockchainTransactionResult struct {
	Transaction Transaction      `json:"transaction"`
	Blockchain  BlockchainRecord `json:"blockchain"`
}
