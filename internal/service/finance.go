package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/student-ai-platform/internal/apiclient"
	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/types"
)

// FinanceService talks to the finance ledger endpoints
type FinanceService struct {
	backend *apiclient.Client
}

// NewFinanceService creates a new finance service
func NewFinanceService(backend *apiclient.Client) *FinanceService {
	return &FinanceService{backend: backend}
}

type transactionEnvelope struct {
	Transaction models.Transaction `json:"transaction"`
}

// AddTransaction records a new income or expense
func (s *FinanceService) AddTransaction(ctx context.Context, tx models.NewTransaction) (*models.Transaction, error) {
	var result transactionEnvelope
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/finance/transactions",
		Body:   tx,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result.Transaction, nil
}

// ListTransactions returns a page of transactions, newest first
func (s *FinanceService) ListTransactions(ctx context.Context, limit, offset int, filter models.TransactionFilter) (*models.TransactionPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if filter.Type != "" {
		q.Set("type", string(filter.Type))
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.StartDate != "" {
		q.Set("startDate", filter.StartDate)
	}
	if filter.EndDate != "" {
		q.Set("endDate", filter.EndDate)
	}

	var page models.TransactionPage
	if err := getData(ctx, s.backend, "/finance/transactions", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Summary returns the all-time income and expense totals
func (s *FinanceService) Summary(ctx context.Context) (*models.FinanceSummary, error) {
	var summary models.FinanceSummary
	if err := getData(ctx, s.backend, "/finance/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// DeleteTransaction removes a transaction
func (s *FinanceService) DeleteTransaction(ctx context.Context, id string) error {
	return callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodDelete,
		Path:   "/finance/transactions/" + url.PathEscape(id),
	}, nil)
}

// UpdateTransaction replaces the fields of a transaction
func (s *FinanceService) UpdateTransaction(ctx context.Context, id string, tx models.NewTransaction) (*models.Transaction, error) {
	var result transactionEnvelope
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodPut,
		Path:   "/finance/transactions/" + url.PathEscape(id),
		Body:   tx,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result.Transaction, nil
}

// CategoryBreakdown totals transactions per category; an empty type covers both
func (s *FinanceService) CategoryBreakdown(ctx context.Context, txType types.TransactionType) ([]models.CategoryTotal, error) {
	var q url.Values
	if txType != "" {
		q = url.Values{"type": {string(txType)}}
	}
	var result models.CategoryBreakdown
	if err := getData(ctx, s.backend, "/finance/categories", q, &result); err != nil {
		return nil, err
	}
	return result.Categories, nil
}

// Insights compares this month with the last one
func (s *FinanceService) Insights(ctx context.Context) (*models.FinanceInsights, error) {
	var insights models.FinanceInsights
	if err := getData(ctx, s.backend, "/finance/insights", nil, &insights); err != nil {
		return nil, err
	}
	return &insights, nil
}

// AddBulk records several transactions at once
func (s *FinanceService) AddBulk(ctx context.Context, txs []models.NewTransaction) (*models.BulkResult, error) {
	var result models.BulkResult
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/finance/bulk",
		Body:   map[string]interface{}{"transactions": txs},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DailyExpenses returns the expenses of date (YYYY-MM-DD); empty means today
func (s *FinanceService) DailyExpenses(ctx context.Context, date string) (*models.DailyExpenses, error) {
	var q url.Values
	if date != "" {
		q = url.Values{"date": {date}}
	}
	var result models.DailyExpenses
	if err := getData(ctx, s.backend, "/finance/daily-expenses", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MonthlyExpenses returns the current month report
func (s *FinanceService) MonthlyExpenses(ctx context.Context) (*models.MonthlyExpenses, error) {
	var result models.MonthlyExpenses
	if err := getData(ctx, s.backend, "/finance/monthly-expenses", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TodaySummary returns today's totals and transactions
func (s *FinanceService) TodaySummary(ctx context.Context) (*models.TodaySummary, error) {
	var result models.TodaySummary
	if err := getData(ctx, s.backend, "/finance/today-summary", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveToBlockchain records a transaction and anchors it immutably
func (s *FinanceService) SaveToBlockchain(ctx context.Context, tx models.NewTransaction) (*models.BlockchainTransactionResult, error) {
	var result models.BlockchainTransactionResult
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/finance/blockchain-transaction",
		Body:   tx,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DetailedSummary returns the three month overview used for planning
func (s *FinanceService) DetailedSummary(ctx context.Context) (*models.DetailedSummary, error) {
	var result models.DetailedSummary
	if err := getData(ctx, s.backend, "/finance/detailed-summary", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
