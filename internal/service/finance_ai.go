package service

import (
	"context"

	"github.com/student-ai-platform/internal/apiclient"
	"github.com/student-ai-platform/internal/models"
)

// FinanceAIService talks to the finance models of the AI server
type FinanceAIService struct {
	ai *apiclient.Client
}

// NewFinanceAIService creates a new finance AI service
func NewFinanceAIService(ai *apiclient.Client) *FinanceAIService {
	return &FinanceAIService{ai: ai}
}

// ProcessCommand lets the model parse or answer a free-text finance command
func (s *FinanceAIService) ProcessCommand(ctx context.Context, command string) (*models.FinanceAIResult, error) {
	var result models.FinanceAIResult
	if err := s.ai.Post(ctx, "/finance-ai", map[string]string{"command": command}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Insights asks the model to comment on transactions over period (week, month, quarter, year)
func (s *FinanceAIService) Insights(ctx context.Context, transactions []models.Transaction, period string) (*models.AIInsights, error) {
	if period == "" {
		period = "month"
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	body := map[string]interface{}{"transactions": transactions, "period": period}

	var result models.AIInsights
	if err := s.ai.Post(ctx, "/finance-insights", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Report asks for a period report. The document shape is owned by the model.
func (s *FinanceAIService) Report(ctx context.Context, period string) (map[string]interface{}, error) {
	if period == "" {
		period = "month"
	}
	var result map[string]interface{}
	if err := s.ai.Post(ctx, "/finance-report", map[string]string{"period": period}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Query renders a canned answer for queryType from data fetched off the backend
func (s *FinanceAIService) Query(ctx context.Context, queryType string, data interface{}) (*models.FinanceQueryResult, error) {
	body := map[string]interface{}{"query_type": queryType, "data": data}

	var result models.FinanceQueryResult
	if err := s.ai.Post(ctx, "/finance-query", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SmartPlan generates a savings or investment plan
func (s *FinanceAIService) SmartPlan(ctx context.Context, req models.SmartPlanRequest) (*models.SmartPlan, error) {
	if req.UserProfile == "" {
		req.UserProfile = "student"
	}
	var result models.SmartPlan
	if err := s.ai.Post(ctx, "/smart-planning", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
