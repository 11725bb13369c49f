package models

// ParsedTransaction is a transaction the finance model extracted from free text
type ParsedTransaction struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// FinanceAIResult is the answer of the finance command model
type FinanceAIResult struct {
	Success            bool               `json:"success"`
	Message            string             `json:"message,omitempty"`
	Transaction        *ParsedTransaction `json:"transaction,omitempty"`
	ResponseText       string             `json:"response_text"`
	ParsedSuccessfully bool               `json:"parsed_successfully"`
	Confidence         float64            `json:"confidence"`
}

// AIInsights is the finance model's reading of a transaction list
type AIInsights struct {
	Success         bool                   `json:"success"`
	Insights        []string               `json:"insights"`
	Recommendations []string               `json:"recommendations"`
	Trends          map[string]interface{} `json:"trends,omitempty"`
	Summary         string                 `json:"summary"`
}

// FinanceQueryResult is the rendered answer to a canned finance query
type FinanceQueryResult struct {
	Success      bool   `json:"success"`
	ResponseText string `json:"response_text"`
	QueryType    string `json:"query_type"`
}

// Finance query types understood by the AI server
const (
	QueryDailyExpenses   = "daily_expenses"
	QueryMonthlyExpenses = "monthly_expenses"
	QueryTodaySummary    = "today_summary"
)

// SmartPlanRequest asks for a savings or investment plan
type SmartPlanRequest struct {
	FinancialSummary map[string]interface{} `json:"financial_summary"`
	GoalType         string                 `json:"goal_type"`
	UserProfile      string                 `json:"user_profile,omitempty"`
	AdditionalData   map[string]interface{} `json:"additional_data,omitempty"`
}

// SmartPlan is the generated plan
type SmartPlan struct {
	Success         bool     `json:"success"`
	Plan            string   `json:"plan"`
	GoalType        string   `json:"goal_type"`
	Recommendations []string `json:"recommendations"`
	RiskAssessment  string   `json:"risk_assessment"`
	Timeline        string   `json:"timeline"`
	ProcessingTime  float64  `json:"processing_time"`
}
