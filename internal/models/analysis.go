package models

import (
	"time"

	"github.com/student-ai-platform/internal/types"
)

// RiskAnalysis is a wallet risk assessment produced by the AI server
type RiskAnalysis struct {
	ID                string           `json:"_id,omitempty"`
	Address           string           `json:"address"`
	RiskLevel         types.RiskLevel  `json:"risk_level"`
	FraudProbability  float64          `json:"fraud_probability"`
	Prediction        types.Prediction `json:"prediction"`
	Confidence        types.Confidence `json:"confidence"`
	AccountAge        string           `json:"account_age"`
	CurrentBalance    string           `json:"current_balance"`
	TotalReceived     string           `json:"total_received"`
	TotalTransactions int              `json:"total_transactions"`
	UniqueSenders     int              `json:"unique_senders"`
	AvgSendInterval   string           `json:"avg_send_interval"`
	DataSource        string           `json:"data_source"`
	Summarize         string           `json:"summarize"`
	IsPublic          bool             `json:"isPublic,omitempty"`
	Tags              []string         `json:"tags,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// AnalysisPage is a page of stored analyses
type AnalysisPage struct {
	Analyses   []RiskAnalysis `json:"analyses"`
	Pagination Pagination     `json:"pagination"`
}

// HistoryOptions filters the analysis history
type HistoryOptions struct {
	RiskLevel types.RiskLevel
	Limit     int
	Offset    int
}

// RiskDistribution counts analyses per risk bucket
type RiskDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// AnalysisStats aggregates stored analyses
type AnalysisStats struct {
	TotalAnalyses       int              `json:"totalAnalyses"`
	RiskDistribution    RiskDistribution `json:"riskDistribution"`
	AvgFraudProbability float64          `json:"avgFraudProbability"`
	UniqueWalletsCount  int              `json:"uniqueWalletsCount"`
}

// HealthStatus is the reported state of the AI server
type HealthStatus struct {
	Success      bool            `json:"success,omitempty"`
	Service      string          `json:"service,omitempty"`
	Version      string          `json:"version,omitempty"`
	Status       string          `json:"status"`
	Uptime       float64         `json:"uptime"`
	ModelsLoaded map[string]bool `json:"models_loaded"`
}

// Healthy reports whether the server answered as healthy
func (h *HealthStatus) Healthy() bool {
	return h != nil && h.Status == "healthy"
}
