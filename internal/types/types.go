// Package types provides common type definitions for the portal client.
package types

import "strings"

// TransactionType represents the direction of a finance transaction
type TransactionType string

const (
	// TransactionIncome represents money received
	TransactionIncome TransactionType = "income"
	// TransactionExpense represents money spent
	TransactionExpense TransactionType = "expense"
)

// RiskLevel represents the outcome bucket of a wallet risk analysis
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskUnknown RiskLevel = "UNKNOWN"
)

// ParseRiskLevel normalizes a risk level string, mapping anything unrecognized to UNKNOWN
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	default:
		return RiskUnknown
	}
}

// Prediction is the fraud classifier verdict
type Prediction string

const (
	PredictionNormal Prediction = "NORMAL"
	PredictionFraud  Prediction = "FRAUD"
)

// Confidence is the classifier confidence bucket
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Difficulty is the study chat answer level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Sender identifies the author of a chat message
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ModelType names a generation model hosted by the AI server
type ModelType string

const (
	ModelArt       ModelType = "art"
	ModelVideo     ModelType = "video"
	ModelStreaming ModelType = "streaming"
)
