// Package analysis runs wallet risk analyses and keeps the user's history.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/logging"
	"github.com/student-ai-platform/internal/metrics"
	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/notify"
	"github.com/student-ai-platform/internal/service"
	"github.com/student-ai-platform/internal/storage"
	"github.com/student-ai-platform/internal/types"
)

// HistoryLimit is how many stored analyses are listed
const HistoryLimit = 50

// API is the analysis backend surface
type API interface {
	AnalyzeWallet(ctx context.Context, address string) (*models.RiskAnalysis, error)
	SaveAnalysis(ctx context.Context, a *models.RiskAnalysis) error
	History(ctx context.Context, opts models.HistoryOptions) (*models.AnalysisPage, error)
	DeleteAnalysis(ctx context.Context, id string) error
	AIHealth(ctx context.Context) *models.HealthStatus
}

// Analyzer runs analyses and caches the history
type Analyzer struct {
	api      API
	notifier *notify.Publisher
	logger   *logging.Logger
	history  *storage.Typed[[]models.RiskAnalysis]

	mu      sync.Mutex
	current *models.RiskAnalysis
}

// NewAnalyzer creates an analyzer whose history stays fresh for window
func NewAnalyzer(api API, cache storage.Cache, window time.Duration, notifier *notify.Publisher, m *metrics.Registry) *Analyzer {
	if cache == nil {
		cache = storage.NewMemoryCache()
	}
	if notifier == nil {
		notifier = notify.NewPublisher(nil, nil)
	}
	return &Analyzer{
		api:      api,
		notifier: notifier,
		logger:   logging.GetGlobalLogger().WithComponent("analysis"),
		history:  storage.NewTyped[[]models.RiskAnalysis](cache, "analysis_history", window, m),
	}
}

// Analyze checks address and runs the fraud model against it. The result is
// saved to the history on a best-effort basis and announced by risk level.
func (a *Analyzer) Analyze(ctx context.Context, address string) (*models.RiskAnalysis, error) {
	addr := strings.TrimSpace(address)
	if addr == "" {
		a.notifier.Error(ctx, notify.AnalysisEmptyAddress)
		return nil, apperrors.NewValidationError("address", "address is empty")
	}
	if !strings.HasPrefix(addr, "0x") {
		addr = "0x" + addr
	}
	if !service.IsValidAddress(addr) {
		a.notifier.Error(ctx, notify.AnalysisInvalidAddress)
		return nil, apperrors.NewValidationError("address", "invalid wallet address")
	}

	logger := a.logger.WithField("address", addr)
	a.notifier.Publish(ctx, notify.LevelLoading, notify.AnalysisRunning)

	result, err := a.api.AnalyzeWallet(ctx, addr)
	if err != nil {
		logger.WithError(err).Warn("Analysis failed")
		a.notifier.Raw(ctx, notify.LevelError, service.Message(err))
		return nil, err
	}

	a.mu.Lock()
	a.current = result
	a.mu.Unlock()

	if err := a.api.SaveAnalysis(ctx, result); err == nil {
		a.invalidate(ctx)
	}

	switch types.ParseRiskLevel(string(result.RiskLevel)) {
	case types.RiskHigh:
		a.notifier.Error(ctx, notify.AnalysisHighRisk)
	case types.RiskMedium:
		a.notifier.Warning(ctx, notify.AnalysisMediumRisk)
	default:
		a.notifier.Success(ctx, notify.AnalysisLowRisk)
	}
	logger.WithField("risk", string(result.RiskLevel)).Info("Analysis completed")
	return result, nil
}

func (a *Analyzer) invalidate(ctx context.Context) {
	if err := a.history.Invalidate(ctx, storage.KeyAnalysisHistory); err != nil {
		a.logger.WithError(err).Warn("Failed to invalidate analysis history")
	}
}

// LoadHistory returns the stored analyses, newest first as the backend orders them
func (a *Analyzer) LoadHistory(ctx context.Context, force bool) ([]models.RiskAnalysis, error) {
	list, err := a.history.Load(ctx, storage.KeyAnalysisHistory, force, func(ctx context.Context) ([]models.RiskAnalysis, error) {
		page, err := a.api.History(ctx, models.HistoryOptions{Limit: HistoryLimit})
		if err != nil {
			return nil, err
		}
		return page.Analyses, nil
	})
	if err != nil {
		a.logger.WithError(err).Warn("Failed to load analysis history")
		a.notifier.Error(ctx, notify.AnalysisHistoryFailed)
		return []models.RiskAnalysis{}, err
	}
	if list == nil {
		list = []models.RiskAnalysis{}
	}
	return list, nil
}

// Delete removes a stored analysis and reloads the history
func (a *Analyzer) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		a.notifier.Error(ctx, notify.AnalysisInvalidID)
		return apperrors.NewValidationError("id", "invalid analysis id")
	}
	if err := a.api.DeleteAnalysis(ctx, id); err != nil {
		a.logger.WithError(err).WithField("id", id).Warn("Failed to delete analysis")
		a.notifier.Error(ctx, notify.AnalysisDeleteFailed)
		return err
	}

	a.invalidate(ctx)
	if _, err := a.LoadHistory(ctx, true); err != nil {
		a.logger.WithError(err).Debug("History reload after delete failed")
	}
	a.notifier.Success(ctx, notify.AnalysisDeleted)
	return nil
}

// Search lists stored analyses at risk (any level when empty) whose address
// or summary contains term, ignoring case
func (a *Analyzer) Search(ctx context.Context, term string, risk types.RiskLevel) ([]models.RiskAnalysis, error) {
	page, err := a.api.History(ctx, models.HistoryOptions{Limit: HistoryLimit, RiskLevel: risk})
	if err != nil {
		a.logger.WithError(err).Warn("Analysis search failed")
		a.notifier.Error(ctx, notify.AnalysisSearchFailed)
		return []models.RiskAnalysis{}, err
	}

	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.RiskAnalysis, 0, len(page.Analyses))
	for _, r := range page.Analyses {
		if term == "" ||
			strings.Contains(strings.ToLower(r.Address), term) ||
			strings.Contains(strings.ToLower(r.Summarize), term) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Select shows a stored analysis as the current result
func (a *Analyzer) Select(ctx context.Context, r models.RiskAnalysis) {
	a.mu.Lock()
	a.current = &r
	a.mu.Unlock()
	a.notifier.Success(ctx, notify.AnalysisFromHistory)
}

// Current returns the last analysis run or selected, or nil
func (a *Analyzer) Current() *models.RiskAnalysis {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// CheckAIServer probes the AI server and announces the result
func (a *Analyzer) CheckAIServer(ctx context.Context) *models.HealthStatus {
	status := a.api.AIHealth(ctx)
	if status.Healthy() {
		a.notifier.Success(ctx, notify.AIServerHealthy)
	} else {
		a.notifier.Error(ctx, notify.AIServerUnavailable)
	}
	return status
}

// RiskDescription labels a risk level with its fraud probability in percent
func RiskDescription(level types.RiskLevel, probability float64) string {
	switch types.ParseRiskLevel(string(level)) {
	case types.RiskLow:
		return fmt.Sprintf("Rủi ro thấp (%.1f%%) - Ví an toàn", probability)
	case types.RiskMedium:
		return fmt.Sprintf("Rủi ro trung bình (%.1f%%) - Cần thận trọng", probability)
	case types.RiskHigh:
		return fmt.Sprintf("Rủi ro cao (%.1f%%) - Nguy hiểm", probability)
	default:
		return fmt.Sprintf("Không xác định (%.1f%%)", probability)
	}
}
