package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/student-ai-platform/internal/apiclient"
	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/logging"
	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/types"
)

// Analysis defaults applied to fields the AI server left empty
const (
	DefaultAccountAge      = "0 days"
	DefaultEthAmount       = "0.0000 ETH"
	DefaultSendInterval    = "0.0 minutes"
	DefaultDataSource      = "Live Blockchain (Etherscan)"
	DefaultAnalysisSummary = "Không có phân tích chi tiết."
)

const defaultHistoryLimit = 20

// User-facing analysis errors
const (
	msgAddressInvalid     = "Địa chỉ ví không hợp lệ"
	msgAddressLength      = "Địa chỉ ví phải có đúng 42 ký tự (bao gồm 0x)"
	msgAddressHex         = "Địa chỉ ví chứa ký tự không hợp lệ. Chỉ chấp nhận ký tự hex (0-9, a-f, A-F)"
	msgInputInvalid       = "Dữ liệu đầu vào không hợp lệ"
	msgTooManyRequests    = "Quá nhiều yêu cầu. Vui lòng thử lại sau vài phút."
	msgAnalysisDown       = "Dịch vụ phân tích tạm thời không khả dụng. Vui lòng thử lại sau."
	msgServerError        = "Lỗi máy chủ. Vui lòng thử lại sau."
	msgAnalyzeFailed      = "Không thể phân tích ví. Vui lòng thử lại."
	msgAIUnreachable      = "Không thể kết nối đến máy chủ AI. Vui lòng kiểm tra kết nối mạng."
	msgDeleteFailed       = "Không thể xóa phân tích. Vui lòng thử lại."
	msgLookupFailed       = "Không thể lấy thông tin phân tích. Vui lòng thử lại."
	msgVisibilityFailed   = "Không thể cập nhật độ hiển thị. Vui lòng thử lại."
	msgAddTagFailed       = "Không thể thêm tag. Vui lòng thử lại."
	msgRemoveTagFailed    = "Không thể xóa tag. Vui lòng thử lại."
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unavailable"
)

// BlockchainService talks to the wallet risk analysis endpoints
type BlockchainService struct {
	backend *apiclient.Client
	ai      *apiclient.Client
	logger  *logging.Logger
	now     func() time.Time
}

// NewBlockchainService creates a new blockchain analysis service
func NewBlockchainService(backend, ai *apiclient.Client) *BlockchainService {
	return &BlockchainService{
		backend: backend,
		ai:      ai,
		logger:  logging.GetGlobalLogger().WithComponent("blockchain-service"),
		now:     time.Now,
	}
}

// NormalizeAddress trims the input, adds a missing 0x prefix and validates it
func NormalizeAddress(input string) (string, error) {
	addr := strings.TrimSpace(input)
	if addr == "" {
		return "", fail(msgAddressInvalid, apperrors.NewValidationError("address", msgAddressInvalid))
	}
	if !strings.HasPrefix(addr, "0x") {
		addr = "0x" + addr
	}
	if len(addr) != 42 {
		return "", fail(msgAddressLength, apperrors.NewValidationError("address", msgAddressLength))
	}
	if !IsValidAddress(addr) {
		return "", fail(msgAddressHex, apperrors.NewValidationError("address", msgAddressHex))
	}
	return addr, nil
}

// AnalyzeWallet runs the fraud model against a wallet.
// The AI client is called silently; the returned Failure carries the text to show.
func (s *BlockchainService) AnalyzeWallet(ctx context.Context, address string) (*models.RiskAnalysis, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	var result models.RiskAnalysis
	err = s.ai.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/analyze-wallet",
		Body:   map[string]string{"wallet_address": addr},
		Silent: true,
	}, &result)
	if err != nil {
		return nil, fail(analyzeErrorText(err), err)
	}

	applyAnalysisDefaults(&result, addr)
	result.CreatedAt = s.now()
	return &result, nil
}

func applyAnalysisDefaults(a *models.RiskAnalysis, addr string) {
	if a.Address == "" {
		a.Address = addr
	}
	if a.RiskLevel == "" {
		a.RiskLevel = types.RiskUnknown
	}
	if a.Prediction == "" {
		a.Prediction = types.PredictionNormal
	}
	if a.Confidence == "" {
		a.Confidence = types.ConfidenceMedium
	}
	setDefault(&a.AccountAge, DefaultAccountAge)
	setDefault(&a.CurrentBalance, DefaultEthAmount)
	setDefault(&a.TotalReceived, DefaultEthAmount)
	setDefault(&a.AvgSendInterval, DefaultSendInterval)
	setDefault(&a.DataSource, DefaultDataSource)
	setDefault(&a.Summarize, DefaultAnalysisSummary)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// analyzeErrorText maps an AI server failure to the message shown to the user
func analyzeErrorText(err error) string {
	if apperrors.IsNetwork(err) {
		return msgAIUnreachable
	}
	status := apperrors.StatusCode(err)
	switch {
	case status == http.StatusUnprocessableEntity:
		if list, ok := apiclient.ErrorBody(err)["errors"].([]interface{}); ok && len(list) > 0 {
			if first, ok := list[0].(map[string]interface{}); ok {
				if msg, ok := first["message"].(string); ok && msg != "" {
					return msg
				}
			}
			return msgInputInvalid
		}
		return orDefault(bodyText(err, "message"), msgAddressInvalid)
	case status == http.StatusBadRequest:
		return orDefault(bodyText(err, "detail", "message"), msgAddressInvalid)
	case status == http.StatusTooManyRequests:
		return msgTooManyRequests
	case status == http.StatusServiceUnavailable:
		return msgAnalysisDown
	case status >= 500:
		return orDefault(bodyText(err, "detail"), msgServerError)
	default:
		return orDefault(bodyText(err, "detail", "message"), msgAnalyzeFailed)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

type analysisSaveRequest struct {
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
}

// SaveAnalysis stores an analysis in the user's history. Callers may ignore the error;
// nothing is notified and a duplicate (409) is only logged.
func (s *BlockchainService) SaveAnalysis(ctx context.Context, a *models.RiskAnalysis) error {
	err := s.backend.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/blockchain/save",
		Silent: true,
		Body: analysisSaveRequest{
			Address:           a.Address,
			RiskLevel:         a.RiskLevel,
			FraudProbability:  a.FraudProbability,
			Prediction:        a.Prediction,
			Confidence:        a.Confidence,
			AccountAge:        a.AccountAge,
			CurrentBalance:    a.CurrentBalance,
			TotalReceived:     a.TotalReceived,
			TotalTransactions: a.TotalTransactions,
			UniqueSenders:     a.UniqueSenders,
			AvgSendInterval:   a.AvgSendInterval,
			DataSource:        a.DataSource,
			Summarize:         a.Summarize,
		},
	}, nil)
	if err != nil {
		log := s.logger.WithError(err).WithField("address", a.Address)
		if apperrors.StatusCode(err) == http.StatusConflict {
			log.Info("Analysis already saved")
		} else {
			log.Warn("Failed to save analysis")
		}
	}
	return err
}

func emptyAnalysisPage() *models.AnalysisPage {
	return &models.AnalysisPage{
		Analyses:   []models.RiskAnalysis{},
		Pagination: models.Pagination{Limit: defaultHistoryLimit},
	}
}

func historyQuery(opts models.HistoryOptions) url.Values {
	q := pageQuery(nil, opts.Limit, opts.Offset)
	if opts.RiskLevel != "" {
		q.Set("risk_level", string(opts.RiskLevel))
	}
	return q
}

func (s *BlockchainService) page(ctx context.Context, path string, opts models.HistoryOptions) (*models.AnalysisPage, error) {
	var page models.AnalysisPage
	if err := getData(ctx, s.backend, path, historyQuery(opts), &page); err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("Failed to load analyses")
		return emptyAnalysisPage(), err
	}
	if page.Analyses == nil {
		page.Analyses = []models.RiskAnalysis{}
	}
	return &page, nil
}

// History returns the user's stored analyses. The page is never nil:
// on error it is empty and the error is returned alongside.
func (s *BlockchainService) History(ctx context.Context, opts models.HistoryOptions) (*models.AnalysisPage, error) {
	return s.page(ctx, "/blockchain/history", opts)
}

// Public returns analyses other users shared, with the same empty-page contract as History
func (s *BlockchainService) Public(ctx context.Context, opts models.HistoryOptions) (*models.AnalysisPage, error) {
	return s.page(ctx, "/blockchain/public", opts)
}

// DeleteAnalysis removes a stored analysis
func (s *BlockchainService) DeleteAnalysis(ctx context.Context, id string) error {
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodDelete,
		Path:   "/blockchain/analysis/" + url.PathEscape(id),
	}, nil)
	if err != nil {
		return fail(msgDeleteFailed, err)
	}
	return nil
}

// AnalysisByAddress returns the latest stored analysis of address, or nil when there is none
func (s *BlockchainService) AnalysisByAddress(ctx context.Context, address string) (*models.RiskAnalysis, error) {
	var result struct {
		Analysis *models.RiskAnalysis `json:"analysis"`
	}
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/blockchain/analysis/" + url.PathEscape(address),
		Silent: true,
	}, &result)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fail(msgLookupFailed, err)
	}
	return result.Analysis, nil
}

// Stats returns the analysis aggregates. The stats are never nil:
// on error they are zero and the error is returned alongside.
func (s *BlockchainService) Stats(ctx context.Context) (*models.AnalysisStats, error) {
	var result struct {
		Stats *models.AnalysisStats `json:"stats"`
	}
	if err := getData(ctx, s.backend, "/blockchain/stats", nil, &result); err != nil {
		s.logger.WithError(err).Warn("Failed to load analysis stats")
		return &models.AnalysisStats{}, err
	}
	if result.Stats == nil {
		return &models.AnalysisStats{}, nil
	}
	return result.Stats, nil
}

// SetVisibility shares or unshares an analysis
func (s *BlockchainService) SetVisibility(ctx context.Context, id string, public bool) error {
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodPut,
		Path:   "/blockchain/analysis/" + url.PathEscape(id) + "/visibility",
		Body:   map[string]bool{"isPublic": public},
	}, nil)
	if err != nil {
		return fail(msgVisibilityFailed, err)
	}
	return nil
}

// AddTag labels an analysis
func (s *BlockchainService) AddTag(ctx context.Context, id, tag string) error {
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/blockchain/analysis/" + url.PathEscape(id) + "/tags",
		Body:   map[string]string{"tag": tag},
	}, nil)
	if err != nil {
		return fail(msgAddTagFailed, err)
	}
	return nil
}

// RemoveTag removes a label from an analysis
func (s *BlockchainService) RemoveTag(ctx context.Context, id, tag string) error {
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodDelete,
		Path:   "/blockchain/analysis/" + url.PathEscape(id) + "/tags/" + url.PathEscape(tag),
	}, nil)
	if err != nil {
		return fail(msgRemoveTagFailed, err)
	}
	return nil
}

// AIHealth probes the AI server. It never fails: an unreachable server is reported
// as unavailable with every model unloaded.
func (s *BlockchainService) AIHealth(ctx context.Context) *models.HealthStatus {
	var health models.HealthStatus
	err := s.ai.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/health", Silent: true}, &health)
	if err != nil {
		s.logger.WithError(err).Warn("AI server health check failed")
		return &models.HealthStatus{
			Status: healthStatusUnhealthy,
			ModelsLoaded: map[string]bool{
				"fraud_detector": false,
				"llm_blockchain": false,
				"llm_study":      false,
			},
		}
	}
	return &models.HealthStatus{
		Status:       healthStatusHealthy,
		Uptime:       health.Uptime,
		ModelsLoaded: health.ModelsLoaded,
	}
}
