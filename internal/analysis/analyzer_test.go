package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/notify"
	"github.com/student-ai-platform/internal/service"
	"github.com/student-ai-platform/internal/storage"
	"github.com/student-ai-platform/internal/types"
)

const wallet = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

type fakeAPI struct {
	risk       types.RiskLevel
	analyzeErr error
	saveErr    error
	historyErr error
	deleteErr  error
	stored     []models.RiskAnalysis
	health     *models.HealthStatus

	analyzed  []string
	saved     int
	histories []models.HistoryOptions
	deleted   []string
}

func (f *fakeAPI) AnalyzeWallet(_ context.Context, address string) (*models.RiskAnalysis, error) {
	f.analyzed = append(f.analyzed, address)
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &models.RiskAnalysis{Address: address, RiskLevel: f.risk, FraudProbability: 42}, nil
}

func (f *fakeAPI) SaveAnalysis(_ context.Context, a *models.RiskAnalysis) error {
	f.saved++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored = append([]models.RiskAnalysis{*a}, f.stored...)
	return nil
}

func (f *fakeAPI) History(_ context.Context, opts models.HistoryOptions) (*models.AnalysisPage, error) {
	f.histories = append(f.histories, opts)
	if f.historyErr != nil {
		return &models.AnalysisPage{Analyses: []models.RiskAnalysis{}}, f.historyErr
	}
	var out []models.RiskAnalysis
	for _, a := range f.stored {
		if opts.RiskLevel == "" || a.RiskLevel == opts.RiskLevel {
			out = append(out, a)
		}
	}
	return &models.AnalysisPage{Analyses: out}, nil
}

func (f *fakeAPI) DeleteAnalysis(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeAPI) AIHealth(context.Context) *models.HealthStatus {
	return f.health
}

func newAnalyzer(t *testing.T, api *fakeAPI) (*Analyzer, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	return NewAnalyzer(api, storage.NewMemoryCache(), 30*time.Second, notify.NewPublisher(rec, notify.NewCatalog(notify.LocaleEN)), nil), rec
}

func TestAnalyzeNotifiesByRisk(t *testing.T) {
	tests := []struct {
		risk types.RiskLevel
		key  notify.Key
		lvl  notify.Level
	}{
		{types.RiskHigh, notify.AnalysisHighRisk, notify.LevelError},
		{types.RiskMedium, notify.AnalysisMediumRisk, notify.LevelWarning},
		{types.RiskLow, notify.AnalysisLowRisk, notify.LevelSuccess},
		{"low", notify.AnalysisLowRisk, notify.LevelSuccess},
	}
	for _, tt := range tests {
		t.Run(string(tt.risk), func(t *testing.T) {
			analyzer, rec := newAnalyzer(t, &fakeAPI{risk: tt.risk})

			result, err := analyzer.Analyze(context.Background(), wallet)
			require.NoError(t, err)
			assert.Equal(t, wallet, result.Address)
			assert.Same(t, result, analyzer.Current())

			all := rec.All()
			require.Len(t, all, 2)
			assert.Equal(t, notify.AnalysisRunning, all[0].Key)
			assert.Equal(t, notify.LevelLoading, all[0].Level)
			assert.Equal(t, tt.key, all[1].Key)
			assert.Equal(t, tt.lvl, all[1].Level)
		})
	}
}

func TestAnalyzeNormalizesAndValidates(t *testing.T) {
	api := &fakeAPI{risk: types.RiskLow}
	analyzer, rec := newAnalyzer(t, api)

	_, err := analyzer.Analyze(context.Background(), "  "+wallet[2:]+" ")
	require.NoError(t, err)
	assert.Equal(t, []string{wallet}, api.analyzed)

	rec.Reset()
	_, err = analyzer.Analyze(context.Background(), "   ")
	require.Error(t, err)
	_, err = analyzer.Analyze(context.Background(), "0x1234")
	require.Error(t, err)
	assert.Equal(t, []notify.Key{notify.AnalysisEmptyAddress, notify.AnalysisInvalidAddress}, rec.Keys())
	assert.Len(t, api.analyzed, 1)
}

func TestAnalyzeFailureShowsMessage(t *testing.T) {
	api := &fakeAPI{analyzeErr: &service.Failure{Text: "Không thể phân tích ví. Vui lòng thử lại.", Err: errors.New("503")}}
	analyzer, rec := newAnalyzer(t, api)

	_, err := analyzer.Analyze(context.Background(), wallet)
	require.Error(t, err)

	all := rec.All()
	require.Len(t, all, 2)
	assert.Equal(t, notify.LevelError, all[1].Level)
	assert.Equal(t, "Không thể phân tích ví. Vui lòng thử lại.", all[1].Text)
	assert.Zero(t, api.saved)
	assert.Nil(t, analyzer.Current())
}

func TestAnalyzeRefreshesHistory(t *testing.T) {
	api := &fakeAPI{risk: types.RiskLow}
	analyzer, _ := newAnalyzer(t, api)

	history, err := analyzer.LoadHistory(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = analyzer.Analyze(context.Background(), wallet)
	require.NoError(t, err)

	history, err = analyzer.LoadHistory(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, wallet, history[0].Address)
	assert.Len(t, api.histories, 2)
	assert.Equal(t, HistoryLimit, api.histories[0].Limit)

	_, err = analyzer.LoadHistory(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, api.histories, 2)
}

func TestSaveFailureIsIgnored(t *testing.T) {
	api := &fakeAPI{risk: types.RiskHigh, saveErr: errors.New("conflict")}
	analyzer, rec := newAnalyzer(t, api)

	_, err := analyzer.Analyze(context.Background(), wallet)
	require.NoError(t, err)
	assert.Equal(t, 1, api.saved)
	assert.Equal(t, []notify.Key{notify.AnalysisRunning, notify.AnalysisHighRisk}, rec.Keys())
}

func TestLoadHistoryFailure(t *testing.T) {
	analyzer, rec := newAnalyzer(t, &fakeAPI{historyErr: errors.New("down")})

	history, err := analyzer.LoadHistory(context.Background(), false)
	require.Error(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
	assert.Equal(t, []notify.Key{notify.AnalysisHistoryFailed}, rec.Keys())
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{stored: []models.RiskAnalysis{{ID: "a1", Address: wallet}}}
	analyzer, rec := newAnalyzer(t, api)

	require.Error(t, analyzer.Delete(context.Background(), " "))
	assert.Empty(t, api.deleted)

	require.NoError(t, analyzer.Delete(context.Background(), "a1"))
	assert.Equal(t, []string{"a1"}, api.deleted)
	assert.Len(t, api.histories, 1)

	api.deleteErr = errors.New("nope")
	require.Error(t, analyzer.Delete(context.Background(), "a1"))
	assert.Equal(t, []notify.Key{notify.AnalysisInvalidID, notify.AnalysisDeleted, notify.AnalysisDeleteFailed}, rec.Keys())
}

func TestSearch(t *testing.T) {
	api := &fakeAPI{stored: []models.RiskAnalysis{
		{Address: wallet, RiskLevel: types.RiskHigh, Summarize: "Mixer activity"},
		{Address: "0x0000000000000000000000000000000000000001", RiskLevel: types.RiskLow, Summarize: "Quiet wallet"},
		{Address: "0x0000000000000000000000000000000000000002", RiskLevel: types.RiskHigh, Summarize: "Phishing MIXER"},
	}}
	analyzer, rec := newAnalyzer(t, api)

	found, err := analyzer.Search(context.Background(), " mixer ", "")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = analyzer.Search(context.Background(), "742D35", "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, wallet, found[0].Address)

	found, err = analyzer.Search(context.Background(), "", types.RiskLow)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, types.RiskLow, api.histories[2].RiskLevel)

	api.historyErr = errors.New("down")
	_, err = analyzer.Search(context.Background(), "x", "")
	require.Error(t, err)
	assert.Equal(t, []notify.Key{notify.AnalysisSearchFailed}, rec.Keys())
}

func TestSelectAndCheckAIServer(t *testing.T) {
	api := &fakeAPI{health: &models.HealthStatus{Status: "healthy"}}
	analyzer, rec := newAnalyzer(t, api)

	analyzer.Select(context.Background(), models.RiskAnalysis{Address: wallet})
	require.NotNil(t, analyzer.Current())
	assert.Equal(t, wallet, analyzer.Current().Address)

	assert.True(t, analyzer.CheckAIServer(context.Background()).Healthy())
	api.health = &models.HealthStatus{Status: "unavailable"}
	assert.False(t, analyzer.CheckAIServer(context.Background()).Healthy())

	assert.Equal(t, []notify.Key{notify.AnalysisFromHistory, notify.AIServerHealthy, notify.AIServerUnavailable}, rec.Keys())
}

func TestRiskDescription(t *testing.T) {
	assert.Equal(t, "Rủi ro thấp (12.3%) - Ví an toàn", RiskDescription(types.RiskLow, 12.34))
	assert.Equal(t, "Rủi ro trung bình (50.0%) - Cần thận trọng", RiskDescription("medium", 50))
	assert.Equal(t, "Rủi ro cao (87.6%) - Nguy hiểm", RiskDescription(types.RiskHigh, 87.64))
	assert.Equal(t, "Không xác định (0.0%)", RiskDescription("", 0))
}
