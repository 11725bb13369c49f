// Package finance drives the personal finance chat: recording transactions
// typed as short commands and answering spending questions.
package finance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/financecmd"
	"github.com/student-ai-platform/internal/logging"
	"github.com/student-ai-platform/internal/metrics"
	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/notify"
	"github.com/student-ai-platform/internal/service"
	"github.com/student-ai-platform/internal/storage"
)

// RecentLimit is how many transactions the manager keeps loaded
const RecentLimit = 20

// API is the finance backend surface
type API interface {
	Summary(ctx context.Context) (*models.FinanceSummary, error)
	ListTransactions(ctx context.Context, limit, offset int, filter models.TransactionFilter) (*models.TransactionPage, error)
	AddTransaction(ctx context.Context, tx models.NewTransaction) (*models.Transaction, error)
	SaveToBlockchain(ctx context.Context, tx models.NewTransaction) (*models.BlockchainTransactionResult, error)
	DeleteTransaction(ctx context.Context, id string) error
	DailyExpenses(ctx context.Context, date string) (*models.DailyExpenses, error)
	MonthlyExpenses(ctx context.Context) (*models.MonthlyExpenses, error)
}

// Gate is the authenticated session
type Gate interface {
	RequireAuth() error
	Account() common.Address
}

// Role is the author of a chat message
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// Reply is one chat message; Content is markdown
type Reply struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Manager holds the finance chat and the cached ledger views
type Manager struct {
	api      API
	gate     Gate
	notifier *notify.Publisher
	logger   *logging.Logger
	now      func() time.Time

	summary      *storage.Typed[models.FinanceSummary]
	transactions *storage.Typed[[]models.Transaction]

	mu       sync.Mutex
	messages []Reply
}

// NewManager creates a finance manager over cache with the given freshness window
func NewManager(api API, gate Gate, cache storage.Cache, freshness time.Duration, notifier *notify.Publisher, m *metrics.Registry) *Manager {
	if cache == nil {
		cache = storage.NewMemoryCache()
	}
	if notifier == nil {
		notifier = notify.NewPublisher(nil, nil)
	}
	return &Manager{
		api:          api,
		gate:         gate,
		notifier:     notifier,
		logger:       logging.GetGlobalLogger().WithComponent("finance"),
		now:          time.Now,
		summary:      storage.NewTyped[models.FinanceSummary](cache, "finance_summary", freshness, m),
		transactions: storage.NewTyped[[]models.Transaction](cache, "finance_transactions", freshness, m),
	}
}

func (m *Manager) account() string {
	return m.gate.Account().Hex()
}

// LoadSummary returns the income and expense totals. On failure it returns
// a zero summary together with the error.
func (m *Manager) LoadSummary(ctx context.Context, force bool) (models.FinanceSummary, error) {
	if err := m.gate.RequireAuth(); err != nil {
		return models.FinanceSummary{}, err
	}
	summary, err := m.summary.Load(ctx, storage.KeyFinanceSummary(m.account()), force, func(ctx context.Context) (models.FinanceSummary, error) {
		s, err := m.api.Summary(ctx)
		if err != nil {
			return models.FinanceSummary{}, err
		}
		return *s, nil
	})
	if err != nil {
		m.logger.WithError(err).Warn("Failed to load finance summary")
		return models.FinanceSummary{}, err
	}
	return summary, nil
}

// LoadTransactions returns the most recent transactions with a date on every entry
func (m *Manager) LoadTransactions(ctx context.Context, force bool) ([]models.Transaction, error) {
	if err := m.gate.RequireAuth(); err != nil {
		return nil, err
	}
	txs, err := m.transactions.Load(ctx, storage.KeyFinanceTransactions(m.account()), force, func(ctx context.Context) ([]models.Transaction, error) {
		page, err := m.api.ListTransactions(ctx, RecentLimit, 0, models.TransactionFilter{})
		if err != nil {
			return nil, err
		}
		return m.normalize(page.Transactions), nil
	})
	if err != nil {
		m.logger.WithError(err).Warn("Failed to load transactions")
		return []models.Transaction{}, err
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

// normalize fills a missing date from the creation time, or now
func (m *Manager) normalize(txs []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txs))
	for i, tx := range txs {
		if tx.Date.IsZero() {
			tx.Date = tx.CreatedAt
		}
		if tx.Date.IsZero() {
			tx.Date = m.now()
		}
		out[i] = tx
	}
	return out
}

// Refresh reloads both ledger views and notifies when neither could be loaded
func (m *Manager) Refresh(ctx context.Context) {
	_, sumErr := m.LoadSummary(ctx, true)
	_, txErr := m.LoadTransactions(ctx, true)
	if sumErr != nil && txErr != nil && !apperrors.IsUnauthorized(sumErr) {
		m.notifier.Error(ctx, notify.FinanceLoadFailed)
	}
}

func (m *Manager) invalidate(ctx context.Context) {
	account := m.account()
	if err := m.summary.Invalidate(ctx, storage.KeyFinanceSummary(account), storage.KeyFinanceTransactions(account)); err != nil {
		m.logger.WithError(err).Warn("Failed to invalidate finance cache")
	}
}

// Messages returns the chat so far, starting with the welcome message
func (m *Manager) Messages() []Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		m.messages = append(m.messages, m.ai(welcomeMessage))
	}
	return append([]Reply(nil), m.messages...)
}

func (m *Manager) ai(content string) Reply {
	return Reply{Role: RoleAI, Content: content, Timestamp: m.now()}
}

func (m *Manager) record(replies ...Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		m.messages = append(m.messages, m.ai(welcomeMessage))
	}
	m.messages = append(m.messages, replies...)
}

// Guidance appends and returns the usage guide
func (m *Manager) Guidance() Reply {
	r := m.ai(guidanceMessage)
	m.record(r)
	return r
}

// HandleMessage answers one chat input. Report queries are answered from
// the backend, transaction commands are recorded, anything else gets the
// syntax help. Backend failures become an error reply, not an error.
func (m *Manager) HandleMessage(ctx context.Context, text string) (Reply, error) {
	if err := m.gate.RequireAuth(); err != nil {
		return Reply{}, err
	}
	m.record(Reply{Role: RoleUser, Content: text, Timestamp: m.now()})

	intent := financecmd.Route(text)
	var content string
	switch intent.Kind {
	case financecmd.KindQuery:
		content = m.answer(ctx, intent.Query)
	case financecmd.KindTransaction:
		content = m.addTransaction(ctx, intent.Command, intent.Blockchain)
	default:
		content = syntaxHelp
	}

	r := m.ai(content)
	m.record(r)
	return r, nil
}

// QuickAction answers one of the report queries directly
func (m *Manager) QuickAction(ctx context.Context, q financecmd.Query) (Reply, error) {
	if err := m.gate.RequireAuth(); err != nil {
		return Reply{}, err
	}
	m.record(Reply{Role: RoleUser, Content: string(q), Timestamp: m.now()})
	r := m.ai(m.answer(ctx, q))
	m.record(r)
	return r, nil
}

func (m *Manager) answer(ctx context.Context, q financecmd.Query) string {
	var (
		content string
		err     error
	)
	switch q {
	case financecmd.QueryReviewToday:
		content, err = m.reviewToday(ctx)
	case financecmd.QueryToday:
		content, err = m.today(ctx)
	case financecmd.QueryMonth:
		content, err = m.month(ctx)
	default:
		return syntaxHelp
	}
	if err != nil {
		m.logger.WithError(err).WithField("query", string(q)).Warn("Finance query failed")
		return errorReply(err)
	}
	return content
}

func (m *Manager) addTransaction(ctx context.Context, cmd *financecmd.Command, blockchain bool) string {
	amount, _ := cmd.Amount.Float64()
	tx := models.NewTransaction{Type: cmd.Type, Amount: amount, Description: cmd.Description}

	logger := m.logger.WithFields(map[string]interface{}{
		"type":       string(cmd.Type),
		"blockchain": blockchain,
	})

	var content string
	if blockchain {
		result, err := m.api.SaveToBlockchain(ctx, tx)
		if err != nil {
			logger.WithError(err).Warn("Failed to anchor transaction")
			return errorReply(err)
		}
		content = blockchainSaved(cmd, result.Blockchain)
	} else {
		if _, err := m.api.AddTransaction(ctx, tx); err != nil {
			logger.WithError(err).Warn("Failed to add transaction")
			return errorReply(err)
		}
		content = transactionSaved(cmd)
	}

	logger.Info("Transaction recorded")
	m.invalidate(ctx)
	m.Refresh(ctx)
	return content
}

// DeleteTransaction removes tx. Blockchain-anchored transactions are refused.
func (m *Manager) DeleteTransaction(ctx context.Context, tx models.Transaction) error {
	if err := m.gate.RequireAuth(); err != nil {
		return err
	}
	if tx.IsBlockchain() {
		m.notifier.Error(ctx, notify.FinanceDeleteImmutable)
		return &service.Failure{
			Text: m.notifier.Catalog().Text(notify.FinanceDeleteImmutable),
			Err:  apperrors.NewValidationError("transaction", "blockchain transactions are immutable"),
		}
	}
	if err := m.api.DeleteTransaction(ctx, tx.ID); err != nil {
		m.logger.WithError(err).WithField("id", tx.ID).Warn("Failed to delete transaction")
		m.notifier.Error(ctx, notify.FinanceDeleteFailed)
		return err
	}

	m.invalidate(ctx)
	m.Refresh(ctx)
	m.notifier.Success(ctx, notify.FinanceDeleted)
	return nil
}

func errorReply(err error) string {
	msg := service.Message(err)
	if msg == "" {
		msg = "Vui lòng thử lại."
	}
	return fmt.Sprintf("❌ Có lỗi xảy ra: %s", msg)
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
