// Package session holds the wallet and authentication state of the portal
// and runs the one-shot startup sequence that restores it.
package session

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/logging"
	"github.com/student-ai-platform/internal/metrics"
	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/notify"
	"github.com/student-ai-platform/internal/storage"
	"github.com/student-ai-platform/internal/wallet"
)

// BootstrapState tracks the one-shot startup sequence
type BootstrapState int

const (
	NotStarted BootstrapState = iota
	InProgress
	Done
)

func (b BootstrapState) String() string {
	switch b {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Bootstrap outcomes recorded in metrics
const (
	outcomeAuthenticated = "authenticated"
	outcomeChallenged    = "challenged"
	outcomeAnonymous     = "anonymous"
)

// DefaultMinBootstrapDuration keeps the loading state visible long enough to avoid a flash
const DefaultMinBootstrapDuration = 1500 * time.Millisecond

// Auth is the slice of the auth API the session drives
type Auth interface {
	Login(ctx context.Context, walletAddress, signature string) (*models.LoginResult, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.User, error)
	Verify(ctx context.Context) (*models.TokenInfo, error)
}

// TokenStore persists the bearer token
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// State is a point-in-time copy of the session
type State struct {
	Account       common.Address
	Token         string
	User          *models.User
	Authenticated bool
	Initializing  bool
	Connecting    bool
	Balance       string
	ChainID       *big.Int
	HasSigner     bool
	Bootstrap     BootstrapState
}

// Connected reports whether a wallet account is attached
func (s State) Connected() bool {
	return s.Account != (common.Address{})
}

// Session is the application state shared by every view. It is only
// mutated through its methods.
type Session struct {
	provider wallet.Provider
	auth     Auth
	tokens   TokenStore
	cache    storage.Cache
	notifier *notify.Publisher
	network  wallet.Network
	minWait  time.Duration
	metrics  *metrics.Registry
	logger   *logging.Logger
	now      func() time.Time
	reload   func(ctx context.Context)

	mu        sync.RWMutex
	state     State
	signer    *bind.TransactOpts
	bootstrap BootstrapState
	ready     chan struct{}
	switching int
}

// Option configures a Session
type Option func(*Session)

// WithCache sets the session cache cleared on disconnect
func WithCache(c storage.Cache) Option {
	return func(s *Session) { s.cache = c }
}

// WithNotifier sets the toast publisher
func WithNotifier(p *notify.Publisher) Option {
	return func(s *Session) { s.notifier = p }
}

// WithNetwork sets the network the wallet must be on
func WithNetwork(n wallet.Network) Option {
	return func(s *Session) { s.network = n }
}

// WithMinBootstrapDuration sets the minimum time Bootstrap keeps Initializing set
func WithMinBootstrapDuration(d time.Duration) Option {
	return func(s *Session) { s.minWait = d }
}

// WithMetrics sets the metrics registry
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Session) { s.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithReload replaces the chain change handler
func WithReload(fn func(ctx context.Context)) Option {
	return func(s *Session) { s.reload = fn }
}

// New creates a session in the initializing state
func New(provider wallet.Provider, auth Auth, tokens TokenStore, opts ...Option) *Session {
	s := &Session{
		provider: provider,
		auth:     auth,
		tokens:   tokens,
		network:  wallet.Sepolia,
		minWait:  DefaultMinBootstrapDuration,
		logger:   logging.GetGlobalLogger().WithComponent("session"),
		now:      time.Now,
		state:    State{Initializing: true, Balance: "0"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notify.NewPublisher(nil, nil)
	}
	if s.reload == nil {
		s.reload = s.restart
	}
	return s
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Bootstrap = s.bootstrap
	if st.ChainID != nil {
		st.ChainID = new(big.Int).Set(st.ChainID)
	}
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Account returns the connected account, or the zero address
func (s *Session) Account() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Account
}

// Provider returns the wallet the session is bound to
func (s *Session) Provider() wallet.Provider {
	return s.provider
}

// Transactor returns signing options for the connected account bound to ctx
func (s *Session) Transactor(ctx context.Context) (*bind.TransactOpts, error) {
	s.mu.RLock()
	signer := s.signer
	s.mu.RUnlock()
	if signer == nil {
		return nil, apperrors.NewWalletError("", "wallet not connected")
	}
	opts := *signer
	opts.Context = ctx
	return &opts, nil
}

// RequireAuth gates actions that need a signed-in user
func (s *Session) RequireAuth() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.Authenticated {
		return apperrors.NewUnauthorizedError("wallet not connected")
	}
	return nil
}

// Bootstrap restores the session once. Concurrent callers wait for the
// running sequence; later callers return immediately until the session is reset.
func (s *Session) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	switch s.bootstrap {
	case Done:
		s.mu.Unlock()
		return nil
	case InProgress:
		ready := s.ready
		s.mu.Unlock()
		select {
		case <-ready:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.bootstrap = InProgress
	s.ready = make(chan struct{})
	s.state.Initializing = true
	s.mu.Unlock()

	start := s.now()
	logger := s.logger.WithField("operation", "bootstrap")

	outcome := outcomeAnonymous
	hasValidToken := s.restoreToken(ctx, logger)
	if hasValidToken {
		outcome = outcomeAuthenticated
	}

	if account, ok := s.attachExistingAccount(ctx, logger); ok && !hasValidToken {
		logger.Info("No valid token, requesting wallet signature")
		if err := s.Login(ctx, account); err == nil {
			outcome = outcomeChallenged
		}
	}

	err := s.waitMinimum(ctx, start)

	s.mu.Lock()
	s.state.Initializing = false
	s.bootstrap = Done
	close(s.ready)
	s.mu.Unlock()

	s.metrics.Bootstrap(outcome)
	logger.WithField("outcome", outcome).Info("Bootstrap finished")
	return err
}

// Restore adopts a persisted token and an already authorized account without
// asking the wallet to sign. It leaves the Bootstrap guard untouched.
func (s *Session) Restore(ctx context.Context) {
	logger := s.logger.WithField("operation", "restore")
	s.restoreToken(ctx, logger)
	s.attachExistingAccount(ctx, logger)

	s.mu.Lock()
	s.state.Initializing = false
	s.mu.Unlock()
}

func (s *Session) waitMinimum(ctx context.Context, start time.Time) error {
	remaining := s.minWait - s.now().Sub(start)
	if remaining <= 0 {
		return nil
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// restoreToken verifies a persisted token; any failure clears it
func (s *Session) restoreToken(ctx context.Context, logger *logging.Logger) bool {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to read persisted token")
		return false
	}
	if token == "" {
		return false
	}

	if expired(token, s.now()) {
		logger.Info("Persisted token has expired")
		s.dropToken(ctx, logger)
		return false
	}
	if _, err := s.auth.Verify(ctx); err != nil {
		logger.WithError(err).Info("Token verification failed")
		s.dropToken(ctx, logger)
		return false
	}

	s.mu.Lock()
	s.state.Token = token
	s.state.Authenticated = true
	s.mu.Unlock()

	user, err := s.auth.Profile(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to load profile")
		return true
	}
	s.mu.Lock()
	s.state.User = user
	s.mu.Unlock()
	return true
}

// expired reports whether token is a JWT whose exp claim has passed.
// Tokens that are not JWTs are left to the server to judge.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

func (s *Session) dropToken(ctx context.Context, logger *logging.Logger) {
	if err := s.tokens.ClearToken(ctx); err != nil {
		logger.WithError(err).Warn("Failed to clear token")
	}
	s.mu.Lock()
	s.state.Token = ""
	s.state.Authenticated = false
	s.mu.Unlock()
}

// attachExistingAccount adopts an already authorized wallet account without prompting
func (s *Session) attachExistingAccount(ctx context.Context, logger *logging.Logger) (common.Address, bool) {
	accounts, err := s.provider.Accounts(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to read wallet accounts")
		return common.Address{}, false
	}
	if len(accounts) == 0 {
		return common.Address{}, false
	}
	account := accounts[0]
	s.attach(ctx, account)

	if err := s.RefreshBalance(ctx); err != nil {
		logger.WithError(err).Warn("Failed to read balance")
	}
	if err := s.ensureNetwork(ctx); err != nil {
		logger.WithError(err).Warn("Failed to switch network")
	}
	return account, true
}

// attach records account and its signer
func (s *Session) attach(ctx context.Context, account common.Address) {
	signer, err := s.provider.Transactor(ctx, account)
	if err != nil {
		s.logger.WithError(err).Warn("Wallet signer unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Account = account
	s.signer = signer
	s.state.HasSigner = signer != nil
}

// ensureNetwork moves the wallet to the target network and records the chain id
func (s *Session) ensureNetwork(ctx context.Context) error {
	s.mu.Lock()
	s.switching++
	s.mu.Unlock()
	err := wallet.EnsureNetwork(ctx, s.provider, s.network)
	s.mu.Lock()
	s.switching--
	s.mu.Unlock()
	if err != nil {
		if apperrors.IsUnrecognizedChain(err) {
			s.notifier.Error(ctx, notify.WalletAddNetworkFail)
		} else {
			s.notifier.Error(ctx, notify.WalletSwitchFail)
		}
		return err
	}
	if id, err := s.provider.ChainID(ctx); err == nil {
		s.mu.Lock()
		s.state.ChainID = id
		s.mu.Unlock()
	}
	return nil
}

// LoginMessage is the challenge a wallet signs to log in
func LoginMessage(account common.Address, at time.Time) string {
	return fmt.Sprintf("Welcome to Student AI Platform!\n\nSign this message to prove you own this wallet.\n\nWallet: %s\nTimestamp: %d",
		account.Hex(), at.UnixMilli())
}

// Login signs the login challenge with account and exchanges it for a token
func (s *Session) Login(ctx context.Context, account common.Address) error {
	logger := s.logger.WithField("account", account.Hex())

	result, err := s.login(ctx, account)
	if err != nil {
		logger.WithError(err).Warn("Wallet login failed")
		if apperrors.IsUserRejected(err) {
			s.notifier.Error(ctx, notify.LoginSignRequired)
		} else {
			s.notifier.Error(ctx, notify.LoginFailed)
		}
		return err
	}

	s.mu.Lock()
	s.state.Token = result.Token
	s.state.Authenticated = true
	s.state.User = result.User
	s.mu.Unlock()

	s.notifier.Success(ctx, notify.LoginSuccess)
	logger.Info("Logged in")
	return nil
}

func (s *Session) login(ctx context.Context, account common.Address) (*models.LoginResult, error) {
	signature, err := s.provider.SignMessage(ctx, account, LoginMessage(account, s.now()))
	if err != nil {
		return nil, err
	}
	result, err := s.auth.Login(ctx, account.Hex(), signature)
	if err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, apperrors.NewInternalError("login response carried no token", nil)
	}
	if err := s.tokens.SetToken(ctx, result.Token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}
	return result, nil
}

// ConnectWallet asks the wallet for an account, moves it to the target
// network and always performs the signature login
func (s *Session) ConnectWallet(ctx context.Context) error {
	s.setConnecting(true)
	defer s.setConnecting(false)

	account, err := s.requestAccount(ctx)
	if err == nil {
		err = s.ensureNetwork(ctx)
	}
	if err != nil {
		s.logger.WithError(err).Warn("Wallet connection failed")
		switch {
		case apperrors.IsUserRejected(err):
			s.notifier.Error(ctx, notify.WalletConnectRejected)
		case apperrors.HasCode(err, apperrors.CodeRequestPending):
			s.notifier.Error(ctx, notify.WalletRequestPending)
		default:
			s.notifier.Error(ctx, notify.WalletConnectFailed)
		}
		return err
	}

	s.attach(ctx, account)
	if err := s.RefreshBalance(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to read balance")
	}

	if err := s.Login(ctx, account); err != nil {
		return err
	}
	s.notifier.Success(ctx, notify.WalletConnected)
	return nil
}

func (s *Session) requestAccount(ctx context.Context) (common.Address, error) {
	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if len(accounts) == 0 {
		return common.Address{}, apperrors.NewWalletError("", "no accounts found")
	}
	return accounts[0], nil
}

func (s *Session) setConnecting(v bool) {
	s.mu.Lock()
	s.state.Connecting = v
	s.mu.Unlock()
}

// DisconnectWallet revokes the server session, forgets the token and the
// wallet, and re-arms Bootstrap
func (s *Session) DisconnectWallet(ctx context.Context) {
	s.mu.RLock()
	token := s.state.Token
	s.mu.RUnlock()

	if token != "" {
		if err := s.auth.Logout(ctx); err != nil {
			s.logger.WithError(err).Info("Logout request failed")
		}
	}
	if err := s.tokens.ClearToken(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to clear token")
	}

	s.reset()

	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			s.logger.WithError(err).Warn("Failed to clear session cache")
		}
	}
	s.notifier.Success(ctx, notify.WalletDisconnected)
}

// reset clears the in-memory state and re-arms Bootstrap
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Balance: "0", Initializing: s.state.Initializing}
	s.signer = nil
	if s.bootstrap != InProgress {
		s.bootstrap = NotStarted
	}
}

// restart is the default chain change handler: the in-memory state is
// rebuilt from the persisted token and the wallet
func (s *Session) restart(ctx context.Context) {
	s.reset()
	if err := s.Bootstrap(ctx); err != nil {
		s.logger.WithError(err).Warn("Bootstrap after chain change failed")
	}
}

// RefreshBalance re-reads the balance of the connected account
func (s *Session) RefreshBalance(ctx context.Context) error {
	account := s.Account()
	if account == (common.Address{}) {
		return nil
	}
	wei, err := s.provider.Balance(ctx, account)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.state.Balance = wallet.FormatEther(wei)
	s.mu.Unlock()
	return nil
}

// Watch reacts to wallet events until the returned dispose function is called
func (s *Session) Watch(ctx context.Context) func() {
	return s.provider.Subscribe(func(ev wallet.Event) {
		s.handleEvent(ctx, ev)
	})
}

func (s *Session) handleEvent(ctx context.Context, ev wallet.Event) {
	switch ev.Kind {
	case wallet.AccountsChanged:
		if len(ev.Accounts) == 0 {
			s.DisconnectWallet(ctx)
			return
		}
		next := ev.Accounts[0]
		previous := s.Account()
		if next == previous {
			return
		}
		s.attach(ctx, next)
		if err := s.RefreshBalance(ctx); err != nil {
			s.logger.WithError(err).Warn("Failed to read balance")
		}
		if previous != (common.Address{}) {
			if err := s.Login(ctx, next); err != nil {
				s.logger.WithError(err).WithField("account", next.Hex()).Debug("Login after account change failed")
			}
		}
	case wallet.ChainChanged:
		// Switches the session asked for itself, or that land while
		// bootstrapping, only update the chain id.
		s.mu.Lock()
		own := s.switching > 0 || s.bootstrap == InProgress
		if own && ev.ChainID != nil {
			s.state.ChainID = new(big.Int).Set(ev.ChainID)
		}
		s.mu.Unlock()
		if !own {
			s.reload(ctx)
		}
	}
}
