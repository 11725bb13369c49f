package session

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/notify"
	"github.com/student-ai-platform/internal/storage"
	"github.com/student-ai-platform/internal/testutil"
	"github.com/student-ai-platform/internal/wallet"
	"github.com/student-ai-platform/internal/wallet/wallettest"
)

type fakeAuth struct {
	mu        sync.Mutex
	verifyErr error
	loginErr  error
	gate      chan struct{}

	verifies int32
	logins   int32
	logouts  int32
	wallets  []string
}

func (a *fakeAuth) Login(_ context.Context, walletAddress, signature string) (*models.LoginResult, error) {
	atomic.AddInt32(&a.logins, 1)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.wallets = append(a.wallets, walletAddress)
	if a.loginErr != nil {
		return nil, a.loginErr
	}
	return &models.LoginResult{Token: "token-" + walletAddress, User: &models.User{WalletAddress: walletAddress}}, nil
}

func (a *fakeAuth) Logout(context.Context) error {
	atomic.AddInt32(&a.logouts, 1)
	return nil
}

func (a *fakeAuth) Profile(context.Context) (*models.User, error) {
	return &models.User{ID: "u-1", WalletAddress: "0xabc"}, nil
}

func (a *fakeAuth) Verify(ctx context.Context) (*models.TokenInfo, error) {
	atomic.AddInt32(&a.verifies, 1)
	if a.gate != nil {
		select {
		case <-a.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.verifyErr != nil {
		return nil, a.verifyErr
	}
	return &models.TokenInfo{UserID: "u-1"}, nil
}

type fixture struct {
	wallet   *wallettest.Provider
	auth     *fakeAuth
	tokens   *testutil.MemoryTokens
	recorder *notify.Recorder
	session  *Session
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		wallet:   wallettest.NewProvider(wallet.Sepolia.ChainID),
		auth:     &fakeAuth{},
		tokens:   &testutil.MemoryTokens{},
		recorder: &notify.Recorder{},
	}
	base := []Option{
		WithNotifier(notify.NewPublisher(f.recorder, notify.NewCatalog(notify.LocaleEN))),
		WithMinBootstrapDuration(0),
	}
	f.session = New(f.wallet, f.auth, f.tokens, append(base, opts...)...)
	return f
}

func (f *fixture) storedToken(t *testing.T) string {
	t.Helper()
	token, err := f.tokens.Token(context.Background())
	require.NoError(t, err)
	return token
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "u-1",
		"exp":    exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestBootstrapWithValidTokenSkipsSignature(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tokens.SetToken(context.Background(), signedToken(t, time.Now().Add(time.Hour))))
	f.wallet.Authorized = []common.Address{f.wallet.Address()}

	require.NoError(t, f.session.Bootstrap(context.Background()))

	st := f.session.Snapshot()
	assert.True(t, st.Authenticated)
	assert.False(t, st.Initializing)
	assert.Equal(t, Done, st.Bootstrap)
	assert.Equal(t, f.wallet.Address(), st.Account)
	assert.True(t, st.HasSigner)
	require.NotNil(t, st.User)
	assert.Equal(t, "u-1", st.User.ID)
	assert.Equal(t, 0, f.wallet.Signs())
	assert.Empty(t, f.recorder.Keys())
}

func TestBootstrapWithoutTokenSignsOnce(t *testing.T) {
	f := newFixture(t)
	f.wallet.Authorized = []common.Address{f.wallet.Address()}
	f.wallet.Balances[f.wallet.Address()] = big.NewInt(1_500_000_000_000_000_000)

	require.NoError(t, f.session.Bootstrap(context.Background()))
	require.NoError(t, f.session.Bootstrap(context.Background()))

	st := f.session.Snapshot()
	assert.True(t, st.Authenticated)
	assert.Equal(t, "1.5", st.Balance)
	assert.Equal(t, 1, f.wallet.Signs())
	assert.Equal(t, "token-"+f.wallet.Address().Hex(), f.storedToken(t))
	assert.Equal(t, []notify.Key{notify.LoginSuccess}, f.recorder.Keys())

	require.Len(t, f.wallet.Messages, 1)
	msg := f.wallet.Messages[0]
	assert.True(t, strings.HasPrefix(msg, "Welcome to Student AI Platform!\n\n"))
	assert.Contains(t, msg, "Wallet: "+f.wallet.Address().Hex())
}

func TestBootstrapAnonymous(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.session.Bootstrap(context.Background()))

	st := f.session.Snapshot()
	assert.False(t, st.Connected())
	assert.False(t, st.Authenticated)
	assert.Equal(t, "0", st.Balance)
	assert.Equal(t, 0, f.wallet.Signs())
	assert.True(t, apperrors.IsUnauthorized(f.session.RequireAuth()))
}

func TestBootstrapDropsBadTokens(t *testing.T) {
	t.Run("expired token is not sent to the server", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.tokens.SetToken(context.Background(), signedToken(t, time.Now().Add(-time.Minute))))

		require.NoError(t, f.session.Bootstrap(context.Background()))

		assert.Equal(t, int32(0), atomic.LoadInt32(&f.auth.verifies))
		assert.Empty(t, f.storedToken(t))
		assert.False(t, f.session.Snapshot().Authenticated)
	})

	t.Run("rejected token is cleared and the wallet signs", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.tokens.SetToken(context.Background(), "opaque-token"))
		f.auth.verifyErr = apperrors.NewUnauthorizedError("invalid token")
		f.wallet.Authorized = []common.Address{f.wallet.Address()}

		require.NoError(t, f.session.Bootstrap(context.Background()))

		assert.Equal(t, int32(1), atomic.LoadInt32(&f.auth.verifies))
		assert.Equal(t, 1, f.wallet.Signs())
		assert.Equal(t, "token-"+f.wallet.Address().Hex(), f.storedToken(t))
	})
}

func TestBootstrapRunsOnceConcurrently(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tokens.SetToken(context.Background(), "opaque-token"))
	f.auth.gate = make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.session.Bootstrap(context.Background()))
		}()
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&f.auth.verifies) == 1
	}, time.Second, 5*time.Millisecond)
	close(f.auth.gate)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.auth.verifies))
	assert.Equal(t, Done, f.session.Snapshot().Bootstrap)
}

func TestBootstrapHonoursMinimumDuration(t *testing.T) {
	f := newFixture(t, WithMinBootstrapDuration(60*time.Millisecond))

	start := time.Now()
	require.NoError(t, f.session.Bootstrap(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := newFixture(t, WithMinBootstrapDuration(time.Hour))
	assert.ErrorIs(t, g.session.Bootstrap(ctx), context.Canceled)
	assert.False(t, g.session.Snapshot().Initializing)
}

func TestBootstrapSwitchesToTargetNetwork(t *testing.T) {
	f := newFixture(t)
	f.wallet.Chain = big.NewInt(1)
	f.wallet.Known = map[string]bool{"1": true}
	f.wallet.Authorized = []common.Address{f.wallet.Address()}
	dispose := f.session.Watch(context.Background())
	defer dispose()

	require.NoError(t, f.session.Bootstrap(context.Background()))

	require.Len(t, f.wallet.Added, 1)
	assert.Len(t, f.wallet.Switches, 2)
	st := f.session.Snapshot()
	assert.Equal(t, 0, st.ChainID.Cmp(wallet.Sepolia.ChainID))
	assert.True(t, st.Authenticated)
}

func TestBootstrapContinuesWhenNetworkSwitchFails(t *testing.T) {
	f := newFixture(t)
	f.wallet.Chain = big.NewInt(1)
	f.wallet.SwitchErr = errors.New("switch refused")
	f.wallet.Authorized = []common.Address{f.wallet.Address()}

	require.NoError(t, f.session.Bootstrap(context.Background()))

	assert.Equal(t, []notify.Key{notify.WalletSwitchFail, notify.LoginSuccess}, f.recorder.Keys())
	assert.True(t, f.session.Snapshot().Authenticated)
}

func TestConnectWallet(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.Bootstrap(context.Background()))

	require.NoError(t, f.session.ConnectWallet(context.Background()))

	st := f.session.Snapshot()
	assert.Equal(t, f.wallet.Address(), st.Account)
	assert.True(t, st.Authenticated)
	assert.False(t, st.Connecting)
	assert.Equal(t, 1, f.wallet.Signs())
	assert.Equal(t, []notify.Key{notify.LoginSuccess, notify.WalletConnected}, f.recorder.Keys())

	opts, err := f.session.Transactor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.wallet.Address(), opts.From)
}

func TestConnectWithAuthorizedAccountSignsOnce(t *testing.T) {
	f := newFixture(t)
	f.wallet.Authorized = []common.Address{f.wallet.Address()}

	require.NoError(t, f.session.ConnectWallet(context.Background()))

	assert.Equal(t, 1, f.wallet.Signs())
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.auth.logins))
	assert.True(t, f.session.Snapshot().Authenticated)
}

func TestRestoreNeverSigns(t *testing.T) {
	t.Run("without a token the account is attached anonymously", func(t *testing.T) {
		f := newFixture(t)
		f.wallet.Authorized = []common.Address{f.wallet.Address()}

		f.session.Restore(context.Background())

		st := f.session.Snapshot()
		assert.True(t, st.Connected())
		assert.False(t, st.Authenticated)
		assert.False(t, st.Initializing)
		assert.Equal(t, NotStarted, st.Bootstrap)
		assert.Equal(t, 0, f.wallet.Signs())
		assert.Zero(t, atomic.LoadInt32(&f.auth.logins))
	})

	t.Run("a stored token is revoked on disconnect", func(t *testing.T) {
		f := newFixture(t)
		f.wallet.Authorized = []common.Address{f.wallet.Address()}
		require.NoError(t, f.tokens.SetToken(context.Background(), signedToken(t, time.Now().Add(time.Hour))))

		f.session.Restore(context.Background())
		require.True(t, f.session.Snapshot().Authenticated)
		f.session.DisconnectWallet(context.Background())

		assert.Equal(t, 0, f.wallet.Signs())
		assert.Equal(t, int32(1), atomic.LoadInt32(&f.auth.logouts))
		assert.Empty(t, f.storedToken(t))
	})
}

func TestConnectWalletFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want notify.Key
	}{
		{"user rejected", apperrors.NewUserRejectedError(), notify.WalletConnectRejected},
		{"request pending", apperrors.NewRequestPendingError(), notify.WalletRequestPending},
		{"anything else", errors.New("boom"), notify.WalletConnectFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.wallet.RequestErr = tt.err

			err := f.session.ConnectWallet(context.Background())
			require.Error(t, err)

			assert.Equal(t, []notify.Key{tt.want}, f.recorder.Keys())
			assert.False(t, f.session.Snapshot().Connected())
			_, err = f.session.Transactor(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestLoginSignatureRejected(t *testing.T) {
	f := newFixture(t)
	f.wallet.SignErr = apperrors.NewUserRejectedError()

	err := f.session.Login(context.Background(), f.wallet.Address())
	require.Error(t, err)
	assert.Equal(t, []notify.Key{notify.LoginSignRequired}, f.recorder.Keys())

	f.recorder.Reset()
	f.wallet.SignErr = nil
	f.auth.loginErr = apperrors.NewHTTPError(500, "server down")
	require.Error(t, f.session.Login(context.Background(), f.wallet.Address()))
	assert.Equal(t, []notify.Key{notify.LoginFailed}, f.recorder.Keys())
	assert.Empty(t, f.storedToken(t))
}

func TestDisconnectWallet(t *testing.T) {
	cache := storage.NewMemoryCache()
	f := newFixture(t, WithCache(cache))
	f.wallet.Authorized = []common.Address{f.wallet.Address()}
	require.NoError(t, cache.Put(context.Background(), storage.KeyListings, []byte("[]")))
	require.NoError(t, f.session.Bootstrap(context.Background()))
	f.recorder.Reset()

	f.session.DisconnectWallet(context.Background())

	st := f.session.Snapshot()
	assert.False(t, st.Connected())
	assert.False(t, st.Authenticated)
	assert.Nil(t, st.User)
	assert.Equal(t, "0", st.Balance)
	assert.Equal(t, NotStarted, st.Bootstrap)
	assert.Empty(t, f.storedToken(t))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.auth.logouts))
	assert.Equal(t, []notify.Key{notify.WalletDisconnected}, f.recorder.Keys())

	ok, err := cache.Exists(context.Background(), storage.KeyListings)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWatchAccountEvents(t *testing.T) {
	f := newFixture(t)
	f.wallet.Authorized = []common.Address{f.wallet.Address()}
	dispose := f.session.Watch(context.Background())
	defer dispose()
	require.NoError(t, f.session.Bootstrap(context.Background()))
	require.Equal(t, 1, f.wallet.Signs())

	other := common.HexToAddress("0x68bDBfe015f454239A259795fa523475894601e0")
	f.wallet.SwitchAccount(other)

	assert.Equal(t, other, f.session.Account())
	assert.Equal(t, 2, f.wallet.Signs())
	assert.Equal(t, other.Hex(), f.auth.wallets[len(f.auth.wallets)-1])

	f.wallet.Disconnect()
	assert.False(t, f.session.Snapshot().Connected())
	assert.False(t, f.session.Snapshot().Authenticated)
}

func TestWatchAccountChangeLoginFailure(t *testing.T) {
	f := newFixture(t)
	f.wallet.Authorized = []common.Address{f.wallet.Address()}
	dispose := f.session.Watch(context.Background())
	defer dispose()
	require.NoError(t, f.session.Bootstrap(context.Background()))
	f.recorder.Reset()

	f.auth.mu.Lock()
	f.auth.loginErr = apperrors.NewHTTPError(500, "server down")
	f.auth.mu.Unlock()

	other := common.HexToAddress("0x68bDBfe015f454239A259795fa523475894601e0")
	f.wallet.SwitchAccount(other)

	assert.Equal(t, other, f.session.Account())
	assert.Equal(t, []notify.Key{notify.LoginFailed}, f.recorder.Keys())
}

func TestWatchAccountWhileDisconnectedDoesNotSign(t *testing.T) {
	f := newFixture(t)
	dispose := f.session.Watch(context.Background())
	defer dispose()
	require.NoError(t, f.session.Bootstrap(context.Background()))

	f.wallet.SwitchAccount(f.wallet.Address())

	assert.Equal(t, f.wallet.Address(), f.session.Account())
	assert.Equal(t, 0, f.wallet.Signs())
}

func TestWatchChainChangedReloads(t *testing.T) {
	var reloads int32
	f := newFixture(t, WithReload(func(context.Context) { atomic.AddInt32(&reloads, 1) }))
	dispose := f.session.Watch(context.Background())
	require.NoError(t, f.session.Bootstrap(context.Background()))

	f.wallet.Emit(wallet.Event{Kind: wallet.ChainChanged, ChainID: big.NewInt(1)})
	assert.Equal(t, int32(1), atomic.LoadInt32(&reloads))

	dispose()
	f.wallet.Emit(wallet.Event{Kind: wallet.ChainChanged, ChainID: big.NewInt(5)})
	assert.Equal(t, int32(1), atomic.LoadInt32(&reloads))
}

func TestDefaultReloadRebuildsFromToken(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tokens.SetToken(context.Background(), signedToken(t, time.Now().Add(time.Hour))))
	dispose := f.session.Watch(context.Background())
	defer dispose()
	require.NoError(t, f.session.Bootstrap(context.Background()))

	f.wallet.Emit(wallet.Event{Kind: wallet.ChainChanged, ChainID: big.NewInt(1)})

	st := f.session.Snapshot()
	assert.Equal(t, Done, st.Bootstrap)
	assert.True(t, st.Authenticated)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.auth.verifies))
}

func TestLoginMessage(t *testing.T) {
	addr := common.HexToAddress("0x68bDBfe015f454239A259795fa523475894601e0")
	msg := LoginMessage(addr, time.UnixMilli(1700000000123))
	assert.Equal(t, "Welcome to Student AI Platform!\n\nSign this message to prove you own this wallet.\n\nWallet: 0x68bDBfe015f454239A259795fa523475894601e0\nTimestamp: 1700000000123", msg)
}
