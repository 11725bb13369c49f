package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"

	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/logging"
)

// KeystoreConfig configures a KeystoreProvider
type KeystoreConfig struct {
	Dir        string
	Passphrase string
	// Account selects the keystore account; empty means the first one
	Account string
	// Start is the chain the provider is connected to initially
	Start    Network
	Networks []Network
}

// KeystoreProvider is a Provider backed by a go-ethereum keystore directory.
// An account counts as authorized when the passphrase is configured.
type KeystoreProvider struct {
	Emitter

	ks         *keystore.KeyStore
	passphrase string
	account    accounts.Account
	registry   *Registry
	dial       DialFunc
	logger     *logging.Logger

	mu        sync.RWMutex
	chainID   *big.Int
	backend   Backend
	endpoints *Endpoints
	connected bool
}

// KeystoreOption configures a KeystoreProvider
type KeystoreOption func(*KeystoreProvider)

// WithDialer replaces the RPC dialer
func WithDialer(dial DialFunc) KeystoreOption {
	return func(p *KeystoreProvider) { p.dial = dial }
}

func dialEthclient(ctx context.Context, url string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewKeystoreProvider opens the keystore in cfg.Dir. The start network is
// registered but not dialed until first use.
func NewKeystoreProvider(cfg KeystoreConfig, opts ...KeystoreOption) (*KeystoreProvider, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("keystore directory is required")
	}
	ks := keystore.NewKeyStore(cfg.Dir, keystore.StandardScryptN, keystore.StandardScryptP)

	account, err := selectAccount(ks, cfg.Account)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry(cfg.Networks...)
	if cfg.Start.ChainID != nil {
		if err := registry.Add(cfg.Start); err != nil {
			return nil, err
		}
	}

	p := &KeystoreProvider{
		ks:         ks,
		passphrase: cfg.Passphrase,
		account:    account,
		registry:   registry,
		dial:       dialEthclient,
		logger:     logging.GetGlobalLogger().WithComponent("keystore-wallet"),
		chainID:    cfg.Start.ChainID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func selectAccount(ks *keystore.KeyStore, want string) (accounts.Account, error) {
	all := ks.Accounts()
	if len(all) == 0 {
		return accounts.Account{}, fmt.Errorf("keystore has no accounts")
	}
	if want == "" {
		return all[0], nil
	}
	if !common.IsHexAddress(want) {
		return accounts.Account{}, fmt.Errorf("invalid wallet account %q", want)
	}
	addr := common.HexToAddress(want)
	for _, a := range all {
		if a.Address == addr {
			return a, nil
		}
	}
	return accounts.Account{}, fmt.Errorf("account %s not found in keystore", addr.Hex())
}

// Accounts implements Provider
func (p *KeystoreProvider) Accounts(context.Context) ([]common.Address, error) {
	if p.passphrase == "" {
		return nil, nil
	}
	return []common.Address{p.account.Address}, nil
}

// RequestAccounts implements Provider. Without a passphrase the request counts as rejected.
func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if p.passphrase == "" {
		return nil, apperrors.NewUserRejectedError()
	}
	if err := p.ks.Unlock(p.account, p.passphrase); err != nil {
		return nil, apperrors.NewWalletError(apperrors.CodeUserRejected, "failed to unlock account: "+err.Error())
	}

	p.mu.Lock()
	first := !p.connected
	p.connected = true
	p.mu.Unlock()

	accts := []common.Address{p.account.Address}
	if first {
		p.Emit(Event{Kind: AccountsChanged, Accounts: accts})
	}
	return accts, nil
}

// ChainID implements Provider
func (p *KeystoreProvider) ChainID(context.Context) (*big.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.chainID == nil {
		return nil, apperrors.NewWalletError("", "wallet is not connected to a network")
	}
	return new(big.Int).Set(p.chainID), nil
}

// SwitchChain implements Provider
func (p *KeystoreProvider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	network, ok := p.registry.Get(chainID)
	if !ok {
		return apperrors.NewUnrecognizedChainError(hexutil.EncodeBig(chainID))
	}

	backend, endpoints, err := p.connect(ctx, network)
	if err != nil {
		return err
	}

	p.mu.Lock()
	changed := p.chainID == nil || p.chainID.Cmp(chainID) != 0
	p.chainID = new(big.Int).Set(chainID)
	p.backend = backend
	p.endpoints = endpoints
	p.mu.Unlock()

	if changed {
		p.logger.WithField("chainId", network.ChainIDHex()).Info("Switched network")
		p.Emit(Event{Kind: ChainChanged, ChainID: new(big.Int).Set(chainID)})
	}
	return nil
}

func (p *KeystoreProvider) connect(ctx context.Context, network Network) (Backend, *Endpoints, error) {
	var secondary string
	if len(network.RPCURLs) > 1 {
		secondary = network.RPCURLs[1]
	}
	primary := ""
	if len(network.RPCURLs) > 0 {
		primary = network.RPCURLs[0]
	}
	endpoints, err := NewEndpoints(primary, secondary)
	if err != nil {
		return nil, nil, fmt.Errorf("network %s: %w", network.Name, err)
	}
	backend, err := endpoints.Connect(ctx, network.ChainID, p.dial)
	if err != nil {
		return nil, nil, err
	}
	return backend, endpoints, nil
}

// AddChain implements Provider
func (p *KeystoreProvider) AddChain(_ context.Context, network Network) error {
	if err := p.registry.Add(network); err != nil {
		return apperrors.NewWalletError("", err.Error())
	}
	return nil
}

// activeBackend dials the active network on first use
func (p *KeystoreProvider) activeBackend(ctx context.Context) (Backend, error) {
	p.mu.RLock()
	backend, chainID := p.backend, p.chainID
	p.mu.RUnlock()
	if backend != nil {
		return backend, nil
	}
	if chainID == nil {
		return nil, apperrors.NewWalletError("", "wallet is not connected to a network")
	}

	network, ok := p.registry.Get(chainID)
	if !ok {
		return nil, apperrors.NewUnrecognizedChainError(hexutil.EncodeBig(chainID))
	}
	backend, endpoints, err := p.connect(ctx, network)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backend == nil {
		p.backend = backend
		p.endpoints = endpoints
	}
	return p.backend, nil
}

// Balance implements Provider
func (p *KeystoreProvider) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	backend, err := p.activeBackend(ctx)
	if err != nil {
		return nil, err
	}
	return backend.BalanceAt(ctx, addr, nil)
}

// SignMessage implements Provider
func (p *KeystoreProvider) SignMessage(_ context.Context, addr common.Address, msg string) (string, error) {
	if addr != p.account.Address {
		return "", apperrors.NewWalletError(apperrors.CodeUserRejected, "unknown account "+addr.Hex())
	}
	if p.passphrase == "" {
		return "", apperrors.NewUserRejectedError()
	}
	sig, err := p.ks.SignHashWithPassphrase(p.account, p.passphrase, accounts.TextHash([]byte(msg)))
	if err != nil {
		return "", apperrors.NewWalletError(apperrors.CodeUserRejected, "failed to sign message: "+err.Error())
	}
	// personal_sign uses 27/28 for V
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// Transactor implements Provider
func (p *KeystoreProvider) Transactor(ctx context.Context, addr common.Address) (*bind.TransactOpts, error) {
	if addr != p.account.Address {
		return nil, apperrors.NewWalletError(apperrors.CodeUserRejected, "unknown account "+addr.Hex())
	}
	chainID, err := p.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.ks.Unlock(p.account, p.passphrase); err != nil {
		return nil, apperrors.NewWalletError(apperrors.CodeUserRejected, "failed to unlock account: "+err.Error())
	}
	opts, err := bind.NewKeyStoreTransactorWithChainID(p.ks, p.account, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// Backend implements Provider
func (p *KeystoreProvider) Backend() Backend {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.backend
}

// Health reports the RPC endpoint counters of the active network
func (p *KeystoreProvider) Health() (EndpointHealth, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.endpoints == nil {
		return EndpointHealth{}, false
	}
	return p.endpoints.Health(), true
}

// Disconnect forgets the authorization granted by RequestAccounts
func (p *KeystoreProvider) Disconnect() {
	p.mu.Lock()
	was := p.connected
	p.connected = false
	p.mu.Unlock()

	if err := p.ks.Lock(p.account.Address); err != nil {
		p.logger.WithError(err).Debug("Failed to lock account")
	}
	if was {
		p.Emit(Event{Kind: AccountsChanged})
	}
}

var _ Provider = (*KeystoreProvider)(nil)
