// Package wallettest provides an in-memory wallet.Provider for tests
package wallettest

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/wallet"
)

// Provider is a scriptable wallet. Authorized accounts are returned by
// Accounts; RequestAccounts authorizes Key's address unless RequestErr is set.
type Provider struct {
	wallet.Emitter

	mu sync.Mutex

	Key          *ecdsa.PrivateKey
	Authorized   []common.Address
	Chain        *big.Int
	Known        map[string]bool
	Balances     map[common.Address]*big.Int
	ChainBackend wallet.Backend

	RequestErr error
	SwitchErr  error
	AddErr     error
	SignErr    error
	BalanceErr error

	SignCalls    int
	RequestCalls int
	Switches     []*big.Int
	Added        []wallet.Network
	Messages     []string
}

// NewProvider creates a fake wallet with a fresh key, on chain start, knowing only start
func NewProvider(start *big.Int) *Provider {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return &Provider{
		Key:      key,
		Chain:    start,
		Known:    map[string]bool{start.String(): true},
		Balances: make(map[common.Address]*big.Int),
	}
}

// Address returns the address of Key
func (p *Provider) Address() common.Address {
	return crypto.PubkeyToAddress(p.Key.PublicKey)
}

// Accounts implements wallet.Provider
func (p *Provider) Accounts(context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]common.Address(nil), p.Authorized...), nil
}

// RequestAccounts implements wallet.Provider
func (p *Provider) RequestAccounts(context.Context) ([]common.Address, error) {
	p.mu.Lock()
	p.RequestCalls++
	if p.RequestErr != nil {
		err := p.RequestErr
		p.mu.Unlock()
		return nil, err
	}
	p.Authorized = []common.Address{p.Address()}
	out := append([]common.Address(nil), p.Authorized...)
	p.mu.Unlock()
	return out, nil
}

// ChainID implements wallet.Provider
func (p *Provider) ChainID(context.Context) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.Chain), nil
}

// SwitchChain implements wallet.Provider
func (p *Provider) SwitchChain(_ context.Context, chainID *big.Int) error {
	p.mu.Lock()
	p.Switches = append(p.Switches, chainID)
	if p.SwitchErr != nil {
		err := p.SwitchErr
		p.mu.Unlock()
		return err
	}
	if !p.Known[chainID.String()] {
		p.mu.Unlock()
		return apperrors.NewUnrecognizedChainError(hexutil.EncodeBig(chainID))
	}
	p.Chain = new(big.Int).Set(chainID)
	p.mu.Unlock()

	p.Emit(wallet.Event{Kind: wallet.ChainChanged, ChainID: chainID})
	return nil
}

// AddChain implements wallet.Provider
func (p *Provider) AddChain(_ context.Context, n wallet.Network) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Added = append(p.Added, n)
	if p.AddErr != nil {
		return p.AddErr
	}
	p.Known[n.ChainID.String()] = true
	return nil
}

// Balance implements wallet.Provider
func (p *Provider) Balance(_ context.Context, addr common.Address) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.BalanceErr != nil {
		return nil, p.BalanceErr
	}
	if b, ok := p.Balances[addr]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

// SignMessage implements wallet.Provider with a real EIP-191 signature
func (p *Provider) SignMessage(_ context.Context, _ common.Address, msg string) (string, error) {
	p.mu.Lock()
	p.SignCalls++
	p.Messages = append(p.Messages, msg)
	signErr := p.SignErr
	p.mu.Unlock()
	if signErr != nil {
		return "", signErr
	}

	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), p.Key)
	if err != nil {
		return "", err
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// Transactor implements wallet.Provider
func (p *Provider) Transactor(ctx context.Context, _ common.Address) (*bind.TransactOpts, error) {
	chainID, _ := p.ChainID(ctx)
	opts, err := bind.NewKeyedTransactorWithChainID(p.Key, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// Backend implements wallet.Provider
func (p *Provider) Backend() wallet.Backend {
	return p.ChainBackend
}

// Disconnect revokes the authorization and emits an empty AccountsChanged
func (p *Provider) Disconnect() {
	p.mu.Lock()
	p.Authorized = nil
	p.mu.Unlock()
	p.Emit(wallet.Event{Kind: wallet.AccountsChanged})
}

// SwitchAccount authorizes addr and emits AccountsChanged
func (p *Provider) SwitchAccount(addr common.Address) {
	p.mu.Lock()
	p.Authorized = []common.Address{addr}
	p.mu.Unlock()
	p.Emit(wallet.Event{Kind: wallet.AccountsChanged, Accounts: []common.Address{addr}})
}

// Signs returns how often SignMessage was called
func (p *Provider) Signs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.SignCalls
}

var _ wallet.Provider = (*Provider)(nil)
