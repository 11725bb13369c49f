// Package wallet exposes the account, network and signing capabilities the
// portal needs from an Ethereum wallet, behind the Provider interface.
package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	apperrors "github.com/student-ai-platform/internal/errors"
)

// Backend is the chain access a connected wallet offers
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Provider is a wallet the user controls
type Provider interface {
	// Accounts returns the already authorized accounts without prompting
	Accounts(ctx context.Context) ([]common.Address, error)
	// RequestAccounts asks the user to authorize an account
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// ChainID returns the active network
	ChainID(ctx context.Context) (*big.Int, error)
	// SwitchChain activates a known network; unknown ids fail with code 4902
	SwitchChain(ctx context.Context, chainID *big.Int) error
	// AddChain makes a network known to the wallet
	AddChain(ctx context.Context, network Network) error
	// Balance returns the wei balance of addr on the active network
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
	// SignMessage returns the 0x-encoded EIP-191 personal signature of msg
	SignMessage(ctx context.Context, addr common.Address, msg string) (string, error)
	// Transactor returns signing options for transactions sent from addr
	Transactor(ctx context.Context, addr common.Address) (*bind.TransactOpts, error)
	// Backend returns the chain connection of the active network, or nil
	Backend() Backend
	// Subscribe registers l for provider events and returns its dispose function
	Subscribe(l Listener) func()
}

// EnsureNetwork switches p to network when it is on another chain.
// A wallet that does not know the network gets it added first. Other errors propagate.
func EnsureNetwork(ctx context.Context, p Provider, network Network) error {
	current, err := p.ChainID(ctx)
	if err == nil && current != nil && current.Cmp(network.ChainID) == 0 {
		return nil
	}

	err = p.SwitchChain(ctx, network.ChainID)
	if !apperrors.IsUnrecognizedChain(err) {
		return err
	}
	if err := p.AddChain(ctx, network); err != nil {
		return err
	}
	return p.SwitchChain(ctx, network.ChainID)
}
