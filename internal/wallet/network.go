package wallet

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Currency is the native currency of a network
type Currency struct {
	Name     string
	Symbol   string
	Decimals int
}

// Network describes an EVM chain the wallet can switch to
type Network struct {
	ChainID      *big.Int
	Name         string
	Currency     Currency
	RPCURLs      []string
	ExplorerURLs []string
}

// ChainIDHex returns the chain id in the 0x-prefixed form wallets exchange
func (n Network) ChainIDHex() string {
	if n.ChainID == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(n.ChainID)
}

// WithRPC returns a copy of n using the given endpoints, skipping empty ones.
// With no usable endpoint the original list is kept.
func (n Network) WithRPC(urls ...string) Network {
	var rpc []string
	for _, u := range urls {
		if u != "" {
			rpc = append(rpc, u)
		}
	}
	if len(rpc) > 0 {
		n.RPCURLs = rpc
	}
	return n
}

// Sepolia is the network the academic marketplace is deployed on
var Sepolia = Network{
	ChainID: big.NewInt(11155111),
	Name:    "Sepolia test network",
	Currency: Currency{
		Name:     "SepoliaETH",
		Symbol:   "SEP",
		Decimals: 18,
	},
	RPCURLs:      []string{"https://sepolia.infura.io/v3/"},
	ExplorerURLs: []string{"https://sepolia.etherscan.io/"},
}

// Registry holds the networks a provider knows how to reach
type Registry struct {
	mu       sync.RWMutex
	networks map[string]Network
}

// NewRegistry creates a registry preloaded with networks
func NewRegistry(networks ...Network) *Registry {
	r := &Registry{networks: make(map[string]Network)}
	for _, n := range networks {
		r.networks[n.ChainID.String()] = n
	}
	return r
}

// Get returns the network registered under chainID
func (r *Registry) Get(chainID *big.Int) (Network, bool) {
	if chainID == nil {
		return Network{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.networks[chainID.String()]
	return n, ok
}

// Add registers n, replacing any network with the same chain id
func (r *Registry) Add(n Network) error {
	if n.ChainID == nil || n.ChainID.Sign() <= 0 {
		return fmt.Errorf("network %q has no chain id", n.Name)
	}
	if len(n.RPCURLs) == 0 {
		return fmt.Errorf("network %q has no RPC endpoint", n.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.networks[n.ChainID.String()] = n
	return nil
}
