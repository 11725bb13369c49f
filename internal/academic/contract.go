package academic

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Document is the on-chain metadata of a minted document.
// Field names follow the contract tuple so results convert directly.
type Document struct {
	Name           string
	Description    string
	FileType       string
	Creator        common.Address
	RoyaltyPercent *big.Int
	CreatedAt      *big.Int
}

// Listing is the on-chain sale state of a token
type Listing struct {
	TokenId  *big.Int //nolint:revive // matches the ABI component name
	Seller   common.Address
	Price    *big.Int
	Active   bool
	ListedAt *big.Int
}

// DocumentMinted is the event emitted by mintDocument
type DocumentMinted struct {
	TokenId  *big.Int //nolint:revive // matches the ABI input name
	Creator  common.Address
	Name     string
	TokenURI string
	FileType string
}

// Marketplace is the academic NFT contract surface used by the hub
type Marketplace interface {
	ActiveListings(ctx context.Context) ([]*big.Int, error)
	UserTokens(ctx context.Context, owner common.Address) ([]*big.Int, error)
	Document(ctx context.Context, tokenID *big.Int) (Document, error)
	Listing(ctx context.Context, tokenID *big.Int) (Listing, error)
	TokenURI(ctx context.Context, tokenID *big.Int) (string, error)

	Mint(opts *bind.TransactOpts, to common.Address, name, description, uri, fileType string, royalty *big.Int) (*types.Transaction, error)
	Purchase(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error)
	ListForSale(opts *bind.TransactOpts, tokenID, price *big.Int) (*types.Transaction, error)
	CancelListing(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error)

	// MintedTokenID returns the token id of the DocumentMinted log in receipt
	MintedTokenID(receipt *types.Receipt) (*big.Int, bool)
}

// ContractMarketplace binds Marketplace to a deployed contract
type ContractMarketplace struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// NewContractMarketplace binds the contract at address through backend
func NewContractMarketplace(address common.Address, backend bind.ContractBackend) (*ContractMarketplace, error) {
	parsed, err := abi.JSON(strings.NewReader(MarketplaceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse marketplace ABI: %w", err)
	}
	return &ContractMarketplace{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the contract address
func (m *ContractMarketplace) Address() common.Address {
	return m.address
}

func (m *ContractMarketplace) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := m.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return out, nil
}

func (m *ContractMarketplace) tokenIDs(ctx context.Context, method string, args ...interface{}) ([]*big.Int, error) {
	out, err := m.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

// ActiveListings returns the ids of tokens currently for sale
func (m *ContractMarketplace) ActiveListings(ctx context.Context) ([]*big.Int, error) {
	return m.tokenIDs(ctx, "getActiveListings")
}

// UserTokens returns the ids of tokens owned by owner
func (m *ContractMarketplace) UserTokens(ctx context.Context, owner common.Address) ([]*big.Int, error) {
	return m.tokenIDs(ctx, "getUserTokens", owner)
}

// Document returns the metadata stored for tokenID
func (m *ContractMarketplace) Document(ctx context.Context, tokenID *big.Int) (Document, error) {
	out, err := m.call(ctx, "getDocument", tokenID)
	if err != nil {
		return Document{}, err
	}
	return *abi.ConvertType(out[0], new(Document)).(*Document), nil
}

// Listing returns the sale state of tokenID
func (m *ContractMarketplace) Listing(ctx context.Context, tokenID *big.Int) (Listing, error) {
	out, err := m.call(ctx, "getListing", tokenID)
	if err != nil {
		return Listing{}, err
	}
	return *abi.ConvertType(out[0], new(Listing)).(*Listing), nil
}

// TokenURI returns the metadata URI of tokenID
func (m *ContractMarketplace) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	out, err := m.call(ctx, "tokenURI", tokenID)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// Mint creates a document NFT for to; opts.Value must carry the mint price
func (m *ContractMarketplace) Mint(opts *bind.TransactOpts, to common.Address, name, description, uri, fileType string, royalty *big.Int) (*types.Transaction, error) {
	return m.contract.Transact(opts, "mintDocument", to, name, description, uri, fileType, royalty)
}

// Purchase buys tokenID; opts.Value must carry the listing price
func (m *ContractMarketplace) Purchase(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error) {
	return m.contract.Transact(opts, "purchaseNFT", tokenID)
}

// ListForSale offers tokenID at price wei
func (m *ContractMarketplace) ListForSale(opts *bind.TransactOpts, tokenID, price *big.Int) (*types.Transaction, error) {
	return m.contract.Transact(opts, "listForSale", tokenID, price)
}

// CancelListing withdraws tokenID from sale
func (m *ContractMarketplace) CancelListing(opts *bind.TransactOpts, tokenID *big.Int) (*types.Transaction, error) {
	return m.contract.Transact(opts, "cancelListing", tokenID)
}

// MintedTokenID implements Marketplace
func (m *ContractMarketplace) MintedTokenID(receipt *types.Receipt) (*big.Int, bool) {
	if receipt == nil {
		return nil, false
	}
	event := m.abi.Events["DocumentMinted"]
	for _, log := range receipt.Logs {
		if log == nil || log.Address != m.address || len(log.Topics) == 0 || log.Topics[0] != event.ID {
			continue
		}
		var ev DocumentMinted
		if err := m.contract.UnpackLog(&ev, "DocumentMinted", *log); err != nil {
			continue
		}
		return ev.TokenId, true
	}
	return nil, false
}

var _ Marketplace = (*ContractMarketplace)(nil)
