// Package academic implements the document NFT marketplace: minting
// uploaded study material, listing it for sale and buying it.
package academic

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/logging"
	"github.com/student-ai-platform/internal/metrics"
	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/notify"
	"github.com/student-ai-platform/internal/retry"
	"github.com/student-ai-platform/internal/service"
	"github.com/student-ai-platform/internal/storage"
	"github.com/student-ai-platform/internal/wallet"
)

const (
	// DefaultContractAddress is the marketplace deployment on Sepolia
	DefaultContractAddress = "0x68bDBfe015f454239A259795fa523475894601e0"

	// MetadataTimeout bounds each token metadata download
	MetadataTimeout = 5 * time.Second

	// DefaultFreshness is how long listings and owned tokens are served from cache
	DefaultFreshness = 30 * time.Second

	defaultMintPrice = "0.01"
)

// DefaultContractInfo is used when the backend cannot describe the contract
func DefaultContractInfo() models.ContractInfo {
	return models.ContractInfo{
		ContractAddress:    DefaultContractAddress,
		HasABI:             true,
		MintPrice:          defaultMintPrice,
		PlatformFeePercent: 1,
		MaxRoyaltyPercent:  20,
		SupportedFileTypes: append([]string(nil), service.SupportedFileTypes...),
	}
}

// API is the backend surface of the marketplace
type API interface {
	ContractInfo(ctx context.Context) (*models.ContractInfo, error)
	Listings(ctx context.Context) ([]models.NFTRecord, error)
	MyNFTs(ctx context.Context) ([]models.NFTRecord, error)
	UploadDocument(ctx context.Context, doc service.DocumentUpload) (*models.UploadResult, error)
}

// Signer is the connected wallet account
type Signer interface {
	Account() common.Address
	Transactor(ctx context.Context) (*bind.TransactOpts, error)
}

// Hub reads the marketplace from the chain with a REST fallback and
// sends marketplace transactions
type Hub struct {
	api      API
	signer   Signer
	market   Marketplace
	receipts wallet.ReceiptReader
	polling  *retry.RetryConfig
	http     *http.Client
	gateway  string
	notifier *notify.Publisher
	metrics  *metrics.Registry
	logger   *logging.Logger

	info     *storage.Typed[models.ContractInfo]
	listings *storage.Typed[[]models.NFTRecord]
	owned    *storage.Typed[[]models.NFTRecord]
}

// Option configures a Hub
type Option func(*hubOptions)

type hubOptions struct {
	market    Marketplace
	receipts  wallet.ReceiptReader
	polling   *retry.RetryConfig
	cache     storage.Cache
	freshness time.Duration
	http      *http.Client
	gateway   string
	notifier  *notify.Publisher
	metrics   *metrics.Registry
	logger    *logging.Logger
}

// WithMarketplace enables on-chain reads and transactions
func WithMarketplace(m Marketplace, receipts wallet.ReceiptReader) Option {
	return func(o *hubOptions) {
		o.market = m
		o.receipts = receipts
	}
}

// WithReceiptPolling overrides the receipt polling schedule
func WithReceiptPolling(cfg *retry.RetryConfig) Option {
	return func(o *hubOptions) { o.polling = cfg }
}

// WithCache sets the session cache and the freshness window of listings
func WithCache(c storage.Cache, freshness time.Duration) Option {
	return func(o *hubOptions) {
		o.cache = c
		o.freshness = freshness
	}
}

// WithMetadataClient sets the HTTP client used for token metadata
func WithMetadataClient(c *http.Client) Option {
	return func(o *hubOptions) { o.http = c }
}

// WithGateway sets the IPFS gateway used for ipfs:// token URIs
func WithGateway(gateway string) Option {
	return func(o *hubOptions) { o.gateway = gateway }
}

// WithNotifier sets the toast publisher
func WithNotifier(p *notify.Publisher) Option {
	return func(o *hubOptions) { o.notifier = p }
}

// WithMetrics sets the metrics registry
func WithMetrics(m *metrics.Registry) Option {
	return func(o *hubOptions) { o.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(o *hubOptions) { o.logger = l }
}

// NewHub creates a marketplace hub
func NewHub(api API, signer Signer, opts ...Option) *Hub {
	o := hubOptions{freshness: DefaultFreshness}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cache == nil {
		o.cache = storage.NewMemoryCache()
	}
	if o.http == nil {
		o.http = &http.Client{}
	}
	if o.notifier == nil {
		o.notifier = notify.NewPublisher(nil, nil)
	}
	if o.logger == nil {
		o.logger = logging.GetGlobalLogger()
	}

	return &Hub{
		api:      api,
		signer:   signer,
		market:   o.market,
		receipts: o.receipts,
		polling:  o.polling,
		http:     o.http,
		gateway:  o.gateway,
		notifier: o.notifier,
		metrics:  o.metrics,
		logger:   o.logger.WithComponent("academic"),
		info:     storage.NewTyped[models.ContractInfo](o.cache, "contract_info", 0, o.metrics),
		listings: storage.NewTyped[[]models.NFTRecord](o.cache, "listings", o.freshness, o.metrics),
		owned:    storage.NewTyped[[]models.NFTRecord](o.cache, "user_nfts", o.freshness, o.metrics),
	}
}

// ContractInfo returns the marketplace parameters. They are cached for the
// whole session; a backend failure yields DefaultContractInfo uncached.
func (h *Hub) ContractInfo(ctx context.Context) models.ContractInfo {
	info, err := h.info.Load(ctx, storage.KeyContractInfo, false, func(ctx context.Context) (models.ContractInfo, error) {
		info, err := h.api.ContractInfo(ctx)
		if err != nil {
			return models.ContractInfo{}, err
		}
		return *info, nil
	})
	if err != nil {
		h.logger.WithError(err).Warn("Contract info unavailable, using defaults")
		return DefaultContractInfo()
	}
	return info
}

// LoadListings returns the active listings
func (h *Hub) LoadListings(ctx context.Context, force bool) ([]models.NFTRecord, error) {
	items, err := h.listings.Load(ctx, storage.KeyListings, force, func(ctx context.Context) ([]models.NFTRecord, error) {
		if h.market != nil {
			items, err := h.chainListings(ctx)
			if err == nil {
				return items, nil
			}
			h.logger.WithError(err).Warn("Failed to load listings from contract, using backend")
		}
		return h.api.Listings(ctx)
	})
	if err != nil {
		h.notifier.Error(ctx, notify.NFTLoadListingsFail)
		return nil, err
	}
	return nonNil(items), nil
}

// LoadUserNFTs returns the tokens owned by the connected account; without
// an account it returns an empty list
func (h *Hub) LoadUserNFTs(ctx context.Context, force bool) ([]models.NFTRecord, error) {
	account := h.signer.Account()
	if account == (common.Address{}) {
		return []models.NFTRecord{}, nil
	}
	items, err := h.owned.Load(ctx, storage.KeyUserNFTs(account.Hex()), force, func(ctx context.Context) ([]models.NFTRecord, error) {
		if h.market != nil {
			items, err := h.chainUserNFTs(ctx, account)
			if err == nil {
				return items, nil
			}
			h.logger.WithError(err).Warn("Failed to load user NFTs from contract, using backend")
		}
		return h.api.MyNFTs(ctx)
	})
	if err != nil {
		h.notifier.Error(ctx, notify.NFTLoadUserNFTsFail)
		return nil, err
	}
	return nonNil(items), nil
}

func nonNil(items []models.NFTRecord) []models.NFTRecord {
	if items == nil {
		return []models.NFTRecord{}
	}
	return items
}

func (h *Hub) chainListings(ctx context.Context) ([]models.NFTRecord, error) {
	ids, err := h.market.ActiveListings(ctx)
	if err != nil {
		return nil, err
	}
	return h.collect(ctx, ids, h.listingRecord), nil
}

func (h *Hub) chainUserNFTs(ctx context.Context, owner common.Address) ([]models.NFTRecord, error) {
	ids, err := h.market.UserTokens(ctx, owner)
	if err != nil {
		return nil, err
	}
	return h.collect(ctx, ids, h.ownedRecord), nil
}

// collect builds one record per token in parallel, keeping the order of ids
// and dropping tokens that could not be read
func (h *Hub) collect(ctx context.Context, ids []*big.Int, build func(context.Context, *big.Int) (*models.NFTRecord, error)) []models.NFTRecord {
	results := make([]*models.NFTRecord, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id *big.Int) {
			defer wg.Done()
			rec, err := build(ctx, id)
			if err != nil {
				h.logger.WithError(err).WithField("tokenId", id.String()).Warn("Failed to process token")
				return
			}
			results[i] = rec
		}(i, id)
	}
	wg.Wait()

	items := make([]models.NFTRecord, 0, len(ids))
	for _, rec := range results {
		if rec != nil {
			items = append(items, *rec)
		}
	}
	return items
}

func (h *Hub) baseRecord(ctx context.Context, id *big.Int) (*models.NFTRecord, error) {
	doc, err := h.market.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	uri, err := h.market.TokenURI(ctx, id)
	if err != nil {
		return nil, err
	}
	meta := h.fetchMetadata(ctx, uri)

	attributes := meta.Attributes
	if attributes == nil {
		attributes = []models.Attribute{}
	}
	return &models.NFTRecord{
		TokenID:        id.String(),
		Name:           doc.Name,
		Description:    doc.Description,
		FileType:       doc.FileType,
		Creator:        doc.Creator.Hex(),
		RoyaltyPercent: bigString(doc.RoyaltyPercent),
		CreatedAt:      unixISO(doc.CreatedAt),
		TokenURI:       uri,
		Metadata:       meta,
		ExternalURL:    meta.ExternalURL,
		Attributes:     attributes,
	}, nil
}

func (h *Hub) listingRecord(ctx context.Context, id *big.Int) (*models.NFTRecord, error) {
	rec, err := h.baseRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	listing, err := h.market.Listing(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = ""
	rec.Price = wallet.FormatEther(listing.Price)
	rec.Seller = listing.Seller.Hex()
	rec.ListedAt = unixISO(listing.ListedAt)
	rec.IsListed = listing.Active
	return rec, nil
}

func (h *Hub) ownedRecord(ctx context.Context, id *big.Int) (*models.NFTRecord, error) {
	rec, err := h.baseRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	// An unlisted token may have no listing entry at all
	if listing, err := h.market.Listing(ctx, id); err == nil && listing.Active {
		rec.Listing = &models.ListingInfo{
			Price:    wallet.FormatEther(listing.Price),
			ListedAt: unixISO(listing.ListedAt),
		}
		rec.IsListed = true
	}
	return rec, nil
}

// fetchMetadata downloads the token metadata document; any failure yields empty metadata
func (h *Hub) fetchMetadata(ctx context.Context, uri string) models.TokenMetadata {
	var meta models.TokenMetadata
	if uri == "" {
		return meta
	}
	if strings.HasPrefix(uri, "ipfs://") {
		uri = service.IPFSURL(strings.TrimPrefix(uri, "ipfs://"), h.gateway)
	}

	ctx, cancel := context.WithTimeout(ctx, MetadataTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return meta
	}
	resp, err := h.http.Do(req)
	if err != nil {
		h.logger.WithError(err).WithField("uri", uri).Debug("Failed to fetch token metadata")
		return meta
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return meta
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return models.TokenMetadata{}
	}
	return meta
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func unixISO(v *big.Int) string {
	if v == nil {
		return ""
	}
	return time.Unix(v.Int64(), 0).UTC().Format("2006-01-02T15:04:05.000Z")
}

// Invalidate drops the cached listings and the owned tokens of the connected account
func (h *Hub) Invalidate(ctx context.Context) {
	keys := []string{storage.KeyListings}
	if account := h.signer.Account(); account != (common.Address{}) {
		keys = append(keys, storage.KeyUserNFTs(account.Hex()))
	}
	if err := h.listings.Invalidate(ctx, keys...); err != nil {
		h.logger.WithError(err).Warn("Failed to invalidate marketplace cache")
	}
}

// UploadDocument pins doc, mints it to the connected account and reloads the owned tokens
func (h *Hub) UploadDocument(ctx context.Context, doc service.DocumentUpload) (*models.MintResult, error) {
	account, err := h.requireWallet(ctx)
	if err != nil {
		return nil, err
	}
	if err := service.ValidateFile(doc.FileName, doc.Size); err != nil {
		return nil, err
	}

	upload, err := h.api.UploadDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	info := h.ContractInfo(ctx)
	mintPrice := info.MintPrice
	if mintPrice == "" {
		mintPrice = defaultMintPrice
	}
	value, err := wallet.ParseEther(mintPrice)
	if err != nil {
		return nil, apperrors.NewValidationError("mintPrice", err.Error())
	}

	data := upload.ContractData
	receipt, err := h.transact(ctx, "mint", value, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return h.market.Mint(opts, account, data.Name, data.Description, data.TokenURI, data.FileType, big.NewInt(data.RoyaltyPercent))
	})
	if err != nil {
		return nil, h.txFailure(ctx, err, mintPrice)
	}

	result := &models.MintResult{TxHash: receipt.TxHash.Hex(), Upload: *upload}
	if id, ok := h.market.MintedTokenID(receipt); ok {
		result.TokenID = id.String()
	}

	h.Invalidate(ctx)
	if _, err := h.LoadUserNFTs(ctx, true); err != nil {
		h.logger.WithError(err).Warn("Failed to reload user NFTs after mint")
	}
	h.notifier.Success(ctx, notify.NFTMinted, result.TokenID)
	return result, nil
}

// PurchaseNFT buys tokenID at its listed price
func (h *Hub) PurchaseNFT(ctx context.Context, tokenID *big.Int) (string, error) {
	if _, err := h.requireWallet(ctx); err != nil {
		return "", err
	}

	listing, err := h.market.Listing(ctx, tokenID)
	if err != nil {
		return "", h.txFailure(ctx, err, "")
	}
	if !listing.Active {
		h.notifier.Error(ctx, notify.NFTNotForSale)
		return "", &service.Failure{
			Text: h.notifier.Catalog().Text(notify.NFTNotForSale),
			Err:  apperrors.NewValidationError("tokenId", "NFT is not for sale"),
		}
	}

	h.notifier.Publish(ctx, notify.LevelInfo, notify.NFTProcessingPayment)
	receipt, err := h.transact(ctx, "purchase", listing.Price, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return h.market.Purchase(opts, tokenID)
	})
	if err != nil {
		return "", h.txFailure(ctx, err, wallet.FormatEther(listing.Price))
	}

	h.afterMutation(ctx)
	h.notifier.Success(ctx, notify.NFTPurchased, tokenID.String())
	return receipt.TxHash.Hex(), nil
}

// ListForSale offers tokenID at priceWei
func (h *Hub) ListForSale(ctx context.Context, tokenID, priceWei *big.Int) (string, error) {
	if _, err := h.requireWallet(ctx); err != nil {
		return "", err
	}
	if priceWei == nil || priceWei.Sign() <= 0 {
		return "", apperrors.NewValidationError("price", "Price must be a positive number")
	}

	receipt, err := h.transact(ctx, "list", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return h.market.ListForSale(opts, tokenID, priceWei)
	})
	if err != nil {
		return "", h.txFailure(ctx, err, "")
	}

	h.afterMutation(ctx)
	h.notifier.Success(ctx, notify.NFTListed, tokenID.String())
	return receipt.TxHash.Hex(), nil
}

// CancelListing withdraws tokenID from sale
func (h *Hub) CancelListing(ctx context.Context, tokenID *big.Int) (string, error) {
	if _, err := h.requireWallet(ctx); err != nil {
		return "", err
	}

	receipt, err := h.transact(ctx, "cancel", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return h.market.CancelListing(opts, tokenID)
	})
	if err != nil {
		return "", h.txFailure(ctx, err, "")
	}

	h.afterMutation(ctx)
	h.notifier.Success(ctx, notify.NFTListingCancelled, tokenID.String())
	return receipt.TxHash.Hex(), nil
}

func (h *Hub) requireWallet(ctx context.Context) (common.Address, error) {
	account := h.signer.Account()
	if account == (common.Address{}) || h.market == nil {
		h.notifier.Error(ctx, notify.NFTWalletRequired)
		return common.Address{}, apperrors.NewUnauthorizedError("wallet not connected or contract not initialized")
	}
	return account, nil
}

// transact sends one transaction and waits for it to be mined. Nothing is retried.
func (h *Hub) transact(ctx context.Context, action string, value *big.Int, send func(*bind.TransactOpts) (*types.Transaction, error)) (*types.Receipt, error) {
	logger := h.logger.WithField("action", action)

	opts, err := h.signer.Transactor(ctx)
	if err != nil {
		h.metrics.Transaction(action, err)
		return nil, err
	}
	if value != nil {
		opts.Value = new(big.Int).Set(value)
	}

	tx, err := send(opts)
	if err != nil {
		h.metrics.Transaction(action, err)
		return nil, err
	}
	logger = logger.WithField("txHash", tx.Hash().Hex())
	logger.Info("Transaction sent")

	receipt, err := wallet.WaitForReceipt(ctx, h.receipts, tx.Hash(), h.polling)
	h.metrics.Transaction(action, err)
	if err != nil {
		return nil, err
	}
	logger.WithField("block", receipt.BlockNumber).Info("Transaction mined")
	return receipt, nil
}

// afterMutation drops both cached collections and reloads them
func (h *Hub) afterMutation(ctx context.Context) {
	h.Invalidate(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := h.LoadListings(ctx, true); err != nil {
			h.logger.WithError(err).Warn("Failed to reload listings")
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := h.LoadUserNFTs(ctx, true); err != nil {
			h.logger.WithError(err).Warn("Failed to reload user NFTs")
		}
	}()
	wg.Wait()
}

// txFailure classifies a transaction error, notifies it and returns a
// Failure carrying the notified text. need is the ETH amount quoted in
// balance hints.
func (h *Hub) txFailure(ctx context.Context, err error, need string) error {
	if need == "" {
		need = defaultMintPrice
	}
	classified := apperrors.ClassifyTransactionError(err)

	var key notify.Key
	var args []interface{}
	switch {
	case apperrors.IsUserRejected(classified):
		key = notify.TxCancelled
	case apperrors.HasCode(classified, apperrors.CodeInsufficientFunds):
		key, args = notify.TxInsufficientFunds, []interface{}{need}
	case apperrors.HasCode(classified, apperrors.CodeExecutionReverted):
		if reason, _ := classified.Details["reason"].(string); reason != "" {
			key, args = notify.TxFailedReason, []interface{}{reason}
		} else {
			key, args = notify.TxCheckBalance, []interface{}{need}
		}
	default:
		key = notify.TxFailed
	}

	h.logger.WithError(err).WithField("classification", string(key)).Warn("Marketplace transaction failed")
	h.notifier.Error(ctx, key, args...)
	return &service.Failure{Text: h.notifier.Catalog().Text(key, args...), Err: classified}
}

