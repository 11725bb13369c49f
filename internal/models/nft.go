package models

// ContractInfo describes the academic NFT marketplace contract
type ContractInfo struct {
	ContractAddress    string   `json:"contractAddress"`
	HasABI             bool     `json:"hasABI"`
	MintPrice          string   `json:"mintPrice"`
	PlatformFeePercent float64  `json:"platformFeePercent"`
	MaxRoyaltyPercent  float64  `json:"maxRoyaltyPercent"`
	SupportedFileTypes []string `json:"supportedFileTypes"`
}

// Attribute is an ERC-721 metadata trait
type Attribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// TokenMetadata is the off-chain metadata document referenced by tokenURI
type TokenMetadata struct {
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Image       string      `json:"image,omitempty"`
	ExternalURL string      `json:"external_url,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

// ListingInfo is the sale state of an owned token
type ListingInfo struct {
	Price    string `json:"price"`
	ListedAt string `json:"listedAt"`
}

// NFTRecord is a marketplace listing or an owned document NFT
type NFTRecord struct {
	TokenID        string        `json:"tokenId"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	FileType       string        `json:"fileType"`
	Creator        string        `json:"creator"`
	RoyaltyPercent string        `json:"royaltyPercent"`
	Price          string        `json:"price,omitempty"`
	Seller         string        `json:"seller,omitempty"`
	ListedAt       string        `json:"listedAt,omitempty"`
	CreatedAt      string        `json:"createdAt,omitempty"`
	TokenURI       string        `json:"tokenURI"`
	Metadata       TokenMetadata `json:"metadata"`
	ExternalURL    string        `json:"externalUrl,omitempty"`
	Attributes     []Attribute   `json:"attributes"`
	Listing        *ListingInfo  `json:"listing,omitempty"`
	IsListed       bool          `json:"isListed"`
}

// ContractData is the mint payload prepared by the upload endpoint
type ContractData struct {
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	TokenURI       string      `json:"tokenURI"`
	FileType       string      `json:"fileType"`
	RoyaltyPercent int64       `json:"royaltyPercent"`
	Properties     []Attribute `json:"properties,omitempty"`
}

// IPFSFile describes a pinned object
type IPFSFile struct {
	Hash string `json:"hash"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// UploadResult is returned by the document upload endpoint
type UploadResult struct {
	ContractData ContractData  `json:"contractData"`
	FileIPFS     IPFSFile      `json:"fileIpfs"`
	MetadataIPFS IPFSFile      `json:"metadataIpfs"`
	Metadata     TokenMetadata `json:"metadata"`
}

// MintResult is the outcome of an upload-and-mint flow
type MintResult struct {
	TokenID string       `json:"tokenId"`
	TxHash  string       `json:"txHash"`
	Upload  UploadResult `json:"upload"`
}

// NFTDetail is the backend view of a single token
type NFTDetail struct {
	TokenID  string                 `json:"tokenId"`
	Owner    string                 `json:"owner"`
	Metadata map[string]interface{} `json:"metadata"`
	Listing  *ListingInfo           `json:"listing"`
}

// NFTList is a listing or ownership page served by the backend
type NFTList struct {
	Listings   []NFTRecord `json:"listings,omitempty"`
	NFTs       []NFTRecord `json:"nfts,omitempty"`
	TotalCount int         `json:"totalCount"`
}

// Items returns whichever record slice the endpoint filled
func (l *NFTList) Items() []NFTRecord {
	if l.Listings != nil {
		return l.Listings
	}
	return l.NFTs
}
