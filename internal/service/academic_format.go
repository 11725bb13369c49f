package service

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/student-ai-platform/internal/errors"
)

// MaxDocumentSize is the largest document accepted for minting
const MaxDocumentSize = 50 * 1024 * 1024

// DefaultExplorerURL is the block explorer of the target network
const DefaultExplorerURL = "https://sepolia.etherscan.io"

// DefaultIPFSGateway resolves pinned content
const DefaultIPFSGateway = "https://gateway.pinata.cloud/ipfs/"

// SupportedFileTypes lists the document extensions accepted for minting
var SupportedFileTypes = []string{"pdf", "docx", "txt", "md", "png", "jpg", "jpeg"}

var (
	addressRegexp = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

	minPrice = decimal.RequireFromString("0.001")
	maxPrice = decimal.NewFromInt(1000)
)

// FileType returns the lower-case extension of name without the dot
func FileType(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ValidateFile checks the extension and size of a document
func ValidateFile(name string, size int64) error {
	if name == "" {
		return fail("No file selected", apperrors.NewValidationError("file", "no file selected"))
	}
	ext := FileType(name)
	supported := false
	for _, t := range SupportedFileTypes {
		if t == ext {
			supported = true
			break
		}
	}
	if !supported {
		msg := fmt.Sprintf("File type .%s is not supported. Allowed types: %s", ext, strings.Join(SupportedFileTypes, ", "))
		return fail(msg, apperrors.NewValidationError("file", msg))
	}
	if size > MaxDocumentSize {
		msg := fmt.Sprintf("File size (%s) exceeds the maximum limit of 50MB", FormatFileSize(size))
		return fail(msg, apperrors.NewValidationError("file", msg))
	}
	return nil
}

// FormatFileSize renders a byte count with two significant decimals
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(i))
	return strconv.FormatFloat(math.Round(value*100)/100, 'f', -1, 64) + " " + sizes[i]
}

// ValidatePrice checks a listing price in ETH
func ValidatePrice(price string) error {
	p, err := decimal.NewFromString(strings.TrimSpace(price))
	switch {
	case err != nil || !p.IsPositive():
		return priceError("Price must be a positive number")
	case p.GreaterThan(maxPrice):
		return priceError("Price cannot exceed 1000 ETH")
	case p.LessThan(minPrice):
		return priceError("Minimum price is 0.001 ETH")
	}
	return nil
}

func priceError(msg string) error {
	return fail(msg, apperrors.NewValidationError("price", msg))
}

// FeeBreakdown splits a sale price into platform fee and seller proceeds
type FeeBreakdown struct {
	Price      decimal.Decimal
	Fee        decimal.Decimal
	Net        decimal.Decimal
	FeePercent decimal.Decimal
}

// CalculateFees applies feePercent to price; an unparseable price yields zeros
func CalculateFees(price string, feePercent float64) FeeBreakdown {
	pct := decimal.NewFromFloat(feePercent)
	p, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return FeeBreakdown{FeePercent: pct}
	}
	fee := p.Mul(pct).Div(decimal.NewFromInt(100))
	return FeeBreakdown{Price: p, Fee: fee, Net: p.Sub(fee), FeePercent: pct}
}

// ExplorerURL links a transaction, address or token on the block explorer
func ExplorerURL(hash, kind string) string {
	if kind == "" {
		kind = "tx"
	}
	return DefaultExplorerURL + "/" + kind + "/" + hash
}

// IPFSURL resolves hash through gateway, or the default gateway when empty
func IPFSURL(hash, gateway string) string {
	if hash == "" {
		return ""
	}
	if gateway == "" {
		gateway = DefaultIPFSGateway
	}
	return gateway + hash
}

// IsValidAddress reports whether s is a 0x-prefixed 20 byte hex address
func IsValidAddress(s string) bool {
	return addressRegexp.MatchString(s)
}

// FormatETH rounds amount to decimals places and drops trailing zeros
func FormatETH(amount string, decimals int32) string {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return "0"
	}
	s := d.StringFixed(decimals)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

// FormatAddress shortens an address to 0x1234...abcd
func FormatAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// FileIcon returns the glyph shown next to a document type
func FileIcon(fileType string) string {
	switch strings.ToLower(fileType) {
	case "pdf", "txt":
		return "📄"
	case "docx", "doc", "md":
		return "📝"
	case "png", "jpg", "jpeg":
		return "🖼️"
	default:
		return "📁"
	}
}
