package storage

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Entry describes a cached value
type Entry struct {
	StoredAt time.Time
}

// Cache is the session-scoped read-through cache shared by the portal views.
// Each value is stored with a sibling timestamp key (see TimeKey).
type Cache interface {
	// Get decodes the value under key into dest; found is false when either
	// the value or its timestamp is missing
	Get(ctx context.Context, key string, dest interface{}) (Entry, bool, error)
	// Put stores value under key stamped with the current time
	Put(ctx context.Context, key string, value interface{}) error
	// Delete removes the given keys together with their timestamps
	Delete(ctx context.Context, keys ...string) error
	// Exists reports whether a raw key (value or timestamp) is present
	Exists(ctx context.Context, key string) (bool, error)
	// Clear drops everything in the session namespace
	Clear(ctx context.Context) error
}

// Well-known cache keys
const (
	KeyListings        = "listings"
	KeyContractInfo    = "contractInfo"
	KeyAnalysisHistory = "analysisHistory"
)

// KeyUserNFTs is the per-account NFT collection key
func KeyUserNFTs(account string) string {
	return "userNFTs_" + account
}

// KeyFinanceSummary is the per-account finance summary key
func KeyFinanceSummary(account string) string {
	return "financeSummary_" + account
}

// KeyFinanceTransactions is the per-account recent transactions key
func KeyFinanceTransactions(account string) string {
	return "financeTransactions_" + account
}

// TimeKey returns the sibling key holding the timestamp of key.
// "listings" maps to "listingsTime" and "userNFTs_0xabc" to "userNFTsTime_0xabc".
func TimeKey(key string) string {
	if i := strings.Index(key, "_"); i > 0 {
		return key[:i] + "Time" + key[i:]
	}
	return key + "Time"
}

// Fresh reports whether a value stored at storedAt is still usable at now.
// A non-positive window never expires.
func Fresh(storedAt, now time.Time, window time.Duration) bool {
	if window <= 0 {
		return true
	}
	return now.Sub(storedAt) < window
}

func formatStamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseStamp(s string) (time.Time, bool) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
