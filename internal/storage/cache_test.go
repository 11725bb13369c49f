package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	TokenID string `json:"tokenId"`
	Price   string `json:"price"`
}

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCacheFromClient(client, "test"), mr
}

func cacheImplementations(t *testing.T) map[string]Cache {
	rc, _ := newTestRedisCache(t)
	return map[string]Cache{
		"memory": NewMemoryCache(),
		"redis":  rc,
	}
}

func TestCacheRoundTripAndSiblingKeys(t *testing.T) {
	for name, cache := range cacheImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := []listing{{TokenID: "1", Price: "0.05"}, {TokenID: "7", Price: "1.2"}}

			require.NoError(t, cache.Put(ctx, KeyListings, want))

			var got []listing
			entry, found, err := cache.Get(ctx, KeyListings, &got)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, want, got)
			assert.WithinDuration(t, time.Now(), entry.StoredAt, 2*time.Second)

			for _, key := range []string{KeyListings, "listingsTime"} {
				ok, err := cache.Exists(ctx, key)
				require.NoError(t, err)
				assert.True(t, ok, key)
			}
		})
	}
}

func TestCacheDeleteRemovesTimestamps(t *testing.T) {
	for name, cache := range cacheImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			account := "0xabc"

			require.NoError(t, cache.Put(ctx, KeyListings, []listing{}))
			require.NoError(t, cache.Put(ctx, KeyUserNFTs(account), []listing{}))
			require.NoError(t, cache.Delete(ctx, KeyListings, KeyUserNFTs(account)))

			for _, key := range []string{"listings", "listingsTime", "userNFTs_0xabc", "userNFTsTime_0xabc"} {
				ok, err := cache.Exists(ctx, key)
				require.NoError(t, err)
				assert.False(t, ok, key)
			}
		})
	}
}

func TestCacheMissingTimestampIsMiss(t *testing.T) {
	cache := NewMemoryCache()
	cache.data[KeyContractInfo] = `{"mintPrice":"0.01"}`

	var v map[string]string
	_, found, err := cache.Get(context.Background(), KeyContractInfo, &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheClear(t *testing.T) {
	for name, cache := range cacheImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, cache.Put(ctx, KeyContractInfo, map[string]string{"mintPrice": "0.01"}))
			require.NoError(t, cache.Clear(ctx))

			ok, err := cache.Exists(ctx, KeyContractInfo)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRedisCacheNamespacesKeys(t *testing.T) {
	rc, mr := newTestRedisCache(t)
	require.NoError(t, rc.Put(context.Background(), KeyListings, []int{1}))

	assert.True(t, mr.Exists("test:listings"))
	assert.True(t, mr.Exists("test:listingsTime"))
}

func TestTimeKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"listings", "listingsTime"},
		{"contractInfo", "contractInfoTime"},
		{"userNFTs_0xabc", "userNFTsTime_0xabc"},
		{KeyFinanceSummary("0x1"), "financeSummaryTime_0x1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeKey(tt.key))
	}
}

func TestFreshProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	base := time.Unix(1_700_000_000, 0)

	properties.Property("entries younger than the window are fresh", prop.ForAll(
		func(windowMs, ageMs int64) bool {
			window := time.Duration(windowMs) * time.Millisecond
			age := time.Duration(ageMs%windowMs) * time.Millisecond
			return Fresh(base, base.Add(age), window)
		},
		gen.Int64Range(1, 120_000),
		gen.Int64Range(0, 1_000_000),
	))

	properties.Property("entries at or past the window are stale", prop.ForAll(
		func(windowMs, extraMs int64) bool {
			window := time.Duration(windowMs) * time.Millisecond
			return !Fresh(base, base.Add(window+time.Duration(extraMs)*time.Millisecond), window)
		},
		gen.Int64Range(1, 120_000),
		gen.Int64Range(0, 1_000_000),
	))

	properties.Property("a zero window never expires", prop.ForAll(
		func(ageMs int64) bool {
			return Fresh(base, base.Add(time.Duration(ageMs)*time.Millisecond), 0)
		},
		gen.Int64Range(0, 1<<40),
	))

	properties.TestingRun(t)
}
