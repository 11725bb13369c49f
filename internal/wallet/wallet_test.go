package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/student-ai-platform/internal/errors"
	"github.com/student-ai-platform/internal/retry"
)

func TestSepoliaParameters(t *testing.T) {
	assert.Equal(t, "0xaa36a7", Sepolia.ChainIDHex())
	assert.Equal(t, "SEP", Sepolia.Currency.Symbol)
	assert.Equal(t, 18, Sepolia.Currency.Decimals)

	custom := Sepolia.WithRPC("https://a.example", "", "https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, custom.RPCURLs)
	assert.Equal(t, []string{"https://sepolia.infura.io/v3/"}, Sepolia.RPCURLs)
	assert.Equal(t, Sepolia.RPCURLs, Sepolia.WithRPC("", "").RPCURLs)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(Sepolia)

	got, ok := r.Get(big.NewInt(11155111))
	require.True(t, ok)
	assert.Equal(t, Sepolia.Name, got.Name)

	_, ok = r.Get(big.NewInt(1))
	assert.False(t, ok)
	_, ok = r.Get(nil)
	assert.False(t, ok)

	assert.Error(t, r.Add(Network{Name: "broken"}))
	assert.Error(t, r.Add(Network{Name: "no rpc", ChainID: big.NewInt(5)}))
	require.NoError(t, r.Add(Network{Name: "local", ChainID: big.NewInt(1337), RPCURLs: []string{"http://127.0.0.1:8545"}}))
	_, ok = r.Get(big.NewInt(1337))
	assert.True(t, ok)
}

func TestEmitterDisposeIsIdempotent(t *testing.T) {
	var e Emitter
	var got []EventKind
	dispose := e.Subscribe(func(ev Event) { got = append(got, ev.Kind) })
	other := e.Subscribe(func(Event) {})
	assert.Equal(t, 2, e.Listeners())

	e.Emit(Event{Kind: ChainChanged})
	dispose()
	dispose()
	assert.Equal(t, 1, e.Listeners())

	e.Emit(Event{Kind: AccountsChanged})
	assert.Equal(t, []EventKind{ChainChanged}, got)

	other()
	assert.Zero(t, e.Listeners())
}

func TestEtherUnits(t *testing.T) {
	wei, err := ParseEther("0.01")
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000", wei.String())
	assert.Equal(t, "0.01", FormatEther(wei))
	assert.Equal(t, "0", FormatEther(nil))

	_, err = ParseEther("abc")
	assert.Error(t, err)
	_, err = ParseEther("0.0000000000000000001")
	assert.Error(t, err)
}

func TestEtherRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("ParseEther(FormatEther(wei)) == wei", prop.ForAll(
		func(n int64) bool {
			wei := big.NewInt(n)
			back, err := ParseEther(FormatEther(wei))
			return err == nil && back.Cmp(wei) == 0
		},
		gen.Int64Range(0, 1<<62),
	))

	properties.TestingRun(t)
}

type stubBackend struct {
	Backend
	id *big.Int
}

func (s stubBackend) ChainID(context.Context) (*big.Int, error) {
	return s.id, nil
}

func TestEndpointsConnectFailsOver(t *testing.T) {
	e, err := NewEndpoints("http://primary", "http://secondary")
	require.NoError(t, err)

	var dialed []string
	backend, err := e.Connect(context.Background(), big.NewInt(11155111), func(_ context.Context, url string) (Backend, error) {
		dialed = append(dialed, url)
		if url == "http://primary" {
			return nil, errors.New("connection refused")
		}
		return stubBackend{id: big.NewInt(11155111)}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, backend)
	assert.Equal(t, []string{"http://primary", "http://secondary"}, dialed)
	assert.Equal(t, "http://secondary", e.Current())

	health := e.Health()
	assert.EqualValues(t, 2, health.TotalRequests)
	assert.EqualValues(t, 1, health.FailedReqs)
	assert.Zero(t, health.ConsecutiveFails)

	e.Reset()
	assert.Equal(t, "http://primary", e.Current())
}

func TestEndpointsRejectWrongChain(t *testing.T) {
	e, err := NewEndpoints("http://mainnet", "")
	require.NoError(t, err)

	_, err = e.Connect(context.Background(), big.NewInt(11155111), func(context.Context, string) (Backend, error) {
		return stubBackend{id: big.NewInt(1)}, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serves chain 1")

	_, err = NewEndpoints("", "")
	assert.Error(t, err)
}

type scriptedReceipts struct {
	misses  int
	calls   int
	receipt *types.Receipt
}

func (s *scriptedReceipts) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	s.calls++
	if s.calls <= s.misses {
		return nil, ethereum.NotFound
	}
	return s.receipt, nil
}

func fastPoll(attempts int) *retry.RetryConfig {
	return &retry.RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestWaitForReceipt(t *testing.T) {
	hash := common.HexToHash("0x01")

	t.Run("mined after polling", func(t *testing.T) {
		reader := &scriptedReceipts{misses: 2, receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash}}
		r, err := WaitForReceipt(context.Background(), reader, hash, fastPoll(5))
		require.NoError(t, err)
		assert.Equal(t, hash, r.TxHash)
		assert.Equal(t, 3, reader.calls)
	})

	t.Run("reverted", func(t *testing.T) {
		reader := &scriptedReceipts{receipt: &types.Receipt{Status: types.ReceiptStatusFailed}}
		r, err := WaitForReceipt(context.Background(), reader, hash, fastPoll(5))
		require.Error(t, err)
		assert.NotNil(t, r)
		assert.Equal(t, apperrors.CategoryContract, apperrors.Categorize(err).Category)
	})

	t.Run("never mined", func(t *testing.T) {
		reader := &scriptedReceipts{misses: 100}
		_, err := WaitForReceipt(context.Background(), reader, hash, fastPoll(3))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ethereum.NotFound))
		assert.Equal(t, 3, reader.calls)
	})
}
