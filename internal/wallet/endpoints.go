package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/student-ai-platform/internal/logging"
)

// EndpointHealth is the observed state of an RPC endpoint set
type EndpointHealth struct {
	CurrentURL       string        `json:"currentUrl"`
	TotalRequests    int64         `json:"totalRequests"`
	SuccessfulReqs   int64         `json:"successfulRequests"`
	FailedReqs       int64         `json:"failedRequests"`
	AverageLatency   time.Duration `json:"averageLatency"`
	LastSuccess      time.Time     `json:"lastSuccess"`
	LastFailure      time.Time     `json:"lastFailure"`
	ConsecutiveFails int           `json:"consecutiveFails"`
}

// Endpoints tracks a primary and optional secondary RPC URL and which one is active
type Endpoints struct {
	mu sync.RWMutex

	primaryURL   string
	secondaryURL string
	currentURL   string

	totalRequests    int64
	successfulReqs   int64
	failedReqs       int64
	totalLatency     time.Duration
	lastSuccess      time.Time
	lastFailure      time.Time
	consecutiveFails int
}

// NewEndpoints creates an endpoint set; the secondary URL may be empty
func NewEndpoints(primaryURL, secondaryURL string) (*Endpoints, error) {
	if primaryURL == "" {
		return nil, fmt.Errorf("primary URL cannot be empty")
	}
	return &Endpoints{
		primaryURL:   primaryURL,
		secondaryURL: secondaryURL,
		currentURL:   primaryURL,
	}, nil
}

// Current returns the active URL
func (e *Endpoints) Current() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentURL
}

// Failover switches between primary and secondary
func (e *Endpoints) Failover() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.secondaryURL == "" {
		return fmt.Errorf("no secondary endpoint configured")
	}
	if e.currentURL == e.primaryURL {
		e.currentURL = e.secondaryURL
	} else {
		e.currentURL = e.primaryURL
	}
	return nil
}

// RecordSuccess records a successful request against the active URL
func (e *Endpoints) RecordSuccess(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.totalRequests++
	e.successfulReqs++
	e.totalLatency += d
	e.lastSuccess = time.Now()
	e.consecutiveFails = 0
}

// RecordFailure records a failed request against the active URL
func (e *Endpoints) RecordFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.totalRequests++
	e.failedReqs++
	e.lastFailure = time.Now()
	e.consecutiveFails++
}

// Health returns a snapshot of the counters
func (e *Endpoints) Health() EndpointHealth {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var avg time.Duration
	if e.successfulReqs > 0 {
		avg = e.totalLatency / time.Duration(e.successfulReqs)
	}
	return EndpointHealth{
		CurrentURL:       e.currentURL,
		TotalRequests:    e.totalRequests,
		SuccessfulReqs:   e.successfulReqs,
		FailedReqs:       e.failedReqs,
		AverageLatency:   avg,
		LastSuccess:      e.lastSuccess,
		LastFailure:      e.lastFailure,
		ConsecutiveFails: e.consecutiveFails,
	}
}

// Reset makes the primary URL active again
func (e *Endpoints) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.currentURL = e.primaryURL
	e.consecutiveFails = 0
}

// DialFunc connects to an RPC URL
type DialFunc func(ctx context.Context, url string) (Backend, error)

// Connect dials the active endpoint and checks that it serves chainID.
// On failure it fails over once and tries the other endpoint.
func (e *Endpoints) Connect(ctx context.Context, chainID *big.Int, dial DialFunc) (Backend, error) {
	logger := logging.FromContext(ctx).WithComponent("wallet-rpc")

	attempts := 1
	if e.secondaryURL != "" {
		attempts = 2
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		url := e.Current()
		start := time.Now()
		backend, err := dialChecked(ctx, url, chainID, dial)
		if err == nil {
			e.RecordSuccess(time.Since(start))
			return backend, nil
		}
		e.RecordFailure()
		lastErr = err
		logger.WithError(err).WithField("endpoint", url).Warn("RPC endpoint unusable")

		if i+1 < attempts {
			if ferr := e.Failover(); ferr != nil {
				break
			}
		}
	}
	return nil, fmt.Errorf("no usable RPC endpoint for chain %s: %w", chainID, lastErr)
}

func dialChecked(ctx context.Context, url string, chainID *big.Int, dial DialFunc) (Backend, error) {
	backend, err := dial(ctx, url)
	if err != nil {
		return nil, err
	}
	got, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	if chainID != nil && got.Cmp(chainID) != 0 {
		return nil, fmt.Errorf("endpoint serves chain %s, want %s", got, chainID)
	}
	return backend, nil
}
