// Package sessionmonitor keeps a client-held session token fresh. It runs a
// single timer-driven background loop for the lifetime of an authenticated
// session, watching the cached expiry and renewing the token through the
// server's token-check endpoint before it runs out.
//
// Failure to renew is never fatal here: the next privileged request will be
// rejected and the caller redirected to re-authenticate, so every network
// problem is logged and swallowed.
package sessionmonitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultInterval  = 60 * time.Second
	defaultThreshold = 180 * time.Second
	defaultTimeout   = 5 * time.Second
)

// Options configures a Monitor.
type Options struct {
	// CheckURL is the absolute URL of the token-check endpoint.
	CheckURL string
	// Interval is how often the cached expiry is re-examined.
	Interval time.Duration
	// Threshold is the remaining-lifetime floor under which a renewal is
	// forced.
	Threshold time.Duration
	// Timeout bounds every status fetch and renewal request.
	Timeout time.Duration
	// Client is the HTTP client used for all requests. Defaults to
	// http.DefaultClient.
	Client *http.Client

	// Token returns the current session token.
	Token func() string
	// OnRenew installs a freshly minted token.
	OnRenew func(token string)

	Logger zerolog.Logger
}

// Monitor is the background session keeper. At most one loop is active per
// Monitor: Start cancels any previous run before installing a new one.
type Monitor struct {
	opts Options

	mu     sync.Mutex
	cancel context.CancelFunc
	expiry time.Time
}

type statusResponse struct {
	Subject   string    `json:"subject"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token,omitempty"`
}

// New creates a Monitor. Zero durations fall back to the defaults
// (60s interval, 180s threshold, 5s timeout).
func New(opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Threshold <= 0 {
		opts.Threshold = defaultThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	return &Monitor{opts: opts}
}

// Start launches the monitoring loop. Calling Start while a previous loop is
// running cancels it first, so there is never more than one active timer.
// The loop also stops when ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	go m.run(loopCtx)
}

// Stop terminates the active loop, if any. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Expiry returns the cached token expiry, zero when not yet known.
func (m *Monitor) Expiry() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiry
}

func (m *Monitor) run(ctx context.Context) {
	// Prime the cache before the first tick.
	m.tick(ctx)

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick re-examines the cached expiry and fetches or renews as needed.
func (m *Monitor) tick(ctx context.Context) {
	m.mu.Lock()
	expiry := m.expiry
	m.mu.Unlock()

	renew := false
	if expiry.IsZero() {
		// No cached expiry yet: query current status without forcing renewal.
	} else if time.Until(expiry) < m.opts.Threshold {
		renew = true
	} else {
		return
	}

	status, err := m.check(ctx, renew)
	if err != nil {
		m.opts.Logger.Warn().Err(err).Bool("renew", renew).Msg("session check failed")
		return
	}

	if status.Token != "" && m.opts.OnRenew != nil {
		m.opts.OnRenew(status.Token)
		m.opts.Logger.Debug().Time("expires_at", status.ExpiresAt).Msg("session token renewed")
	}

	m.mu.Lock()
	m.expiry = status.ExpiresAt
	m.mu.Unlock()
}

func (m *Monitor) check(ctx context.Context, renew bool) (*statusResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	url := m.opts.CheckURL
	if renew {
		url += "?renew=1"
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if m.opts.Token != nil {
		req.Header.Set("Authorization", "Bearer "+m.opts.Token())
	}

	resp, err := m.opts.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token check returned status %d", resp.StatusCode)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}
