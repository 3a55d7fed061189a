package sessionmonitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// checkServer fakes the token-check endpoint. Every response reports the
// configured remaining lifetime; with renew=1 it also hands out a fresh token.
type checkServer struct {
	mu        sync.Mutex
	remaining time.Duration
	calls     int
	renews    int
	lastAuth  string
}

func (s *checkServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls++
	s.lastAuth = r.Header.Get("Authorization")
	resp := statusResponse{
		Subject:   "u-1",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(s.remaining),
	}
	if r.URL.Query().Get("renew") == "1" {
		s.renews++
		resp.Token = "renewed-token"
	}
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *checkServer) stats() (calls, renews int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, s.renews
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newTestMonitor(srv *checkServer, interval time.Duration, onRenew func(string)) (*Monitor, *httptest.Server) {
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	m := New(Options{
		CheckURL:  ts.URL,
		Interval:  interval,
		Threshold: 180 * time.Second,
		Timeout:   time.Second,
		Token:     func() string { return "current-token" },
		OnRenew:   onRenew,
		Logger:    zerolog.Nop(),
	})
	return m, ts
}

func TestMonitorPrimesExpiry(t *testing.T) {
	srv := &checkServer{remaining: time.Hour}
	m, ts := newTestMonitor(srv, time.Hour, nil)
	defer ts.Close()
	defer m.Stop()

	m.Start(context.Background())

	waitFor(t, 2*time.Second, func() bool {
		return !m.Expiry().IsZero()
	})

	calls, renews := srv.stats()
	if calls != 1 {
		t.Errorf("calls = %d, want 1 priming fetch", calls)
	}
	if renews != 0 {
		t.Error("priming fetch must not request renewal")
	}
	if time.Until(m.Expiry()) < 30*time.Minute {
		t.Errorf("cached expiry too close: %v", m.Expiry())
	}

	srv.mu.Lock()
	auth := srv.lastAuth
	srv.mu.Unlock()
	if auth != "Bearer current-token" {
		t.Errorf("authorization = %q", auth)
	}
}

func TestMonitorRenewsBelowThreshold(t *testing.T) {
	srv := &checkServer{remaining: time.Minute} // under the 180s threshold
	var gotToken string
	var mu sync.Mutex
	m, ts := newTestMonitor(srv, 20*time.Millisecond, func(tok string) {
		mu.Lock()
		gotToken = tok
		mu.Unlock()
	})
	defer ts.Close()
	defer m.Stop()

	m.Start(context.Background())

	waitFor(t, 2*time.Second, func() bool {
		_, renews := srv.stats()
		return renews >= 1
	})

	mu.Lock()
	defer mu.Unlock()
	if gotToken != "renewed-token" {
		t.Errorf("OnRenew got %q", gotToken)
	}
}

func TestMonitorIdlesAboveThreshold(t *testing.T) {
	srv := &checkServer{remaining: time.Hour}
	m, ts := newTestMonitor(srv, 20*time.Millisecond, nil)
	defer ts.Close()
	defer m.Stop()

	m.Start(context.Background())
	waitFor(t, 2*time.Second, func() bool {
		calls, _ := srv.stats()
		return calls >= 1
	})

	// Let several intervals elapse: with a distant expiry cached, ticks must
	// not produce further requests.
	time.Sleep(100 * time.Millisecond)
	calls, renews := srv.stats()
	if calls != 1 {
		t.Errorf("calls = %d, want only the priming fetch", calls)
	}
	if renews != 0 {
		t.Errorf("renews = %d, want 0", renews)
	}
}

func TestMonitorRestartReplacesLoop(t *testing.T) {
	srv := &checkServer{remaining: time.Hour}
	m, ts := newTestMonitor(srv, 10*time.Millisecond, nil)
	defer ts.Close()
	defer m.Stop()

	ctx := context.Background()
	m.Start(ctx)
	m.Start(ctx)
	m.Start(ctx)

	waitFor(t, 2*time.Second, func() bool {
		calls, _ := srv.stats()
		return calls >= 3
	})

	// One loop left: freeze the counter and verify it advances at roughly
	// one priming-equivalent pace, not three.
	m.Stop()
	time.Sleep(50 * time.Millisecond)
	before, _ := srv.stats()
	time.Sleep(100 * time.Millisecond)
	after, _ := srv.stats()
	if after != before {
		t.Errorf("requests continued after Stop: %d -> %d", before, after)
	}
}

func TestMonitorStopIsIdempotent(t *testing.T) {
	srv := &checkServer{remaining: time.Hour}
	m, ts := newTestMonitor(srv, time.Hour, nil)
	defer ts.Close()

	m.Start(context.Background())
	m.Stop()
	m.Stop()
}

func TestMonitorSurvivesServerErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	m := New(Options{
		CheckURL: ts.URL,
		Interval: 10 * time.Millisecond,
		Timeout:  time.Second,
		Token:    func() string { return "tok" },
		Logger:   zerolog.Nop(),
	})
	defer m.Stop()

	m.Start(context.Background())
	time.Sleep(50 * time.Millisecond)

	// Failures are logged and swallowed; the cached expiry stays zero.
	if !m.Expiry().IsZero() {
		t.Error("expiry should remain unknown after failed checks")
	}
}
