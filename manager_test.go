package mcsession

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mmiura-2351/mcsession/store"
)

func testAccessToken(t *testing.T, exp time.Time) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return raw
}

// refreshServer counts upstream refresh requests and returns fresh pairs.
type refreshServer struct {
	*httptest.Server
	requests atomic.Int64
}

func newRefreshServer(t *testing.T, handler http.HandlerFunc) *refreshServer {
	t.Helper()
	rs := &refreshServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.requests.Add(1)
		if handler != nil {
			handler(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  testAccessToken(t, time.Now().Add(time.Hour)),
			"refresh_token": "rotated-refresh-token",
		})
	}))
	t.Cleanup(rs.Close)
	return rs
}

func newTestManager(t *testing.T, baseURL string, sink Sink, mutate func(*Config)) *Manager {
	t.Helper()

	cfg := defaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.Token.MinRefreshInterval = 0
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	if mutate != nil {
		mutate(&cfg)
	}

	m, err := New().
		WithConfig(cfg).
		WithBackend(store.NewMemoryBackend()).
		WithSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m
}

// drainEvents closes the manager and collects everything the sink received.
func drainEvents(m *Manager, sink *ChannelSink) []Event {
	m.Close()
	var events []Event
	for {
		select {
		case e := <-sink.Events():
			events = append(events, e)
		default:
			return events
		}
	}
}

func seedTokens(t *testing.T, m *Manager, access, refresh string) {
	t.Helper()
	if err := m.Store().SetTokenPair(context.Background(), TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
}

func TestValidAccessTokenReturnsFreshStoredToken(t *testing.T) {
	server := newRefreshServer(t, nil)
	m := newTestManager(t, server.URL, nil, nil)
	defer m.Close()

	access := testAccessToken(t, time.Now().Add(time.Hour))
	seedTokens(t, m, access, "stored-refresh-token")

	got, err := m.ValidAccessToken(context.Background())
	if err != nil {
		t.Fatalf("ValidAccessToken failed: %v", err)
	}
	if got != access {
		t.Fatal("expected the stored token back unchanged")
	}
	if n := server.requests.Load(); n != 0 {
		t.Fatalf("fresh token must not hit the network, got %d requests", n)
	}
}

func TestValidAccessTokenNoTokensIsSideEffectFree(t *testing.T) {
	server := newRefreshServer(t, nil)
	sink := NewChannelSink(16)
	m := newTestManager(t, server.URL, sink, nil)

	_, err := m.ValidAccessToken(context.Background())
	if !errors.Is(err, ErrNoTokens) {
		t.Fatalf("expected ErrNoTokens, got %v", err)
	}
	if n := server.requests.Load(); n != 0 {
		t.Fatalf("expected no network calls, got %d", n)
	}
	if events := drainEvents(m, sink); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestValidAccessTokenRefreshesExpiredToken(t *testing.T) {
	server := newRefreshServer(t, nil)
	sink := NewChannelSink(16)
	m := newTestManager(t, server.URL, sink, nil)

	seedTokens(t, m, testAccessToken(t, time.Now().Add(-time.Minute)), "stored-refresh-token")

	got, err := m.ValidAccessToken(context.Background())
	if err != nil {
		t.Fatalf("ValidAccessToken failed: %v", err)
	}
	if got == "" {
		t.Fatal("expected a refreshed access token")
	}

	access, ok := m.Store().AccessToken(context.Background())
	if !ok || access != got {
		t.Fatal("refreshed token was not persisted")
	}
	refresh, ok := m.Store().RefreshToken(context.Background())
	if !ok || refresh != "rotated-refresh-token" {
		t.Fatalf("rotated refresh token not persisted, got (%q, %v)", refresh, ok)
	}
	if n := server.requests.Load(); n != 1 {
		t.Fatalf("expected exactly one upstream request, got %d", n)
	}
	if got := m.MetricsSnapshot().Counters[MetricTokenExpired]; got != 1 {
		t.Fatalf("expected one expired-token observation, got %d", got)
	}

	events := drainEvents(m, sink)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].EventType != EventTokensRefreshed || !events[0].Success {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if events[0].Pair == nil || events[0].Pair.RefreshToken != "rotated-refresh-token" {
		t.Fatal("refreshed event missing the new pair")
	}
}

func TestValidAccessTokenMissingAccessUsesRefresh(t *testing.T) {
	server := newRefreshServer(t, nil)
	m := newTestManager(t, server.URL, nil, nil)
	defer m.Close()

	if !m.Store().SetItem(context.Background(), store.KeyRefreshToken, "only-refresh-token") {
		t.Fatal("seed refresh token")
	}

	if _, err := m.ValidAccessToken(context.Background()); err != nil {
		t.Fatalf("ValidAccessToken failed: %v", err)
	}
	if n := server.requests.Load(); n != 1 {
		t.Fatalf("expected one upstream request, got %d", n)
	}
}

func TestRefreshSingleFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	server := newRefreshServer(t, func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		<-release
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":  testAccessToken(t, time.Now().Add(time.Hour)),
			"refresh_token": "rotated-refresh-token",
		})
	})
	m := newTestManager(t, server.URL, nil, nil)
	defer m.Close()

	seedTokens(t, m, testAccessToken(t, time.Now().Add(-time.Minute)), "stored-refresh-token")

	const joiners = 15
	results := make(chan error, joiners+1)
	pairs := make(chan TokenPair, joiners+1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pair, err := m.Refresh(context.Background())
		pairs <- pair
		results <- err
	}()

	<-started

	wg.Add(joiners)
	for i := 0; i < joiners; i++ {
		go func() {
			defer wg.Done()
			pair, err := m.Refresh(context.Background())
			pairs <- pair
			results <- err
		}()
	}

	// Release the upstream only after every joiner is parked on the
	// in-flight call, so no goroutine can start a second request.
	deadline := time.Now().Add(5 * time.Second)
	for m.MetricsSnapshot().Counters[MetricRefreshJoined] < joiners {
		if time.Now().After(deadline) {
			t.Fatalf("joiners never attached: %d", m.MetricsSnapshot().Counters[MetricRefreshJoined])
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()
	close(results)
	close(pairs)

	for err := range results {
		if err != nil {
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}

	var first TokenPair
	for pair := range pairs {
		if first == (TokenPair{}) {
			first = pair
			continue
		}
		if pair != first {
			t.Fatal("joined callers received different pairs")
		}
	}

	if n := server.requests.Load(); n != 1 {
		t.Fatalf("expected exactly one upstream request, got %d", n)
	}
	if got := m.MetricsSnapshot().Counters[MetricRefreshSuccess]; got != 1 {
		t.Fatalf("expected one refresh success, got %d", got)
	}
}

func TestRefreshRateLimited(t *testing.T) {
	server := newRefreshServer(t, nil)
	m := newTestManager(t, server.URL, nil, func(cfg *Config) {
		cfg.Token.MinRefreshInterval = time.Minute
	})
	defer m.Close()

	seedTokens(t, m, testAccessToken(t, time.Now().Add(-time.Minute)), "stored-refresh-token")

	first, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}

	if _, err := m.Refresh(context.Background()); !errors.Is(err, ErrRefreshRateLimited) {
		t.Fatalf("expected ErrRefreshRateLimited, got %v", err)
	}

	if n := server.requests.Load(); n != 1 {
		t.Fatalf("rate-limited call must not hit the network, got %d requests", n)
	}

	// The stored pair from the first refresh is untouched.
	access, ok := m.Store().AccessToken(context.Background())
	if !ok || access != first.AccessToken {
		t.Fatal("rate-limited refresh mutated stored tokens")
	}
	if got := m.MetricsSnapshot().Counters[MetricRefreshRateLimited]; got != 1 {
		t.Fatalf("expected one rate-limited observation, got %d", got)
	}
}

func TestRefreshFailureClearsAuthAndNotifiesOnce(t *testing.T) {
	server := newRefreshServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid refresh token"}`))
	})
	sink := NewChannelSink(16)
	m := newTestManager(t, server.URL, sink, nil)

	ctx := context.Background()
	seedTokens(t, m, testAccessToken(t, time.Now().Add(-time.Minute)), "stale-refresh-token")
	if err := m.Store().SetUserProfile(ctx, &UserProfile{ID: 1, Username: "alice", Role: "admin"}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	_, err := m.Refresh(ctx)
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("expected ErrRefreshFailed, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}

	if _, ok := m.Store().AccessToken(ctx); ok {
		t.Fatal("access token survived failed refresh")
	}
	if _, ok := m.Store().RefreshToken(ctx); ok {
		t.Fatal("refresh token survived failed refresh")
	}
	if _, ok := m.Store().UserProfile(ctx); ok {
		t.Fatal("user profile survived failed refresh")
	}

	events := drainEvents(m, sink)
	logouts := 0
	for _, e := range events {
		if e.EventType == EventLoggedOut {
			logouts++
			if e.Error == "" {
				t.Fatal("logout event missing cause")
			}
		}
	}
	if logouts != 1 {
		t.Fatalf("expected exactly one logout event, got %d", logouts)
	}
}

func TestRefreshWithoutRefreshTokenForcesLogout(t *testing.T) {
	server := newRefreshServer(t, nil)
	sink := NewChannelSink(16)
	m := newTestManager(t, server.URL, sink, nil)

	// Access token present but no refresh token: refresh cannot proceed.
	if !m.Store().SetItem(context.Background(), store.KeyAccessToken, testAccessToken(t, time.Now().Add(-time.Minute))) {
		t.Fatal("seed access token")
	}

	if _, err := m.Refresh(context.Background()); !errors.Is(err, ErrRefreshTokenMissing) {
		t.Fatalf("expected ErrRefreshTokenMissing, got %v", err)
	}
	if n := server.requests.Load(); n != 0 {
		t.Fatalf("expected no network calls, got %d", n)
	}
	if _, ok := m.Store().AccessToken(context.Background()); ok {
		t.Fatal("stale access token survived forced logout")
	}

	events := drainEvents(m, sink)
	if len(events) != 1 || events[0].EventType != EventLoggedOut {
		t.Fatalf("expected one logout event, got %+v", events)
	}
}

func TestHandleAPIError(t *testing.T) {
	server := newRefreshServer(t, nil)
	sink := NewChannelSink(16)
	m := newTestManager(t, server.URL, sink, nil)

	ctx := context.Background()
	seedTokens(t, m, testAccessToken(t, time.Now().Add(time.Hour)), "stored-refresh-token")

	for _, status := range []int{0, http.StatusOK, http.StatusForbidden, http.StatusInternalServerError} {
		if m.HandleAPIError(ctx, status) {
			t.Fatalf("status %d must not trigger logout", status)
		}
	}
	if _, ok := m.Store().AccessToken(ctx); !ok {
		t.Fatal("non-401 statuses must not clear tokens")
	}

	if !m.HandleAPIError(ctx, http.StatusUnauthorized) {
		t.Fatal("expected 401 to report handled")
	}
	if _, ok := m.Store().AccessToken(ctx); ok {
		t.Fatal("401 must clear tokens")
	}
	if got := m.MetricsSnapshot().Counters[MetricUnauthorizedHandled]; got != 1 {
		t.Fatalf("expected one unauthorized observation, got %d", got)
	}

	events := drainEvents(m, sink)
	if len(events) != 1 || events[0].EventType != EventLoggedOut {
		t.Fatalf("expected one logout event, got %+v", events)
	}
}

func TestClearTokensResetsRateLimitWindow(t *testing.T) {
	server := newRefreshServer(t, nil)
	m := newTestManager(t, server.URL, nil, func(cfg *Config) {
		cfg.Token.MinRefreshInterval = time.Minute
	})
	defer m.Close()

	ctx := context.Background()
	seedTokens(t, m, testAccessToken(t, time.Now().Add(-time.Minute)), "stored-refresh-token")

	if _, err := m.Refresh(ctx); err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	if err := m.ClearTokens(ctx); err != nil {
		t.Fatalf("ClearTokens failed: %v", err)
	}
	if m.HasTokens(ctx) {
		t.Fatal("tokens survived ClearTokens")
	}

	// A new login session must not inherit the old session's rate limit.
	seedTokens(t, m, testAccessToken(t, time.Now().Add(-time.Minute)), "new-refresh-token")
	if _, err := m.Refresh(ctx); err != nil {
		t.Fatalf("refresh after ClearTokens failed: %v", err)
	}
	if n := server.requests.Load(); n != 2 {
		t.Fatalf("expected two upstream requests, got %d", n)
	}
}

func TestTokenStatusReflectsStoreAndFlight(t *testing.T) {
	server := newRefreshServer(t, nil)
	m := newTestManager(t, server.URL, nil, nil)
	defer m.Close()

	ctx := context.Background()
	if status := m.TokenStatus(ctx); status.HasAccessToken || status.HasRefreshToken || status.RefreshInProgress {
		t.Fatalf("expected empty status, got %+v", status)
	}
	if m.HasTokens(ctx) {
		t.Fatal("expected HasTokens false on empty store")
	}

	seedTokens(t, m, testAccessToken(t, time.Now().Add(time.Hour)), "stored-refresh-token")
	status := m.TokenStatus(ctx)
	if !status.HasAccessToken || !status.HasRefreshToken || status.RefreshInProgress {
		t.Fatalf("unexpected status %+v", status)
	}
	if !m.HasTokens(ctx) {
		t.Fatal("expected HasTokens true")
	}
}

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager

	if _, err := m.ValidAccessToken(context.Background()); !errors.Is(err, ErrManagerNotReady) {
		t.Fatalf("expected ErrManagerNotReady, got %v", err)
	}
	if _, err := m.Refresh(context.Background()); !errors.Is(err, ErrManagerNotReady) {
		t.Fatalf("expected ErrManagerNotReady, got %v", err)
	}
	if err := m.ClearTokens(context.Background()); !errors.Is(err, ErrManagerNotReady) {
		t.Fatalf("expected ErrManagerNotReady, got %v", err)
	}
	if m.HasTokens(context.Background()) {
		t.Fatal("expected false from nil manager")
	}
	if m.HandleAPIError(context.Background(), http.StatusUnauthorized) {
		t.Fatal("expected false from nil manager")
	}
	m.Close()
	_ = m.TokenStatus(context.Background())
	_ = m.MetricsSnapshot()
	_ = m.NotifyDropped()
}
