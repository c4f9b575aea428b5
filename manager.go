package mcsession

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmiura-2351/mcsession/internal/api"
	"github.com/mmiura-2351/mcsession/internal/notify"
	"github.com/mmiura-2351/mcsession/store"
	"github.com/mmiura-2351/mcsession/token"
)

// TokenStatus is a read-only diagnostic snapshot returned by [Manager.TokenStatus].
type TokenStatus struct {
	HasAccessToken    bool
	HasRefreshToken   bool
	RefreshInProgress bool
}

// refreshCall is the shared handle for one in-flight refresh. Result fields
// are written exactly once before done is closed.
type refreshCall struct {
	done chan struct{}
	pair TokenPair
	err  error
}

// Manager defines a public type used by mcsession APIs.
//
// Manager is the sole authority for deciding whether the current access token
// is usable and for mediating refresh operations. Construct one per
// application session through [Builder.Build] and pass it by reference to
// collaborators; there is no package-level instance.
type Manager struct {
	config   Config
	store    *store.Store
	api      *api.Client
	notifier *notify.Dispatcher
	metrics  *Metrics

	mu          sync.Mutex
	inflight    *refreshCall
	lastAttempt time.Time
}

// Store exposes the validated credential store so collaborators can read the
// persisted user profile. All auth writes still funnel through the store's
// validators.
func (m *Manager) Store() *store.Store {
	return m.store
}

// ValidAccessToken describes the validaccesstoken operation and its observable behavior.
//
// It returns the stored access token when local inspection finds it usable,
// and otherwise delegates to [Manager.Refresh]. It returns [ErrNoTokens]
// without side effects when no refresh token is persisted. It never panics.
func (m *Manager) ValidAccessToken(ctx context.Context) (string, error) {
	if m == nil {
		return "", ErrManagerNotReady
	}

	access, ok := m.store.AccessToken(ctx)
	if ok && !token.Expired(access, time.Now(), m.config.Token.ExpiryLeeway) {
		return access, nil
	}
	if ok {
		m.metrics.Inc(MetricTokenExpired)
	}

	if _, hasRefresh := m.store.RefreshToken(ctx); !hasRefresh {
		return "", ErrNoTokens
	}

	pair, err := m.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

// Refresh describes the refresh operation and its observable behavior.
//
// At most one refresh network call is in flight at any time: a call made while
// one is pending joins it and receives its exact result. A call made within
// [TokenConfig.MinRefreshInterval] of the previous attempt fails with
// [ErrRefreshRateLimited] without reaching the network or mutating refresh
// state. On success the new pair is persisted and [EventTokensRefreshed] is
// published; on failure all auth data is cleared and [EventLoggedOut] is
// published exactly once.
func (m *Manager) Refresh(ctx context.Context) (TokenPair, error) {
	if m == nil {
		return TokenPair{}, ErrManagerNotReady
	}

	m.mu.Lock()
	if call := m.inflight; call != nil {
		m.mu.Unlock()
		m.metrics.Inc(MetricRefreshJoined)
		select {
		case <-call.done:
			return call.pair, call.err
		case <-ctx.Done():
			return TokenPair{}, ctx.Err()
		}
	}
	if m.config.Token.MinRefreshInterval > 0 && !m.lastAttempt.IsZero() &&
		time.Since(m.lastAttempt) < m.config.Token.MinRefreshInterval {
		m.mu.Unlock()
		m.metrics.Inc(MetricRefreshRateLimited)
		return TokenPair{}, ErrRefreshRateLimited
	}
	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	m.lastAttempt = time.Now()
	m.mu.Unlock()

	pair, err := m.doRefresh(ctx)

	m.mu.Lock()
	if m.inflight == call {
		m.inflight = nil
	}
	m.lastAttempt = time.Now()
	m.mu.Unlock()

	call.pair, call.err = pair, err
	close(call.done)

	return pair, err
}

func (m *Manager) doRefresh(ctx context.Context) (TokenPair, error) {
	refresh, ok := m.store.RefreshToken(ctx)
	if !ok {
		m.metrics.Inc(MetricRefreshFailure)
		m.forceLogout(ctx, ErrRefreshTokenMissing)
		return TokenPair{}, ErrRefreshTokenMissing
	}

	start := time.Now()
	resp, err := m.api.Refresh(ctx, refresh)
	m.metrics.Observe(MetricRefreshLatency, time.Since(start))
	if err != nil {
		m.metrics.Inc(MetricRefreshFailure)
		m.forceLogout(ctx, err)
		return TokenPair{}, errors.Join(ErrRefreshFailed, err)
	}

	pair := TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	if err := m.store.SetTokenPair(ctx, pair); err != nil {
		m.metrics.Inc(MetricStorageError)
		m.metrics.Inc(MetricRefreshFailure)
		m.forceLogout(ctx, err)
		return TokenPair{}, err
	}

	m.metrics.Inc(MetricRefreshSuccess)
	m.emit(ctx, notify.Event{
		EventType: notify.TypeTokensRefreshed,
		Success:   true,
		Pair:      &pair,
	})

	return pair, nil
}

// ClearTokens describes the cleartokens operation and its observable behavior.
//
// It wipes persisted auth data and resets in-memory refresh state (in-flight
// handle, last-attempt timestamp). Used on explicit logout; no notification
// is published since the caller initiated the transition.
func (m *Manager) ClearTokens(ctx context.Context) error {
	if m == nil {
		return ErrManagerNotReady
	}

	m.mu.Lock()
	m.inflight = nil
	m.lastAttempt = time.Time{}
	m.mu.Unlock()

	if err := m.store.ClearAuthData(ctx); err != nil {
		m.metrics.Inc(MetricStorageError)
		return err
	}
	return nil
}

// HasTokens reports whether both access and refresh tokens are persisted.
func (m *Manager) HasTokens(ctx context.Context) bool {
	if m == nil {
		return false
	}
	_, hasAccess := m.store.AccessToken(ctx)
	_, hasRefresh := m.store.RefreshToken(ctx)
	return hasAccess && hasRefresh
}

// TokenStatus returns a read-only diagnostic snapshot.
func (m *Manager) TokenStatus(ctx context.Context) TokenStatus {
	if m == nil {
		return TokenStatus{}
	}
	_, hasAccess := m.store.AccessToken(ctx)
	_, hasRefresh := m.store.RefreshToken(ctx)

	m.mu.Lock()
	inProgress := m.inflight != nil
	m.mu.Unlock()

	return TokenStatus{
		HasAccessToken:    hasAccess,
		HasRefreshToken:   hasRefresh,
		RefreshInProgress: inProgress,
	}
}

// HandleAPIError describes the handleapierror operation and its observable behavior.
//
// Given the HTTP status of a caller's own authenticated request, it performs a
// forced logout (clear + [EventLoggedOut]) and returns true when the status is
// 401 Unauthorized; any other status returns false with no side effects. A
// true return means the caller should treat its request as unauthenticated.
func (m *Manager) HandleAPIError(ctx context.Context, status int) bool {
	if m == nil || status != http.StatusUnauthorized {
		return false
	}
	m.metrics.Inc(MetricUnauthorizedHandled)
	m.forceLogout(ctx, ErrUnauthorized)
	return true
}

// Close drains and stops the notification dispatcher. The manager must not be
// used after Close.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.notifier.Close()
}

// MetricsSnapshot returns a point-in-time deep copy of the manager's metrics.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}, Histograms: map[MetricID][]uint64{}}
	}
	return m.metrics.Snapshot()
}

// NotifyDropped returns the count of notifications discarded under
// dispatcher backpressure.
func (m *Manager) NotifyDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.notifier.Dropped()
}

func (m *Manager) forceLogout(ctx context.Context, cause error) {
	if err := m.store.ClearAuthData(ctx); err != nil {
		m.metrics.Inc(MetricStorageError)
		log.Print("mcsession: auth data clear failed during forced logout")
	}
	m.metrics.Inc(MetricLogout)

	event := notify.Event{EventType: notify.TypeLoggedOut}
	if cause != nil {
		event.Error = cause.Error()
	}
	m.emit(ctx, event)
}

func (m *Manager) emit(ctx context.Context, event notify.Event) {
	if m.notifier == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	m.notifier.Emit(ctx, event)
}
