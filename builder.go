package mcsession

import (
	"errors"
	"net/http"

	"github.com/mmiura-2351/mcsession/internal/api"
	"github.com/mmiura-2351/mcsession/internal/notify"
	"github.com/mmiura-2351/mcsession/store"
)

// Builder defines a public type used by mcsession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config     Config
	backend    store.Backend
	httpClient *http.Client
	sink       Sink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a Builder seeded with default configuration. Construction is
// allocation-only; no I/O happens before Build.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets the dashboard backend root URL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithBackend sets the credential storage backend. Required.
func (b *Builder) WithBackend(backend store.Backend) *Builder {
	b.backend = backend
	return b
}

// WithHTTPClient overrides the HTTP client used for refresh calls. The
// client's own timeout then bounds the refresh network call.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithSink registers the notification sink receiving [Event] values.
func (b *Builder) WithSink(sink Sink) *Builder {
	b.sink = sink
	return b
}

// WithMetricsEnabled toggles metric recording.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles refresh latency histogram recording.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build validates the configuration, wires the store, refresh client,
// dispatcher, and metrics, and returns the ready [Manager]. A builder can be
// used once.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.backend == nil {
		return nil, errors.New("storage backend required")
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.RequestTimeout}
	}

	manager := &Manager{
		config:  cfg,
		store:   store.New(b.backend),
		api:     api.NewClient(cfg.API.BaseURL, httpClient, cfg.API.UserAgent),
		metrics: NewMetrics(cfg.Metrics),
		notifier: notify.NewDispatcher(notify.Config{
			Enabled:    cfg.Notify.Enabled,
			BufferSize: cfg.Notify.BufferSize,
			DropIfFull: cfg.Notify.DropIfFull,
		}, b.sink),
	}

	b.built = true

	return manager, nil
}
