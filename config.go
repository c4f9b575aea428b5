package mcsession

import (
	"errors"
	"net/url"
	"time"
)

// Config defines a public type used by mcsession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API     APIConfig
	Token   TokenConfig
	Notify  NotifyConfig
	Metrics MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig defines a public type used by mcsession APIs.
//
// APIConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APIConfig struct {
	// BaseURL is the dashboard backend root, e.g. "https://panel.example.com".
	// The refresh endpoint path is appended by the manager.
	BaseURL string

	// RequestTimeout bounds the refresh network call when no custom HTTP
	// client is supplied. A hung backend therefore never strands callers
	// that joined an in-flight refresh.
	RequestTimeout time.Duration

	UserAgent string
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by mcsession APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	// MinRefreshInterval is the minimum spacing between refresh attempts.
	// A refresh requested sooner fails with [ErrRefreshRateLimited] and
	// issues no network call.
	MinRefreshInterval time.Duration

	// ExpiryLeeway widens local expiry checks to absorb clock skew.
	ExpiryLeeway time.Duration
}

/*
====================================
NOTIFY CONFIG
====================================
*/

// NotifyConfig defines a public type used by mcsession APIs.
//
// NotifyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NotifyConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by mcsession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			RequestTimeout: 15 * time.Second,
			UserAgent:      "mcsession/1",
		},
		Token: TokenConfig{
			MinRefreshInterval: 5 * time.Second,
			ExpiryLeeway:       0,
		},
		Notify: NotifyConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// API
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL must be set")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("API BaseURL must be an absolute http(s) URL")
	}
	if c.API.RequestTimeout <= 0 {
		return errors.New("API RequestTimeout must be > 0")
	}

	// Token
	if c.Token.MinRefreshInterval < 0 {
		return errors.New("Token MinRefreshInterval must be >= 0")
	}
	if c.Token.ExpiryLeeway < 0 || c.Token.ExpiryLeeway > 2*time.Minute {
		return errors.New("Token ExpiryLeeway must be between 0 and 2 minutes")
	}

	// Notify
	if c.Notify.Enabled && c.Notify.BufferSize <= 0 {
		return errors.New("Notify BufferSize must be > 0 when Notify is enabled")
	}

	return nil
}
