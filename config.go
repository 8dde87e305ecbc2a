package goAuthClient

import (
	"errors"
	"net/url"
	"time"
)

// Config defines a public type used by goAuthClient APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API         APIConfig         `envPrefix:"API_"`
	Token       TokenConfig       `envPrefix:"TOKEN_"`
	Cache       CacheConfig       `envPrefix:"CACHE_"`
	Events      EventsConfig      `envPrefix:"EVENTS_"`
	Attestation AttestationConfig `envPrefix:"ATTESTATION_"`
	Metrics     MetricsConfig     `envPrefix:"METRICS_"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig describes the identity server and the headers stamped on every request.
type APIConfig struct {
	BaseURL    string        `env:"BASE_URL"`
	APIVersion string        `env:"VERSION"`
	SDKVersion string        `env:"SDK_VERSION"`
	DeviceID   string        `env:"DEVICE_ID"` // generated when empty
	Timeout    time.Duration `env:"TIMEOUT"`
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls token freshness and fetch bounds.
type TokenConfig struct {
	// ExpirationBuffer is subtracted from a cached token's expiry before it is
	// considered fresh.
	ExpirationBuffer time.Duration `env:"EXPIRATION_BUFFER"`
	// FetchTimeout bounds one token fetch regardless of caller deadlines.
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT"`
}

// CacheBackend selects the token cache implementation.
type CacheBackend string

const (
	// CacheMemory keeps tokens in process memory.
	CacheMemory CacheBackend = "memory"
	// CacheRedis shares tokens through Redis. Requires Builder.WithRedis.
	CacheRedis CacheBackend = "redis"
)

// CacheConfig selects and configures the token cache.
type CacheConfig struct {
	Backend     CacheBackend `env:"BACKEND"`
	RedisPrefix string       `env:"REDIS_PREFIX"`
}

// EventsConfig configures the event bus.
type EventsConfig struct {
	BufferSize       int  `env:"BUFFER_SIZE"`
	DropIfFull       bool `env:"DROP_IF_FULL"`
	SubscriberBuffer int  `env:"SUBSCRIBER_BUFFER"`
	// DedupeSize bounds how many completed sign-in/sign-up ids are remembered.
	DedupeSize int `env:"DEDUPE_SIZE"`
	// CloseTimeout bounds how long Close waits for sinks to drain.
	CloseTimeout time.Duration `env:"CLOSE_TIMEOUT"`
}

// AttestationConfig configures device attestation.
type AttestationConfig struct {
	Enabled            bool   `env:"ENABLED"`
	CloudProjectNumber int64  `env:"CLOUD_PROJECT_NUMBER"`
	ApplicationID      string `env:"APPLICATION_ID"`
}

// MetricsConfig defines a public type used by goAuthClient APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			APIVersion: "2025-04-10",
			SDKVersion: "0.1.0",
			Timeout:    30 * time.Second,
		},
		Token: TokenConfig{
			ExpirationBuffer: 60 * time.Second,
			FetchTimeout:     30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:     CacheMemory,
			RedisPrefix: "gac",
		},
		Events: EventsConfig{
			BufferSize:       256,
			DropIfFull:       false,
			SubscriberBuffer: 64,
			DedupeSize:       512,
			CloseTimeout:     5 * time.Second,
		},
		Attestation: AttestationConfig{
			Enabled: false,
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
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("API BaseURL must be an absolute URL")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return errors.New("API BaseURL scheme must be http or https")
	}
	if c.API.Timeout < 0 {
		return errors.New("API Timeout must be >= 0")
	}

	// Token
	if c.Token.ExpirationBuffer < 0 {
		return errors.New("Token ExpirationBuffer must be >= 0")
	}
	if c.Token.FetchTimeout <= 0 {
		return errors.New("Token FetchTimeout must be > 0")
	}

	// Cache
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis:
		// valid
	default:
		return errors.New("Cache Backend must be 'memory' or 'redis'")
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisPrefix == "" {
		return errors.New("Cache RedisPrefix must be set for the redis backend")
	}

	// Events
	if c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0")
	}
	if c.Events.SubscriberBuffer <= 0 {
		return errors.New("Events SubscriberBuffer must be > 0")
	}
	if c.Events.DedupeSize <= 0 {
		return errors.New("Events DedupeSize must be > 0")
	}
	if c.Events.CloseTimeout <= 0 {
		return errors.New("Events CloseTimeout must be > 0")
	}

	// Attestation
	if c.Attestation.CloudProjectNumber < 0 {
		return errors.New("Attestation CloudProjectNumber must be >= 0")
	}

	return nil
}
