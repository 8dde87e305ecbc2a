package goAuthClient

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/attestation"
	"github.com/MrEthical07/goAuthClient/internal/flight"
	internalflows "github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/MrEthical07/goAuthClient/middleware"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/MrEthical07/goAuthClient/tokencache"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine.
//
// Builder instances are intended to be configured during initialization and
// used for exactly one Build call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	httpClient   *http.Client
	provider     IntegrityProvider
	deviceTokens DeviceTokenStore
	logger       *slog.Logger
	sinks        []EventSink
	tokenCache   tokencache.Cache
	verifier     *jwt.Config
	now          func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig. API.BaseURL must still be
// set before Build.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client used by the redis cache backend and, unless
// WithDeviceTokenStore is called, by the device token store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient sets the client whose Transport is wrapped by the engine
// middleware. The client itself is not modified.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithIntegrityProvider enables PrepareAttestation and AttestDevice.
func (b *Builder) WithIntegrityProvider(p IntegrityProvider) *Builder {
	b.provider = p
	return b
}

// WithDeviceTokenStore overrides where the device token is persisted.
func (b *Builder) WithDeviceTokenStore(store DeviceTokenStore) *Builder {
	b.deviceTokens = store
	return b
}

// WithLogger sets the structured logger. Nil means slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithEventSink attaches a sink that receives every published event in order.
// It may be called more than once.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	if sink != nil {
		b.sinks = append(b.sinks, sink)
	}
	return b
}

// WithTokenCache overrides the cache selected by Config.Cache.Backend.
func (b *Builder) WithTokenCache(cache tokencache.Cache) *Builder {
	b.tokenCache = cache
	return b
}

// WithClock overrides time.Now for token freshness and event timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithTokenVerifier makes the engine verify token signatures and standard
// claims before caching. Without it only the exp claim is read.
func (b *Builder) WithTokenVerifier(cfg jwt.Config) *Builder {
	b.verifier = &cfg
	return b
}

// WithMetricsEnabled toggles in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the token fetch latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a running Engine.
//
// Build may return an error when the configuration is invalid or a required
// dependency is missing. A Builder can be built only once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if cfg.Cache.Backend == CacheRedis && b.redis == nil && b.tokenCache == nil {
		return nil, errors.New("redis cache backend requires redis client")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	deviceID := cfg.API.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	// -------- TOKEN CACHE --------
	cache := b.tokenCache
	if cache == nil {
		switch cfg.Cache.Backend {
		case CacheRedis:
			cache = tokencache.NewRedis(b.redis, cfg.Cache.RedisPrefix)
		default:
			cache = tokencache.NewMemory()
		}
	}

	deviceTokens := b.deviceTokens
	if deviceTokens == nil {
		if b.redis != nil && cfg.Cache.Backend == CacheRedis {
			deviceTokens = session.NewRedisDeviceTokenStore(b.redis, cfg.Cache.RedisPrefix, deviceID)
		} else {
			deviceTokens = session.NewMemoryDeviceTokenStore()
		}
	}

	var verifier *jwt.Verifier
	if b.verifier != nil {
		v, err := jwt.NewVerifier(*b.verifier)
		if err != nil {
			return nil, fmt.Errorf("token verifier: %w", err)
		}
		verifier = v
	}

	published, err := lru.New[string, struct{}](cfg.Events.DedupeSize)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		logger:       logger,
		state:        session.NewStateStore(),
		tokens:       cache,
		inflight:     &flight.Group[internalflows.TokenResult]{Timeout: cfg.Token.FetchTimeout},
		deviceTokens: deviceTokens,
		deviceID:     deviceID,
		verifier:     verifier,
		published:    published,
		now:          now,
	}
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.events = newEventBus(cfg.Events, func() { engine.metricInc(MetricEventsDropped) }, b.sinks...)

	// -------- TRANSPORT --------
	base := http.DefaultTransport
	var jar http.CookieJar
	if b.httpClient != nil {
		if b.httpClient.Transport != nil {
			base = b.httpClient.Transport
		}
		jar = b.httpClient.Jar
	}
	engine.httpClient = &http.Client{
		Timeout: cfg.API.Timeout,
		Jar:     jar,
		Transport: middleware.Chain(base,
			middleware.Headers(middleware.HeaderConfig{
				APIVersion:   cfg.API.APIVersion,
				SDKVersion:   cfg.API.SDKVersion,
				DeviceID:     deviceID,
				DeviceTokens: deviceTokens,
			}),
			middleware.DeviceToken(deviceTokens, logger),
			middleware.Sync(engine),
		),
	}

	apiClient, err := api.New(cfg.API.BaseURL, engine.httpClient)
	if err != nil {
		engine.events.Close()
		return nil, err
	}
	engine.api = apiClient

	engine.attestation = attestation.New(attestation.Config{
		Provider: b.provider,
		Server:   apiClient,
		Store:    assertionStore{engine: engine},
		Logger:   logger,
	})

	engine.flows = internalflows.New(internalflows.Deps{
		Token: engine.tokenFlowDeps(),
		Sync:  engine.syncFlowDeps(),
	})

	b.built = true

	return engine, nil
}
