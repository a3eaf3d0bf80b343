package httpclient

import (
	"maps"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http/httpguts"
	"golang.org/x/time/rate"

	"github.com/gaborage/go-openapi/logger"
	"github.com/gaborage/go-openapi/region"
	"github.com/gaborage/go-openapi/signature"
	"github.com/gaborage/go-openapi/timestamp"
)

const (
	// DefaultTimeout bounds a single attempt
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after a 429 response
	DefaultMaxRetries = 5

	// DefaultRetryDelay is the wait before the first retry
	DefaultRetryDelay = 100 * time.Millisecond

	// DefaultRetryMultiplier grows the wait between consecutive retries
	DefaultRetryMultiplier = 2.0

	// DefaultMaxPayloadLogBytes caps logged body previews
	DefaultMaxPayloadLogBytes = 4096

	// DomesticBaseURL serves callers inside mainland China
	DomesticBaseURL = "https://openapi.longportapp.cn"

	// InternationalBaseURL serves everyone else
	InternationalBaseURL = "https://openapi.longportapp.com"
)

// Doer executes a single HTTP exchange. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the client configuration
type Config struct {
	// BaseURL overrides region detection when set
	BaseURL     string
	AppKey      string
	AppSecret   string
	AccessToken string

	Timeout         time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	RetryMultiplier float64
	DefaultHeaders  map[string]string

	// LogPayloads enables debug-level logging of headers and body payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
}

// Client sends signed requests to the gateway. It is safe for concurrent use.
type Client struct {
	doer      Doer
	logger    logger.Logger
	config    *Config
	detector  region.Detector
	signer    signature.Signer
	clock     timestamp.Clock
	limiter   *rate.Limiter
	sleep     SleepFunc
	callCount int64
}

// Builder provides a fluent interface for configuring the client
type Builder struct {
	config   *Config
	logger   logger.Logger
	doer     Doer
	detector region.Detector
	signer   signature.Signer
	clock    timestamp.Clock
	limiter  *rate.Limiter
	sleep    SleepFunc
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{
		config: &Config{
			Timeout:            DefaultTimeout,
			MaxRetries:         DefaultMaxRetries,
			RetryDelay:         DefaultRetryDelay,
			RetryMultiplier:    DefaultRetryMultiplier,
			DefaultHeaders:     make(map[string]string),
			LogPayloads:        true,
			MaxPayloadLogBytes: DefaultMaxPayloadLogBytes,
		},
		logger: log,
	}
}

// WithCredentials sets the app key, app secret and access token
func (b *Builder) WithCredentials(appKey, appSecret, accessToken string) *Builder {
	b.config.AppKey = appKey
	b.config.AppSecret = appSecret
	b.config.AccessToken = accessToken
	return b
}

// WithBaseURL pins every request to baseURL and disables region detection
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithTimeout sets the per-attempt timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetries sets the 429 retry schedule
func (b *Builder) WithRetries(maxRetries int, initialDelay time.Duration, multiplier float64) *Builder {
	b.config.MaxRetries = maxRetries
	b.config.RetryDelay = initialDelay
	b.config.RetryMultiplier = multiplier
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests.
// Invalid names or values are ignored.
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	if httpguts.ValidHeaderFieldName(key) && httpguts.ValidHeaderFieldValue(value) {
		b.config.DefaultHeaders[key] = value
	}
	return b
}

// WithLogPayloads toggles debug payload logging and its size cap
func (b *Builder) WithLogPayloads(enabled bool, maxBytes int) *Builder {
	b.config.LogPayloads = enabled
	b.config.MaxPayloadLogBytes = maxBytes
	return b
}

// WithTransport wraps rt in an *http.Client
func (b *Builder) WithTransport(rt http.RoundTripper) *Builder {
	b.doer = &http.Client{Transport: rt}
	return b
}

// WithDoer replaces the whole transport
func (b *Builder) WithDoer(doer Doer) *Builder {
	b.doer = doer
	return b
}

// WithRegion sets the detector consulted when no base URL is configured
func (b *Builder) WithRegion(detector region.Detector) *Builder {
	b.detector = detector
	return b
}

// WithSigner replaces the default HMAC signer
func (b *Builder) WithSigner(signer signature.Signer) *Builder {
	b.signer = signer
	return b
}

// WithClock replaces the timestamp source
func (b *Builder) WithClock(clock timestamp.Clock) *Builder {
	b.clock = clock
	return b
}

// WithRateLimiter paces attempts client-side; nil disables pacing
func (b *Builder) WithRateLimiter(limiter *rate.Limiter) *Builder {
	b.limiter = limiter
	return b
}

// WithSleep replaces the backoff wait
func (b *Builder) WithSleep(sleep SleepFunc) *Builder {
	b.sleep = sleep
	return b
}

// Build creates the client with the configured options
func (b *Builder) Build() *Client {
	cfg := *b.config
	cfg.DefaultHeaders = maps.Clone(b.config.DefaultHeaders)
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		doer:     b.doer,
		logger:   b.logger,
		config:   &cfg,
		detector: b.detector,
		signer:   b.signer,
		clock:    b.clock,
		limiter:  b.limiter,
		sleep:    b.sleep,
	}
	if c.doer == nil {
		c.doer = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if c.detector == nil && cfg.BaseURL == "" {
		c.detector = region.Chain(region.Env{}, region.NewProbe(region.ProbeConfig{Logger: b.logger}))
	}
	if c.signer == nil {
		c.signer = signature.HMAC{}
	}
	if c.clock == nil {
		c.clock = timestamp.SystemClock
	}
	if c.sleep == nil {
		c.sleep = Sleep
	}
	return c
}

func (c *Client) nextCall() int64 {
	return atomic.AddInt64(&c.callCount, 1)
}
