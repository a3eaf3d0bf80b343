// Package gateway implements a local stand-in for the open API gateway. It
// verifies signed requests the same way the real gateway does and answers with
// the {code, message, data} envelope, which makes it useful for integration
// tests and for trying the CLI without live credentials.
package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gaborage/go-openapi/logger"
)

const (
	// DefaultMaxSkew is how far a request timestamp may drift from the gateway clock
	DefaultMaxSkew = 5 * time.Minute

	serviceName       = "openapi-gateway"
	rateLimitExpiry   = 3 * time.Minute
	readHeaderTimeout = 10 * time.Second
)

// App is a registered application and the token issued to it.
type App struct {
	Secret      string
	AccessToken string
}

// Config configures the gateway.
type Config struct {
	// Apps maps an app key to its credentials
	Apps map[string]App

	// MaxSkew bounds the accepted X-Timestamp drift. Zero means DefaultMaxSkew.
	MaxSkew time.Duration

	// RateLimit is the sustained per-app request rate. Zero disables limiting.
	RateLimit float64
	Burst     int

	// Now reads the gateway clock. Nil means time.Now.
	Now func() time.Time

	// TracerProvider records server spans. Nil means the global provider.
	TracerProvider oteltrace.TracerProvider
}

// Handler serves one route. body holds the verified request body. The
// returned value is marshaled into the envelope's data field.
type Handler func(c echo.Context, body []byte) (any, error)

// Gateway is an echo-backed mock of the open API gateway.
type Gateway struct {
	echo   *echo.Echo
	cfg    Config
	logger logger.Logger

	mu     sync.Mutex
	script []Reply
	hits   map[string]int
}

// New creates a gateway with signature verification and envelope error
// handling installed. Routes are added with Handle.
func New(cfg Config, log logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.MaxSkew <= 0 {
		cfg.MaxSkew = DefaultMaxSkew
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = readHeaderTimeout

	g := &Gateway{
		echo:   e,
		cfg:    cfg,
		logger: log,
		hits:   make(map[string]int),
	}
	e.HTTPErrorHandler = g.handleError

	var traceOpts []otelecho.Option
	if cfg.TracerProvider != nil {
		traceOpts = append(traceOpts, otelecho.WithTracerProvider(cfg.TracerProvider))
	}
	e.Use(otelecho.Middleware(serviceName, traceOpts...))
	e.Use(g.traceID)
	e.Use(g.logRequests)
	e.Use(g.replay)
	e.Use(g.rateLimit())
	e.Use(g.authenticate)

	return g
}

// Handle registers a route whose result is wrapped in a success envelope.
func (g *Gateway) Handle(method, path string, h Handler) {
	g.echo.Add(method, path, func(c echo.Context) error {
		data, err := h(c, requestBody(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, envelope{Code: 0, Message: "", Data: data})
	})
}

// Echo returns the underlying echo instance.
func (g *Gateway) Echo() *echo.Echo {
	return g.echo
}

// ServeHTTP lets the gateway run under httptest.Server or any http.Server.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.echo.ServeHTTP(w, r)
}

// Hits reports how many requests reached path, including scripted replies
// and rejected ones.
func (g *Gateway) Hits(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hits[path]
}

// Start listens on addr and blocks until the gateway is shut down.
func (g *Gateway) Start(addr string) error {
	g.logger.Info().
		Str("address", addr).
		Int("apps", len(g.cfg.Apps)).
		Msg("Starting mock gateway...")

	return g.echo.Start(addr)
}

// Shutdown gracefully stops the gateway.
func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.echo.Shutdown(ctx)
}

func (g *Gateway) rateLimit() echo.MiddlewareFunc {
	if g.cfg.RateLimit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	burst := max(g.cfg.Burst, 1)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(g.cfg.RateLimit),
				Burst:     burst,
				ExpiresIn: rateLimitExpiry,
			},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if key := c.Request().Header.Get(headerAPIKey); key != "" {
				return key, nil
			}
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return c.String(http.StatusForbidden, "rate limiter unavailable")
		},
		// The real gateway answers throttled calls with a bare status line, not an envelope.
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.String(http.StatusTooManyRequests, "Too Many Requests")
		},
	})
}

func (g *Gateway) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		status := c.Response().Status
		event := g.logger.Info()
		if status >= http.StatusInternalServerError {
			event = g.logger.Error()
		} else if status >= http.StatusBadRequest {
			event = g.logger.Warn()
		}
		event.
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("app_key", req.Header.Get(headerAPIKey)).
			Str("trace_id", c.Response().Header().Get(headerTraceID)).
			Msg("gateway request")
		return nil
	}
}
