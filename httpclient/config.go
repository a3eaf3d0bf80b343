package httpclient

import (
	"golang.org/x/time/rate"

	"github.com/gaborage/go-openapi/config"
	"github.com/gaborage/go-openapi/logger"
	"github.com/gaborage/go-openapi/region"
)

// Option customizes a Builder prepared by FromConfig.
type Option func(*Builder)

// FromConfig builds a client from loaded configuration. Options run last and
// can replace anything the configuration set.
func FromConfig(cfg *config.Config, log logger.Logger, opts ...Option) *Client {
	b := NewBuilder(log).
		WithCredentials(cfg.App.Key, cfg.App.Secret, cfg.App.AccessToken).
		WithBaseURL(cfg.HTTP.URL).
		WithTimeout(cfg.HTTP.Timeout).
		WithRetries(cfg.HTTP.Retry.Max, cfg.HTTP.Retry.Delay, cfg.HTTP.Retry.Factor).
		WithLogPayloads(cfg.Log.Payloads, cfg.Log.MaxPayloadBytes)

	for key, value := range cfg.HTTP.Headers {
		b.WithDefaultHeader(key, value)
	}

	if domestic, known := cfg.HTTP.Domestic(); known {
		b.WithRegion(region.Static(domestic))
	}

	if cfg.HTTP.Rate.Limit > 0 {
		burst := max(cfg.HTTP.Rate.Burst, 1)
		b.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.HTTP.Rate.Limit), burst))
	}

	for _, opt := range opts {
		opt(b)
	}
	return b.Build()
}
