package region

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gaborage/go-openapi/logger"
)

const (
	// DefaultProbeURL answers with the caller's country
	DefaultProbeURL = "https://api.lbkrs.com/_ping"
	// DefaultProbeTimeout bounds a single probe
	DefaultProbeTimeout = 5 * time.Second

	headerGeoCountry = "X-Geo-Country"
	domesticCountry  = "CN"
	maxProbeBody     = 64
)

// ProbeConfig configures a Probe. Zero values select defaults.
type ProbeConfig struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
	Logger  logger.Logger
}

// Probe asks a geo endpoint once and remembers the answer for the life of the
// process. Failed probes are not cached, so the next call tries again.
type Probe struct {
	cfg   ProbeConfig
	group singleflight.Group

	mu       sync.RWMutex
	resolved bool
	domestic bool
}

// NewProbe creates a Probe.
func NewProbe(cfg ProbeConfig) *Probe {
	if cfg.URL == "" {
		cfg.URL = DefaultProbeURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultProbeTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Probe{cfg: cfg}
}

// Lookup implements Source.
func (p *Probe) Lookup(ctx context.Context) (domestic, known bool) {
	if domestic, ok := p.cached(); ok {
		return domestic, true
	}

	v, err, _ := p.group.Do("probe", func() (any, error) {
		if domestic, ok := p.cached(); ok {
			return domestic, nil
		}
		domestic, err := p.probe(ctx)
		if err != nil {
			return false, err
		}
		p.mu.Lock()
		p.resolved, p.domestic = true, domestic
		p.mu.Unlock()
		return domestic, nil
	})
	if err != nil {
		p.cfg.Logger.Warn().Err(err).Str("probe_url", p.cfg.URL).Msg("region probe failed")
		return false, false
	}
	return v.(bool), true
}

func (p *Probe) cached() (domestic, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.domestic, p.resolved
}

// IsDomestic implements Detector; an unknown answer means international.
func (p *Probe) IsDomestic(ctx context.Context) bool {
	domestic, _ := p.Lookup(ctx)
	return domestic
}

func (p *Probe) probe(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("build probe request: %w", err)
	}

	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("probe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("probe status %d", resp.StatusCode)
	}

	if strings.EqualFold(resp.Header.Get(headerGeoCountry), domesticCountry) {
		return true, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return false, fmt.Errorf("read probe body: %w", err)
	}
	return strings.EqualFold(strings.Trim(strings.TrimSpace(string(body)), `"`), domesticCountry), nil
}
