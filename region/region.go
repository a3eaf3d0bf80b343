// Package region decides whether calls should go to the domestic (mainland
// China) gateway or the international one.
package region

import (
	"context"
	"os"
	"strings"
)

// EnvRegion overrides detection: "cn" selects the domestic gateway, any other
// non-empty value selects the international one.
const EnvRegion = "OPENAPI_REGION"

// Detector answers whether the caller is in the domestic jurisdiction.
type Detector interface {
	IsDomestic(ctx context.Context) bool
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context) bool

// IsDomestic calls f.
func (f DetectorFunc) IsDomestic(ctx context.Context) bool {
	return f(ctx)
}

// Static always returns domestic.
func Static(domestic bool) Detector {
	return DetectorFunc(func(context.Context) bool { return domestic })
}

// Source is one opinion in a Chain. known is false when the source cannot tell.
type Source interface {
	Lookup(ctx context.Context) (domestic, known bool)
}

// Chain asks each source in order and returns the first known answer, or
// false when none knows.
func Chain(sources ...Source) Detector {
	return DetectorFunc(func(ctx context.Context) bool {
		for _, s := range sources {
			if domestic, known := s.Lookup(ctx); known {
				return domestic
			}
		}
		return false
	})
}

// Env reads EnvRegion.
type Env struct {
	// LookupEnv defaults to os.LookupEnv
	LookupEnv func(key string) (string, bool)
}

// Lookup implements Source.
func (e Env) Lookup(context.Context) (domestic, known bool) {
	lookup := e.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(EnvRegion)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return false, false
	}
	return strings.EqualFold(v, "cn"), true
}

// Default checks the environment first and falls back to a network probe.
func Default() Detector {
	return Chain(Env{}, NewProbe(ProbeConfig{}))
}
