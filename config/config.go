// Package config loads client configuration from defaults, an optional YAML
// file and OPENAPI_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultFile is read from the working directory when present
	DefaultFile = "openapi.yaml"
	// EnvPrefix marks environment variables that map to config keys
	EnvPrefix = "OPENAPI_"

	RegionDomestic = "cn"
	RegionGlobal   = "global"
)

// Load reads defaults, then DefaultFile if it exists, then the environment.
func Load() (*Config, error) {
	return LoadFile(DefaultFile)
}

// LoadFile is Load with an explicit YAML path. A missing file is skipped; an
// unreadable or malformed one is an error.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	if err := loadEnv(k, os.Environ); err != nil {
		return nil, err
	}

	return unmarshal(k)
}

// LoadBytes loads from an in-memory YAML document and an explicit environment
// in KEY=VALUE form. Either may be empty.
func LoadBytes(data []byte, environ []string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	if err := loadEnv(k, func() []string { return environ }); err != nil {
		return nil, err
	}

	return unmarshal(k)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"http.timeout":      "30s",
		"http.retry.max":    5,
		"http.retry.delay":  "100ms",
		"http.retry.factor": 2.0,
		"http.rate.limit":   0,
		"http.rate.burst":   1,

		"log.level":           "info",
		"log.pretty":          false,
		"log.payloads":        true,
		"log.maxpayloadbytes": 4096,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// loadEnv maps OPENAPI_HTTP_RETRY_MAX to http.retry.max.
func loadEnv(k *koanf.Koanf, environ func() []string) error {
	provider := env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			return strings.ReplaceAll(key, "_", "."), value
		},
		EnvironFunc: environ,
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
