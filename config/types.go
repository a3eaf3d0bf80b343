package config

import "time"

// Config is the client configuration.
type Config struct {
	App  AppConfig  `koanf:"app" json:"app" yaml:"app"`
	HTTP HTTPConfig `koanf:"http" json:"http" yaml:"http"`
	Log  LogConfig  `koanf:"log" json:"log" yaml:"log"`
}

// AppConfig holds the credentials issued for the application.
type AppConfig struct {
	Key         string `koanf:"key" json:"key" yaml:"key" validate:"required"`
	Secret      string `koanf:"secret" json:"-" yaml:"secret" validate:"required"`
	AccessToken string `koanf:"accesstoken" json:"-" yaml:"accesstoken" validate:"required"`
}

// HTTPConfig controls how requests reach the gateway.
type HTTPConfig struct {
	// URL overrides region detection when set
	URL string `koanf:"url" json:"url" yaml:"url" validate:"omitempty,http_url"`
	// Region pins the gateway: "cn" for domestic, "global" for international, empty to detect
	Region  string            `koanf:"region" json:"region" yaml:"region" validate:"omitempty,oneof=cn global"`
	Timeout time.Duration     `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`
	Headers map[string]string `koanf:"headers" json:"headers" yaml:"headers"`
	Retry   RetryConfig       `koanf:"retry" json:"retry" yaml:"retry"`
	Rate    RateConfig        `koanf:"rate" json:"rate" yaml:"rate"`
}

// RetryConfig is the backoff schedule used after a 429 response.
type RetryConfig struct {
	Max    int           `koanf:"max" json:"max" yaml:"max" validate:"gte=0,lte=20"`
	Delay  time.Duration `koanf:"delay" json:"delay" yaml:"delay" validate:"gt=0"`
	Factor float64       `koanf:"factor" json:"factor" yaml:"factor" validate:"gte=1"`
}

// RateConfig paces requests client-side. A zero limit disables pacing.
type RateConfig struct {
	// Limit is requests per second
	Limit float64 `koanf:"limit" json:"limit" yaml:"limit" validate:"gte=0"`
	Burst int     `koanf:"burst" json:"burst" yaml:"burst" validate:"gte=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
	// Payloads enables debug-level header and body logging
	Payloads        bool `koanf:"payloads" json:"payloads" yaml:"payloads"`
	MaxPayloadBytes int  `koanf:"maxpayloadbytes" json:"maxpayloadbytes" yaml:"maxpayloadbytes" validate:"gte=0"`
}

// Domestic reports whether Region pins the domestic gateway. known is false
// when the region should be detected.
func (c *HTTPConfig) Domestic() (domestic, known bool) {
	switch c.Region {
	case RegionDomestic:
		return true, true
	case RegionGlobal:
		return false, true
	default:
		return false, false
	}
}
