// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Session  SessionConfig
	Scryfall ScryfallConfig
	Forex    ForexConfig
	Pricing  PricingConfig
	Shopify  ShopifyConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 120s,
	// set-wide enrichment can be slow)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"120s"`
}

// SessionConfig bounds per-session merge state. Every session's files are
// held fully in memory, so these limits cap process memory.
type SessionConfig struct {
	// MaxFiles is the maximum uploaded files per session (default: 20)
	MaxFiles int `env:"SESSION_MAX_FILES" default:"20"`

	// MaxFileSize is the maximum allowed file size in bytes (default: 50MB)
	MaxFileSize int64 `env:"SESSION_MAX_FILE_SIZE" default:"52428800"`

	// TTL is how long an idle session is kept (default: 2h)
	TTL time.Duration `env:"SESSION_TTL" default:"2h"`

	// SweepInterval is how often expired sessions are collected (default: 5m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`
}

// ScryfallConfig holds card catalog client settings.
type ScryfallConfig struct {
	// BaseURL is the catalog API root (default: https://api.scryfall.com)
	BaseURL string `env:"SCRYFALL_BASE_URL" default:"https://api.scryfall.com"`

	// Timeout is the per-request timeout (default: 15s)
	Timeout time.Duration `env:"SCRYFALL_TIMEOUT" default:"15s"`

	// Throttle is the delay between consecutive requests; the catalog asks
	// clients to stay under ~10 requests/second (default: 100ms)
	Throttle time.Duration `env:"SCRYFALL_THROTTLE" default:"100ms"`
}

// ForexConfig holds currency conversion client settings.
type ForexConfig struct {
	// BaseURL is the exchange-rate API root (default: https://api.frankfurter.app)
	BaseURL string `env:"FOREX_BASE_URL" default:"https://api.frankfurter.app"`

	// From is the source currency of catalog prices (default: USD)
	From string `env:"FOREX_FROM" default:"USD"`

	// To is the target currency for listed prices (default: ZAR)
	To string `env:"FOREX_TO" default:"ZAR"`

	// Timeout is the per-request timeout (default: 10s)
	Timeout time.Duration `env:"FOREX_TIMEOUT" default:"10s"`
}

// PricingConfig holds listed-price calculation settings.
type PricingConfig struct {
	// VATPercent is the value-added tax applied on top of the converted
	// price (default: 15)
	VATPercent int `env:"PRICING_VAT_PERCENT" default:"15"`
}

// ShopifyConfig holds marketplace upload settings. Store and token are
// only required when the upload endpoint is used.
type ShopifyConfig struct {
	// Store is the myshopify domain, e.g. topdeck.myshopify.com
	Store string `env:"SHOPIFY_STORE"`

	// AccessToken is the Admin API access token
	AccessToken string `env:"SHOPIFY_ADMIN_API_ACCESS_TOKEN"`

	// APIVersion is the Admin API version (default: 2023-10)
	APIVersion string `env:"SHOPIFY_API_VERSION" default:"2023-10"`

	// Timeout is the per-request timeout (default: 30s)
	Timeout time.Duration `env:"SHOPIFY_TIMEOUT" default:"30s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
