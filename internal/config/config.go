// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	CSV      CSVConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on; PORT is honoured as a fallback (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0, streaming responses)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// CSVConfig holds the default dialect and input handling.
type CSVConfig struct {
	// FieldDelimiter separates fields (default: ,)
	FieldDelimiter string `env:"CSV_FIELD_DELIMITER" default:","`

	// FieldEnclosure quotes fields (default: ")
	FieldEnclosure string `env:"CSV_FIELD_ENCLOSURE" default:"\""`

	// NoEnclosure disables quoting entirely (default: false)
	NoEnclosure bool `env:"CSV_NO_ENCLOSURE" default:"false"`

	// LineDelimiter ends each line; \n, \r and \t escapes are honoured (default: \n)
	LineDelimiter string `env:"CSV_LINE_DELIMITER" default:"\\n"`

	// EncodingMode is basic, strict or none (default: basic)
	EncodingMode string `env:"CSV_ENCODING_MODE" default:"basic"`

	// PipelineFile is an optional TOML file describing the middleware pipeline
	PipelineFile string `env:"CSV_PIPELINE_FILE"`
}

// UploadConfig holds request body and conversion settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed request body in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel conversions (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for a conversion slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for conversion endpoints (default: 20)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// APIKeys, when set, are required in the X-API-Key header on /api routes
	APIKeys []string `env:"API_KEYS"`
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
	return c.Host + ":" + strconv.Itoa(c.Port)
}

var lineEscapes = strings.NewReplacer(`\r`, "\r", `\n`, "\n", `\t`, "\t")

// UnescapeLine expands the \r, \n and \t escapes accepted wherever a line
// delimiter is configured as text.
func UnescapeLine(s string) string {
	return lineEscapes.Replace(s)
}

// Line returns LineDelimiter with escape sequences expanded.
func (c *CSVConfig) Line() string {
	return UnescapeLine(c.LineDelimiter)
}

// Delimiter returns the field delimiter rune.
func (c *CSVConfig) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.FieldDelimiter)
	return r
}

// Enclosure returns the enclosure rune, or 0 when quoting is disabled.
func (c *CSVConfig) Enclosure() rune {
	if c.NoEnclosure || c.FieldEnclosure == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(c.FieldEnclosure)
	return r
}
