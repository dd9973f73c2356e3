// Package server provides configuration helpers that define runtime defaults,
// validation, and environment loading for the room relay.
package server

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
)

const (
	defaultPort            = ":8080"
	defaultOrigin          = "http://localhost:8080"
	defaultMaxMessageSize  = 4096
	defaultSendBufferSize  = 256
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds the server configuration settings including security controls.
type Config struct {
	Env             string        `env:"APP_ENV,default=dev"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	Port            string        `env:"SERVER_PORT,default=:8080"`
	Origins         string        `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	CORSOrigins     string        `env:"CORS_ALLOWED_ORIGINS,default=*"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE,default=4096"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE,default=256"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() Config {
	return Config{
		Env:             "dev",
		LogLevel:        "info",
		Port:            defaultPort,
		Origins:         defaultOrigin,
		CORSOrigins:     "*",
		MaxMessageSize:  defaultMaxMessageSize,
		SendBufferSize:  defaultSendBufferSize,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// LoadConfig reads the configuration from the process environment and
// sanitizes the result.
func LoadConfig() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg.Sanitize(), nil
}

// Sanitize replaces empty or non-positive values with their defaults.
func (c Config) Sanitize() Config {
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = defaultSendBufferSize
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	return c
}

// AllowedOrigins returns the websocket origin allow-list.
func (c Config) AllowedOrigins() []string {
	return parseList(c.Origins)
}

// CORSAllowedOrigins returns the origins allowed to call the presence API.
func (c Config) CORSAllowedOrigins() []string {
	return parseList(c.CORSOrigins)
}

func parseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
