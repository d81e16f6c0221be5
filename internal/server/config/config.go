// Package config handles configuration for the server component:
// defaults, an optional JSON file, environment variables and command-line
// flags, applied in that order, followed by validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	// EnvDevelopment is the only environment in which DefaultSecretKey is
	// accepted.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DefaultSecretKey is a local-development signing key. Validate rejects it
	// everywhere else.
	DefaultSecretKey = "fallback_secret_change_me"

	// DefaultTokenValidity is the fixed lifetime of a session token.
	DefaultTokenValidity = 24 * time.Hour

	DefaultStorageTimeout = 5 * time.Second
)

var (
	ErrMissingDSN      = errors.New("database DSN is not configured")
	ErrInsecureSecret  = errors.New("signing secret must be set outside development")
	ErrInvalidValidity = errors.New("token validity must be positive")
)

// Config holds runtime settings for the server.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the JSON API.
//   - EndpointAddrGRPC: bind address of the gRPC health service; empty disables it.
//   - DatabaseDSN: storage connection string (postgres://, sqlite://, memory://).
//   - SecretKey: HMAC secret for signing session tokens (HS256).
//   - Environment: "development" or anything else (treated as production).
//   - TokenValidityDuration: session token lifetime.
//   - StorageTimeout: upper bound for a single storage call.
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
//   - LogLevel: debug, info, warn or error.
//   - CORSOrigin: value of Access-Control-Allow-Origin.
type Config struct {
	EndpointAddrHTTP      string
	EndpointAddrGRPC      string
	DatabaseDSN           string
	SecretKey             string
	Environment           string
	TokenValidityDuration time.Duration
	StorageTimeout        time.Duration
	ShutdownTimeout       time.Duration
	LogLevel              string
	CORSOrigin            string
}

// LoadDefaults populates Config with defaults. DatabaseDSN is left empty and
// Environment is production, so the built-in secret is only accepted after
// development mode is selected explicitly.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":3000"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = DefaultSecretKey
	c.Environment = EnvProduction
	c.TokenValidityDuration = DefaultTokenValidity
	c.StorageTimeout = DefaultStorageTimeout
	c.ShutdownTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.CORSOrigin = "*"
}

// IsDevelopment reports whether the process runs in local development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return ErrMissingDSN
	}
	if c.SecretKey == "" || (!c.IsDevelopment() && c.SecretKey == DefaultSecretKey) {
		return ErrInsecureSecret
	}
	if c.TokenValidityDuration <= 0 {
		return ErrInvalidValidity
	}
	return nil
}

// Load builds a Config from defaults, then overlays the JSON file named by
// -c/-config, the environment and finally the flags found in args.
// The result is validated before it is returned.
func Load(args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg, lookupEnv); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}
