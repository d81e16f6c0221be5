package config

import (
	"fmt"
	"time"
)

// Environment variables read by parseEnv.
const (
	EnvPort           = "PORT"
	EnvDatabaseDSN    = "DATABASE_DSN"
	EnvSecretKey      = "JWT_SECRET"
	EnvAppEnv         = "APP_ENV"
	EnvGRPCAddr       = "GRPC_HEALTH_ADDR"
	EnvStorageTimeout = "STORAGE_TIMEOUT"
	EnvTokenValidity  = "TOKEN_VALIDITY"
	EnvLogLevel       = "LOG_LEVEL"
	EnvCORSOrigin     = "CORS_ORIGIN"
)

// parseEnv overlays values from the environment. PORT only carries the
// port number; the API then listens on all interfaces.
func parseEnv(config *Config, lookupEnv func(string) (string, bool)) error {
	if lookupEnv == nil {
		return nil
	}

	if v, ok := lookupEnv(EnvPort); ok && v != "" {
		config.EndpointAddrHTTP = ":" + v
	}
	if v, ok := lookupEnv(EnvDatabaseDSN); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := lookupEnv(EnvSecretKey); ok && v != "" {
		config.SecretKey = v
	}
	if v, ok := lookupEnv(EnvAppEnv); ok && v != "" {
		config.Environment = v
	}
	if v, ok := lookupEnv(EnvGRPCAddr); ok {
		config.EndpointAddrGRPC = v
	}
	if v, ok := lookupEnv(EnvLogLevel); ok && v != "" {
		config.LogLevel = v
	}
	if v, ok := lookupEnv(EnvCORSOrigin); ok && v != "" {
		config.CORSOrigin = v
	}

	if err := envDuration(lookupEnv, EnvStorageTimeout, &config.StorageTimeout); err != nil {
		return err
	}
	return envDuration(lookupEnv, EnvTokenValidity, &config.TokenValidityDuration)
}

func envDuration(lookupEnv func(string) (string, bool), name string, dst *time.Duration) error {
	v, ok := lookupEnv(name)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
