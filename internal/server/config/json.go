package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/wastewatch/internal/flagx"
	"github.com/dmitrijs2005/wastewatch/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept both "15s" strings and integer nanoseconds. Absent fields keep
// the values already in Config.
type JsonConfig struct {
	EndpointAddrHTTP      *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	Environment           *string         `json:"environment"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	StorageTimeout        *timex.Duration `json:"storage_timeout"`
	ShutdownTimeout       *timex.Duration `json:"shutdown_timeout"`
	LogLevel              *string         `json:"log_level"`
	CORSOrigin            *string         `json:"cors_origin"`
}

// parseJson overlays values from the file given with -c or -config.
// Without such a flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.CORSOrigin, c.CORSOrigin)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.StorageTimeout != nil {
		config.StorageTimeout = c.StorageTimeout.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
