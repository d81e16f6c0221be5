package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:3000", cfg.ServerURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_url":      "http://json:1",
		"request_timeout": "3s",
	})

	cfg, err := Load([]string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, "http://json:1", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)

	cfg, err = Load([]string{"-c", path, "-a", "http://flag:2"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag:2", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = Load([]string{"-c", bad})
	assert.Error(t, err)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{name: "ok", args: []string{"-a", "http://127.0.0.1:9090", "-t", "5"},
			expected: &Config{ServerURL: "http://127.0.0.1:9090", RequestTimeout: 5 * time.Second}},
		{name: "foreign flags ignored", args: []string{"-x", "1", "-a", "http://h"},
			expected: &Config{ServerURL: "http://h", RequestTimeout: 0}},
		{name: "bad timeout", args: []string{"-t", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
