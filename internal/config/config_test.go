package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "checkin.db", cfg.DBPath)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, 4, cfg.VerifyConcurrency)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CHECKIN_DB_PATH", "/var/lib/checkin/event.db")
	t.Setenv("CHECKIN_STORE", "memory")
	t.Setenv("CHECKIN_LOG_LEVEL", "DEBUG")
	t.Setenv("CHECKIN_LOG_FORMAT", "json")
	t.Setenv("CHECKIN_VERIFY_CONCURRENCY", "16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/checkin/event.db", cfg.DBPath)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, 16, cfg.VerifyConcurrency)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("CHECKIN_VERIFY_CONCURRENCY", "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	base := Config{DBPath: "x.db", Store: StoreSQLite, LogLevel: "info", LogFormat: LogFormatText, VerifyConcurrency: 1}
	require.NoError(t, base.Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"store", func(c *Config) { c.Store = "postgres" }, `invalid store "postgres"`},
		{"format", func(c *Config) { c.LogFormat = "xml" }, `invalid log format "xml"`},
		{"level", func(c *Config) { c.LogLevel = "loud" }, `invalid log level "loud"`},
		{"db path", func(c *Config) { c.DBPath = " " }, "database path is required"},
		{"concurrency", func(c *Config) { c.VerifyConcurrency = 0 }, "verify concurrency must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_MemoryStoreNeedsNoPath(t *testing.T) {
	cfg := Config{Store: StoreMemory, LogLevel: "warn", LogFormat: LogFormatJSON, VerifyConcurrency: 2}
	assert.NoError(t, cfg.Validate())
}

func TestDefault_IgnoresEnvironment(t *testing.T) {
	t.Setenv("CHECKIN_STORE", "memory")

	cfg := Default()
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "checkin.db", cfg.DBPath)
	assert.NoError(t, cfg.Validate())
}
