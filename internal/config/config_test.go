package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeEnv(vals map[string]string) Getenv {
	return func(key string) (string, bool) {
		v, ok := vals[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	require := require.New(t)
	cfg, err := FromEnv(fakeEnv(nil))
	require.NoError(err)
	require.Equal(Defaults(), cfg)
}

func TestFromEnvOverrides(t *testing.T) {
	require := require.New(t)
	cfg, err := FromEnv(fakeEnv(map[string]string{
		"CYPHERSQL_LISTEN_ADDR":    ":9090",
		"CYPHERSQL_CACHE_SIZE":     "64",
		"CYPHERSQL_CLICKHOUSE_DSN": "tcp://localhost:9000",
		"CYPHERSQL_LOG_LEVEL":      "debug",
		"CYPHERSQL_DEFAULT_SCHEMA": "social",
	}))
	require.NoError(err)
	require.Equal(":9090", cfg.ListenAddr)
	require.Equal(64, cfg.CacheSize)
	require.Equal("tcp://localhost:9000", cfg.ClickHouseDSN)
	require.Equal("debug", cfg.LogLevel)
	require.Equal("social", cfg.DefaultSchemaName)
}

func TestFromEnvRejectsNonNumericCacheSize(t *testing.T) {
	require := require.New(t)
	_, err := FromEnv(fakeEnv(map[string]string{"CYPHERSQL_CACHE_SIZE": "not-a-number"}))
	require.Error(err)
}

func TestFromEnvRejectsNonPositiveCacheSize(t *testing.T) {
	require := require.New(t)
	_, err := FromEnv(fakeEnv(map[string]string{"CYPHERSQL_CACHE_SIZE": "0"}))
	require.Error(err)
}
