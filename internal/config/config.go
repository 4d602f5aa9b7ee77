// Package config resolves process-wide server configuration (cache bound,
// listen address, ClickHouse DSN, log level) from environment variables.
// Env vars always arrive as strings; github.com/spf13/cast does the same
// loosely-typed-value-to-concrete-Go-type coercion job here that the
// teacher's own go.mod carries it for (coercing a session variable's
// stored value to the type its consumer expects), applied to
// CYPHERSQL_CACHE_SIZE et al. instead.
package config

import (
	"fmt"

	"github.com/spf13/cast"
)

// Config is the full set of process-wide settings cmd/graphqld reads once
// at startup.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8080".
	ListenAddr string
	// DefaultSchemaName is used when a request names no schema.
	DefaultSchemaName string
	// CacheSize bounds the compiled-SQL LRU (internal/compiler.NewWithCacheSize).
	CacheSize int
	// ClickHouseDSN is handed to database/sql.Open by whatever wires up the
	// QueryExecutor; the core itself never opens it.
	ClickHouseDSN string
	// LogLevel is a logrus.ParseLevel-compatible string ("debug", "info", ...).
	LogLevel string
}

// Defaults returns the configuration used when no environment variable
// overrides it.
func Defaults() Config {
	return Config{
		ListenAddr:        ":8080",
		DefaultSchemaName: "default",
		CacheSize:         1024,
		ClickHouseDSN:     "",
		LogLevel:          "info",
	}
}

// Getenv matches os.LookupEnv's signature, accepted as a parameter so
// FromEnv is testable without mutating process environment state.
type Getenv func(key string) (string, bool)

// FromEnv resolves a Config starting from Defaults, overriding each field
// whenever getenv reports the corresponding CYPHERSQL_* variable set.
// A malformed or non-positive CYPHERSQL_CACHE_SIZE (the only numeric field;
// there are no boolean fields) is reported as an error rather than
// silently falling back to the default, since a typo'd bound is more
// likely an operator mistake than an intentional empty override.
func FromEnv(getenv Getenv) (Config, error) {
	cfg := Defaults()

	if v, ok := getenv("CYPHERSQL_LISTEN_ADDR"); ok && v != "" {
		cfg.ListenAddr = v
	}
	if v, ok := getenv("CYPHERSQL_DEFAULT_SCHEMA"); ok && v != "" {
		cfg.DefaultSchemaName = v
	}
	if v, ok := getenv("CYPHERSQL_CACHE_SIZE"); ok && v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return cfg, fmt.Errorf("CYPHERSQL_CACHE_SIZE: %w", err)
		}
		if n <= 0 {
			return cfg, fmt.Errorf("CYPHERSQL_CACHE_SIZE: must be positive, got %d", n)
		}
		cfg.CacheSize = n
	}
	if v, ok := getenv("CYPHERSQL_CLICKHOUSE_DSN"); ok && v != "" {
		cfg.ClickHouseDSN = v
	}
	if v, ok := getenv("CYPHERSQL_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}
