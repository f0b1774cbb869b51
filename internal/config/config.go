// Package config holds the shared configuration blocks embedded by the
// binaries' envconf-loaded config structs.
package config

import "time"

// PostgresConfig carries the wallet database DSN and pool limits. All
// fields are required in the environment; pool knobs of 0 leave the
// database/sql defaults in place.
type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME"`
}
