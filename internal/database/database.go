// Package database provides PostgreSQL connection management and the schema
// for the city and feature flag tables.
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database connection configuration. An empty Host disables
// the database and the service runs on in-memory stores.
type Config struct {
	Host            string        `toml:"host"`
	Port            int           `toml:"port" validate:"omitempty,min=1,max=65535"`
	User            string        `toml:"user"`
	Password        string        `toml:"password"`
	Database        string        `toml:"name"`
	SSLMode         string        `toml:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `toml:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `toml:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `toml:"-"`
}

// DefaultConfig returns local development settings with no host set.
func DefaultConfig() Config {
	return Config{
		Port:            5432,
		User:            "auracast",
		Password:        "localdev",
		Database:        "auracast",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Enabled reports whether a database host is configured.
func (c Config) Enabled() bool {
	return c.Host != ""
}

// ConnectionString returns the PostgreSQL connection URL.
func (c Config) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns) //nolint:gosec // bounded by config validation
	}
	poolConfig.MinConns = int32(cfg.MaxIdleConns) //nolint:gosec // bounded by config validation
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Schema creates the tables used by the city and feature flag repositories.
const Schema = `
CREATE TABLE IF NOT EXISTS cities (
	key           TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	position      INTEGER NOT NULL DEFAULT 0,
	current_aqi   DOUBLE PRECISION NOT NULL,
	current_level TEXT NOT NULL,
	dominant_code TEXT NOT NULL,
	pm25          DOUBLE PRECISION NOT NULL CHECK (pm25 >= 0),
	pm10          DOUBLE PRECISION NOT NULL CHECK (pm10 >= 0),
	o3            DOUBLE PRECISION NOT NULL CHECK (o3 >= 0),
	no2           DOUBLE PRECISION NOT NULL CHECK (no2 >= 0),
	so2           DOUBLE PRECISION NOT NULL CHECK (so2 >= 0),
	co            DOUBLE PRECISION NOT NULL CHECK (co >= 0)
);

CREATE TABLE IF NOT EXISTS city_forecasts (
	city_key TEXT NOT NULL REFERENCES cities (key) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	day      TEXT NOT NULL,
	aqi      DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (city_key, position)
);

CREATE TABLE IF NOT EXISTS feature_flags (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate applies Schema. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
