// Package database opens the Postgres pool shared by the import repositories.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"

	"tt2import/internal/config"
)

// reservedConns covers the connections a job needs outside its file workers:
// the guarded status writes and the health probe.
const reservedConns = 2

var sqlOpen = sql.Open

// BuildPostgresDSN builds a postgres:// URL from the config. The application name is
// sent as a runtime parameter so import sessions are recognizable in pg_stat_activity.
func BuildPostgresDSN(c config.DatabaseConfig) (string, error) {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", fmt.Errorf("invalid database config: host, port, user, and name are required")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   c.Host + ":" + c.Port,
		Path:   c.Name,
		User:   url.User(c.User),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}

	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.ApplicationName != "" {
		q.Set("application_name", c.ApplicationName)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// SizeForImports widens the pool so every file worker can hold a connection while
// the job record is still writable. Explicit settings that are already large enough
// are kept. A zero MaxOpenConns means unlimited and is left alone.
func SizeForImports(c config.DatabaseConfig, workers int) config.DatabaseConfig {
	if workers < 1 {
		workers = 1
	}
	if c.MaxOpenConns > 0 && c.MaxOpenConns < workers+reservedConns {
		c.MaxOpenConns = workers + reservedConns
	}
	if c.MaxIdleConns < workers {
		c.MaxIdleConns = workers
	}
	if c.MaxOpenConns > 0 && c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	return c
}

// NewPostgres opens a traced database/sql pool on the pgx stdlib driver, applies the
// pool settings and pings the server before returning.
func NewPostgres(c config.DatabaseConfig, log *zap.Logger) (*sql.DB, error) {
	dsn, err := BuildPostgresDSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL, semconv.DBName(c.Name)),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	applyPool(db, c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	log.Info("database connected",
		zap.String("component", "database"),
		zap.String("db_host", c.Host),
		zap.String("db_name", c.Name),
		zap.String("application_name", c.ApplicationName),
		zap.Int("max_open_conns", c.MaxOpenConns),
		zap.Int("max_idle_conns", c.MaxIdleConns),
	)
	return db, nil
}

func applyPool(db *sql.DB, c config.DatabaseConfig) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}
	if c.ConnMaxIdleTimeSec > 0 {
		db.SetConnMaxIdleTime(time.Duration(c.ConnMaxIdleTimeSec) * time.Second)
	}
}
