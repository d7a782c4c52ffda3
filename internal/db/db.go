// Package db opens the shared Postgres connection pool used by every
// repository, following the Config.Validate/ToUri/sql.Open("pgx", ...)
// shape of go/materialize/driver/postgres/driver.go.
package db

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/jackc/pgx/v4/stdlib"

	"github.com/eduflow/certflow/internal/config"
)

// Open builds and validates a *sql.DB against the given configuration. The
// pgx stdlib driver is registered as "pgx" by the blank import above.
func Open(cfg config.Config) (*sql.DB, error) {
	if cfg.DB.Host == "" {
		return nil, fmt.Errorf("missing database configuration property: 'host'")
	}
	if cfg.DB.User == "" {
		return nil, fmt.Errorf("missing database configuration property: 'user'")
	}

	db, err := sql.Open("pgx", toURI(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DB.MaxConns)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres database: %w", err)
	}
	return db, nil
}

func toURI(cfg config.Config) string {
	var host = cfg.DB.Host
	if cfg.DB.Port != 0 {
		host = fmt.Sprintf("%s:%d", host, cfg.DB.Port)
	}
	var uri = url.URL{
		Scheme: "postgres",
		Host:   host,
		User:   url.UserPassword(cfg.DB.User, cfg.DB.Password),
		Path:   "/" + cfg.DB.DBName,
	}
	return uri.String()
}
