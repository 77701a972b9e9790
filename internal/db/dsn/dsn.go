// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/idsync/idsync/internal/config"
)

const (
	defaultSQLitePath = "idsync.db"
	defaultSSLMode    = "disable"
)

// Create builds the Data Source Name of the configured engine.
func Create(cfg *config.Config) string {
	switch cfg.DB.GormEngine {
	case config.EnginePostgres:
		return Postgres(cfg.DB)
	case config.EngineSQLite:
		return SQLite(cfg.DB)
	default:
		return MySQL(cfg.DB)
	}
}

// MySQL builds a go-sql-driver DSN, e.g. user:pass@tcp(host:3306)/name?parseTime=True.
func MySQL(db config.DB) string {
	out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
	)

	if db.Extras != "" {
		out += "?" + db.Extras
	}

	return out
}

// Postgres builds a postgres connection URI. Extras are added as query parameters.
func Postgres(db config.DB) string {
	q, err := url.ParseQuery(db.Extras)
	if err != nil {
		q = url.Values{}
	}

	sslMode := db.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	q.Set("sslmode", sslMode)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:     "/" + db.Name,
		RawQuery: q.Encode(),
	}

	return u.String()
}

// SQLite returns the database file, defaulting to idsync.db.
func SQLite(db config.DB) string {
	path := db.Path
	if path == "" {
		path = defaultSQLitePath
	}

	if db.Extras != "" {
		path += "?" + db.Extras
	}

	return path
}
