// Package db opens the Postgres pool the netclub stores run on.
package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultMaxOpenConns = 25
	connMaxLifetime     = time.Hour
	connMaxIdleTime     = 30 * time.Minute
	pingTimeout         = 5 * time.Second
)

// NewPostgresDB opens a pgx-backed *sql.DB, sizes the pool and verifies
// the connection with a ping. maxOpen <= 0 falls back to the default
// pool size; idle connections are capped at a fifth of the pool so a
// quiet club does not hold connections the database could give to
// someone else.
func NewPostgresDB(dsn string, maxOpen int) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("db: postgres dsn is empty")
	}
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := maxOpen / 5
	if maxIdle < 1 {
		maxIdle = 1
	}

	pool, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxIdle)
	pool.SetConnMaxLifetime(connMaxLifetime)
	pool.SetConnMaxIdleTime(connMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
