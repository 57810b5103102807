package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/matthieukhl/pocketpos/internal/config"
)

// DriverName is the database/sql driver of the embedded store
const DriverName = "sqlite"

func init() {
	// sqlx only knows "sqlite3" out of the box
	sqlx.BindDriver(DriverName, sqlx.QUESTION)
}

type DB struct {
	*sqlx.DB
}

// NewConnection opens the local SQLite store described by cfg
func NewConnection(cfg *config.DBConfig) (*DB, error) {
	db, err := sqlx.Open(DriverName, buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer: one connection serializes every statement
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// HealthCheck performs a simple health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

func buildDSN(cfg *config.DBConfig) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	params.Add("_txlock", "immediate")

	path := cfg.Path
	if path == "" {
		path = "pos.db"
	}
	return "file:" + path + "?" + params.Encode()
}
