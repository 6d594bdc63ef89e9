// Package db opens the process-wide DuckDB connection.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	instance *sql.DB
	once     sync.Once
	initErr  error
)

// Config holds database configuration. An empty DataDir keeps the database
// in memory, which is all a session-scoped catalog needs.
type Config struct {
	DataDir string
	DBName  string
}

// DSN returns the DuckDB data source name for cfg, creating the data
// directory when needed.
func (cfg Config) DSN() (string, error) {
	if cfg.DataDir == "" {
		return "", nil
	}
	duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
	if err := os.MkdirAll(duckdbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create duckdb directory: %w", err)
	}
	return filepath.Join(duckdbDir, cfg.DBName+".duckdb"), nil
}

// Open opens a new DuckDB connection for cfg.
func Open(cfg Config) (*sql.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	return conn, nil
}

// Get returns the singleton DuckDB connection.
func Get(cfg Config) (*sql.DB, error) {
	once.Do(func() {
		instance, initErr = Open(cfg)
	})
	return instance, initErr
}

// Close closes the singleton connection.
func Close() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}
