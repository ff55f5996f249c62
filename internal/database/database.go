package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"example/waxroom/internal/logger"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the process-wide connection pool together with the SQL dialect
// its queries must be written in.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the store named by driver and dsn and verifies the
// connection with a ping.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	logger.Log.Debugw("Initializing database connection", "driver", driver)

	d, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	dsn, err = d.normalizeDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		logger.Log.Errorw("Failed to open database", "error", err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	if d == SQLite {
		// one writer at a time avoids SQLITE_BUSY inside transactions
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		logger.Log.Errorw("Failed to ping database", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Log.Infow("Database connection established", "driver", d.DriverName())
	return &DB{DB: db, Dialect: d}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	logger.Log.Debug("Closing database connection")
	err := db.DB.Close()
	if err != nil {
		logger.Log.Errorw("Error closing database", "error", err)
	} else {
		logger.Log.Info("Database connection closed")
	}
	return err
}

// Rebind rewrites a query written with ? placeholders for the dialect.
func (db *DB) Rebind(query string) string {
	return db.Dialect.Rebind(query)
}

func (d Dialect) normalizeDSN(dsn string) (string, error) {
	switch d {
	case MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", err
		}
		cfg.ParseTime = true
		cfg.MultiStatements = false
		return cfg.FormatDSN(), nil
	case SQLite:
		if !strings.Contains(dsn, "_foreign_keys") && !strings.Contains(dsn, "_fk") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_foreign_keys=on&_busy_timeout=5000"
		}
		return dsn, nil
	default:
		return dsn, nil
	}
}
