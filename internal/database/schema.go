package database

import (
	"context"
	"fmt"
	"strings"

	"example/waxroom/internal/logger"
)

// tables lists the DDL in dependency order. %[1]s is the auto-increment
// primary key column, %[2]s the timestamp type, %[3]s the boolean type.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id %[1]s,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(150) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		created_at %[2]s NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS albums (
		id %[1]s,
		title VARCHAR(200) NOT NULL,
		artist VARCHAR(150) NOT NULL,
		genre VARCHAR(80) NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		price DECIMAL(10,2) NOT NULL,
		cover_url VARCHAR(500) NOT NULL DEFAULT '',
		description TEXT,
		tracks INTEGER NOT NULL DEFAULT 10,
		rating DECIMAL(2,1) NOT NULL DEFAULT 4.0,
		featured %[3]s NOT NULL DEFAULT FALSE,
		new_release %[3]s NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id %[1]s,
		user_id BIGINT NOT NULL,
		album_id BIGINT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		UNIQUE (user_id, album_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (album_id) REFERENCES albums(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS saved_items (
		id %[1]s,
		user_id BIGINT NOT NULL,
		album_id BIGINT NOT NULL,
		UNIQUE (user_id, album_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (album_id) REFERENCES albums(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id %[1]s,
		user_id BIGINT NOT NULL,
		total DECIMAL(10,2) NOT NULL,
		status VARCHAR(50) NOT NULL DEFAULT 'pending',
		stripe_payment_intent_id VARCHAR(255),
		billing_name VARCHAR(200),
		billing_email VARCHAR(200),
		billing_address TEXT,
		billing_city VARCHAR(100),
		billing_state VARCHAR(100),
		billing_zip VARCHAR(20),
		billing_country VARCHAR(100) NOT NULL DEFAULT 'US',
		created_at %[2]s NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id %[1]s,
		order_id BIGINT NOT NULL,
		album_id BIGINT NOT NULL,
		quantity INTEGER NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
		FOREIGN KEY (album_id) REFERENCES albums(id) ON DELETE CASCADE
	)`,
}

func (d Dialect) schema() []string {
	pk, ts, boolean := "BIGINT AUTO_INCREMENT PRIMARY KEY", "DATETIME(6)", "BOOLEAN"
	switch d {
	case Postgres:
		pk, ts = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"
	case SQLite:
		pk, ts = "INTEGER PRIMARY KEY AUTOINCREMENT", "DATETIME"
	}
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, fmt.Sprintf(t, pk, ts, boolean))
	}
	return out
}

// Migrate creates any missing tables. Statements run one at a time because
// the MySQL driver rejects multi-statement strings by default.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range db.Dialect.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			name := strings.Fields(stmt)[5]
			logger.Log.Errorw("Failed to create table", "table", name, "error", err)
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	logger.Log.Debugw("Schema up to date", "tables", len(tables))
	return nil
}
