package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Dialect identifies the SQL flavour spoken by the configured store.
type Dialect int

const (
	MySQL Dialect = iota
	Postgres
	SQLite
)

// ParseDialect maps a DB_DRIVER value to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql", "":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return 0, fmt.Errorf("unsupported database driver %q", driver)
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case SQLite:
		return "sqlite3"
	default:
		return "mysql"
	}
}

func (d Dialect) String() string { return d.DriverName() }

// Rebind converts ? placeholders to $n for Postgres.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UpsertCartItem inserts a cart row or adds to the existing quantity.
// Arguments: user_id, album_id, quantity.
func (d Dialect) UpsertCartItem() string {
	if d == MySQL {
		return `INSERT INTO cart_items (user_id, album_id, quantity) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`
	}
	return d.Rebind(`INSERT INTO cart_items (user_id, album_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT (user_id, album_id) DO UPDATE SET quantity = cart_items.quantity + excluded.quantity`)
}

// InsertSavedItem inserts a wishlist row, ignoring duplicates.
// Arguments: user_id, album_id.
func (d Dialect) InsertSavedItem() string {
	if d == MySQL {
		return `INSERT IGNORE INTO saved_items (user_id, album_id) VALUES (?, ?)`
	}
	return d.Rebind(`INSERT INTO saved_items (user_id, album_id) VALUES (?, ?) ON CONFLICT DO NOTHING`)
}

// InsertID runs an INSERT and returns the generated id. Postgres has no
// LastInsertId, so the statement gets a RETURNING clause there instead.
func (d Dialect) InsertID(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	if d == Postgres {
		var id int64
		err := q.QueryRowContext(ctx, d.Rebind(query)+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// IsUniqueViolation reports whether err is a unique-constraint failure
// from any of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
