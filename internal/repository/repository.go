package repository

import (
	"context"
	"database/sql"
	"errors"

	"example/waxroom/internal/database"
	"example/waxroom/internal/logger"
)

var (
	// ErrNotFound is returned when a lookup matches no row owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert or update hits a unique key.
	ErrDuplicate = errors.New("duplicate key")
	// ErrEmptyCart is returned by checkout when the cart snapshot has no lines.
	ErrEmptyCart = errors.New("cart is empty")
)

// Repository runs the storefront's SQL against a single connection pool.
type Repository struct {
	db *database.DB
}

// New returns a Repository bound to db.
func New(db *database.DB) *Repository {
	return &Repository{db: db}
}

// q rebinds a ?-placeholder query for the configured dialect.
func (r *Repository) q(query string) string {
	return r.db.Rebind(query)
}

type scanner interface {
	Scan(dest ...any) error
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error.
func (r *Repository) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Log.Errorw("Failed to begin transaction", "op", op, "error", err)
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Log.Errorw("Rollback failed", "op", op, "error", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
