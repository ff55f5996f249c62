package repository

import (
	"context"
	"database/sql"
	"fmt"

	"example/waxroom/internal/database"
	"example/waxroom/internal/logger"
	"example/waxroom/internal/models"
)

// Cart database operations

const cartQuery = "SELECT " + albumColumns + `, ci.id, ci.quantity
	FROM cart_items ci JOIN albums a ON ci.album_id = a.id
	WHERE ci.user_id = ? ORDER BY ci.id`

// ListCart returns the user's cart lines joined with album details
func (r *Repository) ListCart(ctx context.Context, userID int64) ([]models.CartLine, error) {
	lines, err := r.cartLines(ctx, r.db, userID)
	if err != nil {
		logger.Log.Errorw("Failed to list cart", "user_id", userID, "error", err)
		return nil, fmt.Errorf("listCart %d: %w", userID, err)
	}
	return lines, nil
}

func (r *Repository) cartLines(ctx context.Context, q database.Querier, userID int64) ([]models.CartLine, error) {
	rows, err := q.QueryContext(ctx, r.q(cartQuery), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var line models.CartLine
		alb, err := scanAlbum(rows, &line.CartItemID, &line.Quantity)
		if err != nil {
			return nil, err
		}
		line.Album = alb
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// AddToCart inserts the album with quantity qty, or adds qty to the
// existing line for the same album
func (r *Repository) AddToCart(ctx context.Context, userID, albumID int64, qty int) error {
	if _, err := r.db.ExecContext(ctx, r.db.Dialect.UpsertCartItem(), userID, albumID, qty); err != nil {
		logger.Log.Errorw("Failed to add to cart", "user_id", userID, "album_id", albumID, "quantity", qty, "error", err)
		return fmt.Errorf("addToCart: %w", err)
	}
	logger.Log.Debugw("Cart line upserted", "user_id", userID, "album_id", albumID, "quantity", qty)
	return nil
}

// SetCartQuantity overwrites the quantity of a line; a non-positive
// quantity removes the line instead
func (r *Repository) SetCartQuantity(ctx context.Context, userID, albumID int64, qty int) error {
	if qty <= 0 {
		return r.RemoveFromCart(ctx, userID, albumID)
	}
	_, err := r.db.ExecContext(ctx, r.q("UPDATE cart_items SET quantity = ? WHERE user_id = ? AND album_id = ?"),
		qty, userID, albumID)
	if err != nil {
		logger.Log.Errorw("Failed to set cart quantity", "user_id", userID, "album_id", albumID, "error", err)
		return fmt.Errorf("setCartQuantity: %w", err)
	}
	return nil
}

// RemoveFromCart deletes a single line; missing lines are ignored
func (r *Repository) RemoveFromCart(ctx context.Context, userID, albumID int64) error {
	_, err := r.db.ExecContext(ctx, r.q("DELETE FROM cart_items WHERE user_id = ? AND album_id = ?"), userID, albumID)
	if err != nil {
		logger.Log.Errorw("Failed to remove cart line", "user_id", userID, "album_id", albumID, "error", err)
		return fmt.Errorf("removeFromCart: %w", err)
	}
	return nil
}

// ClearCart deletes every line in the user's cart
func (r *Repository) ClearCart(ctx context.Context, userID int64) error {
	if err := r.clearCart(ctx, r.db, userID); err != nil {
		logger.Log.Errorw("Failed to clear cart", "user_id", userID, "error", err)
		return fmt.Errorf("clearCart: %w", err)
	}
	return nil
}

func (r *Repository) clearCart(ctx context.Context, q database.Querier, userID int64) error {
	_, err := q.ExecContext(ctx, r.q("DELETE FROM cart_items WHERE user_id = ?"), userID)
	return err
}

var _ database.Querier = (*sql.Tx)(nil)
