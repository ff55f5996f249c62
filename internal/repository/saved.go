package repository

import (
	"context"
	"database/sql"
	"fmt"

	"example/waxroom/internal/logger"
	"example/waxroom/internal/models"
)

// Saved item (wishlist) database operations

// ListSaved returns the user's saved albums
func (r *Repository) ListSaved(ctx context.Context, userID int64) ([]models.SavedAlbum, error) {
	rows, err := r.db.QueryContext(ctx, r.q("SELECT "+albumColumns+`, si.id
		FROM saved_items si JOIN albums a ON si.album_id = a.id
		WHERE si.user_id = ? ORDER BY si.id`), userID)
	if err != nil {
		logger.Log.Errorw("Failed to list saved items", "user_id", userID, "error", err)
		return nil, fmt.Errorf("listSaved %d: %w", userID, err)
	}
	defer rows.Close()

	saved := []models.SavedAlbum{}
	for rows.Next() {
		var s models.SavedAlbum
		alb, err := scanAlbum(rows, &s.SavedItemID)
		if err != nil {
			return nil, fmt.Errorf("listSaved %d: %w", userID, err)
		}
		s.Album = alb
		saved = append(saved, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listSaved %d: %w", userID, err)
	}
	return saved, nil
}

// AddSaved records the album as saved; saving twice is a no-op
func (r *Repository) AddSaved(ctx context.Context, userID, albumID int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Dialect.InsertSavedItem(), userID, albumID); err != nil {
		logger.Log.Errorw("Failed to save album", "user_id", userID, "album_id", albumID, "error", err)
		return fmt.Errorf("addSaved: %w", err)
	}
	return nil
}

// RemoveSaved deletes the saved membership; missing rows are ignored
func (r *Repository) RemoveSaved(ctx context.Context, userID, albumID int64) error {
	_, err := r.db.ExecContext(ctx, r.q("DELETE FROM saved_items WHERE user_id = ? AND album_id = ?"), userID, albumID)
	if err != nil {
		logger.Log.Errorw("Failed to unsave album", "user_id", userID, "album_id", albumID, "error", err)
		return fmt.Errorf("removeSaved: %w", err)
	}
	return nil
}

// ToggleSaved flips the saved membership and reports the new state
func (r *Repository) ToggleSaved(ctx context.Context, userID, albumID int64) (bool, error) {
	var saved bool
	err := r.withTx(ctx, "toggleSaved", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.q("DELETE FROM saved_items WHERE user_id = ? AND album_id = ?"), userID, albumID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, r.db.Dialect.InsertSavedItem(), userID, albumID); err != nil {
			return err
		}
		saved = true
		return nil
	})
	if err != nil {
		logger.Log.Errorw("Failed to toggle saved album", "user_id", userID, "album_id", albumID, "error", err)
		return false, fmt.Errorf("toggleSaved: %w", err)
	}
	return saved, nil
}
