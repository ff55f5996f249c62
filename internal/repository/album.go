package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"example/waxroom/internal/logger"
	"example/waxroom/internal/models"

	"github.com/shopspring/decimal"
)

// Album database operations

const albumColumns = `a.id, a.title, a.artist, a.genre, a.year, a.price, a.cover_url,
	a.description, a.tracks, a.rating, a.featured, a.new_release`

// scanAlbum reads albumColumns followed by any extra destinations.
func scanAlbum(s scanner, extra ...any) (models.Album, error) {
	var alb models.Album
	var desc sql.NullString
	dest := []any{&alb.ID, &alb.Title, &alb.Artist, &alb.Genre, &alb.Year, &alb.Price, &alb.CoverURL,
		&desc, &alb.Tracks, &alb.Rating, &alb.Featured, &alb.NewRelease}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return alb, err
	}
	alb.Description = desc.String
	return alb, nil
}

// ListAlbums queries the catalog with the given filter applied
func (r *Repository) ListAlbums(ctx context.Context, f models.AlbumFilter) ([]models.Album, error) {
	query := "SELECT " + albumColumns + " FROM albums a WHERE 1=1"
	var args []any

	if f.Genre != "" {
		query += " AND a.genre = ?"
		args = append(args, f.Genre)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query += " AND (LOWER(a.title) LIKE ? OR LOWER(a.artist) LIKE ?)"
		args = append(args, pattern, pattern)
	}
	if f.Featured {
		query += " AND a.featured = ?"
		args = append(args, true)
	}
	if f.NewRelease {
		query += " AND a.new_release = ?"
		args = append(args, true)
	}

	switch f.Sort {
	case models.SortPriceAsc:
		query += " ORDER BY a.price ASC, a.id ASC"
	case models.SortPriceDesc:
		query += " ORDER BY a.price DESC, a.id ASC"
	case models.SortRatingDesc, "rating":
		query += " ORDER BY a.rating DESC, a.id ASC"
	default:
		query += " ORDER BY a.id ASC"
	}

	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		logger.Log.Errorw("Failed to query albums", "filter", f, "error", err)
		return nil, fmt.Errorf("listAlbums: %w", err)
	}
	defer rows.Close()

	albums := []models.Album{}
	for rows.Next() {
		alb, err := scanAlbum(rows)
		if err != nil {
			logger.Log.Errorw("Failed to scan album", "error", err)
			return nil, fmt.Errorf("listAlbums: %w", err)
		}
		albums = append(albums, alb)
	}

	if err := rows.Err(); err != nil {
		logger.Log.Errorw("Error iterating albums", "error", err)
		return nil, fmt.Errorf("listAlbums: %w", err)
	}

	return albums, nil
}

// GetAlbumByID queries for the album with the specified ID
func (r *Repository) GetAlbumByID(ctx context.Context, id int64) (models.Album, error) {
	row := r.db.QueryRowContext(ctx, r.q("SELECT "+albumColumns+" FROM albums a WHERE a.id = ?"), id)
	alb, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return alb, ErrNotFound
	}
	if err != nil {
		logger.Log.Errorw("Failed to load album", "album_id", id, "error", err)
		return alb, fmt.Errorf("getAlbumByID %d: %w", id, err)
	}
	return alb, nil
}

// ListGenres returns the distinct genres in alphabetical order
func (r *Repository) ListGenres(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT genre FROM albums WHERE genre <> '' ORDER BY genre")
	if err != nil {
		logger.Log.Errorw("Failed to query genres", "error", err)
		return nil, fmt.Errorf("listGenres: %w", err)
	}
	defer rows.Close()

	genres := []string{}
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("listGenres: %w", err)
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listGenres: %w", err)
	}
	return genres, nil
}

// AddAlbum adds the specified album to the catalog,
// returning the album ID of the new entry
func (r *Repository) AddAlbum(ctx context.Context, alb models.Album) (int64, error) {
	logger.Log.Infow("Adding new album", "title", alb.Title, "artist", alb.Artist, "price", alb.Price)

	id, err := r.db.Dialect.InsertID(ctx, r.db, `INSERT INTO albums
		(title, artist, genre, year, price, cover_url, description, tracks, rating, featured, new_release)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alb.Title, alb.Artist, alb.Genre, alb.Year, alb.Price.StringFixed(2), alb.CoverURL,
		nullString(alb.Description), alb.Tracks, alb.Rating, alb.Featured, alb.NewRelease)
	if err != nil {
		logger.Log.Errorw("Failed to insert album", "error", err, "title", alb.Title)
		return 0, fmt.Errorf("addAlbum: %w", err)
	}

	logger.Log.Infow("Album created", "album_id", id, "title", alb.Title, "artist", alb.Artist)
	return id, nil
}

// UpdateAlbumPrice changes the live catalog price. Existing order items keep
// the price they were bought at.
func (r *Repository) UpdateAlbumPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, r.q("UPDATE albums SET price = ? WHERE id = ?"), price.StringFixed(2), id)
	if err != nil {
		logger.Log.Errorw("Failed to update album price", "album_id", id, "error", err)
		return fmt.Errorf("updateAlbumPrice %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetAlbumByID(ctx, id); err != nil {
			return err
		}
	}
	logger.Log.Infow("Album price updated", "album_id", id, "price", price.StringFixed(2))
	return nil
}
