package database

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"example/waxroom/internal/logger"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed/albums.yaml
var defaultSeed []byte

type seedAlbum struct {
	Title       string  `yaml:"title"`
	Artist      string  `yaml:"artist"`
	Genre       string  `yaml:"genre"`
	Year        int     `yaml:"year"`
	Price       string  `yaml:"price"`
	CoverURL    string  `yaml:"cover_url"`
	Description string  `yaml:"description"`
	Tracks      int     `yaml:"tracks"`
	Rating      float64 `yaml:"rating"`
	Featured    bool    `yaml:"featured"`
	NewRelease  bool    `yaml:"new_release"`
}

type seedFile struct {
	Albums []seedAlbum `yaml:"albums"`
}

// SeedCatalog fills the albums table from the embedded catalog, or from path
// when it is non-empty, but only if the table has no rows yet.
func (db *DB) SeedCatalog(ctx context.Context, path string) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM albums").Scan(&count); err != nil {
		return 0, fmt.Errorf("seedCatalog: count: %w", err)
	}
	if count > 0 {
		logger.Log.Debugw("Catalog already populated, skipping seed", "albums", count)
		return 0, nil
	}

	raw := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("seedCatalog: read %s: %w", path, err)
		}
		raw = b
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("seedCatalog: parse: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seedCatalog: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt := db.Rebind(`INSERT INTO albums
		(title, artist, genre, year, price, cover_url, description, tracks, rating, featured, new_release)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, a := range seed.Albums {
		price, err := decimal.NewFromString(a.Price)
		if err != nil {
			return 0, fmt.Errorf("seedCatalog: album %d price %q: %w", i+1, a.Price, err)
		}
		if _, err := tx.ExecContext(ctx, stmt, a.Title, a.Artist, a.Genre, a.Year, price.StringFixed(2),
			a.CoverURL, a.Description, a.Tracks, a.Rating, a.Featured, a.NewRelease); err != nil {
			return 0, fmt.Errorf("seedCatalog: insert %q: %w", a.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seedCatalog: commit: %w", err)
	}
	logger.Log.Infow("Catalog seeded", "albums", len(seed.Albums))
	return len(seed.Albums), nil
}
