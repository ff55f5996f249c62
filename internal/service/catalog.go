package service

import (
	"context"
	"errors"

	"example/waxroom/internal/models"
	"example/waxroom/internal/repository"
)

// CatalogService exposes read-only album listings.
type CatalogService struct {
	repo *repository.Repository
}

func NewCatalogService(repo *repository.Repository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) List(ctx context.Context, f models.AlbumFilter) ([]models.Album, error) {
	return s.repo.ListAlbums(ctx, f)
}

func (s *CatalogService) Get(ctx context.Context, id int64) (models.Album, error) {
	alb, err := s.repo.GetAlbumByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Album{}, ErrNotFound
	}
	return alb, err
}

func (s *CatalogService) Genres(ctx context.Context) ([]string, error) {
	return s.repo.ListGenres(ctx)
}
