package service

import (
	"context"
	"errors"

	"example/waxroom/internal/models"
	"example/waxroom/internal/repository"
)

// CartService manages the per-user cart and saved-album list.
type CartService struct {
	repo *repository.Repository
}

func NewCartService(repo *repository.Repository) *CartService {
	return &CartService{repo: repo}
}

func (s *CartService) List(ctx context.Context, userID int64) ([]models.CartLine, error) {
	return s.repo.ListCart(ctx, userID)
}

// Add puts qty copies of the album in the cart, adding to an existing line.
func (s *CartService) Add(ctx context.Context, userID, albumID int64, qty int) error {
	if albumID <= 0 {
		return invalid("album_id is required")
	}
	if qty < 1 {
		return invalid("quantity must be at least 1")
	}
	if err := s.requireAlbum(ctx, albumID); err != nil {
		return err
	}
	return s.repo.AddToCart(ctx, userID, albumID, qty)
}

// SetQuantity overwrites a line's quantity; qty <= 0 removes it.
func (s *CartService) SetQuantity(ctx context.Context, userID, albumID int64, qty int) error {
	return s.repo.SetCartQuantity(ctx, userID, albumID, qty)
}

func (s *CartService) Remove(ctx context.Context, userID, albumID int64) error {
	return s.repo.RemoveFromCart(ctx, userID, albumID)
}

func (s *CartService) Clear(ctx context.Context, userID int64) error {
	return s.repo.ClearCart(ctx, userID)
}

func (s *CartService) ListSaved(ctx context.Context, userID int64) ([]models.SavedAlbum, error) {
	return s.repo.ListSaved(ctx, userID)
}

func (s *CartService) Save(ctx context.Context, userID, albumID int64) error {
	if err := s.requireAlbum(ctx, albumID); err != nil {
		return err
	}
	return s.repo.AddSaved(ctx, userID, albumID)
}

func (s *CartService) Unsave(ctx context.Context, userID, albumID int64) error {
	return s.repo.RemoveSaved(ctx, userID, albumID)
}

// ToggleSaved flips membership and returns whether the album is now saved.
func (s *CartService) ToggleSaved(ctx context.Context, userID, albumID int64) (bool, error) {
	if err := s.requireAlbum(ctx, albumID); err != nil {
		return false, err
	}
	return s.repo.ToggleSaved(ctx, userID, albumID)
}

func (s *CartService) requireAlbum(ctx context.Context, albumID int64) error {
	_, err := s.repo.GetAlbumByID(ctx, albumID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
