package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/msomdec/cinelist/internal/domain"
)

// FavoriteService manages a user's favorite movies.
type FavoriteService struct {
	favorites domain.FavoriteRepository
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(favorites domain.FavoriteRepository) *FavoriteService {
	return &FavoriteService{favorites: favorites}
}

// Add stores movie as a favorite. Adding an existing favorite refreshes its snapshot.
func (s *FavoriteService) Add(ctx context.Context, userID int64, movie domain.Movie) (*domain.Favorite, error) {
	if err := validateMovie(movie); err != nil {
		return nil, err
	}

	fav := &domain.Favorite{UserID: userID, MovieID: movie.ID, Movie: movie}
	if err := s.favorites.Upsert(ctx, fav); err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return fav, nil
}

// Remove deletes a favorite. Returns domain.ErrNotFound if it did not exist.
func (s *FavoriteService) Remove(ctx context.Context, userID, movieID int64) error {
	return s.favorites.Delete(ctx, userID, movieID)
}

// List returns the user's favorites, newest first.
func (s *FavoriteService) List(ctx context.Context, userID int64) ([]domain.Favorite, error) {
	favorites, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favorites, nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID, movieID int64) (bool, error) {
	return s.favorites.Exists(ctx, userID, movieID)
}

// Toggle adds the movie if absent and removes it otherwise. It reports
// whether the movie is a favorite afterwards.
func (s *FavoriteService) Toggle(ctx context.Context, userID int64, movie domain.Movie) (bool, error) {
	exists, err := s.favorites.Exists(ctx, userID, movie.ID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}

	if exists {
		if err := s.favorites.Delete(ctx, userID, movie.ID); err != nil {
			return false, fmt.Errorf("remove favorite: %w", err)
		}
		return false, nil
	}

	if _, err := s.Add(ctx, userID, movie); err != nil {
		return false, err
	}
	return true, nil
}

func validateMovie(movie domain.Movie) error {
	if movie.ID <= 0 {
		return fmt.Errorf("%w: movie id must be positive", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(movie.Title) == "" {
		return fmt.Errorf("%w: movie title is required", domain.ErrInvalidInput)
	}
	return nil
}
