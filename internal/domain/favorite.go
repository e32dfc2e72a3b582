package domain

import (
	"context"
	"time"
)

// Movie is the snapshot of catalogue metadata kept alongside a favorite, so
// the list renders without calling the metadata API again.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview,omitempty"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
}

// Favorite links a user to a movie they starred.
type Favorite struct {
	UserID  int64
	MovieID int64
	Movie   Movie
	AddedAt time.Time
}

// FavoriteRepository handles favorite persistence. (user, movie) is unique.
type FavoriteRepository interface {
	Upsert(ctx context.Context, fav *Favorite) error
	Delete(ctx context.Context, userID, movieID int64) error
	ListByUser(ctx context.Context, userID int64) ([]Favorite, error)
	Exists(ctx context.Context, userID, movieID int64) (bool, error)
}
