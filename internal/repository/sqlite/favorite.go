package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/msomdec/cinelist/internal/domain"
)

// FavoriteRepository implements domain.FavoriteRepository using SQLite.
type FavoriteRepository struct {
	db *sql.DB
}

func NewFavoriteRepository(db *DB) *FavoriteRepository {
	return &FavoriteRepository{db: db.SqlDB}
}

// Upsert stores the favorite, refreshing the movie snapshot if it already exists.
// AddedAt keeps its original value on refresh.
func (r *FavoriteRepository) Upsert(ctx context.Context, fav *domain.Favorite) error {
	data, err := json.Marshal(fav.Movie)
	if err != nil {
		return fmt.Errorf("marshal movie: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, movie_id, movie_data, added_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, movie_id) DO UPDATE SET movie_data = excluded.movie_data`,
		fav.UserID, fav.MovieID, string(data), now,
	)
	if err != nil {
		return fmt.Errorf("upsert favorite: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		"SELECT added_at FROM favorites WHERE user_id = ? AND movie_id = ?", fav.UserID, fav.MovieID,
	).Scan(&fav.AddedAt)
	if err != nil {
		return fmt.Errorf("read favorite: %w", err)
	}
	return nil
}

func (r *FavoriteRepository) Delete(ctx context.Context, userID, movieID int64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id = ? AND movie_id = ?", userID, movieID,
	)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByUser returns favorites newest first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, movie_id, movie_data, added_at
		 FROM favorites WHERE user_id = ?
		 ORDER BY added_at DESC, movie_id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var favorites []domain.Favorite
	for rows.Next() {
		var fav domain.Favorite
		var data string
		if err := rows.Scan(&fav.UserID, &fav.MovieID, &data, &fav.AddedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &fav.Movie); err != nil {
			return nil, fmt.Errorf("decode movie %d: %w", fav.MovieID, err)
		}
		favorites = append(favorites, fav)
	}
	return favorites, rows.Err()
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, movieID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = ? AND movie_id = ?)", userID, movieID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}
