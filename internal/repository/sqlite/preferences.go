package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/cinelist/internal/domain"
)

// PreferencesRepository implements domain.PreferencesRepository using SQLite.
type PreferencesRepository struct {
	db *sql.DB
}

func NewPreferencesRepository(db *DB) *PreferencesRepository {
	return &PreferencesRepository{db: db.SqlDB}
}

func (r *PreferencesRepository) Get(ctx context.Context, userID int64) (*domain.Preferences, error) {
	prefs := &domain.Preferences{}
	var theme string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, theme, notifications, auto_sync, updated_at
		 FROM preferences WHERE user_id = ?`, userID,
	).Scan(&prefs.UserID, &theme, &prefs.Notifications, &prefs.AutoSync, &prefs.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	prefs.Theme = domain.Theme(theme)
	return prefs, nil
}

func (r *PreferencesRepository) Upsert(ctx context.Context, prefs *domain.Preferences) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, theme, notifications, auto_sync, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		     theme = excluded.theme,
		     notifications = excluded.notifications,
		     auto_sync = excluded.auto_sync,
		     updated_at = excluded.updated_at`,
		prefs.UserID, string(prefs.Theme), prefs.Notifications, prefs.AutoSync, now,
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	prefs.UpdatedAt = now
	return nil
}
