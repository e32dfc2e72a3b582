package domain

import (
	"context"
	"time"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Preferences holds appearance and notification settings for one user.
type Preferences struct {
	UserID        int64
	Theme         Theme
	Notifications bool
	AutoSync      bool
	UpdatedAt     time.Time
}

// DefaultPreferences is what a user sees before saving anything.
func DefaultPreferences(userID int64) Preferences {
	return Preferences{
		UserID:        userID,
		Theme:         ThemeSystem,
		Notifications: true,
		AutoSync:      true,
	}
}

type PreferencesRepository interface {
	// Get returns ErrNotFound when the user never saved preferences.
	Get(ctx context.Context, userID int64) (*Preferences, error)
	Upsert(ctx context.Context, prefs *Preferences) error
}
