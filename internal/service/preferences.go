package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/cinelist/internal/domain"
)

// PreferencesUpdate carries the fields to change; nil fields keep their value.
type PreferencesUpdate struct {
	Theme         *domain.Theme
	Notifications *bool
	AutoSync      *bool
}

// PreferencesService reads and writes per-user settings.
type PreferencesService struct {
	prefs domain.PreferencesRepository
}

// NewPreferencesService creates a new PreferencesService.
func NewPreferencesService(prefs domain.PreferencesRepository) *PreferencesService {
	return &PreferencesService{prefs: prefs}
}

// Get returns the saved preferences, or the defaults if none were saved.
func (s *PreferencesService) Get(ctx context.Context, userID int64) (domain.Preferences, error) {
	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.DefaultPreferences(userID), nil
		}
		return domain.Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	return *prefs, nil
}

// Update merges upd into the current preferences and saves the result.
func (s *PreferencesService) Update(ctx context.Context, userID int64, upd PreferencesUpdate) (domain.Preferences, error) {
	if upd.Theme != nil {
		switch *upd.Theme {
		case domain.ThemeLight, domain.ThemeDark, domain.ThemeSystem:
		default:
			return domain.Preferences{}, fmt.Errorf("%w: theme must be light, dark, or system", domain.ErrInvalidInput)
		}
	}

	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Preferences{}, err
	}

	if upd.Theme != nil {
		prefs.Theme = *upd.Theme
	}
	if upd.Notifications != nil {
		prefs.Notifications = *upd.Notifications
	}
	if upd.AutoSync != nil {
		prefs.AutoSync = *upd.AutoSync
	}

	if err := s.prefs.Upsert(ctx, &prefs); err != nil {
		return domain.Preferences{}, fmt.Errorf("save preferences: %w", err)
	}
	return prefs, nil
}
