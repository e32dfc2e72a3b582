package domain

import (
	"context"
	"time"
)

// User represents a registered user of the application.
type User struct {
	ID           int64
	Email        string
	DisplayName  string
	PasswordHash string
	// ProfilePicture holds the avatar as a data URI, empty when unset.
	ProfilePicture string
	// PhotoURL mirrors ProfilePicture for clients that still read the old field.
	PhotoURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Picture returns the stored avatar, preferring the current field over the legacy one.
func (u *User) Picture() string {
	if u.ProfilePicture != "" {
		return u.ProfilePicture
	}
	return u.PhotoURL
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// SetProfilePicture writes dataURI to both picture fields in a single
	// statement. An empty dataURI clears them.
	SetProfilePicture(ctx context.Context, id int64, dataURI string) error
}
