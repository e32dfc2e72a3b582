package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each backend owns its own migration files.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
