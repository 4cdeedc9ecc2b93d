// Package metadata stores the CLI's small key/value settings (the login
// session) in the local SQLite database.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns "" and no error when key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
}
