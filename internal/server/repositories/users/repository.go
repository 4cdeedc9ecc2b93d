package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophevents/internal/server/models"
)

// Repository persists user accounts. Lookups return common.ErrorNotFound
// when no row matches; writes that collide on email return common.ErrConflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByEmailForUpdate locks the row until the surrounding transaction ends.
	GetByEmailForUpdate(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.User, error)
	// Update writes every mutable column. Callers hold the row lock.
	Update(ctx context.Context, user *models.User) error

	// The writes below touch only the columns they name, so a concurrent
	// change to any other column is never overwritten by a stale copy.

	SetResetCode(ctx context.Context, id string, code *models.OneTimeCode) error
	// ClearResetCodeIfExpired drops the reset code only when it expired at
	// or before now; a newer code issued in the meantime is kept.
	ClearResetCodeIfExpired(ctx context.Context, id string, now time.Time) error
	// SetPassword stores a new hash and clears any pending reset code.
	SetPassword(ctx context.Context, id, hash string) error
	UpdateProfile(ctx context.Context, id, name, email string) error
}
