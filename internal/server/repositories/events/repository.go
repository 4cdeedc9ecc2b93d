package events

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophevents/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Event, error)
	// Upcoming returns events starting after now, soonest first.
	Upcoming(ctx context.Context, now time.Time) ([]*models.Event, error)
	// Past returns events that ended before now, most recent first.
	Past(ctx context.Context, now time.Time) ([]*models.Event, error)
	Search(ctx context.Context, filter models.EventFilter) ([]*models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error

	// GetCapacityForUpdate locks the event row and returns its available places.
	GetCapacityForUpdate(ctx context.Context, id string) (int, error)
	CountAttendees(ctx context.Context, eventID string) (int, error)
	IsAttending(ctx context.Context, eventID, userID string) (bool, error)
	AddAttendee(ctx context.Context, eventID, userID string) error
	RemoveAttendee(ctx context.Context, eventID, userID string) error
}
