package client

import (
	"context"

	"github.com/dmitrijs2005/gophevents/internal/client/models"
)

// Client is the CLI's view of the gophevents REST API.
type Client interface {
	SetToken(token string)
	Token() string

	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	VerifyAccount(ctx context.Context, email, code string) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	VerifyResetCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	EditProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error)
	Logout(ctx context.Context) error

	ListEvents(ctx context.Context) ([]*models.Event, error)
	UpcomingEvents(ctx context.Context) ([]*models.Event, error)
	PastEvents(ctx context.Context) ([]*models.Event, error)
	SearchEvents(ctx context.Context, q models.SearchQuery) ([]*models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	EventStatistics(ctx context.Context, id string) (*models.EventStatistics, error)
	EventParticipants(ctx context.Context, id string) (*models.EventParticipants, error)
	CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error)
	UpdateEvent(ctx context.Context, id string, in models.EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	JoinEvent(ctx context.Context, id string) (*models.Event, error)
	LeaveEvent(ctx context.Context, id string) (*models.Event, error)
	PresignEventImage(ctx context.Context, id, contentType string) (*models.ImageUpload, error)
}
