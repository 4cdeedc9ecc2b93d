// Package rest exposes the account and event services over HTTP/JSON.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophevents/internal/logging"
	"github.com/dmitrijs2005/gophevents/internal/server/models"
	"github.com/dmitrijs2005/gophevents/internal/server/services"
	"github.com/dmitrijs2005/gophevents/internal/server/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

type Accounts interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	VerifyAccount(ctx context.Context, email, code string) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	EditProfile(ctx context.Context, userID string, upd services.ProfileUpdate) (*models.User, error)
}

type Events interface {
	List(ctx context.Context) ([]*models.Event, error)
	Upcoming(ctx context.Context) ([]*models.Event, error)
	Past(ctx context.Context) ([]*models.Event, error)
	Search(ctx context.Context, p services.SearchParams) ([]*models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Statistics(ctx context.Context, id string) (*models.EventStatistics, error)
	Participants(ctx context.Context, id string) (*models.EventParticipants, error)
	Create(ctx context.Context, creatorID string, in services.EventInput) (*models.Event, error)
	Update(ctx context.Context, userID, id string, in services.EventInput) (*models.Event, error)
	Delete(ctx context.Context, userID, id string) error
	Join(ctx context.Context, userID, id string) (*models.Event, error)
	Leave(ctx context.Context, userID, id string) (*models.Event, error)
	PresignImage(ctx context.Context, userID, id, contentType string) (*storage.ImageUpload, error)
}

// TokenParser resolves an access token to the user id it was issued for.
type TokenParser interface {
	Parse(token string) (string, error)
}

type Options struct {
	Address        string
	RequestTimeout time.Duration
	CookieSecure   bool
	CookieMaxAge   time.Duration
}

type Server struct {
	opts     Options
	accounts Accounts
	events   Events
	tokens   TokenParser
	logger   logging.Logger
}

func NewServer(opts Options, l logging.Logger, accounts Accounts, events Events, tokens TokenParser) *Server {
	return &Server{
		opts:     opts,
		accounts: accounts,
		events:   events,
		tokens:   tokens,
		logger:   l.With("module", "http_server"),
	}
}

// Router builds the chi router with every route mounted under /api.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(accessLog{logger: s.logger}))
	r.Use(middleware.Recoverer)
	if s.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.Post("/verify-account", s.verifyAccount)
			r.Post("/forgot-password", s.forgotPassword)
			r.Post("/verify-reset-code", s.verifyResetCode)
			r.Post("/reset-password", s.resetPassword)
			r.Post("/logout", s.logout)
			r.With(s.requireAuth).Put("/profile", s.editProfile)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.listEvents)
			r.Get("/upcoming", s.upcomingEvents)
			r.Get("/past", s.pastEvents)
			r.Get("/search", s.searchEvents)
			r.Get("/{id}", s.showEvent)
			r.Get("/{id}/statistics", s.eventStatistics)
			r.Get("/{id}/participants", s.eventParticipants)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/", s.createEvent)
				r.Put("/{id}", s.updateEvent)
				r.Delete("/{id}", s.deleteEvent)
				r.Post("/{id}/join", s.joinEvent)
				r.Delete("/{id}/leave", s.leaveEvent)
				r.Post("/{id}/image", s.presignEventImage)
			})
		})
	})

	return r
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
