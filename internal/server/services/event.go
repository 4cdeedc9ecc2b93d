package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophevents/internal/common"
	"github.com/dmitrijs2005/gophevents/internal/dbx"
	"github.com/dmitrijs2005/gophevents/internal/logging"
	"github.com/dmitrijs2005/gophevents/internal/server/models"
	"github.com/dmitrijs2005/gophevents/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophevents/internal/server/storage"
)

// ImagePresigner hands out upload URLs for event images.
type ImagePresigner interface {
	PresignImageUpload(ctx context.Context, eventID, contentType string) (*storage.ImageUpload, error)
}

// EventInput is the client-editable part of an event. Nil fields are left
// untouched on update; on create every field but Price is required.
type EventInput struct {
	Title           *string
	Description     *string
	Location        *string
	StartDate       *string
	EndDate         *string
	AvailablePlaces *int
	Price           *float64
	ImageURL        *string
}

// SearchParams are the raw query parameters of an event search.
type SearchParams struct {
	Query              string
	StartDate          string
	EndDate            string
	Location           string
	MinPrice           string
	MaxPrice           string
	HasAvailablePlaces bool
}

// searchDateLayouts are tried in order for the search date bounds.
var searchDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

type EventService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      ImagePresigner
	logger      logging.Logger

	now func() time.Time
}

func NewEventService(db *sql.DB, m repomanager.RepositoryManager, images ImagePresigner, l logging.Logger) *EventService {
	return &EventService{
		db:          db,
		repomanager: m,
		images:      images,
		logger:      l.With("module", "events"),
		now:         time.Now,
	}
}

func (s *EventService) List(ctx context.Context) ([]*models.Event, error) {
	list, err := s.repomanager.Events(s.db).List(ctx)
	return list, classify("listing events", err)
}

func (s *EventService) Upcoming(ctx context.Context) ([]*models.Event, error) {
	list, err := s.repomanager.Events(s.db).Upcoming(ctx, s.now())
	return list, classify("listing upcoming events", err)
}

func (s *EventService) Past(ctx context.Context) ([]*models.Event, error) {
	list, err := s.repomanager.Events(s.db).Past(ctx, s.now())
	return list, classify("listing past events", err)
}

// Search parses p into a filter and runs it. Unparseable dates or prices
// yield common.ErrInvalidFormat.
func (s *EventService) Search(ctx context.Context, p SearchParams) ([]*models.Event, error) {
	filter, err := p.filter()
	if err != nil {
		return nil, err
	}
	list, err := s.repomanager.Events(s.db).Search(ctx, filter)
	return list, classify("searching events", err)
}

func (p SearchParams) filter() (models.EventFilter, error) {
	f := models.EventFilter{
		Query:              p.Query,
		Location:           p.Location,
		HasAvailablePlaces: p.HasAvailablePlaces,
	}

	var err error
	if f.StartFrom, err = parseSearchDate(p.StartDate); err != nil {
		return f, err
	}
	if f.EndBy, err = parseSearchDate(p.EndDate); err != nil {
		return f, err
	}
	if f.MinPrice, err = parsePrice(p.MinPrice); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parsePrice(p.MaxPrice); err != nil {
		return f, err
	}
	return f, nil
}

func parseSearchDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range searchDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, common.ErrInvalidFormat
}

func parsePrice(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, common.ErrInvalidFormat
	}
	return &v, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	e, err := s.repomanager.Events(s.db).Get(ctx, id)
	if err != nil {
		return nil, classify("loading event", err)
	}
	return e, nil
}

func (s *EventService) Statistics(ctx context.Context, id string) (*models.EventStatistics, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st := e.Statistics()
	return &st, nil
}

func (s *EventService) Participants(ctx context.Context, id string) (*models.EventParticipants, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := e.Participants()
	return &p, nil
}

// Create stores a new event owned by creatorID.
func (s *EventService) Create(ctx context.Context, creatorID string, in EventInput) (*models.Event, error) {
	if in.Title == nil || in.Description == nil || in.Location == nil ||
		in.StartDate == nil || in.EndDate == nil || in.AvailablePlaces == nil {
		return nil, common.ErrMissingFields
	}

	creator, err := s.repomanager.Users(s.db).GetByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, classify("loading creator", err)
	}

	e := &models.Event{Creator: creator.Ref()}
	if err := in.applyTo(e); err != nil {
		return nil, err
	}

	created, err := s.repomanager.Events(s.db).Create(ctx, e)
	if err != nil {
		return nil, classify("creating event", err)
	}

	s.logger.Info(ctx, "event created", "event_id", created.ID, "creator_id", creatorID)
	return created, nil
}

// Update merges in into the event. Only the creator may change it.
func (s *EventService) Update(ctx context.Context, userID, id string, in EventInput) (*models.Event, error) {
	repo := s.repomanager.Events(s.db)

	e, err := s.ownedEvent(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := in.applyTo(e); err != nil {
		return nil, err
	}
	e.UpdatedAt = s.now().UTC()

	if err := repo.Update(ctx, e); err != nil {
		return nil, classify("updating event", err)
	}
	return e, nil
}

func (s *EventService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.ownedEvent(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repomanager.Events(s.db).Delete(ctx, id); err != nil {
		return classify("deleting event", err)
	}
	s.logger.Info(ctx, "event deleted", "event_id", id)
	return nil
}

// Join adds userID to the attendees. The event row stays locked between the
// capacity check and the insert, so concurrent joins cannot overbook.
func (s *EventService) Join(ctx context.Context, userID, id string) (*models.Event, error) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Events(tx)

		places, err := repo.GetCapacityForUpdate(ctx, id)
		if err != nil {
			return err
		}

		attending, err := repo.IsAttending(ctx, id, userID)
		if err != nil {
			return err
		}
		if attending {
			return common.ErrAlreadyJoined
		}

		count, err := repo.CountAttendees(ctx, id)
		if err != nil {
			return err
		}
		if count >= places {
			return common.ErrEventFull
		}

		return repo.AddAttendee(ctx, id, userID)
	})
	if err != nil {
		return nil, classify("joining event", err)
	}
	return s.Get(ctx, id)
}

func (s *EventService) Leave(ctx context.Context, userID, id string) (*models.Event, error) {
	repo := s.repomanager.Events(s.db)

	if _, err := repo.Get(ctx, id); err != nil {
		return nil, classify("loading event", err)
	}
	if err := repo.RemoveAttendee(ctx, id, userID); err != nil {
		return nil, classify("leaving event", err)
	}
	return s.Get(ctx, id)
}

// PresignImage returns an upload URL for a new image of the event and
// records the resulting object URL as the event's image.
func (s *EventService) PresignImage(ctx context.Context, userID, id, contentType string) (*storage.ImageUpload, error) {
	e, err := s.ownedEvent(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	upload, err := s.images.PresignImageUpload(ctx, id, contentType)
	if err != nil {
		return nil, classify("presigning image upload", err)
	}

	e.ImageURL = &upload.ImageURL
	e.UpdatedAt = s.now().UTC()
	if err := s.repomanager.Events(s.db).Update(ctx, e); err != nil {
		return nil, classify("storing image url", err)
	}
	return upload, nil
}

func (s *EventService) ownedEvent(ctx context.Context, userID, id string) (*models.Event, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Creator.ID != userID {
		return nil, common.ErrForbidden
	}
	return e, nil
}

// applyTo copies the set fields of in to e and validates the result.
func (in EventInput) applyTo(e *models.Event) error {
	if in.Title != nil {
		e.Title = *in.Title
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Location != nil {
		e.Location = *in.Location
	}
	if in.AvailablePlaces != nil {
		e.AvailablePlaces = *in.AvailablePlaces
	}
	if in.Price != nil {
		e.Price = *in.Price
	}
	if in.ImageURL != nil {
		e.ImageURL = in.ImageURL
	}
	if in.StartDate != nil {
		t, err := time.Parse(time.RFC3339, *in.StartDate)
		if err != nil {
			return common.ErrInvalidDate
		}
		e.StartDate = t.UTC()
	}
	if in.EndDate != nil {
		t, err := time.Parse(time.RFC3339, *in.EndDate)
		if err != nil {
			return common.ErrInvalidDate
		}
		e.EndDate = t.UTC()
	}

	if fields := models.ValidateEvent(e); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	if !e.EndDate.After(e.StartDate) {
		return common.ErrInvalidDates
	}
	return nil
}
