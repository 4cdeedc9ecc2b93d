package services

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophevents/internal/client/client"
	"github.com/dmitrijs2005/gophevents/internal/client/models"
	"github.com/dmitrijs2005/gophevents/internal/netx"
)

// maxImageSize caps what UploadImage will read from disk.
const maxImageSize = 10 << 20

// indirections used in tests
var (
	readFile = os.ReadFile
	upload   = netx.UploadToPresignedURL
)

// EventService is what the CLI needs for browsing and managing events.
type EventService interface {
	List(ctx context.Context) ([]*models.Event, error)
	Upcoming(ctx context.Context) ([]*models.Event, error)
	Past(ctx context.Context) ([]*models.Event, error)
	Search(ctx context.Context, q models.SearchQuery) ([]*models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Statistics(ctx context.Context, id string) (*models.EventStatistics, error)
	Participants(ctx context.Context, id string) (*models.EventParticipants, error)
	Create(ctx context.Context, in models.EventInput) (*models.Event, error)
	Update(ctx context.Context, id string, in models.EventInput) (*models.Event, error)
	Delete(ctx context.Context, id string) error
	Join(ctx context.Context, id string) (*models.Event, error)
	Leave(ctx context.Context, id string) (*models.Event, error)
	UploadImage(ctx context.Context, id, path string) (string, error)
}

type eventService struct {
	client client.Client
}

func NewEventService(c client.Client) EventService {
	return &eventService{client: c}
}

func (s *eventService) List(ctx context.Context) ([]*models.Event, error) {
	return s.client.ListEvents(ctx)
}

func (s *eventService) Upcoming(ctx context.Context) ([]*models.Event, error) {
	return s.client.UpcomingEvents(ctx)
}

func (s *eventService) Past(ctx context.Context) ([]*models.Event, error) {
	return s.client.PastEvents(ctx)
}

func (s *eventService) Search(ctx context.Context, q models.SearchQuery) ([]*models.Event, error) {
	return s.client.SearchEvents(ctx, q)
}

func (s *eventService) Get(ctx context.Context, id string) (*models.Event, error) {
	return s.client.GetEvent(ctx, id)
}

func (s *eventService) Statistics(ctx context.Context, id string) (*models.EventStatistics, error) {
	return s.client.EventStatistics(ctx, id)
}

func (s *eventService) Participants(ctx context.Context, id string) (*models.EventParticipants, error) {
	return s.client.EventParticipants(ctx, id)
}

func (s *eventService) Create(ctx context.Context, in models.EventInput) (*models.Event, error) {
	return s.client.CreateEvent(ctx, in)
}

func (s *eventService) Update(ctx context.Context, id string, in models.EventInput) (*models.Event, error) {
	return s.client.UpdateEvent(ctx, id, in)
}

func (s *eventService) Delete(ctx context.Context, id string) error {
	return s.client.DeleteEvent(ctx, id)
}

func (s *eventService) Join(ctx context.Context, id string) (*models.Event, error) {
	return s.client.JoinEvent(ctx, id)
}

func (s *eventService) Leave(ctx context.Context, id string) (*models.Event, error) {
	return s.client.LeaveEvent(ctx, id)
}

// UploadImage asks the server for a presigned URL for the event's image and
// PUTs the file there. It returns the URL the image is served from.
func (s *eventService) UploadImage(ctx context.Context, id, path string) (string, error) {
	data, err := readFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageSize {
		return "", fmt.Errorf("image is larger than %d bytes", maxImageSize)
	}

	contentType := imageContentType(path, data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%s does not look like an image (%s)", path, contentType)
	}

	up, err := s.client.PresignEventImage(ctx, id, contentType)
	if err != nil {
		return "", err
	}

	if err := upload(ctx, up.UploadURL, contentType, data); err != nil {
		return "", err
	}
	return up.ImageURL, nil
}

// imageContentType prefers the file extension and falls back to sniffing.
func imageContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
