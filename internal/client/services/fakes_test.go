package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophevents/internal/client/client"
	"github.com/dmitrijs2005/gophevents/internal/client/models"

	_ "modernc.org/sqlite"
)

// setupDB returns a migrated session database in a temp dir.
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeClient implements client.Client. Only the fields a test sets matter.
type fakeClient struct {
	token string

	user     *models.User
	loginErr error
	err      error

	logoutCalled bool
	logoutErr    error

	lastEmail       string
	lastPassword    string
	lastName        string
	lastCode        string
	lastProfile     models.ProfileUpdate
	lastSearch      models.SearchQuery
	lastEventID     string
	lastInput       models.EventInput
	lastContentType string

	event  *models.Event
	events []*models.Event
	upload *models.ImageUpload
}

func (f *fakeClient) SetToken(token string) { f.token = token }
func (f *fakeClient) Token() string         { return f.token }

func (f *fakeClient) Register(_ context.Context, email, password, name string) (*models.User, error) {
	f.lastEmail, f.lastPassword, f.lastName = email, password, name
	return f.user, f.err
}

func (f *fakeClient) Login(_ context.Context, email, password string) (*models.User, error) {
	f.lastEmail, f.lastPassword = email, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.token = "jwt-for-" + f.user.ID
	return f.user, nil
}

func (f *fakeClient) VerifyAccount(_ context.Context, email, code string) (*models.User, error) {
	f.lastEmail, f.lastCode = email, code
	return f.user, f.err
}

func (f *fakeClient) ForgotPassword(_ context.Context, email string) (string, error) {
	f.lastEmail = email
	return "sent", f.err
}

func (f *fakeClient) VerifyResetCode(_ context.Context, email, code string) error {
	f.lastEmail, f.lastCode = email, code
	return f.err
}

func (f *fakeClient) ResetPassword(_ context.Context, email, code, newPassword string) error {
	f.lastEmail, f.lastCode, f.lastPassword = email, code, newPassword
	return f.err
}

func (f *fakeClient) EditProfile(_ context.Context, upd models.ProfileUpdate) (*models.User, error) {
	f.lastProfile = upd
	return f.user, f.err
}

func (f *fakeClient) Logout(context.Context) error {
	f.logoutCalled = true
	f.token = ""
	return f.logoutErr
}

func (f *fakeClient) ListEvents(context.Context) ([]*models.Event, error)     { return f.events, f.err }
func (f *fakeClient) UpcomingEvents(context.Context) ([]*models.Event, error) { return f.events, f.err }
func (f *fakeClient) PastEvents(context.Context) ([]*models.Event, error)     { return f.events, f.err }

func (f *fakeClient) SearchEvents(_ context.Context, q models.SearchQuery) ([]*models.Event, error) {
	f.lastSearch = q
	return f.events, f.err
}

func (f *fakeClient) GetEvent(_ context.Context, id string) (*models.Event, error) {
	f.lastEventID = id
	return f.event, f.err
}

func (f *fakeClient) EventStatistics(_ context.Context, id string) (*models.EventStatistics, error) {
	f.lastEventID = id
	return &models.EventStatistics{TotalPlaces: 1}, f.err
}

func (f *fakeClient) EventParticipants(_ context.Context, id string) (*models.EventParticipants, error) {
	f.lastEventID = id
	return &models.EventParticipants{EventID: id}, f.err
}

func (f *fakeClient) CreateEvent(_ context.Context, in models.EventInput) (*models.Event, error) {
	f.lastInput = in
	return f.event, f.err
}

func (f *fakeClient) UpdateEvent(_ context.Context, id string, in models.EventInput) (*models.Event, error) {
	f.lastEventID, f.lastInput = id, in
	return f.event, f.err
}

func (f *fakeClient) DeleteEvent(_ context.Context, id string) error {
	f.lastEventID = id
	return f.err
}

func (f *fakeClient) JoinEvent(_ context.Context, id string) (*models.Event, error) {
	f.lastEventID = id
	return f.event, f.err
}

func (f *fakeClient) LeaveEvent(_ context.Context, id string) (*models.Event, error) {
	f.lastEventID = id
	return f.event, f.err
}

func (f *fakeClient) PresignEventImage(_ context.Context, id, contentType string) (*models.ImageUpload, error) {
	f.lastEventID, f.lastContentType = id, contentType
	return f.upload, f.err
}
