package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophevents/internal/client/models"
	"github.com/dmitrijs2005/gophevents/internal/client/services"
)

type fakeAuth struct {
	err error

	restored *services.Session
	session  *services.Session
	user     *models.User

	lastEmail    string
	lastName     string
	lastCode     string
	lastPassword string
	lastProfile  models.ProfileUpdate

	verifyResetCalled bool
	resetCalled       bool
	logoutCalled      bool
	closed            bool
}

func (f *fakeAuth) Register(_ context.Context, email string, password []byte, name string) (*models.User, error) {
	f.lastEmail, f.lastPassword, f.lastName = email, string(password), name
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "u1", Email: email, Name: name}, nil
}

func (f *fakeAuth) Login(_ context.Context, email string, password []byte) (*services.Session, error) {
	f.lastEmail, f.lastPassword = email, string(password)
	return f.session, f.err
}

func (f *fakeAuth) Restore(context.Context) (*services.Session, error) {
	if f.restored == nil {
		return nil, services.ErrNoSession
	}
	return f.restored, nil
}

func (f *fakeAuth) VerifyAccount(_ context.Context, email, code string) (*models.User, error) {
	f.lastEmail, f.lastCode = email, code
	return f.user, f.err
}

func (f *fakeAuth) ForgotPassword(_ context.Context, email string) (string, error) {
	f.lastEmail = email
	return "If an account exists with this email, a reset code has been sent", f.err
}

func (f *fakeAuth) VerifyResetCode(_ context.Context, email, code string) error {
	f.verifyResetCalled = true
	f.lastEmail, f.lastCode = email, code
	return f.err
}

func (f *fakeAuth) ResetPassword(_ context.Context, email, code string, newPassword []byte) error {
	f.resetCalled = true
	f.lastPassword = string(newPassword)
	return f.err
}

func (f *fakeAuth) EditProfile(_ context.Context, upd models.ProfileUpdate) (*services.Session, error) {
	f.lastProfile = upd
	return f.session, f.err
}

func (f *fakeAuth) Logout(context.Context) error {
	f.logoutCalled = true
	return f.err
}

func (f *fakeAuth) Close() error {
	f.closed = true
	return nil
}

type fakeEvents struct {
	err error

	event  *models.Event
	events []*models.Event

	which       string
	lastID      string
	lastQuery   models.SearchQuery
	lastInput   models.EventInput
	lastPath    string
	deleteCalls int
}

func (f *fakeEvents) List(context.Context) ([]*models.Event, error) {
	f.which = "all"
	return f.events, f.err
}

func (f *fakeEvents) Upcoming(context.Context) ([]*models.Event, error) {
	f.which = "upcoming"
	return f.events, f.err
}

func (f *fakeEvents) Past(context.Context) ([]*models.Event, error) {
	f.which = "past"
	return f.events, f.err
}

func (f *fakeEvents) Search(_ context.Context, q models.SearchQuery) ([]*models.Event, error) {
	f.lastQuery = q
	return f.events, f.err
}

func (f *fakeEvents) Get(_ context.Context, id string) (*models.Event, error) {
	f.lastID = id
	return f.event, f.err
}

func (f *fakeEvents) Statistics(_ context.Context, id string) (*models.EventStatistics, error) {
	f.lastID = id
	return &models.EventStatistics{TotalPlaces: 4, AttendeesCount: 1, AvailablePlaces: 3, OccupancyRate: 25}, f.err
}

func (f *fakeEvents) Participants(_ context.Context, id string) (*models.EventParticipants, error) {
	f.lastID = id
	return &models.EventParticipants{
		EventID: id, EventTitle: "Go meetup", TotalParticipants: 1,
		Participants: []models.UserRef{{ID: "u2", Email: "bob@example.com", Name: "Bob"}},
	}, f.err
}

func (f *fakeEvents) Create(_ context.Context, in models.EventInput) (*models.Event, error) {
	f.lastInput = in
	return f.event, f.err
}

func (f *fakeEvents) Update(_ context.Context, id string, in models.EventInput) (*models.Event, error) {
	f.lastID, f.lastInput = id, in
	return f.event, f.err
}

func (f *fakeEvents) Delete(_ context.Context, id string) error {
	f.lastID = id
	f.deleteCalls++
	return f.err
}

func (f *fakeEvents) Join(_ context.Context, id string) (*models.Event, error) {
	f.lastID = id
	return f.event, f.err
}

func (f *fakeEvents) Leave(_ context.Context, id string) (*models.Event, error) {
	f.lastID = id
	return f.event, f.err
}

func (f *fakeEvents) UploadImage(_ context.Context, id, path string) (string, error) {
	f.lastID, f.lastPath = id, path
	return "http://s3/bucket/" + path, f.err
}

// newTestApp returns an App reading answers from the given lines.
func newTestApp(auth *fakeAuth, events *fakeEvents, lines ...string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{
		authService: auth,
		eventSvc:    events,
		reader:      bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n")),
		out:         out,
	}, out
}

// stubPasswords makes getPassword return the given answers in order.
func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := getPassword
	t.Cleanup(func() { getPassword = orig })

	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if len(answers) == 0 {
			return nil, io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return []byte(a), nil
	}
}

func alice() *services.Session {
	return &services.Session{UserID: "u1", Email: "alice@example.com", Name: "Alice", Token: "jwt"}
}
