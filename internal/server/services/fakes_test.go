package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophevents/internal/common"
	"github.com/dmitrijs2005/gophevents/internal/dbx"
	"github.com/dmitrijs2005/gophevents/internal/server/models"
	"github.com/dmitrijs2005/gophevents/internal/server/repositories/events"
	"github.com/dmitrijs2005/gophevents/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophevents/internal/server/storage"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// --- users ---

// fakeUsersRepo keeps copies of users, so a change that is not written
// through the repository is not visible to later reads.
type fakeUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	nextID  int

	createErr error
	updateErr error
	getErr    error
	updates   int

	// afterRead runs once, right after the next successful lookup, to let a
	// test slip another request in between a read and the write that
	// follows it.
	afterRead func()
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	if u.VerificationCode != nil {
		v := *u.VerificationCode
		c.VerificationCode = &v
	}
	if u.ResetCode != nil {
		r := *u.ResetCode
		c.ResetCode = &r
	}
	return &c
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrConflict
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	f.byEmail[u.Email] = cloneUser(u)
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	if f.getErr != nil {
		f.mu.Unlock()
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		f.mu.Unlock()
		return nil, common.ErrorNotFound
	}
	c := cloneUser(u)
	f.mu.Unlock()

	f.runAfterRead()
	return c, nil
}

func (f *fakeUsersRepo) GetByEmailForUpdate(ctx context.Context, email string) (*models.User, error) {
	return f.GetByEmail(ctx, email)
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	u := f.findByID(id)
	if u == nil {
		f.mu.Unlock()
		return nil, common.ErrorNotFound
	}
	c := cloneUser(u)
	f.mu.Unlock()

	f.runAfterRead()
	return c, nil
}

func (f *fakeUsersRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeUsersRepo) runAfterRead() {
	f.mu.Lock()
	hook := f.afterRead
	f.afterRead = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// findByID expects f.mu to be held.
func (f *fakeUsersRepo) findByID(id string) *models.User {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// write applies change to the stored user id under the lock.
func (f *fakeUsersRepo) write(id string, change func(u *models.User) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u := f.findByID(id)
	if u == nil {
		return common.ErrorNotFound
	}
	if err := change(u); err != nil {
		return err
	}
	f.updates++
	return nil
}

func (f *fakeUsersRepo) SetResetCode(_ context.Context, id string, code *models.OneTimeCode) error {
	return f.write(id, func(u *models.User) error {
		if code == nil {
			u.ResetCode = nil
			return nil
		}
		c := *code
		u.ResetCode = &c
		return nil
	})
}

func (f *fakeUsersRepo) ClearResetCodeIfExpired(_ context.Context, id string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u := f.findByID(id)
	if u != nil && u.ResetCode != nil && !u.ResetCode.ExpiresAt.After(now) {
		u.ResetCode = nil
		f.updates++
	}
	return nil
}

func (f *fakeUsersRepo) SetPassword(_ context.Context, id, hash string) error {
	return f.write(id, func(u *models.User) error {
		u.SetPassword(hash)
		return nil
	})
}

func (f *fakeUsersRepo) UpdateProfile(_ context.Context, id, name, email string) error {
	return f.write(id, func(u *models.User) error {
		if other, ok := f.byEmail[email]; ok && other.ID != id {
			return common.ErrConflict
		}
		delete(f.byEmail, u.Email)
		u.Name = name
		u.Email = email
		f.byEmail[email] = u
		return nil
	})
}

func (f *fakeUsersRepo) Update(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	var oldEmail string
	for email, stored := range f.byEmail {
		if stored.ID == u.ID {
			oldEmail = email
		}
	}
	if oldEmail == "" {
		return common.ErrorNotFound
	}
	if other, ok := f.byEmail[u.Email]; ok && other.ID != u.ID {
		return common.ErrConflict
	}
	delete(f.byEmail, oldEmail)
	f.byEmail[u.Email] = cloneUser(u)
	f.updates++
	return nil
}

// stored returns the persisted copy of email, or nil.
func (f *fakeUsersRepo) stored(email string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil
	}
	return cloneUser(u)
}

func (f *fakeUsersRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byEmail)
}

// --- events ---

type fakeEventsRepo struct {
	events    map[string]*models.Event
	attendees map[string][]string
	users     *fakeUsersRepo
	nextID    int

	updateErr error
	locked    []string
}

func newFakeEventsRepo(users *fakeUsersRepo) *fakeEventsRepo {
	return &fakeEventsRepo{
		events:    map[string]*models.Event{},
		attendees: map[string][]string{},
		users:     users,
	}
}

func (f *fakeEventsRepo) materialize(e *models.Event) *models.Event {
	c := *e
	c.Attendees = nil
	for _, id := range f.attendees[e.ID] {
		u, err := f.users.GetByID(context.Background(), id)
		if err == nil {
			c.Attendees = append(c.Attendees, u.Ref())
		}
	}
	return &c
}

func (f *fakeEventsRepo) sorted(keep func(*models.Event) bool) []*models.Event {
	out := make([]*models.Event, 0)
	for _, e := range f.events {
		if keep(e) {
			out = append(out, f.materialize(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

func (f *fakeEventsRepo) List(context.Context) ([]*models.Event, error) {
	return f.sorted(func(*models.Event) bool { return true }), nil
}

func (f *fakeEventsRepo) Upcoming(_ context.Context, now time.Time) ([]*models.Event, error) {
	return f.sorted(func(e *models.Event) bool { return e.StartDate.After(now) }), nil
}

func (f *fakeEventsRepo) Past(_ context.Context, now time.Time) ([]*models.Event, error) {
	return f.sorted(func(e *models.Event) bool { return e.EndDate.Before(now) }), nil
}

func (f *fakeEventsRepo) Search(_ context.Context, filter models.EventFilter) ([]*models.Event, error) {
	return f.sorted(func(e *models.Event) bool {
		if filter.Query != "" && !strings.Contains(e.Title, filter.Query) && !strings.Contains(e.Description, filter.Query) {
			return false
		}
		if filter.MinPrice != nil && e.Price < *filter.MinPrice {
			return false
		}
		if filter.MaxPrice != nil && e.Price > *filter.MaxPrice {
			return false
		}
		if filter.StartFrom != nil && e.StartDate.Before(*filter.StartFrom) {
			return false
		}
		return true
	}), nil
}

func (f *fakeEventsRepo) Get(_ context.Context, id string) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f.materialize(e), nil
}

func (f *fakeEventsRepo) Create(_ context.Context, e *models.Event) (*models.Event, error) {
	f.nextID++
	e.ID = fmt.Sprintf("event-%d", f.nextID)
	c := *e
	f.events[e.ID] = &c
	return e, nil
}

func (f *fakeEventsRepo) Update(_ context.Context, e *models.Event) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.events[e.ID]; !ok {
		return common.ErrorNotFound
	}
	c := *e
	f.events[e.ID] = &c
	return nil
}

func (f *fakeEventsRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.events[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.events, id)
	delete(f.attendees, id)
	return nil
}

func (f *fakeEventsRepo) GetCapacityForUpdate(_ context.Context, id string) (int, error) {
	e, ok := f.events[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	f.locked = append(f.locked, id)
	return e.AvailablePlaces, nil
}

func (f *fakeEventsRepo) CountAttendees(_ context.Context, id string) (int, error) {
	return len(f.attendees[id]), nil
}

func (f *fakeEventsRepo) IsAttending(_ context.Context, eventID, userID string) (bool, error) {
	for _, id := range f.attendees[eventID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEventsRepo) AddAttendee(ctx context.Context, eventID, userID string) error {
	if ok, _ := f.IsAttending(ctx, eventID, userID); ok {
		return common.ErrAlreadyJoined
	}
	f.attendees[eventID] = append(f.attendees[eventID], userID)
	return nil
}

func (f *fakeEventsRepo) RemoveAttendee(_ context.Context, eventID, userID string) error {
	ids := f.attendees[eventID]
	for i, id := range ids {
		if id == userID {
			f.attendees[eventID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return common.ErrNotAttending
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	e *fakeEventsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	u := newFakeUsersRepo()
	return &fakeRepoManager{u: u, e: newFakeEventsRepo(u)}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return m.u }
func (m *fakeRepoManager) Events(dbx.DBTX) events.Repository           { return m.e }

// --- capabilities ---

type fakeHasher struct {
	hashErr error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + password, nil
}

func (h *fakeHasher) Verify(password, hash string) (bool, error) {
	return hash == "hashed:"+password, nil
}

type fakeIssuer struct {
	err   error
	roles []string
}

func (i *fakeIssuer) Issue(userID string, roles []string) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	i.roles = roles
	return "token-for-" + userID, nil
}

type sentCode struct {
	to, name, code string
}

type fakeNotifier struct {
	verification []sentCode
	reset        []sentCode
	err          error
}

func (n *fakeNotifier) SendVerificationCode(_ context.Context, to, name, code string) error {
	n.verification = append(n.verification, sentCode{to, name, code})
	return n.err
}

func (n *fakeNotifier) SendResetCode(_ context.Context, to, name, code string) error {
	n.reset = append(n.reset, sentCode{to, name, code})
	return n.err
}

type fakePresigner struct {
	err   error
	calls int
}

func (p *fakePresigner) PresignImageUpload(_ context.Context, eventID, contentType string) (*storage.ImageUpload, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	key := "events/" + eventID + "/img"
	return &storage.ImageUpload{
		Key:       key,
		UploadURL: "http://s3.local/bucket/" + key + "?X-Amz-Signature=abc",
		ImageURL:  "http://s3.local/bucket/" + key,
	}, nil
}
