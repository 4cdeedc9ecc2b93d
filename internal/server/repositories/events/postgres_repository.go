package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophevents/internal/common"
	"github.com/dmitrijs2005/gophevents/internal/dbx"
	"github.com/dmitrijs2005/gophevents/internal/server/models"
)

// selectEvents loads events with their creator and attendee list in one
// round trip. Callers append WHERE, then groupBy, then ORDER BY.
const selectEvents = `SELECT e.id, e.title, e.description, e.location, e.available_places, e.price, e.image_url,
		 e.start_date, e.end_date, e.created_at, e.updated_at,
		 c.id, c.email, c.name,
		 COALESCE(json_agg(json_build_object('id', u.id, 'email', u.email, 'name', u.name) ORDER BY a.joined_at)
		   FILTER (WHERE u.id IS NOT NULL), '[]')
		 FROM events e
		 JOIN users c ON c.id = e.creator_id
		 LEFT JOIN event_attendees a ON a.event_id = e.id
		 LEFT JOIN users u ON u.id = a.user_id`

const groupBy = ` GROUP BY e.id, c.id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Event, error) {
	return r.query(ctx, selectEvents+groupBy+` ORDER BY e.start_date ASC`)
}

func (r *PostgresRepository) Upcoming(ctx context.Context, now time.Time) ([]*models.Event, error) {
	return r.query(ctx, selectEvents+` WHERE e.start_date > $1`+groupBy+` ORDER BY e.start_date ASC`, now)
}

func (r *PostgresRepository) Past(ctx context.Context, now time.Time) ([]*models.Event, error) {
	return r.query(ctx, selectEvents+` WHERE e.end_date < $1`+groupBy+` ORDER BY e.end_date DESC`, now)
}

func (r *PostgresRepository) Search(ctx context.Context, f models.EventFilter) ([]*models.Event, error) {
	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Query != "" {
		p := next(containsPattern(f.Query))
		where = append(where, "(e.title LIKE "+p+likeEscape+" OR e.description LIKE "+p+likeEscape+")")
	}
	if f.StartFrom != nil {
		where = append(where, "e.start_date >= "+next(*f.StartFrom))
	}
	if f.EndBy != nil {
		where = append(where, "e.end_date <= "+next(*f.EndBy))
	}
	if f.Location != "" {
		where = append(where, "e.location LIKE "+next(containsPattern(f.Location))+likeEscape)
	}
	if f.MinPrice != nil {
		where = append(where, "e.price >= "+next(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "e.price <= "+next(*f.MaxPrice))
	}
	if f.HasAvailablePlaces {
		where = append(where, "e.available_places > (SELECT COUNT(*) FROM event_attendees x WHERE x.event_id = e.id)")
	}

	q := selectEvents
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += groupBy + ` ORDER BY e.start_date ASC`

	return r.query(ctx, q, args...)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Event, error) {
	list, err := r.query(ctx, selectEvents+` WHERE e.id = $1`+groupBy, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, common.ErrorNotFound
	}
	return list[0], nil
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	query :=
		`INSERT INTO events (title, description, location, available_places, price, image_url,
		 start_date, end_date, creator_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Location, e.AvailablePlaces, e.Price, nullString(e.ImageURL),
		e.StartDate, e.EndDate, e.Creator.ID).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, dbError(err)
	}

	if e.Attendees == nil {
		e.Attendees = []models.UserRef{}
	}
	return e, nil
}

func (r *PostgresRepository) Update(ctx context.Context, e *models.Event) error {
	query :=
		`UPDATE events SET title = $2, description = $3, location = $4, available_places = $5,
		 price = $6, image_url = $7, start_date = $8, end_date = $9, updated_at = $10
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.Location, e.AvailablePlaces,
		e.Price, nullString(e.ImageURL), e.StartDate, e.EndDate, e.UpdatedAt)
	if err != nil {
		return dbError(err)
	}
	return dbx.ExpectRows(res, common.ErrorNotFound)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return dbError(err)
	}
	return dbx.ExpectRows(res, common.ErrorNotFound)
}

func (r *PostgresRepository) GetCapacityForUpdate(ctx context.Context, id string) (int, error) {
	var places int
	err := r.db.QueryRowContext(ctx,
		`SELECT available_places FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&places)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, dbError(err)
	}
	return places, nil
}

func (r *PostgresRepository) CountAttendees(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_attendees WHERE event_id = $1`, eventID).Scan(&n)
	if err != nil {
		return 0, dbError(err)
	}
	return n, nil
}

func (r *PostgresRepository) IsAttending(ctx context.Context, eventID, userID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_attendees WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID).Scan(&ok)
	if err != nil {
		return false, dbError(err)
	}
	return ok, nil
}

func (r *PostgresRepository) AddAttendee(ctx context.Context, eventID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_attendees (event_id, user_id) VALUES ($1, $2)`, eventID, userID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyJoined
		}
		return dbError(err)
	}
	return nil
}

func (r *PostgresRepository) RemoveAttendee(ctx context.Context, eventID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return dbError(err)
	}
	return dbx.ExpectRows(res, common.ErrNotAttending)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	result := make([]*models.Event, 0)
	for rows.Next() {
		var (
			e         models.Event
			imageURL  sql.NullString
			attendees []byte
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.AvailablePlaces, &e.Price, &imageURL,
			&e.StartDate, &e.EndDate, &e.CreatedAt, &e.UpdatedAt,
			&e.Creator.ID, &e.Creator.Email, &e.Creator.Name, &attendees); err != nil {
			return nil, dbError(err)
		}
		if imageURL.Valid {
			s := imageURL.String
			e.ImageURL = &s
		}
		if err := json.Unmarshal(attendees, &e.Attendees); err != nil {
			return nil, fmt.Errorf("decoding attendees: %w", err)
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}

	return result, nil
}

const likeEscape = ` ESCAPE '\'`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches s literally anywhere in the column.
func containsPattern(s string) string {
	return "%" + likeReplacer.Replace(s) + "%"
}

// dbError wraps a driver error. Ids are uuid columns, so a malformed id in
// a path matches no row.
func dbError(err error) error {
	if dbx.IsInvalidText(err) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
