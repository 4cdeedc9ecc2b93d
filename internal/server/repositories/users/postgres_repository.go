package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophevents/internal/common"
	"github.com/dmitrijs2005/gophevents/internal/dbx"
	"github.com/dmitrijs2005/gophevents/internal/server/models"
)

const userColumns = `id, email, name, password_hash, roles, is_verified,
		 verification_code, verification_code_expires_at,
		 reset_code, reset_code_expires_at, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	roles, err := encodeRoles(user.Roles)
	if err != nil {
		return nil, err
	}
	vCode, vExp := codeArgs(user.VerificationCode)
	rCode, rExp := codeArgs(user.ResetCode)

	query :=
		`INSERT INTO users (email, name, password_hash, roles, is_verified,
		 verification_code, verification_code_expires_at, reset_code, reset_code_expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, roles, user.IsVerified,
		vCode, vExp, rCode, rExp).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE email = $1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByEmailForUpdate(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE email = $1
		 FOR UPDATE
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 FOR UPDATE
		 `
	return r.getOne(ctx, query, id)
}

// Update writes every mutable column and refreshes user.UpdatedAt.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	roles, err := encodeRoles(user.Roles)
	if err != nil {
		return err
	}
	vCode, vExp := codeArgs(user.VerificationCode)
	rCode, rExp := codeArgs(user.ResetCode)

	query :=
		`UPDATE users SET email = $2, name = $3, password_hash = $4, roles = $5, is_verified = $6,
		 verification_code = $7, verification_code_expires_at = $8,
		 reset_code = $9, reset_code_expires_at = $10, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, roles, user.IsVerified,
		vCode, vExp, rCode, rExp).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) SetResetCode(ctx context.Context, id string, code *models.OneTimeCode) error {
	rCode, rExp := codeArgs(code)
	return r.exec(ctx,
		`UPDATE users SET reset_code = $2, reset_code_expires_at = $3, updated_at = now()
		 WHERE id = $1
		 `, id, rCode, rExp)
}

func (r *PostgresRepository) ClearResetCodeIfExpired(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET reset_code = NULL, reset_code_expires_at = NULL, updated_at = now()
		 WHERE id = $1 AND reset_code_expires_at <= $2
		 `, id, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetPassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx,
		`UPDATE users SET password_hash = $2, reset_code = NULL, reset_code_expires_at = NULL, updated_at = now()
		 WHERE id = $1
		 `, id, hash)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, name, email string) error {
	return r.exec(ctx,
		`UPDATE users SET name = $2, email = $3, updated_at = now()
		 WHERE id = $1
		 `, id, name, email)
}

// exec runs a single-row UPDATE and maps its outcome.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectRows(res, common.ErrorNotFound)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		// a malformed id cannot match any row
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u            models.User
		roles        []byte
		vCode, rCode sql.NullString
		vExp, rExp   sql.NullTime
	)

	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &roles, &u.IsVerified,
		&vCode, &vExp, &rCode, &rExp, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &u.Roles); err != nil {
			return nil, fmt.Errorf("decoding roles: %w", err)
		}
	}
	u.VerificationCode = codeFromColumns(vCode, vExp)
	u.ResetCode = codeFromColumns(rCode, rExp)

	return &u, nil
}

func encodeRoles(roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	b, err := json.Marshal(roles)
	if err != nil {
		return "", fmt.Errorf("encoding roles: %w", err)
	}
	return string(b), nil
}

func codeArgs(c *models.OneTimeCode) (sql.NullString, sql.NullTime) {
	if c == nil {
		return sql.NullString{}, sql.NullTime{}
	}
	return sql.NullString{String: c.Value, Valid: true}, sql.NullTime{Time: c.ExpiresAt, Valid: true}
}

// codeFromColumns treats a half-populated pair as no code; the table's
// CHECK constraints make that state unreachable.
func codeFromColumns(code sql.NullString, exp sql.NullTime) *models.OneTimeCode {
	if !code.Valid || !exp.Valid {
		return nil
	}
	return &models.OneTimeCode{Value: code.String, ExpiresAt: exp.Time}
}
