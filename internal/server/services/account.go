package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophevents/internal/common"
	"github.com/dmitrijs2005/gophevents/internal/dbx"
	"github.com/dmitrijs2005/gophevents/internal/logging"
	"github.com/dmitrijs2005/gophevents/internal/server/models"
	"github.com/dmitrijs2005/gophevents/internal/server/repositories/repomanager"
)

// PasswordHasher hashes raw passwords and checks candidates against a hash.
// Verify reports a mismatch as (false, nil).
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// TokenIssuer mints an access token for a user id and its effective roles.
type TokenIssuer interface {
	Issue(userID string, roles []string) (string, error)
}

// AccountNotifier sends the one-time codes by e-mail.
type AccountNotifier interface {
	SendVerificationCode(ctx context.Context, to, name, code string) error
	SendResetCode(ctx context.Context, to, name, code string) error
}

// ProfileUpdate lists the profile fields a user wants to change. Empty
// strings mean "leave as is". A password change needs both passwords.
type ProfileUpdate struct {
	CurrentPassword string
	NewPassword     string
	Name            string
	Email           string
}

// AccountService implements registration, login, e-mail verification, the
// password reset flow and profile edits.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	notifier    AccountNotifier
	codeTTL     time.Duration
	logger      logging.Logger

	now          func() time.Time
	generateCode func() (string, error)

	// dummyHash is verified against when the e-mail is unknown, so a failed
	// login costs the same whether or not the account exists.
	dummyHash string
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher,
	tokens TokenIssuer, notifier AccountNotifier, codeTTL time.Duration, l logging.Logger) *AccountService {

	dummy, _ := hasher.Hash("gophevents-login-timing")

	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		notifier:    notifier,
		codeTTL:     codeTTL,
		logger:      l.With("module", "accounts"),
		now:         time.Now,
		generateCode: func() (string, error) {
			return common.GenerateNumericCode(common.CodeDigits)
		},
		dummyHash: dummy,
	}
}

// Register creates an unverified account and mails it a verification code.
// An existing e-mail is reported before field validation runs.
func (s *AccountService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if email == "" || password == "" || name == "" {
		return nil, common.ErrMissingFields
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrConflict
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, classify("looking up user", err)
	}

	if fields := models.ValidateRegistration(email, name, password); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, classify("hashing password", err)
	}
	code, err := s.generateCode()
	if err != nil {
		return nil, classify("generating code", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Roles:        []string{},
	}
	user.IssueVerificationCode(code, s.now().Add(s.codeTTL))

	created, err := repo.Create(ctx, user)
	if err != nil {
		return nil, classify("creating user", err)
	}

	if err := s.notifier.SendVerificationCode(ctx, created.Email, created.Name, code); err != nil {
		s.logger.Warn(ctx, "verification mail not sent", "user_id", created.ID, "error", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// Login checks the credentials and returns an access token with the user.
// Unknown e-mail and wrong password both yield ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	if email == "" || password == "" {
		return "", nil, common.ErrMissingFields
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return "", nil, common.ErrInvalidCredentials
		}
		return "", nil, classify("looking up user", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", nil, classify("verifying password", err)
	}
	if !ok {
		return "", nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.EffectiveRoles())
	if err != nil {
		return "", nil, classify("issuing token", err)
	}
	return token, user, nil
}

// VerifyAccount marks the account verified when code matches the pending
// verification code. An expired code is cleared and reported as
// ErrInvalidOrExpired.
func (s *AccountService) VerifyAccount(ctx context.Context, email, code string) (*models.User, error) {
	if email == "" || code == "" {
		return nil, common.ErrMissingFields
	}

	var (
		verified *models.User
		expired  bool
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByEmailForUpdate(ctx, email)
		if err != nil {
			return err
		}
		if user.IsVerified {
			return common.ErrAlreadyVerified
		}

		now := s.now()
		if user.ExpireVerificationCode(now) {
			// the cleared code has to be committed, so the failure is
			// reported after the transaction
			expired = true
			return repo.Update(ctx, user)
		}
		if !user.VerificationCode.Matches(code, now) {
			return common.ErrInvalidOrExpired
		}

		user.MarkVerified()
		if err := repo.Update(ctx, user); err != nil {
			return err
		}
		verified = user
		return nil
	})
	if err != nil {
		return nil, classify("verifying account", err)
	}
	if expired {
		return nil, common.ErrInvalidOrExpired
	}

	s.logger.Info(ctx, "account verified", "user_id", verified.ID)
	return verified, nil
}

// ForgotPassword issues a reset code for a known e-mail and mails it.
// Unknown addresses succeed the same way with no side effects. Only the
// reset code columns are written.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return common.ErrMissingFields
	}
	if !models.ValidateEmail(email) {
		return common.ErrInvalidFormat
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "password reset for unknown e-mail")
			return nil
		}
		return classify("looking up user", err)
	}

	code, err := s.generateCode()
	if err != nil {
		return classify("generating code", err)
	}
	user.IssueResetCode(code, s.now().Add(s.codeTTL))

	if err := repo.SetResetCode(ctx, user.ID, user.ResetCode); err != nil {
		return classify("storing reset code", err)
	}

	if err := s.notifier.SendResetCode(ctx, user.Email, user.Name, code); err != nil {
		s.logger.Warn(ctx, "reset mail not sent", "user_id", user.ID, "error", err)
	}
	return nil
}

// VerifyResetCode reports whether code is the pending reset code of email.
// The only write it may do is clearing an expired code.
func (s *AccountService) VerifyResetCode(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		return common.ErrMissingFields
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidOrExpired
		}
		return classify("looking up user", err)
	}

	now := s.now()
	if user.ExpireResetCode(now) {
		if err := repo.ClearResetCodeIfExpired(ctx, user.ID, now); err != nil {
			return classify("clearing expired reset code", err)
		}
		return common.ErrInvalidOrExpired
	}
	if !user.ResetCode.Matches(code, now) {
		return common.ErrInvalidOrExpired
	}
	return nil
}

// ResetPassword sets a new password when code is the pending reset code.
// The check and the write run in one transaction with the user row locked,
// so a code can be used once.
func (s *AccountService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if email == "" || code == "" || newPassword == "" {
		return common.ErrMissingFields
	}

	var expired bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidOrExpired
			}
			return err
		}

		now := s.now()
		if user.ExpireResetCode(now) {
			expired = true
			return repo.ClearResetCodeIfExpired(ctx, user.ID, now)
		}
		if !user.ResetCode.Matches(code, now) {
			return common.ErrInvalidOrExpired
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return err
		}
		return repo.SetPassword(ctx, user.ID, hash)
	})
	if err != nil {
		return classify("resetting password", err)
	}
	if expired {
		return common.ErrInvalidOrExpired
	}

	s.logger.Info(ctx, "password reset")
	return nil
}

// EditProfile applies upd to the account of userID. Name and e-mail are
// stored as given; an e-mail taken by another account yields ErrConflict.
// The row stays locked from the password check to the last write.
func (s *AccountService) EditProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	if userID == "" {
		return nil, common.ErrUnauthenticated
	}
	if upd.NewPassword != "" && upd.CurrentPassword == "" {
		return nil, common.ErrInvalidCurrentPassword
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUnauthenticated
			}
			return err
		}

		if upd.NewPassword != "" {
			ok, err := s.hasher.Verify(upd.CurrentPassword, user.PasswordHash)
			if err != nil {
				return err
			}
			if !ok {
				return common.ErrInvalidCurrentPassword
			}
			hash, err := s.hasher.Hash(upd.NewPassword)
			if err != nil {
				return err
			}
			if err := repo.SetPassword(ctx, user.ID, hash); err != nil {
				return err
			}
			user.SetPassword(hash)
		}

		if upd.Name != "" || upd.Email != "" {
			if upd.Name != "" {
				user.Name = upd.Name
			}
			if upd.Email != "" {
				user.Email = upd.Email
			}
			if err := repo.UpdateProfile(ctx, user.ID, user.Name, user.Email); err != nil {
				return err
			}
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, classify("updating profile", err)
	}
	return updated, nil
}
