// Package services contains application services for the gophevents CLI.
// This file defines the account service: registration and the code flows,
// login with a locally persisted session, profile edits and logout.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophevents/internal/client/client"
	"github.com/dmitrijs2005/gophevents/internal/client/models"
	"github.com/dmitrijs2005/gophevents/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophevents/internal/dbx"
)

// metadata keys of the persisted session
const (
	keyToken  = "token"
	keyUserID = "user_id"
	keyEmail  = "email"
	keyName   = "name"
)

// ErrNoSession is returned by Restore when nobody is logged in locally.
var ErrNoSession = errors.New("no saved session")

// Session is the locally remembered login.
type Session struct {
	UserID string
	Email  string
	Name   string
	Token  string
}

// AuthService defines the account operations of the CLI.
//
// Login persists the session so a later run can Restore it without asking
// for the password again. Logout always clears the local session.
type AuthService interface {
	Register(ctx context.Context, email string, password []byte, name string) (*models.User, error)
	Login(ctx context.Context, email string, password []byte) (*Session, error)
	Restore(ctx context.Context) (*Session, error)
	VerifyAccount(ctx context.Context, email, code string) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	VerifyResetCode(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code string, newPassword []byte) error
	EditProfile(ctx context.Context, upd models.ProfileUpdate) (*Session, error)
	Logout(ctx context.Context) error
	Close() error
}

// authService is backed by the remote Client and the local session DB.
type authService struct {
	client client.Client
	db     *sql.DB
}

func NewAuthService(c client.Client, db *sql.DB) AuthService {
	return &authService{client: c, db: db}
}

func (a *authService) getMetadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (a *authService) Register(ctx context.Context, email string, password []byte, name string) (*models.User, error) {
	return a.client.Register(ctx, email, string(password), name)
}

// Login authenticates against the server and saves the session locally.
func (a *authService) Login(ctx context.Context, email string, password []byte) (*Session, error) {
	u, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return nil, err
	}

	s := &Session{UserID: u.ID, Email: u.Email, Name: u.Name, Token: a.client.Token()}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// saveSession writes every session key in a single transaction.
func (a *authService) saveSession(ctx context.Context, s *Session) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.getMetadataRepo(tx)
		values := map[string]string{
			keyToken:  s.Token,
			keyUserID: s.UserID,
			keyEmail:  s.Email,
			keyName:   s.Name,
		}
		for k, v := range values {
			if err := repo.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Restore loads the saved session and hands its token to the client.
func (a *authService) Restore(ctx context.Context) (*Session, error) {
	repo := a.getMetadataRepo(a.db)

	s := &Session{}
	for k, dst := range map[string]*string{
		keyToken:  &s.Token,
		keyUserID: &s.UserID,
		keyEmail:  &s.Email,
		keyName:   &s.Name,
	} {
		v, err := repo.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		*dst = v
	}

	if s.Token == "" {
		return nil, ErrNoSession
	}
	a.client.SetToken(s.Token)
	return s, nil
}

func (a *authService) VerifyAccount(ctx context.Context, email, code string) (*models.User, error) {
	return a.client.VerifyAccount(ctx, email, code)
}

func (a *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	return a.client.ForgotPassword(ctx, email)
}

func (a *authService) VerifyResetCode(ctx context.Context, email, code string) error {
	return a.client.VerifyResetCode(ctx, email, code)
}

func (a *authService) ResetPassword(ctx context.Context, email, code string, newPassword []byte) error {
	return a.client.ResetPassword(ctx, email, code, string(newPassword))
}

// EditProfile updates the account and refreshes the cached name and email.
func (a *authService) EditProfile(ctx context.Context, upd models.ProfileUpdate) (*Session, error) {
	u, err := a.client.EditProfile(ctx, upd)
	if err != nil {
		return nil, err
	}

	s := &Session{UserID: u.ID, Email: u.Email, Name: u.Name, Token: a.client.Token()}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Logout tells the server and wipes the local session. The local wipe
// happens even when the server cannot be reached.
func (a *authService) Logout(ctx context.Context) error {
	remoteErr := a.client.Logout(ctx)
	if err := a.getMetadataRepo(a.db).Clear(ctx); err != nil {
		return err
	}
	if errors.Is(remoteErr, client.ErrUnavailable) {
		return nil
	}
	return remoteErr
}

func (a *authService) Close() error {
	return a.db.Close()
}
