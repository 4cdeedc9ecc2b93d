package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophevents/internal/client/client"
	"github.com/dmitrijs2005/gophevents/internal/client/config"
	"github.com/dmitrijs2005/gophevents/internal/client/services"

	_ "modernc.org/sqlite"
)

// sessionDBFile keeps the login between runs, in the working directory.
const sessionDBFile = "gophevents-session.db"

type App struct {
	config      *config.Config
	authService services.AuthService
	eventSvc    services.EventService
	session     *services.Session
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.InitDatabase(ctx, sessionDBFile)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	apiClient := client.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout)

	return &App{
		config:      c,
		authService: services.NewAuthService(apiClient, db),
		eventSvc:    services.NewEventService(apiClient),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

// Run restores a saved session, then serves the REPL until the user exits
// or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.authService.Close()

	fmt.Fprintf(a.out, "Welcome to gophevents CLI, server %s (type 'help' for commands)\n", a.config.ServerBaseURL)

	a.restoreSession(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) restoreSession(ctx context.Context) {
	s, err := a.authService.Restore(ctx)
	if err != nil {
		if !errors.Is(err, services.ErrNoSession) {
			fmt.Fprintf(a.out, "Could not restore session: %v\n", err)
		}
		return
	}
	a.session = s
	fmt.Fprintf(a.out, "Welcome back, %s\n", s.Name)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) getStatus() string {
	if a.session == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.session.Email)
}
