// Package server wires the gophevents components together and runs them
// either as the REST API or as the mail delivery worker.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophevents/internal/logging"
	"github.com/dmitrijs2005/gophevents/internal/server/auth"
	"github.com/dmitrijs2005/gophevents/internal/server/config"
	"github.com/dmitrijs2005/gophevents/internal/server/mailqueue"
	"github.com/dmitrijs2005/gophevents/internal/server/notify"
	"github.com/dmitrijs2005/gophevents/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophevents/internal/server/rest"
	"github.com/dmitrijs2005/gophevents/internal/server/services"
	"github.com/dmitrijs2005/gophevents/internal/server/storage"
)

// seams for tests
var (
	openDB      = repomanager.Open
	dialQueue   = mailqueue.Dial
	newRepoMngr = repomanager.NewPostgresRepositoryManager
)

type App struct {
	config *config.Config
	logger logging.Logger

	server *rest.Server
	queue  *mailqueue.Queue

	closers []io.Closer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	app := &App{
		config: c,
		logger: logging.New(c.LogLevel, c.LogFormat),
	}

	var err error
	switch c.Mode {
	case config.ModeServer:
		err = app.initServer(ctx)
	case config.ModeWorker:
		err = app.initWorker()
	default:
		err = fmt.Errorf("unknown run mode %q", c.Mode)
	}
	if err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (app *App) initServer(ctx context.Context) error {
	c := app.config

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.closers = append(app.closers, db)

	rm := newRepoMngr()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	sender, err := app.mailSender()
	if err != nil {
		return err
	}

	app.server = app.buildServer(db, rm, sender)
	return nil
}

func (app *App) buildServer(db *sql.DB, rm repomanager.RepositoryManager, sender notify.Sender) *rest.Server {
	c := app.config

	notifier := notify.NewNotifier(sender, c.MailFromName, c.CodeValidityDuration)
	hasher := auth.NewBcryptHasher(c.BcryptCost)
	issuer := auth.NewJWTIssuer(c.SecretKey, c.AccessTokenValidityDuration)

	images := storage.NewImageStore(storage.Config{
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})

	accounts := services.NewAccountService(db, rm, hasher, issuer, notifier, c.CodeValidityDuration, app.logger)
	events := services.NewEventService(db, rm, images, app.logger)

	return rest.NewServer(rest.Options{
		Address:        c.HTTPAddr,
		RequestTimeout: c.RequestTimeout,
		CookieSecure:   c.CookieSecure,
		CookieMaxAge:   issuer.Validity(),
	}, app.logger, accounts, events, issuer)
}

func (app *App) initWorker() error {
	q, err := dialQueue(app.config.AMQPURL, app.config.MailQueueName, app.logger)
	if err != nil {
		return err
	}
	app.queue = q
	app.closers = append(app.closers, q)
	return nil
}

// mailSender picks the delivery for account e-mails.
func (app *App) mailSender() (notify.Sender, error) {
	c := app.config
	switch c.MailDelivery {
	case config.MailDeliveryLog:
		return notify.NewLogSender(app.logger), nil
	case config.MailDeliverySMTP:
		return notify.NewSMTPSender(smtpConfig(c)), nil
	case config.MailDeliveryQueue:
		q, err := dialQueue(c.AMQPURL, c.MailQueueName, app.logger)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, q)
		return q, nil
	default:
		return nil, fmt.Errorf("unknown mail delivery %q", c.MailDelivery)
	}
}

func smtpConfig(c *config.Config) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:        c.SMTPHost,
		Port:        c.SMTPPort,
		Username:    c.SMTPUser,
		Password:    c.SMTPPassword,
		FromName:    c.MailFromName,
		FromAddress: c.MailFromAddress,
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a termination signal arrives or the component fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.initSignalHandler(cancelFunc)

	app.logger.Info(ctx, "Starting app...", "mode", app.config.Mode)

	if app.queue != nil {
		return app.queue.Consume(ctx, notify.NewSMTPSender(smtpConfig(app.config)))
	}
	return app.server.Run(ctx)
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}
