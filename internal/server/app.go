// Package server wires the UpTask backend together: database, migrations,
// services, mail delivery, rate limiting and the HTTP server, and runs them
// until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/uptask/internal/logging"
	"github.com/dmitrijs2005/uptask/internal/server/auth"
	"github.com/dmitrijs2005/uptask/internal/server/config"
	"github.com/dmitrijs2005/uptask/internal/server/mail"
	"github.com/dmitrijs2005/uptask/internal/server/ratelimit"
	"github.com/dmitrijs2005/uptask/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/uptask/internal/server/rest"
	"github.com/dmitrijs2005/uptask/internal/server/services"
	"github.com/gin-gonic/gin"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	janitorInterval = 10 * time.Minute
	mailDrainWait   = 15 * time.Second
)

// App owns the process-wide resources and their shutdown order.
type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	mailer  *mail.Dispatcher
	http    *rest.Server
	janitor *Janitor
}

// NewApp connects to the database, applies migrations and wires every
// component from c.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.Production(), c.SlogLevel())
	if c.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	sender, err := newSender(ctx, c, logger.With("module", "mail_sender"))
	if err != nil {
		db.Close()
		return nil, err
	}
	dispatcher := mail.NewDispatcher(sender, logger.With("module", "mail"), mail.DispatcherConfig{
		FrontendURL: c.FrontendURL,
		Environment: c.Environment,
		MaxAttempts: c.EmailMaxRetries,
		BaseDelay:   c.EmailRetryDelay,
	})

	tokens := auth.NewTokenService(c.JWTSecret, c.JWTRefreshSecret, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)

	svc := rest.Services{
		Accounts: services.NewAccountService(db, rm, auth.NewBcryptHasher(0), tokens, dispatcher, logger.With("module", "accounts")),
		Projects: services.NewProjectService(db, rm, logger.With("module", "projects")),
		Tasks:    services.NewTaskService(db, rm, logger.With("module", "tasks")),
		Notes:    services.NewNoteService(db, rm, logger.With("module", "notes")),
		Team:     services.NewTeamService(db, rm, logger.With("module", "team")),
	}

	janitor := NewJanitor(logger.With("module", "janitor"), janitorInterval,
		PurgeTask{Name: "tokens", Purge: rm.Tokens(db).PurgeExpired},
		PurgeTask{Name: "revoked_refresh_tokens", Purge: rm.RefreshTokens(db).PurgeExpired},
	)

	var counter ratelimit.Counter
	switch c.RateLimitBackend {
	case "postgres":
		sc := ratelimit.NewStoreCounter(rm.RateLimits(db))
		counter = sc
		janitor.Add(PurgeTask{Name: "rate_limits", Purge: sweepFunc(sc)})
	default:
		mc := ratelimit.NewMemoryCounter(0)
		counter = mc
		janitor.Add(PurgeTask{Name: "rate_limits", Purge: sweepFunc(mc)})
	}

	httpServer := rest.NewServer(rest.Config{
		Address:     c.HTTPAddr,
		FrontendURL: c.FrontendURL,
		Cookies:     auth.NewCookiePolicy(c.Production(), c.CookieCrossSite, tokens.AccessTTL(), tokens.RefreshTTL()),
	}, logger, svc, tokens, counter, db)

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		mailer:  dispatcher,
		http:    httpServer,
		janitor: janitor,
	}, nil
}

func newSender(ctx context.Context, c *config.Config, log logging.Logger) (mail.Sender, error) {
	if c.EmailProvider != "ses" {
		return mail.NewLogSender(log), nil
	}
	s, err := mail.NewSESSender(ctx, mail.SESConfig{
		Region:          c.AWSRegion,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
		From:            c.EmailFrom,
		ReplyTo:         c.EmailReplyTo,
	})
	if err != nil {
		return nil, fmt.Errorf("ses init error: %w", err)
	}
	return s, nil
}

func sweepFunc(s ratelimit.Sweeper) func(context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		n, err := s.Sweep(ctx)
		return int64(n), err
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives or the HTTP server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.janitor.Run(ctx)
	}()

	wg.Wait()

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailDrainWait)
	defer cancel()
	if err := app.mailer.Wait(drainCtx); err != nil {
		app.logger.Warn(ctx, "pending emails abandoned", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
