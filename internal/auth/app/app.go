package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/majesticmotors/dealerauth/internal/auth/http"
	"github.com/majesticmotors/dealerauth/internal/auth/mailer"
	"github.com/majesticmotors/dealerauth/internal/auth/ratelimit"
	"github.com/majesticmotors/dealerauth/internal/auth/service"
	"github.com/majesticmotors/dealerauth/internal/auth/store"
	"github.com/majesticmotors/dealerauth/internal/auth/store/drivers/sqlite"
	"github.com/majesticmotors/dealerauth/pkg/cryptox"
	"github.com/majesticmotors/dealerauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db    store.Store
	cache *redis.Client

	// Services
	credentialsService  *service.CredentialsService
	sessionService      *service.SessionService
	challengeService    *service.ChallengeService
	totpService         *service.TOTPService
	secondFactorService *service.SecondFactorService
	rolesService        *service.RolesService
	housekeepingService *service.HousekeepingService
	limiter             *ratelimit.Limiter

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "dealerauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initCache()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initCache connects to Redis when configured. Without it the sliding-window
// limiter runs against a nil store and fails open, which is acceptable for
// single-instance dev setups but not for production.
func (app *Application) initCache() {
	if app.cfg.RedisAddr == "" {
		app.logger.Warn("REDIS_ADDR not set, account rate limiting disabled")
		return
	}

	app.cache = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
	})
}

// initMailer picks the configured email backend.
func (app *Application) initMailer() mailer.Sender {
	if app.cfg.MailProvider == "sendgrid" {
		app.logger.Info("using sendgrid mail backend")
		return &mailer.SendGridSender{
			APIKey:   app.cfg.SendGridAPIKey,
			From:     app.cfg.MailFrom,
			FromName: app.cfg.MailFromName,
		}
	}

	app.logger.Info("using smtp mail backend", "host", app.cfg.SMTPHost)
	return &mailer.SMTPSender{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.MailFrom,
	}
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.credentialsService = &service.CredentialsService{Store: app.db}
	app.sessionService = &service.SessionService{
		Store: app.db,
		TTL:   app.cfg.SessionTTL,
	}
	app.challengeService = &service.ChallengeService{
		Store:  app.db,
		Mailer: app.initMailer(),
		TTL:    app.cfg.ChallengeTTL,
	}
	app.totpService = &service.TOTPService{
		Store:  app.db,
		Issuer: app.cfg.Issuer,
	}
	app.secondFactorService = &service.SecondFactorService{
		Store:      app.db,
		TOTP:       app.totpService,
		Challenges: app.challengeService,
	}
	app.rolesService = &service.RolesService{Store: app.db}

	app.limiter = &ratelimit.Limiter{Store: app.limiterStore()}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) limiterStore() ratelimit.Store {
	if app.cache == nil {
		return noopLimiterStore{}
	}
	return ratelimit.NewRedisStore(app.cache)
}

// noopLimiterStore admits everything. Used when Redis is not configured.
type noopLimiterStore struct{}

func (noopLimiterStore) SlidingWindowCheck(context.Context, string, int, time.Duration) (ratelimit.Result, error) {
	return ratelimit.Result{Allowed: true}, nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.cache, app.logger)

	router.Credentials = app.credentialsService
	router.Sessions = app.sessionService
	router.SecondFactor = app.secondFactorService
	router.TOTP = app.totpService
	router.Roles = app.rolesService
	router.Limiter = app.limiter
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
