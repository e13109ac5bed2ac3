package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/cycastic/portfolio-toolkit/internal/portfolio/http"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/mail"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/service"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/storage"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store/drivers/sqlite"
	"github.com/cycastic/portfolio-toolkit/pkg/cryptox"
	"github.com/cycastic/portfolio-toolkit/pkg/jwtx"
	"github.com/cycastic/portfolio-toolkit/pkg/presign"
	"github.com/cycastic/portfolio-toolkit/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the portfolio service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	signer   jwtx.Signer
	verifier jwtx.Verifier

	// Services
	credentialService   *service.CredentialService
	userService         *service.UserService
	verificationService *service.VerificationService
	projectService      *service.ProjectService
	listingService      *service.ListingService
	accessService       *service.AccessService
	dispatcher          *mail.Dispatcher

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portfolio-toolkit",
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

	if err := app.initKeys(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.dispatcher.Start()

	app.logger.Info("portfolio service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portfolio service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Drain queued mail before dropping the database
	app.dispatcher.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("portfolio service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
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

// initKeys loads the Ed25519 signing key from disk, or generates an
// ephemeral one. Ephemeral keys invalidate all sessions on restart, which is
// fine for dev and wrong for prod.
func (app *Application) initKeys() error {
	var pemKey []byte
	if app.cfg.SigningKeyFile != "" {
		data, err := os.ReadFile(app.cfg.SigningKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read signing key: %w", err)
		}
		pemKey = data
	} else {
		data, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return err
		}
		pemKey = data
		app.logger.Warn("using ephemeral signing key; sessions will not survive restarts")
	}

	signer, err := jwtx.NewSignerEdDSA("primary", pemKey)
	if err != nil {
		return fmt.Errorf("failed to load signing key: %w", err)
	}
	if err := signer.Validate(); err != nil {
		return err
	}

	app.signer = signer
	app.verifier = jwtx.NewVerifierEdDSA(signer.PublicKey(), app.cfg.Issuer)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices(ctx context.Context) error {
	presignSecret := app.cfg.PresignSecret
	if presignSecret == "" {
		presignSecret = cryptox.MustGenerateToken(cryptox.TokenSize256)
		app.logger.Warn("using ephemeral presign secret; verification links will not survive restarts")
	}

	mailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.MailFrom,
	})
	app.dispatcher = mail.NewDispatcher(mailer, app.logger, app.cfg.MailWorkers, app.cfg.MailBuffer, 0)

	app.verificationService = &service.VerificationService{
		Store:          app.db,
		Dispatcher:     app.dispatcher,
		Presigner:      presign.NewSigner([]byte(presignSecret)),
		BackendOrigin:  app.cfg.BackendOrigin,
		FrontendOrigin: app.cfg.FrontendOrigin,
		LinkTTL:        app.cfg.VerificationLinkTTL,
	}

	credentialService, err := service.NewCredentialService(
		app.db,
		app.signer,
		app.verificationService,
		app.cfg.Issuer,
		app.cfg.TokenTTL,
		app.cfg.ResendCooldown,
	)
	if err != nil {
		return err
	}
	app.credentialService = credentialService

	app.userService = &service.UserService{Store: app.db}
	app.accessService = &service.AccessService{Store: app.db}
	app.projectService = &service.ProjectService{Store: app.db}

	blobs, err := storage.New(ctx, storage.Config{
		Region:       app.cfg.S3Region,
		AccessKey:    app.cfg.S3AccessKey,
		SecretKey:    app.cfg.S3SecretKey,
		BaseEndpoint: app.cfg.S3Endpoint,
		Bucket:       app.cfg.S3Bucket,
		PresignTTL:   app.cfg.S3PresignTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	app.listingService = &service.ListingService{
		Store:  app.db,
		Access: app.accessService,
		Blobs:  blobs,
	}

	return nil
}

// initHTTP wires the router and HTTP server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.signer, app.verifier, BuildVersion, app.db, app.logger)
	router.CredentialService = app.credentialService
	router.UserService = app.userService
	router.VerificationService = app.verificationService
	router.ProjectService = app.projectService
	router.ListingService = app.listingService
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}
