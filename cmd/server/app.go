package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/esther-anierobi/bookIT/internal/config"
	"github.com/esther-anierobi/bookIT/internal/events"
	"github.com/esther-anierobi/bookIT/internal/platform/kafka"
	"github.com/esther-anierobi/bookIT/internal/platform/postgres"
	"github.com/esther-anierobi/bookIT/internal/service"
	"github.com/esther-anierobi/bookIT/internal/service/auth"
	"github.com/esther-anierobi/bookIT/internal/store"
	"github.com/esther-anierobi/bookIT/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore         store.UserStore
	serviceStore      store.ServiceStore
	bookingStore      store.BookingStore
	reviewStore       store.ReviewStore
	revokedTokenStore store.RevokedTokenStore
	taskStore         task.TaskStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordHasher   auth.PasswordHasher
	passwordVerifier auth.PasswordVerifier
	sessionService   auth.SessionService
	userService      service.UserService
	bookingService   service.BookingService
	catalogService   service.CatalogService
	reviewService    service.ReviewService

	// Event system
	eventEmitter events.EventEmitter
	publisher    *kafka.Publisher

	// Background work
	taskRunner  *task.TaskRunner
	maintenance *task.MaintenanceRunner
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"access_token_ttl", cfg.Auth.AccessTokenTTL,
		"refresh_token_ttl", cfg.Auth.RefreshTokenTTL)

	// Initialize password hashing
	app.passwordHasher = auth.NewBcryptHasher()
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Initialize stores
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.serviceStore = postgres.NewPostgresServiceStore(db, logger)
	app.bookingStore = postgres.NewPostgresBookingStore(db, logger)
	app.reviewStore = postgres.NewPostgresReviewStore(db, logger)
	app.revokedTokenStore = postgres.NewPostgresRevokedTokenStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	// Initialize session handling on top of the JWT service and the
	// revocation ledger
	app.sessionService = auth.NewSessionService(
		app.jwtService,
		app.userStore,
		app.revokedTokenStore,
		db,
		logger,
	)

	// Initialize event emitter
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	// Initialize user service
	app.userService = service.NewUserService(
		app.userStore,
		db,
		app.passwordHasher,
		app.passwordVerifier,
		app.sessionService,
		logger,
	)

	// Initialize booking service
	app.bookingService, err = service.NewBookingService(
		app.bookingStore,
		app.serviceStore,
		db,
		app.eventEmitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking service: %w", err)
	}

	// Initialize catalog service
	app.catalogService, err = service.NewCatalogService(app.serviceStore, db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog service: %w", err)
	}

	// Initialize review service
	app.reviewService, err = service.NewReviewService(
		app.reviewStore,
		app.bookingStore,
		app.serviceStore,
		db,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create review service: %w", err)
	}

	// Create the task runner. Factories must be registered before Start
	// so recovery can revive tasks persisted by previous runs.
	app.taskRunner = task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		QueueSize:    cfg.Task.QueueSize,
		WorkerCount:  cfg.Task.WorkerCount,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, logger)

	// Connect booking events to Kafka delivery
	if err := app.setupEventPipeline(); err != nil {
		return nil, err
	}

	// Start the task runner
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	// Sweep expired entries out of the token revocation ledger in the
	// background
	app.maintenance = task.NewMaintenanceRunner(
		app.sessionService,
		time.Duration(cfg.Task.TokenPurgeIntervalMinutes)*time.Minute,
		logger,
	)
	app.maintenance.Start()

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupEventPipeline wires booking lifecycle events to background Kafka
// delivery. When no brokers are configured the server runs with event
// publishing disabled and booking events are dropped by the emitter.
func (app *application) setupEventPipeline() error {
	publisher, err := kafka.NewPublisher(app.config.Kafka, app.logger)
	if err != nil {
		if errors.Is(err, kafka.ErrNoBrokers) {
			app.logger.Info("no Kafka brokers configured, event publishing disabled")
			return nil
		}
		return fmt.Errorf("failed to create Kafka publisher: %w", err)
	}
	app.publisher = publisher

	// Create the task factory for booking event delivery
	factory, err := task.NewBookingEventTaskFactory(publisher, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create booking event task factory: %w", err)
	}

	// Register the factory with the runner so persisted tasks can be
	// restored on recovery
	app.taskRunner.RegisterFactory(events.TaskTypeBookingEvent, factory.Restore)

	// Register the event handler with the event emitter
	handler := task.NewTaskFactoryEventHandler(factory, app.taskRunner, app.logger)
	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(handler)
	} else {
		return fmt.Errorf("unexpected event emitter type, cannot register task handler")
	}

	app.logger.Info("Kafka event pipeline initialized",
		"topic", app.config.Kafka.Topic,
		"broker_count", len(app.config.Kafka.Brokers))
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	// Set up router using the application dependencies
	router := app.setupRouter()

	// Start the HTTP server
	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop the revocation ledger sweeper
	if app.maintenance != nil {
		app.maintenance.Stop()
	}

	// Stop task runner
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	// Close the Kafka publisher
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("Error closing Kafka publisher", "error", err)
		}
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
