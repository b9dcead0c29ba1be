// Package main implements the entry point for the bookIT API server,
// which manages bookable service listings, appointment bookings and
// customer reviews behind a JSON HTTP API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
)

// main wires configuration, logging, the database connection and the
// application dependencies together, then either runs a migration command
// or starts the HTTP server.
func main() {
	// Migration flags. When any of these is set the process performs the
	// requested migration operation and exits instead of serving.
	migrateCmd := flag.String(
		"migrate",
		"",
		"Run a migration command (up, down, reset, status, version, create) and exit",
	)
	migrationName := flag.String(
		"migration-name",
		"",
		"Name for the new migration (used with -migrate create)",
	)
	verbose := flag.Bool("verbose", false, "Enable verbose migration logging")
	verifyOnly := flag.Bool(
		"verify-migrations",
		false,
		"Verify the migration setup without applying anything",
	)
	validateMigrations := flag.Bool(
		"validate-migrations",
		false,
		"Validate that all migrations have been applied",
	)
	flag.Parse()

	// Load configuration
	cfg, err := loadAppConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up structured logging using the configured log level
	logger, err := setupAppLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	// Migration commands run against the configured database and exit.
	if *migrateCmd != "" || *verifyOnly || *validateMigrations {
		err := handleMigrations(
			cfg,
			*migrateCmd,
			*migrationName,
			*verbose,
			*verifyOnly,
			*validateMigrations,
		)
		if err != nil {
			logger.Error("Migration operation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Establish the database connection for the server path
	db, err := setupAppDatabase(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize the application with all its dependencies
	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Error closing database connection", "error", closeErr)
		}
		os.Exit(1)
	}

	// Run the server until shutdown; cleanup happens inside Run
	if err := app.Run(ctx); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
