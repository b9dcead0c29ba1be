package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/esther-anierobi/bookIT/internal/config"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
)

// executeMigration executes database migrations using goose
func executeMigration(cfg *config.Config, command string, verbose bool, args ...string) error {
	// Use a correlation ID for all migration logs to allow tracing the entire operation
	correlationID := uuid.New().String()
	migrationLogger := slog.Default().With(
		"correlation_id", correlationID,
		"component", "migrations",
		"command", command,
	)

	startTime := time.Now()
	migrationLogger.Info("Starting migration operation",
		"operation", fmt.Sprintf("goose %s", command),
		"verbose", verbose,
		"mode", getExecutionMode())

	// Configure goose to use the custom slog logger adapter
	goose.SetLogger(&slogGooseLogger{})

	// Validate database URL
	dbURL := cfg.Database.URL
	if dbURL == "" {
		migrationLogger.Error("Database URL is empty",
			"error", "missing configuration",
			"resolution", "check BOOKIT_DATABASE_URL environment variable or config file")
		return fmt.Errorf("database URL is empty: check your configuration")
	}

	// Mask the password in the URL for safe logging
	migrationLogger.Info("Using database URL", "url", maskDatabaseURL(dbURL))

	// Open a database connection using the database URL
	migrationLogger.Info("Opening database connection for migrations")
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		migrationLogger.Error("Failed to open database connection", "error", err)
		return fmt.Errorf(
			"failed to open database connection: %w (check connection string format and credentials)",
			err,
		)
	}

	// Ensure the database connection is closed when the function returns
	defer func() {
		if err := db.Close(); err != nil {
			migrationLogger.Error("Error closing database connection", "error", err)
		}

		// Log the total execution time at the end
		migrationLogger.Info("Migration operation completed",
			"operation", fmt.Sprintf("goose %s", command),
			"duration_ms", time.Since(startTime).Milliseconds())
	}()

	// Migrations run one statement at a time, so a small pool is enough
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Minute * 5)

	// Verify database connectivity with a ping
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		migrationLogger.Error("Database ping failed", "error", err)

		// Check for specific error types and provide targeted advice
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf(
				"database ping timed out after 5s: %w (check network connectivity, firewall rules, and server load)",
				err,
			)
		}

		// Network-related errors
		var netErr net.Error
		if errors.As(err, &netErr) {
			return fmt.Errorf(
				"network error connecting to database: %w (check hostname, port, and network connectivity)",
				err,
			)
		}

		return fmt.Errorf(
			"failed to connect to database: %w (check connection string, credentials, and database availability)",
			err,
		)
	}

	migrationLogger.Info("Database connection verified successfully")

	// Locate the migrations directory
	migrationsDirPath, err := getMigrationsPath()
	if err != nil {
		migrationLogger.Error("Failed to locate migrations directory", "error", err)
		return fmt.Errorf("failed to locate migrations directory: %w", err)
	}
	migrationLogger.Info("Using migrations directory", "path", migrationsDirPath)

	// List available migration files for better logging
	migFilesData, err := enumerateMigrationFiles(migrationsDirPath)
	if err != nil {
		migrationLogger.Warn("Failed to read migrations directory", "error", err)
	} else {
		migrationLogger.Info("Found migration files",
			"count", len(migFilesData.Files),
			"sql_count", migFilesData.SQLCount,
			"newest_file", migFilesData.NewestFile,
			"oldest_file", migFilesData.OldestFile)

		// In verbose mode, log all files
		if verbose || os.Getenv("CI") != "" {
			migrationLogger.Info("Migration files list", "files", migFilesData.Files)
		}
	}

	// Set the dialect
	if err := goose.SetDialect("postgres"); err != nil {
		migrationLogger.Error("Failed to set dialect", "error", err)
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	// Set the migration table name using the standardized constant
	goose.SetTableName(MigrationTableName)

	// Log current database migration version before executing the command
	var currentVersion string
	versionErr := db.QueryRow(
		fmt.Sprintf("SELECT version_id FROM %s ORDER BY version_id DESC LIMIT 1", MigrationTableName),
	).Scan(&currentVersion)
	if versionErr != nil {
		if errors.Is(versionErr, sql.ErrNoRows) {
			migrationLogger.Info("No migrations currently applied", "status", "clean database")
			currentVersion = "0"
		} else {
			migrationLogger.Warn("Failed to retrieve current migration version", "error", versionErr)
		}
	} else {
		migrationLogger.Info("Current database migration version", "version", currentVersion)
	}

	// Execute the requested migration command with timing
	migrationLogger.Info("Starting migration command execution",
		"command", command,
		"args", args)
	commandStartTime := time.Now()

	switch command {
	case "up":
		migrationLogger.Info("Applying pending migrations")
		err = goose.Up(db, migrationsDirPath)
	case "down":
		migrationLogger.Info("Rolling back one migration version")
		err = goose.Down(db, migrationsDirPath)
	case "reset":
		migrationLogger.Info("Resetting all migrations (roll back to zero)")
		err = goose.Reset(db, migrationsDirPath)
	case "status":
		migrationLogger.Info("Checking migration status")
		err = goose.Status(db, migrationsDirPath)
	case "version":
		migrationLogger.Info("Retrieving current migration version")
		err = goose.Version(db, migrationsDirPath)
	case "create":
		// The migration name is required when creating a new migration
		if len(args) == 0 || args[0] == "" {
			migrationLogger.Error("Migration create command requires a name parameter")
			return fmt.Errorf("migration name is required for 'create' command")
		}

		migrationName := args[0]
		migrationLogger.Info("Creating new migration",
			"name", migrationName,
			"type", "sql",
			"directory", migrationsDirPath)
		err = goose.Create(db, migrationsDirPath, migrationName, "sql")
	default:
		migrationLogger.Error("Unknown migration command",
			"command", command,
			"valid_commands", []string{"up", "down", "reset", "status", "version", "create"})
		return fmt.Errorf(
			"unknown migration command: %s (expected up, down, reset, status, version, or create)",
			command,
		)
	}

	commandDuration := time.Since(commandStartTime)

	if err != nil {
		migrationLogger.Error("Migration command failed",
			"command", command,
			"error", err,
			"duration_ms", commandDuration.Milliseconds())
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	migrationLogger.Info("Migration command executed successfully",
		"command", command,
		"duration_ms", commandDuration.Milliseconds())

	// Report whether the schema version changed
	if command == "up" || command == "down" || command == "reset" {
		var newVersion string
		newVersionErr := db.QueryRow(
			fmt.Sprintf("SELECT version_id FROM %s ORDER BY version_id DESC LIMIT 1", MigrationTableName),
		).Scan(&newVersion)
		if newVersionErr != nil {
			if errors.Is(newVersionErr, sql.ErrNoRows) {
				migrationLogger.Info("Database schema is now at base version",
					"new_version", "0",
					"previous_version", currentVersion)
			} else {
				migrationLogger.Warn("Failed to retrieve new migration version", "error", newVersionErr)
			}
		} else if newVersion != currentVersion {
			migrationLogger.Info("Database schema version changed",
				"previous_version", currentVersion,
				"new_version", newVersion)
		} else {
			migrationLogger.Info("Database schema version unchanged", "version", newVersion)
		}
	}

	// Verify migrations applied successfully
	if command == "up" && (verbose || os.Getenv("CI") != "") {
		if verifyErr := verifyAppliedMigrations(db, migrationLogger); verifyErr != nil {
			migrationLogger.Error("Migration verification failed", "error", verifyErr)
			return fmt.Errorf("migration verification failed: %w", verifyErr)
		}
	}

	return nil
}

// runMigrations is a wrapper around executeMigration for backward compatibility
func runMigrations(cfg *config.Config, command string, verbose bool, args ...string) error {
	return executeMigration(cfg, command, verbose, args...)
}
