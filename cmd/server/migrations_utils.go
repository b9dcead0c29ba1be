package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
)

// slogGooseLogger adapts the goose logger interface to use slog
type slogGooseLogger struct{}

// Printf implements the goose.Logger Printf method by forwarding messages to slog.Info
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error messages to slog.Error
// Note: Unlike the standard Fatalf behavior, this does NOT call os.Exit
// to allow main.go to handle application exit consistently
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
	// Deliberately NOT calling os.Exit(1) here
	// The error will be returned to main which will handle the exit
}

// getExecutionMode returns a string describing the execution environment
// This helps with log filtering and diagnostic analysis
func getExecutionMode() string {
	if isCIEnvironment() {
		return "ci"
	}
	return "local"
}

// isCIEnvironment returns true if running in a CI environment
func isCIEnvironment() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != ""
}

// maskDatabaseURL masks the password in a database URL for safe logging.
func maskDatabaseURL(dbURL string) string {
	// Parse the URL
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}

	// Mask the password if user info exists
	if parsedURL.User != nil {
		username := parsedURL.User.Username()
		parsedURL.User = url.UserPassword(username, "****")
		return parsedURL.String()
	}

	return dbURL
}

// directoryExists checks if a directory exists at the given path
func directoryExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// getMigrationsPath returns the path to the migrations directory. It checks
// the working directory first and then walks up towards the repository root,
// identified by its go.mod file, so migrations resolve regardless of where
// the binary is launched from.
func getMigrationsPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	// Try the standard path first
	stdPath := filepath.Join(cwd, migrationsDir)
	if directoryExists(stdPath) {
		return stdPath, nil
	}

	// If that fails, try to find the project root by traversing up
	dir := cwd
	for i := 0; i < 10; i++ { // Try up to 10 levels up
		// Check for go.mod file to identify project root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			// Found project root, now look for migrations
			migPath := filepath.Join(dir, migrationsDir)
			if directoryExists(migPath) {
				return migPath, nil
			}
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		dir = parent
	}

	// Check GitHub workspace environment variable (CI environment)
	if ghWorkspace := os.Getenv("GITHUB_WORKSPACE"); ghWorkspace != "" {
		migPath := filepath.Join(ghWorkspace, migrationsDir)
		if directoryExists(migPath) {
			return migPath, nil
		}
	}

	// If all else fails, return an error
	return "", fmt.Errorf("could not locate migrations directory")
}
