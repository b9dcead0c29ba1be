// Command migrationcheck audits the goose migration files that ship with
// the server. It catches the mistakes that only surface once a migration
// runs against a real database: misnumbered files, duplicate or gapped
// versions, missing Down sections, and unbalanced statement markers.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// defaultMigrationsDir is where the server expects migrations to live.
const defaultMigrationsDir = "internal/platform/postgres/migrations"

// migrationFile describes one SQL migration on disk.
type migrationFile struct {
	Path           string
	Name           string
	Version        int64 // -1 when the filename does not parse
	HasUp          bool
	HasDown        bool
	StatementBegin int
	StatementEnd   int
}

// migrationNameRe matches the zero-padded version prefix convention used
// by every migration in this repository.
var migrationNameRe = regexp.MustCompile(`^(\d{5})_[a-z0-9_]+\.sql$`)

// scanMigrations reads every .sql file in dir and extracts the goose
// markers needed for validation. Files are returned sorted by version,
// with unparseable names first.
func scanMigrations(dir string) ([]migrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []migrationFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		mf := migrationFile{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Version: -1,
		}

		if m := migrationNameRe.FindStringSubmatch(entry.Name()); m != nil {
			version, err := strconv.ParseInt(m[1], 10, 64)
			if err == nil {
				mf.Version = version
			}
		}

		if err := readMarkers(&mf); err != nil {
			return nil, err
		}

		files = append(files, mf)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Version < files[j].Version
	})

	return files, nil
}

// readMarkers scans one migration for the goose annotations.
func readMarkers(mf *migrationFile) error {
	f, err := os.Open(mf.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", mf.Name, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "-- +goose Up"):
			mf.HasUp = true
		case strings.HasPrefix(line, "-- +goose Down"):
			mf.HasDown = true
		case strings.HasPrefix(line, "-- +goose StatementBegin"):
			mf.StatementBegin++
		case strings.HasPrefix(line, "-- +goose StatementEnd"):
			mf.StatementEnd++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", mf.Name, err)
	}

	return nil
}

// detectProblems checks the scanned set for numbering and marker defects.
func detectProblems(files []migrationFile) []string {
	var problems []string

	seen := make(map[int64]string)
	var expected int64 = 1
	for _, mf := range files {
		if mf.Version < 0 {
			problems = append(problems,
				fmt.Sprintf("%s: filename does not match NNNNN_description.sql", mf.Name))
			continue
		}

		if prev, dup := seen[mf.Version]; dup {
			problems = append(problems,
				fmt.Sprintf("%s: duplicate version %d (also %s)", mf.Name, mf.Version, prev))
		}
		seen[mf.Version] = mf.Name

		if mf.Version != expected {
			problems = append(problems,
				fmt.Sprintf("%s: expected version %d, found %d (gap or misnumbering)",
					mf.Name, expected, mf.Version))
		}
		expected = mf.Version + 1

		if !mf.HasUp {
			problems = append(problems, fmt.Sprintf("%s: missing -- +goose Up section", mf.Name))
		}
		if !mf.HasDown {
			problems = append(problems, fmt.Sprintf("%s: missing -- +goose Down section", mf.Name))
		}
		if mf.StatementBegin != mf.StatementEnd {
			problems = append(problems,
				fmt.Sprintf("%s: %d StatementBegin but %d StatementEnd markers",
					mf.Name, mf.StatementBegin, mf.StatementEnd))
		}
	}

	return problems
}

// validateMigrations scans dir and fails when any defect is found.
func validateMigrations(dir string) error {
	files, err := scanMigrations(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migration files found in %s", dir)
	}

	problems := detectProblems(files)
	if len(problems) > 0 {
		fmt.Printf("Found %d migration problems:\n", len(problems))
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("migration validation failed")
	}

	fmt.Printf("Migration validation passed (%d files)\n", len(files))
	return nil
}

// listMigrations prints the scanned set with marker details.
func listMigrations(dir string) error {
	files, err := scanMigrations(dir)
	if err != nil {
		return err
	}

	fmt.Printf("Migrations in %s (%d):\n", dir, len(files))
	for _, mf := range files {
		markers := []string{}
		if mf.HasUp {
			markers = append(markers, "up")
		}
		if mf.HasDown {
			markers = append(markers, "down")
		}
		fmt.Printf("  %05d  %-45s [%s]\n", mf.Version, mf.Name, strings.Join(markers, ","))
	}
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [directory]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  validate [dir]  - Validate migration files (default: %s)\n", defaultMigrationsDir)
		fmt.Fprintf(os.Stderr, "  list [dir]      - List migration files with their markers\n")
		os.Exit(1)
	}

	command := os.Args[1]
	rootDir := defaultMigrationsDir
	if len(os.Args) > 2 {
		rootDir = os.Args[2]
	}

	switch command {
	case "validate":
		if err := validateMigrations(rootDir); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
	case "list":
		if err := listMigrations(rootDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing migrations: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		os.Exit(1)
	}
}
