package migrations

import (
	"fmt"
	"os"
	"path/filepath"
)

// MigrationsDir can be overridden in tests or by the application via the
// GROUPSENTRY_MIGRATIONS_DIR environment variable.
var MigrationsDir = getDefaultMigrationsDir()

func getDefaultMigrationsDir() string {
	if dir := os.Getenv("GROUPSENTRY_MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return "scripts/migrations"
}

// GetInitialSchema returns the initial database schema. The schema file is
// searched relative to the working directory so both the binaries and the
// package tests can find it.
func GetInitialSchema() (string, error) {
	searchPaths := []string{
		filepath.Join(MigrationsDir, "001_initial_schema.sql"),
		filepath.Join("..", MigrationsDir, "001_initial_schema.sql"),
		filepath.Join("..", "..", MigrationsDir, "001_initial_schema.sql"),
	}

	for _, path := range searchPaths {
		schema, err := os.ReadFile(path)
		if err == nil {
			return string(schema), nil
		}
	}

	return "", fmt.Errorf("could not find schema file under %s", MigrationsDir)
}
