package db

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies pending schema migrations for the active driver.
// Migration files live side by side per driver under migrationsDir.
func RunMigrations(sqlDB *sql.DB, driverName, migrationsDir string) error {
	absPath, err := filepath.Abs(filepath.Join(migrationsDir, driverName))
	if err != nil {
		return fmt.Errorf("failed to get migration path: %w", err)
	}

	var driver database.Driver
	switch driverName {
	case "postgres":
		driver, err = migratepg.WithInstance(sqlDB, &migratepg.Config{})
	case "mysql":
		driver, err = migratemysql.WithInstance(sqlDB, &migratemysql.Config{})
	default:
		return fmt.Errorf("unsupported driver %q", driverName)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+absPath, driverName, driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
