package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/assets"
	"github.com/fastygo/datewheel/internal/config"
)

// RunMigrations applies the mirror schema when enabled. An explicit
// MIGRATIONS_PATH is read from disk; otherwise the embedded files are used.
func RunMigrations(cfg *config.Config, logger *zap.Logger) error {
	if cfg == nil || !cfg.Migrations.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return err
	}

	var m *migrate.Migrate
	if cfg.Migrations.Path != "" {
		sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(cfg.Migrations.Path))
		m, err = migrate.NewWithDatabaseInstance(sourceURL, cfg.Database.Name, driver)
	} else {
		src, srcErr := iofs.New(assets.Migrations, "migrations")
		if srcErr != nil {
			return srcErr
		}
		m, err = migrate.NewWithInstance("iofs", src, cfg.Database.Name, driver)
	}
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, _ := m.Version()
	logger.Info("database migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
