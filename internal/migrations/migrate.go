package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	pg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const (
	Dir             = "migrations"
	migrationsTable = "schema_migrations_history"
)

var versionPrefix = regexp.MustCompile(`^0*([0-9]+)_.*\.up\.sql$`)

// RunMigrations applies the SQL files in ./migrations. A database that already
// holds the history tables but no migrate metadata is baselined to the latest
// version first.
func RunMigrations(databaseURL string, log *logrus.Logger) error {
	if databaseURL == "" {
		return errors.New("database URL is empty")
	}
	entry := log.WithField("component", "migrate")

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()

	driver, err := pg.WithInstance(sqlDB, &pg.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("create migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+Dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if tableExists(sqlDB, "match_results") && !tableExists(sqlDB, migrationsTable) {
		if latest := LatestVersion(Dir); latest > 0 {
			entry.WithField("version", latest).Info("baselining existing schema")
			if err := m.Force(int(latest)); err != nil {
				entry.WithError(err).Warn("baseline failed")
			}
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}

	entry.Info("migrations applied")
	return nil
}

func tableExists(db *sql.DB, name string) bool {
	var exists bool
	row := db.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)", name)
	return row.Scan(&exists) == nil && exists
}

// LatestVersion returns the highest numeric prefix among the up migrations in
// dir, or 0 when there are none.
func LatestVersion(dir string) int64 {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	var latest int64
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		m := versionPrefix.FindStringSubmatch(f.Name())
		if m == nil {
			continue
		}
		v, _ := strconv.ParseInt(m[1], 10, 64)
		latest = max(latest, v)
	}
	return latest
}
