package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const uniqueViolation = "23505"

func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// RunMigrations applies every pending migration found under migrationsPath.
func RunMigrations(dsn string, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, migrateDSN(dsn))
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// RollbackMigrations reverts the last steps applied migrations.
func RollbackMigrations(dsn string, migrationsPath string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	m, err := migrate.New("file://"+migrationsPath, migrateDSN(dsn))
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Steps(-steps)
}

// MigrationVersion reports the schema version and whether the last
// migration failed halfway. Version is 0 before any migration ran.
func MigrationVersion(dsn string, migrationsPath string) (version uint, dirty bool, err error) {
	m, err := migrate.New("file://"+migrationsPath, migrateDSN(dsn))
	if err != nil {
		return 0, false, err
	}
	defer m.Close()
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// migrate's postgres driver only registers the postgres:// scheme.
func migrateDSN(dsn string) string {
	if strings.HasPrefix(dsn, "postgresql://") {
		return "postgres://" + strings.TrimPrefix(dsn, "postgresql://")
	}
	return dsn
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
