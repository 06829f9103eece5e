// Package repomanager provides the SQL RepositoryManager, wiring repository
// constructors and goose migrations for PostgreSQL and SQLite.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/migrations"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/users"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends sqlx-backed repositories.
type SQLRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// gooseDialect maps a sqlx driver name to the goose dialect.
func gooseDialect(driver string) (string, error) {
	switch driver {
	case dbx.DriverPostgres:
		return "postgres", nil
	case dbx.DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("no migration dialect for driver %q", driver)
	}
}

// RunMigrations applies the embedded migrations with the dialect matching
// the handle's driver.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sqlx.DB) error {
	dialect, err := gooseDialect(db.DriverName())
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db.DB, "."); err != nil {
		return err
	}
	return nil
}

// NewSQLRepositoryManager constructs the SQL RepositoryManager.
func NewSQLRepositoryManager() RepositoryManager {
	return &SQLRepositoryManager{}
}
