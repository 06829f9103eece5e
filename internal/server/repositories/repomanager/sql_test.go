package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/users"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T, driver string) *sqlx.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, driver)
}

func stubGoose(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func TestNewSQLRepositoryManager_ReturnsInterface(t *testing.T) {
	var _ RepositoryManager = NewSQLRepositoryManager()
}

func TestUsers_ReturnsConcreteRepo(t *testing.T) {
	db := newDB(t, dbx.DriverPostgres)
	m := &SQLRepositoryManager{}

	u := m.Users(db)
	if u == nil {
		t.Fatal("Users() nil")
	}
	if _, ok := u.(*users.SQLRepository); !ok {
		t.Fatalf("unexpected repository type %T", u)
	}
}

func TestRunMigrations_Success(t *testing.T) {
	for _, driver := range []string{dbx.DriverPostgres, dbx.DriverSQLite} {
		db := newDB(t, driver)

		stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
			if dir != "." {
				return errors.New("unexpected dir")
			}
			if len(opts) != 0 {
				return errors.New("unexpected opts")
			}
			return nil
		})

		m := &SQLRepositoryManager{}
		if err := m.RunMigrations(context.Background(), db); err != nil {
			t.Fatalf("%s: RunMigrations error: %v", driver, err)
		}
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db := newDB(t, dbx.DriverPostgres)
	stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	})

	m := &SQLRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunMigrations_UnknownDriver(t *testing.T) {
	db := newDB(t, "mysql")
	m := &SQLRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRunMigrations_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	db, err := dbx.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	m := NewSQLRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
	// Running twice is a no-op.
	if err := m.RunMigrations(ctx, db); err != nil {
		t.Fatalf("second RunMigrations error: %v", err)
	}

	repo := m.Users(db)
	if _, err := repo.Create(ctx, &models.User{ID: "u-1", Email: "a@b.c", PasswordHash: "h", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Create after migrations: %v", err)
	}
	if _, err := repo.GetUserByEmail(ctx, "missing@b.c"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
