// Package users implements the credential store on top of sqlx. Queries are
// written with '?' placeholders and rebound for the active driver, so the
// same repository serves PostgreSQL and SQLite.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// userRow mirrors the users table. Expiries are unix seconds.
type userRow struct {
	ID               string         `db:"id"`
	Email            string         `db:"email"`
	PasswordHash     string         `db:"password_hash"`
	AccessToken      sql.NullString `db:"access_token"`
	AccessExpiresAt  sql.NullInt64  `db:"access_expires_at"`
	RefreshToken     sql.NullString `db:"refresh_token"`
	RefreshExpiresAt sql.NullInt64  `db:"refresh_expires_at"`
	CreatedAt        int64          `db:"created_at"`
}

func (r userRow) toModel() *models.User {
	u := &models.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		AccessToken:  r.AccessToken.String,
		RefreshToken: r.RefreshToken.String,
		CreatedAt:    time.Unix(r.CreatedAt, 0),
	}
	if r.AccessExpiresAt.Valid {
		u.AccessExpiresAt = time.Unix(r.AccessExpiresAt.Int64, 0)
	}
	if r.RefreshExpiresAt.Valid {
		u.RefreshExpiresAt = time.Unix(r.RefreshExpiresAt.Int64, 0)
	}
	return u
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

// Create inserts user unless the email is already registered.
func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := r.db.Rebind(
		`INSERT INTO users (id, email, password_hash, access_token, access_expires_at, refresh_token, refresh_expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING id`)

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	var id string
	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Email, user.PasswordHash,
		nullString(user.AccessToken), nullUnix(user.AccessExpiresAt),
		nullString(user.RefreshToken), nullUnix(user.RefreshExpiresAt),
		user.CreatedAt.Unix(),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ID = id
	return user, nil
}

func (r *SQLRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := r.db.Rebind(
		`SELECT id, email, password_hash, access_token, access_expires_at, refresh_token, refresh_expires_at, created_at
		 FROM users
		 WHERE email = ?`)

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return row.toModel(), nil
}

// UpdateTokens replaces both stored tokens and their expiries.
func (r *SQLRepository) UpdateTokens(ctx context.Context, userID, access string, accessExp time.Time, refresh string, refreshExp time.Time) error {
	query := r.db.Rebind(
		`UPDATE users
		 SET access_token = ?, access_expires_at = ?, refresh_token = ?, refresh_expires_at = ?
		 WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, access, accessExp.Unix(), refresh, refreshExp.Unix(), userID)
	return checkUpdated(res, err)
}

// UpdateAccessToken replaces the access token only; the refresh token is
// left as is.
func (r *SQLRepository) UpdateAccessToken(ctx context.Context, userID, access string, accessExp time.Time) error {
	query := r.db.Rebind(
		`UPDATE users
		 SET access_token = ?, access_expires_at = ?
		 WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, access, accessExp.Unix(), userID)
	return checkUpdated(res, err)
}

func checkUpdated(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
