// Package services contains server-side business logic. This file implements
// UserService, which registers users, checks passwords and issues the JWT
// pairs stored next to each user.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/cryptox"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/auth"
	"github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TokenPair bundles a short-lived access token and a long-lived refresh
// token. RefreshToken is empty when login reused the stored one.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// PasswordHasher hashes and checks passwords. The encoded form carries its
// own parameters.
type PasswordHasher interface {
	Hash(password []byte) (string, error)
	Verify(password []byte, encoded string) (bool, error)
}

// UserService provides the authentication operations:
//   - Register: create a user and hand out a fresh token pair
//   - Login: verify the password and mint an access token, rotating the
//     refresh token only once the stored one has expired
//   - Authenticate: map a bearer token to its user id
type UserService struct {
	db                           *sqlx.DB
	repomanager                  repomanager.RepositoryManager
	hasher                       PasswordHasher
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	logger                       logging.Logger
	now                          func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sqlx.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		hasher:                       cryptox.NewArgon2Hasher(cryptox.DefaultParams),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		logger:                       logger,
		now:                          time.Now,
	}
}

// Register creates a user with a new random id and returns its first token
// pair. A taken email yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.TrimSpace(email)

	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		s.logger.Error(ctx, "hash password", "error", err)
		return nil, common.ErrorInternal
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}

	user.AccessToken, user.AccessExpiresAt, err = auth.GenerateToken(user.ID, s.jwtSecret, now, s.accessTokenValidityDuration)
	if err != nil {
		s.logger.Error(ctx, "sign access token", "error", err)
		return nil, common.ErrorInternal
	}
	user.RefreshToken, user.RefreshExpiresAt, err = auth.GenerateToken(user.ID, s.jwtSecret, now, s.refreshTokenValidityDuration)
	if err != nil {
		s.logger.Error(ctx, "sign refresh token", "error", err)
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)
	if _, err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "create user", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return &TokenPair{AccessToken: user.AccessToken, RefreshToken: user.RefreshToken}, nil
}

// Login checks the password of the user registered under email.
//
// While the stored refresh token is still valid only a new access token is
// issued and the returned pair has an empty RefreshToken. Otherwise both
// tokens are replaced. Unknown emails yield common.ErrorNotFound, wrong
// passwords common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.TrimSpace(email)

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "get user", "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := s.hasher.Verify([]byte(password), user.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "verify password", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	var (
		pair    *TokenPair
		rotated bool
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var txErr error
		pair, rotated, txErr = s.issueLoginTokens(ctx, s.repomanager.Users(tx), email)
		return txErr
	})
	if err != nil {
		s.logger.Error(ctx, "issue tokens", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	if rotated {
		s.logger.Info(ctx, "refresh token rotated", "user_id", user.ID)
	}
	return pair, nil
}

// issueLoginTokens re-reads the user inside the login transaction so the
// rotation decision and the write see the same row.
func (s *UserService) issueLoginTokens(ctx context.Context, repo users.Repository, email string) (*TokenPair, bool, error) {
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	access, accessExp, err := auth.GenerateToken(user.ID, s.jwtSecret, now, s.accessTokenValidityDuration)
	if err != nil {
		return nil, false, fmt.Errorf("sign access token: %w", err)
	}

	if user.HasLiveRefreshToken(now) {
		if err := repo.UpdateAccessToken(ctx, user.ID, access, accessExp); err != nil {
			return nil, false, fmt.Errorf("store access token: %w", err)
		}
		return &TokenPair{AccessToken: access}, false, nil
	}

	refresh, refreshExp, err := auth.GenerateToken(user.ID, s.jwtSecret, now, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, false, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := repo.UpdateTokens(ctx, user.ID, access, accessExp, refresh, refreshExp); err != nil {
		return nil, false, fmt.Errorf("store tokens: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, true, nil
}

// Authenticate returns the user id carried by a bearer token. Every failure
// wraps common.ErrorUnauthorized together with the token error.
func (s *UserService) Authenticate(token string) (string, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	return userID, nil
}
