package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

// Repository persists user records and the token pair last issued to each.
//
// Create fails with common.ErrorAlreadyExists when the email is taken.
// Lookups and updates fail with common.ErrorNotFound for unknown users.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateTokens(ctx context.Context, userID, access string, accessExp time.Time, refresh string, refreshExp time.Time) error
	UpdateAccessToken(ctx context.Context, userID, access string, accessExp time.Time) error
}
