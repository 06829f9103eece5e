// Package auth signs and verifies the HS256 bearer tokens handed out by the
// server. Verification is self-contained: a token is accepted when its
// signature and expiry check out, without consulting any store.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the standard claims plus the owning user's id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// GenerateToken signs a token for userID that expires validity after
// issuedAt. The returned expiry is the value written into the exp claim,
// truncated to whole seconds.
func GenerateToken(userID string, secretKey []byte, issuedAt time.Time, validity time.Duration) (string, time.Time, error) {
	exp := jwt.NewNumericDate(issuedAt.Add(validity))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: exp,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ID:        uuid.NewString(),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, exp.Time, nil
}

// GetUserIDFromToken verifies tokenString and returns its user id.
//
// Errors: common.ErrTokenExpired for an expired token, common.ErrNoUserID
// when the claim is missing, common.ErrInvalidToken for everything else
// (bad signature, wrong algorithm, malformed input).
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	if claims.UserID == "" {
		return "", common.ErrNoUserID
	}

	return claims.UserID, nil
}
