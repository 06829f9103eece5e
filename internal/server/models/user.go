// Package models defines server-side data models.
package models

import "time"

// User is a registered account together with the last token pair issued
// to it. Token fields are empty and expiries zero until the first issue.
type User struct {
	ID           string
	Email        string
	PasswordHash string

	AccessToken     string
	AccessExpiresAt time.Time

	RefreshToken     string
	RefreshExpiresAt time.Time

	CreatedAt time.Time
}

// HasLiveRefreshToken reports whether the stored refresh token expires
// strictly after now.
func (u *User) HasLiveRefreshToken(now time.Time) bool {
	return u.RefreshToken != "" && u.RefreshExpiresAt.After(now)
}
