package models

import "time"

// RevokedRefreshToken records a refresh token id that has already been
// exchanged and must not be accepted again.
type RevokedRefreshToken struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}
