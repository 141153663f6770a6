package models

import "time"

// TokenPurpose separates account confirmation codes from password reset codes.
type TokenPurpose string

const (
	TokenPurposeConfirm TokenPurpose = "confirm"
	TokenPurposeReset   TokenPurpose = "reset"
)

// Token is a short-lived opaque code mailed to a user.
type Token struct {
	ID        string
	Token     string
	UserID    string
	Purpose   TokenPurpose
	CreatedAt time.Time
	ExpiresAt time.Time
}
