// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. Email is stored normalized (trimmed, lowercase).
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Confirmed    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the public projection of a User.
type UserSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary strips credentials from u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
