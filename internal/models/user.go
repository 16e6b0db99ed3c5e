package models

import (
	"time"
)

type User struct {
	ID             string
	Username       string
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	EmailConfirmed bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName joins the profile name fields for display purposes.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
