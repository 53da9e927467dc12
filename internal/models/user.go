// Package models contains data structures for the application's domain models.
package models

import "time"

// UserStatus is the account lifecycle state. Banned and deleted are terminal.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBanned  UserStatus = "banned"
	UserStatusDeleted UserStatus = "deleted"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusBanned, UserStatusDeleted:
		return true
	}
	return false
}

// User represents an account.
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Username        string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"username"`
	Email           string     `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	PasswordHash    string     `gorm:"type:varchar(255);not null" json:"-"`
	Status          UserStatus `gorm:"type:varchar(16);not null;default:'active'" json:"status"`
	StatusChangedAt time.Time  `json:"status_changed_at"`
	BannedReason    *string    `gorm:"type:varchar(500)" json:"banned_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// IsActive reports whether the user may authenticate.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}

// PublicUser is the view of a user shown to other users.
type PublicUser struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// Public returns the public projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}
