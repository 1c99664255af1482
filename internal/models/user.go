package models

import "time"

// User account status values.
const (
	UserStatusDisabled = 0
	UserStatusActive   = 1
)

// User represents an end-user account stored in the database.
type User struct {
	ID int64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Nickname string `gorm:"type:text"`                      // Display name.
	Phone    string `gorm:"type:text;index"`                // Mobile number.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	Status int `gorm:"not null"` // 1 active, 0 disabled.

	LastLoginAt *time.Time // Last successful login.
	LastLoginIP string     `gorm:"type:text"` // Address of the last login.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Active reports whether the account may sign in.
func (u *User) Active() bool {
	return u != nil && u.Status == UserStatusActive
}
