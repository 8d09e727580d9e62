package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a signed-in coworker. UID is the opaque identity handed to
// the rest of the system; everything keyed per-user in a Party (participants,
// orders, votes) uses it rather than the numeric primary key.
type User struct {
	gorm.Model

	UID         string `gorm:"uniqueIndex;not null" json:"uid"`
	DisplayName string `gorm:"not null" json:"display_name"`
	AvatarURL   string `json:"avatar_url"`

	// Email/password path. Guests share a placeholder email, so the column
	// is indexed but not unique.
	Email         string `gorm:"index" json:"email"`
	PasswordHash  string `json:"-"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`

	// Google OAuth fields
	GoogleID       *string `gorm:"uniqueIndex" json:"google_id,omitempty"`
	GoogleImageURL *string `json:"google_image_url,omitempty"`

	IsGuest  bool `gorm:"default:false" json:"is_guest"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
}

// RefreshToken is a persisted refresh credential. Logout deletes it; the
// cleanup worker purges expired rows.
type RefreshToken struct {
	gorm.Model
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	UserAgent string    `json:"user_agent"`
	IP        string    `json:"ip"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
}
