package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the authentication identity behind a channel
type User struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Email          string     `json:"email" gorm:"size:254;uniqueIndex;not null"`
	Password       string     `json:"-" gorm:"not null"` // bcrypt hash
	EmailConfirmed bool       `json:"email_confirmed" gorm:"default:false"`
	LastLogin      *time.Time `json:"last_login"`
	FirebaseUID    *string    `json:"firebase_uid,omitempty" gorm:"size:128;uniqueIndex"` // set only for Firebase sign-ins
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// UpdateLastLogin stamps the login time on the in-memory user.
func (u *User) UpdateLastLogin(now time.Time) {
	t := now.UTC()
	u.LastLogin = &t
}

// SessionClaims are the claims carried by the session cookie
type SessionClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
