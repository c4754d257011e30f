package model

import "time"

// Login roles. Students never log in; they only present a scanned token.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// AuthSession is a cookie-backed login session for an admin or teacher.
type AuthSession struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
