package models

import "time"

// User is account entity
type User struct {
	ID           uint64
	Login        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// TokenPayload is verified content of auth token
type TokenPayload struct {
	UserID uint64
	Role   string
}
