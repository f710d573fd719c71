package models

import "time"

// Notification is persisted message for user, written in the same
// transaction as the state transition that produced it
type Notification struct {
	ID        uint64
	UserID    uint64
	OrderID   uint64
	Title     string
	Body      string
	CreatedAt time.Time
	ReadAt    *time.Time
}
