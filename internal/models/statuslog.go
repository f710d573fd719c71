package models

import "time"

// StatusLog is append-only audit record of single order state transition
type StatusLog struct {
	ID           uint64
	OrderID      uint64
	FromStatus   *string
	ToStatus     string
	OperatorID   uint64
	OperatorRole string
	Remark       string
	CreatedAt    time.Time
}
