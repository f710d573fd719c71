package models

import "time"

// order lifecycle statuses
const (
	OrderStatusPendingPayment       = "PENDING_PAYMENT"
	OrderStatusPending              = "PENDING"
	OrderStatusAccepted             = "ACCEPTED"
	OrderStatusInProgress           = "IN_PROGRESS"
	OrderStatusPendingRepairPayment = "PENDING_REPAIR_PAYMENT"
	OrderStatusCompleted            = "COMPLETED"
	OrderStatusCancelPending        = "CANCEL_PENDING"
	OrderStatusCancelled            = "CANCELLED"
	OrderStatusClosed               = "CLOSED"
)

// actor roles
const (
	RoleUser        = "user"
	RoleElectrician = "electrician"
	RoleAdmin       = "admin"
	RoleSystem      = "system"
)

// cancellation confirm status
const (
	CancelConfirmNone      = "NONE"
	CancelConfirmPending   = "PENDING"
	CancelConfirmConfirmed = "CONFIRMED"
	CancelConfirmRejected  = "REJECTED"
)

// Order is order entity
type Order struct {
	ID            uint64
	Number        string
	UserID        uint64
	ElectricianID *uint64

	ServiceType  string
	Title        string
	Description  string
	Images       []string
	ContactName  string
	ContactPhone string
	Address      string
	Latitude     *float64
	Longitude    *float64

	BudgetMin       *float64
	BudgetMax       *float64
	EstimatedAmount float64
	QuotedPrice     *float64
	FinalAmount     *float64
	RepairContent   string
	RepairImages    []string

	Status            string
	NeedsConfirmation bool
	HasReview         bool

	CancelInitiated     bool
	CancelInitiator     string
	CancelReason        string
	CancelInitiatedAt   *time.Time
	CancelConfirmStatus string
	CancelConfirmer     string
	CancelConfirmedAt   *time.Time

	CreatedAt      time.Time
	PrepaidAt      *time.Time
	AcceptedAt     *time.Time
	ConfirmedAt    *time.Time
	LastModifiedAt *time.Time
	CompletedAt    *time.Time
	PaidAt         *time.Time
	CancelledAt    *time.Time
}

// OrderChange describes outcome of single state transition: the audit log
// row and an optional notification, both written in the same transaction
// as the order row update.
type OrderChange struct {
	Log          StatusLog
	Notification *Notification
}
