package models

import "time"

// payment type
const (
	PaymentTypePrepay = "PREPAY"
	PaymentTypeRepair = "REPAIR"
)

// payment status, one-way only
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusSuccess  = "SUCCESS"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
	PaymentStatusExpired  = "EXPIRED"
)

// payment method
const (
	PaymentMethodAlipay = "alipay"
	PaymentMethodWechat = "wechat"
	PaymentMethodTest   = "test"
)

// refund status
const (
	RefundStatusNone       = "NONE"
	RefundStatusProcessing = "PROCESSING"
	RefundStatusSuccess    = "SUCCESS"
	RefundStatusRejected   = "REJECTED"
)

// Payment is payment entity, one or more per order
type Payment struct {
	ID      uint64
	TradeNo string
	OrderID uint64
	PayerID uint64

	Amount float64
	Method string
	Type   string
	Status string

	GatewayTxID  string
	PrepayHandle string
	ExpiresAt    time.Time

	RefundStatus      string
	RefundReason      string
	RefundRequestedAt *time.Time
	RefundedAt        *time.Time

	CreatedAt time.Time
	PaidAt    *time.Time
}
