package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fixmart/fixmart/internal/models"
	"github.com/fixmart/fixmart/internal/repository/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pendingPaymentConstraint = "ux_payments_order_type_pending"

const paymentColumns = `id, trade_no, order_id, payer_id, amount, method, type, status,
						gateway_tx_id, prepay_handle, expires_at,
						refund_status, refund_reason, refund_requested_at, refunded_at,
						created_at, paid_at`

const (
	insertPaymentQuery = `
						INSERT INTO payments (trade_no, order_id, payer_id, amount, method, type, status, expires_at)
						VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
						RETURNING id, created_at
`
	selectPaymentByTradeNoQuery = `
						SELECT ` + paymentColumns + ` FROM payments
						WHERE trade_no = $1
`
	selectPaymentByTradeNoForUpdateQuery = selectPaymentByTradeNoQuery + ` FOR UPDATE`

	selectSuccessPrepayByOrderIDQuery = `
						SELECT ` + paymentColumns + ` FROM payments
						WHERE order_id = $1 AND type = 'PREPAY' AND status = 'SUCCESS'
`
	selectExpiredPrepaymentsQuery = `
						SELECT ` + paymentColumns + ` FROM payments
						WHERE type = 'PREPAY' AND status = 'PENDING' AND created_at < $1
						ORDER BY created_at
						LIMIT $2
`
	updatePaymentGatewayQuery = `
						UPDATE payments
						SET gateway_tx_id = $1, prepay_handle = $2, expires_at = $3
						WHERE trade_no = $4 AND status = 'PENDING'
`
	markPaymentFailedQuery = `
						UPDATE payments
						SET status = 'FAILED'
						WHERE trade_no = $1 AND status = 'PENDING'
`
	updatePaymentQuery = `
						UPDATE payments
						SET status = $1, gateway_tx_id = $2, paid_at = $3,
							refund_status = $4, refund_reason = $5, refund_requested_at = $6, refunded_at = $7
						WHERE id = $8
`
	requestRefundQuery = `
						UPDATE payments
						SET refund_status = 'PROCESSING', refund_reason = $1, refund_requested_at = now()
						WHERE trade_no = $2 AND status = 'SUCCESS' AND refund_status = 'NONE'
`
	finishRefundQuery = `
						UPDATE payments
						SET refund_status = $1, status = $2, refunded_at = $3
						WHERE trade_no = $4 AND refund_status = 'PROCESSING'
`
)

// PaymentRepository implements payment persistence over postgres
type PaymentRepository struct {
	db *postgres.DB
}

// NewPaymentRepository creates new PaymentRepository instance
func NewPaymentRepository(db *postgres.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	p := models.Payment{}
	err := row.Scan(&p.ID, &p.TradeNo, &p.OrderID, &p.PayerID, &p.Amount, &p.Method, &p.Type, &p.Status,
		&p.GatewayTxID, &p.PrepayHandle, &p.ExpiresAt,
		&p.RefundStatus, &p.RefundReason, &p.RefundRequestedAt, &p.RefundedAt,
		&p.CreatedAt, &p.PaidAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment inserts new pending payment. The partial unique index on
// (order_id, type) rejects a second pending payment of the same type.
func (pr *PaymentRepository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	err := pr.db.QueryRow(ctx, insertPaymentQuery,
		payment.TradeNo, payment.OrderID, payment.PayerID, payment.Amount,
		payment.Method, payment.Type, payment.Status, payment.ExpiresAt).
		Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolationCode {
			if pgErr.ConstraintName == pendingPaymentConstraint {
				return nil, models.ErrPendingPaymentExists
			}
			return nil, models.ErrConflictData
		}
		return nil, err
	}

	return payment, nil
}

// GetPaymentByTradeNo returns payment by trade number
func (pr *PaymentRepository) GetPaymentByTradeNo(ctx context.Context, tradeNo string) (*models.Payment, error) {
	payment, err := scanPayment(pr.db.QueryRow(ctx, selectPaymentByTradeNoQuery, tradeNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return payment, nil
}

// GetSuccessfulPrepay returns successful prepay payment of order, if any
func (pr *PaymentRepository) GetSuccessfulPrepay(ctx context.Context, orderID uint64) (*models.Payment, error) {
	payment, err := scanPayment(pr.db.QueryRow(ctx, selectSuccessPrepayByOrderIDQuery, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return payment, nil
}

// SetGatewayDetails stores gateway charge details on pending payment
func (pr *PaymentRepository) SetGatewayDetails(ctx context.Context, tradeNo, gatewayTxID, prepayHandle string, expiresAt time.Time) error {
	cmd, err := pr.db.Exec(ctx, updatePaymentGatewayQuery, gatewayTxID, prepayHandle, expiresAt, tradeNo)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}
	return nil
}

// MarkPaymentFailed marks pending payment as failed so it does not block
// future payment attempts
func (pr *PaymentRepository) MarkPaymentFailed(ctx context.Context, tradeNo string) error {
	_, err := pr.db.Exec(ctx, markPaymentFailedQuery, tradeNo)
	return err
}

// ListExpiredPrepayments returns pending prepayments created before cutoff,
// oldest first, bounded by limit
func (pr *PaymentRepository) ListExpiredPrepayments(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error) {
	rows, err := pr.db.Query(ctx, selectExpiredPrepaymentsQuery, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []models.Payment{}

	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

// Settle applies payment outcome together with the matching order transition.
// Both rows are locked FOR UPDATE, payment first then order, so settlement
// paths never deadlock with each other. apply mutates both entities and
// returns the order change, or nil when the order is left untouched.
func (pr *PaymentRepository) Settle(ctx context.Context, tradeNo string, apply func(*models.Payment, *models.Order) (*models.OrderChange, error)) (*models.Payment, error) {
	var payment *models.Payment

	err := pr.db.WithTx(ctx, func(tx pgx.Tx) error {
		p, err := scanPayment(tx.QueryRow(ctx, selectPaymentByTradeNoForUpdateQuery, tradeNo))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrDataNotFound
			}
			return err
		}

		o, err := scanOrder(tx.QueryRow(ctx, selectOrderByIDForUpdateQuery, p.OrderID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrDataNotFound
			}
			return err
		}

		change, err := apply(p, o)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, updatePaymentQuery,
			p.Status, p.GatewayTxID, p.PaidAt,
			p.RefundStatus, p.RefundReason, p.RefundRequestedAt, p.RefundedAt,
			p.ID); err != nil {
			return err
		}

		if change != nil {
			if err := updateOrder(ctx, tx, o); err != nil {
				return err
			}
			change.Log.OrderID = o.ID
			if err := insertStatusLog(ctx, tx, change.Log); err != nil {
				return err
			}
			if change.Notification != nil {
				change.Notification.OrderID = o.ID
				if err := insertNotification(ctx, tx, *change.Notification); err != nil {
					return err
				}
			}
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// RequestRefund marks successful payment as refund in progress
func (pr *PaymentRepository) RequestRefund(ctx context.Context, tradeNo, reason string) error {
	cmd, err := pr.db.Exec(ctx, requestRefundQuery, reason, tradeNo)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}
	return nil
}

// FinishRefund records refund outcome reported by the gateway
func (pr *PaymentRepository) FinishRefund(ctx context.Context, tradeNo string, ok bool) error {
	refundStatus := models.RefundStatusRejected
	status := models.PaymentStatusSuccess
	var refundedAt *time.Time
	if ok {
		refundStatus = models.RefundStatusSuccess
		status = models.PaymentStatusRefunded
		now := time.Now()
		refundedAt = &now
	}

	cmd, err := pr.db.Exec(ctx, finishRefundQuery, refundStatus, status, refundedAt, tradeNo)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}
	return nil
}
