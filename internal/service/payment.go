package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/fixmart/fixmart/config"
	"github.com/fixmart/fixmart/internal/gateway"
	"github.com/fixmart/fixmart/internal/logger"
	"github.com/fixmart/fixmart/internal/metrics"
	"github.com/fixmart/fixmart/internal/models"
	luhn "github.com/phedde/luhn-algorithm"
	"go.uber.org/zap"
)

// PaymentRepository is interface for interacting with payment-related data
type PaymentRepository interface {
	// CreatePayment inserts new pending payment
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	// GetPaymentByTradeNo returns payment by trade number
	GetPaymentByTradeNo(ctx context.Context, tradeNo string) (*models.Payment, error)
	// GetSuccessfulPrepay returns successful prepay payment of order, if any
	GetSuccessfulPrepay(ctx context.Context, orderID uint64) (*models.Payment, error)
	// SetGatewayDetails stores gateway charge details on pending payment
	SetGatewayDetails(ctx context.Context, tradeNo, gatewayTxID, prepayHandle string, expiresAt time.Time) error
	// MarkPaymentFailed marks pending payment as failed
	MarkPaymentFailed(ctx context.Context, tradeNo string) error
	// ListExpiredPrepayments returns stale pending prepayments, oldest first
	ListExpiredPrepayments(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error)
	// Settle atomically applies payment outcome with matching order transition
	Settle(ctx context.Context, tradeNo string, apply func(*models.Payment, *models.Order) (*models.OrderChange, error)) (*models.Payment, error)
	// RequestRefund marks successful payment as refund in progress
	RequestRefund(ctx context.Context, tradeNo, reason string) error
	// FinishRefund records refund outcome
	FinishRefund(ctx context.Context, tradeNo string, ok bool) error
}

// OrderGetter reads orders for payment validation
type OrderGetter interface {
	GetOrderByID(ctx context.Context, id uint64) (*models.Order, error)
}

// GatewayClient is interface to the payment provider
type GatewayClient interface {
	CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResponse, error)
	QueryCharge(ctx context.Context, tradeNo string) (string, error)
	Refund(ctx context.Context, tradeNo string, amount float64, reason string) error
}

// PaymentService implements payment creation, settlement and refunds
type PaymentService struct {
	repo     PaymentRepository
	orders   OrderGetter
	gw       GatewayClient
	secret   string
	prepay   float64
	ttl      time.Duration
	batch    int
	testMode bool
	now      func() time.Time
}

// NewPaymentService creates new PaymentService instance
func NewPaymentService(repo PaymentRepository, orders OrderGetter, gw GatewayClient, cfg *config.Config) *PaymentService {
	return &PaymentService{
		repo:     repo,
		orders:   orders,
		gw:       gw,
		secret:   cfg.GatewaySecret,
		prepay:   cfg.PrepayAmount,
		ttl:      cfg.PrepayTTL,
		batch:    cfg.SweepBatchLimit,
		testMode: cfg.GatewayTestMode,
		now:      time.Now,
	}
}

func validMethod(method string, testMode bool) bool {
	switch method {
	case models.PaymentMethodAlipay, models.PaymentMethodWechat:
		return true
	case models.PaymentMethodTest:
		return testMode
	}
	return false
}

// CreatePayment creates pending payment and registers charge on the gateway.
// The gateway round trip happens after the row insert and outside any order
// row lock; a gateway failure leaves the payment FAILED, never PENDING.
func (ps *PaymentService) CreatePayment(ctx context.Context, actor Actor, orderID uint64, method, paymentType string) (*models.Payment, error) {
	if !validMethod(method, ps.testMode) {
		return nil, fmt.Errorf("%w: unknown payment method", models.ErrValidation)
	}

	order, err := ps.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.ID || actor.Role != models.RoleUser {
		return nil, models.ErrNotOrderOwner
	}

	var amount float64
	switch paymentType {
	case models.PaymentTypePrepay:
		if order.Status != models.OrderStatusPendingPayment {
			return nil, fmt.Errorf("%w: order is not waiting for prepayment", models.ErrInvalidState)
		}
		amount = ps.prepay
	case models.PaymentTypeRepair:
		if order.Status != models.OrderStatusPendingRepairPayment {
			return nil, fmt.Errorf("%w: order is not waiting for repair payment", models.ErrInvalidState)
		}
		amount = *order.FinalAmount
	default:
		return nil, fmt.Errorf("%w: unknown payment type", models.ErrValidation)
	}

	payment := &models.Payment{
		TradeNo:   newTradeNo(),
		OrderID:   order.ID,
		PayerID:   actor.ID,
		Amount:    amount,
		Method:    method,
		Type:      paymentType,
		Status:    models.PaymentStatusPending,
		ExpiresAt: ps.now().Add(ps.ttl),
	}

	payment, err = ps.repo.CreatePayment(ctx, payment)
	if err != nil {
		return nil, err
	}

	charge, err := ps.gw.CreateCharge(ctx, gateway.ChargeRequest{
		TradeNo:   payment.TradeNo,
		Amount:    payment.Amount,
		Method:    payment.Method,
		Subject:   order.Title,
		ExpiresIn: int64(ps.ttl.Seconds()),
	})
	if err != nil {
		if markErr := ps.repo.MarkPaymentFailed(ctx, payment.TradeNo); markErr != nil {
			logger.Log.Error("mark payment failed",
				zap.String("trade_no", payment.TradeNo),
				zap.Error(markErr))
		}
		metrics.PaymentsTotal.WithLabelValues(payment.Type, models.PaymentStatusFailed).Inc()
		return nil, err
	}

	if err := ps.repo.SetGatewayDetails(ctx, payment.TradeNo, charge.TransactionID, charge.PrepayHandle, charge.ExpiresAt); err != nil {
		return nil, err
	}
	payment.GatewayTxID = charge.TransactionID
	payment.PrepayHandle = charge.PrepayHandle
	payment.ExpiresAt = charge.ExpiresAt

	metrics.PaymentsTotal.WithLabelValues(payment.Type, models.PaymentStatusPending).Inc()

	return payment, nil
}

// GatewayNotifyInput is inbound webhook payload from the gateway
type GatewayNotifyInput struct {
	TradeNo       string
	TransactionID string
	Status        string
	Amount        float64
	Timestamp     int64
	Sign          string
}

// HandleGatewayNotify processes payment result webhook. Delivery is
// at-least-once, so a payment that already settled is acknowledged without
// a second transition.
func (ps *PaymentService) HandleGatewayNotify(ctx context.Context, in GatewayNotifyInput) error {
	params := map[string]string{
		"trade_no":       in.TradeNo,
		"transaction_id": in.TransactionID,
		"status":         in.Status,
		"amount":         fmt.Sprintf("%.2f", in.Amount),
		"timestamp":      strconv.FormatInt(in.Timestamp, 10),
	}
	if !gateway.VerifySign(params, ps.secret, in.Sign) {
		return models.ErrInvalidSignature
	}

	num, err := strconv.ParseInt(in.TradeNo, 10, 64)
	if err != nil || !luhn.IsValid(num) {
		return models.ErrInvalidTradeNo
	}

	if in.Status != gateway.ChargeStatusSuccess {
		return ps.failPayment(ctx, in.TradeNo)
	}

	return ps.settleSuccess(ctx, in.TradeNo, in.TransactionID)
}

// ConfirmTestPayment settles payment without the gateway, non-production path
func (ps *PaymentService) ConfirmTestPayment(ctx context.Context, actor Actor, tradeNo string) error {
	if !ps.testMode {
		return fmt.Errorf("%w: test payments are disabled", models.ErrForbidden)
	}

	payment, err := ps.repo.GetPaymentByTradeNo(ctx, tradeNo)
	if err != nil {
		return err
	}
	if payment.PayerID != actor.ID {
		return models.ErrNotOrderOwner
	}

	return ps.settleSuccess(ctx, tradeNo, "test-"+tradeNo)
}

// QueryPayment returns payment state, asking the gateway directly when the
// local record is still pending
func (ps *PaymentService) QueryPayment(ctx context.Context, actor Actor, tradeNo string) (*models.Payment, error) {
	payment, err := ps.repo.GetPaymentByTradeNo(ctx, tradeNo)
	if err != nil {
		return nil, err
	}
	if payment.PayerID != actor.ID && actor.Role != models.RoleAdmin {
		return nil, models.ErrNotOrderOwner
	}

	if payment.Status != models.PaymentStatusPending {
		return payment, nil
	}

	status, err := ps.gw.QueryCharge(ctx, tradeNo)
	if err != nil {
		// gateway is unreachable, report the local state
		logger.Log.Warn("query charge", zap.String("trade_no", tradeNo), zap.Error(err))
		return payment, nil
	}

	switch status {
	case gateway.ChargeStatusSuccess:
		if err := ps.settleSuccess(ctx, tradeNo, ""); err != nil {
			return nil, err
		}
	case gateway.ChargeStatusFailed:
		if err := ps.failPayment(ctx, tradeNo); err != nil {
			return nil, err
		}
	default:
		return payment, nil
	}

	return ps.repo.GetPaymentByTradeNo(ctx, tradeNo)
}

// settleSuccess marks payment successful and applies the matching order
// transition in one transaction
func (ps *PaymentService) settleSuccess(ctx context.Context, tradeNo, gatewayTxID string) error {
	payment, err := ps.repo.Settle(ctx, tradeNo, func(p *models.Payment, o *models.Order) (*models.OrderChange, error) {
		if p.Status == models.PaymentStatusSuccess {
			return nil, models.ErrPaymentSettled
		}
		if p.Status != models.PaymentStatusPending {
			return nil, fmt.Errorf("%w: payment is %s", models.ErrInvalidState, p.Status)
		}

		now := ps.now()
		p.Status = models.PaymentStatusSuccess
		p.PaidAt = &now
		if gatewayTxID != "" {
			p.GatewayTxID = gatewayTxID
		}

		switch p.Type {
		case models.PaymentTypePrepay:
			return applyPrepaySuccess(o, now)
		case models.PaymentTypeRepair:
			return applyRepairPaySuccess(o, now)
		}
		return nil, fmt.Errorf("%w: unknown payment type %s", models.ErrInternalError, p.Type)
	})
	if err != nil {
		if errors.Is(err, models.ErrPaymentSettled) {
			// duplicate delivery, already applied
			return nil
		}
		return err
	}

	metrics.PaymentsTotal.WithLabelValues(payment.Type, models.PaymentStatusSuccess).Inc()

	return nil
}

// failPayment marks still-pending payment as failed, order is left untouched
func (ps *PaymentService) failPayment(ctx context.Context, tradeNo string) error {
	_, err := ps.repo.Settle(ctx, tradeNo, func(p *models.Payment, o *models.Order) (*models.OrderChange, error) {
		if p.Status != models.PaymentStatusPending {
			return nil, models.ErrPaymentSettled
		}
		p.Status = models.PaymentStatusFailed
		return nil, nil
	})
	if err != nil && !errors.Is(err, models.ErrPaymentSettled) {
		return err
	}
	return nil
}

// RefundPrepayment starts refund of order's successful prepayment. Refund is
// best-effort: a gateway outage leaves the refund in PROCESSING to be retried
// by support tooling, it never undoes the committed cancellation.
func (ps *PaymentService) RefundPrepayment(ctx context.Context, orderID uint64, reason string) error {
	payment, err := ps.repo.GetSuccessfulPrepay(ctx, orderID)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			return nil
		}
		return err
	}

	if err := ps.repo.RequestRefund(ctx, payment.TradeNo, reason); err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			// refund already requested or finished
			return nil
		}
		return err
	}

	err = ps.gw.Refund(ctx, payment.TradeNo, payment.Amount, reason)
	switch {
	case err == nil:
		return ps.repo.FinishRefund(ctx, payment.TradeNo, true)
	case errors.Is(err, models.ErrGatewayRejected):
		if finishErr := ps.repo.FinishRefund(ctx, payment.TradeNo, false); finishErr != nil {
			return finishErr
		}
		return err
	default:
		// retryable gateway failure, refund stays in processing
		return err
	}
}

// ExpireStalePrepayments closes orders whose prepayment window ran out.
// Each payment is settled in its own transaction; a failure on one order is
// logged and does not abort the batch. Returns the number of orders closed.
func (ps *PaymentService) ExpireStalePrepayments(ctx context.Context) (int, error) {
	cutoff := ps.now().Add(-ps.ttl)

	payments, err := ps.repo.ListExpiredPrepayments(ctx, cutoff, ps.batch)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, payment := range payments {
		orderClosed, err := ps.expirePrepayment(ctx, payment.TradeNo)
		if err != nil {
			logger.Log.Error("expire prepayment",
				zap.String("trade_no", payment.TradeNo),
				zap.Uint64("order_id", payment.OrderID),
				zap.Error(err))
			continue
		}
		if orderClosed {
			closed++
			metrics.ReconcilerClosedTotal.Inc()
		}
	}

	return closed, nil
}

func (ps *PaymentService) expirePrepayment(ctx context.Context, tradeNo string) (bool, error) {
	orderClosed := false

	_, err := ps.repo.Settle(ctx, tradeNo, func(p *models.Payment, o *models.Order) (*models.OrderChange, error) {
		if p.Status != models.PaymentStatusPending {
			// settled concurrently, nothing to do
			return nil, models.ErrPaymentSettled
		}
		p.Status = models.PaymentStatusExpired

		if o.Status != models.OrderStatusPendingPayment {
			// another prepayment already moved the order on
			return nil, nil
		}

		change, err := applyPrepayTimeout(o, ps.now())
		if err != nil {
			return nil, err
		}
		orderClosed = true
		return change, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrPaymentSettled) {
			return false, nil
		}
		return false, err
	}

	metrics.PaymentsTotal.WithLabelValues(models.PaymentTypePrepay, models.PaymentStatusExpired).Inc()

	return orderClosed, nil
}

// newTradeNo generates merchant trade number with Luhn check digit
func newTradeNo() string {
	base := fmt.Sprintf("9%d%03d", time.Now().UnixMilli(), rand.Intn(1000))
	n, err := strconv.ParseInt(base, 10, 64)
	if err != nil {
		return base
	}
	for d := int64(0); d < 10; d++ {
		if luhn.IsValid(n*10 + d) {
			return strconv.FormatInt(n*10+d, 10)
		}
	}
	return base
}
