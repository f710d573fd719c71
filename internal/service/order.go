package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fixmart/fixmart/internal/logger"
	"github.com/fixmart/fixmart/internal/metrics"
	"github.com/fixmart/fixmart/internal/models"
	"go.uber.org/zap"
)

const orderNumberPrefix = "FX"

// OrderRepository is interface for interacting with order-related data
type OrderRepository interface {
	// CreateOrder inserts new order with initial log row and notification
	CreateOrder(ctx context.Context, order *models.Order, change *models.OrderChange) (*models.Order, error)
	// GetOrderByID returns order by id
	GetOrderByID(ctx context.Context, id uint64) (*models.Order, error)
	// ListOpenOrders returns pending unclaimed orders
	ListOpenOrders(ctx context.Context) ([]models.Order, error)
	// ListUserOrders returns orders created by user
	ListUserOrders(ctx context.Context, userID uint64) ([]models.Order, error)
	// ListElectricianOrders returns orders assigned to electrician
	ListElectricianOrders(ctx context.Context, electricianID uint64) ([]models.Order, error)
	// Transition atomically applies single state transition under row lock
	Transition(ctx context.Context, orderID uint64, apply func(*models.Order) (*models.OrderChange, error)) (*models.Order, error)
}

// Refunder starts prepayment refund for cancelled order
type Refunder interface {
	RefundPrepayment(ctx context.Context, orderID uint64, reason string) error
}

// OrderService implements order lifecycle state machine
type OrderService struct {
	repo     OrderRepository
	refunder Refunder
	now      func() time.Time
}

// NewOrderService creates new OrderService instance
func NewOrderService(repo OrderRepository, refunder Refunder) *OrderService {
	return &OrderService{
		repo:     repo,
		refunder: refunder,
		now:      time.Now,
	}
}

// CreateOrderInput is validated input for order creation
type CreateOrderInput struct {
	ServiceType  string
	Title        string
	Description  string
	Images       []string
	ContactName  string
	ContactPhone string
	Address      string
	Latitude     *float64
	Longitude    *float64
	BudgetMin    *float64
	BudgetMax    *float64
}

func (in *CreateOrderInput) validate() error {
	switch {
	case in.ServiceType == "":
		return fmt.Errorf("%w: service type is required", models.ErrValidation)
	case in.Title == "":
		return fmt.Errorf("%w: title is required", models.ErrValidation)
	case in.ContactName == "":
		return fmt.Errorf("%w: contact name is required", models.ErrValidation)
	case in.ContactPhone == "":
		return fmt.Errorf("%w: contact phone is required", models.ErrValidation)
	case in.Address == "":
		return fmt.Errorf("%w: address is required", models.ErrValidation)
	}
	if in.BudgetMin != nil && in.BudgetMax != nil && *in.BudgetMin > *in.BudgetMax {
		return fmt.Errorf("%w: budget range is inverted", models.ErrValidation)
	}
	return nil
}

// Create creates new order in PENDING_PAYMENT status
func (os *OrderService) Create(ctx context.Context, actor Actor, in CreateOrderInput) (order *models.Order, err error) {
	defer func() { observeTransition(EventCreate, err) }()

	if actor.Role != models.RoleUser {
		return nil, models.ErrWrongRole
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	estimated := 0.0
	if in.BudgetMax != nil {
		estimated = *in.BudgetMax
	} else if in.BudgetMin != nil {
		estimated = *in.BudgetMin
	}

	order = &models.Order{
		Number:              newOrderNumber(),
		UserID:              actor.ID,
		ServiceType:         in.ServiceType,
		Title:               in.Title,
		Description:         in.Description,
		Images:              in.Images,
		ContactName:         in.ContactName,
		ContactPhone:        in.ContactPhone,
		Address:             in.Address,
		Latitude:            in.Latitude,
		Longitude:           in.Longitude,
		BudgetMin:           in.BudgetMin,
		BudgetMax:           in.BudgetMax,
		EstimatedAmount:     estimated,
		Status:              models.OrderStatusPendingPayment,
		CancelConfirmStatus: models.CancelConfirmNone,
	}

	change := models.OrderChange{
		Log: models.StatusLog{
			ToStatus:     models.OrderStatusPendingPayment,
			OperatorID:   actor.ID,
			OperatorRole: actor.Role,
			Remark:       "order created",
		},
		Notification: &models.Notification{
			UserID: actor.ID,
			Title:  "Order created",
			Body:   fmt.Sprintf("Order %s is waiting for prepayment", order.Number),
		},
	}

	return os.repo.CreateOrder(ctx, order, &change)
}

// GetOrder returns order visible to actor
func (os *OrderService) GetOrder(ctx context.Context, actor Actor, orderID uint64) (*models.Order, error) {
	order, err := os.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleAdmin:
		return order, nil
	case models.RoleUser:
		if order.UserID != actor.ID {
			return nil, models.ErrNotOrderOwner
		}
	case models.RoleElectrician:
		// electricians see open orders and their own assignments
		assigned := order.ElectricianID != nil && *order.ElectricianID == actor.ID
		open := order.Status == models.OrderStatusPending && order.ElectricianID == nil
		if !assigned && !open {
			return nil, models.ErrNotAssignedElectrician
		}
	default:
		return nil, models.ErrWrongRole
	}

	return order, nil
}

// ListOrders returns orders of actor: created ones for requester,
// assigned ones for electrician
func (os *OrderService) ListOrders(ctx context.Context, actor Actor) ([]models.Order, error) {
	switch actor.Role {
	case models.RoleUser:
		return os.repo.ListUserOrders(ctx, actor.ID)
	case models.RoleElectrician:
		return os.repo.ListElectricianOrders(ctx, actor.ID)
	default:
		return nil, models.ErrWrongRole
	}
}

// ListOpenOrders returns claimable orders for electricians
func (os *OrderService) ListOpenOrders(ctx context.Context, actor Actor) ([]models.Order, error) {
	if actor.Role != models.RoleElectrician && actor.Role != models.RoleAdmin {
		return nil, models.ErrWrongRole
	}
	return os.repo.ListOpenOrders(ctx)
}

// Claim is exclusive acceptance of pending order by electrician. The status
// and assignment re-check runs under the order row lock, so exactly one of
// concurrent claimers wins; losers get a conflict and no retry is performed.
func (os *OrderService) Claim(ctx context.Context, actor Actor, orderID uint64, quotedPrice *float64) (order *models.Order, err error) {
	defer func() { observeTransition(EventClaim, err) }()

	if quotedPrice != nil && *quotedPrice <= 0 {
		return nil, fmt.Errorf("%w: quoted price must be positive", models.ErrValidation)
	}

	order, err = os.repo.Transition(ctx, orderID, func(o *models.Order) (*models.OrderChange, error) {
		if err := checkTransition(o, EventClaim, actor); err != nil {
			return nil, err
		}

		now := os.now()
		from := o.Status
		electricianID := actor.ID
		o.ElectricianID = &electricianID
		o.QuotedPrice = quotedPrice
		o.Status = models.OrderStatusAccepted
		o.AcceptedAt = &now

		return &models.OrderChange{
			Log: logEntry(from, o, actor, "take"),
			Notification: &models.Notification{
				UserID: o.UserID,
				Title:  "Order claimed",
				Body:   fmt.Sprintf("A technician accepted order %s", o.Number),
			},
		}, nil
	})
	if err != nil && errors.Is(err, models.ErrConflict) {
		metrics.ClaimConflictsTotal.Inc()
	}

	return order, err
}

// Confirm is requester's approval of the assigned electrician, work starts
func (os *OrderService) Confirm(ctx context.Context, actor Actor, orderID uint64) (order *models.Order, err error) {
	defer func() { observeTransition(EventConfirm, err) }()

	return os.repo.Transition(ctx, orderID, func(o *models.Order) (*models.OrderChange, error) {
		if err := checkTransition(o, EventConfirm, actor); err != nil {
			return nil, err
		}

		now := os.now()
		from := o.Status
		o.Status = models.OrderStatusInProgress
		o.ConfirmedAt = &now

		return &models.OrderChange{
			Log: logEntry(from, o, actor, "requester confirmed"),
		}, nil
	})
}

// RenegotiateInput is technician's price/content edit
type RenegotiateInput struct {
	Amount      float64
	Title       *string
	Description *string
	Remark      string
}

// Renegotiate lets assigned electrician edit price and content of order in
// progress; the edit stays unconfirmed until the requester approves it
func (os *OrderService) Renegotiate(ctx context.Context, actor Actor, orderID uint64, in RenegotiateInput) (order *models.Order, err error) {
	defer func() { observeTransition(EventRenegotiate, err) }()

	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}

	return os.repo.Transition(ctx, orderID, func(o *models.Order) (*models.OrderChange, error) {
		if err := checkTransition(o, EventRenegotiate, actor); err != nil {
			return nil, err
		}

		now := os.now()
		from := o.Status
		amount := in.Amount
		o.QuotedPrice = &amount
		if in.Title != nil {
			o.Title = *in.Title
		}
		if in.Description != nil {
			o.Description = *in.Description
		}
		o.NeedsConfirmation = true
		o.LastModifiedAt = &now

		remark := in.Remark
		if remark == "" {
			remark = "price updated"
		}

		return &models.OrderChange{
			Log: logEntry(from, o, actor, remark),
		}, nil
	})
}

// ConfirmRenegotiation is requester's approval of technician's edit
func (os *OrderService) ConfirmRenegotiation(ctx context.Context, actor Actor, orderID uint64) (order *models.Order, err error) {
	defer func() { observeTransition(EventConfirmRenegotiation, err) }()

	return os.repo.Transition(ctx, orderID, func(o *models.Order) (*models.OrderChange, error) {
		if err := checkTransition(o, EventConfirmRenegotiation, actor); err != nil {
			return nil, err
		}
		if !o.NeedsConfirmation {
			return nil, models.ErrNoRenegotiation
		}

		from := o.Status
		o.NeedsConfirmation = false
		if o.ConfirmedAt == nil {
			now := os.now()
			o.ConfirmedAt = &now
		}

		return &models.OrderChange{
			Log: logEntry(from, o, actor, "edit confirmed"),
		}, nil
	})
}

// CompleteInput is technician's completion report
type CompleteInput struct {
	RepairContent string
	FinalAmount   float64
	RepairImages  []string
}

// Complete records finished work. Zero final amount completes the order
// outright, positive amount holds it until the repair fee is paid.
func (os *OrderService) Complete(ctx context.Context, actor Actor, orderID uint64, in CompleteInput) (order *models.Order, err error) {
	defer func() { observeTransition(EventComplete, err) }()

	if in.FinalAmount < 0 {
		return nil, models.ErrInvalidFinalAmount
	}
	if in.RepairContent == "" {
		return nil, fmt.Errorf("%w: repair content is required", models.ErrValidation)
	}

	return os.repo.Transition(ctx, orderID, func(o *models.Order) (*models.OrderChange, error) {
		if err := checkTransition(o, EventComplete, actor); err != nil {
			return nil, err
		}

		now := os.now()
		from := o.Status
		amount := in.FinalAmount
		o.RepairContent = in.RepairContent
		o.RepairImages = in.RepairImages
		o.FinalAmount = &amount
		o.CompletedAt = &now
		if amount > 0 {
			o.Status = models.OrderStatusPendingRepairPayment
		} else {
			o.Status = models.OrderStatusCompleted
		}

		return &models.OrderChange{
			Log: logEntry(from, o, actor, "work completed"),
			Notification: &models.Notification{
				UserID: o.UserID,
				Title:  "Work completed",
				Body:   fmt.Sprintf("Order %s is completed, final amount %.2f", o.Number, amount),
			},
		}, nil
	})
}

// Review marks completed order as reviewed by the requester
func (os *OrderService) Review(ctx context.Context, actor Actor, orderID uint64) (order *models.Order, err error) {
	defer func() { observeTransition(EventReview, err) }()

	return os.repo.Transition(ctx, orderID, func(o *models.Order) (*models.OrderChange, error) {
		if err := checkTransition(o, EventReview, actor); err != nil {
			return nil, err
		}
		if o.HasReview {
			return nil, models.ErrAlreadyReviewed
		}

		from := o.Status
		o.HasReview = true

		return &models.OrderChange{
			Log: logEntry(from, o, actor, "review submitted"),
		}, nil
	})
}

// Cancel cancels order before work has started
func (os *OrderService) Cancel(ctx context.Context, actor Actor, orderID uint64, reason string) (order *models.Order, err error) {
	defer func() { observeTransition(EventCancel, err) }()

	order, err = os.repo.Transition(ctx, orderID, func(o *models.Order) (*models.OrderChange, error) {
		if err := checkTransition(o, EventCancel, actor); err != nil {
			return nil, err
		}

		now := os.now()
		from := o.Status
		o.Status = models.OrderStatusCancelled
		o.CancelledAt = &now
		o.CancelReason = reason

		change := models.OrderChange{
			Log: logEntry(from, o, actor, "cancelled by requester"),
		}
		if o.ElectricianID != nil {
			change.Notification = &models.Notification{
				UserID: *o.ElectricianID,
				Title:  "Order cancelled",
				Body:   fmt.Sprintf("Order %s was cancelled by the requester", o.Number),
			}
		}
		return &change, nil
	})
	if err != nil {
		return nil, err
	}

	os.refundPrepay(ctx, order.ID, reason)

	return order, nil
}

// refundPrepay starts best-effort refund of order's prepayment after
// the cancellation has committed
func (os *OrderService) refundPrepay(ctx context.Context, orderID uint64, reason string) {
	if os.refunder == nil {
		return
	}
	if err := os.refunder.RefundPrepayment(ctx, orderID, reason); err != nil {
		logger.Log.Error("refund prepayment",
			zap.Uint64("order_id", orderID),
			zap.Error(err))
	}
}

// observeTransition records transition attempt outcome
func observeTransition(ev Event, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrDataNotFound):
		result = "rejected"
	default:
		result = "error"
	}
	metrics.OrderTransitionsTotal.WithLabelValues(string(ev), result).Inc()
}

// newOrderNumber generates human-facing order number
func newOrderNumber() string {
	return fmt.Sprintf("%s%d%04d", orderNumberPrefix, time.Now().UnixMilli(), rand.Intn(10000))
}
