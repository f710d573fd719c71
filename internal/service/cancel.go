package service

import (
	"context"
	"fmt"

	"github.com/fixmart/fixmart/internal/models"
)

// InitiateCancel starts two-party cancellation of order in progress. Either
// party may initiate; a second initiation is rejected until the first one is
// confirmed or withdrawn.
func (os *OrderService) InitiateCancel(ctx context.Context, actor Actor, orderID uint64, reason string) (order *models.Order, err error) {
	defer func() { observeTransition(EventInitiateCancel, err) }()

	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", models.ErrValidation)
	}

	return os.repo.Transition(ctx, orderID, func(o *models.Order) (*models.OrderChange, error) {
		if err := checkTransition(o, EventInitiateCancel, actor); err != nil {
			return nil, err
		}
		if o.CancelInitiated {
			return nil, models.ErrCancelAlreadyInitiated
		}

		now := os.now()
		from := o.Status
		o.Status = models.OrderStatusCancelPending
		o.CancelInitiated = true
		o.CancelInitiator = actor.Role
		o.CancelReason = reason
		o.CancelInitiatedAt = &now
		o.CancelConfirmStatus = models.CancelConfirmPending

		return &models.OrderChange{
			Log:          logEntry(from, o, actor, "cancellation requested"),
			Notification: counterPartyNote(o, actor, "Cancellation requested", fmt.Sprintf("The other party asked to cancel order %s", o.Number)),
		}, nil
	})
}

// ConfirmCancel finalizes cancellation initiated by the other party
func (os *OrderService) ConfirmCancel(ctx context.Context, actor Actor, orderID uint64) (order *models.Order, err error) {
	defer func() { observeTransition(EventConfirmCancel, err) }()

	order, err = os.repo.Transition(ctx, orderID, func(o *models.Order) (*models.OrderChange, error) {
		if err := checkTransition(o, EventConfirmCancel, actor); err != nil {
			return nil, err
		}
		if !o.CancelInitiated {
			return nil, models.ErrCancelNotInitiated
		}
		if actor.Role == o.CancelInitiator {
			return nil, models.ErrCancelSelfConfirm
		}

		now := os.now()
		from := o.Status
		o.Status = models.OrderStatusCancelled
		o.CancelConfirmStatus = models.CancelConfirmConfirmed
		o.CancelConfirmer = actor.Role
		o.CancelConfirmedAt = &now
		o.CancelledAt = &now

		return &models.OrderChange{
			Log:          logEntry(from, o, actor, "cancellation confirmed"),
			Notification: counterPartyNote(o, actor, "Order cancelled", fmt.Sprintf("Cancellation of order %s was confirmed", o.Number)),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	os.refundPrepay(ctx, order.ID, order.CancelReason)

	return order, nil
}

// WithdrawCancel lets the initiator take back a pending cancellation so the
// order does not stay stuck when the counter-party never responds
func (os *OrderService) WithdrawCancel(ctx context.Context, actor Actor, orderID uint64) (order *models.Order, err error) {
	defer func() { observeTransition(EventWithdrawCancel, err) }()

	return os.repo.Transition(ctx, orderID, func(o *models.Order) (*models.OrderChange, error) {
		if err := checkTransition(o, EventWithdrawCancel, actor); err != nil {
			return nil, err
		}
		if !o.CancelInitiated {
			return nil, models.ErrCancelNotInitiated
		}
		if actor.Role != o.CancelInitiator {
			return nil, models.ErrCancelNotInitiator
		}

		from := o.Status
		o.Status = models.OrderStatusInProgress
		o.CancelInitiated = false
		o.CancelInitiator = ""
		o.CancelReason = ""
		o.CancelInitiatedAt = nil
		o.CancelConfirmStatus = models.CancelConfirmNone

		return &models.OrderChange{
			Log:          logEntry(from, o, actor, "cancellation withdrawn"),
			Notification: counterPartyNote(o, actor, "Cancellation withdrawn", fmt.Sprintf("The cancellation request for order %s was withdrawn", o.Number)),
		}, nil
	})
}

// counterPartyNote builds notification addressed to the party opposite to actor
func counterPartyNote(order *models.Order, actor Actor, title, body string) *models.Notification {
	var userID uint64
	if actor.Role == models.RoleUser {
		if order.ElectricianID == nil {
			return nil
		}
		userID = *order.ElectricianID
	} else {
		userID = order.UserID
	}

	return &models.Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
	}
}
