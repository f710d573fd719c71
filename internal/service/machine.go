package service

import (
	"fmt"
	"time"

	"github.com/fixmart/fixmart/internal/models"
)

// Actor identifies who performs a transition
type Actor struct {
	ID   uint64
	Role string
}

var systemActor = Actor{ID: 0, Role: models.RoleSystem}

// Event is order state machine event
type Event string

const (
	EventCreate               Event = "create"
	EventPrepaySuccess        Event = "prepay_success"
	EventPrepayTimeout        Event = "prepay_timeout"
	EventClaim                Event = "claim"
	EventConfirm              Event = "confirm"
	EventRenegotiate          Event = "renegotiate"
	EventConfirmRenegotiation Event = "confirm_renegotiation"
	EventComplete             Event = "complete"
	EventRepairPaySuccess     Event = "repair_pay_success"
	EventReview               Event = "review"
	EventCancel               Event = "cancel"
	EventInitiateCancel       Event = "initiate_cancel"
	EventConfirmCancel        Event = "confirm_cancel"
	EventWithdrawCancel       Event = "withdraw_cancel"
)

// ownership guard applied on top of role check
type ownership int

const (
	ownNone       ownership = iota // system events
	ownRequester                   // order.user_id must match actor
	ownAssigned                    // order.electrician_id must match actor
	ownUnassigned                  // claim: order must have no electrician
	ownParty                       // requester or assigned electrician
)

type transitionRule struct {
	from  []string
	roles []string
	owner ownership
}

// transitionRules is the single source of truth for transition legality.
// Every user-facing operation and every system settlement goes through
// checkTransition against this table.
var transitionRules = map[Event]transitionRule{
	EventPrepaySuccess: {
		from:  []string{models.OrderStatusPendingPayment},
		roles: []string{models.RoleSystem},
		owner: ownNone,
	},
	EventPrepayTimeout: {
		from:  []string{models.OrderStatusPendingPayment},
		roles: []string{models.RoleSystem},
		owner: ownNone,
	},
	EventClaim: {
		from:  []string{models.OrderStatusPending},
		roles: []string{models.RoleElectrician},
		owner: ownUnassigned,
	},
	EventConfirm: {
		from:  []string{models.OrderStatusAccepted},
		roles: []string{models.RoleUser},
		owner: ownRequester,
	},
	EventRenegotiate: {
		from:  []string{models.OrderStatusInProgress},
		roles: []string{models.RoleElectrician},
		owner: ownAssigned,
	},
	EventConfirmRenegotiation: {
		from:  []string{models.OrderStatusInProgress},
		roles: []string{models.RoleUser},
		owner: ownRequester,
	},
	EventComplete: {
		from:  []string{models.OrderStatusInProgress},
		roles: []string{models.RoleElectrician},
		owner: ownAssigned,
	},
	EventRepairPaySuccess: {
		from:  []string{models.OrderStatusPendingRepairPayment},
		roles: []string{models.RoleSystem},
		owner: ownNone,
	},
	EventReview: {
		from:  []string{models.OrderStatusCompleted},
		roles: []string{models.RoleUser},
		owner: ownRequester,
	},
	EventCancel: {
		from:  []string{models.OrderStatusPending, models.OrderStatusAccepted},
		roles: []string{models.RoleUser},
		owner: ownRequester,
	},
	EventInitiateCancel: {
		from:  []string{models.OrderStatusInProgress},
		roles: []string{models.RoleUser, models.RoleElectrician},
		owner: ownParty,
	},
	EventConfirmCancel: {
		from:  []string{models.OrderStatusCancelPending},
		roles: []string{models.RoleUser, models.RoleElectrician},
		owner: ownParty,
	},
	EventWithdrawCancel: {
		from:  []string{models.OrderStatusCancelPending},
		roles: []string{models.RoleUser, models.RoleElectrician},
		owner: ownParty,
	},
}

// checkTransition validates that actor may apply ev to order in its current
// stored state. Callers hold the order row lock, so the status seen here
// cannot change before the transition commits.
func checkTransition(order *models.Order, ev Event, actor Actor) error {
	rule, ok := transitionRules[ev]
	if !ok {
		return fmt.Errorf("%w: unknown event %s", models.ErrInvalidState, ev)
	}

	if !containsString(rule.roles, actor.Role) {
		return models.ErrWrongRole
	}

	if !containsString(rule.from, order.Status) {
		if ev == EventClaim {
			return models.ErrNotClaimable
		}
		return fmt.Errorf("%w: %s not allowed from %s", models.ErrInvalidState, ev, order.Status)
	}

	switch rule.owner {
	case ownRequester:
		if order.UserID != actor.ID {
			return models.ErrNotOrderOwner
		}
	case ownAssigned:
		if order.ElectricianID == nil || *order.ElectricianID != actor.ID {
			return models.ErrNotAssignedElectrician
		}
	case ownUnassigned:
		if order.ElectricianID != nil {
			return models.ErrAlreadyClaimed
		}
	case ownParty:
		requester := order.UserID == actor.ID && actor.Role == models.RoleUser
		assigned := order.ElectricianID != nil && *order.ElectricianID == actor.ID && actor.Role == models.RoleElectrician
		if !requester && !assigned {
			return models.ErrNotOrderOwner
		}
	}

	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// logEntry builds audit row for transition that moved order from given status
func logEntry(from string, order *models.Order, actor Actor, remark string) models.StatusLog {
	f := from
	return models.StatusLog{
		OrderID:      order.ID,
		FromStatus:   &f,
		ToStatus:     order.Status,
		OperatorID:   actor.ID,
		OperatorRole: actor.Role,
		Remark:       remark,
	}
}

// applyPrepaySuccess moves order to PENDING once its prepayment settled
func applyPrepaySuccess(order *models.Order, now time.Time) (*models.OrderChange, error) {
	if err := checkTransition(order, EventPrepaySuccess, systemActor); err != nil {
		return nil, err
	}

	from := order.Status
	order.Status = models.OrderStatusPending
	order.PrepaidAt = &now

	return &models.OrderChange{
		Log: logEntry(from, order, systemActor, "prepayment received"),
	}, nil
}

// applyRepairPaySuccess finishes order once its repair fee settled
func applyRepairPaySuccess(order *models.Order, now time.Time) (*models.OrderChange, error) {
	if err := checkTransition(order, EventRepairPaySuccess, systemActor); err != nil {
		return nil, err
	}

	from := order.Status
	order.Status = models.OrderStatusCompleted
	order.PaidAt = &now

	return &models.OrderChange{
		Log: logEntry(from, order, systemActor, "repair fee paid"),
		Notification: &models.Notification{
			UserID: order.UserID,
			Title:  "Payment received",
			Body:   fmt.Sprintf("Payment for order %s received, order is completed", order.Number),
		},
	}, nil
}

// applyPrepayTimeout force-closes order whose prepayment window expired
func applyPrepayTimeout(order *models.Order, now time.Time) (*models.OrderChange, error) {
	if err := checkTransition(order, EventPrepayTimeout, systemActor); err != nil {
		return nil, err
	}

	from := order.Status
	order.Status = models.OrderStatusClosed
	order.CancelledAt = &now
	order.CancelReason = "prepayment timeout"

	return &models.OrderChange{
		Log: logEntry(from, order, systemActor, "prepayment timeout"),
		Notification: &models.Notification{
			UserID: order.UserID,
			Title:  "Order closed",
			Body:   fmt.Sprintf("Order %s was closed because the prepayment was not received in time", order.Number),
		},
	}, nil
}
