package service

import (
	"testing"
	"time"

	"github.com/fixmart/fixmart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var knownStatuses = []string{
	models.OrderStatusPendingPayment,
	models.OrderStatusPending,
	models.OrderStatusAccepted,
	models.OrderStatusInProgress,
	models.OrderStatusPendingRepairPayment,
	models.OrderStatusCompleted,
	models.OrderStatusCancelPending,
	models.OrderStatusCancelled,
	models.OrderStatusClosed,
}

func TestTransitionRulesWellFormed(t *testing.T) {
	for ev, rule := range transitionRules {
		require.NotEmpty(t, rule.from, "event %s has no source statuses", ev)
		require.NotEmpty(t, rule.roles, "event %s has no roles", ev)
		for _, from := range rule.from {
			assert.True(t, containsString(knownStatuses, from), "event %s allows unknown status %s", ev, from)
		}
	}
}

// terminal statuses admit no transition at all
func TestTerminalStatuses(t *testing.T) {
	electrician := uint64(2)
	for _, status := range []string{models.OrderStatusCancelled, models.OrderStatusClosed} {
		order := &models.Order{UserID: 1, ElectricianID: &electrician, Status: status}
		for ev := range transitionRules {
			for _, actor := range []Actor{
				{ID: 1, Role: models.RoleUser},
				{ID: 2, Role: models.RoleElectrician},
				systemActor,
			} {
				err := checkTransition(order, ev, actor)
				assert.Error(t, err, "%s allowed from %s for role %s", ev, status, actor.Role)
			}
		}
	}
}

func TestCheckTransitionSystemEvents(t *testing.T) {
	order := &models.Order{UserID: 1, Status: models.OrderStatusPendingPayment}

	// settlement events are system-only
	assert.ErrorIs(t, checkTransition(order, EventPrepaySuccess, Actor{ID: 1, Role: models.RoleUser}), models.ErrWrongRole)
	assert.NoError(t, checkTransition(order, EventPrepaySuccess, systemActor))
	assert.NoError(t, checkTransition(order, EventPrepayTimeout, systemActor))

	order.Status = models.OrderStatusPending
	assert.ErrorIs(t, checkTransition(order, EventPrepaySuccess, systemActor), models.ErrInvalidState)
}

func TestApplyPrepaySuccess(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	order := &models.Order{ID: 1, Number: "FX1", UserID: 1, Status: models.OrderStatusPendingPayment}

	change, err := applyPrepaySuccess(order, now)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.NotNil(t, order.PrepaidAt)
	assert.Equal(t, now, *order.PrepaidAt)

	require.NotNil(t, change.Log.FromStatus)
	assert.Equal(t, models.OrderStatusPendingPayment, *change.Log.FromStatus)
	assert.Equal(t, models.OrderStatusPending, change.Log.ToStatus)
	assert.Equal(t, models.RoleSystem, change.Log.OperatorRole)

	// not repeatable
	_, err = applyPrepaySuccess(order, now)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestApplyRepairPaySuccess(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	order := &models.Order{ID: 1, Number: "FX1", UserID: 1, Status: models.OrderStatusPendingRepairPayment}

	change, err := applyRepairPaySuccess(order, now)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.PaidAt)
	require.NotNil(t, change.Notification)
	assert.Equal(t, uint64(1), change.Notification.UserID)
}

func TestApplyPrepayTimeout(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	order := &models.Order{ID: 1, Number: "FX1", UserID: 1, Status: models.OrderStatusPendingPayment}

	change, err := applyPrepayTimeout(order, now)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusClosed, order.Status)
	assert.Equal(t, "prepayment timeout", order.CancelReason)
	require.NotNil(t, order.CancelledAt)
	require.NotNil(t, change.Notification)
}
