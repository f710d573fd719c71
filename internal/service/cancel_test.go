package service

import (
	"context"
	"testing"

	"github.com/fixmart/fixmart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedInProgress(repo *fakeOrderRepo) *models.Order {
	electrician := uint64(2)
	return repo.put(&models.Order{
		Number:              "FX300",
		UserID:              1,
		ElectricianID:       &electrician,
		Status:              models.OrderStatusInProgress,
		CancelConfirmStatus: models.CancelConfirmNone,
	})
}

func TestOrderService_InitiateCancel(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo, nil)
	ctx := context.Background()

	order := seedInProgress(repo)
	requester := Actor{ID: 1, Role: models.RoleUser}

	_, err := svc.InitiateCancel(ctx, requester, order.ID, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	got, err := svc.InitiateCancel(ctx, requester, order.ID, "no longer needed")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelPending, got.Status)
	assert.True(t, got.CancelInitiated)
	assert.Equal(t, models.RoleUser, got.CancelInitiator)
	assert.Equal(t, models.CancelConfirmPending, got.CancelConfirmStatus)
	require.NotNil(t, got.CancelInitiatedAt)

	// counter-party gets notified
	require.Len(t, repo.notes, 1)
	assert.Equal(t, uint64(2), repo.notes[0].UserID)

	// a second initiation is rejected while the first one is pending
	_, err = svc.InitiateCancel(ctx, Actor{ID: 2, Role: models.RoleElectrician}, order.ID, "me too")
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestOrderService_ConfirmCancel(t *testing.T) {
	repo := newFakeOrderRepo()
	refunder := &fakeRefunder{}
	svc := newTestOrderService(repo, refunder)
	ctx := context.Background()

	order := seedInProgress(repo)
	requester := Actor{ID: 1, Role: models.RoleUser}
	electrician := Actor{ID: 2, Role: models.RoleElectrician}

	_, err := svc.ConfirmCancel(ctx, electrician, order.ID)
	assert.ErrorIs(t, err, models.ErrInvalidState)

	_, err = svc.InitiateCancel(ctx, requester, order.ID, "schedule conflict")
	require.NoError(t, err)

	// the initiating side cannot confirm its own request
	_, err = svc.ConfirmCancel(ctx, requester, order.ID)
	assert.ErrorIs(t, err, models.ErrCancelSelfConfirm)
	assert.Empty(t, refunder.calls)

	got, err := svc.ConfirmCancel(ctx, electrician, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Equal(t, models.CancelConfirmConfirmed, got.CancelConfirmStatus)
	assert.Equal(t, models.RoleElectrician, got.CancelConfirmer)
	require.NotNil(t, got.CancelConfirmedAt)
	require.NotNil(t, got.CancelledAt)
	assert.Equal(t, []uint64{order.ID}, refunder.calls)
}

func TestOrderService_WithdrawCancel(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo, nil)
	ctx := context.Background()

	order := seedInProgress(repo)
	requester := Actor{ID: 1, Role: models.RoleUser}
	electrician := Actor{ID: 2, Role: models.RoleElectrician}

	_, err := svc.InitiateCancel(ctx, electrician, order.ID, "found another job")
	require.NoError(t, err)

	// only the initiator may withdraw
	_, err = svc.WithdrawCancel(ctx, requester, order.ID)
	assert.ErrorIs(t, err, models.ErrCancelNotInitiator)

	got, err := svc.WithdrawCancel(ctx, electrician, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, got.Status)
	assert.False(t, got.CancelInitiated)
	assert.Empty(t, got.CancelInitiator)
	assert.Empty(t, got.CancelReason)
	assert.Nil(t, got.CancelInitiatedAt)
	assert.Equal(t, models.CancelConfirmNone, got.CancelConfirmStatus)

	// the order is negotiable again after the withdrawal
	_, err = svc.InitiateCancel(ctx, requester, order.ID, "second attempt")
	require.NoError(t, err)
}

func TestOrderService_CancelNegotiationByOutsider(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestOrderService(repo, nil)
	ctx := context.Background()

	order := seedInProgress(repo)

	_, err := svc.InitiateCancel(ctx, Actor{ID: 9, Role: models.RoleUser}, order.ID, "not mine")
	assert.ErrorIs(t, err, models.ErrNotOrderOwner)

	_, err = svc.InitiateCancel(ctx, Actor{ID: 9, Role: models.RoleElectrician}, order.ID, "not mine")
	assert.ErrorIs(t, err, models.ErrNotOrderOwner)
}
