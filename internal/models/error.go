package models

import (
	"errors"
	"fmt"
)

// error taxonomy, every rejected transition maps to one of these
var (
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidState       = errors.New("invalid order state")
	ErrConflict           = errors.New("conflict")
	ErrDataNotFound       = errors.New("data not found")
	ErrValidation         = errors.New("validation failed")
	ErrGateway            = errors.New("payment gateway error")
	ErrGatewayRejected    = fmt.Errorf("%w: request rejected", ErrGateway)
	ErrInternalError      = errors.New("internal error")
	ErrConflictData       = errors.New("data conflicts with existing data")
	ErrInvalidCredentials = errors.New("invalid login or password")
)

// stable transition rejection reasons
var (
	ErrNotOrderOwner          = fmt.Errorf("%w: not your order", ErrForbidden)
	ErrNotAssignedElectrician = fmt.Errorf("%w: not assigned to this order", ErrForbidden)
	ErrWrongRole              = fmt.Errorf("%w: role is not allowed to perform this action", ErrForbidden)
	ErrAlreadyClaimed         = fmt.Errorf("%w: order already claimed", ErrConflict)
	ErrNotClaimable           = fmt.Errorf("%w: order is not claimable", ErrInvalidState)
	ErrCancelAlreadyInitiated = fmt.Errorf("%w: cancellation already initiated", ErrConflict)
	ErrCancelSelfConfirm      = fmt.Errorf("%w: cannot confirm own cancellation request", ErrForbidden)
	ErrCancelNotInitiated     = fmt.Errorf("%w: no cancellation initiated", ErrInvalidState)
	ErrCancelNotInitiator     = fmt.Errorf("%w: only initiator can withdraw cancellation", ErrForbidden)
	ErrNoRenegotiation        = fmt.Errorf("%w: no pending renegotiation", ErrInvalidState)
	ErrAlreadyReviewed        = fmt.Errorf("%w: order already reviewed", ErrConflict)
	ErrPendingPaymentExists   = fmt.Errorf("%w: pending payment already exists", ErrConflict)
	ErrPaymentSettled         = fmt.Errorf("%w: payment already settled", ErrConflict)
	ErrInvalidFinalAmount     = fmt.Errorf("%w: final amount must not be negative", ErrValidation)
	ErrInvalidTradeNo         = fmt.Errorf("%w: invalid trade number", ErrValidation)
	ErrInvalidSignature       = fmt.Errorf("%w: invalid gateway signature", ErrForbidden)
)
