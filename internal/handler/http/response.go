package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fixmart/fixmart/internal/models"
)

// writeError maps service error to stable HTTP status and reason string
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrDataNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrConflictData):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrGateway):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, models.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return
	}
}

type orderResponse struct {
	ID                uint64   `json:"id"`
	Number            string   `json:"number"`
	Status            string   `json:"status"`
	ServiceType       string   `json:"service_type"`
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Images            []string `json:"images,omitempty"`
	Address           string   `json:"address"`
	ElectricianID     *uint64  `json:"electrician_id,omitempty"`
	EstimatedAmount   float64  `json:"estimated_amount"`
	QuotedPrice       *float64 `json:"quoted_price,omitempty"`
	FinalAmount       *float64 `json:"final_amount,omitempty"`
	RepairContent     string   `json:"repair_content,omitempty"`
	NeedsConfirmation bool     `json:"needs_confirmation"`
	HasReview         bool     `json:"has_review"`
	CancelInitiated   bool     `json:"cancel_initiated"`
	CancelInitiator   string   `json:"cancel_initiator,omitempty"`
	CancelReason      string   `json:"cancel_reason,omitempty"`
	CreatedAt         string   `json:"created_at"`
	CompletedAt       string   `json:"completed_at,omitempty"`
	CancelledAt       string   `json:"cancelled_at,omitempty"`
}

func toOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:                order.ID,
		Number:            order.Number,
		Status:            order.Status,
		ServiceType:       order.ServiceType,
		Title:             order.Title,
		Description:       order.Description,
		Images:            order.Images,
		Address:           order.Address,
		ElectricianID:     order.ElectricianID,
		EstimatedAmount:   order.EstimatedAmount,
		QuotedPrice:       order.QuotedPrice,
		FinalAmount:       order.FinalAmount,
		RepairContent:     order.RepairContent,
		NeedsConfirmation: order.NeedsConfirmation,
		HasReview:         order.HasReview,
		CancelInitiated:   order.CancelInitiated,
		CancelInitiator:   order.CancelInitiator,
		CancelReason:      order.CancelReason,
		CreatedAt:         order.CreatedAt.Format(time.RFC3339),
	}
	if order.CompletedAt != nil {
		resp.CompletedAt = order.CompletedAt.Format(time.RFC3339)
	}
	if order.CancelledAt != nil {
		resp.CancelledAt = order.CancelledAt.Format(time.RFC3339)
	}
	return resp
}

type paymentResponse struct {
	TradeNo      string  `json:"trade_no"`
	OrderID      uint64  `json:"order_id"`
	Amount       float64 `json:"amount"`
	Method       string  `json:"method"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	PrepayHandle string  `json:"prepay_handle,omitempty"`
	RefundStatus string  `json:"refund_status,omitempty"`
	ExpiresAt    string  `json:"expires_at,omitempty"`
	PaidAt       string  `json:"paid_at,omitempty"`
}

func toPaymentResponse(payment *models.Payment) paymentResponse {
	resp := paymentResponse{
		TradeNo:      payment.TradeNo,
		OrderID:      payment.OrderID,
		Amount:       payment.Amount,
		Method:       payment.Method,
		Type:         payment.Type,
		Status:       payment.Status,
		PrepayHandle: payment.PrepayHandle,
		RefundStatus: payment.RefundStatus,
	}
	if !payment.ExpiresAt.IsZero() {
		resp.ExpiresAt = payment.ExpiresAt.Format(time.RFC3339)
	}
	if payment.PaidAt != nil {
		resp.PaidAt = payment.PaidAt.Format(time.RFC3339)
	}
	return resp
}
