package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fixmart/fixmart/internal/models"
	"github.com/fixmart/fixmart/internal/service"
	"github.com/go-chi/chi/v5"
)

// OrderService is interface for order lifecycle operations
type OrderService interface {
	Create(ctx context.Context, actor service.Actor, in service.CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, actor service.Actor, orderID uint64) (*models.Order, error)
	ListOrders(ctx context.Context, actor service.Actor) ([]models.Order, error)
	ListOpenOrders(ctx context.Context, actor service.Actor) ([]models.Order, error)
	Claim(ctx context.Context, actor service.Actor, orderID uint64, quotedPrice *float64) (*models.Order, error)
	Confirm(ctx context.Context, actor service.Actor, orderID uint64) (*models.Order, error)
	Renegotiate(ctx context.Context, actor service.Actor, orderID uint64, in service.RenegotiateInput) (*models.Order, error)
	ConfirmRenegotiation(ctx context.Context, actor service.Actor, orderID uint64) (*models.Order, error)
	Complete(ctx context.Context, actor service.Actor, orderID uint64, in service.CompleteInput) (*models.Order, error)
	Review(ctx context.Context, actor service.Actor, orderID uint64) (*models.Order, error)
	Cancel(ctx context.Context, actor service.Actor, orderID uint64, reason string) (*models.Order, error)
	InitiateCancel(ctx context.Context, actor service.Actor, orderID uint64, reason string) (*models.Order, error)
	ConfirmCancel(ctx context.Context, actor service.Actor, orderID uint64) (*models.Order, error)
	WithdrawCancel(ctx context.Context, actor service.Actor, orderID uint64) (*models.Order, error)
}

// OrderHandler represents HTTP handler for order-related requests
type OrderHandler struct {
	svc OrderService
}

// NewOrderHandler creates new OrderHandler instance
func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func orderIDFromRequest(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

type createOrderRequest struct {
	ServiceType  string   `json:"service_type"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Images       []string `json:"images"`
	ContactName  string   `json:"contact_name"`
	ContactPhone string   `json:"contact_phone"`
	Address      string   `json:"address"`
	Latitude     *float64 `json:"lat,omitempty"`
	Longitude    *float64 `json:"lon,omitempty"`
	BudgetMin    *float64 `json:"budget_min,omitempty"`
	BudgetMax    *float64 `json:"budget_max,omitempty"`
}

type createOrderResponse struct {
	ID      uint64 `json:"id"`
	OrderNo string `json:"order_no"`
}

// CreateOrder creates new order
// 201 — заказ создан;
// 400 — неверный формат запроса;
// 401 — пользователь не аутентифицирован;
// 403 — неверная роль.
func (oh *OrderHandler) CreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		order, err := oh.svc.Create(r.Context(), actor, service.CreateOrderInput{
			ServiceType:  req.ServiceType,
			Title:        req.Title,
			Description:  req.Description,
			Images:       req.Images,
			ContactName:  req.ContactName,
			ContactPhone: req.ContactPhone,
			Address:      req.Address,
			Latitude:     req.Latitude,
			Longitude:    req.Longitude,
			BudgetMin:    req.BudgetMin,
			BudgetMax:    req.BudgetMax,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, createOrderResponse{
			ID:      order.ID,
			OrderNo: order.Number,
		})
	}
}

// GetOrder returns single order
func (oh *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, ok := orderIDFromRequest(r)
		if !ok {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		order, err := oh.svc.GetOrder(r.Context(), actor, id)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

// ListOrders returns orders of current actor
func (oh *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orders, err := oh.svc.ListOrders(r.Context(), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(orders) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		resp := make([]orderResponse, 0, len(orders))
		for i := range orders {
			resp = append(resp, toOrderResponse(&orders[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// ListOpenOrders returns claimable orders
func (oh *OrderHandler) ListOpenOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orders, err := oh.svc.ListOpenOrders(r.Context(), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(orders) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		resp := make([]orderResponse, 0, len(orders))
		for i := range orders {
			resp = append(resp, toOrderResponse(&orders[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type claimOrderRequest struct {
	QuotedPrice *float64 `json:"quoted_price,omitempty"`
}

// ClaimOrder claims pending order for current electrician
// 200 — заказ принят;
// 409 — заказ уже принят другим исполнителем.
func (oh *OrderHandler) ClaimOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, ok := orderIDFromRequest(r)
		if !ok {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		req := claimOrderRequest{}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			defer r.Body.Close()
		}

		order, err := oh.svc.Claim(r.Context(), actor, id, req.QuotedPrice)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

// ConfirmOrder is requester's approval of assigned electrician
func (oh *OrderHandler) ConfirmOrder() http.HandlerFunc {
	return oh.simpleTransition(func(ctx context.Context, actor service.Actor, id uint64) (*models.Order, error) {
		return oh.svc.Confirm(ctx, actor, id)
	})
}

type updateOrderRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	Remark      string  `json:"remark,omitempty"`
}

// UpdateOrder is technician's price/content renegotiation
func (oh *OrderHandler) UpdateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, ok := orderIDFromRequest(r)
		if !ok {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var req updateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		order, err := oh.svc.Renegotiate(r.Context(), actor, id, service.RenegotiateInput{
			Amount:      req.Amount,
			Title:       req.Title,
			Description: req.Description,
			Remark:      req.Remark,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

// ConfirmUpdate is requester's approval of renegotiation
func (oh *OrderHandler) ConfirmUpdate() http.HandlerFunc {
	return oh.simpleTransition(func(ctx context.Context, actor service.Actor, id uint64) (*models.Order, error) {
		return oh.svc.ConfirmRenegotiation(ctx, actor, id)
	})
}

type completeOrderRequest struct {
	RepairContent string   `json:"repair_content"`
	FinalAmount   float64  `json:"final_amount"`
	RepairImages  []string `json:"repair_images"`
}

// CompleteOrder records finished work
func (oh *OrderHandler) CompleteOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, ok := orderIDFromRequest(r)
		if !ok {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var req completeOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		order, err := oh.svc.Complete(r.Context(), actor, id, service.CompleteInput{
			RepairContent: req.RepairContent,
			FinalAmount:   req.FinalAmount,
			RepairImages:  req.RepairImages,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

// ReviewOrder marks completed order as reviewed
func (oh *OrderHandler) ReviewOrder() http.HandlerFunc {
	return oh.simpleTransition(func(ctx context.Context, actor service.Actor, id uint64) (*models.Order, error) {
		return oh.svc.Review(ctx, actor, id)
	})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder cancels order before work has started
func (oh *OrderHandler) CancelOrder() http.HandlerFunc {
	return oh.cancelWithReason(func(ctx context.Context, actor service.Actor, id uint64, reason string) (*models.Order, error) {
		return oh.svc.Cancel(ctx, actor, id, reason)
	})
}

// InitiateCancel starts two-party cancellation of in-progress order
func (oh *OrderHandler) InitiateCancel() http.HandlerFunc {
	return oh.cancelWithReason(func(ctx context.Context, actor service.Actor, id uint64, reason string) (*models.Order, error) {
		return oh.svc.InitiateCancel(ctx, actor, id, reason)
	})
}

// ConfirmCancel confirms cancellation initiated by the other party
func (oh *OrderHandler) ConfirmCancel() http.HandlerFunc {
	return oh.simpleTransition(func(ctx context.Context, actor service.Actor, id uint64) (*models.Order, error) {
		return oh.svc.ConfirmCancel(ctx, actor, id)
	})
}

// WithdrawCancel withdraws pending cancellation
func (oh *OrderHandler) WithdrawCancel() http.HandlerFunc {
	return oh.simpleTransition(func(ctx context.Context, actor service.Actor, id uint64) (*models.Order, error) {
		return oh.svc.WithdrawCancel(ctx, actor, id)
	})
}

func (oh *OrderHandler) simpleTransition(fn func(ctx context.Context, actor service.Actor, id uint64) (*models.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, ok := orderIDFromRequest(r)
		if !ok {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		order, err := fn(r.Context(), actor, id)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

func (oh *OrderHandler) cancelWithReason(fn func(ctx context.Context, actor service.Actor, id uint64, reason string) (*models.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, ok := orderIDFromRequest(r)
		if !ok {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		req := cancelOrderRequest{}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			defer r.Body.Close()
		}

		order, err := fn(r.Context(), actor, id, req.Reason)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}
