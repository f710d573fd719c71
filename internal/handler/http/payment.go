package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fixmart/fixmart/internal/models"
	"github.com/fixmart/fixmart/internal/service"
	"github.com/go-chi/chi/v5"
)

// PaymentService is interface for payment operations
type PaymentService interface {
	CreatePayment(ctx context.Context, actor service.Actor, orderID uint64, method, paymentType string) (*models.Payment, error)
	HandleGatewayNotify(ctx context.Context, in service.GatewayNotifyInput) error
	ConfirmTestPayment(ctx context.Context, actor service.Actor, tradeNo string) error
	QueryPayment(ctx context.Context, actor service.Actor, tradeNo string) (*models.Payment, error)
}

// PaymentHandler represents HTTP handler for payment-related requests
type PaymentHandler struct {
	svc PaymentService
}

// NewPaymentHandler creates new PaymentHandler instance
func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type createPaymentRequest struct {
	OrderID uint64 `json:"order_id"`
	Method  string `json:"method"`
	Type    string `json:"type"`
}

// CreatePayment creates pending payment and registers charge on the gateway
// 201 — платёж создан;
// 400 — неверный формат запроса;
// 401 — пользователь не аутентифицирован;
// 409 — по заказу уже есть ожидающий платёж;
// 502 — платёжный шлюз недоступен.
func (ph *PaymentHandler) CreatePayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if req.OrderID == 0 {
			http.Error(w, "order_id is required", http.StatusBadRequest)
			return
		}

		payment, err := ph.svc.CreatePayment(r.Context(), actor, req.OrderID, req.Method, req.Type)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
	}
}

type gatewayNotifyRequest struct {
	TradeNo       string  `json:"trade_no"`
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Timestamp     int64   `json:"timestamp"`
	Sign          string  `json:"sign"`
}

// GatewayNotify processes payment result webhook from the gateway.
// The body is plain "success" on acknowledge, the gateway retries otherwise.
func (ph *PaymentHandler) GatewayNotify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gatewayNotifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		err := ph.svc.HandleGatewayNotify(r.Context(), service.GatewayNotifyInput{
			TradeNo:       req.TradeNo,
			TransactionID: req.TransactionID,
			Status:        req.Status,
			Amount:        req.Amount,
			Timestamp:     req.Timestamp,
			Sign:          req.Sign,
		})
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidSignature), errors.Is(err, models.ErrInvalidTradeNo):
				http.Error(w, "fail", http.StatusBadRequest)
			case errors.Is(err, models.ErrDataNotFound):
				http.Error(w, "fail", http.StatusNotFound)
			default:
				http.Error(w, "fail", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	}
}

// ConfirmTestPayment settles payment without the gateway, available only
// when the test gateway mode is enabled
func (ph *PaymentHandler) ConfirmTestPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tradeNo := chi.URLParam(r, "tradeNo")
		if tradeNo == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if err := ph.svc.ConfirmTestPayment(r.Context(), actor, tradeNo); err != nil {
			writeError(w, err)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// QueryPayment returns payment state
// 200 — успешная обработка запроса;
// 401 — пользователь не аутентифицирован;
// 404 — платёж не найден.
func (ph *PaymentHandler) QueryPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := getActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tradeNo := chi.URLParam(r, "tradeNo")
		if tradeNo == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		payment, err := ph.svc.QueryPayment(r.Context(), actor, tradeNo)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPaymentResponse(payment))
	}
}
