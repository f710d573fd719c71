package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fixmart/fixmart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateCharge(t *testing.T) {
	expiresAt := time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/charges", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("Idempotency-Key"))

		var req ChargeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// the charge must arrive signed
		wantSign := Sign(map[string]string{
			"trade_no": req.TradeNo,
			"amount":   "10.00",
			"method":   req.Method,
		}, "secret")
		require.Equal(t, wantSign, req.Sign)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(ChargeResponse{
			TransactionID: "tx-1",
			PrepayHandle:  "handle-1",
			ExpiresAt:     expiresAt,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")

	resp, err := client.CreateCharge(context.Background(), ChargeRequest{
		TradeNo:   "12345678903",
		Amount:    10,
		Method:    "alipay",
		Subject:   "prepayment",
		ExpiresIn: 1800,
	})
	require.NoError(t, err)

	assert.Equal(t, "tx-1", resp.TransactionID)
	assert.Equal(t, "handle-1", resp.PrepayHandle)
	assert.True(t, resp.ExpiresAt.Equal(expiresAt))
}

func TestClient_CreateChargeErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{
			name:       "rejected_request",
			statusCode: http.StatusBadRequest,
			wantErr:    models.ErrGatewayRejected,
		},
		{
			name:       "gateway_down",
			statusCode: http.StatusInternalServerError,
			wantErr:    models.ErrGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "secret")
			_, err := client.CreateCharge(context.Background(), ChargeRequest{TradeNo: "1", Amount: 10, Method: "alipay"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_CreateChargeUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "secret")
	_, err := client.CreateCharge(context.Background(), ChargeRequest{TradeNo: "1", Amount: 10, Method: "alipay"})
	assert.ErrorIs(t, err, models.ErrGateway)
}

func TestClient_QueryCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/charges/12345678903":
			json.NewEncoder(w).Encode(chargeStateResponse{
				TradeNo:       "12345678903",
				TransactionID: "tx-1",
				Status:        ChargeStatusSuccess,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")

	status, err := client.QueryCharge(context.Background(), "12345678903")
	require.NoError(t, err)
	assert.Equal(t, ChargeStatusSuccess, status)

	_, err = client.QueryCharge(context.Background(), "999")
	assert.ErrorIs(t, err, models.ErrDataNotFound)
}

func TestClient_Refund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/refunds", r.URL.Path)

		var req refundRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.TradeNo == "rejected" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")

	assert.NoError(t, client.Refund(context.Background(), "12345678903", 10, "order cancelled"))
	assert.ErrorIs(t, client.Refund(context.Background(), "rejected", 10, "order cancelled"), models.ErrGatewayRejected)
}
