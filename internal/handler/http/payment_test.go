package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fixmart/fixmart/internal/handler/http/mocks"
	"github.com/fixmart/fixmart/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTradeNo(req *http.Request, tradeNo string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("tradeNo", tradeNo)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestPaymentHandler_CreatePayment(t *testing.T) {
	tests := []struct {
		name           string
		token          *models.TokenPayload
		body           string
		setup          func(t *testing.T) *mocks.MockPaymentService
		wantStatusCode int
	}{
		{
			// 201 — платёж создан;
			name: "valid_request_return_201",
			token: &models.TokenPayload{
				UserID: 1,
				Role:   models.RoleUser,
			},
			body: `{"order_id":5,"method":"alipay","type":"PREPAY"}`,
			setup: func(t *testing.T) *mocks.MockPaymentService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockPaymentService(ctrl)
				svcMock.EXPECT().CreatePayment(gomock.Any(), gomock.Any(), uint64(5), "alipay", "PREPAY").Return(&models.Payment{
					TradeNo: "12345678903",
					OrderID: 5,
					Amount:  10,
					Method:  "alipay",
					Type:    models.PaymentTypePrepay,
					Status:  models.PaymentStatusPending,
				}, nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			// 400 — неверный формат запроса;
			name: "missing_order_id_return_400",
			token: &models.TokenPayload{
				UserID: 1,
				Role:   models.RoleUser,
			},
			body: `{"method":"alipay","type":"PREPAY"}`,
			setup: func(t *testing.T) *mocks.MockPaymentService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockPaymentService(ctrl)
				svcMock.EXPECT().CreatePayment(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 401 — пользователь не аутентифицирован;
			name: "unauthorized_request_return_401",
			body: `{"order_id":5,"method":"alipay","type":"PREPAY"}`,
			setup: func(t *testing.T) *mocks.MockPaymentService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockPaymentService(ctrl)
				svcMock.EXPECT().CreatePayment(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			// 409 — по заказу уже есть ожидающий платёж;
			name: "pending_payment_exists_return_409",
			token: &models.TokenPayload{
				UserID: 1,
				Role:   models.RoleUser,
			},
			body: `{"order_id":5,"method":"alipay","type":"PREPAY"}`,
			setup: func(t *testing.T) *mocks.MockPaymentService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockPaymentService(ctrl)
				svcMock.EXPECT().CreatePayment(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrPendingPaymentExists).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			// 502 — платёжный шлюз недоступен.
			name: "gateway_down_return_502",
			token: &models.TokenPayload{
				UserID: 1,
				Role:   models.RoleUser,
			},
			body: `{"order_id":5,"method":"alipay","type":"PREPAY"}`,
			setup: func(t *testing.T) *mocks.MockPaymentService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockPaymentService(ctrl)
				svcMock.EXPECT().CreatePayment(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrGateway).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(tt.body))
			require.NoError(t, err)

			w := httptest.NewRecorder()
			st := tt.setup(t)
			ctx := context.WithValue(req.Context(), authPayloadKey, tt.token)

			h := NewPaymentHandler(st).CreatePayment()
			h(w, req.WithContext(ctx))

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
		})
	}
}

func TestPaymentHandler_GatewayNotify(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		err            error
		wantStatusCode int
		wantBody       string
	}{
		{
			// 200 — уведомление обработано.
			name:           "accepted_return_200",
			body:           `{"trade_no":"12345678903","transaction_id":"tx-1","status":"SUCCESS","amount":10,"timestamp":1748779200,"sign":"aa"}`,
			wantStatusCode: http.StatusOK,
			wantBody:       "success",
		},
		{
			// 400 — неверная подпись.
			name:           "bad_signature_return_400",
			body:           `{"trade_no":"12345678903","sign":"bad"}`,
			err:            models.ErrInvalidSignature,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 404 — платёж не найден.
			name:           "unknown_payment_return_404",
			body:           `{"trade_no":"12345678903","sign":"aa"}`,
			err:            models.ErrDataNotFound,
			wantStatusCode: http.StatusNotFound,
		},
		{
			// 500 — внутренняя ошибка, шлюз повторит доставку.
			name:           "internal_error_return_500",
			body:           `{"trade_no":"12345678903","sign":"aa"}`,
			err:            models.ErrInternalError,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svcMock := mocks.NewMockPaymentService(ctrl)
			svcMock.EXPECT().HandleGatewayNotify(gomock.Any(), gomock.Any()).Return(tt.err)

			req, err := http.NewRequest(http.MethodPost, "/api/payments/notify", strings.NewReader(tt.body))
			require.NoError(t, err)

			w := httptest.NewRecorder()
			h := NewPaymentHandler(svcMock).GatewayNotify()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestPaymentHandler_QueryPayment(t *testing.T) {
	tests := []struct {
		name           string
		token          *models.TokenPayload
		tradeNo        string
		setup          func(t *testing.T) *mocks.MockPaymentService
		wantStatusCode int
	}{
		{
			// 200 — успешная обработка запроса.
			name: "valid_request_return_200",
			token: &models.TokenPayload{
				UserID: 1,
				Role:   models.RoleUser,
			},
			tradeNo: "12345678903",
			setup: func(t *testing.T) *mocks.MockPaymentService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockPaymentService(ctrl)
				svcMock.EXPECT().QueryPayment(gomock.Any(), gomock.Any(), "12345678903").Return(&models.Payment{
					TradeNo: "12345678903",
					OrderID: 5,
					Status:  models.PaymentStatusSuccess,
				}, nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusOK,
		},
		{
			// 404 — платёж не найден.
			name: "not_found_return_404",
			token: &models.TokenPayload{
				UserID: 1,
				Role:   models.RoleUser,
			},
			tradeNo: "999",
			setup: func(t *testing.T) *mocks.MockPaymentService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockPaymentService(ctrl)
				svcMock.EXPECT().QueryPayment(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrDataNotFound).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			// 403 — платёж принадлежит другому пользователю.
			name: "foreign_payment_return_403",
			token: &models.TokenPayload{
				UserID: 9,
				Role:   models.RoleUser,
			},
			tradeNo: "12345678903",
			setup: func(t *testing.T) *mocks.MockPaymentService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockPaymentService(ctrl)
				svcMock.EXPECT().QueryPayment(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrNotOrderOwner).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "/api/payments/"+tt.tradeNo, nil)
			require.NoError(t, err)
			req = withTradeNo(req, tt.tradeNo)

			w := httptest.NewRecorder()
			st := tt.setup(t)
			ctx := context.WithValue(req.Context(), authPayloadKey, tt.token)

			h := NewPaymentHandler(st).QueryPayment()
			h(w, req.WithContext(ctx))

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
		})
	}
}

func TestPaymentHandler_ConfirmTestPayment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svcMock := mocks.NewMockPaymentService(ctrl)
	svcMock.EXPECT().ConfirmTestPayment(gomock.Any(), gomock.Any(), "12345678903").Return(nil)

	req, err := http.NewRequest(http.MethodPost, "/api/payments/12345678903/confirm-test", nil)
	require.NoError(t, err)
	req = withTradeNo(req, "12345678903")

	w := httptest.NewRecorder()
	ctx := context.WithValue(req.Context(), authPayloadKey, &models.TokenPayload{UserID: 1, Role: models.RoleUser})

	h := NewPaymentHandler(svcMock).ConfirmTestPayment()
	h(w, req.WithContext(ctx))

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
