package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fixmart/fixmart/internal/metrics"
	"github.com/fixmart/fixmart/internal/models"
	"github.com/google/uuid"
)

// charge status reported by the gateway
const (
	ChargeStatusPending = "PENDING"
	ChargeStatusSuccess = "SUCCESS"
	ChargeStatusFailed  = "FAILED"
)

// Client represents HTTP client for the payment provider
type Client struct {
	client  *http.Client
	baseURL string
	secret  string
}

// NewClient creates new Client instance
func NewClient(baseURL, secret string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: baseURL,
		secret:  secret,
	}
}

// ChargeRequest describes charge to create on the gateway
type ChargeRequest struct {
	TradeNo   string  `json:"trade_no"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Subject   string  `json:"subject"`
	ExpiresIn int64   `json:"expires_in"`
	Sign      string  `json:"sign"`
}

// ChargeResponse is gateway answer for created charge
type ChargeResponse struct {
	TransactionID string    `json:"transaction_id"`
	PrepayHandle  string    `json:"prepay_handle"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type chargeStateResponse struct {
	TradeNo       string `json:"trade_no"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

type refundRequest struct {
	TradeNo string  `json:"trade_no"`
	Amount  float64 `json:"amount"`
	Reason  string  `json:"reason"`
	Sign    string  `json:"sign"`
}

// CreateCharge creates charge on the gateway. Callers must never hold an
// order row lock across this call.
func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error) {
	req.Sign = Sign(map[string]string{
		"trade_no": req.TradeNo,
		"amount":   formatAmount(req.Amount),
		"method":   req.Method,
	}, c.secret)

	start := time.Now()
	resp, err := c.post(ctx, "charges", req)
	metrics.GatewayRequestDuration.WithLabelValues("create_charge").Observe(time.Since(start).Seconds())
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrGateway, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		chargeResp := ChargeResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&chargeResp); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrGateway, err)
		}
		return &chargeResp, nil
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		return nil, models.ErrGatewayRejected
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", models.ErrGateway, resp.StatusCode)
	}
}

// QueryCharge returns current charge status known by the gateway
func (c *Client) QueryCharge(ctx context.Context, tradeNo string) (string, error) {
	url, err := url.JoinPath(c.baseURL, "api", "charges", tradeNo)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues("query_charge").Observe(time.Since(start).Seconds())
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGateway, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		state := chargeStateResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
			return "", fmt.Errorf("%w: %v", models.ErrGateway, err)
		}
		return state.Status, nil
	case http.StatusNotFound:
		return "", models.ErrDataNotFound
	default:
		return "", fmt.Errorf("%w: unexpected status %d", models.ErrGateway, resp.StatusCode)
	}
}

// Refund asks the gateway to refund settled charge
func (c *Client) Refund(ctx context.Context, tradeNo string, amount float64, reason string) error {
	req := refundRequest{
		TradeNo: tradeNo,
		Amount:  amount,
		Reason:  reason,
		Sign: Sign(map[string]string{
			"trade_no": tradeNo,
			"amount":   formatAmount(amount),
		}, c.secret),
	}

	start := time.Now()
	resp, err := c.post(ctx, "refunds", req)
	metrics.GatewayRequestDuration.WithLabelValues("refund").Observe(time.Since(start).Seconds())
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrGateway, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError:
		return models.ErrGatewayRejected
	default:
		return fmt.Errorf("%w: unexpected status %d", models.ErrGateway, resp.StatusCode)
	}
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	url, err := url.JoinPath(c.baseURL, "api", path)
	if err != nil {
		return nil, err
	}

	buf := bytes.Buffer{}
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	// gateway deduplicates retried requests by this key
	req.Header.Set("Idempotency-Key", uuid.NewString())

	return c.client.Do(req)
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
