// internal/domain/payment/razorpay.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/your-org/storefront-backend/internal/config"
)

// RazorpayGateway captures payments through the Razorpay REST API
type RazorpayGateway struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

// NewRazorpayGateway creates a new Razorpay gateway from configuration
func NewRazorpayGateway(cfg *config.Config) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:     cfg.External.Razorpay.KeyID,
		keySecret: cfg.External.Razorpay.KeySecret,
		baseURL:   cfg.External.Razorpay.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.External.Razorpay.Timeout,
		},
	}
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type razorpayCreateOrder struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt"`
	PaymentCapture int               `json:"payment_capture"`
	Notes          map[string]string `json:"notes,omitempty"`
}

// Capture charges the given amount. It honors ctx cancellation; a ctx
// error is returned before any charge is recorded on our side.
func (g *RazorpayGateway) Capture(ctx context.Context, req *CaptureRequest) (*Capture, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("capture amount must be positive")
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	body := razorpayCreateOrder{
		Amount:         req.Amount,
		Currency:       currency,
		Receipt:        req.Receipt,
		PaymentCapture: 1,
		Notes:          req.Notes,
	}

	respBody, err := g.makeAPICall(ctx, http.MethodPost, "/orders", body)
	if err != nil {
		return nil, err
	}

	var order razorpayOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("failed to parse Razorpay response: %w", err)
	}
	if order.ID == "" {
		return nil, ErrCaptureDeclined
	}

	return &Capture{
		Reference: order.ID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Status:    order.Status,
	}, nil
}

// makeAPICall makes HTTP calls to the Razorpay API
func (g *RazorpayGateway) makeAPICall(ctx context.Context, method, endpoint string, data interface{}) ([]byte, error) {
	if g.keyID == "" || g.keySecret == "" {
		return nil, fmt.Errorf("razorpay API credentials not configured")
	}

	var reqBody []byte
	if data != nil {
		var err error
		reqBody, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request data: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API call: %w", err)
	}
	defer resp.Body.Close()

	var respBody bytes.Buffer
	if _, err := respBody.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusPaymentRequired {
			return nil, fmt.Errorf("%w: status %d: %s", ErrCaptureDeclined, resp.StatusCode, respBody.String())
		}
		return nil, fmt.Errorf("API call failed with status %d: %s", resp.StatusCode, respBody.String())
	}

	return respBody.Bytes(), nil
}
