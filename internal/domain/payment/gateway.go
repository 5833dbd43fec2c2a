// internal/domain/payment/gateway.go
package payment

import (
	"context"
	"errors"
)

// ErrCaptureDeclined is returned when the provider refuses the charge
var ErrCaptureDeclined = errors.New("payment capture declined")

// CaptureRequest describes a charge to capture
type CaptureRequest struct {
	Amount   int64             `json:"amount"` // Amount in cents
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Capture is the provider's record of a captured charge
type Capture struct {
	Reference string `json:"reference"` // Provider payment reference
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}

// Gateway captures payments with an external provider. A context error
// means the charge never happened and no order may be created for it.
type Gateway interface {
	Capture(ctx context.Context, req *CaptureRequest) (*Capture, error)
}
