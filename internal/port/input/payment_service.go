package input

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentService is an input port (primary port) for payment operations
// Primary adapters (HTTP handlers) will use this
type PaymentService interface {
	// InitiatePayment opens a checkout session with the gateway and records a
	// pending payment once the gateway accepts it.
	InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*InitiatePaymentResponse, error)

	// VerifyPayment asks the gateway for the outcome of reference and
	// reconciles the matching local payment.
	VerifyPayment(ctx context.Context, reference string) (*ReconcileResponse, error)

	// HandleWebhook reconciles a provider callback.
	HandleWebhook(ctx context.Context, req WebhookRequest) (*ReconcileResponse, error)

	// GetPayment retrieves a payment by ID
	GetPayment(ctx context.Context, id uuid.UUID) (*PaymentResponse, error)
}

// InitiatePaymentRequest represents the request to start a payment
type InitiatePaymentRequest struct {
	BookingID uuid.UUID
	Amount    decimal.Decimal
	Email     string
}

// InitiatePaymentResponse carries the checkout URL and the created payment
type InitiatePaymentResponse struct {
	CheckoutURL string
	Payment     PaymentResponse
}

// WebhookRequest is a decoded provider callback. Raw is the undecoded body
// and Signature the provider's signature header.
type WebhookRequest struct {
	Reference   string
	TxReference string
	Status      string
	Raw         json.RawMessage
	Signature   string
}

// ReconcileResponse describes the payment after reconciliation. Conflict is
// set when a contradicting report was ignored.
type ReconcileResponse struct {
	Payment           PaymentResponse
	ReportedReference string
	ReportedTxRef     string
	ProviderStatus    string
	Conflict          bool
}

// PaymentResponse represents the response for a payment
type PaymentResponse struct {
	ID                uuid.UUID
	BookingID         uuid.UUID
	Amount            decimal.Decimal
	MerchantReference string
	GatewayReference  string
	Status            core.PaymentStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewPaymentResponse converts a core payment
func NewPaymentResponse(p *core.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		BookingID:         p.BookingID,
		Amount:            p.Amount,
		MerchantReference: p.MerchantReference,
		GatewayReference:  p.GatewayRef(),
		Status:            p.Status,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
