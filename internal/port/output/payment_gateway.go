package output

import (
	"context"

	"github.com/shopspring/decimal"
)

// InitiateRequest is what the gateway needs to open a checkout session.
type InitiateRequest struct {
	Amount            decimal.Decimal
	Email             string
	MerchantReference string
	CallbackURL       string
}

// InitiateResult is the normalized initialize response.
type InitiateResult struct {
	CheckoutURL      string
	GatewayReference string
	ProviderStatus   string
}

// VerifyResult is the normalized verify response. ProbedReference is the
// reference variant the provider accepted.
type VerifyResult struct {
	ProbedReference   string
	MerchantReference string
	GatewayReference  string
	ProviderStatus    string
	Raw               []byte
}

// PaymentGateway is an output port for the third-party payment provider
type PaymentGateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
	// VerifyWebhookSignature returns core.ErrInvalidSignature when the
	// callback signature does not match the payload.
	VerifyWebhookSignature(payload []byte, signature string) error
}
