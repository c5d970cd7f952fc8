package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsTerminal reports whether the status can no longer change under normal operation
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// Currency represents supported currencies
type Currency string

const (
	CurrencyETB Currency = "ETB"
	CurrencyUSD Currency = "USD"
)

// Payment represents a payment domain entity
type Payment struct {
	ID                 uuid.UUID
	BookingID          uuid.UUID
	Amount             decimal.Decimal
	MerchantReference  string
	GatewayReference   *string
	Status             PaymentStatus
	RawProviderPayload []byte
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsPending checks if payment is in pending status
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}

// IsTerminal checks if payment is in a terminal state
func (p *Payment) IsTerminal() bool {
	return p.Status.IsTerminal()
}

// HasGatewayReference reports whether the provider reference has been bound.
func (p *Payment) HasGatewayReference() bool {
	return p.GatewayReference != nil && *p.GatewayReference != ""
}

// GatewayRef returns the bound provider reference or "".
func (p *Payment) GatewayRef() string {
	if p.GatewayReference == nil {
		return ""
	}
	return *p.GatewayReference
}

// ParseProviderStatus maps a status string reported by the payment provider
// onto the local status set.
func ParseProviderStatus(raw string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "successful", "completed", "paid":
		return PaymentStatusCompleted, nil
	case "failed", "failure", "cancelled", "canceled", "reversed":
		return PaymentStatusFailed, nil
	case "pending", "initiated", "created":
		return PaymentStatusPending, nil
	default:
		return "", NewValidationError("unknown provider status %q", raw)
	}
}
