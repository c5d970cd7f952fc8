package output

import (
	"context"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/google/uuid"
)

// PaymentRepository is an output port (secondary port) for payment data access
// Secondary adapters (database implementations) will implement this
type PaymentRepository interface {
	// Create inserts a new payment. A merchant reference collision returns
	// core.ErrDuplicateReference.
	Create(ctx context.Context, payment *core.Payment) error

	// GetByID retrieves a payment by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*core.Payment, error)

	// FindByReferences returns the payment whose merchant or gateway reference
	// equals any of refs. Returns core.ErrPaymentNotFound when none matches.
	FindByReferences(ctx context.Context, refs ...string) (*core.Payment, error)

	// UpdateIfStatus persists status, gateway reference, raw payload and
	// updated_at only if the stored status still equals expected. It reports
	// whether the row was written.
	UpdateIfStatus(ctx context.Context, payment *core.Payment, expected core.PaymentStatus) (bool, error)
}
