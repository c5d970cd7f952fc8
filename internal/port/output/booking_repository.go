package output

import (
	"context"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/google/uuid"
)

// BookingRepository is an output port for booking data access
type BookingRepository interface {
	Create(ctx context.Context, booking *core.Booking) error
	// GetByID returns core.ErrNotFound when the booking does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*core.Booking, error)
}
