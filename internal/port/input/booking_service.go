package input

import (
	"context"
	"time"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/google/uuid"
)

// BookingService is an input port for booking operations
type BookingService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingResponse, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*BookingResponse, error)
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	ListingID string
	Email     string
}

// BookingResponse represents the response for a booking
type BookingResponse struct {
	ID        uuid.UUID
	ListingID string
	Email     string
	Status    core.BookingStatus
	CreatedAt time.Time
}
