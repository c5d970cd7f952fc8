package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/alxtravel/travel-payments/internal/port/input"
	"github.com/alxtravel/travel-payments/internal/port/output"
	"github.com/google/uuid"
)

// BookingServiceImpl implements the BookingService input port
type BookingServiceImpl struct {
	bookingRepo output.BookingRepository
	notifier    *Notifier
}

// NewBookingService creates a new booking service
func NewBookingService(bookingRepo output.BookingRepository, notifier *Notifier) input.BookingService {
	return &BookingServiceImpl{
		bookingRepo: bookingRepo,
		notifier:    notifier,
	}
}

// CreateBooking creates a pending booking and queues its confirmation email
func (s *BookingServiceImpl) CreateBooking(ctx context.Context, req input.CreateBookingRequest) (*input.BookingResponse, error) {
	req.ListingID = strings.TrimSpace(req.ListingID)
	if req.ListingID == "" {
		return nil, core.NewValidationError("listing is required")
	}

	req.Email = strings.TrimSpace(req.Email)

	booking := &core.Booking{
		ID:        uuid.New(),
		ListingID: req.ListingID,
		Email:     req.Email,
		Status:    core.BookingStatusPending,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("%w: failed to create booking: %w", core.ErrInternal, err)
	}

	if s.notifier != nil {
		s.notifier.BookingCreated(ctx, booking)
	}

	return toBookingResponse(booking), nil
}

// GetBooking retrieves a booking by ID
func (s *BookingServiceImpl) GetBooking(ctx context.Context, id uuid.UUID) (*input.BookingResponse, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toBookingResponse(booking), nil
}

func toBookingResponse(b *core.Booking) *input.BookingResponse {
	return &input.BookingResponse{
		ID:        b.ID,
		ListingID: b.ListingID,
		Email:     b.Email,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
	}
}
