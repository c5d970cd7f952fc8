package http

import (
	"net/http"
	"time"

	"github.com/alxtravel/travel-payments/internal/port/input"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// BookingHandler is a primary adapter for bookings
type BookingHandler struct {
	bookingService input.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService input.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBookingRequest represents the HTTP request to create a booking
type CreateBookingRequest struct {
	ListingID string `json:"listing" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// BookingResponse represents the HTTP response for a booking
type BookingResponse struct {
	ID        string `json:"booking_id"`
	ListingID string `json:"listing"`
	Email     string `json:"email,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func toBookingResponse(b *input.BookingResponse) BookingResponse {
	return BookingResponse{
		ID:        b.ID.String(),
		ListingID: b.ListingID,
		Email:     b.Email,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	booking, err := h.bookingService.CreateBooking(c.Request().Context(), input.CreateBookingRequest{
		ListingID: req.ListingID,
		Email:     req.Email,
	})
	if err != nil {
		return respondError(c, err)
	}

	message := "Booking created successfully. A confirmation email will be sent shortly."
	if booking.Email == "" {
		message = "Booking created successfully."
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"message": message,
		"data":    toBookingResponse(booking),
	})
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid booking ID"})
	}

	booking, err := h.bookingService.GetBooking(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(booking))
}
