package core

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCanceled  BookingStatus = "canceled"
)

// Booking is the reservation a payment pays for. Only the fields the payment
// flow needs are modeled.
type Booking struct {
	ID        uuid.UUID
	ListingID string
	Email     string
	Status    BookingStatus
	CreatedAt time.Time
}
