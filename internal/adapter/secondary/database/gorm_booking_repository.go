package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/alxtravel/travel-payments/internal/constant/model/db"
	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/alxtravel/travel-payments/internal/port/output"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBookingRepository implements the BookingRepository output port
type GormBookingRepository struct {
	gormDB *gorm.DB
}

// NewGormBookingRepository creates a new GORM booking repository
func NewGormBookingRepository(gormDB *gorm.DB) output.BookingRepository {
	return &GormBookingRepository{gormDB: gormDB}
}

// Create creates a new booking
func (r *GormBookingRepository) Create(ctx context.Context, booking *core.Booking) error {
	row := &db.Booking{
		ID:        booking.ID,
		ListingID: booking.ListingID,
		Email:     booking.Email,
		Status:    string(booking.Status),
		CreatedAt: booking.CreatedAt,
	}
	if err := r.gormDB.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.ID = row.ID
	booking.CreatedAt = row.CreatedAt
	return nil
}

// GetByID retrieves a booking by its ID
func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*core.Booking, error) {
	var row db.Booking
	if err := r.gormDB.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("booking %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &core.Booking{
		ID:        row.ID,
		ListingID: row.ListingID,
		Email:     row.Email,
		Status:    core.BookingStatus(row.Status),
		CreatedAt: row.CreatedAt,
	}, nil
}
