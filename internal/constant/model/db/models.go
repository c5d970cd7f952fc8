package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment represents a payment entity in the database
type Payment struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BookingID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"booking_id"`
	Amount             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	MerchantReference  string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"merchant_reference"`
	GatewayReference   *string         `gorm:"type:varchar(100);index" json:"gateway_reference"`
	Status             PaymentStatus   `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	RawProviderPayload datatypes.JSON  `json:"raw_provider_payload"`
	CreatedAt          time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate is a GORM hook that runs before creating a record
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	return nil
}

// Booking represents a booking row. Only what payments need is stored.
type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ListingID string    `gorm:"type:varchar(64);not null;index" json:"listing_id"`
	Email     string    `gorm:"type:varchar(254)" json:"email"`
	Status    string    `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Booking) TableName() string {
	return "bookings"
}

// BeforeCreate is a GORM hook that runs before creating a record
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	return nil
}

// AutoMigrate creates or updates the schema for all models
func AutoMigrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(&Booking{}, &Payment{})
}
