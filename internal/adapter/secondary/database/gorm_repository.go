package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/alxtravel/travel-payments/internal/constant/model/db"
	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/alxtravel/travel-payments/internal/port/output"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormPaymentRepository is a secondary adapter that implements PaymentRepository output port
type GormPaymentRepository struct {
	gormDB *gorm.DB
}

// NewGormPaymentRepository creates a new GORM payment repository
func NewGormPaymentRepository(gormDB *gorm.DB) output.PaymentRepository {
	return &GormPaymentRepository{gormDB: gormDB}
}

// toCore converts db.Payment to core.Payment
func toCore(p *db.Payment) *core.Payment {
	payment := &core.Payment{
		ID:                p.ID,
		BookingID:         p.BookingID,
		Amount:            p.Amount,
		MerchantReference: p.MerchantReference,
		Status:            core.PaymentStatus(p.Status),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if p.GatewayReference != nil {
		ref := *p.GatewayReference
		payment.GatewayReference = &ref
	}
	if len(p.RawProviderPayload) > 0 {
		payment.RawProviderPayload = []byte(p.RawProviderPayload)
	}
	return payment
}

// fromCore converts core.Payment to db.Payment
func fromCore(p *core.Payment) *db.Payment {
	return &db.Payment{
		ID:                 p.ID,
		BookingID:          p.BookingID,
		Amount:             p.Amount,
		MerchantReference:  p.MerchantReference,
		GatewayReference:   p.GatewayReference,
		Status:             db.PaymentStatus(p.Status),
		RawProviderPayload: datatypes.JSON(p.RawProviderPayload),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// Create creates a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *core.Payment) error {
	dbPayment := fromCore(payment)
	if err := r.gormDB.WithContext(ctx).Create(dbPayment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", core.ErrDuplicateReference, payment.MerchantReference)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	// Update core entity with values set by GORM hooks
	payment.ID = dbPayment.ID
	payment.CreatedAt = dbPayment.CreatedAt
	payment.UpdatedAt = dbPayment.UpdatedAt
	return nil
}

// GetByID retrieves a payment by its ID
func (r *GormPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*core.Payment, error) {
	var dbPayment db.Payment
	if err := r.gormDB.WithContext(ctx).Where("id = ?", id).First(&dbPayment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return toCore(&dbPayment), nil
}

// FindByReferences matches refs against both the merchant and the gateway
// reference columns.
func (r *GormPaymentRepository) FindByReferences(ctx context.Context, refs ...string) (*core.Payment, error) {
	if len(refs) == 0 {
		return nil, core.ErrPaymentNotFound
	}

	var dbPayment db.Payment
	err := r.gormDB.WithContext(ctx).
		Where("merchant_reference IN ? OR gateway_reference IN ?", refs, refs).
		Order("created_at ASC").
		First(&dbPayment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to find payment by reference: %w", err)
	}
	return toCore(&dbPayment), nil
}

// UpdateIfStatus writes the mutable payment fields only while the stored
// status still equals expected. Concurrent reconcilers that read the same
// status race on this single statement and exactly one of them wins.
func (r *GormPaymentRepository) UpdateIfStatus(ctx context.Context, payment *core.Payment, expected core.PaymentStatus) (bool, error) {
	updates := map[string]any{
		"status":            db.PaymentStatus(payment.Status),
		"gateway_reference": payment.GatewayReference,
		"updated_at":        payment.UpdatedAt,
	}
	if len(payment.RawProviderPayload) > 0 {
		updates["raw_provider_payload"] = datatypes.JSON(payment.RawProviderPayload)
	}

	result := r.gormDB.WithContext(ctx).
		Model(&db.Payment{}).
		Where("id = ? AND status = ?", payment.ID, db.PaymentStatus(expected)).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update payment: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
