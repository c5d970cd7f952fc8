package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alxtravel/travel-payments/internal/adapter/secondary/database"
	"github.com/alxtravel/travel-payments/internal/constant/model/db"
	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(gormDB))
	return gormDB
}

func newPayment(bookingID uuid.UUID, merchantRef string, gatewayRef *string) *core.Payment {
	return &core.Payment{
		ID:                uuid.New(),
		BookingID:         bookingID,
		Amount:            decimal.RequireFromString("500.00"),
		MerchantReference: merchantRef,
		GatewayReference:  gatewayRef,
		Status:            core.PaymentStatusPending,
	}
}

func strPtr(s string) *string { return &s }

func TestPaymentRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := database.NewGormPaymentRepository(setupTestDB(t))

	payment := newPayment(uuid.New(), "CHAP-0A1B2C3D4E5F", strPtr("AP99"))
	require.NoError(t, repo.Create(ctx, payment))
	assert.False(t, payment.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.MerchantReference, got.MerchantReference)
	assert.Equal(t, "AP99", got.GatewayRef())
	assert.Equal(t, core.PaymentStatusPending, got.Status)
	assert.True(t, payment.Amount.Equal(got.Amount), "amount %s != %s", payment.Amount, got.Amount)
	assert.Nil(t, got.RawProviderPayload)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPaymentRepository_DuplicateMerchantReference(t *testing.T) {
	ctx := context.Background()
	repo := database.NewGormPaymentRepository(setupTestDB(t))

	require.NoError(t, repo.Create(ctx, newPayment(uuid.New(), "CHAP-DUPLICATE0001", nil)))
	err := repo.Create(ctx, newPayment(uuid.New(), "CHAP-DUPLICATE0001", nil))
	assert.ErrorIs(t, err, core.ErrDuplicateReference)
}

func TestPaymentRepository_FindByEitherReference(t *testing.T) {
	ctx := context.Background()
	repo := database.NewGormPaymentRepository(setupTestDB(t))

	payment := newPayment(uuid.New(), "CHAP-AAAABBBBCCCC", strPtr("APXYZ123"))
	require.NoError(t, repo.Create(ctx, payment))
	require.NoError(t, repo.Create(ctx, newPayment(uuid.New(), "CHAP-OTHER0000000", strPtr("APOTHER"))))

	tests := []struct {
		name string
		refs []string
	}{
		{name: "merchant reference", refs: []string{"CHAP-AAAABBBBCCCC"}},
		{name: "gateway reference", refs: []string{"APXYZ123"}},
		{name: "re-prefixed probe plus gateway", refs: []string{"CHAP-APXYZ123", "APXYZ123"}},
		{name: "unknown plus merchant", refs: []string{"nope", "CHAP-AAAABBBBCCCC"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindByReferences(ctx, tt.refs...)
			require.NoError(t, err)
			assert.Equal(t, payment.ID, got.ID)
		})
	}

	_, err := repo.FindByReferences(ctx, "does-not-exist")
	assert.ErrorIs(t, err, core.ErrPaymentNotFound)

	_, err = repo.FindByReferences(ctx)
	assert.ErrorIs(t, err, core.ErrPaymentNotFound)
}

func TestPaymentRepository_UpdateIfStatus(t *testing.T) {
	ctx := context.Background()
	repo := database.NewGormPaymentRepository(setupTestDB(t))

	payment := newPayment(uuid.New(), "CHAP-CAS000000001", nil)
	require.NoError(t, repo.Create(ctx, payment))

	updated := *payment
	updated.Status = core.PaymentStatusCompleted
	updated.GatewayReference = strPtr("AP-BOUND")
	updated.RawProviderPayload = []byte(`{"status":"success"}`)
	updated.UpdatedAt = time.Now().Add(time.Minute)

	written, err := repo.UpdateIfStatus(ctx, &updated, core.PaymentStatusPending)
	require.NoError(t, err)
	assert.True(t, written)

	// A second writer that read the old status loses.
	stale := *payment
	stale.Status = core.PaymentStatusFailed
	written, err = repo.UpdateIfStatus(ctx, &stale, core.PaymentStatusPending)
	require.NoError(t, err)
	assert.False(t, written)

	got, err := repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentStatusCompleted, got.Status)
	assert.Equal(t, "AP-BOUND", got.GatewayRef())
	assert.JSONEq(t, `{"status":"success"}`, string(got.RawProviderPayload))
}

func TestBookingRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := database.NewGormBookingRepository(setupTestDB(t))

	booking := &core.Booking{ListingID: "listing-1", Email: "a@b.com", Status: core.BookingStatusPending}
	require.NoError(t, repo.Create(ctx, booking))
	require.NotEqual(t, uuid.Nil, booking.ID)

	got, err := repo.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got.Email)
	assert.Equal(t, core.BookingStatusPending, got.Status)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, core.ErrNotFound)
}
