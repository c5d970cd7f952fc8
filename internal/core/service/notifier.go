package service

import (
	"context"
	"errors"
	"time"

	"github.com/alxtravel/travel-payments/internal/core"
	"github.com/alxtravel/travel-payments/internal/port/output"
	"go.uber.org/zap"
)

const enqueueTimeout = 5 * time.Second

// PaymentStatusEmail is the payload of a payment status email job
type PaymentStatusEmail struct {
	Email             string `json:"email"`
	Status            string `json:"status"`
	Amount            string `json:"amount"`
	MerchantReference string `json:"merchant_reference"`
}

// BookingConfirmationEmail is the payload of a booking confirmation email job
type BookingConfirmationEmail struct {
	Email     string `json:"email"`
	BookingID string `json:"booking_id"`
}

// Notifier hands notification jobs to the background queue. Failures are
// logged and never returned: the state change that triggered the
// notification has already been committed.
type Notifier struct {
	bookingRepo output.BookingRepository
	queue       output.JobQueue
	metrics     output.PaymentMetrics
	log         *zap.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(bookingRepo output.BookingRepository, queue output.JobQueue, metrics output.PaymentMetrics, log *zap.Logger) *Notifier {
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &Notifier{
		bookingRepo: bookingRepo,
		queue:       queue,
		metrics:     metrics,
		log:         log.Named("notifier"),
	}
}

// PaymentStatusChanged enqueues a status email to the booking contact.
func (n *Notifier) PaymentStatusChanged(ctx context.Context, payment *core.Payment) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()

	booking, err := n.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			n.metrics.ObserveNotification("error")
			n.log.Error("failed to load booking for payment notification",
				zap.String("merchant_reference", payment.MerchantReference), zap.Error(err))
			return
		}
		booking = nil
	}
	if booking == nil || booking.Email == "" {
		n.metrics.ObserveNotification("skipped")
		n.log.Warn("no email found for payment", zap.String("merchant_reference", payment.MerchantReference))
		return
	}

	n.enqueue(ctx, output.JobSendPaymentStatusEmail, PaymentStatusEmail{
		Email:             booking.Email,
		Status:            string(payment.Status),
		Amount:            payment.Amount.StringFixed(2),
		MerchantReference: payment.MerchantReference,
	}, zap.String("merchant_reference", payment.MerchantReference))
}

// BookingCreated enqueues a booking confirmation email when the booking has a contact.
func (n *Notifier) BookingCreated(ctx context.Context, booking *core.Booking) {
	if booking.Email == "" {
		n.metrics.ObserveNotification("skipped")
		n.log.Warn("no email provided for booking, confirmation will not be sent",
			zap.String("booking_id", booking.ID.String()))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()

	n.enqueue(ctx, output.JobSendBookingConfirmationEmail, BookingConfirmationEmail{
		Email:     booking.Email,
		BookingID: booking.ID.String(),
	}, zap.String("booking_id", booking.ID.String()))
}

func (n *Notifier) enqueue(ctx context.Context, job string, args any, fields ...zap.Field) {
	fields = append(fields, zap.String("job", job))
	if err := n.queue.Enqueue(ctx, job, args); err != nil {
		n.metrics.ObserveNotification("error")
		n.log.Error("failed to enqueue notification", append(fields, zap.Error(err))...)
		return
	}
	n.metrics.ObserveNotification("enqueued")
	n.log.Info("notification enqueued", fields...)
}
