package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alxtravel/travel-payments/internal/port/output"
	"go.uber.org/zap"
)

// ErrUnknownJob is returned for job names the worker does not handle.
// Such jobs are permanent failures and should not be redelivered.
var ErrUnknownJob = errors.New("unknown job")

// ErrMalformedJob is returned when job args cannot be decoded.
var ErrMalformedJob = errors.New("malformed job args")

// JobHandler executes background jobs consumed by the worker
type JobHandler struct {
	mailer output.Mailer
	log    *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(mailer output.Mailer, log *zap.Logger) *JobHandler {
	return &JobHandler{mailer: mailer, log: log.Named("jobs")}
}

// Handle runs the job identified by name.
func (h *JobHandler) Handle(ctx context.Context, name string, args json.RawMessage) error {
	switch name {
	case output.JobSendPaymentStatusEmail:
		var job PaymentStatusEmail
		if err := json.Unmarshal(args, &job); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedJob, err)
		}
		return h.sendPaymentStatusEmail(ctx, job)
	case output.JobSendBookingConfirmationEmail:
		var job BookingConfirmationEmail
		if err := json.Unmarshal(args, &job); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedJob, err)
		}
		return h.sendBookingConfirmationEmail(ctx, job)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
}

// IsPermanent reports whether a job error should not be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrUnknownJob) || errors.Is(err, ErrMalformedJob)
}

func (h *JobHandler) sendPaymentStatusEmail(ctx context.Context, job PaymentStatusEmail) error {
	subject := "Payment " + job.Status
	body := fmt.Sprintf("Your payment of %s (reference %s) is %s.", job.Amount, job.MerchantReference, job.Status)
	if err := h.mailer.Send(ctx, job.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send payment status email: %w", err)
	}
	h.log.Info("payment status email sent",
		zap.String("to", job.Email),
		zap.String("merchant_reference", job.MerchantReference))
	return nil
}

func (h *JobHandler) sendBookingConfirmationEmail(ctx context.Context, job BookingConfirmationEmail) error {
	body := fmt.Sprintf("Your booking (ID: %s) has been confirmed. Thank you for choosing us!", job.BookingID)
	if err := h.mailer.Send(ctx, job.Email, "Booking Confirmation", body); err != nil {
		return fmt.Errorf("failed to send booking confirmation email: %w", err)
	}
	h.log.Info("booking confirmation email sent", zap.String("to", job.Email), zap.String("booking_id", job.BookingID))
	return nil
}
