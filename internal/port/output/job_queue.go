package output

import "context"

// Job names understood by the worker.
const (
	JobSendPaymentStatusEmail       = "send_payment_status_email"
	JobSendBookingConfirmationEmail = "send_booking_confirmation_email"
)

// JobQueue is an output port for background job submission. Delivery is
// at-least-once; handlers must be idempotent.
type JobQueue interface {
	// Enqueue submits a job with JSON-encodable args
	Enqueue(ctx context.Context, name string, args any) error
	// Close closes the messaging connection
	Close() error
}
