package output

import "context"

// Mailer delivers outbound email
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
