package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes outbound email to the log instead of delivering it. It
// stands in for the external email provider.
type LogMailer struct {
	from string
	log  *zap.Logger
}

// NewLogMailer creates a new log mailer
func NewLogMailer(from string, log *zap.Logger) *LogMailer {
	return &LogMailer{from: from, log: log.Named("mailer")}
}

// Send logs the message
func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.log.Info("email",
		zap.String("from", m.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
