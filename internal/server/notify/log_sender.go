package notify

import (
	"context"

	"github.com/dmitrijs2005/gophevents/internal/logging"
)

// LogSender writes messages to the log instead of delivering them.
// Meant for local development.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{logger: l.With("module", "mail")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "mail not delivered (log mode)", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
