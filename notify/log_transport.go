package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogTransport writes messages to the log instead of sending them.
// Used when no mail provider is configured.
type LogTransport struct {
	logger zerolog.Logger
}

func NewLogTransport(logger zerolog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Send(_ context.Context, msg Message) error {
	t.logger.Info().
		Str("from", msg.From).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("email")
	return nil
}
