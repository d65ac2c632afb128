package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink writes events to the structured log. Used when no gateway URL is
// configured, and in tests.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Emit(ctx context.Context, e Event) error {
	s.Logger.Info().
		Str("kind", string(e.Kind)).
		Str("ticket_id", e.TicketID).
		Str("task_id", e.TaskID).
		Str("recipient", e.Recipient).
		Str("status", e.Status).
		Msg("notification")
	return nil
}
