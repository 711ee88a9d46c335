package audit

import (
	"context"
	"log/slog"
)

// LogStore writes events to a structured logger. Used when no database is
// configured so decisions still leave a trail.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	return &LogStore{logger: logger}
}

func (s *LogStore) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit",
		"event_id", event.ID.String(),
		"action", string(event.Action),
		"document_type", event.DocumentType,
		"decision", event.Decision,
		"reason", event.Reason,
		"request_id", event.RequestID,
		"timestamp", event.Timestamp,
	)
	return nil
}
