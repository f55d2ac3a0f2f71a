package analytics

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes analytics calls to a logger. Used when no Segment write key
// is configured.
type LogSink struct {
	lg *zap.Logger
}

var _ Sink = (*LogSink)(nil)

// NewLogSink creates a LogSink.
func NewLogSink(lg *zap.Logger) *LogSink {
	return &LogSink{lg: lg}
}

func (s *LogSink) Identify(_ context.Context, userID string, traits Props) error {
	s.lg.Info("Analytics identify",
		zap.String("user_id", userID),
		zap.String("traits", traits.String()),
	)
	return nil
}

func (s *LogSink) Track(_ context.Context, userID, event string, props Props) error {
	s.lg.Info("Analytics track",
		zap.String("user_id", userID),
		zap.String("event", event),
		zap.String("properties", props.String()),
	)
	return nil
}
