package events

import (
	"context"
	"navigation-session-service/internal/ports"

	"go.uber.org/zap"
)

// LogPublisher records events in the log only. Used when no brokers are configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, evt ports.SessionEvent) error {
	p.logger.Info("session event",
		zap.String("type", evt.Type),
		zap.String("session_id", evt.SessionID),
		zap.Any("data", evt.Data),
	)
	return nil
}
