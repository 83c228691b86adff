// Package events provides the EventPublisher adapter. This domain has no
// external event consumer yet, so the adapter fans events straight to the
// structured logger rather than standing up an unread outbox table.
package events

import (
	"context"

	"go.uber.org/zap"

	"osintgraph/application/ports"
)

// LoggingPublisher implements ports.EventPublisher by emitting each event as
// a structured log line — a minimal stand-in until a real subscriber
// (search indexer, webhook fanout) exists to justify an outbox.
type LoggingPublisher struct {
	logger *zap.Logger
}

func NewLoggingPublisher(logger *zap.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event interface{ EventType() string }) error {
	p.logger.Info("domain event", zap.String("event_type", event.EventType()))
	return nil
}
