package publisher

import (
	"context"
	"fmt"
)

// NATSClient interface to allow mocking
type NATSClient interface {
	Publish(ctx context.Context, subject string, data any) error
}

// NATSPublisher publishes stats events to NATS JetStream.
type NATSPublisher struct {
	js NATSClient
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(client NATSClient) *NATSPublisher {
	return &NATSPublisher{js: client}
}

// PublishCycleSettled publishes a settled cycle event
func (p *NATSPublisher) PublishCycleSettled(ctx context.Context, event CycleSettledEvent) error {
	if err := p.js.Publish(ctx, SubjectCycleSettled, event); err != nil {
		return fmt.Errorf("publish cycle settled: %w", err)
	}
	return nil
}
