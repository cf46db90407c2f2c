package events

import (
	"context"

	"venturelens/internal/store"
)

// Publisher fans applied store transitions out to external consumers.
type Publisher interface {
	PublishTransition(ctx context.Context, event store.Event) error
	Close() error
}

// StatsProvider is implemented by publishers that can report backlog
// depth for the metrics endpoint.
type StatsProvider interface {
	StreamDepth(ctx context.Context) (int64, error)
}

type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (p *NoopPublisher) PublishTransition(_ context.Context, _ store.Event) error {
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}
