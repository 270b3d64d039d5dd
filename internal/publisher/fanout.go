package publisher

import (
	"context"
	"errors"
)

// PublisherFunc adapts a function to EventPublisher.
type PublisherFunc func(ctx context.Context, event CycleSettledEvent) error

// PublishCycleSettled calls f.
func (f PublisherFunc) PublishCycleSettled(ctx context.Context, event CycleSettledEvent) error {
	return f(ctx, event)
}

// Fanout delivers every event to all of its publishers. A failing publisher
// does not stop delivery to the others.
type Fanout []EventPublisher

// PublishCycleSettled publishes to each sink and joins their errors.
func (f Fanout) PublishCycleSettled(ctx context.Context, event CycleSettledEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishCycleSettled(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
