package publisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/blockedby/flight-stats/internal/view"
)

const (
	notifierBuffer = 256
	publishTimeout = 5 * time.Second
)

// EventPublisher publishes cycle events.
type EventPublisher interface {
	PublishCycleSettled(ctx context.Context, event CycleSettledEvent) error
}

// Notifier turns settled view states into events and publishes them off the
// view's goroutine. Events that do not fit the buffer are dropped.
type Notifier struct {
	pub    EventPublisher
	events chan CycleSettledEvent
	log    *zerolog.Logger
}

// NewNotifier creates a notifier. Call Run to start publishing.
func NewNotifier(pub EventPublisher, log *zerolog.Logger) *Notifier {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Notifier{
		pub:    pub,
		events: make(chan CycleSettledEvent, notifierBuffer),
		log:    log,
	}
}

// Listener returns a view listener that queues settled states.
func (n *Notifier) Listener() view.Listener {
	return func(s view.State) {
		if !s.Settled() {
			return
		}
		select {
		case n.events <- NewCycleSettledEvent(s):
		default:
			n.log.Warn().
				Str("cycle_id", s.CycleID.String()).
				Msg("event buffer full, cycle event dropped")
		}
	}
}

// Run publishes queued events until ctx ends, then flushes what is left
// with a short deadline.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-n.events:
			n.publish(ctx, evt)
		case <-ctx.Done():
			n.flush()
			return nil
		}
	}
}

func (n *Notifier) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	for {
		select {
		case evt := <-n.events:
			n.publish(ctx, evt)
		default:
			return
		}
	}
}

func (n *Notifier) publish(ctx context.Context, evt CycleSettledEvent) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := n.pub.PublishCycleSettled(ctx, evt); err != nil {
		n.log.Error().
			Err(err).
			Str("cycle_id", evt.CycleID.String()).
			Int("year", evt.Year).
			Msg("failed to publish cycle event")
		return
	}
	n.log.Debug().
		Str("cycle_id", evt.CycleID.String()).
		Str("outcome", evt.Outcome).
		Msg("cycle event published")
}
