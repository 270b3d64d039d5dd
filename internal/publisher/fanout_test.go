package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanout_DeliversToAll(t *testing.T) {
	natsClient := &MockNATSClient{}
	var recorded []CycleSettledEvent
	sink := PublisherFunc(func(_ context.Context, evt CycleSettledEvent) error {
		recorded = append(recorded, evt)
		return nil
	})

	evt := CycleSettledEvent{CycleID: uuid.New(), Year: 2024, Outcome: "success"}
	require.NoError(t, Fanout{NewNATSPublisher(natsClient), sink}.PublishCycleSettled(context.Background(), evt))

	assert.Equal(t, SubjectCycleSettled, natsClient.PublishedSubject)
	assert.Len(t, natsClient.published(), 1)
	assert.Equal(t, []CycleSettledEvent{evt}, recorded)
}

func TestFanout_FailureDoesNotStopOthers(t *testing.T) {
	boom := errors.New("db down")
	calls := 0
	failing := PublisherFunc(func(context.Context, CycleSettledEvent) error { return boom })
	counting := PublisherFunc(func(context.Context, CycleSettledEvent) error {
		calls++
		return nil
	})

	err := Fanout{failing, counting}.PublishCycleSettled(context.Background(), CycleSettledEvent{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	assert.NoError(t, Fanout{}.PublishCycleSettled(context.Background(), CycleSettledEvent{}))
}
