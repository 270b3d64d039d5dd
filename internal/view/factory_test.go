package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/flight-stats/internal/stats"
)

func TestFactory_Load(t *testing.T) {
	rec := &recorder{}
	f := NewFactory(funcFetcher(func(_ context.Context, year int) (*stats.Report, error) {
		return reportFor(year), nil
	}), WithListener(rec.listen))

	st, err := f.Load(context.Background(), 2023)
	require.NoError(t, err)

	assert.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, 2023, st.Year)
	assert.Equal(t, reportFor(2023), st.Report)
	assert.Equal(t, []Phase{PhaseLoading, PhaseSuccess}, rec.phases())
}

func TestFactory_LoadInvalidYear(t *testing.T) {
	f := NewFactory(newGatedFetcher())

	_, err := f.Load(context.Background(), 1999)
	assert.True(t, errors.Is(err, stats.ErrInvalidYear))
}

func TestFactory_LoadCanceledByCaller(t *testing.T) {
	canceled := make(chan struct{})
	f := NewFactory(funcFetcher(func(ctx context.Context, _ int) (*stats.Report, error) {
		<-ctx.Done()
		close(canceled)
		return nil, ctx.Err()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Load(ctx, 2025)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("fetch was not canceled after the caller gave up")
	}
}

func TestFactory_NewAppliesExtraOptions(t *testing.T) {
	rec := &recorder{}
	f := NewFactory(newGatedFetcher())

	v := f.New(2024, WithListener(rec.listen))
	assert.Equal(t, 2024, v.State().Year)
	assert.Equal(t, PhaseIdle, v.State().Phase)
	v.Unmount()
}
