// Package view implements the stats view: the selected year, one cancellable
// fetch cycle at a time, and the loading/success/failure state it produces.
package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blockedby/flight-stats/internal/stats"
	"github.com/blockedby/flight-stats/internal/statsapi"
)

// ErrUnmounted is returned when a year is selected on an unmounted view.
var ErrUnmounted = errors.New("view is unmounted")

// Phase is the request state of a view.
type Phase string

// Phase constants.
const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailure Phase = "failure"
)

// State is a snapshot of a view.
// Report is set only in PhaseSuccess and Err only in PhaseFailure.
type State struct {
	Phase     Phase
	Year      int
	Token     uint64
	CycleID   uuid.UUID
	Report    *stats.Report
	Err       *statsapi.FetchError
	StartedAt time.Time
	SettledAt time.Time
}

// Settled reports whether the cycle has a final outcome.
func (s State) Settled() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseFailure
}

// Duration is the time the cycle took to settle, or 0 while pending.
func (s State) Duration() time.Duration {
	if !s.Settled() {
		return 0
	}
	return s.SettledAt.Sub(s.StartedAt)
}

// Fetcher loads the report for a year.
type Fetcher interface {
	FetchReport(ctx context.Context, year int) (*stats.Report, error)
}

// Listener receives every applied transition in order.
// It runs while the view serializes transitions, so it must not block
// or call back into the same view.
type Listener func(State)

// Option configures a View.
type Option func(*View)

// WithLogger sets the logger.
func WithLogger(log *zerolog.Logger) Option {
	return func(v *View) { v.log = log }
}

// WithInitialYear sets the year selected by Mount.
func WithInitialYear(year int) Option {
	return func(v *View) { v.initialYear = year }
}

// WithListener registers a listener.
func WithListener(l Listener) Option {
	return func(v *View) { v.listeners = append(v.listeners, l) }
}

// View is one mounted stats component.
// Every SelectYear starts a new cycle; only the latest cycle may change state.
type View struct {
	fetcher     Fetcher
	log         *zerolog.Logger
	initialYear int
	listeners   []Listener

	// emitMu orders transitions and their delivery to listeners
	emitMu sync.Mutex

	mu        sync.Mutex
	state     State
	seq       uint64
	cancelFn  context.CancelFunc
	settled   chan struct{} // closed when the current cycle settles or is dropped
	mounted   bool
	unmounted bool
}

// New creates an idle view.
func New(fetcher Fetcher, opts ...Option) *View {
	v := &View{
		fetcher:     fetcher,
		initialYear: stats.DefaultYear,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.log == nil {
		nop := zerolog.Nop()
		v.log = &nop
	}
	v.state = State{Phase: PhaseIdle, Year: v.initialYear}
	return v
}

// Mount selects the initial year, which starts the first fetch cycle.
func (v *View) Mount() (State, error) {
	v.mu.Lock()
	first := !v.mounted && !v.unmounted
	v.mounted = true
	v.mu.Unlock()
	if first {
		viewsMounted.Inc()
	}
	return v.SelectYear(v.initialYear)
}

// SelectYear records year, moves the view to loading, cancels the pending
// cycle if any and starts a new one. Selecting the current year again
// starts a new cycle as well.
func (v *View) SelectYear(year int) (State, error) {
	if err := stats.ValidateYear(year); err != nil {
		return State{}, err
	}

	v.emitMu.Lock()
	defer v.emitMu.Unlock()

	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		return State{}, ErrUnmounted
	}
	v.releaseCycleLocked()

	v.seq++
	ctx, cancel := context.WithCancel(context.Background())
	v.cancelFn = cancel
	v.settled = make(chan struct{})
	v.state = State{
		Phase:     PhaseLoading,
		Year:      year,
		Token:     v.seq,
		CycleID:   uuid.New(),
		StartedAt: time.Now(),
	}
	cycle := v.state
	v.mu.Unlock()

	v.log.Debug().
		Int("year", year).
		Uint64("token", cycle.Token).
		Str("cycle_id", cycle.CycleID.String()).
		Msg("stats fetch started")

	v.emit(cycle)
	go v.run(ctx, cycle)

	return cycle, nil
}

// Unmount cancels the pending cycle and discards its outcome.
// No listener is called after Unmount returns, and the view cannot be used
// afterwards. Safe to call more than once.
func (v *View) Unmount() {
	v.emitMu.Lock()
	defer v.emitMu.Unlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.unmounted {
		return
	}
	v.unmounted = true
	v.releaseCycleLocked()
	v.seq++
	v.state = State{Phase: PhaseIdle, Year: v.state.Year}

	if v.mounted {
		viewsMounted.Dec()
	}
}

// State returns the current snapshot.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Await blocks until the current cycle settles and returns the snapshot.
// It returns immediately for an idle or unmounted view, and with ctx's
// error if ctx ends first.
func (v *View) Await(ctx context.Context) (State, error) {
	for {
		v.mu.Lock()
		st, ch := v.state, v.settled
		v.mu.Unlock()

		if ch == nil {
			return st, nil
		}

		select {
		case <-ch:
			// settled, superseded or unmounted: look again
		case <-ctx.Done():
			return v.State(), ctx.Err()
		}
	}
}

// run executes one cycle and applies its outcome if it is still current.
func (v *View) run(ctx context.Context, cycle State) {
	report, err := v.fetcher.FetchReport(ctx, cycle.Year)

	v.emitMu.Lock()
	defer v.emitMu.Unlock()

	v.mu.Lock()
	if cycle.Token != v.seq || v.unmounted {
		v.mu.Unlock()
		fetchCycles.WithLabelValues(outcomeSuperseded).Inc()
		v.log.Debug().
			Int("year", cycle.Year).
			Uint64("token", cycle.Token).
			Msg("stats fetch superseded, outcome discarded")
		return
	}

	next := cycle
	next.SettledAt = time.Now()
	if err != nil {
		next.Phase = PhaseFailure
		next.Err = statsapi.AsFetchError(err)
	} else {
		next.Phase = PhaseSuccess
		next.Report = report
	}
	v.state = next
	v.releaseCycleLocked()
	v.mu.Unlock()

	observeSettled(next)
	v.logSettled(next)
	v.emit(next)
}

// releaseCycleLocked cancels the current cycle's context and wakes its waiters.
func (v *View) releaseCycleLocked() {
	if v.cancelFn != nil {
		v.cancelFn()
		v.cancelFn = nil
	}
	if v.settled != nil {
		close(v.settled)
		v.settled = nil
	}
}

func (v *View) emit(s State) {
	for _, l := range v.listeners {
		l(s)
	}
}

func (v *View) logSettled(s State) {
	if s.Phase == PhaseSuccess {
		months := 0
		if s.Report != nil {
			months = len(s.Report.Months)
		}
		v.log.Info().
			Int("year", s.Year).
			Int("months", months).
			Dur("duration", s.Duration()).
			Msg("stats fetch succeeded")
		return
	}

	v.log.Warn().
		Err(s.Err).
		Int("year", s.Year).
		Str("kind", string(s.Err.Kind)).
		Int("status", s.Err.StatusCode).
		Dur("duration", s.Duration()).
		Msg("stats fetch failed")
}
