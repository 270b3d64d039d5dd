package view

import (
	"context"
	"fmt"
)

// Factory creates views that share a fetcher and a set of options.
type Factory struct {
	fetcher Fetcher
	opts    []Option
}

// NewFactory returns a factory for views backed by fetcher.
func NewFactory(fetcher Fetcher, opts ...Option) *Factory {
	return &Factory{fetcher: fetcher, opts: opts}
}

// New creates an idle view for year. extra options apply after the shared ones.
func (f *Factory) New(year int, extra ...Option) *View {
	opts := make([]Option, 0, len(f.opts)+len(extra)+1)
	opts = append(opts, f.opts...)
	opts = append(opts, WithInitialYear(year))
	opts = append(opts, extra...)
	return New(f.fetcher, opts...)
}

// Load mounts a short-lived view for year, waits for its cycle to settle and
// unmounts it. If ctx ends first the pending fetch is canceled and ctx's
// error is returned.
func (f *Factory) Load(ctx context.Context, year int) (State, error) {
	v := f.New(year)
	defer v.Unmount()

	if _, err := v.Mount(); err != nil {
		return State{}, err
	}

	st, err := v.Await(ctx)
	if err != nil {
		return st, fmt.Errorf("await stats for %d: %w", year, err)
	}
	return st, nil
}
