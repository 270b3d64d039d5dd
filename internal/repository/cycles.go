// Package repository stores the history of settled stats fetch cycles.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blockedby/flight-stats/internal/publisher"
)

const (
	// DefaultCycleLimit is used when a listing asks for no particular size.
	DefaultCycleLimit = 20
	// MaxCycleLimit caps a single listing.
	MaxCycleLimit = 200
)

// CycleFilter narrows a history listing. Year 0 means any year.
type CycleFilter struct {
	Year  int
	Limit int
}

// CyclesRepository handles stats_cycles table operations
type CyclesRepository struct {
	pool *pgxpool.Pool
}

// NewCyclesRepository creates a new cycles repository
func NewCyclesRepository(pool *pgxpool.Pool) *CyclesRepository {
	return &CyclesRepository{pool: pool}
}

// Record stores one settled cycle. Recording the same cycle twice is a no-op.
func (r *CyclesRepository) Record(ctx context.Context, evt publisher.CycleSettledEvent) error {
	var status *int
	if evt.StatusCode != 0 {
		status = &evt.StatusCode
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO stats_cycles (cycle_id, year, outcome, status_code, months, duration_ms, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (cycle_id) DO NOTHING
	`, evt.CycleID, evt.Year, evt.Outcome, status, evt.Months, evt.DurationMS, evt.SettledAt)
	if err != nil {
		return fmt.Errorf("record cycle %s: %w", evt.CycleID, err)
	}
	return nil
}

// Recent returns the latest settled cycles, newest first.
func (r *CyclesRepository) Recent(ctx context.Context, f CycleFilter) ([]publisher.CycleSettledEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cycle_id, year, outcome, status_code, months, duration_ms, settled_at
		FROM stats_cycles
		WHERE $1 = 0 OR year = $1
		ORDER BY settled_at DESC
		LIMIT $2
	`, f.Year, ClampLimit(f.Limit))
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	cycles := make([]publisher.CycleSettledEvent, 0)
	for rows.Next() {
		var (
			c      publisher.CycleSettledEvent
			status *int
		)
		if err := rows.Scan(&c.CycleID, &c.Year, &c.Outcome, &status, &c.Months, &c.DurationMS, &c.SettledAt); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		if status != nil {
			c.StatusCode = *status
		}
		c.SettledAt = c.SettledAt.UTC()
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return cycles, nil
}

// ClampLimit maps a requested listing size into [1, MaxCycleLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultCycleLimit
	case limit > MaxCycleLimit:
		return MaxCycleLimit
	default:
		return limit
	}
}
