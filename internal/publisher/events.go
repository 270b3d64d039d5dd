package publisher

import (
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/flight-stats/internal/view"
)

// SubjectCycleSettled carries one event per applied fetch cycle.
const SubjectCycleSettled = "stats.cycle.settled"

// CycleSettledEvent describes the outcome of one fetch cycle.
type CycleSettledEvent struct {
	CycleID    uuid.UUID `json:"cycle_id"`
	Year       int       `json:"year"`
	Outcome    string    `json:"outcome"`
	StatusCode int       `json:"status_code,omitempty"`
	Months     int       `json:"months"`
	DurationMS int64     `json:"duration_ms"`
	SettledAt  time.Time `json:"settled_at"`
}

// NewCycleSettledEvent builds the event for a settled state.
func NewCycleSettledEvent(s view.State) CycleSettledEvent {
	evt := CycleSettledEvent{
		CycleID:    s.CycleID,
		Year:       s.Year,
		Outcome:    view.Outcome(s),
		DurationMS: s.Duration().Milliseconds(),
		SettledAt:  s.SettledAt.UTC(),
	}
	if s.Report != nil {
		evt.Months = len(s.Report.Months)
	}
	if s.Err != nil {
		evt.StatusCode = s.Err.StatusCode
	}
	return evt
}
