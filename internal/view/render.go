package view

import (
	"fmt"

	"github.com/blockedby/flight-stats/internal/stats"
)

// UI text.
const (
	LoadingMessage = "Loading data..."
	EmptyMessage   = "No data"
	ErrorTitle     = "API connection error"
)

// Model is everything a renderer needs to draw a view. Exactly one of
// Loading, Error, Empty and Rows is set.
type Model struct {
	Title   string         `json:"title"`
	Year    int            `json:"year"`
	Years   []YearOption   `json:"years"`
	Phase   Phase          `json:"phase"`
	Loading bool           `json:"loading"`
	Error   *ErrorModel    `json:"error,omitempty"`
	Empty   bool           `json:"empty"`
	Rows    []Row          `json:"rows,omitempty"`
	Summary *stats.Summary `json:"summary,omitempty"`
}

// YearOption is one entry of the year selector.
type YearOption struct {
	Value    int  `json:"value"`
	Selected bool `json:"selected"`
}

// ErrorModel is a classified failure as shown to the user.
type ErrorModel struct {
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

// Row is one month of the table with missing values already defaulted.
type Row struct {
	Month         int    `json:"month"`
	Label         string `json:"label"`
	TotalFlights  int    `json:"totalFlights"`
	PaidCount     int    `json:"paidCount"`
	CanceledCount int    `json:"canceledCount"`
	PaidTotal     string `json:"paidTotal"`
	CanceledTotal string `json:"canceledTotal"`

	// highlight flags mark non-zero cells
	FlightsHighlight  bool `json:"flightsHighlight"`
	PaidHighlight     bool `json:"paidHighlight"`
	CanceledHighlight bool `json:"canceledHighlight"`
}

// Render builds the model for s. It has no side effects.
func Render(s State) Model {
	m := Model{
		Title: fmt.Sprintf("Revenue statistics %d", s.Year),
		Year:  s.Year,
		Years: yearOptions(s.Year),
		Phase: s.Phase,
	}

	switch s.Phase {
	case PhaseLoading:
		m.Loading = true
	case PhaseFailure:
		m.Error = errorModel(s)
	case PhaseSuccess:
		if s.Report.IsEmpty() {
			m.Empty = true
			break
		}
		m.Rows = rows(s.Report)
		sum := s.Report.Summarize()
		m.Summary = &sum
	default:
		m.Empty = true
	}

	return m
}

func yearOptions(selected int) []YearOption {
	opts := make([]YearOption, 0, len(stats.Years))
	for _, y := range stats.Years {
		opts = append(opts, YearOption{Value: y, Selected: y == selected})
	}
	return opts
}

func errorModel(s State) *ErrorModel {
	if s.Err == nil {
		// a failure always carries an error; keep the region visible anyway
		return &ErrorModel{Kind: "generic", Title: ErrorTitle, Message: "Could not load data"}
	}
	return &ErrorModel{
		Kind:       string(s.Err.Kind),
		Title:      ErrorTitle,
		Message:    s.Err.Message(),
		StatusCode: s.Err.StatusCode,
	}
}

func rows(r *stats.Report) []Row {
	out := make([]Row, 0, len(r.Months))
	for _, m := range r.Months {
		out = append(out, Row{
			Month:             m.Month,
			Label:             fmt.Sprintf("Month %d", m.Month),
			TotalFlights:      m.Flights(),
			PaidCount:         m.Paid(),
			CanceledCount:     m.Canceled(),
			PaidTotal:         m.PaidAmount(),
			CanceledTotal:     m.CanceledAmount(),
			FlightsHighlight:  m.Flights() > 0,
			PaidHighlight:     m.Paid() > 0,
			CanceledHighlight: m.Canceled() > 0,
		})
	}
	return out
}
