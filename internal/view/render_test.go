package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/flight-stats/internal/stats"
	"github.com/blockedby/flight-stats/internal/statsapi"
)

func TestRender_Loading(t *testing.T) {
	m := Render(State{Phase: PhaseLoading, Year: 2024})

	assert.True(t, m.Loading)
	assert.False(t, m.Empty)
	assert.Nil(t, m.Error)
	assert.Empty(t, m.Rows)
	assert.Nil(t, m.Summary)
	assert.Equal(t, "Revenue statistics 2024", m.Title)
}

func TestRender_Failure(t *testing.T) {
	m := Render(State{
		Phase: PhaseFailure,
		Year:  2025,
		Err:   &statsapi.FetchError{Kind: statsapi.KindHTTPStatus, StatusCode: 503},
	})

	require.NotNil(t, m.Error)
	assert.Equal(t, ErrorTitle, m.Error.Title)
	assert.Equal(t, "http_status", m.Error.Kind)
	assert.Equal(t, "HTTP error! status: 503", m.Error.Message)
	assert.Equal(t, 503, m.Error.StatusCode)
	assert.False(t, m.Loading)
	assert.False(t, m.Empty)
	assert.Empty(t, m.Rows)
	assert.Nil(t, m.Summary)
}

func TestRender_FailureWithoutError(t *testing.T) {
	m := Render(State{Phase: PhaseFailure, Year: 2025})
	require.NotNil(t, m.Error)
	assert.Equal(t, "generic", m.Error.Kind)
}

func TestRender_Empty(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"idle", State{Phase: PhaseIdle, Year: 2025}},
		{"nil report", State{Phase: PhaseSuccess, Year: 2025}},
		{"absent months", State{Phase: PhaseSuccess, Year: 2025, Report: &stats.Report{}}},
		{"empty months", State{Phase: PhaseSuccess, Year: 2025, Report: &stats.Report{Months: []stats.MonthStat{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Render(tt.state)
			assert.True(t, m.Empty)
			assert.False(t, m.Loading)
			assert.Nil(t, m.Error)
			assert.Empty(t, m.Rows)
			assert.Nil(t, m.Summary)
		})
	}
}

func TestRender_SingleMonth(t *testing.T) {
	report := &stats.Report{Months: []stats.MonthStat{{
		Month:         1,
		TotalFlights:  stats.Ptr(5),
		PaidCount:     stats.Ptr(3),
		CanceledCount: stats.Ptr(2),
		PaidTotal:     stats.Ptr("1,500,000 VND"),
		CanceledTotal: stats.Ptr("400,000 VND"),
	}}}

	m := Render(State{Phase: PhaseSuccess, Year: 2025, Report: report})

	require.Len(t, m.Rows, 1)
	row := m.Rows[0]
	assert.Equal(t, "Month 1", row.Label)
	assert.Equal(t, 5, row.TotalFlights)
	assert.Equal(t, 3, row.PaidCount)
	assert.Equal(t, 2, row.CanceledCount)
	assert.Equal(t, "1,500,000 VND", row.PaidTotal)
	assert.Equal(t, "400,000 VND", row.CanceledTotal)
	assert.True(t, row.FlightsHighlight)
	assert.True(t, row.PaidHighlight)
	assert.True(t, row.CanceledHighlight)

	require.NotNil(t, m.Summary)
	assert.Equal(t, stats.Summary{TotalFlights: 5, PaidCount: 3, CanceledCount: 2}, *m.Summary)
	assert.False(t, m.Empty)
	assert.False(t, m.Loading)
}

func TestRender_MissingValuesAndOrder(t *testing.T) {
	report := &stats.Report{Months: []stats.MonthStat{
		{Month: 3, PaidCount: stats.Ptr(1)},
		{Month: 1},
		{Month: 2, TotalFlights: stats.Ptr(4), PaidTotal: stats.Ptr("")},
	}}

	m := Render(State{Phase: PhaseSuccess, Year: 2023, Report: report})

	require.Len(t, m.Rows, 3)
	// server order is kept
	assert.Equal(t, []int{3, 1, 2}, []int{m.Rows[0].Month, m.Rows[1].Month, m.Rows[2].Month})

	blank := m.Rows[1]
	assert.Zero(t, blank.TotalFlights)
	assert.Zero(t, blank.PaidCount)
	assert.Zero(t, blank.CanceledCount)
	assert.Equal(t, stats.DefaultCurrencyTotal, blank.PaidTotal)
	assert.Equal(t, stats.DefaultCurrencyTotal, blank.CanceledTotal)
	assert.False(t, blank.FlightsHighlight)
	assert.False(t, blank.PaidHighlight)
	assert.False(t, blank.CanceledHighlight)

	assert.True(t, m.Rows[0].PaidHighlight)
	assert.False(t, m.Rows[0].FlightsHighlight)
	assert.Equal(t, stats.DefaultCurrencyTotal, m.Rows[2].PaidTotal)

	require.NotNil(t, m.Summary)
	assert.Equal(t, stats.Summary{TotalFlights: 4, PaidCount: 1, CanceledCount: 0}, *m.Summary)
}

func TestRender_YearOptions(t *testing.T) {
	m := Render(State{Phase: PhaseLoading, Year: 2024})

	require.Len(t, m.Years, len(stats.Years))
	for i, opt := range m.Years {
		assert.Equal(t, stats.Years[i], opt.Value)
		assert.Equal(t, opt.Value == 2024, opt.Selected)
	}
}
