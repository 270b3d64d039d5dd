package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateYear(t *testing.T) {
	for _, y := range []int{2023, 2024, 2025} {
		assert.NoError(t, ValidateYear(y), "year %d", y)
	}

	for _, y := range []int{0, 2022, 2026, -1} {
		err := ValidateYear(y)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidYear))
	}
}

func TestReport_Summarize(t *testing.T) {
	t.Run("single month", func(t *testing.T) {
		r := &Report{Months: []MonthStat{{
			Month:         1,
			TotalFlights:  Ptr(5),
			PaidCount:     Ptr(3),
			CanceledCount: Ptr(2),
			PaidTotal:     Ptr("100 VND"),
			CanceledTotal: Ptr("20 VND"),
		}}}

		assert.Equal(t, Summary{TotalFlights: 5, PaidCount: 3, CanceledCount: 2}, r.Summarize())
	})

	t.Run("missing counters count as zero", func(t *testing.T) {
		r := &Report{Months: []MonthStat{
			{Month: 1, TotalFlights: Ptr(4)},
			{Month: 2, PaidCount: Ptr(7)},
			{Month: 3, CanceledCount: Ptr(1), TotalFlights: Ptr(6)},
		}}

		assert.Equal(t, Summary{TotalFlights: 10, PaidCount: 7, CanceledCount: 1}, r.Summarize())
	})

	t.Run("nil report", func(t *testing.T) {
		var r *Report
		assert.Equal(t, Summary{}, r.Summarize())
		assert.True(t, r.IsEmpty())
	})
}

func TestReport_DecodeKeepsAbsence(t *testing.T) {
	var r Report
	require.NoError(t, json.Unmarshal([]byte(`{"months":[{"month":4,"paidTotal":""}]}`), &r))

	require.Len(t, r.Months, 1)
	m := r.Months[0]
	assert.Nil(t, m.TotalFlights)
	assert.Nil(t, m.PaidCount)
	assert.Nil(t, m.CanceledTotal)
	assert.Equal(t, 0, m.Flights())
	assert.Equal(t, DefaultCurrencyTotal, m.PaidAmount())
	assert.Equal(t, DefaultCurrencyTotal, m.CanceledAmount())
}

func TestReport_IsEmpty(t *testing.T) {
	var absent Report
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	assert.Nil(t, absent.Months)
	assert.True(t, absent.IsEmpty())

	var empty Report
	require.NoError(t, json.Unmarshal([]byte(`{"months":[]}`), &empty))
	assert.NotNil(t, empty.Months)
	assert.True(t, empty.IsEmpty())

	assert.False(t, (&Report{Months: []MonthStat{{Month: 1}}}).IsEmpty())
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", DefaultYear, false},
		{" 2024 ", 2024, false},
		{"2023", 2023, false},
		{"2022", 0, true},
		{"twenty", 0, true},
		{"2024.0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseYear(tt.raw, DefaultYear)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidYear))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonthStat_DecodeWholeFloats(t *testing.T) {
	var r Report
	require.NoError(t, json.Unmarshal([]byte(`{"months":[
		{"month":1.0,"totalFlights":5.0,"paidCount":3,"canceledCount":2e0,"paidTotal":"1,500,000 VND"},
		{"month":2,"totalFlights":null}
	]}`), &r))

	require.Len(t, r.Months, 2)
	first := r.Months[0]
	assert.Equal(t, 1, first.Month)
	assert.Equal(t, 5, first.Flights())
	assert.Equal(t, 3, first.Paid())
	assert.Equal(t, 2, first.Canceled())
	assert.Equal(t, "1,500,000 VND", first.PaidAmount())
	assert.Nil(t, first.CanceledTotal)

	assert.Nil(t, r.Months[1].TotalFlights)
	assert.Equal(t, Summary{TotalFlights: 5, PaidCount: 3, CanceledCount: 2}, r.Summarize())
}

func TestMonthStat_DecodeRejectsFractions(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"fractional count", `{"months":[{"month":1,"totalFlights":5.5}]}`},
		{"fractional month", `{"months":[{"month":1.25}]}`},
		{"string count", `{"months":[{"month":1,"paidCount":"3"}]}`},
		{"huge count", `{"months":[{"month":1,"paidCount":1e300}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Report
			assert.Error(t, json.Unmarshal([]byte(tt.payload), &r))
		})
	}
}
