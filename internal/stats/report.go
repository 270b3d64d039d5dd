// Package stats defines the yearly revenue report returned by the statistics API.
package stats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultCurrencyTotal is shown when the API omits a money total.
const DefaultCurrencyTotal = "0 VND"

// DefaultYear is the year selected when a view is mounted without one.
const DefaultYear = 2025

// ErrInvalidYear is returned for years outside the selectable set.
var ErrInvalidYear = errors.New("year is not selectable")

// Years lists the selectable years in display order.
var Years = []int{2025, 2024, 2023}

// Report is one year of monthly statistics.
// Months is nil when the payload has no months key.
type Report struct {
	Months []MonthStat `json:"months" yaml:"months"`
}

// MonthStat holds the counters for a single month.
// Every field except Month is optional on the wire and stays nil when absent.
type MonthStat struct {
	Month         int     `json:"month" yaml:"month"`
	TotalFlights  *int    `json:"totalFlights,omitempty" yaml:"totalFlights,omitempty"`
	PaidCount     *int    `json:"paidCount,omitempty" yaml:"paidCount,omitempty"`
	CanceledCount *int    `json:"canceledCount,omitempty" yaml:"canceledCount,omitempty"`
	PaidTotal     *string `json:"paidTotal,omitempty" yaml:"paidTotal,omitempty"`
	CanceledTotal *string `json:"canceledTotal,omitempty" yaml:"canceledTotal,omitempty"`
}

// Summary is the column-wise sum over all months of a report.
type Summary struct {
	TotalFlights  int `json:"totalFlights"`
	PaidCount     int `json:"paidCount"`
	CanceledCount int `json:"canceledCount"`
}

// ValidateYear returns ErrInvalidYear unless year is one of Years.
func ValidateYear(year int) error {
	for _, y := range Years {
		if y == year {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrInvalidYear, year)
}

// ParseYear parses a year from a query or flag value.
// An empty value yields fallback; anything else must be a selectable year.
func ParseYear(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, ValidateYear(fallback)
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, raw)
	}
	if err := ValidateYear(year); err != nil {
		return 0, err
	}
	return year, nil
}

// IsEmpty reports whether the report has no months to show.
// A nil report, an absent months key and an empty list are all empty.
func (r *Report) IsEmpty() bool {
	return r == nil || len(r.Months) == 0
}

// Summarize sums the counters of every month, counting missing values as zero.
func (r *Report) Summarize() Summary {
	var s Summary
	if r == nil {
		return s
	}
	for _, m := range r.Months {
		s.TotalFlights += m.Flights()
		s.PaidCount += m.Paid()
		s.CanceledCount += m.Canceled()
	}
	return s
}

// Flights returns TotalFlights or 0.
func (m MonthStat) Flights() int { return intOrZero(m.TotalFlights) }

// Paid returns PaidCount or 0.
func (m MonthStat) Paid() int { return intOrZero(m.PaidCount) }

// Canceled returns CanceledCount or 0.
func (m MonthStat) Canceled() int { return intOrZero(m.CanceledCount) }

// PaidAmount returns PaidTotal or DefaultCurrencyTotal when missing or blank.
func (m MonthStat) PaidAmount() string { return stringOr(m.PaidTotal, DefaultCurrencyTotal) }

// CanceledAmount returns CanceledTotal or DefaultCurrencyTotal when missing or blank.
func (m MonthStat) CanceledAmount() string {
	return stringOr(m.CanceledTotal, DefaultCurrencyTotal)
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

// Ptr returns a pointer to v. It is handy for building reports in code.
func Ptr[T any](v T) *T { return &v }
