// Package stub serves canned statistics reports over HTTP for local
// development and tests.
package stub

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blockedby/flight-stats/internal/stats"
)

// DefaultPath is the endpoint path served when the fixture file sets none.
const DefaultPath = "/api/thongke"

// Fixtures is the content of a fixture file.
//
//	path: /api/thongke
//	years:
//	  2025:
//	    delay: 300ms
//	    months:
//	      - month: 1
//	        totalFlights: 5
//	        paidTotal: "1,500,000 VND"
//	  2024:
//	    status: 503
type Fixtures struct {
	Path  string           `yaml:"path"`
	Years map[int]*Fixture `yaml:"years"`
}

// Fixture is the canned response for one year.
type Fixture struct {
	// Status overrides the 200 response code.
	Status int `yaml:"status"`
	// Delay holds the response back, which is handy for timeout testing.
	Delay time.Duration `yaml:"delay"`
	// Body is sent verbatim instead of the months.
	Body string `yaml:"body"`
	// OmitMonths sends {} so the months key is absent.
	OmitMonths bool              `yaml:"omit_months"`
	Months     []stats.MonthStat `yaml:"months"`
}

// Load reads and validates a fixture file.
func Load(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	fx, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fx, nil
}

// Parse decodes and validates fixture YAML.
func Parse(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if fx.Path == "" {
		fx.Path = DefaultPath
	}
	if fx.Years == nil {
		fx.Years = make(map[int]*Fixture)
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// Validate checks statuses, delays and month numbers.
func (fx *Fixtures) Validate() error {
	var errs []error
	for _, year := range fx.SortedYears() {
		f := fx.Years[year]
		if f == nil {
			continue
		}
		if f.Status != 0 && (f.Status < 100 || f.Status > 599) {
			errs = append(errs, fmt.Errorf("year %d: invalid status %d", year, f.Status))
		}
		if f.Delay < 0 {
			errs = append(errs, fmt.Errorf("year %d: negative delay", year))
		}
		for i, m := range f.Months {
			if m.Month < 1 || m.Month > 12 {
				errs = append(errs, fmt.Errorf("year %d: months[%d]: month %d out of range", year, i, m.Month))
			}
		}
	}
	return errors.Join(errs...)
}

// SortedYears returns the configured years, newest first.
func (fx *Fixtures) SortedYears() []int {
	years := make([]int, 0, len(fx.Years))
	for y := range fx.Years {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

func (f *Fixture) status() int {
	if f == nil || f.Status == 0 {
		return http.StatusOK
	}
	return f.Status
}
