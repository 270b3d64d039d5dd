package stats

import (
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxWhole is the largest float64 that still holds every smaller integer exactly.
const maxWhole = 1 << 53

// wholeNumber decodes a JSON number that must have no fractional part.
// Some backends serialize counters as 5.0, which is still a count of 5.
type wholeNumber int

func (n *wholeNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || math.Abs(f) > maxWhole {
		return fmt.Errorf("%s is not a whole number", data)
	}
	*n = wholeNumber(f)
	return nil
}

type monthStatWire struct {
	Month         wholeNumber  `json:"month"`
	TotalFlights  *wholeNumber `json:"totalFlights"`
	PaidCount     *wholeNumber `json:"paidCount"`
	CanceledCount *wholeNumber `json:"canceledCount"`
	PaidTotal     *string      `json:"paidTotal"`
	CanceledTotal *string      `json:"canceledTotal"`
}

// UnmarshalJSON accepts whole-valued floats for the counters and keeps
// absent fields nil.
func (m *MonthStat) UnmarshalJSON(data []byte) error {
	var w monthStatWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("month stat: %w", err)
	}
	*m = MonthStat{
		Month:         int(w.Month),
		TotalFlights:  w.TotalFlights.intPtr(),
		PaidCount:     w.PaidCount.intPtr(),
		CanceledCount: w.CanceledCount.intPtr(),
		PaidTotal:     w.PaidTotal,
		CanceledTotal: w.CanceledTotal,
	}
	return nil
}

func (n *wholeNumber) intPtr() *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}
