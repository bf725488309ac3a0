package domain

import (
	"fmt"
	"time"
)

// SalesRecord represents one month of sales for a single shoe reference.
type SalesRecord struct {
	Reference string    `json:"reference"`
	Class     string    `json:"class"`
	Family    string    `json:"family"`
	Month     time.Time `json:"month"`
	Quantity  float64   `json:"quantity"`
}

// IsValid checks if the sales record contains usable data.
func (r SalesRecord) IsValid() bool {
	return r.Reference != "" && !r.Month.IsZero() && r.Quantity >= 0
}

// SalesHistory is the complete monthly history for one reference, ordered by month.
type SalesHistory struct {
	Reference string    `json:"reference"`
	Class     string    `json:"class"`
	Family    string    `json:"family"`
	Months    []time.Time `json:"months"`
	Quantities []float64  `json:"quantities"`
}

// Len returns the number of observed months.
func (h SalesHistory) Len() int { return len(h.Quantities) }

// ForecastSeries holds the forecasted demand for one reference.
type ForecastSeries struct {
	Reference string    `json:"reference"`
	Model     string    `json:"model"`
	Horizon   int       `json:"horizon"`
	Values    []float64 `json:"values"`
	// HoldoutError is the error metric of the winning model on the holdout
	// months, as a fraction (MAPE) or in units (MAE) depending on Metric.
	HoldoutError float64 `json:"holdout_error"`
	Metric       string  `json:"metric"`
}

// Validate checks internal consistency of the forecast series.
func (f ForecastSeries) Validate() error {
	if f.Reference == "" {
		return fmt.Errorf("forecast series missing reference")
	}
	if len(f.Values) != f.Horizon {
		return fmt.Errorf("forecast for %s has %d values, expected horizon %d", f.Reference, len(f.Values), f.Horizon)
	}
	for i, v := range f.Values {
		if v < 0 {
			return fmt.Errorf("forecast for %s month %d is negative: %f", f.Reference, i+1, v)
		}
	}
	return nil
}

// StockLevel is the opening inventory position for a reference.
type StockLevel struct {
	Reference      string  `json:"reference"`
	FinalInventory float64 `json:"final_inventory"`
}

// StandardTime is the standard production time and unit material cost for a reference.
type StandardTime struct {
	Reference           string  `json:"reference"`
	StandardTimePerUnit float64 `json:"standard_time_per_unit"` // hours per pair
	CostPerUnit         float64 `json:"cost_per_unit"`          // raw material cost per pair
}

// HourCalendar carries the monthly cost and availability of production hours
// for one shoe class, split into normal and extra (overtime) hours.
type HourCalendar struct {
	Class               string    `json:"class"`
	CostPerHour         []float64 `json:"cost_per_hour"`
	CostPerExtraHour    []float64 `json:"cost_per_extra_hour"`
	HoursAvailable      []float64 `json:"hours_available"`
	ExtraHoursAvailable []float64 `json:"extra_hours_available"`
}

// Months returns the number of months the calendar covers.
func (c HourCalendar) Months() int { return len(c.CostPerHour) }

// Validate checks that all calendar series cover the same months with sane values.
func (c HourCalendar) Validate() error {
	n := len(c.CostPerHour)
	if n == 0 {
		return fmt.Errorf("hour calendar for class %q is empty", c.Class)
	}
	if len(c.CostPerExtraHour) != n || len(c.HoursAvailable) != n || len(c.ExtraHoursAvailable) != n {
		return fmt.Errorf("hour calendar for class %q has misaligned series", c.Class)
	}
	for i := 0; i < n; i++ {
		if c.CostPerHour[i] < 0 || c.CostPerExtraHour[i] < 0 {
			return fmt.Errorf("hour calendar for class %q month %d has negative cost", c.Class, i+1)
		}
		if c.HoursAvailable[i] < 0 || c.ExtraHoursAvailable[i] < 0 {
			return fmt.Errorf("hour calendar for class %q month %d has negative availability", c.Class, i+1)
		}
	}
	return nil
}

// ReferenceCatalog maps references to their class and family (production line).
type ReferenceCatalog struct {
	// Families maps family name to the references it groups.
	Families map[string][]string `json:"families"`
	// Class is the shoe class all entries belong to.
	Class string `json:"class"`
}

// References returns every reference in the catalog, family order preserved
// per family but family iteration order unspecified.
func (c ReferenceCatalog) References() []string {
	var refs []string
	for _, members := range c.Families {
		refs = append(refs, members...)
	}
	return refs
}
