package domain

import "fmt"

// Order is one production order routed through every machine of the flow shop
// in machine order.
type Order struct {
	Name string `json:"name"`
	// ProcessingTimes[m] is the hours the order needs on machine m.
	ProcessingTimes []float64 `json:"processing_times"`
}

// Machine describes one station of the flow shop.
type Machine struct {
	Name string `json:"name"`
	// DailyHours is the available working hours per day, used to convert
	// completion times into calendar finish days.
	DailyHours float64 `json:"daily_hours"`
}

// FlowShop is a permutation flow-shop instance: every order visits the
// machines in the same sequence.
type FlowShop struct {
	Orders   []Order   `json:"orders"`
	Machines []Machine `json:"machines"`
}

// Validate checks that each order covers every machine.
func (f FlowShop) Validate() error {
	if len(f.Orders) == 0 {
		return fmt.Errorf("flow shop has no orders")
	}
	if len(f.Machines) == 0 {
		return fmt.Errorf("flow shop has no machines")
	}
	for _, o := range f.Orders {
		if len(o.ProcessingTimes) != len(f.Machines) {
			return fmt.Errorf("order %q has %d processing times, expected %d", o.Name, len(o.ProcessingTimes), len(f.Machines))
		}
		for m, p := range o.ProcessingTimes {
			if p < 0 {
				return fmt.Errorf("order %q has negative time on machine %d", o.Name, m+1)
			}
		}
	}
	return nil
}

// OrderSchedule is the solved timing of one order across the machines.
type OrderSchedule struct {
	Order string `json:"order"`
	// Start[m] and Completion[m] are the start and completion hour on machine m.
	Start      []float64 `json:"start"`
	Completion []float64 `json:"completion"`
	// FinishDay[m] is the calendar day the order leaves machine m,
	// ceil(completion / machine daily hours).
	FinishDay []int `json:"finish_day"`
}

// ScheduleResult is the complete flow-shop solution.
type ScheduleResult struct {
	// Sequence is the processing order of the jobs, by order name.
	Sequence []string        `json:"sequence"`
	Orders   []OrderSchedule `json:"orders"`
	Makespan float64         `json:"makespan"`
	// LowerBound is the machine-load lower bound on the makespan; when equal
	// to Makespan the schedule is provably optimal.
	LowerBound float64 `json:"lower_bound"`
	Method     string  `json:"method"`
}

// Optimal reports whether the schedule is provably optimal.
func (r ScheduleResult) Optimal() bool {
	return r.Makespan <= r.LowerBound+1e-9
}
