// Package scheduling sequences production orders through the plant's
// permutation flow shop. Two machines are solved exactly with Johnson's rule;
// larger shops use the NEH insertion heuristic, with a machine-load lower
// bound to report how far the makespan can be from optimal.
package scheduling

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"soleplan/pkg/contracts/domain"
)

// Solve sequences the flow shop and returns the timed schedule.
func Solve(shop domain.FlowShop, logger *slog.Logger) (*domain.ScheduleResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := shop.Validate(); err != nil {
		return nil, err
	}

	var order []int
	var method string
	if len(shop.Machines) == 2 {
		order = johnson(shop)
		method = "johnson"
	} else {
		order = neh(shop)
		method = "neh"
	}

	result := timetable(shop, order)
	result.Method = method
	result.LowerBound = lowerBound(shop)

	logger.Debug("flow shop scheduled",
		slog.String("method", method),
		slog.Int("orders", len(shop.Orders)),
		slog.Float64("makespan", result.Makespan),
		slog.Float64("lower_bound", result.LowerBound))
	return result, nil
}

// johnson orders the jobs by Johnson's rule, which is optimal for two
// machines: jobs faster on the first machine go to the front in increasing
// order, the rest go to the back in decreasing order of the second machine.
func johnson(shop domain.FlowShop) []int {
	var front, back []int
	for i, o := range shop.Orders {
		if o.ProcessingTimes[0] <= o.ProcessingTimes[1] {
			front = append(front, i)
		} else {
			back = append(back, i)
		}
	}
	sort.SliceStable(front, func(a, b int) bool {
		return shop.Orders[front[a]].ProcessingTimes[0] < shop.Orders[front[b]].ProcessingTimes[0]
	})
	sort.SliceStable(back, func(a, b int) bool {
		return shop.Orders[back[a]].ProcessingTimes[1] > shop.Orders[back[b]].ProcessingTimes[1]
	})
	return append(front, back...)
}

// neh builds the sequence by inserting jobs, longest total time first, at the
// position minimizing the partial makespan.
func neh(shop domain.FlowShop) []int {
	jobs := make([]int, len(shop.Orders))
	for i := range jobs {
		jobs[i] = i
	}
	total := func(i int) float64 {
		var sum float64
		for _, p := range shop.Orders[i].ProcessingTimes {
			sum += p
		}
		return sum
	}
	sort.SliceStable(jobs, func(a, b int) bool { return total(jobs[a]) > total(jobs[b]) })

	sequence := []int{jobs[0]}
	for _, job := range jobs[1:] {
		bestPos, bestSpan := 0, math.Inf(1)
		for pos := 0; pos <= len(sequence); pos++ {
			candidate := make([]int, 0, len(sequence)+1)
			candidate = append(candidate, sequence[:pos]...)
			candidate = append(candidate, job)
			candidate = append(candidate, sequence[pos:]...)
			if span := makespan(shop, candidate); span < bestSpan {
				bestSpan = span
				bestPos = pos
			}
		}
		next := make([]int, 0, len(sequence)+1)
		next = append(next, sequence[:bestPos]...)
		next = append(next, job)
		next = append(next, sequence[bestPos:]...)
		sequence = next
	}
	return sequence
}

// makespan is the completion time of the last job on the last machine under
// the standard flow-shop recursion.
func makespan(shop domain.FlowShop, order []int) float64 {
	machines := len(shop.Machines)
	prev := make([]float64, machines)
	for _, job := range order {
		current := make([]float64, machines)
		for m := 0; m < machines; m++ {
			start := prev[m]
			if m > 0 && current[m-1] > start {
				start = current[m-1]
			}
			current[m] = start + shop.Orders[job].ProcessingTimes[m]
		}
		prev = current
	}
	return prev[machines-1]
}

// timetable expands a sequence into per-order start, completion and finish
// day times.
func timetable(shop domain.FlowShop, order []int) *domain.ScheduleResult {
	machines := len(shop.Machines)
	result := &domain.ScheduleResult{}
	prev := make([]float64, machines)

	for _, job := range order {
		sched := domain.OrderSchedule{
			Order:      shop.Orders[job].Name,
			Start:      make([]float64, machines),
			Completion: make([]float64, machines),
			FinishDay:  make([]int, machines),
		}
		for m := 0; m < machines; m++ {
			start := prev[m]
			if m > 0 && sched.Completion[m-1] > start {
				start = sched.Completion[m-1]
			}
			sched.Start[m] = start
			sched.Completion[m] = start + shop.Orders[job].ProcessingTimes[m]
			sched.FinishDay[m] = int(math.Ceil(sched.Completion[m] / shop.Machines[m].DailyHours))
			prev[m] = sched.Completion[m]
		}
		result.Sequence = append(result.Sequence, shop.Orders[job].Name)
		result.Orders = append(result.Orders, sched)
	}
	result.Makespan = prev[machines-1]
	return result
}

// lowerBound is the strongest machine-load bound: for each machine, the work
// it must process plus the unavoidable head (fastest way any job reaches it)
// and tail (fastest way any job leaves it).
func lowerBound(shop domain.FlowShop) float64 {
	machines := len(shop.Machines)
	var best float64
	for m := 0; m < machines; m++ {
		var load float64
		head, tail := math.Inf(1), math.Inf(1)
		for _, o := range shop.Orders {
			load += o.ProcessingTimes[m]
			var h, t float64
			for k := 0; k < m; k++ {
				h += o.ProcessingTimes[k]
			}
			for k := m + 1; k < machines; k++ {
				t += o.ProcessingTimes[k]
			}
			if h < head {
				head = h
			}
			if t < tail {
				tail = t
			}
		}
		if bound := head + load + tail; bound > best {
			best = bound
		}
	}
	return best
}

// Describe summarizes the result for logs and reports.
func Describe(r *domain.ScheduleResult) string {
	quality := "heuristic"
	if r.Optimal() {
		quality = "optimal"
	}
	return fmt.Sprintf("%s sequence of %d orders, makespan %.1f h (%s, lower bound %.1f h)",
		r.Method, len(r.Sequence), r.Makespan, quality, r.LowerBound)
}
