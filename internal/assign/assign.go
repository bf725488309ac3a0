// Package assign solves the hour-assignment problem for a shoe class: given
// the aggregate demand in hours per month and the calendar of normal and
// overtime hours, it decides how many hours of each kind to work each month,
// allowing early production held in inventory, at minimum cost.
package assign

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"soleplan/pkg/contracts/domain"
)

// simplexTol is the numeric tolerance passed to the simplex solver.
const simplexTol = 1e-10

// Problem is one hour-assignment instance.
type Problem struct {
	Class string
	// Demand is the aggregate demand in hours per month.
	Demand []float64
	// Calendar supplies hour availability and costs; it must cover at least
	// as many months as Demand.
	Calendar *domain.HourCalendar
	// HoldingCostPerHour is charged per hour of early production per month
	// of lag between production and demand.
	HoldingCostPerHour float64
}

// InfeasibleError reports that demand cannot be met with the available hours.
type InfeasibleError struct {
	Class string
	// Month is the first 1-based month whose cumulative demand exceeds the
	// cumulative availability.
	Month     int
	Shortfall float64
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("class %s: demand through month %d exceeds available hours by %.1f",
		e.Class, e.Month, e.Shortfall)
}

// Solve builds and solves the linear program. Work in month i may satisfy
// demand of any month j >= i; hours carried forward cost the holding rate per
// month of lag. The optimum is extracted as demand coverage and worked hours
// per kind.
func Solve(p Problem, logger *slog.Logger) (*domain.HourAssignment, error) {
	if logger == nil {
		logger = slog.Default()
	}
	n := len(p.Demand)
	if n == 0 {
		return nil, fmt.Errorf("class %s has no demand to assign", p.Class)
	}
	if p.Calendar == nil {
		return nil, fmt.Errorf("class %s has no hour calendar", p.Class)
	}
	if err := p.Calendar.Validate(); err != nil {
		return nil, err
	}
	if p.Calendar.Months() < n {
		return nil, fmt.Errorf("class %s calendar covers %d months, demand needs %d",
			p.Class, p.Calendar.Months(), n)
	}
	if err := checkFeasible(p, n); err != nil {
		return nil, err
	}

	assignment := &domain.HourAssignment{Class: p.Class}
	for k := range assignment.DemandByKind {
		assignment.DemandByKind[k] = make([]float64, n)
		assignment.HoursByKind[k] = make([]float64, n)
	}

	total := 0.0
	for _, d := range p.Demand {
		total += d
	}
	if total == 0 {
		return assignment, nil
	}

	c, a, b, index := buildStandardForm(p, n)
	cost, x, err := lp.Simplex(c, a, b, simplexTol, nil)
	if err != nil {
		return nil, fmt.Errorf("class %s: solve hour assignment: %w", p.Class, err)
	}

	for k := 0; k < 2; k++ {
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := x[index(i, j, k)]
				if v < 0 {
					v = 0
				}
				assignment.HoursByKind[k][i] += v
				assignment.DemandByKind[k][j] += v
			}
		}
	}
	assignment.Cost = cost

	logger.Debug("hour assignment solved",
		slog.String("class", p.Class),
		slog.Float64("cost", cost),
		slog.Float64("demand_hours", total))
	return assignment, nil
}

// checkFeasible verifies the cumulative availability dominates the cumulative
// demand, which is necessary and sufficient since early production is allowed
// but backorders are not.
func checkFeasible(p Problem, n int) error {
	var cumAvail, cumDemand float64
	for m := 0; m < n; m++ {
		cumAvail += p.Calendar.HoursAvailable[m] + p.Calendar.ExtraHoursAvailable[m]
		cumDemand += p.Demand[m]
		if cumDemand > cumAvail+simplexTol {
			return &InfeasibleError{Class: p.Class, Month: m + 1, Shortfall: cumDemand - cumAvail}
		}
	}
	return nil
}

// buildStandardForm lays the model out as min c'x subject to Ax = b, x >= 0.
// Decision variables are the hours of kind k worked in month i against the
// demand of month j (i <= j); one slack per availability constraint turns the
// inequalities into equalities.
func buildStandardForm(p Problem, n int) (c []float64, a *mat.Dense, b []float64, index func(i, j, k int) int) {
	pairs := n * (n + 1) / 2
	pairIdx := make([][]int, n)
	next := 0
	for i := 0; i < n; i++ {
		pairIdx[i] = make([]int, n)
		for j := i; j < n; j++ {
			pairIdx[i][j] = next
			next++
		}
	}
	index = func(i, j, k int) int { return k*pairs + pairIdx[i][j] }
	slackIdx := func(i, k int) int { return 2*pairs + k*n + i }

	cols := 2*pairs + 2*n
	rows := 2*n + n

	c = make([]float64, cols)
	kindCost := [2][]float64{p.Calendar.CostPerHour, p.Calendar.CostPerExtraHour}
	for k := 0; k < 2; k++ {
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				c[index(i, j, k)] = kindCost[k][i] + float64(j-i)*p.HoldingCostPerHour
			}
		}
	}

	a = mat.NewDense(rows, cols, nil)
	b = make([]float64, rows)

	// Availability rows: hours worked in month i of kind k plus slack equal
	// the calendar availability.
	kindAvail := [2][]float64{p.Calendar.HoursAvailable, p.Calendar.ExtraHoursAvailable}
	for k := 0; k < 2; k++ {
		for i := 0; i < n; i++ {
			row := k*n + i
			for j := i; j < n; j++ {
				a.Set(row, index(i, j, k), 1)
			}
			a.Set(row, slackIdx(i, k), 1)
			b[row] = kindAvail[k][i]
		}
	}

	// Demand rows: every month's demand is covered exactly.
	for j := 0; j < n; j++ {
		row := 2*n + j
		for k := 0; k < 2; k++ {
			for i := 0; i <= j; i++ {
				a.Set(row, index(i, j, k), 1)
			}
		}
		b[row] = p.Demand[j]
	}
	return c, a, b, index
}
