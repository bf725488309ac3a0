package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soleplan/pkg/contracts/domain"
)

func calendar(months int, normalCost, extraCost, normalAvail, extraAvail float64) *domain.HourCalendar {
	cal := &domain.HourCalendar{Class: "argyll"}
	for i := 0; i < months; i++ {
		cal.CostPerHour = append(cal.CostPerHour, normalCost)
		cal.CostPerExtraHour = append(cal.CostPerExtraHour, extraCost)
		cal.HoursAvailable = append(cal.HoursAvailable, normalAvail)
		cal.ExtraHoursAvailable = append(cal.ExtraHoursAvailable, extraAvail)
	}
	return cal
}

func totalDemand(a *domain.HourAssignment, month int) float64 {
	return a.DemandByKind[domain.NormalHours][month] + a.DemandByKind[domain.ExtraHours][month]
}

func TestSolve_NormalHoursPreferred(t *testing.T) {
	p := Problem{
		Class:              "argyll",
		Demand:             []float64{100, 100},
		Calendar:           calendar(2, 10, 15, 200, 50),
		HoldingCostPerHour: 1,
	}

	got, err := Solve(p, nil)
	require.NoError(t, err)

	// Normal capacity covers everything; overtime stays untouched.
	assert.InDelta(t, 100, got.HoursByKind[domain.NormalHours][0], 1e-6)
	assert.InDelta(t, 100, got.HoursByKind[domain.NormalHours][1], 1e-6)
	assert.InDelta(t, 0, got.HoursByKind[domain.ExtraHours][0], 1e-6)
	assert.InDelta(t, 0, got.HoursByKind[domain.ExtraHours][1], 1e-6)
	assert.InDelta(t, 2000, got.Cost, 1e-6)
}

func TestSolve_DemandSatisfiedExactly(t *testing.T) {
	p := Problem{
		Class:              "argyll",
		Demand:             []float64{80, 250, 120},
		Calendar:           calendar(3, 10, 15, 150, 100),
		HoldingCostPerHour: 2,
	}

	got, err := Solve(p, nil)
	require.NoError(t, err)
	for m, want := range p.Demand {
		assert.InDelta(t, want, totalDemand(got, m), 1e-6, "month %d", m+1)
	}
}

func TestSolve_AvailabilityRespected(t *testing.T) {
	p := Problem{
		Class:              "argyll",
		Demand:             []float64{100, 400},
		Calendar:           calendar(2, 10, 15, 200, 60),
		HoldingCostPerHour: 1,
	}

	got, err := Solve(p, nil)
	require.NoError(t, err)
	for k := 0; k < 2; k++ {
		avail := p.Calendar.HoursAvailable
		if k == int(domain.ExtraHours) {
			avail = p.Calendar.ExtraHoursAvailable
		}
		for m := range p.Demand {
			assert.LessOrEqual(t, got.HoursByKind[k][m], avail[m]+1e-6)
		}
	}
}

func TestSolve_EarlyProductionWhenCheaper(t *testing.T) {
	// Month 2 demand exceeds its total capacity, so part of it must be
	// produced in month 1 and held.
	p := Problem{
		Class:              "argyll",
		Demand:             []float64{0, 300},
		Calendar:           calendar(2, 10, 15, 150, 50),
		HoldingCostPerHour: 1,
	}

	got, err := Solve(p, nil)
	require.NoError(t, err)
	worked := got.HoursByKind[domain.NormalHours][0] + got.HoursByKind[domain.ExtraHours][0]
	assert.InDelta(t, 100, worked, 1e-6)
	assert.InDelta(t, 300, totalDemand(got, 1), 1e-6)
	// Month 1 normal hours plus holding beat month 1 overtime plus holding,
	// so the early work is all normal time.
	assert.InDelta(t, 100, got.HoursByKind[domain.NormalHours][0], 1e-6)
}

func TestSolve_Infeasible(t *testing.T) {
	p := Problem{
		Class:    "argyll",
		Demand:   []float64{500, 100},
		Calendar: calendar(2, 10, 15, 200, 50),
	}

	_, err := Solve(p, nil)
	var infErr *InfeasibleError
	require.ErrorAs(t, err, &infErr)
	assert.Equal(t, 1, infErr.Month)
	assert.InDelta(t, 250, infErr.Shortfall, 1e-9)
}

func TestSolve_ZeroDemand(t *testing.T) {
	p := Problem{
		Class:    "argyll",
		Demand:   []float64{0, 0, 0},
		Calendar: calendar(3, 10, 15, 200, 50),
	}

	got, err := Solve(p, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Cost)
	for k := 0; k < 2; k++ {
		for m := 0; m < 3; m++ {
			assert.Equal(t, 0.0, got.HoursByKind[k][m])
		}
	}
}

func TestSolve_Validation(t *testing.T) {
	t.Run("no demand", func(t *testing.T) {
		_, err := Solve(Problem{Class: "argyll"}, nil)
		assert.ErrorContains(t, err, "no demand")
	})

	t.Run("nil calendar", func(t *testing.T) {
		_, err := Solve(Problem{Class: "argyll", Demand: []float64{1}}, nil)
		assert.ErrorContains(t, err, "no hour calendar")
	})

	t.Run("short calendar", func(t *testing.T) {
		p := Problem{Class: "argyll", Demand: []float64{1, 1, 1}, Calendar: calendar(2, 10, 15, 100, 10)}
		_, err := Solve(p, nil)
		assert.ErrorContains(t, err, "calendar covers 2 months")
	})
}
