package aggplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soleplan/pkg/contracts/domain"
)

func TestBuild_InventoryRollsForward(t *testing.T) {
	in := Inputs{
		Class: "argyll",
		Forecasts: []domain.ForecastSeries{
			{Reference: "R101", Horizon: 3, Values: []float64{50, 80, 40}},
		},
		Stock: map[string]domain.StockLevel{
			"R101": {Reference: "R101", FinalInventory: 120},
		},
		StandardTimes: map[string]domain.StandardTime{
			"R101": {Reference: "R101", StandardTimePerUnit: 0.5},
		},
	}

	plan, err := Build(in, nil)
	require.NoError(t, err)
	rows := plan.ByReference["R101"]
	require.Len(t, rows, 3)

	// Month 1: 120 on hand covers 50, leaving 70.
	assert.Equal(t, 120.0, rows[0].InitialInventory)
	assert.Equal(t, 70.0, rows[0].FinalInventory)
	assert.Equal(t, 0.0, rows[0].NetDemand)

	// Month 2: 70 against 80 leaves a 10-unit shortfall, inventory zeros out.
	assert.Equal(t, 70.0, rows[1].InitialInventory)
	assert.Equal(t, 0.0, rows[1].FinalInventory)
	assert.Equal(t, 10.0, rows[1].NetDemand)
	assert.Equal(t, 5.0, rows[1].AggregateDemand)

	// Month 3: nothing carried, demand is fully net.
	assert.Equal(t, 0.0, rows[2].InitialInventory)
	assert.Equal(t, 40.0, rows[2].NetDemand)
	assert.Equal(t, 20.0, rows[2].AggregateDemand)

	assert.Equal(t, []float64{0, 5, 20}, plan.TotalDemandPerMonth)
}

func TestBuild_TotalsSumAcrossReferences(t *testing.T) {
	in := Inputs{
		Class: "argyll",
		Forecasts: []domain.ForecastSeries{
			{Reference: "R101", Horizon: 2, Values: []float64{10, 10}},
			{Reference: "R102", Horizon: 2, Values: []float64{20, 20}},
		},
		Stock: map[string]domain.StockLevel{},
		StandardTimes: map[string]domain.StandardTime{
			"R101": {Reference: "R101", StandardTimePerUnit: 1},
			"R102": {Reference: "R102", StandardTimePerUnit: 2},
		},
	}

	plan, err := Build(in, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 50}, plan.TotalDemandPerMonth)
}

func TestBuild_MissingStockDefaultsToZero(t *testing.T) {
	in := Inputs{
		Class: "pvc",
		Forecasts: []domain.ForecastSeries{
			{Reference: "R201", Horizon: 1, Values: []float64{30}},
		},
		Stock: map[string]domain.StockLevel{},
		StandardTimes: map[string]domain.StandardTime{
			"R201": {Reference: "R201", StandardTimePerUnit: 0.25},
		},
	}

	plan, err := Build(in, nil)
	require.NoError(t, err)
	assert.Equal(t, 30.0, plan.ByReference["R201"][0].NetDemand)
}

func TestBuild_Errors(t *testing.T) {
	t.Run("no forecasts", func(t *testing.T) {
		_, err := Build(Inputs{Class: "argyll"}, nil)
		assert.ErrorContains(t, err, "no forecasts")
	})

	t.Run("missing standard time", func(t *testing.T) {
		in := Inputs{
			Class: "argyll",
			Forecasts: []domain.ForecastSeries{
				{Reference: "R101", Horizon: 1, Values: []float64{10}},
			},
			Stock:         map[string]domain.StockLevel{},
			StandardTimes: map[string]domain.StandardTime{},
		}
		_, err := Build(in, nil)
		assert.ErrorContains(t, err, "no standard time")
	})

	t.Run("mismatched horizon", func(t *testing.T) {
		in := Inputs{
			Class: "argyll",
			Forecasts: []domain.ForecastSeries{
				{Reference: "R101", Horizon: 2, Values: []float64{10, 10}},
				{Reference: "R102", Horizon: 3, Values: []float64{10, 10, 10}},
			},
			Stock: map[string]domain.StockLevel{},
			StandardTimes: map[string]domain.StandardTime{
				"R101": {StandardTimePerUnit: 1},
				"R102": {StandardTimePerUnit: 1},
			},
		}
		_, err := Build(in, nil)
		assert.ErrorContains(t, err, "horizon")
	})
}
