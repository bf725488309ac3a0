// Package aggplan builds the aggregate production plan for a shoe class:
// it nets each month's forecast against the inventory carried forward and
// converts the uncovered demand into production hours.
package aggplan

import (
	"fmt"
	"log/slog"

	"soleplan/pkg/contracts/domain"
)

// Inputs collects everything the aggregate plan needs for one class.
type Inputs struct {
	Class string
	// Forecasts holds one series per reference of the class.
	Forecasts []domain.ForecastSeries
	// Stock is the opening inventory per reference.
	Stock map[string]domain.StockLevel
	// StandardTimes is the hours-per-unit table per reference.
	StandardTimes map[string]domain.StandardTime
}

// Build rolls the inventory forward through the horizon for every reference
// and aggregates the net demand into hours. A month is only short when the
// carried inventory cannot cover its forecast; the shortfall becomes net
// demand and the inventory bottoms out at zero.
func Build(in Inputs, logger *slog.Logger) (*domain.AggregatePlan, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(in.Forecasts) == 0 {
		return nil, fmt.Errorf("class %s has no forecasts to plan", in.Class)
	}

	months := in.Forecasts[0].Horizon
	plan := &domain.AggregatePlan{
		Class:               in.Class,
		ByReference:         make(map[string][]domain.AggregateRow, len(in.Forecasts)),
		TotalDemandPerMonth: make([]float64, months),
		Months:              months,
	}

	for _, series := range in.Forecasts {
		if series.Horizon != months {
			return nil, fmt.Errorf("reference %s has horizon %d, class %s plans %d months",
				series.Reference, series.Horizon, in.Class, months)
		}
		st, ok := in.StandardTimes[series.Reference]
		if !ok {
			return nil, fmt.Errorf("reference %s has no standard time", series.Reference)
		}

		inventory := in.Stock[series.Reference].FinalInventory
		rows := make([]domain.AggregateRow, months)
		for m := 0; m < months; m++ {
			row := domain.AggregateRow{
				Forecast:         series.Values[m],
				InitialInventory: inventory,
			}
			balance := inventory - row.Forecast
			if balance >= 0 {
				row.FinalInventory = balance
			} else {
				row.NetDemand = -balance
			}
			row.AggregateDemand = row.NetDemand * st.StandardTimePerUnit
			rows[m] = row
			plan.TotalDemandPerMonth[m] += row.AggregateDemand
			inventory = row.FinalInventory
		}
		plan.ByReference[series.Reference] = rows
	}

	logger.Debug("aggregate plan built",
		slog.String("class", in.Class),
		slog.Int("references", len(plan.ByReference)),
		slog.Int("months", months))
	return plan, nil
}
