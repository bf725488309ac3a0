// Package masterplan disaggregates the class-level hour assignment back into
// per-reference production quantities and prices the resulting master
// production schedule.
package masterplan

import (
	"fmt"
	"log/slog"

	"soleplan/pkg/contracts/domain"
)

// DefaultDeficitCost is the penalty rate applied per unit of deficit.
const DefaultDeficitCost = 1000

// Inputs collects everything the master plan needs for one class.
type Inputs struct {
	Aggregate  *domain.AggregatePlan
	Assignment *domain.HourAssignment
	// Stock is the opening inventory per reference; the deficit compares it
	// plus the month's production against the month's forecast.
	Stock map[string]domain.StockLevel
	// StandardTimes supplies hours per unit and raw material cost per unit.
	StandardTimes map[string]domain.StandardTime
	Calendar      *domain.HourCalendar
	// HoldingCostPerHour prices inventory carry, per unit hour held.
	HoldingCostPerHour float64
	// DeficitCost is the penalty rate per unit of deficit. Zero means
	// DefaultDeficitCost.
	DeficitCost float64
}

// Build disaggregates the solved hour assignment over the references in
// proportion to their share of the month's aggregate demand, converts the
// hours to units through the standard time, and prices the plan.
func Build(in Inputs, logger *slog.Logger) (*domain.MasterPlan, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if in.Aggregate == nil || in.Assignment == nil {
		return nil, fmt.Errorf("master plan needs both the aggregate plan and the hour assignment")
	}
	if in.Calendar == nil {
		return nil, fmt.Errorf("master plan for class %s needs the hour calendar", in.Aggregate.Class)
	}
	months := in.Aggregate.Months
	if in.Calendar.Months() < months {
		return nil, fmt.Errorf("class %s calendar covers %d months, plan needs %d",
			in.Aggregate.Class, in.Calendar.Months(), months)
	}
	deficitRate := in.DeficitCost
	if deficitRate == 0 {
		deficitRate = DefaultDeficitCost
	}

	plan := &domain.MasterPlan{
		Class:       in.Aggregate.Class,
		ByReference: make(map[string][]domain.MasterPlanRow, len(in.Aggregate.ByReference)),
		Months:      months,
	}

	normalDemand := in.Assignment.DemandByKind[domain.NormalHours]
	extraDemand := in.Assignment.DemandByKind[domain.ExtraHours]

	for ref, aggRows := range in.Aggregate.ByReference {
		st, ok := in.StandardTimes[ref]
		if !ok {
			return nil, fmt.Errorf("reference %s has no standard time", ref)
		}
		openingStock := in.Stock[ref].FinalInventory

		rows := make([]domain.MasterPlanRow, months)
		for m := 0; m < months; m++ {
			agg := aggRows[m]
			row := domain.MasterPlanRow{
				Forecast:         agg.Forecast,
				InitialInventory: agg.InitialInventory,
				AggregateDemand:  agg.AggregateDemand,
			}
			if total := in.Aggregate.TotalDemandPerMonth[m]; total > 0 {
				row.DisaggregationPercent = agg.AggregateDemand / total
			}
			row.DisaggregationNormal = normalDemand[m] * row.DisaggregationPercent
			row.DisaggregationExtra = extraDemand[m] * row.DisaggregationPercent
			if st.StandardTimePerUnit > 0 {
				row.ProductionNormalHours = row.DisaggregationNormal / st.StandardTimePerUnit
				row.ProductionExtraHours = row.DisaggregationExtra / st.StandardTimePerUnit
			}

			production := row.ProductionNormalHours + row.ProductionExtraHours
			row.Deficit = openingStock + production - row.Forecast

			normalHourCost := in.Calendar.CostPerHour[m]
			row.LaborCost = production * normalHourCost * st.StandardTimePerUnit
			row.RawMaterialCost = production * st.CostPerUnit
			row.TotalManufacturingCost = row.LaborCost + row.RawMaterialCost
			row.InventoryCost = row.InitialInventory * in.HoldingCostPerHour * st.StandardTimePerUnit
			row.DeficitCost = row.Deficit * deficitRate
			row.Overrun = row.ProductionExtraHours * st.StandardTimePerUnit *
				(in.Calendar.CostPerExtraHour[m] - normalHourCost)
			row.TotalOperationCost = row.InventoryCost + row.DeficitCost + row.Overrun
			row.TotalProductionCost = row.TotalOperationCost + row.TotalManufacturingCost

			plan.TotalCost += row.TotalProductionCost
			rows[m] = row
		}
		plan.ByReference[ref] = rows
	}

	logger.Debug("master plan built",
		slog.String("class", plan.Class),
		slog.Int("references", len(plan.ByReference)),
		slog.Float64("total_cost", plan.TotalCost))
	return plan, nil
}

// FamilyProduction sums the per-reference production up to family level,
// keyed by family in catalog order.
type FamilyProduction struct {
	Family string
	// NormalUnits[m] and ExtraUnits[m] are the units produced in month m in
	// normal and overtime hours, truncated to whole pairs.
	NormalUnits []int
	ExtraUnits  []int
}

// RollUpFamilies aggregates the master plan production per family.
func RollUpFamilies(plan *domain.MasterPlan, catalog *domain.ReferenceCatalog, families []string) []FamilyProduction {
	out := make([]FamilyProduction, 0, len(families))
	for _, family := range families {
		fp := FamilyProduction{
			Family:      family,
			NormalUnits: make([]int, plan.Months),
			ExtraUnits:  make([]int, plan.Months),
		}
		normal := make([]float64, plan.Months)
		extra := make([]float64, plan.Months)
		for _, ref := range catalog.Families[family] {
			rows, ok := plan.ByReference[ref]
			if !ok {
				continue
			}
			for m := 0; m < plan.Months; m++ {
				normal[m] += rows[m].ProductionNormalHours
				extra[m] += rows[m].ProductionExtraHours
			}
		}
		// Truncate after summing so fractional pairs across references
		// still count toward the family total.
		for m := 0; m < plan.Months; m++ {
			fp.NormalUnits[m] = int(normal[m])
			fp.ExtraUnits[m] = int(extra[m])
		}
		out = append(out, fp)
	}
	return out
}
