package exporter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"soleplan/internal/masterplan"
	"soleplan/pkg/contracts/domain"
)

// WorkbookInputs is everything the per-class results workbook renders.
type WorkbookInputs struct {
	Plan    *domain.ClassPlan
	Catalog *domain.ReferenceCatalog
	// Families fixes the family sheet order.
	Families []string
	// Schedule is optional; when present a scheduling sheet is added.
	Schedule *domain.ScheduleResult
	// Shop supplies the machine names for the scheduling sheet.
	Shop *domain.FlowShop
}

// WriteResultsWorkbook renders the class plan into an Excel workbook with one
// sheet per planning stage.
func WriteResultsWorkbook(path string, in WorkbookInputs, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if in.Plan == nil {
		return fmt.Errorf("results workbook needs a class plan")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeAggregateSheets(f, in.Plan); err != nil {
		return err
	}
	if err := writeAssignmentSheet(f, in.Plan); err != nil {
		return err
	}
	if err := writeMasterSheets(f, in); err != nil {
		return err
	}
	if err := writeMRPSheets(f, in.Plan); err != nil {
		return err
	}
	if in.Schedule != nil {
		if err := writeScheduleSheet(f, in.Schedule, in.Shop); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	logger.Info("results workbook written",
		slog.String("file", path),
		slog.String("class", in.Plan.Class))
	return nil
}

// WriteScheduleWorkbook renders a flow-shop schedule into its own workbook,
// used when scheduling runs without the full planning pipeline.
func WriteScheduleWorkbook(path string, result *domain.ScheduleResult, shop *domain.FlowShop, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if result == nil {
		return fmt.Errorf("schedule workbook needs a schedule result")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeScheduleSheet(f, result, shop); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	logger.Info("schedule workbook written",
		slog.String("file", path),
		slog.String("method", result.Method))
	return nil
}

func monthHeaders(label string, months int, extra ...string) []interface{} {
	row := []interface{}{label}
	for m := 1; m <= months; m++ {
		row = append(row, fmt.Sprintf("month_%d", m))
	}
	for _, e := range extra {
		row = append(row, e)
	}
	return row
}

func setRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	addr, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, addr, &values)
}

func addSheet(f *excelize.File, name string) error {
	_, err := f.NewSheet(name)
	return err
}

// sortedReferences fixes the row order of per-reference sheets.
func sortedReferences[T any](byRef map[string][]T) []string {
	refs := make([]string, 0, len(byRef))
	for ref := range byRef {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

func writeAggregateSheets(f *excelize.File, plan *domain.ClassPlan) error {
	agg := plan.Aggregate
	if agg == nil {
		return fmt.Errorf("class %s has no aggregate plan to export", plan.Class)
	}

	const totals = "agg_prod_plan"
	if err := addSheet(f, totals); err != nil {
		return err
	}
	if err := setRow(f, totals, 1, monthHeaders("class", agg.Months)); err != nil {
		return err
	}
	row := []interface{}{agg.Class}
	for _, v := range agg.TotalDemandPerMonth {
		row = append(row, v)
	}
	if err := setRow(f, totals, 2, row); err != nil {
		return err
	}

	const byRef = "agg_by_reference"
	if err := addSheet(f, byRef); err != nil {
		return err
	}
	header := []interface{}{"reference", "month", "forecasting", "initial_inventory",
		"final_inventory", "net_demand", "aggregate_demand"}
	if err := setRow(f, byRef, 1, header); err != nil {
		return err
	}
	line := 2
	for _, ref := range sortedReferences(agg.ByReference) {
		for m, r := range agg.ByReference[ref] {
			values := []interface{}{ref, m + 1, r.Forecast, r.InitialInventory,
				r.FinalInventory, r.NetDemand, r.AggregateDemand}
			if err := setRow(f, byRef, line, values); err != nil {
				return err
			}
			line++
		}
	}
	return nil
}

func writeAssignmentSheet(f *excelize.File, plan *domain.ClassPlan) error {
	assignment := plan.Assignment
	if assignment == nil {
		return fmt.Errorf("class %s has no hour assignment to export", plan.Class)
	}

	const sheet = "time_assignation"
	if err := addSheet(f, sheet); err != nil {
		return err
	}
	months := len(assignment.DemandByKind[domain.NormalHours])
	if err := setRow(f, sheet, 1, monthHeaders("series", months)); err != nil {
		return err
	}
	series := []struct {
		label  string
		values []float64
	}{
		{"demand_normal_hours", assignment.DemandByKind[domain.NormalHours]},
		{"demand_extra_hours", assignment.DemandByKind[domain.ExtraHours]},
		{"worked_normal_hours", assignment.HoursByKind[domain.NormalHours]},
		{"worked_extra_hours", assignment.HoursByKind[domain.ExtraHours]},
	}
	for i, s := range series {
		row := []interface{}{s.label}
		for _, v := range s.values {
			row = append(row, v)
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return setRow(f, sheet, len(series)+2, []interface{}{"total_cost", assignment.Cost})
}

func writeMasterSheets(f *excelize.File, in WorkbookInputs) error {
	master := in.Plan.Master
	if master == nil {
		return fmt.Errorf("class %s has no master plan to export", in.Plan.Class)
	}

	// Family production rollup, normal and extra rows per family plus totals.
	const sheet = "prod_master_plan"
	if err := addSheet(f, sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, monthHeaders("family_production", master.Months)); err != nil {
		return err
	}
	line := 2
	totalNormal := make([]int, master.Months)
	totalExtra := make([]int, master.Months)
	for _, fp := range masterplan.RollUpFamilies(master, in.Catalog, in.Families) {
		normalRow := []interface{}{fp.Family + " production normal hours"}
		extraRow := []interface{}{fp.Family + " production extra hours"}
		for m := 0; m < master.Months; m++ {
			normalRow = append(normalRow, fp.NormalUnits[m])
			extraRow = append(extraRow, fp.ExtraUnits[m])
			totalNormal[m] += fp.NormalUnits[m]
			totalExtra[m] += fp.ExtraUnits[m]
		}
		if err := setRow(f, sheet, line, normalRow); err != nil {
			return err
		}
		if err := setRow(f, sheet, line+1, extraRow); err != nil {
			return err
		}
		line += 2
	}
	normalRow := []interface{}{"Total production normal hours"}
	extraRow := []interface{}{"Total production extra hours"}
	for m := 0; m < master.Months; m++ {
		normalRow = append(normalRow, totalNormal[m])
		extraRow = append(extraRow, totalExtra[m])
	}
	if err := setRow(f, sheet, line, normalRow); err != nil {
		return err
	}
	if err := setRow(f, sheet, line+1, extraRow); err != nil {
		return err
	}

	// Full cost sheet per reference and month.
	const detail = "master_by_reference"
	if err := addSheet(f, detail); err != nil {
		return err
	}
	header := []interface{}{"reference", "month", "forecasting", "initial_inventory",
		"aggregate_demand", "disaggregation_percent", "disaggregation_normal_hours",
		"disaggregation_extra_hours", "production_normal_hours", "production_extra_hours",
		"deficit", "labor_cost", "raw_material_cost", "total_manufacturing_cost",
		"inventory_cost", "deficit_cost", "overrun", "total_cost_operation",
		"total_production_cost"}
	if err := setRow(f, detail, 1, header); err != nil {
		return err
	}
	line = 2
	for _, ref := range sortedReferences(master.ByReference) {
		for m, r := range master.ByReference[ref] {
			values := []interface{}{ref, m + 1, r.Forecast, r.InitialInventory,
				r.AggregateDemand, r.DisaggregationPercent, r.DisaggregationNormal,
				r.DisaggregationExtra, r.ProductionNormalHours, r.ProductionExtraHours,
				r.Deficit, r.LaborCost, r.RawMaterialCost, r.TotalManufacturingCost,
				r.InventoryCost, r.DeficitCost, r.Overrun, r.TotalOperationCost,
				r.TotalProductionCost}
			if err := setRow(f, detail, line, values); err != nil {
				return err
			}
			line++
		}
	}
	return setRow(f, detail, line, []interface{}{"total_cost", "", master.TotalCost})
}

func writeMRPSheets(f *excelize.File, plan *domain.ClassPlan) error {
	for _, family := range plan.MRP {
		sheet := orderReleaseSheetName(family.Family)
		if err := addSheet(f, sheet); err != nil {
			return err
		}
		periods := 0
		if len(family.Tables) > 0 {
			periods = len(family.Tables[0].Rows)
		}
		header := []interface{}{"component"}
		for p := 0; p < periods; p++ {
			header = append(header, fmt.Sprintf("month_%d", p))
		}
		header = append(header, "total_inventory_management_cost")
		if err := setRow(f, sheet, 1, header); err != nil {
			return err
		}
		for i, table := range family.Tables {
			row := []interface{}{table.Item}
			for _, r := range table.Rows {
				row = append(row, r.OrderRelease)
			}
			row = append(row, table.TotalInventoryManagementCost())
			if err := setRow(f, sheet, i+2, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// orderReleaseSheetName mirrors the order release plan resume naming.
func orderReleaseSheetName(family string) string {
	return "o_r_p_r_" + strings.ToLower(strings.ReplaceAll(family, " ", "_"))
}

func writeScheduleSheet(f *excelize.File, result *domain.ScheduleResult, shop *domain.FlowShop) error {
	const sheet = "scheduling"
	if err := addSheet(f, sheet); err != nil {
		return err
	}

	machineName := func(m int) string {
		if shop != nil && m < len(shop.Machines) {
			return shop.Machines[m].Name
		}
		return fmt.Sprintf("machine_%d", m+1)
	}

	header := []interface{}{"order"}
	machines := 0
	if len(result.Orders) > 0 {
		machines = len(result.Orders[0].Completion)
	}
	for m := 0; m < machines; m++ {
		header = append(header,
			machineName(m)+"_start",
			machineName(m)+"_completion",
			machineName(m)+"_finish_day")
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	for i, o := range result.Orders {
		row := []interface{}{o.Order}
		for m := 0; m < machines; m++ {
			row = append(row, o.Start[m], o.Completion[m], o.FinishDay[m])
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	summary := len(result.Orders) + 3
	if err := setRow(f, sheet, summary, []interface{}{"makespan", result.Makespan}); err != nil {
		return err
	}
	if err := setRow(f, sheet, summary+1, []interface{}{"lower_bound", result.LowerBound}); err != nil {
		return err
	}
	return setRow(f, sheet, summary+2, []interface{}{"method", result.Method})
}
