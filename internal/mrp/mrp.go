// Package mrp computes the material requirements plan: starting from the
// master plan's production per family, it explodes the bill of materials and
// derives period-by-period net requirements, lot-sized order receipts, order
// releases one period ahead, and the inventory management costs.
package mrp

import (
	"fmt"
	"log/slog"
	"math"

	"soleplan/pkg/contracts/domain"
)

// Inputs is one MRP run for a single product family.
type Inputs struct {
	// Months is the planning horizon; tables carry Months+1 periods, with
	// period 0 holding only the opening stock.
	Months int
	// BOM is the family's bill of materials with the component policies in
	// BOM.Data.
	BOM domain.BOM
	// FamilyGross[m] is the family's gross requirement for month m+1, the
	// production of every reference of the family from the master plan.
	FamilyGross []float64
}

// FamilyGrossRequirements sums the master plan production of the family's
// references per month.
func FamilyGrossRequirements(plan *domain.MasterPlan, refs []string) []float64 {
	gross := make([]float64, plan.Months)
	for _, ref := range refs {
		rows, ok := plan.ByReference[ref]
		if !ok {
			continue
		}
		for m := 0; m < plan.Months; m++ {
			gross[m] += rows[m].ProductionNormalHours + rows[m].ProductionExtraHours
		}
	}
	for m := range gross {
		gross[m] = round1(gross[m])
	}
	return gross
}

// Build runs the requirements explosion. Items are processed in the BOM's
// explosion order, so every parent's order releases exist before the
// components that consume them.
func Build(in Inputs, logger *slog.Logger) (*domain.MRPFamily, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if in.Months <= 0 {
		return nil, fmt.Errorf("mrp horizon must be positive, got %d", in.Months)
	}
	if len(in.FamilyGross) != in.Months {
		return nil, fmt.Errorf("family %s gross requirements cover %d months, expected %d",
			in.BOM.Family, len(in.FamilyGross), in.Months)
	}

	result := &domain.MRPFamily{Family: in.BOM.Family}
	tables := make(map[string]*domain.MRPTable, len(in.BOM.Items))

	for _, item := range in.BOM.Items {
		data, ok := in.BOM.Data[item]
		if !ok {
			return nil, fmt.Errorf("item %s of family %s has no inventory policy", item, in.BOM.Family)
		}

		table := &domain.MRPTable{Item: item, Rows: make([]domain.MRPRow, in.Months+1)}
		if item == in.BOM.Family {
			for m := 0; m < in.Months; m++ {
				table.Rows[m+1].GrossRequirement = in.FamilyGross[m]
			}
		} else {
			for m := 1; m <= in.Months; m++ {
				var gross float64
				for _, e := range in.BOM.Edges {
					if e.Component != item {
						continue
					}
					parent, ok := tables[e.Parent]
					if !ok {
						return nil, fmt.Errorf("component %s of family %s depends on %s, which is not planned yet",
							item, in.BOM.Family, e.Parent)
					}
					gross += e.Quantity * parent.Rows[m].OrderRelease
				}
				table.Rows[m].GrossRequirement = round1(gross)
			}
		}

		fillTable(table, data, in.Months)
		tables[item] = table
		result.Tables = append(result.Tables, *table)
	}

	logger.Debug("material requirements planned",
		slog.String("family", in.BOM.Family),
		slog.Int("items", len(result.Tables)))
	return result, nil
}

// fillTable walks the periods forward computing net requirements, lot-sized
// receipts, releases one period ahead of the receipt, the resulting stock,
// and the period costs.
func fillTable(table *domain.MRPTable, data domain.ComponentData, months int) {
	table.Rows[0].Stock = round1(data.Stock)
	if data.ReceiptPeriod >= 0 && data.ReceiptPeriod <= months && data.PlannedReceipt > 0 {
		table.Rows[data.ReceiptPeriod].PlannedReceipt = round1(data.PlannedReceipt)
	}

	for m := 1; m <= months; m++ {
		row := &table.Rows[m]
		prevStock := table.Rows[m-1].Stock

		net := round1(row.GrossRequirement + data.SafetyStock - prevStock - row.PlannedReceipt)
		if net < 0 {
			net = 0
		}
		row.NetRequirement = net

		receipt := round1(math.Ceil(net/data.LotSize) * data.LotSize)
		row.OrderReceipt = receipt
		table.Rows[m-1].OrderRelease = receipt

		row.Stock = round1(prevStock + receipt - row.GrossRequirement + row.PlannedReceipt)
	}

	for m := 1; m <= months; m++ {
		row := &table.Rows[m]
		if row.OrderRelease > 0 {
			row.SetupCost = round1(data.OrderCost)
		}
		row.MaintenanceCost = round1(row.Stock * data.HoldingCost)
		row.InventoryManagement = row.SetupCost + row.MaintenanceCost
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
