package mrp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soleplan/pkg/contracts/domain"
)

func fixtureBOM() domain.BOM {
	return domain.BOM{
		Family: "bota",
		Items:  []string{"bota", "suela"},
		Edges: []domain.BOMEdge{
			{Parent: "bota", Component: "suela", Quantity: 2},
		},
		Data: map[string]domain.ComponentData{
			"bota": {
				Name: "bota", Stock: 50, SafetyStock: 10, LotSize: 25,
				OrderCost: 300, HoldingCost: 0.5,
			},
			"suela": {
				Name: "suela", Stock: 100, SafetyStock: 0, LotSize: 200,
				OrderCost: 150, HoldingCost: 0.1,
			},
		},
	}
}

func TestBuild_FamilyTable(t *testing.T) {
	in := Inputs{
		Months:      3,
		BOM:         fixtureBOM(),
		FamilyGross: []float64{60, 90, 40},
	}

	result, err := Build(in, nil)
	require.NoError(t, err)
	require.Len(t, result.Tables, 2)

	family := result.Tables[0]
	assert.Equal(t, "bota", family.Item)
	require.Len(t, family.Rows, 4)

	// Period 0 only carries the opening stock.
	assert.Equal(t, 50.0, family.Rows[0].Stock)
	assert.Equal(t, 0.0, family.Rows[0].GrossRequirement)

	// Period 1: net = 60 + 10 - 50 = 20, receipt rounds up to 25.
	assert.Equal(t, 60.0, family.Rows[1].GrossRequirement)
	assert.Equal(t, 20.0, family.Rows[1].NetRequirement)
	assert.Equal(t, 25.0, family.Rows[1].OrderReceipt)
	assert.Equal(t, 15.0, family.Rows[1].Stock) // 50 + 25 - 60

	// The release for a receipt lands one period earlier.
	assert.Equal(t, 25.0, family.Rows[0].OrderRelease)

	// Period 2: net = 90 + 10 - 15 = 85, receipt 100, stock 25.
	assert.Equal(t, 85.0, family.Rows[2].NetRequirement)
	assert.Equal(t, 100.0, family.Rows[2].OrderReceipt)
	assert.Equal(t, 25.0, family.Rows[2].Stock)
	assert.Equal(t, 100.0, family.Rows[1].OrderRelease)
}

func TestBuild_StockIdentity(t *testing.T) {
	in := Inputs{
		Months:      4,
		BOM:         fixtureBOM(),
		FamilyGross: []float64{37.5, 81.2, 12.9, 55},
	}

	result, err := Build(in, nil)
	require.NoError(t, err)

	for _, table := range result.Tables {
		for m := 1; m < len(table.Rows); m++ {
			row := table.Rows[m]
			want := table.Rows[m-1].Stock + row.OrderReceipt - row.GrossRequirement + row.PlannedReceipt
			assert.InDelta(t, want, row.Stock, 0.051, "item %s period %d", table.Item, m)
		}
	}
}

func TestBuild_ReceiptsAreLotMultiples(t *testing.T) {
	in := Inputs{
		Months:      4,
		BOM:         fixtureBOM(),
		FamilyGross: []float64{33.3, 47, 91.8, 12},
	}

	result, err := Build(in, nil)
	require.NoError(t, err)

	for _, table := range result.Tables {
		lot := in.BOM.Data[table.Item].LotSize
		for _, row := range table.Rows {
			lots := row.OrderReceipt / lot
			assert.InDelta(t, math.Round(lots), lots, 1e-9,
				"item %s receipt %.1f not a multiple of %.1f", table.Item, row.OrderReceipt, lot)
		}
	}
}

func TestBuild_ComponentExplosion(t *testing.T) {
	in := Inputs{
		Months:      3,
		BOM:         fixtureBOM(),
		FamilyGross: []float64{60, 90, 40},
	}

	result, err := Build(in, nil)
	require.NoError(t, err)

	family := result.Tables[0]
	component := result.Tables[1]
	assert.Equal(t, "suela", component.Item)

	// Two soles per released pair, driven by the family's release plan.
	for m := 1; m <= in.Months; m++ {
		assert.InDelta(t, 2*family.Rows[m].OrderRelease, component.Rows[m].GrossRequirement, 1e-9,
			"period %d", m)
	}
}

func TestBuild_PlannedReceiptReducesNet(t *testing.T) {
	bom := fixtureBOM()
	data := bom.Data["bota"]
	data.PlannedReceipt = 30
	data.ReceiptPeriod = 1
	bom.Data["bota"] = data

	in := Inputs{Months: 2, BOM: bom, FamilyGross: []float64{60, 60}}
	result, err := Build(in, nil)
	require.NoError(t, err)

	row := result.Tables[0].Rows[1]
	assert.Equal(t, 30.0, row.PlannedReceipt)
	// net = 60 + 10 - 50 - 30 < 0, clamped to zero.
	assert.Equal(t, 0.0, row.NetRequirement)
	assert.Equal(t, 0.0, row.OrderReceipt)
	assert.Equal(t, 20.0, row.Stock) // 50 - 60 + 30
}

func TestBuild_Costs(t *testing.T) {
	in := Inputs{
		Months:      3,
		BOM:         fixtureBOM(),
		FamilyGross: []float64{60, 90, 40},
	}

	result, err := Build(in, nil)
	require.NoError(t, err)

	family := result.Tables[0]
	for m := 1; m <= in.Months; m++ {
		row := family.Rows[m]
		if row.OrderRelease > 0 {
			assert.Equal(t, 300.0, row.SetupCost, "period %d", m)
		} else {
			assert.Equal(t, 0.0, row.SetupCost, "period %d", m)
		}
		assert.InDelta(t, round1(row.Stock*0.5), row.MaintenanceCost, 1e-9)
		assert.InDelta(t, row.SetupCost+row.MaintenanceCost, row.InventoryManagement, 1e-9)
	}
	assert.Greater(t, family.TotalInventoryManagementCost(), 0.0)
}

func TestBuild_Errors(t *testing.T) {
	t.Run("bad horizon", func(t *testing.T) {
		_, err := Build(Inputs{Months: 0, BOM: fixtureBOM()}, nil)
		assert.ErrorContains(t, err, "horizon")
	})

	t.Run("mismatched gross", func(t *testing.T) {
		_, err := Build(Inputs{Months: 3, BOM: fixtureBOM(), FamilyGross: []float64{1}}, nil)
		assert.ErrorContains(t, err, "gross requirements")
	})

	t.Run("missing policy", func(t *testing.T) {
		bom := fixtureBOM()
		delete(bom.Data, "suela")
		_, err := Build(Inputs{Months: 2, BOM: bom, FamilyGross: []float64{10, 10}}, nil)
		assert.ErrorContains(t, err, "no inventory policy")
	})
}

func TestFamilyGrossRequirements(t *testing.T) {
	plan := &domain.MasterPlan{
		Class:  "argyll",
		Months: 2,
		ByReference: map[string][]domain.MasterPlanRow{
			"R101": {
				{ProductionNormalHours: 10.24, ProductionExtraHours: 2},
				{ProductionNormalHours: 5, ProductionExtraHours: 0},
			},
			"R102": {
				{ProductionNormalHours: 7, ProductionExtraHours: 1.5},
				{ProductionNormalHours: 3, ProductionExtraHours: 0},
			},
		},
	}

	gross := FamilyGrossRequirements(plan, []string{"R101", "R102"})
	assert.Equal(t, []float64{20.7, 8}, gross)
}
