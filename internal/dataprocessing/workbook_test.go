package dataprocessing

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"soleplan/pkg/contracts/domain"
)

func writeWorkbook(t *testing.T, name string, sheets map[string][][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for sheet, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", sheet))
			first = false
		} else {
			_, err := f.NewSheet(sheet)
			require.NoError(t, err)
		}
		for i, row := range rows {
			addr, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, addr, &row))
		}
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLoadBOMs(t *testing.T) {
	path := writeWorkbook(t, "mrp_argyll.xlsx", map[string][][]interface{}{
		"bom": {
			{"parent", "component", "quantity"},
			{"bota", "suela", 1},
			{"bota", "cordon", 2},
			{"suela", "caucho", 0.3},
			{"mocasin", "suela", 1},
		},
	})

	boms, err := NewLoader(nil).LoadBOMs(path)
	require.NoError(t, err)
	require.Len(t, boms, 2)

	bota := boms[0]
	assert.Equal(t, "bota", bota.Family)
	assert.Equal(t, []string{"bota", "suela", "cordon", "caucho"}, bota.Items)
	require.Len(t, bota.Edges, 3)
	assert.Equal(t, 2.0, bota.Edges[1].Quantity)

	mocasin := boms[1]
	assert.Equal(t, "mocasin", mocasin.Family)
	// The shared component and its own components are reachable too.
	assert.Equal(t, []string{"mocasin", "suela", "caucho"}, mocasin.Items)
}

func TestLoadBOMs_RejectsBadRows(t *testing.T) {
	loader := NewLoader(nil)

	t.Run("zero quantity", func(t *testing.T) {
		path := writeWorkbook(t, "mrp.xlsx", map[string][][]interface{}{
			"bom": {
				{"parent", "component", "quantity"},
				{"bota", "suela", 0},
			},
		})
		_, err := loader.LoadBOMs(path)
		assert.ErrorContains(t, err, "quantity must be positive")
	})

	t.Run("missing component", func(t *testing.T) {
		path := writeWorkbook(t, "mrp.xlsx", map[string][][]interface{}{
			"bom": {
				{"parent", "component", "quantity"},
				{"bota", "", 1},
			},
		})
		_, err := loader.LoadBOMs(path)
		assert.ErrorContains(t, err, "required")
	})
}

func TestLoadComponentData(t *testing.T) {
	path := writeWorkbook(t, "data_argyll.xlsx", map[string][][]interface{}{
		"data": {
			{"item", "stock", "safety_stock", "lot_size", "planned_receipt", "receipt_period", "order_cost", "holding_cost"},
			{"bota", 50, 10, 25, 100, 2, 300, 0.5},
			{"suela", 200, 0, 500, 0, 0, 150, 0.1},
		},
	})

	data, err := NewLoader(nil).LoadComponentData(path)
	require.NoError(t, err)
	require.Len(t, data, 2)

	bota := data["bota"]
	assert.Equal(t, 50.0, bota.Stock)
	assert.Equal(t, 25.0, bota.LotSize)
	assert.Equal(t, 100.0, bota.PlannedReceipt)
	assert.Equal(t, 2, bota.ReceiptPeriod)
	assert.Equal(t, 300.0, bota.OrderCost)
	assert.Equal(t, 0.5, bota.HoldingCost)
}

func TestLoadComponentData_RejectsZeroLot(t *testing.T) {
	path := writeWorkbook(t, "data.xlsx", map[string][][]interface{}{
		"data": {
			{"item", "stock", "safety_stock", "lot_size", "planned_receipt", "receipt_period", "order_cost", "holding_cost"},
			{"bota", 50, 10, 0, 0, 0, 300, 0.5},
		},
	})
	_, err := NewLoader(nil).LoadComponentData(path)
	assert.ErrorContains(t, err, "lot size")
}

func TestLoadOrders(t *testing.T) {
	path := writeWorkbook(t, "orders.xlsx", map[string][][]interface{}{
		"orders": {
			{"order", "corte", "montaje", "acabado"},
			{"P1", 4, 3, 2},
			{"P2", 1, 2, 5},
		},
		"machines": {
			{"machine", "daily_hours"},
			{"corte", 8},
			{"montaje", 6},
		},
	})

	shop, err := NewLoader(nil).LoadOrders(path)
	require.NoError(t, err)
	require.Len(t, shop.Orders, 2)
	require.Len(t, shop.Machines, 3)

	assert.Equal(t, domain.Order{Name: "P1", ProcessingTimes: []float64{4, 3, 2}}, shop.Orders[0])
	assert.Equal(t, 6.0, shop.Machines[1].DailyHours)
	// Machines missing from the hours sheet keep the default.
	assert.Equal(t, 8.0, shop.Machines[2].DailyHours)
}

func TestLoadOrders_BadHeader(t *testing.T) {
	path := writeWorkbook(t, "orders.xlsx", map[string][][]interface{}{
		"orders": {
			{"job", "corte"},
			{"P1", 4},
		},
	})
	_, err := NewLoader(nil).LoadOrders(path)
	assert.ErrorContains(t, err, "order column")
}
