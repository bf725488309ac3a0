package domain

// ComponentData carries the inventory policy for one item (finished family or
// raw component) in the material requirements plan.
type ComponentData struct {
	Name           string  `json:"name"`
	Stock          float64 `json:"stock"`
	SafetyStock    float64 `json:"safety_stock"`
	LotSize        float64 `json:"lot_size"`
	PlannedReceipt float64 `json:"planned_receipt"`
	ReceiptPeriod  int     `json:"receipt_period"` // 1-based period of the planned receipt
	OrderCost      float64 `json:"order_cost"`     // setup / enlistment cost per release
	HoldingCost    float64 `json:"holding_cost"`   // per unit held per period
}

// BOMEdge is one usage relation in a bill of materials: Quantity units of
// Component are consumed per released unit of Parent.
type BOMEdge struct {
	Parent    string  `json:"parent"`
	Component string  `json:"component"`
	Quantity  float64 `json:"quantity"`
}

// BOM is the bill of materials for one product family. The family itself is
// the root item; edges describe component usage, which may be nested
// (component of a component).
type BOM struct {
	Family string                   `json:"family"`
	Items  []string                 `json:"items"` // explosion order: family first, then components
	Edges  []BOMEdge                `json:"edges"`
	Data   map[string]ComponentData `json:"data"`
}

// MRPRow is one period of the requirements table for a single item.
// Period 0 carries only the opening stock.
type MRPRow struct {
	GrossRequirement    float64 `json:"gross_requirement"`
	PlannedReceipt      float64 `json:"planned_reception"`
	Stock               float64 `json:"stock"`
	NetRequirement      float64 `json:"net_requirement"`
	OrderReceipt        float64 `json:"order_receiving_plan"`
	OrderRelease        float64 `json:"order_release_plan"`
	SetupCost           float64 `json:"setup_cost"`
	MaintenanceCost     float64 `json:"maintenance_cost"`
	InventoryManagement float64 `json:"inventory_management_cost"`
}

// MRPTable is the full requirements table for one item.
type MRPTable struct {
	Item string   `json:"item"`
	Rows []MRPRow `json:"rows"` // index is the period, 0..months
}

// TotalInventoryManagementCost sums the inventory management cost over all periods.
func (t MRPTable) TotalInventoryManagementCost() float64 {
	var total float64
	for _, row := range t.Rows {
		total += row.InventoryManagement
	}
	return total
}

// MRPFamily groups the requirement tables of a family and its components,
// in explosion order.
type MRPFamily struct {
	Family string     `json:"family"`
	Tables []MRPTable `json:"tables"`
}
