package domain

// HourKind distinguishes normal working hours from overtime.
type HourKind int

const (
	NormalHours HourKind = iota
	ExtraHours
)

// String returns the human-readable name of the hour kind.
func (k HourKind) String() string {
	switch k {
	case NormalHours:
		return "normal"
	case ExtraHours:
		return "extra"
	default:
		return "unknown"
	}
}

// AggregateRow is one month of the aggregate demand calculation for a reference.
type AggregateRow struct {
	Forecast         float64 `json:"forecast"`
	InitialInventory float64 `json:"initial_inventory"`
	FinalInventory   float64 `json:"final_inventory"`
	NetDemand        float64 `json:"net_demand"`
	AggregateDemand  float64 `json:"aggregate_demand"` // hours
}

// AggregatePlan is the aggregate production plan for one shoe class.
type AggregatePlan struct {
	Class string `json:"class"`
	// ByReference holds the per-month rows for each reference.
	ByReference map[string][]AggregateRow `json:"by_reference"`
	// TotalDemandPerMonth is the class-wide aggregate demand in hours.
	TotalDemandPerMonth []float64 `json:"total_demand_per_month"`
	Months              int       `json:"months"`
}

// HourAssignment is the solved hour-assignment model for one class: how many
// hours of each kind are worked each month, and how much of each month's
// demand each kind covers.
type HourAssignment struct {
	Class string `json:"class"`
	// DemandByKind[k][j] is the demand of month j satisfied with hours of kind k.
	DemandByKind [2][]float64 `json:"demand_by_kind"`
	// HoursByKind[k][i] is the hours of kind k worked in month i.
	HoursByKind [2][]float64 `json:"hours_by_kind"`
	// Cost is the optimal objective value.
	Cost float64 `json:"cost"`
}

// MasterPlanRow is one month of the master production schedule for a reference.
type MasterPlanRow struct {
	Forecast               float64 `json:"forecast"`
	InitialInventory       float64 `json:"initial_inventory"`
	AggregateDemand        float64 `json:"aggregate_demand"`
	DisaggregationPercent  float64 `json:"disaggregation_percent"`
	DisaggregationNormal   float64 `json:"disaggregation_normal_hours"`
	DisaggregationExtra    float64 `json:"disaggregation_extra_hours"`
	ProductionNormalHours  float64 `json:"production_normal_hours"` // units produced in normal hours
	ProductionExtraHours   float64 `json:"production_extra_hours"`  // units produced in overtime
	Deficit                float64 `json:"deficit"`
	LaborCost              float64 `json:"labor_cost"`
	RawMaterialCost        float64 `json:"raw_material_cost"`
	TotalManufacturingCost float64 `json:"total_manufacturing_cost"`
	InventoryCost          float64 `json:"inventory_cost"`
	DeficitCost            float64 `json:"deficit_cost"`
	Overrun                float64 `json:"overrun"`
	TotalOperationCost     float64 `json:"total_cost_operation"`
	TotalProductionCost    float64 `json:"total_production_cost"`
}

// MasterPlan is the master production schedule for one shoe class.
type MasterPlan struct {
	Class       string                     `json:"class"`
	ByReference map[string][]MasterPlanRow `json:"by_reference"`
	TotalCost   float64                    `json:"total_cost"`
	Months      int                        `json:"months"`
}

// ClassPlan bundles every planning artifact produced for a single shoe class.
type ClassPlan struct {
	Class      string          `json:"class"`
	Aggregate  *AggregatePlan  `json:"aggregate"`
	Assignment *HourAssignment `json:"assignment"`
	Master     *MasterPlan     `json:"master"`
	MRP        []MRPFamily     `json:"mrp,omitempty"`
}
