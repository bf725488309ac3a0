package dataprocessing

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"soleplan/pkg/contracts/domain"
)

const defaultDailyHours = 8

// LoadBOMs reads the bill-of-materials workbook for a class. The first sheet
// carries one usage relation per row: parent, component, quantity. A workbook
// may describe several families; a family is any parent that never appears as
// a component.
func (l *Loader) LoadBOMs(path string) ([]domain.BOM, error) {
	rows, err := l.readSheet(path, "")
	if err != nil {
		return nil, err
	}
	cols, err := mapColumns(rows[0], "parent", "component", "quantity")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var edges []domain.BOMEdge
	isComponent := make(map[string]bool)
	for i, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		edge := domain.BOMEdge{
			Parent:    cell(row, cols["parent"]),
			Component: cell(row, cols["component"]),
		}
		if edge.Quantity, err = parseNumber(cell(row, cols["quantity"])); err != nil {
			return nil, fmt.Errorf("%s row %d: bad quantity: %w", path, i+2, err)
		}
		if edge.Parent == "" || edge.Component == "" {
			return nil, fmt.Errorf("%s row %d: parent and component are required", path, i+2)
		}
		if edge.Quantity <= 0 {
			return nil, fmt.Errorf("%s row %d: quantity must be positive", path, i+2)
		}
		edges = append(edges, edge)
		isComponent[edge.Component] = true
	}
	if len(edges) == 0 {
		return nil, fmt.Errorf("%s has no usage relations", path)
	}

	var families []string
	seen := make(map[string]bool)
	for _, e := range edges {
		if !isComponent[e.Parent] && !seen[e.Parent] {
			families = append(families, e.Parent)
			seen[e.Parent] = true
		}
	}

	boms := make([]domain.BOM, 0, len(families))
	for _, family := range families {
		bom := domain.BOM{Family: family, Data: make(map[string]domain.ComponentData)}
		bom.Items, bom.Edges = explode(family, edges)
		boms = append(boms, bom)
	}

	l.logger.Info("bill of materials loaded",
		slog.String("file", path),
		slog.Int("families", len(boms)),
		slog.Int("relations", len(edges)))
	return boms, nil
}

// explode collects the items reachable from the family root and orders them
// topologically, so every parent's requirements can be computed before the
// components that consume it. Ties keep discovery order.
func explode(family string, edges []domain.BOMEdge) ([]string, []domain.BOMEdge) {
	visited := map[string]bool{family: true}
	discovered := []string{family}
	var kept []domain.BOMEdge

	queue := []string{family}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, e := range edges {
			if e.Parent != parent {
				continue
			}
			kept = append(kept, e)
			if !visited[e.Component] {
				visited[e.Component] = true
				discovered = append(discovered, e.Component)
				queue = append(queue, e.Component)
			}
		}
	}

	// Kahn's algorithm over the reachable subgraph.
	inDegree := make(map[string]int, len(discovered))
	for _, e := range kept {
		inDegree[e.Component]++
	}
	var ready, items []string
	for _, item := range discovered {
		if inDegree[item] == 0 {
			ready = append(ready, item)
		}
	}
	for len(ready) > 0 {
		item := ready[0]
		ready = ready[1:]
		items = append(items, item)
		for _, e := range kept {
			if e.Parent != item {
				continue
			}
			inDegree[e.Component]--
			if inDegree[e.Component] == 0 {
				ready = append(ready, e.Component)
			}
		}
	}
	return items, kept
}

// LoadComponentData reads the inventory-policy workbook for a class. Expected
// columns: item, stock, safety_stock, lot_size, planned_receipt,
// receipt_period, order_cost, holding_cost.
func (l *Loader) LoadComponentData(path string) (map[string]domain.ComponentData, error) {
	rows, err := l.readSheet(path, "")
	if err != nil {
		return nil, err
	}
	cols, err := mapColumns(rows[0], "item", "stock", "safety_stock", "lot_size",
		"planned_receipt", "receipt_period", "order_cost", "holding_cost")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	data := make(map[string]domain.ComponentData)
	for i, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		cd := domain.ComponentData{Name: cell(row, cols["item"])}
		if cd.Name == "" {
			return nil, fmt.Errorf("%s row %d: item name is required", path, i+2)
		}
		fields := []struct {
			name string
			dst  *float64
		}{
			{"stock", &cd.Stock},
			{"safety_stock", &cd.SafetyStock},
			{"lot_size", &cd.LotSize},
			{"planned_receipt", &cd.PlannedReceipt},
			{"order_cost", &cd.OrderCost},
			{"holding_cost", &cd.HoldingCost},
		}
		for _, f := range fields {
			if *f.dst, err = parseNumber(cell(row, cols[f.name])); err != nil {
				return nil, fmt.Errorf("%s row %d: bad %s: %w", path, i+2, f.name, err)
			}
		}
		period, err := parseNumber(cell(row, cols["receipt_period"]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad receipt_period: %w", path, i+2, err)
		}
		cd.ReceiptPeriod = int(period)
		if cd.LotSize <= 0 {
			return nil, fmt.Errorf("%s row %d: lot size for %q must be positive", path, i+2, cd.Name)
		}
		data[cd.Name] = cd
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s has no policy rows", path)
	}
	return data, nil
}

// LoadOrders reads the flow-shop orders workbook. The "orders" sheet has an
// order column followed by one column of processing hours per machine, with
// machine names in the header. An optional "machines" sheet (machine and
// daily_hours columns) overrides the default daily hours.
func (l *Loader) LoadOrders(path string) (*domain.FlowShop, error) {
	rows, err := l.readSheet(path, "orders")
	if err != nil {
		return nil, err
	}
	header := rows[0]
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "order") {
		return nil, fmt.Errorf("%s: orders sheet must start with an order column followed by machines", path)
	}

	shop := &domain.FlowShop{}
	for _, name := range header[1:] {
		shop.Machines = append(shop.Machines, domain.Machine{
			Name:       strings.TrimSpace(name),
			DailyHours: defaultDailyHours,
		})
	}

	for i, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		order := domain.Order{Name: cell(row, 0)}
		for m := range shop.Machines {
			p, err := parseNumber(cell(row, m+1))
			if err != nil {
				return nil, fmt.Errorf("%s row %d: bad hours for machine %s: %w", path, i+2, shop.Machines[m].Name, err)
			}
			order.ProcessingTimes = append(order.ProcessingTimes, p)
		}
		shop.Orders = append(shop.Orders, order)
	}

	if err := l.applyMachineHours(path, shop); err != nil {
		return nil, err
	}
	if err := shop.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return shop, nil
}

func (l *Loader) applyMachineHours(path string, shop *domain.FlowShop) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows("machines")
	if err != nil || len(rows) < 2 {
		return nil // sheet is optional
	}
	cols, err := mapColumns(rows[0], "machine", "daily_hours")
	if err != nil {
		return fmt.Errorf("%s machines sheet: %w", path, err)
	}
	hours := make(map[string]float64)
	for i, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		h, err := parseNumber(cell(row, cols["daily_hours"]))
		if err != nil {
			return fmt.Errorf("%s machines sheet row %d: %w", path, i+2, err)
		}
		if h <= 0 {
			return fmt.Errorf("%s machines sheet row %d: daily hours must be positive", path, i+2)
		}
		hours[cell(row, cols["machine"])] = h
	}
	for m := range shop.Machines {
		if h, ok := hours[shop.Machines[m].Name]; ok {
			shop.Machines[m].DailyHours = h
		}
	}
	return nil
}

// readSheet opens a workbook and returns the rows of the named sheet, or of
// the first sheet when name is empty.
func (l *Loader) readSheet(path, name string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s has no sheets", path)
		}
		name = sheets[0]
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s of %s: %w", name, path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s of %s has no data rows", name, path)
	}
	return rows, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
