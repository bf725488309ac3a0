package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"soleplan/internal/validation"
	"soleplan/pkg/contracts/domain"
)

// monthLayout is the format of the month column in every CSV input.
const monthLayout = "2006-01"

// Loader reads and validates the CSV planning inputs.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to the default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadSalesHistory reads the monthly sales file and groups the records into
// one history per reference, months sorted ascending. Expected columns:
// reference, class, family, month (2006-01), quantity.
func (l *Loader) LoadSalesHistory(path string) ([]domain.SalesHistory, error) {
	rows, err := l.readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := mapColumns(rows[0], "reference", "class", "family", "month", "quantity")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	byRef := make(map[string][]domain.SalesRecord)
	var order []string
	for i, row := range rows[1:] {
		rec := domain.SalesRecord{
			Reference: strings.TrimSpace(row[cols["reference"]]),
			Class:     strings.ToLower(strings.TrimSpace(row[cols["class"]])),
			Family:    strings.TrimSpace(row[cols["family"]]),
		}
		rec.Month, err = time.Parse(monthLayout, strings.TrimSpace(row[cols["month"]]))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad month: %w", path, i+2, err)
		}
		rec.Quantity, err = parseNumber(row[cols["quantity"]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad quantity: %w", path, i+2, err)
		}
		if !rec.IsValid() {
			return nil, fmt.Errorf("%s line %d: invalid sales record for %q", path, i+2, rec.Reference)
		}
		if _, seen := byRef[rec.Reference]; !seen {
			order = append(order, rec.Reference)
		}
		byRef[rec.Reference] = append(byRef[rec.Reference], rec)
	}

	histories := make([]domain.SalesHistory, 0, len(order))
	for _, ref := range order {
		records := byRef[ref]
		sort.Slice(records, func(a, b int) bool { return records[a].Month.Before(records[b].Month) })
		h := domain.SalesHistory{
			Reference: ref,
			Class:     records[0].Class,
			Family:    records[0].Family,
		}
		for _, rec := range records {
			h.Months = append(h.Months, rec.Month)
			h.Quantities = append(h.Quantities, rec.Quantity)
		}
		histories = append(histories, h)
	}

	l.logger.Info("sales history loaded",
		slog.String("file", path),
		slog.Int("references", len(histories)),
		slog.Int("records", len(rows)-1))
	return histories, nil
}

// LoadStock reads the opening inventory file. Expected columns:
// reference, final_inventory.
func (l *Loader) LoadStock(path string) (map[string]domain.StockLevel, error) {
	rows, err := l.readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := mapColumns(rows[0], "reference", "final_inventory")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	stock := make(map[string]domain.StockLevel, len(rows)-1)
	for i, row := range rows[1:] {
		ref := strings.TrimSpace(row[cols["reference"]])
		inv, err := parseNumber(row[cols["final_inventory"]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad final_inventory: %w", path, i+2, err)
		}
		if _, dup := stock[ref]; dup {
			return nil, fmt.Errorf("%s line %d: duplicate reference %q", path, i+2, ref)
		}
		stock[ref] = domain.StockLevel{Reference: ref, FinalInventory: inv}
	}
	return stock, nil
}

// LoadStandardTimes reads the standard time and unit cost table. Expected
// columns: reference, standard_time_per_unit, cost_per_unit.
func (l *Loader) LoadStandardTimes(path string) (map[string]domain.StandardTime, error) {
	rows, err := l.readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := mapColumns(rows[0], "reference", "standard_time_per_unit", "cost_per_unit")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	times := make(map[string]domain.StandardTime, len(rows)-1)
	for i, row := range rows[1:] {
		ref := strings.TrimSpace(row[cols["reference"]])
		st := domain.StandardTime{Reference: ref}
		if st.StandardTimePerUnit, err = parseNumber(row[cols["standard_time_per_unit"]]); err != nil {
			return nil, fmt.Errorf("%s line %d: bad standard_time_per_unit: %w", path, i+2, err)
		}
		if st.CostPerUnit, err = parseNumber(row[cols["cost_per_unit"]]); err != nil {
			return nil, fmt.Errorf("%s line %d: bad cost_per_unit: %w", path, i+2, err)
		}
		if st.StandardTimePerUnit <= 0 {
			return nil, fmt.Errorf("%s line %d: standard time for %q must be positive", path, i+2, ref)
		}
		times[ref] = st
	}
	return times, nil
}

// LoadHourCalendar reads the monthly hour availability and cost table for one
// class. Expected columns: month, cost_per_hour, cost_per_extra_hour,
// hours_available, extra_hours_available; rows are months in order.
func (l *Loader) LoadHourCalendar(path, class string) (*domain.HourCalendar, error) {
	rows, err := l.readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := mapColumns(rows[0],
		"month", "cost_per_hour", "cost_per_extra_hour", "hours_available", "extra_hours_available")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cal := &domain.HourCalendar{Class: class}
	for i, row := range rows[1:] {
		fields := []struct {
			name string
			dst  *[]float64
		}{
			{"cost_per_hour", &cal.CostPerHour},
			{"cost_per_extra_hour", &cal.CostPerExtraHour},
			{"hours_available", &cal.HoursAvailable},
			{"extra_hours_available", &cal.ExtraHoursAvailable},
		}
		for _, f := range fields {
			v, err := parseNumber(row[cols[f.name]])
			if err != nil {
				return nil, fmt.Errorf("%s line %d: bad %s: %w", path, i+2, f.name, err)
			}
			*f.dst = append(*f.dst, v)
		}
	}
	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cal, nil
}

// BuildCatalog groups the sales references of one class into families.
func BuildCatalog(histories []domain.SalesHistory, class string) *domain.ReferenceCatalog {
	catalog := &domain.ReferenceCatalog{Class: class, Families: make(map[string][]string)}
	for _, h := range histories {
		if h.Class != class {
			continue
		}
		catalog.Families[h.Family] = append(catalog.Families[h.Family], h.Reference)
	}
	return catalog
}

// readCSV validates the file encoding, then reads every record. The returned
// slice always has a header row and at least one data row.
func (l *Loader) readCSV(path string) ([][]string, error) {
	if err := validation.ValidateUTF8File(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s has no data rows", path)
	}
	return rows, nil
}

// mapColumns resolves the index of each required header, case-insensitively.
func mapColumns(header []string, required ...string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return cols, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
