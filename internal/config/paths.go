package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the single source of truth for the file layout the pipeline
// reads from and writes to.
type Paths struct {
	DataDir    string
	InputsDir  string
	ReportsDir string
	LogsDir    string
}

// Well-known input file names inside InputsDir.
const (
	SalesHistoryFile = "monthly_sales.csv"
	StockFile        = "stock.csv"
	StandardTimeFile = "standard_time.csv"
	// HourCalendarPattern is formatted with the lowercase class name.
	HourCalendarPattern = "hours_available_%s.csv"
	// BOMPattern is the MRP bill-of-materials workbook per class.
	BOMPattern = "mrp_%s.xlsx"
	// ComponentDataPattern is the component inventory-policy workbook per class.
	ComponentDataPattern = "data_%s.xlsx"
	// OrdersFile is the optional flow-shop orders workbook.
	OrdersFile = "orders.xlsx"
)

// Well-known output file names inside ReportsDir.
const (
	ResultsPattern     = "results_%s.xlsx"
	ForecastCSV        = "forecasts.csv"
	ProfileReportHTML  = "profile_report.html"
	ProfileSummaryCSV  = "profile_summary.csv"
	ScheduleWorkbook   = "scheduling.xlsx"
)

// NewPaths builds a Paths from configuration.
func NewPaths(cfg PathsConfig) *Paths {
	return &Paths{
		DataDir:    cfg.DataDir,
		InputsDir:  cfg.InputsDir,
		ReportsDir: cfg.ReportsDir,
		LogsDir:    cfg.LogsDir,
	}
}

// EnsureDirectories creates every managed directory that does not exist yet.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.InputsDir, p.ReportsDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// InputPath resolves a file name inside the inputs directory.
func (p *Paths) InputPath(name string) string {
	return filepath.Join(p.InputsDir, name)
}

// ReportPath resolves a file name inside the reports directory.
func (p *Paths) ReportPath(name string) string {
	return filepath.Join(p.ReportsDir, name)
}

// LogPath resolves a file name inside the logs directory.
func (p *Paths) LogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}

// HourCalendarPath returns the hour calendar CSV for a class.
func (p *Paths) HourCalendarPath(class string) string {
	return p.InputPath(fmt.Sprintf(HourCalendarPattern, class))
}

// BOMPath returns the bill-of-materials workbook for a class.
func (p *Paths) BOMPath(class string) string {
	return p.InputPath(fmt.Sprintf(BOMPattern, class))
}

// ComponentDataPath returns the component policy workbook for a class.
func (p *Paths) ComponentDataPath(class string) string {
	return p.InputPath(fmt.Sprintf(ComponentDataPattern, class))
}

// ResultsPath returns the results workbook for a class.
func (p *Paths) ResultsPath(class string) string {
	return p.ReportPath(fmt.Sprintf(ResultsPattern, class))
}
