// Package exporter renders the planning results: CSV files for flat series
// and an Excel workbook per shoe class with one sheet per planning stage.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"soleplan/internal/config"
	"soleplan/internal/dataprocessing"
	"soleplan/pkg/contracts/domain"
)

// CSVWriter writes CSV reports under the reports directory.
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer.
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM so Excel opens the file correctly
}

// WriteCSV writes a report file with the given options.
func (w *CSVWriter) WriteCSV(name string, options WriteOptions) error {
	fullPath := w.paths.ReportPath(name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", fullPath, err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write byte order mark: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	slog.Info("csv report written",
		slog.String("file", fullPath),
		slog.Int("records", len(options.Records)))
	return writer.Error()
}

// WriteForecasts writes every reference's forecast with the selected model
// and its holdout error.
func (w *CSVWriter) WriteForecasts(series []domain.ForecastSeries) error {
	var horizon int
	if len(series) > 0 {
		horizon = series[0].Horizon
	}
	headers := []string{"reference", "model", "metric", "holdout_error"}
	for m := 1; m <= horizon; m++ {
		headers = append(headers, fmt.Sprintf("month_%d", m))
	}

	records := make([][]string, 0, len(series))
	for _, s := range series {
		record := []string{s.Reference, s.Model, s.Metric, formatFloat(s.HoldoutError)}
		for _, v := range s.Values {
			record = append(record, formatFloat(v))
		}
		records = append(records, record)
	}
	return w.WriteCSV(config.ForecastCSV, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteProfileSummary writes the sales history profiles as a flat table.
func (w *CSVWriter) WriteProfileSummary(profiles []dataprocessing.ReferenceProfile) error {
	records := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		records = append(records, []string{
			p.Reference, p.Class, p.Family,
			strconv.Itoa(p.Months),
			formatFloat(p.Total),
			formatFloat(p.Mean),
			formatFloat(p.StdDev),
			formatFloat(p.Min),
			formatFloat(p.Max),
			strconv.Itoa(p.ZeroMonths),
		})
	}
	return w.WriteCSV(config.ProfileSummaryCSV, WriteOptions{
		Headers: []string{"reference", "class", "family", "months", "total",
			"mean", "std_dev", "min", "max", "zero_months"},
		Records:   records,
		BOMPrefix: true,
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
