// Command forecast produces demand forecasts and the reference profile
// report without running the rest of the pipeline.
package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"soleplan/internal/config"
	"soleplan/internal/dataprocessing"
	"soleplan/internal/exporter"
	"soleplan/internal/forecast"
	"soleplan/internal/infrastructure"
)

func main() {
	classFlag := flag.String("class", "", "restrict forecasting to one class (defaults to all)")
	horizon := flag.Int("horizon", 0, "months to forecast (defaults to the configured horizon)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	paths := config.NewPaths(cfg.Paths)
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("failed to create required directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *horizon <= 0 {
		*horizon = cfg.Planning.Horizon
	}

	loader := dataprocessing.NewLoader(logger)
	histories, err := loader.LoadSalesHistory(paths.InputPath(config.SalesHistoryFile))
	if err != nil {
		logger.Error("failed to load sales history", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *classFlag != "" {
		class := strings.ToLower(strings.TrimSpace(*classFlag))
		filtered := histories[:0]
		for _, h := range histories {
			if h.Class == class {
				filtered = append(filtered, h)
			}
		}
		histories = filtered
		if len(histories) == 0 {
			logger.Error("no sales history for class", slog.String("class", class))
			os.Exit(1)
		}
	}

	selector := forecast.NewSelector(*horizon, cfg.Planning.HoldoutMonths, logger)
	series, err := selector.ForecastAll(histories)
	if err != nil {
		logger.Error("forecasting failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	profiles := dataprocessing.Profile(histories)

	csv := exporter.NewCSVWriter(paths)
	if err := csv.WriteForecasts(series); err != nil {
		logger.Error("failed to write forecasts", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := csv.WriteProfileSummary(profiles); err != nil {
		logger.Error("failed to write profile summary", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := dataprocessing.WriteProfileReport(paths.ReportPath(config.ProfileReportHTML), profiles); err != nil {
		logger.Error("failed to write profile report", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("forecasting complete",
		slog.Int("references", len(series)),
		slog.Int("horizon", *horizon),
		slog.String("forecasts", paths.ReportPath(config.ForecastCSV)),
		slog.String("profile_report", paths.ReportPath(config.ProfileReportHTML)))
}
