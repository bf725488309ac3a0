// Command schedule sequences the flow-shop orders workbook and writes the
// scheduling report.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"soleplan/internal/config"
	"soleplan/internal/dataprocessing"
	"soleplan/internal/exporter"
	"soleplan/internal/infrastructure"
	"soleplan/internal/scheduling"
)

func main() {
	ordersPath := flag.String("orders", "", "orders workbook (defaults to orders.xlsx in the inputs directory)")
	outPath := flag.String("out", "", "output workbook (defaults to scheduling.xlsx in the reports directory)")
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

	if *ordersPath == "" {
		*ordersPath = paths.InputPath(config.OrdersFile)
	}
	if *outPath == "" {
		*outPath = paths.ReportPath(config.ScheduleWorkbook)
	}

	loader := dataprocessing.NewLoader(logger)
	shop, err := loader.LoadOrders(*ordersPath)
	if err != nil {
		logger.Error("failed to load orders workbook",
			slog.String("path", *ordersPath),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	result, err := scheduling.Solve(*shop, logger)
	if err != nil {
		logger.Error("scheduling failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := exporter.WriteScheduleWorkbook(*outPath, result, shop, logger); err != nil {
		logger.Error("failed to write scheduling workbook", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println(scheduling.Describe(result))
	logger.Info("scheduling complete", slog.String("workbook", *outPath))
}
