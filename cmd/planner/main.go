// Command planner runs the full planning pipeline once and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"soleplan/internal/config"
	"soleplan/internal/infrastructure"
	"soleplan/internal/operations"
)

func main() {
	classesFlag := flag.String("classes", "", "comma separated classes to plan (defaults to all configured classes)")
	horizon := flag.Int("horizon", 0, "months to forecast and plan (defaults to the configured horizon)")
	skipScheduling := flag.Bool("skip-scheduling", false, "do not run the flow-shop scheduling step")
	continueOnError := flag.Bool("continue-on-error", false, "keep running independent steps after a failure")
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

	registry := operations.NewRegistry()
	if err := operations.RegisterPlanningSteps(registry, operations.StepDeps{
		Paths:    paths,
		Planning: cfg.Planning,
		Logger:   logger,
	}); err != nil {
		logger.Error("failed to register pipeline steps", slog.String("error", err.Error()))
		os.Exit(1)
	}

	opConfig := operations.NewConfig()
	opConfig.ContinueOnError = *continueOnError
	manager := operations.NewManager(registry, opConfig, nil, logger)

	req := operations.OperationRequest{
		Horizon:        *horizon,
		SkipScheduling: *skipScheduling,
	}
	if *classesFlag != "" {
		for _, class := range strings.Split(*classesFlag, ",") {
			if class = strings.TrimSpace(class); class != "" {
				req.Classes = append(req.Classes, strings.ToLower(class))
			}
		}
	}

	logger.Info("starting planning run",
		slog.Any("classes", req.Classes),
		slog.Int("horizon", req.Horizon),
		slog.Bool("skip_scheduling", req.SkipScheduling))

	state, err := manager.Execute(context.Background(), req)
	if state != nil {
		printSummary(state)
	}
	if err != nil {
		logger.Error("planning run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("planning run complete",
		slog.String("reports_dir", paths.ReportsDir))
}

func printSummary(state *operations.OperationState) {
	resp := state.Response()
	fmt.Printf("operation %s: %s (%s)\n", resp.OperationID, resp.Status, resp.Duration.Round(time.Millisecond))
	for _, step := range resp.Steps {
		line := fmt.Sprintf("  %-12s %s", step.ID, step.Status)
		if step.Error != "" {
			line += ": " + step.Error
		}
		fmt.Println(line)
	}
}
