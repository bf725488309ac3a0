package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"soleplan/internal/aggplan"
	"soleplan/internal/assign"
	"soleplan/internal/config"
	"soleplan/internal/dataprocessing"
	"soleplan/internal/exporter"
	"soleplan/internal/forecast"
	"soleplan/internal/masterplan"
	"soleplan/internal/mrp"
	"soleplan/internal/scheduling"
	"soleplan/internal/validation"
	"soleplan/pkg/contracts/domain"
)

// StepDeps carries the shared dependencies injected into the planning steps.
type StepDeps struct {
	Paths     *config.Paths
	Planning  config.PlanningConfig
	Loader    *dataprocessing.Loader
	Validator *validation.FileValidator
	CSV       *exporter.CSVWriter
	Logger    *slog.Logger
}

// RegisterPlanningSteps registers the full pipeline on the registry:
// validate, forecast, aggregate, assign, masterplan, mrp, schedule, export.
func RegisterPlanningSteps(registry *Registry, deps StepDeps) error {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Loader == nil {
		deps.Loader = dataprocessing.NewLoader(deps.Logger)
	}
	if deps.Validator == nil {
		deps.Validator = validation.NewFileValidator(deps.Logger)
	}
	if deps.CSV == nil {
		deps.CSV = exporter.NewCSVWriter(deps.Paths)
	}

	steps := []Step{
		&ValidateStep{BaseStep: NewBaseStep(StepIDValidate, StepNameValidate), deps: deps},
		&ForecastStep{BaseStep: NewBaseStep(StepIDForecast, StepNameForecast, StepIDValidate), deps: deps},
		&AggregateStep{BaseStep: NewBaseStep(StepIDAggregate, StepNameAggregate, StepIDForecast), deps: deps},
		&AssignStep{BaseStep: NewBaseStep(StepIDAssign, StepNameAssign, StepIDAggregate), deps: deps},
		&MasterPlanStep{BaseStep: NewBaseStep(StepIDMasterPlan, StepNameMasterPlan, StepIDAssign), deps: deps},
		&MRPStep{BaseStep: NewBaseStep(StepIDMRP, StepNameMRP, StepIDMasterPlan), deps: deps},
		&ScheduleStep{BaseStep: NewBaseStep(StepIDSchedule, StepNameSchedule, StepIDValidate), deps: deps},
		&ExportStep{BaseStep: NewBaseStep(StepIDExport, StepNameExport, StepIDMRP, StepIDSchedule), deps: deps},
	}
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return err
		}
	}
	return nil
}

// classes resolves which classes a request plans.
func (d StepDeps) classes(req OperationRequest) []string {
	if len(req.Classes) > 0 {
		return req.Classes
	}
	return d.Planning.Classes
}

// horizon resolves the forecast horizon for a request.
func (d StepDeps) horizon(req OperationRequest) int {
	if req.Horizon > 0 {
		return req.Horizon
	}
	return d.Planning.Horizon
}

// artifact fetches a typed artifact from the state, failing fatally when a
// dependency did not publish it.
func artifact[T any](state *OperationState, key, stepID string) (T, error) {
	var zero T
	raw, ok := state.GetArtifact(key)
	if !ok {
		return zero, NewFatalError(stepID, fmt.Sprintf("missing artifact %s", key), nil)
	}
	value, ok := raw.(T)
	if !ok {
		return zero, NewFatalError(stepID, fmt.Sprintf("artifact %s has unexpected type %T", key, raw), nil)
	}
	return value, nil
}

// forEachClass runs fn for every class, bounded by MaxConcurrency.
func (d StepDeps) forEachClass(ctx context.Context, classes []string, fn func(class string) error) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(d.Planning.MaxConcurrency)
	for _, class := range classes {
		class := class
		g.Go(func() error { return fn(class) })
	}
	return g.Wait()
}

// ValidateStep checks the input directory layout and the encoding of every
// text asset before anything is parsed.
type ValidateStep struct {
	BaseStep
	deps StepDeps
}

func (s *ValidateStep) Validate(state *OperationState) error {
	if s.deps.Paths == nil {
		return NewValidationError(s.ID(), "paths configuration is required")
	}
	return nil
}

func (s *ValidateStep) Execute(ctx context.Context, state *OperationState) error {
	paths := s.deps.Paths
	stepState, _ := state.GetStep(s.ID())

	required := []string{
		paths.InputPath(config.SalesHistoryFile),
		paths.InputPath(config.StockFile),
		paths.InputPath(config.StandardTimeFile),
	}
	for _, class := range s.deps.classes(state.Request()) {
		required = append(required,
			paths.HourCalendarPath(class),
			paths.BOMPath(class),
			paths.ComponentDataPath(class))
	}

	for i, path := range required {
		if err := ctx.Err(); err != nil {
			return NewCancellationError(s.ID())
		}
		if err := s.deps.Validator.ValidateRequiredFile(path); err != nil {
			return NewDataError(s.ID(), fmt.Sprintf("required input %s", path), err)
		}
		stepState.UpdateProgress(float64(i+1)/float64(len(required)+1)*100,
			fmt.Sprintf("checked %s", path))
	}

	if err := s.deps.Validator.ValidateTextAssets(paths.InputsDir); err != nil {
		var encErr *validation.EncodingError
		if errors.As(err, &encErr) {
			return NewDataError(s.ID(), "input files contain corrupted text", err)
		}
		return NewDataError(s.ID(), "input text validation failed", err)
	}
	stepState.UpdateProgress(100, "inputs validated")
	return nil
}

// ForecastStep loads the sales history, profiles it and produces a demand
// forecast for every reference of the requested classes.
type ForecastStep struct {
	BaseStep
	deps StepDeps
}

func (s *ForecastStep) Validate(state *OperationState) error {
	if s.deps.horizon(state.Request()) <= 0 {
		return NewValidationError(s.ID(), "forecast horizon must be positive")
	}
	return nil
}

func (s *ForecastStep) Execute(ctx context.Context, state *OperationState) error {
	req := state.Request()
	classes := s.deps.classes(req)
	stepState, _ := state.GetStep(s.ID())

	histories, err := s.deps.Loader.LoadSalesHistory(s.deps.Paths.InputPath(config.SalesHistoryFile))
	if err != nil {
		return NewDataError(s.ID(), "load sales history", err)
	}

	byClass := make(map[string][]domain.SalesHistory)
	for _, h := range histories {
		byClass[h.Class] = append(byClass[h.Class], h)
	}
	catalogs := make(map[string]*domain.ReferenceCatalog, len(classes))
	var profiled []domain.SalesHistory
	for _, class := range classes {
		classHistories := byClass[class]
		if len(classHistories) == 0 {
			return NewDataError(s.ID(), fmt.Sprintf("no sales history for class %s", class), nil)
		}
		catalogs[class] = dataprocessing.BuildCatalog(classHistories, class)
		profiled = append(profiled, classHistories...)
	}
	stepState.UpdateProgress(20, "sales history loaded")

	profiles := dataprocessing.Profile(profiled)
	if err := dataprocessing.WriteProfileReport(s.deps.Paths.ReportPath(config.ProfileReportHTML), profiles); err != nil {
		return NewTransientError(s.ID(), "write profile report", err)
	}
	if err := s.deps.CSV.WriteProfileSummary(profiles); err != nil {
		return NewTransientError(s.ID(), "write profile summary", err)
	}
	stepState.UpdateProgress(40, "history profiled")

	selector := forecast.NewSelector(s.deps.horizon(req), s.deps.Planning.HoldoutMonths, s.deps.Logger)
	forecasts := make(map[string][]domain.ForecastSeries, len(classes))
	done := 0
	err = s.deps.forEachClass(ctx, classes, func(class string) error {
		series, err := selector.ForecastAll(byClass[class])
		if err != nil {
			return NewDataError(s.ID(), fmt.Sprintf("forecast class %s", class), err)
		}
		state.SetArtifact("forecast:"+class, series)
		return nil
	})
	if err != nil {
		return err
	}
	var allSeries []domain.ForecastSeries
	for _, class := range classes {
		series, err := artifact[[]domain.ForecastSeries](state, "forecast:"+class, s.ID())
		if err != nil {
			return err
		}
		forecasts[class] = series
		allSeries = append(allSeries, series...)
		done++
		stepState.UpdateProgress(40+float64(done)/float64(len(classes))*50,
			fmt.Sprintf("forecasted class %s", class))
	}

	if err := s.deps.CSV.WriteForecasts(allSeries); err != nil {
		return NewTransientError(s.ID(), "write forecasts", err)
	}

	state.SetArtifact(ArtifactHistories, byClass)
	state.SetArtifact(ArtifactCatalogs, catalogs)
	state.SetArtifact(ArtifactForecasts, forecasts)
	state.SetArtifact(ArtifactProfiles, profiles)
	stepState.UpdateProgress(100, fmt.Sprintf("%d references forecasted", len(allSeries)))
	return nil
}

// AggregateStep nets the forecast against inventory and converts the result
// into aggregate demand hours per class.
type AggregateStep struct {
	BaseStep
	deps StepDeps
}

func (s *AggregateStep) Validate(state *OperationState) error { return nil }

func (s *AggregateStep) Execute(ctx context.Context, state *OperationState) error {
	forecasts, err := artifact[map[string][]domain.ForecastSeries](state, ArtifactForecasts, s.ID())
	if err != nil {
		return err
	}

	stock, err := s.deps.Loader.LoadStock(s.deps.Paths.InputPath(config.StockFile))
	if err != nil {
		return NewDataError(s.ID(), "load stock", err)
	}
	times, err := s.deps.Loader.LoadStandardTimes(s.deps.Paths.InputPath(config.StandardTimeFile))
	if err != nil {
		return NewDataError(s.ID(), "load standard times", err)
	}

	classes := s.deps.classes(state.Request())
	aggregates := make(map[string]*domain.AggregatePlan, len(classes))
	for _, class := range classes {
		if err := ctx.Err(); err != nil {
			return NewCancellationError(s.ID())
		}
		plan, err := aggplan.Build(aggplan.Inputs{
			Class:         class,
			Forecasts:     forecasts[class],
			Stock:         stock,
			StandardTimes: times,
		}, s.deps.Logger)
		if err != nil {
			return NewDataError(s.ID(), fmt.Sprintf("aggregate plan for class %s", class), err)
		}
		aggregates[class] = plan
	}

	state.SetArtifact(ArtifactStock, stock)
	state.SetArtifact(ArtifactTimes, times)
	state.SetArtifact(ArtifactAggregates, aggregates)
	return nil
}

// AssignStep solves the linear program that distributes aggregate demand
// over normal and overtime hours at minimum cost.
type AssignStep struct {
	BaseStep
	deps StepDeps
}

func (s *AssignStep) Validate(state *OperationState) error { return nil }

func (s *AssignStep) Execute(ctx context.Context, state *OperationState) error {
	aggregates, err := artifact[map[string]*domain.AggregatePlan](state, ArtifactAggregates, s.ID())
	if err != nil {
		return err
	}

	classes := s.deps.classes(state.Request())
	calendars := make(map[string]*domain.HourCalendar, len(classes))
	assignments := make(map[string]*domain.HourAssignment, len(classes))
	for _, class := range classes {
		if err := ctx.Err(); err != nil {
			return NewCancellationError(s.ID())
		}
		calendar, err := s.deps.Loader.LoadHourCalendar(s.deps.Paths.HourCalendarPath(class), class)
		if err != nil {
			return NewDataError(s.ID(), fmt.Sprintf("load hour calendar for class %s", class), err)
		}
		calendars[class] = calendar

		assignment, err := assign.Solve(assign.Problem{
			Class:              class,
			Demand:             aggregates[class].TotalDemandPerMonth,
			Calendar:           calendar,
			HoldingCostPerHour: s.deps.Planning.HoldingCostPerHour,
		}, s.deps.Logger)
		if err != nil {
			var infeasible *assign.InfeasibleError
			if errors.As(err, &infeasible) {
				return NewInfeasibleError(s.ID(),
					fmt.Sprintf("class %s cannot meet demand", class), err)
			}
			return WrapError(s.ID(), err)
		}
		assignments[class] = assignment
	}

	state.SetArtifact(ArtifactCalendars, calendars)
	state.SetArtifact(ArtifactAssigns, assignments)
	return nil
}

// MasterPlanStep disaggregates the hour assignment back to references and
// prices the resulting master production plan.
type MasterPlanStep struct {
	BaseStep
	deps StepDeps
}

func (s *MasterPlanStep) Validate(state *OperationState) error { return nil }

func (s *MasterPlanStep) Execute(ctx context.Context, state *OperationState) error {
	aggregates, err := artifact[map[string]*domain.AggregatePlan](state, ArtifactAggregates, s.ID())
	if err != nil {
		return err
	}
	assignments, err := artifact[map[string]*domain.HourAssignment](state, ArtifactAssigns, s.ID())
	if err != nil {
		return err
	}
	calendars, err := artifact[map[string]*domain.HourCalendar](state, ArtifactCalendars, s.ID())
	if err != nil {
		return err
	}
	stock, err := artifact[map[string]domain.StockLevel](state, ArtifactStock, s.ID())
	if err != nil {
		return err
	}
	times, err := artifact[map[string]domain.StandardTime](state, ArtifactTimes, s.ID())
	if err != nil {
		return err
	}

	classes := s.deps.classes(state.Request())
	masters := make(map[string]*domain.MasterPlan, len(classes))
	for _, class := range classes {
		if err := ctx.Err(); err != nil {
			return NewCancellationError(s.ID())
		}
		plan, err := masterplan.Build(masterplan.Inputs{
			Aggregate:          aggregates[class],
			Assignment:         assignments[class],
			Stock:              stock,
			StandardTimes:      times,
			Calendar:           calendars[class],
			HoldingCostPerHour: s.deps.Planning.HoldingCostPerHour,
			DeficitCost:        s.deps.Planning.DeficitCost,
		}, s.deps.Logger)
		if err != nil {
			return NewDataError(s.ID(), fmt.Sprintf("master plan for class %s", class), err)
		}
		masters[class] = plan
	}

	state.SetArtifact(ArtifactMasters, masters)
	return nil
}

// MRPStep explodes the bills of materials and builds the per-component
// requirements tables, then assembles the final per-class plans.
type MRPStep struct {
	BaseStep
	deps StepDeps
}

func (s *MRPStep) Validate(state *OperationState) error { return nil }

func (s *MRPStep) Execute(ctx context.Context, state *OperationState) error {
	masters, err := artifact[map[string]*domain.MasterPlan](state, ArtifactMasters, s.ID())
	if err != nil {
		return err
	}
	aggregates, err := artifact[map[string]*domain.AggregatePlan](state, ArtifactAggregates, s.ID())
	if err != nil {
		return err
	}
	assignments, err := artifact[map[string]*domain.HourAssignment](state, ArtifactAssigns, s.ID())
	if err != nil {
		return err
	}
	catalogs, err := artifact[map[string]*domain.ReferenceCatalog](state, ArtifactCatalogs, s.ID())
	if err != nil {
		return err
	}

	classes := s.deps.classes(state.Request())
	mrpByClass := make(map[string][]domain.MRPFamily, len(classes))
	plans := make(map[string]*domain.ClassPlan, len(classes))
	for _, class := range classes {
		if err := ctx.Err(); err != nil {
			return NewCancellationError(s.ID())
		}
		boms, err := s.deps.Loader.LoadBOMs(s.deps.Paths.BOMPath(class))
		if err != nil {
			return NewDataError(s.ID(), fmt.Sprintf("load bill of materials for class %s", class), err)
		}
		data, err := s.deps.Loader.LoadComponentData(s.deps.Paths.ComponentDataPath(class))
		if err != nil {
			return NewDataError(s.ID(), fmt.Sprintf("load component data for class %s", class), err)
		}

		master := masters[class]
		catalog := catalogs[class]
		var families []domain.MRPFamily
		for _, bom := range boms {
			for item := range data {
				bom.Data[item] = data[item]
			}
			gross := mrp.FamilyGrossRequirements(master, catalog.Families[bom.Family])
			family, err := mrp.Build(mrp.Inputs{
				Months:      master.Months,
				BOM:         bom,
				FamilyGross: gross,
			}, s.deps.Logger)
			if err != nil {
				return NewDataError(s.ID(),
					fmt.Sprintf("material requirements for family %s of class %s", bom.Family, class), err)
			}
			families = append(families, *family)
		}
		mrpByClass[class] = families
		plans[class] = &domain.ClassPlan{
			Class:      class,
			Aggregate:  aggregates[class],
			Assignment: assignments[class],
			Master:     master,
			MRP:        families,
		}
	}

	state.SetArtifact(ArtifactMRP, mrpByClass)
	state.SetArtifact(ArtifactPlans, plans)
	return nil
}

// ScheduleStep sequences the pending orders through the flow shop. It is a
// no-op when the orders workbook is absent or scheduling was disabled.
type ScheduleStep struct {
	BaseStep
	deps StepDeps
}

func (s *ScheduleStep) Validate(state *OperationState) error { return nil }

func (s *ScheduleStep) Execute(ctx context.Context, state *OperationState) error {
	stepState, _ := state.GetStep(s.ID())
	if state.Request().SkipScheduling {
		stepState.UpdateProgress(100, "scheduling disabled by request")
		return nil
	}

	path := s.deps.Paths.InputPath(config.OrdersFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		stepState.UpdateProgress(100, "no orders workbook, nothing to schedule")
		return nil
	}

	shop, err := s.deps.Loader.LoadOrders(path)
	if err != nil {
		return NewDataError(s.ID(), "load orders", err)
	}
	result, err := scheduling.Solve(*shop, s.deps.Logger)
	if err != nil {
		return NewDataError(s.ID(), "solve schedule", err)
	}

	state.SetArtifact(ArtifactShop, shop)
	state.SetArtifact(ArtifactSchedule, result)
	stepState.UpdateProgress(100, scheduling.Describe(result))
	return nil
}

// ExportStep writes the per-class results workbooks and, when scheduling
// ran, the standalone schedule workbook.
type ExportStep struct {
	BaseStep
	deps StepDeps
}

func (s *ExportStep) Validate(state *OperationState) error { return nil }

func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	plans, err := artifact[map[string]*domain.ClassPlan](state, ArtifactPlans, s.ID())
	if err != nil {
		return err
	}
	catalogs, err := artifact[map[string]*domain.ReferenceCatalog](state, ArtifactCatalogs, s.ID())
	if err != nil {
		return err
	}

	var schedule *domain.ScheduleResult
	var shop *domain.FlowShop
	if raw, ok := state.GetArtifact(ArtifactSchedule); ok {
		schedule = raw.(*domain.ScheduleResult)
	}
	if raw, ok := state.GetArtifact(ArtifactShop); ok {
		shop = raw.(*domain.FlowShop)
	}

	stepState, _ := state.GetStep(s.ID())
	classes := s.deps.classes(state.Request())
	for i, class := range classes {
		if err := ctx.Err(); err != nil {
			return NewCancellationError(s.ID())
		}
		catalog := catalogs[class]
		families := make([]string, 0, len(catalog.Families))
		for family := range catalog.Families {
			families = append(families, family)
		}
		sort.Strings(families)
		err := exporter.WriteResultsWorkbook(s.deps.Paths.ResultsPath(class), exporter.WorkbookInputs{
			Plan:     plans[class],
			Catalog:  catalog,
			Families: families,
			Schedule: schedule,
			Shop:     shop,
		}, s.deps.Logger)
		if err != nil {
			return NewTransientError(s.ID(), fmt.Sprintf("write results for class %s", class), err)
		}
		stepState.UpdateProgress(float64(i+1)/float64(len(classes)+1)*100,
			fmt.Sprintf("exported class %s", class))
	}

	if schedule != nil {
		path := s.deps.Paths.ReportPath(config.ScheduleWorkbook)
		if err := exporter.WriteScheduleWorkbook(path, schedule, shop, s.deps.Logger); err != nil {
			return NewTransientError(s.ID(), "write schedule workbook", err)
		}
	}
	stepState.UpdateProgress(100, "results exported")
	return nil
}
