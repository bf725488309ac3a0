package forecast

import (
	"fmt"
	"log/slog"
	"math"

	"soleplan/pkg/contracts/domain"
)

// Selector picks the best candidate model per reference by holdout error and
// produces the demand forecast the planning pipeline consumes.
type Selector struct {
	// Horizon is the number of months to forecast.
	Horizon int
	// HoldoutMonths is how many trailing months are withheld for model
	// selection. Histories too short for a holdout fall back to the last
	// candidate that can produce a forecast.
	HoldoutMonths int

	logger *slog.Logger
}

// NewSelector creates a selector with the given horizon and holdout window.
func NewSelector(horizon, holdoutMonths int, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{Horizon: horizon, HoldoutMonths: holdoutMonths, logger: logger}
}

// Forecast selects a model for the history and returns its forecast over the
// horizon. Negative model outputs are clamped to zero since demand cannot be
// negative.
func (s *Selector) Forecast(history domain.SalesHistory) (domain.ForecastSeries, error) {
	if history.Len() == 0 {
		return domain.ForecastSeries{}, fmt.Errorf("reference %s has no sales history", history.Reference)
	}
	if s.Horizon <= 0 {
		return domain.ForecastSeries{}, fmt.Errorf("forecast horizon must be positive, got %d", s.Horizon)
	}

	winner, holdoutErr, metric := s.selectModel(history.Quantities)
	values := winner.forecast(history.Quantities, s.Horizon)
	for i, v := range values {
		if v < 0 {
			values[i] = 0
		}
		values[i] = math.Round(values[i]*10) / 10
	}

	series := domain.ForecastSeries{
		Reference:    history.Reference,
		Model:        winner.name(),
		Horizon:      s.Horizon,
		Values:       values,
		HoldoutError: holdoutErr,
		Metric:       metric,
	}
	if err := series.Validate(); err != nil {
		return domain.ForecastSeries{}, err
	}

	s.logger.Debug("forecast selected",
		slog.String("reference", history.Reference),
		slog.String("model", series.Model),
		slog.String("metric", metric),
		slog.Float64("holdout_error", holdoutErr))
	return series, nil
}

// ForecastAll forecasts every history in order.
func (s *Selector) ForecastAll(histories []domain.SalesHistory) ([]domain.ForecastSeries, error) {
	out := make([]domain.ForecastSeries, 0, len(histories))
	for _, h := range histories {
		series, err := s.Forecast(h)
		if err != nil {
			return nil, err
		}
		out = append(out, series)
	}
	return out, nil
}

// selectModel evaluates every candidate on the trailing holdout and returns
// the winner with its error. When the history is too short to withhold
// anything, the moving average wins by default with an unknown error.
func (s *Selector) selectModel(history []float64) (model, float64, string) {
	holdout := s.HoldoutMonths
	if holdout <= 0 || len(history)-holdout < 2 {
		return movingAverage{window: 3}, 0, "none"
	}

	train := history[:len(history)-holdout]
	actual := history[len(history)-holdout:]
	metric := "mape"
	for _, a := range actual {
		if a == 0 {
			// MAPE divides by the actual; zeros force the absolute metric.
			metric = "mae"
			break
		}
	}

	var best model
	bestErr := math.Inf(1)
	for _, m := range candidates() {
		predicted := m.forecast(train, holdout)
		e := holdoutError(actual, predicted, metric)
		if e < bestErr {
			bestErr = e
			best = m
		}
	}
	return best, bestErr, metric
}

func holdoutError(actual, predicted []float64, metric string) float64 {
	var sum float64
	for i := range actual {
		diff := math.Abs(actual[i] - predicted[i])
		if metric == "mape" {
			diff /= math.Abs(actual[i])
		}
		sum += diff
	}
	return sum / float64(len(actual))
}
