package forecast

import (
	"gonum.org/v1/gonum/stat"
)

// model produces an h-month forecast from a demand history. Implementations
// are deterministic: the same history always yields the same forecast.
type model interface {
	name() string
	forecast(history []float64, h int) []float64
}

// seasonalPeriod is the cycle length demand repeats over.
const seasonalPeriod = 12

// seasonalNaive repeats the observation from one season ago. With less than a
// full season of history it degrades to the last observed value.
type seasonalNaive struct{}

func (seasonalNaive) name() string { return "seasonal_naive" }

func (seasonalNaive) forecast(history []float64, h int) []float64 {
	n := len(history)
	out := make([]float64, h)
	for i := 0; i < h; i++ {
		if n >= seasonalPeriod {
			out[i] = history[n-seasonalPeriod+i%seasonalPeriod]
		} else {
			out[i] = history[n-1]
		}
	}
	return out
}

// movingAverage forecasts the mean of the trailing window as a flat line.
type movingAverage struct {
	window int
}

func (movingAverage) name() string { return "moving_average" }

func (m movingAverage) forecast(history []float64, h int) []float64 {
	w := m.window
	if w <= 0 {
		w = 3
	}
	if w > len(history) {
		w = len(history)
	}
	var sum float64
	for _, v := range history[len(history)-w:] {
		sum += v
	}
	mean := sum / float64(w)
	out := make([]float64, h)
	for i := range out {
		out[i] = mean
	}
	return out
}

// smoothingGrid is the candidate set for exponential smoothing parameters.
var smoothingGrid = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

// simpleExponential is single exponential smoothing with the smoothing
// constant chosen by minimizing the in-sample one-step squared error over a
// fixed grid.
type simpleExponential struct{}

func (simpleExponential) name() string { return "ses" }

func (simpleExponential) forecast(history []float64, h int) []float64 {
	bestLevel := history[len(history)-1]
	bestSSE := -1.0
	for _, alpha := range smoothingGrid {
		level := history[0]
		var sse float64
		for _, x := range history[1:] {
			e := x - level
			sse += e * e
			level += alpha * e
		}
		if bestSSE < 0 || sse < bestSSE {
			bestSSE = sse
			bestLevel = level
		}
	}
	out := make([]float64, h)
	for i := range out {
		out[i] = bestLevel
	}
	return out
}

// holtLinear is double exponential smoothing with level and trend, parameters
// chosen over the same grid.
type holtLinear struct{}

func (holtLinear) name() string { return "holt" }

func (holtLinear) forecast(history []float64, h int) []float64 {
	if len(history) < 2 {
		return movingAverage{window: 1}.forecast(history, h)
	}
	bestLevel, bestTrend := history[len(history)-1], 0.0
	bestSSE := -1.0
	for _, alpha := range smoothingGrid {
		for _, beta := range smoothingGrid {
			level := history[0]
			trend := history[1] - history[0]
			var sse float64
			for _, x := range history[1:] {
				pred := level + trend
				e := x - pred
				sse += e * e
				prevLevel := level
				level = alpha*x + (1-alpha)*(level+trend)
				trend = beta*(level-prevLevel) + (1-beta)*trend
			}
			if bestSSE < 0 || sse < bestSSE {
				bestSSE = sse
				bestLevel, bestTrend = level, trend
			}
		}
	}
	out := make([]float64, h)
	for i := range out {
		out[i] = bestLevel + float64(i+1)*bestTrend
	}
	return out
}

// olsTrend fits a least-squares line over the whole history and extrapolates it.
type olsTrend struct{}

func (olsTrend) name() string { return "ols_trend" }

func (olsTrend) forecast(history []float64, h int) []float64 {
	n := len(history)
	if n < 2 {
		return movingAverage{window: 1}.forecast(history, h)
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(xs, history, nil, false)
	out := make([]float64, h)
	for i := range out {
		out[i] = intercept + slope*float64(n+i)
	}
	return out
}

// candidates returns the model set evaluated for every reference.
func candidates() []model {
	return []model{
		seasonalNaive{},
		movingAverage{window: 3},
		simpleExponential{},
		holtLinear{},
		olsTrend{},
	}
}
