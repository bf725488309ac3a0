package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soleplan/pkg/contracts/domain"
)

func historyOf(ref string, qs ...float64) domain.SalesHistory {
	h := domain.SalesHistory{Reference: ref, Class: "argyll", Family: "bota"}
	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, q := range qs {
		h.Months = append(h.Months, month)
		h.Quantities = append(h.Quantities, q)
		month = month.AddDate(0, 1, 0)
	}
	return h
}

func TestSeasonalNaive(t *testing.T) {
	history := make([]float64, 12)
	for i := range history {
		history[i] = float64(i + 1)
	}
	got := seasonalNaive{}.forecast(history, 14)
	assert.Equal(t, 1.0, got[0])
	assert.Equal(t, 12.0, got[11])
	// The cycle wraps past one season.
	assert.Equal(t, 1.0, got[12])
}

func TestSeasonalNaive_ShortHistory(t *testing.T) {
	got := seasonalNaive{}.forecast([]float64{5, 9}, 3)
	assert.Equal(t, []float64{9, 9, 9}, got)
}

func TestMovingAverage(t *testing.T) {
	got := movingAverage{window: 3}.forecast([]float64{1, 2, 9, 12, 15}, 2)
	assert.Equal(t, []float64{12, 12}, got)
}

func TestSimpleExponential_ConstantSeries(t *testing.T) {
	got := simpleExponential{}.forecast([]float64{40, 40, 40, 40}, 3)
	for _, v := range got {
		assert.InDelta(t, 40.0, v, 1e-9)
	}
}

func TestHoltLinear_TrendSeries(t *testing.T) {
	// A clean linear trend should be extended almost exactly.
	got := holtLinear{}.forecast([]float64{10, 20, 30, 40, 50, 60}, 2)
	assert.InDelta(t, 70.0, got[0], 1.0)
	assert.InDelta(t, 80.0, got[1], 1.5)
}

func TestOLSTrend(t *testing.T) {
	got := olsTrend{}.forecast([]float64{10, 20, 30, 40}, 2)
	assert.InDelta(t, 50.0, got[0], 1e-9)
	assert.InDelta(t, 60.0, got[1], 1e-9)
}

func TestSelector_PicksTrendModelOnTrend(t *testing.T) {
	s := NewSelector(3, 3, nil)
	series, err := s.Forecast(historyOf("R101", 10, 20, 30, 40, 50, 60, 70, 80, 90))
	require.NoError(t, err)

	assert.Equal(t, "R101", series.Reference)
	assert.Contains(t, []string{"holt", "ols_trend"}, series.Model)
	assert.Equal(t, "mape", series.Metric)
	require.Len(t, series.Values, 3)
	assert.InDelta(t, 100.0, series.Values[0], 2.0)
}

func TestSelector_ZeroActualsFallBackToMAE(t *testing.T) {
	s := NewSelector(2, 2, nil)
	series, err := s.Forecast(historyOf("R102", 5, 8, 6, 7, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, "mae", series.Metric)
}

func TestSelector_ShortHistoryFallback(t *testing.T) {
	s := NewSelector(2, 3, nil)
	series, err := s.Forecast(historyOf("R103", 12, 14))
	require.NoError(t, err)
	assert.Equal(t, "moving_average", series.Model)
	assert.Equal(t, "none", series.Metric)
	assert.Equal(t, []float64{13, 13}, series.Values)
}

func TestSelector_NeverNegative(t *testing.T) {
	// A steep downward trend extrapolates below zero; demand is clamped.
	s := NewSelector(4, 2, nil)
	series, err := s.Forecast(historyOf("R104", 100, 80, 60, 40, 20, 10))
	require.NoError(t, err)
	for _, v := range series.Values {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestSelector_EmptyHistory(t *testing.T) {
	s := NewSelector(3, 2, nil)
	_, err := s.Forecast(domain.SalesHistory{Reference: "R105"})
	assert.ErrorContains(t, err, "no sales history")
}

func TestSelector_Deterministic(t *testing.T) {
	s := NewSelector(6, 3, nil)
	h := historyOf("R106", 30, 42, 35, 50, 44, 61, 58, 49, 66, 71, 63, 80)

	first, err := s.Forecast(h)
	require.NoError(t, err)
	second, err := s.Forecast(h)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestForecastAll(t *testing.T) {
	s := NewSelector(2, 2, nil)
	all, err := s.ForecastAll([]domain.SalesHistory{
		historyOf("R101", 10, 12, 14, 16, 18),
		historyOf("R102", 5, 5, 5, 5, 5),
	})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "R101", all[0].Reference)
	assert.Equal(t, "R102", all[1].Reference)
}
