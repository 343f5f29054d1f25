package autoarima

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/regarima/arima"
	"github.com/sartorproj/regarima/sarima"
	"github.com/sartorproj/regarima/timeseries"
)

// ar1Series simulates 5 + z_t, z_t = 0.7 z_{t-1} + e_t.
func ar1Series(n int) *timeseries.Series {
	z := arima.Simulate(arima.NewArma([]float64{0.7}, nil, 1), n, 100, 2024)
	for i := range z {
		z[i] += 5
	}
	return timeseries.New(z)
}

func smallConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.MaxP, cfg.MaxQ = 2, 2
	cfg.D, cfg.SD = 0, 0
	cfg.Seasonal = false
	cfg.Transform = TransformNone
	cfg.Criterion = "bic"
	cfg.Logger = testr.New(t)
	return cfg
}

func bestOf(candidates []Candidate) float64 {
	best := math.Inf(1)
	for _, c := range candidates {
		if c.Err == nil {
			best = min(best, c.Criterion)
		}
	}
	return best
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.MaxP)
	assert.Equal(t, 2, cfg.MaxD)
	assert.Equal(t, 5, cfg.MaxQ)
	assert.Equal(t, -1, cfg.D)
	assert.Equal(t, -1, cfg.SD)
	assert.Equal(t, "aicc", cfg.Criterion)
	assert.Equal(t, TransformAuto, cfg.Transform)
	assert.True(t, cfg.Stepwise)
	assert.NoError(t, cfg.validate())
}

func TestSelectExhaustive(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Stepwise = false

	result, err := Select(context.Background(), ar1Series(200), cfg)
	require.NoError(t, err)
	assert.Equal(t, 9, result.ModelsEvaluated)
	assert.Len(t, result.Candidates, 9)
	assert.Equal(t, bestOf(result.Candidates), result.Criterion)
	assert.InDelta(t, result.BIC(), result.Criterion, 1e-9)
	assert.NotEqual(t, sarima.Order{}, result.Order, "white noise rejected")
	assert.False(t, result.Log)
	assert.Nil(t, result.RangeMean)

	require.NotNil(t, result.Estimation.Diagnostics)
	assert.NotNil(t, result.Estimation.Diagnostics.LjungBox)
	assert.Len(t, result.Residuals(), 200)
	assert.Equal(t, result.Order, result.Model().Order())
	assert.True(t, result.Estimation.Model.HasMean())
}

func TestSelectStepwise(t *testing.T) {
	exhaustive := smallConfig(t)
	exhaustive.Stepwise = false
	all, err := Select(context.Background(), ar1Series(200), exhaustive)
	require.NoError(t, err)

	cfg := smallConfig(t)
	result, err := Select(context.Background(), ar1Series(200), cfg)
	require.NoError(t, err)
	assert.LessOrEqual(t, result.ModelsEvaluated, all.ModelsEvaluated)
	assert.Equal(t, bestOf(result.Candidates), result.Criterion)
	assert.NotEqual(t, sarima.Order{}, result.Order)

	seen := make(map[sarima.Order]bool)
	for _, c := range result.Candidates {
		assert.False(t, seen[c.Order], "order %s estimated twice", c.Order)
		seen[c.Order] = true
		assert.LessOrEqual(t, c.Order.P, cfg.MaxP)
		assert.LessOrEqual(t, c.Order.Q, cfg.MaxQ)
	}
}

func TestSelectSeasonal(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Stepwise = false
	cfg.Seasonal = true
	cfg.Period = 4
	cfg.MaxP, cfg.MaxQ = 1, 0
	cfg.MaxSP, cfg.MaxSQ = 1, 0

	result, err := Select(context.Background(), ar1Series(160), cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, result.ModelsEvaluated)
	for _, c := range result.Candidates {
		assert.Equal(t, 4, c.Order.M)
		assert.Equal(t, 0, c.Order.SD)
	}
}

func TestSelectLogTransform(t *testing.T) {
	noise := arima.Simulate(arima.NewArma(nil, nil, 1), 144, 0, 11)
	values := make([]float64, 144)
	for i := range values {
		s := math.Sin(2 * math.Pi * float64(i) / 12)
		values[i] = math.Exp(0.02*float64(i)+0.01*noise[i]) * (1 + 0.3*s)
	}

	cfg := smallConfig(t)
	cfg.Stepwise = false
	cfg.MaxP, cfg.MaxQ = 1, 1
	cfg.D = 1
	cfg.Period = 12
	cfg.Transform = TransformAuto

	result, err := Select(context.Background(), timeseries.New(values), cfg)
	require.NoError(t, err)
	require.NotNil(t, result.RangeMean)
	assert.True(t, result.Log)
	assert.Equal(t, 1, result.Order.D)
	assert.True(t, result.Estimation.Model.HasMean(), "drift with one difference")

	y := result.Estimation.Model.Y()
	assert.InDelta(t, math.Log(values[10]), y[10], 1e-12)
}

func TestDetermineDifferencing(t *testing.T) {
	trend := make([]float64, 100)
	for i := range trend {
		trend[i] = float64(i) + float64(i%7-3)/3
	}
	seasonal := make([]float64, 120)
	for i := range seasonal {
		seasonal[i] = 10*math.Sin(2*math.Pi*float64(i%12)/12) + 0.5*float64(i) + float64(i%5-2)/5
	}

	cfg := DefaultConfig()
	tests := []struct {
		name     string
		y        []float64
		seasonal bool
		period   int
		d, sd    int
		fixD     int
	}{
		{"trend", trend, false, 0, 1, 0, -1},
		{"seasonal", seasonal, true, 12, 0, 1, -1},
		{"fixed", trend, false, 0, 2, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *cfg
			c.D = tt.fixD
			d, sd := determineDifferencing(tt.y, &c, tt.seasonal, tt.period)
			assert.Equal(t, tt.d, d)
			assert.Equal(t, tt.sd, sd)
		})
	}
}

func TestSelectRegressors(t *testing.T) {
	series := ar1Series(200)
	x := make([]float64, 200)
	for i := range x {
		x[i] = float64(i%4) - 1.5
		series.Values[i] += 2 * x[i]
	}
	require.NoError(t, series.AddRegressor("step", x))

	cfg := smallConfig(t)
	cfg.MaxP, cfg.MaxQ = 1, 1
	result, err := Select(context.Background(), series, cfg)
	require.NoError(t, err)
	_, cols := result.Estimation.Model.X().Dims()
	assert.Equal(t, 1, cols)
	assert.Equal(t, "x(1)", result.Estimation.Summary().Coefficients[1].Name)
}

func TestSelectProgress(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
		last  [2]int
	)
	cfg := smallConfig(t)
	cfg.Parallelism = 2
	cfg.Progress = func(done, scheduled int) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		last = [2]int{done, scheduled}
	}
	result, err := Select(context.Background(), ar1Series(120), cfg)
	require.NoError(t, err)
	assert.Equal(t, result.ModelsEvaluated, calls)
	assert.Equal(t, [2]int{calls, calls}, last)
}

func TestSelectErrors(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Criterion = "hqc"
	_, err := Select(context.Background(), ar1Series(50), cfg)
	assert.ErrorIs(t, err, ErrCriterion)

	cfg = smallConfig(t)
	cfg.Transform = "sqrt"
	_, err = Select(context.Background(), ar1Series(50), cfg)
	assert.ErrorIs(t, err, ErrTransform)

	cfg = smallConfig(t)
	cfg.Transform = TransformLog
	_, err = Select(context.Background(), timeseries.New([]float64{1, -2, 3, 4, 5, 6, 7, 8}), cfg)
	assert.ErrorIs(t, err, timeseries.ErrNonPositive)

	_, err = Select(context.Background(), timeseries.New([]float64{1}), smallConfig(t))
	assert.ErrorIs(t, err, ErrNoModel)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Select(ctx, ar1Series(100), smallConfig(t))
	assert.ErrorIs(t, err, context.Canceled)
}
