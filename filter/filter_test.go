package filter

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/regarima/arima"
)

func testModels() map[string]*arima.Model {
	return map[string]*arima.Model{
		"AR1":    arima.NewArma([]float64{0.7}, nil, 1),
		"MA1":    arima.NewArma(nil, []float64{0.5}, 1),
		"ARMA11": arima.NewArma([]float64{0.6}, []float64{0.3}, 2),
		"AR2":    arima.NewArma([]float64{0.5, 0.3}, nil, 1),
		"MA2":    arima.NewArma(nil, []float64{-0.4, 0.2}, 0.5),
	}
}

func TestWhiteNoise(t *testing.T) {
	sigma := 2.0
	model := arima.NewArma(nil, nil, sigma*sigma)
	y := make([]float64, 25)
	for i := range y {
		y[i] = float64(i%7-3) / 3
	}

	for _, multiuse := range []bool{false, true} {
		f := New(multiuse)
		n, err := f.Initialize(model, len(y))
		require.NoError(t, err)
		require.Equal(t, len(y), n)

		e := make([]float64, n)
		require.NoError(t, f.Filter(y, e))
		for i := range y {
			assert.InDelta(t, y[i]/sigma, e[i], 1e-14)
		}
		ldet, err := f.LogDeterminant()
		require.NoError(t, err)
		assert.InDelta(t, float64(n)*math.Log(sigma*sigma), ldet, 1e-12)
	}
}

func TestSteadyStateMatchesFullRecursion(t *testing.T) {
	for name, model := range testModels() {
		t.Run(name, func(t *testing.T) {
			y := arima.Simulate(model, 300, 50, 7)

			fast, err := Compile(model, len(y))
			require.NoError(t, err)
			full, err := Compile(model, len(y), WithSteadyStateTolerance(-1))
			require.NoError(t, err)

			if fast.SteadyStep() >= len(y) {
				t.Errorf("steady state never reached")
			}
			assert.Equal(t, len(y), full.SteadyStep())

			e1 := make([]float64, len(y))
			e2 := make([]float64, len(y))
			require.NoError(t, fast.Apply(y, e1))
			require.NoError(t, full.Apply(y, e2))

			if diff := cmp.Diff(e2, e1, cmpopts.EquateApprox(1e-8, 1e-10)); diff != "" {
				t.Errorf("innovations mismatch (-full +fast):\n%s", diff)
			}
			assert.InEpsilon(t, full.LogDeterminant(), fast.LogDeterminant(), 1e-8)
		})
	}
}

func TestSingleUseMatchesMultiuse(t *testing.T) {
	for name, model := range testModels() {
		t.Run(name, func(t *testing.T) {
			y := arima.Simulate(model, 120, 50, 11)

			single, multi := New(false), New(true)
			_, err := single.Initialize(model, len(y))
			require.NoError(t, err)
			_, err = multi.Initialize(model, len(y))
			require.NoError(t, err)

			e1 := make([]float64, len(y))
			e2 := make([]float64, len(y))
			require.NoError(t, single.Filter(y, e1))
			require.NoError(t, multi.Filter(y, e2))
			assert.Equal(t, e1, e2)

			l1, err := single.LogDeterminant()
			require.NoError(t, err)
			l2, err := multi.LogDeterminant()
			require.NoError(t, err)
			assert.InDelta(t, l1, l2, 1e-9)
		})
	}
}

func TestLogDeterminantShortcut(t *testing.T) {
	for name, model := range testModels() {
		t.Run(name, func(t *testing.T) {
			n := 200
			full, err := Compile(model, n, WithSteadyStateTolerance(-1))
			require.NoError(t, err)

			ldet, err := LogDeterminant(model, n)
			require.NoError(t, err)
			assert.InEpsilon(t, full.LogDeterminant(), ldet, 1e-8)

			// without filtering first
			f := New(false)
			_, err = f.Initialize(model, n)
			require.NoError(t, err)
			ldet, err = f.LogDeterminant()
			require.NoError(t, err)
			assert.InEpsilon(t, full.LogDeterminant(), ldet, 1e-8)
		})
	}
}

// The innovations reproduce the exact Gaussian likelihood obtained from the
// Cholesky factor of the Toeplitz covariance matrix.
func TestExactLikelihood(t *testing.T) {
	for name, model := range testModels() {
		t.Run(name, func(t *testing.T) {
			n := 40
			y := arima.Simulate(model, n, 50, 3)

			gamma, err := model.AutoCovariance(n)
			require.NoError(t, err)
			sigma := mat.NewSymDense(n, nil)
			for i := 0; i < n; i++ {
				for j := i; j < n; j++ {
					sigma.SetSym(i, j, gamma[j-i])
				}
			}
			var chol mat.Cholesky
			require.True(t, chol.Factorize(sigma))
			var x mat.VecDense
			require.NoError(t, chol.SolveVecTo(&x, mat.NewVecDense(n, y)))
			quad := mat.Dot(mat.NewVecDense(n, y), &x)

			pl, err := Compile(model, n)
			require.NoError(t, err)
			e := make([]float64, n)
			require.NoError(t, pl.Apply(y, e))
			ssq := 0.0
			for _, v := range e {
				ssq += v * v
			}

			assert.InDelta(t, chol.LogDet(), pl.LogDeterminant(), 1e-9)
			assert.InDelta(t, quad, ssq, 1e-9)
		})
	}
}

func TestExemplar(t *testing.T) {
	model := arima.NewArma([]float64{0.6}, []float64{0.3}, 1)
	other := arima.NewArma(nil, []float64{-0.8}, 3)
	y := arima.Simulate(model, 80, 20, 5)

	for _, multiuse := range []bool{false, true} {
		f := New(multiuse, WithSteadyStateTolerance(1e-10))
		g := f.Exemplar()
		assert.Equal(t, multiuse, g.IsMultiuse())
		assert.ErrorIs(t, g.Filter(y, make([]float64, len(y))), ErrNotInitialized)

		_, err := f.Initialize(model, len(y))
		require.NoError(t, err)
		_, err = g.Initialize(model, len(y))
		require.NoError(t, err)

		e1 := make([]float64, len(y))
		e2 := make([]float64, len(y))
		require.NoError(t, f.Filter(y, e1))
		require.NoError(t, g.Filter(y, e2))
		assert.Equal(t, e1, e2)

		// reinitializing the exemplar leaves the original untouched
		_, err = g.Initialize(other, len(y))
		require.NoError(t, err)
		require.NoError(t, g.Filter(y, e2))
		again := make([]float64, len(y))
		require.NoError(t, f.Filter(y, again))
		assert.Equal(t, e1, again)
		assert.NotEqual(t, e1, e2)
	}
}

func TestPlanConcurrentApply(t *testing.T) {
	model := arima.NewArma([]float64{0.5, 0.3}, []float64{0.4}, 1)
	n := 150
	pl, err := Compile(model, n)
	require.NoError(t, err)

	want := make([][]float64, 8)
	got := make([][]float64, 8)
	data := make([][]float64, 8)
	for i := range data {
		data[i] = arima.Simulate(model, n, 30, uint64(i+1))
		want[i] = make([]float64, n)
		require.NoError(t, pl.Apply(data[i], want[i]))
	}

	var g errgroup.Group
	for i := range data {
		got[i] = make([]float64, n)
		g.Go(func() error {
			return pl.Apply(data[i], got[i])
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, want, got)
}

func TestApplyInPlace(t *testing.T) {
	model := arima.NewArma([]float64{0.7}, []float64{0.2}, 1)
	y := arima.Simulate(model, 60, 10, 9)
	pl, err := Compile(model, len(y))
	require.NoError(t, err)

	want := make([]float64, len(y))
	require.NoError(t, pl.Apply(y, want))
	require.NoError(t, pl.Apply(y, y))
	assert.Equal(t, want, y)
}

func TestInvalidModel(t *testing.T) {
	tests := []struct {
		name  string
		model *arima.Model
	}{
		{"ExplosiveAR", arima.NewArma([]float64{1.2}, nil, 1)},
		{"UnitRoot", arima.NewArma([]float64{1}, nil, 1)},
		{"NegativeVariance", arima.NewArma([]float64{0.5}, nil, -1)},
		{"ZeroVariance", arima.NewArma(nil, []float64{0.5}, 0)},
		{"NaNCoefficient", arima.NewArma([]float64{math.NaN()}, nil, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.model, 50)
			assert.ErrorIs(t, err, ErrInvalidModel)

			_, err = LogDeterminant(tt.model, 50)
			assert.ErrorIs(t, err, ErrInvalidModel)

			for _, multiuse := range []bool{false, true} {
				f := New(multiuse)
				_, err := f.Initialize(tt.model, 50)
				assert.ErrorIs(t, err, ErrInvalidModel)
				assert.ErrorIs(t, f.Filter(make([]float64, 50), make([]float64, 50)), ErrNotInitialized)
			}
		})
	}
}

func TestLength(t *testing.T) {
	model := arima.NewArma([]float64{0.5}, nil, 1)

	_, err := Compile(model, 0)
	assert.ErrorIs(t, err, ErrLength)

	pl, err := Compile(model, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, pl.Len())
	assert.Equal(t, 1, pl.Dim())
	assert.ErrorIs(t, pl.Apply(make([]float64, 9), make([]float64, 10)), ErrLength)
	assert.ErrorIs(t, pl.Apply(make([]float64, 10), make([]float64, 9)), ErrLength)

	f := New(false)
	_, err = f.Initialize(model, 10)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Filter(make([]float64, 11), make([]float64, 11)), ErrLength)
}
