package likelihood

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/regarima/arima"
)

// gls computes the generalized least squares quantities with the Cholesky
// factor of the covariance matrix of model.
func gls(t *testing.T, y []float64, x *mat.Dense, model arima.Arma) (b []float64, ssq, ldet float64) {
	t.Helper()
	n := len(y)
	gamma, err := arima.AutoCovariance(model.AR(), model.MA(), model.InnovationVariance(), n)
	require.NoError(t, err)
	v := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v.SetSym(i, j, gamma[j-i])
		}
	}
	var chol mat.Cholesky
	require.True(t, chol.Factorize(v))

	yv := mat.NewVecDense(n, append([]float64(nil), y...))
	if x != nil {
		var vinvx mat.Dense
		require.NoError(t, chol.SolveTo(&vinvx, x))
		var xtvx mat.Dense
		xtvx.Mul(x.T(), &vinvx)
		var xtvy mat.VecDense
		xtvy.MulVec(vinvx.T(), yv)
		var bv mat.VecDense
		require.NoError(t, bv.SolveVec(&xtvx, &xtvy))
		b = mat.Col(nil, 0, &bv)
		var fit mat.VecDense
		fit.MulVec(x, &bv)
		yv.SubVec(yv, &fit)
	}
	var z mat.VecDense
	require.NoError(t, chol.SolveVecTo(&z, yv))
	return b, mat.Dot(yv, &z), chol.LogDet()
}

func TestWhiteNoiseLikelihood(t *testing.T) {
	y := make([]float64, 30)
	for i := range y {
		y[i] = float64(i%7-3) / 3
	}
	ll, err := Compute(y, nil, arima.NewArma(nil, nil, 1))
	require.NoError(t, err)

	ssq := 0.0
	for _, v := range y {
		ssq += v * v
	}
	assert.Equal(t, 30, ll.Dim())
	assert.Equal(t, 30, ll.DegreesOfFreedom())
	assert.InDelta(t, 0, ll.LogDeterminant(), 1e-14)
	assert.InDelta(t, ssq, ll.Ssq(), 1e-12)
	assert.InDelta(t, 1, ll.Factor(), 1e-14)
	assert.Equal(t, ll.Residuals(), ll.V())
	assert.Nil(t, ll.Coefficients())
	assert.Nil(t, ll.CoefficientsCovariance())
}

func TestConcentratedLogLikelihood(t *testing.T) {
	model := arima.NewArma([]float64{0.6}, []float64{-0.3}, 1)
	y := arima.Simulate(model, 60, 50, 17)

	ll, err := Compute(y, nil, model)
	require.NoError(t, err)
	_, ssq, ldet := gls(t, y, nil, model)
	assert.InDelta(t, ssq, ll.Ssq(), 1e-9)
	assert.InDelta(t, ldet, ll.LogDeterminant(), 1e-9)

	// maximum of the full likelihood over the innovation variance
	n := float64(len(y))
	s2 := ssq / n
	want := -0.5 * (n*math.Log(2*math.Pi) + n*math.Log(s2) + ldet + n)
	assert.InDelta(t, want, ll.LogLikelihood(), 1e-8)
	assert.InDelta(t, s2, ll.Sigma(), 1e-10)
	assert.InDelta(t, math.Sqrt(s2), ll.Ser(), 1e-10)

	// same likelihood for a rescaled model once the variance is concentrated
	scaled, err := Compute(y, nil, model.WithVariance(4))
	require.NoError(t, err)
	assert.InDelta(t, ll.LogLikelihood(), scaled.LogLikelihood(), 1e-8)
	assert.InDelta(t, ll.Objective(), scaled.Objective(), 1e-8)
}

func TestRegression(t *testing.T) {
	model := arima.NewArma([]float64{0.7}, nil, 1)
	n := 80
	u := arima.Simulate(model, n, 50, 23)
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		trend := float64(i) / float64(n)
		x.Set(i, 0, 1)
		x.Set(i, 1, trend)
		y[i] = 10 + 3*trend + u[i]
	}

	ll, err := Compute(y, x, model)
	require.NoError(t, err)
	b, ssq, ldet := gls(t, y, x, model)

	if diff := cmp.Diff(b, ll.Coefficients(), cmpopts.EquateApprox(0, 1e-8)); diff != "" {
		t.Errorf("coefficients mismatch (-gls +got):\n%s", diff)
	}
	assert.InDelta(t, ssq, ll.Ssq(), 1e-8)
	assert.InDelta(t, ldet, ll.LogDeterminant(), 1e-9)
	assert.Equal(t, n-2, ll.DegreesOfFreedom())

	cov := ll.CoefficientsCovariance()
	require.NotNil(t, cov)
	assert.Equal(t, 2, cov.SymmetricDim())
	assert.Greater(t, cov.At(0, 0), 0.0)
	assert.Len(t, ll.TStats(), 2)

	// residuals are orthogonal to the whitened regressors: adding the
	// regression to the response leaves the sum of squares unchanged
	y2 := make([]float64, n)
	for i := range y {
		y2[i] = y[i] + 5 - 2*x.At(i, 1)
	}
	ll2, err := Compute(y2, x, model)
	require.NoError(t, err)
	assert.InDelta(t, ll.Ssq(), ll2.Ssq(), 1e-8)
}

func TestSingularRegression(t *testing.T) {
	model := arima.NewArma([]float64{0.5}, nil, 1)
	n := 20
	y := arima.Simulate(model, n, 10, 1)

	x := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, 2)
	}
	_, err := Compute(y, x, model)
	assert.ErrorIs(t, err, ErrSingularRegression)

	_, err = Compute(y[:2], mat.NewDense(2, 2, []float64{1, 0, 0, 1}), model)
	assert.ErrorIs(t, err, ErrSingularRegression)

	_, err = Compute(y, mat.NewDense(n-1, 1, nil), model)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestKeepResiduals(t *testing.T) {
	model := arima.NewArma(nil, []float64{0.4}, 1)
	y := arima.Simulate(model, 50, 10, 2)

	ll, err := Computer{}.Compute(y, nil, model)
	require.NoError(t, err)
	assert.Nil(t, ll.Residuals())
	assert.Nil(t, ll.V())

	full, err := Compute(y, nil, model)
	require.NoError(t, err)
	assert.Equal(t, full.Ssq(), ll.Ssq())

	v := full.V()
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	assert.InDelta(t, full.Objective(), sum, 1e-9)
}

// Minimizing ssq*factor and maximizing the concentrated likelihood select
// the same AR coefficient.
func TestObjectiveMatchesLikelihood(t *testing.T) {
	phi := 0.7
	y := arima.Simulate(arima.NewArma([]float64{phi}, nil, 1), 500, 100, 2024)

	bestObj, bestLL := -1, -1
	minObj, maxLL := math.Inf(1), math.Inf(-1)
	grid := make([]float64, 0, 700)
	for p := 0.30; p < 0.99; p += 0.001 {
		grid = append(grid, p)
	}
	for i, p := range grid {
		ll, err := Computer{}.Compute(y, nil, arima.NewArma([]float64{p}, nil, 1))
		require.NoError(t, err)
		if obj := ll.Objective(); obj < minObj {
			minObj, bestObj = obj, i
		}
		if l := ll.LogLikelihood(); l > maxLL {
			maxLL, bestLL = l, i
		}
	}
	assert.LessOrEqual(t, math.Abs(float64(bestObj-bestLL)), 1.0)
	assert.InDelta(t, phi, grid[bestObj], 0.1)
}

func TestInformationCriteria(t *testing.T) {
	ll := NewConcentrated(10, 0, 0.5, 8, nil)
	aic := ll.AIC(2)
	assert.InDelta(t, -2*ll.LogLikelihood()+4, aic, 1e-12)
	assert.InDelta(t, aic+2*2*3/7.0, ll.AICc(2), 1e-12)
	assert.InDelta(t, -2*ll.LogLikelihood()+2*math.Log(10), ll.BIC(2), 1e-12)
	assert.True(t, math.IsInf(ll.AICc(9), 1))
}
