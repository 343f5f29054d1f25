package regarima

import (
	"context"
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/regarima/arima"
	"github.com/sartorproj/regarima/params"
	"github.com/sartorproj/regarima/stats"
)

// DefaultInitializerPrecision is the precision of the coarse estimation of
// LeastSquaresInitializer.
const DefaultInitializerPrecision = 1e-4

// LeastSquaresInitializer returns an initializer that estimates the ARMA
// parameters by least squares on the innovations, with a loose precision,
// from the default parameters of the mapping. When that estimation fails
// the default parameters are used.
func LeastSquaresInitializer[M arima.Family[M]](mapping func(M) params.Mapping[M], precision float64) Initializer[M] {
	if precision <= 0 {
		precision = DefaultInitializerPrecision
	}
	return InitializerFunc[M](func(ctx context.Context, model *Model[M]) (*Model[M], error) {
		proc, err := NewProcessor(Config[M]{Mapping: mapping, Precision: precision})
		if err != nil {
			return nil, err
		}
		start, err := proc.Initialize(ctx, model)
		if err != nil {
			return nil, err
		}
		est, err := proc.optimize(ctx, start, precision, false)
		switch {
		case errors.Is(err, ErrOptimizationFailed):
			return nil, nil
		case err != nil:
			return nil, err
		}
		return est.Model, nil
	})
}

// YuleWalkerInitializer returns an initializer for ARIMA models. The AR
// coefficients are the Yule-Walker estimates computed on the least squares
// residuals of the differenced regression; the MA coefficients start at
// their defaults.
func YuleWalkerInitializer() Initializer[*arima.Model] {
	return InitializerFunc[*arima.Model](func(_ context.Context, model *Model[*arima.Model]) (*Model[*arima.Model], error) {
		dmodel, err := model.DifferencedModel()
		if err != nil {
			return nil, err
		}
		mapping := arima.MappingOf(model.Arima())
		p := mapping.DefaultParameters()
		if order := model.Arima().Order().P; order > 0 {
			res := olsResiduals(dmodel.y, dmodel.x)
			if phi := arima.YuleWalker(stats.ACF(res, order), order); phi != nil {
				copy(p, phi)
			}
		}
		if mapping.Validate(p) == params.Invalid {
			return nil, nil
		}
		start, err := mapping.Map(p)
		if err != nil {
			return nil, err
		}
		return model.WithArima(start), nil
	})
}

// olsResiduals returns the residuals of the least squares regression of y
// on x, or y itself when x is nil or rank deficient.
func olsResiduals(y []float64, x *mat.Dense) []float64 {
	if x == nil {
		return y
	}
	var qr mat.QR
	qr.Factorize(x)
	var b mat.VecDense
	if err := qr.SolveVecTo(&b, false, mat.NewVecDense(len(y), y)); err != nil {
		return y
	}
	var fit mat.VecDense
	fit.MulVec(x, &b)
	res := make([]float64, len(y))
	for i := range res {
		res[i] = y[i] - fit.AtVec(i)
	}
	return res
}
