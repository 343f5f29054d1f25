package regarima

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sartorproj/regarima/arima"
	"github.com/sartorproj/regarima/params"
	"github.com/sartorproj/regarima/ssq"
)

// DefaultPrecision is the default relative precision on the objective.
const DefaultPrecision = ssq.DefaultPrecision

// ErrNoMapping is returned by NewProcessor when the configuration has no
// mapping provider.
var ErrNoMapping = errors.New("regarima: no parameter mapping")

// Initializer computes the starting model of the estimation.
type Initializer[M arima.Family[M]] interface {
	// Initialize returns the model to start from. A nil model means that
	// the default parameters of the mapping are used.
	Initialize(ctx context.Context, model *Model[M]) (*Model[M], error)
}

// InitializerFunc adapts a function to the Initializer interface.
type InitializerFunc[M arima.Family[M]] func(ctx context.Context, model *Model[M]) (*Model[M], error)

// Initialize calls f(ctx, model).
func (f InitializerFunc[M]) Initialize(ctx context.Context, model *Model[M]) (*Model[M], error) {
	return f(ctx, model)
}

// Finalizer post-processes an estimation.
type Finalizer[M arima.Family[M]] interface {
	Finalize(ctx context.Context, est *Estimation[M]) (*Estimation[M], error)
}

// FinalizerFunc adapts a function to the Finalizer interface.
type FinalizerFunc[M arima.Family[M]] func(ctx context.Context, est *Estimation[M]) (*Estimation[M], error)

// Finalize calls f(ctx, est).
func (f FinalizerFunc[M]) Finalize(ctx context.Context, est *Estimation[M]) (*Estimation[M], error) {
	return f(ctx, est)
}

// Config holds the configuration of a Processor.
type Config[M arima.Family[M]] struct {
	// Mapping returns the parameter mapping of a model. The models it maps
	// to must have the differencing of its argument.
	Mapping func(M) params.Mapping[M]
	// Initializer computes the starting model; nil means the default
	// parameters of the mapping.
	Initializer Initializer[M]
	// Finalizer post-processes the estimation; nil means none.
	Finalizer Finalizer[M]
	// Minimizer creates the minimizer of each run; nil means
	// Levenberg-Marquardt.
	Minimizer func() ssq.Minimizer
	// Precision is the relative precision on the objective.
	Precision float64
	// UseMaximumLikelihood selects exact maximum likelihood instead of
	// least squares on the innovations.
	UseMaximumLikelihood bool
	// UseParallelProcessing evaluates numerical derivatives concurrently.
	UseParallelProcessing bool
	Logger                logr.Logger
}

// DefaultConfig returns the default configuration for the given mapping
// provider.
func DefaultConfig[M arima.Family[M]](mapping func(M) params.Mapping[M]) Config[M] {
	return Config[M]{
		Mapping:              mapping,
		Precision:            DefaultPrecision,
		UseMaximumLikelihood: true,
		Logger:               logr.Discard(),
	}
}

// Processor estimates regression models with ARIMA errors by generalized
// least squares: the ARIMA parameters are optimized by a nonlinear
// minimizer while the regression coefficients are concentrated out.
//
// A Processor is immutable and safe for concurrent use; each estimation
// creates its own minimizer.
type Processor[M arima.Family[M]] struct {
	cfg Config[M]
}

// NewProcessor creates a processor. Zero values in cfg are replaced by
// their defaults, except the logical flags.
func NewProcessor[M arima.Family[M]](cfg Config[M]) (*Processor[M], error) {
	if cfg.Mapping == nil {
		return nil, ErrNoMapping
	}
	if cfg.Precision <= 0 {
		cfg.Precision = DefaultPrecision
	}
	if cfg.Minimizer == nil {
		log := cfg.Logger
		cfg.Minimizer = func() ssq.Minimizer {
			lm := ssq.NewLevenbergMarquardt()
			lm.Logger = log.WithName("levenberg-marquardt")
			return lm
		}
	}
	return &Processor[M]{cfg: cfg}, nil
}

// Precision returns the relative precision on the objective.
func (p *Processor[M]) Precision() float64 { return p.cfg.Precision }

// Config returns the configuration of the processor.
func (p *Processor[M]) Config() Config[M] { return p.cfg }

// Process runs the initialization, the optimization and the finalization
// of the estimation of model.
func (p *Processor[M]) Process(ctx context.Context, model *Model[M]) (*Estimation[M], error) {
	start, err := p.Initialize(ctx, model)
	if err != nil {
		return nil, err
	}
	est, err := p.Optimize(ctx, start)
	if err != nil {
		return nil, err
	}
	return p.Finalize(ctx, est)
}

// Initialize returns the model the optimization starts from.
func (p *Processor[M]) Initialize(ctx context.Context, model *Model[M]) (*Model[M], error) {
	if p.cfg.Initializer != nil {
		start, err := p.cfg.Initializer.Initialize(ctx, model)
		if err != nil {
			return nil, fmt.Errorf("regarima: initialization: %w", err)
		}
		if start != nil {
			return start, nil
		}
	}
	mapping := p.cfg.Mapping(model.Arima())
	start, err := mapping.Map(mapping.DefaultParameters())
	if err != nil {
		return nil, fmt.Errorf("regarima: initialization: %w", err)
	}
	return model.WithArima(start), nil
}

// Finalize applies the finalizer, if any, to est.
func (p *Processor[M]) Finalize(ctx context.Context, est *Estimation[M]) (*Estimation[M], error) {
	if p.cfg.Finalizer == nil {
		return est, nil
	}
	return p.cfg.Finalizer.Finalize(ctx, est)
}

// Optimize estimates model starting from its current ARIMA parameters.
func (p *Processor[M]) Optimize(ctx context.Context, model *Model[M]) (*Estimation[M], error) {
	return p.optimize(ctx, model, p.cfg.Precision, p.cfg.UseMaximumLikelihood)
}

func (p *Processor[M]) optimize(ctx context.Context, model *Model[M], precision float64, ml bool) (*Estimation[M], error) {
	dmodel, err := model.DifferencedModel()
	if err != nil {
		return nil, err
	}
	stationary := dmodel.Arma()
	mapping := p.cfg.Mapping(stationary)
	ndf := len(dmodel.y) - dmodel.VariablesCount()

	minimizer := p.cfg.Minimizer()
	minimizer.SetFunctionPrecision(precision)
	proc := RegArmaProcessor[M]{
		ML:       ml,
		Parallel: p.cfg.UseParallelProcessing,
		Logger:   p.cfg.Logger,
	}
	rslt, err := proc.Compute(ctx, dmodel, stationary, mapping, minimizer, ndf)
	if err != nil {
		return nil, err
	}

	full, err := p.cfg.Mapping(model.Arima()).Map(rslt.Parameters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOptimizationFailed, err)
	}
	ll, err := dmodel.WithArma(rslt.Model).Likelihood()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOptimizationFailed, err)
	}

	descriptions := make([]string, mapping.Dim())
	for i := range descriptions {
		descriptions[i] = mapping.Description(i)
	}
	p.cfg.Logger.V(1).Info("Model estimated",
		"parameters", rslt.Parameters, "logLikelihood", ll.LogLikelihood(), "converged", rslt.Converged)

	return &Estimation[M]{
		Model:        model.WithArima(full.WithVariance(ll.Sigma())),
		Likelihood:   ll,
		Parameters:   rslt.Parameters,
		Descriptions: descriptions,
		Gradient:     rslt.Gradient,
		Hessian:      rslt.Hessian,
		Converged:    rslt.Converged,
		Iterations:   rslt.Iterations,
		Trace:        rslt.Trace,
	}, nil
}
