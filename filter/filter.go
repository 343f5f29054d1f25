// Package filter implements the innovations filter of ARMA processes.
package filter

import (
	"errors"
	"fmt"

	"github.com/sartorproj/regarima/arima"
)

var (
	// ErrInvalidModel is returned when the prediction variance of the
	// recursion is not a positive number, which happens for non-stationary
	// models or invalid variances.
	ErrInvalidModel = errors.New("filter: invalid model")
	// ErrLength is returned for data that does not match the initialized length.
	ErrLength = errors.New("filter: invalid length")
	// ErrNotInitialized is returned when a filter is used before Initialize.
	ErrNotInitialized = errors.New("filter: not initialized")
)

// DefaultSteadyStateTolerance is the relative gap between the prediction
// variance and the innovation variance below which the gains are frozen.
const DefaultSteadyStateTolerance = 1e-12

type config struct {
	tol float64
}

// Option configures the recursion.
type Option func(*config)

// WithSteadyStateTolerance sets the relative steady-state tolerance. A
// negative value disables the steady-state shortcut.
func WithSteadyStateTolerance(tol float64) Option {
	return func(c *config) {
		c.tol = tol
	}
}

func newConfig(opts []Option) config {
	cfg := config{tol: DefaultSteadyStateTolerance}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// LogDeterminant returns the log-determinant of the covariance matrix of n
// consecutive observations of model. It is cheaper than filtering: once the
// steady state is reached the remaining terms are added at once.
func LogDeterminant(model arima.Arma, n int, opts ...Option) (float64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrLength, n)
	}
	st, err := newState(model, newConfig(opts).tol)
	if err != nil {
		return 0, err
	}
	return st.sweep(n, nil, nil)
}

// Filter is a reusable innovations filter. In multiuse mode Initialize
// compiles a Plan, which makes repeated filtering of sequences of the same
// length cheap; otherwise the gains are recomputed while filtering.
//
// A Filter is not safe for concurrent use; Exemplar gives each goroutine
// its own instance.
type Filter struct {
	multiuse bool
	opts     []Option

	n     int
	init  *state
	plan  *Plan
	ldet  float64
	ready bool // ldet is up to date
}

// New creates a filter.
func New(multiuse bool, opts ...Option) *Filter {
	return &Filter{multiuse: multiuse, opts: opts}
}

// IsMultiuse reports whether the filter compiles its gains at initialization.
func (f *Filter) IsMultiuse() bool { return f.multiuse }

// Exemplar returns a new uninitialized filter with the same configuration.
func (f *Filter) Exemplar() *Filter {
	return New(f.multiuse, f.opts...)
}

// Initialize prepares the filter for sequences of length n generated by
// model. It returns the number of innovations produced by Filter.
func (f *Filter) Initialize(model arima.Arma, n int) (int, error) {
	f.n, f.init, f.plan, f.ready = 0, nil, nil, false
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrLength, n)
	}
	if f.multiuse {
		pl, err := Compile(model, n, f.opts...)
		if err != nil {
			return 0, err
		}
		f.plan = pl
		f.ldet, f.ready = pl.LogDeterminant(), true
	} else {
		st, err := newState(model, newConfig(f.opts).tol)
		if err != nil {
			return 0, err
		}
		f.init = st
	}
	f.n = n
	return n, nil
}

// Filter writes the standardized innovations of y to out.
func (f *Filter) Filter(y, out []float64) error {
	if f.plan != nil {
		return f.plan.Apply(y, out)
	}
	if f.init == nil {
		return ErrNotInitialized
	}
	if len(y) != f.n {
		return fmt.Errorf("%w: data has %d elements, want %d", ErrLength, len(y), f.n)
	}
	if len(out) != f.n {
		return fmt.Errorf("%w: output has %d elements, want %d", ErrLength, len(out), f.n)
	}
	ldet, err := f.init.clone().sweep(f.n, y, out)
	if err != nil {
		return err
	}
	f.ldet, f.ready = ldet, true
	return nil
}

// LogDeterminant returns the log-determinant of the covariance matrix. When
// nothing was filtered yet it is computed without filtering.
func (f *Filter) LogDeterminant() (float64, error) {
	if f.ready {
		return f.ldet, nil
	}
	if f.init == nil {
		return 0, ErrNotInitialized
	}
	ldet, err := f.init.clone().sweep(f.n, nil, nil)
	if err != nil {
		return 0, err
	}
	f.ldet, f.ready = ldet, true
	return ldet, nil
}
