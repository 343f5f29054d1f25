package autoarima

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/regarima/regarima"
	"github.com/sartorproj/regarima/sarima"
	"github.com/sartorproj/regarima/stats"
	"github.com/sartorproj/regarima/timeseries"
)

var (
	// ErrNoModel is returned when no candidate order could be estimated.
	ErrNoModel = errors.New("autoarima: no candidate model could be estimated")
	// ErrCriterion is returned for an unknown information criterion.
	ErrCriterion = errors.New("autoarima: unknown criterion")
	// ErrTransform is returned for an unknown transformation.
	ErrTransform = errors.New("autoarima: unknown transform")
)

// Transformations of the series.
const (
	TransformAuto = "auto"
	TransformNone = "none"
	TransformLog  = "log"
)

// Config holds the search configuration.
type Config struct {
	MaxP  int `yaml:"maxP"`  // Maximum non-seasonal AR order
	MaxD  int `yaml:"maxD"`  // Maximum non-seasonal differencing
	MaxQ  int `yaml:"maxQ"`  // Maximum non-seasonal MA order
	MaxSP int `yaml:"maxSP"` // Maximum seasonal AR order
	MaxSD int `yaml:"maxSD"` // Maximum seasonal differencing
	MaxSQ int `yaml:"maxSQ"` // Maximum seasonal MA order

	// D and SD fix the differencing orders; negative values let the
	// KPSS and seasonal strength tests decide.
	D  int `yaml:"d"`
	SD int `yaml:"sd"`

	Seasonal bool `yaml:"seasonal"`
	// Period is the seasonal period; 0 means the frequency of the series.
	Period int `yaml:"period"`

	Stepwise  bool   `yaml:"stepwise"`  // Use stepwise search (faster)
	Criterion string `yaml:"criterion"` // "aic", "aicc" or "bic"
	// Mean allows a mean correction when the total differencing order is
	// below 2.
	Mean bool `yaml:"mean"`
	// Transform is "auto" (range-mean test), "none" or "log".
	Transform string `yaml:"transform"`

	Precision float64 `yaml:"precision"`
	// Parallelism bounds the number of concurrent estimations; 0 means
	// GOMAXPROCS.
	Parallelism int `yaml:"parallelism"`

	// Progress is called after each estimation with the number of
	// estimated candidates and the number scheduled so far.
	Progress func(done, scheduled int) `yaml:"-"`
	Logger   logr.Logger               `yaml:"-"`
}

// DefaultConfig returns the default search configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxP:      5,
		MaxD:      2,
		MaxQ:      5,
		MaxSP:     2,
		MaxSD:     1,
		MaxSQ:     2,
		D:         -1,
		SD:        -1,
		Seasonal:  true,
		Stepwise:  true,
		Criterion: "aicc",
		Mean:      true,
		Transform: TransformAuto,
		Precision: regarima.DefaultPrecision,
		Logger:    logr.Discard(),
	}
}

// Candidate is one estimated order.
type Candidate struct {
	Order      sarima.Order
	Estimation *regarima.Estimation[*sarima.Model]
	Criterion  float64
	Err        error
}

// Result holds the outcome of the search.
type Result struct {
	Order      sarima.Order
	Estimation *regarima.Estimation[*sarima.Model]
	Criterion  float64
	// Log reports whether the model was estimated on the logs of the series.
	Log       bool
	RangeMean *stats.RangeMeanResult
	// Candidates lists every estimated order, in evaluation order.
	Candidates      []Candidate
	ModelsEvaluated int
}

// Model returns the selected SARIMA model.
func (r *Result) Model() *sarima.Model { return r.Estimation.Model.Arima() }

// AIC returns the AIC of the selected model.
func (r *Result) AIC() float64 { return r.Estimation.AIC() }

// AICc returns the corrected AIC of the selected model.
func (r *Result) AICc() float64 { return r.Estimation.AICc() }

// BIC returns the BIC of the selected model.
func (r *Result) BIC() float64 { return r.Estimation.BIC() }

// Residuals returns the full residuals of the selected model.
func (r *Result) Residuals() []float64 { return r.Estimation.Residuals() }

func (c *Config) score(est *regarima.Estimation[*sarima.Model]) float64 {
	switch c.Criterion {
	case "aic":
		return est.AIC()
	case "bic":
		return est.BIC()
	default:
		return est.AICc()
	}
}

func (c *Config) validate() error {
	switch c.Criterion {
	case "aic", "aicc", "bic":
	default:
		return fmt.Errorf("%w: %q", ErrCriterion, c.Criterion)
	}
	switch c.Transform {
	case TransformAuto, TransformNone, TransformLog:
	default:
		return fmt.Errorf("%w: %q", ErrTransform, c.Transform)
	}
	return nil
}

// Select searches for the SARIMA order that minimizes the configured
// information criterion on series, using its regressors as regression
// variables. Orders that fail to estimate are skipped.
func Select(ctx context.Context, series *timeseries.Series, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger

	period := cfg.Period
	if period == 0 {
		period = series.Frequency()
	}
	seasonal := cfg.Seasonal && period > 1

	result := &Result{}
	freq := max(period, 1)
	switch cfg.Transform {
	case TransformLog:
		result.Log = true
	case TransformAuto:
		if rm := stats.RangeMean(series.Values, freq, 0); rm != nil {
			result.RangeMean = rm
			result.Log = rm.UseLogs
			log.V(1).Info("Range-mean test", "tstat", rm.TStat, "logs", rm.UseLogs)
		}
	}
	if result.Log {
		logged, err := series.Log()
		if err != nil {
			return nil, err
		}
		series = logged
	}

	d, sd := determineDifferencing(series.Values, cfg, seasonal, period)
	base := sarima.Order{D: d}
	if seasonal {
		base.SD = sd
		base.M = period
	}
	mean := cfg.Mean && d+sd < 2
	log.Info("Differencing determined", "d", base.D, "sd", base.SD, "period", period, "mean", mean)

	s := &searcher{
		cfg:      cfg,
		seasonal: seasonal,
		base:     base,
		y:        series.Values,
		mean:     mean,
		seen:     make(map[sarima.Order]bool),
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	if len(series.Regressors) > 0 {
		s.x = series.Design()
	}

	var err error
	if cfg.Stepwise {
		err = s.stepwise(ctx)
	} else {
		err = s.exhaustive(ctx)
	}
	if err != nil {
		return nil, err
	}
	if s.best < 0 {
		return nil, ErrNoModel
	}

	best := s.candidates[s.best]
	result.Order = best.Order
	result.Estimation = best.Estimation
	result.Criterion = best.Criterion
	result.Candidates = s.candidates
	result.ModelsEvaluated = len(s.candidates)

	diag := regarima.LjungBoxFinalizer[*sarima.Model](0)
	if est, err := diag.Finalize(ctx, best.Estimation); err == nil {
		result.Estimation = est
	}
	log.Info("Model selected", "order", best.Order.String(), cfg.Criterion, best.Criterion,
		"evaluated", result.ModelsEvaluated)
	return result, nil
}

// determineDifferencing returns the seasonal then regular differencing
// orders, testing the seasonally differenced series for unit roots.
func determineDifferencing(y []float64, cfg *Config, seasonal bool, period int) (d, sd int) {
	if seasonal {
		sd = cfg.SD
		if sd < 0 {
			sd = stats.NSDiffs(y, period, cfg.MaxSD)
		}
	}
	d = cfg.D
	if d < 0 {
		x := y
		if sd > 0 {
			x = timeseries.New(y).Difference(0, sd, period).Values
		}
		d = stats.NDiffs(x, cfg.MaxD)
	}
	return d, sd
}

type searcher struct {
	cfg      *Config
	seasonal bool
	base     sarima.Order
	y        []float64
	x        *mat.Dense
	mean     bool
	proc     *regarima.Processor[*sarima.Model]

	mu         sync.Mutex
	seen       map[sarima.Order]bool
	candidates []Candidate
	best       int
	scheduled  int
	done       int
}

func (s *searcher) init() error {
	pcfg := regarima.DefaultConfig(sarima.MappingOf)
	pcfg.Precision = s.cfg.Precision
	pcfg.Logger = s.cfg.Logger.WithName("regarima")
	proc, err := regarima.NewProcessor(pcfg)
	if err != nil {
		return err
	}
	s.proc = proc
	s.best = -1
	return nil
}

func (s *searcher) order(p, q, sp, sq int) sarima.Order {
	o := s.base
	o.P, o.Q = p, q
	if s.seasonal {
		o.SP, o.SQ = sp, sq
	}
	return o
}

func (s *searcher) admissible(o sarima.Order) bool {
	if o.P < 0 || o.Q < 0 || o.SP < 0 || o.SQ < 0 {
		return false
	}
	if o.P > s.cfg.MaxP || o.Q > s.cfg.MaxQ || o.SP > s.cfg.MaxSP || o.SQ > s.cfg.MaxSQ {
		return false
	}
	n := o.ParameterCount()
	if s.mean {
		n++
	}
	if s.x != nil {
		_, c := s.x.Dims()
		n += c
	}
	return len(s.y)-s.base.D-s.base.SD*s.base.M > n
}

// evaluate estimates the orders that have not been seen yet, concurrently.
// It reports whether the best candidate changed.
func (s *searcher) evaluate(ctx context.Context, orders []sarima.Order) (bool, error) {
	s.mu.Lock()
	var todo []sarima.Order
	for _, o := range orders {
		if !s.seen[o] && s.admissible(o) {
			s.seen[o] = true
			todo = append(todo, o)
		}
	}
	s.scheduled += len(todo)
	s.mu.Unlock()
	if len(todo) == 0 {
		return false, nil
	}

	limit := s.cfg.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	results := make([]Candidate, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, o := range todo {
		g.Go(func() error {
			results[i] = s.estimate(gctx, o)
			if err := gctx.Err(); err != nil {
				return err
			}
			s.progress()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	improved := false
	for _, c := range results {
		s.candidates = append(s.candidates, c)
		if c.Err != nil {
			continue
		}
		if s.best < 0 || c.Criterion < s.candidates[s.best].Criterion {
			s.best = len(s.candidates) - 1
			improved = true
		}
	}
	return improved, nil
}

func (s *searcher) progress() {
	if s.cfg.Progress == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done++
	s.cfg.Progress(s.done, s.scheduled)
}

func (s *searcher) estimate(ctx context.Context, o sarima.Order) Candidate {
	c := Candidate{Order: o, Criterion: math.Inf(1)}
	start, err := sarima.New(o, make([]float64, o.P), make([]float64, o.SP),
		make([]float64, o.Q), make([]float64, o.SQ), 1)
	if err != nil {
		c.Err = err
		return c
	}
	model, err := regarima.NewModel(s.y, s.x, s.mean, start)
	if err != nil {
		c.Err = err
		return c
	}
	est, err := s.proc.Process(ctx, model)
	if err != nil {
		c.Err = err
		s.cfg.Logger.V(1).Info("Candidate failed", "order", o.String(), "error", err.Error())
		return c
	}
	c.Estimation = est
	c.Criterion = s.cfg.score(est)
	s.cfg.Logger.V(1).Info("Candidate estimated", "order", o.String(), s.cfg.Criterion, c.Criterion)
	return c
}

// exhaustive estimates every admissible order.
func (s *searcher) exhaustive(ctx context.Context) error {
	var orders []sarima.Order
	for p := 0; p <= s.cfg.MaxP; p++ {
		for q := 0; q <= s.cfg.MaxQ; q++ {
			if !s.seasonal {
				orders = append(orders, s.order(p, q, 0, 0))
				continue
			}
			for sp := 0; sp <= s.cfg.MaxSP; sp++ {
				for sq := 0; sq <= s.cfg.MaxSQ; sq++ {
					orders = append(orders, s.order(p, q, sp, sq))
				}
			}
		}
	}
	_, err := s.evaluate(ctx, orders)
	return err
}

// stepwise starts from a few simple orders and moves to the best
// neighbouring order until no neighbour improves the criterion.
func (s *searcher) stepwise(ctx context.Context) error {
	start := []sarima.Order{
		s.order(2, 2, 1, 1),
		s.order(0, 0, 0, 0),
		s.order(1, 0, 1, 0),
		s.order(0, 1, 0, 1),
	}
	if _, err := s.evaluate(ctx, start); err != nil {
		return err
	}
	for s.best >= 0 {
		improved, err := s.evaluate(ctx, s.neighbours(s.candidates[s.best].Order))
		if err != nil {
			return err
		}
		if !improved {
			break
		}
	}
	return nil
}

func (s *searcher) neighbours(o sarima.Order) []sarima.Order {
	var rslt []sarima.Order
	add := func(dp, dq, dsp, dsq int) {
		rslt = append(rslt, s.order(o.P+dp, o.Q+dq, o.SP+dsp, o.SQ+dsq))
	}
	for _, step := range []int{-1, 1} {
		add(step, 0, 0, 0)
		add(0, step, 0, 0)
		add(step, step, 0, 0)
		if s.seasonal {
			add(0, 0, step, 0)
			add(0, 0, 0, step)
			add(0, 0, step, step)
		}
	}
	return rslt
}
