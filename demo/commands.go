package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/regarima/autoarima"
	"github.com/sartorproj/regarima/regarima"
	"github.com/sartorproj/regarima/sarima"
	"github.com/sartorproj/regarima/ssq"
	"github.com/sartorproj/regarima/stats"
	"github.com/sartorproj/regarima/timeseries"
)

// =============================================================================
// ESTIMATE COMMAND
// =============================================================================

var (
	orderFlag     string
	seasonalFlag  string
	periodFlag    int
	residualsPath string
)

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate FILE",
		Short: "Estimate a regression model with SARIMA errors",
		Args:  cobra.ExactArgs(1),
		RunE:  runEstimate,
	}
	f := cmd.Flags()
	f.StringVar(&orderFlag, "order", "", "regular order p,d,q")
	f.StringVar(&seasonalFlag, "seasonal", "", "seasonal order P,D,Q")
	f.IntVar(&periodFlag, "period", 0, "seasonal period (0 = frequency of the series)")
	f.StringVar(&residualsPath, "residuals", "", "write the residuals to this CSV file")
	return cmd
}

func minimizer(method string) (func() ssq.Minimizer, error) {
	switch method {
	case "", "lm":
		return nil, nil
	case "bfgs":
		return func() ssq.Minimizer { return ssq.NewGonum(&optimize.BFGS{}) }, nil
	case "neldermead":
		return func() ssq.Minimizer { return ssq.NewGonum(&optimize.NelderMead{}) }, nil
	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, series, err := setup(cmd, args)
	if err != nil {
		return err
	}
	log, sync, err := newLogger(verbosity)
	if err != nil {
		return err
	}
	defer sync()

	ec := cfg.Estimation
	if orderFlag != "" {
		if ec.Order, err = parseOrder(orderFlag); err != nil {
			return err
		}
	}
	if seasonalFlag != "" {
		if ec.Seasonal, err = parseOrder(seasonalFlag); err != nil {
			return err
		}
	}
	if periodFlag > 0 {
		ec.Period = periodFlag
	}
	if ec.Period == 0 {
		ec.Period = series.Frequency()
	}
	if len(ec.Order) != 3 || (len(ec.Seasonal) != 0 && len(ec.Seasonal) != 3) {
		return fmt.Errorf("invalid order %v %v", ec.Order, ec.Seasonal)
	}

	order := sarima.Order{P: ec.Order[0], D: ec.Order[1], Q: ec.Order[2]}
	if ec.Period > 1 && len(ec.Seasonal) == 3 {
		order.SP, order.SD, order.SQ, order.M = ec.Seasonal[0], ec.Seasonal[1], ec.Seasonal[2], ec.Period
	}
	start, err := sarima.New(order, make([]float64, order.P), make([]float64, order.SP),
		make([]float64, order.Q), make([]float64, order.SQ), 1)
	if err != nil {
		return err
	}

	if ec.Log {
		if series, err = series.Log(); err != nil {
			return err
		}
	}
	model, err := regarima.NewModel(series.Values, series.Design(), ec.Mean && order.D+order.SD < 2, start)
	if err != nil {
		return err
	}

	pcfg := regarima.DefaultConfig(sarima.MappingOf)
	pcfg.Precision = ec.Precision
	pcfg.UseParallelProcessing = ec.Parallel
	pcfg.Logger = log.WithName("regarima")
	if pcfg.Minimizer, err = minimizer(ec.Method); err != nil {
		return err
	}
	pcfg.Initializer = regarima.LeastSquaresInitializer(sarima.MappingOf, 0)
	base, err := regarima.NewProcessor(pcfg)
	if err != nil {
		return err
	}
	proc, err := regarima.NewProcessor(withFinalizer(pcfg, base, ec.Lags))
	if err != nil {
		return err
	}

	log.Info("Estimating", "order", order.String(), "n", series.Len(), "regressors", len(series.Regressors))
	est, err := proc.Process(cmd.Context(), model)
	if err != nil {
		return err
	}

	if residualsPath != "" {
		if err := writeResiduals(residualsPath, series, est.Residuals()); err != nil {
			return err
		}
	}
	summary := est.Summary()
	if yamlOutput {
		return writeYAML(cmd.OutOrStdout(), summary)
	}
	printSummary(cmd.OutOrStdout(), summary, series.RegressorNames)
	return nil
}

// withFinalizer adds re-estimation of non-converged runs by proc and
// residual diagnostics to pcfg.
func withFinalizer(pcfg regarima.Config[*sarima.Model], proc *regarima.Processor[*sarima.Model], lags int) regarima.Config[*sarima.Model] {
	pcfg.Finalizer = regarima.Finalizers(
		regarima.ReestimateFinalizer(proc, 0),
		regarima.LjungBoxFinalizer[*sarima.Model](lags),
	)
	return pcfg
}

// writeResiduals writes the residuals aligned on the last observations of
// the series.
func writeResiduals(path string, series *timeseries.Series, res []float64) error {
	lost := series.Len() - len(res)
	tail, err := series.Slice(lost, series.Len())
	if err != nil {
		return err
	}
	out := timeseries.New(res)
	out.Name = "residuals"
	out.Timestamps = tail.Timestamps
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return timeseries.WriteCSV(f, out)
}

func printSummary(w io.Writer, s *regarima.Summary, names []string) {
	fmt.Fprintf(w, "Model: %s\n", s.Model)
	fmt.Fprintf(w, "Observations: %d, converged: %t, iterations: %d\n", s.NObs, s.Converged, s.Iterations)
	fmt.Fprintf(w, "\n%-12s %12s %12s %8s\n", "", "Estimate", "Std. Error", "T-Stat")
	for _, p := range s.Parameters {
		fmt.Fprintf(w, "%-12s %12.6f %12.6f %8.3f\n", p.Name, p.Value, p.StdErr, p.TStat)
	}
	offset := len(s.Coefficients) - len(names)
	for i, c := range s.Coefficients {
		name := c.Name
		if i >= offset {
			name = names[i-offset]
		}
		fmt.Fprintf(w, "%-12s %12.6f %12.6f %8.3f\n", name, c.Value, c.StdErr, c.TStat)
	}
	fmt.Fprintf(w, "\nsigma^2: %.6g, log-likelihood: %.4f\n", s.Variance, s.LogLik)
	fmt.Fprintf(w, "AIC: %.4f, AICc: %.4f, BIC: %.4f\n", s.AIC, s.AICc, s.BIC)
	if d := s.Diagnostics; d != nil && d.LjungBox != nil {
		fmt.Fprintf(w, "Ljung-Box(%d): %.4f (p=%.4f)\n", d.LjungBox.Lags, d.LjungBox.Statistic, d.LjungBox.PValue)
	}
}

// =============================================================================
// SELECT COMMAND
// =============================================================================

var (
	exhaustiveFlag bool
	criterionFlag  string
)

// SelectionReport is the structured output of the select command.
type SelectionReport struct {
	Order           string            `yaml:"order"`
	Criterion       string            `yaml:"criterion"`
	Value           float64           `yaml:"value"`
	Log             bool              `yaml:"log"`
	ModelsEvaluated int               `yaml:"models_evaluated"`
	Summary         *regarima.Summary `yaml:"summary"`
	Candidates      []CandidateReport `yaml:"candidates"`
}

// CandidateReport describes one estimated order.
type CandidateReport struct {
	Order string  `yaml:"order"`
	Value float64 `yaml:"value,omitempty"`
	Error string  `yaml:"error,omitempty"`
}

func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select FILE",
		Short: "Select the SARIMA order minimizing an information criterion",
		Args:  cobra.ExactArgs(1),
		RunE:  runSelect,
	}
	f := cmd.Flags()
	f.BoolVar(&exhaustiveFlag, "exhaustive", false, "estimate every order instead of a stepwise search")
	f.StringVar(&criterionFlag, "criterion", "", "aic, aicc or bic")
	f.IntVar(&periodFlag, "period", 0, "seasonal period (0 = frequency of the series)")
	return cmd
}

func runSelect(cmd *cobra.Command, args []string) error {
	cfg, series, err := setup(cmd, args)
	if err != nil {
		return err
	}
	log, sync, err := newLogger(verbosity)
	if err != nil {
		return err
	}
	defer sync()

	sc := cfg.Selection
	if exhaustiveFlag {
		sc.Stepwise = false
	}
	if criterionFlag != "" {
		sc.Criterion = criterionFlag
	}
	if periodFlag > 0 {
		sc.Period = periodFlag
	}
	sc.Logger = log.WithName("autoarima")

	bar := progressBar(-1)
	sc.Progress = func(done, scheduled int) {
		bar.ChangeMax(scheduled)
		_ = bar.Set(done)
	}
	result, err := autoarima.Select(cmd.Context(), series, sc)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	report := SelectionReport{
		Order:           result.Order.String(),
		Criterion:       sc.Criterion,
		Value:           result.Criterion,
		Log:             result.Log,
		ModelsEvaluated: result.ModelsEvaluated,
		Summary:         result.Estimation.Summary(),
	}
	for _, c := range result.Candidates {
		cr := CandidateReport{Order: c.Order.String()}
		if c.Err != nil {
			cr.Error = c.Err.Error()
		} else {
			cr.Value = c.Criterion
		}
		report.Candidates = append(report.Candidates, cr)
	}
	if yamlOutput {
		return writeYAML(cmd.OutOrStdout(), report)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Best model: %s, %s %.4f (%d models evaluated)\n",
		report.Order, report.Criterion, report.Value, report.ModelsEvaluated)
	if result.Log {
		fmt.Fprintln(w, "Estimated on logs")
	}
	fmt.Fprintln(w)
	printSummary(w, report.Summary, series.RegressorNames)
	return nil
}

// progressBar returns a bar writing to stderr; length -1 draws a spinner
// until the length is known.
func progressBar(length int) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		length,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("estimating"),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

// =============================================================================
// DIAGNOSE COMMAND
// =============================================================================

// Diagnosis holds identification statistics of a series.
type Diagnosis struct {
	N         int                    `yaml:"n_obs"`
	Period    int                    `yaml:"period"`
	ACF       []float64              `yaml:"acf"`
	PACF      []float64              `yaml:"pacf"`
	Bound     float64                `yaml:"bound"`
	KPSS      *stats.KPSSResult      `yaml:"kpss,omitempty"`
	NDiffs    int                    `yaml:"ndiffs"`
	NSDiffs   int                    `yaml:"nsdiffs"`
	Seasonal  float64                `yaml:"seasonal_strength"`
	RangeMean *stats.RangeMeanResult `yaml:"range_mean,omitempty"`
	LjungBox  *stats.LjungBoxResult  `yaml:"ljung_box,omitempty"`
}

func newDiagnoseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose FILE",
		Short: "Print identification statistics of a series",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiagnose,
	}
	cmd.Flags().IntVar(&periodFlag, "period", 0, "seasonal period (0 = frequency of the series)")
	return cmd
}

func diagnose(x []float64, period int) *Diagnosis {
	maxLag := min(24, len(x)/2)
	d := &Diagnosis{
		N:         len(x),
		Period:    period,
		ACF:       stats.ACF(x, maxLag),
		PACF:      stats.PACF(x, maxLag),
		Bound:     stats.ConfidenceBound(len(x)),
		KPSS:      stats.KPSS(x, "c", 0),
		NDiffs:    stats.NDiffs(x, 2),
		RangeMean: stats.RangeMean(x, max(period, 1), 0),
		LjungBox:  stats.LjungBox(x, maxLag, 0),
	}
	if period > 1 {
		d.NSDiffs = stats.NSDiffs(x, period, 1)
		d.Seasonal = stats.SeasonalStrength(x, period)
	}
	return d
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	_, series, err := setup(cmd, args)
	if err != nil {
		return err
	}
	period := periodFlag
	if period == 0 {
		period = series.Frequency()
	}
	d := diagnose(series.Values, period)
	if yamlOutput {
		return writeYAML(cmd.OutOrStdout(), d)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Observations: %d, period: %d\n", d.N, d.Period)
	if d.KPSS != nil {
		fmt.Fprintf(w, "KPSS: %.4f (p=%.3f), stationary: %t\n", d.KPSS.Statistic, d.KPSS.PValue, d.KPSS.IsStationary)
	}
	fmt.Fprintf(w, "Differences: %d, seasonal differences: %d (strength %.3f)\n", d.NDiffs, d.NSDiffs, d.Seasonal)
	if d.RangeMean != nil {
		fmt.Fprintf(w, "Range-mean t: %.3f, logs: %t\n", d.RangeMean.TStat, d.RangeMean.UseLogs)
	}
	fmt.Fprintf(w, "\n%4s %8s %8s\n", "lag", "acf", "pacf")
	for k := 1; k < len(d.ACF) && k < len(d.PACF); k++ {
		mark := ""
		if math.Abs(d.ACF[k]) > d.Bound {
			mark = "*"
		}
		fmt.Fprintf(w, "%4d %8.4f %8.4f %s\n", k, d.ACF[k], d.PACF[k], mark)
	}
	return nil
}
