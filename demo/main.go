// Package main is a command-line front end to the estimation engine: it
// loads a series from CSV, estimates a regression model with SARIMA errors,
// searches for the best order, or prints identification diagnostics.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/regarima/autoarima"
	"github.com/sartorproj/regarima/regarima"
	"github.com/sartorproj/regarima/timeseries"
)

// Exit codes
const (
	exitSuccess = 0
	exitError   = 1
)

// DataConfig describes where the series is read from.
type DataConfig struct {
	ValueColumn string   `yaml:"value"`
	DateColumn  string   `yaml:"date"`
	DateFormat  string   `yaml:"dateFormat"`
	Regressors  []string `yaml:"regressors"`
	IDColumn    string   `yaml:"idColumn"`
	IDFilter    string   `yaml:"id"`
	SkipFirst   int      `yaml:"skipFirst"` // Number of initial observations to skip
	MaxObs      int      `yaml:"maxObs"`    // Max observations to use (0 = all, from end)
}

// EstimationConfig describes a single estimation.
type EstimationConfig struct {
	Order     []int   `yaml:"order"`    // p, d, q
	Seasonal  []int   `yaml:"seasonal"` // P, D, Q
	Period    int     `yaml:"period"`
	Mean      bool    `yaml:"mean"`
	Log       bool    `yaml:"log"`
	Precision float64 `yaml:"precision"`
	Method    string  `yaml:"method"` // lm, bfgs or neldermead
	Parallel  bool    `yaml:"parallel"`
	Lags      int     `yaml:"lags"` // Ljung-Box lags
}

// Config is the content of the YAML configuration file.
type Config struct {
	Data       DataConfig        `yaml:"data"`
	Estimation EstimationConfig  `yaml:"estimation"`
	Selection  *autoarima.Config `yaml:"selection"`
}

func defaultConfig() *Config {
	return &Config{
		Data: DataConfig{ValueColumn: "y"},
		Estimation: EstimationConfig{
			Order:     []int{0, 1, 1},
			Seasonal:  []int{0, 1, 1},
			Mean:      true,
			Precision: regarima.DefaultPrecision,
			Method:    "lm",
		},
		Selection: autoarima.DefaultConfig(),
	}
}

// loadConfig reads path over the defaults; an empty path keeps the
// defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

var (
	configPath string
	verbosity  int
	yamlOutput bool
	valueCol   string
	dateCol    string
	regressors []string
)

// newLogger returns a development zap logger behind logr; verbosity v
// enables logr V(v) messages.
func newLogger(v int) (logr.Logger, func(), error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-v))
	zc.DisableStacktrace = true
	z, err := zc.Build()
	if err != nil {
		return logr.Discard(), func() {}, err
	}
	return zapr.NewLogger(z), func() { _ = z.Sync() }, nil
}

// setup loads the configuration, applies the data flags and loads the
// series named by the first argument.
func setup(cmd *cobra.Command, args []string) (*Config, *timeseries.Series, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("value") {
		cfg.Data.ValueColumn = valueCol
	}
	if flags.Changed("date") {
		cfg.Data.DateColumn = dateCol
	}
	if flags.Changed("regressor") {
		cfg.Data.Regressors = regressors
	}
	series, err := loadSeries(args[0], cfg.Data)
	if err != nil {
		return nil, nil, err
	}
	return cfg, series, nil
}

func loadSeries(path string, dc DataConfig) (*timeseries.Series, error) {
	opts := timeseries.DefaultCSVOptions()
	opts.ValueColumn = dc.ValueColumn
	opts.DateColumn = dc.DateColumn
	opts.Regressors = dc.Regressors
	opts.IDColumn = dc.IDColumn
	opts.IDFilter = dc.IDFilter
	if dc.DateFormat != "" {
		opts.DateFormat = dc.DateFormat
	}
	series, err := timeseries.LoadCSV(path, opts)
	if err != nil {
		return nil, err
	}
	start, end := 0, series.Len()
	if dc.SkipFirst > 0 && end > dc.SkipFirst {
		start = dc.SkipFirst
	}
	if dc.MaxObs > 0 && end-start > dc.MaxObs {
		start = end - dc.MaxObs
	}
	return series.Slice(start, end)
}

// parseOrder parses "p,d,q".
func parseOrder(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid order %q: want p,d,q", s)
	}
	order := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid order %q", s)
		}
		order[i] = v
	}
	return order, nil
}

// writeYAML writes v to w. YAML keeps non-finite values such as
// unavailable standard errors.
func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "regarima",
		Short:         "Regression models with SARIMA errors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	pf.IntVarP(&verbosity, "verbosity", "v", 0, "log verbosity")
	pf.BoolVar(&yamlOutput, "yaml", false, "write YAML output")
	pf.StringVar(&valueCol, "value", "y", "value column")
	pf.StringVar(&dateCol, "date", "", "date column")
	pf.StringSliceVar(&regressors, "regressor", nil, "regression variable columns")

	root.AddCommand(newEstimateCmd(), newSelectCmd(), newDiagnoseCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}
