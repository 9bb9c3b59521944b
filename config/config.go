// Package config loads fitter, Monte Carlo and logging settings from an
// optional YAML file, an optional .env file and LVFIT_* environment
// variables, in increasing order of precedence.
//
// Keys are dotted paths; the environment form upper-cases them and replaces
// dots with underscores:
//
//	fit.max_iterations        LVFIT_FIT_MAX_ITERATIONS
//	montecarlo.trials         LVFIT_MONTECARLO_TRIALS
//	log.level                 LVFIT_LOG_LEVEL
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/katalvlaran/lvfit/lm"
	"github.com/katalvlaran/lvfit/montecarlo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LVFIT"

// DefaultEnvFile is read when Load is given no env files.
const DefaultEnvFile = ".env"

// ErrInvalidConfig wraps unreadable files and option validation failures.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the decoded configuration tree.
type Config struct {
	Fit        FitConfig        `mapstructure:"fit"`
	MonteCarlo MonteCarloConfig `mapstructure:"montecarlo"`
	Log        LogConfig        `mapstructure:"log"`
}

// FitConfig mirrors the scalar fields of lm.Options.
type FitConfig struct {
	MaxIterations  int     `mapstructure:"max_iterations"`
	Tolerance      float64 `mapstructure:"tolerance"`
	AbsTolerance   float64 `mapstructure:"abs_tolerance"`
	StepTolerance  float64 `mapstructure:"step_tolerance"`
	DampingInit    float64 `mapstructure:"damping_init"`
	DampingUp      float64 `mapstructure:"damping_up"`
	DampingDown    float64 `mapstructure:"damping_down"`
	DampingMin     float64 `mapstructure:"damping_min"`
	DampingMax     float64 `mapstructure:"damping_max"`
	MaxRejections  int     `mapstructure:"max_rejections"`
	PivotTolerance float64 `mapstructure:"pivot_tolerance"`
	DiffStep       float64 `mapstructure:"diff_step"`
	SkipCovariance bool    `mapstructure:"skip_covariance"`
}

// MonteCarloConfig mirrors the scalar fields of montecarlo.Options.
type MonteCarloConfig struct {
	Trials               int     `mapstructure:"trials"`
	Seed                 int64   `mapstructure:"seed"`
	Workers              int     `mapstructure:"workers"`
	MinConvergedFraction float64 `mapstructure:"min_converged_fraction"`
	Sigma                float64 `mapstructure:"sigma"`
	LowerPercentile      float64 `mapstructure:"lower_percentile"`
	UpperPercentile      float64 `mapstructure:"upper_percentile"`
	OutlierFactor        float64 `mapstructure:"outlier_factor"`
	VarianceFactor       float64 `mapstructure:"variance_factor"`
}

// LogConfig selects the logger level and format ("text" or "json").
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads path (YAML; "" skips the file) and the given env files
// (DefaultEnvFile when none are named; missing env files are ignored), then
// applies LVFIT_* overrides and validates the result.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("env file %s: %w: %w", f, ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w: %w", path, ErrInvalidConfig, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode: %w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration Load produces with no file and no
// environment.
func Default() *Config {
	f, mc := lm.DefaultOptions(), montecarlo.DefaultOptions()

	return &Config{
		Fit: FitConfig{
			MaxIterations:  f.MaxIterations,
			Tolerance:      f.Tolerance,
			AbsTolerance:   f.AbsTolerance,
			StepTolerance:  f.StepTolerance,
			DampingInit:    f.DampingInit,
			DampingUp:      f.DampingUp,
			DampingDown:    f.DampingDown,
			DampingMin:     f.DampingMin,
			DampingMax:     f.DampingMax,
			MaxRejections:  f.MaxRejections,
			PivotTolerance: f.PivotTolerance,
			DiffStep:       f.DiffStep,
		},
		MonteCarlo: MonteCarloConfig{
			Trials:               mc.Trials,
			Workers:              mc.Workers,
			MinConvergedFraction: mc.MinConvergedFraction,
			LowerPercentile:      mc.LowerPercentile,
			UpperPercentile:      mc.UpperPercentile,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	for key, val := range map[string]any{
		"fit.max_iterations":                d.Fit.MaxIterations,
		"fit.tolerance":                     d.Fit.Tolerance,
		"fit.abs_tolerance":                 d.Fit.AbsTolerance,
		"fit.step_tolerance":                d.Fit.StepTolerance,
		"fit.damping_init":                  d.Fit.DampingInit,
		"fit.damping_up":                    d.Fit.DampingUp,
		"fit.damping_down":                  d.Fit.DampingDown,
		"fit.damping_min":                   d.Fit.DampingMin,
		"fit.damping_max":                   d.Fit.DampingMax,
		"fit.max_rejections":                d.Fit.MaxRejections,
		"fit.pivot_tolerance":               d.Fit.PivotTolerance,
		"fit.diff_step":                     d.Fit.DiffStep,
		"fit.skip_covariance":               d.Fit.SkipCovariance,
		"montecarlo.trials":                 d.MonteCarlo.Trials,
		"montecarlo.seed":                   d.MonteCarlo.Seed,
		"montecarlo.workers":                d.MonteCarlo.Workers,
		"montecarlo.min_converged_fraction": d.MonteCarlo.MinConvergedFraction,
		"montecarlo.sigma":                  d.MonteCarlo.Sigma,
		"montecarlo.lower_percentile":       d.MonteCarlo.LowerPercentile,
		"montecarlo.upper_percentile":       d.MonteCarlo.UpperPercentile,
		"montecarlo.outlier_factor":         d.MonteCarlo.OutlierFactor,
		"montecarlo.variance_factor":        d.MonteCarlo.VarianceFactor,
		"log.level":                         d.Log.Level,
		"log.format":                        d.Log.Format,
	} {
		v.SetDefault(key, val)
	}
}

// Validate checks the fit and Monte Carlo blocks through their own
// validators and the log block against logrus levels.
func (c *Config) Validate() error {
	if err := c.MonteCarloOptions().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: %w", c.Log.Format, ErrInvalidConfig)
	}

	return nil
}

// FitOptions converts the fit block. Fixed and Logger stay nil.
func (c *Config) FitOptions() lm.Options {
	f := c.Fit
	o := lm.DefaultOptions()
	o.MaxIterations = f.MaxIterations
	o.Tolerance = f.Tolerance
	o.AbsTolerance = f.AbsTolerance
	o.StepTolerance = f.StepTolerance
	o.DampingInit = f.DampingInit
	o.DampingUp = f.DampingUp
	o.DampingDown = f.DampingDown
	o.DampingMin = f.DampingMin
	o.DampingMax = f.DampingMax
	o.MaxRejections = f.MaxRejections
	o.PivotTolerance = f.PivotTolerance
	o.DiffStep = f.DiffStep
	o.SkipCovariance = f.SkipCovariance

	return o
}

// MonteCarloOptions converts the montecarlo block with FitOptions nested.
func (c *Config) MonteCarloOptions() montecarlo.Options {
	m := c.MonteCarlo
	o := montecarlo.DefaultOptions()
	o.Trials = m.Trials
	o.Seed = m.Seed
	o.Workers = m.Workers
	o.MinConvergedFraction = m.MinConvergedFraction
	o.Sigma = m.Sigma
	o.LowerPercentile = m.LowerPercentile
	o.UpperPercentile = m.UpperPercentile
	o.OutlierFactor = m.OutlierFactor
	o.VarianceFactor = m.VarianceFactor
	o.Fit = c.FitOptions()

	return o
}

// NewLogger builds a stderr logger with the configured level and format.
// An unparsable level falls back to Info.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if strings.EqualFold(c.Log.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
