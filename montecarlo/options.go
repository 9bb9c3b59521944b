package montecarlo

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvfit/lm"
	"github.com/sirupsen/logrus"
)

// Default option values.
const (
	DefaultTrials               = 1000
	DefaultWorkers              = 1
	DefaultMinConvergedFraction = 0.5
	DefaultLowerPercentile      = 2.5
	DefaultUpperPercentile      = 97.5
)

// Options configure Estimate. Start from DefaultOptions and override fields.
type Options struct {
	// Trials is the number of synthetic refits.
	Trials int
	// Seed drives trial i through rng.New(Seed + i).
	Seed int64
	// Workers bounds concurrent trials. Results do not depend on it.
	Workers int
	// MinConvergedFraction below which Estimate reports ErrInsufficientConvergence.
	MinConvergedFraction float64

	// Sigma overrides the noise deviation when > 0. Otherwise known
	// per-observation σ is used, else the baseline residual scale.
	Sigma float64

	// LowerPercentile and UpperPercentile bound the reported interval, in [0, 100].
	LowerPercentile float64
	UpperPercentile float64

	// OutlierFactor > 0 drops converged trials with any parameter farther
	// than OutlierFactor·max(|baseline|, 1) from the baseline.
	OutlierFactor float64

	// VarianceFactor > 0 computes every trial covariance and drops converged
	// trials with any variance above VarianceFactor·|reference|, or with a
	// singular normal matrix. Dropped trials count as Outliers.
	VarianceFactor float64

	// ParamNames labels the summaries; nil yields p0, p1, ...
	ParamNames []string

	// Fit configures the baseline fit and every trial refit.
	Fit lm.Options

	// Logger receives progress at Info and dropped trials at Debug; nil is silent.
	Logger logrus.FieldLogger
}

// DefaultOptions returns the recommended settings.
func DefaultOptions() Options {
	return Options{
		Trials:               DefaultTrials,
		Workers:              DefaultWorkers,
		MinConvergedFraction: DefaultMinConvergedFraction,
		LowerPercentile:      DefaultLowerPercentile,
		UpperPercentile:      DefaultUpperPercentile,
		Fit:                  lm.DefaultOptions(),
	}
}

// Validate reports the first inconsistent field as ErrBadOptions, or the
// nested lm.ErrBadOptions for the Fit block.
func (o Options) Validate() error {
	switch {
	case o.Trials <= 0:
		return badOption("Trials must be > 0")
	case o.Workers <= 0:
		return badOption("Workers must be > 0")
	case !(o.MinConvergedFraction >= 0 && o.MinConvergedFraction <= 1):
		return badOption("MinConvergedFraction must be in [0, 1]")
	case !(o.Sigma >= 0) || math.IsInf(o.Sigma, 0):
		return badOption("Sigma must be finite and >= 0")
	case !(o.LowerPercentile >= 0 && o.LowerPercentile < o.UpperPercentile && o.UpperPercentile <= 100):
		return badOption("want 0 <= LowerPercentile < UpperPercentile <= 100")
	case !(o.OutlierFactor >= 0) || math.IsInf(o.OutlierFactor, 0):
		return badOption("OutlierFactor must be finite and >= 0")
	case !(o.VarianceFactor >= 0) || math.IsInf(o.VarianceFactor, 0):
		return badOption("VarianceFactor must be finite and >= 0")
	}
	if err := o.Fit.Validate(); err != nil {
		return fmt.Errorf("Fit: %w", err)
	}

	return nil
}

func badOption(msg string) error { return fmt.Errorf("%s: %w", msg, ErrBadOptions) }
