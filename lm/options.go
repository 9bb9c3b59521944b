package lm

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvfit/matrix/ops"
	"github.com/katalvlaran/lvfit/model"
	"github.com/sirupsen/logrus"
)

// Default option values. The damping schedule starts at 1e-3 and moves by a
// factor of ten in either direction.
const (
	DefaultMaxIterations = 500
	DefaultTolerance     = 1e-10
	DefaultAbsTolerance  = 1e-20
	DefaultStepTolerance = 1e-12
	DefaultDampingInit   = 1e-3
	DefaultDampingUp     = 10.0
	DefaultDampingDown   = 10.0
	DefaultDampingMin    = 1e-15
	DefaultDampingMax    = 1e16
	DefaultMaxRejections = 20
)

// Options configure a single fit. Start from DefaultOptions and override fields.
type Options struct {
	// MaxIterations bounds the number of linearizations (accepted or not).
	MaxIterations int
	// Tolerance is the relative SSR decrease below which an accepted step
	// counts as converged; also the plateau threshold on rejected steps.
	Tolerance float64
	// AbsTolerance: an SSR at or below this is an exact fit.
	AbsTolerance float64
	// StepTolerance: ‖δ‖ <= StepTolerance·(‖p‖ + StepTolerance) is converged.
	StepTolerance float64

	DampingInit float64
	DampingUp   float64
	DampingDown float64
	DampingMin  float64
	DampingMax  float64
	// MaxRejections bounds consecutive rejected steps before divergence.
	MaxRejections int

	// PivotTolerance is forwarded to the linear solver.
	PivotTolerance float64
	// DiffStep is the central-difference step for models without an
	// analytic gradient; 0 selects the model default.
	DiffStep float64

	// Fixed marks parameters held at their initial value. nil = all free.
	Fixed []bool
	// SkipCovariance disables the final covariance computation.
	SkipCovariance bool

	// Logger receives iteration traces; nil is silent.
	Logger logrus.FieldLogger
}

// DefaultOptions returns the recommended settings.
func DefaultOptions() Options {
	return Options{
		MaxIterations:  DefaultMaxIterations,
		Tolerance:      DefaultTolerance,
		AbsTolerance:   DefaultAbsTolerance,
		StepTolerance:  DefaultStepTolerance,
		DampingInit:    DefaultDampingInit,
		DampingUp:      DefaultDampingUp,
		DampingDown:    DefaultDampingDown,
		DampingMin:     DefaultDampingMin,
		DampingMax:     DefaultDampingMax,
		MaxRejections:  DefaultMaxRejections,
		PivotTolerance: ops.DefaultPivotTolerance,
		DiffStep:       model.DefaultStep,
	}
}

// Validate reports the first inconsistent field as ErrBadOptions.
func (o Options) Validate() error {
	switch {
	case o.MaxIterations <= 0:
		return badOption("MaxIterations must be > 0")
	case !nonNegative(o.Tolerance), !nonNegative(o.AbsTolerance), !nonNegative(o.StepTolerance):
		return badOption("tolerances must be finite and >= 0")
	case !(o.DampingInit > 0) || math.IsInf(o.DampingInit, 0):
		return badOption("DampingInit must be finite and > 0")
	case !(o.DampingUp > 1) || !(o.DampingDown > 1):
		return badOption("DampingUp and DampingDown must be > 1")
	case !(o.DampingMin > 0) || o.DampingMin > o.DampingInit || o.DampingInit > o.DampingMax:
		return badOption("want 0 < DampingMin <= DampingInit <= DampingMax")
	case o.MaxRejections <= 0:
		return badOption("MaxRejections must be > 0")
	case !nonNegative(o.PivotTolerance), !nonNegative(o.DiffStep):
		return badOption("PivotTolerance and DiffStep must be finite and >= 0")
	}

	return nil
}

func badOption(msg string) error { return fmt.Errorf("%s: %w", msg, ErrBadOptions) }

func nonNegative(v float64) bool { return v >= 0 && !math.IsInf(v, 0) }
