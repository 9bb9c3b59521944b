package lm

import (
	"errors"
	"math"

	"github.com/katalvlaran/lvfit/matrix"
)

// Sentinel errors. The first group reports invalid input from Fit; the
// second maps terminal statuses for callers that prefer errors.
var (
	ErrNilModel       = errors.New("lm: nil model")
	ErrNilData        = errors.New("lm: nil dataset")
	ErrParamCount     = errors.New("lm: initial parameter count does not match model")
	ErrTooFewPoints   = errors.New("lm: fewer observations than free parameters")
	ErrNonFiniteStart = errors.New("lm: residuals are not finite at the initial parameters")
	ErrBadOptions     = errors.New("lm: invalid options")

	ErrMaxIterations = errors.New("lm: iteration budget exhausted")
	ErrDivergence    = errors.New("lm: divergence detected")
)

// Status is the terminal state of a fit.
//
// DivergenceDetected covers three paths: more than MaxRejections consecutive
// rejected steps, λ above DampingMax, and a Jacobian that cannot be built
// (non-finite gradient). The last one stops at once and counts a single
// rejection.
type Status int

const (
	Converged Status = iota
	MaxIterationsExceeded
	DivergenceDetected
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case MaxIterationsExceeded:
		return "max-iterations-exceeded"
	case DivergenceDetected:
		return "divergence-detected"
	default:
		return "unknown"
	}
}

// Result is the immutable outcome of Fit.
type Result struct {
	Params []float64
	Status Status

	Iterations int // linearizations performed
	Accepted   int // accepted steps
	Rejected   int // rejected steps, all iterations

	SSR          float64 // weighted sum of squared residuals (χ²)
	LastDecrease float64 // SSR drop of the last accepted step
	Lambda       float64 // final damping

	DoF              int     // observations − free parameters
	ResidualVariance float64 // σ² used to scale the covariance

	// Covariance is (JᵗWJ)⁻¹·σ² over all parameters (zero rows/cols for fixed
	// ones). nil when not converged, skipped, or JᵗWJ is singular.
	Covariance *matrix.Dense

	Residuals []float64 // y − f(x, Params), unweighted
}

// Converged reports Status == Converged.
func (r Result) Converged() bool { return r.Status == Converged }

// Err maps Status to nil, ErrMaxIterations or ErrDivergence.
func (r Result) Err() error {
	switch r.Status {
	case Converged:
		return nil
	case MaxIterationsExceeded:
		return ErrMaxIterations
	default:
		return ErrDivergence
	}
}

// StdErr returns sqrt(diag(Covariance)), or nil without a covariance.
func (r Result) StdErr() []float64 {
	if r.Covariance == nil {
		return nil
	}
	d, err := matrix.Diag(r.Covariance)
	if err != nil {
		return nil
	}
	for i, v := range d {
		d[i] = math.Sqrt(math.Max(v, 0))
	}

	return d
}

// Correlation returns the parameter correlation matrix derived from
// Covariance, or nil without one. Fixed parameters have zero rows.
func (r Result) Correlation() *matrix.Dense {
	if r.Covariance == nil {
		return nil
	}
	c, err := matrix.Correlation(r.Covariance)
	if err != nil {
		return nil
	}

	return c
}
