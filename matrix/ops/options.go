// SPDX-License-Identifier: MIT

package ops

import "math"

// DefaultPivotTolerance is the relative pivot threshold: a pivot p is treated
// as zero when |p| <= tol·max|A|.
const DefaultPivotTolerance = 1e-12

const panicPivotToleranceInvalid = "ops: WithPivotTolerance: tol must be finite, non-negative"

// Option mutates solver options.
// Constructors panic only on nonsensical values (programmer error).
type Option func(*Options)

// Options stores the effective solver configuration.
type Options struct {
	pivotTol float64 // >= 0; DefaultPivotTolerance
}

// WithPivotTolerance sets the relative singularity threshold.
// A tolerance of 0 only rejects exactly-zero pivots.
//
// Panics with a stable message when tol is negative or non-finite.
func WithPivotTolerance(tol float64) Option {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		panic(panicPivotToleranceInvalid)
	}

	return func(o *Options) { o.pivotTol = tol }
}

// gatherOptions applies user setters on top of defaults, in order.
func gatherOptions(user ...Option) Options {
	o := Options{pivotTol: DefaultPivotTolerance}
	for _, opt := range user {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}
