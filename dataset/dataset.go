// Package dataset holds the immutable observations a model is fitted to.
//
// Each observation i has an independent-variable vector X(i) (all of equal
// width), an observed value Y(i) and, optionally, a known standard deviation
// Sigma(i) > 0. Constructors copy caller slices; accessors return copies, so a
// DataSet can be shared read-only between concurrent Monte Carlo trials.
package dataset

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors.
var (
	ErrEmpty             = errors.New("dataset: no observations")
	ErrDimensionMismatch = errors.New("dataset: length mismatch")
	ErrRaggedX           = errors.New("dataset: independent variables have unequal width")
	ErrNonFinite         = errors.New("dataset: NaN or Inf value")
	ErrBadSigma          = errors.New("dataset: standard deviation must be > 0")
)

// DataSet is an ordered, immutable set of observations.
type DataSet struct {
	x     [][]float64
	y     []float64
	sigma []float64 // nil when unknown
	vars  int
}

// New builds a DataSet from x (one row per observation), y and optional
// sigma (nil = unknown, unit weights).
//
// Errors: ErrEmpty, ErrDimensionMismatch, ErrRaggedX, ErrNonFinite, ErrBadSigma.
func New(x [][]float64, y, sigma []float64) (*DataSet, error) {
	n := len(y)
	if n == 0 {
		return nil, ErrEmpty
	}
	if len(x) != n {
		return nil, fmt.Errorf("%d x rows for %d observations: %w", len(x), n, ErrDimensionMismatch)
	}
	if sigma != nil && len(sigma) != n {
		return nil, fmt.Errorf("%d sigmas for %d observations: %w", len(sigma), n, ErrDimensionMismatch)
	}
	vars := len(x[0])
	if vars == 0 {
		return nil, fmt.Errorf("observation 0 has no independent variable: %w", ErrRaggedX)
	}

	ds := &DataSet{
		x:    make([][]float64, n),
		y:    make([]float64, n),
		vars: vars,
	}
	for i := 0; i < n; i++ {
		if len(x[i]) != vars {
			return nil, fmt.Errorf("observation %d has %d variables, want %d: %w", i, len(x[i]), vars, ErrRaggedX)
		}
		for _, v := range x[i] {
			if !finite(v) {
				return nil, fmt.Errorf("x[%d]: %w", i, ErrNonFinite)
			}
		}
		if !finite(y[i]) {
			return nil, fmt.Errorf("y[%d]: %w", i, ErrNonFinite)
		}
		ds.x[i] = append([]float64(nil), x[i]...)
		ds.y[i] = y[i]
	}
	if sigma != nil {
		ds.sigma = make([]float64, n)
		for i, s := range sigma {
			if !finite(s) || s <= 0 {
				return nil, fmt.Errorf("sigma[%d]=%g: %w", i, s, ErrBadSigma)
			}
			ds.sigma[i] = s
		}
	}

	return ds, nil
}

// FromXY builds a single-variable DataSet without known deviations.
func FromXY(x, y []float64) (*DataSet, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%d x values for %d observations: %w", len(x), len(y), ErrDimensionMismatch)
	}
	rows := make([][]float64, len(x))
	for i, v := range x {
		rows[i] = []float64{v}
	}

	return New(rows, y, nil)
}

// Len returns the number of observations.
func (d *DataSet) Len() int { return len(d.y) }

// NumVars returns the width of every independent-variable vector.
func (d *DataSet) NumVars() int { return d.vars }

// HasSigma reports whether per-observation standard deviations are known.
func (d *DataSet) HasSigma() bool { return d.sigma != nil }

// X returns a copy of the independent variables of observation i.
func (d *DataSet) X(i int) []float64 { return append([]float64(nil), d.x[i]...) }

// Y returns observation i.
func (d *DataSet) Y(i int) float64 { return d.y[i] }

// Sigma returns the known deviation of observation i, or 1 when unknown.
func (d *DataSet) Sigma(i int) float64 {
	if d.sigma == nil {
		return 1
	}

	return d.sigma[i]
}

// Ys returns a copy of all observations.
func (d *DataSet) Ys() []float64 { return append([]float64(nil), d.y...) }

// Weights returns 1/σᵢ² per observation (all ones when σ is unknown).
func (d *DataSet) Weights() []float64 {
	w := make([]float64, len(d.y))
	for i := range w {
		s := d.Sigma(i)
		w[i] = 1 / (s * s)
	}

	return w
}

// Each calls fn with every observation in order. x must not be retained or
// modified; it aliases internal storage to keep the fitter's hot loop
// allocation-free.
func (d *DataSet) Each(fn func(i int, x []float64, y float64)) {
	for i, xi := range d.x {
		fn(i, xi, d.y[i])
	}
}

// WithY returns a DataSet sharing this one's x and σ with new observations.
// The receiver is not modified. Errors: ErrDimensionMismatch, ErrNonFinite.
func (d *DataSet) WithY(y []float64) (*DataSet, error) {
	if len(y) != len(d.y) {
		return nil, fmt.Errorf("%d values for %d observations: %w", len(y), len(d.y), ErrDimensionMismatch)
	}
	for i, v := range y {
		if !finite(v) {
			return nil, fmt.Errorf("y[%d]: %w", i, ErrNonFinite)
		}
	}

	return &DataSet{x: d.x, y: append([]float64(nil), y...), sigma: d.sigma, vars: d.vars}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
