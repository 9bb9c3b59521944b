// Package model defines what a fittable model is and how its parameter
// gradient is obtained.
//
// A Model maps an independent-variable vector x and a parameter vector p to a
// predicted scalar. Models must be pure: the same (x, p) always yields the
// same value and no state is kept between calls. Stateful models make the
// fitter's convergence undefined.
//
// Gradients come from the model itself when it implements Differentiable,
// otherwise from central differences with a per-parameter step.
package model

import (
	"errors"
	"math"
)

// DefaultStep is the relative central-difference step: hₖ = step·max(|pₖ|, 1).
const DefaultStep = 1e-6

// Sentinel errors.
var (
	// ErrUnknownModel is returned by Registry.Lookup for an unregistered name.
	ErrUnknownModel = errors.New("model: unknown model")

	// ErrDuplicate is returned when a name is registered twice.
	ErrDuplicate = errors.New("model: duplicate model name")

	// ErrBadSpec flags an inconsistent Spec (empty name, nil model,
	// parameter names not matching NumParams).
	ErrBadSpec = errors.New("model: invalid model spec")
)

// Model is the capability the fitter needs.
type Model interface {
	// NumParams returns the length of the parameter vector.
	NumParams() int

	// Evaluate returns f(x, params). It must not retain or modify its arguments.
	Evaluate(x, params []float64) float64
}

// Differentiable is implemented by models with an analytic gradient.
type Differentiable interface {
	Model

	// Gradient writes ∂f/∂pₖ at (x, params) into dst[k] for every k.
	// len(dst) == NumParams().
	Gradient(dst, x, params []float64)
}

// Func adapts a plain function into a Model.
// Step overrides DefaultStep for central differences when > 0.
type Func struct {
	N    int
	F    func(x, params []float64) float64
	Step float64
}

// NumParams implements Model.
func (f Func) NumParams() int { return f.N }

// Evaluate implements Model.
func (f Func) Evaluate(x, params []float64) float64 { return f.F(x, params) }

// Gradient writes the gradient of m at (x, params) into dst.
// Analytic gradients are used when m implements Differentiable; otherwise
// each component is (f(p+hₖeₖ) − f(p−hₖeₖ)) / 2hₖ with hₖ = step·max(|pₖ|, 1).
// step <= 0 selects the model's own Func.Step, then DefaultStep.
//
// params is never modified; a scratch copy is perturbed instead.
func Gradient(m Model, dst, x, params []float64, step float64) {
	if d, ok := m.(Differentiable); ok {
		d.Gradient(dst, x, params)

		return
	}
	if step <= 0 {
		if f, ok := m.(Func); ok && f.Step > 0 {
			step = f.Step
		} else {
			step = DefaultStep
		}
	}
	scratch := make([]float64, len(params))
	copy(scratch, params)
	CentralDiff(m, dst, x, scratch, step)
}

// CentralDiff fills dst with central-difference derivatives, perturbing
// scratch in place and restoring every component before returning.
func CentralDiff(m Model, dst, x, scratch []float64, step float64) {
	for k, pk := range scratch {
		h := step * math.Max(math.Abs(pk), 1)
		scratch[k] = pk + h
		fPlus := m.Evaluate(x, scratch)
		scratch[k] = pk - h
		fMinus := m.Evaluate(x, scratch)
		scratch[k] = pk
		dst[k] = (fPlus - fMinus) / (2 * h)
	}
}
