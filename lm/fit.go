// Package lm fits parametric models to data with the Levenberg-Marquardt
// algorithm.
//
// Each iteration linearizes the model at the current parameters and solves
// the damped normal equations
//
//	(JᵗWJ + λ·diag(JᵗWJ)) δ = JᵗWr
//
// where J is the Jacobian of the free parameters, W = diag(1/σ²) and
// r = y − f(x, p). A step that lowers the weighted SSR is accepted and λ
// shrinks; otherwise λ grows and the step is retried from the same point.
// Singular systems count as rejected steps.
//
// Fit returns an error only for invalid input. Failing to converge is a
// Result.Status, never an error.
package lm

import (
	"fmt"
	"io"
	"math"

	"github.com/katalvlaran/lvfit/dataset"
	"github.com/katalvlaran/lvfit/matrix"
	"github.com/katalvlaran/lvfit/matrix/ops"
	"github.com/katalvlaran/lvfit/model"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

type state int

const (
	stateInitial state = iota
	stateIterate
	stateAccept
	stateReject
	stateConverged
	stateFailed
)

// fitter is the per-call working set. Nothing in it is shared.
type fitter struct {
	data    *dataset.DataSet
	m       model.Model
	opts    Options
	log     logrus.FieldLogger
	weights []float64
	free    []int // indices of free parameters

	params []float64 // current accepted parameters
	resid  []float64 // residuals at params
	ssr    float64

	lambda     float64
	a          *matrix.Dense // JᵗWJ at params
	g          []float64     // JᵗWr at params
	linearized bool

	// trial step
	delta      []float64
	trial      []float64
	trialResid []float64
	trialSSR   float64
	trialOK    bool

	iterations, accepted, rejected, streak int
	lastDecrease                           float64
	status                                 Status

	grad []float64 // scratch gradient, len NumParams
}

// Fit minimizes Σ wᵢ(yᵢ − f(xᵢ, p))² over the free parameters of m starting
// at init. init is copied; the caller's slice is never modified.
//
// Errors: ErrNilData, ErrNilModel, ErrParamCount, ErrBadOptions,
// ErrTooFewPoints, ErrNonFiniteStart.
func Fit(data *dataset.DataSet, m model.Model, init []float64, opts Options) (Result, error) {
	f, err := newFitter(data, m, init, opts)
	if err != nil {
		return Result{}, err
	}

	st := stateInitial
	for st != stateConverged && st != stateFailed {
		switch st {
		case stateInitial:
			st, err = f.initial()
			if err != nil {
				return Result{}, err
			}
		case stateIterate:
			st = f.iterate()
		case stateAccept:
			st = f.accept()
		case stateReject:
			st = f.reject()
		}
	}
	if st == stateConverged {
		f.status = Converged
	}

	return f.finish(), nil
}

func newFitter(data *dataset.DataSet, m model.Model, init []float64, opts Options) (*fitter, error) {
	if data == nil {
		return nil, ErrNilData
	}
	if m == nil {
		return nil, ErrNilModel
	}
	np := m.NumParams()
	if len(init) != np {
		return nil, fmt.Errorf("got %d, model wants %d: %w", len(init), np, ErrParamCount)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Fixed != nil && len(opts.Fixed) != np {
		return nil, badOption(fmt.Sprintf("Fixed has %d entries for %d parameters", len(opts.Fixed), np))
	}
	for _, v := range init {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("initial parameter not finite: %w", ErrNonFiniteStart)
		}
	}

	free := make([]int, 0, np)
	for k := 0; k < np; k++ {
		if opts.Fixed == nil || !opts.Fixed[k] {
			free = append(free, k)
		}
	}
	if len(free) == 0 {
		return nil, badOption("every parameter is fixed")
	}
	if data.Len() < len(free) {
		return nil, fmt.Errorf("%d observations, %d free parameters: %w", data.Len(), len(free), ErrTooFewPoints)
	}

	log := opts.Logger
	if log == nil {
		log = silentLogger
	}

	return &fitter{
		data:    data,
		m:       m,
		opts:    opts,
		log:     log,
		weights: data.Weights(),
		free:    free,
		params:  append([]float64(nil), init...),
		grad:    make([]float64, np),
	}, nil
}

// initial evaluates the starting point.
func (f *fitter) initial() (state, error) {
	f.lambda = f.opts.DampingInit
	f.resid, f.ssr = f.residuals(f.params)
	if math.IsNaN(f.ssr) || math.IsInf(f.ssr, 0) {
		return stateFailed, ErrNonFiniteStart
	}
	f.log.WithFields(logrus.Fields{"ssr": f.ssr, "free": len(f.free)}).Trace("lm: start")
	if f.ssr <= f.opts.AbsTolerance {
		return stateConverged, nil
	}

	return stateIterate, nil
}

// iterate linearizes (once per iteration) and proposes a damped step.
func (f *fitter) iterate() state {
	if !f.linearized {
		if f.iterations >= f.opts.MaxIterations {
			f.status = MaxIterationsExceeded
			f.log.WithField("iterations", f.iterations).Debug("lm: iteration budget exhausted")

			return stateFailed
		}
		f.iterations++
		f.streak = 0
		if err := f.linearize(); err != nil {
			// The Jacobian depends only on the current point, so retrying
			// with a larger λ cannot help.
			f.rejected++
			f.status = DivergenceDetected
			f.log.WithError(err).Debug("lm: cannot linearize")

			return stateFailed
		}
		f.linearized = true
	}

	f.trialOK = false
	damp := make([]float64, len(f.free))
	for k := range damp {
		akk, _ := f.a.At(k, k)
		if akk == 0 {
			akk = 1
		}
		damp[k] = f.lambda * akk
	}
	damped, err := matrix.AddDiagonal(f.a, damp)
	if err != nil {
		return stateReject
	}
	delta, err := ops.Solve(damped, f.g, ops.WithPivotTolerance(f.opts.PivotTolerance))
	if err != nil {
		f.log.WithError(err).WithField("lambda", f.lambda).Trace("lm: step rejected by solver")

		return stateReject
	}
	f.delta = delta

	if f.streak == 0 && f.smallStep() {
		f.log.WithField("iter", f.iterations).Trace("lm: step below tolerance")

		return stateConverged
	}

	f.trial = append([]float64(nil), f.params...)
	for k, idx := range f.free {
		f.trial[idx] += delta[k]
	}
	f.trialResid, f.trialSSR = f.residuals(f.trial)
	f.trialOK = !math.IsNaN(f.trialSSR) && !math.IsInf(f.trialSSR, 0)
	if f.trialOK && f.trialSSR < f.ssr {
		return stateAccept
	}

	return stateReject
}

func (f *fitter) accept() state {
	decrease := f.ssr - f.trialSSR
	rel := decrease / f.ssr
	f.params, f.resid, f.ssr = f.trial, f.trialResid, f.trialSSR
	f.lastDecrease = decrease
	f.accepted++
	f.lambda = math.Max(f.lambda/f.opts.DampingDown, f.opts.DampingMin)
	f.linearized = false
	f.log.WithFields(logrus.Fields{"iter": f.iterations, "ssr": f.ssr, "lambda": f.lambda}).Trace("lm: step accepted")

	if f.ssr <= f.opts.AbsTolerance || rel < f.opts.Tolerance {
		return stateConverged
	}

	return stateIterate
}

func (f *fitter) reject() state {
	f.rejected++
	f.streak++

	// A finite trial that moved yet left SSR unchanged within tolerance means
	// we sit on the noise floor. A trial that rounded back onto params says
	// nothing and falls through to the damping ceiling.
	if f.trialOK && f.trialMoved() && math.Abs(f.trialSSR-f.ssr) <= f.opts.Tolerance*f.ssr {
		return stateConverged
	}

	f.lambda *= f.opts.DampingUp
	if f.streak > f.opts.MaxRejections || f.lambda > f.opts.DampingMax {
		f.status = DivergenceDetected
		f.log.WithFields(logrus.Fields{
			"iter":       f.iterations,
			"rejections": f.streak,
			"lambda":     f.lambda,
		}).Debug("lm: divergence detected")

		return stateFailed
	}

	return stateIterate
}

// trialMoved reports whether the trial differs from params in any free coordinate.
func (f *fitter) trialMoved() bool {
	for _, idx := range f.free {
		if f.trial[idx] != f.params[idx] {
			return true
		}
	}

	return false
}

// smallStep reports ‖δ‖ <= tol·(‖p_free‖ + tol).
func (f *fitter) smallStep() bool {
	pf := make([]float64, len(f.free))
	for k, idx := range f.free {
		pf[k] = f.params[idx]
	}
	tol := f.opts.StepTolerance

	return floats.Norm(f.delta, 2) <= tol*(floats.Norm(pf, 2)+tol)
}

// residuals returns y − f(x, p) and the weighted SSR.
func (f *fitter) residuals(p []float64) ([]float64, float64) {
	r := make([]float64, f.data.Len())
	ssr := 0.0
	f.data.Each(func(i int, x []float64, y float64) {
		r[i] = y - f.m.Evaluate(x, p)
		ssr += f.weights[i] * r[i] * r[i]
	})

	return r, ssr
}

// jacobian returns the n×len(free) Jacobian of f at p.
func (f *fitter) jacobian(p []float64) (*matrix.Dense, error) {
	nf := len(f.free)
	flat := make([]float64, f.data.Len()*nf)
	f.data.Each(func(i int, x []float64, _ float64) {
		model.Gradient(f.m, f.grad, x, p, f.opts.DiffStep)
		for k, idx := range f.free {
			flat[i*nf+k] = f.grad[idx]
		}
	})

	return matrix.NewDenseFrom(f.data.Len(), nf, flat)
}

// linearize builds JᵗWJ and JᵗWr at the current parameters.
func (f *fitter) linearize() error {
	j, err := f.jacobian(f.params)
	if err != nil {
		return err
	}
	if f.a, err = matrix.Gram(j, f.weights); err != nil {
		return err
	}
	f.g, err = matrix.GramVec(j, f.weights, f.resid)

	return err
}

func (f *fitter) finish() Result {
	n, nf := f.data.Len(), len(f.free)
	res := Result{
		Params:       f.params,
		Status:       f.status,
		Iterations:   f.iterations,
		Accepted:     f.accepted,
		Rejected:     f.rejected,
		SSR:          f.ssr,
		LastDecrease: f.lastDecrease,
		Lambda:       f.lambda,
		DoF:          n - nf,
		Residuals:    f.resid,
	}
	switch {
	case f.data.HasSigma():
		res.ResidualVariance = 1
	case n > nf:
		res.ResidualVariance = f.ssr / float64(n-nf)
	default:
		res.ResidualVariance = f.ssr / float64(n)
	}

	if f.status != Converged {
		return res
	}
	f.log.WithFields(logrus.Fields{
		"iterations": res.Iterations,
		"ssr":        res.SSR,
	}).Debug("lm: converged")
	if f.opts.SkipCovariance {
		return res
	}
	cov, err := f.covariance(res.ResidualVariance)
	if err != nil {
		f.log.WithError(err).Debug("lm: covariance unavailable")

		return res
	}
	res.Covariance = cov

	return res
}

// covariance returns (JᵗWJ)⁻¹·σ² expanded to all parameters.
func (f *fitter) covariance(variance float64) (*matrix.Dense, error) {
	j, err := f.jacobian(f.params)
	if err != nil {
		return nil, err
	}
	a, err := matrix.Gram(j, f.weights)
	if err != nil {
		return nil, err
	}
	inv, err := ops.Inverse(a, ops.WithPivotTolerance(f.opts.PivotTolerance))
	if err != nil {
		return nil, err
	}
	np := len(f.params)
	cov, err := matrix.NewDense(np, np)
	if err != nil {
		return nil, err
	}
	for ka, ia := range f.free {
		for kb, ib := range f.free {
			v, err := inv.At(ka, kb)
			if err != nil {
				return nil, err
			}
			if err = cov.Set(ia, ib, v*variance); err != nil {
				return nil, err
			}
		}
	}

	return cov, nil
}

// silentLogger backs a nil Options.Logger.
var silentLogger = func() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}()
