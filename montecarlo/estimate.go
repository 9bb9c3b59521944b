// Package montecarlo estimates parameter uncertainty by refitting a model to
// many synthetic data sets.
//
// Estimate first fits the real data (the baseline). Trial i then draws
// yᵢ = f(xᵢ, p̂) + N(0, σᵢ²) from its own stream rng.New(Seed+i), refits from
// p̂ and records the parameters. Simulate skips the baseline: it draws around
// known true parameters and refits from a separate guess, which shows how
// well a planned experiment would pin the parameters down.
//
// Trials run on a bounded errgroup; outcomes are stored by index and
// aggregated only after every trial has finished, so a report is
// bit-identical for any worker count.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/katalvlaran/lvfit/dataset"
	"github.com/katalvlaran/lvfit/lm"
	"github.com/katalvlaran/lvfit/matrix"
	"github.com/katalvlaran/lvfit/model"
	"github.com/katalvlaran/lvfit/rng"
	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Sentinel errors.
var (
	ErrBadOptions              = errors.New("montecarlo: invalid options")
	ErrBaselineFailed          = errors.New("montecarlo: baseline fit did not converge")
	ErrInsufficientConvergence = errors.New("montecarlo: too few trials converged")
)

// outcome is the result of one trial, stored at its index.
type outcome struct {
	params    []float64
	variances []float64 // covariance diagonal, only under the variance screen
	status    lm.Status
	invalid   bool // the refit rejected its input
	outlier   bool
}

// Estimate runs the baseline fit and Trials synthetic refits.
//
// Errors:
//   - ErrBadOptions, or any lm input error from the baseline fit.
//   - ErrBaselineFailed wrapping lm.ErrMaxIterations / lm.ErrDivergence.
//   - ctx.Err() when cancelled; no partial report is returned.
//   - ErrInsufficientConvergence together with a populated report.
func Estimate(ctx context.Context, data *dataset.DataSet, m model.Model, init []float64, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if m != nil && opts.ParamNames != nil && len(opts.ParamNames) != m.NumParams() {
		return nil, badOption(fmt.Sprintf("%d ParamNames for %d parameters", len(opts.ParamNames), m.NumParams()))
	}
	log := opts.Logger
	if log == nil {
		log = silentLogger
	}

	baseline, err := lm.Fit(data, m, init, opts.Fit)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	if !baseline.Converged() {
		return nil, fmt.Errorf("%w: %w", ErrBaselineFailed, baseline.Err())
	}

	noise := noiseScale(data, baseline, opts.Sigma)
	predicted := make([]float64, data.Len())
	data.Each(func(i int, x []float64, _ float64) {
		predicted[i] = m.Evaluate(x, baseline.Params)
	})

	return run(ctx, data, m, baseline.Params, baseline.Params, predicted, noise, baseline, opts, log)
}

// Simulate draws every trial around truth, refits it from guess and
// summarizes the spread around truth. Only the x values of data are used;
// the noise is opts.Sigma when > 0, else the per-observation σ of data.
// Report.Baseline is the zero Result and AnalyticStdErr is NaN.
//
// Errors:
//   - ErrBadOptions, including a missing noise level.
//   - lm.ErrNilData, lm.ErrNilModel, lm.ErrParamCount, lm.ErrNonFiniteStart.
//   - dataset.ErrNonFinite when the model is not finite at truth.
//   - ctx.Err() and ErrInsufficientConvergence as for Estimate.
func Simulate(ctx context.Context, data *dataset.DataSet, m model.Model, truth, guess []float64, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	switch {
	case data == nil:
		return nil, lm.ErrNilData
	case m == nil:
		return nil, lm.ErrNilModel
	case len(truth) != m.NumParams() || len(guess) != m.NumParams():
		return nil, fmt.Errorf("truth %d, guess %d, model wants %d: %w", len(truth), len(guess), m.NumParams(), lm.ErrParamCount)
	case opts.ParamNames != nil && len(opts.ParamNames) != m.NumParams():
		return nil, badOption(fmt.Sprintf("%d ParamNames for %d parameters", len(opts.ParamNames), m.NumParams()))
	case opts.Sigma == 0 && !data.HasSigma():
		return nil, badOption("Simulate needs Sigma > 0 or per-observation σ")
	}
	for _, v := range append(append([]float64(nil), truth...), guess...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("truth or guess not finite: %w", lm.ErrNonFiniteStart)
		}
	}
	log := opts.Logger
	if log == nil {
		log = silentLogger
	}

	noise := noiseScale(data, lm.Result{}, opts.Sigma)
	xs := make([][]float64, data.Len())
	predicted := make([]float64, data.Len())
	data.Each(func(i int, x []float64, _ float64) {
		xs[i] = x
		predicted[i] = m.Evaluate(x, truth)
	})
	// Trials carry the drawing deviation as their σ, so trial covariances
	// are on the absolute scale used by the variance screen.
	template, err := dataset.New(xs, predicted, noise)
	if err != nil {
		return nil, fmt.Errorf("noise-free curve: %w", err)
	}

	return run(ctx, template, m, append([]float64(nil), truth...), guess, predicted, noise, lm.Result{}, opts, log)
}

// run executes the trials and aggregates them around ref.
func run(ctx context.Context, data *dataset.DataSet, m model.Model, ref, start, predicted, noise []float64,
	baseline lm.Result, opts Options, log logrus.FieldLogger,
) (*Report, error) {
	log.WithFields(logrus.Fields{
		"trials":  opts.Trials,
		"workers": opts.Workers,
		"seed":    opts.Seed,
		"ssr":     baseline.SSR,
	}).Info("montecarlo: starting trials")

	trialOpts := opts.Fit
	trialOpts.SkipCovariance = opts.VarianceFactor == 0
	trialOpts.Logger = nil

	outcomes := make([]outcome, opts.Trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := 0; i < opts.Trials; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o := runTrial(data, m, start, predicted, noise, opts.Seed+int64(i), trialOpts)
			if o.status == lm.Converged && !o.invalid && opts.VarianceFactor > 0 {
				o.outlier = highVariance(o.variances, ref, opts.VarianceFactor)
			}
			outcomes[i] = o

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := aggregate(outcomes, ref, baseline, noise, opts, log)
	log.WithFields(logrus.Fields{
		"converged": rep.Converged,
		"failed":    rep.Failed,
	}).Info("montecarlo: finished")

	if float64(rep.Converged) < opts.MinConvergedFraction*float64(rep.Trials) {
		return rep, fmt.Errorf("%d of %d: %w", rep.Converged, rep.Trials, ErrInsufficientConvergence)
	}

	return rep, nil
}

// noiseScale picks the per-observation deviation for synthetic draws.
func noiseScale(data *dataset.DataSet, baseline lm.Result, override float64) []float64 {
	noise := make([]float64, data.Len())
	switch {
	case override > 0:
		for i := range noise {
			noise[i] = override
		}
	case data.HasSigma():
		for i := range noise {
			noise[i] = data.Sigma(i)
		}
	default:
		s := math.Sqrt(baseline.ResidualVariance)
		for i := range noise {
			noise[i] = s
		}
	}

	return noise
}

// runTrial draws one synthetic data set and refits it.
func runTrial(data *dataset.DataSet, m model.Model, start, predicted, noise []float64, seed int64, opts lm.Options) outcome {
	src := rng.New(seed)
	y := make([]float64, len(predicted))
	for i, mu := range predicted {
		y[i] = src.Normal(mu, noise[i])
	}
	synth, err := data.WithY(y)
	if err != nil {
		return outcome{invalid: true, status: lm.DivergenceDetected}
	}
	res, err := lm.Fit(synth, m, start, opts)
	if err != nil {
		return outcome{invalid: true, status: lm.DivergenceDetected}
	}

	o := outcome{params: res.Params, status: res.Status}
	if !opts.SkipCovariance && res.Covariance != nil {
		o.variances, _ = matrix.Diag(res.Covariance)
	}

	return o
}

// aggregate folds outcomes in index order into a Report.
func aggregate(outcomes []outcome, ref []float64, baseline lm.Result, noise []float64, opts Options, log logrus.FieldLogger) *Report {
	np := len(ref)
	rep := &Report{
		Trials:    len(outcomes),
		Seed:      opts.Seed,
		Noise:     noise,
		Reference: ref,
		Baseline:  baseline,
	}
	for i := range outcomes {
		o := &outcomes[i]
		if o.status == lm.Converged && !o.invalid && !o.outlier && opts.OutlierFactor > 0 {
			o.outlier = isOutlier(o.params, ref, opts.OutlierFactor)
		}
		switch {
		case o.outlier:
			rep.Outliers++
		case o.invalid || o.status == lm.DivergenceDetected:
			rep.Diverged++
		case o.status == lm.MaxIterationsExceeded:
			rep.MaxIterations++
		default:
			rep.Converged++
			rep.Samples = append(rep.Samples, o.params)
			continue
		}
		log.WithFields(logrus.Fields{"trial": i, "status": o.status.String(), "outlier": o.outlier}).Debug("montecarlo: trial dropped")
	}
	rep.Failed = rep.Diverged + rep.MaxIterations + rep.Outliers

	names := opts.ParamNames
	if names == nil {
		names = make([]string, np)
		for k := range names {
			names[k] = fmt.Sprintf("p%d", k)
		}
	}
	se := baseline.StdErr()
	rep.Params = make([]Summary, np)
	col := make([]float64, len(rep.Samples))
	for k := 0; k < np; k++ {
		for i, s := range rep.Samples {
			col[i] = s[k]
		}
		sum := summarize(col, opts.LowerPercentile, opts.UpperPercentile)
		sum.Name = names[k]
		sum.Baseline = ref[k]
		sum.RMSDeviation = rmsAround(col, ref[k])
		sum.AnalyticStdErr = math.NaN()
		if se != nil {
			sum.AnalyticStdErr = se[k]
		}
		rep.Params[k] = sum
	}

	return rep
}

// summarize computes mean, sample standard deviation, median and percentile
// bounds of xs. xs is not modified.
func summarize(xs []float64, lower, upper float64) Summary {
	nan := math.NaN()
	s := Summary{Mean: nan, StdDev: nan, Median: nan, Lower: nan, Upper: nan}
	if len(xs) == 0 {
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		s.StdDev = 0
	}
	data := stats.Float64Data(xs)
	s.Median, _ = stats.Median(data)
	s.Lower, _ = stats.PercentileNearestRank(data, lower)
	s.Upper, _ = stats.PercentileNearestRank(data, upper)

	return s
}

// rmsAround is sqrt(mean((x − ref)²)), NaN for no samples.
func rmsAround(xs []float64, ref float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	ss := 0.0
	for _, v := range xs {
		ss += (v - ref) * (v - ref)
	}

	return math.Sqrt(ss / float64(len(xs)))
}

// highVariance screens a refit whose covariance diagonal exceeds
// factor·|ref|; a missing covariance (singular normal matrix) also fails.
func highVariance(variances, ref []float64, factor float64) bool {
	if variances == nil {
		return true
	}
	for k, v := range variances {
		if v > factor*math.Abs(ref[k]) {
			return true
		}
	}

	return false
}

func isOutlier(p, base []float64, factor float64) bool {
	for k, v := range p {
		if math.Abs(v-base[k]) > factor*math.Max(math.Abs(base[k]), 1) {
			return true
		}
	}

	return false
}

// silentLogger backs a nil Options.Logger.
var silentLogger = func() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}()
