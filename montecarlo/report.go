package montecarlo

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/katalvlaran/lvfit/lm"
)

// Summary describes the Monte Carlo distribution of one parameter.
// Statistics are NaN when no trial converged.
type Summary struct {
	Name string
	// Baseline is the value trials are drawn around: the baseline fit for
	// Estimate, the true value for Simulate.
	Baseline float64

	Mean   float64
	StdDev float64 // sample standard deviation (n−1)
	Median float64
	Lower  float64 // LowerPercentile bound
	Upper  float64 // UpperPercentile bound

	// RMSDeviation is sqrt(mean((p − Baseline)²)) over kept trials.
	RMSDeviation float64

	// AnalyticStdErr is sqrt of the baseline covariance diagonal, NaN when
	// the baseline had no covariance.
	AnalyticStdErr float64
}

// Report is the outcome of Estimate. Converged + Failed == Trials and
// Failed == Diverged + MaxIterations + Outliers.
type Report struct {
	Params []Summary

	Trials        int
	Converged     int
	Failed        int
	Diverged      int
	MaxIterations int
	Outliers      int

	Seed  int64
	Noise []float64 // per-observation deviation used for the synthetic data

	// Reference holds the parameters trials were drawn around.
	Reference []float64
	// Baseline is the fit of the real data; zero for Simulate.
	Baseline lm.Result

	// Samples holds the parameters of every kept trial in trial-index order.
	Samples [][]float64
}

// ConvergedFraction returns Converged / Trials.
func (r *Report) ConvergedFraction() float64 {
	if r.Trials == 0 {
		return 0
	}

	return float64(r.Converged) / float64(r.Trials)
}

// Digest hashes the numeric content of the report (counts, noise, summaries
// and samples in order) with xxhash64. Equal digests mean bit-identical
// reports.
func (r *Report) Digest() uint64 {
	h := xxhash.New()
	var buf [8]byte
	putU := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	putF := func(v float64) { putU(math.Float64bits(v)) }

	for _, c := range []int{r.Trials, r.Converged, r.Failed, r.Diverged, r.MaxIterations, r.Outliers} {
		putU(uint64(c))
	}
	putU(uint64(r.Seed))
	for _, v := range r.Noise {
		putF(v)
	}
	for _, v := range r.Reference {
		putF(v)
	}
	for _, s := range r.Params {
		putU(uint64(len(s.Name)))
		_, _ = h.WriteString(s.Name)
		for _, v := range []float64{s.Baseline, s.Mean, s.StdDev, s.Median, s.Lower, s.Upper, s.RMSDeviation, s.AnalyticStdErr} {
			putF(v)
		}
	}
	for _, row := range r.Samples {
		for _, v := range row {
			putF(v)
		}
	}

	return h.Sum64()
}

// String renders a fixed-width parameter table followed by the trial counts.
func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-10s %12s %12s %12s %12s %12s\n", "param", "baseline", "mean", "stddev", "lower", "upper")
	for _, s := range r.Params {
		fmt.Fprintf(&sb, "%-10s %12.6g %12.6g %12.6g %12.6g %12.6g\n",
			s.Name, s.Baseline, s.Mean, s.StdDev, s.Lower, s.Upper)
	}
	fmt.Fprintf(&sb, "trials=%d converged=%d diverged=%d max-iterations=%d outliers=%d\n",
		r.Trials, r.Converged, r.Diverged, r.MaxIterations, r.Outliers)

	return sb.String()
}
