package lm_test

import (
	"testing"

	"github.com/katalvlaran/lvfit/dataset"
	"github.com/katalvlaran/lvfit/lm"
	"github.com/katalvlaran/lvfit/model"
	"github.com/katalvlaran/lvfit/rng"
)

func BenchmarkFitMichaelis_50(b *testing.B) {
	src := rng.New(1)
	s := make([]float64, 50)
	v := make([]float64, 50)
	for i := range s {
		s[i] = 0.2 * float64(i+1)
		v[i] = model.MichaelisMenten{}.Evaluate([]float64{s[i]}, []float64{10, 2}) + src.Normal(0, 0.05)
	}
	ds, err := dataset.FromXY(s, v)
	if err != nil {
		b.Fatal(err)
	}
	opts := lm.DefaultOptions()
	opts.SkipCovariance = true
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err = lm.Fit(ds, model.MichaelisMenten{}, []float64{5, 1}, opts); err != nil {
			b.Fatal(err)
		}
	}
}
