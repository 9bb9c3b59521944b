package model_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/lvfit/model"
	"github.com/stretchr/testify/assert"
)

// numericOnly hides an analytic Gradient so central differences are used.
type numericOnly struct{ m model.Model }

func (n numericOnly) NumParams() int { return n.m.NumParams() }

func (n numericOnly) Evaluate(x, p []float64) float64 { return n.m.Evaluate(x, p) }

func TestAnalyticGradientsMatchCentralDifferences(t *testing.T) {
	cases := []struct {
		name string
		m    model.Model
		x    []float64
		p    []float64
	}{
		{"linear", model.Linear{}, []float64{2.5}, []float64{2, 1}},
		{"quadratic", model.Polynomial{Degree: 2}, []float64{-1.5}, []float64{1, -2, 0.5}},
		{"exponential", model.Exponential{}, []float64{0.7}, []float64{3, -1.2}},
		{"michaelis", model.MichaelisMenten{}, []float64{4}, []float64{10, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := tc.m.NumParams()
			analytic := make([]float64, n)
			numeric := make([]float64, n)
			model.Gradient(tc.m, analytic, tc.x, tc.p, 0)
			model.Gradient(numericOnly{tc.m}, numeric, tc.x, tc.p, 0)
			assert.InDeltaSlice(t, analytic, numeric, 1e-7)
		})
	}
}

func TestGradientDoesNotMutateParams(t *testing.T) {
	p := []float64{10, 2}
	dst := make([]float64, 2)
	model.Gradient(numericOnly{model.MichaelisMenten{}}, dst, []float64{4}, p, 1e-3)
	assert.Equal(t, []float64{10, 2}, p)
}

func TestFuncStepOverride(t *testing.T) {
	calls := 0
	f := model.Func{N: 1, Step: 0.5, F: func(x, p []float64) float64 {
		calls++
		return p[0] * p[0]
	}}
	dst := make([]float64, 1)
	// central difference of p² is exact for any h: 2p
	model.Gradient(f, dst, nil, []float64{3}, 0)
	assert.InDelta(t, 6, dst[0], 1e-12)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 9.0, f.Evaluate(nil, []float64{3}))
}

func TestCatalogFormulas(t *testing.T) {
	assert.InDelta(t, 5.0, model.MichaelisMenten{}.Evaluate([]float64{2}, []float64{10, 2}), 1e-12)
	assert.InDelta(t, 11.0, model.Polynomial{Degree: 2}.Evaluate([]float64{2}, []float64{1, 1, 2}), 1e-12)
	assert.InDelta(t, 3*math.Exp(2), model.Exponential{}.Evaluate([]float64{1}, []float64{3, 2}), 1e-12)

	// inhibitor-free limits collapse to Michaelis-Menten
	mm := model.MichaelisMenten{}.Evaluate([]float64{3}, []float64{8, 1.5})
	for _, m := range []model.Model{model.Competitive, model.Uncompetitive, model.Noncompetitive} {
		assert.InDelta(t, mm, m.Evaluate([]float64{3, 0}, []float64{8, 1.5, 0.4}), 1e-12)
	}
	assert.InDelta(t, mm, model.Mixed.Evaluate([]float64{3, 0}, []float64{8, 1.5, 0.4, 0.9}), 1e-12)
	assert.InDelta(t, mm, model.Inactivation.Evaluate([]float64{3, 0}, []float64{8, 1.5, 0.2}), 1e-12)

	// ping-pong at saturating B approaches Michaelis-Menten in A
	pp := model.PingPong.Evaluate([]float64{2, 1e12}, []float64{5, 1, 3})
	assert.InDelta(t, model.MichaelisMenten{}.Evaluate([]float64{2}, []float64{5, 1}), pp, 1e-9)
}
