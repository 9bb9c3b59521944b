package model

import "math"

// Linear is f(x) = a·x₀ + b with params [a, b].
type Linear struct{}

func (Linear) NumParams() int { return 2 }

func (Linear) Evaluate(x, p []float64) float64 { return p[0]*x[0] + p[1] }

func (Linear) Gradient(dst, x, _ []float64) {
	dst[0] = x[0]
	dst[1] = 1
}

// Polynomial is f(x) = Σ cₖ·x₀ᵏ for k = 0..Degree, params [c₀ … c_Degree].
type Polynomial struct{ Degree int }

func (p Polynomial) NumParams() int { return p.Degree + 1 }

func (p Polynomial) Evaluate(x, c []float64) float64 {
	// Horner
	v := 0.0
	for k := p.Degree; k >= 0; k-- {
		v = v*x[0] + c[k]
	}

	return v
}

func (p Polynomial) Gradient(dst, x, _ []float64) {
	pow := 1.0
	for k := 0; k <= p.Degree; k++ {
		dst[k] = pow
		pow *= x[0]
	}
}

// Exponential is f(x) = a·exp(b·x₀) with params [a, b].
type Exponential struct{}

func (Exponential) NumParams() int { return 2 }

func (Exponential) Evaluate(x, p []float64) float64 { return p[0] * math.Exp(p[1]*x[0]) }

func (Exponential) Gradient(dst, x, p []float64) {
	e := math.Exp(p[1] * x[0])
	dst[0] = e
	dst[1] = p[0] * x[0] * e
}

// MichaelisMenten is v = Vmax·S / (Km + S), params [Vmax, Km], vars [S].
type MichaelisMenten struct{}

func (MichaelisMenten) NumParams() int { return 2 }

func (MichaelisMenten) Evaluate(x, p []float64) float64 { return p[0] * x[0] / (p[1] + x[0]) }

func (MichaelisMenten) Gradient(dst, x, p []float64) {
	den := p[1] + x[0]
	dst[0] = x[0] / den
	dst[1] = -p[0] * x[0] / (den * den)
}

// The two-substrate and inhibition rate laws below rely on numeric gradients.

// Alberty: v = Vmax·A·B / (KmA·B + KmB·A + A·B + KsA·KmB),
// params [Vmax, KmA, KmB, KsA], vars [A, B].
var Alberty = Func{N: 4, F: func(x, p []float64) float64 {
	a, b := x[0], x[1]
	return p[0] * a * b / (p[1]*b + p[2]*a + a*b + p[3]*p[2])
}}

// PingPong: v = Vmax·A·B / (KmA·B + KmB·A + A·B),
// params [Vmax, KmA, KmB], vars [A, B].
var PingPong = Func{N: 3, F: func(x, p []float64) float64 {
	a, b := x[0], x[1]
	return p[0] * a * b / (p[1]*b + p[2]*a + a*b)
}}

// Mixed inhibition: v = Vmax·S / (Km·(1 + I/KIa) + S·(1 + I/KIb)),
// params [Vmax, Km, KIa, KIb], vars [S, I].
var Mixed = Func{N: 4, F: func(x, p []float64) float64 {
	s, i := x[0], x[1]
	return p[0] * s / (p[1]*(1+i/p[2]) + s*(1+i/p[3]))
}}

// Competitive inhibition: v = Vmax·S / (Km·(1 + I/KIa) + S),
// params [Vmax, Km, KIa], vars [S, I].
var Competitive = Func{N: 3, F: func(x, p []float64) float64 {
	s, i := x[0], x[1]
	return p[0] * s / (p[1]*(1+i/p[2]) + s)
}}

// Uncompetitive inhibition: v = Vmax·S / (Km + S·(1 + I/KIb)),
// params [Vmax, Km, KIb], vars [S, I].
var Uncompetitive = Func{N: 3, F: func(x, p []float64) float64 {
	s, i := x[0], x[1]
	return p[0] * s / (p[1] + s*(1+i/p[2]))
}}

// Noncompetitive inhibition: v = Vmax·S / ((Km + S)·(1 + I/KIb)),
// params [Vmax, Km, KIb], vars [S, I].
var Noncompetitive = Func{N: 3, F: func(x, p []float64) float64 {
	s, i := x[0], x[1]
	return p[0] * s / ((p[1] + s) * (1 + i/p[2]))
}}

// PH dependence: v = Vmax·S / (Km·(1 + H/Ka1 + Ka3/H) + S·(1 + H/Ka2 + Ka4/H)),
// params [Vmax, Km, Ka1, Ka2, Ka3, Ka4], vars [S, H].
var PH = Func{N: 6, F: func(x, p []float64) float64 {
	s, h := x[0], x[1]
	return p[0] * s / (p[1]*(1+h/p[2]+p[4]/h) + s*(1+h/p[3]+p[5]/h))
}}

// Inactivation: v = Vmax·S·exp(−kt·t) / (Km + S),
// params [Vmax, Km, kt], vars [S, t].
var Inactivation = Func{N: 3, F: func(x, p []float64) float64 {
	s, t := x[0], x[1]
	return s * p[0] * math.Exp(-p[2]*t) / (p[1] + s)
}}

// builtins lists the catalog in registration order.
func builtins() []Spec {
	return []Spec{
		{Name: "linear", Params: []string{"a", "b"}, Vars: []string{"x"}, Model: Linear{}},
		{Name: "quadratic", Params: []string{"c0", "c1", "c2"}, Vars: []string{"x"}, Model: Polynomial{Degree: 2}},
		{Name: "exponential", Params: []string{"a", "b"}, Vars: []string{"x"}, Model: Exponential{}},
		{Name: "michaelis", Params: []string{"Vmax", "Km"}, Vars: []string{"S"}, Model: MichaelisMenten{}},
		{Name: "alberty", Params: []string{"Vmax", "KmA", "KmB", "KsA"}, Vars: []string{"A", "B"}, Model: Alberty},
		{Name: "pingpong", Params: []string{"Vmax", "KmA", "KmB"}, Vars: []string{"A", "B"}, Model: PingPong},
		{Name: "mixed", Params: []string{"Vmax", "Km", "KIa", "KIb"}, Vars: []string{"S", "I"}, Model: Mixed},
		{Name: "competitive", Params: []string{"Vmax", "Km", "KIa"}, Vars: []string{"S", "I"}, Model: Competitive},
		{Name: "uncompetitive", Params: []string{"Vmax", "Km", "KIb"}, Vars: []string{"S", "I"}, Model: Uncompetitive},
		{Name: "noncompetitive", Params: []string{"Vmax", "Km", "KIb"}, Vars: []string{"S", "I"}, Model: Noncompetitive},
		{Name: "ph", Params: []string{"Vmax", "Km", "Ka1", "Ka2", "Ka3", "Ka4"}, Vars: []string{"S", "H"}, Model: PH},
		{Name: "inactivation", Params: []string{"Vmax", "Km", "kt"}, Vars: []string{"S", "t"}, Model: Inactivation},
	}
}
