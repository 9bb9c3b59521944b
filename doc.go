// Package lvfit fits nonlinear models to observations by Levenberg–Marquardt
// least squares and estimates parameter uncertainty by Monte Carlo refits.
//
// What is inside?
//
//	A small, deterministic toolkit:
//		• Dense matrices with the products a fitter needs (JᵗWJ, JᵗWr)
//		• Gauss–Jordan solve and inverse with partial pivoting
//		• Models with analytic or central-difference gradients, plus a
//		  catalog of enzyme-kinetics rate laws
//		• A damped least-squares fitter with covariance and standard errors
//		• Seeded Monte Carlo refits with order-independent aggregation
//
// Subpackages:
//
//	matrix/             Dense type, validators, Mul/Transpose/Gram kernels
//	matrix/ops/         Solve, SolveMatrix, Inverse
//	model/              Model interface, catalog and name registry
//	dataset/            immutable observations with optional σ
//	lm/                 Fit, Options, Result
//	montecarlo/         Estimate, Simulate, Report
//	rng/                seeded PCG streams
//	config/             YAML + LVFIT_* environment configuration
//
// Quick example:
//
//	ds, _ := dataset.FromXY(s, v)
//	res, err := lm.Fit(ds, model.MichaelisMenten{}, []float64{5, 1}, lm.DefaultOptions())
//	rep, err := montecarlo.Estimate(ctx, ds, model.MichaelisMenten{}, res.Params, montecarlo.DefaultOptions())
//
// Identical inputs and seeds give bit-identical results for any worker count.
//
//	go get github.com/katalvlaran/lvfit
package lvfit
