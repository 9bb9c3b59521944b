// Package matrix provides the dense linear-algebra primitives used by the
// least-squares fitter.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with bounds-checked At/Set and a
//     NaN/Inf rejecting numeric policy.
//   - Kernels: Mul, Transpose, MatVec, Diag, AddDiagonal.
//   - Normal-equation builders: Gram (JᵗWJ) and GramVec (JᵗWr).
//   - AllClose for tolerant comparison, Correlation for covariance output.
//   - Canonical validators and a sentinel error set matched via errors.Is.
//
// Linear solves (Gauss-Jordan with partial pivoting) and inversion live in
// the ops subpackage.
//
// Matrices here are small (parameters × parameters); no sparse or blocked
// storage is attempted.
package matrix
