// SPDX-License-Identifier: MIT

// Package matrix: the Matrix contract consumed by the kernels and solver.
package matrix

// Matrix is a bounds-checked r×c grid of float64.
// Jacobians, normal matrices and covariances all travel as Matrix values;
// *Dense is the only implementation in this module.
type Matrix interface {
	Rows() int
	Cols() int

	// At reads (i, j); ErrOutOfRange outside the shape.
	At(i, j int) (float64, error)

	// Set writes (i, j); ErrOutOfRange outside the shape, ErrNaNInf for a
	// non-finite v.
	Set(i, j int, v float64) error

	// Clone returns an independent deep copy.
	Clone() Matrix
}
