// SPDX-License-Identifier: MIT
// Package matrix: sentinel errors shared by the kernels and matrix/ops.
// Kernels return them wrapped once with an operation tag; callers match with
// errors.Is. User input never causes a panic.

package matrix

import "errors"

// Messages carry the "matrix: " prefix. Check order in every kernel:
// nil, then shape, then index, then NaN/Inf.
var (
	// ErrInvalidDimensions: a requested row or column count is not positive.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")

	// ErrOutOfRange: At/Set index outside [0,Rows)×[0,Cols).
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch: operand shapes do not compose (Mul inner size,
	// weight or residual vector length, Gram operands).
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNonSquare: solve, inverse and correlation need n×n input.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrNaNInf: a non-finite element or tolerance was rejected.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrNilMatrix: a nil Matrix (or typed-nil *Dense) was passed.
	ErrNilMatrix = errors.New("matrix: nil receiver")
)
