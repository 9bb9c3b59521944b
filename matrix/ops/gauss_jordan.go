// SPDX-License-Identifier: MIT

// Package ops provides the linear solvers of the lvfit/matrix package.
// SolveMatrix/Solve/Inverse run Gauss-Jordan elimination with partial (row)
// pivoting followed by back-substitution, following strict fail-fast and
// Go-idiomatic patterns. Inputs are never mutated.
package ops

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/lvfit/matrix"
)

// ErrSingular is returned when no usable pivot exists for some column.
var ErrSingular = errors.New("ops: matrix is singular")

const (
	opSolve       = "Solve"
	opSolveMatrix = "SolveMatrix"
	opInverse     = "Inverse"
)

// SolveMatrix solves A·X = B for X, where A is n×n and B is n×k.
// Blueprint:
//
//	Stage 1 (Validate): A square, B with n rows.
//	Stage 2 (Prepare): copy A and B into row workspaces; scale = max|A|.
//	Stage 3 (Eliminate): for each column c pick the row r >= c with the
//	  largest |A[r,c]|, swap rows r and c in A and B, normalize the pivot
//	  row, then subtract it from every row below.
//	Stage 4 (Back-substitute): A is now unit upper triangular; solve upward.
//	Stage 5 (Finalize): return X as a new Dense.
//
// Errors:
//   - matrix.ErrNilMatrix, matrix.ErrNonSquare, matrix.ErrDimensionMismatch.
//   - ErrSingular when a pivot magnitude is <= tol·scale (or A is all zero).
//
// Complexity: O(n³ + n²k) time, O(n² + nk) memory.
func SolveMatrix(a, b matrix.Matrix, opts ...Option) (matrix.Matrix, error) {
	// Stage 1: Validate input shape
	if err := matrix.ValidateSquare(a); err != nil {
		return nil, fmt.Errorf("%s: %w", opSolveMatrix, err)
	}
	if err := matrix.ValidateRowsCompatible(a, b); err != nil {
		return nil, fmt.Errorf("%s: %w", opSolveMatrix, err)
	}

	// Stage 2: Prepare workspaces
	aw, err := matrix.ToRows(a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opSolveMatrix, err)
	}
	bw, err := matrix.ToRows(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opSolveMatrix, err)
	}
	o := gatherOptions(opts...)

	// Stage 3-4: eliminate and back-substitute in place
	if err = gaussJordan(aw, bw, o.pivotTol); err != nil {
		return nil, fmt.Errorf("%s: %w", opSolveMatrix, err)
	}

	// Stage 5: Finalize
	x, err := matrix.NewDenseFromRows(bw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opSolveMatrix, err)
	}

	return x, nil
}

// Solve solves A·x = b for a single right-hand side.
// Errors: as SolveMatrix; len(b) != n yields matrix.ErrDimensionMismatch.
func Solve(a matrix.Matrix, b []float64, opts ...Option) ([]float64, error) {
	if err := matrix.ValidateSquare(a); err != nil {
		return nil, fmt.Errorf("%s: %w", opSolve, err)
	}
	n := a.Rows()
	if err := matrix.ValidateVecLen(b, n); err != nil {
		return nil, fmt.Errorf("%s: %w", opSolve, err)
	}
	aw, err := matrix.ToRows(a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opSolve, err)
	}
	bw := make([][]float64, n)
	for i, v := range b {
		bw[i] = []float64{v}
	}
	o := gatherOptions(opts...)
	if err = gaussJordan(aw, bw, o.pivotTol); err != nil {
		return nil, fmt.Errorf("%s: %w", opSolve, err)
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = bw[i][0]
	}

	return x, nil
}

// gaussJordan reduces a (n×n) to unit upper triangular form with partial
// pivoting, applying every row operation to b (n×k), then back-substitutes so
// that b holds the solution. Both workspaces are overwritten.
func gaussJordan(a, b [][]float64, tol float64) error {
	n := len(a)
	k := 0
	if n > 0 {
		k = len(b[0])
	}

	// Scale for the relative pivot test; an all-zero A is singular outright.
	var scale float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			scale = math.Max(scale, math.Abs(a[i][j]))
		}
	}
	if scale == 0 {
		return fmt.Errorf("zero matrix: %w", ErrSingular)
	}
	threshold := tol * scale

	var (
		c, r, i, j, best int
		pivot, factor    float64
		mag, bestMag     float64
	)
	for c = 0; c < n; c++ {
		// partial pivoting: largest magnitude at or below the diagonal
		best, bestMag = c, math.Abs(a[c][c])
		for r = c + 1; r < n; r++ {
			if mag = math.Abs(a[r][c]); mag > bestMag {
				best, bestMag = r, mag
			}
		}
		if bestMag <= threshold {
			return fmt.Errorf("pivot %d (|p|=%g): %w", c, bestMag, ErrSingular)
		}
		if best != c {
			a[c], a[best] = a[best], a[c]
			b[c], b[best] = b[best], b[c]
		}

		// normalize the pivot row
		pivot = a[c][c]
		for j = c; j < n; j++ {
			a[c][j] /= pivot
		}
		for j = 0; j < k; j++ {
			b[c][j] /= pivot
		}

		// eliminate below
		for i = c + 1; i < n; i++ {
			factor = a[i][c]
			if factor == 0 {
				continue
			}
			for j = c; j < n; j++ {
				a[i][j] -= factor * a[c][j]
			}
			for j = 0; j < k; j++ {
				b[i][j] -= factor * b[c][j]
			}
		}
	}

	// back-substitution on the unit upper triangle
	for c = n - 1; c >= 0; c-- {
		for i = 0; i < c; i++ {
			factor = a[i][c]
			if factor == 0 {
				continue
			}
			for j = 0; j < k; j++ {
				b[i][j] -= factor * b[c][j]
			}
			a[i][c] = 0
		}
	}

	for i = 0; i < n; i++ {
		for j = 0; j < k; j++ {
			if math.IsNaN(b[i][j]) || math.IsInf(b[i][j], 0) {
				return fmt.Errorf("non-finite solution at (%d,%d): %w", i, j, ErrSingular)
			}
		}
	}

	return nil
}
