// SPDX-License-Identifier: MIT
// Package matrix provides the dense kernels the least-squares machinery is
// built on: multiplication, transpose, matrix-vector product, diagonal
// access/damping and the weighted Gram products JᵗWJ and JᵗWr.
// All functions perform strict fail-fast validation and return clear errors
// on dimension mismatches.
//
// Notes:
//   - Every kernel has a *Dense fast path on the flat buffer and a generic
//     At/Set fallback with identical loop order (identical results).
//   - Errors are plain sentinels wrapped once via matrixErrorf at the facade.

package matrix

import "fmt"

// ZeroSum is the initial sum value for accumulations.
const ZeroSum = 0.0

// Operation name constants for unified error wrapping.
const (
	opMul         = "Mul"
	opTranspose   = "Transpose"
	opMatVec      = "MatVec"
	opDiag        = "Diag"
	opAddDiagonal = "AddDiagonal"
	opGram        = "Gram"
	opGramVec     = "GramVec"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil to avoid creating a non-nil wrapper around a nil cause.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// atErr labels a failing element read of a foreign Matrix implementation.
func atErr(i, j int, err error) error {
	return fmt.Errorf("At(%d,%d): %w", i, j, err)
}

// Mul performs standard matrix multiplication C = A × B (no aliasing).
// Implementation:
//   - Stage 1: Validate A,B (not nil) and inner dimensions (A.Cols == B.Rows).
//   - Stage 2: If A and B are *Dense, use i→k→j with row-major strides and skip zeros;
//     otherwise use i→j→k with a fixed order and zero-skip on A[i,k].
//
// Errors:
//   - ErrNilMatrix (nil input), ErrDimensionMismatch (inner mismatch).
//
// Complexity:
//   - Time O(r*n*c), Space O(r*c).
func Mul(a, b Matrix) (Matrix, error) {
	if err := ValidateMulCompatible(a, b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}

	aRows, aCols, bCols := a.Rows(), a.Cols(), b.Cols()
	res, err := NewDense(aRows, bCols)
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	var (
		i, j, k         int
		av, bv, current float64
	)
	// Fast-path for two Dense matrices
	if da, okA := a.(*Dense); okA {
		if db, okB := b.(*Dense); okB {
			var rowOffsetA, rowOffsetB, rowOffsetR int
			for i = 0; i < aRows; i++ {
				rowOffsetA = i * aCols
				rowOffsetR = i * bCols
				for k = 0; k < aCols; k++ {
					av = da.data[rowOffsetA+k]
					if av == 0 {
						continue
					}
					rowOffsetB = k * bCols
					for j = 0; j < bCols; j++ {
						res.data[rowOffsetR+j] += av * db.data[rowOffsetB+j]
					}
				}
			}

			return res, nil
		}
	}

	// Fallback: generic interface triple-loop (i-j-k)
	for i = 0; i < aRows; i++ {
		for j = 0; j < bCols; j++ {
			current = ZeroSum
			for k = 0; k < aCols; k++ {
				if av, err = a.At(i, k); err != nil {
					return nil, matrixErrorf(opMul, atErr(i, k, err))
				}
				if av == 0 {
					continue
				}
				if bv, err = b.At(k, j); err != nil {
					return nil, matrixErrorf(opMul, atErr(k, j, err))
				}
				current += av * bv
			}
			if err = res.Set(i, j, current); err != nil {
				return nil, matrixErrorf(opMul, err)
			}
		}
	}

	return res, nil
}

// Transpose returns a new matrix with rows and columns swapped (mᵀ).
// The original matrix is never mutated.
//
// Errors:
//   - ErrNilMatrix.
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func Transpose(m Matrix) (Matrix, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	r, c := m.Rows(), m.Cols()
	res, err := NewDense(c, r)
	if err != nil {
		return nil, matrixErrorf(opTranspose, err)
	}
	if d, ok := m.(*Dense); ok {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				res.data[j*r+i] = d.data[i*c+j]
			}
		}

		return res, nil
	}
	var v float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v, err = m.At(i, j); err != nil {
				return nil, matrixErrorf(opTranspose, atErr(i, j, err))
			}
			res.data[j*r+i] = v
		}
	}

	return res, nil
}

// MatVec computes y = m·x.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (len(x) != m.Cols()).
//
// Complexity:
//   - Time O(r*c), Space O(r).
func MatVec(m Matrix, x []float64) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	r, c := m.Rows(), m.Cols()
	if err := ValidateVecLen(x, c); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	y := make([]float64, r)
	if d, ok := m.(*Dense); ok {
		for i := 0; i < r; i++ {
			sum := ZeroSum
			row := d.data[i*c : (i+1)*c]
			for j, v := range row {
				sum += v * x[j]
			}
			y[i] = sum
		}

		return y, nil
	}
	var (
		v   float64
		err error
	)
	for i := 0; i < r; i++ {
		sum := ZeroSum
		for j := 0; j < c; j++ {
			if v, err = m.At(i, j); err != nil {
				return nil, matrixErrorf(opMatVec, atErr(i, j, err))
			}
			sum += v * x[j]
		}
		y[i] = sum
	}

	return y, nil
}

// Diag returns a copy of the main diagonal of a square matrix.
// Errors: ErrNilMatrix, ErrNonSquare.
func Diag(m Matrix) ([]float64, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opDiag, err)
	}
	n := m.Rows()
	out := make([]float64, n)
	var err error
	for i := 0; i < n; i++ {
		if out[i], err = m.At(i, i); err != nil {
			return nil, matrixErrorf(opDiag, atErr(i, i, err))
		}
	}

	return out, nil
}

// AddDiagonal returns a copy of m with d[i] added to m[i,i].
// This is the damping step of Levenberg-Marquardt: A + λ·diag(A).
//
// Errors: ErrNilMatrix, ErrNonSquare, ErrDimensionMismatch (len(d)), ErrNaNInf.
// Complexity: O(n²) for the copy.
func AddDiagonal(m Matrix, d []float64) (Matrix, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, matrixErrorf(opAddDiagonal, err)
	}
	n := m.Rows()
	if err := ValidateVecLen(d, n); err != nil {
		return nil, matrixErrorf(opAddDiagonal, err)
	}
	out := m.Clone()
	var (
		v   float64
		err error
	)
	for i := 0; i < n; i++ {
		if v, err = out.At(i, i); err != nil {
			return nil, matrixErrorf(opAddDiagonal, atErr(i, i, err))
		}
		if err = out.Set(i, i, v+d[i]); err != nil {
			return nil, matrixErrorf(opAddDiagonal, err)
		}
	}

	return out, nil
}

// Gram computes the weighted normal matrix JᵗWJ for W = diag(w).
// A nil w means unit weights.
//
// Implementation:
//   - Stage 1: validate J and len(w) == J.Rows() when w != nil.
//   - Stage 2: accumulate the upper triangle row by row (k→a→b), mirror it.
//
// Behavior highlights:
//   - The result is exactly symmetric (mirrored, not recomputed).
//
// Errors: ErrNilMatrix, ErrDimensionMismatch, ErrNaNInf (overflowing products).
// Complexity: O(n·m²) time, O(m²) space for J of shape n×m.
func Gram(j Matrix, w []float64) (*Dense, error) {
	if err := ValidateNotNil(j); err != nil {
		return nil, matrixErrorf(opGram, err)
	}
	n, m := j.Rows(), j.Cols()
	if w != nil {
		if err := ValidateVecLen(w, n); err != nil {
			return nil, matrixErrorf(opGram, err)
		}
	}
	rows, err := ToRows(j)
	if err != nil {
		return nil, matrixErrorf(opGram, err)
	}
	acc := make([]float64, m*m)
	var wk float64
	for k := 0; k < n; k++ {
		wk = 1
		if w != nil {
			wk = w[k]
		}
		row := rows[k]
		for a := 0; a < m; a++ {
			if row[a] == 0 {
				continue
			}
			ra := wk * row[a]
			for b := a; b < m; b++ {
				acc[a*m+b] += ra * row[b]
			}
		}
	}
	for a := 0; a < m; a++ {
		for b := 0; b < a; b++ {
			acc[a*m+b] = acc[b*m+a]
		}
	}
	out, err := NewDenseFrom(m, m, acc)
	if err != nil {
		return nil, matrixErrorf(opGram, err)
	}

	return out, nil
}

// GramVec computes the weighted gradient vector JᵗWr for W = diag(w).
// A nil w means unit weights.
//
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(n·m).
func GramVec(j Matrix, w, r []float64) ([]float64, error) {
	if err := ValidateNotNil(j); err != nil {
		return nil, matrixErrorf(opGramVec, err)
	}
	n, m := j.Rows(), j.Cols()
	if err := ValidateVecLen(r, n); err != nil {
		return nil, matrixErrorf(opGramVec, err)
	}
	if w != nil {
		if err := ValidateVecLen(w, n); err != nil {
			return nil, matrixErrorf(opGramVec, err)
		}
	}
	out := make([]float64, m)
	var (
		v   float64
		err error
	)
	for k := 0; k < n; k++ {
		wr := r[k]
		if w != nil {
			wr *= w[k]
		}
		for a := 0; a < m; a++ {
			if v, err = j.At(k, a); err != nil {
				return nil, matrixErrorf(opGramVec, atErr(k, a, err))
			}
			out[a] += v * wr
		}
	}

	return out, nil
}
