// SPDX-License-Identifier: MIT
// Package matrix: comparisons and covariance post-processing.
//
// Correlation turns a parameter covariance into the correlation matrix
// reported next to standard errors; AllClose is the tolerant comparison used
// by callers that check numeric agreement.

package matrix

import "math"

const (
	opAllClose    = "AllClose"
	opCorrelation = "Correlation"
)

// AllClose checks element-wise |a-b| ≤ atol + rtol*|b| for identical shapes.
// Negative tolerances are treated as their absolute values.
//
// Errors:
//   - ErrNaNInf (non-finite tolerance), ErrNilMatrix, ErrDimensionMismatch.
func AllClose(a, b Matrix, rtol, atol float64) (bool, error) {
	if math.IsNaN(rtol) || math.IsNaN(atol) || math.IsInf(rtol, 0) || math.IsInf(atol, 0) {
		return false, matrixErrorf(opAllClose, ErrNaNInf)
	}
	rtol, atol = math.Abs(rtol), math.Abs(atol)
	if err := ValidateNotNil(a); err != nil {
		return false, matrixErrorf(opAllClose, err)
	}
	if err := ValidateNotNil(b); err != nil {
		return false, matrixErrorf(opAllClose, err)
	}
	if err := ValidateSameShape(a, b); err != nil {
		return false, matrixErrorf(opAllClose, err)
	}

	r, c := a.Rows(), a.Cols()
	if da, okA := a.(*Dense); okA {
		if db, okB := b.(*Dense); okB {
			for idx := range da.data {
				if math.Abs(da.data[idx]-db.data[idx]) > atol+rtol*math.Abs(db.data[idx]) {
					return false, nil
				}
			}

			return true, nil
		}
	}

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			av, err := a.At(i, j)
			if err != nil {
				return false, matrixErrorf(opAllClose, atErr(i, j, err))
			}
			bv, err := b.At(i, j)
			if err != nil {
				return false, matrixErrorf(opAllClose, atErr(i, j, err))
			}
			if math.Abs(av-bv) > atol+rtol*math.Abs(bv) {
				return false, nil
			}
		}
	}

	return true, nil
}

// Correlation normalizes a square covariance C into R[i,j] = C[i,j]/√(C[i,i]·C[j,j]).
// Rows and columns with a non-positive variance (fixed parameters) are zero,
// including their diagonal entry; every other diagonal entry is exactly 1.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, wrapped At errors.
func Correlation(cov Matrix) (*Dense, error) {
	if err := ValidateSquare(cov); err != nil {
		return nil, matrixErrorf(opCorrelation, err)
	}
	n := cov.Rows()
	d, err := Diag(cov)
	if err != nil {
		return nil, matrixErrorf(opCorrelation, err)
	}
	inv := make([]float64, n)
	for i, v := range d {
		if v > 0 {
			inv[i] = 1 / math.Sqrt(v)
		}
	}

	out, err := NewDense(n, n)
	if err != nil {
		return nil, matrixErrorf(opCorrelation, err)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if inv[i] == 0 || inv[j] == 0 {
				continue
			}
			if i == j {
				out.data[i*n+j] = 1
				continue
			}
			v, err := cov.At(i, j)
			if err != nil {
				return nil, matrixErrorf(opCorrelation, atErr(i, j, err))
			}
			out.data[i*n+j] = v * inv[i] * inv[j]
		}
	}

	return out, nil
}
