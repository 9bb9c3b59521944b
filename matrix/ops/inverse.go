// SPDX-License-Identifier: MIT

package ops

import (
	"fmt"

	"github.com/katalvlaran/lvfit/matrix"
)

// Inverse returns the inverse of the square matrix m, or an error if m is not square or singular.
// Blueprint:
//
//	Stage 1 (Validate): ensure m is square.
//	Stage 2 (Prepare): build the n×n identity as right-hand side.
//	Stage 3 (Execute): SolveMatrix(m, I) with the same pivoting rules.
//
// Errors: matrix.ErrNilMatrix, matrix.ErrNonSquare, ErrSingular.
// Complexity: O(n³) time, O(n²) memory, where n = m.Rows().
func Inverse(m matrix.Matrix, opts ...Option) (matrix.Matrix, error) {
	// Stage 1: Validate input shape
	if err := matrix.ValidateSquare(m); err != nil {
		return nil, fmt.Errorf("%s: %w", opInverse, err)
	}

	// Stage 2: identity right-hand side
	id, err := matrix.NewIdentity(m.Rows())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opInverse, err)
	}

	// Stage 3: solve against every basis column at once
	inv, err := SolveMatrix(m, id, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opInverse, err)
	}

	return inv, nil
}
