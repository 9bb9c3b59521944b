// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   • Provide small, deterministic test fixtures and utilities for kernels.
//   • Keep all data finite and well-formed to avoid numeric-policy interference.

package matrix_test

import (
	"testing"

	"github.com/katalvlaran/lvfit/matrix"
	"github.com/stretchr/testify/require"
)

// hide wraps any Matrix to hide its concrete type from type assertions.
// Use hide{X} in tests to force the non-*Dense (fallback) paths.
type hide struct{ matrix.Matrix }

// MustDense allocates an r×c *Dense from row-major values or fails the test.
func MustDense(t *testing.T, r, c int, vals ...float64) *matrix.Dense {
	t.Helper()
	if len(vals) == 0 {
		m, err := matrix.NewDense(r, c)
		require.NoError(t, err)

		return m
	}
	m, err := matrix.NewDenseFrom(r, c, vals)
	require.NoError(t, err)

	return m
}

// MustAt reads m[i,j] or fails the test.
func MustAt(t *testing.T, m matrix.Matrix, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)

	return v
}

// requireAllClose compares two matrices element-wise within tol.
func requireAllClose(t *testing.T, want, got matrix.Matrix, tol float64) {
	t.Helper()
	require.Equal(t, want.Rows(), got.Rows())
	require.Equal(t, want.Cols(), got.Cols())
	for i := 0; i < want.Rows(); i++ {
		for j := 0; j < want.Cols(); j++ {
			require.InDelta(t, MustAt(t, want, i, j), MustAt(t, got, i, j), tol, "at (%d,%d)", i, j)
		}
	}
}
