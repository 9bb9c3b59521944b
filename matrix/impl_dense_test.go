// Package matrix_test contains unit tests for the Dense implementation
// of the Matrix interface in the matrix package.
package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/lvfit/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewDenseInvalidDimensions ensures that NewDense rejects non-positive dimensions.
func TestNewDenseInvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 5)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDense(5, -1)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestRowsCols verifies that Rows(), Cols() and Shape() agree.
func TestRowsCols(t *testing.T) {
	m := MustDense(t, 3, 4)
	require.Equal(t, 3, m.Rows())
	require.Equal(t, 4, m.Cols())
	r, c := m.Shape()
	require.Equal(t, [2]int{3, 4}, [2]int{r, c})
}

// TestAtSetOutOfRange ensures At() and Set() return ErrOutOfRange on invalid access.
func TestAtSetOutOfRange(t *testing.T) {
	m := MustDense(t, 2, 2)

	_, err := m.At(-1, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	_, err = m.At(0, 2)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	require.ErrorIs(t, m.Set(2, 0, 1.23), matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(0, -1, 4.56), matrix.ErrOutOfRange)

	_, err = m.Row(5)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

// TestSetRejectsNaNInf checks the numeric policy on Set.
func TestSetRejectsNaNInf(t *testing.T) {
	m := MustDense(t, 1, 1)
	require.ErrorIs(t, m.Set(0, 0, math.NaN()), matrix.ErrNaNInf)
	require.ErrorIs(t, m.Set(0, 0, math.Inf(-1)), matrix.ErrNaNInf)
	require.Equal(t, 0.0, MustAt(t, m, 0, 0))
}

// TestNewDenseFrom covers copying, length checks and the numeric policy.
func TestNewDenseFrom(t *testing.T) {
	src := []float64{1, 2, 3, 4, 5, 6}
	m, err := matrix.NewDenseFrom(2, 3, src)
	require.NoError(t, err)
	src[0] = 99 // caller mutation must not leak in
	assert.Equal(t, 1.0, MustAt(t, m, 0, 0))
	assert.Equal(t, 6.0, MustAt(t, m, 1, 2))

	_, err = matrix.NewDenseFrom(2, 2, src)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = matrix.NewDenseFrom(1, 2, []float64{1, math.Inf(1)})
	require.ErrorIs(t, err, matrix.ErrNaNInf)
}

// TestNewDenseFromRows rejects ragged and empty input.
func TestNewDenseFromRows(t *testing.T) {
	m, err := matrix.NewDenseFromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 3.0, MustAt(t, m, 1, 0))

	_, err = matrix.NewDenseFromRows([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = matrix.NewDenseFromRows(nil)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestIdentityAndDiagonal checks the structured constructors.
func TestIdentityAndDiagonal(t *testing.T) {
	id, err := matrix.NewIdentity(3)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.Equal(t, want, MustAt(t, id, i, j))
		}
	}

	d, err := matrix.NewDiagonal([]float64{2, 5})
	require.NoError(t, err)
	assert.Equal(t, 5.0, MustAt(t, d, 1, 1))
	assert.Equal(t, 0.0, MustAt(t, d, 0, 1))

	_, err = matrix.NewIdentity(0)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestCloneIndependence ensures Clone() returns a deep copy that does not share storage.
func TestCloneIndependence(t *testing.T) {
	m := MustDense(t, 2, 2, 1, 0, 0, 2)
	clone := m.Clone()
	require.NoError(t, clone.Set(0, 0, 3.0))

	assert.Equal(t, 1.0, MustAt(t, m, 0, 0))
	assert.Equal(t, 3.0, MustAt(t, clone, 0, 0))
}

// TestRowIsCopy verifies Row returns detached storage.
func TestRowIsCopy(t *testing.T) {
	m := MustDense(t, 2, 2, 1, 2, 3, 4)
	row, err := m.Row(1)
	require.NoError(t, err)
	require.Equal(t, []float64{3, 4}, row)
	row[0] = -1
	assert.Equal(t, 3.0, MustAt(t, m, 1, 0))
}

// TestString pins the row-by-row rendering.
func TestString(t *testing.T) {
	m := MustDense(t, 2, 2, 1, 2.5, -3, 4)
	assert.Equal(t, "[1, 2.5]\n[-3, 4]\n", m.String())
}

// TestToRowsFallback compares fast and fallback materialization.
func TestToRowsFallback(t *testing.T) {
	m := MustDense(t, 2, 3, 1, 2, 3, 4, 5, 6)
	fast, err := matrix.ToRows(m)
	require.NoError(t, err)
	slow, err := matrix.ToRows(hide{m})
	require.NoError(t, err)
	require.Equal(t, fast, slow)

	_, err = matrix.ToRows(nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}
