package ops_test

import (
	"math/rand/v2"
	"testing"

	"github.com/katalvlaran/lvfit/matrix"
	"github.com/katalvlaran/lvfit/matrix/ops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// hide masks the concrete *Dense so the At-based fallback is exercised.
type hide struct{ matrix.Matrix }

func mustDense(t *testing.T, r, c int, vals ...float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(r, c, vals)
	require.NoError(t, err)

	return m
}

// randomWellConditioned returns a diagonally dominant n×n matrix and its flat data.
func randomWellConditioned(r *rand.Rand, n int) []float64 {
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		rowSum := 0.0
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			v := 2*r.Float64() - 1
			data[i*n+j] = v
			if v < 0 {
				rowSum -= v
			} else {
				rowSum += v
			}
		}
		data[i*n+i] = rowSum + 1 + r.Float64()
	}

	return data
}

func TestSolveSmallSystem(t *testing.T) {
	// 2x + y = 5, x + 3y = 10  →  x = 1, y = 3
	a := mustDense(t, 2, 2, 2, 1, 1, 3)
	x, err := ops.Solve(a, []float64{5, 10})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 3}, x, 1e-12)
}

func TestSolveNeedsPivoting(t *testing.T) {
	// zero leading entry forces a row swap
	a := mustDense(t, 3, 3,
		0, 2, 1,
		1, 1, 1,
		2, 1, 0)
	want := []float64{1, -1, 2}
	b, err := matrix.MatVec(a, want)
	require.NoError(t, err)

	x, err := ops.Solve(a, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, x, 1e-12)
}

// TestSolveRoundTripRandom checks Solve(A, A·x) ≈ x against a gonum oracle.
func TestSolveRoundTripRandom(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	for _, n := range []int{1, 2, 3, 5, 8, 12} {
		data := randomWellConditioned(r, n)
		a := mustDense(t, n, n, data...)
		want := make([]float64, n)
		for i := range want {
			want[i] = 10*r.Float64() - 5
		}
		b, err := matrix.MatVec(a, want)
		require.NoError(t, err)

		x, err := ops.Solve(a, b)
		require.NoError(t, err)
		assert.InDeltaSlice(t, want, x, 1e-9, "n=%d", n)

		var oracle mat.VecDense
		require.NoError(t, oracle.SolveVec(mat.NewDense(n, n, data), mat.NewVecDense(n, b)))
		assert.InDeltaSlice(t, oracle.RawVector().Data, x, 1e-9, "n=%d", n)
	}
}

func TestSolveMatrixMultipleRHS(t *testing.T) {
	a := mustDense(t, 2, 2, 4, 1, 2, 3)
	b := mustDense(t, 2, 2, 1, 0, 0, 1)
	x, err := ops.SolveMatrix(hide{a}, b)
	require.NoError(t, err)

	prod, err := matrix.Mul(a, x)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			got, _ := prod.At(i, j)
			want, _ := b.At(i, j)
			assert.InDelta(t, want, got, 1e-12)
		}
	}
}

func TestSolveDoesNotMutateInputs(t *testing.T) {
	a := mustDense(t, 2, 2, 0, 1, 1, 0)
	b := []float64{3, 4}
	snapshot := a.Clone()

	x, err := ops.Solve(a, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{4, 3}, x, 1e-15)
	assert.Equal(t, []float64{3, 4}, b)
	assert.Equal(t, snapshot, matrix.Matrix(a))
}

func TestSolveSingular(t *testing.T) {
	cases := map[string]*matrix.Dense{
		"zero row":      mustDense(t, 3, 3, 1, 2, 3, 0, 0, 0, 4, 5, 6),
		"zero column":   mustDense(t, 3, 3, 1, 0, 3, 2, 0, 6, 4, 0, 5),
		"dependent":     mustDense(t, 2, 2, 1, 2, 2, 4),
		"all zero":      mustDense(t, 2, 2, 0, 0, 0, 0),
		"near singular": mustDense(t, 2, 2, 1, 1, 1, 1+1e-15),
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ops.Solve(a, make([]float64, a.Rows()))
			require.ErrorIs(t, err, ops.ErrSingular)
		})
	}
}

func TestPivotToleranceOption(t *testing.T) {
	a := mustDense(t, 2, 2, 1, 1, 1, 1+1e-10)
	_, err := ops.Solve(a, []float64{2, 2}, ops.WithPivotTolerance(1e-8))
	require.ErrorIs(t, err, ops.ErrSingular)

	x, err := ops.Solve(a, []float64{2, 2}, ops.WithPivotTolerance(0))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 0}, x, 1e-5)

	assert.Panics(t, func() { ops.WithPivotTolerance(-1) })
}

func TestSolveShapeErrors(t *testing.T) {
	_, err := ops.Solve(mustDense(t, 2, 3, 1, 2, 3, 4, 5, 6), []float64{1, 2})
	require.ErrorIs(t, err, matrix.ErrNonSquare)

	_, err = ops.Solve(mustDense(t, 2, 2, 1, 0, 0, 1), []float64{1})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = ops.Solve(nil, []float64{1})
	require.ErrorIs(t, err, matrix.ErrNilMatrix)

	_, err = ops.SolveMatrix(mustDense(t, 2, 2, 1, 0, 0, 1), mustDense(t, 3, 1, 1, 2, 3))
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}
