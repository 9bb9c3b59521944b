// SPDX-License-Identifier: MIT

// Package matrix - Dense storage (row-major) & safe accessors.
//
// Purpose:
//   - Provide a cache-friendly row-major buffer with the explicit index formula i*cols + j.
//   - Guarantee safety at the public surface: At/Set return errors instead of panicking.
//   - Keep algorithmic determinism (fixed loop orders, no map iteration).
//   - Enforce a numeric policy (rejection of NaN/Inf in Set) from a single source of truth.
//
// Complexity quicksheet:
//   - NewDense: O(r*c) zero-init; At/Set: O(1); Clone: O(r*c); Row: O(c).

package matrix

import (
	"fmt"
	"math"
	"strings"
)

// DefaultValidateNaNInf is the numeric policy applied by every Dense constructor.
// Normal-equation matrices must stay finite; a NaN there means a broken model.
const DefaultValidateNaNInf = true

// ---------- error context tags ----------

const (
	ctxAt   = "At"  // method tag used in error wrappers
	ctxSet  = "Set" // method tag used in error wrappers
	ctxRow  = "Row" // method tag used in error wrappers
	ctxFrom = "NewDenseFrom"
)

// ---------- Formatting literals  ----------
const (
	_fmtRowOpen  = "["
	_fmtRowClose = "]\n"
	_fmtSep      = ", "
)

// denseErrorf wraps an error with a uniform Dense context and callsite indices.
//
// Implementation:
//   - Stage 1: format "Dense.<method>(row,col): %w".
//
// Notes:
//   - Keep tags in constants for grep-ability and consistency.
func denseErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Dense.%s(%d,%d): %w", method, row, col, err)
}

// Dense is a concrete row-major matrix.
//   - r,c hold dimensions (rows, cols).
//   - data is a flat buffer of length r*c in row-major order (offset = i*c + j).
//   - validateNaNInf enables NaN/Inf rejection in Set.
type Dense struct {
	r, c           int       // row and column counts (>0)
	data           []float64 // contiguous row-major storage (len == r*c)
	validateNaNInf bool      // numeric guard: reject NaN/Inf in Set when true
}

// Compile-time assertions for interface & fmt.Stringer conformance.
var (
	_ Matrix       = (*Dense)(nil)
	_ fmt.Stringer = (*Dense)(nil)
)

// NewDense creates an r×c zero matrix using row-major storage.
// MAIN DESCRIPTION:
//   - Public constructor for Dense with strict shape validation and default numeric policy.
//
// Implementation:
//   - Stage 1: validate rows>0 && cols>0; else ErrInvalidDimensions.
//   - Stage 2: allocate zero-filled buffer and initialize policy.
//
// Errors:
//   - ErrInvalidDimensions (shape contract violation).
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	// make() zero-fills deterministically.
	buf := make([]float64, rows*cols)

	return &Dense{
		r:              rows,
		c:              cols,
		data:           buf,
		validateNaNInf: DefaultValidateNaNInf,
	}, nil
}

// NewDenseFrom creates an r×c matrix holding a COPY of data (row-major).
//
// Implementation:
//   - Stage 1: validate shape and len(data) == rows*cols.
//   - Stage 2: validate every value against the numeric policy.
//   - Stage 3: copy into a fresh buffer; the caller keeps ownership of data.
//
// Errors:
//   - ErrInvalidDimensions, ErrDimensionMismatch (length), ErrNaNInf.
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func NewDenseFrom(rows, cols int, data []float64) (*Dense, error) {
	d, err := NewDense(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ctxFrom, err)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%s: len %d for %dx%d: %w", ctxFrom, len(data), rows, cols, ErrDimensionMismatch)
	}
	for k, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, denseErrorf(ctxFrom, k/cols, k%cols, ErrNaNInf)
		}
	}
	copy(d.data, data)

	return d, nil
}

// NewDenseFromRows builds a Dense from a rectangular [][]float64 (copied).
// Errors: ErrInvalidDimensions (empty), ErrDimensionMismatch (ragged), ErrNaNInf.
func NewDenseFromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%s: %w", ctxFrom, ErrInvalidDimensions)
	}
	r, c := len(rows), len(rows[0])
	flat := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("%s: row %d has %d cols, want %d: %w", ctxFrom, i, len(row), c, ErrDimensionMismatch)
		}
		flat = append(flat, row...)
	}

	return NewDenseFrom(r, c, flat)
}

// NewIdentity returns the n×n identity matrix.
// Errors: ErrInvalidDimensions when n <= 0.
func NewIdentity(n int) (*Dense, error) {
	d, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		d.data[i*n+i] = 1
	}

	return d, nil
}

// NewDiagonal returns a square matrix with diag on its main diagonal.
// Errors: ErrInvalidDimensions (empty diag), ErrNaNInf.
func NewDiagonal(diag []float64) (*Dense, error) {
	n := len(diag)
	d, err := NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i, v := range diag {
		if err = d.Set(i, i, v); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Rows returns the number of rows.
func (m *Dense) Rows() int { return m.r }

// Cols returns the number of columns.
func (m *Dense) Cols() int { return m.c }

// Shape returns (rows, cols).
func (m *Dense) Shape() (int, int) { return m.r, m.c }

// indexOf bounds-checks (i,j) and returns the flat offset.
func (m *Dense) indexOf(i, j int) (int, bool) {
	if i < 0 || i >= m.r || j < 0 || j >= m.c {
		return 0, false
	}

	return i*m.c + j, true
}

// At returns the element at (i,j).
// Errors: ErrOutOfRange.
// Complexity: O(1).
func (m *Dense) At(i, j int) (float64, error) {
	off, ok := m.indexOf(i, j)
	if !ok {
		return 0, denseErrorf(ctxAt, i, j, ErrOutOfRange)
	}

	return m.data[off], nil
}

// Set assigns v at (i,j).
// Implementation:
//   - Stage 1: bounds check (ErrOutOfRange).
//   - Stage 2: numeric policy (ErrNaNInf) when validateNaNInf is on.
//   - Stage 3: write.
//
// Complexity: O(1).
func (m *Dense) Set(i, j int, v float64) error {
	off, ok := m.indexOf(i, j)
	if !ok {
		return denseErrorf(ctxSet, i, j, ErrOutOfRange)
	}
	if m.validateNaNInf && (math.IsNaN(v) || math.IsInf(v, 0)) {
		return denseErrorf(ctxSet, i, j, ErrNaNInf)
	}
	m.data[off] = v

	return nil
}

// Row returns a copy of row i.
// Errors: ErrOutOfRange.
func (m *Dense) Row(i int) ([]float64, error) {
	if i < 0 || i >= m.r {
		return nil, denseErrorf(ctxRow, i, 0, ErrOutOfRange)
	}
	out := make([]float64, m.c)
	copy(out, m.data[i*m.c:(i+1)*m.c])

	return out, nil
}

// Clone returns a deep copy with identical shape and policy.
// Complexity: O(r*c).
func (m *Dense) Clone() Matrix {
	buf := make([]float64, len(m.data))
	copy(buf, m.data)

	return &Dense{r: m.r, c: m.c, data: buf, validateNaNInf: m.validateNaNInf}
}

// String renders the matrix row by row, e.g. "[1, 2]\n[3, 4]\n".
func (m *Dense) String() string {
	var sb strings.Builder
	for i := 0; i < m.r; i++ {
		sb.WriteString(_fmtRowOpen)
		for j := 0; j < m.c; j++ {
			if j > 0 {
				sb.WriteString(_fmtSep)
			}
			fmt.Fprintf(&sb, "%g", m.data[i*m.c+j])
		}
		sb.WriteString(_fmtRowClose)
	}

	return sb.String()
}

// ToRows materializes any Matrix into a fresh [][]float64 (row-major copy).
// Solvers use it as their scratch workspace so inputs are never mutated.
//
// Errors: ErrNilMatrix, plus any At failure of a foreign implementation.
// Complexity: O(r*c).
func ToRows(m Matrix) ([][]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, err
	}
	r, c := m.Rows(), m.Cols()
	out := make([][]float64, r)
	if d, ok := m.(*Dense); ok {
		for i := 0; i < r; i++ {
			out[i] = make([]float64, c)
			copy(out[i], d.data[i*c:(i+1)*c])
		}

		return out, nil
	}
	var (
		v   float64
		err error
	)
	for i := 0; i < r; i++ {
		out[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			if v, err = m.At(i, j); err != nil {
				return nil, err
			}
			out[i][j] = v
		}
	}

	return out, nil
}
