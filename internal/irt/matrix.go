package irt

import "math"

// Matrix is a dense students × items grid of numbers, indexed [student][item].
type Matrix [][]float64

// Mask is a dense students × items grid of flags, indexed [student][item].
type Mask [][]bool

// NewMatrix allocates a zeroed rows × cols matrix.
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// NewMask allocates a rows × cols mask with every entry set to fill.
func NewMask(rows, cols int, fill bool) Mask {
	m := make(Mask, rows)
	for i := range m {
		m[i] = make([]bool, cols)
		if fill {
			for j := range m[i] {
				m[i][j] = true
			}
		}
	}
	return m
}

// Clone returns a deep copy of m.
func (m Mask) Clone() Mask {
	out := make(Mask, len(m))
	for i := range m {
		out[i] = append([]bool(nil), m[i]...)
	}
	return out
}

func checkMatrix(field string, m Matrix, rows, cols int) error {
	if len(m) != rows {
		return shapeError(field, "got %d rows, want %d", len(m), rows)
	}
	for i, row := range m {
		if len(row) != cols {
			return shapeError(field, "row %d has %d columns, want %d", i, len(row), cols)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return valueError(field, "entry [%d][%d] is %v", i, j, v)
			}
		}
	}
	return nil
}

func checkMask(field string, m Mask, rows, cols int) error {
	if len(m) != rows {
		return shapeError(field, "got %d rows, want %d", len(m), rows)
	}
	for i, row := range m {
		if len(row) != cols {
			return shapeError(field, "row %d has %d columns, want %d", i, len(row), cols)
		}
	}
	return nil
}

func checkFinite(field string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return valueError(field, "entry %d is %v", i, v)
		}
	}
	return nil
}
