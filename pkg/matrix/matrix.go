package matrix

import (
	"fmt"
	"strings"

	"github.com/edp1096/sparse"
)

// CircuitMatrix is a real modified nodal analysis system A x = b.
type CircuitMatrix struct {
	Size     int
	matrix   *sparse.Matrix
	rhs      []float64
	solution []float64
}

func NewMatrix(size int) (*CircuitMatrix, error) {
	config := &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}

	return &CircuitMatrix{
		Size:     size,
		matrix:   mat,
		rhs:      make([]float64, size+1), // 1-based indexing
		solution: make([]float64, size+1),
	}, nil
}

// SetupElements allocates every element of the pattern so that
// factorization never has to grow the matrix.
func (m *CircuitMatrix) SetupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *CircuitMatrix) inRange(i int) bool { return i > 0 && i <= m.Size }

func (m *CircuitMatrix) AddElement(i, j int, value float64) {
	if !m.inRange(i) || !m.inRange(j) {
		return
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
}

func (m *CircuitMatrix) AddRHS(i int, value float64) {
	if !m.inRange(i) {
		return
	}
	m.rhs[i] += value
}

// LoadGmin adds gmin to every diagonal element.
func (m *CircuitMatrix) LoadGmin(gmin float64) {
	if gmin == 0 {
		return
	}
	for i := 1; i <= m.Size; i++ {
		if diag := m.matrix.Diags[i]; diag != nil {
			diag.Real += gmin
		}
	}
}

func (m *CircuitMatrix) Clear() {
	m.matrix.Clear()
	for i := range m.rhs {
		m.rhs[i] = 0
	}
}

func (m *CircuitMatrix) Solve() error {
	if err := m.matrix.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %w", err)
	}
	solution, err := m.matrix.Solve(m.rhs)
	if err != nil {
		return fmt.Errorf("matrix solve failed: %w", err)
	}
	m.solution = solution
	return nil
}

// Solution is x, 1-based. Index 0 is ground.
func (m *CircuitMatrix) Solution() []float64 { return m.solution }

func (m *CircuitMatrix) RHS() []float64 { return m.rhs }

// String writes the equations row by row, skipping zero coefficients.
func (m *CircuitMatrix) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Circuit equations (%dx%d):\n", m.Size, m.Size)
	for i := 1; i <= m.Size; i++ {
		fmt.Fprintf(&b, "%3d:", i)
		for j := 1; j <= m.Size; j++ {
			if v := m.matrix.GetElement(int64(i), int64(j)).Real; v != 0 {
				fmt.Fprintf(&b, " %+g*x%d", v, j)
			}
		}
		fmt.Fprintf(&b, " = %g\n", m.rhs[i])
	}
	return b.String()
}

func (m *CircuitMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
