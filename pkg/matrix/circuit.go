// Package matrix wraps github.com/edp1096/sparse with the small stamping
// surface the device package needs: 1-based node/branch indices, additive
// real and complex element/RHS updates, and a gmin-loading helper used by
// the Newton-Raphson convergence ladder.
package matrix

import (
	"errors"
	"fmt"

	"github.com/edp1096/sparse"
)

// ErrSingularMatrix is returned by Solve when LU factorization finds a
// pivot below the library's tolerance.
var ErrSingularMatrix = errors.New("singular matrix")

// CircuitMatrix is the MNA system A*x=b for one assembled snapshot:
// node-voltage rows first, then the extra-variable (branch current) rows.
type CircuitMatrix struct {
	Size         int
	matrix       *sparse.Matrix
	rhs          []float64
	rhsImag      []float64
	solution     []float64
	solutionImag []float64
	config       *sparse.Configuration
}

// NewMatrix allocates a system of the given unknown count. isComplex
// selects the complex variant used for AC and phase sweeps.
func NewMatrix(size int, isComplex bool) *CircuitMatrix {
	config := &sparse.Configuration{
		Real:           true,
		Complex:        isComplex,
		Expandable:     true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil
	}

	vectorSize := size + 1 // 1-based indexing
	vectorSizeImag := size + 1
	if isComplex {
		vectorSize *= 2
		vectorSizeImag = 1
	}

	m := &CircuitMatrix{
		Size:         size,
		matrix:       mat,
		rhs:          make([]float64, vectorSize),
		rhsImag:      make([]float64, vectorSizeImag),
		solution:     make([]float64, vectorSize),
		solutionImag: make([]float64, vectorSizeImag),
		config:       config,
	}
	m.setupElements()
	return m
}

// setupElements pre-touches every (i,j) pair so later AddElement calls
// never trigger sparse-matrix growth mid-stamp.
func (m *CircuitMatrix) setupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *CircuitMatrix) AddElement(i, j int, value float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
}

func (m *CircuitMatrix) AddComplexElement(i, j int, real, imag float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return
	}
	element := m.matrix.GetElement(int64(i), int64(j))
	element.Real += real
	element.Imag += imag
}

func (m *CircuitMatrix) AddRHS(i int, value float64) {
	if i <= 0 || i > m.Size {
		return
	}
	m.rhs[i] += value
}

func (m *CircuitMatrix) AddComplexRHS(i int, real, imag float64) {
	if i <= 0 || i > m.Size {
		return
	}
	m.rhs[2*i] += real
	m.rhs[2*i+1] += imag
}

// LoadGmin adds a small conductance to every diagonal node row, the
// Disconnected-circuit regularization fallback.
func (m *CircuitMatrix) LoadGmin(gmin float64) {
	if gmin == 0 {
		return
	}
	for i := 1; i <= m.Size; i++ {
		if diag := m.getDiagElement(i); diag != nil {
			diag.Real += gmin
		}
	}
}

func (m *CircuitMatrix) getDiagElement(i int) *sparse.Element {
	if i <= 0 || i > m.Size {
		return nil
	}
	return m.matrix.Diags[i]
}

func (m *CircuitMatrix) Clear() {
	m.matrix.Clear()
	for i := range m.rhs {
		m.rhs[i] = 0
	}
	for i := range m.rhsImag {
		m.rhsImag[i] = 0
	}
}

// Solve factors and solves A*x=b (or its complex variant), leaving the
// result in Solution/GetComplexSolution. Returns ErrSingularMatrix when
// the factorization hits a zero pivot within the library's tolerance.
func (m *CircuitMatrix) Solve() error {
	if err := m.matrix.Factor(); err != nil {
		return fmt.Errorf("%w: %v", ErrSingularMatrix, err)
	}

	var err error
	if m.config.Complex {
		m.solution, m.solutionImag, err = m.matrix.SolveComplex(m.rhs, m.rhsImag)
	} else {
		m.solution, err = m.matrix.Solve(m.rhs)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSingularMatrix, err)
	}
	return nil
}

func (m *CircuitMatrix) RHS() []float64 {
	return m.rhs
}

func (m *CircuitMatrix) Solution() []float64 {
	return m.solution
}

// GetComplexSolution returns the real/imaginary parts of unknown i after
// an AC solve.
func (m *CircuitMatrix) GetComplexSolution(i int) (float64, float64) {
	if !m.config.Complex || i <= 0 || i > m.Size {
		return 0, 0
	}
	return m.solution[i], m.solution[i+m.Size]
}

func (m *CircuitMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
