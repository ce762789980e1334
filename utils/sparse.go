package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// DOK is a mutable sparse accumulator used while scattering elementwise
// blocks into a global operator. Finalize with ToCSR.
type DOK struct {
	M *sparse.DOK
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{sparse.NewDOK(nr, nc)}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix      { return m.M.T() }

func (m DOK) IsEmpty() bool { return m.M == nil }

func (m DOK) Set(i, j int, val float64) { m.M.Set(i, j, val) }

func (m DOK) Accumulate(i, j int, val float64) {
	if val == 0 {
		return
	}
	m.M.Set(i, j, m.M.At(i, j)+val)
}

// AddSubMatrix scatter-adds the dense block A into the rows/columns listed
// in RI/CI. Zero entries are skipped so lazily discovered sparsity is kept.
func (m DOK) AddSubMatrix(RI, CI Index, A Matrix) {
	var (
		nr, nc = A.Dims()
	)
	if nr != len(RI) || nc != len(CI) {
		panic(fmt.Errorf("incompatible sizes: block %dx%d, indices %dx%d", nr, nc, len(RI), len(CI)))
	}
	for i, ri := range RI {
		for j, ci := range CI {
			m.Accumulate(ri, ci, A.At(i, j))
		}
	}
}

// Merge accumulates all nonzeros of a into m. Used to combine per-partition
// accumulators after a parallel assembly pass.
func (m DOK) Merge(a DOK) {
	a.M.DoNonZero(func(i, j int, v float64) {
		m.Accumulate(i, j, v)
	})
}

func (m DOK) ToCSR() CSR {
	return CSR{m.M.ToCSR()}
}

// CSR is the compressed, finalized form of the global operator.
type CSR struct {
	M *sparse.CSR
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)    { return m.M.Dims() }
func (m CSR) At(i, j int) float64 { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix      { return m.M.T() }

func (m CSR) IsEmpty() bool { return m.M == nil }

func (m CSR) NNZ() int { return m.M.NNZ() }

// MulVec computes y = M x.
func (m CSR) MulVec(x, y Vector) {
	var (
		nr, nc = m.Dims()
	)
	if x.Len() != nc || y.Len() != nr {
		panic(fmt.Errorf("incompatible sizes: operator %dx%d, x %d, y %d", nr, nc, x.Len(), y.Len()))
	}
	var (
		xd = x.Data()
		yd = y.Data()
	)
	for i := range yd {
		yd[i] = 0
	}
	m.M.DoNonZero(func(i, j int, v float64) {
		yd[i] += v * xd[j]
	})
}

// ToDense materializes the operator as a dense matrix. Intended for small
// reduced systems and tests.
func (m CSR) ToDense() (R Matrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nr, nc)
	m.M.DoNonZero(func(i, j int, v float64) {
		R.M.Set(i, j, v)
	})
	return
}
