package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
)

// LUFactors is an in-place LU factorization with partial pivoting over
// caller owned storage. Factor overwrites Data with the combined L\U factors
// so the same arena slice serves both the assembled block and its
// factorization, which is how the per-element blocks are treated during
// static condensation.
type LUFactors struct {
	Data []float64 // n x n, row-major, overwritten by Factor
	Ipiv []int     // length n pivot indices
	N    int
}

func NewLUFactors(n int, data []float64, ipiv []int) (lu LUFactors) {
	if len(data) < n*n || len(ipiv) < n {
		panic(fmt.Errorf("insufficient storage for LU of size %d", n))
	}
	lu = LUFactors{
		Data: data[:n*n],
		Ipiv: ipiv[:n],
		N:    n,
	}
	return
}

func (lu LUFactors) general() blas64.General {
	return blas64.General{
		Rows:   lu.N,
		Cols:   lu.N,
		Stride: lu.N,
		Data:   lu.Data,
	}
}

// Factor computes the pivoted LU decomposition in place. A singular block is
// reported as an error, not recovered.
func (lu LUFactors) Factor() (err error) {
	if lu.N == 0 {
		return
	}
	if ok := lapack64.Getrf(lu.general(), lu.Ipiv); !ok {
		err = fmt.Errorf("singular block of size %d", lu.N)
	}
	return
}

// Solve overwrites the n x nrhs row-major matrix b with A⁻¹ b.
func (lu LUFactors) Solve(nrhs int, b []float64) {
	if lu.N == 0 || nrhs == 0 {
		return
	}
	if len(b) < lu.N*nrhs {
		panic(fmt.Errorf("rhs storage too small: need %d, have %d", lu.N*nrhs, len(b)))
	}
	B := blas64.General{
		Rows:   lu.N,
		Cols:   nrhs,
		Stride: nrhs,
		Data:   b[:lu.N*nrhs],
	}
	lapack64.Getrs(blas.NoTrans, lu.general(), B, lu.Ipiv)
}

// SolveVec overwrites b with A⁻¹ b for a single right hand side.
func (lu LUFactors) SolveVec(b Vector) {
	lu.Solve(1, b.Data())
}

// SolveMatrix overwrites B with A⁻¹ B.
func (lu LUFactors) SolveMatrix(B Matrix) {
	var (
		nr, nc = B.Dims()
	)
	if nr != lu.N {
		panic(fmt.Errorf("incompatible sizes: LU n = %d, B rows = %d", lu.N, nr))
	}
	lu.Solve(nc, B.Data())
}

// GetInverse materializes A⁻¹ as a new matrix.
func (lu LUFactors) GetInverse() (R Matrix) {
	R = NewMatrix(lu.N, lu.N)
	data := R.Data()
	for i := 0; i < lu.N; i++ {
		data[i*lu.N+i] = 1
	}
	lu.Solve(lu.N, data)
	return
}
