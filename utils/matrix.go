package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a lightweight value wrapper over a gonum dense matrix. The zero
// value is empty; matrices constructed over a caller supplied slice alias
// that storage, which is how elementwise blocks view their arena.
type Matrix struct {
	M *mat.Dense
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{m}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)          { return m.M.Dims() }
func (m Matrix) At(i, j int) float64       { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix             { return m.M.T() }
func (m Matrix) RawMatrix() blas64.General { return m.M.RawMatrix() }

func (m Matrix) IsEmpty() bool { return m.M == nil }

func (m Matrix) Data() []float64 {
	return m.RawMatrix().Data
}

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.M.Set(i, j, val)
	return m
}

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
		dataR  = make([]float64, nr*nc)
	)
	copy(dataR, m.Data())
	R = NewMatrix(nr, nc, dataR)
	return
}

func (m Matrix) SetFrom(A Matrix) Matrix { // Changes receiver
	var (
		dataM = m.Data()
		dataA = A.Data()
	)
	if len(dataM) != len(dataA) {
		panic(fmt.Errorf("incompatible sizes: %v vs %v", len(dataM), len(dataA)))
	}
	copy(dataM, dataA)
	return m
}

func (m Matrix) Transpose() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nc, nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.M.Set(j, i, m.M.At(i, j))
		}
	}
	return
}

func (m Matrix) Add(A Matrix) Matrix { // Changes receiver
	var (
		dataM = m.Data()
		dataA = A.Data()
	)
	if len(dataM) != len(dataA) {
		panic(fmt.Errorf("incompatible sizes: %v vs %v", len(dataM), len(dataA)))
	}
	for i, val := range dataA {
		dataM[i] += val
	}
	return m
}

func (m Matrix) Subtract(A Matrix) Matrix { // Changes receiver
	var (
		dataM = m.Data()
		dataA = A.Data()
	)
	for i, val := range dataA {
		dataM[i] -= val
	}
	return m
}

func (m Matrix) Neg() Matrix { // Changes receiver
	var (
		data = m.Data()
	)
	for i := range data {
		data[i] = -data[i]
	}
	return m
}

func (m Matrix) Scale(a float64) Matrix { // Changes receiver
	var (
		data = m.Data()
	)
	for i := range data {
		data[i] *= a
	}
	return m
}

func (m Matrix) Zero() Matrix { // Changes receiver
	var (
		data = m.Data()
	)
	for i := range data {
		data[i] = 0
	}
	return m
}

func (m Matrix) Mul(A Matrix) (R Matrix) { // Does not change receiver
	var (
		nrM, _ = m.Dims()
		_, ncA = A.Dims()
	)
	R = NewMatrix(nrM, ncA)
	R.M.Mul(m.M, A.M)
	return
}

// AddMult accumulates m += A*B without allocating.
func (m Matrix) AddMult(A, B Matrix) Matrix { // Changes receiver
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, A.RawMatrix(), B.RawMatrix(), 1, m.RawMatrix())
	return m
}

// MulAtB forms Aᵗ*B as a new matrix.
func MulAtB(A, B Matrix) (R Matrix) {
	var (
		_, ncA = A.Dims()
		_, ncB = B.Dims()
	)
	R = NewMatrix(ncA, ncB)
	blas64.Gemm(blas.Trans, blas.NoTrans, 1, A.RawMatrix(), B.RawMatrix(), 0, R.RawMatrix())
	return
}

// MulVec computes m*x as a new vector.
func (m Matrix) MulVec(x Vector) (R Vector) {
	var (
		nr, _ = m.Dims()
	)
	R = NewVector(nr)
	blas64.Gemv(blas.NoTrans, 1, m.RawMatrix(), x.RawVector(), 0, R.RawVector())
	return
}

// AddMulVec accumulates y += alpha*m*x.
func (m Matrix) AddMulVec(alpha float64, x, y Vector) {
	blas64.Gemv(blas.NoTrans, alpha, m.RawMatrix(), x.RawVector(), 1, y.RawVector())
}

// MulTransVec computes mᵗ*x as a new vector.
func (m Matrix) MulTransVec(x Vector) (R Vector) {
	var (
		_, nc = m.Dims()
	)
	R = NewVector(nc)
	blas64.Gemv(blas.Trans, 1, m.RawMatrix(), x.RawVector(), 0, R.RawVector())
	return
}

// AddMulTransVec accumulates y += alpha*mᵗ*x.
func (m Matrix) AddMulTransVec(alpha float64, x, y Vector) {
	blas64.Gemv(blas.Trans, alpha, m.RawMatrix(), x.RawVector(), 1, y.RawVector())
}

func (m Matrix) MaxAbs() (max float64) {
	var (
		data = m.Data()
	)
	for _, val := range data {
		if val < 0 {
			val = -val
		}
		if val > max {
			max = val
		}
	}
	return
}

// Threshold zeroes entries with magnitude at or below tol.
func (m Matrix) Threshold(tol float64) Matrix { // Changes receiver
	var (
		data = m.Data()
	)
	for i, val := range data {
		if val <= tol && val >= -tol {
			data[i] = 0
		}
	}
	return m
}

// Slice extracts rows [I,K) and columns [J,L) into a new matrix.
func (m Matrix) Slice(I, K, J, L int) (R Matrix) { // Does not change receiver
	var (
		nrR = K - I
		ncR = L - J
	)
	R = NewMatrix(nrR, ncR)
	for i := 0; i < nrR; i++ {
		for j := 0; j < ncR; j++ {
			R.M.Set(i, j, m.M.At(i+I, j+J))
		}
	}
	return
}

func (m Matrix) Print(msgI ...string) (out string) {
	var (
		name = ""
	)
	if len(msgI) != 0 {
		name = msgI[0]
	}
	formatString := "%s = \n%8.5f\n"
	out = fmt.Sprintf(formatString, name, mat.Formatted(m.M, mat.Squeeze()))
	return
}
