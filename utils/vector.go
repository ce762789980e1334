package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V *mat.VecDense
}

func NewVector(n int, dataO ...[]float64) (R Vector) {
	if len(dataO) != 0 {
		if len(dataO[0]) != n {
			err := fmt.Errorf("mismatch in allocation: NewVector n = %v, len(data[0]) = %v", n, len(dataO[0]))
			panic(err)
		}
		R = Vector{mat.NewVecDense(n, dataO[0])}
	} else {
		R = Vector{mat.NewVecDense(n, make([]float64, n))}
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)         { return v.V.Dims() }
func (v Vector) At(i, j int) float64      { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix            { return v.V.T() }
func (v Vector) AtVec(i int) float64      { return v.V.AtVec(i) }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }
func (v Vector) Len() int                 { return v.V.Len() }

func (v Vector) Data() []float64 { return v.V.RawVector().Data }

// Chainable (extended) methods
func (v Vector) Set(i int, val float64) Vector { // Changes receiver
	v.V.SetVec(i, val)
	return v
}

func (v Vector) Copy() (R Vector) { // Does not change receiver
	var (
		n     = v.Len()
		dataR = make([]float64, n)
	)
	copy(dataR, v.Data())
	R = NewVector(n, dataR)
	return
}

func (v Vector) Zero() Vector { // Changes receiver
	var (
		data = v.Data()
	)
	for i := range data {
		data[i] = 0
	}
	return v
}

func (v Vector) Neg() Vector { // Changes receiver
	var (
		data = v.Data()
	)
	for i := range data {
		data[i] = -data[i]
	}
	return v
}

func (v Vector) Scale(a float64) Vector { // Changes receiver
	var (
		data = v.Data()
	)
	for i := range data {
		data[i] *= a
	}
	return v
}

func (v Vector) Add(a Vector) Vector { // Changes receiver
	var (
		data  = v.Data()
		dataA = a.Data()
	)
	for i, val := range dataA {
		data[i] += val
	}
	return v
}

func (v Vector) Sub(a Vector) Vector { // Changes receiver
	var (
		data  = v.Data()
		dataA = a.Data()
	)
	for i, val := range dataA {
		data[i] -= val
	}
	return v
}

func (v Vector) SetFrom(a Vector) Vector { // Changes receiver
	copy(v.Data(), a.Data())
	return v
}

func (v Vector) Norm2() (norm float64) {
	var (
		data = v.Data()
	)
	for _, val := range data {
		norm += val * val
	}
	norm = math.Sqrt(norm)
	return
}

func (v Vector) Dot(a Vector) (dot float64) {
	var (
		data  = v.Data()
		dataA = a.Data()
	)
	for i, val := range data {
		dot += val * dataA[i]
	}
	return
}

// SubVector gathers v at the listed indices into a new vector.
func (v Vector) SubVector(I Index) (R Vector) {
	var (
		data = v.Data()
	)
	R = NewVector(len(I))
	dataR := R.Data()
	for i, ind := range I {
		dataR[i] = data[ind]
	}
	return
}

// SetSubVector scatters a into v at the listed indices.
func (v Vector) SetSubVector(I Index, a Vector) Vector { // Changes receiver
	var (
		data  = v.Data()
		dataA = a.Data()
	)
	if len(I) != a.Len() {
		panic(fmt.Errorf("incompatible sizes: len(I) = %v, len(a) = %v", len(I), a.Len()))
	}
	for i, ind := range I {
		data[ind] = dataA[i]
	}
	return v
}

// AddElementVector scatter-adds a into v at the listed indices.
func (v Vector) AddElementVector(I Index, a Vector) Vector { // Changes receiver
	var (
		data  = v.Data()
		dataA = a.Data()
	)
	if len(I) != a.Len() {
		panic(fmt.Errorf("incompatible sizes: len(I) = %v, len(a) = %v", len(I), a.Len()))
	}
	for i, ind := range I {
		data[ind] += dataA[i]
	}
	return v
}

func (v Vector) Print(msgI ...string) (out string) {
	var (
		name = ""
	)
	if len(msgI) != 0 {
		name = msgI[0]
	}
	out = fmt.Sprintf("%s = %8.5f\n", name, v.Data())
	return
}
