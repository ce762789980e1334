package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConjugateGradient(t *testing.T) {
	// SPD tridiagonal system, checked against the direct solve
	{
		n := 10
		d := NewDOK(n, n)
		for i := 0; i < n; i++ {
			d.Set(i, i, 2)
			if i > 0 {
				d.Set(i, i-1, -1)
				d.Set(i-1, i, -1)
			}
		}
		M := d.ToCSR()
		b := NewVector(n)
		for i := 0; i < n; i++ {
			b.Set(i, float64(i+1))
		}
		x := NewVector(n)
		iters, err := ConjugateGradient(M, b, x, 1e-12, 200)
		assert.NoError(t, err)
		assert.LessOrEqual(t, iters, n+1)

		r := NewVector(n)
		M.MulVec(x, r)
		assert.InDelta(t, 0, r.Sub(b).Norm2(), 1e-10*b.Norm2())
	}
	// An indefinite operator is rejected
	{
		d := NewDOK(2, 2)
		d.Set(0, 0, 1)
		d.Set(1, 1, -1)
		M := d.ToCSR()
		b := NewVector(2, []float64{1, 1})
		x := NewVector(2)
		_, err := ConjugateGradient(M, b, x, 1e-12, 50)
		assert.Error(t, err)
	}
	// Zero right hand side returns immediately
	{
		d := NewDOK(2, 2)
		d.Set(0, 0, 1)
		d.Set(1, 1, 1)
		b := NewVector(2)
		x := NewVector(2)
		iters, err := ConjugateGradient(d.ToCSR(), b, x, 1e-12, 50)
		assert.NoError(t, err)
		assert.Equal(t, iters, 0)
		assert.Equal(t, x.Data(), []float64{0, 0})
	}
}
