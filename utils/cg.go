package utils

import (
	"fmt"
)

// LinearOperator is anything that can apply itself to a vector; the
// assembled CSR matrix and matrix-free condensed operators both qualify.
type LinearOperator interface {
	MulVec(x, y Vector)
}

// ConjugateGradient solves M x = b for a symmetric positive definite
// operator, overwriting x (whose incoming value is the initial guess).
// Returns the iteration count taken to reach the relative residual tolerance.
func ConjugateGradient(M LinearOperator, b, x Vector, tol float64, maxIter int) (iters int, err error) {
	var (
		n = b.Len()
		r = NewVector(n)
		p = NewVector(n)
		q = NewVector(n)
	)
	M.MulVec(x, r)
	r.Neg().Add(b)
	p.SetFrom(r)

	normRef := b.Norm2()
	if normRef == 0 {
		x.Zero()
		return
	}

	rho := r.Dot(r)
	for iters = 0; iters < maxIter; iters++ {
		if r.Norm2() <= tol*normRef {
			return
		}
		M.MulVec(p, q)
		pq := p.Dot(q)
		if pq <= 0 {
			err = fmt.Errorf("operator is not positive definite: p·Mp = %g at iteration %d", pq, iters)
			return
		}
		alpha := rho / pq
		for i, pv := range p.Data() {
			x.Data()[i] += alpha * pv
			r.Data()[i] -= alpha * q.Data()[i]
		}
		rhoNew := r.Dot(r)
		beta := rhoNew / rho
		for i, rv := range r.Data() {
			p.Data()[i] = rv + beta*p.Data()[i]
		}
		rho = rhoNew
	}
	err = fmt.Errorf("no convergence after %d iterations, residual %g", maxIter, r.Norm2()/normRef)
	return
}
