package utils

import (
	"fmt"
	"math"
)

// MINRES solves M x = b for a symmetric, possibly indefinite operator,
// overwriting x (whose incoming value is the initial guess). Returns the
// iteration count taken to reach the relative residual tolerance.
func MINRES(M LinearOperator, b, x Vector, tol float64, maxIter int) (iters int, err error) {
	var (
		n     = b.Len()
		r     = NewVector(n)
		v     = NewVector(n)
		vPrev = NewVector(n)
		vNext = NewVector(n)
		w     = NewVector(n)
		wPrev = NewVector(n)
		wNext = NewVector(n)
	)
	M.MulVec(x, r)
	r.Neg().Add(b)

	normRef := b.Norm2()
	if normRef == 0 {
		x.Zero()
		return
	}

	beta := r.Norm2()
	if beta <= tol*normRef {
		return
	}
	v.SetFrom(r).Scale(1 / beta)

	var (
		eta             = beta
		gamma, gammaOld = 1., 1.
		sigma, sigmaOld = 0., 0.
	)
	for iters = 1; iters <= maxIter; iters++ {
		// Lanczos step
		M.MulVec(v, vNext)
		alpha := v.Dot(vNext)
		vNext.Sub(v.Copy().Scale(alpha)).Sub(vPrev.Copy().Scale(beta))
		betaNext := vNext.Norm2()

		// previous Givens rotations applied to the new tridiagonal column
		delta := gamma*alpha - gammaOld*sigma*beta
		rho1 := delta*delta + betaNext*betaNext
		if rho1 == 0 {
			err = fmt.Errorf("breakdown at iteration %d", iters)
			return
		}
		rho1 = math.Sqrt(rho1)
		rho2 := sigma*alpha + gammaOld*gamma*beta
		rho3 := sigmaOld * beta

		gammaOld, gamma = gamma, delta/rho1
		sigmaOld, sigma = sigma, betaNext/rho1

		wNext.SetFrom(v).Sub(wPrev.Copy().Scale(rho3)).Sub(w.Copy().Scale(rho2)).Scale(1 / rho1)
		x.Add(wNext.Copy().Scale(gamma * eta))
		eta = -sigma * eta

		if math.Abs(eta) <= tol*normRef {
			return
		}
		if betaNext == 0 {
			// Krylov space exhausted; the iterate is exact
			return
		}
		vPrev.SetFrom(v)
		v.SetFrom(vNext).Scale(1 / betaNext)
		beta = betaNext
		wPrev.SetFrom(w)
		w.SetFrom(wNext)
	}
	err = fmt.Errorf("no convergence after %d iterations, residual %g", maxIter, math.Abs(eta)/normRef)
	return
}
