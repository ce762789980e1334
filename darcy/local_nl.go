package darcy

import (
	"fmt"

	"github.com/notargets/gohybrid/mesh"
	"github.com/notargets/gohybrid/utils"
)

// LocalNLOperator is the action of one element's potential residual
//
//	p -> B A^-1 (bu + sign B^T p) + D_nl(p) + (E x terms)
//
// for fixed trace values x and local flux RHS bu. The fixed-point local
// solve iterates it, and SolveU back-substitutes the flux once the
// potential has settled.
type LocalNLOperator struct {
	h     *DarcyHybridization
	el    int
	x     utils.Vector // global trace values
	bu    utils.Vector // bu - C^T x, gathered on the free dofs
	luA   utils.LUFactors
	B     utils.Matrix
	faces []int
}

func (h *DarcyHybridization) newLocalNLOperator(el int, x, bu utils.Vector) (lop *LocalNLOperator) {
	lop = &LocalNLOperator{
		h:     h,
		el:    el,
		x:     x,
		bu:    bu,
		luA:   h.luA(el),
		B:     h.getBfMatrix(el),
		faces: h.msh.ElementFaces(el),
	}
	return
}

// SolveU back-substitutes the flux for a given local potential iterate.
func (lop *LocalNLOperator) SolveU(p utils.Vector) (u utils.Vector) {
	u = lop.bu.Copy()

	// bu - C^T x + sign B^T p
	lop.B.AddMulTransVec(lop.h.blockSign(), p, u)

	// u = A^-1 ru
	lop.luA.SolveVec(u)
	return
}

// Mult evaluates the local potential residual operator at p.
func (lop *LocalNLOperator) Mult(p utils.Vector) (bp utils.Vector) {
	var (
		h = lop.h
	)
	u := lop.SolveU(p)

	// bp = B u
	bp = lop.B.MulVec(u)

	// bp += D_nl(p)
	if h.mPotNL != nil {
		bp.Add(h.mPotNL.AssembleElementVector(lop.el, p))
	}

	// bp += D(p) + E x, facewise
	if h.cPotNL != nil {
		for _, f := range lop.faces {
			el1, el2 := h.msh.FaceElements(f)
			if el2 == mesh.NoElement || h.fesC.DofCount(f) == 0 {
				continue
			}
			xL := lop.x.SubVector(h.fesC.FaceDofs(f))
			bp.Add(h.cPotNL.ElementFaceVector(f, lop.el, lop.el != el1, xL, p))
		}
	}
	return
}

// multInvNL runs the per-element fixed-point iteration
//
//	p <- p + (bp - T(p))
//
// until the residual drops below the relative tolerance, then recovers the
// flux. Non-convergence is an error in Strict mode and a logged continue in
// BestEffort mode.
func (h *DarcyHybridization) multInvNL(el int, bu, bp utils.Vector,
	x utils.Vector) (u, p utils.Vector, err error) {
	var (
		lop     = h.newLocalNLOperator(el, x, bu)
		normRef = bp.Norm2()
		normP   float64
	)
	p = utils.NewVector(bp.Len())

	tol := LocalSolveRTol * normRef
	if normRef == 0 {
		tol = LocalSolveATol
	}

	converged := false
	var it int
	for it = 0; it < MaxLocalIterations; it++ {
		rp := bp.Copy()
		rp.Sub(lop.Mult(p))

		p.Add(rp)

		normP = rp.Norm2()
		if normP <= tol {
			converged = true
			break
		}
	}
	if !converged {
		ratio := normP
		if normRef != 0 {
			ratio = normP / normRef
		}
		ncErr := &NonConvergenceError{Elem: el, Iters: it, ResidualRatio: ratio}
		if h.SolveMode == Strict {
			err = ncErr
			return
		}
		fmt.Fprintf(h.Log, "%v\n", ncErr)
	}

	u = lop.SolveU(p)
	return
}
