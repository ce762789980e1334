package darcy

import (
	"github.com/notargets/gohybrid/mesh"
	"github.com/notargets/gohybrid/utils"
)

// multInv applies the inverse of one element's saddle-point block to the
// local right hand side (bu, bp), using the LU factors of A and of the
// Schur complement prepared by Finalize.
func (h *DarcyHybridization) multInv(el int, bu, bp utils.Vector) (u, p utils.Vector) {
	var (
		luA = h.luA(el)
		luS = h.luS(el)
		B   = h.getBfMatrix(el)
	)

	// u = A^-1 bu
	u = bu.Copy()
	luA.SolveVec(u)

	// p = -S^-1 (B A^-1 bu - bp)
	p = B.MulVec(u)
	p.Sub(bp)
	luS.SolveVec(p)
	p.Neg()

	// u -+= A^-1 B^T S^-1 (B A^-1 bu - bp)
	t := B.MulTransVec(p)
	luA.SolveVec(t)
	if h.bsym {
		u.Add(t)
	} else {
		u.Sub(t)
	}
	return
}

// ReduceRHS folds the block right hand side onto the trace dofs. In the
// nonlinear regime the block RHS is stored instead and the reduced RHS is
// zero; the stored blocks enter through the matrix-free Mult.
func (h *DarcyHybridization) ReduceRHS(b BlockVector, bR utils.Vector) error {
	if h.bnl {
		if h.darcyRHS.V.V == nil {
			h.darcyRHS = NewBlockVector(h.fesU.VSize(), h.fesP.VSize())
		}
		h.darcyRHS.V.SetFrom(b.V)
		h.haveRHS = true
		bR.Zero()
		return nil
	}
	if !h.bfin {
		return ErrNotFinalized
	}
	var (
		NE  = h.fesU.NumElements()
		bu  = b.Block(0)
		bp  = b.Block(1)
		pm  = utils.NewPartitionMap(0, NE)
		acc = make([]utils.Vector, pm.ParallelDegree)
	)
	bR.Zero()
	// Trace dofs are shared between elements, so each partition folds into
	// its own accumulator; the partitions are summed in index order after
	// the join.
	err := pm.RunParallel(func(np, elMin, elMax int) error {
		acc[np] = utils.NewVector(bR.Len())
		for el := elMin; el < elMax; el++ {
			fdofs := h.GetFDofs(el)
			buL := bu.SubVector(fdofs)

			pdofs := h.fesP.ElementDofs(el)
			bpL := bp.SubVector(pdofs)
			if h.bsym {
				// the symmetrized system carries the opposite sign here
				bpL.Neg()
			}

			uL, pL := h.multInv(el, buL, bpL)
			uL.Neg()
			pL.Neg()

			// b_r += C u + G p
			for _, f := range h.msh.ElementFaces(el) {
				if h.fesC.DofCount(f) == 0 {
					continue
				}
				Ct := h.ctElemBlock(f, el)
				bRL := Ct.MulTransVec(uL)
				if h.cPotInteg != nil {
					h.gElemBlock(f, el).AddMulVec(1, pL, bRL)
				}
				acc[np].AddElementVector(h.fesC.FaceDofs(f), bRL)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, a := range acc {
		bR.Add(a)
	}
	return nil
}

// ComputeSolution recovers the flux and potential blocks from the solved
// trace values.
func (h *DarcyHybridization) ComputeSolution(b BlockVector, solR utils.Vector,
	sol BlockVector) error {
	if !h.bfin {
		return ErrNotFinalized
	}
	if h.bnl {
		return h.multNL(1, b, solR, sol.V)
	}
	var (
		NE = h.fesU.NumElements()
		bu = b.Block(0)
		bp = b.Block(1)
		u  = sol.Block(0)
		p  = sol.Block(1)
		pm = utils.NewPartitionMap(0, NE)
	)
	// Both unknown spaces are broken, so the element scatters are disjoint
	// and the partitions can write concurrently.
	return pm.RunParallel(func(np, elMin, elMax int) error {
		for el := elMin; el < elMax; el++ {
			fdofs := h.GetFDofs(el)
			buL := bu.SubVector(fdofs)

			pdofs := h.fesP.ElementDofs(el)
			bpL := bp.SubVector(pdofs)
			if h.bsym {
				bpL.Neg()
			}

			// bu - C^T sol, bp - E sol
			for _, f := range h.msh.ElementFaces(el) {
				if h.fesC.DofCount(f) == 0 {
					continue
				}
				solRL := solR.SubVector(h.fesC.FaceDofs(f))
				Ct := h.ctElemBlock(f, el)
				Ct.AddMulVec(-1, solRL, buL)
				if h.cPotInteg != nil {
					h.eElemBlock(f, el).AddMulVec(-1, solRL, bpL)
				}
			}

			uL, pL := h.multInv(el, buL, bpL)
			u.SetSubVector(fdofs, uL)
			p.SetSubVector(pdofs, pL)
		}
		return nil
	})
}

// Mult applies the reduced operator to trace values: the assembled sparse
// matrix in the linear regime, the element-by-element nonlinear action
// otherwise.
func (h *DarcyHybridization) Mult(x, y utils.Vector) error {
	if !h.bfin {
		return ErrNotFinalized
	}
	if !h.bnl {
		h.H.MulVec(x, y)
		return nil
	}
	if !h.haveRHS {
		return ErrNoReducedRHS
	}
	return h.multNL(0, h.darcyRHS, x, y)
}

// EliminateVDofsInRHS moves the contribution of prescribed flux values to
// the right hand side, using the essential couplings Ae and Be saved during
// assembly, then overwrites the prescribed entries of bu with the values
// themselves.
func (h *DarcyHybridization) EliminateVDofsInRHS(vdofsFlux utils.Index, x, b BlockVector) {
	var (
		NE = h.fesU.NumElements()
		xu = x.Block(0)
		bu = b.Block(0)
		bp = b.Block(1)
	)
	for el := 0; el < NE; el++ {
		edofs := h.GetEDofs(el)
		if len(edofs) == 0 {
			continue
		}
		uE := xu.SubVector(edofs).Neg()

		// bu -= A_e u_e
		buE := h.getAeMatrix(el).MulVec(uE)
		bu.AddElementVector(h.fesU.ElementDofs(el), buE)

		// bp -= B_e u_e
		bpE := h.getBeMatrix(el).MulVec(uE)
		if h.bsym {
			bpE.Neg()
		}
		bp.AddElementVector(h.fesP.ElementDofs(el), bpE)
	}

	for _, vdof := range vdofsFlux {
		bu.Set(vdof, xu.AtVec(vdof))
	}
}

// multNL walks the elements, solves each local nonlinear system for the
// given trace values x, and either folds the local solutions back onto the
// trace dofs (mode 0, the operator action) or scatters them into the block
// solution (mode 1, solution recovery).
func (h *DarcyHybridization) multNL(mode int, b BlockVector, x, y utils.Vector) error {
	var (
		NE  = h.fesU.NumElements()
		bu  = b.Block(0)
		bp  = b.Block(1)
		pm  = utils.NewPartitionMap(0, NE)
		acc []utils.Vector
		yb  BlockVector
	)
	if mode == 1 {
		yb = NewBlockVectorFrom(y, h.fesU.VSize(), h.fesP.VSize())
	} else {
		y.Zero()
		acc = make([]utils.Vector, pm.ParallelDegree)
	}

	err := pm.RunParallel(func(np, elMin, elMax int) error {
		if mode == 0 {
			acc[np] = utils.NewVector(y.Len())
		}
		for el := elMin; el < elMax; el++ {
			fdofs := h.GetFDofs(el)
			buL := bu.SubVector(fdofs)

			pdofs := h.fesP.ElementDofs(el)
			bpL := bp.SubVector(pdofs)
			if h.bsym {
				bpL.Neg()
			}

			// bu - C^T x; bp - E x is folded into the local operator
			faces := h.msh.ElementFaces(el)
			for _, f := range faces {
				if h.fesC.DofCount(f) == 0 {
					continue
				}
				xL := x.SubVector(h.fesC.FaceDofs(f))
				h.ctElemBlock(f, el).AddMulVec(-1, xL, buL)
			}

			uL, pL, lerr := h.multInvNL(el, buL, bpL, x)
			if lerr != nil {
				return lerr
			}

			if mode == 1 {
				// broken spaces, disjoint scatter
				yb.Block(0).SetSubVector(fdofs, uL)
				yb.Block(1).SetSubVector(pdofs, pL)
				continue
			}

			// y += C u (+ G p + H x on nonlinearly constrained faces)
			for _, f := range faces {
				if h.fesC.DofCount(f) == 0 {
					continue
				}
				cdofs := h.fesC.FaceDofs(f)
				yL := h.ctElemBlock(f, el).MulTransVec(uL)
				el1, el2 := h.msh.FaceElements(f)
				if h.cPotNL != nil && el2 != mesh.NoElement {
					xL := x.SubVector(cdofs)
					yL.Add(h.cPotNL.TraceFaceVector(f, el, el != el1, xL, pL))
				}
				acc[np].AddElementVector(cdofs, yL)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if mode == 0 {
		for _, a := range acc {
			y.Add(a)
		}
	}
	return nil
}
