package darcy

import (
	"github.com/notargets/gohybrid/utils"
)

// Finalize factorizes the per-element blocks and, in the linear regime,
// assembles the reduced sparse operator over the trace dofs. Idempotent
// until Reset.
func (h *DarcyHybridization) Finalize() (err error) {
	if h.bfin {
		return
	}
	if h.bnl {
		err = h.invertA()
	} else {
		err = h.computeH()
	}
	if err != nil {
		return
	}
	h.bfin = true
	return
}

// luA aliases the LU storage of the free flux block of element el.
func (h *DarcyHybridization) luA(el int) utils.LUFactors {
	n := h.afFOffsets.Count(el)
	return utils.NewLUFactors(n,
		h.afData[h.afOffsets.Start(el):h.afOffsets.Start(el+1)],
		h.afIpiv[h.afFOffsets.Start(el):h.afFOffsets.Start(el+1)])
}

// luS aliases the LU storage of the potential Schur complement of element
// el. Valid only in the linear regime after computeH.
func (h *DarcyHybridization) luS(el int) utils.LUFactors {
	n := h.fesP.DofCount(el)
	return utils.NewLUFactors(n,
		h.dfData[h.dfOffsets.Start(el):h.dfOffsets.Start(el+1)],
		h.dfIpiv[h.dfFOffsets.Start(el):h.dfFOffsets.Start(el+1)])
}

// invertA factorizes the flux blocks only. The nonlinear regime defers the
// potential elimination to the per-element local solves.
func (h *DarcyHybridization) invertA() (err error) {
	pm := utils.NewPartitionMap(0, h.fesU.NumElements())
	return pm.RunParallel(func(np, elMin, elMax int) error {
		for el := elMin; el < elMax; el++ {
			luA := h.luA(el)
			if ferr := luA.Factor(); ferr != nil {
				return &SingularBlockError{Elem: el, Block: "A", Size: luA.N}
			}
		}
		return nil
	})
}

// computeH eliminates the element unknowns and assembles
//
//	H_l = -Ct_2^T A^-1 Ct_1 + (Ct_2^T A^-1 B^T + G) S^-1 (B A^-1 Ct_1 - E)
//
// over every face pair of every element, S being the potential Schur
// complement D + B (sign A^-1 B^T). Elements are swept in parallel with one
// sparse accumulator per partition; the partitions are merged in index
// order afterwards so the result does not depend on goroutine scheduling.
func (h *DarcyHybridization) computeH() (err error) {
	var (
		NE  = h.fesU.NumElements()
		pm  = utils.NewPartitionMap(0, NE)
		dok = make([]utils.DOK, pm.ParallelDegree)
	)
	err = pm.RunParallel(func(np, elMin, elMax int) error {
		dok[np] = utils.NewDOK(h.Height(), h.Width())
		for el := elMin; el < elMax; el++ {
			if lerr := h.condenseElement(el, dok[np]); lerr != nil {
				return lerr
			}
		}
		return nil
	})
	if err != nil {
		return
	}
	for _, d := range dok {
		h.hDOK.Merge(d)
	}
	h.H = h.hDOK.ToCSR()
	return
}

func (h *DarcyHybridization) condenseElement(el int, dok utils.DOK) (err error) {
	var (
		B   = h.getBfMatrix(el)
		D   = h.getDfMatrix(el)
		luA = h.luA(el)
	)
	if ferr := luA.Factor(); ferr != nil {
		return &SingularBlockError{Elem: el, Block: "A", Size: luA.N}
	}

	// Schur complement, factored in place of D
	AiBt := B.Transpose()
	if !h.bsym {
		AiBt.Neg()
	}
	luA.SolveMatrix(AiBt)
	D.AddMult(B, AiBt)

	luS := h.luS(el)
	if ferr := luS.Factor(); ferr != nil {
		return &SingularBlockError{Elem: el, Block: "S", Size: luS.N}
	}

	faces := h.msh.ElementFaces(el)
	for _, f1 := range faces {
		c1 := h.fesC.DofCount(f1)
		if c1 == 0 {
			continue
		}
		Ct1 := h.ctElemBlock(f1, el)

		AiCt := Ct1.Copy()
		luA.SolveMatrix(AiCt)

		BAiCt := B.Mul(AiCt)
		if h.cPotInteg != nil {
			BAiCt.Subtract(h.eElemBlock(f1, el))
		}
		luS.SolveMatrix(BAiCt)

		cdofs1 := h.fesC.FaceDofs(f1)
		for _, f2 := range faces {
			c2 := h.fesC.DofCount(f2)
			if c2 == 0 {
				continue
			}
			Ct2 := h.ctElemBlock(f2, el)

			Hl := utils.MulAtB(Ct2, AiCt).Neg()

			CAiBt := utils.MulAtB(Ct2, AiBt)
			if h.cPotInteg != nil {
				CAiBt.Add(h.gElemBlock(f2, el))
			}
			Hl.AddMult(CAiBt, BAiCt)

			dok.AddSubMatrix(h.fesC.FaceDofs(f2), cdofs1, Hl)
		}
	}
	return
}
