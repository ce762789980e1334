package darcy

import (
	"fmt"

	"github.com/notargets/gohybrid/mesh"
	"github.com/notargets/gohybrid/utils"
)

// buildConstraints assembles the per-face constraint blocks Ct. Each face
// arena holds the free (non-essential) hat rows of element 1 followed by
// those of element 2, columns spanning the trace dofs of the face. Hat dofs
// whose constraint row survives thresholding are re-marked from free to
// boundary, which is what confines the remaining free dofs to the local
// elimination.
func (h *DarcyHybridization) buildConstraints() (err error) {
	if h.cFluxInteg == nil {
		return ErrNoConstraintIntegrator
	}
	var (
		NF = h.msh.NumFaces()
	)
	ctCounts := make(utils.Index, NF)
	for f := 0; f < NF; f++ {
		el1, el2 := h.msh.FaceElements(f)
		fSize := h.afFOffsets.Count(el1)
		if el2 != mesh.NoElement {
			fSize += h.afFOffsets.Count(el2)
		}
		ctCounts[f] = fSize * h.fesC.DofCount(f)
	}
	h.ctOffsets = utils.NewOffsets(ctCounts)
	h.ctData = make([]float64, h.ctOffsets.Total())

	for f := 0; f < NF; f++ {
		el1, el2 := h.msh.FaceElements(f)
		if el2 == mesh.NoElement || h.fesC.DofCount(f) == 0 {
			continue
		}
		elmat := h.cFluxInteg.AssembleFaceMatrix(f, el1, el2)
		elmat.Threshold(constraintTol * elmat.MaxAbs())
		h.assembleCtFaceMatrix(f, el1, el2, elmat)
	}

	// Boundary constraint contributions come in through attribute-marked
	// integrators only.
	if len(h.bdrFluxIntegs) > 0 {
		markers := unionMarkers(h.bdrFluxMarkers, h.msh.MaxBdrAttribute())
		for be := 0; be < h.msh.NumBdrElements(); be++ {
			attr := h.msh.BdrAttribute(be)
			if !markers.Active(attr) {
				continue
			}
			f := h.msh.BdrFace(be)
			el1, _ := h.msh.FaceElements(f)
			if h.fesC.DofCount(f) == 0 {
				continue
			}
			for k, integ := range h.bdrFluxIntegs {
				if !h.bdrFluxMarkers[k].Active(attr) {
					continue
				}
				elmat := integ.AssembleFaceMatrix(f, el1, mesh.NoElement)
				elmat.Threshold(constraintTol * elmat.MaxAbs())
				h.assembleCtFaceMatrix(f, el1, mesh.NoElement, elmat)
			}
		}
	}
	return
}

// assembleCtFaceMatrix scatters one face constraint matrix, whose rows span
// all hat dofs of the adjacent elements, into the free-row Ct arena.
func (h *DarcyHybridization) assembleCtFaceMatrix(f, el1, el2 int, elmat utils.Matrix) {
	var (
		nd1 = h.hatOffsets.Count(el1)
		nd2 = 0
		c   = h.fesC.DofCount(f)
	)
	if el2 != mesh.NoElement {
		nd2 = h.hatOffsets.Count(el2)
	}
	nr, nc := elmat.Dims()
	if nr != nd1+nd2 || nc != c {
		panic(fmt.Errorf("constraint block %dx%d on face %d, expected %dx%d",
			nr, nc, f, nd1+nd2, c))
	}
	Ct1, Ct2 := h.ctFaceBlocks(f)
	h.assembleCtSubMatrix(el1, elmat, Ct1, 0)
	if el2 != mesh.NoElement {
		h.assembleCtSubMatrix(el2, elmat, Ct2, nd1)
	}
}

// assembleCtSubMatrix copies the non-essential rows of elmat belonging to
// element el into its Ct block, starting at elmat row ioff. Nonzero rows
// promote their hat dof to the boundary class.
func (h *DarcyHybridization) assembleCtSubMatrix(el int, elmat, Ct utils.Matrix, ioff int) {
	var (
		o    = h.hatOffsets.Start(el)
		s    = h.hatOffsets.Count(el)
		_, c = Ct.Dims()
	)
	row := 0
	for i := 0; i < s; i++ {
		if h.hatDofsMarker[o+i] == DofEssential {
			continue
		}
		bzero := true
		for j := 0; j < c; j++ {
			val := elmat.At(i+ioff, j)
			if val == 0 {
				continue
			}
			Ct.Set(row, j, val)
			bzero = false
		}
		if !bzero {
			h.hatDofsMarker[o+i] = DofBoundary
		}
		row++
	}
}

// ctFaceBlocks aliases the Ct arena of face f as per-element views,
// free rows x trace dofs each. Ct2 is empty on a boundary face.
func (h *DarcyHybridization) ctFaceBlocks(f int) (Ct1, Ct2 utils.Matrix) {
	var (
		el1, el2 = h.msh.FaceElements(f)
		f1       = h.afFOffsets.Count(el1)
		c        = h.fesC.DofCount(f)
		o        = h.ctOffsets.Start(f)
	)
	Ct1 = utils.NewMatrix(f1, c, h.ctData[o:o+f1*c])
	if el2 != mesh.NoElement {
		f2 := h.afFOffsets.Count(el2)
		Ct2 = utils.NewMatrix(f2, c, h.ctData[o+f1*c:o+(f1+f2)*c])
	}
	return
}

// ctElemBlock selects the Ct view of element el on face f.
func (h *DarcyHybridization) ctElemBlock(f, el int) utils.Matrix {
	el1, _ := h.msh.FaceElements(f)
	Ct1, Ct2 := h.ctFaceBlocks(f)
	if el == el1 {
		return Ct1
	}
	return Ct2
}

// allocEG sizes the potential constraint arenas. E couples element
// potential dofs to the face trace, G is its test-side counterpart; their
// per-face extents coincide so one offset table serves both.
func (h *DarcyHybridization) allocEG() {
	var (
		NF = h.msh.NumFaces()
	)
	egCounts := make(utils.Index, NF)
	for f := 0; f < NF; f++ {
		el1, el2 := h.msh.FaceElements(f)
		nd := h.fesP.DofCount(el1)
		if el2 != mesh.NoElement {
			nd += h.fesP.DofCount(el2)
		}
		egCounts[f] = nd * h.fesC.DofCount(f)
	}
	h.egOffsets = utils.NewOffsets(egCounts)
	h.eData = make([]float64, h.egOffsets.Total())
	h.gData = make([]float64, h.egOffsets.Total())
}

// eFaceBlocks aliases the E arena of face f as per-element views,
// potential dofs x trace dofs each.
func (h *DarcyHybridization) eFaceBlocks(f int) (E1, E2 utils.Matrix) {
	var (
		el1, el2 = h.msh.FaceElements(f)
		d1       = h.fesP.DofCount(el1)
		c        = h.fesC.DofCount(f)
		o        = h.egOffsets.Start(f)
	)
	E1 = utils.NewMatrix(d1, c, h.eData[o:o+d1*c])
	if el2 != mesh.NoElement {
		d2 := h.fesP.DofCount(el2)
		E2 = utils.NewMatrix(d2, c, h.eData[o+d1*c:o+(d1+d2)*c])
	}
	return
}

// gFaceBlocks aliases the G arena of face f as per-element views,
// trace dofs x potential dofs each.
func (h *DarcyHybridization) gFaceBlocks(f int) (G1, G2 utils.Matrix) {
	var (
		el1, el2 = h.msh.FaceElements(f)
		d1       = h.fesP.DofCount(el1)
		c        = h.fesC.DofCount(f)
		o        = h.egOffsets.Start(f)
	)
	G1 = utils.NewMatrix(c, d1, h.gData[o:o+d1*c])
	if el2 != mesh.NoElement {
		d2 := h.fesP.DofCount(el2)
		G2 = utils.NewMatrix(c, d2, h.gData[o+d1*c:o+(d1+d2)*c])
	}
	return
}

// eElemBlock selects the E view of element el on face f.
func (h *DarcyHybridization) eElemBlock(f, el int) utils.Matrix {
	el1, _ := h.msh.FaceElements(f)
	E1, E2 := h.eFaceBlocks(f)
	if el == el1 {
		return E1
	}
	return E2
}

// gElemBlock selects the G view of element el on face f.
func (h *DarcyHybridization) gElemBlock(f, el int) utils.Matrix {
	el1, _ := h.msh.FaceElements(f)
	G1, G2 := h.gFaceBlocks(f)
	if el == el1 {
		return G1
	}
	return G2
}

// getAfMatrix aliases the (possibly factored) free flux block of element el.
func (h *DarcyHybridization) getAfMatrix(el int) utils.Matrix {
	n := h.afFOffsets.Count(el)
	return utils.NewMatrix(n, n, h.afData[h.afOffsets.Start(el):h.afOffsets.Start(el+1)])
}

// getBfMatrix aliases the divergence block of element el, potential rows x
// free flux columns.
func (h *DarcyHybridization) getBfMatrix(el int) utils.Matrix {
	var (
		fSize = h.afFOffsets.Count(el)
		dSize = h.fesP.DofCount(el)
	)
	return utils.NewMatrix(dSize, fSize, h.bfData[h.bfOffsets.Start(el):h.bfOffsets.Start(el+1)])
}

// getDfMatrix aliases the potential block of element el; after Finalize it
// holds the factored Schur complement.
func (h *DarcyHybridization) getDfMatrix(el int) utils.Matrix {
	n := h.fesP.DofCount(el)
	return utils.NewMatrix(n, n, h.dfData[h.dfOffsets.Start(el):h.dfOffsets.Start(el+1)])
}

// getAeMatrix aliases the essential flux coupling of element el, all hat
// rows x essential columns.
func (h *DarcyHybridization) getAeMatrix(el int) utils.Matrix {
	var (
		aSize = h.hatOffsets.Count(el)
		eSize = aSize - h.afFOffsets.Count(el)
	)
	return utils.NewMatrix(aSize, eSize, h.aeData[h.aeOffsets.Start(el):h.aeOffsets.Start(el+1)])
}

// getBeMatrix aliases the essential divergence coupling of element el.
func (h *DarcyHybridization) getBeMatrix(el int) utils.Matrix {
	var (
		dSize = h.fesP.DofCount(el)
		eSize = h.hatOffsets.Count(el) - h.afFOffsets.Count(el)
	)
	return utils.NewMatrix(dSize, eSize, h.beData[h.beOffsets.Start(el):h.beOffsets.Start(el+1)])
}

// AssembleFluxMassMatrix stores the elementwise flux mass matrix, split by
// the dof classes: the free x free part is assigned into Af, the columns of
// essential dofs into Ae. Assignment, not accumulation; each element is
// assembled once per cycle.
func (h *DarcyHybridization) AssembleFluxMassMatrix(el int, A utils.Matrix) {
	var (
		o  = h.hatOffsets.Start(el)
		s  = h.hatOffsets.Count(el)
		Af = h.getAfMatrix(el)
		Ae = h.getAeMatrix(el)
	)
	nr, nc := A.Dims()
	if nr != s || nc != s {
		panic(fmt.Errorf("flux mass block %dx%d on element %d, expected %dx%d", nr, nc, el, s, s))
	}
	jf, je := 0, 0
	for j := 0; j < s; j++ {
		if h.hatDofsMarker[o+j] == DofEssential {
			for i := 0; i < s; i++ {
				Ae.Set(i, je, A.At(i, j))
			}
			je++
			continue
		}
		iF := 0
		for i := 0; i < s; i++ {
			if h.hatDofsMarker[o+i] == DofEssential {
				continue
			}
			Af.Set(iF, jf, A.At(i, j))
			iF++
		}
		jf++
	}
}

// AssembleDivMatrix accumulates the elementwise divergence matrix
// (potential test rows, flux trial columns), split into Bf and Be by the
// column dof class.
func (h *DarcyHybridization) AssembleDivMatrix(el int, B utils.Matrix) {
	var (
		o  = h.hatOffsets.Start(el)
		s  = h.hatOffsets.Count(el)
		d  = h.fesP.DofCount(el)
		Bf = h.getBfMatrix(el)
		Be = h.getBeMatrix(el)
	)
	nr, nc := B.Dims()
	if nr != d || nc != s {
		panic(fmt.Errorf("div block %dx%d on element %d, expected %dx%d", nr, nc, el, d, s))
	}
	jf, je := 0, 0
	for j := 0; j < s; j++ {
		if h.hatDofsMarker[o+j] == DofEssential {
			for i := 0; i < d; i++ {
				Be.Set(i, je, Be.At(i, je)+B.At(i, j))
			}
			je++
			continue
		}
		for i := 0; i < d; i++ {
			Bf.Set(i, jf, Bf.At(i, jf)+B.At(i, j))
		}
		jf++
	}
}

// AssemblePotMassMatrix accumulates the elementwise potential matrix into
// Df. Only meaningful in the linear regime; with a nonlinear potential term
// the block is evaluated on the fly instead.
func (h *DarcyHybridization) AssemblePotMassMatrix(el int, D utils.Matrix) error {
	if h.dfData == nil {
		return fmt.Errorf("potential mass assembly in nonlinear regime: %w", ErrIncompatibleIntegrators)
	}
	Df := h.getDfMatrix(el)
	Df.Add(D)
	return nil
}

// ComputeAndAssemblePotFaceMatrix assembles the HDG face matrix of an
// interior face and scatters its blocks: the element diagonal parts into
// Df, the element/trace couplings into E and G, and the trace/trace part
// straight into the reduced operator accumulator.
func (h *DarcyHybridization) ComputeAndAssemblePotFaceMatrix(f int) error {
	if h.cPotInteg == nil {
		return ErrNoConstraintIntegrator
	}
	el1, el2 := h.msh.FaceElements(f)
	if el2 == mesh.NoElement {
		return fmt.Errorf("face %d is a boundary face", f)
	}
	var (
		d1 = h.fesP.DofCount(el1)
		d2 = h.fesP.DofCount(el2)
		c  = h.fesC.DofCount(f)
	)
	elmat := h.cPotInteg.AssembleHDGFaceMatrix(f, el1, el2)
	nr, nc := elmat.Dims()
	if nr != d1+d2+c || nc != nr {
		return fmt.Errorf("HDG face block %dx%d on face %d, expected %dx%d",
			nr, nc, f, d1+d2+c, d1+d2+c)
	}

	if err := h.AssemblePotMassMatrix(el1, elmat.Slice(0, d1, 0, d1)); err != nil {
		return err
	}
	if err := h.AssemblePotMassMatrix(el2, elmat.Slice(d1, d1+d2, d1, d1+d2)); err != nil {
		return err
	}

	E1, E2 := h.eFaceBlocks(f)
	E1.SetFrom(elmat.Slice(0, d1, d1+d2, d1+d2+c))
	E2.SetFrom(elmat.Slice(d1, d1+d2, d1+d2, d1+d2+c))
	G1, G2 := h.gFaceBlocks(f)
	G1.SetFrom(elmat.Slice(d1+d2, d1+d2+c, 0, d1))
	G2.SetFrom(elmat.Slice(d1+d2, d1+d2+c, d1, d1+d2))

	if c > 0 {
		cdofs := h.fesC.FaceDofs(f)
		h.hDOK.AddSubMatrix(cdofs, cdofs,
			elmat.Slice(d1+d2, d1+d2+c, d1+d2, d1+d2+c))
	}
	return nil
}

// ComputeAndAssemblePotBdrFaceMatrix does the same for one boundary
// element, summing the attribute-marked boundary integrators first.
func (h *DarcyHybridization) ComputeAndAssemblePotBdrFaceMatrix(be int) error {
	var (
		attr = h.msh.BdrAttribute(be)
		f    = h.msh.BdrFace(be)
	)
	el1, _ := h.msh.FaceElements(f)
	var (
		d1    = h.fesP.DofCount(el1)
		c     = h.fesC.DofCount(f)
		elmat utils.Matrix
	)
	for k, integ := range h.bdrPotIntegs {
		if !h.bdrPotMarkers[k].Active(attr) {
			continue
		}
		em := integ.AssembleHDGFaceMatrix(f, el1, mesh.NoElement)
		if elmat.IsEmpty() {
			elmat = em.Copy()
		} else {
			elmat.Add(em)
		}
	}
	if elmat.IsEmpty() {
		return nil
	}
	nr, nc := elmat.Dims()
	if nr != d1+c || nc != nr {
		return fmt.Errorf("HDG bdr face block %dx%d on face %d, expected %dx%d",
			nr, nc, f, d1+c, d1+c)
	}

	if err := h.AssemblePotMassMatrix(el1, elmat.Slice(0, d1, 0, d1)); err != nil {
		return err
	}
	E1, _ := h.eFaceBlocks(f)
	E1.SetFrom(elmat.Slice(0, d1, d1, d1+c))
	G1, _ := h.gFaceBlocks(f)
	G1.SetFrom(elmat.Slice(d1, d1+c, 0, d1))
	if c > 0 {
		cdofs := h.fesC.FaceDofs(f)
		h.hDOK.AddSubMatrix(cdofs, cdofs, elmat.Slice(d1, d1+c, d1, d1+c))
	}
	return nil
}
