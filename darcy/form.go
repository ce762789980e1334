package darcy

import (
	"errors"

	"github.com/notargets/gohybrid/fes"
	"github.com/notargets/gohybrid/mesh"
	"github.com/notargets/gohybrid/utils"
)

// DarcyForm owns the mixed saddle-point system
//
//	[ M_u  B^T ] [u]   [f]
//	[ B    M_p ] [p] = [g]
//
// over a broken flux space and a discontinuous potential space. With
// hybridization enabled the element unknowns are condensed onto face traces;
// without it the form finalizes into a global sparse block operator, scaled
// by the symmetrization sign.
type DarcyForm struct {
	msh  mesh.Mesh
	fesU *fes.Space
	fesP *fes.Space
	bsym bool

	fluxMass  ElementIntegrator
	fluxDiv   ElementIntegrator
	potMass   ElementIntegrator
	potMassNL NonlinearElementIntegrator

	potFace    PotConstraintIntegrator
	potFaceNL  NonlinearPotConstraintIntegrator
	bdrPot     []PotConstraintIntegrator
	bdrPotMk   []BdrMarker
	bdrFlux    []FluxConstraintIntegrator
	bdrFluxMk  []BdrMarker

	hyb     *DarcyHybridization
	blockOp *BlockOperator

	// global accumulators of the non-hybridized path
	muDOK, mpDOK, bDOK, btDOK utils.DOK
}

func NewDarcyForm(m mesh.Mesh, fesU, fesP *fes.Space, bsymmetrize bool) (df *DarcyForm) {
	df = &DarcyForm{
		msh:  m,
		fesU: fesU,
		fesP: fesP,
		bsym: bsymmetrize,
	}
	return
}

// Offsets positions the flux and potential blocks in a stacked vector.
func (df *DarcyForm) Offsets() utils.Offsets {
	return utils.NewOffsets(utils.Index{df.fesU.VSize(), df.fesP.VSize()})
}

func (df *DarcyForm) Height() int { return df.fesU.VSize() + df.fesP.VSize() }
func (df *DarcyForm) Width() int  { return df.Height() }

func (df *DarcyForm) SetFluxMassIntegrator(integ ElementIntegrator) { df.fluxMass = integ }
func (df *DarcyForm) SetFluxDivIntegrator(integ ElementIntegrator)  { df.fluxDiv = integ }
func (df *DarcyForm) SetPotMassIntegrator(integ ElementIntegrator)  { df.potMass = integ }

func (df *DarcyForm) SetPotMassNonlinearIntegrator(integ NonlinearElementIntegrator) {
	df.potMassNL = integ
}

// AddPotFaceIntegrator registers the HDG potential face term; it becomes the
// potential constraint when hybridization is enabled.
func (df *DarcyForm) AddPotFaceIntegrator(integ PotConstraintIntegrator) {
	df.potFace = integ
}

// AddPotFaceNonlinearIntegrator registers the nonlinear HDG potential face
// term.
func (df *DarcyForm) AddPotFaceNonlinearIntegrator(integ NonlinearPotConstraintIntegrator) {
	df.potFaceNL = integ
}

func (df *DarcyForm) AddBdrPotFaceIntegrator(integ PotConstraintIntegrator, marker BdrMarker) {
	df.bdrPot = append(df.bdrPot, integ)
	df.bdrPotMk = append(df.bdrPotMk, marker)
}

func (df *DarcyForm) AddBdrFluxConstraintIntegrator(integ FluxConstraintIntegrator, marker BdrMarker) {
	df.bdrFlux = append(df.bdrFlux, integ)
	df.bdrFluxMk = append(df.bdrFluxMk, marker)
}

// Hybridization exposes the condensation engine, nil until
// EnableHybridization.
func (df *DarcyForm) Hybridization() *DarcyHybridization { return df.hyb }

// EnableHybridization wires the registered face terms into a
// DarcyHybridization over the given trace space and sizes its internal
// state from the essential flux dofs.
func (df *DarcyForm) EnableHybridization(fesC *fes.FaceSpace,
	cFlux FluxConstraintIntegrator, essFluxDofs utils.Index) (err error) {
	if df.fluxMass == nil {
		return errors.New("flux mass integrator must be set before hybridization")
	}
	h := NewDarcyHybridization(df.msh, df.fesU, df.fesP, fesC, df.bsym)

	if df.potFaceNL != nil {
		h.SetNonlinearConstraintIntegrators(cFlux, df.potFaceNL)
	} else {
		if err = h.SetConstraintIntegrators(cFlux, df.potFace); err != nil {
			return
		}
	}
	if df.potMassNL != nil {
		if err = h.SetPotMassNonlinearIntegrator(df.potMassNL); err != nil {
			return
		}
	}
	for i, integ := range df.bdrFlux {
		h.AddBdrFluxConstraintIntegrator(integ, df.bdrFluxMk[i])
	}
	for i, integ := range df.bdrPot {
		h.AddBdrPotConstraintIntegrator(integ, df.bdrPotMk[i])
	}

	if err = h.Init(essFluxDofs); err != nil {
		return
	}
	df.hyb = h
	return
}

// Assemble runs the elementwise integrations, scattering into the
// hybridization when enabled and into the global block accumulators
// otherwise.
func (df *DarcyForm) Assemble() (err error) {
	var (
		NE = df.fesU.NumElements()
	)
	if df.hyb == nil && df.muDOK.IsEmpty() {
		df.muDOK = utils.NewDOK(df.fesU.VSize(), df.fesU.VSize())
		df.mpDOK = utils.NewDOK(df.fesP.VSize(), df.fesP.VSize())
		df.bDOK = utils.NewDOK(df.fesP.VSize(), df.fesU.VSize())
		df.btDOK = utils.NewDOK(df.fesU.VSize(), df.fesP.VSize())
	}

	if df.fluxMass != nil {
		for el := 0; el < NE; el++ {
			elmat := df.fluxMass.AssembleElementMatrix(el)
			if df.hyb != nil {
				df.hyb.AssembleFluxMassMatrix(el, elmat)
			} else {
				udofs := df.fesU.ElementDofs(el)
				df.muDOK.AddSubMatrix(udofs, udofs, elmat)
			}
		}
	}

	if df.fluxDiv != nil {
		for el := 0; el < NE; el++ {
			elmat := df.fluxDiv.AssembleElementMatrix(el)
			if df.hyb != nil {
				df.hyb.AssembleDivMatrix(el, elmat)
			} else {
				udofs := df.fesU.ElementDofs(el)
				pdofs := df.fesP.ElementDofs(el)
				df.bDOK.AddSubMatrix(pdofs, udofs, elmat)
				df.btDOK.AddSubMatrix(udofs, pdofs, elmat.Transpose())
			}
		}
	}

	if df.potMass != nil {
		for el := 0; el < NE; el++ {
			elmat := df.potMass.AssembleElementMatrix(el)
			if df.hyb != nil {
				if err = df.hyb.AssemblePotMassMatrix(el, elmat); err != nil {
					return
				}
			} else {
				pdofs := df.fesP.ElementDofs(el)
				df.mpDOK.AddSubMatrix(pdofs, pdofs, elmat)
			}
		}
	}

	if df.hyb != nil && df.potFace != nil {
		if err = df.assemblePotHDGFaces(); err != nil {
			return
		}
	}
	return
}

// assemblePotHDGFaces sweeps the interior faces and the marked boundary
// elements with the HDG potential constraint.
func (df *DarcyForm) assemblePotHDGFaces() (err error) {
	var (
		NF = df.msh.NumFaces()
	)
	for f := 0; f < NF; f++ {
		if !mesh.IsInteriorFace(df.msh, f) {
			continue
		}
		if err = df.hyb.ComputeAndAssemblePotFaceMatrix(f); err != nil {
			return
		}
	}
	if len(df.bdrPot) > 0 {
		markers := unionMarkers(df.bdrPotMk, df.msh.MaxBdrAttribute())
		for be := 0; be < df.msh.NumBdrElements(); be++ {
			if !markers.Active(df.msh.BdrAttribute(be)) {
				continue
			}
			if err = df.hyb.ComputeAndAssemblePotBdrFaceMatrix(be); err != nil {
				return
			}
		}
	}
	return
}

// Finalize compresses the assembled system: the reduced trace operator on
// the hybridized path, the signed sparse block operator otherwise.
func (df *DarcyForm) Finalize() (err error) {
	if df.hyb != nil {
		return df.hyb.Finalize()
	}
	sign := df.opScale()
	df.blockOp = &BlockOperator{
		Offsets: df.Offsets(),
		SignMp:  sign,
		SignB:   sign,
	}
	if !df.muDOK.IsEmpty() {
		df.blockOp.Mu = df.muDOK.ToCSR()
	}
	if !df.mpDOK.IsEmpty() {
		df.blockOp.Mp = df.mpDOK.ToCSR()
	}
	if !df.bDOK.IsEmpty() {
		df.blockOp.B = df.bDOK.ToCSR()
		df.blockOp.Bt = df.btDOK.ToCSR()
	}
	return
}

// opScale is the off-diagonal and potential-block scaling of the
// uncondensed operator; the symmetrized convention flips it.
func (df *DarcyForm) opScale() float64 {
	if df.bsym {
		return -1
	}
	return +1
}

// BlockOp exposes the finalized non-hybridized operator, nil before
// Finalize or when hybridization is enabled.
func (df *DarcyForm) BlockOp() *BlockOperator { return df.blockOp }

// FormLinearSystem eliminates the essential flux dofs from the block RHS
// and reduces it onto the trace dofs, producing the initial trace iterate
// and the reduced right hand side. Hybridized path only.
func (df *DarcyForm) FormLinearSystem(essFluxDofs utils.Index, x, b BlockVector) (
	X, B utils.Vector, err error) {
	if df.hyb == nil {
		err = errors.New("linear system reduction requires hybridization")
		return
	}
	if err = df.hyb.Finalize(); err != nil {
		return
	}
	df.hyb.EliminateVDofsInRHS(essFluxDofs, x, b)
	B = utils.NewVector(df.hyb.Height())
	if err = df.hyb.ReduceRHS(b, B); err != nil {
		return
	}
	X = utils.NewVector(df.hyb.Height())
	return
}

// RecoverFEMSolution expands the solved trace values back to the flux and
// potential blocks.
func (df *DarcyForm) RecoverFEMSolution(X utils.Vector, b, x BlockVector) error {
	if df.hyb == nil {
		return errors.New("solution recovery requires hybridization")
	}
	return df.hyb.ComputeSolution(b, X, x)
}

// Update drops the assembled data while keeping integrators and sizing, so
// the form can be re-assembled (e.g. after coefficient changes).
func (df *DarcyForm) Update() {
	if df.hyb != nil {
		df.hyb.Reset()
	}
	df.muDOK = utils.DOK{}
	df.mpDOK = utils.DOK{}
	df.bDOK = utils.DOK{}
	df.btDOK = utils.DOK{}
	df.blockOp = nil
}

// BlockOperator is the uncondensed sparse saddle-point operator
//
//	[ Mu        SignB*Bt ]
//	[ SignB*B  SignMp*Mp ]
//
// used by the non-hybridized path and by tests to verify recovered
// solutions against the full system.
type BlockOperator struct {
	Mu, Mp, B, Bt utils.CSR
	SignMp, SignB float64
	Offsets       utils.Offsets
}

// Mult computes y = Op x over stacked block vectors.
func (op *BlockOperator) Mult(x, y BlockVector) {
	var (
		x0, x1 = x.Block(0), x.Block(1)
		y0, y1 = y.Block(0), y.Block(1)
	)
	y0.Zero()
	y1.Zero()
	t0 := utils.NewVector(y0.Len())
	t1 := utils.NewVector(y1.Len())
	if !op.Mu.IsEmpty() {
		op.Mu.MulVec(x0, t0)
		y0.Add(t0)
	}
	if !op.Bt.IsEmpty() {
		op.Bt.MulVec(x1, t0)
		y0.Add(t0.Scale(op.SignB))
		op.B.MulVec(x0, t1)
		y1.Add(t1.Scale(op.SignB))
	}
	if !op.Mp.IsEmpty() {
		op.Mp.MulVec(x1, t1)
		y1.Add(t1.Scale(op.SignMp))
	}
}
