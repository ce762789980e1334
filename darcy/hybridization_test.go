package darcy

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/gohybrid/fes"
	"github.com/notargets/gohybrid/mesh"
	"github.com/notargets/gohybrid/utils"
)

/*
Test integrators on a Cartesian quad mesh with one normal flux dof per
element face and one potential dof per element. The local blocks are small
enough that every condensation and reduction result below is checked
against values worked out by hand.
*/

type scaledIdentityMass struct {
	a float64
}

func (im *scaledIdentityMass) AssembleElementMatrix(el int) (A utils.Matrix) {
	A = utils.NewMatrix(4, 4)
	for i := 0; i < 4; i++ {
		A.Set(i, i, im.a)
	}
	return
}

type faceSumDiv struct{}

func (fd *faceSumDiv) AssembleElementMatrix(el int) (B utils.Matrix) {
	B = utils.NewMatrix(1, 4)
	for i := 0; i < 4; i++ {
		B.Set(0, i, 1)
	}
	return
}

type constPotMass struct {
	d float64
}

func (pm *constPotMass) AssembleElementMatrix(el int) (D utils.Matrix) {
	return utils.NewMatrix(1, 1).Set(0, 0, pm.d)
}

type cubicPotMass struct {
	d, gamma float64
}

func (pm *cubicPotMass) AssembleElementVector(el int, p utils.Vector) (d utils.Vector) {
	pv := p.AtVec(0)
	return utils.NewVector(1).Set(0, pm.d*(pv+pm.gamma*pv*pv*pv))
}

// hdgFacePot returns a zero (d1+d2+c) square HDG face block.
type hdgFacePot struct{}

func (hdgFacePot) AssembleHDGFaceMatrix(f, el1, el2 int) utils.Matrix {
	n := 2
	if el2 != mesh.NoElement {
		n = 3
	}
	return utils.NewMatrix(n, n)
}

// zeroPotConstraint is a nonlinear potential constraint whose face terms
// vanish identically.
type zeroPotConstraint struct{}

func (zeroPotConstraint) ElementFaceVector(f, el int, side2 bool, x, p utils.Vector) utils.Vector {
	return utils.NewVector(p.Len())
}

func (zeroPotConstraint) TraceFaceVector(f, el int, side2 bool, x, p utils.Vector) utils.Vector {
	return utils.NewVector(x.Len())
}

// normalTraceConstraint couples the outward normal fluxes of a face's
// neighbor elements to the shared trace dof with unit weight.
type normalTraceConstraint struct {
	m mesh.Mesh
}

func (ci *normalTraceConstraint) AssembleFaceMatrix(f, el1, el2 int) (Ct utils.Matrix) {
	nd := 4
	if el2 != mesh.NoElement {
		nd = 8
	}
	Ct = utils.NewMatrix(nd, 1)
	Ct.Set(localFace(ci.m, el1, f), 0, 1)
	if el2 != mesh.NoElement {
		Ct.Set(4+localFace(ci.m, el2, f), 0, 1)
	}
	return
}

func localFace(m mesh.Mesh, el, f int) int {
	for i, ff := range m.ElementFaces(el) {
		if ff == f {
			return i
		}
	}
	panic("face not on element")
}

func boundaryFluxDofs(m mesh.Mesh, fesU *fes.Space) (ess utils.Index) {
	for be := 0; be < m.NumBdrElements(); be++ {
		f := m.BdrFace(be)
		el1, _ := m.FaceElements(f)
		ess = append(ess, fesU.ElementDofs(el1)[localFace(m, el1, f)])
	}
	return
}

// Single element, trace dofs on all four faces, no essential dofs. With
// A = I, B = (1 1 1 1), D = 0 the Schur complement is S = -4 and the
// condensed operator is H = ones/4 - I.
func TestSingleQuadCondensation(t *testing.T) {
	var (
		m    = mesh.NewCartesianQuad(1, 1)
		fesU = fes.NewBrokenFaceFluxSpace(m, 1)
		fesP = fes.NewDGSpace(m, 1)
		fesC = fes.NewTraceSpace(m, 1, nil)
		ci   = &normalTraceConstraint{m}
	)
	h := NewDarcyHybridization(m, fesU, fesP, fesC, false)
	assert.NoError(t, h.SetConstraintIntegrators(ci, nil))
	h.AddBdrFluxConstraintIntegrator(ci, nil)
	assert.NoError(t, h.Init(nil))

	h.AssembleFluxMassMatrix(0, (&scaledIdentityMass{1}).AssembleElementMatrix(0))
	h.AssembleDivMatrix(0, (&faceSumDiv{}).AssembleElementMatrix(0))
	assert.NoError(t, h.AssemblePotMassMatrix(0, utils.NewMatrix(1, 1)))
	assert.NoError(t, h.Finalize())

	// The factored Schur complement D - B A^-1 B^T = -4 sits in place of D
	assert.Equal(t, []float64{-4}, h.dfData)

	// H = -Ct^T A^-1 Ct + (Ct^T A^-1 B^T) S^-1 (B A^-1 Ct)
	H := h.GetMatrix().ToDense()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := 0.25
			if i == j {
				want = -0.75
			}
			assert.InDelta(t, want, H.At(i, j), 1e-14)
		}
	}

	// Finalize is idempotent until Reset
	assert.NoError(t, h.Finalize())
	assert.Equal(t, []float64{-4}, h.dfData)

	// Reduction of bu = 0, bp = 2: the local solve gives p = -1, u = 1 on
	// every face, negated and folded back as C u = -1/2 per trace dof
	b := NewBlockVector(4, 1)
	b.Block(1).Set(0, 2)
	bR := utils.NewVector(4)
	assert.NoError(t, h.ReduceRHS(b, bR))
	for i := 0; i < 4; i++ {
		assert.InDelta(t, -0.5, bR.AtVec(i), 1e-14)
	}

	// Recovery with zero trace values reproduces the local elimination
	sol := NewBlockVector(4, 1)
	assert.NoError(t, h.ComputeSolution(b, utils.NewVector(4), sol))
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 0.5, sol.Block(0).AtVec(i), 1e-14)
	}
	assert.InDelta(t, -0.5, sol.Block(1).AtVec(0), 1e-14)
}

// Two elements sharing one interior face; the boundary fluxes are
// prescribed to zero so a single trace dof remains. Worked out by hand
// with A = I, B = (1 1 1 1), D = 2: H = [-4], and for bp = (1, 0) the
// trace value is -1/4 with interface flux -1/2 out of element 0.
func TestTwoElementReduction(t *testing.T) {
	var (
		m    = mesh.NewCartesianQuad(2, 1)
		fesU = fes.NewBrokenFaceFluxSpace(m, 1)
		fesP = fes.NewDGSpace(m, 1)
		fesC = fes.NewInteriorTraceSpace(m, 1)
		ci   = &normalTraceConstraint{m}
		ess  = boundaryFluxDofs(m, fesU)
	)
	assert.Equal(t, 1, fesC.VSize())
	assert.Equal(t, 6, len(ess))

	setup := func(bsym bool, d float64) *DarcyForm {
		df := NewDarcyForm(m, fesU, fesP, bsym)
		df.SetFluxMassIntegrator(&scaledIdentityMass{1})
		df.SetFluxDivIntegrator(&faceSumDiv{})
		df.SetPotMassIntegrator(&constPotMass{d / 2})
		assert.NoError(t, df.EnableHybridization(fesC, ci, ess))
		assert.NoError(t, df.Assemble())
		// potential mass accumulates: the second half lands on top
		hyb := df.Hybridization()
		for el := 0; el < m.NumElements(); el++ {
			assert.NoError(t, hyb.AssemblePotMassMatrix(el,
				(&constPotMass{d / 2}).AssembleElementMatrix(el)))
		}
		return df
	}

	// interface hat dofs: local face 1 of element 0, local face 3 of
	// element 1
	iface := m.ElementFaces(0)[1]
	el1, el2 := m.FaceElements(iface)
	assert.Equal(t, 0, el1)
	assert.Equal(t, 1, el2)
	u0 := fesU.ElementDofs(0)[localFace(m, 0, iface)]
	u1 := fesU.ElementDofs(1)[localFace(m, 1, iface)]

	{ // standard convention
		df := setup(false, 2)
		x := NewBlockVector(fesU.VSize(), fesP.VSize())
		b := NewBlockVector(fesU.VSize(), fesP.VSize())
		b.Block(1).Set(0, 1)

		X, B, err := df.FormLinearSystem(ess, x, b)
		assert.NoError(t, err)
		assert.InDelta(t, -4, df.Hybridization().GetMatrix().At(0, 0), 1e-14)
		assert.InDelta(t, 1, B.AtVec(0), 1e-14)

		X.Set(0, B.AtVec(0)/-4)
		assert.NoError(t, df.RecoverFEMSolution(X, b, x))

		u, p := x.Block(0), x.Block(1)
		assert.InDelta(t, -0.5, u.AtVec(u0), 1e-14)
		assert.InDelta(t, 0.5, u.AtVec(u1), 1e-14)
		for _, d := range ess {
			assert.Equal(t, 0.0, u.AtVec(d))
		}
		assert.InDelta(t, 0.75, p.AtVec(0), 1e-14)
		assert.InDelta(t, -0.25, p.AtVec(1), 1e-14)
	}

	{ // symmetrized convention: negated reaction and potential RHS solve
		// the same physical problem with the potential sign flipped
		df := setup(true, -2)
		x := NewBlockVector(fesU.VSize(), fesP.VSize())
		b := NewBlockVector(fesU.VSize(), fesP.VSize())
		b.Block(1).Set(0, -1)

		X, B, err := df.FormLinearSystem(ess, x, b)
		assert.NoError(t, err)
		assert.InDelta(t, -4, df.Hybridization().GetMatrix().At(0, 0), 1e-14)
		assert.InDelta(t, 1, B.AtVec(0), 1e-14)

		X.Set(0, B.AtVec(0)/-4)
		assert.NoError(t, df.RecoverFEMSolution(X, b, x))

		u, p := x.Block(0), x.Block(1)
		assert.InDelta(t, -0.5, u.AtVec(u0), 1e-14)
		assert.InDelta(t, 0.5, u.AtVec(u1), 1e-14)
		assert.InDelta(t, -0.75, p.AtVec(0), 1e-14)
		assert.InDelta(t, 0.25, p.AtVec(1), 1e-14)
	}

	{ // D = 1 makes S = D - B A^-1 B^T singular on every element
		df := setup(false, 1)
		err := df.Finalize()
		var sbe *SingularBlockError
		assert.True(t, errors.As(err, &sbe))
		assert.Equal(t, "S", sbe.Block)
	}
}

// The assembly split stores the essential flux couplings so that
// prescribed values can be moved to the right hand side later.
func TestEssentialElimination(t *testing.T) {
	var (
		m    = mesh.NewCartesianQuad(2, 1)
		fesU = fes.NewBrokenFaceFluxSpace(m, 1)
		fesP = fes.NewDGSpace(m, 1)
		fesC = fes.NewInteriorTraceSpace(m, 1)
		ci   = &normalTraceConstraint{m}
		ess  = boundaryFluxDofs(m, fesU)
	)
	newHyb := func(bsym bool) *DarcyHybridization {
		h := NewDarcyHybridization(m, fesU, fesP, fesC, bsym)
		assert.NoError(t, h.SetConstraintIntegrators(ci, nil))
		assert.NoError(t, h.Init(ess))
		for el := 0; el < m.NumElements(); el++ {
			h.AssembleFluxMassMatrix(el, (&scaledIdentityMass{2}).AssembleElementMatrix(el))
			h.AssembleDivMatrix(el, (&faceSumDiv{}).AssembleElementMatrix(el))
		}
		return h
	}

	h := newHyb(false)

	// one free hat dof (the interface flux) and three essential per element
	for el := 0; el < 2; el++ {
		assert.Equal(t, 1, len(h.GetFDofs(el)))
		assert.Equal(t, 3, len(h.GetEDofs(el)))
	}
	iface := m.ElementFaces(0)[1]
	assert.Equal(t, utils.Index{fesU.ElementDofs(0)[localFace(m, 0, iface)]}, h.GetFDofs(0))

	// free x free block and essential columns of A = 2I
	assert.Equal(t, 2.0, h.getAfMatrix(0).At(0, 0))
	Ae := h.getAeMatrix(0)
	for j, d := range h.GetEDofs(0) {
		// column j matches essential dof d: a single 2 on its own hat row
		for i, vd := range fesU.ElementDofs(0) {
			want := 0.0
			if vd == d {
				want = 2
			}
			assert.Equal(t, want, Ae.At(i, j))
		}
	}

	// prescribe u = (1, 2, 3) on the essential dofs of element 0
	x := NewBlockVector(fesU.VSize(), fesP.VSize())
	for j, d := range h.GetEDofs(0) {
		x.Block(0).Set(d, float64(j+1))
	}
	b := NewBlockVector(fesU.VSize(), fesP.VSize())
	h.EliminateVDofsInRHS(ess, x, b)

	bu, bp := b.Block(0), b.Block(1)
	for d := 0; d < fesU.VSize(); d++ {
		assert.Equal(t, x.Block(0).AtVec(d), bu.AtVec(d), "dof %d", d)
	}
	// bp -= B_e u_e with B_e = (1 1 1)
	assert.Equal(t, -6.0, bp.AtVec(0))
	assert.Equal(t, 0.0, bp.AtVec(1))

	// the symmetrized convention flips the potential contribution
	hs := newHyb(true)
	bs := NewBlockVector(fesU.VSize(), fesP.VSize())
	hs.EliminateVDofsInRHS(ess, x, bs)
	assert.Equal(t, 6.0, bs.Block(1).AtVec(0))
}

// Reset drops the assembled data but keeps topology; a second assembly
// cycle reproduces the reduced operator exactly.
func TestResetAndReassemble(t *testing.T) {
	var (
		m    = mesh.NewCartesianQuad(1, 1)
		fesU = fes.NewBrokenFaceFluxSpace(m, 1)
		fesP = fes.NewDGSpace(m, 1)
		fesC = fes.NewTraceSpace(m, 1, nil)
		ci   = &normalTraceConstraint{m}
	)
	h := NewDarcyHybridization(m, fesU, fesP, fesC, false)
	assert.NoError(t, h.SetConstraintIntegrators(ci, nil))
	h.AddBdrFluxConstraintIntegrator(ci, nil)
	assert.NoError(t, h.Init(nil))

	assemble := func() {
		h.AssembleFluxMassMatrix(0, (&scaledIdentityMass{3}).AssembleElementMatrix(0))
		h.AssembleDivMatrix(0, (&faceSumDiv{}).AssembleElementMatrix(0))
		assert.NoError(t, h.AssemblePotMassMatrix(0, utils.NewMatrix(1, 1).Set(0, 0, 1)))
		assert.NoError(t, h.Finalize())
	}
	assemble()
	first := h.GetMatrix().ToDense()

	h.Reset()
	assemble()
	second := h.GetMatrix().ToDense()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.Equal(t, first.At(i, j), second.At(i, j))
		}
	}
}

// With the potential mass supplied as a nonlinear term the reduced
// operator is matrix-free. For a linear coefficient it must agree with the
// assembled path; when the local fixed-point cannot contract, Strict mode
// surfaces the failure while BestEffort logs it.
func TestNonlinearLocalSolves(t *testing.T) {
	var (
		m    = mesh.NewCartesianQuad(2, 1)
		fesU = fes.NewBrokenFaceFluxSpace(m, 1)
		fesP = fes.NewDGSpace(m, 1)
		fesC = fes.NewInteriorTraceSpace(m, 1)
		ci   = &normalTraceConstraint{m}
		ess  = boundaryFluxDofs(m, fesU)
	)
	newHyb := func(nl NonlinearElementIntegrator) *DarcyHybridization {
		h := NewDarcyHybridization(m, fesU, fesP, fesC, true)
		assert.NoError(t, h.SetConstraintIntegrators(ci, nil))
		if nl != nil {
			assert.NoError(t, h.SetPotMassNonlinearIntegrator(nl))
		}
		assert.NoError(t, h.Init(ess))
		for el := 0; el < m.NumElements(); el++ {
			h.AssembleFluxMassMatrix(el, (&scaledIdentityMass{1}).AssembleElementMatrix(el))
			h.AssembleDivMatrix(el, (&faceSumDiv{}).AssembleElementMatrix(el))
		}
		return h
	}

	b := NewBlockVector(fesU.VSize(), fesP.VSize())
	b.Block(1).Set(0, -1)

	// linear reference: D = -1/2 assembled directly
	href := newHyb(nil)
	assert.NoError(t, href.AssemblePotMassMatrix(0, utils.NewMatrix(1, 1).Set(0, 0, -0.5)))
	assert.NoError(t, href.AssemblePotMassMatrix(1, utils.NewMatrix(1, 1).Set(0, 0, -0.5)))
	assert.NoError(t, href.Finalize())
	bR := utils.NewVector(1)
	assert.NoError(t, href.ReduceRHS(b, bR))
	assert.InDelta(t, -2, bR.AtVec(0), 1e-14)
	assert.InDelta(t, 2, href.GetMatrix().At(0, 0), 1e-14)
	Xref := utils.NewVector(1).Set(0, bR.AtVec(0)/href.GetMatrix().At(0, 0))
	solRef := NewBlockVector(fesU.VSize(), fesP.VSize())
	assert.NoError(t, href.ComputeSolution(b, Xref, solRef))

	{ // matrix-free with the same coefficient, gamma = 0
		h := newHyb(&cubicPotMass{d: -0.5})
		assert.NoError(t, h.Finalize())

		bR0 := utils.NewVector(1)
		assert.NoError(t, h.ReduceRHS(b, bR0))
		assert.Equal(t, 0.0, bR0.AtVec(0)) // stored, not reduced

		// the action is affine in x here; solve C u(x) = 0 by secant
		y0 := utils.NewVector(1)
		assert.NoError(t, h.Mult(utils.NewVector(1), y0))
		y1 := utils.NewVector(1)
		assert.NoError(t, h.Mult(utils.NewVector(1).Set(0, 1), y1))
		slope := y1.AtVec(0) - y0.AtVec(0)
		X := utils.NewVector(1).Set(0, -y0.AtVec(0)/slope)
		assert.InDelta(t, Xref.AtVec(0), X.AtVec(0), 1e-5)

		sol := NewBlockVector(fesU.VSize(), fesP.VSize())
		assert.NoError(t, h.ComputeSolution(b, X, sol))
		for d := 0; d < fesU.VSize(); d++ {
			assert.InDelta(t, solRef.Block(0).AtVec(d), sol.Block(0).AtVec(d), 1e-4)
		}
		for el := 0; el < fesP.VSize(); el++ {
			assert.InDelta(t, solRef.Block(1).AtVec(el), sol.Block(1).AtVec(el), 1e-4)
		}
	}

	{ // D' = -2 breaks the fixed-point contraction
		h := newHyb(&cubicPotMass{d: -2})
		h.SolveMode = Strict
		assert.NoError(t, h.Finalize())
		assert.NoError(t, h.ReduceRHS(b, utils.NewVector(1)))

		err := h.Mult(utils.NewVector(1), utils.NewVector(1))
		var nce *NonConvergenceError
		assert.True(t, errors.As(err, &nce))
		assert.Equal(t, MaxLocalIterations, nce.Iters)
	}

	{ // BestEffort logs and keeps going
		h := newHyb(&cubicPotMass{d: -2})
		var log bytes.Buffer
		h.Log = &log
		assert.NoError(t, h.Finalize())
		assert.NoError(t, h.ReduceRHS(b, utils.NewVector(1)))
		assert.NoError(t, h.Mult(utils.NewVector(1), utils.NewVector(1)))
		assert.Contains(t, log.String(), "did not converge")
	}
}

// The E and G arenas back the assembled potential constraint only; the
// nonlinear constraint evaluates its face terms inside the local solves and
// must not allocate them.
func TestPotConstraintStorage(t *testing.T) {
	var (
		m    = mesh.NewCartesianQuad(2, 1)
		fesU = fes.NewBrokenFaceFluxSpace(m, 1)
		fesP = fes.NewDGSpace(m, 1)
		fesC = fes.NewInteriorTraceSpace(m, 1)
		ci   = &normalTraceConstraint{m}
	)
	{
		h := NewDarcyHybridization(m, fesU, fesP, fesC, false)
		h.SetNonlinearConstraintIntegrators(ci, zeroPotConstraint{})
		assert.NoError(t, h.Init(nil))
		assert.Nil(t, h.eData)
		assert.Nil(t, h.gData)
	}
	{
		h := NewDarcyHybridization(m, fesU, fesP, fesC, false)
		assert.NoError(t, h.SetConstraintIntegrators(ci, &hdgFacePot{}))
		assert.NoError(t, h.Init(nil))
		assert.NotNil(t, h.eData)
		assert.NotNil(t, h.gData)
	}
}

func TestLifecycleErrors(t *testing.T) {
	var (
		m    = mesh.NewCartesianQuad(2, 1)
		fesU = fes.NewBrokenFaceFluxSpace(m, 1)
		fesP = fes.NewDGSpace(m, 1)
		fesC = fes.NewInteriorTraceSpace(m, 1)
		ci   = &normalTraceConstraint{m}
	)
	{ // no constraint integrator
		h := NewDarcyHybridization(m, fesU, fesP, fesC, false)
		assert.ErrorIs(t, h.Init(nil), ErrNoConstraintIntegrator)
	}
	{ // reduction before Finalize
		h := NewDarcyHybridization(m, fesU, fesP, fesC, false)
		assert.NoError(t, h.SetConstraintIntegrators(ci, nil))
		assert.NoError(t, h.Init(nil))
		b := NewBlockVector(fesU.VSize(), fesP.VSize())
		assert.ErrorIs(t, h.ReduceRHS(b, utils.NewVector(1)), ErrNotFinalized)
		assert.ErrorIs(t, h.Mult(utils.NewVector(1), utils.NewVector(1)), ErrNotFinalized)
		sol := NewBlockVector(fesU.VSize(), fesP.VSize())
		assert.ErrorIs(t, h.ComputeSolution(b, utils.NewVector(1), sol), ErrNotFinalized)
	}
	{ // recovery before Finalize in the nonlinear regime
		h := NewDarcyHybridization(m, fesU, fesP, fesC, false)
		assert.NoError(t, h.SetConstraintIntegrators(ci, nil))
		assert.NoError(t, h.SetPotMassNonlinearIntegrator(&cubicPotMass{d: 1}))
		assert.NoError(t, h.Init(nil))
		for el := 0; el < m.NumElements(); el++ {
			h.AssembleFluxMassMatrix(el, (&scaledIdentityMass{1}).AssembleElementMatrix(el))
			h.AssembleDivMatrix(el, (&faceSumDiv{}).AssembleElementMatrix(el))
		}
		b := NewBlockVector(fesU.VSize(), fesP.VSize())
		sol := NewBlockVector(fesU.VSize(), fesP.VSize())
		assert.ErrorIs(t, h.ComputeSolution(b, utils.NewVector(1), sol), ErrNotFinalized)
	}
	{ // nonlinear potential mass is exclusive with a linear constraint
		h := NewDarcyHybridization(m, fesU, fesP, fesC, false)
		assert.NoError(t, h.SetPotMassNonlinearIntegrator(&cubicPotMass{d: 1}))
		assert.ErrorIs(t, h.SetConstraintIntegrators(ci, nil), ErrIncompatibleIntegrators)
	}
	{ // assembled potential mass has no home in the nonlinear regime
		h := NewDarcyHybridization(m, fesU, fesP, fesC, false)
		assert.NoError(t, h.SetConstraintIntegrators(ci, nil))
		assert.NoError(t, h.SetPotMassNonlinearIntegrator(&cubicPotMass{d: 1}))
		assert.NoError(t, h.Init(nil))
		err := h.AssemblePotMassMatrix(0, utils.NewMatrix(1, 1))
		assert.ErrorIs(t, err, ErrIncompatibleIntegrators)
	}
	{ // matrix-free action needs a stored right hand side
		h := NewDarcyHybridization(m, fesU, fesP, fesC, false)
		assert.NoError(t, h.SetConstraintIntegrators(ci, nil))
		assert.NoError(t, h.SetPotMassNonlinearIntegrator(&cubicPotMass{d: 1}))
		assert.NoError(t, h.Init(nil))
		for el := 0; el < m.NumElements(); el++ {
			h.AssembleFluxMassMatrix(el, (&scaledIdentityMass{1}).AssembleElementMatrix(el))
			h.AssembleDivMatrix(el, (&faceSumDiv{}).AssembleElementMatrix(el))
		}
		assert.NoError(t, h.Finalize())
		assert.ErrorIs(t, h.Mult(utils.NewVector(1), utils.NewVector(1)), ErrNoReducedRHS)
	}
}
