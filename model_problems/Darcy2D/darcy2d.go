package Darcy2D

import (
	"fmt"
	"io"
	"math"

	"github.com/notargets/gohybrid/darcy"
	"github.com/notargets/gohybrid/fes"
	"github.com/notargets/gohybrid/mesh"
	"github.com/notargets/gohybrid/utils"
)

/*
Lowest-order hybridized Darcy problem on the unit square:

	alpha*u + grad(p) = 0
	div(u)  + beta*p  = g        (beta*(p + gamma*p^3) in the nonlinear case)

with no-flow (essential) boundary fluxes. One flux dof per element face
(outward normal flux), piecewise constant potential, one trace dof per
interior face. The reaction term keeps the reduced operator nonsingular
under the pure essential boundary.
*/

type Parameters struct {
	N         int     // elements per side
	Alpha     float64 // flux mass coefficient
	Beta      float64 // potential reaction coefficient
	Gamma     float64 // cubic coefficient of the nonlinear reaction
	BSym      bool    // symmetrized saddle-point convention
	Nonlinear bool    // route the reaction through the nonlinear regime
	SolveMode darcy.LocalSolveMode
	Tol       float64 // reduced solve tolerance
	MaxIter   int     // reduced solve iteration cap
}

func DefaultParameters() Parameters {
	return Parameters{
		N:       8,
		Alpha:   1,
		Beta:    1,
		Tol:     1e-10,
		MaxIter: 2000,
	}
}

type Darcy2D struct {
	Parameters
	H    float64 // element size
	Msh  *mesh.CartesianQuad
	FesU *fes.Space
	FesP *fes.Space
	FesC *fes.FaceSpace
	Form *darcy.DarcyForm

	EssDofs utils.Index
	RHS     darcy.BlockVector // pre-elimination block right hand side

	fullOp *darcy.BlockOperator
}

type Stats struct {
	OuterIterations  int
	KrylovIterations int
	TraceResidual    float64
	FullResidual     float64
}

func New(pr Parameters) (dp *Darcy2D, err error) {
	if pr.N < 1 {
		err = fmt.Errorf("invalid mesh size %d", pr.N)
		return
	}
	if pr.Tol == 0 {
		pr.Tol = 1e-10
	}
	if pr.MaxIter == 0 {
		pr.MaxIter = 2000
	}
	var (
		m = mesh.NewCartesianQuad(pr.N, pr.N)
		h = 1. / float64(pr.N)
	)
	dp = &Darcy2D{
		Parameters: pr,
		H:          h,
		Msh:        m,
		FesU:       fes.NewBrokenFaceFluxSpace(m, 1),
		FesP:       fes.NewDGSpace(m, 1),
		FesC:       fes.NewInteriorTraceSpace(m, 1),
	}
	dp.EssDofs = dp.boundaryFluxDofs()

	// The symmetrized convention solves [A -Bt; -B -D](u,-p) = (bu,-bp), so
	// the reaction term and the potential source enter negated and the
	// recovered potential is flipped back; either flag yields the same
	// physical fields.
	d := pr.Beta * h * h
	if pr.BSym {
		d = -d
	}
	dp.Form = darcy.NewDarcyForm(m, dp.FesU, dp.FesP, pr.BSym)
	dp.Form.SetFluxMassIntegrator(&fluxMassInteg{a: pr.Alpha * h})
	dp.Form.SetFluxDivIntegrator(&fluxDivInteg{m: m})
	if pr.Nonlinear {
		dp.Form.SetPotMassNonlinearIntegrator(&potMassNLInteg{d: d, gamma: pr.Gamma})
	} else {
		dp.Form.SetPotMassIntegrator(&potMassInteg{d: d})
	}

	if err = dp.Form.EnableHybridization(dp.FesC,
		&fluxConstraintInteg{m: m}, dp.EssDofs); err != nil {
		return
	}
	dp.Form.Hybridization().SolveMode = pr.SolveMode

	if err = dp.Form.Assemble(); err != nil {
		return
	}
	dp.RHS = dp.assembleRHS()
	return
}

// SetLog routes the local-solve diagnostics (best-effort non-convergence).
func (dp *Darcy2D) SetLog(w io.Writer) { dp.Form.Hybridization().Log = w }

// boundaryFluxDofs lists the hat flux dofs sitting on boundary faces.
func (dp *Darcy2D) boundaryFluxDofs() (ess utils.Index) {
	for be := 0; be < dp.Msh.NumBdrElements(); be++ {
		f := dp.Msh.BdrFace(be)
		el, _ := dp.Msh.FaceElements(f)
		ess = append(ess, dp.FesU.ElementDofs(el)[localFaceIndex(dp.Msh, el, f)])
	}
	return
}

// Source is the manufactured potential source, zero-mean over the square.
func (dp *Darcy2D) Source(x, y float64) float64 {
	return math.Cos(2*math.Pi*x) * math.Cos(2*math.Pi*y)
}

func (dp *Darcy2D) elementCenter(el int) (x, y float64) {
	var (
		i = el % dp.N
		j = el / dp.N
	)
	return (float64(i) + 0.5) * dp.H, (float64(j) + 0.5) * dp.H
}

// assembleRHS builds (bu, bp): zero flux RHS, elementwise source integral.
// The symmetrized convention negates the potential block.
func (dp *Darcy2D) assembleRHS() (b darcy.BlockVector) {
	b = darcy.NewBlockVector(dp.FesU.VSize(), dp.FesP.VSize())
	bp := b.Block(1)
	for el := 0; el < dp.Msh.NumElements(); el++ {
		x, y := dp.elementCenter(el)
		g := dp.H * dp.H * dp.Source(x, y)
		if dp.BSym {
			g = -g
		}
		bp.Set(dp.FesP.ElementDofs(el)[0], g)
	}
	return
}

// Solve reduces the system onto the face traces, solves the reduced
// operator and recovers (u,p). The unsymmetrized reduced operator is
// symmetric negative definite, so CG runs on its negation; the symmetrized
// one is indefinite and goes to MINRES.
func (dp *Darcy2D) Solve() (sol darcy.BlockVector, stats Stats, err error) {
	var (
		x = darcy.NewBlockVector(dp.FesU.VSize(), dp.FesP.VSize())
		b = dp.RHS.Copy()
	)
	X, Br, err := dp.Form.FormLinearSystem(dp.EssDofs, x, b)
	if err != nil {
		return
	}

	hyb := dp.Form.Hybridization()
	switch {
	case !dp.Nonlinear && !dp.BSym:
		rhs := Br.Copy().Neg()
		stats.KrylovIterations, err = utils.ConjugateGradient(
			negOp{hyb.GetMatrix()}, rhs, X, dp.Tol, dp.MaxIter)
		stats.OuterIterations = 1
	case !dp.Nonlinear:
		stats.KrylovIterations, err = utils.MINRES(
			hyb.GetMatrix(), Br, X, dp.Tol, dp.MaxIter)
		stats.OuterIterations = 1
	default:
		stats, err = dp.solveNonlinearTrace(hyb, X)
	}
	if err != nil {
		return
	}
	stats.TraceResidual = dp.traceResidual(hyb, X, Br)

	sol = darcy.NewBlockVector(dp.FesU.VSize(), dp.FesP.VSize())
	if err = dp.Form.RecoverFEMSolution(X, b, sol); err != nil {
		return
	}
	stats.FullResidual = dp.FullResidual(sol)
	if dp.BSym {
		sol.Block(1).Neg()
	}
	return
}

// solveNonlinearTrace runs a matrix-free Newton-Krylov loop on the trace
// residual Mult(x) = 0: each step solves the directional linearization with
// MINRES, which tolerates either sign convention. For a linear reaction the
// loop converges in one step.
func (dp *Darcy2D) solveNonlinearTrace(hyb *darcy.DarcyHybridization,
	X utils.Vector) (stats Stats, err error) {
	var (
		n   = X.Len()
		r   = utils.NewVector(n)
		ref float64
	)
	// The matrix-free action is only accurate to the local solve tolerance,
	// so the trace residual cannot be driven below that noise floor.
	tol := dp.Tol
	if tol < 10*darcy.LocalSolveRTol {
		tol = 10 * darcy.LocalSolveRTol
	}
	if err = hyb.Mult(X, r); err != nil {
		return
	}
	ref = r.Norm2()
	if ref == 0 {
		stats.OuterIterations = 0
		return
	}
	for it := 0; it < 20; it++ {
		stats.OuterIterations = it + 1
		dx := utils.NewVector(n)
		var iters int
		iters, err = utils.MINRES(
			&directionalOp{hyb: hyb, x0: X, f0: r}, r.Copy().Neg(), dx, tol, dp.MaxIter)
		if err != nil {
			return
		}
		stats.KrylovIterations += iters
		X.Add(dx)
		if err = hyb.Mult(X, r); err != nil {
			return
		}
		if r.Norm2() <= tol*ref {
			return
		}
	}
	err = fmt.Errorf("trace solve stalled at residual ratio %g", r.Norm2()/ref)
	return
}

func (dp *Darcy2D) traceResidual(hyb *darcy.DarcyHybridization, X,
	Br utils.Vector) float64 {
	r := utils.NewVector(X.Len())
	if err := hyb.Mult(X, r); err != nil {
		return math.NaN()
	}
	return r.Sub(Br).Norm2()
}

// FullOperator assembles (once) the uncondensed sparse block operator with
// the same integrators, used for residual reporting and verification.
func (dp *Darcy2D) FullOperator() *darcy.BlockOperator {
	if dp.fullOp == nil {
		d := dp.Beta * dp.H * dp.H
		if dp.BSym {
			d = -d
		}
		form := darcy.NewDarcyForm(dp.Msh, dp.FesU, dp.FesP, dp.BSym)
		form.SetFluxMassIntegrator(&fluxMassInteg{a: dp.Alpha * dp.H})
		form.SetFluxDivIntegrator(&fluxDivInteg{m: dp.Msh})
		form.SetPotMassIntegrator(&potMassInteg{d: d})
		if err := form.Assemble(); err != nil {
			panic(err)
		}
		if err := form.Finalize(); err != nil {
			panic(err)
		}
		dp.fullOp = form.BlockOp()
	}
	return dp.fullOp
}

// FullResidual measures the recovered solution (in the solve convention,
// before any potential flip) against the uncondensed block system, skipping
// the essential flux rows whose equations are replaced by the prescribed
// values. The sparse operator carries only the linear part of the reaction;
// the cubic term is added separately. Its sign flip under symmetrization
// cancels against the operator scaling, so the correction is
// convention-independent.
func (dp *Darcy2D) FullResidual(sol darcy.BlockVector) float64 {
	var (
		op = dp.FullOperator()
		r  = darcy.NewBlockVector(dp.FesU.VSize(), dp.FesP.VSize())
	)
	op.Mult(sol, r)
	if dp.Nonlinear && dp.Gamma != 0 {
		rp := r.Block(1)
		p := sol.Block(1)
		scale := dp.Beta * dp.H * dp.H * dp.Gamma
		for i := 0; i < rp.Len(); i++ {
			pv := p.AtVec(i)
			rp.Set(i, rp.AtVec(i)+scale*pv*pv*pv)
		}
	}
	r.V.Sub(dp.RHS.V)
	ru := r.Block(0)
	for _, d := range dp.EssDofs {
		ru.Set(d, 0)
	}
	return r.V.Norm2()
}

// localFaceIndex is the position of face f in el's local face ordering.
func localFaceIndex(m mesh.Mesh, el, f int) int {
	for i, ef := range m.ElementFaces(el) {
		if ef == f {
			return i
		}
	}
	panic(fmt.Errorf("face %d does not touch element %d", f, el))
}

// negOp applies the negated sparse operator, making the reduced system
// positive definite for CG.
type negOp struct {
	M utils.CSR
}

func (o negOp) MulVec(x, y utils.Vector) {
	o.M.MulVec(x, y)
	y.Neg()
}

// directionalOp applies y -> Mult(x0+y) - Mult(x0), the directional
// linearization of the matrix-free trace operator about x0. Exact when the
// reaction is linear, a first-order secant otherwise.
type directionalOp struct {
	hyb *darcy.DarcyHybridization
	x0  utils.Vector
	f0  utils.Vector
}

func (o *directionalOp) MulVec(x, y utils.Vector) {
	xs := o.x0.Copy().Add(x)
	if err := o.hyb.Mult(xs, y); err != nil {
		panic(err)
	}
	y.Sub(o.f0)
}
