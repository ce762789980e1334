package Darcy2D

import (
	"github.com/notargets/gohybrid/mesh"
	"github.com/notargets/gohybrid/utils"
)

// fluxMassInteg is the scaled identity flux mass term: one outward normal
// flux dof per element face, each with the same diagonal weight.
type fluxMassInteg struct {
	a float64
}

func (fi *fluxMassInteg) AssembleElementMatrix(el int) (A utils.Matrix) {
	A = utils.NewMatrix(4, 4)
	for i := 0; i < 4; i++ {
		A.Set(i, i, fi.a)
	}
	return
}

// fluxDivInteg sums the outward face fluxes of each element: the exact
// lowest-order divergence on a square element.
type fluxDivInteg struct {
	m mesh.Mesh
}

func (bi *fluxDivInteg) AssembleElementMatrix(el int) (B utils.Matrix) {
	B = utils.NewMatrix(1, 4)
	for i := 0; i < 4; i++ {
		B.Set(0, i, 1)
	}
	return
}

// potMassInteg is the piecewise constant reaction term.
type potMassInteg struct {
	d float64
}

func (di *potMassInteg) AssembleElementMatrix(el int) (D utils.Matrix) {
	D = utils.NewMatrix(1, 1)
	D.Set(0, 0, di.d)
	return
}

// potMassNLInteg evaluates the cubic reaction d*(p + gamma*p^3) elementwise.
// Gamma zero reproduces the linear term through the matrix-free machinery.
type potMassNLInteg struct {
	d     float64
	gamma float64
}

func (di *potMassNLInteg) AssembleElementVector(el int, p utils.Vector) (d utils.Vector) {
	d = utils.NewVector(1)
	pv := p.AtVec(0)
	d.Set(0, di.d*(pv+di.gamma*pv*pv*pv))
	return
}

// fluxConstraintInteg enforces normal flux continuity across a face: the
// outward fluxes of the two neighbors sum against the shared trace
// multiplier. Rows run over all face dofs of el1 then el2; boundary faces
// carry only the el1 block.
type fluxConstraintInteg struct {
	m mesh.Mesh
}

func (ci *fluxConstraintInteg) AssembleFaceMatrix(f, el1, el2 int) (Ct utils.Matrix) {
	nd := 4
	if el2 != mesh.NoElement {
		nd = 8
	}
	Ct = utils.NewMatrix(nd, 1)
	Ct.Set(localFaceIndex(ci.m, el1, f), 0, 1)
	if el2 != mesh.NoElement {
		Ct.Set(4+localFaceIndex(ci.m, el2, f), 0, 1)
	}
	return
}
