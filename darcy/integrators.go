package darcy

import (
	"github.com/notargets/gohybrid/utils"
)

// Integrators are the black-box callables producing dense local matrices and
// vectors from geometry and basis data. They live outside this module; the
// solver only fixes the block layouts it expects back. The solver calls them
// from multiple goroutines, so implementations must be safe for concurrent
// use.

// ElementIntegrator produces one dense matrix per element. For the flux mass
// term the matrix is square over the element's hat dofs; for the divergence
// term it is (potential dofs) x (hat dofs); for the potential mass term it is
// square over the potential dofs.
type ElementIntegrator interface {
	AssembleElementMatrix(el int) utils.Matrix
}

// FluxConstraintIntegrator produces, per face, the coupling block between
// the adjacent elements' hat flux dofs and the face's trace dofs. Rows are
// the hat dofs of el1 followed by those of el2 (none when el2 is the
// boundary sentinel); columns are the trace dofs.
type FluxConstraintIntegrator interface {
	AssembleFaceMatrix(f, el1, el2 int) utils.Matrix
}

// PotConstraintIntegrator produces the combined HDG face block over
// (el1 potential dofs, el2 potential dofs, trace dofs), square of size
// nd1+nd2+c. On a boundary face nd2 is zero.
type PotConstraintIntegrator interface {
	AssembleHDGFaceMatrix(f, el1, el2 int) utils.Matrix
}

// NonlinearElementIntegrator evaluates the nonlinear potential mass action
// D_nl(p) on one element for the current iterate.
type NonlinearElementIntegrator interface {
	AssembleElementVector(el int, p utils.Vector) utils.Vector
}

// NonlinearPotConstraintIntegrator evaluates the two residual slices of a
// nonlinear HDG face term for the current element iterate p and face trace
// values x. side2 selects which adjacent element the element-sized output
// refers to.
type NonlinearPotConstraintIntegrator interface {
	// ElementFaceVector returns the element block D(p) + E x.
	ElementFaceVector(f, el int, side2 bool, x, p utils.Vector) utils.Vector
	// TraceFaceVector returns the trace block G p + H x.
	TraceFaceVector(f, el int, side2 bool, x, p utils.Vector) utils.Vector
}

// BdrMarker is a boundary-attribute activation list: entry k enables
// attribute k+1. A nil marker enables every attribute.
type BdrMarker []int

func (m BdrMarker) Active(attr int) bool {
	if m == nil {
		return true
	}
	return m[attr-1] != 0
}

// unionMarkers folds a set of (possibly nil) markers into the single
// per-attribute activation table used to skip untouched boundary elements.
func unionMarkers(markers []BdrMarker, maxAttr int) (union BdrMarker) {
	union = make(BdrMarker, maxAttr)
	for _, m := range markers {
		if m == nil {
			for i := range union {
				union[i] = 1
			}
			return
		}
		for i := range m {
			union[i] |= m[i]
		}
	}
	return
}
