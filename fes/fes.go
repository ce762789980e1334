// Package fes provides the degree-of-freedom services the solver core
// consumes: per-element and per-face dof lists with global numbering.
// Basis evaluation and geometry belong to the integrators, not here.
package fes

import (
	"fmt"

	"github.com/notargets/gohybrid/mesh"
	"github.com/notargets/gohybrid/utils"
)

// Space numbers dofs element by element. Dof lists of distinct elements may
// share global dofs (a conforming space) or be disjoint (a broken space).
type Space struct {
	NE    int
	dofs  []utils.Index
	vsize int
}

func (s *Space) NumElements() int { return s.NE }
func (s *Space) VSize() int       { return s.vsize }

func (s *Space) ElementDofs(el int) utils.Index {
	return s.dofs[el]
}

func (s *Space) DofCount(el int) int { return len(s.dofs[el]) }

// NewSpace builds a space from explicit per-element dof lists.
func NewSpace(dofLists []utils.Index, vsize int) (s *Space) {
	for el, l := range dofLists {
		for _, d := range l {
			if d < 0 || d >= vsize {
				panic(fmt.Errorf("element %d references dof %d outside [0,%d)", el, d, vsize))
			}
		}
	}
	s = &Space{
		NE:    len(dofLists),
		dofs:  dofLists,
		vsize: vsize,
	}
	return
}

// NewBrokenFaceFluxSpace numbers ndofPerFace flux dofs per (element, face)
// pair, so co-facial dofs of neighboring elements are independent copies.
// This is the "hat" version of a facewise flux space.
func NewBrokenFaceFluxSpace(m mesh.Mesh, ndofPerFace int) (s *Space) {
	var (
		NE    = m.NumElements()
		lists = make([]utils.Index, NE)
		next  int
	)
	for el := 0; el < NE; el++ {
		nf := len(m.ElementFaces(el))
		l := make(utils.Index, nf*ndofPerFace)
		for i := range l {
			l[i] = next
			next++
		}
		lists[el] = l
	}
	s = NewSpace(lists, next)
	return
}

// NewDGSpace numbers ndofPerElem discontinuous dofs per element.
func NewDGSpace(m mesh.Mesh, ndofPerElem int) (s *Space) {
	var (
		NE    = m.NumElements()
		lists = make([]utils.Index, NE)
	)
	for el := 0; el < NE; el++ {
		l := make(utils.Index, ndofPerElem)
		for i := range l {
			l[i] = el*ndofPerElem + i
		}
		lists[el] = l
	}
	s = NewSpace(lists, NE*ndofPerElem)
	return
}

// FaceSpace numbers trace (Lagrange multiplier) dofs face by face. Faces
// with an empty dof list carry no multiplier (e.g. boundary faces whose
// fluxes are pinned by essential conditions).
type FaceSpace struct {
	NF    int
	dofs  []utils.Index
	vsize int
}

func (s *FaceSpace) NumFaces() int { return s.NF }
func (s *FaceSpace) VSize() int    { return s.vsize }

func (s *FaceSpace) FaceDofs(f int) utils.Index {
	return s.dofs[f]
}

func (s *FaceSpace) DofCount(f int) int { return len(s.dofs[f]) }

// NewTraceSpace numbers ndofPerFace multiplier dofs on every face selected
// by keep (all faces when keep is nil).
func NewTraceSpace(m mesh.Mesh, ndofPerFace int, keep func(f int) bool) (s *FaceSpace) {
	var (
		NF    = m.NumFaces()
		lists = make([]utils.Index, NF)
		next  int
	)
	for f := 0; f < NF; f++ {
		if keep != nil && !keep(f) {
			continue
		}
		l := make(utils.Index, ndofPerFace)
		for i := range l {
			l[i] = next
			next++
		}
		lists[f] = l
	}
	s = &FaceSpace{
		NF:    NF,
		dofs:  lists,
		vsize: next,
	}
	return
}

// NewInteriorTraceSpace keeps multiplier dofs on interior faces only.
func NewInteriorTraceSpace(m mesh.Mesh, ndofPerFace int) (s *FaceSpace) {
	return NewTraceSpace(m, ndofPerFace, func(f int) bool {
		return mesh.IsInteriorFace(m, f)
	})
}
