package fes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/gohybrid/mesh"
	"github.com/notargets/gohybrid/utils"
)

func TestSpaces(t *testing.T) {
	m := mesh.NewCartesianQuad(3, 2)

	// Broken face flux space: 4 independent dofs per element
	{
		s := NewBrokenFaceFluxSpace(m, 1)
		assert.Equal(t, m.NumElements(), s.NumElements())
		assert.Equal(t, 4*m.NumElements(), s.VSize())
		seen := make(map[int]bool)
		for el := 0; el < s.NumElements(); el++ {
			assert.Equal(t, 4, s.DofCount(el))
			for _, d := range s.ElementDofs(el) {
				assert.False(t, seen[d], "dof %d shared between elements", d)
				seen[d] = true
			}
		}
	}
	// DG space: one dof per element, numbered in element order
	{
		s := NewDGSpace(m, 1)
		assert.Equal(t, m.NumElements(), s.VSize())
		assert.Equal(t, utils.Index{4}, s.ElementDofs(4))
	}
	// Interior trace space: dofs on interior faces only
	{
		s := NewTraceSpace(m, 2, nil)
		assert.Equal(t, 2*m.NumFaces(), s.VSize())

		si := NewInteriorTraceSpace(m, 1)
		interior := 0
		for f := 0; f < m.NumFaces(); f++ {
			if mesh.IsInteriorFace(m, f) {
				interior++
				assert.Equal(t, 1, si.DofCount(f))
			} else {
				assert.Equal(t, 0, si.DofCount(f))
			}
		}
		assert.Equal(t, interior, si.VSize())
		// 3x2 mesh: 3 interior horizontal + 4 interior vertical edges
		assert.Equal(t, 7, si.VSize())
	}
	// Out-of-range dofs are rejected
	{
		assert.Panics(t, func() {
			NewSpace([]utils.Index{{0, 3}}, 2)
		})
	}
}
