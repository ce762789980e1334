// Package mesh defines the topology queries the hybridization core consumes.
// Mesh generation, geometry and refinement live outside this module; the
// solver only ever sees the interface.
package mesh

// NoElement is the adjacency sentinel for the far side of a boundary face.
const NoElement = -1

// Mesh enumerates elements and faces and answers adjacency queries. Face
// orientation is fixed: FaceElements returns the primary element first, and
// the secondary element is NoElement on the boundary.
type Mesh interface {
	Dimension() int
	NumElements() int
	NumFaces() int

	// ElementFaces lists the faces touching element el, in a fixed local
	// ordering.
	ElementFaces(el int) []int

	// FaceElements returns the one or two elements adjacent to face f.
	FaceElements(f int) (el1, el2 int)

	// NumBdrElements, BdrFace and BdrAttribute enumerate the boundary and
	// its attribute tags (attributes count from 1).
	NumBdrElements() int
	BdrFace(be int) int
	BdrAttribute(be int) int
	MaxBdrAttribute() int
}

// IsInteriorFace reports whether f has elements on both sides.
func IsInteriorFace(m Mesh, f int) bool {
	_, el2 := m.FaceElements(f)
	return el2 != NoElement
}
