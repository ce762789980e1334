package mesh

import "fmt"

// CartesianQuad is an Nx x Ny structured quadrilateral mesh on the unit
// square. Faces are the mesh edges: horizontal edges first (Nx*(Ny+1) of
// them), then vertical edges ((Nx+1)*Ny). Element local face ordering is
// south, east, north, west. Boundary attributes: 1 bottom, 2 right, 3 top,
// 4 left.
type CartesianQuad struct {
	Nx, Ny   int
	bdrFaces []int
	bdrAttrs []int
}

func NewCartesianQuad(Nx, Ny int) (m *CartesianQuad) {
	if Nx < 1 || Ny < 1 {
		panic(fmt.Errorf("invalid mesh dimensions: %d x %d", Nx, Ny))
	}
	m = &CartesianQuad{Nx: Nx, Ny: Ny}
	// bottom, right, top, left
	for i := 0; i < Nx; i++ {
		m.bdrFaces = append(m.bdrFaces, m.hEdge(i, 0))
		m.bdrAttrs = append(m.bdrAttrs, 1)
	}
	for j := 0; j < Ny; j++ {
		m.bdrFaces = append(m.bdrFaces, m.vEdge(Nx, j))
		m.bdrAttrs = append(m.bdrAttrs, 2)
	}
	for i := 0; i < Nx; i++ {
		m.bdrFaces = append(m.bdrFaces, m.hEdge(i, Ny))
		m.bdrAttrs = append(m.bdrAttrs, 3)
	}
	for j := 0; j < Ny; j++ {
		m.bdrFaces = append(m.bdrFaces, m.vEdge(0, j))
		m.bdrAttrs = append(m.bdrAttrs, 4)
	}
	return
}

func (m *CartesianQuad) hEdge(i, j int) int { return i + m.Nx*j }
func (m *CartesianQuad) vEdge(i, j int) int { return m.Nx*(m.Ny+1) + i + (m.Nx+1)*j }

func (m *CartesianQuad) Dimension() int   { return 2 }
func (m *CartesianQuad) NumElements() int { return m.Nx * m.Ny }
func (m *CartesianQuad) NumFaces() int {
	return m.Nx*(m.Ny+1) + (m.Nx+1)*m.Ny
}

func (m *CartesianQuad) ElementFaces(el int) []int {
	var (
		i = el % m.Nx
		j = el / m.Nx
	)
	return []int{
		m.hEdge(i, j),   // south
		m.vEdge(i+1, j), // east
		m.hEdge(i, j+1), // north
		m.vEdge(i, j),   // west
	}
}

func (m *CartesianQuad) FaceElements(f int) (el1, el2 int) {
	var (
		nh = m.Nx * (m.Ny + 1)
	)
	if f < nh {
		// horizontal edge at (i, j): element below is (i, j-1), above (i, j)
		i, j := f%m.Nx, f/m.Nx
		switch {
		case j == 0:
			return i, NoElement
		case j == m.Ny:
			return i + m.Nx*(j-1), NoElement
		default:
			return i + m.Nx*(j-1), i + m.Nx*j
		}
	}
	// vertical edge at (i, j): element left is (i-1, j), right (i, j)
	fv := f - nh
	i, j := fv%(m.Nx+1), fv/(m.Nx+1)
	switch {
	case i == 0:
		return m.Nx * j, NoElement
	case i == m.Nx:
		return i - 1 + m.Nx*j, NoElement
	default:
		return i - 1 + m.Nx*j, i + m.Nx*j
	}
}

func (m *CartesianQuad) NumBdrElements() int  { return len(m.bdrFaces) }
func (m *CartesianQuad) BdrFace(be int) int   { return m.bdrFaces[be] }
func (m *CartesianQuad) BdrAttribute(be int) int {
	return m.bdrAttrs[be]
}
func (m *CartesianQuad) MaxBdrAttribute() int { return 4 }
