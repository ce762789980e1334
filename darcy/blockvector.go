package darcy

import (
	"github.com/notargets/gohybrid/utils"
)

// BlockVector stacks the flux and potential blocks of the saddle-point
// system in one flat vector. Block returns aliasing views, so mutating a
// block mutates the stacked vector.
type BlockVector struct {
	V       utils.Vector
	Offsets utils.Offsets
}

func NewBlockVector(n0, n1 int) (b BlockVector) {
	b = BlockVector{
		V:       utils.NewVector(n0 + n1),
		Offsets: utils.NewOffsets(utils.Index{n0, n1}),
	}
	return
}

// NewBlockVectorFrom wraps existing storage with block offsets.
func NewBlockVectorFrom(v utils.Vector, n0, n1 int) (b BlockVector) {
	b = BlockVector{
		V:       v,
		Offsets: utils.NewOffsets(utils.Index{n0, n1}),
	}
	return
}

func (b BlockVector) Size() int { return b.V.Len() }

func (b BlockVector) Block(i int) utils.Vector {
	var (
		o = b.Offsets.Start(i)
		n = b.Offsets.Count(i)
	)
	return utils.NewVector(n, b.V.Data()[o:o+n])
}

func (b BlockVector) Copy() (R BlockVector) {
	R = BlockVector{
		V:       b.V.Copy(),
		Offsets: b.Offsets,
	}
	return
}
