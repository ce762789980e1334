package utils

// Index is a list of integer indices into a vector or offset table.
type Index []int

func NewRangeIndex(min, max int) (I Index) { // inclusive of min and max
	var (
		size = max - min + 1
	)
	I = make(Index, size)
	for i := range I {
		I[i] = i + min
	}
	return
}

func (I Index) Contains(ind int) bool {
	for _, val := range I {
		if val == ind {
			return true
		}
	}
	return false
}

// Offsets is a monotonic table of start offsets into a flat buffer, with one
// extra trailing entry so that Offsets[i+1]-Offsets[i] is entity i's extent
// and Offsets[n] is the total buffer length.
type Offsets []int

func NewOffsets(counts Index) (O Offsets) {
	O = make(Offsets, len(counts)+1)
	for i, c := range counts {
		O[i+1] = O[i] + c
	}
	return
}

func (O Offsets) Start(i int) int { return O[i] }
func (O Offsets) Count(i int) int { return O[i+1] - O[i] }
func (O Offsets) Total() int      { return O[len(O)-1] }
