package darcy

import (
	"io"

	"github.com/notargets/gohybrid/fes"
	"github.com/notargets/gohybrid/mesh"
	"github.com/notargets/gohybrid/utils"
)

// DofClass classifies one hat dof of the broken flux space.
type DofClass int8

const (
	// DofFree participates in the local solve and has no discovered trace
	// coupling (interior free dof).
	DofFree DofClass = 0
	// DofEssential has an externally prescribed value and never enters the
	// reduced system.
	DofEssential DofClass = 1
	// DofBoundary is a free dof with a nonzero constraint row, discovered
	// lazily while the constraint matrix is built.
	DofBoundary DofClass = -1
)

// Working-precision threshold applied to constraint face matrices so that
// floating point noise does not promote interior dofs to boundary dofs.
const constraintTol = 1e-12

// MaxLocalIterations caps the per-element nonlinear fixed-point solve.
const MaxLocalIterations = 1000

// LocalSolveRTol is the relative residual tolerance of the local solve, with
// LocalSolveATol the absolute fallback for a vanishing reference norm.
const (
	LocalSolveRTol = 1e-6
	LocalSolveATol = 1e-12
)

// DarcyHybridization eliminates the element-local flux and potential
// unknowns of a mixed saddle-point system in favor of face trace (Lagrange
// multiplier) unknowns. In the linear regime it assembles the reduced sparse
// operator H; with a nonlinear potential term the reduced operator is
// applied matrix-free through per-element nonlinear solves.
//
// Lifecycle: Init -> Assemble* -> Finalize -> (ReduceRHS / Mult /
// ComputeSolution) -> Reset.
type DarcyHybridization struct {
	msh  mesh.Mesh
	fesU *fes.Space     // broken (hat) flux space
	fesP *fes.Space     // discontinuous potential space
	fesC *fes.FaceSpace // trace space
	bsym bool           // symmetrized saddle-point convention

	cFluxInteg FluxConstraintIntegrator
	cPotInteg  PotConstraintIntegrator
	cPotNL     NonlinearPotConstraintIntegrator
	mPotNL     NonlinearElementIntegrator

	bdrFluxIntegs        []FluxConstraintIntegrator
	bdrFluxMarkers       []BdrMarker
	bdrPotIntegs         []PotConstraintIntegrator
	bdrPotMarkers        []BdrMarker

	bnl  bool // nonlinear regime
	bfin bool // finalized

	// hat dof bookkeeping
	hatOffsets    utils.Offsets
	hatDofsMarker []DofClass

	// per-element arenas; Af holds the free x free flux block and is
	// overwritten by its LU factors, Df the potential block overwritten by
	// the factored Schur complement
	afOffsets, afFOffsets utils.Offsets
	bfOffsets             utils.Offsets
	dfOffsets, dfFOffsets utils.Offsets
	aeOffsets, beOffsets  utils.Offsets
	afData, bfData        []float64
	dfData                []float64
	aeData, beData        []float64
	afIpiv, dfIpiv        []int

	// per-face arenas
	ctOffsets utils.Offsets
	egOffsets utils.Offsets
	ctData    []float64
	eData     []float64
	gData     []float64

	// reduced operator (linear regime)
	hDOK utils.DOK
	H    utils.CSR

	// stored block RHS for the matrix-free nonlinear action
	darcyRHS BlockVector
	haveRHS  bool

	// local nonlinear solve policy
	SolveMode LocalSolveMode
	Log       io.Writer
}

func NewDarcyHybridization(m mesh.Mesh, fesU, fesP *fes.Space, fesC *fes.FaceSpace,
	bsymmetrize bool) (h *DarcyHybridization) {
	h = &DarcyHybridization{
		msh:       m,
		fesU:      fesU,
		fesP:      fesP,
		fesC:      fesC,
		bsym:      bsymmetrize,
		SolveMode: BestEffort,
		Log:       io.Discard,
	}
	return
}

// Height and Width size the reduced operator over the trace dofs.
func (h *DarcyHybridization) Height() int { return h.fesC.VSize() }
func (h *DarcyHybridization) Width() int  { return h.fesC.VSize() }

// blockSign is the single sign-convention lookup threaded through every
// block operation: +1 for the symmetrized system, -1 otherwise.
func (h *DarcyHybridization) blockSign() float64 {
	if h.bsym {
		return +1
	}
	return -1
}

// SetConstraintIntegrators registers the flux constraint and an optional
// linear potential constraint, selecting the linear regime.
func (h *DarcyHybridization) SetConstraintIntegrators(cFlux FluxConstraintIntegrator,
	cPot PotConstraintIntegrator) error {
	if h.mPotNL != nil {
		return ErrIncompatibleIntegrators
	}
	h.cFluxInteg = cFlux
	h.cPotInteg = cPot
	h.cPotNL = nil
	h.bnl = false
	return nil
}

// SetNonlinearConstraintIntegrators registers the flux constraint and a
// nonlinear potential constraint, selecting the nonlinear regime.
func (h *DarcyHybridization) SetNonlinearConstraintIntegrators(cFlux FluxConstraintIntegrator,
	cPot NonlinearPotConstraintIntegrator) {
	h.cFluxInteg = cFlux
	h.cPotInteg = nil
	h.cPotNL = cPot
	h.bnl = true
}

// SetPotMassNonlinearIntegrator registers a nonlinear potential mass term,
// selecting the nonlinear regime.
func (h *DarcyHybridization) SetPotMassNonlinearIntegrator(integ NonlinearElementIntegrator) error {
	if h.cPotInteg != nil {
		return ErrIncompatibleIntegrators
	}
	h.mPotNL = integ
	h.bnl = true
	return nil
}

func (h *DarcyHybridization) AddBdrFluxConstraintIntegrator(integ FluxConstraintIntegrator,
	marker BdrMarker) {
	h.bdrFluxIntegs = append(h.bdrFluxIntegs, integ)
	h.bdrFluxMarkers = append(h.bdrFluxMarkers, marker)
}

func (h *DarcyHybridization) AddBdrPotConstraintIntegrator(integ PotConstraintIntegrator,
	marker BdrMarker) {
	h.bdrPotIntegs = append(h.bdrPotIntegs, integ)
	h.bdrPotMarkers = append(h.bdrPotMarkers, marker)
}

// IsNonlinear reports whether the reduced operator is matrix-free.
func (h *DarcyHybridization) IsNonlinear() bool { return h.bnl }

// GetMatrix returns the assembled reduced operator. Only valid after
// Finalize in the linear regime.
func (h *DarcyHybridization) GetMatrix() utils.CSR { return h.H }

// Init sizes every arena from the essential flux dof list and the mesh
// topology, then builds the constraint matrix. Calling Init twice is a
// no-op until Reset.
func (h *DarcyHybridization) Init(essFluxDofs utils.Index) (err error) {
	if h.ctData != nil {
		return
	}
	var (
		NE = h.fesU.NumElements()
	)

	// Count hat dofs per element.
	hatCounts := make(utils.Index, NE)
	for el := 0; el < NE; el++ {
		hatCounts[el] = h.fesU.DofCount(el)
	}
	h.hatOffsets = utils.NewOffsets(hatCounts)

	// Mark "essential" (1) vs "free" (0) hat dofs. A hat dof is essential
	// when its underlying flux dof carries a prescribed value.
	freeDofs := make([]bool, h.fesU.VSize())
	for i := range freeDofs {
		freeDofs[i] = true
	}
	for _, d := range essFluxDofs {
		freeDofs[d] = false
	}
	h.hatDofsMarker = make([]DofClass, h.hatOffsets.Total())
	for el := 0; el < NE; el++ {
		o := h.hatOffsets.Start(el)
		for j, d := range h.fesU.ElementDofs(el) {
			if !freeDofs[d] {
				h.hatDofsMarker[o+j] = DofEssential
			}
		}
	}

	// Size Af by the free dof count of each element.
	afCounts := make(utils.Index, NE)
	afFCounts := make(utils.Index, NE)
	for el := 0; el < NE; el++ {
		fSize := 0
		for j := h.hatOffsets.Start(el); j < h.hatOffsets.Start(el + 1); j++ {
			if h.hatDofsMarker[j] != DofEssential {
				fSize++
			}
		}
		afCounts[el] = fSize * fSize
		afFCounts[el] = fSize
	}
	h.afOffsets = utils.NewOffsets(afCounts)
	h.afFOffsets = utils.NewOffsets(afFCounts)
	h.afData = make([]float64, h.afOffsets.Total())
	h.afIpiv = make([]int, h.afFOffsets.Total())

	// Assemble the constraint matrix C; this lazily re-marks free dofs as
	// "boundary" wherever their constraint row is nonzero.
	if err = h.buildConstraints(); err != nil {
		return
	}

	// Size the divergence, potential and essential-coupling arenas.
	bfCounts := make(utils.Index, NE)
	dfCounts := make(utils.Index, NE)
	dfFCounts := make(utils.Index, NE)
	aeCounts := make(utils.Index, NE)
	beCounts := make(utils.Index, NE)
	for el := 0; el < NE; el++ {
		fSize := h.afFOffsets.Count(el)
		dSize := h.fesP.DofCount(el)
		aSize := h.hatOffsets.Count(el)
		eSize := aSize - fSize
		bfCounts[el] = fSize * dSize
		dfCounts[el] = dSize * dSize
		dfFCounts[el] = dSize
		aeCounts[el] = eSize * aSize
		beCounts[el] = eSize * dSize
	}
	h.bfOffsets = utils.NewOffsets(bfCounts)
	h.dfOffsets = utils.NewOffsets(dfCounts)
	h.dfFOffsets = utils.NewOffsets(dfFCounts)
	h.aeOffsets = utils.NewOffsets(aeCounts)
	h.beOffsets = utils.NewOffsets(beCounts)

	h.bfData = make([]float64, h.bfOffsets.Total())
	if !h.bnl {
		h.dfData = make([]float64, h.dfOffsets.Total())
		h.dfIpiv = make([]int, h.dfFOffsets.Total())
	}
	h.aeData = make([]float64, h.aeOffsets.Total())
	h.beData = make([]float64, h.beOffsets.Total())

	// Only the linear potential constraint stores E/G blocks; the nonlinear
	// one evaluates its face terms as vectors inside the local solves.
	if h.cPotInteg != nil {
		h.allocEG()
	}
	if !h.bnl {
		h.hDOK = utils.NewDOK(h.Height(), h.Width())
	}
	return
}

// GetFDofs lists the free (non-essential) flux dofs of element el.
func (h *DarcyHybridization) GetFDofs(el int) (fdofs utils.Index) {
	var (
		o     = h.hatOffsets.Start(el)
		vdofs = h.fesU.ElementDofs(el)
	)
	fdofs = make(utils.Index, 0, len(vdofs))
	for i, d := range vdofs {
		if h.hatDofsMarker[o+i] != DofEssential {
			fdofs = append(fdofs, d)
		}
	}
	return
}

// GetEDofs lists the essential flux dofs of element el.
func (h *DarcyHybridization) GetEDofs(el int) (edofs utils.Index) {
	var (
		o     = h.hatOffsets.Start(el)
		vdofs = h.fesU.ElementDofs(el)
	)
	edofs = make(utils.Index, 0, len(vdofs))
	for i, d := range vdofs {
		if h.hatDofsMarker[o+i] == DofEssential {
			edofs = append(edofs, d)
		}
	}
	return
}

// Reset returns to the post-Init state: mutable block data is zeroed, the
// reduced operator is dropped, allocations and topology are kept.
func (h *DarcyHybridization) Reset() {
	h.bfin = false
	h.haveRHS = false
	zero(h.bfData)
	zero(h.dfData)
	zero(h.beData)
	zero(h.afData)
	zero(h.aeData)
	zero(h.eData)
	zero(h.gData)
	h.hDOK = utils.DOK{}
	h.H = utils.CSR{}
	if h.ctData != nil && !h.bnl {
		h.hDOK = utils.NewDOK(h.Height(), h.Width())
	}
}

func zero(data []float64) {
	for i := range data {
		data[i] = 0
	}
}
