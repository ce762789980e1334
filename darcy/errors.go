package darcy

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFinalized is returned when the reduced operator is used before
	// Finalize has factorized the local blocks.
	ErrNotFinalized = errors.New("hybridization must be finalized first")

	// ErrNoConstraintIntegrator is returned by Init when no flux constraint
	// integrator was supplied; there is no algebraic fallback.
	ErrNoConstraintIntegrator = errors.New("no flux constraint integrator supplied")

	// ErrIncompatibleIntegrators flags a nonlinear potential mass combined
	// with a linear potential constraint, or vice versa.
	ErrIncompatibleIntegrators = errors.New("nonlinear potential mass cannot work with a linear potential constraint")

	// ErrNoReducedRHS is returned by the matrix-free Mult when no block
	// right hand side has been stored by ReduceRHS.
	ErrNoReducedRHS = errors.New("no stored right-hand side; call ReduceRHS first")
)

// SingularBlockError reports a failed local factorization, identifying the
// element so the caller can locate the degenerate block.
type SingularBlockError struct {
	Elem  int
	Block string // "A" or "S"
	Size  int
}

func (e *SingularBlockError) Error() string {
	return fmt.Sprintf("singular local block %s of size %d on element %d", e.Block, e.Size, e.Elem)
}

// NonConvergenceError reports a local nonlinear solve that exhausted its
// iteration budget. It is surfaced only in Strict mode; in BestEffort mode
// the condition is logged and the best available iterate is used.
type NonConvergenceError struct {
	Elem          int
	Iters         int
	ResidualRatio float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("local nonlinear solve on element %d did not converge after %d iterations, residual ratio %g",
		e.Elem, e.Iters, e.ResidualRatio)
}

// LocalSolveMode selects how local nonlinear non-convergence propagates.
type LocalSolveMode int

const (
	// BestEffort logs non-convergence and continues with the last iterate.
	BestEffort LocalSolveMode = iota
	// Strict turns non-convergence into a NonConvergenceError.
	Strict
)
