package cfr

import (
	"fmt"

	"github.com/pkg/errors"
)

// GameContractViolation is returned when a client Game breaks one of the
// preconditions the kernel relies on: LegalActions returned zero actions
// at a decision node, an infoset's action arity k changed across visits,
// or a terminal state reported a non-finite payoff. It is fatal: the
// driver aborts the solve and attaches the offending information key.
type GameContractViolation struct {
	InfoKey   string
	Iteration int
	Worker    int
	Reason    string
}

func (e *GameContractViolation) Error() string {
	return fmt.Sprintf("game contract violation at infoset %q (iteration %d, worker %d): %s",
		e.InfoKey, e.Iteration, e.Worker, e.Reason)
}

// NewGameContractViolation wraps a GameContractViolation with a stack
// trace via github.com/pkg/errors, so the driver can surface full
// diagnostic context (§7) without the caller needing to annotate it.
func NewGameContractViolation(infoKey string, iteration, worker int, reason string) error {
	return errors.WithStack(&GameContractViolation{
		InfoKey:   infoKey,
		Iteration: iteration,
		Worker:    worker,
		Reason:    reason,
	})
}

// NumericalInstability is returned when a NaN or Infinity is detected in
// a record's regret or strategy-sum vector. Fatal and not recovered
// locally: it indicates the client game returned a bad payoff, or the
// configured weighting scheme produced overflow.
type NumericalInstability struct {
	InfoKey   string
	Iteration int
	Worker    int
	Field     string // "regret" or "strategy_sum"
}

func (e *NumericalInstability) Error() string {
	return fmt.Sprintf("numerical instability in %s at infoset %q (iteration %d, worker %d)",
		e.Field, e.InfoKey, e.Iteration, e.Worker)
}

func NewNumericalInstability(infoKey string, iteration, worker int, field string) error {
	return errors.WithStack(&NumericalInstability{
		InfoKey:   infoKey,
		Iteration: iteration,
		Worker:    worker,
		Field:     field,
	})
}

// StopReason records why the iteration driver stopped. Cancellation and
// budget exhaustion are non-error outcomes: the driver unwinds to a
// valid, exportable snapshot rather than returning an error.
type StopReason string

const (
	StopIterationsReached   StopReason = "iterations_reached"
	StopWallClockExhausted  StopReason = "wall_clock_exhausted"
	StopConvergenceReached  StopReason = "convergence_reached"
	StopCancellationRequest StopReason = "cancellation_requested"
)

// IsFatal reports whether err represents a fatal, unrecovered condition
// (GameContractViolation or NumericalInstability) as opposed to a normal
// stop reason.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var gcv *GameContractViolation
	var ni *NumericalInstability
	return errors.As(err, &gcv) || errors.As(err, &ni)
}
