package cfr

import (
	"math/rand"
	"sync"

	"github.com/cfrkit/cfr/internal/f64"
)

// Monitor computes the two convergence signals of §4.F: a cheap
// Convergence Indicator taken from the store alone, and an expensive
// Exploitability computed by a full best-response tree walk (grounded on
// original_source/src/cfr/solver.rs's best-response pass, adapted here
// to the opaque-State Game interface). Neither method mutates the store
// or the game; both are safe to call concurrently with an ongoing solve,
// with the same eventually-consistent read semantics Store.Freeze has.
type Monitor struct {
	mu       sync.Mutex
	snapshot map[string][]float64
}

// NewMonitor creates a Monitor with no prior snapshot; its first
// ConvergenceIndicator call establishes the baseline and reports the
// max-change-from-uniform for every infoset touched so far (§4.F "new
// infosets = max-change-from-uniform").
func NewMonitor() *Monitor {
	return &Monitor{snapshot: make(map[string][]float64)}
}

// ConvergenceIndicator returns the average L1 change in current strategy
// across every infoset in the store since the last call, per §4.F / SPEC_FULL
// §12.2: for an infoset seen before, the change is
// L1(currentStrategy, previousStrategy); for one seen for the first
// time, the change is L1(currentStrategy, uniform). The denominator is
// the number of infosets compared this call, so CI is scale-free with
// respect to store size.
func (m *Monitor) ConvergenceIndicator(store *Store) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total float64
	var n int
	store.Walk(func(r *Record) {
		cur := r.CurrentStrategy()
		prev, ok := m.snapshot[r.Key().String()]
		if !ok {
			prev = uniformDist(len(cur))
		}
		total += f64.L1Diff(cur, prev)
		n++
		m.snapshot[r.Key().String()] = cur
	})

	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Exploitability computes sum over players of (best-response value for
// that player against every other player's average strategy) minus the
// game value, via a full recursive best-response tree pass (§4.F). It is
// the expensive, exact convergence signal and is intended to be called
// far less often than ConvergenceIndicator, typically only at the end of
// a solve or on a long ReportInterval, since its cost is proportional to
// the size of the full game tree rather than to the store's visited
// subset.
//
// Games too large to enumerate exhaustively (e.g. games/preflop8max)
// should not set Config.TargetExploitability; EnumerateChance returning
// nil/empty at a chance node makes this walk fall back to a single
// sampled chance branch, which turns the result into an approximation
// rather than an exact exploitability figure.
func (m *Monitor) Exploitability(game Game, store *Store) float64 {
	players := game.NumPlayers()
	var total float64
	for p := 0; p < players; p++ {
		total += bestResponseValue(game, store, p, game.InitialState(), 1.0)
	}
	gameValue := averageStrategyValue(game, store, game.InitialState(), make([]float64, players), 1.0)
	return total - f64.Sum(gameValue)
}

// bestResponseValue returns player p's expected payoff when p plays a
// best response and every other player plays their frozen average
// strategy, starting from s.
func bestResponseValue(game Game, store *Store, p int, s State, reach float64) float64 {
	outcome := game.Classify(s)
	switch outcome.Kind {
	case Terminal:
		return outcome.Payoffs[p]
	case Chance:
		return expectedOverChance(game, s, func(child State, prob float64) float64 {
			return bestResponseValue(game, store, p, child, reach*prob)
		})
	default:
		actions := game.LegalActions(s)
		if outcome.Player == p {
			best := negInf
			for a := range actions {
				v := bestResponseValue(game, store, p, game.Apply(s, a), reach)
				if v > best {
					best = v
				}
			}
			return best
		}
		sigma := averageStrategyAt(game, store, s, outcome.Player)
		var ev float64
		for a := range actions {
			ev += sigma[a] * bestResponseValue(game, store, p, game.Apply(s, a), reach)
		}
		return ev
	}
}

// averageStrategyValue returns the per-player expected payoff vector
// when every player plays their frozen average strategy from s.
func averageStrategyValue(game Game, store *Store, s State, out []float64, reach float64) []float64 {
	outcome := game.Classify(s)
	switch outcome.Kind {
	case Terminal:
		copy(out, outcome.Payoffs)
		return out
	case Chance:
		acc := make([]float64, len(out))
		expectedVectorOverChance(game, s, func(child State, prob float64) {
			childV := averageStrategyValue(game, store, child, make([]float64, len(out)), reach*prob)
			for i := range acc {
				acc[i] += prob * childV[i]
			}
		})
		copy(out, acc)
		return out
	default:
		actions := game.LegalActions(s)
		sigma := averageStrategyAt(game, store, s, outcome.Player)
		acc := make([]float64, len(out))
		for a := range actions {
			childV := averageStrategyValue(game, store, game.Apply(s, a), make([]float64, len(out)), reach)
			for i := range acc {
				acc[i] += sigma[a] * childV[i]
			}
		}
		copy(out, acc)
		return out
	}
}

// averageStrategyAt reads player's average strategy at s without
// mutating the store: an infoset the solve never visited (possible
// under a sampling variant, or a store frozen mid-solve) has no
// Record yet, and the best-response walk must still be able to reach
// past it, so an absent key reports uniform rather than being created.
func averageStrategyAt(game Game, store *Store, s State, player int) []float64 {
	actions := game.LegalActions(s)
	key := game.InfoKey(s, player)
	rec, ok := store.Lookup(key)
	if !ok {
		return uniformDist(len(actions))
	}
	return rec.AverageStrategy()
}

func expectedOverChance(game Game, s State, f func(State, float64) float64) float64 {
	outcomes := game.EnumerateChance(s)
	if len(outcomes) == 0 {
		child, _ := game.SampleChance(s, fallbackRNG())
		return f(child, 1.0)
	}
	var ev float64
	for _, o := range outcomes {
		ev += o.Prob * f(o.State, o.Prob)
	}
	return ev
}

func expectedVectorOverChance(game Game, s State, f func(State, float64)) {
	outcomes := game.EnumerateChance(s)
	if len(outcomes) == 0 {
		child, _ := game.SampleChance(s, fallbackRNG())
		f(child, 1.0)
		return
	}
	for _, o := range outcomes {
		f(o.State, o.Prob)
	}
}

const negInf = -1.7976931348623157e+308

// fallbackRNG backs the rare case where Exploitability walks into a
// chance node whose game only supports SampleChance, not
// EnumerateChance: the best-response pass needs an exact expectation, so
// this degrades to a single sampled branch rather than the true sum (see
// Exploitability's doc comment).
func fallbackRNG() *rand.Rand {
	return rand.New(rand.NewSource(rand.Int63()))
}
