// Package cfr implements a generic Counterfactual Regret Minimization
// engine for finite imperfect-information games.
//
// The core is parameterized over a Game: a small capability record (not
// a base class) that a client supplies. The kernel never inspects
// payoffs, private state, or action semantics beyond what Game exposes.
// See games/kuhn, games/toy, and games/preflop8max for clients.
package cfr

import "math/rand"

// NodeKind classifies a State as seen by Classify.
type NodeKind int

const (
	// Decision means some player must act.
	Decision NodeKind = iota
	// Chance means the next state is drawn from a chance distribution.
	Chance
	// Terminal means the game has ended; Outcome.Payoffs is valid.
	Terminal
)

// State is an opaque value supplied by a Game. The kernel requires only
// that it is cheap to pass around (a client typically uses a small value
// type or a pointer to an immutable struct) and is never mutated in
// place by Apply or SampleChance.
type State interface{}

// Outcome describes what Classify found at a State.
type Outcome struct {
	Kind NodeKind

	// Player is the acting player index, valid when Kind == Decision.
	Player int

	// Payoffs is the per-player payoff vector, valid when Kind == Terminal.
	// Length must equal Game.NumPlayers(). The kernel supports general-sum
	// games; it never assumes Payoffs sums to zero.
	Payoffs []float64
}

// Action is an opaque, display-only label for one of the legal actions
// at a decision node. The kernel addresses actions purely by their
// position (0..k-1) in the slice LegalActions returns; Action carries no
// semantics the kernel interprets, only a label used at export time.
type Action struct {
	Label string
}

// ChanceOutcome is one branch of a fully enumerated chance node.
type ChanceOutcome struct {
	State State
	Prob  float64
}

// InfoKey uniquely identifies one player's information set: everything
// that player knows at a decision point, canonicalized so
// indistinguishable situations collapse to equal keys. The game defines
// it; the kernel never interprets its contents, only compares and
// fingerprints it.
type InfoKey interface {
	// String returns a stable string form, used as the store's map key
	// and as the key emitted in solution snapshots.
	String() string

	// Fingerprint returns a cheap, well-distributed hash of this key,
	// used to pick a store shard. It need not be collision-free; the
	// store always falls back to exact string comparison.
	Fingerprint() uint64
}

// Game is the capability surface every client game must satisfy. It is a
// function table, not a base class: the kernel holds a Game value and
// calls through it, so a client needs no inheritance and no dependency
// on the cfr package's types beyond this interface.
type Game interface {
	// InitialState returns the root state of a new game instance.
	InitialState() State

	// Classify decides whether a state is terminal, chance, or a
	// decision point, and for which player.
	Classify(s State) Outcome

	// LegalActions returns the ordered, non-empty action list available
	// at a decision state. Must be deterministic given s: calling it
	// twice on the same state returns the same length and the same
	// labels, which fixes that infoset's per-action arity k.
	LegalActions(s State) []Action

	// Apply returns the state reached by taking the actionIndex'th legal
	// action at s. Pure: it must not mutate s, and calling Apply(s, i)
	// twice must return equal states.
	Apply(s State, actionIndex int) State

	// SampleChance draws one outcome of a chance node using rng and
	// returns the resulting state together with the probability under
	// which it was drawn. A game sampling directly from the true chance
	// distribution may always return probability 1.0; a game that biases
	// its sampling for variance reduction must return the true density
	// so the kernel can importance-weight it.
	SampleChance(s State, rng *rand.Rand) (State, float64)

	// EnumerateChance returns every outcome of a chance node together
	// with its probability, for games that support full chance
	// expansion (vanilla CFR). A nil or empty return tells the kernel
	// this game only supports sampling at this node.
	EnumerateChance(s State) []ChanceOutcome

	// InfoKey returns player's information key at s. Must only be
	// called at decision states where Classify(s).Player == player, or
	// at states the traversal needs to attribute to player's information
	// set (e.g. a sampled MCCFR traverser-node lookahead).
	InfoKey(s State, player int) InfoKey

	// NumPlayers returns the number of players in the game, p >= 1.
	NumPlayers() int
}

// HistoryLabeler is an optional Game extension. A game implementing it
// supplies a human-readable action history for a decision state, used
// only to populate the "history" field of an exported strategy entry.
type HistoryLabeler interface {
	HistoryLabel(s State) string
}
