// Package toy collects small one-shot (single decision round) games used
// to exercise the kernel's convergence properties independent of any
// particular domain: matching pennies, rock-paper-scissors, a strict-
// dominance sanity check, and an n-player symmetric game. Each is a
// one-round simultaneous-move game, modeled as a chance-free decision
// tree of depth equal to the player count: player 0 moves "first" in
// tree order, then player 1, and so on, but since none of them observe
// any earlier move (every InfoKey ignores history), the game is
// simultaneous in substance despite being sequential in tree shape —
// the standard trick for expressing simultaneous-move games as perfect-
// information-free extensive-form trees.
package toy

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/cfrkit/cfr"
)

// PayoffFunc computes every player's payoff given the full action
// profile (one action index per player, in player order).
type PayoffFunc func(moves []int) []float64

// Game is a generic simultaneous-move, single-round game: numPlayers
// players each pick one of numActions options (the same arity at every
// decision; see Game.LegalActions), with payoffs determined by payoff.
type Game struct {
	numPlayers int
	numActions int
	payoff     PayoffFunc
	labels     []string
}

// state records the moves chosen so far, in player order.
type state struct {
	moves []int
}

func (g Game) NumPlayers() int { return g.numPlayers }

func (g Game) InitialState() cfr.State {
	return state{moves: nil}
}

func (g Game) Classify(s cfr.State) cfr.Outcome {
	st := s.(state)
	if len(st.moves) == g.numPlayers {
		return cfr.Outcome{Kind: cfr.Terminal, Payoffs: g.payoff(st.moves)}
	}
	return cfr.Outcome{Kind: cfr.Decision, Player: len(st.moves)}
}

func (g Game) LegalActions(s cfr.State) []cfr.Action {
	out := make([]cfr.Action, g.numActions)
	for i := range out {
		label := fmt.Sprintf("a%d", i)
		if i < len(g.labels) {
			label = g.labels[i]
		}
		out[i] = cfr.Action{Label: label}
	}
	return out
}

func (g Game) Apply(s cfr.State, actionIndex int) cfr.State {
	st := s.(state)
	moves := make([]int, len(st.moves)+1)
	copy(moves, st.moves)
	moves[len(st.moves)] = actionIndex
	return state{moves: moves}
}

// SampleChance/EnumerateChance are never called: a Game with no chance
// nodes. They are implemented only to satisfy cfr.Game.
func (Game) SampleChance(s cfr.State, rng *rand.Rand) (cfr.State, float64) {
	panic("toy: SampleChance called on a chance-free game")
}

func (Game) EnumerateChance(s cfr.State) []cfr.ChanceOutcome { return nil }

// InfoKey ignores history entirely (every player moves without having
// observed anyone else), so each player has exactly one information set
// for the whole game — the defining property of a one-shot simultaneous
// game expressed as an extensive-form tree.
func (g Game) InfoKey(s cfr.State, player int) cfr.InfoKey {
	return infoKey{player: player}
}

type infoKey struct {
	player int
}

func (k infoKey) String() string { return fmt.Sprintf("player%d", k.player) }

func (k infoKey) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(k.player)})
	return h.Sum64()
}

// MatchingPennies is the classic 2-player, 2-action zero-sum game: both
// players reveal a coin face; player 0 wins if they match, player 1 wins
// if they differ. Its unique equilibrium is uniform [0.5, 0.5] for both
// players, making it a standard sanity check that a CFR implementation
// converges to a genuinely mixed equilibrium rather than collapsing to a
// pure strategy.
func MatchingPennies() cfr.Game {
	return Game{
		numPlayers: 2,
		numActions: 2,
		labels:     []string{"heads", "tails"},
		payoff: func(moves []int) []float64 {
			if moves[0] == moves[1] {
				return []float64{1, -1}
			}
			return []float64{-1, 1}
		},
	}
}

// RockPaperScissors is the 2-player, 3-action zero-sum game with the
// usual cyclic dominance (rock=0 beats scissors=2, paper=1 beats
// rock=0, scissors=2 beats paper=1), whose unique equilibrium is uniform
// [1/3, 1/3, 1/3] for both players.
func RockPaperScissors() cfr.Game {
	return Game{
		numPlayers: 2,
		numActions: 3,
		labels:     []string{"rock", "paper", "scissors"},
		payoff: func(moves []int) []float64 {
			a, b := moves[0], moves[1]
			if a == b {
				return []float64{0, 0}
			}
			if (a+1)%3 == b {
				// b beats a
				return []float64{-1, 1}
			}
			return []float64{1, -1}
		},
	}
}

// DominanceTest is a 2-player, 3-action game where action 0 strictly
// dominates actions 1 and 2 for both players (payoff 1 for playing
// action 0 regardless of the opponent's move, 0 otherwise), used to
// check that regret matching drives a dominant strategy's weight to
// near 1 quickly rather than converging slowly toward it.
func DominanceTest() cfr.Game {
	return Game{
		numPlayers: 2,
		numActions: 3,
		labels:     []string{"dominant", "weak_a", "weak_b"},
		payoff: func(moves []int) []float64 {
			out := make([]float64, 2)
			for p, m := range moves {
				if m == 0 {
					out[p] = 1
				}
			}
			return out
		},
	}
}

// SymmetricEightPlayer is an 8-player, 2-action general-sum game in
// which every player's payoff depends only on how many players (other
// than themselves) chose action 1: payoff is highest when exactly
// (n-1)/2 = 3 of the 7 OTHER players chose action 1, falling off linearly on
// either side, identical for every player by symmetry. Because the
// payoff function treats all players interchangeably, every player's
// equilibrium strategy at their (single, history-free) information set
// must be identical — the property the symmetric-toy scenario checks.
func SymmetricEightPlayer() cfr.Game {
	const n = 8
	return Game{
		numPlayers: n,
		numActions: 2,
		labels:     []string{"coordinate", "defect"},
		payoff: func(moves []int) []float64 {
			ones := 0
			for _, m := range moves {
				if m == 1 {
					ones++
				}
			}
			out := make([]float64, n)
			for p, m := range moves {
				othersOnes := ones
				if m == 1 {
					othersOnes--
				}
				target := (n - 1) / 2
				dist := othersOnes - target
				if dist < 0 {
					dist = -dist
				}
				out[p] = float64((n-1)/2 - dist)
			}
			return out
		},
	}
}
