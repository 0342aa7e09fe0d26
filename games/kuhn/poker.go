// Package kuhn implements Kuhn Poker as a cfr.Game client, adapted from
// timpalpant/go-cfr's kuhn package (itself credited there to
// https://justinsermeno.com/posts/cfr/) to the opaque-State function-table
// Game contract instead of a GameTreeNode tree of objects.
//
// Kuhn Poker is the standard three-card, two-player toy game used to
// check a CFR implementation against a known closed-form equilibrium: at
// equilibrium player 0 bets a Jack roughly 1/3 of the time and the game
// value to player 0 is exactly -1/18.
package kuhn

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/cfrkit/cfr"
)

// Card is one of the three cards in a Kuhn deck.
type Card int

const (
	Jack Card = iota
	Queen
	King
)

func (c Card) String() string {
	return [...]string{"J", "Q", "K"}[c]
}

// State is the full state of a Kuhn Poker hand: both players' private
// cards and the public action history so far. History characters are
// 'c' for check/call and 'b' for bet/call-a-bet, matching the original
// game's convention.
type State struct {
	P0, P1  Card
	History string
}

// Game implements cfr.Game for heads-up Kuhn Poker.
type Game struct{}

// NewGame returns a ready-to-use Kuhn Poker cfr.Game.
func NewGame() cfr.Game { return Game{} }

func (Game) NumPlayers() int { return 2 }

// InitialState returns the pre-deal state; dealing both cards is itself
// a chance node handled by Classify/EnumerateChance/SampleChance, so
// InitialState carries no cards yet.
func (Game) InitialState() cfr.State {
	return State{P0: -1, P1: -1, History: ""}
}

func (Game) Classify(s cfr.State) cfr.Outcome {
	st := s.(State)
	if st.P0 < 0 {
		return cfr.Outcome{Kind: cfr.Chance}
	}
	if isTerminal(st.History) {
		return cfr.Outcome{Kind: cfr.Terminal, Payoffs: payoffs(st)}
	}
	return cfr.Outcome{Kind: cfr.Decision, Player: turn(st.History)}
}

func isTerminal(h string) bool {
	switch h {
	case "cc", "cbc", "cbb", "bc", "bb":
		return true
	}
	return false
}

// turn returns the acting player given the history so far: player 0
// acts on even-length histories, player 1 on odd.
func turn(h string) int {
	return len(h) % 2
}

func (Game) LegalActions(s cfr.State) []cfr.Action {
	return []cfr.Action{{Label: "check_or_call"}, {Label: "bet_or_raise"}}
}

func (Game) Apply(s cfr.State, actionIndex int) cfr.State {
	st := s.(State)
	c := byte('c')
	if actionIndex == 1 {
		c = 'b'
	}
	st.History = st.History + string(c)
	return st
}

// EnumerateChance enumerates the 6 equally likely card deals at the root
// (vanilla CFR's full chance expansion).
func (Game) EnumerateChance(s cfr.State) []cfr.ChanceOutcome {
	st := s.(State)
	if st.P0 >= 0 {
		return nil
	}
	outcomes := make([]cfr.ChanceOutcome, 0, 6)
	for p0 := Jack; p0 <= King; p0++ {
		for p1 := Jack; p1 <= King; p1++ {
			if p0 == p1 {
				continue
			}
			outcomes = append(outcomes, cfr.ChanceOutcome{
				State: State{P0: p0, P1: p1, History: ""},
				Prob:  1.0 / 6.0,
			})
		}
	}
	return outcomes
}

// SampleChance draws one of the 6 deals uniformly.
func (Game) SampleChance(s cfr.State, rng *rand.Rand) (cfr.State, float64) {
	outcomes := Game{}.EnumerateChance(s)
	return outcomes[rng.Intn(len(outcomes))].State, 1.0 / 6.0
}

func (Game) InfoKey(s cfr.State, player int) cfr.InfoKey {
	st := s.(State)
	card := st.P0
	if player == 1 {
		card = st.P1
	}
	return infoKey{card: card, history: st.History}
}

// HistoryLabel implements cfr.HistoryLabeler for export readability.
func (Game) HistoryLabel(s cfr.State) string {
	return s.(State).History
}

func playerCard(st State, player int) Card {
	if player == 0 {
		return st.P0
	}
	return st.P1
}

// payoffs implements Kuhn Poker's showdown/fold payoff table, by
// convention labeling terminal histories with the player whose turn it
// would be (i.e. not the last acting player), matching the source this
// is adapted from.
func payoffs(st State) []float64 {
	actingPlayer := turn(st.History)
	cardActing := playerCard(st, actingPlayer)
	cardOther := playerCard(st, 1-actingPlayer)

	var actingPayoff float64
	switch st.History {
	case "bc", "cbc":
		// The other player folded to a bet; actingPlayer takes the pot.
		actingPayoff = 1.0
	case "cc":
		actingPayoff = showdown(cardActing, cardOther, 1.0)
	case "cbb", "bb":
		actingPayoff = showdown(cardActing, cardOther, 2.0)
	default:
		panic("kuhn: unreachable terminal history " + st.History)
	}

	out := make([]float64, 2)
	out[actingPlayer] = actingPayoff
	out[1-actingPlayer] = -actingPayoff
	return out
}

func showdown(mine, theirs Card, pot float64) float64 {
	if mine > theirs {
		return pot
	}
	return -pot
}

type infoKey struct {
	card    Card
	history string
}

func (k infoKey) String() string {
	return fmt.Sprintf("%s|%s", k.card, k.history)
}

func (k infoKey) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(k.card)})
	h.Write([]byte(k.history))
	return h.Sum64()
}
