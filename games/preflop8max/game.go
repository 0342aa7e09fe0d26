// Package preflop8max implements a simplified 8-max no-limit hold'em
// preflop game against the cfr.Game contract: up to 8 players acting in
// position, each with a private two-card starting hand, folding, calling,
// or raising to one of a small set of bet sizes, with showdown value
// approximated by hand-class equity rather than full range-vs-range
// enumeration.
//
// Card-evaluation lookup tables are explicitly out of scope for this
// repository; this package follows the same approach the system this
// spec was distilled from uses: collapse each two-card hand to one of
// its 169 strategically-distinct starting-hand classes (e.g. "AKs",
// "72o") and look up that class's all-in equity against a random hand
// from a small static table, discounted for the number of players still
// live at showdown. This keeps the equity approximation entirely inside
// the game implementation; the kernel never sees anything but
// Classify(state) -> Terminal(payoffs).
package preflop8max

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/cfrkit/cfr"
)

// Rank is a card rank, 0 (deuce) through 12 (ace).
type Rank int

const numRanks = 13

func (r Rank) String() string {
	return "23456789TJQKA"[r : r+1]
}

// HoleCards is a player's two-card starting hand, canonicalized to its
// strategic class: the two ranks (high first) and whether they are
// suited.
type HoleCards struct {
	High, Low Rank
	Suited    bool
}

// ClassLabel returns the standard 169-class starting-hand label, e.g.
// "AKs", "72o", "TT".
func (h HoleCards) ClassLabel() string {
	if h.High == h.Low {
		return h.High.String() + h.Low.String()
	}
	suffix := "o"
	if h.Suited {
		suffix = "s"
	}
	return h.High.String() + h.Low.String() + suffix
}

// Street isn't modeled beyond preflop: this game ends at the preflop
// betting round, either by fold-out or by reaching showdown after the
// final call, matching the original's scope of a preflop-only trainer.
type betKind int

const (
	betFold betKind = iota
	betCall
	betRaise
)

// raiseSizes are absolute raise-to amounts in big blinds; a size is legal
// only while it exceeds the current bet to call, giving a small, bounded
// per-decision action count regardless of
// stack depth — the standard simplification used to keep preflop bet
// trees tractable for CFR.
var raiseSizes = []float64{2.5, 3.5, 6.0} // raise-to, in big blinds, from an unopened pot

const (
	startingStackBB = 100.0
	smallBlindBB    = 0.5
	bigBlindBB      = 1.0
)

// action is one legal choice at a decision node: fold, call/check, or
// raise to a specific size (in big blinds).
type action struct {
	kind   betKind
	raiseTo float64
}

// State is the full preflop hand state: every player's hole cards (only
// revealed to that player via InfoKey), who has folded, each player's
// amount committed this hand, the current bet to call, and the index of
// the player to act next (not consulted before the deal or once betting
// is closed).
type State struct {
	dealt     bool
	hands     [maxPlayers]HoleCards
	folded    [maxPlayers]bool
	committed [maxPlayers]float64
	toCall    float64
	acted     int // number of live players who have acted since the last raise
	nextToAct int
	numPlayers int
}

const maxPlayers = 8

// Game implements cfr.Game for n-max (n<=8) preflop play.
type Game struct {
	numPlayers int
}

// NewGame returns an n-max preflop Game, 2 <= n <= 8.
func NewGame(n int) cfr.Game {
	if n < 2 {
		n = 2
	}
	if n > maxPlayers {
		n = maxPlayers
	}
	return Game{numPlayers: n}
}

func (g Game) NumPlayers() int { return g.numPlayers }

func (g Game) InitialState() cfr.State {
	return State{numPlayers: g.numPlayers}
}

func (g Game) Classify(s cfr.State) cfr.Outcome {
	st := s.(State)
	if !st.dealt {
		return cfr.Outcome{Kind: cfr.Chance}
	}
	if bettingClosed(st) {
		return cfr.Outcome{Kind: cfr.Terminal, Payoffs: settle(st)}
	}
	return cfr.Outcome{Kind: cfr.Decision, Player: st.nextToAct}
}

// bettingClosed reports whether the preflop betting round has ended:
// either only one player remains unfolded, or every live player has
// matched toCall and has had at least one chance to act since the last
// raise.
func bettingClosed(st State) bool {
	live := 0
	for p := 0; p < st.numPlayers; p++ {
		if !st.folded[p] {
			live++
		}
	}
	if live <= 1 {
		return true
	}
	return st.acted >= live
}

func (g Game) actionsAt(st State) []action {
	acts := []action{{kind: betFold}, {kind: betCall}}
	stack := startingStackBB - st.committed[st.nextToAct]
	for _, size := range raiseSizes {
		if size > st.toCall && size <= stack+st.committed[st.nextToAct] {
			acts = append(acts, action{kind: betRaise, raiseTo: size})
		}
	}
	return acts
}

func (g Game) LegalActions(s cfr.State) []cfr.Action {
	st := s.(State)
	acts := g.actionsAt(st)
	out := make([]cfr.Action, len(acts))
	for i, a := range acts {
		switch a.kind {
		case betFold:
			out[i] = cfr.Action{Label: "fold"}
		case betCall:
			if st.toCall == 0 {
				out[i] = cfr.Action{Label: "check"}
			} else {
				out[i] = cfr.Action{Label: "call"}
			}
		case betRaise:
			out[i] = cfr.Action{Label: fmt.Sprintf("raise_to_%.1fbb", a.raiseTo)}
		}
	}
	return out
}

func (g Game) Apply(s cfr.State, actionIndex int) cfr.State {
	st := s.(State)
	acts := g.actionsAt(st)
	a := acts[actionIndex]
	p := st.nextToAct

	switch a.kind {
	case betFold:
		st.folded[p] = true
	case betCall:
		st.committed[p] = st.toCall
		st.acted++
	case betRaise:
		st.committed[p] = a.raiseTo
		st.toCall = a.raiseTo
		st.acted = 1 // everyone else must act again
	}

	st.nextToAct = nextLivePlayer(st, p)
	return st
}

func nextLivePlayer(st State, from int) int {
	for i := 1; i <= st.numPlayers; i++ {
		p := (from + i) % st.numPlayers
		if !st.folded[p] {
			return p
		}
	}
	return from
}

// EnumerateChance is nil: an 8-max deal has far too many hole-card
// combinations to enumerate exhaustively, so this game supports only
// sampled chance (MCCFR variants), not vanilla full-tree CFR.
func (Game) EnumerateChance(s cfr.State) []cfr.ChanceOutcome { return nil }

func (g Game) SampleChance(s cfr.State, rng *rand.Rand) (cfr.State, float64) {
	st := s.(State)
	deck := shuffledDeck(rng)
	idx := 0
	for p := 0; p < st.numPlayers; p++ {
		c0, c1 := deck[idx], deck[idx+1]
		idx += 2
		st.hands[p] = canonicalize(c0, c1)
	}
	st.dealt = true
	st.toCall = bigBlindBB
	st.committed[0] = smallBlindBB
	if st.numPlayers > 1 {
		st.committed[1] = bigBlindBB
	}
	st.nextToAct = 2 % st.numPlayers
	if st.numPlayers == 2 {
		st.nextToAct = 0
	}
	return st, 1.0
}

// shuffledDeck returns 52 cards as (rank, suit) pairs, rank in 0..12,
// suit in 0..3, Fisher-Yates shuffled.
func shuffledDeck(rng *rand.Rand) [][2]int {
	deck := make([][2]int, 0, 52)
	for r := 0; r < numRanks; r++ {
		for suit := 0; suit < 4; suit++ {
			deck = append(deck, [2]int{r, suit})
		}
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

func canonicalize(c0, c1 [2]int) HoleCards {
	r0, r1 := Rank(c0[0]), Rank(c1[0])
	suited := c0[1] == c1[1]
	if r0 < r1 {
		r0, r1 = r1, r0
	}
	return HoleCards{High: r0, Low: r1, Suited: suited}
}

func (g Game) InfoKey(s cfr.State, player int) cfr.InfoKey {
	st := s.(State)
	return infoKey{
		class:  st.hands[player].ClassLabel(),
		player: player,
		label:  historyString(st),
	}
}

func (Game) HistoryLabel(s cfr.State) string {
	return historyString(s.(State))
}

func historyString(st State) string {
	out := ""
	for p := 0; p < st.numPlayers; p++ {
		switch {
		case st.folded[p]:
			out += "f"
		case st.committed[p] == st.toCall && st.committed[p] > 0:
			out += "c"
		default:
			out += "-"
		}
	}
	return out
}

type infoKey struct {
	class  string
	player int
	label  string
}

func (k infoKey) String() string {
	return fmt.Sprintf("p%d|%s|%s", k.player, k.class, k.label)
}

func (k infoKey) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(k.player)})
	h.Write([]byte(k.class))
	h.Write([]byte(k.label))
	return h.Sum64()
}
