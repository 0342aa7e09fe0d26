package preflop8max

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cfrkit/cfr"
)

func TestInitialStateIsAChanceNode(t *testing.T) {
	g := NewGame(6)
	require.Equal(t, cfr.Chance, g.Classify(g.InitialState()).Kind)
}

func TestSampleChanceDealsHandsAndPostsBlinds(t *testing.T) {
	g := NewGame(6)
	rng := rand.New(rand.NewSource(1))
	dealt, prob := g.SampleChance(g.InitialState(), rng)
	require.Equal(t, 1.0, prob)

	st := dealt.(State)
	require.True(t, st.dealt)
	require.Equal(t, smallBlindBB, st.committed[0])
	require.Equal(t, bigBlindBB, st.committed[1])
	require.Equal(t, bigBlindBB, st.toCall)

	outcome := g.Classify(dealt)
	require.Equal(t, cfr.Decision, outcome.Kind)
}

func TestFoldingToOnePlayerEndsTheHand(t *testing.T) {
	g := NewGame(3).(Game)
	st := g.InitialState().(State)
	st.numPlayers = 3
	st.dealt = true
	st.toCall = bigBlindBB
	st.committed[0] = smallBlindBB
	st.committed[1] = bigBlindBB
	st.nextToAct = 2

	// Player 2 folds.
	actions := g.LegalActions(st)
	foldIdx := -1
	for i, a := range actions {
		if a.Label == "fold" {
			foldIdx = i
		}
	}
	require.GreaterOrEqual(t, foldIdx, 0)
	st = g.Apply(st, foldIdx).(State)

	// Player 0 folds, leaving only player 1 live.
	actions = g.LegalActions(st)
	for i, a := range actions {
		if a.Label == "fold" {
			foldIdx = i
		}
	}
	st = g.Apply(st, foldIdx).(State)

	outcome := g.Classify(st)
	require.Equal(t, cfr.Terminal, outcome.Kind)
	require.Greater(t, outcome.Payoffs[1], 0.0)
	require.Less(t, outcome.Payoffs[0], 0.0)
}

func TestHoleCardClassLabel(t *testing.T) {
	require.Equal(t, "AKs", HoleCards{High: 12, Low: 11, Suited: true}.ClassLabel())
	require.Equal(t, "AKo", HoleCards{High: 12, Low: 11, Suited: false}.ClassLabel())
	require.Equal(t, "AA", HoleCards{High: 12, Low: 12, Suited: false}.ClassLabel())
}

func TestSettleZeroSumAcrossAllPlayers(t *testing.T) {
	st := State{numPlayers: 3}
	st.committed[0] = 10
	st.committed[1] = 10
	st.committed[2] = 10
	st.hands[0] = HoleCards{High: 12, Low: 12} // AA
	st.hands[1] = HoleCards{High: 5, Low: 4}
	st.hands[2] = HoleCards{High: 1, Low: 0}

	payoffs := settle(st)
	var total float64
	for _, p := range payoffs {
		total += p
	}
	require.InDelta(t, 0.0, total, 1e-9)
}

func TestSettlePaysFoldedOutPotToSoleSurvivor(t *testing.T) {
	st := State{numPlayers: 3}
	st.committed[0] = 10
	st.committed[1] = 5
	st.committed[2] = 5
	st.folded[1] = true
	st.folded[2] = true

	payoffs := settle(st)
	require.Equal(t, 10.0, payoffs[0])
	require.Equal(t, -5.0, payoffs[1])
	require.Equal(t, -5.0, payoffs[2])
}

func TestHandEquityPocketAcesHighestAmongPairs(t *testing.T) {
	require.Greater(t, handEquity("AA"), handEquity("22"))
	for class, eq := range pairEquity {
		if class != "AA" {
			require.Greater(t, handEquity("AA"), eq, class)
		}
	}
	require.Greater(t, handEquity("AKs"), handEquity("72o"))
}
