package kuhn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cfrkit/cfr"
)

func TestGameTreeShape(t *testing.T) {
	g := Game{}
	root := g.InitialState()
	require.Equal(t, cfr.Chance, g.Classify(root).Kind)

	outcomes := g.EnumerateChance(root)
	require.Len(t, outcomes, 6, "3 cards x 2 remaining cards for the opponent")
	for _, o := range outcomes {
		require.InDelta(t, 1.0/6.0, o.Prob, 1e-9)
	}
}

func TestTerminalHistoriesAndPayoffsAreZeroSum(t *testing.T) {
	g := Game{}
	histories := []string{"cc", "bc", "bb", "cbc", "cbb"}
	for _, h := range histories {
		st := State{P0: King, P1: Queen, History: h}
		outcome := g.Classify(st)
		require.Equal(t, cfr.Terminal, outcome.Kind, h)
		require.Len(t, outcome.Payoffs, 2)
		require.InDelta(t, 0.0, outcome.Payoffs[0]+outcome.Payoffs[1], 1e-9, h)
	}
}

func TestFoldedPlayerLosesRegardlessOfCards(t *testing.T) {
	g := Game{}
	// History "bc": player0 bets, player1 folds by checking. Player0
	// should win the pot (+1) even holding the lower card.
	st := State{P0: Jack, P1: King, History: "bc"}
	outcome := g.Classify(st)
	require.Equal(t, 1.0, outcome.Payoffs[0])
	require.Equal(t, -1.0, outcome.Payoffs[1])
}

func TestShowdownHigherCardWins(t *testing.T) {
	g := Game{}
	st := State{P0: King, P1: Jack, History: "cc"}
	outcome := g.Classify(st)
	require.Equal(t, 1.0, outcome.Payoffs[0])
	require.Equal(t, -1.0, outcome.Payoffs[1])
}

func TestInfoKeyIgnoresOpponentCard(t *testing.T) {
	g := Game{}
	k1 := g.InfoKey(State{P0: Jack, P1: Queen, History: "c"}, 0)
	k2 := g.InfoKey(State{P0: Jack, P1: King, History: "c"}, 0)
	require.Equal(t, k1.String(), k2.String())
}

func TestInfoKeyFingerprintIsStable(t *testing.T) {
	g := Game{}
	k := g.InfoKey(State{P0: Queen, P1: King, History: "cb"}, 0)
	require.Equal(t, k.Fingerprint(), k.Fingerprint())
}
