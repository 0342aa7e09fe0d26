package toy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cfrkit/cfr"
)

func TestMatchingPenniesIsZeroSum(t *testing.T) {
	g := MatchingPennies()
	cases := [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	for _, mv := range cases {
		st := state{moves: []int{mv[0], mv[1]}}
		outcome := g.Classify(st)
		require.Equal(t, cfr.Terminal, outcome.Kind)
		require.InDelta(t, 0.0, outcome.Payoffs[0]+outcome.Payoffs[1], 1e-9)
	}
}

func TestRockPaperScissorsCyclicDominance(t *testing.T) {
	g := RockPaperScissors()
	rock, paper, scissors := 0, 1, 2

	beats := func(a, b int) {
		outcome := g.Classify(state{moves: []int{a, b}})
		require.Greater(t, outcome.Payoffs[0], 0.0)
	}
	beats(rock, scissors)
	beats(paper, rock)
	beats(scissors, paper)
}

func TestDominanceTestPayoffs(t *testing.T) {
	g := DominanceTest()
	outcome := g.Classify(state{moves: []int{0, 1}})
	require.Equal(t, 1.0, outcome.Payoffs[0])
	require.Equal(t, 0.0, outcome.Payoffs[1])
}

func TestSymmetricEightPlayerTreatsAllPlayersIdentically(t *testing.T) {
	g := SymmetricEightPlayer().(Game)
	require.Equal(t, 8, g.NumPlayers())

	moves := []int{1, 1, 1, 1, 0, 0, 0, 0}
	out := g.payoff(moves)
	require.Len(t, out, 8)
	// Every player sees exactly 4 ones total; the 4 who chose 1 see 3
	// ones among the others, the 4 who chose 0 see 4 ones among the
	// others, so payoffs split into exactly two distinct values.
	require.Equal(t, out[0], out[1])
	require.Equal(t, out[4], out[5])
}

func TestOneShotGameTreeIsExactlyNumPlayersDeep(t *testing.T) {
	g := MatchingPennies()
	s := g.InitialState()
	for p := 0; p < g.NumPlayers(); p++ {
		outcome := g.Classify(s)
		require.Equal(t, cfr.Decision, outcome.Kind)
		require.Equal(t, p, outcome.Player)
		s = g.Apply(s, 0)
	}
	require.Equal(t, cfr.Terminal, g.Classify(s).Kind)
}
