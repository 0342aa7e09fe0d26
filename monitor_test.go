package cfr_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cfrkit/cfr"
	"github.com/cfrkit/cfr/games/kuhn"
)

func TestConvergenceIndicatorIsNonNegativeBeforeAndAfterTraining(t *testing.T) {
	game := kuhn.NewGame()
	mon := cfr.NewMonitor()

	cfg := cfr.VanillaConfig(200)
	d, err := cfr.NewDriver(game, cfg)
	require.NoError(t, err)
	d.Monitor = mon

	firstCI := mon.ConvergenceIndicator(d.Store) // empty store: nothing compared, 0
	_, err = d.Run(context.Background())
	require.NoError(t, err)

	afterTraining := mon.ConvergenceIndicator(d.Store)
	require.GreaterOrEqual(t, firstCI, 0.0)
	require.GreaterOrEqual(t, afterTraining, 0.0)
}

func TestExploitabilityOfSolvedKuhnIsSmall(t *testing.T) {
	game := kuhn.NewGame()
	cfg := cfr.VanillaConfig(20000)
	d, err := cfr.NewDriver(game, cfg)
	require.NoError(t, err)

	_, err = d.Run(context.Background())
	require.NoError(t, err)

	mon := cfr.NewMonitor()
	exploitability := mon.Exploitability(game, d.Store)
	require.Less(t, exploitability, 0.05)
}
