package cfr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWeightingDiscountFactors(t *testing.T) {
	t.Run("uniform weighting never discounts", func(t *testing.T) {
		w := Weighting{Kind: WeightingUniform}
		pos, neg, sum := w.DiscountFactors(37, false)
		require.Equal(t, 1.0, pos)
		require.Equal(t, 1.0, neg)
		require.Equal(t, 1.0, sum)
	})

	t.Run("CFR+ zeroes negative regret regardless of weighting kind", func(t *testing.T) {
		w := Weighting{Kind: WeightingLinear}
		_, neg, _ := w.DiscountFactors(10, true)
		require.Equal(t, 0.0, neg)
	})

	t.Run("linear weighting discounts strategy sum by t/(t+1)", func(t *testing.T) {
		w := Weighting{Kind: WeightingLinear}
		_, _, sum := w.DiscountFactors(3, false)
		require.InDelta(t, 0.75, sum, 1e-9)
	})

	t.Run("discounted weighting approaches 1 for positive regret as t grows", func(t *testing.T) {
		w := Weighting{Kind: WeightingDiscounted, Alpha: 1.5, Beta: 0, Gamma: 2}
		posEarly, _, _ := w.DiscountFactors(1, false)
		posLate, _, _ := w.DiscountFactors(10000, false)
		require.Less(t, posEarly, posLate)
		require.Less(t, posLate, 1.0)
	})
}

func TestWeightingIterationWeight(t *testing.T) {
	// Every scheme folds its iteration weighting into DiscountFactors'
	// strategySumDiscount instead, applied once per iteration rather
	// than once per touch; IterationWeight always returns 1 to avoid
	// compounding the two into a quadratic weight.
	require.Equal(t, 1.0, Weighting{Kind: WeightingUniform}.IterationWeight(5))
	require.Equal(t, 1.0, Weighting{Kind: WeightingLinear}.IterationWeight(5))
	require.Equal(t, 1.0, Weighting{Kind: WeightingDiscounted}.IterationWeight(5))
}

func TestConfigValidate(t *testing.T) {
	t.Run("rejects a config with no stop condition", func(t *testing.T) {
		c := Config{Variant: VariantVanilla}
		require.Error(t, c.Validate())
	})

	t.Run("accepts a preset config", func(t *testing.T) {
		require.NoError(t, VanillaConfig(100).Validate())
		require.NoError(t, FastConfig().Validate())
		require.NoError(t, DiscountedConfig(100, 4).Validate())
	})

	t.Run("Deterministic is true only for single-worker configs", func(t *testing.T) {
		c := VanillaConfig(100)
		require.True(t, c.Deterministic())
		c.Workers = 4
		require.False(t, c.Deterministic())
	})
}
