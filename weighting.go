package cfr

import "math"

// Variant selects the traversal kernel's sampling behavior at
// non-traverser decision nodes and chance nodes (§4.C). The same code
// path in kernel.go is used for all four; only which of {enumerate,
// sample-one} it takes differs.
type Variant string

const (
	VariantVanilla          Variant = "vanilla"
	VariantChanceSampled     Variant = "chance_sampled"
	VariantExternalSampling  Variant = "external_sampling"
	VariantOutcomeSampling   Variant = "outcome_sampling"
)

// Weighting selects the iteration-weighting scheme applied to strategy
// accumulation (§4.E). Uniform corresponds to vanilla CFR; Linear to
// Linear-CFR; Discounted to Discounted-CFR with its own alpha/beta/gamma.
type WeightingKind string

const (
	WeightingUniform    WeightingKind = "uniform"
	WeightingLinear     WeightingKind = "linear"
	WeightingDiscounted WeightingKind = "discounted"
)

// Weighting configures how iteration t's contribution is discounted,
// mirroring the teacher's Params.GetDiscountFactors (params.go),
// generalized from float32 to float64 and from boolean flags to an
// explicit Kind so a Config can select exactly one scheme.
type Weighting struct {
	Kind WeightingKind

	// Alpha, Beta, Gamma are only consulted when Kind == WeightingDiscounted.
	// Alpha controls the discount on positive regret, Beta on negative
	// regret, Gamma on strategy-sum accumulation. See
	// https://arxiv.org/pdf/1809.04040.pdf.
	Alpha, Beta, Gamma float64
}

// DiscountFactors returns (positiveRegretDiscount, negativeRegretDiscount,
// strategySumDiscount) for iteration t (1-based), per the configured
// Weighting. An empty Weighting{} is equivalent to WeightingUniform: all
// three factors are 1, i.e. vanilla CFR.
func (w Weighting) DiscountFactors(t int, useCFRPlus bool) (positive, negative, sum float64) {
	positive, negative, sum = 1.0, 1.0, 1.0

	switch w.Kind {
	case WeightingLinear:
		// Linear CFR is equivalent to weighting the reach probability on
		// each iteration by t/(t+1); this reduces numerical instability
		// relative to weighting directly by t.
		sum = float64(t) / float64(t+1)
	case WeightingDiscounted:
		if w.Alpha != 0 {
			x := math.Pow(float64(t), w.Alpha)
			positive = x / (x + 1.0)
		}
		if w.Beta != 0 {
			x := math.Pow(float64(t), w.Beta)
			negative = x / (x + 1.0)
		}
		if w.Gamma != 0 {
			x := float64(t) / float64(t+1)
			sum = math.Pow(x, w.Gamma)
		}
	}

	if useCFRPlus {
		// CFR+: no negative regrets carry forward.
		negative = 0.0
	}

	return positive, negative, sum
}

// IterationWeight returns the per-touch weight applied to a traversal's
// strategy-sum contribution, before ApplyDiscount's end-of-iteration
// scaling runs (§4.E step 2). Every weighting scheme currently folds its
// iteration weighting into DiscountFactors' strategySumDiscount instead,
// applied exactly once per iteration rather than once per touch,
// mirroring the teacher's Params.GetDiscountFactors (params.go), which
// implements Linear-CFR's t/(t+1) growth through that single discount
// alone. Returning anything other than 1 here on top of that discount
// would compound the two into a quadratic weight, so this always
// returns 1; it remains a hook for a future scheme that needs a
// per-touch multiplier distinct from the once-per-iteration discount.
func (w Weighting) IterationWeight(t int) float64 {
	return 1.0
}
