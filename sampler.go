package cfr

import "math/rand"

// Sampler draws chance and, under some variants, decision-node samples
// on behalf of one worker (§4.D). It is stateless aside from its RNG:
// two Samplers seeded identically draw the same sequence, which is what
// gives the deterministic single-worker mode (§5, §8 "Determinism") its
// reproducibility.
type Sampler struct {
	rng *rand.Rand

	// explorationDelta is the fraction of the time, in [0,1), that
	// outcome sampling explores an off-policy uniformly random action
	// instead of sampling from the current strategy — the same
	// mechanism as the teacher's OutcomeSamplingCFR.explorationDelta.
	// Zero means "always sample from the current strategy."
	explorationDelta float64
}

// NewSampler creates a Sampler seeded with seed, for use by exactly one
// worker. The iteration driver gives each worker a distinct seed
// derived from Config.Seed so workers never share RNG state (§4.D: "The
// RNG is per-worker to avoid contention").
func NewSampler(seed int64, explorationDelta float64) *Sampler {
	return &Sampler{
		rng:              rand.New(rand.NewSource(seed)),
		explorationDelta: explorationDelta,
	}
}

// SampleChance draws one outcome of a chance node via the game's own
// SampleChance, importance weight unchanged: the kernel multiplies by
// the returned probability only when dividing out sampling bias (for
// outcome sampling); for the other variants, chance sampling
// probabilities cancel out of the counterfactual value calculation and
// are not applied at all (mirroring the teacher's handleChanceNode
// comment in vanilla.go/external_sampling.go/outcome_sampling.go).
func (sm *Sampler) SampleChance(g Game, s State) (State, float64) {
	return g.SampleChance(s, sm.rng)
}

// SampleAction draws one action index from the distribution sigma,
// using explorationDelta-greedy exploration when configured (outcome
// sampling's variance-reduction knob). It returns the selected index
// and the actual sampling probability under which it was drawn (for
// outcome sampling's regret weighting, Bowling et al. 2009 eq. 7).
func (sm *Sampler) SampleAction(sigma []float64) (selected int, sampleProb float64) {
	n := len(sigma)
	if sm.explorationDelta > 0 && sm.rng.Float64() < sm.explorationDelta {
		selected = sm.rng.Intn(n)
	} else {
		selected = sampleOne(sigma, sm.rng.Float64())
	}

	f := sm.explorationDelta
	sampleProb = f*(1.0/float64(n)) + (1.0-f)*sigma[selected]
	return selected, sampleProb
}

// sampleOne draws an index from cumulative distribution pv using the
// uniform draw x in [0,1), mirroring the teacher's sampleOne helper
// (mccfr.go, generalized_sampling.go) but tolerant of floating-point
// rounding in the last slot rather than panicking.
func sampleOne(pv []float64, x float64) int {
	var cum float64
	for i, p := range pv {
		cum += p
		if cum > x {
			return i
		}
	}
	return len(pv) - 1
}

// sampledActions memoizes the action chosen at an infoset the first
// time it is visited during a single traversal, so that repeated visits
// to the same infoset within one MCCFR sample see a consistent action
// (the teacher's SampledActionsMap / SampledActionStore pattern,
// sample_store.go and sampled_actions.go, consolidated into a plain map
// here since the kernel no longer needs the pooled-allocation machinery
// those files existed for — one map per traversal is cheap enough at
// the tree depths this kernel targets).
type sampledActions map[string]int

func (m sampledActions) getOrSample(sm *Sampler, key string, sigma []float64) int {
	if i, ok := m[key]; ok {
		return i
	}
	i, _ := sm.SampleAction(sigma)
	m[key] = i
	return i
}
