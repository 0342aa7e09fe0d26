package cfr

import (
	"github.com/cfrkit/cfr/internal/f64"
)

// Traversal runs one CFR iteration for one designated traverser over one
// Game, reading and writing through one Store (§4.C). It is single-use:
// create a fresh Traversal per iteration, since it
// accumulates the set of records touched so the weighting discount can
// be applied exactly once at the end of the iteration, as Discounted-CFR
// and CFR+ require.
//
// The same recursive function, traverse, handles all four variants of
// §4.C's "Variants supported" list; only the two node-role branches
// (traverser's own decision node, and chance/non-traverser decision
// nodes) switch on Variant to choose "enumerate" vs "sample-one", per
// the spec's explicit instruction that the kernel's code path is
// otherwise identical across variants.
type Traversal struct {
	game    Game
	store   *Store
	sampler *Sampler
	cfg     Config
	iter    int
	worker  int

	touched []*Record
}

// NewTraversal creates a Traversal for one iteration. iter is the
// 1-based iteration index (used by Linear/Discounted weighting); worker
// identifies which worker goroutine this traversal runs on, attached to
// any GameContractViolation/NumericalInstability raised.
func NewTraversal(game Game, store *Store, sampler *Sampler, cfg Config, iter, worker int) *Traversal {
	return &Traversal{
		game:    game,
		store:   store,
		sampler: sampler,
		cfg:     cfg,
		iter:    iter,
		worker:  worker,
	}
}

// Run performs one traversal with traverser as the designated player and
// returns its root counterfactual value (§4.C). On return, every record
// touched as the traverser's own infoset during this traversal has had
// its weighting discount factors applied exactly once (the CFR+ clamp
// and Discounted-CFR decay of §4.C/§4.E).
func (tr *Traversal) Run(traverser int) (float64, error) {
	s := tr.game.InitialState()
	v, err := tr.traverse(s, traverser, 1.0, 1.0, 1.0, make(sampledActions))
	if err != nil {
		return 0, err
	}

	positive, negative, sum := tr.cfg.Weighting.DiscountFactors(tr.iter, tr.cfg.UseCFRPlus)
	discounted := make(map[*Record]bool, len(tr.touched))
	for _, rec := range tr.touched {
		if discounted[rec] {
			continue
		}
		discounted[rec] = true
		rec.ApplyDiscount(positive, negative, sum)
		if rec.HasNonFiniteRegret() {
			return 0, NewNumericalInstability(rec.Key().String(), tr.iter, tr.worker, "regret")
		}
	}

	return v, nil
}

func (tr *Traversal) traverse(s State, traverser int, reachT, reachOthers, sampleProb float64, sampled sampledActions) (float64, error) {
	outcome := tr.game.Classify(s)

	switch outcome.Kind {
	case Terminal:
		return tr.terminalValue(outcome, traverser, sampleProb)
	case Chance:
		return tr.handleChance(s, traverser, reachT, reachOthers, sampleProb, sampled)
	default:
		if outcome.Player == traverser {
			return tr.handleTraverserNode(s, outcome.Player, reachT, reachOthers, sampleProb, sampled)
		}
		return tr.handleOtherPlayerNode(s, traverser, outcome.Player, reachT, reachOthers, sampleProb, sampled)
	}
}

func (tr *Traversal) terminalValue(outcome Outcome, traverser int, sampleProb float64) (float64, error) {
	if traverser >= len(outcome.Payoffs) {
		return 0, NewGameContractViolation("<terminal>", tr.iter, tr.worker,
			"terminal payoff vector shorter than NumPlayers")
	}
	payoff := outcome.Payoffs[traverser]
	if payoff != payoff || payoff > maxFiniteValue || payoff < -maxFiniteValue {
		return 0, NewGameContractViolation("<terminal>", tr.iter, tr.worker,
			"terminal state reported a non-finite payoff")
	}

	if tr.cfg.Variant == VariantOutcomeSampling {
		return payoff / sampleProb, nil
	}
	return payoff, nil
}

const maxFiniteValue = 1.7976931348623157e+308

func (tr *Traversal) handleChance(s State, traverser int, reachT, reachOthers, sampleProb float64, sampled sampledActions) (float64, error) {
	if tr.cfg.Variant == VariantVanilla {
		if outcomes := tr.game.EnumerateChance(s); len(outcomes) > 0 {
			var ev float64
			for _, o := range outcomes {
				v, err := tr.traverse(o.State, traverser, reachT, reachOthers*o.Prob, sampleProb, sampled)
				if err != nil {
					return 0, err
				}
				ev += o.Prob * v
			}
			return ev, nil
		}
	}

	child, prob := tr.sampler.SampleChance(tr.game, s)
	if tr.cfg.Variant == VariantOutcomeSampling {
		sampleProb *= prob
	}
	return tr.traverse(child, traverser, reachT, reachOthers, sampleProb, sampled)
}

// handleTraverserNode implements §4.C's "Decision by player t" contract.
// For vanilla, chance-sampled, and external-sampling MCCFR, the
// traverser's own actions are always fully enumerated. Outcome sampling
// is the documented exception ("sample a single trajectory"): it draws
// one action here too, and uses a single-sample counterfactual-value
// estimator instead of the exact expectation.
func (tr *Traversal) handleTraverserNode(s State, player int, reachT, reachOthers, sampleProb float64, sampled sampledActions) (float64, error) {
	actions := tr.game.LegalActions(s)
	k := len(actions)
	key := tr.game.InfoKey(s, player)
	if k == 0 {
		return 0, NewGameContractViolation(key.String(), tr.iter, tr.worker, "legal_actions returned zero at a decision node")
	}

	rec, err := tr.store.TouchOrCreate(key, labelsOf(actions), tr.historyLabel(s))
	if err != nil {
		return 0, err
	}
	sigma := rec.CurrentStrategy()

	var regretDelta []float64
	var value float64

	if tr.cfg.Variant == VariantOutcomeSampling {
		a, q := tr.sampler.SampleAction(sigma)
		child := tr.game.Apply(s, a)
		vA, err := tr.traverse(child, player, reachT*sigma[a], reachOthers, sampleProb*q, sampled)
		if err != nil {
			return 0, err
		}
		cfValue := sigma[a] * vA
		regretDelta = make([]float64, k)
		f64.AddConst(-cfValue, regretDelta)
		regretDelta[a] += vA
		value = cfValue
	} else {
		vs := make([]float64, k)
		for a := range actions {
			child := tr.game.Apply(s, a)
			v, err := tr.traverse(child, player, reachT*sigma[a], reachOthers, sampleProb, sampled)
			if err != nil {
				return 0, err
			}
			vs[a] = v
			value += sigma[a] * v
		}
		regretDelta = vs
		f64.AddConst(-value, regretDelta)

		// Vanilla and chance-sampled MCCFR weight the immediate regret by
		// the exact opponent reach, since handleOtherPlayerNode fully
		// enumerates opponents for both. External sampling instead draws
		// opponents on-policy (handleOtherPlayerNode's
		// VariantExternalSampling case), so the sample itself already
		// realizes that weighting; multiplying by the sampled opponent
		// reach again would square it
		// (E[reachOthers_sampled * f] = Σ(Πσ_opp)²f, not Σ(Πσ_opp)f),
		// biasing the fixed point. Lanctot et al.'s external-sampling
		// regret update is the raw unweighted v(I,a)-v(I); only the
		// strategy-sum accumulation below is weighted, by the traverser's
		// own reach (reachT), which Accumulate already does via its
		// reachWeight argument.
		if tr.cfg.Variant != VariantExternalSampling {
			f64.ScalUnitary(reachOthers, regretDelta)
		}
	}

	weight := tr.cfg.Weighting.IterationWeight(tr.iter)
	rec.Accumulate(sigma, regretDelta, weight, reachT)
	tr.touched = append(tr.touched, rec)

	return value, nil
}

// handleOtherPlayerNode implements §4.C's "Decision by another player q
// != t" contract: no regret update, and under the spec's round-robin
// traverser policy, q's own strategy-sum accumulation happens during q's
// own turn as traverser, not here.
func (tr *Traversal) handleOtherPlayerNode(s State, traverser, player int, reachT, reachOthers, sampleProb float64, sampled sampledActions) (float64, error) {
	actions := tr.game.LegalActions(s)
	k := len(actions)
	key := tr.game.InfoKey(s, player)
	if k == 0 {
		return 0, NewGameContractViolation(key.String(), tr.iter, tr.worker, "legal_actions returned zero at a decision node")
	}

	rec, err := tr.store.TouchOrCreate(key, labelsOf(actions), tr.historyLabel(s))
	if err != nil {
		return 0, err
	}
	sigma := rec.CurrentStrategy()

	switch tr.cfg.Variant {
	case VariantVanilla, VariantChanceSampled:
		var ev float64
		for a := range actions {
			child := tr.game.Apply(s, a)
			v, err := tr.traverse(child, traverser, reachT, reachOthers*sigma[a], sampleProb, sampled)
			if err != nil {
				return 0, err
			}
			ev += sigma[a] * v
		}
		return ev, nil

	case VariantExternalSampling:
		// Sampled on-policy; reachOthers is passed through unchanged
		// rather than folded with sigma[a], since external sampling's
		// traverser-node regret no longer uses reachOthers as a weight
		// (see handleTraverserNode) — there is nothing left to fold it
		// into.
		a := sampled.getOrSample(tr.sampler, key.String(), sigma)
		child := tr.game.Apply(s, a)
		return tr.traverse(child, traverser, reachT, reachOthers, sampleProb, sampled)

	default: // VariantOutcomeSampling
		a, q := tr.sampler.SampleAction(sigma)
		child := tr.game.Apply(s, a)
		return tr.traverse(child, traverser, reachT, reachOthers*sigma[a], sampleProb*q, sampled)
	}
}

func (tr *Traversal) historyLabel(s State) string {
	if hl, ok := tr.game.(HistoryLabeler); ok {
		return hl.HistoryLabel(s)
	}
	return ""
}

func labelsOf(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Label
	}
	return out
}
