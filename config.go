package cfr

import (
	"time"

	"github.com/pkg/errors"
)

// TraverserPolicy selects how the driver picks which player(s) are the
// traverser on a given iteration (§4.E step 1).
type TraverserPolicy string

const (
	// RoundRobin designates one player per iteration, cycling through
	// all players in order.
	RoundRobin TraverserPolicy = "round_robin"
	// AllPlayersPerIter designates every player as traverser on every
	// iteration: more work per iteration, lower variance in the
	// two-player zero-sum case.
	AllPlayersPerIter TraverserPolicy = "all_players_per_iter"
)

// Config is the solver configuration record of §6. It is a plain
// struct, not a file format: configuration file parsing and
// command-line handling are explicitly out of scope for this
// repository, so Config is constructed in Go, either directly or via
// one of the preset constructors below.
type Config struct {
	// Iterations is a hard upper bound on the number of iterations; 0
	// means unbounded (another stop condition must be configured).
	Iterations int

	// WallClockBudget is a time budget; whichever of Iterations or
	// WallClockBudget trips first stops the loop. Zero means unbounded.
	WallClockBudget time.Duration

	// TargetCI and TargetExploitability are early-stop thresholds. Zero
	// means "not configured" (the driver does not stop on that
	// criterion). At most one of these should normally be set, since
	// computing both defeats the purpose of the cheaper CI proxy, but
	// the driver does not forbid setting both.
	TargetCI             float64
	TargetExploitability float64

	Variant      Variant
	UseCFRPlus   bool
	Weighting    Weighting
	Workers      int
	Seed         int64
	ReportInterval int
	TraverserPolicy TraverserPolicy
}

// Validate checks the configuration for internal consistency, in the
// style of lox-pokerforbots's TrainingConfig.Validate(): a plain error
// return at the record's own boundary, not a panic.
func (c Config) Validate() error {
	if c.Iterations <= 0 && c.WallClockBudget <= 0 && c.TargetCI <= 0 && c.TargetExploitability <= 0 {
		return errors.New("config: at least one stop condition (Iterations, WallClockBudget, TargetCI, or TargetExploitability) must be set")
	}
	switch c.Variant {
	case VariantVanilla, VariantChanceSampled, VariantExternalSampling, VariantOutcomeSampling:
	default:
		return errors.Errorf("config: unrecognized Variant %q", c.Variant)
	}
	switch c.Weighting.Kind {
	case "", WeightingUniform, WeightingLinear, WeightingDiscounted:
	default:
		return errors.Errorf("config: unrecognized Weighting.Kind %q", c.Weighting.Kind)
	}
	switch c.TraverserPolicy {
	case "", RoundRobin, AllPlayersPerIter:
	default:
		return errors.Errorf("config: unrecognized TraverserPolicy %q", c.TraverserPolicy)
	}
	if c.Workers < 0 {
		return errors.New("config: Workers must be >= 0")
	}
	if c.ReportInterval < 0 {
		return errors.New("config: ReportInterval must be >= 0")
	}
	return nil
}

// Deterministic reports whether this configuration guarantees
// byte-identical snapshots across repeated runs with the same seed (§5,
// §8 "Determinism"): exactly one worker and a fixed seed.
func (c Config) Deterministic() bool {
	return c.Workers <= 1
}

func defaults() Config {
	return Config{
		Variant:         VariantVanilla,
		Weighting:       Weighting{Kind: WeightingUniform},
		Workers:         1,
		ReportInterval:  100,
		TraverserPolicy: RoundRobin,
	}
}

// DefaultConfig returns a Config with conservative, single-worker,
// vanilla-CFR defaults and no stop condition set; callers must at least
// set Iterations, WallClockBudget, or a convergence target before
// calling Validate.
func DefaultConfig() Config {
	return defaults()
}

// FastConfig mirrors original_source/src/cfr/config.rs's smoke-test
// preset: a small iteration budget with CFR+ and chance sampling, meant
// for quick correctness checks rather than a converged solution.
func FastConfig() Config {
	c := defaults()
	c.Iterations = 2000
	c.Variant = VariantChanceSampled
	c.UseCFRPlus = true
	c.Weighting = Weighting{Kind: WeightingLinear}
	return c
}

// VanillaConfig mirrors the Rust original's full-tree preset: no
// sampling, uniform weighting, suitable for small games like Kuhn poker
// where the whole tree fits comfortably in memory.
func VanillaConfig(iterations int) Config {
	c := defaults()
	c.Iterations = iterations
	c.Variant = VariantVanilla
	c.Weighting = Weighting{Kind: WeightingUniform}
	return c
}

// DiscountedConfig mirrors the Rust original's production preset:
// Discounted-CFR with the paper's commonly used defaults
// (alpha=1.5, beta=0, gamma=2) plus CFR+, over external-sampling MCCFR
// workers for throughput on larger games.
func DiscountedConfig(iterations, workers int) Config {
	c := defaults()
	c.Iterations = iterations
	c.Variant = VariantExternalSampling
	c.UseCFRPlus = true
	c.Weighting = Weighting{Kind: WeightingDiscounted, Alpha: 1.5, Beta: 0, Gamma: 2}
	c.Workers = workers
	return c
}
