package cfr

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Driver runs the iteration loop of §4.E: it owns the Store, dispatches
// Traversals across Config.Workers goroutines via golang.org/x/sync's
// errgroup (the same worker-pool idiom the reference corpus's pokerBench
// dependency exists for), checks the configured stop conditions after
// every report interval, and emits structured solver events through
// zerolog the way the reference corpus's risk-agent does for its own
// match-level events.
type Driver struct {
	Game   Game
	Store  *Store
	Config Config

	// Logger receives one structured event per report interval plus one
	// at solve start/stop. NewDriver sets it to the global zerolog logger.
	Logger zerolog.Logger

	// Monitor is consulted (if non-nil) every ReportInterval iterations
	// to decide whether TargetCI or TargetExploitability has been met.
	// See monitor.go.
	Monitor *Monitor
}

// NewDriver validates cfg and constructs a Driver over game with a fresh
// Store.
func NewDriver(game Game, cfg Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Driver{
		Game:   game,
		Store:  NewStore(),
		Config: cfg,
		Logger: log.Logger,
	}, nil
}

// Result is returned by Run once the loop stops, by any path (§6,§7).
type Result struct {
	StopReason         StopReason
	IterationsComplete int
	Elapsed            time.Duration
	FinalCI            float64
	FinalExploitability float64
}

// Run drives the solve until one of Config's stop conditions trips or ctx
// is cancelled. It returns a populated Result even on early stop;
// FinalExploitability is only computed if Monitor is set and
// TargetExploitability > 0 (exploitability is expensive — §4.F, §9).
func (d *Driver) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	workers := d.Config.Workers
	if workers <= 0 {
		workers = 1
	}

	d.Logger.Info().
		Str("variant", string(d.Config.Variant)).
		Bool("cfr_plus", d.Config.UseCFRPlus).
		Int("workers", workers).
		Msg("cfr: solve started")

	res := Result{StopReason: StopIterationsReached}
	players := d.Game.NumPlayers()
	nextPlayer := newRoundRobin(players)

	batch := workers
	iter := 0
	for {
		if d.Config.Iterations > 0 && iter >= d.Config.Iterations {
			res.StopReason = StopIterationsReached
			break
		}
		if d.Config.WallClockBudget > 0 && time.Since(start) >= d.Config.WallClockBudget {
			res.StopReason = StopWallClockExhausted
			break
		}
		select {
		case <-ctx.Done():
			res.StopReason = StopCancellationRequest
			iter = finishResult(&res, iter, start)
			return res, nil
		default:
		}

		n := batch
		if d.Config.Iterations > 0 && d.Config.Iterations-iter < n {
			n = d.Config.Iterations - iter
		}
		traversers := d.traversersForBatch(n, players, nextPlayer)
		if err := d.runBatch(ctx, traversers, iter+1, workers); err != nil {
			if IsFatal(err) {
				res.IterationsComplete = iter
				res.Elapsed = time.Since(start)
				return res, err
			}
			res.StopReason = StopCancellationRequest
			break
		}
		if d.Config.TraverserPolicy == AllPlayersPerIter {
			// One all-players batch is a single iteration.
			iter++
		} else {
			iter += len(traversers)
		}

		if d.Config.ReportInterval > 0 && iter%d.Config.ReportInterval == 0 {
			ci, expl, stop := d.checkConvergence()
			res.FinalCI = ci
			res.FinalExploitability = expl
			d.Logger.Info().
				Int("iteration", iter).
				Int64("infosets", d.Store.Size()).
				Float64("ci", ci).
				Dur("elapsed", time.Since(start)).
				Msg("cfr: progress")
			if stop {
				res.StopReason = StopConvergenceReached
				break
			}
		}
	}

	iter = finishResult(&res, iter, start)
	d.Logger.Info().
		Str("stop_reason", string(res.StopReason)).
		Int("iterations", res.IterationsComplete).
		Dur("elapsed", res.Elapsed).
		Msg("cfr: solve finished")
	return res, nil
}

func finishResult(res *Result, iter int, start time.Time) int {
	res.IterationsComplete = iter
	res.Elapsed = time.Since(start)
	return iter
}

// traversersForBatch returns the list of traverser player indices to run
// this batch, per Config.TraverserPolicy (§4.E step 1).
func (d *Driver) traversersForBatch(batch, players int, rr *roundRobin) []int {
	if d.Config.TraverserPolicy == AllPlayersPerIter {
		out := make([]int, players)
		for p := range out {
			out[p] = p
		}
		return out
	}
	out := make([]int, 0, batch)
	for i := 0; i < batch; i++ {
		out = append(out, rr.next())
	}
	return out
}

// runBatch runs one Traversal per entry in traversers, fanned out across
// an errgroup-managed worker pool (§5's "Workers independent goroutines,
// no shared mutable state beyond the store").
func (d *Driver) runBatch(ctx context.Context, traversers []int, iter, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, traverser := range traversers {
		worker := i
		trav := traverser
		g.Go(func() error {
			seed := d.Config.Seed + int64(iter)*1000003 + int64(worker)
			sampler := NewSampler(seed, explorationDeltaFor(d.Config))
			t := NewTraversal(d.Game, d.Store, sampler, d.Config, iter, worker)
			_, err := t.Run(trav)
			return err
		})
	}

	return g.Wait()
}

func explorationDeltaFor(cfg Config) float64 {
	if cfg.Variant == VariantOutcomeSampling {
		return 0.6
	}
	return 0
}

// checkConvergence asks Monitor (if configured) for the current CI and,
// if TargetExploitability is set, exploitability, and reports whether
// either configured target has been met.
func (d *Driver) checkConvergence() (ci, exploitability float64, stop bool) {
	if d.Monitor == nil {
		return 0, 0, false
	}
	ci = d.Monitor.ConvergenceIndicator(d.Store)
	if d.Config.TargetCI > 0 && ci <= d.Config.TargetCI {
		stop = true
	}
	if d.Config.TargetExploitability > 0 {
		exploitability = d.Monitor.Exploitability(d.Game, d.Store)
		if exploitability <= d.Config.TargetExploitability {
			stop = true
		}
	}
	return ci, exploitability, stop
}

// roundRobin cycles through player indices 0..n-1.
type roundRobin struct {
	n       int
	cursor  int
}

func newRoundRobin(n int) *roundRobin {
	if n <= 0 {
		n = 1
	}
	return &roundRobin{n: n}
}

func (r *roundRobin) next() int {
	p := r.cursor
	r.cursor = (r.cursor + 1) % r.n
	return p
}
