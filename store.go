package cfr

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/exp/maps"

	"github.com/cfrkit/cfr/internal/f64"
)

// numShards controls the store's concurrency fan-out: each shard guards
// its own map with its own RWMutex, so two goroutines touching distinct
// infosets never contend on the same lock. Sized for typical multi-core
// workers; touch_or_create is the only path that ever takes a shard's
// write lock, and only on a genuine first touch.
const numShards = 256

// Record is a single information key's regret and cumulative-strategy
// vectors (§3's "Per-infoset record"). All mutation goes through atomic
// per-slot compare-and-swap loops: there is no record-wide lock, by
// design (§4.B, §9) — a record-wide lock would serialize the hot
// traversal path and destroy parallel speed-up.
type Record struct {
	key InfoKey
	k   int32

	// actionLabels and historyLabel are captured on first touch, from
	// the Game's LegalActions/HistoryLabel at that moment, so the
	// exporter can reconstruct a human-readable snapshot without
	// needing to replay the game tree (§4.G, §6).
	actionLabels []string
	historyLabel string

	// regret[a] and strategySum[a] are float64 bit patterns, mutated
	// only through per-slot atomic operations (atomicAddFloat64,
	// scaleFloat64, the CAS loops in ApplyDiscount and
	// ClampRegretsNonNegative, and SetFromCheckpoint's atomic stores).
	// They must not be read with a plain
	// load from outside this file; use Regret()/StrategySum() snapshots
	// or CurrentStrategy()/AverageStrategy().
	regret      []atomic.Uint64
	strategySum []atomic.Uint64
}

func newRecord(key InfoKey, k int, actionLabels []string, historyLabel string) *Record {
	r := &Record{
		key:          key,
		k:            int32(k),
		actionLabels: actionLabels,
		historyLabel: historyLabel,
		regret:       make([]atomic.Uint64, k),
		strategySum:  make([]atomic.Uint64, k),
	}
	return r
}

// K returns this record's fixed action arity.
func (r *Record) K() int { return int(r.k) }

// Key returns this record's information key.
func (r *Record) Key() InfoKey { return r.key }

// ActionLabels returns the action labels captured on first touch.
func (r *Record) ActionLabels() []string { return r.actionLabels }

// HistoryLabel returns the human-readable history captured on first touch.
func (r *Record) HistoryLabel() string { return r.historyLabel }

// Regret returns a snapshot copy of the regret vector. Because slots
// are updated independently, a snapshot taken concurrently with writers
// may mix values from "just before" and "just after" some updates; §5
// explicitly permits this.
func (r *Record) Regret() []float64 {
	out := make([]float64, len(r.regret))
	for i := range r.regret {
		out[i] = loadFloat64(&r.regret[i])
	}
	return out
}

// StrategySum returns a snapshot copy of the cumulative strategy-mass
// vector.
func (r *Record) StrategySum() []float64 {
	out := make([]float64, len(r.strategySum))
	for i := range r.strategySum {
		out[i] = loadFloat64(&r.strategySum[i])
	}
	return out
}

// CurrentStrategy computes the regret-matching distribution from the
// current regret snapshot: sigma(a) = max(regret[a],0) / sum(max(.,0)),
// uniform if the denominator is zero (§4.B).
func (r *Record) CurrentStrategy() []float64 {
	regret := r.Regret()
	f64.MakeNonNegative(regret)
	total := f64.Sum(regret)
	if total <= 0 {
		return uniformDist(len(regret))
	}
	f64.ScalUnitary(1.0/total, regret)
	return regret
}

// AverageStrategy computes strategy_sum[a] / sum(strategy_sum), uniform
// if the sum is zero (§4.B, §8's export round-trip invariant).
func (r *Record) AverageStrategy() []float64 {
	sum := r.StrategySum()
	total := f64.Sum(sum)
	if total <= 0 {
		return uniformDist(len(sum))
	}
	out := make([]float64, len(sum))
	f64.ScalUnitaryTo(out, 1.0/total, sum)
	return out
}

func uniformDist(n int) []float64 {
	out := make([]float64, n)
	p := 1.0 / float64(n)
	f64.AddConst(p, out)
	return out
}

// Accumulate atomically adds regretDelta[a] into regret[a] for every a,
// and reachWeight*sigma(a)*strategyWeight into strategySum[a], per
// §4.B's accumulate contract. sigma is the caller's already-computed
// current strategy (the kernel computes it once per visit and reuses it
// here to avoid a second regret-matching pass).
func (r *Record) Accumulate(sigma, regretDelta []float64, strategyWeight, reachWeight float64) {
	for a, delta := range regretDelta {
		if delta != 0 {
			atomicAddFloat64(&r.regret[a], delta)
		}
	}
	if strategyWeight != 0 && reachWeight != 0 {
		w := reachWeight * strategyWeight
		for a, s := range sigma {
			if s != 0 {
				atomicAddFloat64(&r.strategySum[a], w*s)
			}
		}
	}
}

// ClampRegretsNonNegative implements the CFR+ post-update clamp: regret[a]
// <- max(regret[a], 0) for all a (§4.C's CFR+ modification).
func (r *Record) ClampRegretsNonNegative() {
	for i := range r.regret {
		for {
			old := r.regret[i].Load()
			v := math.Float64frombits(old)
			if v >= 0 {
				break
			}
			if r.regret[i].CompareAndSwap(old, math.Float64bits(0)) {
				break
			}
		}
	}
}

// ApplyDiscount scales regret[a] by discountPositive or discountNegative
// depending on its sign, and strategySum[a] by discountSum, per the
// weighting scheme's discount factors (§4.E step 2, weighting.go).
func (r *Record) ApplyDiscount(discountPositive, discountNegative, discountSum float64) {
	if discountSum != 1.0 {
		for i := range r.strategySum {
			scaleFloat64(&r.strategySum[i], discountSum)
		}
	}
	if discountPositive != 1.0 || discountNegative != 1.0 {
		for i := range r.regret {
			for {
				old := r.regret[i].Load()
				v := math.Float64frombits(old)
				var scaled float64
				if v > 0 {
					scaled = v * discountPositive
				} else if v < 0 {
					scaled = v * discountNegative
				} else {
					break
				}
				if r.regret[i].CompareAndSwap(old, math.Float64bits(scaled)) {
					break
				}
			}
		}
	}
}

// SetFromCheckpoint overwrites this record's regret and strategy-sum
// vectors directly, for warm-starting a freshly created Record from a
// Checkpoint (export.go). Intended for single-threaded use before a
// solve resumes; it bypasses the usual CAS-loop accumulation since there
// is no concurrent writer yet to race with.
func (r *Record) SetFromCheckpoint(regret, strategySum []float64) error {
	if len(regret) != r.K() || len(strategySum) != r.K() {
		return NewGameContractViolation(r.Key().String(), 0, 0, "checkpoint arity does not match current game")
	}
	for i, v := range regret {
		r.regret[i].Store(math.Float64bits(v))
	}
	for i, v := range strategySum {
		r.strategySum[i].Store(math.Float64bits(v))
	}
	return nil
}

// HasNonFiniteRegret reports whether any regret slot holds NaN or Inf,
// used by the kernel to raise NumericalInstability (§7).
func (r *Record) HasNonFiniteRegret() bool {
	return f64.HasNonFinite(r.Regret())
}

func loadFloat64(slot *atomic.Uint64) float64 {
	return math.Float64frombits(slot.Load())
}

// atomicAddFloat64 adds delta to the float64 represented by slot's bit
// pattern via a compare-and-swap loop, the mechanism §4.B and §9
// mandate ("Per-slot atomic floating-point addition via compare-and-swap
// loops"). Go's standard library has no atomic float64 type, and no
// third-party library in the reference corpus abstracts this better
// than the direct CAS loop over sync/atomic.Uint64 — this is the
// spec-mandated mechanism itself, not a gap filled by stdlib for lack
// of an alternative.
func atomicAddFloat64(slot *atomic.Uint64, delta float64) {
	for {
		old := slot.Load()
		newV := math.Float64frombits(old) + delta
		if slot.CompareAndSwap(old, math.Float64bits(newV)) {
			return
		}
	}
}

func scaleFloat64(slot *atomic.Uint64, factor float64) {
	for {
		old := slot.Load()
		newV := math.Float64frombits(old) * factor
		if slot.CompareAndSwap(old, math.Float64bits(newV)) {
			return
		}
	}
}

// shard is one partition of the store's hash table.
type shard struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// Store is the concurrent information-state store of §4.B: a sharded
// map from an InfoKey's string form to its Record, tuned so that
// touch_or_create's first-touch race is resolved with a per-shard lock
// while every subsequent accumulate/read goes through per-slot atomics
// with no locking at all. Hashing for shard selection uses
// InfoKey.Fingerprint(), a fast non-cryptographic hash the game
// supplies (typically via hash/fnv, the idiom used elsewhere in the
// reference corpus for exactly this purpose — see
// games/kuhn and games/toy).
type Store struct {
	shards [numShards]shard

	// size is tracked separately from summing shard map lengths so Size()
	// doesn't need to take every shard's lock.
	size atomic.Int64

	loggedMilestone atomic.Int64
}

// NewStore creates an empty information-state store.
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i].records = make(map[string]*Record)
	}
	return s
}

func (s *Store) shardFor(key InfoKey) *shard {
	return &s.shards[key.Fingerprint()%uint64(numShards)]
}

// TouchOrCreate returns the Record for key, creating it with arity k and
// the given action labels/history on first touch (§4.B). Idempotent:
// concurrent first-touches resolve to a single record. If key was
// already touched with a different arity, returns a
// GameContractViolation error — k must be stable for a given key (§3's
// invariant).
func (s *Store) TouchOrCreate(key InfoKey, actionLabels []string, historyLabel string) (*Record, error) {
	sh := s.shardFor(key)
	strKey := key.String()

	sh.mu.RLock()
	r, ok := sh.records[strKey]
	sh.mu.RUnlock()
	if ok {
		if r.K() != len(actionLabels) {
			return nil, NewGameContractViolation(strKey, 0, 0,
				"action arity changed across visits")
		}
		return r, nil
	}

	sh.mu.Lock()
	r, ok = sh.records[strKey]
	if !ok {
		r = newRecord(key, len(actionLabels), actionLabels, historyLabel)
		sh.records[strKey] = r
		newSize := s.size.Add(1)
		if newSize%100000 == 0 && s.loggedMilestone.Swap(newSize) != newSize {
			glog.Infof("cfr: store has %d infosets", newSize)
		}
	}
	sh.mu.Unlock()

	if r.K() != len(actionLabels) {
		return nil, NewGameContractViolation(strKey, 0, 0,
			"action arity changed across visits")
	}
	return r, nil
}

// Size returns the number of distinct information keys touched so far.
func (s *Store) Size() int64 { return s.size.Load() }

// Lookup returns the Record for key if it has already been touched,
// without creating one. This is the only store access a read-only
// caller (Monitor) may use: §4.F requires the monitor never mutate the
// store, and TouchOrCreate's first-touch path inserts a zero-valued
// record for any key it has not seen yet.
func (s *Store) Lookup(key InfoKey) (*Record, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	r, ok := sh.records[key.String()]
	sh.mu.RUnlock()
	return r, ok
}

// FrozenRecord is a read-only view of one Record, produced by Freeze for
// export (§3's "finalized to read-only" lifecycle, §4.G).
type FrozenRecord struct {
	Key             string
	ActionLabels    []string
	HistoryLabel    string
	AverageStrategy []float64
}

// Freeze walks every shard and returns an immutable snapshot of every
// record's average strategy, keyed by the information key's string
// form, in a stable order: shards in index order, and keys sorted within
// each shard (the result as a whole is not sorted by key). Determinism
// here matters: §8's
// determinism property expects two identically seeded single-worker
// solves to export byte-identical snapshots, which requires a stable
// record ordering rather than the Go map's randomized iteration order.
// golang.org/x/exp/maps.Keys collects each shard's keys so they can be
// sorted before the records are read out, the same helper risk-agent
// uses for deterministic enumeration of its own map-backed state.
func (s *Store) Freeze() []FrozenRecord {
	out := make([]FrozenRecord, 0, s.Size())
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		keys := maps.Keys(sh.records)
		sort.Strings(keys)
		for _, key := range keys {
			r := sh.records[key]
			out = append(out, FrozenRecord{
				Key:             key,
				ActionLabels:    r.ActionLabels(),
				HistoryLabel:    r.HistoryLabel(),
				AverageStrategy: r.AverageStrategy(),
			})
		}
		sh.mu.RUnlock()
	}
	return out
}

// Walk invokes fn for every record currently in the store. fn must not
// block for long or mutate the store; it is called while that record's
// shard lock is held for reading only incidentally (the slice of
// records is copied out per shard before fn is invoked, so fn itself
// runs lock-free).
func (s *Store) Walk(fn func(*Record)) {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		snapshot := make([]*Record, 0, len(sh.records))
		for _, r := range sh.records {
			snapshot = append(snapshot, r)
		}
		sh.mu.RUnlock()
		for _, r := range snapshot {
			fn(r)
		}
	}
}
