package cfr

import (
	"bytes"
	"encoding/gob"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// StrategyEntry is one information key's exported average strategy
// (§6's solution snapshot format).
type StrategyEntry struct {
	Actions  []string
	Strategy []float64
	History  string
}

// Snapshot is the solution-snapshot export format of §6: metadata about
// the run that produced it, plus every infoset's average strategy keyed
// by its stable string form.
type Snapshot struct {
	ConfigID            string
	Variant              Variant
	UseCFRPlus           bool
	IterationsComplete   int
	FinalCI              float64
	FinalExploitability  float64
	WallClockElapsed     time.Duration

	Strategies map[string]StrategyEntry
}

// Export builds a Snapshot from the driver's store and the Result of a
// completed (or early-stopped) Run. ConfigID is a fresh random
// identifier (google/uuid, as dcfr-go's appconfig package uses for its
// own run identifiers) rather than a hash of Config, since two runs with
// identical Config values are still distinct runs.
func Export(cfg Config, store *Store, res Result) Snapshot {
	snap := Snapshot{
		ConfigID:            uuid.NewString(),
		Variant:             cfg.Variant,
		UseCFRPlus:          cfg.UseCFRPlus,
		IterationsComplete:  res.IterationsComplete,
		FinalCI:             res.FinalCI,
		FinalExploitability: res.FinalExploitability,
		WallClockElapsed:    res.Elapsed,
		Strategies:          make(map[string]StrategyEntry),
	}
	for _, r := range store.Freeze() {
		snap.Strategies[r.Key] = StrategyEntry{
			Actions:  r.ActionLabels,
			Strategy: r.AverageStrategy,
			History:  r.HistoryLabel,
		}
	}
	return snap
}

// Checkpoint is the resumable training-state artifact of SPEC_FULL §12.4:
// unlike Snapshot (average strategy only), it carries every record's raw
// regret and strategy-sum vectors, so a solve can be suspended and
// resumed bit-for-bit. Grounded on the teacher's io.go
// MarshalTo/LoadStrategyTable pattern, gob-encoded rather than the
// teacher's length-prefixed custom binary format since this store's
// records are no longer a fixed-size binary layout (variable action
// arity per infoset already requires a self-describing encoding).
type Checkpoint struct {
	Config Config
	Iter   int
	Records []CheckpointRecord
}

type CheckpointRecord struct {
	Key          string
	ActionLabels []string
	HistoryLabel string
	Regret       []float64
	StrategySum  []float64
}

// WriteCheckpoint gob-encodes a Checkpoint of the store's current state
// at the given iteration to w.
func WriteCheckpoint(w io.Writer, cfg Config, iter int, store *Store) error {
	ck := Checkpoint{Config: cfg, Iter: iter}
	store.Walk(func(r *Record) {
		ck.Records = append(ck.Records, CheckpointRecord{
			Key:          r.Key().String(),
			ActionLabels: r.ActionLabels(),
			HistoryLabel: r.HistoryLabel(),
			Regret:       r.Regret(),
			StrategySum:  r.StrategySum(),
		})
	})
	enc := gob.NewEncoder(w)
	if err := enc.Encode(ck); err != nil {
		return errors.Wrap(err, "cfr: encode checkpoint")
	}
	return nil
}

// ReadCheckpoint decodes a Checkpoint previously written by
// WriteCheckpoint. It does not reconstruct InfoKey values (gob cannot
// round-trip an arbitrary client InfoKey implementation), so the caller
// must re-populate a Store by re-touching infosets through a fresh solve
// pass and applying LoadInto to seed each record's regret/strategy-sum
// from this checkpoint's string-keyed records.
func ReadCheckpoint(r io.Reader) (Checkpoint, error) {
	var ck Checkpoint
	dec := gob.NewDecoder(r)
	if err := dec.Decode(&ck); err != nil {
		return Checkpoint{}, errors.Wrap(err, "cfr: decode checkpoint")
	}
	return ck, nil
}

// ByKey indexes a Checkpoint's records by their string key, for a caller
// driving LoadInto during store warm-up.
func (ck Checkpoint) ByKey() map[string]CheckpointRecord {
	out := make(map[string]CheckpointRecord, len(ck.Records))
	for _, rec := range ck.Records {
		out[rec.Key] = rec
	}
	return out
}

// LoadInto overwrites rec's regret and strategy-sum vectors with cr's,
// used to warm-start a freshly touched Record from a Checkpoint.
// Mismatched arity is a GameContractViolation: the checkpoint was taken
// against a different game or a different version of the same game.
func LoadInto(rec *Record, cr CheckpointRecord) error {
	return rec.SetFromCheckpoint(cr.Regret, cr.StrategySum)
}

// Bytes gob-encodes a Snapshot into a new buffer, for callers that want
// an in-memory artifact rather than writing to an io.Writer directly.
func (s Snapshot) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, errors.Wrap(err, "cfr: encode snapshot")
	}
	return buf.Bytes(), nil
}
