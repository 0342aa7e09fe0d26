package cfr_test

import (
	"bytes"
	"context"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cfrkit/cfr"
	"github.com/cfrkit/cfr/games/toy"
)

func TestExportSnapshotMatchesStoreAverageStrategy(t *testing.T) {
	cfg := cfr.VanillaConfig(500)
	d, err := cfr.NewDriver(toy.MatchingPennies(), cfg)
	require.NoError(t, err)
	res, err := d.Run(context.Background())
	require.NoError(t, err)

	snap := cfr.Export(cfg, d.Store, res)
	require.NotEmpty(t, snap.ConfigID)
	require.Equal(t, len(d.Store.Freeze()), len(snap.Strategies))

	for _, frozen := range d.Store.Freeze() {
		entry, ok := snap.Strategies[frozen.Key]
		require.True(t, ok)
		require.Equal(t, frozen.AverageStrategy, entry.Strategy)
		require.Equal(t, frozen.ActionLabels, entry.Actions)
	}
}

func TestSnapshotBytesRoundTrip(t *testing.T) {
	cfg := cfr.VanillaConfig(200)
	d, err := cfr.NewDriver(toy.RockPaperScissors(), cfg)
	require.NoError(t, err)
	res, err := d.Run(context.Background())
	require.NoError(t, err)

	snap := cfr.Export(cfg, d.Store, res)
	b, err := snap.Bytes()
	require.NoError(t, err)
	require.NotEmpty(t, b)

	var decoded cfr.Snapshot
	require.NoError(t, gob.NewDecoder(bytes.NewReader(b)).Decode(&decoded))
	require.Equal(t, snap, decoded)
}

func TestCheckpointRoundTrip(t *testing.T) {
	cfg := cfr.VanillaConfig(200)
	d, err := cfr.NewDriver(toy.DominanceTest(), cfg)
	require.NoError(t, err)
	_, err = d.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, cfr.WriteCheckpoint(&buf, cfg, 200, d.Store))

	ck, err := cfr.ReadCheckpoint(&buf)
	require.NoError(t, err)
	require.Equal(t, 200, ck.Iter)
	require.Equal(t, int(d.Store.Size()), len(ck.Records))

	byKey := ck.ByKey()
	fresh := cfr.NewStore()
	for _, frozen := range d.Store.Freeze() {
		rec, err := fresh.TouchOrCreate(stringKey(frozen.Key), frozen.ActionLabels, frozen.HistoryLabel)
		require.NoError(t, err)
		cr, ok := byKey[frozen.Key]
		require.True(t, ok)
		require.NoError(t, cfr.LoadInto(rec, cr))
	}

	for _, frozen := range d.Store.Freeze() {
		restored, err := fresh.TouchOrCreate(stringKey(frozen.Key), frozen.ActionLabels, frozen.HistoryLabel)
		require.NoError(t, err)
		require.Equal(t, frozen.AverageStrategy, restored.AverageStrategy())
	}
}

type stringKey string

func (k stringKey) String() string     { return string(k) }
func (k stringKey) Fingerprint() uint64 {
	var h uint64
	for _, b := range []byte(k) {
		h = h*31 + uint64(b)
	}
	return h
}
