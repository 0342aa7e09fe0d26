package cfr

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeKey string

func (k fakeKey) String() string  { return string(k) }
func (k fakeKey) Fingerprint() uint64 {
	var h uint64
	for _, b := range []byte(k) {
		h = h*31 + uint64(b)
	}
	return h
}

func TestStoreTouchOrCreate(t *testing.T) {
	t.Run("first touch creates a record with uniform strategy", func(t *testing.T) {
		s := NewStore()
		rec, err := s.TouchOrCreate(fakeKey("a"), []string{"x", "y"}, "")
		require.NoError(t, err)
		require.Equal(t, 2, rec.K())
		require.InDeltaSlice(t, []float64{0.5, 0.5}, rec.CurrentStrategy(), 1e-9)
	})

	t.Run("repeat touch with same arity returns the same record", func(t *testing.T) {
		s := NewStore()
		r1, err := s.TouchOrCreate(fakeKey("a"), []string{"x", "y"}, "")
		require.NoError(t, err)
		r2, err := s.TouchOrCreate(fakeKey("a"), []string{"x", "y"}, "")
		require.NoError(t, err)
		require.Same(t, r1, r2)
		require.EqualValues(t, 1, s.Size())
	})

	t.Run("arity change across visits is a contract violation", func(t *testing.T) {
		s := NewStore()
		_, err := s.TouchOrCreate(fakeKey("a"), []string{"x", "y"}, "")
		require.NoError(t, err)
		_, err = s.TouchOrCreate(fakeKey("a"), []string{"x", "y", "z"}, "")
		require.Error(t, err)
		var gcv *GameContractViolation
		require.ErrorAs(t, err, &gcv)
	})

	t.Run("concurrent first touches of the same key resolve to one record", func(t *testing.T) {
		s := NewStore()
		var wg sync.WaitGroup
		recs := make([]*Record, 64)
		for i := range recs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				r, err := s.TouchOrCreate(fakeKey("shared"), []string{"x", "y"}, "")
				require.NoError(t, err)
				recs[i] = r
			}(i)
		}
		wg.Wait()
		for _, r := range recs {
			require.Same(t, recs[0], r)
		}
		require.EqualValues(t, 1, s.Size())
	})
}

func TestRecordAccumulateConcurrentAdditionsAreLinear(t *testing.T) {
	s := NewStore()
	rec, err := s.TouchOrCreate(fakeKey("a"), []string{"x", "y"}, "")
	require.NoError(t, err)

	const writers = 50
	const perWriter = 200
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				rec.Accumulate([]float64{0.5, 0.5}, []float64{1.0, -1.0}, 1.0, 1.0)
			}
		}()
	}
	wg.Wait()

	regret := rec.Regret()
	require.InDelta(t, float64(writers*perWriter), regret[0], 1e-6)
	require.InDelta(t, -float64(writers*perWriter), regret[1], 1e-6)
}

func TestRecordCurrentStrategyIsRegretMatching(t *testing.T) {
	t.Run("uniform when all regret non-positive", func(t *testing.T) {
		s := NewStore()
		rec, _ := s.TouchOrCreate(fakeKey("a"), []string{"x", "y", "z"}, "")
		rec.Accumulate(rec.CurrentStrategy(), []float64{-1, -2, -3}, 1, 1)
		sigma := rec.CurrentStrategy()
		require.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, sigma, 1e-9)
	})

	t.Run("proportional to positive regret", func(t *testing.T) {
		s := NewStore()
		rec, _ := s.TouchOrCreate(fakeKey("a"), []string{"x", "y"}, "")
		rec.Accumulate(rec.CurrentStrategy(), []float64{3, 1}, 1, 1)
		sigma := rec.CurrentStrategy()
		require.InDeltaSlice(t, []float64{0.75, 0.25}, sigma, 1e-9)
		require.InDelta(t, 1.0, sigma[0]+sigma[1], 1e-9)
	})
}

func TestRecordApplyDiscountCFRPlusZeroesNegativeRegret(t *testing.T) {
	s := NewStore()
	rec, _ := s.TouchOrCreate(fakeKey("a"), []string{"x", "y"}, "")
	rec.Accumulate(rec.CurrentStrategy(), []float64{5, -5}, 1, 1)
	rec.ApplyDiscount(1.0, 0.0, 1.0)
	regret := rec.Regret()
	require.InDelta(t, 5.0, regret[0], 1e-9)
	require.GreaterOrEqual(t, regret[1], 0.0)
}

func TestStoreFreezeIsExportRoundTripConsistent(t *testing.T) {
	s := NewStore()
	rec, _ := s.TouchOrCreate(fakeKey("a"), []string{"x", "y"}, "")
	rec.Accumulate([]float64{0.25, 0.75}, []float64{0, 0}, 1, 1)
	rec.Accumulate([]float64{0.25, 0.75}, []float64{0, 0}, 1, 1)

	frozen := s.Freeze()
	require.Len(t, frozen, 1)

	sum := rec.StrategySum()
	var total float64
	for _, v := range sum {
		total += v
	}
	for i, v := range frozen[0].AverageStrategy {
		require.InDelta(t, sum[i]/total, v, 1e-12)
	}
}

func TestStoreWalkVisitsEveryRecordExactlyOnce(t *testing.T) {
	s := NewStore()
	for i := 0; i < 10; i++ {
		_, err := s.TouchOrCreate(fakeKey(fmt.Sprintf("k%d", i)), []string{"x"}, "")
		require.NoError(t, err)
	}
	seen := make(map[string]bool)
	s.Walk(func(r *Record) {
		seen[r.Key().String()] = true
	})
	require.Len(t, seen, 10)
}
