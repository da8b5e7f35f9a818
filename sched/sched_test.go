package sched

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbl8/shrot/pool"
)

func TestStaticCoversRangeWithNoOverlap(t *testing.T) {
	const n = 997
	for _, nthreads := range []int{1, 2, 3, 7, 16} {
		d := NewDistribution(Static, n, nthreads, 0)
		var mu sync.Mutex
		covered := make([]bool, n)
		require.NoError(t, d.Map(newTestPool(t), func(s Scheduler) error {
			for {
				r, ok := s.GetNext()
				if !ok {
					return nil
				}
				mu.Lock()
				for i := r.Lo; i < r.Hi; i++ {
					require.False(t, covered[i], "index %d covered twice", i)
					covered[i] = true
				}
				mu.Unlock()
			}
		}))
		for i, c := range covered {
			require.True(t, c, "index %d never covered (nthreads=%d)", i, nthreads)
		}
	}
}

// TestStaticStripedSequenceMatchesScenario4 locks in spec.md §8 scenario
// 4: execStatic(100, 4, 7) stripes work across 4 threads in chunks of 7,
// so the union of every thread's claimed ranges is exactly [0, 100) with
// no overlap, and no thread receives more than ceil(100/(4*7)) = 4
// ranges.
func TestStaticStripedSequenceMatchesScenario4(t *testing.T) {
	const n, nthreads, chunksize = 100, 4, 7
	d := NewDistribution(Static, n, nthreads, chunksize)
	covered := make([]bool, n)
	for t2 := 0; t2 < nthreads; t2++ {
		s := d.ForThread(t2)
		claims := 0
		for {
			r, ok := s.GetNext()
			if !ok {
				break
			}
			claims++
			for i := r.Lo; i < r.Hi; i++ {
				require.False(t, covered[i], "index %d covered twice", i)
				covered[i] = true
			}
		}
		require.LessOrEqual(t, claims, 4, "thread %d should receive at most ceil(100/(4*7))=4 ranges", t2)
	}
	for i, c := range covered {
		require.True(t, c, "index %d never covered", i)
	}
}

// TestStaticStripedSequenceAdvancesByNthreadsTimesChunksize checks the
// exact stripe boundaries a single thread sees: [t*C, (t+1)*C), then
// [(t+nthreads)*C, (t+nthreads+1)*C), … per spec.md §4.6.
func TestStaticStripedSequenceAdvancesByNthreadsTimesChunksize(t *testing.T) {
	const n, nthreads, chunksize = 100, 4, 7
	d := NewDistribution(Static, n, nthreads, chunksize)
	s := d.ForThread(1)
	var got []Range
	for {
		r, ok := s.GetNext()
		if !ok {
			break
		}
		got = append(got, r)
	}
	require.Equal(t, []Range{{Lo: 7, Hi: 14}, {Lo: 35, Hi: 42}, {Lo: 63, Hi: 70}, {Lo: 91, Hi: 98}}, got)
}

func TestDynamicCoversRangeWithNoOverlap(t *testing.T) {
	const n = 1009
	for _, nthreads := range []int{1, 2, 5, 8} {
		d := NewGuidedDistribution(n, nthreads, 1, 0.25)
		var mu sync.Mutex
		covered := make([]bool, n)
		require.NoError(t, d.Map(newTestPool(t), func(s Scheduler) error {
			for {
				r, ok := s.GetNext()
				if !ok {
					return nil
				}
				mu.Lock()
				for i := r.Lo; i < r.Hi; i++ {
					require.False(t, covered[i], "index %d covered twice", i)
					covered[i] = true
				}
				mu.Unlock()
			}
		}))
		for i, c := range covered {
			require.True(t, c, "index %d never covered (nthreads=%d)", i, nthreads)
		}
	}
}

// TestGuidedFirstChunkMatchesScenario5 locks in the worked example from
// spec.md: execDynamic(1000, 8, 1) with fact_max=0.25 hands out a first
// chunk of exactly min(1000, max(1, floor(0.25*1000/8))) = 31.
func TestGuidedFirstChunkMatchesScenario5(t *testing.T) {
	d := NewGuidedDistribution(1000, 8, 1, 0.25)
	s := d.ForThread(0)
	r, ok := s.GetNext()
	require.True(t, ok)
	require.Equal(t, Range{Lo: 0, Hi: 31}, r)
}

// TestGuidedCoversRangeSumsToWorkSize replays scenario 5's full claim
// sequence on a single thread: every claim until exhaustion is non-empty
// and the claimed sizes sum to exactly nwork.
func TestGuidedCoversRangeSumsToWorkSize(t *testing.T) {
	d := NewGuidedDistribution(1000, 8, 1, 0.25)
	s := d.ForThread(0)
	sum := 0
	for {
		r, ok := s.GetNext()
		if !ok {
			break
		}
		require.Greater(t, r.Len(), 0, "no claimed range may be empty before exhaustion")
		sum += r.Len()
	}
	require.Equal(t, 1000, sum)
}

// TestGuidedZeroFactMaxIsFixedChunk locks in the spec's stated Open
// Question resolution: fact_max=0 degenerates to a fixed-size chunkMin
// schedule (every claim but the last is exactly chunkMin).
func TestGuidedZeroFactMaxIsFixedChunk(t *testing.T) {
	const n, chunkMin = 205, 20
	d := NewGuidedDistribution(n, 4, chunkMin, 0)
	s := d.ForThread(0)
	var sizes []int
	for {
		r, ok := s.GetNext()
		if !ok {
			break
		}
		sizes = append(sizes, r.Len())
	}
	require.NotEmpty(t, sizes)
	for i, sz := range sizes[:len(sizes)-1] {
		require.Equal(t, chunkMin, sz, "claim %d should be exactly chunkMin", i)
	}
	require.LessOrEqual(t, sizes[len(sizes)-1], chunkMin)
	sum := 0
	for _, sz := range sizes {
		sum += sz
	}
	require.Equal(t, n, sum)
}

// TestGuidedLargeChunkMinDegradesToStatic covers spec.md's other stated
// behavior: when chunkMin*nthreads >= nwork, the guided schedule hands out
// at most one chunk per thread, same as Static.
func TestGuidedLargeChunkMinDegradesToStatic(t *testing.T) {
	const n, nthreads, chunkMin = 50, 4, 20
	require.GreaterOrEqual(t, chunkMin*nthreads, n)
	d := NewGuidedDistribution(n, nthreads, chunkMin, 0.9)
	var mu sync.Mutex
	covered := make([]bool, n)
	require.NoError(t, d.Map(newTestPool(t), func(s Scheduler) error {
		claims := 0
		for {
			r, ok := s.GetNext()
			if !ok {
				return nil
			}
			claims++
			require.LessOrEqual(t, claims, 1, "each thread should claim at most one chunk")
			mu.Lock()
			for i := r.Lo; i < r.Hi; i++ {
				require.False(t, covered[i], "index %d covered twice", i)
				covered[i] = true
			}
			mu.Unlock()
		}
	}))
	for i, c := range covered {
		require.True(t, c, "index %d never covered", i)
	}
}

func TestSingleRunsEverythingOnOneThread(t *testing.T) {
	var got []int
	require.NoError(t, ExecSingle(10, func(r Range) error {
		for i := r.Lo; i < r.Hi; i++ {
			got = append(got, i)
		}
		return nil
	}))
	sort.Ints(got)
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestMapSurvivesExactlyOneError(t *testing.T) {
	d := NewDistribution(Static, 100, 8, 0)
	err := d.Map(newTestPool(t), func(s Scheduler) error {
		return errors.New("boom")
	})
	require.Error(t, err)
	var jobErr *JobError
	require.ErrorAs(t, err, &jobErr)
}

func TestMapSurvivesExactlyOnePanic(t *testing.T) {
	d := NewDistribution(Static, 100, 8, 0)
	err := d.Map(newTestPool(t), func(s Scheduler) error {
		panic("kaboom")
	})
	require.Error(t, err)
	var jobErr *JobError
	require.ErrorAs(t, err, &jobErr)
}

func TestExecStaticDefaultsToProcessPool(t *testing.T) {
	var got []int
	var mu sync.Mutex
	require.NoError(t, ExecStatic(nil, 40, 4, 0, func(r Range) error {
		mu.Lock()
		defer mu.Unlock()
		for i := r.Lo; i < r.Hi; i++ {
			got = append(got, i)
		}
		return nil
	}))
	sort.Ints(got)
	want := make([]int, 40)
	for i := range want {
		want[i] = i
	}
	require.Equal(t, want, got)
}

func newTestPool(t *testing.T) *pool.Pool {
	t.Helper()
	p := pool.New(4)
	t.Cleanup(p.Shutdown)
	return p
}
