package sched

import "github.com/sbl8/shrot/pool"

// ExecSingle runs fn(Range{Lo: 0, Hi: n}) on the caller's own goroutine, no
// pool involved. It exists for symmetry with ExecStatic/ExecDynamic and
// for callers that want the Single discipline's semantics without paying
// for a fan-out.
func ExecSingle(n int, fn func(Range) error) error {
	return fn(Range{Lo: 0, Hi: n})
}

// ExecStatic splits [0, n) into stripes of chunksize items and runs fn
// once per stripe claimed, joining before returning. chunksize < 1
// defaults to ⌈n/nthreads⌉ (one contiguous block per thread); a smaller
// chunksize makes each thread loop over several stripes, e.g.
// ExecStatic(p, 100, 4, 7, fn) hands each of the 4 threads up to
// ⌈100/(4*7)⌉ stripes of 7 before that thread's fn returns. nthreads <= 0
// uses pool.GetDefaultNthreads().
func ExecStatic(p *pool.Pool, n, nthreads, chunksize int, fn func(Range) error) error {
	p = resolvePool(p)
	if nthreads <= 0 {
		nthreads = pool.GetDefaultNthreads()
	}
	d := NewDistribution(Static, n, nthreads, chunksize)
	return d.Map(p, func(s Scheduler) error {
		for {
			r, ok := s.GetNext()
			if !ok {
				return nil
			}
			if err := fn(r); err != nil {
				return err
			}
		}
	})
}

// ExecDynamic (an alias for ExecGuided, matching the reference design's
// two names for the same guided schedule) splits [0, n) into chunks handed
// out on demand across nthreads threads, each sized by
// NewGuidedDistribution's formula from chunkMin and factMax, so a thread
// that finishes its chunk early claims another instead of idling. fn is
// called once per claimed chunk, possibly several times per thread.
func ExecDynamic(p *pool.Pool, n, nthreads, chunkMin int, factMax float64, fn func(Range) error) error {
	p = resolvePool(p)
	if nthreads <= 0 {
		nthreads = pool.GetDefaultNthreads()
	}
	d := NewGuidedDistribution(n, nthreads, chunkMin, factMax)
	return d.Map(p, func(s Scheduler) error {
		for {
			r, ok := s.GetNext()
			if !ok {
				return nil
			}
			if err := fn(r); err != nil {
				return err
			}
		}
	})
}

// ExecGuided is an alias for ExecDynamic.
func ExecGuided(p *pool.Pool, n, nthreads, chunkMin int, factMax float64, fn func(Range) error) error {
	return ExecDynamic(p, n, nthreads, chunkMin, factMax, fn)
}

// ExecParallel runs fn(threadNum, numThreads) once per thread, with no
// work-range subdivision — the caller partitions the work itself from the
// thread number and thread count it is handed. Rotate does not use it;
// its per-degree fan-out goes through ExecStatic.
func ExecParallel(p *pool.Pool, nthreads int, fn func(threadNum, numThreads int) error) error {
	p = resolvePool(p)
	if nthreads <= 0 {
		nthreads = pool.GetDefaultNthreads()
	}
	d := NewDistribution(Static, nthreads, nthreads, 1)
	return d.Map(p, func(s Scheduler) error {
		return fn(s.ThreadNum(), s.NumThreads())
	})
}

// resolvePool substitutes the process-wide default pool when the caller
// doesn't need a dedicated one.
func resolvePool(p *pool.Pool) *pool.Pool {
	if p == nil {
		return pool.DefaultPool()
	}
	return p
}
