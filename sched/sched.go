// Package sched implements work distribution disciplines (single,
// static-strided, dynamic/guided) and a Map primitive that fans a
// distribution's chunks out across a pool.Pool and joins them on a
// pool.Latch, surfacing at most one worker failure to the caller.
//
// It deliberately knows nothing about alm's coefficient layout: Rotate
// hands it a plain [0, n) work range and a per-chunk callback, the same
// way the reference design's thread_map is generic over "some function of
// a thread number and a subrange."
package sched

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/sbl8/shrot/pool"
)

// Logger, if non-nil, receives one diagnostic line for every fan-out
// failure beyond the first that Map's "exactly one exception survives"
// contract discards. It is nil (silent) by default.
var Logger *log.Logger

// Discipline selects how a Distribution splits [0, n) across threads.
type Discipline int

const (
	// Single runs the whole range on thread 0 only.
	Single Discipline = iota
	// Static stripes [0, n) into fixed-size chunks and hands each thread
	// its own lazy, non-overlapping sequence of them.
	Static
	// Dynamic hands out shrinking chunks on demand (a guided schedule),
	// so threads that finish early pick up smaller remaining chunks
	// instead of sitting idle.
	Dynamic
)

// JobError wraps whatever a fan-out job panicked or returned an error
// with. When several jobs in the same Map fail, exactly one JobError
// survives to the caller; the rest are discarded.
type JobError struct {
	Cause error
}

func (e *JobError) Error() string { return fmt.Sprintf("sched: job failed: %v", e.Cause) }
func (e *JobError) Unwrap() error { return e.Cause }

// Range is a half-open chunk [Lo, Hi) of work assigned to one thread.
type Range struct {
	Lo, Hi int
}

// Len returns Hi - Lo.
func (r Range) Len() int { return r.Hi - r.Lo }

// Scheduler is the per-thread handle a job callback receives: its own
// thread number, the thread count, and a way to pull successive chunks
// instead of being handed one fixed range up front.
type Scheduler interface {
	NumThreads() int
	ThreadNum() int
	// GetNext returns the next chunk for this thread, or ok=false once
	// the work is exhausted. Single returns its one fixed chunk and then
	// ok=false; Static returns a lazy sequence of stripes; Dynamic returns
	// a lazy sequence of shrinking chunks.
	GetNext() (Range, bool)
}

// Distribution lazily generates the chunks for n items of work spread
// across nthreads threads, according to its discipline.
type Distribution struct {
	discipline Discipline
	n          int
	nthreads   int

	// Static striping state: nextstart[t] is the low end of thread t's
	// next stripe, advanced by nthreads*chunksize after every claim. Each
	// index is touched only by the thread that owns it, so no lock is
	// needed here, matching original_source's Distribution::getNext.
	chunksize int
	nextstart []int

	// Dynamic guided-schedule state, shared across threads. chunkMin and
	// factMax parameterize the formula in nextGuidedChunk.
	mu       sync.Mutex
	next     int
	chunkMin int
	factMax  float64
}

// NewDistribution builds a Distribution of n work items across nthreads
// threads under the Single or Static discipline. nthreads <= 0 is clamped
// to 1.
//
// Under Static, chunksize is the stripe width handed to each thread per
// claim; chunksize < 1 defaults to ⌈n/nthreads⌉. Worker t's successive
// claims are the lazy stripe sequence [t*chunksize, (t+1)*chunksize),
// [(t+nthreads)*chunksize, …), … until exhausted. If the resulting
// chunksize >= n, this degrades to Single (one claim on thread 0 covering
// the whole range) exactly as original_source's execStatic does.
//
// Use NewGuidedDistribution for the Dynamic discipline, which needs a
// chunkMin and factMax to parameterize its schedule.
func NewDistribution(discipline Discipline, n, nthreads, chunksize int) *Distribution {
	if discipline == Dynamic {
		panic("sched: NewDistribution does not support Dynamic; use NewGuidedDistribution")
	}
	if nthreads <= 0 {
		nthreads = 1
	}
	if discipline == Single {
		return &Distribution{discipline: Single, n: n, nthreads: 1}
	}
	if chunksize < 1 {
		chunksize = (n + nthreads - 1) / nthreads
	}
	if chunksize >= n {
		return &Distribution{discipline: Single, n: n, nthreads: 1}
	}
	nextstart := make([]int, nthreads)
	for i := range nextstart {
		nextstart[i] = i * chunksize
	}
	return &Distribution{discipline: Static, n: n, nthreads: nthreads, chunksize: chunksize, nextstart: nextstart}
}

// NewGuidedDistribution builds a Dynamic (guided) Distribution of n work
// items across nthreads threads. On every claim it computes
//
//	rem = nwork - cur
//	sz  = min(rem, max(chunkMin, floor(factMax*rem/nthreads)))
//
// so the chunk size shrinks as the remaining work does, recomputed fresh
// each call rather than following a fixed schedule. chunkMin < 1 is
// clamped to 1; factMax < 0 is clamped to 0, which degenerates to a
// fixed-size chunkMin schedule. If chunkMin*nthreads >= n, this degrades
// to a plain Static distribution with a default chunksize, exactly as
// original_source's execDynamic falls back to execStatic.
func NewGuidedDistribution(n, nthreads, chunkMin int, factMax float64) *Distribution {
	if nthreads <= 0 {
		nthreads = 1
	}
	if chunkMin < 1 {
		chunkMin = 1
	}
	if factMax < 0 {
		factMax = 0
	}
	if chunkMin*nthreads >= n {
		return NewDistribution(Static, n, nthreads, 0)
	}
	return &Distribution{discipline: Dynamic, n: n, nthreads: nthreads, chunkMin: chunkMin, factMax: factMax}
}

// NumThreads returns the thread count this Distribution was built for.
func (d *Distribution) NumThreads() int { return d.nthreads }

// scheduler implements Scheduler for one thread of a Distribution.
type scheduler struct {
	d          *Distribution
	tnum       int
	singleDone bool // Single discipline only
}

// ForThread returns the Scheduler handle for thread number tnum, in
// [0, NumThreads()).
func (d *Distribution) ForThread(tnum int) Scheduler {
	return &scheduler{d: d, tnum: tnum}
}

func (s *scheduler) NumThreads() int { return s.d.nthreads }
func (s *scheduler) ThreadNum() int  { return s.tnum }

func (s *scheduler) GetNext() (Range, bool) {
	switch s.d.discipline {
	case Single:
		if s.singleDone || s.d.n == 0 {
			return Range{}, false
		}
		s.singleDone = true
		return Range{Lo: 0, Hi: s.d.n}, true
	case Static:
		return s.d.nextStaticChunk(s.tnum)
	default: // Dynamic
		return s.d.nextGuidedChunk()
	}
}

// nextStaticChunk claims thread tnum's next stripe of a Static schedule:
// [nextstart[tnum], nextstart[tnum]+chunksize), clipped to n, then
// advances nextstart[tnum] by nthreads*chunksize so the thread's next
// claim skips over every other thread's stripe.
func (d *Distribution) nextStaticChunk(tnum int) (Range, bool) {
	lo := d.nextstart[tnum]
	if lo >= d.n {
		return Range{}, false
	}
	hi := lo + d.chunksize
	if hi > d.n {
		hi = d.n
	}
	d.nextstart[tnum] += d.nthreads * d.chunksize
	return Range{Lo: lo, Hi: hi}, true
}

// nextGuidedChunk atomically claims the next chunk of a guided schedule,
// recomputing its size fresh from the work remaining on every call:
//
//	rem = nwork - cur
//	sz  = min(rem, max(chunkMin, floor(factMax*rem/nthreads)))
//
// When factMax is 0 this always yields chunkMin (fixed-chunk dynamic).
// The chunkMin*nthreads >= nwork case never reaches this function:
// NewGuidedDistribution returns a Static distribution for it instead.
func (d *Distribution) nextGuidedChunk() (Range, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.next >= d.n {
		return Range{}, false
	}
	rem := d.n - d.next
	size := int(d.factMax * float64(rem) / float64(d.nthreads))
	if size < d.chunkMin {
		size = d.chunkMin
	}
	if size > rem {
		size = rem
	}
	lo := d.next
	hi := lo + size
	d.next = hi
	return Range{Lo: lo, Hi: hi}, true
}

// Map runs fn once per thread, fanning the work out across p
// and joining on a pool.Latch. fn is called with the thread's Scheduler;
// a Single fn is expected to call GetNext once, a Static or Dynamic fn is
// expected to loop calling GetNext until it returns ok=false.
//
// If one or more calls to fn panic or the caller reports a failure via
// the returned per-thread error, exactly one *JobError wrapping the first
// such failure is returned; the rest are discarded, matching the
// reference design's "one exception survives a parallel region" contract.
func (d *Distribution) Map(p *pool.Pool, fn func(Scheduler) error) error {
	n := d.nthreads
	latch := pool.NewLatch(n)
	var firstErr atomic.Pointer[error]

	for t := 0; t < n; t++ {
		s := d.ForThread(t)
		submitErr := p.Submit(func() {
			defer latch.CountDown()
			defer func() {
				if r := recover(); r != nil {
					recordFirstError(&firstErr, panicToError(r))
				}
			}()
			if err := fn(s); err != nil {
				recordFirstError(&firstErr, err)
			}
		})
		if submitErr != nil {
			// The pool has been shut down underneath us; count down the
			// remaining latch slots so Wait doesn't hang, and surface the
			// lifecycle error directly.
			for ; t < n; t++ {
				latch.CountDown()
			}
			return submitErr
		}
	}

	latch.Wait()
	if errPtr := firstErr.Load(); errPtr != nil {
		return &JobError{Cause: *errPtr}
	}
	return nil
}

func recordFirstError(slot *atomic.Pointer[error], err error) {
	e := err
	if !slot.CompareAndSwap(nil, &e) && Logger != nil {
		Logger.Printf("sched: dropping fan-out error (another already surfaced): %v", err)
	}
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
