package alm

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sbl8/shrot/kernels"
	"github.com/sbl8/shrot/mav"
	"github.com/sbl8/shrot/pool"
	"github.com/sbl8/shrot/sched"
)

// Euler is a right-handed (psi, theta, phi) Euler angle triple, in the
// zyz convention Rotate applies.
type Euler struct {
	Psi, Theta, Phi float64
}

// RotateOption configures Rotate's fan-out.
type RotateOption func(*rotateConfig)

type rotateConfig struct {
	pool     *pool.Pool
	nthreads int
}

func defaultRotateConfig() rotateConfig {
	return rotateConfig{pool: pool.DefaultPool()}
}

// WithPool directs Rotate to fan its per-degree work out on p instead of
// the process-wide default pool.
func WithPool(p *pool.Pool) RotateOption {
	return func(c *rotateConfig) { c.pool = p }
}

// WithNthreads caps the number of threads Rotate's static fan-out uses
// per degree. n <= 0 falls back to pool.GetDefaultNthreads().
func WithNthreads(n int) RotateOption {
	return func(c *rotateConfig) { c.nthreads = n }
}

// Rotate applies the Euler rotation (psi, theta, phi) to store in place.
// store must be Complete() — a dense triangular set with every m in
// [0, Lmax()] present — since the algorithm needs the full a(l, -m)
// symmetry it derives from a(l, m) for a real-valued underlying field.
//
// When theta == 0 the rotation is a pure phase twist per column and
// Rotate takes a fast path that never touches the worker pool. Otherwise
// it builds a Wigner-d Recurrer and, for each degree l, fans the
// per-output-order accumulation out across a static distribution before
// applying the phi phase and moving to l+1.
func Rotate(ctx context.Context, store *Store[complex128], angles Euler, opts ...RotateOption) (err error) {
	defer recoverShape(&err)
	Assert(store.Complete(), "alm.Rotate: store must be a complete (dense) coefficient set")

	if angles.Theta == 0 {
		return rotatePhaseOnly(store, angles.Psi+angles.Phi)
	}

	cfg := defaultRotateConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return rotateGeneral(ctx, store, angles, cfg)
}

func rotatePhaseOnly(store *Store[complex128], angle float64) error {
	lmax := store.Lmax()
	phase := make([]complex128, lmax+1)
	kernels.PhaseFactors(phase, angle)
	for _, m := range store.Mval() {
		kernels.Scale(store.ColumnPtr(m), phase[m])
	}
	return nil
}

func rotateGeneral(ctx context.Context, store *Store[complex128], angles Euler, cfg rotateConfig) (err error) {
	defer recoverShape(&err)
	lmax := store.Lmax()

	exppsi := make([]complex128, lmax+1)
	expphi := make([]complex128, lmax+1)
	kernels.PhaseFactors(exppsi, angles.Psi)
	kernels.PhaseFactors(expphi, angles.Phi)

	nthreads := cfg.nthreads
	if nthreads <= 0 {
		nthreads = pool.GetDefaultNthreads()
	}

	rec := NewRecurrer(lmax, angles.Theta)
	almtmp := make([]complex128, lmax+1)

	for l := 0; l <= lmax; l++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		d, advErr := rec.Advance()
		if advErr != nil {
			return advErr
		}

		for m := 0; m <= l; m++ {
			almtmp[m] = store.At(l, 0) * complex(d.At(l, l+m), 0)
		}

		jobErr := sched.ExecStatic(cfg.pool, l+1, nthreads, 0, func(r sched.Range) error {
			accumulateColumnRange(store, d, exppsi, almtmp, l, r.Lo, r.Hi)
			return nil
		})
		if jobErr != nil {
			return &UserJobError{Cause: jobErr}
		}

		for m := 0; m <= l; m++ {
			store.Set(l, m, almtmp[m]*expphi[m])
		}
	}
	return nil
}

// accumulateColumnRange adds the mm=1..l contributions to almtmp[lo:hi],
// exploiting a(l, -mm) = (-1)^mm * conj(a(l, mm)): every source order mm
// contributes to every output order m in a thread's chunk, with a sign
// that flips as mm and m each advance by one (flip, flip2 below), so the
// two symmetric Wigner-d entries d(l-mm, l-m) and d(l-mm, l+m) combine
// into the real/imaginary split f1/f2 without ever materializing the
// negative-m coefficients.
func accumulateColumnRange(store *Store[complex128], d *mav.Matrix2D, exppsi, almtmp []complex128, l, lo, hi int) {
	flip := true
	for mm := 1; mm <= l; mm++ {
		t1 := store.At(l, mm) * exppsi[mm]
		flip2 := (mm+lo)&1 != 0
		for m := lo; m < hi; m++ {
			d1 := d.At(l-mm, l-m)
			if flip2 {
				d1 = -d1
			}
			d2 := d.At(l-mm, l+m)
			if flip {
				d2 = -d2
			}
			f1, f2 := d1+d2, d1-d2
			almtmp[m] += complex(real(t1)*f1, imag(t1)*f2)
			flip2 = !flip2
		}
		flip = !flip
	}
}

// BatchRotate applies the same-length angles[i] to stores[i] concurrently
// and returns the first error encountered, canceling the remaining
// rotations' context. It is a convenience wrapper the reference design's
// sequential batch-rotation script has no equivalent of; here it is a
// small errgroup fan-out over Rotate rather than a change to Rotate
// itself, since each individual Rotate already parallelizes its own
// per-degree work.
func BatchRotate(ctx context.Context, stores []*Store[complex128], angles []Euler, opts ...RotateOption) (err error) {
	defer recoverShape(&err)
	Assert(len(stores) == len(angles), "alm.BatchRotate: stores and angles must have the same length (%d vs %d)", len(stores), len(angles))

	g, gctx := errgroup.WithContext(ctx)
	for i := range stores {
		i := i
		g.Go(func() error {
			return Rotate(gctx, stores[i], angles[i], opts...)
		})
	}
	return g.Wait()
}
