package alm

import (
	"math"

	"github.com/sbl8/shrot/mav"
)

// Recurrer incrementally builds the Wigner small-d matrix d^n_{ab}(theta)
// for n = 0, 1, 2, ... at a fixed angle theta, using the Risbo recursion
// with two ping-pong buffers. It is single-owner, single-consumer, and
// can only be advanced, never rewound.
//
// At state n the primary buffer holds d^n_{ab} for 0 <= a <= n and
// 0 <= b <= 2n. Recurrer allocates for n up to lmax only (see
// SPEC_FULL.md's resolution of the "re-advance beyond L" open question);
// advancing past that point returns a *ShapeError instead of writing
// outside the allocated shape.
type Recurrer struct {
	lmax int
	p, q float64
	sqt  []float64
	d    *mav.Matrix2D
	dd   *mav.Matrix2D
	n    int // degree of the matrix last returned by Advance(); -1 before the first call
}

// NewRecurrer precomputes p = sin(theta/2), q = cos(theta/2), the table
// sqt[k] = sqrt(k) for k in [0, 2*lmax], and allocates the two
// (lmax+1) x (2*lmax+1) ping-pong buffers.
func NewRecurrer(lmax int, theta float64) *Recurrer {
	sqt := make([]float64, 2*lmax+1)
	for k := range sqt {
		sqt[k] = math.Sqrt(float64(k))
	}
	return &Recurrer{
		lmax: lmax,
		p:    math.Sin(theta / 2),
		q:    math.Cos(theta / 2),
		sqt:  sqt,
		d:    mav.NewMatrix2D(lmax+1, 2*lmax+1),
		dd:   mav.NewMatrix2D(lmax+1, 2*lmax+1),
		n:    -1,
	}
}

// Advance computes and returns the matrix for the next degree n. The
// k-th call (k starting at 1) returns the matrix for n = k-1, so
// successive calls yield n = 0, 1, 2, .... The returned view is valid
// only until the next call to Advance.
func (r *Recurrer) Advance() (d *mav.Matrix2D, err error) {
	defer recoverShape(&err)
	Assert(r.n+1 <= r.lmax, "alm.Recurrer: cannot advance past degree lmax (%d)", r.lmax)
	r.n++
	n := r.n
	switch {
	case n == 0:
		r.d.Set(0, 0, 1)
	case n == 1:
		p, q := r.p, r.q
		r.d.Set(0, 0, q*q)
		r.d.Set(0, 1, -p*q*r.sqt[2])
		r.d.Set(0, 2, p*p)
		r.d.Set(1, 0, -r.d.At(0, 1))
		r.d.Set(1, 1, q*q-p*p)
		r.d.Set(1, 2, r.d.At(0, 1))
	default:
		r.step(n)
	}
	return r.d, nil
}

func (r *Recurrer) step(n int) {
	// Extend the bottom row by anti-symmetric reflection from row n-2.
	sign := 1
	if n&1 != 0 {
		sign = -1
	}
	for i := 0; i <= 2*n-2; i++ {
		r.d.Set(n, i, float64(sign)*r.d.At(n-2, 2*n-2-i))
		sign = -sign
	}

	p, q, sqt := r.p, r.q, r.sqt
	for j := 2*n - 1; j <= 2*n; j++ {
		xd, xdd := r.d, r.dd
		if j&1 == 0 {
			xd, xdd = r.dd, r.d
		}
		xj := 1.0 / float64(j)
		xdd.Set(0, 0, q*xd.At(0, 0))
		for i := 1; i < j; i++ {
			xdd.Set(0, i, xj*sqt[j]*(q*sqt[j-i]*xd.At(0, i)-p*sqt[i]*xd.At(0, i-1)))
		}
		xdd.Set(0, j, -p*xd.At(0, j-1))

		for k := 1; k <= n; k++ {
			t1, t2 := xj*sqt[j-k]*q, xj*sqt[j-k]*p
			t3, t4 := xj*sqt[k]*p, xj*sqt[k]*q
			xdd.Set(k, 0, xj*sqt[j]*(q*sqt[j-k]*xd.At(k, 0)+p*sqt[k]*xd.At(k-1, 0)))
			for i := 1; i < j; i++ {
				xdd.Set(k, i, t1*sqt[j-i]*xd.At(k, i)-t2*sqt[i]*xd.At(k, i-1)+
					t3*sqt[j-i]*xd.At(k-1, i)+t4*sqt[i]*xd.At(k-1, i-1))
			}
			xdd.Set(k, j, -t2*sqt[j]*xd.At(k, j-1)+t4*sqt[j]*xd.At(k-1, j-1))
		}
	}
	// j runs {2n-1, 2n}: the first (odd) half-step always reads r.d and
	// writes r.dd, the second (even) half-step always reads r.dd and
	// writes r.d, so the final degree-n matrix is in r.d unconditionally
	// once both half-steps have run — no explicit buffer swap needed.
}
