// Package alm implements the packed storage layout for spherical-harmonic
// coefficient sets and their rotation by an Euler angle triple.
//
// A coefficient set for band-limit L is a complex-valued function
// a(l, m) for 0 <= m <= l <= L, stored packed column-major by m: for each
// selected m, the values a(m,m), a(m+1,m), ..., a(L,m) occupy consecutive
// slots. Base computes the packed offsets; Store composes a Base with a
// mav.Vector to give element access and elementwise algebra; Recurrer
// builds the Wigner small-d matrix incrementally via the Risbo recursion;
// Rotate drives a complete Store through a rotation.
package alm

import "fmt"

// missingColumn is the sentinel stored for an m column that is not
// present in a sparse Base. It is chosen (following the reference
// design) so that naive use produces an obviously out-of-range negative
// offset rather than aliasing a real column.
func missingColumn(lmax int) int { return -2 * lmax }

// Base computes the packed storage layout for a set of (l, m) pairs with
// 0 <= m <= l <= lmax, where only an ascending subset of m values (mval)
// may be present.
type Base struct {
	lmax    int
	arrsize int
	mval    []int
	mstart  []int // mstart[m] for m in [0, mval[last]], or missingColumn(lmax)
}

// NumAlms returns the number of coefficients a dense triangular set with
// the given lmax and mmax holds. It is exposed standalone (matching the
// original ducc0 Alm_Base::Num_Alms, which is usable without constructing
// a Base) so callers can size a buffer before constructing a Store.
func NumAlms(lmax, mmax int) (int, error) {
	if mmax > lmax {
		return 0, &ShapeError{Message: fmt.Sprintf("mmax (%d) must not be larger than lmax (%d)", mmax, lmax)}
	}
	return (mmax+1)*(mmax+2)/2 + (mmax+1)*(lmax-mmax), nil
}

// NewBaseDense builds a Base for the dense triangular case mval = [0..mmax].
func NewBaseDense(lmax, mmax int) (b *Base, err error) {
	defer recoverShape(&err)
	Assert(mmax <= lmax, "mmax (%d) must not be larger than lmax (%d)", mmax, lmax)
	mval := make([]int, mmax+1)
	mstartByM := make([]int, mmax+1)
	idx := 0
	for m := 0; m <= mmax; m++ {
		mval[m] = m
		mstartByM[m] = idx - m
		idx += lmax - m + 1
	}
	n, nerr := NumAlms(lmax, mmax)
	if nerr != nil {
		return nil, nerr
	}
	return &Base{lmax: lmax, arrsize: n, mval: mval, mstart: mstartByM}, nil
}

// NewBase builds a Base from explicit mval/mstart, validating the
// invariants: mval non-empty and strictly ascending, every entry <= lmax,
// and len(mval) == len(mstart). mstart[i] gives the offset for column
// mval[i] (a(l, mval[i]) lives at mstart[i]+l); it may be negative.
func NewBase(lmax int, mval, mstart []int) (b *Base, err error) {
	defer recoverShape(&err)
	if e := validateMval(lmax, mval); e != nil {
		return nil, e
	}
	Assert(len(mstart) == len(mval), "mval and mstart have different sizes (%d vs %d)", len(mval), len(mstart))

	byM := make([]int, mval[len(mval)-1]+1)
	for i := range byM {
		byM[i] = missingColumn(lmax)
	}
	arrsize := 0
	for i, m := range mval {
		byM[m] = mstart[i]
		if cand := mstart[i] + lmax + 1; cand > arrsize {
			arrsize = cand
		}
	}
	return &Base{lmax: lmax, arrsize: arrsize, mval: append([]int(nil), mval...), mstart: byM}, nil
}

// NewBaseImplicit builds a Base from an explicit mval, packing the columns
// consecutively in mval order (mirroring ducc0's two-argument Alm_Base
// constructor).
func NewBaseImplicit(lmax int, mval []int) (b *Base, err error) {
	defer recoverShape(&err)
	if e := validateMval(lmax, mval); e != nil {
		return nil, e
	}
	byM := make([]int, mval[len(mval)-1]+1)
	for i := range byM {
		byM[i] = missingColumn(lmax)
	}
	cnt := 0
	for _, m := range mval {
		byM[m] = cnt - m
		cnt += lmax - m + 1
	}
	return &Base{lmax: lmax, arrsize: byM[mval[len(mval)-1]] + lmax + 1, mval: append([]int(nil), mval...), mstart: byM}, nil
}

func validateMval(lmax int, mval []int) error {
	if len(mval) == 0 {
		return &ShapeError{Message: "no m indices supplied"}
	}
	for i, m := range mval {
		if m > lmax {
			return &ShapeError{Message: fmt.Sprintf("m (%d) > lmax (%d) at index %d", m, lmax, i)}
		}
		if i > 0 && mval[i] <= mval[i-1] {
			return &ShapeError{Message: fmt.Sprintf("mval not strictly ascending at index %d (%d <= %d)", i, mval[i], mval[i-1])}
		}
	}
	return nil
}

// Lmax returns the maximum degree l stored.
func (b *Base) Lmax() int { return b.lmax }

// Mmax returns the maximum order m stored (the last entry of mval).
func (b *Base) Mmax() int { return b.mval[len(b.mval)-1] }

// NumEntries returns the number of backing-buffer slots required.
func (b *Base) NumEntries() int { return b.arrsize }

// IndexL0 returns the offset from which a(l, m) is reached by adding l.
// It is not validated against "is m actually present"; an absent column
// returns the missingColumn sentinel.
func (b *Base) IndexL0(m int) int {
	if m < 0 || m >= len(b.mstart) {
		return missingColumn(b.lmax)
	}
	return b.mstart[m]
}

// Index returns the flat backing-buffer index of a(l, m).
func (b *Base) Index(l, m int) int { return b.IndexL0(m) + l }

// HasM reports whether column m is present in this Base.
func (b *Base) HasM(m int) bool {
	if m < 0 || m >= len(b.mstart) {
		return false
	}
	return b.mstart[m] != missingColumn(b.lmax)
}

// Mval returns the ascending list of present m values. The returned slice
// must not be mutated by the caller.
func (b *Base) Mval() []int { return b.mval }

// Conformable reports whether two Bases share the same lmax, mval and
// mstart, i.e. whether Stores built on them may be combined elementwise.
// Conformable is reflexive, symmetric and transitive because it reduces
// to slice/scalar equality.
func (b *Base) Conformable(other *Base) bool {
	if b.lmax != other.lmax || len(b.mval) != len(other.mval) || len(b.mstart) != len(other.mstart) {
		return false
	}
	for i := range b.mval {
		if b.mval[i] != other.mval[i] {
			return false
		}
	}
	for i := range b.mstart {
		if b.mstart[i] != other.mstart[i] {
			return false
		}
	}
	return true
}

// Complete reports whether every m in [0, lmax] is present, i.e. whether
// this Base describes a dense triangular set. Rotate requires this.
func (b *Base) Complete() bool { return len(b.mval) == b.lmax+1 }
