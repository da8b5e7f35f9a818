package alm

import (
	"github.com/sbl8/shrot/kernels"
	"github.com/sbl8/shrot/mav"
)

// Scalar is the set of coefficient types a Store may hold.
type Scalar interface {
	~complex128 | ~complex64
}

// Store composes a Base with a backing mav.Vector, giving element access
// and elementwise algebra over a packed spherical-harmonic coefficient
// set.
type Store[T Scalar] struct {
	*Base
	data *mav.Vector[T]
}

// NewStore allocates a fresh, zero-filled Store for the given Base.
func NewStore[T Scalar](base *Base) *Store[T] {
	return &Store[T]{Base: base, data: mav.NewVector[T](base.NumEntries())}
}

// WrapStore builds a Store around a caller-owned buffer. The buffer must
// have exactly base.NumEntries() elements and must outlive the Store.
func WrapStore[T Scalar](base *Base, buf []T) (s *Store[T], err error) {
	defer recoverShape(&err)
	Assert(len(buf) == base.NumEntries(), "bad backing buffer size: got %d, want %d", len(buf), base.NumEntries())
	return &Store[T]{Base: base, data: mav.WrapVector[T](buf)}, nil
}

// Zero sets every coefficient to zero.
func (s *Store[T]) Zero() { s.data.Fill(0) }

// At returns a(l, m).
func (s *Store[T]) At(l, m int) T { return s.data.At(s.Index(l, m)) }

// Set stores val as a(l, m).
func (s *Store[T]) Set(l, m int, val T) { s.data.Set(s.Index(l, m), val) }

// ColumnPtr returns the backing slice for column m, of length Lmax()-m+1,
// such that ColumnPtr(m)[i] is a(m+i, m). It is the interior API used by
// tight loops (the rotation driver's per-degree update).
func (s *Store[T]) ColumnPtr(m int) []T {
	off := s.IndexL0(m)
	return s.data.SubSlice(off+m, s.Lmax()-m+1)
}

// Scale multiplies every stored coefficient by factor.
func (s *Store[T]) Scale(factor T) {
	kernels.Scale(s.data.Slice(), factor)
}

// ScaleByL multiplies a(l, m) by f[l] for every stored (l, m). f must have
// at least Lmax()+1 elements.
func (s *Store[T]) ScaleByL(f []float64) (err error) {
	defer recoverShape(&err)
	Assert(len(f) > s.Lmax(), "alm.ScaleByL: factor array too short (%d, need > %d)", len(f), s.Lmax())
	factors := make([]T, s.data.Len())
	s.ForEach(func(l, m int, v *T) {
		factors[s.Index(l, m)] = T(complex(f[l], 0))
	})
	kernels.ScaleEach(s.data.Slice(), factors)
	return nil
}

// ScaleByM multiplies a(l, m) by f[m] for every stored (l, m). f must have
// at least Mmax()+1 elements.
func (s *Store[T]) ScaleByM(f []float64) (err error) {
	defer recoverShape(&err)
	Assert(len(f) > s.Mmax(), "alm.ScaleByM: factor array too short (%d, need > %d)", len(f), s.Mmax())
	factors := make([]T, s.data.Len())
	s.ForEach(func(l, m int, v *T) {
		factors[s.Index(l, m)] = T(complex(f[m], 0))
	})
	kernels.ScaleEach(s.data.Slice(), factors)
	return nil
}

// AddScalar adds c to a(0, 0). It requires that m=0 be a stored column.
func (s *Store[T]) AddScalar(c T) (err error) {
	defer recoverShape(&err)
	Assert(s.HasM(0), "cannot add a constant: no m=0 mode present")
	idx := s.IndexL0(0)
	s.data.Set(idx, s.data.At(idx)+c)
	return nil
}

// AddAssign adds other's coefficients into this Store elementwise. The two
// Stores must be conformable.
func (s *Store[T]) AddAssign(other *Store[T]) (err error) {
	defer recoverShape(&err)
	Assert(s.Conformable(other.Base), "alm.AddAssign: stores are not conformable")
	kernels.AddAssign(s.data.Slice(), other.data.Slice())
	return nil
}

// ForEach visits every stored (l, m) in the order: outer over Mval(),
// inner over l = m..Lmax(). The callback receives a pointer into the
// backing storage; writes through it mutate the Store in place.
func (s *Store[T]) ForEach(fn func(l, m int, v *T)) {
	slice := s.data.Slice()
	for _, m := range s.Mval() {
		off := s.IndexL0(m)
		for l := m; l <= s.Lmax(); l++ {
			fn(l, m, &slice[off+l])
		}
	}
}

// Data returns the backing vector, for callers (Rotate) that need direct
// access to the whole flat buffer.
func (s *Store[T]) Data() *mav.Vector[T] { return s.data }
