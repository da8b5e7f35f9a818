package alm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreAtSetRoundTrip(t *testing.T) {
	base, err := NewBaseDense(4, 4)
	require.NoError(t, err)
	s := NewStore[complex128](base)
	s.Set(3, 2, complex(1, -2))
	require.Equal(t, complex(1, -2), s.At(3, 2))
}

func TestStoreZero(t *testing.T) {
	base, err := NewBaseDense(3, 3)
	require.NoError(t, err)
	s := NewStore[complex128](base)
	s.Set(2, 1, complex(4, 4))
	s.Zero()
	require.Equal(t, complex128(0), s.At(2, 1))
}

func TestWrapStoreRejectsWrongSize(t *testing.T) {
	base, err := NewBaseDense(3, 3)
	require.NoError(t, err)
	_, err = WrapStore[complex128](base, make([]complex128, 1))
	require.Error(t, err)
	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestWrapStoreSharesStorage(t *testing.T) {
	base, err := NewBaseDense(2, 2)
	require.NoError(t, err)
	buf := make([]complex128, base.NumEntries())
	s, err := WrapStore[complex128](base, buf)
	require.NoError(t, err)
	s.Set(2, 0, complex(9, 0))
	require.Equal(t, complex(9, 0), buf[base.Index(2, 0)])
}

func TestStoreScale(t *testing.T) {
	base, err := NewBaseDense(2, 2)
	require.NoError(t, err)
	s := NewStore[complex128](base)
	s.Set(1, 0, complex(2, 0))
	s.Scale(complex(3, 0))
	require.Equal(t, complex(6, 0), s.At(1, 0))
}

func TestStoreScaleByL(t *testing.T) {
	base, err := NewBaseDense(2, 2)
	require.NoError(t, err)
	s := NewStore[complex128](base)
	s.Set(2, 1, complex(1, 0))
	require.NoError(t, s.ScaleByL([]float64{1, 1, 10}))
	require.Equal(t, complex(10, 0), s.At(2, 1))
}

func TestStoreScaleByLRejectsShortFactorArray(t *testing.T) {
	base, err := NewBaseDense(4, 4)
	require.NoError(t, err)
	s := NewStore[complex128](base)
	require.Error(t, s.ScaleByL([]float64{1, 1}))
}

func TestStoreScaleByM(t *testing.T) {
	base, err := NewBaseDense(2, 2)
	require.NoError(t, err)
	s := NewStore[complex128](base)
	s.Set(2, 1, complex(1, 0))
	s.Set(2, 0, complex(1, 0))
	require.NoError(t, s.ScaleByM([]float64{100, 10, 1}))
	require.Equal(t, complex(10, 0), s.At(2, 1))
	require.Equal(t, complex(100, 0), s.At(2, 0))
}

func TestStoreScaleByMRejectsShortFactorArray(t *testing.T) {
	base, err := NewBaseDense(4, 4)
	require.NoError(t, err)
	s := NewStore[complex128](base)
	require.Error(t, s.ScaleByM([]float64{1, 1}))
}

func TestStoreAddScalarRequiresM0(t *testing.T) {
	base, err := NewBaseImplicit(4, []int{1, 2})
	require.NoError(t, err)
	s := NewStore[complex128](base)
	require.Error(t, s.AddScalar(1))
}

func TestStoreAddAssignRequiresConformable(t *testing.T) {
	baseA, err := NewBaseDense(4, 4)
	require.NoError(t, err)
	baseB, err := NewBaseDense(5, 5)
	require.NoError(t, err)
	a := NewStore[complex128](baseA)
	b := NewStore[complex128](baseB)
	require.Error(t, a.AddAssign(b))
}

func TestStoreAddAssignAdds(t *testing.T) {
	base, err := NewBaseDense(3, 3)
	require.NoError(t, err)
	a := NewStore[complex128](base)
	b := NewStore[complex128](base)
	a.Set(2, 1, complex(1, 1))
	b.Set(2, 1, complex(2, -1))
	require.NoError(t, a.AddAssign(b))
	require.Equal(t, complex(3, 0), a.At(2, 1))
}

func TestStoreComplex64InPlaceMutation(t *testing.T) {
	base, err := NewBaseDense(2, 2)
	require.NoError(t, err)
	s := NewStore[complex64](base)
	s.Set(1, 0, complex64(complex(2, 0)))
	s.Scale(complex64(complex(4, 0)))
	require.Equal(t, complex64(complex(8, 0)), s.At(1, 0))
}

func TestStoreForEachOrder(t *testing.T) {
	base, err := NewBaseImplicit(3, []int{0, 2})
	require.NoError(t, err)
	s := NewStore[complex128](base)
	var order [][2]int
	s.ForEach(func(l, m int, v *complex128) {
		order = append(order, [2]int{l, m})
	})
	require.Equal(t, [][2]int{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {2, 2}, {3, 2}}, order)
}

func TestColumnPtrLength(t *testing.T) {
	base, err := NewBaseDense(5, 5)
	require.NoError(t, err)
	s := NewStore[complex128](base)
	require.Len(t, s.ColumnPtr(2), 5-2+1)
}
