// Package shrot implements storage and rotation of spherical-harmonic
// coefficient sets ("alm" arrays).
//
// A coefficient set for band-limit L holds one complex value per pair
// (l, m) with 0 <= m <= l <= L, packed column-major by m. Rotating such a
// set by an Euler triple (psi, theta, phi) is done by building the Wigner
// small-d matrix d^l_{m',m}(theta) one degree at a time with the Risbo
// recursion, and sandwiching it between diagonal phase factors from psi
// and phi.
//
// Key components:
//   - mav: generic 1-D numeric views over owned or borrowed slices, and
//     an owned float64 2-D matrix
//   - alm: the index scheme, the coefficient store, the Wigner-d recurrer
//     and the rotation driver
//   - kernels: in-place elementwise numeric kernels shared by alm.Store
//     and the rotation driver's hot loop
//   - pool: a fixed-size worker pool with idle-first dispatch
//   - sched: a scheduler that partitions a range of work across the pool
//     under SINGLE, STATIC or DYNAMIC (guided) disciplines
//
// # Basic usage
//
//	base, err := alm.NewBaseDense(64, 64)
//	store := alm.NewStore[complex128](base)
//	// ... fill store ...
//	err = alm.Rotate(context.Background(), store, alm.Euler{Psi: psi, Theta: theta, Phi: phi})
//
// The rotation's inner per-degree fan-out is dispatched through sched and
// pool; both are usable standalone for other range-partitioned work.
//
// # Package structure
//
//   - mav: array/matrix view primitive
//   - alm: index scheme, coefficient store, Wigner-d recursion, rotation
//   - kernels: elementwise numeric kernels
//   - pool: fixed-size worker pool and one-shot latch
//   - sched: work-partitioning scheduler
package shrot
