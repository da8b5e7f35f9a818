package alm

import "math"

// DegToRad converts an angle in degrees to radians, for callers whose
// Euler triples come from a degree-based source (catalogs, FITS headers)
// rather than already being in radians as Rotate expects.
func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }

// RadToDeg converts an angle in radians to degrees.
func RadToDeg(rad float64) float64 { return rad * 180 / math.Pi }

// EulerFromDegrees builds an Euler triple from angles given in degrees.
func EulerFromDegrees(psiDeg, thetaDeg, phiDeg float64) Euler {
	return Euler{Psi: DegToRad(psiDeg), Theta: DegToRad(thetaDeg), Phi: DegToRad(phiDeg)}
}

// ComposeZRotations combines two Euler triples that share theta == 0 —
// pure z-axis (phase-only) rotations — into the single equivalent
// rotation. Composing two general Euler triples requires a full
// rotation-matrix product, which Rotate has no need for since it never
// materializes one; ComposeZRotations covers the one case Rotate's own
// theta==0 fast path already treats specially (see rotatePhaseOnly),
// where composition is just angle addition.
func ComposeZRotations(a, b Euler) (Euler, error) {
	if a.Theta != 0 || b.Theta != 0 {
		return Euler{}, &ShapeError{Message: "ComposeZRotations requires theta == 0 for both inputs"}
	}
	return Euler{Psi: a.Psi + b.Psi, Theta: 0, Phi: a.Phi + b.Phi}, nil
}
