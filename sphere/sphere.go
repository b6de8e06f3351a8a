// Package sphere provides the spherical geometry kernels used to compute
// face moments on a geodesic mesh: triangle area, triangle centroid and
// great-circle arc length. All inputs are unit 3-vectors.
package sphere

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// Below this area the centroid falls back to the planar vertex average;
// the true centroid is the ratio of two vanishing quantities there.
const degenerateArea = 1.e-300

// TriArea returns the solid angle subtended by the spherical triangle with
// vertices a, b, c. The result is orientation independent and approaches
// zero smoothly for degenerate triangles.
func TriArea(a, b, c r3.Vector) float64 {
	return s2.PointArea(s2.Point{Vector: a}, s2.Point{Vector: b}, s2.Point{Vector: c})
}

// TriCentroid returns the center of mass of the spherical triangle with
// vertices a, b, c. The centroid lies inside the sphere, not on it, so
// callers must not assume unit length.
func TriCentroid(a, b, c r3.Vector) r3.Vector {
	var (
		pa = s2.Point{Vector: a}
		pb = s2.Point{Vector: b}
		pc = s2.Point{Vector: c}
	)
	area := s2.SignedArea(pa, pb, pc)
	if math.Abs(area) < degenerateArea {
		return a.Add(b).Add(c).Mul(1. / 3.)
	}
	// TrueCentroid is pre-multiplied by the signed area.
	return s2.TrueCentroid(pa, pb, pc).Mul(1. / area)
}

// ArcLength returns the great-circle distance in radians between the unit
// vectors a and b.
func ArcLength(a, b r3.Vector) float64 {
	return s2.Point{Vector: a}.Distance(s2.Point{Vector: b}).Radians()
}
