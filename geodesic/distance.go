package geodesic

import "math"

// DistanceMap converts the reference (logical) radial distance of a shell
// to a physical radius. Maps are shared between blocks and immutable; a
// block only holds a handle and never mutates or owns the map.
type DistanceMap interface {
	Radius(xi float64) float64
}

// LinearDistance spaces shells uniformly in radius.
type LinearDistance struct {
	R0    float64 // radius at xi = 0
	Scale float64 // radius increment per unit reference distance
}

func (ld LinearDistance) Radius(xi float64) float64 {
	return ld.R0 + ld.Scale*xi
}

// LogDistance spaces shells uniformly in log radius, keeping the shell
// aspect ratio constant through the block.
type LogDistance struct {
	R0    float64 // radius at xi = 0
	Scale float64 // log radius increment per unit reference distance
}

func (ld LogDistance) Radius(xi float64) float64 {
	return ld.R0 * math.Exp(ld.Scale*xi)
}
