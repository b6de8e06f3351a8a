package geodesic

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// PatchCoordinates generates unit-sphere vertex coordinates for a block by
// barycentric interpolation between the patch corner directions, projected
// back onto the sphere. Triangular blocks take 3 corners (base-left,
// base-right, apex), quad blocks take 4 in cyclic order starting at the
// (0,0) corner. The corners span the ghosted index space, so for a block
// carved out of an icosahedral sector they would be the sector corners
// pushed out by the ghost width.
func PatchCoordinates(gb *GridBlock, corners []r3.Vector) ([]r3.Vector, error) {
	if len(corners) != gb.VertsPerFace {
		return nil, fmt.Errorf("%w: have %d patch corners, want %d",
			ErrBadConfig, len(corners), gb.VertsPerFace)
	}
	var (
		T     = float64(gb.TotalSide())
		vcart = make([]r3.Vector, gb.NVert)
	)
	for i := 0; i <= gb.TotalSide(); i++ {
		for j := 0; j <= gb.TotalSide(); j++ {
			if !gb.topo.VertExists(i, j) {
				continue
			}
			var v r3.Vector
			u, w := float64(j)/T, float64(i)/T
			if gb.VertsPerFace == 3 {
				v = corners[0].Mul(1. - u - w).Add(corners[1].Mul(u)).Add(corners[2].Mul(w))
			} else {
				v = corners[0].Mul((1. - u) * (1. - w)).
					Add(corners[1].Mul(u * (1. - w))).
					Add(corners[2].Mul(u * w)).
					Add(corners[3].Mul((1. - u) * w))
			}
			vcart[gb.topo.VertIndex(i, j)] = v.Normalize()
		}
	}
	return vcart, nil
}
