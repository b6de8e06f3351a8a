package geodesic

import (
	"bytes"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func octantCorners() []r3.Vector {
	return []r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}
}

func quadPatchCorners() []r3.Vector {
	s := 1. / math.Sqrt2
	return []r3.Vector{{X: 1}, {Y: 1}, {Y: s, Z: s}, {X: s, Z: s}}
}

func associatePatch(t *testing.T, sb *StenciledBlock) {
	t.Helper()
	corners := octantCorners()
	if sb.VertsPerFace == 4 {
		corners = quadPatchCorners()
	}
	vcart, err := PatchCoordinates(sb.GridBlock, corners)
	assert.NoError(t, err)
	err = sb.AssociateMesh(0, 0., 1., make([]bool, sb.VertsPerFace),
		[2]bool{}, vcart, LinearDistance{R0: 1, Scale: 0.5})
	assert.NoError(t, err)
}

func TestRadialScale(t *testing.T) {
	for _, r := range []float64{0.25, 0.5, 1, 2, math.Pi} {
		assert.Equal(t, 1., RadialScale(0, r))
		assert.Equal(t, 1.+r, RadialScale(-1, r))
		// The inner and outer projections are exact inverses
		assert.Equal(t, 1., RadialScale(-1, r)*RadialScale(1, r))
	}
}

func TestStenciledRegionTri(t *testing.T) {
	sb, err := NewStenciledBlock(Config{VertsPerFace: 3, SideLength: 4, GhostWidth: 1,
		Height: 4, GhostHeight: 1, DrpRatio: 1})
	assert.NoError(t, err)
	assert.Equal(t, 7, sb.NStencils)
	assert.Equal(t, []int{5, 4, 4, 4, 4, 4, 4}, sb.ZonesPerStencil)

	// Interior plus one layer, minus the two small triangles at each
	// clipped corner of the enlarged region
	excluded := map[[2]int]bool{
		{0, 10}: true, {0, 11}: true, {0, 12}: true, {1, 10}: true,
		{5, 0}: true, {5, 1}: true, {5, 2}: true, {6, 0}: true,
	}
	var (
		T      = sb.TotalSide()
		marked int
	)
	for i := 0; i < T; i++ {
		for j := 0; j <= 2*(T-i)-2; j++ {
			face := sb.FaceIndexSector(i, j)
			assert.NotEqual(t, NoFace, face)
			want := !excluded[[2]int{i, j}]
			assert.Equal(t, want, sb.IsStenciled(face), "face (%d,%d)", i, j)
			if sb.IsStenciled(face) {
				marked++
			}
		}
	}
	assert.Equal(t, T*T-len(excluded), marked)
}

func TestStenciledRegionQuad(t *testing.T) {
	sb, err := NewStenciledBlock(Config{VertsPerFace: 4, SideLength: 4, GhostWidth: 2,
		Height: 4, GhostHeight: 1, DrpRatio: 1})
	assert.NoError(t, err)
	assert.Equal(t, 9, sb.NStencils)

	// The marked square window: interior plus one layer, no corner clipping
	var (
		g      = sb.GhostWidth
		s      = sb.SideLength
		T      = sb.TotalSide()
		marked int
	)
	for i := 0; i < T; i++ {
		for j := 0; j < T; j++ {
			var (
				face = sb.FaceIndexSector(i, j)
				want = i >= g-1 && i <= g+s && j >= g-1 && j <= g+s
			)
			assert.Equal(t, want, sb.IsStenciled(face), "face (%d,%d)", i, j)
			if sb.IsStenciled(face) {
				marked++
			}
		}
	}
	assert.Equal(t, (s+2)*(s+2), marked)
}

func TestCentralStencil(t *testing.T) {
	sb, err := NewStenciledBlock(Config{VertsPerFace: 3, SideLength: 4, GhostWidth: 2,
		Height: 4, GhostHeight: 1, DrpRatio: 1})
	assert.NoError(t, err)
	associatePatch(t, sb)

	// Ghost width 2 supports every stencil of the marked region
	assert.Equal(t, 0, sb.UnbuiltStencils())

	for face := 0; face < sb.NFace; face++ {
		if !sb.IsStenciled(face) {
			continue
		}
		zl := sb.ZoneList(face, 0)
		assert.Len(t, zl, 2*(sb.VertsPerFace+2))
		// All edge neighbors on the principal shell, in side order
		for ic := 0; ic < sb.VertsPerFace; ic++ {
			assert.Equal(t, sb.FF[face][ic], zl[2*ic])
			assert.Equal(t, 0, zl[2*ic+1])
		}
		// Then the face itself one shell in and one shell out
		assert.Equal(t, face, zl[6])
		assert.Equal(t, -1, zl[7])
		assert.Equal(t, face, zl[8])
		assert.Equal(t, 1, zl[9])
	}
}

func TestDirectionalStencils(t *testing.T) {
	sb, err := NewStenciledBlock(Config{VertsPerFace: 3, SideLength: 4, GhostWidth: 2,
		Height: 4, GhostHeight: 1, DrpRatio: 1})
	assert.NoError(t, err)
	associatePatch(t, sb)

	vpf := sb.VertsPerFace
	for face := 0; face < sb.NFace; face++ {
		if !sb.IsStenciled(face) {
			continue
		}
		for s := 1; s <= vpf; s++ {
			var (
				down = sb.ZoneList(face, s)
				up   = sb.ZoneList(face, s+vpf)
			)
			assert.Len(t, down, 8)
			assert.Len(t, up, 8)

			// Down and up share the lateral zones and differ only in the
			// radial plane of the principal face
			assert.Equal(t, down[:6], up[:6])
			assert.Equal(t, face, down[6])
			assert.Equal(t, -1, down[7])
			assert.Equal(t, face, up[6])
			assert.Equal(t, 1, up[7])

			// The first zone is the neighbor across side s-1, the next two
			// are that neighbor's flanking faces
			nface := sb.FF[face][s-1]
			assert.Equal(t, nface, down[0])
			ic := inList(sb.FF[nface], face)
			assert.True(t, ic >= 0)
			assert.Equal(t, sb.FF[nface][(ic+1)%vpf], down[2])
			assert.Equal(t, sb.FF[nface][(ic+vpf-1)%vpf], down[4])

			// Lateral zones stay on the principal shell
			for k := 0; k < 3; k++ {
				assert.Equal(t, 0, down[2*k+1])
			}
		}
		// Every plane tag is one of -1, 0, +1
		for stencil := 0; stencil < sb.NStencils; stencil++ {
			zl := sb.ZoneList(face, stencil)
			for k := 0; k < len(zl)/2; k++ {
				assert.Contains(t, []int{-1, 0, 1}, zl[2*k+1])
			}
		}
	}
}

func TestQuadDirectionalStencils(t *testing.T) {
	sb, err := NewStenciledBlock(Config{VertsPerFace: 4, SideLength: 4, GhostWidth: 2,
		Height: 4, GhostHeight: 1, DrpRatio: 0.75})
	assert.NoError(t, err)
	associatePatch(t, sb)
	assert.Equal(t, 0, sb.UnbuiltStencils())

	for face := 0; face < sb.NFace; face++ {
		if !sb.IsStenciled(face) {
			continue
		}
		for s := 1; s <= 4; s++ {
			down := sb.ZoneList(face, s)
			assert.Len(t, down, 8)
			nface := sb.FF[face][s-1]
			assert.Equal(t, nface, down[0])

			// The flanks exclude both the principal face and the face
			// opposite it across the neighbor
			ic := inList(sb.FF[nface], face)
			opposite := sb.FF[nface][(ic+2)%4]
			for _, flank := range []int{down[2], down[4]} {
				assert.NotEqual(t, face, flank)
				assert.NotEqual(t, opposite, flank)
			}
		}
	}
}

func TestMomentsOnOctant(t *testing.T) {
	sb, err := NewStenciledBlock(Config{VertsPerFace: 3, SideLength: 4, GhostWidth: 1,
		Height: 4, GhostHeight: 1, DrpRatio: 1})
	assert.NoError(t, err)
	associatePatch(t, sb)

	{ // Face areas tile the octant
		var sum float64
		for face := 0; face < sb.NFace; face++ {
			sum += sb.FaceArea[face]
		}
		assert.InDelta(t, math.Pi/2, sum, 1.e-10)
	}
	{ // Non-existent slots carry zero moments
		face := sb.topo.FaceIndex(1, 12)
		assert.False(t, sb.FaceExists(face))
		assert.Equal(t, 0., sb.FaceArea[face])
		assert.Equal(t, r3.Vector{}, sb.FaceCMass[face])
	}
	{ // Centers of mass lie strictly inside the unit sphere
		for face := 0; face < sb.NFace; face++ {
			if !sb.FaceExists(face) {
				continue
			}
			n := sb.FaceCMass[face].Norm()
			assert.True(t, n > 0.9 && n < 1., "face %d cmass norm %g", face, n)
		}
	}
	{ // Edge lengths are positive great-circle arcs
		for edge := 0; edge < sb.NEdge; edge++ {
			if !sb.EdgeExists(edge) {
				assert.Equal(t, 0., sb.EdgeLength[edge])
				continue
			}
			assert.True(t, sb.EdgeLength[edge] > 0.)
			assert.True(t, sb.EdgeLength[edge] < math.Pi/2)
		}
	}
}

func TestReconstructionRecoversLinearField(t *testing.T) {
	sb, err := NewStenciledBlock(Config{VertsPerFace: 3, SideLength: 4, GhostWidth: 2,
		Height: 4, GhostHeight: 1, DrpRatio: 0.5})
	assert.NoError(t, err)
	associatePatch(t, sb)

	// A field with constant gradient a gives zone differences b = A a, so
	// the least-squares solve must return a exactly.
	a := r3.Vector{X: 0.3, Y: -1.2, Z: 0.7}
	face := sb.FaceIndexSector(4, 6)
	assert.True(t, sb.IsStenciled(face))
	for stencil := 0; stencil < sb.NStencils; stencil++ {
		at, err := sb.DesignTranspose(face, stencil)
		assert.NoError(t, err)
		zones := sb.ZonesPerStencil[stencil]
		b := make([]float64, zones)
		for k := 0; k < zones; k++ {
			b[k] = at.At(0, k)*a.X + at.At(1, k)*a.Y + at.At(2, k)*a.Z
		}
		x, err := sb.Solve(face, stencil, b)
		assert.NoError(t, err)
		assert.InDelta(t, a.X, x.X, 1.e-9)
		assert.InDelta(t, a.Y, x.Y, 1.e-9)
		assert.InDelta(t, a.Z, x.Z, 1.e-9)
	}
}

func TestRebuildIsDeterministic(t *testing.T) {
	sb, err := NewStenciledBlock(Config{VertsPerFace: 3, SideLength: 4, GhostWidth: 2,
		Height: 4, GhostHeight: 1, DrpRatio: 1})
	assert.NoError(t, err)
	associatePatch(t, sb)

	face := sb.FaceIndexSector(3, 4)
	first, err := sb.DesignTranspose(face, 0)
	assert.NoError(t, err)
	var (
		saved = mat.DenseCopyOf(first)
		zones = append([]int(nil), sb.ZoneList(face, 0)...)
	)

	// Re-associating with the same inputs must reproduce the zone lists
	// and the matrices bit for bit
	associatePatch(t, sb)
	second, err := sb.DesignTranspose(face, 0)
	assert.NoError(t, err)
	assert.True(t, mat.Equal(saved, second))
	assert.Equal(t, zones, sb.ZoneList(face, 0))
}

func TestDegenerateStencilRefused(t *testing.T) {
	sb, err := NewStenciledBlock(Config{VertsPerFace: 3, SideLength: 4, GhostWidth: 2,
		Height: 4, GhostHeight: 1, DrpRatio: 1})
	assert.NoError(t, err)
	associatePatch(t, sb)

	// Flatten every center of mass onto the z = 0 plane: all design rows
	// lose their third component, the normal-equations matrix drops rank
	for face := range sb.FaceCMass {
		sb.FaceCMass[face].Z = 0
	}
	sb.computeAllMatrices()

	face := sb.FaceIndexSector(4, 6)
	assert.True(t, sb.Degenerate(face, 0))
	cond, err := sb.StencilCond(face, 0)
	assert.NoError(t, err)
	assert.True(t, math.IsInf(cond, 1) || cond > CondLimit)

	_, err = sb.Solve(face, 0, make([]float64, sb.ZonesPerStencil[0]))
	assert.ErrorIs(t, err, ErrDegenerateStencil)
}

func TestGhostWidthOneDegrades(t *testing.T) {
	sb, err := NewStenciledBlock(Config{VertsPerFace: 3, SideLength: 4, GhostWidth: 1,
		Height: 4, GhostHeight: 1, DrpRatio: 1})
	assert.NoError(t, err)
	associatePatch(t, sb)

	// The buffer layer of the marked region has zones outside the block,
	// so some stencils stay unbuilt while the block itself is usable
	assert.True(t, sb.UnbuiltStencils() > 0)

	var built, unbuilt int
	for face := 0; face < sb.NFace; face++ {
		if !sb.IsStenciled(face) {
			continue
		}
		for stencil := 0; stencil < sb.NStencils; stencil++ {
			if sb.ZoneList(face, stencil) == nil {
				unbuilt++
				_, err := sb.Solve(face, stencil, make([]float64, sb.ZonesPerStencil[stencil]))
				assert.ErrorIs(t, err, ErrStencilNotBuilt)
			} else {
				built++
			}
		}
	}
	assert.True(t, built > 0)
	assert.Equal(t, sb.UnbuiltStencils(), unbuilt)

	// A deep interior face keeps its full stencil set
	face := sb.FaceIndexSector(2, 5)
	for stencil := 0; stencil < sb.NStencils; stencil++ {
		assert.NotNil(t, sb.ZoneList(face, stencil))
	}
}

func TestStencilQueryErrors(t *testing.T) {
	sb, err := NewStenciledBlock(Config{VertsPerFace: 3, SideLength: 4, GhostWidth: 1,
		Height: 4, GhostHeight: 1, DrpRatio: 1})
	assert.NoError(t, err)
	{ // No queries before mesh association
		_, err = sb.Solve(0, 0, make([]float64, 5))
		assert.ErrorIs(t, err, ErrNotAssociated)
	}
	associatePatch(t, sb)
	{ // Faces outside the stenciled region are refused
		face := sb.FaceIndexSector(6, 0)
		assert.True(t, sb.FaceExists(face))
		assert.False(t, sb.IsStenciled(face))
		_, err = sb.Solve(face, 0, make([]float64, 5))
		assert.ErrorIs(t, err, ErrNotStenciled)
	}
	{ // The difference vector must match the stencil's zone count
		face := sb.FaceIndexSector(2, 5)
		_, err = sb.Solve(face, 0, make([]float64, 4))
		assert.Error(t, err)
	}
	{ // DrpRatio is required for the radial projections
		_, err = NewStenciledBlock(Config{VertsPerFace: 3, SideLength: 4, GhostWidth: 1,
			Height: 4, GhostHeight: 1})
		assert.ErrorIs(t, err, ErrBadConfig)
	}
}

func TestPrintStencil(t *testing.T) {
	sb, err := NewStenciledBlock(Config{VertsPerFace: 3, SideLength: 4, GhostWidth: 2,
		Height: 4, GhostHeight: 1, DrpRatio: 1})
	assert.NoError(t, err)
	associatePatch(t, sb)

	var buf bytes.Buffer
	face := sb.FaceIndexSector(4, 6)
	sb.PrintStencil(&buf, face, 0)
	out := buf.String()
	assert.Contains(t, out, "principal face")
	assert.Contains(t, out, "plane:")
	assert.Contains(t, out, "cond(AtA)")
}
