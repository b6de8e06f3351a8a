package geodesic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriSectorTopology(t *testing.T) {
	topo := newSectorTopology(3, 4, 1) // total side 7
	{ // Slot counts and existing element counts
		T := topo.TotalSide()
		assert.Equal(t, 7, T)
		assert.Equal(t, (T+1)*(T+1), topo.VertSlots())
		assert.Equal(t, T*(2*T-1), topo.FaceSlots())

		var nFace int
		for face := 0; face < topo.FaceSlots(); face++ {
			if topo.FaceExists(face) {
				nFace++
			}
		}
		assert.Equal(t, T*T, nFace)

		var nEdge int
		for edge := 0; edge < topo.EdgeSlots(); edge++ {
			if topo.EdgeExists(edge) {
				nEdge++
			}
		}
		assert.Equal(t, 3*T*(T+1)/2, nEdge)
	}
	{ // Row occupancy: row i holds faces j = 0 .. 2*(T-i)-2
		T := topo.TotalSide()
		for i := 0; i < T; i++ {
			for j := 0; j < 2*T-1; j++ {
				face := topo.FaceIndex(i, j)
				assert.Equal(t, j <= 2*(T-i)-2, topo.FaceExists(face))
				fi, fj := topo.FaceCoords(face)
				assert.Equal(t, i, fi)
				assert.Equal(t, j, fj)
			}
		}
	}
	{ // Neighbor reciprocity and shared vertices
		for face := 0; face < topo.FaceSlots(); face++ {
			if !topo.FaceExists(face) {
				continue
			}
			fv := topo.FaceVerts(face)
			assert.Len(t, fv, 3)
			for _, nb := range topo.FaceNeighbors(face) {
				if nb == NoFace {
					continue
				}
				assert.True(t, topo.FaceExists(nb))
				assert.True(t, inList(topo.FaceNeighbors(nb), face) >= 0)
				var shared int
				for _, v := range topo.FaceVerts(nb) {
					if inList(fv, v) >= 0 {
						shared++
					}
				}
				assert.Equal(t, 2, shared)
			}
		}
	}
	{ // Up and down faces of one rhombus share the leaning edge vertices
		up := topo.FaceVerts(topo.FaceIndex(2, 4))
		down := topo.FaceVerts(topo.FaceIndex(2, 5))
		var shared int
		for _, v := range down {
			if inList(up, v) >= 0 {
				shared++
			}
		}
		assert.Equal(t, 2, shared)
	}
	{ // Edge vertex pairs exist and are distinct
		for edge := 0; edge < topo.EdgeSlots(); edge++ {
			if !topo.EdgeExists(edge) {
				continue
			}
			ev := topo.EdgeVerts(edge)
			assert.NotEqual(t, ev[0], ev[1])
		}
	}
}

func TestQuadSectorTopology(t *testing.T) {
	topo := newSectorTopology(4, 4, 2) // total side 8
	{ // All slots within the square grid exist
		T := topo.TotalSide()
		assert.Equal(t, 8, T)
		assert.Equal(t, T*T, topo.FaceSlots())
		for face := 0; face < topo.FaceSlots(); face++ {
			assert.True(t, topo.FaceExists(face))
		}
		var nEdge int
		for edge := 0; edge < topo.EdgeSlots(); edge++ {
			if topo.EdgeExists(edge) {
				nEdge++
			}
		}
		assert.Equal(t, 2*T*(T+1), nEdge)
	}
	{ // Cyclic neighbor order puts the opposite side at s+2
		face := topo.FaceIndex(3, 3)
		ff := topo.FaceNeighbors(face)
		assert.Len(t, ff, 4)
		assert.Equal(t, topo.FaceIndex(2, 3), ff[0])
		assert.Equal(t, topo.FaceIndex(3, 4), ff[1])
		assert.Equal(t, topo.FaceIndex(4, 3), ff[2])
		assert.Equal(t, topo.FaceIndex(3, 2), ff[3])
	}
	{ // Reciprocity
		for face := 0; face < topo.FaceSlots(); face++ {
			for _, nb := range topo.FaceNeighbors(face) {
				if nb == NoFace {
					continue
				}
				assert.True(t, inList(topo.FaceNeighbors(nb), face) >= 0)
			}
		}
	}
	{ // Border faces lose the outward neighbor
		ff := topo.FaceNeighbors(topo.FaceIndex(0, 3))
		assert.Equal(t, NoFace, ff[0])
		assert.NotEqual(t, NoFace, ff[2])
	}
}

func TestSubRowBounds(t *testing.T) {
	{ // Triangular sub-sector rows shrink by one rhombus per row
		topo := newSectorTopology(3, 4, 2) // total side 10
		jmin, jmax, ok := topo.SubRowBounds(2, 2, 4, 2)
		assert.True(t, ok)
		assert.Equal(t, 4, jmin)
		assert.Equal(t, 10, jmax)
		jmin, jmax, ok = topo.SubRowBounds(2, 2, 4, 5)
		assert.True(t, ok)
		assert.Equal(t, 4, jmin)
		assert.Equal(t, 4, jmax)
		_, _, ok = topo.SubRowBounds(2, 2, 4, 6)
		assert.False(t, ok)
	}
	{ // Quad sub-sector is a plain square window
		topo := newSectorTopology(4, 4, 2)
		jmin, jmax, ok := topo.SubRowBounds(1, 1, 6, 4)
		assert.True(t, ok)
		assert.Equal(t, 1, jmin)
		assert.Equal(t, 6, jmax)
		_, _, ok = topo.SubRowBounds(1, 1, 6, 7)
		assert.False(t, ok)
	}
}
