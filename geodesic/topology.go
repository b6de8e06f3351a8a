// Package geodesic implements a sectored block of a geodesic spherical
// mesh: the 2D index topology of a triangular or quadrilateral patch with
// ghost layers, the geometric moments of its faces and edges, and the
// per-face interpolation stencils with their least-squares reconstruction
// matrices.
package geodesic

// NoFace marks an absent neighbor slot in a face neighbor list.
const NoFace = -1

// sectorTopology captures the arity specific addressing rules of a sector.
// Faces, vertices and edges live in rectangular slot spaces addressed by
// row strides; slots outside the sector are non-existent elements. Two
// concrete variants exist, one per polygon arity, selected at block
// construction time.
type sectorTopology interface {
	VertsPerFace() int
	// TotalSide is the side length of the ghosted index space in cells.
	TotalSide() int
	VertSlots() int
	FaceSlots() int
	EdgeSlots() int
	VertIndex(i, j int) int
	VertExists(i, j int) bool
	FaceIndex(i, j int) int
	FaceCoords(face int) (i, j int)
	FaceExists(face int) bool
	EdgeExists(edge int) bool
	// FaceVerts lists the face's vertex slots in cyclic order, nil when
	// the face does not exist.
	FaceVerts(face int) []int
	// FaceNeighbors lists the edge-adjacent faces in cyclic side order,
	// side s lying between vertices s and s+1. Absent neighbors are NoFace.
	FaceNeighbors(face int) []int
	EdgeVerts(edge int) [2]int
	// SubRowBounds returns the face index bounds [jmin,jmax] of row i
	// within the sub-sector of the given side length based at vertex
	// (baseI, baseJ). ok is false when row i lies outside the sub-sector.
	SubRowBounds(baseI, baseJ, side, i int) (jmin, jmax int, ok bool)
}

func newSectorTopology(vertsPerFace, side, ghost int) sectorTopology {
	if vertsPerFace == 3 {
		return &triSector{side: side, ghost: ghost, total: side + 3*ghost}
	}
	return &quadSector{side: side, ghost: ghost, total: side + 2*ghost}
}

//----------------------------------------------------------------------------
// Triangular sector
//----------------------------------------------------------------------------

// triSector addresses a triangular patch of total side T. Vertex row i
// holds vertices j = 0..T-i; face row i holds 2*(T-i)-1 faces, even j
// pointing up, odd j pointing down. Rows are stored with a fixed stride so
// the tail of each row consists of non-existent slots.
type triSector struct {
	side, ghost, total int
}

func (ts *triSector) VertsPerFace() int { return 3 }
func (ts *triSector) TotalSide() int    { return ts.total }

func (ts *triSector) vertStride() int { return ts.total + 1 }
func (ts *triSector) faceStride() int { return 2*ts.total - 1 }

func (ts *triSector) VertSlots() int { return ts.vertStride() * ts.vertStride() }
func (ts *triSector) FaceSlots() int { return ts.total * ts.faceStride() }

// Three edge orientation families share the vertex slot grid: 0 runs along
// rows, 1 leans right toward row i+1, 2 leans left.
func (ts *triSector) EdgeSlots() int { return 3 * ts.VertSlots() }

func (ts *triSector) VertIndex(i, j int) int { return i*ts.vertStride() + j }

func (ts *triSector) VertExists(i, j int) bool {
	return i >= 0 && i <= ts.total && j >= 0 && j <= ts.total-i
}

func (ts *triSector) FaceIndex(i, j int) int { return i*ts.faceStride() + j }

func (ts *triSector) FaceCoords(face int) (i, j int) {
	i, j = face/ts.faceStride(), face%ts.faceStride()
	return
}

func (ts *triSector) faceAt(i, j int) bool {
	return i >= 0 && i < ts.total && j >= 0 && j <= 2*(ts.total-i)-2
}

func (ts *triSector) FaceExists(face int) bool {
	if face < 0 || face >= ts.FaceSlots() {
		return false
	}
	i, j := ts.FaceCoords(face)
	return ts.faceAt(i, j)
}

func (ts *triSector) FaceVerts(face int) []int {
	if !ts.FaceExists(face) {
		return nil
	}
	i, j := ts.FaceCoords(face)
	k := j / 2
	if j%2 == 0 { // upward
		return []int{ts.VertIndex(i, k), ts.VertIndex(i, k+1), ts.VertIndex(i+1, k)}
	}
	// downward
	return []int{ts.VertIndex(i, k+1), ts.VertIndex(i+1, k+1), ts.VertIndex(i+1, k)}
}

func (ts *triSector) neighborAt(i, j int) int {
	if !ts.faceAt(i, j) {
		return NoFace
	}
	return ts.FaceIndex(i, j)
}

func (ts *triSector) FaceNeighbors(face int) []int {
	if !ts.FaceExists(face) {
		return nil
	}
	i, j := ts.FaceCoords(face)
	if j%2 == 0 { // upward: base, right lean, left lean
		return []int{ts.neighborAt(i-1, j+1), ts.neighborAt(i, j+1), ts.neighborAt(i, j-1)}
	}
	// downward: right lean, top, left lean
	return []int{ts.neighborAt(i, j+1), ts.neighborAt(i+1, j-1), ts.neighborAt(i, j-1)}
}

func (ts *triSector) edgeCoords(edge int) (family, i, j int) {
	family = edge / ts.VertSlots()
	rest := edge % ts.VertSlots()
	i, j = rest/ts.vertStride(), rest%ts.vertStride()
	return
}

func (ts *triSector) edgeIndex(family, i, j int) int {
	return family*ts.VertSlots() + i*ts.vertStride() + j
}

func (ts *triSector) EdgeExists(edge int) bool {
	if edge < 0 || edge >= ts.EdgeSlots() {
		return false
	}
	family, i, j := ts.edgeCoords(edge)
	switch family {
	case 0: // (i,j)-(i,j+1)
		return i >= 0 && i <= ts.total && j >= 0 && j <= ts.total-i-1
	default: // 1: (i,j)-(i+1,j), 2: (i,j+1)-(i+1,j)
		return i >= 0 && i < ts.total && j >= 0 && j <= ts.total-i-1
	}
}

func (ts *triSector) EdgeVerts(edge int) [2]int {
	family, i, j := ts.edgeCoords(edge)
	switch family {
	case 0:
		return [2]int{ts.VertIndex(i, j), ts.VertIndex(i, j+1)}
	case 1:
		return [2]int{ts.VertIndex(i, j), ts.VertIndex(i+1, j)}
	default:
		return [2]int{ts.VertIndex(i, j+1), ts.VertIndex(i+1, j)}
	}
}

func (ts *triSector) SubRowBounds(baseI, baseJ, side, i int) (jmin, jmax int, ok bool) {
	if i < baseI || i >= baseI+side || i < 0 || i >= ts.total {
		return 0, 0, false
	}
	jmin = 2 * baseJ
	jmax = 2*baseJ + 2*(side-(i-baseI)) - 2
	if last := 2*(ts.total-i) - 2; jmax > last {
		jmax = last
	}
	if jmin < 0 {
		jmin = 0
	}
	ok = jmax >= jmin
	return
}

//----------------------------------------------------------------------------
// Quadrilateral sector
//----------------------------------------------------------------------------

// quadSector addresses a square patch of total side T. All slots within
// the T x T face grid and the (T+1) x (T+1) vertex grid exist.
type quadSector struct {
	side, ghost, total int
}

func (qs *quadSector) VertsPerFace() int { return 4 }
func (qs *quadSector) TotalSide() int    { return qs.total }

func (qs *quadSector) vertStride() int { return qs.total + 1 }

func (qs *quadSector) VertSlots() int { return qs.vertStride() * qs.vertStride() }
func (qs *quadSector) FaceSlots() int { return qs.total * qs.total }

// Two edge families on the vertex slot grid: 0 horizontal, 1 vertical.
func (qs *quadSector) EdgeSlots() int { return 2 * qs.VertSlots() }

func (qs *quadSector) VertIndex(i, j int) int { return i*qs.vertStride() + j }

func (qs *quadSector) VertExists(i, j int) bool {
	return i >= 0 && i <= qs.total && j >= 0 && j <= qs.total
}

func (qs *quadSector) FaceIndex(i, j int) int { return i*qs.total + j }

func (qs *quadSector) FaceCoords(face int) (i, j int) {
	i, j = face/qs.total, face%qs.total
	return
}

func (qs *quadSector) faceAt(i, j int) bool {
	return i >= 0 && i < qs.total && j >= 0 && j < qs.total
}

func (qs *quadSector) FaceExists(face int) bool {
	return face >= 0 && face < qs.FaceSlots()
}

func (qs *quadSector) FaceVerts(face int) []int {
	if !qs.FaceExists(face) {
		return nil
	}
	i, j := qs.FaceCoords(face)
	return []int{
		qs.VertIndex(i, j), qs.VertIndex(i, j+1),
		qs.VertIndex(i+1, j+1), qs.VertIndex(i+1, j),
	}
}

func (qs *quadSector) neighborAt(i, j int) int {
	if !qs.faceAt(i, j) {
		return NoFace
	}
	return qs.FaceIndex(i, j)
}

func (qs *quadSector) FaceNeighbors(face int) []int {
	if !qs.FaceExists(face) {
		return nil
	}
	i, j := qs.FaceCoords(face)
	// bottom, right, top, left: cyclic, so the opposite side is s+2
	return []int{
		qs.neighborAt(i-1, j), qs.neighborAt(i, j+1),
		qs.neighborAt(i+1, j), qs.neighborAt(i, j-1),
	}
}

func (qs *quadSector) edgeCoords(edge int) (family, i, j int) {
	family = edge / qs.VertSlots()
	rest := edge % qs.VertSlots()
	i, j = rest/qs.vertStride(), rest%qs.vertStride()
	return
}

func (qs *quadSector) edgeIndex(family, i, j int) int {
	return family*qs.VertSlots() + i*qs.vertStride() + j
}

func (qs *quadSector) EdgeExists(edge int) bool {
	if edge < 0 || edge >= qs.EdgeSlots() {
		return false
	}
	family, i, j := qs.edgeCoords(edge)
	if family == 0 { // (i,j)-(i,j+1)
		return i <= qs.total && j <= qs.total-1
	}
	// (i,j)-(i+1,j)
	return i <= qs.total-1 && j <= qs.total
}

func (qs *quadSector) EdgeVerts(edge int) [2]int {
	family, i, j := qs.edgeCoords(edge)
	if family == 0 {
		return [2]int{qs.VertIndex(i, j), qs.VertIndex(i, j+1)}
	}
	return [2]int{qs.VertIndex(i, j), qs.VertIndex(i+1, j)}
}

func (qs *quadSector) SubRowBounds(baseI, baseJ, side, i int) (jmin, jmax int, ok bool) {
	if i < baseI || i >= baseI+side || i < 0 || i >= qs.total {
		return 0, 0, false
	}
	jmin, jmax = baseJ, baseJ+side-1
	if jmin < 0 {
		jmin = 0
	}
	if jmax > qs.total-1 {
		jmax = qs.total - 1
	}
	ok = jmax >= jmin
	return
}
