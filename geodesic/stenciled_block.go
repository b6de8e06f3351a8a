package geodesic

import (
	"fmt"
	"io"
	"math"

	"github.com/golang/geo/r3"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/geofv/sphere"
	"github.com/notargets/geofv/utils"
)

// CondLimit is the 1-norm condition number of the normal-equations matrix
// above which a stencil is flagged as degenerate.
const CondLimit = 1.e12

// RadialScale is the factor applied to a zone's center of mass to project
// it from radial plane -1, 0 or +1 onto the principal shell, for radial
// grid ratio r. The -1 and +1 factors are exact inverses.
func RadialScale(plane int, r float64) float64 {
	switch plane {
	case -1:
		return 1. + r
	case 1:
		return 1. / (1. + r)
	default:
		return 1.
	}
}

// reconMatrix holds the precomputed least-squares machinery of one
// (face, stencil) pair. The design matrix A and the normal-equations
// matrix AtA are not retained, only At and the factorization.
type reconMatrix struct {
	at         *mat.Dense // transposed design matrix, 3 x zones
	lu         *mat.LU    // factorized normal-equations matrix
	cond       float64    // 1-norm condition estimate of AtA
	degenerate bool
	built      bool
}

// StenciledBlock extends a GridBlock with the geometric moments of its
// faces and edges and with per-face interpolation stencils and their
// reconstruction matrices. All derived arrays are owned by the block,
// allocated together at dimension time and released together; stencils and
// matrices are rebuilt in full on every mesh association.
type StenciledBlock struct {
	*GridBlock

	NStencils       int   // 1 central + one per face side, for both radial planes
	ZonesPerStencil []int

	FaceArea   []float64   // solid angle, zero for non-existent faces
	FaceCMass  []r3.Vector // center of mass, not on the unit sphere
	EdgeLength []float64   // great-circle arc length

	stenciled []bool
	zoneList  [][]int // flat (face, plane) pairs per (face, stencil), nil when not built
	recon     []reconMatrix
	unbuilt   int
}

func NewStenciledBlock(cfg Config) (sb *StenciledBlock, err error) {
	sb = &StenciledBlock{}
	if err = sb.SetDimensions(cfg); err != nil {
		return nil, err
	}
	return
}

// SetDimensions (re)allocates every derived array for the given dimensions
// and recomputes the stenciled region. The region depends only on index
// topology, so it is fixed here, before any geometry is available; the
// stencils themselves wait for AssociateMesh.
func (sb *StenciledBlock) SetDimensions(cfg Config) error {
	if cfg.DrpRatio <= 0 {
		return fmt.Errorf("%w: radial grid ratio must be positive, have %g",
			ErrBadConfig, cfg.DrpRatio)
	}
	if sb.GridBlock == nil {
		sb.GridBlock = &GridBlock{}
	}
	if err := sb.GridBlock.SetDimensions(cfg); err != nil {
		return err
	}
	sb.NStencils = 2*cfg.VertsPerFace + 1
	sb.ZonesPerStencil = make([]int, sb.NStencils)
	sb.ZonesPerStencil[0] = cfg.VertsPerFace + 2
	for stencil := 1; stencil < sb.NStencils; stencil++ {
		sb.ZonesPerStencil[stencil] = 4
	}
	sb.FaceArea = make([]float64, sb.NFace)
	sb.FaceCMass = make([]r3.Vector, sb.NFace)
	sb.EdgeLength = make([]float64, sb.NEdge)
	sb.stenciled = make([]bool, sb.NFace)
	sb.zoneList = make([][]int, sb.NFace*sb.NStencils)
	sb.recon = make([]reconMatrix, sb.NFace*sb.NStencils)
	sb.markStenciledArea()
	return nil
}

// AssociateMesh attaches the block to the mesh and rebuilds stencils,
// moments and reconstruction matrices from scratch. A failed call leaves
// the block unusable for reconstruction until the next successful one.
func (sb *StenciledBlock) AssociateMesh(index int, ximin, ximax float64, corners []bool,
	borders [2]bool, vcart []r3.Vector, distMap DistanceMap) error {
	if err := sb.GridBlock.AssociateMesh(index, ximin, ximax, corners, borders, vcart, distMap); err != nil {
		return err
	}
	if err := sb.buildAllStencils(); err != nil {
		return err
	}
	sb.computeMoments()
	sb.computeAllMatrices()
	return nil
}

// IsStenciled reports whether the face qualifies for stencil construction:
// interior plus one layer, minus the singular corner wedges.
func (sb *StenciledBlock) IsStenciled(face int) bool {
	return face >= 0 && face < sb.NFace && sb.stenciled[face]
}

// UnbuiltStencils is the number of stencils on stenciled faces skipped
// because a zone fell outside the block's index space. Zero whenever the
// ghost width is at least 2.
func (sb *StenciledBlock) UnbuiltStencils() int { return sb.unbuilt }

// ZoneList returns the stencil's zones as flat (face, plane) pairs, nil
// for unbuilt stencils and faces outside the stenciled region. The slice
// is owned by the block; callers must not modify it.
func (sb *StenciledBlock) ZoneList(pface, stencil int) []int {
	if pface < 0 || pface >= sb.NFace || stencil < 0 || stencil >= sb.NStencils {
		return nil
	}
	return sb.zoneList[sb.stencilIndex(pface, stencil)]
}

func (sb *StenciledBlock) stencilIndex(pface, stencil int) int {
	return pface*sb.NStencils + stencil
}

//----------------------------------------------------------------------------
// Stenciled region
//----------------------------------------------------------------------------

func (sb *StenciledBlock) setRegion(baseI, baseJ, side int, val bool) {
	for i := baseI; i < baseI+side; i++ {
		jmin, jmax, ok := sb.topo.SubRowBounds(baseI, baseJ, side, i)
		if !ok {
			continue
		}
		for j := jmin; j <= jmax; j++ {
			if face := sb.FaceIndexSector(i, j); face != NoFace {
				sb.stenciled[face] = val
			}
		}
	}
}

func (sb *StenciledBlock) markStenciledArea() {
	var (
		g = sb.GhostWidth
		s = sb.SideLength
	)
	if sb.VertsPerFace == 3 {
		// Mark the interior plus one layer of faces
		sb.setRegion(g-1, g-1, s+3, true)
		// Clip the small triangles at the SE corner
		sb.setRegion(g-1, g+s, 2, false)
		// Clip the small triangles at the N corner
		sb.setRegion(g+s, g-1, 2, false)
	} else {
		// Quad sectors have no singular corners, so no clipping
		sb.setRegion(g-1, g-1, s+2, true)
	}
}

//----------------------------------------------------------------------------
// Stencils
//----------------------------------------------------------------------------

// buildAllStencils enumerates the zone lists for every stenciled face.
// The construction is purely topological and precedes every
// geometry-dependent step. Zone lists live in one slab sized here; a face
// qualifies but a stencil may still be skipped when a zone falls outside
// the block (possible only for ghost width 1, where the marked buffer has
// no support of its own).
func (sb *StenciledBlock) buildAllStencils() error {
	var (
		vpf      = sb.VertsPerFace
		eligible int
	)
	for pface := 0; pface < sb.NFace; pface++ {
		if sb.stenciled[pface] {
			eligible++
		}
	}
	per := 0
	for stencil := 0; stencil < sb.NStencils; stencil++ {
		per += 2 * sb.ZonesPerStencil[stencil]
	}
	var (
		slab = make([]int, eligible*per)
		off  = 0
	)
	carve := func(zones int) []int {
		zl := slab[off : off+2*zones : off+2*zones]
		off += 2 * zones
		return zl
	}
	for i := range sb.zoneList {
		sb.zoneList[i] = nil
	}
	sb.unbuilt = 0

	for pface := 0; pface < sb.NFace; pface++ {
		if !sb.stenciled[pface] {
			continue
		}

		// Central: all edge neighbors at plane 0, then the face itself one
		// shell in and one shell out.
		central := carve(sb.ZonesPerStencil[0])
		complete := true
		for ic := 0; ic < vpf; ic++ {
			face := sb.FF[pface][ic]
			if face == NoFace {
				complete = false
				break
			}
			central[2*ic], central[2*ic+1] = face, 0
		}
		central[2*vpf], central[2*vpf+1] = pface, -1
		central[2*vpf+2], central[2*vpf+3] = pface, 1
		if complete {
			sb.zoneList[sb.stencilIndex(pface, 0)] = central
		} else {
			sb.unbuilt++
			log.Debugf("block %d: face %d central stencil has a zone outside the block, skipped",
				sb.BlockIndex, pface)
		}

		// Directional: the neighbor across each side plus its two flanking
		// faces, with the principal face one shell in (down) or out (up).
		for stencil := 1; stencil <= vpf; stencil++ {
			var (
				down = carve(4)
				up   = carve(4)
			)
			nface := sb.FF[pface][stencil-1]
			if nface == NoFace {
				sb.unbuilt += 2
				continue
			}
			ic := inList(sb.FF[nface], pface)
			if ic < 0 {
				return fmt.Errorf("geodesic: block %d: face %d missing from the neighbor list of face %d",
					sb.BlockIndex, pface, nface)
			}
			f1 := sb.FF[nface][(ic+1)%vpf]
			f2 := sb.FF[nface][(ic+vpf-1)%vpf]
			if f1 == NoFace || f2 == NoFace {
				sb.unbuilt += 2
				log.Debugf("block %d: face %d directional stencil %d has a zone outside the block, skipped",
					sb.BlockIndex, pface, stencil)
				continue
			}
			down[0], down[1] = nface, 0
			down[2], down[3] = f1, 0
			down[4], down[5] = f2, 0
			down[6], down[7] = pface, -1
			copy(up, down[:6])
			up[6], up[7] = pface, 1
			sb.zoneList[sb.stencilIndex(pface, stencil)] = down
			sb.zoneList[sb.stencilIndex(pface, stencil+vpf)] = up
		}
	}
	if sb.unbuilt > 0 {
		log.WithFields(log.Fields{"block": sb.BlockIndex, "skipped": sb.unbuilt}).
			Warn("stencils with zones outside the block were not built; a ghost width of 2 or more gives full support")
	}
	return nil
}

func inList(list []int, val int) int {
	for i, v := range list {
		if v == val {
			return i
		}
	}
	return -1
}

//----------------------------------------------------------------------------
// Moments
//----------------------------------------------------------------------------

// computeMoments fills the face areas, face centers of mass and edge
// lengths. Faces and edges are independent work units, so both passes run
// as parallel loops.
func (sb *StenciledBlock) computeMoments() {
	utils.ParallelFor(sb.NFace, func(imin, imax int) {
		var (
			area1, area2 float64
			cm1, cm2     r3.Vector
			vc           = sb.VertCart
		)
		for face := imin; face < imax; face++ {
			if !sb.FaceExists(face) {
				sb.FaceArea[face] = 0.
				sb.FaceCMass[face] = r3.Vector{}
				continue
			}
			fv := sb.FV[face]

			// A triangle and its center of mass. The CM does not lie on the
			// unit sphere.
			if sb.VertsPerFace == 3 {
				area1 = sphere.TriArea(vc[fv[0]], vc[fv[1]], vc[fv[2]])
				area2 = 0.
				cm1 = sphere.TriCentroid(vc[fv[0]], vc[fv[1]], vc[fv[2]])
				cm2 = r3.Vector{}
			} else {
				// Two triangles sharing the 0-2 diagonal and their common
				// center of mass
				area1 = sphere.TriArea(vc[fv[0]], vc[fv[1]], vc[fv[2]])
				area2 = sphere.TriArea(vc[fv[2]], vc[fv[3]], vc[fv[0]])
				cm1 = sphere.TriCentroid(vc[fv[0]], vc[fv[1]], vc[fv[2]])
				cm2 = sphere.TriCentroid(vc[fv[2]], vc[fv[3]], vc[fv[0]])
			}
			sb.FaceArea[face] = area1 + area2
			if sb.FaceArea[face] > 0. {
				sb.FaceCMass[face] = cm1.Mul(area1).Add(cm2.Mul(area2)).Mul(1. / sb.FaceArea[face])
			} else {
				sb.FaceCMass[face] = r3.Vector{}
			}
		}
	})
	utils.ParallelFor(sb.NEdge, func(imin, imax int) {
		for edge := imin; edge < imax; edge++ {
			if !sb.EdgeExists(edge) {
				continue
			}
			ev := sb.EV[edge]
			sb.EdgeLength[edge] = sphere.ArcLength(sb.VertCart[ev[0]], sb.VertCart[ev[1]])
		}
	})
}

//----------------------------------------------------------------------------
// Reconstruction matrices
//----------------------------------------------------------------------------

func (sb *StenciledBlock) computeAllMatrices() {
	utils.ParallelFor(sb.NFace, func(imin, imax int) {
		for pface := imin; pface < imax; pface++ {
			if !sb.stenciled[pface] {
				continue
			}
			for stencil := 0; stencil < sb.NStencils; stencil++ {
				if sb.zoneList[sb.stencilIndex(pface, stencil)] == nil {
					continue
				}
				sb.computeOneMatrix(pface, stencil)
			}
		}
	})
}

func (sb *StenciledBlock) computeOneMatrix(pface, stencil int) {
	var (
		idx   = sb.stencilIndex(pface, stencil)
		zl    = sb.zoneList[idx]
		zones = sb.ZonesPerStencil[stencil]
		A     = mat.NewDense(zones, 3, nil)
		pc    = sb.FaceCMass[pface]
	)
	// One row per zone: the radially scaled center of mass offset
	for row := 0; row < zones; row++ {
		var (
			cm = sb.FaceCMass[zl[2*row]]
			rp = RadialScale(zl[2*row+1], sb.DrpRatio)
		)
		A.Set(row, 0, rp*cm.X-pc.X)
		A.Set(row, 1, rp*cm.Y-pc.Y)
		A.Set(row, 2, rp*cm.Z-pc.Z)
	}

	// Keep At and the LU factorization of AtA; A and AtA are discarded
	var ata mat.Dense
	ata.Mul(A.T(), A)
	rm := &sb.recon[idx]
	rm.at = mat.DenseCopyOf(A.T())
	rm.lu = &mat.LU{}
	rm.lu.Factorize(&ata)
	rm.cond = mat.Cond(&ata, 1)
	rm.degenerate = math.IsNaN(rm.cond) || rm.cond > CondLimit
	rm.built = true
	if rm.degenerate {
		log.WithFields(log.Fields{
			"block": sb.BlockIndex, "face": pface, "stencil": stencil, "cond": rm.cond,
		}).Warn("near-singular normal-equations matrix, reconstruction on this stencil is unreliable")
	}
}

func (sb *StenciledBlock) reconFor(pface, stencil int) (*reconMatrix, error) {
	if !sb.associated {
		return nil, ErrNotAssociated
	}
	if pface < 0 || pface >= sb.NFace || stencil < 0 || stencil >= sb.NStencils {
		return nil, fmt.Errorf("geodesic: no stencil %d on face %d", stencil, pface)
	}
	if !sb.stenciled[pface] {
		return nil, fmt.Errorf("%w: face %d", ErrNotStenciled, pface)
	}
	rm := &sb.recon[sb.stencilIndex(pface, stencil)]
	if !rm.built {
		return nil, fmt.Errorf("%w: face %d stencil %d", ErrStencilNotBuilt, pface, stencil)
	}
	return rm, nil
}

// Solve computes the least-squares reconstruction coefficients for the
// given per-zone value differences: x minimizing |A x - b| via the cached
// factorization of AtA. Degenerate stencils are refused.
func (sb *StenciledBlock) Solve(pface, stencil int, b []float64) (x r3.Vector, err error) {
	var rm *reconMatrix
	if rm, err = sb.reconFor(pface, stencil); err != nil {
		return
	}
	if len(b) != sb.ZonesPerStencil[stencil] {
		return x, fmt.Errorf("geodesic: have %d zone differences, want %d on stencil %d",
			len(b), sb.ZonesPerStencil[stencil], stencil)
	}
	if rm.degenerate {
		return x, fmt.Errorf("%w: face %d stencil %d, cond %.3g",
			ErrDegenerateStencil, pface, stencil, rm.cond)
	}
	var atb, sol mat.VecDense
	atb.MulVec(rm.at, mat.NewVecDense(len(b), b))
	if err = rm.lu.SolveVecTo(&sol, false, &atb); err != nil {
		return x, fmt.Errorf("geodesic: reconstruction solve on face %d stencil %d: %w",
			pface, stencil, err)
	}
	return r3.Vector{X: sol.AtVec(0), Y: sol.AtVec(1), Z: sol.AtVec(2)}, nil
}

// DesignTranspose returns the stored transposed design matrix of the
// stencil. The matrix is owned by the block; callers must not modify it.
func (sb *StenciledBlock) DesignTranspose(pface, stencil int) (*mat.Dense, error) {
	rm, err := sb.reconFor(pface, stencil)
	if err != nil {
		return nil, err
	}
	return rm.at, nil
}

// StencilCond returns the 1-norm condition estimate of the stencil's
// normal-equations matrix.
func (sb *StenciledBlock) StencilCond(pface, stencil int) (float64, error) {
	rm, err := sb.reconFor(pface, stencil)
	if err != nil {
		return 0, err
	}
	return rm.cond, nil
}

// Degenerate reports whether the stencil's normal-equations matrix was
// flagged as singular or near singular at construction.
func (sb *StenciledBlock) Degenerate(pface, stencil int) bool {
	rm, err := sb.reconFor(pface, stencil)
	return err == nil && rm.degenerate
}

// PrintStencil writes a human readable dump of one stencil.
func (sb *StenciledBlock) PrintStencil(w io.Writer, pface, stencil int) {
	fmt.Fprintf(w, "stencil %d for principal face %d\n", stencil, pface)
	zl := sb.ZoneList(pface, stencil)
	if zl == nil {
		fmt.Fprintf(w, "   (not built)\n")
		return
	}
	for row := 0; row < len(zl)/2; row++ {
		fmt.Fprintf(w, "   face: %5d, plane: %2d\n", zl[2*row], zl[2*row+1])
	}
	if cond, err := sb.StencilCond(pface, stencil); err == nil {
		fmt.Fprintf(w, "   cond(AtA): %.4g\n", cond)
	}
}
