package geodesic

import (
	"fmt"

	"github.com/golang/geo/r3"
	log "github.com/sirupsen/logrus"
)

// Config carries the dimensions and tuning of one mesh block. All fields
// are fixed at construction; changing them requires SetDimensions, which
// discards every derived array.
type Config struct {
	VertsPerFace int     // polygon arity, 3 or 4
	SideLength   int     // sector side length, without ghost cells
	GhostWidth   int     // width of the ghost cell layer outside the sector
	Height       int     // number of radial shells, without ghost shells
	GhostHeight  int     // number of ghost shells outside the slab
	DrpRatio     float64 // radial grid ratio delta(r+)/delta(r-) between adjacent shells
}

func (cfg Config) Validate() error {
	if cfg.VertsPerFace != 3 && cfg.VertsPerFace != 4 {
		return fmt.Errorf("%w: verts per face must be 3 or 4, have %d", ErrBadConfig, cfg.VertsPerFace)
	}
	if cfg.SideLength < 1 {
		return fmt.Errorf("%w: side length must be positive, have %d", ErrBadConfig, cfg.SideLength)
	}
	if cfg.GhostWidth < 1 {
		return fmt.Errorf("%w: ghost width must be positive, have %d", ErrBadConfig, cfg.GhostWidth)
	}
	if cfg.Height < 1 {
		return fmt.Errorf("%w: height must be positive, have %d", ErrBadConfig, cfg.Height)
	}
	if cfg.GhostHeight < 1 {
		return fmt.Errorf("%w: ghost height must be positive, have %d", ErrBadConfig, cfg.GhostHeight)
	}
	return nil
}

// GridBlock owns the index topology of one sector of the geodesic mesh:
// face/vertex/edge slot spaces with existence flags, per-face vertex and
// neighbor lists, and per-edge vertex pairs. After AssociateMesh it also
// holds the vertex coordinates, boundary flags and the radial distance map
// of the block's current placement in the mesh.
type GridBlock struct {
	Config
	topo sectorTopology

	NVert, NFace, NEdge int // slot counts, ghost layers included

	FV [][]int   // per-face vertex slots, nil for non-existent faces
	FF [][]int   // per-face neighbors in cyclic side order
	EV [][2]int  // per-edge vertex slot pairs

	faceExists []bool
	edgeExists []bool

	// Mesh association, valid once associated is true
	BlockIndex   int
	XiMin, XiMax float64
	Corners      []bool  // singular corner flags, one per sector corner
	Borders      [2]bool // radial boundary type, true for external
	VertCart     []r3.Vector
	DistMap      DistanceMap

	associated bool
}

func NewGridBlock(cfg Config) (gb *GridBlock, err error) {
	gb = &GridBlock{}
	if err = gb.SetDimensions(cfg); err != nil {
		return nil, err
	}
	return
}

// SetDimensions (re)builds the index topology for the given dimensions.
// Any previous mesh association is discarded.
func (gb *GridBlock) SetDimensions(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	gb.Config = cfg
	gb.topo = newSectorTopology(cfg.VertsPerFace, cfg.SideLength, cfg.GhostWidth)
	gb.NVert = gb.topo.VertSlots()
	gb.NFace = gb.topo.FaceSlots()
	gb.NEdge = gb.topo.EdgeSlots()
	gb.buildTables()
	gb.associated = false
	gb.VertCart = nil
	gb.DistMap = nil
	gb.Corners = nil
	return nil
}

func (gb *GridBlock) buildTables() {
	gb.FV = make([][]int, gb.NFace)
	gb.FF = make([][]int, gb.NFace)
	gb.faceExists = make([]bool, gb.NFace)
	for face := 0; face < gb.NFace; face++ {
		if !gb.topo.FaceExists(face) {
			continue
		}
		gb.faceExists[face] = true
		gb.FV[face] = gb.topo.FaceVerts(face)
		gb.FF[face] = gb.topo.FaceNeighbors(face)
	}
	gb.EV = make([][2]int, gb.NEdge)
	gb.edgeExists = make([]bool, gb.NEdge)
	for edge := 0; edge < gb.NEdge; edge++ {
		if !gb.topo.EdgeExists(edge) {
			continue
		}
		gb.edgeExists[edge] = true
		gb.EV[edge] = gb.topo.EdgeVerts(edge)
	}
}

// TotalSide is the side length of the ghosted index space.
func (gb *GridBlock) TotalSide() int { return gb.topo.TotalSide() }

func (gb *GridBlock) FaceExists(face int) bool {
	return face >= 0 && face < gb.NFace && gb.faceExists[face]
}

func (gb *GridBlock) EdgeExists(edge int) bool {
	return edge >= 0 && edge < gb.NEdge && gb.edgeExists[edge]
}

func (gb *GridBlock) IsAssociated() bool { return gb.associated }

// FaceIndexSector resolves sectored 2D face coordinates to a face slot,
// NoFace when outside the sector.
func (gb *GridBlock) FaceIndexSector(i, j int) int {
	face := gb.topo.FaceIndex(i, j)
	if !gb.FaceExists(face) {
		return NoFace
	}
	return face
}

// AssociateMesh attaches the block to its place in the mesh: unique block
// index, radial extent in reference distance, singular corner flags, radial
// boundary flags, vertex Cartesian coordinates (unit vectors, one per
// vertex slot) and the shared radial distance map.
func (gb *GridBlock) AssociateMesh(index int, ximin, ximax float64, corners []bool,
	borders [2]bool, vcart []r3.Vector, distMap DistanceMap) error {
	if ximax <= ximin {
		return fmt.Errorf("%w: reference distance interval [%g,%g] is empty", ErrBadConfig, ximin, ximax)
	}
	if len(corners) != gb.VertsPerFace {
		return fmt.Errorf("%w: have %d corner flags, want %d", ErrBadConfig, len(corners), gb.VertsPerFace)
	}
	if len(vcart) != gb.NVert {
		return fmt.Errorf("%w: have %d vertex coordinates, want %d", ErrBadConfig, len(vcart), gb.NVert)
	}
	if distMap == nil {
		return fmt.Errorf("%w: distance map is required", ErrBadConfig)
	}
	gb.BlockIndex = index
	gb.XiMin, gb.XiMax = ximin, ximax
	gb.Corners = append([]bool(nil), corners...)
	gb.Borders = borders
	gb.VertCart = vcart
	gb.DistMap = distMap
	gb.associated = true
	log.Debugf("block %d: mesh associated, %d faces, %d edges, %d vertices",
		index, gb.NFace, gb.NEdge, gb.NVert)
	return nil
}
