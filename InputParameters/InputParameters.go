package InputParameters

import (
	"fmt"
	"math"

	"github.com/ghodss/yaml"

	"github.com/notargets/geofv/geodesic"
)

// Parameters obtained from the YAML input file
type BlockParameters struct {
	Title        string  `yaml:"Title"`
	VertsPerFace int     `yaml:"VertsPerFace"` // 3 for triangular sectors, 4 for quad
	SideLength   int     `yaml:"SideLength"`
	GhostWidth   int     `yaml:"GhostWidth"`
	Height       int     `yaml:"Height"`
	GhostHeight  int     `yaml:"GhostHeight"`
	DrpRatio     float64 `yaml:"DrpRatio"`
	RMin         float64 `yaml:"RMin"`
	RMax         float64 `yaml:"RMax"`
	DistanceMap  string  `yaml:"DistanceMap"` // "Linear" or "Log"
}

func (bp *BlockParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, bp); err != nil {
		return err
	}
	return bp.Validate()
}

func (bp *BlockParameters) Validate() error {
	if err := bp.Config().Validate(); err != nil {
		return err
	}
	if bp.DrpRatio <= 0 {
		return fmt.Errorf("DrpRatio must be positive, have %g", bp.DrpRatio)
	}
	if bp.RMin <= 0 || bp.RMax <= bp.RMin {
		return fmt.Errorf("radial extent [%g,%g] must satisfy 0 < RMin < RMax", bp.RMin, bp.RMax)
	}
	switch bp.DistanceMap {
	case "", "Linear", "Log":
	default:
		return fmt.Errorf("unknown distance map %q, want Linear or Log", bp.DistanceMap)
	}
	return nil
}

// Config translates the file parameters into a block configuration.
func (bp *BlockParameters) Config() geodesic.Config {
	return geodesic.Config{
		VertsPerFace: bp.VertsPerFace,
		SideLength:   bp.SideLength,
		GhostWidth:   bp.GhostWidth,
		Height:       bp.Height,
		GhostHeight:  bp.GhostHeight,
		DrpRatio:     bp.DrpRatio,
	}
}

// Map builds the radial distance map spanning [RMin,RMax] over the unit
// reference distance interval.
func (bp *BlockParameters) Map() geodesic.DistanceMap {
	if bp.DistanceMap == "Log" {
		return geodesic.LogDistance{R0: bp.RMin, Scale: math.Log(bp.RMax / bp.RMin)}
	}
	return geodesic.LinearDistance{R0: bp.RMin, Scale: bp.RMax - bp.RMin}
}

func (bp *BlockParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", bp.Title)
	fmt.Printf("[%d]\t\t\t= VertsPerFace\n", bp.VertsPerFace)
	fmt.Printf("[%d]\t\t\t= SideLength\n", bp.SideLength)
	fmt.Printf("[%d]\t\t\t= GhostWidth\n", bp.GhostWidth)
	fmt.Printf("[%d]\t\t\t= Height\n", bp.Height)
	fmt.Printf("[%d]\t\t\t= GhostHeight\n", bp.GhostHeight)
	fmt.Printf("%8.5f\t\t= DrpRatio\n", bp.DrpRatio)
	fmt.Printf("%8.5f\t\t= RMin\n", bp.RMin)
	fmt.Printf("%8.5f\t\t= RMax\n", bp.RMax)
	fmt.Printf("[%s]\t\t= DistanceMap\n", bp.DistanceMap)
}
