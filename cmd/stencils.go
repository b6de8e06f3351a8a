/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/notargets/geofv/InputParameters"
	"github.com/notargets/geofv/geodesic"
)

// StencilsCmd represents the stencils command
var StencilsCmd = &cobra.Command{
	Use:   "stencils",
	Short: "Build a stenciled block and report its stencils",
	Long: `
Builds one stenciled block on a spherical patch, computes the face and
edge moments and the per-face reconstruction matrices, and prints a
summary. Individual stencils can be dumped with the -f flag.

geofv stencils -I block.yaml -f 42`,
	Run: func(cmd *cobra.Command, args []string) {
		ms := &ModelStencils{}
		ms.ParamsFile, _ = cmd.Flags().GetString("inputParametersFile")
		ms.DumpFace, _ = cmd.Flags().GetInt("face")
		ms.Profile, _ = cmd.Flags().GetBool("profile")
		bp := processStencilsInput(ms)
		RunStencils(ms, bp)
	},
}

func init() {
	rootCmd.AddCommand(StencilsCmd)
	StencilsCmd.Flags().StringP("inputParametersFile", "I", "", "YAML file with the block parameters like:\n\t- SideLength\n\t- DrpRatio")
	StencilsCmd.Flags().IntP("face", "f", -1, "face slot whose stencils should be dumped")
	StencilsCmd.Flags().BoolP("profile", "p", false, "generate a runtime CPU profile of the block build")
}

type ModelStencils struct {
	ParamsFile string
	DumpFace   int
	Profile    bool
}

func processStencilsInput(ms *ModelStencils) (bp *InputParameters.BlockParameters) {
	bp = &InputParameters.BlockParameters{
		Title:        "Octant demo block",
		VertsPerFace: 3,
		SideLength:   8,
		GhostWidth:   2,
		Height:       8,
		GhostHeight:  1,
		DrpRatio:     1.,
		RMin:         1.,
		RMax:         2.,
	}
	if len(ms.ParamsFile) != 0 {
		data, err := os.ReadFile(ms.ParamsFile)
		if err != nil {
			fmt.Printf("Error '%s' reading parameters file: %s\n", err.Error(), ms.ParamsFile)
			exampleFile := `
########################################
Title: Icosahedral sector block
VertsPerFace: 3 # or 4 for quad sectors
SideLength: 8
GhostWidth: 2
Height: 16
GhostHeight: 2
DrpRatio: 1.02
RMin: 1.0
RMax: 20.0
DistanceMap: Log # or Linear
########################################
`
			fmt.Printf("Example File:%s\n", exampleFile)
			os.Exit(1)
		}
		if err = bp.Parse(data); err != nil {
			fmt.Printf("Error '%s' parsing parameters file: %s\n", err.Error(), ms.ParamsFile)
			os.Exit(1)
		}
	}
	return
}

// patchCorners gives the demo block a fixed spherical patch: the positive
// octant for triangular sectors, a quarter band for quads.
func patchCorners(vertsPerFace int) []r3.Vector {
	if vertsPerFace == 3 {
		return []r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}
	}
	s := 1. / math.Sqrt2
	return []r3.Vector{{X: 1}, {Y: 1}, {Y: s, Z: s}, {X: s, Z: s}}
}

func RunStencils(ms *ModelStencils, bp *InputParameters.BlockParameters) {
	if ms.Profile {
		defer profile.Start().Stop()
	}
	bp.Print()

	sb, err := geodesic.NewStenciledBlock(bp.Config())
	if err != nil {
		log.Fatal(err)
	}
	vcart, err := geodesic.PatchCoordinates(sb.GridBlock, patchCorners(bp.VertsPerFace))
	if err != nil {
		log.Fatal(err)
	}
	err = sb.AssociateMesh(0, 0., 1., make([]bool, bp.VertsPerFace),
		[2]bool{true, true}, vcart, bp.Map())
	if err != nil {
		log.Fatal(err)
	}

	var nExist, nStenciled, nDegenerate int
	var totalArea float64
	for face := 0; face < sb.NFace; face++ {
		if !sb.FaceExists(face) {
			continue
		}
		nExist++
		totalArea += sb.FaceArea[face]
		if !sb.IsStenciled(face) {
			continue
		}
		nStenciled++
		for stencil := 0; stencil < sb.NStencils; stencil++ {
			if sb.Degenerate(face, stencil) {
				nDegenerate++
			}
		}
	}
	fmt.Printf("faces: %d, stenciled: %d, stencils per face: %d\n",
		nExist, nStenciled, sb.NStencils)
	fmt.Printf("skipped stencils: %d, degenerate stencils: %d\n",
		sb.UnbuiltStencils(), nDegenerate)
	fmt.Printf("patch solid angle: %8.5f\n", totalArea)

	if ms.DumpFace >= 0 {
		if !sb.IsStenciled(ms.DumpFace) {
			fmt.Printf("face %d is not in the stenciled region\n", ms.DumpFace)
			os.Exit(1)
		}
		for stencil := 0; stencil < sb.NStencils; stencil++ {
			sb.PrintStencil(os.Stdout, ms.DumpFace, stencil)
		}
	}
}
