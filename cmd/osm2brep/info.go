package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/philipparndt/osm2brep/pkg/analysis"
	"github.com/philipparndt/osm2brep/pkg/brep"
	"github.com/philipparndt/osm2brep/pkg/osm"
	"github.com/philipparndt/osm2brep/pkg/stl"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

func infoCmd(opts *rootOptions) *cobra.Command {
	var (
		upgrade bool
		edges   int
	)

	cmd := &cobra.Command{
		Use:   "info [file]",
		Short: "Display information about a model or BREP file",
		Long: `Show space, surface and shading counts for an .osm model, dimensions,
volume, surface area and edge statistics for every cell of a .brep file, or
triangle count, area and extent of an .stl preview.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			switch strings.ToLower(filepath.Ext(filename)) {
			case ".osm":
				model, err := osm.Load(filename, osm.Options{Upgrade: upgrade, Logger: opts.log})
				if err != nil {
					return err
				}
				printModelInfo(cmd.OutOrStdout(), filename, analysis.AnalyzeModel(model))
				return nil
			case ".brep":
				return brepInfo(cmd.OutOrStdout(), filename, edges)
			case ".stl":
				return stlInfo(cmd.OutOrStdout(), filename)
			}
			return fmt.Errorf("unsupported file type: %s", filename)
		},
	}

	cmd.Flags().BoolVar(&upgrade, "upgrade", false, "Migrate models older than 3.0.0")
	cmd.Flags().IntVarP(&edges, "edges", "n", 0, "List the N shortest edges of every cell (.brep)")
	return cmd
}

func printModelInfo(w io.Writer, filename string, result *analysis.ModelResult) {
	fmt.Fprintln(w, "Model Information")
	fmt.Fprintln(w, "=================")
	fmt.Fprintf(w, "File: %s\n", filename)
	fmt.Fprintf(w, "Version: %s", result.Version)
	if result.SourceVersion != result.Version {
		fmt.Fprintf(w, " (upgraded from %s)", result.SourceVersion)
	}
	fmt.Fprint(w, "\n\n")

	fmt.Fprintln(w, "Spaces:")
	for _, s := range result.Spaces {
		fmt.Fprintf(w, "  %s: %d surfaces, %d sub-surfaces, %.3f m² gross\n", s.Name, s.Surfaces, s.SubSurfaces, s.GrossArea)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Totals:")
	fmt.Fprintf(w, "  Surfaces: %d\n", result.SurfaceCount)
	fmt.Fprintf(w, "  Sub-surfaces: %d\n", result.SubSurfaceCount)
	fmt.Fprintf(w, "  Shading groups: %d\n", result.ShadingGroups)
	fmt.Fprintf(w, "  Shading surfaces: %d\n", result.ShadingSurfaces)
	fmt.Fprintf(w, "  Gross area: %.3f m²\n", result.GrossArea)
}

func brepInfo(w io.Writer, filename string, edges int) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	shape, err := brep.Decode(file)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	var cells []*topology.Cell
	switch t := shape.(type) {
	case *topology.Cell:
		cells = []*topology.Cell{t}
	case *topology.Cluster:
		cells = t.Cells()
	}
	if len(cells) == 0 {
		return fmt.Errorf("%s: no cells found", filename)
	}

	fmt.Fprintln(w, "BREP File Information")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintf(w, "File: %s\n", filename)
	fmt.Fprintf(w, "Cells: %d\n", len(cells))

	for i, cell := range cells {
		result := analysis.AnalyzeCell(cell)
		fmt.Fprintf(w, "\nCell %d:\n", i+1)
		fmt.Fprintf(w, "  Faces: %d, Edges: %d, Vertices: %d\n", result.FaceCount, result.EdgeCount, result.VertexCount)
		fmt.Fprintf(w, "  Closed: %t\n", result.Closed)
		fmt.Fprintf(w, "  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
		fmt.Fprintf(w, "  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
		fmt.Fprintf(w, "  Surface Area: %s\n", analysis.FormatMeasurement(result.SurfaceArea, "m²"))
		if result.Closed {
			fmt.Fprintf(w, "  Volume: %s\n", analysis.FormatMeasurement(result.Volume, "m³"))
		}
		fmt.Fprintf(w, "  Edge Lengths: %.6f to %.6f\n", result.MinEdgeLength, result.MaxEdgeLength)
		if edges > 0 {
			fmt.Fprintf(w, "  Shortest Edges:\n")
			for j, e := range analysis.FindShortestEdges(result, edges) {
				fmt.Fprintf(w, "    %d. %s -> %s: %.6f\n", j+1, analysis.FormatVector(e.Start), analysis.FormatVector(e.End), e.Length)
			}
		}
	}
	return nil
}

func stlInfo(w io.Writer, filename string) error {
	model, err := stl.Parse(filename)
	if err != nil {
		return err
	}
	bbox := model.BoundingBox()

	fmt.Fprintln(w, "STL File Information")
	fmt.Fprintln(w, "====================")
	if model.Name != "" {
		fmt.Fprintf(w, "Name: %s\n", model.Name)
	}
	fmt.Fprintf(w, "File: %s\n", filename)
	fmt.Fprintf(w, "Triangles: %d\n", model.TriangleCount())
	fmt.Fprintf(w, "Surface Area: %s\n", analysis.FormatMeasurement(model.SurfaceArea(), "m²"))
	if bbox.IsEmpty() {
		return nil
	}
	fmt.Fprintf(w, "Min: %s\n", analysis.FormatVector(bbox.Min))
	fmt.Fprintf(w, "Max: %s\n", analysis.FormatVector(bbox.Max))
	fmt.Fprintf(w, "Center: %s\n", analysis.FormatVector(bbox.Center()))
	fmt.Fprintf(w, "Diagonal: %s\n", analysis.FormatMeasurement(bbox.Diagonal(), "m"))
	return nil
}
