package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"

	"github.com/philipparndt/osm2brep/pkg/geometry"
	"github.com/philipparndt/osm2brep/pkg/osm"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

// EdgeInfo contains information about an edge of a cell
type EdgeInfo struct {
	Start  mgl64.Vec3
	End    mgl64.Vec3
	Length float64
}

// CellResult contains the measurements of one cell
type CellResult struct {
	BoundingBox   geometry.BoundingBox
	Dimensions    mgl64.Vec3
	Volume        float64
	SurfaceArea   float64
	FaceCount     int
	EdgeCount     int
	VertexCount   int
	ApertureCount int
	Closed        bool
	MinEdgeLength float64
	MaxEdgeLength float64
	AllEdges      []EdgeInfo
}

// AnalyzeCell measures a cell. The volume is only meaningful for closed
// cells.
func AnalyzeCell(cell *topology.Cell) *CellResult {
	faces := cell.Faces()
	result := &CellResult{
		BoundingBox: geometry.NewBoundingBox(),
		FaceCount:   len(faces),
		VertexCount: len(cell.Vertices()),
		Closed:      cell.IsClosed(),
	}

	for _, v := range cell.Vertices() {
		result.BoundingBox.Extend(v.Point())
	}
	result.Dimensions = result.BoundingBox.Size()

	signed := 0.0
	for _, f := range faces {
		points := boundary(f.ExternalBoundary())
		normal := geometry.NewellNormal(points)
		area := normal.Len() / 2
		for _, hole := range f.InternalBoundaries() {
			area -= geometry.PolygonArea(boundary(hole))
		}
		result.SurfaceArea += area
		signed += points[0].Dot(normal) / 6.0
		result.ApertureCount += len(f.Apertures())
	}
	result.Volume = math.Abs(signed)

	result.AllEdges = lo.Map(cell.Edges(), func(e *topology.Edge, _ int) EdgeInfo {
		return EdgeInfo{Start: e.Start().Point(), End: e.End().Point(), Length: e.Length()}
	})
	result.EdgeCount = len(result.AllEdges)
	if result.EdgeCount > 0 {
		result.MinEdgeLength = lo.MinBy(result.AllEdges, func(a, b EdgeInfo) bool { return a.Length < b.Length }).Length
		result.MaxEdgeLength = lo.MaxBy(result.AllEdges, func(a, b EdgeInfo) bool { return a.Length > b.Length }).Length
	}

	return result
}

// FindShortestEdges returns the N shortest edges of the cell
func FindShortestEdges(result *CellResult, count int) []EdgeInfo {
	edges := make([]EdgeInfo, len(result.AllEdges))
	copy(edges, result.AllEdges)

	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Length < edges[j].Length
	})

	if count > len(edges) {
		count = len(edges)
	}

	return edges[:count]
}

// SpaceResult summarizes one space of a model
type SpaceResult struct {
	Name        string
	Surfaces    int
	SubSurfaces int
	GrossArea   float64
}

// ModelResult summarizes a building model
type ModelResult struct {
	Version         string
	SourceVersion   string
	Spaces          []SpaceResult
	SurfaceCount    int
	SubSurfaceCount int
	ShadingGroups   int
	ShadingSurfaces int
	GrossArea       float64
}

// AnalyzeModel counts the geometry of a model. Gross area is the area of
// the bounding surfaces without subtracting sub-surfaces.
func AnalyzeModel(model *osm.Model) *ModelResult {
	result := &ModelResult{
		Version:       model.Version,
		SourceVersion: model.SourceVersion,
		ShadingGroups: len(model.ShadingGroups),
	}
	result.ShadingSurfaces = lo.SumBy(model.ShadingGroups, func(g *osm.ShadingGroup) int {
		return len(g.Surfaces)
	})

	for _, space := range model.Spaces {
		sr := SpaceResult{Name: space.Name, Surfaces: len(space.Surfaces)}
		sr.SubSurfaces = lo.SumBy(space.Surfaces, func(s *osm.Surface) int {
			return len(s.SubSurfaces)
		})
		sr.GrossArea = lo.SumBy(space.Surfaces, func(s *osm.Surface) float64 {
			return geometry.PolygonArea(s.Vertices)
		})
		result.Spaces = append(result.Spaces, sr)
		result.SurfaceCount += sr.Surfaces
		result.SubSurfaceCount += sr.SubSurfaces
		result.GrossArea += sr.GrossArea
	}

	return result
}

func boundary(w *topology.Wire) []mgl64.Vec3 {
	return lo.Map(w.Vertices(), func(v *topology.Vertex, _ int) mgl64.Vec3 { return v.Point() })
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "units"
	}
	return fmt.Sprintf("%.6f %s", value, unit)
}

// FormatVector formats a 3D vector
func FormatVector(v mgl64.Vec3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v[0], v[1], v[2])
}
