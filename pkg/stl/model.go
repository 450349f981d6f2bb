// Package stl holds triangle meshes of the converted geometry and reads and
// writes them as STL files for quick previews.
package stl

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"

	"github.com/philipparndt/osm2brep/pkg/geometry"
)

// Model is a named triangle mesh
type Model struct {
	Name      string
	Triangles []geometry.Triangle
}

// NewModel returns an empty mesh
func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddTriangle appends a triangle
func (m *Model) AddTriangle(triangle geometry.Triangle) {
	m.Triangles = append(m.Triangles, triangle)
}

// TriangleCount returns the number of triangles
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// Points returns the corners of every triangle, three per triangle
func (m *Model) Points() []mgl64.Vec3 {
	return lo.FlatMap(m.Triangles, func(t geometry.Triangle, _ int) []mgl64.Vec3 {
		return []mgl64.Vec3{t.V1, t.V2, t.V3}
	})
}

// BoundingBox returns the box around all triangles; empty for an empty mesh
func (m *Model) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, p := range m.Points() {
		bbox.Extend(p)
	}
	return bbox
}

// SurfaceArea sums the triangle areas
func (m *Model) SurfaceArea() float64 {
	return lo.SumBy(m.Triangles, func(t geometry.Triangle) float64 { return t.Area() })
}
