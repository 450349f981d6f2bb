// Package osm reads the geometry of OpenStudio building models (.osm).
//
// Only the objects needed to rebuild the building shape are read: the model
// version, the building, spaces with their surfaces and sub-surfaces, and
// shading surface groups. Everything else in the file is skipped.
package osm

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/philipparndt/osm2brep/pkg/geometry"
)

// ErrInvalidModelPath is returned when a path does not resolve to a
// readable, well formed model.
var ErrInvalidModelPath = errors.New("invalid model path")

// ParseError reports a syntax or reference problem at a line of the model
// file.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Model is the geometry of one building model
type Model struct {
	// Version is the model version after any upgrade
	Version string
	// SourceVersion is the version recorded in the file
	SourceVersion string

	Building      *Building
	Spaces        []*Space
	ShadingGroups []*ShadingGroup
}

// Building is the OS:Building object; NorthAxis is informational only
type Building struct {
	Handle    string
	Name      string
	NorthAxis float64 // degrees
}

// Space is a room volume. Surface vertices are in space coordinates.
type Space struct {
	Handle        string
	Name          string
	Origin        mgl64.Vec3
	RelativeNorth float64 // degrees
	Surfaces      []*Surface
}

// Transformation returns the transform from space to building coordinates.
func (s *Space) Transformation() geometry.Transform {
	return geometry.FromOrigin(s.Origin, s.RelativeNorth)
}

// Surface is a planar bounding surface of a space
type Surface struct {
	Handle      string
	Name        string
	Type        string // Wall, Floor, RoofCeiling
	Vertices    []mgl64.Vec3
	SubSurfaces []*SubSurface
}

// SubSurface is a window, door or skylight on a host surface. Its vertices
// are in the coordinates of the host's space.
type SubSurface struct {
	Handle   string
	Name     string
	Type     string
	Vertices []mgl64.Vec3
}

// ShadingGroup holds shading surfaces sharing one coordinate system.
type ShadingGroup struct {
	Handle        string
	Name          string
	Type          string // Site, Building or Space
	Space         *Space // set for Space groups
	Origin        mgl64.Vec3
	RelativeNorth float64
	Surfaces      []*ShadingSurface
}

// Transformation returns the transform from group to building coordinates.
// Space groups are placed relative to their space.
func (g *ShadingGroup) Transformation() geometry.Transform {
	own := geometry.FromOrigin(g.Origin, g.RelativeNorth)
	if g.Space != nil {
		return g.Space.Transformation().Compose(own)
	}
	return own
}

// ShadingSurface is one polygon of a shading group, in group coordinates
type ShadingSurface struct {
	Handle   string
	Name     string
	Vertices []mgl64.Vec3
}

// SurfaceCount returns the number of bounding surfaces over all spaces
func (m *Model) SurfaceCount() int {
	n := 0
	for _, s := range m.Spaces {
		n += len(s.Surfaces)
	}
	return n
}
