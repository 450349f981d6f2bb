// Package kernel defines the geometry kernel interface the conversion is
// written against. Implementations own construction rules (tolerances,
// sewing) and the textual encoding of the resulting shapes, so the
// conversion logic can be exercised against any backend.
package kernel

import (
	"github.com/philipparndt/osm2brep/pkg/geometry"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

// DefaultTolerance is the distance under which two points are treated as
// the same point.
const DefaultTolerance = 1e-4

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Construction primitives
	Vertex(x, y, z float64) *topology.Vertex
	Edge(start, end *topology.Vertex) (*topology.Edge, error)
	Wire(edges []*topology.Edge) (*topology.Wire, error)
	Face(outer *topology.Wire, holes []*topology.Wire) (*topology.Face, error)
	Cell(faces []*topology.Face) (*topology.Cell, error)
	Cluster(members []topology.Topology) (*topology.Cluster, error)

	// TransformFace maps every vertex of f, including those of its holes
	// and apertures.
	TransformFace(f *topology.Face, t geometry.Transform) (*topology.Face, error)

	// AddApertures returns host with the given faces attached as apertures.
	AddApertures(host *topology.Face, apertures []*topology.Face, at topology.Placement) (*topology.Face, error)

	// String returns the canonical textual encoding of t.
	String(t topology.Topology) (string, error)
}
