// Package occt implements kernel.Kernel natively in Go and encodes shapes
// in the OpenCASCADE ASCII BREP format read by Topologic.
package occt

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/philipparndt/osm2brep/pkg/brep"
	"github.com/philipparndt/osm2brep/pkg/geometry"
	"github.com/philipparndt/osm2brep/pkg/kernel"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// Kernel builds topology with a fixed point tolerance.
type Kernel struct {
	tolerance float64
}

// Option configures a Kernel
type Option func(*Kernel)

// WithTolerance sets the distance under which points are merged and edges
// count as degenerate. Non-positive values are ignored.
func WithTolerance(tolerance float64) Option {
	return func(k *Kernel) {
		if tolerance > 0 {
			k.tolerance = tolerance
		}
	}
}

// New returns a Kernel using kernel.DefaultTolerance unless overridden.
func New(opts ...Option) *Kernel {
	k := &Kernel{tolerance: kernel.DefaultTolerance}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Tolerance returns the point tolerance of the kernel
func (k *Kernel) Tolerance() float64 { return k.tolerance }

// Vertex creates a vertex at (x, y, z)
func (k *Kernel) Vertex(x, y, z float64) *topology.Vertex {
	return topology.NewVertex(x, y, z)
}

// Edge creates a straight edge; endpoints closer than the tolerance are
// rejected.
func (k *Kernel) Edge(start, end *topology.Vertex) (*topology.Edge, error) {
	if start != nil && end != nil && start.Point().Sub(end.Point()).Len() <= k.tolerance {
		return nil, invalidf("edge shorter than tolerance %g", k.tolerance)
	}
	return topology.NewEdge(start, end)
}

// Wire joins edges into a closed wire
func (k *Kernel) Wire(edges []*topology.Edge) (*topology.Wire, error) {
	return topology.NewWire(edges)
}

// Face creates a planar face. Boundaries enclosing no area are rejected;
// planarity is not checked.
func (k *Kernel) Face(outer *topology.Wire, holes []*topology.Wire) (*topology.Face, error) {
	if outer == nil {
		return topology.NewFace(nil, holes)
	}
	if area := wireArea(outer); area <= k.tolerance*k.tolerance {
		return nil, invalidf("face boundary encloses no area")
	}
	return topology.NewFace(outer, holes)
}

// Cell sews the faces together and builds a cell from the result.
func (k *Kernel) Cell(faces []*topology.Face) (*topology.Cell, error) {
	sewn, err := newSewing(k.tolerance).sew(faces)
	if err != nil {
		return nil, err
	}
	return topology.NewCell(sewn)
}

// Cluster groups members without sewing them
func (k *Kernel) Cluster(members []topology.Topology) (*topology.Cluster, error) {
	return topology.NewCluster(members)
}

// TransformFace maps every vertex of f through t. Vertices and edges shared
// within the face stay shared in the result.
func (k *Kernel) TransformFace(f *topology.Face, t geometry.Transform) (*topology.Face, error) {
	if f == nil {
		return nil, invalidf("no face to transform")
	}
	m := newMapper(func(p mgl64.Vec3) mgl64.Vec3 { return t.Apply(p) })
	out, err := m.face(f)
	if err != nil {
		return nil, err
	}
	for _, a := range f.Apertures() {
		moved, err := k.TransformFace(a.Topology(), t)
		if err != nil {
			return nil, fmt.Errorf("transform aperture: %w", err)
		}
		out, err = out.WithApertures([]*topology.Face{moved}, a.Placement())
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AddApertures returns a copy of host carrying apertures at the given placement
func (k *Kernel) AddApertures(host *topology.Face, apertures []*topology.Face, at topology.Placement) (*topology.Face, error) {
	if host == nil {
		return nil, invalidf("apertures need a host face")
	}
	return host.WithApertures(apertures, at)
}

// String encodes t as an OpenCASCADE ASCII BREP document.
func (k *Kernel) String(t topology.Topology) (string, error) {
	return brep.Encode(t)
}

func wireArea(w *topology.Wire) float64 {
	vs := w.Vertices()
	points := make([]mgl64.Vec3, len(vs))
	for i, v := range vs {
		points[i] = v.Point()
	}
	return geometry.PolygonArea(points)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", topology.ErrInvalidGeometry, fmt.Sprintf(format, args...))
}
