package occt

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/philipparndt/osm2brep/pkg/topology"
)

// mapper rebuilds faces with every vertex moved by fn, keeping shared
// vertices and edges shared.
type mapper struct {
	fn       func(mgl64.Vec3) mgl64.Vec3
	vertices map[*topology.Vertex]*topology.Vertex
	edges    map[*topology.Edge]*topology.Edge
}

func newMapper(fn func(mgl64.Vec3) mgl64.Vec3) *mapper {
	return &mapper{
		fn:       fn,
		vertices: make(map[*topology.Vertex]*topology.Vertex),
		edges:    make(map[*topology.Edge]*topology.Edge),
	}
}

func (m *mapper) vertex(v *topology.Vertex) *topology.Vertex {
	if out, ok := m.vertices[v]; ok {
		return out
	}
	out := topology.VertexAt(m.fn(v.Point()))
	m.vertices[v] = out
	return out
}

func (m *mapper) edge(e *topology.Edge) (*topology.Edge, error) {
	if out, ok := m.edges[e]; ok {
		return out, nil
	}
	out, err := topology.NewEdge(m.vertex(e.Start()), m.vertex(e.End()))
	if err != nil {
		return nil, err
	}
	m.edges[e] = out
	return out, nil
}

func (m *mapper) wire(w *topology.Wire) (*topology.Wire, error) {
	parts := w.Edges()
	for i, oe := range parts {
		e, err := m.edge(oe.Edge)
		if err != nil {
			return nil, err
		}
		parts[i].Edge = e
	}
	return topology.NewOrientedWire(parts)
}

func (m *mapper) face(f *topology.Face) (*topology.Face, error) {
	outer, err := m.wire(f.ExternalBoundary())
	if err != nil {
		return nil, err
	}
	var holes []*topology.Wire
	for _, h := range f.InternalBoundaries() {
		hole, err := m.wire(h)
		if err != nil {
			return nil, err
		}
		holes = append(holes, hole)
	}
	return topology.NewFace(outer, holes)
}

// sewing welds coincident vertices of separate faces and shares the edges
// that join the same welded vertices.
type sewing struct {
	tolerance float64
	grid      map[[3]int64][]*topology.Vertex
	ids       map[*topology.Vertex]int
	welded    map[*topology.Vertex]*topology.Vertex
	edges     map[[2]int]*topology.Edge
}

func newSewing(tolerance float64) *sewing {
	return &sewing{
		tolerance: tolerance,
		grid:      make(map[[3]int64][]*topology.Vertex),
		ids:       make(map[*topology.Vertex]int),
		welded:    make(map[*topology.Vertex]*topology.Vertex),
		edges:     make(map[[2]int]*topology.Edge),
	}
}

func (s *sewing) cellKey(p mgl64.Vec3) [3]int64 {
	return [3]int64{
		int64(math.Floor(p[0] / s.tolerance)),
		int64(math.Floor(p[1] / s.tolerance)),
		int64(math.Floor(p[2] / s.tolerance)),
	}
}

// weld returns the representative vertex for v, the first vertex seen
// within tolerance of it.
func (s *sewing) weld(v *topology.Vertex) *topology.Vertex {
	if rep, ok := s.welded[v]; ok {
		return rep
	}
	p := v.Point()
	key := s.cellKey(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, c := range s.grid[[3]int64{key[0] + dx, key[1] + dy, key[2] + dz}] {
					if c.Point().Sub(p).Len() <= s.tolerance {
						s.welded[v] = c
						return c
					}
				}
			}
		}
	}
	s.grid[key] = append(s.grid[key], v)
	s.ids[v] = len(s.ids)
	s.welded[v] = v
	return v
}

// edge returns the shared edge joining from and to and whether the caller
// traverses it backwards.
func (s *sewing) edge(from, to *topology.Vertex) (*topology.Edge, bool, error) {
	a, b := s.ids[from], s.ids[to]
	key := [2]int{a, b}
	if a > b {
		key = [2]int{b, a}
	}
	if e, ok := s.edges[key]; ok {
		return e, e.Start() != from, nil
	}
	e, err := topology.NewEdge(from, to)
	if err != nil {
		return nil, false, err
	}
	s.edges[key] = e
	return e, false, nil
}

func (s *sewing) wire(w *topology.Wire) (*topology.Wire, error) {
	parts := w.Edges()
	for i, oe := range parts {
		from, to := s.weld(oe.From()), s.weld(oe.To())
		if from == to {
			return nil, invalidf("edge collapses under tolerance %g", s.tolerance)
		}
		e, reversed, err := s.edge(from, to)
		if err != nil {
			return nil, err
		}
		parts[i] = topology.OrientedEdge{Edge: e, Reversed: reversed}
	}
	return topology.NewOrientedWire(parts)
}

func (s *sewing) sew(faces []*topology.Face) ([]*topology.Face, error) {
	out := make([]*topology.Face, 0, len(faces))
	for i, f := range faces {
		if f == nil {
			return nil, invalidf("cell face %d is missing", i)
		}
		outer, err := s.wire(f.ExternalBoundary())
		if err != nil {
			return nil, err
		}
		var holes []*topology.Wire
		for _, h := range f.InternalBoundaries() {
			hole, err := s.wire(h)
			if err != nil {
				return nil, err
			}
			holes = append(holes, hole)
		}
		sewn, err := topology.NewFace(outer, holes)
		if err != nil {
			return nil, err
		}
		for _, a := range f.Apertures() {
			sewn, err = sewn.WithApertures([]*topology.Face{a.Topology()}, a.Placement())
			if err != nil {
				return nil, err
			}
		}
		out = append(out, sewn)
	}
	return out, nil
}
