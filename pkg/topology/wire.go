package topology

// Wire is a closed, ordered cycle of edges bounding a planar polygon
type Wire struct {
	edges []OrientedEdge
}

// NewWire creates a wire that traverses every edge forwards, in order.
func NewWire(edges []*Edge) (*Wire, error) {
	oriented := make([]OrientedEdge, len(edges))
	for i, e := range edges {
		oriented[i] = OrientedEdge{Edge: e}
	}
	return NewOrientedWire(oriented)
}

// NewOrientedWire creates a wire from edges with explicit orientations.
// Each edge must arrive where the next one leaves, and the last edge must
// arrive where the first one leaves.
func NewOrientedWire(edges []OrientedEdge) (*Wire, error) {
	if len(edges) == 0 {
		return nil, invalid("wire needs at least one edge")
	}
	for i, cur := range edges {
		if cur.Edge == nil {
			return nil, invalid("wire edge %d is missing", i)
		}
		next := edges[(i+1)%len(edges)]
		if next.Edge == nil {
			continue
		}
		if !cur.To().Coincides(next.From()) {
			if i == len(edges)-1 {
				return nil, invalid("wire is not closed")
			}
			return nil, invalid("wire edges %d and %d are not connected", i, i+1)
		}
	}

	w := &Wire{edges: make([]OrientedEdge, len(edges))}
	copy(w.edges, edges)
	return w, nil
}

func (w *Wire) Type() Type { return TypeWire }

// Edges returns the oriented edges of the wire in traversal order
func (w *Wire) Edges() []OrientedEdge {
	out := make([]OrientedEdge, len(w.edges))
	copy(out, w.edges)
	return out
}

// Len returns the number of edges
func (w *Wire) Len() int { return len(w.edges) }

// Vertices returns the vertex each edge leaves from, in traversal order.
func (w *Wire) Vertices() []*Vertex {
	out := make([]*Vertex, len(w.edges))
	for i, e := range w.edges {
		out[i] = e.From()
	}
	return out
}

// IsClosed reports whether the last edge ends where the first one starts.
// Wires built by the constructors are always closed.
func (w *Wire) IsClosed() bool {
	if len(w.edges) == 0 {
		return false
	}
	return w.edges[len(w.edges)-1].To().Coincides(w.edges[0].From())
}
