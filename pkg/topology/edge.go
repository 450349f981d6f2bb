package topology

// Edge is a directed straight segment between two distinct vertices
type Edge struct {
	start, end *Vertex
}

// NewEdge creates an edge from start to end. The endpoints must differ.
func NewEdge(start, end *Vertex) (*Edge, error) {
	if start == nil || end == nil {
		return nil, invalid("edge needs two vertices")
	}
	if start.Coincides(end) {
		return nil, invalid("degenerate edge at (%g, %g, %g)", start.X(), start.Y(), start.Z())
	}
	return &Edge{start: start, end: end}, nil
}

func (e *Edge) Type() Type { return TypeEdge }

func (e *Edge) Vertices() []*Vertex { return []*Vertex{e.start, e.end} }

// Start returns the first vertex of the edge
func (e *Edge) Start() *Vertex { return e.start }

// End returns the last vertex of the edge
func (e *Edge) End() *Vertex { return e.end }

// Length returns the distance between the endpoints
func (e *Edge) Length() float64 {
	return e.end.point.Sub(e.start.point).Len()
}

// OrientedEdge is an edge as used by a wire. A reversed edge is traversed
// from its end vertex to its start vertex.
type OrientedEdge struct {
	Edge     *Edge
	Reversed bool
}

// From returns the vertex the wire leaves through this edge
func (o OrientedEdge) From() *Vertex {
	if o.Reversed {
		return o.Edge.end
	}
	return o.Edge.start
}

// To returns the vertex the wire arrives at through this edge
func (o OrientedEdge) To() *Vertex {
	if o.Reversed {
		return o.Edge.start
	}
	return o.Edge.end
}
