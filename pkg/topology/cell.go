package topology

// Cell is a solid bounded by a set of faces. Closure of the boundary is
// reported by IsClosed but not enforced on construction.
type Cell struct {
	faces []*Face
}

// NewCell creates a cell from its bounding faces
func NewCell(faces []*Face) (*Cell, error) {
	if len(faces) == 0 {
		return nil, invalid("cell needs at least one face")
	}
	for i, f := range faces {
		if f == nil {
			return nil, invalid("cell face %d is missing", i)
		}
	}
	c := &Cell{faces: make([]*Face, len(faces))}
	copy(c.faces, faces)
	return c, nil
}

func (c *Cell) Type() Type { return TypeCell }

// Faces returns the bounding faces of the cell
func (c *Cell) Faces() []*Face {
	out := make([]*Face, len(c.faces))
	copy(out, c.faces)
	return out
}

// Edges returns the distinct edges of the cell
func (c *Cell) Edges() []*Edge {
	seen := make(map[*Edge]bool)
	var out []*Edge
	for _, f := range c.faces {
		for _, w := range f.Wires() {
			for _, oe := range w.edges {
				if !seen[oe.Edge] {
					seen[oe.Edge] = true
					out = append(out, oe.Edge)
				}
			}
		}
	}
	return out
}

// Vertices returns the distinct vertices of the cell
func (c *Cell) Vertices() []*Vertex {
	seen := make(map[*Vertex]bool)
	var out []*Vertex
	for _, f := range c.faces {
		for _, w := range f.Wires() {
			out = collectVertices(w, seen, out)
		}
	}
	return out
}

// IsClosed reports whether the faces share edges so that every edge is
// used exactly twice, once in each direction. Faces that were never sewn
// together do not share edges, so the result is false for them.
func (c *Cell) IsClosed() bool {
	forward := make(map[*Edge]int)
	backward := make(map[*Edge]int)
	for _, f := range c.faces {
		for _, w := range f.Wires() {
			for _, oe := range w.edges {
				if oe.Reversed {
					backward[oe.Edge]++
				} else {
					forward[oe.Edge]++
				}
			}
		}
	}
	for e, n := range forward {
		if n != 1 || backward[e] != 1 {
			return false
		}
	}
	for e := range backward {
		if forward[e] != 1 {
			return false
		}
	}
	return len(forward) > 0
}
