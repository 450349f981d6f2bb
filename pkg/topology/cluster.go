package topology

// Cluster is an unordered aggregate of topologies. It is a grouping for
// serialization, not a solid.
type Cluster struct {
	members []Topology
}

// NewCluster creates a cluster. An empty cluster is valid.
func NewCluster(members []Topology) (*Cluster, error) {
	for i, m := range members {
		if m == nil {
			return nil, invalid("cluster member %d is missing", i)
		}
	}
	c := &Cluster{members: make([]Topology, len(members))}
	copy(c.members, members)
	return c, nil
}

func (c *Cluster) Type() Type { return TypeCluster }

// Members returns the topologies in the cluster
func (c *Cluster) Members() []Topology {
	out := make([]Topology, len(c.members))
	copy(out, c.members)
	return out
}

// Len returns the number of members
func (c *Cluster) Len() int { return len(c.members) }

// Vertices returns the distinct vertices of all members
func (c *Cluster) Vertices() []*Vertex {
	seen := make(map[*Vertex]bool)
	var out []*Vertex
	for _, m := range c.members {
		for _, v := range m.Vertices() {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// Cells returns the cells among the members, descending into nested clusters
func (c *Cluster) Cells() []*Cell {
	var out []*Cell
	for _, m := range c.members {
		switch t := m.(type) {
		case *Cell:
			out = append(out, t)
		case *Cluster:
			out = append(out, t.Cells()...)
		}
	}
	return out
}

// Faces returns the free faces among the members, descending into nested
// clusters. Faces bounding a cell are not included.
func (c *Cluster) Faces() []*Face {
	var out []*Face
	for _, m := range c.members {
		switch t := m.(type) {
		case *Face:
			out = append(out, t)
		case *Aperture:
			out = append(out, t.Topology())
		case *Cluster:
			out = append(out, t.Faces()...)
		}
	}
	return out
}
