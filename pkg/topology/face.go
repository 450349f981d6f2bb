package topology

// Face is a planar region bounded by an outer wire, with optional holes
// and the apertures hosted on it.
type Face struct {
	outer     *Wire
	inner     []*Wire
	apertures []*Aperture
}

// NewFace creates a face from its external boundary and internal boundaries
func NewFace(outer *Wire, inner []*Wire) (*Face, error) {
	if outer == nil {
		return nil, invalid("face needs an external boundary")
	}
	if !outer.IsClosed() {
		return nil, invalid("face boundary is not closed")
	}
	for i, w := range inner {
		if w == nil || !w.IsClosed() {
			return nil, invalid("internal boundary %d is not a closed wire", i)
		}
	}
	f := &Face{outer: outer}
	if len(inner) > 0 {
		f.inner = make([]*Wire, len(inner))
		copy(f.inner, inner)
	}
	return f, nil
}

func (f *Face) Type() Type { return TypeFace }

// ExternalBoundary returns the outer wire
func (f *Face) ExternalBoundary() *Wire { return f.outer }

// InternalBoundaries returns the holes of the face
func (f *Face) InternalBoundaries() []*Wire {
	out := make([]*Wire, len(f.inner))
	copy(out, f.inner)
	return out
}

// Wires returns the outer wire followed by the holes
func (f *Face) Wires() []*Wire {
	return append([]*Wire{f.outer}, f.inner...)
}

// Vertices returns the distinct vertices of all boundaries
func (f *Face) Vertices() []*Vertex {
	seen := make(map[*Vertex]bool)
	var out []*Vertex
	for _, w := range f.Wires() {
		out = collectVertices(w, seen, out)
	}
	return out
}

// Apertures returns the apertures hosted on the face
func (f *Face) Apertures() []*Aperture {
	out := make([]*Aperture, len(f.apertures))
	copy(out, f.apertures)
	return out
}

// WithApertures returns a copy of the face hosting its current apertures
// plus one new aperture per given face, all anchored at placement.
func (f *Face) WithApertures(faces []*Face, placement Placement) (*Face, error) {
	if err := placement.Validate(); err != nil {
		return nil, err
	}
	host := &Face{
		outer: f.outer,
		inner: f.inner,
	}
	host.apertures = make([]*Aperture, 0, len(f.apertures)+len(faces))
	for _, a := range f.apertures {
		host.apertures = append(host.apertures, &Aperture{face: a.face, host: host, placement: a.placement})
	}
	for i, af := range faces {
		if af == nil {
			return nil, invalid("aperture %d is missing", i)
		}
		host.apertures = append(host.apertures, &Aperture{face: af, host: host, placement: placement})
	}
	return host, nil
}
