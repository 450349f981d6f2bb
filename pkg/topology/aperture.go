package topology

// Placement is the parametric anchor of an aperture on its host face
type Placement struct {
	U, V, W float64
}

// CenterPlacement anchors an aperture at the parametric center of its host
var CenterPlacement = Placement{U: 0.5, V: 0.5, W: 0.5}

// Validate checks that every parameter lies in [0, 1]
func (p Placement) Validate() error {
	for _, v := range [3]float64{p.U, p.V, p.W} {
		if v < 0 || v > 1 {
			return invalid("aperture placement (%g, %g, %g) outside [0, 1]", p.U, p.V, p.W)
		}
	}
	return nil
}

// Aperture is a face (a window or a door) bound to a host face. It is
// context of the host, not part of any cell.
type Aperture struct {
	face      *Face
	host      *Face
	placement Placement
}

func (a *Aperture) Type() Type { return TypeAperture }

func (a *Aperture) Vertices() []*Vertex { return a.face.Vertices() }

// Topology returns the aperture's own face
func (a *Aperture) Topology() *Face { return a.face }

// Host returns the face the aperture is attached to
func (a *Aperture) Host() *Face { return a.host }

// Placement returns the anchor of the aperture on its host
func (a *Aperture) Placement() Placement { return a.placement }
