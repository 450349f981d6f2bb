package topology

import "github.com/go-gl/mathgl/mgl64"

// Vertex is an immutable point in space
type Vertex struct {
	point mgl64.Vec3
}

// NewVertex creates a vertex at the given coordinates
func NewVertex(x, y, z float64) *Vertex {
	return &Vertex{point: mgl64.Vec3{x, y, z}}
}

// VertexAt creates a vertex at p
func VertexAt(p mgl64.Vec3) *Vertex {
	return &Vertex{point: p}
}

func (v *Vertex) Type() Type { return TypeVertex }

func (v *Vertex) Vertices() []*Vertex { return []*Vertex{v} }

// Point returns the coordinates of the vertex
func (v *Vertex) Point() mgl64.Vec3 { return v.point }

func (v *Vertex) X() float64 { return v.point[0] }
func (v *Vertex) Y() float64 { return v.point[1] }
func (v *Vertex) Z() float64 { return v.point[2] }

// Coincides reports whether two vertices are the same vertex or sit at
// exactly the same coordinates.
func (v *Vertex) Coincides(other *Vertex) bool {
	return v == other || v.point == other.point
}
