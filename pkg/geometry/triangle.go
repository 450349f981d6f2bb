package geometry

import "github.com/go-gl/mathgl/mgl64"

// Triangle represents a triangular facet in 3D space
type Triangle struct {
	Normal     mgl64.Vec3
	V1, V2, V3 mgl64.Vec3
}

// NewTriangle creates a triangle and derives its normal from the winding
func NewTriangle(v1, v2, v3 mgl64.Vec3) Triangle {
	t := Triangle{V1: v1, V2: v2, V3: v3}
	t.Normal = t.CalculateNormal()
	return t
}

// CalculateNormal computes the unit normal of the triangle; degenerate
// triangles get the zero vector.
func (t Triangle) CalculateNormal() mgl64.Vec3 {
	n := t.V2.Sub(t.V1).Cross(t.V3.Sub(t.V1))
	if n.Len() == 0 {
		return mgl64.Vec3{}
	}
	return n.Normalize()
}

// Area returns the surface area of the triangle
func (t Triangle) Area() float64 {
	return t.V2.Sub(t.V1).Cross(t.V3.Sub(t.V1)).Len() / 2.0
}
