package geometry

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NewellNormal returns the (unnormalized) normal of a polygon using Newell's
// method. Its length is twice the polygon area, so it is the zero vector for
// degenerate boundaries.
func NewellNormal(points []mgl64.Vec3) mgl64.Vec3 {
	var n mgl64.Vec3
	for i, cur := range points {
		next := points[(i+1)%len(points)]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	return n
}

// PolygonArea returns the area of a planar polygon
func PolygonArea(points []mgl64.Vec3) float64 {
	return NewellNormal(points).Len() / 2.0
}

// Centroid returns the average of the points
func Centroid(points []mgl64.Vec3) mgl64.Vec3 {
	var c mgl64.Vec3
	if len(points) == 0 {
		return c
	}
	for _, p := range points {
		c = c.Add(p)
	}
	return c.Mul(1.0 / float64(len(points)))
}

// Triangulate splits a simple planar polygon into triangles by ear clipping.
// The polygon is projected onto the plane of its dominant normal axis, so
// concave outlines (L-shaped floors, notched walls) are handled. The result
// holds index triples into points, wound like the input.
func Triangulate(points []mgl64.Vec3) ([][3]int, error) {
	n := len(points)
	if n < 3 {
		return nil, fmt.Errorf("need at least 3 points to triangulate, got %d", n)
	}

	normal := NewellNormal(points)
	if normal.Len() == 0 {
		return nil, fmt.Errorf("cannot triangulate a degenerate polygon")
	}

	// Drop the axis with the largest normal component.
	ax, ay := 0, 1
	switch {
	case math.Abs(normal[0]) >= math.Abs(normal[1]) && math.Abs(normal[0]) >= math.Abs(normal[2]):
		ax, ay = 1, 2
	case math.Abs(normal[1]) >= math.Abs(normal[2]):
		ax, ay = 2, 0
	}
	flat := make([]mgl64.Vec2, n)
	for i, p := range points {
		flat[i] = mgl64.Vec2{p[ax], p[ay]}
	}

	// Orientation of the projected outline decides which turns are convex.
	orientation := 0.0
	for i := range flat {
		a, b := flat[i], flat[(i+1)%n]
		orientation += a[0]*b[1] - b[0]*a[1]
	}
	sign := 1.0
	if orientation < 0 {
		sign = -1.0
	}

	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}

	triangles := make([][3]int, 0, n-2)
	for guard := 0; len(remaining) > 3; guard++ {
		if guard > n*n {
			return nil, fmt.Errorf("polygon is not simple")
		}
		clipped := false
		for i := range remaining {
			prev := remaining[(i+len(remaining)-1)%len(remaining)]
			cur := remaining[i]
			next := remaining[(i+1)%len(remaining)]

			if sign*cross2(flat[prev], flat[cur], flat[next]) <= 0 {
				continue
			}
			if containsAny(flat, remaining, prev, cur, next, sign) {
				continue
			}

			triangles = append(triangles, [3]int{prev, cur, next})
			remaining = append(remaining[:i], remaining[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, fmt.Errorf("polygon is not simple")
		}
	}
	triangles = append(triangles, [3]int{remaining[0], remaining[1], remaining[2]})

	return triangles, nil
}

func cross2(a, b, c mgl64.Vec2) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// containsAny reports whether any other remaining vertex lies inside the
// candidate ear (prev, cur, next).
func containsAny(flat []mgl64.Vec2, remaining []int, prev, cur, next int, sign float64) bool {
	a, b, c := flat[prev], flat[cur], flat[next]
	for _, idx := range remaining {
		if idx == prev || idx == cur || idx == next {
			continue
		}
		p := flat[idx]
		if sign*cross2(a, b, p) >= 0 && sign*cross2(b, c, p) >= 0 && sign*cross2(c, a, p) >= 0 {
			return true
		}
	}
	return false
}
