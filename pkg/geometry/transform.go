package geometry

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrSingularTransform is returned when a transform has no inverse
var ErrSingularTransform = errors.New("transform is not invertible")

// Transform is an affine transform made of a 3x3 rotation matrix and a
// translation vector. Points are mapped as R*p + t.
type Transform struct {
	Rotation    mgl64.Mat3
	Translation mgl64.Vec3
}

// Identity returns the transform that leaves every point unchanged
func Identity() Transform {
	return Transform{Rotation: mgl64.Ident3()}
}

// NewTransform creates a transform from a row-major rotation matrix and a
// translation vector.
func NewTransform(rotation [3][3]float64, translation [3]float64) Transform {
	return Transform{
		Rotation: mgl64.Mat3FromRows(
			mgl64.Vec3(rotation[0]),
			mgl64.Vec3(rotation[1]),
			mgl64.Vec3(rotation[2]),
		),
		Translation: mgl64.Vec3(translation),
	}
}

// FromOrigin builds the local-to-world transform of an OpenStudio planar
// surface group: a translation to origin applied after a rotation about the
// Z axis by the negated direction of relative north (degrees).
func FromOrigin(origin mgl64.Vec3, relativeNorth float64) Transform {
	angle := -relativeNorth * math.Pi / 180.0
	return Transform{
		Rotation:    mgl64.Rotate3DZ(angle),
		Translation: origin,
	}
}

// Apply maps a point through the transform
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Mul3x1(p).Add(t.Translation)
}

// ApplyAll maps every point and returns a new slice
func (t Transform) ApplyAll(points []mgl64.Vec3) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(points))
	for i, p := range points {
		out[i] = t.Apply(p)
	}
	return out
}

// Compose returns the transform that applies inner first and then t.
func (t Transform) Compose(inner Transform) Transform {
	return Transform{
		Rotation:    t.Rotation.Mul3(inner.Rotation),
		Translation: t.Rotation.Mul3x1(inner.Translation).Add(t.Translation),
	}
}

// Inverse returns the transform that undoes t.
func (t Transform) Inverse() (Transform, error) {
	if math.Abs(t.Rotation.Det()) < 1e-12 {
		return Transform{}, ErrSingularTransform
	}
	inv := t.Rotation.Inv()
	return Transform{
		Rotation:    inv,
		Translation: inv.Mul3x1(t.Translation).Mul(-1),
	}, nil
}

// IsIdentity reports whether t is the identity within tolerance
func (t Transform) IsIdentity(tolerance float64) bool {
	return t.Rotation.ApproxEqualThreshold(mgl64.Ident3(), tolerance) &&
		t.Translation.ApproxEqualThreshold(mgl64.Vec3{}, tolerance)
}

// Rows returns the rotation matrix in row-major order
func (t Transform) Rows() [3][3]float64 {
	r0, r1, r2 := t.Rotation.Rows()
	return [3][3]float64{r0, r1, r2}
}
