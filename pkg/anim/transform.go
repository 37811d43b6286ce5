// Package anim implements skeletal animation sampling: keyframe tracks, clips,
// pose hierarchies, baked matrix palettes and per-instance playback.
//
// Nothing in this package holds global state. Armatures, clips and baked
// animations are immutable once built and may be shared across goroutines;
// a Player is owned by exactly one caller.
package anim

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-anim/pkg/math"
)

// scaleEpsilon is the magnitude below which a scale component inverts to zero.
const scaleEpsilon = 1e-6

// Transform is a local or global joint transform: translate, then rotate, then scale.
type Transform struct {
	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
}

// Identity returns the transform that leaves points unchanged.
func Identity() Transform {
	return Transform{
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3One(),
	}
}

// Combine returns parent applied after child.
// Not commutative: Combine(a, b) maps a point through b first, then a.
func Combine(parent, child Transform) Transform {
	return Transform{
		Scale:    parent.Scale.Mul(child.Scale),
		Rotation: parent.Rotation.Mul(child.Rotation),
		Position: parent.Position.Add(parent.Rotation.Rotate(parent.Scale.Mul(child.Position))),
	}
}

// Inverse returns the transform that undoes t.
// Scale components with magnitude below 1e-6 invert to zero instead of dividing.
func Inverse(t Transform) Transform {
	inv := Transform{Rotation: t.Rotation.Inverse()}
	inv.Scale = math.Vec3{
		X: invertScale(t.Scale.X),
		Y: invertScale(t.Scale.Y),
		Z: invertScale(t.Scale.Z),
	}
	inv.Position = inv.Rotation.Rotate(inv.Scale.Mul(t.Position.Neg()))
	return inv
}

func invertScale(s float32) float32 {
	if math32.Abs(s) < scaleEpsilon {
		return 0
	}
	return 1 / s
}

// Mix blends a toward b. Rotation takes the shorter arc.
func Mix(a, b Transform, t float32) Transform {
	return Transform{
		Position: a.Position.Lerp(b.Position, t),
		Rotation: a.Rotation.Nlerp(b.Rotation, t),
		Scale:    a.Scale.Lerp(b.Scale, t),
	}
}

// ToMat4 returns the column-major matrix for t.
func (t Transform) ToMat4() math.Mat4 {
	x := t.Rotation.Rotate(math.Vec3{X: 1}).Scale(t.Scale.X)
	y := t.Rotation.Rotate(math.Vec3{Y: 1}).Scale(t.Scale.Y)
	z := t.Rotation.Rotate(math.Vec3{Z: 1}).Scale(t.Scale.Z)
	p := t.Position

	return math.Mat4{
		x.X, x.Y, x.Z, 0,
		y.X, y.Y, y.Z, 0,
		z.X, z.Y, z.Z, 0,
		p.X, p.Y, p.Z, 1,
	}
}

// FromMat4 decomposes an affine matrix without shear.
// Skewed or projective matrices give an undefined rotation.
func FromMat4(m math.Mat4) Transform {
	x, y, z := m.Column(0), m.Column(1), m.Column(2)
	scale := math.Vec3{X: x.Length(), Y: y.Length(), Z: z.Length()}

	basis := math.Identity()
	setBasisColumn(&basis, 0, x, scale.X)
	setBasisColumn(&basis, 1, y, scale.Y)
	setBasisColumn(&basis, 2, z, scale.Z)

	return Transform{
		Position: m.Column(3),
		Rotation: math.QuatFromMat4(basis),
		Scale:    scale,
	}
}

// setBasisColumn writes col/length into column i, keeping the identity axis
// when the column has collapsed.
func setBasisColumn(m *math.Mat4, i int, col math.Vec3, length float32) {
	if length < scaleEpsilon {
		return
	}
	n := col.Scale(1 / length)
	m[i*4], m[i*4+1], m[i*4+2] = n.X, n.Y, n.Z
}

// ApproxEqual reports whether every component of t and other is within eps.
// Rotations equal up to sign compare equal.
func (t Transform) ApproxEqual(other Transform, eps float32) bool {
	return t.Position.ApproxEqual(other.Position, eps) &&
		t.Scale.ApproxEqual(other.Scale, eps) &&
		t.Rotation.ApproxEqual(other.Rotation, eps)
}
