package anim

import "github.com/Faultbox/midgard-anim/pkg/math"

// Scalar is a one-component keyframe value.
type Scalar float32

// Vector is a three-component keyframe value, used for translation and scale.
type Vector math.Vec3

// Quaternion is a four-component keyframe value holding a raw rotation.
// It is normalized whenever it is read back out of a track.
type Quaternion math.Quat

// Value is the set of types a Track can interpolate.
// The unexported methods hold the only per-type math; sampling control flow is shared.
type Value[T any] interface {
	Scalar | Vector | Quaternion

	add(T) T
	scale(float32) T
	// mix interpolates toward b by t.
	mix(b T, t float32) T
	// neighbor returns b moved into the same hemisphere as the receiver.
	neighbor(b T) T
	// normalized returns the value as it should leave a track.
	normalized() T
}

func (s Scalar) add(o Scalar) Scalar    { return s + o }
func (s Scalar) scale(f float32) Scalar { return s * Scalar(f) }
func (s Scalar) mix(b Scalar, t float32) Scalar {
	return s + (b-s)*Scalar(t)
}
func (s Scalar) neighbor(b Scalar) Scalar { return b }
func (s Scalar) normalized() Scalar       { return s }

func (v Vector) add(o Vector) Vector {
	return Vector(math.Vec3(v).Add(math.Vec3(o)))
}
func (v Vector) scale(f float32) Vector {
	return Vector(math.Vec3(v).Scale(f))
}
func (v Vector) mix(b Vector, t float32) Vector {
	return Vector(math.Vec3(v).Lerp(math.Vec3(b), t))
}
func (v Vector) neighbor(b Vector) Vector { return b }
func (v Vector) normalized() Vector       { return v }

func (q Quaternion) add(o Quaternion) Quaternion {
	return Quaternion(math.Quat(q).Add(math.Quat(o)))
}
func (q Quaternion) scale(f float32) Quaternion {
	return Quaternion(math.Quat(q).Scale(f))
}
func (q Quaternion) mix(b Quaternion, t float32) Quaternion {
	return Quaternion(math.Quat(q).Nlerp(math.Quat(b), t))
}
func (q Quaternion) neighbor(b Quaternion) Quaternion {
	if math.Quat(q).Dot(math.Quat(b)) < 0 {
		return Quaternion(math.Quat(b).Neg())
	}
	return b
}
func (q Quaternion) normalized() Quaternion {
	return Quaternion(math.Quat(q).Normalize())
}
