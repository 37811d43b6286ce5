package anim

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-anim/pkg/math"
)

// chainPose builds root -> 1 -> 2 with distinct offsets and rotations.
func chainPose() Pose {
	p := NewPose(3)
	p.SetLocalTransform(0, Transform{Position: math.Vec3{X: 1}, Rotation: yRotation(gomath.Pi / 2), Scale: math.Vec3{X: 2, Y: 2, Z: 2}})
	p.SetLocalTransform(1, Transform{Position: math.Vec3{Y: 1}, Rotation: math.QuatFromAxisAngle(math.Vec3{X: 1}, 0.5), Scale: math.Vec3One()})
	p.SetLocalTransform(2, Transform{Position: math.Vec3{Z: 2}, Rotation: yRotation(-0.3), Scale: math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}})
	p.SetParent(1, 0)
	p.SetParent(2, 1)
	return p
}

func TestNewPose(t *testing.T) {
	p := NewPose(4)
	require.Equal(t, 4, p.Len())
	for i := range p.Len() {
		assert.Equal(t, Identity(), p.LocalTransform(i))
		assert.Equal(t, RootParent, p.Parent(i))
	}
}

func TestPoseResize(t *testing.T) {
	p := chainPose()
	p.Resize(5)
	assert.Equal(t, 5, p.Len())
	assert.Equal(t, 1, p.Parent(2))
	assert.Equal(t, RootParent, p.Parent(4))
	assert.Equal(t, Identity(), p.LocalTransform(3))

	p.Resize(2)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 0, p.Parent(1))
}

func TestPoseGlobalTransform(t *testing.T) {
	p := chainPose()

	m0 := p.LocalTransform(0).ToMat4()
	m1 := p.LocalTransform(1).ToMat4()
	m2 := p.LocalTransform(2).ToMat4()

	assertMat4(t, m0, p.GlobalTransform(0).ToMat4(), tol)
	assertMat4(t, m0.Mul(m1), p.GlobalTransform(1).ToMat4(), tol)
	assertMat4(t, m0.Mul(m1).Mul(m2), p.GlobalTransform(2).ToMat4(), tol)
}

func TestPoseGlobalTransformPositions(t *testing.T) {
	p := NewPose(2)
	p.SetLocalTransform(0, Transform{Rotation: yRotation(gomath.Pi / 2), Scale: math.Vec3One()})
	p.SetLocalTransform(1, Transform{Position: math.Vec3{X: 1}, Rotation: math.QuatIdentity(), Scale: math.Vec3One()})
	p.SetParent(1, 0)

	// +X rotated a quarter turn about Y lands on -Z.
	got := p.GlobalTransform(1).Position
	assert.True(t, got.ApproxEqual(math.Vec3{Z: -1}, tol), "got %v", got)
}

func TestPoseJointMatrices(t *testing.T) {
	p := chainPose()

	out := p.JointMatrices(nil)
	require.Len(t, out, 3)
	for i := range out {
		assertMat4(t, p.GlobalTransform(i).ToMat4(), out[i], tol)
	}

	buf := make([]math.Mat4, 8)
	reused := p.JointMatrices(buf)
	assert.Len(t, reused, 3)
	assert.Same(t, &buf[0], &reused[0])
}

func TestPoseCloneIsIndependent(t *testing.T) {
	p := chainPose()
	c := p.Clone()
	require.True(t, p.Equal(&c))

	c.SetLocalTransform(0, Identity())
	c.SetParent(2, RootParent)
	assert.False(t, p.Equal(&c))
	assert.Equal(t, 1, p.Parent(2))
	assert.NotEqual(t, Identity(), p.LocalTransform(0))
}

func TestPoseCopyFrom(t *testing.T) {
	src := chainPose()
	dst := NewPose(1)
	dst.CopyFrom(&src)
	assert.True(t, dst.Equal(&src))

	dst.SetParent(1, RootParent)
	assert.Equal(t, 0, src.Parent(1))
}

func TestPoseEqual(t *testing.T) {
	a := chainPose()
	b := chainPose()
	assert.True(t, a.Equal(&b))

	short := NewPose(2)
	assert.False(t, a.Equal(&short))
}
