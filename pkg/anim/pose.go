package anim

import "github.com/Faultbox/midgard-anim/pkg/math"

// RootParent marks a joint with no parent.
const RootParent = -1

// Pose is a skeleton's local joint transforms plus their parent links.
// Joints and parents are parallel arrays indexed by joint id. Parent chains
// must end at a root; cycles are the caller's bug and are not detected.
type Pose struct {
	joints  []Transform
	parents []int
}

// NewPose returns a pose of n identity joints, each a root.
func NewPose(n int) Pose {
	var p Pose
	p.Resize(n)
	return p
}

// Len returns the joint count.
func (p *Pose) Len() int {
	return len(p.joints)
}

// Resize grows or shrinks the pose to n joints. New joints are identity roots.
func (p *Pose) Resize(n int) {
	old := len(p.joints)
	if n <= old {
		p.joints = p.joints[:n]
		p.parents = p.parents[:n]
		return
	}
	for i := old; i < n; i++ {
		p.joints = append(p.joints, Identity())
		p.parents = append(p.parents, RootParent)
	}
}

// LocalTransform returns joint i's transform relative to its parent.
func (p *Pose) LocalTransform(i int) Transform {
	return p.joints[i]
}

// SetLocalTransform replaces joint i's local transform.
func (p *Pose) SetLocalTransform(i int, t Transform) {
	p.joints[i] = t
}

// Parent returns joint i's parent index, or RootParent.
func (p *Pose) Parent(i int) int {
	return p.parents[i]
}

// SetParent links joint i under parent. Pass RootParent to detach it.
func (p *Pose) SetParent(i, parent int) {
	p.parents[i] = parent
}

// GlobalTransform composes joint i with every ancestor up to its root.
func (p *Pose) GlobalTransform(i int) Transform {
	result := p.joints[i]
	for parent := p.parents[i]; parent >= 0; parent = p.parents[parent] {
		result = Combine(p.joints[parent], result)
	}
	return result
}

// JointMatrices writes every joint's global matrix into out, growing it if
// it is too short, and returns the slice holding exactly Len matrices.
func (p *Pose) JointMatrices(out []math.Mat4) []math.Mat4 {
	n := len(p.joints)
	if cap(out) < n {
		out = make([]math.Mat4, n)
	}
	out = out[:n]
	for i := range n {
		out[i] = p.GlobalTransform(i).ToMat4()
	}
	return out
}

// Clone returns a deep copy.
func (p *Pose) Clone() Pose {
	return Pose{
		joints:  append([]Transform(nil), p.joints...),
		parents: append([]int(nil), p.parents...),
	}
}

// CopyFrom overwrites p with src, reusing p's storage when it is large enough.
func (p *Pose) CopyFrom(src *Pose) {
	p.joints = append(p.joints[:0], src.joints...)
	p.parents = append(p.parents[:0], src.parents...)
}

// Equal reports whether both poses have identical joints and parents.
func (p *Pose) Equal(other *Pose) bool {
	if len(p.joints) != len(other.joints) || len(p.parents) != len(other.parents) {
		return false
	}
	for i := range p.joints {
		if p.joints[i] != other.joints[i] {
			return false
		}
	}
	for i := range p.parents {
		if p.parents[i] != other.parents[i] {
			return false
		}
	}
	return true
}
