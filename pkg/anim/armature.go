package anim

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-anim/pkg/math"
)

// Armature errors.
var (
	ErrPoseSizeMismatch = errors.New("rest and bind pose sizes differ")
)

// Armature is the static skeleton shared by every instance of a model.
// It is read-only after construction except through Set.
type Armature struct {
	rest    Pose
	bind    Pose
	invBind []math.Mat4
	names   []string
}

// NewArmature builds an armature and precomputes its inverse bind matrices.
// Missing joint names are left empty; extra names are dropped.
func NewArmature(rest, bind Pose, names []string) (*Armature, error) {
	a := &Armature{}
	if err := a.Set(rest, bind); err != nil {
		return nil, err
	}
	a.names = make([]string, rest.Len())
	copy(a.names, names)
	return a, nil
}

// Set replaces the rest and bind poses and recomputes the inverse bind matrices.
func (a *Armature) Set(rest, bind Pose) error {
	if rest.Len() != bind.Len() {
		return fmt.Errorf("rest has %d joints, bind has %d: %w", rest.Len(), bind.Len(), ErrPoseSizeMismatch)
	}
	a.rest = rest.Clone()
	a.bind = bind.Clone()

	a.invBind = make([]math.Mat4, a.bind.Len())
	for i := range a.invBind {
		a.invBind[i] = a.bind.GlobalTransform(i).ToMat4().Inverse()
	}
	if len(a.names) != a.rest.Len() {
		names := make([]string, a.rest.Len())
		copy(names, a.names)
		a.names = names
	}
	return nil
}

// JointCount returns the number of joints.
func (a *Armature) JointCount() int {
	return a.rest.Len()
}

// RestPose returns a copy of the rest pose, ready to be sampled into.
func (a *Armature) RestPose() Pose {
	return a.rest.Clone()
}

// BindPose returns a copy of the bind pose.
func (a *Armature) BindPose() Pose {
	return a.bind.Clone()
}

// InvBindPose returns a copy of the inverse bind matrices, in joint order.
func (a *Armature) InvBindPose() []math.Mat4 {
	return append([]math.Mat4(nil), a.invBind...)
}

// JointNames returns a copy of the joint names, in joint order.
func (a *Armature) JointNames() []string {
	return append([]string(nil), a.names...)
}

// JointName returns joint i's name.
func (a *Armature) JointName(i int) string {
	return a.names[i]
}

// JointIndex finds a joint by name.
func (a *Armature) JointIndex(name string) (int, bool) {
	for i, n := range a.names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// restPose exposes the shared rest pose without copying. Callers must not mutate it.
func (a *Armature) restPose() *Pose {
	return &a.rest
}
