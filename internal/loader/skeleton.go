package loader

import (
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/midgard-anim/pkg/anim"
	"github.com/Faultbox/midgard-anim/pkg/math"
)

var (
	identityMatrix = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	zeroRotation   [4]float32
	zeroScale      [3]float32
)

// skeleton is the joint mapping shared by every clip of a document.
type skeleton struct {
	armature *anim.Armature
	joints   map[int]int // node index -> joint index
	// offsets holds, per joint index, the combined transform of the
	// non-joint nodes between a joint and its parent joint (or the scene).
	offsets map[int]anim.Transform
	skinned bool
}

func readSkeleton(doc *gltf.Document) (*skeleton, error) {
	nodes, skin, err := jointNodes(doc)
	if err != nil {
		return nil, err
	}

	joints := make(map[int]int, len(nodes))
	for j, n := range nodes {
		joints[n] = j
	}

	parentOf := make(map[int]int, len(doc.Nodes))
	for p, node := range doc.Nodes {
		for _, c := range node.Children {
			child, _ := index(c)
			if child >= len(doc.Nodes) {
				return nil, fmt.Errorf("node %d child %d: %w", p, child, ErrInvalidIndex)
			}
			parentOf[child] = p
		}
	}

	rest := anim.NewPose(len(nodes))
	names := make([]string, len(nodes))
	offsets := make(map[int]anim.Transform)
	for j, n := range nodes {
		node := doc.Nodes[n]
		parent, offset, skipped := jointParent(doc, n, parentOf, joints)
		local := nodeTransform(node)
		if skipped {
			offsets[j] = offset
			local = anim.Combine(offset, local)
		}
		rest.SetLocalTransform(j, local)
		rest.SetParent(j, parent)
		names[j] = node.Name
	}

	bind := rest
	if skin != nil {
		if acc, ok := index(skin.InverseBindMatrices); ok {
			bind, err = bindPose(doc, acc, rest)
			if err != nil {
				return nil, err
			}
		}
	}

	armature, err := anim.NewArmature(rest, bind, names)
	if err != nil {
		return nil, err
	}
	return &skeleton{armature: armature, joints: joints, offsets: offsets, skinned: skin != nil}, nil
}

// jointNodes lists the node index of every joint in joint order.
func jointNodes(doc *gltf.Document) ([]int, *gltf.Skin, error) {
	if len(doc.Skins) > 0 {
		skin := doc.Skins[0]
		if len(skin.Joints) == 0 {
			return nil, nil, fmt.Errorf("skin 0: %w", ErrNoJoints)
		}
		nodes := make([]int, len(skin.Joints))
		for j, n := range skin.Joints {
			nodes[j], _ = index(n)
			if nodes[j] >= len(doc.Nodes) {
				return nil, nil, fmt.Errorf("skin 0 joint %d node %d: %w", j, nodes[j], ErrInvalidIndex)
			}
		}
		return nodes, skin, nil
	}

	if len(doc.Nodes) == 0 {
		return nil, nil, ErrNoJoints
	}
	nodes := make([]int, len(doc.Nodes))
	for i := range nodes {
		nodes[i] = i
	}
	return nodes, nil, nil
}

// jointParent climbs the node tree to the nearest ancestor that is a joint.
// The local transforms of the non-joint nodes passed on the way are combined
// into offset; skipped reports whether there were any.
func jointParent(doc *gltf.Document, node int, parentOf, joints map[int]int) (parent int, offset anim.Transform, skipped bool) {
	offset = anim.Identity()
	for steps := 0; steps < len(parentOf); steps++ {
		p, ok := parentOf[node]
		if !ok {
			break
		}
		if j, ok := joints[p]; ok {
			return j, offset, skipped
		}
		offset = anim.Combine(nodeTransform(doc.Nodes[p]), offset)
		skipped = true
		node = p
	}
	return anim.RootParent, offset, skipped
}

// nodeTransform reads a node's local transform. A non-identity matrix wins
// over TRS; zero rotation and scale are treated as unset.
func nodeTransform(node *gltf.Node) anim.Transform {
	if node.Matrix != identityMatrix && node.Matrix != [16]float32{} {
		return anim.FromMat4(math.Mat4(node.Matrix))
	}

	t := anim.Identity()
	t.Position = math.Vec3FromArray(node.Translation)
	if node.Rotation != zeroRotation {
		t.Rotation = math.QuatFromArray(node.Rotation).Normalize()
	}
	if node.Scale != zeroScale {
		t.Scale = math.Vec3FromArray(node.Scale)
	}
	return t
}

// bindPose rebuilds local bind transforms from the skin's inverse bind matrices.
func bindPose(doc *gltf.Document, acc int, rest anim.Pose) (anim.Pose, error) {
	mats, err := readMatrices(doc, acc)
	if err != nil {
		return anim.Pose{}, fmt.Errorf("inverse bind matrices: %w", err)
	}
	if len(mats) != rest.Len() {
		return anim.Pose{}, fmt.Errorf("inverse bind accessor %d has %d matrices for %d joints: %w",
			acc, len(mats), rest.Len(), ErrUnsupportedAccessor)
	}

	global := make([]anim.Transform, len(mats))
	for j, m := range mats {
		global[j] = anim.FromMat4(m.Inverse())
	}

	bind := rest.Clone()
	for j := range global {
		local := global[j]
		if p := bind.Parent(j); p >= 0 {
			local = anim.Combine(anim.Inverse(global[p]), global[j])
		}
		bind.SetLocalTransform(j, local)
	}
	return bind, nil
}
