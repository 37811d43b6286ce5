package loader

import (
	"encoding/json"
	"fmt"
	gomath "math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-anim/pkg/anim"
	"github.com/Faultbox/midgard-anim/pkg/math"
)

const tol = 1e-5

var halfSqrt2 = float32(gomath.Sqrt2 / 2)

// testDoc wraps a document under construction. Skins and animations are
// decoded from JSON so accessor indices can be spliced in.
type testDoc struct {
	t   *testing.T
	doc *gltf.Document
}

func newTestDoc(t *testing.T, nodes ...*gltf.Node) *testDoc {
	doc := gltf.NewDocument()
	doc.Nodes = nodes
	return &testDoc{t: t, doc: doc}
}

func (d *testDoc) write(data any) uint32 {
	return modeler.WriteAccessor(d.doc, gltf.TargetNone, data)
}

func (d *testDoc) skin(format string, args ...any) {
	d.t.Helper()
	var s gltf.Skin
	require.NoError(d.t, json.Unmarshal([]byte(fmt.Sprintf(format, args...)), &s))
	d.doc.Skins = append(d.doc.Skins, &s)
}

func (d *testDoc) animation(format string, args ...any) {
	d.t.Helper()
	var a gltf.Animation
	require.NoError(d.t, json.Unmarshal([]byte(fmt.Sprintf(format, args...)), &a))
	d.doc.Animations = append(d.doc.Animations, &a)
}

// turnDoc is a skinned root and child, with the root turning a quarter about Y.
func turnDoc(t *testing.T) *testDoc {
	d := newTestDoc(t,
		&gltf.Node{Name: "root", Children: []uint32{1}},
		&gltf.Node{Name: "child", Translation: [3]float32{0, 1, 0}},
	)
	ibm := d.write([][4][4]float32{
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}},
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, -1, 0, 1}},
	})
	d.skin(`{"joints": [0, 1], "inverseBindMatrices": %d}`, ibm)

	times := d.write([]float32{0, 1})
	rots := d.write([][4]float32{{0, 0, 0, 1}, {0, halfSqrt2, 0, halfSqrt2}})
	d.animation(`{
		"name": "turn",
		"channels": [{"sampler": 0, "target": {"node": 0, "path": "rotation"}}],
		"samplers": [{"input": %d, "output": %d, "interpolation": "LINEAR"}]
	}`, times, rots)
	return d
}

func TestFromDocumentSkinned(t *testing.T) {
	asset, err := FromDocument(turnDoc(t).doc)
	require.NoError(t, err)

	a := asset.Armature
	require.Equal(t, 2, a.JointCount())
	assert.Equal(t, []string{"root", "child"}, a.JointNames())

	rest := a.RestPose()
	assert.Equal(t, anim.RootParent, rest.Parent(0))
	assert.Equal(t, 0, rest.Parent(1))
	assert.Equal(t, anim.Identity(), rest.LocalTransform(0), "unset rotation and scale default to identity")
	assert.Equal(t, math.Vec3{Y: 1}, rest.LocalTransform(1).Position)

	bind := a.BindPose()
	assert.True(t, bind.LocalTransform(1).ApproxEqual(rest.LocalTransform(1), tol))
	assert.True(t, a.InvBindPose()[1].ApproxEqual(math.Translate(0, -1, 0), tol))

	require.Len(t, asset.Clips, 1)
	clip := asset.Clips[0]
	assert.Equal(t, "turn", clip.Name())
	assert.True(t, clip.Looping())
	assert.Equal(t, float32(1), clip.Duration())
	require.Equal(t, 1, clip.Len())
	assert.Equal(t, uint32(0), clip.JointID(0))

	rot := clip.TrackAt(0).Rotation
	assert.Equal(t, anim.Linear, rot.Interpolation)
	require.Equal(t, 2, rot.Len())
	want := math.QuatFromAxisAngle(math.Vec3{Y: 1}, gomath.Pi/2)
	assert.True(t, math.Quat(rot.Frames[1].Value).ApproxEqual(want, tol))
}

func TestFromDocumentBakes(t *testing.T) {
	asset, err := FromDocument(turnDoc(t).doc)
	require.NoError(t, err)

	baked, err := anim.Bake(asset.Clips[0], asset.Armature)
	require.NoError(t, err)
	assert.Equal(t, 240, baked.FrameCount())

	skin := anim.SkinMatrices(nil, baked.PoseAt(0), asset.Armature.InvBindPose())
	for j := range skin {
		assert.True(t, skin[j].ApproxEqual(math.Identity(), 1e-4), "joint %d not at bind pose", j)
	}
}

func TestFromDocumentBindDiffersFromRest(t *testing.T) {
	d := newTestDoc(t,
		&gltf.Node{Name: "root", Children: []uint32{1}, Translation: [3]float32{0, 0, 5}},
		&gltf.Node{Name: "child", Translation: [3]float32{0, 1, 0}},
	)
	// Bound with the root at (2,0,0) and the child at (2,3,0).
	ibm := d.write([][4][4]float32{
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {-2, 0, 0, 1}},
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {-2, -3, 0, 1}},
	})
	d.skin(`{"joints": [0, 1], "inverseBindMatrices": %d}`, ibm)

	asset, err := FromDocument(d.doc)
	require.NoError(t, err)

	bind := asset.Armature.BindPose()
	assert.True(t, bind.LocalTransform(0).Position.ApproxEqual(math.Vec3{X: 2}, tol))
	assert.True(t, bind.LocalTransform(1).Position.ApproxEqual(math.Vec3{Y: 3}, tol))

	rest := asset.Armature.RestPose()
	assert.Equal(t, math.Vec3{Z: 5}, rest.LocalTransform(0).Position)
}

func TestFromDocumentWithoutInverseBind(t *testing.T) {
	d := newTestDoc(t,
		&gltf.Node{Name: "a", Children: []uint32{1}},
		&gltf.Node{Name: "b", Translation: [3]float32{1, 0, 0}},
	)
	d.skin(`{"joints": [0, 1]}`)

	asset, err := FromDocument(d.doc)
	require.NoError(t, err)

	rest, bind := asset.Armature.RestPose(), asset.Armature.BindPose()
	assert.True(t, rest.Equal(&bind))
}

func TestFromDocumentUnskinned(t *testing.T) {
	m := math.Translate(4, 5, 6).Mul(math.RotateY(0.5))
	d := newTestDoc(t,
		&gltf.Node{Name: "hips", Children: []uint32{1}, Scale: [3]float32{2, 2, 2}},
		&gltf.Node{Name: "prop", Matrix: [16]float32(m)},
	)

	asset, err := FromDocument(d.doc)
	require.NoError(t, err)
	require.Equal(t, 2, asset.Armature.JointCount())

	rest := asset.Armature.RestPose()
	assert.Equal(t, math.Vec3{X: 2, Y: 2, Z: 2}, rest.LocalTransform(0).Scale)
	assert.True(t, rest.LocalTransform(1).ToMat4().ApproxEqual(m, tol))
	assert.Equal(t, 0, rest.Parent(1))
	assert.Empty(t, asset.Clips)
}

// armatureDoc puts a non-joint "armature" node at (0,5,0) above a skinned
// root and child.
func armatureDoc(t *testing.T) *testDoc {
	d := newTestDoc(t,
		&gltf.Node{Name: "armature", Children: []uint32{1}, Translation: [3]float32{0, 5, 0}},
		&gltf.Node{Name: "root", Children: []uint32{2}},
		&gltf.Node{Name: "child", Translation: [3]float32{0, 1, 0}},
	)
	ibm := d.write([][4][4]float32{
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, -5, 0, 1}},
		{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, -6, 0, 1}},
	})
	d.skin(`{"joints": [1, 2], "inverseBindMatrices": %d}`, ibm)
	return d
}

func TestFromDocumentSkipsNonJointNodes(t *testing.T) {
	d := armatureDoc(t)

	times := d.write([]float32{0, 1})
	moves := d.write([][3]float32{{0, 0, 0}, {1, 0, 0}})
	weights := d.write([]float32{0, 1})
	d.animation(`{
		"name": "drift",
		"channels": [
			{"sampler": 0, "target": {"node": 0, "path": "translation"}},
			{"sampler": 1, "target": {"node": 1, "path": "weights"}}
		],
		"samplers": [
			{"input": %d, "output": %d},
			{"input": %d, "output": %d}
		]
	}`, times, moves, times, weights)

	asset, err := FromDocument(d.doc)
	require.NoError(t, err)

	rest := asset.Armature.RestPose()
	assert.Equal(t, anim.RootParent, rest.Parent(0), "non-joint ancestors are skipped")
	assert.Equal(t, 0, rest.Parent(1))
	assert.True(t, rest.GlobalTransform(0).Position.ApproxEqual(math.Vec3{Y: 5}, tol), "armature offset folded into root")
	assert.True(t, rest.GlobalTransform(1).Position.ApproxEqual(math.Vec3{Y: 6}, tol))
	assert.Empty(t, asset.Clips, "clip with no joint channels is dropped")

	skin := anim.SkinMatrices(nil, rest.JointMatrices(nil), asset.Armature.InvBindPose())
	for j := range skin {
		assert.True(t, skin[j].ApproxEqual(math.Identity(), 1e-4), "joint %d not at bind pose", j)
	}
}

func TestFromDocumentFoldsOffsetIntoChannels(t *testing.T) {
	d := armatureDoc(t)

	times := d.write([]float32{0, 1})
	moves := d.write([][3]float32{{0, 0, 0}, {1, 0, 0}})
	d.animation(`{
		"name": "slide",
		"channels": [{"sampler": 0, "target": {"node": 1, "path": "translation"}}],
		"samplers": [{"input": %d, "output": %d}]
	}`, times, moves)

	asset, err := FromDocument(d.doc)
	require.NoError(t, err)
	require.Len(t, asset.Clips, 1)

	baked, err := anim.Bake(asset.Clips[0], asset.Armature)
	require.NoError(t, err)

	skin := anim.SkinMatrices(nil, baked.PoseAt(0), asset.Armature.InvBindPose())
	for j := range skin {
		assert.True(t, skin[j].ApproxEqual(math.Identity(), 1e-4), "joint %d not at bind pose", j)
	}

	root := baked.PoseAt(120)[0].Column(3)
	assert.InDelta(t, 0.5, root.X, 1e-4)
	assert.InDelta(t, 5, root.Y, 1e-4)
	assert.InDelta(t, 0, root.Z, 1e-4)
}

func TestFromDocumentInterpolations(t *testing.T) {
	d := newTestDoc(t, &gltf.Node{Name: "only"})
	times := d.write([]float32{0, 2})
	cubic := d.write([][3]float32{
		{0, 0, 0}, {0, 0, 0}, {1, 0, 0}, // in, value, out
		{2, 0, 0}, {4, 0, 0}, {0, 0, 0},
	})
	steps := d.write([][3]float32{{1, 1, 1}, {3, 3, 3}})
	d.animation(`{
		"channels": [
			{"sampler": 0, "target": {"node": 0, "path": "translation"}},
			{"sampler": 1, "target": {"node": 0, "path": "scale"}}
		],
		"samplers": [
			{"input": %d, "output": %d, "interpolation": "CUBICSPLINE"},
			{"input": %d, "output": %d, "interpolation": "STEP"}
		]
	}`, times, cubic, times, steps)

	asset, err := FromDocument(d.doc)
	require.NoError(t, err)
	require.Len(t, asset.Clips, 1)

	clip := asset.Clips[0]
	assert.Equal(t, "animation_0", clip.Name())
	jt := clip.TrackAt(0)

	pos := jt.Position
	assert.Equal(t, anim.Cubic, pos.Interpolation)
	require.Equal(t, 2, pos.Len())
	assert.Equal(t, anim.Vector{X: 1}, pos.Frames[0].Out)
	assert.Equal(t, anim.Vector{X: 4}, pos.Frames[1].Value)
	assert.Equal(t, anim.Vector{X: 2}, pos.Frames[1].In)

	assert.Equal(t, anim.Constant, jt.Scale.Interpolation)
	assert.Equal(t, anim.Vector{X: 1, Y: 1, Z: 1}, jt.Scale.Sample(1.5, false))
}

func TestFromDocumentDuplicateNames(t *testing.T) {
	d := turnDoc(t)
	d.doc.Animations = append(d.doc.Animations, d.doc.Animations[0])

	asset, err := FromDocument(d.doc)
	require.NoError(t, err)
	require.Len(t, asset.Clips, 2)
	assert.Equal(t, "turn", asset.Clips[0].Name())
	assert.Equal(t, "turn_1", asset.Clips[1].Name())
}

func TestFromDocumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		build   func(t *testing.T) *gltf.Document
		wantErr error
	}{
		{
			name:    "empty document",
			build:   func(t *testing.T) *gltf.Document { return gltf.NewDocument() },
			wantErr: ErrNoJoints,
		},
		{
			name: "skin without joints",
			build: func(t *testing.T) *gltf.Document {
				d := newTestDoc(t, &gltf.Node{})
				d.skin(`{"joints": []}`)
				return d.doc
			},
			wantErr: ErrNoJoints,
		},
		{
			name: "skin joint out of range",
			build: func(t *testing.T) *gltf.Document {
				d := newTestDoc(t, &gltf.Node{})
				d.skin(`{"joints": [0, 3]}`)
				return d.doc
			},
			wantErr: ErrInvalidIndex,
		},
		{
			name: "inverse bind count",
			build: func(t *testing.T) *gltf.Document {
				d := newTestDoc(t, &gltf.Node{Children: []uint32{1}}, &gltf.Node{})
				ibm := d.write([][4][4]float32{{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}})
				d.skin(`{"joints": [0, 1], "inverseBindMatrices": %d}`, ibm)
				return d.doc
			},
			wantErr: ErrUnsupportedAccessor,
		},
		{
			name: "keyframe count",
			build: func(t *testing.T) *gltf.Document {
				d := newTestDoc(t, &gltf.Node{})
				times := d.write([]float32{0, 1})
				out := d.write([][3]float32{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}})
				d.animation(`{"channels": [{"sampler": 0, "target": {"node": 0, "path": "translation"}}],
					"samplers": [{"input": %d, "output": %d}]}`, times, out)
				return d.doc
			},
			wantErr: ErrKeyframeCount,
		},
		{
			name: "sampler out of range",
			build: func(t *testing.T) *gltf.Document {
				d := newTestDoc(t, &gltf.Node{})
				times := d.write([]float32{0, 1})
				d.animation(`{"channels": [{"sampler": 2, "target": {"node": 0, "path": "scale"}}],
					"samplers": [{"input": %d, "output": %d}]}`, times, times)
				return d.doc
			},
			wantErr: ErrInvalidIndex,
		},
		{
			name: "accessor out of range",
			build: func(t *testing.T) *gltf.Document {
				d := newTestDoc(t, &gltf.Node{})
				d.animation(`{"channels": [{"sampler": 0, "target": {"node": 0, "path": "scale"}}],
					"samplers": [{"input": 40, "output": 41}]}`)
				return d.doc
			},
			wantErr: ErrInvalidIndex,
		},
		{
			name: "rotation stored as vec3",
			build: func(t *testing.T) *gltf.Document {
				d := newTestDoc(t, &gltf.Node{})
				times := d.write([]float32{0, 1})
				out := d.write([][3]float32{{0, 0, 0}, {1, 1, 1}})
				d.animation(`{"channels": [{"sampler": 0, "target": {"node": 0, "path": "rotation"}}],
					"samplers": [{"input": %d, "output": %d}]}`, times, out)
				return d.doc
			},
			wantErr: ErrUnsupportedAccessor,
		},
		{
			name: "unsorted times",
			build: func(t *testing.T) *gltf.Document {
				d := newTestDoc(t, &gltf.Node{})
				times := d.write([]float32{1, 0})
				out := d.write([][3]float32{{0, 0, 0}, {1, 1, 1}})
				d.animation(`{"channels": [{"sampler": 0, "target": {"node": 0, "path": "translation"}}],
					"samplers": [{"input": %d, "output": %d}]}`, times, out)
				return d.doc
			},
			wantErr: anim.ErrUnsortedFrames,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDocument(tt.build(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turn.glb")
	require.NoError(t, gltf.SaveBinary(turnDoc(t).doc, path))

	asset, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, asset.Armature.JointCount())
	require.Len(t, asset.Clips, 1)
	assert.Equal(t, float32(1), asset.Clips[0].Duration())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
}
