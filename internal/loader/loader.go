// Package loader maps glTF documents onto animation armatures and clips.
package loader

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-anim/internal/logger"
	"github.com/Faultbox/midgard-anim/pkg/anim"
)

// Loader errors.
var (
	ErrNoJoints            = errors.New("document has no joints")
	ErrKeyframeCount       = errors.New("keyframe input and output counts differ")
	ErrUnsupportedAccessor = errors.New("unsupported accessor layout")
	ErrInvalidIndex        = errors.New("index out of range")
)

// Asset is everything the animation runtime needs from one document.
type Asset struct {
	Armature *anim.Armature
	Clips    []*anim.Clip
}

// LoadFile opens a .gltf or .glb file and maps it.
func LoadFile(path string) (*Asset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	asset, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return asset, nil
}

// FromDocument maps doc's first skin onto an armature and every animation
// onto a clip. Documents without skins treat every node as a joint.
// Animations that animate no joint are dropped.
func FromDocument(doc *gltf.Document) (*Asset, error) {
	log := logger.Named("loader")

	sk, err := readSkeleton(doc)
	if err != nil {
		return nil, err
	}

	asset := &Asset{Armature: sk.armature}
	names := make(map[string]int, len(doc.Animations))
	for i, a := range doc.Animations {
		clip, err := readClip(doc, sk, a, i)
		if err != nil {
			return nil, err
		}
		if err := clip.Validate(sk.armature.JointCount()); errors.Is(err, anim.ErrEmptyClip) {
			log.Warn("skipping animation without joint channels", zap.Int("animation", i), zap.String("name", clip.Name()))
			continue
		}
		if n := names[clip.Name()]; n > 0 {
			clip.SetName(fmt.Sprintf("%s_%d", clip.Name(), n))
		}
		names[clip.Name()]++
		asset.Clips = append(asset.Clips, clip)
	}

	log.Debug("loaded document",
		zap.Int("joints", sk.armature.JointCount()),
		zap.Int("clips", len(asset.Clips)),
		zap.Bool("skinned", sk.skinned))
	return asset, nil
}

// index reads a glTF index field. Optional indices are pointers in the
// document model; nil reports false.
func index[T uint32 | *uint32](v T) (int, bool) {
	switch x := any(v).(type) {
	case uint32:
		return int(x), true
	case *uint32:
		if x == nil {
			return 0, false
		}
		return int(*x), true
	}
	return 0, false
}
