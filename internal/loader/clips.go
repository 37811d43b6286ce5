package loader

import (
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/midgard-anim/pkg/anim"
	"github.com/Faultbox/midgard-anim/pkg/math"
)

func interpolation(i gltf.Interpolation) anim.Interpolation {
	switch i {
	case gltf.InterpolationStep:
		return anim.Constant
	case gltf.InterpolationCubicSpline:
		return anim.Cubic
	default:
		return anim.Linear
	}
}

func pathName(p gltf.TRSProperty) string {
	switch p {
	case gltf.TRSTranslation:
		return "translation"
	case gltf.TRSRotation:
		return "rotation"
	case gltf.TRSScale:
		return "scale"
	default:
		return "weights"
	}
}

// readClip converts one animation. Channels targeting nodes outside the
// skeleton, and morph weight channels, are ignored.
func readClip(doc *gltf.Document, sk *skeleton, a *gltf.Animation, n int) (*anim.Clip, error) {
	name := a.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", n)
	}
	clip := anim.NewClip(name)

	for c, ch := range a.Channels {
		if ch.Target.Path == gltf.TRSWeights {
			continue
		}
		node, ok := index(ch.Target.Node)
		if !ok {
			continue
		}
		joint, ok := sk.joints[node]
		if !ok {
			continue
		}

		s, _ := index(ch.Sampler)
		if s >= len(a.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d sampler %d: %w", name, c, s, ErrInvalidIndex)
		}
		jt := clip.Track(uint32(joint))
		if err := readChannel(doc, jt, ch.Target.Path, a.Samplers[s]); err != nil {
			return nil, fmt.Errorf("animation %q channel %d: %w", name, c, err)
		}
		if offset, ok := sk.offsets[joint]; ok {
			foldOffset(jt, ch.Target.Path, offset)
		}
	}

	clip.RecalculateDuration()
	return clip, nil
}

func readChannel(doc *gltf.Document, jt *anim.JointTrack, path gltf.TRSProperty, sampler *gltf.AnimationSampler) error {
	in, _ := index(sampler.Input)
	out, _ := index(sampler.Output)
	interp := interpolation(sampler.Interpolation)

	times, err := readScalars(doc, in)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	switch path {
	case gltf.TRSTranslation, gltf.TRSScale:
		values, err := readVectors(doc, out)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		tr, err := buildTrack(interp, times, convert(values, func(v math.Vec3) anim.Vector { return anim.Vector(v) }))
		if err != nil {
			return fmt.Errorf("%s: %w", pathName(path), err)
		}
		if path == gltf.TRSTranslation {
			jt.Position = tr
		} else {
			jt.Scale = tr
		}
	case gltf.TRSRotation:
		values, err := readRotations(doc, out)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		tr, err := buildTrack(interp, times, convert(values, func(q math.Quat) anim.Quaternion { return anim.Quaternion(q) }))
		if err != nil {
			return fmt.Errorf("%s: %w", pathName(path), err)
		}
		jt.Rotation = tr
	}
	return nil
}

// foldOffset moves one animated channel into the space of the joint's parent
// joint, so it agrees with the rest pose. Tangents get the linear part only.
func foldOffset(jt *anim.JointTrack, path gltf.TRSProperty, offset anim.Transform) {
	switch path {
	case gltf.TRSTranslation:
		mapFrames(&jt.Position, func(v anim.Vector) anim.Vector {
			return anim.Vector(offset.Position.Add(offset.Rotation.Rotate(offset.Scale.Mul(math.Vec3(v)))))
		}, func(v anim.Vector) anim.Vector {
			return anim.Vector(offset.Rotation.Rotate(offset.Scale.Mul(math.Vec3(v))))
		})
	case gltf.TRSRotation:
		rotate := func(q anim.Quaternion) anim.Quaternion {
			return anim.Quaternion(offset.Rotation.Mul(math.Quat(q)))
		}
		mapFrames(&jt.Rotation, rotate, rotate)
	case gltf.TRSScale:
		scale := func(v anim.Vector) anim.Vector {
			return anim.Vector(offset.Scale.Mul(math.Vec3(v)))
		}
		mapFrames(&jt.Scale, scale, scale)
	}
}

func mapFrames[T anim.Value[T]](tr *anim.Track[T], value, tangent func(T) T) {
	for i := range tr.Frames {
		f := &tr.Frames[i]
		f.Value = value(f.Value)
		f.In = tangent(f.In)
		f.Out = tangent(f.Out)
	}
}

// buildTrack pairs keyframe times with outputs. Cubic outputs come in
// (in-tangent, value, out-tangent) triplets.
func buildTrack[T anim.Value[T]](interp anim.Interpolation, times []float32, values []T) (anim.Track[T], error) {
	stride := 1
	if interp == anim.Cubic {
		stride = 3
	}
	if len(values) != len(times)*stride {
		return anim.Track[T]{}, fmt.Errorf("%d times, %d outputs for %s: %w", len(times), len(values), interp, ErrKeyframeCount)
	}

	tr := anim.Track[T]{Interpolation: interp, Frames: make([]anim.Frame[T], len(times))}
	for i, t := range times {
		f := &tr.Frames[i]
		f.Time = t
		if stride == 3 {
			f.In, f.Value, f.Out = values[3*i], values[3*i+1], values[3*i+2]
		} else {
			f.Value = values[i]
		}
	}
	if err := tr.Validate(); err != nil {
		return anim.Track[T]{}, err
	}
	return tr, nil
}

func convert[S, D any](src []S, fn func(S) D) []D {
	out := make([]D, len(src))
	for i, v := range src {
		out[i] = fn(v)
	}
	return out
}
