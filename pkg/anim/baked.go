package anim

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-anim/pkg/math"
)

// Bake timing. Playback reads the step back from the baked table, so the two
// can never disagree.
const (
	FrameRate     = 240
	FrameTimeStep = float32(1.0 / FrameRate)
)

// frameCountSlack absorbs float32 noise in clip end times so a clip ending
// exactly on a frame boundary keeps that frame.
const frameCountSlack = 1e-4

// mat4Bytes is the size of one palette entry.
const mat4Bytes = 16 * 4

// Bake errors.
var (
	ErrZeroDuration = errors.New("clip duration shorter than one bake frame")
)

// BakedAnimation is a clip precomputed into one global matrix palette per
// FrameTimeStep. It is immutable and safe to share between goroutines.
type BakedAnimation struct {
	name     string
	start    float32
	duration float32
	joints   int
	poses    [][]math.Mat4
}

// FrameCount returns how many whole bake frames fit in duration.
func FrameCount(duration float32) int {
	if duration <= 0 {
		return 0
	}
	return int(math32.Floor(duration*FrameRate + frameCountSlack))
}

// frameTime returns frame f's offset from the clip start.
func frameTime(f int) float32 {
	return float32(f) / FrameRate
}

// Bake samples clip against armature's rest pose once per frame, starting at
// the clip's start time, and stores the resulting global matrices. Sampling happens FrameCount times in total,
// independent of how many instances later play the result.
func Bake(clip *Clip, armature *Armature) (*BakedAnimation, error) {
	joints := armature.JointCount()
	if err := clip.Validate(joints); err != nil {
		return nil, err
	}
	frames := FrameCount(clip.Duration())
	if frames == 0 {
		return nil, fmt.Errorf("clip %q lasts %gs: %w", clip.Name(), clip.Duration(), ErrZeroDuration)
	}

	backing := make([]math.Mat4, frames*joints)
	poses := make([][]math.Mat4, frames)

	rest := armature.restPose()
	pose := rest.Clone()
	for f := range frames {
		pose.CopyFrom(rest)
		clip.Sample(&pose, clip.StartTime()+frameTime(f))
		lo, hi := f*joints, (f+1)*joints
		poses[f] = pose.JointMatrices(backing[lo:hi:hi])
	}

	return &BakedAnimation{
		name:     clip.Name(),
		start:    clip.StartTime(),
		duration: clip.Duration(),
		joints:   joints,
		poses:    poses,
	}, nil
}

// Name returns the source clip's name.
func (b *BakedAnimation) Name() string { return b.name }

// Duration returns the source clip's duration in seconds.
func (b *BakedAnimation) Duration() float32 { return b.duration }

// JointCount returns the palette length of every frame.
func (b *BakedAnimation) JointCount() int { return b.joints }

// FrameCount returns the number of baked frames.
func (b *BakedAnimation) FrameCount() int { return len(b.poses) }

// FrameTimeStep returns the time between baked frames.
func (b *BakedAnimation) FrameTimeStep() float32 { return FrameTimeStep }

// FrameTime returns the clip time frame i was sampled at.
func (b *BakedAnimation) FrameTime(i int) float32 { return b.start + frameTime(i) }

// PoseAt returns frame i's palette, or nil when i is out of range.
// The slice is shared; callers must copy before modifying it.
func (b *BakedAnimation) PoseAt(i int) []math.Mat4 {
	if i < 0 || i >= len(b.poses) {
		return nil
	}
	return b.poses[i]
}

// MemoryFootprint returns the bytes held by the baked palettes.
func (b *BakedAnimation) MemoryFootprint() int {
	return len(b.poses) * b.joints * mat4Bytes
}
