package anim

import (
	"fmt"

	"github.com/Faultbox/midgard-anim/pkg/math"
)

// JointTrack holds the translation, rotation and scale channels animating one joint.
// A channel is active when its track has more than one keyframe.
type JointTrack struct {
	JointID  uint32
	Position VectorTrack
	Rotation QuaternionTrack
	Scale    VectorTrack
}

// IsValid reports whether any channel is active.
func (jt *JointTrack) IsValid() bool {
	return jt.Position.Len() > 1 || jt.Rotation.Len() > 1 || jt.Scale.Len() > 1
}

// StartTime returns the earliest start time over the active channels.
func (jt *JointTrack) StartTime() float32 {
	start, _ := jt.timeRange()
	return start
}

// EndTime returns the latest end time over the active channels.
func (jt *JointTrack) EndTime() float32 {
	_, end := jt.timeRange()
	return end
}

func (jt *JointTrack) timeRange() (start, end float32) {
	found := false
	include := func(s, e float32) {
		if !found {
			start, end, found = s, e, true
			return
		}
		start = min(start, s)
		end = max(end, e)
	}
	if jt.Position.Len() > 1 {
		include(jt.Position.StartTime(), jt.Position.EndTime())
	}
	if jt.Rotation.Len() > 1 {
		include(jt.Rotation.StartTime(), jt.Rotation.EndTime())
	}
	if jt.Scale.Len() > 1 {
		include(jt.Scale.StartTime(), jt.Scale.EndTime())
	}
	return start, end
}

// Sample returns ref with every active channel replaced by its value at time.
// Inactive channels keep ref's value, so a clip can animate only part of a joint.
func (jt *JointTrack) Sample(ref Transform, time float32, looping bool) Transform {
	result := ref
	if jt.Position.Len() > 1 {
		result.Position = math.Vec3(jt.Position.Sample(time, looping))
	}
	if jt.Rotation.Len() > 1 {
		result.Rotation = math.Quat(jt.Rotation.Sample(time, looping))
	}
	if jt.Scale.Len() > 1 {
		result.Scale = math.Vec3(jt.Scale.Sample(time, looping))
	}
	return result
}

// Validate checks keyframe ordering on every channel.
func (jt *JointTrack) Validate() error {
	if err := jt.Position.Validate(); err != nil {
		return fmt.Errorf("joint %d position: %w", jt.JointID, err)
	}
	if err := jt.Rotation.Validate(); err != nil {
		return fmt.Errorf("joint %d rotation: %w", jt.JointID, err)
	}
	if err := jt.Scale.Validate(); err != nil {
		return fmt.Errorf("joint %d scale: %w", jt.JointID, err)
	}
	return nil
}
