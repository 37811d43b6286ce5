package anim

import (
	"errors"
	"fmt"
)

// Clip errors.
var (
	ErrJointOutOfRange = errors.New("joint id out of range")
	ErrEmptyClip       = errors.New("clip has no animated channels")
)

// Clip is a named set of joint tracks played over [StartTime, EndTime].
// Tracks are sparse: joints without a track keep whatever the pose holds.
type Clip struct {
	name    string
	tracks  []JointTrack
	start   float32
	end     float32
	looping bool
}

// NewClip returns an empty looping clip.
func NewClip(name string) *Clip {
	return &Clip{name: name, looping: true}
}

// Name returns the clip name.
func (c *Clip) Name() string { return c.name }

// SetName renames the clip.
func (c *Clip) SetName(name string) { c.name = name }

// Looping reports whether sampling wraps past the end.
func (c *Clip) Looping() bool { return c.looping }

// SetLooping selects wrap (true) or clamp (false) time handling.
func (c *Clip) SetLooping(looping bool) { c.looping = looping }

// StartTime returns the start computed by the last RecalculateDuration.
func (c *Clip) StartTime() float32 { return c.start }

// EndTime returns the end computed by the last RecalculateDuration.
func (c *Clip) EndTime() float32 { return c.end }

// Duration returns EndTime - StartTime.
func (c *Clip) Duration() float32 { return c.end - c.start }

// Len returns the number of joint tracks.
func (c *Clip) Len() int { return len(c.tracks) }

// JointID returns the joint animated by track i.
func (c *Clip) JointID(i int) uint32 { return c.tracks[i].JointID }

// SetJointID retargets track i to another joint.
func (c *Clip) SetJointID(i int, joint uint32) { c.tracks[i].JointID = joint }

// TrackAt returns track i.
func (c *Clip) TrackAt(i int) *JointTrack { return &c.tracks[i] }

// Track returns the track for joint, appending an empty one on first access.
// The returned pointer is invalidated by the next append.
func (c *Clip) Track(joint uint32) *JointTrack {
	for i := range c.tracks {
		if c.tracks[i].JointID == joint {
			return &c.tracks[i]
		}
	}
	c.tracks = append(c.tracks, JointTrack{JointID: joint})
	return &c.tracks[len(c.tracks)-1]
}

// RecalculateDuration rescans every valid track for the clip's time range.
// It must run after the tracks are filled in; until then the duration is stale.
func (c *Clip) RecalculateDuration() {
	c.start, c.end = 0, 0
	found := false
	for i := range c.tracks {
		jt := &c.tracks[i]
		if !jt.IsValid() {
			continue
		}
		start, end := jt.StartTime(), jt.EndTime()
		if !found {
			c.start, c.end, found = start, end, true
			continue
		}
		c.start = min(c.start, start)
		c.end = max(c.end, end)
	}
}

// AdjustTime maps time into the clip range: wrapped when looping,
// clamped to [start, end] otherwise. A clip without duration returns 0.
func (c *Clip) AdjustTime(time float32) float32 {
	if c.Duration() <= 0 {
		return 0
	}
	if c.looping {
		return wrapTime(time, c.start, c.end)
	}
	return clamp(time, c.start, c.end)
}

// Sample poses out at time and returns the adjusted time that was sampled.
// Each track starts from out's current local transform for its joint, so
// un-animated channels keep their values. Tracks targeting joints beyond the
// pose are skipped. Sample does not allocate.
func (c *Clip) Sample(out *Pose, time float32) float32 {
	if c.Duration() == 0 {
		return 0
	}
	time = c.AdjustTime(time)
	for i := range c.tracks {
		jt := &c.tracks[i]
		joint := int(jt.JointID)
		if joint >= out.Len() {
			continue
		}
		out.SetLocalTransform(joint, jt.Sample(out.LocalTransform(joint), time, c.looping))
	}
	return time
}

// Validate checks the clip against a skeleton of jointCount joints.
// Failing clips must be rejected at load time rather than sampled.
func (c *Clip) Validate(jointCount int) error {
	valid := false
	for i := range c.tracks {
		jt := &c.tracks[i]
		if int(jt.JointID) >= jointCount {
			return fmt.Errorf("clip %q: joint %d of %d: %w", c.name, jt.JointID, jointCount, ErrJointOutOfRange)
		}
		if err := jt.Validate(); err != nil {
			return fmt.Errorf("clip %q: %w", c.name, err)
		}
		valid = valid || jt.IsValid()
	}
	if !valid {
		return fmt.Errorf("clip %q: %w", c.name, ErrEmptyClip)
	}
	return nil
}
