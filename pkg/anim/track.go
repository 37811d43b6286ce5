package anim

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

// Track errors.
var (
	ErrUnsortedFrames = errors.New("keyframes not sorted by time")
)

// Interpolation selects how a track blends between keyframes.
type Interpolation int

const (
	Constant Interpolation = iota // Hold each key until the next one
	Linear                        // Lerp, or normalized lerp for rotations
	Cubic                         // Cubic Hermite using per-key tangents
)

// String returns a human-readable interpolation name.
func (i Interpolation) String() string {
	switch i {
	case Constant:
		return "Constant"
	case Linear:
		return "Linear"
	case Cubic:
		return "Cubic"
	default:
		return fmt.Sprintf("Unknown(%d)", int(i))
	}
}

// Frame is one keyframe. In and Out are the Hermite tangents, ignored unless
// the owning track is Cubic.
type Frame[T Value[T]] struct {
	Time  float32
	Value T
	In    T
	Out   T
}

// Track is a time-sorted sequence of keyframes for a single channel.
// A track needs two or more frames to be sampled; with fewer it yields T's zero value.
type Track[T Value[T]] struct {
	Interpolation Interpolation
	Frames        []Frame[T]
}

// Track instantiations used by joint tracks.
type (
	ScalarTrack     = Track[Scalar]
	VectorTrack     = Track[Vector]
	QuaternionTrack = Track[Quaternion]
)

// Len returns the number of keyframes.
func (tr *Track[T]) Len() int {
	return len(tr.Frames)
}

// StartTime returns the time of the first keyframe, or 0 for an empty track.
func (tr *Track[T]) StartTime() float32 {
	if len(tr.Frames) == 0 {
		return 0
	}
	return tr.Frames[0].Time
}

// EndTime returns the time of the last keyframe, or 0 for an empty track.
func (tr *Track[T]) EndTime() float32 {
	if len(tr.Frames) == 0 {
		return 0
	}
	return tr.Frames[len(tr.Frames)-1].Time
}

// Validate checks that keyframe times never decrease.
func (tr *Track[T]) Validate() error {
	for i := 1; i < len(tr.Frames); i++ {
		if tr.Frames[i].Time < tr.Frames[i-1].Time {
			return fmt.Errorf("frame %d at %gs precedes frame %d at %gs: %w",
				i, tr.Frames[i].Time, i-1, tr.Frames[i-1].Time, ErrUnsortedFrames)
		}
	}
	return nil
}

// Sample evaluates the track at time. Looping tracks wrap time into
// [start, end); other tracks clamp it to [start, end].
func (tr *Track[T]) Sample(time float32, looping bool) T {
	switch tr.Interpolation {
	case Constant:
		return tr.sampleConstant(time, looping)
	case Linear:
		return tr.sampleLinear(time, looping)
	case Cubic:
		return tr.sampleCubic(time, looping)
	}
	var zero T
	return zero
}

// FrameIndex returns the index i of the keyframe pair [i, i+1] bracketing time,
// or -1 when the track has fewer than two frames.
func (tr *Track[T]) FrameIndex(time float32, looping bool) int {
	n := len(tr.Frames)
	if n <= 1 {
		return -1
	}

	if looping {
		time = tr.wrap(time)
	} else {
		if time <= tr.Frames[0].Time {
			return 0
		}
		if time >= tr.Frames[n-2].Time {
			return n - 2
		}
	}

	i := tr.lastFrameAt(time)
	if i > n-2 {
		// Wrapped time can round up onto the final key.
		i = n - 2
	}
	return i
}

// AdjustTime maps time into the track's range: wrapped when looping,
// clamped to [start, end] otherwise. Tracks with fewer than two frames
// or no duration return 0.
func (tr *Track[T]) AdjustTime(time float32, looping bool) float32 {
	if len(tr.Frames) <= 1 {
		return 0
	}
	start, end := tr.StartTime(), tr.EndTime()
	if end-start <= 0 {
		return 0
	}
	if looping {
		return tr.wrap(time)
	}
	return clamp(time, start, end)
}

// wrap folds time into [start, end). The caller guarantees two or more frames.
func (tr *Track[T]) wrap(time float32) float32 {
	return wrapTime(time, tr.StartTime(), tr.EndTime())
}

// lastFrameAt scans backward for the last keyframe at or before time.
// Linear in the key count; baking pays this once per clip frame, not per instance.
func (tr *Track[T]) lastFrameAt(time float32) int {
	for i := len(tr.Frames) - 1; i >= 0; i-- {
		if time >= tr.Frames[i].Time {
			return i
		}
	}
	return -1
}

func (tr *Track[T]) sampleConstant(time float32, looping bool) T {
	var zero T
	if len(tr.Frames) < 2 {
		return zero
	}
	i := tr.lastFrameAt(tr.AdjustTime(time, looping))
	if i < 0 {
		i = 0
	}
	return tr.Frames[i].Value.normalized()
}

// bracket locates the interpolation interval for time and returns the
// interval's first key, its length and the normalized position inside it.
func (tr *Track[T]) bracket(time float32, looping bool) (i int, delta, t float32, ok bool) {
	i = tr.FrameIndex(time, looping)
	if i < 0 || i >= len(tr.Frames)-1 {
		return 0, 0, 0, false
	}
	delta = tr.Frames[i+1].Time - tr.Frames[i].Time
	if delta <= 0 {
		return 0, 0, 0, false
	}
	t = (tr.AdjustTime(time, looping) - tr.Frames[i].Time) / delta
	return i, delta, t, true
}

func (tr *Track[T]) sampleLinear(time float32, looping bool) T {
	i, _, t, ok := tr.bracket(time, looping)
	if !ok {
		var zero T
		return zero
	}
	a := tr.Frames[i].Value.normalized()
	b := tr.Frames[i+1].Value.normalized()
	return a.mix(b, t)
}

func (tr *Track[T]) sampleCubic(time float32, looping bool) T {
	i, delta, t, ok := tr.bracket(time, looping)
	if !ok {
		var zero T
		return zero
	}
	p1 := tr.Frames[i].Value.normalized()
	s1 := tr.Frames[i].Out.scale(delta)
	p2 := p1.neighbor(tr.Frames[i+1].Value.normalized())
	s2 := tr.Frames[i+1].In.scale(delta)
	return hermite(t, p1, s1, p2, s2)
}

// hermite evaluates the cubic Hermite spline through p1 and p2 with tangents s1 and s2.
func hermite[T Value[T]](t float32, p1, s1, p2, s2 T) T {
	tt := t * t
	ttt := tt * t

	h1 := 2*ttt - 3*tt + 1
	h2 := ttt - 2*tt + t
	h3 := -2*ttt + 3*tt
	h4 := ttt - tt

	return p1.scale(h1).
		add(s1.scale(h2)).
		add(p2.scale(h3)).
		add(s2.scale(h4)).
		normalized()
}

// wrapTime folds time into [start, end) with negative-wrap correction.
func wrapTime(time, start, end float32) float32 {
	duration := end - start
	if duration <= 0 {
		return start
	}
	time = math32.Mod(time-start, duration)
	if time < 0 {
		time += duration
	}
	return time + start
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
