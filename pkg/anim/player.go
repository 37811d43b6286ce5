package anim

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-anim/pkg/math"
)

// Player is a per-instance playback cursor over one shared BakedAnimation.
// It owns only its cursor; switching clips means building a new Player.
// A Player is not safe for concurrent use.
type Player struct {
	baked    *BakedAnimation
	playback float32
	speed    float32
	frame    int
	catchUp  bool
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithSpeed sets the playback speed multiplier.
func WithSpeed(speed float32) PlayerOption {
	return func(p *Player) { p.SetSpeed(speed) }
}

// WithCatchUp selects what happens when more than one frame step elapses
// between updates. With catch-up the player skips the missed frames and keeps
// the remainder, staying in sync with wall-clock time. Without it the player
// advances a single frame per update and drops the excess, which plays in slow
// motion under long frame times.
func WithCatchUp(enabled bool) PlayerOption {
	return func(p *Player) { p.catchUp = enabled }
}

// NewPlayer returns a player at frame 0, speed 1, with catch-up enabled.
func NewPlayer(baked *BakedAnimation, opts ...PlayerOption) *Player {
	p := &Player{
		baked:   baked,
		speed:   1,
		catchUp: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Baked returns the animation being played.
func (p *Player) Baked() *BakedAnimation { return p.baked }

// Speed returns the playback speed multiplier.
func (p *Player) Speed() float32 { return p.speed }

// SetSpeed sets the playback speed multiplier. Negative speeds pause.
func (p *Player) SetSpeed(speed float32) {
	p.speed = max(speed, 0)
}

// FrameIndex returns the frame the next emitted palette will come from.
func (p *Player) FrameIndex() int { return p.frame }

// Reset rewinds to frame 0 and clears accumulated time.
func (p *Player) Reset() {
	p.frame = 0
	p.playback = 0
}

// Update advances playback by dt seconds of wall-clock time. When at least one
// frame step has accumulated it copies the due frame's palette into out and
// reports true; otherwise out is untouched. Frames wrap to 0 after the last.
// Negative or non-finite advances are ignored.
func (p *Player) Update(dt float32, out []math.Mat4) bool {
	frames := p.baked.FrameCount()
	if frames == 0 {
		return false
	}

	advance := dt * p.speed
	if advance <= 0 || math32.IsNaN(advance) || math32.IsInf(advance, 0) {
		return false
	}

	step := p.baked.FrameTimeStep()
	p.playback += advance
	if p.playback < step {
		return false
	}

	if p.catchUp {
		// Whole loops past the first land on the same frame.
		if loop := step * float32(frames); p.playback >= 2*loop {
			p.playback = loop + math32.Mod(p.playback, loop)
		}
		due := int(p.playback / step)
		p.playback -= float32(due) * step
		p.frame = (p.frame + due - 1) % frames
	} else {
		p.playback = 0
	}

	copy(out, p.baked.PoseAt(p.frame))
	p.frame = (p.frame + 1) % frames
	return true
}
