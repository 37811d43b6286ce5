package model

import (
	"fmt"

	"github.com/Faultbox/midgard-anim/pkg/anim"
	"github.com/Faultbox/midgard-anim/pkg/math"
)

// Instance is one entity's playback state over a shared Model.
// It is not safe for concurrent use.
type Instance struct {
	model   *Model
	clip    string
	player  *anim.Player
	palette []math.Mat4
	skin    []math.Mat4
	invBind []math.Mat4
}

// Model returns the model this instance plays.
func (i *Instance) Model() *Model { return i.model }

// Clip returns the name of the playing clip.
func (i *Instance) Clip() string { return i.clip }

// Player exposes the playback cursor for speed and frame queries.
func (i *Instance) Player() *anim.Player { return i.player }

// SetClip restarts playback on another clip. The palette is primed with the
// clip's first frame; the current speed carries over.
func (i *Instance) SetClip(name string) error {
	baked := i.model.Baked(name)
	if baked == nil {
		return fmt.Errorf("model %q clip %q: %w", i.model.Name(), name, ErrUnknownClip)
	}

	speed := i.model.cfg.Speed
	if i.player != nil {
		speed = i.player.Speed()
	}
	i.player = anim.NewPlayer(baked,
		anim.WithSpeed(speed),
		anim.WithCatchUp(i.model.cfg.CatchUp))
	i.clip = name
	copy(i.palette, baked.PoseAt(0))
	return nil
}

// Update advances playback by dt seconds and reports whether the palette changed.
func (i *Instance) Update(dt float32) bool {
	return i.player.Update(dt, i.palette)
}

// Palette returns the current global joint matrices. The slice is reused by
// the next Update.
func (i *Instance) Palette() []math.Mat4 {
	return i.palette
}

// SkinningMatrices returns palette times inverse bind for each joint, ready
// for upload. The slice is reused by the next call.
func (i *Instance) SkinningMatrices() []math.Mat4 {
	i.skin = anim.SkinMatrices(i.skin, i.palette, i.invBind)
	return i.skin
}
