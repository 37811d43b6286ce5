// Package model ties an armature to its baked clips and hands out
// per-entity animation instances.
package model

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-anim/internal/config"
	"github.com/Faultbox/midgard-anim/internal/logger"
	"github.com/Faultbox/midgard-anim/pkg/anim"
	"github.com/Faultbox/midgard-anim/pkg/math"
)

// Model errors.
var (
	ErrUnknownClip   = errors.New("unknown clip")
	ErrDuplicateClip = errors.New("duplicate clip name")
)

// Model is a loaded, fully baked animated asset. It is immutable after New
// and may be shared by any number of instances and goroutines.
type Model struct {
	name     string
	armature *anim.Armature
	clips    map[string]*anim.Clip
	baked    map[string]*anim.BakedAnimation
	order    []string
	cfg      config.AnimationConfig
}

// New bakes every clip against armature. Bakes run in parallel, bounded by
// cfg.BakeWorkers; any failing clip fails the whole model.
func New(name string, armature *anim.Armature, clips []*anim.Clip, cfg config.AnimationConfig) (*Model, error) {
	m := &Model{
		name:     name,
		armature: armature,
		clips:    make(map[string]*anim.Clip, len(clips)),
		baked:    make(map[string]*anim.BakedAnimation, len(clips)),
		cfg:      cfg,
	}
	for _, c := range clips {
		if _, ok := m.clips[c.Name()]; ok {
			return nil, fmt.Errorf("model %q clip %q: %w", name, c.Name(), ErrDuplicateClip)
		}
		m.clips[c.Name()] = c
		m.order = append(m.order, c.Name())
	}

	log := logger.Named("model").With(zap.String("model", name))
	start := time.Now()

	results := make([]*anim.BakedAnimation, len(clips))
	var g errgroup.Group
	g.SetLimit(bakeWorkers(cfg.BakeWorkers))
	for i, c := range clips {
		g.Go(func() error {
			b, err := anim.Bake(c, armature)
			if err != nil {
				return fmt.Errorf("model %q: baking clip %q: %w", name, c.Name(), err)
			}
			results[i] = b
			log.Debug("baked clip",
				zap.String("clip", c.Name()),
				zap.Int("frames", b.FrameCount()),
				zap.Int("bytes", b.MemoryFootprint()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, b := range results {
		m.baked[b.Name()] = b
		total += b.MemoryFootprint()
	}
	log.Info("model ready",
		zap.Int("joints", armature.JointCount()),
		zap.Int("clips", len(clips)),
		zap.Int("bytes", total),
		zap.Duration("bake", time.Since(start)))
	return m, nil
}

func bakeWorkers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Armature returns the shared skeleton.
func (m *Model) Armature() *anim.Armature { return m.armature }

// ClipNames returns clip names in load order.
func (m *Model) ClipNames() []string { return slices.Clone(m.order) }

// Clip returns the source clip called name, or nil.
func (m *Model) Clip(name string) *anim.Clip { return m.clips[name] }

// Baked returns the baked table for clip name, or nil.
func (m *Model) Baked(name string) *anim.BakedAnimation { return m.baked[name] }

// MemoryFootprint returns the bytes held by all baked tables.
func (m *Model) MemoryFootprint() int {
	total := 0
	for _, b := range m.baked {
		total += b.MemoryFootprint()
	}
	return total
}

// NewInstance returns an instance playing clip, configured from the model's
// animation settings.
func (m *Model) NewInstance(clip string) (*Instance, error) {
	inst := &Instance{
		model:   m,
		palette: make([]math.Mat4, m.armature.JointCount()),
		invBind: m.armature.InvBindPose(),
	}
	if err := inst.SetClip(clip); err != nil {
		return nil, err
	}
	return inst, nil
}
