package assets

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-anim/internal/config"
	"github.com/Faultbox/midgard-anim/internal/engine/model"
)

// writeWave saves a one-joint document with a half-second translation clip.
func writeWave(t *testing.T, dir string) string {
	t.Helper()
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{{Name: "hand"}}

	times := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0, 0.5})
	moves := modeler.WriteAccessor(doc, gltf.TargetNone, [][3]float32{{0, 0, 0}, {0, 1, 0}})

	var a gltf.Animation
	require.NoError(t, json.Unmarshal([]byte(fmt.Sprintf(`{
		"name": "wave",
		"channels": [{"sampler": 0, "target": {"node": 0, "path": "translation"}}],
		"samplers": [{"input": %d, "output": %d}]
	}`, times, moves)), &a))
	doc.Animations = []*gltf.Animation{&a}

	path := filepath.Join(dir, "hand.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestManagerLoadCaches(t *testing.T) {
	path := writeWave(t, t.TempDir())
	m := NewManager(config.Default().Animation)
	defer m.Close()

	first, err := m.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hand", first.Name())
	assert.Equal(t, []string{"wave"}, first.ClipNames())
	assert.Equal(t, 120, first.Baked("wave").FrameCount())

	second, err := m.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)

	hits, misses := m.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestManagerConcurrentLoad(t *testing.T) {
	path := writeWave(t, t.TempDir())
	m := NewManager(config.Default().Animation)

	const loaders = 8
	models := make([]*model.Model, loaders)
	var wg sync.WaitGroup
	for i := range loaders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mdl, err := m.Load(path)
			assert.NoError(t, err)
			models[i] = mdl
		}()
	}
	wg.Wait()

	for _, mdl := range models {
		assert.Same(t, models[0], mdl)
	}
	assert.Equal(t, 1, m.cache.Len())
}

func TestManagerLoadMissing(t *testing.T) {
	m := NewManager(config.Default().Animation)
	_, err := m.Load(filepath.Join(t.TempDir(), "nope.glb"))
	assert.Error(t, err)
	assert.Equal(t, 0, m.cache.Len())
}

func TestManagerClose(t *testing.T) {
	path := writeWave(t, t.TempDir())
	m := NewManager(config.Default().Animation)
	_, err := m.Load(path)
	require.NoError(t, err)

	m.Close()
	assert.Equal(t, 0, m.cache.Len())
	hits, misses := m.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "knight", ModelName("/data/models/knight.glb"))
	assert.Equal(t, "walk.cycle", ModelName("walk.cycle.gltf"))
	assert.Equal(t, "plain", ModelName("plain"))
}
