package loader

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/midgard-anim/pkg/math"
)

func readAccessor(doc *gltf.Document, acc int) (any, error) {
	if acc < 0 || acc >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d of %d: %w", acc, len(doc.Accessors), ErrInvalidIndex)
	}
	data, err := modeler.ReadAccessor(doc, doc.Accessors[acc], nil)
	if err != nil {
		return nil, fmt.Errorf("accessor %d: %w", acc, err)
	}
	return data, nil
}

func unsupported(acc int, data any) error {
	return fmt.Errorf("accessor %d holds %T: %w", acc, data, ErrUnsupportedAccessor)
}

// readScalars reads keyframe times.
func readScalars(doc *gltf.Document, acc int) ([]float32, error) {
	data, err := readAccessor(doc, acc)
	if err != nil {
		return nil, err
	}
	v, ok := data.([]float32)
	if !ok {
		return nil, unsupported(acc, data)
	}
	return v, nil
}

// readVectors reads translation or scale outputs.
func readVectors(doc *gltf.Document, acc int) ([]math.Vec3, error) {
	data, err := readAccessor(doc, acc)
	if err != nil {
		return nil, err
	}
	v, ok := data.([][3]float32)
	if !ok {
		return nil, unsupported(acc, data)
	}
	out := make([]math.Vec3, len(v))
	for i, a := range v {
		out[i] = math.Vec3FromArray(a)
	}
	return out, nil
}

// readRotations reads rotation outputs, including normalized integer encodings.
func readRotations(doc *gltf.Document, acc int) ([]math.Quat, error) {
	data, err := readAccessor(doc, acc)
	if err != nil {
		return nil, err
	}
	switch v := data.(type) {
	case [][4]float32:
		return quats(v, func(c float32) float32 { return c }), nil
	case [][4]int8:
		return quats(v, func(c int8) float32 { return max(float32(c)/127, -1) }), nil
	case [][4]uint8:
		return quats(v, func(c uint8) float32 { return float32(c) / 255 }), nil
	case [][4]int16:
		return quats(v, func(c int16) float32 { return max(float32(c)/32767, -1) }), nil
	case [][4]uint16:
		return quats(v, func(c uint16) float32 { return float32(c) / 65535 }), nil
	}
	return nil, unsupported(acc, data)
}

func quats[C any](v [][4]C, norm func(C) float32) []math.Quat {
	out := make([]math.Quat, len(v))
	for i, a := range v {
		out[i] = math.Quat{X: norm(a[0]), Y: norm(a[1]), Z: norm(a[2]), W: norm(a[3])}
	}
	return out
}

// readMatrices reads column-major 4x4 matrices.
func readMatrices(doc *gltf.Document, acc int) ([]math.Mat4, error) {
	data, err := readAccessor(doc, acc)
	if err != nil {
		return nil, err
	}
	v, ok := data.([][4][4]float32)
	if !ok {
		return nil, unsupported(acc, data)
	}
	out := make([]math.Mat4, len(v))
	for i, cols := range v {
		for c := range 4 {
			copy(out[i][c*4:c*4+4], cols[c][:])
		}
	}
	return out, nil
}
