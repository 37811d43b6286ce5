package anim

import "github.com/Faultbox/midgard-anim/pkg/math"

// SkinMatrices multiplies each global joint matrix by its inverse bind matrix,
// producing the matrices a skinning shader consumes. out is grown if needed.
func SkinMatrices(out, palette, invBind []math.Mat4) []math.Mat4 {
	n := min(len(palette), len(invBind))
	if cap(out) < n {
		out = make([]math.Mat4, n)
	}
	out = out[:n]
	for j := range n {
		out[j] = palette[j].Mul(invBind[j])
	}
	return out
}
