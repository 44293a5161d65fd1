// Package emath has float32 math helpers for shading stages.
package emath

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Some functions that only operate on basic types, that are useful in
// shading stages. Everything works in float32, like a fragment shader would.

// Rec. 709 luma weights, as used by the threshold extract.
var LuminanceWeights = mgl32.Vec3{0.2125, 0.7154, 0.0721}

// Luminance of a linear RGB(A) color; alpha is ignored.
func Luminance(c mgl32.Vec4) float32 {
	return c[0]*LuminanceWeights[0] + c[1]*LuminanceWeights[1] + c[2]*LuminanceWeights[2]
}

func Saturate(f float32) float32 {
	return Clamp(f, 0, 1)
}

func Clamp(f, min, max float32) float32 {
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}

// Step returns 0 if x < edge, else 1.
func Step(edge, x float32) float32 {
	if x < edge {
		return 0
	}
	return 1
}

// Smoothstep does Hermite interpolation between e0 and e1. When the edges
// collapse it degrades to Step(e1, x) instead of dividing by zero.
func Smoothstep(e0, e1, x float32) float32 {
	if e1 <= e0 {
		return Step(e1, x)
	}
	t := Saturate((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/ - "linear RGB to sRGB"
// Each channel in `v` is assumed to be in the range [0,1]
func GammaExpand_sRGB(v mgl32.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{
		GammaExpand_F32(v[0]),
		GammaExpand_F32(v[1]),
		GammaExpand_F32(v[2]),
		v[3],
	}
}

func GammaExpand_F32(f float32) float32 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math32.Pow(f, 1.0/2.4) - 0.055
}

// GammaCompress_F32 is the inverse of GammaExpand_F32 (sRGB -> linear).
func GammaCompress_F32(f float32) float32 {
	if f <= 0.04045 {
		return f / 12.92
	}
	return math32.Pow((f+0.055)/1.055, 2.4)
}
