package bloom

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/abworrall/eclipse-postfx/pkg/blit"
	"github.com/abworrall/eclipse-postfx/pkg/emath"
)

const MaterialName = "Custom/PP_Bloom"

// Stage indexes into the bloom material.
const (
	StageExtract = iota
	StageDownsample
	StageUpsample
	StageComposite
)

// Material property names.
const (
	PropBlurIntensity      = "_BlurIntensity"
	PropLuminanceThreshold = "_LuminanceThreshold"
	PropBloomColor         = "_BloomColor"
	PropBloomIntensity     = "_BloomIntensity"
)

// extract keeps the part of the image brighter than the threshold, scaled
// by how far over it is.
func extract(f *blit.Fragment) mgl32.Vec4 {
	c := f.Sample(f.UV)
	k := emath.Saturate(emath.Luminance(c) - f.Material.Float(PropLuminanceThreshold))
	return c.Mul(k)
}

// halfPixel is the dual Kawase sample offset, in uv units of the source.
func halfPixel(f *blit.Fragment) mgl32.Vec2 {
	s := 0.5 * f.Material.Float(PropBlurIntensity)
	return mgl32.Vec2{f.MainTexTexelSize[0] * s, f.MainTexTexelSize[1] * s}
}

// downsample is the 5 tap dual Kawase filter: the center, weighted 4, plus
// the four diagonals.
func downsample(f *blit.Fragment) mgl32.Vec4 {
	uv, hp := f.UV, halfPixel(f)

	sum := f.Sample(uv).Mul(4)
	sum = sum.Add(f.Sample(uv.Sub(hp)))
	sum = sum.Add(f.Sample(uv.Add(hp)))
	sum = sum.Add(f.Sample(mgl32.Vec2{uv[0] + hp[0], uv[1] - hp[1]}))
	sum = sum.Add(f.Sample(mgl32.Vec2{uv[0] - hp[0], uv[1] + hp[1]}))
	return sum.Mul(1.0 / 8)
}

// upsample is the 8 tap dual Kawase filter: four axis taps at twice the
// offset, weighted 1, and four diagonals weighted 2.
func upsample(f *blit.Fragment) mgl32.Vec4 {
	uv, hp := f.UV, halfPixel(f)
	tap := func(dx, dy float32) mgl32.Vec4 {
		return f.Sample(mgl32.Vec2{uv[0] + dx*hp[0], uv[1] + dy*hp[1]})
	}

	sum := tap(-2, 0)
	sum = sum.Add(tap(2, 0))
	sum = sum.Add(tap(0, -2))
	sum = sum.Add(tap(0, 2))
	sum = sum.Add(tap(-1, 1).Mul(2))
	sum = sum.Add(tap(1, 1).Mul(2))
	sum = sum.Add(tap(1, -1).Mul(2))
	sum = sum.Add(tap(-1, -1).Mul(2))
	return sum.Mul(1.0 / 12)
}

// composite adds the tinted blur back onto the captured source frame.
func composite(f *blit.Fragment) mgl32.Vec4 {
	src := f.SampleTarget(SourceTarget, f.UV)
	glow := f.Sample(f.UV)
	tint := f.Material.Vector(PropBloomColor).Mul(f.Material.Float(PropBloomIntensity))

	return mgl32.Vec4{
		src[0] + glow[0]*tint[0],
		src[1] + glow[1]*tint[1],
		src[2] + glow[2]*tint[2],
		src[3],
	}
}

// NewMaterial builds the bloom material with its parameters bound. color is
// linear RGB.
func NewMaterial(s Settings, color mgl32.Vec4) *blit.Material {
	mat := blit.NewMaterial(MaterialName,
		blit.Stage{Name: "extract", Shade: extract},
		blit.Stage{Name: "kawase-down", Shade: downsample},
		blit.Stage{Name: "kawase-up", Shade: upsample},
		blit.Stage{Name: "composite", Shade: composite},
	)

	mat.SetFloat(PropBlurIntensity, s.BlurIntensity)
	mat.SetFloat(PropLuminanceThreshold, s.LuminanceThreshold)
	mat.SetVector(PropBloomColor, color)
	mat.SetFloat(PropBloomIntensity, s.BloomIntensity)

	return mat
}
