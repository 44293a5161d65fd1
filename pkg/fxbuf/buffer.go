package fxbuf

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/chewxy/math32"
	"github.com/fogleman/gg"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mdouchement/hdr/hdrcolor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/abworrall/eclipse-postfx/pkg/emath"
)

// A Buffer is a grid of linear RGBA float32 pixels. It plays the part of a
// render texture: passes blit into it, and shading stages sample from it.
//
// Buffer implements image.Image and hdr.Image, so it can be handed straight to
// the encoders and tone mapping operators from github.com/mdouchement/hdr.
type Buffer struct {
	desc   Descriptor
	stride int
	values []float32 // 4 floats per pixel, rows top to bottom
}

func NewBuffer(desc Descriptor) (*Buffer, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &Buffer{
		desc:   desc,
		stride: desc.Width,
		values: make([]float32, 4*desc.Width*desc.Height),
	}, nil
}

// NewBufferSize allocates an RGBA32F buffer; sizes below 1 are raised to 1.
func NewBufferSize(w, h int) *Buffer {
	b, _ := NewBuffer(NewDescriptor(max(w, 1), max(h, 1)))
	return b
}

func (b *Buffer) Descriptor() Descriptor { return b.desc }
func (b *Buffer) Format() Format         { return b.desc.Format }
func (b *Buffer) Dx() int                { return b.stride }
func (b *Buffer) Dy() int                { return len(b.values) / 4 / b.stride }

// TexelSize is (1/w, 1/h, w, h), the shape shaders expect.
func (b *Buffer) TexelSize() mgl32.Vec4 {
	w, h := float32(b.Dx()), float32(b.Dy())
	return mgl32.Vec4{1 / w, 1 / h, w, h}
}

func (b *Buffer) Get(x, y int) mgl32.Vec4 {
	i := 4 * (b.stride*y + x)
	return mgl32.Vec4{b.values[i], b.values[i+1], b.values[i+2], b.values[i+3]}
}

// Set stores a pixel, quantized to what the buffer's format can hold.
func (b *Buffer) Set(x, y int, v mgl32.Vec4) {
	info := b.desc.Format.Info()
	if !info.HasAlpha {
		v[3] = 1
	}
	if !info.HDR || b.desc.Format == FormatR11G11B10F {
		// Unsigned formats
		for c := 0; c < 4; c++ {
			if v[c] < 0 || v[c] != v[c] {
				v[c] = 0
			}
		}
	}
	for c := 0; c < 4; c++ {
		if v[c] > info.MaxValue {
			v[c] = info.MaxValue
		}
	}

	i := 4 * (b.stride*y + x)
	b.values[i], b.values[i+1], b.values[i+2], b.values[i+3] = v[0], v[1], v[2], v[3]
}

func (b *Buffer) Fill(v mgl32.Vec4) {
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			b.Set(x, y, v)
		}
	}
}

func (b *Buffer) Clear() {
	for i := range b.values {
		b.values[i] = 0
	}
}

func (b *Buffer) Copy() *Buffer {
	b2 := Buffer{desc: b.desc, stride: b.stride, values: make([]float32, len(b.values))}
	copy(b2.values, b.values)
	return &b2
}

// CopyFrom is an exact texel copy; both buffers must be the same size.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if !b.desc.SameSize(src.desc) {
		return fmt.Errorf("copy %dx%d into %dx%d: size mismatch", src.Dx(), src.Dy(), b.Dx(), b.Dy())
	}
	if b.desc.Format == src.desc.Format {
		copy(b.values, src.values)
		return nil
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			b.Set(x, y, src.Get(x, y))
		}
	}
	return nil
}

// Sample does a bilinear lookup at normalized coords (u,v), with (0,0) the
// top left corner of the image, clamping to the edge texels.
func (b *Buffer) Sample(u, v float32) mgl32.Vec4 {
	w, h := b.Dx(), b.Dy()

	px := u*float32(w) - 0.5
	py := v*float32(h) - 0.5
	fx0 := math32.Floor(px)
	fy0 := math32.Floor(py)
	tx := px - fx0
	ty := py - fy0

	x0 := clampIndex(int(fx0), w)
	x1 := clampIndex(int(fx0)+1, w)
	y0 := clampIndex(int(fy0), h)
	y1 := clampIndex(int(fy0)+1, h)

	c00, c10 := b.Get(x0, y0), b.Get(x1, y0)
	c01, c11 := b.Get(x0, y1), b.Get(x1, y1)

	top := c00.Mul(1 - tx).Add(c10.Mul(tx))
	bot := c01.Mul(1 - tx).Add(c11.Mul(tx))
	return top.Mul(1 - ty).Add(bot.Mul(ty))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Implement image.Image
func (b *Buffer) ColorModel() color.Model { return hdrcolor.RGBModel }
func (b *Buffer) Bounds() image.Rectangle { return image.Rect(0, 0, b.Dx(), b.Dy()) }
func (b *Buffer) At(x, y int) color.Color { return b.HDRAt(x, y) }

// Implement hdr.Image
func (b *Buffer) HDRAt(x, y int) hdrcolor.Color {
	if !(image.Point{x, y}.In(b.Bounds())) {
		return hdrcolor.RGB{}
	}
	v := b.Get(x, y)
	return hdrcolor.RGB{R: float64(v[0]), G: float64(v[1]), B: float64(v[2])}
}
func (b *Buffer) Size() int { return b.Dx() * b.Dy() }

// Luminances returns the per-pixel luminance, row by row.
func (b *Buffer) Luminances() []float64 {
	lums := make([]float64, 0, b.Size())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			lums = append(lums, float64(emath.Luminance(b.Get(x, y))))
		}
	}
	return lums
}

// Stats summarizes the luminance of a buffer.
type Stats struct {
	Min, Max, Mean, StdDev, Median float64
}

func (s Stats) String() string {
	return fmt.Sprintf("lum{min %f, max %f, mean %f, sd %f, median %f}", s.Min, s.Max, s.Mean, s.StdDev, s.Median)
}

func (b *Buffer) Stats() Stats {
	lums := b.Luminances()
	s := Stats{Min: floats.Min(lums), Max: floats.Max(lums)}
	s.Mean, s.StdDev = stat.MeanStdDev(lums, nil)
	sort.Float64s(lums)
	s.Median = stat.Quantile(0.5, stat.Empirical, lums, nil)
	return s
}

func (b *Buffer) String() string {
	return fmt.Sprintf("buf[%s, %s]", b.desc, b.Stats())
}

// ToLDR maps the buffer onto 16 bit sRGB, clipping at 1.0. No tone mapping
// happens here; run a tonemap pass first if the buffer holds HDR values.
func (b *Buffer) ToLDR() *image.RGBA64 {
	img := image.NewRGBA64(b.Bounds())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := b.Get(x, y)
			for c := 0; c < 4; c++ {
				v[c] = emath.Saturate(v[c])
			}
			v = emath.GammaExpand_sRGB(v)
			img.SetRGBA64(x, y, color.RGBA64{
				uint16(v[0] * 0xFFFF),
				uint16(v[1] * 0xFFFF),
				uint16(v[2] * 0xFFFF),
				uint16(v[3] * 0xFFFF),
			})
		}
	}
	return img
}

// ToImg saves a debug view of the buffer with a caption. Values are
// normalized by the brightest pixel so that dim pyramid levels stay visible.
func (b *Buffer) ToImg(title, filename string) error {
	scale := float32(1)
	if m := b.Stats().Max; m > 1 {
		scale = float32(1 / m)
	}

	view := b.Copy()
	for y := 0; y < view.Dy(); y++ {
		for x := 0; x < view.Dx(); x++ {
			v := view.Get(x, y)
			view.values[4*(view.stride*y+x)+0] = v[0] * scale
			view.values[4*(view.stride*y+x)+1] = v[1] * scale
			view.values[4*(view.stride*y+x)+2] = v[2] * scale
			view.values[4*(view.stride*y+x)+3] = 1
		}
	}

	dc := gg.NewContextForImage(view.ToLDR())
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 4, 14)
	return dc.SavePNG(filename)
}
