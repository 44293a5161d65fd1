package fxbuf

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func vecNear(a, b mgl32.Vec4, eps float32) bool {
	for i := 0; i < 4; i++ {
		d := a[i] - b[i]
		if d < -eps || d > eps {
			return false
		}
	}
	return true
}

func TestBufferSetQuantizesByFormat(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		in     mgl32.Vec4
		want   mgl32.Vec4
	}{
		{"float keeps HDR and negatives", FormatRGBA32F, mgl32.Vec4{4, -1, 0.5, 0.25}, mgl32.Vec4{4, -1, 0.5, 0.25}},
		{"half clips at 65504", FormatRGBA16F, mgl32.Vec4{1e6, 1, 1, 1}, mgl32.Vec4{65504, 1, 1, 1}},
		{"packed float has no alpha or negatives", FormatR11G11B10F, mgl32.Vec4{2, -1, 0, 0.3}, mgl32.Vec4{2, 0, 0, 1}},
		{"ldr clamps", FormatRGBA8, mgl32.Vec4{2, -1, 0.5, 1}, mgl32.Vec4{1, 0, 0.5, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBuffer(Descriptor{Width: 2, Height: 2, Format: tt.format})
			if err != nil {
				t.Fatal(err)
			}
			b.Set(1, 1, tt.in)
			if got := b.Get(1, 1); got != tt.want {
				t.Errorf("Get = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBufferSampleBilinear(t *testing.T) {
	b := NewBufferSize(2, 1)
	b.Set(0, 0, mgl32.Vec4{0, 0, 0, 1})
	b.Set(1, 0, mgl32.Vec4{1, 1, 1, 1})

	tests := []struct {
		name string
		u    float32
		want float32
	}{
		{"left texel center", 0.25, 0},
		{"right texel center", 0.75, 1},
		{"halfway", 0.5, 0.5},
		{"clamped left edge", 0, 0},
		{"clamped right edge", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.Sample(tt.u, 0.5)
			if !vecNear(got, mgl32.Vec4{tt.want, tt.want, tt.want, 1}, 1e-6) {
				t.Errorf("Sample(%v) = %v, want %v", tt.u, got, tt.want)
			}
		})
	}
}

func TestBufferCopyFrom(t *testing.T) {
	src := NewBufferSize(3, 2)
	src.Fill(mgl32.Vec4{0.1, 0.2, 0.3, 1})

	dst := NewBufferSize(3, 2)
	if err := dst.CopyFrom(src); err != nil {
		t.Fatal(err)
	}
	if got := dst.Get(2, 1); got != src.Get(2, 1) {
		t.Errorf("copied pixel = %v, want %v", got, src.Get(2, 1))
	}

	if err := NewBufferSize(2, 2).CopyFrom(src); err == nil {
		t.Error("CopyFrom with mismatched size succeeded, want error")
	}
}

func TestBufferHDRImage(t *testing.T) {
	b := NewBufferSize(4, 3)
	b.Set(3, 2, mgl32.Vec4{8, 4, 2, 1})

	if b.Size() != 12 {
		t.Errorf("Size() = %d, want 12", b.Size())
	}
	r, g, bl, _ := b.HDRAt(3, 2).HDRRGBA()
	if r != 8 || g != 4 || bl != 2 {
		t.Errorf("HDRAt = (%v, %v, %v), want (8, 4, 2)", r, g, bl)
	}
	r, _, _, _ = b.HDRAt(10, 10).HDRRGBA()
	if r != 0 {
		t.Errorf("HDRAt out of bounds = %v, want 0", r)
	}
}

func TestBufferStats(t *testing.T) {
	b := NewBufferSize(2, 2)
	b.Set(0, 0, mgl32.Vec4{1, 1, 1, 1})
	b.Set(1, 0, mgl32.Vec4{3, 3, 3, 1})

	s := b.Stats()
	if s.Min != 0 || math.Abs(s.Max-3) > 1e-5 {
		t.Errorf("min/max = %v/%v, want 0/3", s.Min, s.Max)
	}
	if math.Abs(s.Mean-1) > 1e-5 {
		t.Errorf("mean = %v, want 1", s.Mean)
	}
}
