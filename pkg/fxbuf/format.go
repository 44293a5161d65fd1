// Package fxbuf provides the image buffers that post-processing passes
// read from and write to, plus a pool for the transient ones.
package fxbuf

import (
	"errors"
	"fmt"
)

// ErrInvalidDescriptor is returned when a buffer can't be allocated from a Descriptor.
var ErrInvalidDescriptor = errors.New("invalid buffer descriptor")

// Format is the pixel format a buffer pretends to have. Storage is always
// float32 RGBA; the format decides how values are quantized on write, so an
// LDR target clips while an HDR one does not.
type Format uint8

const (
	FormatUnknown Format = iota

	// FormatRGBA32F is full precision HDR. This is the default.
	FormatRGBA32F

	// FormatRGBA16F is half precision HDR (values are not rounded to half, only
	// the range is limited).
	FormatRGBA16F

	// FormatR11G11B10F is packed HDR with no alpha; alpha reads back as 1.
	FormatR11G11B10F

	// FormatRGBA8 is LDR; writes are clamped to [0,1].
	FormatRGBA8

	formatCount
)

// FormatInfo holds metadata about a pixel format.
type FormatInfo struct {
	Name           string
	BitsPerChannel int
	HasAlpha       bool
	HDR            bool
	MaxValue       float32
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatUnknown:    {Name: "unknown"},
	FormatRGBA32F:    {Name: "RGBA32F", BitsPerChannel: 32, HasAlpha: true, HDR: true, MaxValue: 3.4e38},
	FormatRGBA16F:    {Name: "RGBA16F", BitsPerChannel: 16, HasAlpha: true, HDR: true, MaxValue: 65504},
	FormatR11G11B10F: {Name: "R11G11B10F", BitsPerChannel: 11, HasAlpha: false, HDR: true, MaxValue: 65024},
	FormatRGBA8:      {Name: "RGBA8", BitsPerChannel: 8, HasAlpha: true, HDR: false, MaxValue: 1},
}

func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return formatInfoTable[FormatUnknown]
	}
	return formatInfoTable[f]
}

func (f Format) Valid() bool { return f > FormatUnknown && f < formatCount }

func (f Format) String() string { return f.Info().Name }

// ParseFormat maps a format name (as printed by String) back to a Format.
func ParseFormat(s string) (Format, error) {
	for f := FormatRGBA32F; f < formatCount; f++ {
		if f.String() == s {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("no pixel format named '%s'", s)
}

// A Descriptor says how to allocate a buffer: its size, format and how many
// depth bits it carries. Post-processing buffers never need depth, so
// DepthBufferBits is informational.
type Descriptor struct {
	Width           int
	Height          int
	Format          Format
	DepthBufferBits int
}

func NewDescriptor(w, h int) Descriptor {
	return Descriptor{Width: w, Height: h, Format: FormatRGBA32F}
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%dx%d %s depth%d", d.Width, d.Height, d.Format, d.DepthBufferBits)
}

func (d Descriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidDescriptor, d.Width, d.Height)
	}
	if !d.Format.Valid() {
		return fmt.Errorf("%w: format %d", ErrInvalidDescriptor, d.Format)
	}
	if d.DepthBufferBits < 0 {
		return fmt.Errorf("%w: depth bits %d", ErrInvalidDescriptor, d.DepthBufferBits)
	}
	return nil
}

// Divide scales the size down by an integer factor, floored, never below 1x1.
func (d Descriptor) Divide(n int) Descriptor {
	if n < 1 {
		n = 1
	}
	d.Width = max(d.Width/n, 1)
	d.Height = max(d.Height/n, 1)
	return d
}

// Halve is Divide(2).
func (d Descriptor) Halve() Descriptor { return d.Divide(2) }

// SameSize reports whether two descriptors describe the same pixel grid.
func (d Descriptor) SameSize(o Descriptor) bool {
	return d.Width == o.Width && d.Height == o.Height
}
