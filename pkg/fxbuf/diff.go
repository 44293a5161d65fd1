package fxbuf

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/abworrall/eclipse-postfx/pkg/emath"
)

// A Diff compares two buffers by luminance. Pixels where either side is too
// dim (every channel below Floor) or clipped (any channel above Clip) are
// skipped, so only the part of the frame both images resolve is compared.
type Diff struct {
	Floor, Clip float32

	Grid     *Buffer // per pixel absolute luminance difference, as grey
	Compared int
	Skipped  int
	MeanErr  float64
	MaxErr   float64
}

// NewDiff compares a against b. The buffers must be the same size.
func NewDiff(a, b *Buffer, floor, clip float32) (Diff, error) {
	d := Diff{Floor: floor, Clip: clip}
	if !a.desc.SameSize(b.desc) {
		return d, fmt.Errorf("diff %dx%d against %dx%d: %w", a.Dx(), a.Dy(), b.Dx(), b.Dy(), ErrInvalidDescriptor)
	}

	d.Grid = NewBufferSize(a.Dx(), a.Dy())
	totErr := 0.0

	for y := 0; y < a.Dy(); y++ {
		for x := 0; x < a.Dx(); x++ {
			c1, c2 := a.Get(x, y), b.Get(x, y)
			if d.skip(c1) || d.skip(c2) {
				d.Skipped++
				continue
			}

			pixErr := math.Abs(float64(emath.Luminance(c1) - emath.Luminance(c2)))
			e := float32(pixErr)
			d.Grid.Set(x, y, mgl32.Vec4{e, e, e, 1})

			totErr += pixErr
			d.MaxErr = math.Max(d.MaxErr, pixErr)
			d.Compared++
		}
	}

	if d.Compared > 0 {
		d.MeanErr = totErr / float64(d.Compared)
	}
	return d, nil
}

func (d Diff) skip(c mgl32.Vec4) bool {
	dim := true
	for i := 0; i < 3; i++ {
		if c[i] > d.Clip {
			return true
		}
		if c[i] >= d.Floor {
			dim = false
		}
	}
	return dim
}

// Comparable is the fraction of pixels that took part.
func (d Diff) Comparable() float64 {
	if n := d.Compared + d.Skipped; n > 0 {
		return float64(d.Compared) / float64(n)
	}
	return 0
}

func (d Diff) String() string {
	return fmt.Sprintf("%.1f%% comparable; err mean=%.5f max=%.5f", 100*d.Comparable(), d.MeanErr, d.MaxErr)
}

// ToImg writes the difference grid, captioned with the metric.
func (d Diff) ToImg(title, filename string) error {
	return d.Grid.ToImg(fmt.Sprintf("%s: %s", title, d), filename)
}
