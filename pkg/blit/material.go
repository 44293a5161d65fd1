package blit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/abworrall/eclipse-postfx/pkg/fxbuf"
)

// A Fragment is what a stage sees for one destination pixel.
type Fragment struct {
	X, Y int
	UV   mgl32.Vec2 // center of the destination pixel, in [0,1]

	MainTex          *fxbuf.Buffer // the blit source
	MainTexTexelSize mgl32.Vec4    // (1/w, 1/h, w, h) of MainTex

	Material *Material

	lookup func(Target) *fxbuf.Buffer
}

// Sample reads the blit source, bilinear filtered.
func (f *Fragment) Sample(uv mgl32.Vec2) mgl32.Vec4 {
	return f.MainTex.Sample(uv[0], uv[1])
}

// SampleTarget reads another live target by name. A missing target samples
// as transparent black, like an unbound texture. So does the blit's own
// destination, which is being written while the stage runs.
func (f *Fragment) SampleTarget(t Target, uv mgl32.Vec2) mgl32.Vec4 {
	if f.lookup == nil {
		return mgl32.Vec4{}
	}
	buf := f.lookup(t)
	if buf == nil {
		return mgl32.Vec4{}
	}
	return buf.Sample(uv[0], uv[1])
}

// ShadeFunc computes one output pixel.
type ShadeFunc func(f *Fragment) mgl32.Vec4

// A Stage is one pass of a material, addressed by its index.
type Stage struct {
	Name  string
	Shade ShadeFunc
}

// A Material is a list of stages plus the parameters they read. Parameters
// are set while the owning effect is being constructed and are read-only
// from then on; stages read them concurrently while a blit is shaded.
type Material struct {
	Name   string
	stages []Stage

	floats  map[string]float32
	vectors map[string]mgl32.Vec4
}

func NewMaterial(name string, stages ...Stage) *Material {
	return &Material{
		Name:    name,
		stages:  stages,
		floats:  map[string]float32{},
		vectors: map[string]mgl32.Vec4{},
	}
}

func (m *Material) NumStages() int { return len(m.stages) }

func (m *Material) Stage(i int) (Stage, error) {
	if i < 0 || i >= len(m.stages) {
		return Stage{}, fmt.Errorf("%w: %s has %d stages, asked for %d", ErrStageIndex, m.Name, len(m.stages), i)
	}
	return m.stages[i], nil
}

func (m *Material) SetFloat(name string, v float32)     { m.floats[name] = v }
func (m *Material) SetVector(name string, v mgl32.Vec4) { m.vectors[name] = v }

func (m *Material) Float(name string) float32      { return m.floats[name] }
func (m *Material) Vector(name string) mgl32.Vec4 { return m.vectors[name] }

func (m *Material) String() string {
	names := []string{}
	for k, v := range m.floats {
		names = append(names, fmt.Sprintf("%s=%g", k, v))
	}
	for k, v := range m.vectors {
		names = append(names, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(names)
	return fmt.Sprintf("%s{%s}", m.Name, strings.Join(names, ", "))
}
