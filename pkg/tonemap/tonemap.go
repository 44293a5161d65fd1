// Package tonemap is a filmic tonemapping pass: one full-screen blit through
// a curve that maps HDR scene values into display range.
package tonemap

import (
	"context"
	"fmt"

	"github.com/abworrall/eclipse-postfx/pkg/blit"
)

const (
	ProfilerTag = "Tonemapping Pass"

	TempTarget blit.Target = "_BufferRT1"
)

// Effect implements blit.Pass.
type Effect struct {
	settings Settings
	material *blit.Material
	target   blit.Target
}

// New copies s; changing it afterwards has no effect on the pass.
func New(s Settings) *Effect {
	return &Effect{
		settings: s,
		material: NewMaterial(s),
	}
}

func (e *Effect) Name() string             { return ProfilerTag }
func (e *Effect) Settings() Settings       { return e.settings }
func (e *Effect) Material() *blit.Material { return e.material }

// Setup allocates the intermediate buffer at the camera's size.
func (e *Effect) Setup(cmd *blit.CommandBuffer, rd *blit.RenderingData) error {
	if cmd == nil {
		return fmt.Errorf("tonemap setup: %w", blit.ErrNilCommandBuffer)
	}
	e.target = rd.CameraTarget

	desc := rd.Descriptor
	desc.DepthBufferBits = 0
	cmd.GetTemporary(TempTarget, desc)
	return nil
}

// Record adds the two blits of the pass to cmd.
func (e *Effect) Record(cmd *blit.CommandBuffer) {
	cmd.BeginSample(ProfilerTag)
	cmd.BlitStage(e.target, TempTarget, e.material, 0)
	cmd.Blit(TempTarget, e.target)
	cmd.EndSample(ProfilerTag)
}

func (e *Effect) Execute(ctx context.Context, dev *blit.Device, rd *blit.RenderingData) error {
	e.target = rd.CameraTarget

	cmd := blit.GetCommandBuffer(ProfilerTag)
	defer blit.ReleaseCommandBuffer(cmd)

	e.Record(cmd)
	if err := dev.ExecuteCommandBuffer(ctx, cmd); err != nil {
		return fmt.Errorf("tonemap frame %d: %w", rd.Frame, err)
	}
	return nil
}

func (e *Effect) Cleanup(cmd *blit.CommandBuffer) error {
	if cmd == nil {
		return fmt.Errorf("tonemap cleanup: %w", blit.ErrNilCommandBuffer)
	}
	cmd.Release(TempTarget)
	return nil
}
