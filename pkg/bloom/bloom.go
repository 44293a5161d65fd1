// Package bloom is a dual Kawase bloom pass. The bright parts of the frame
// are extracted, blurred down and back up a resolution pyramid, then added
// back onto the original frame.
package bloom

import (
	"context"
	"fmt"

	"github.com/abworrall/eclipse-postfx/pkg/blit"
	"github.com/abworrall/eclipse-postfx/pkg/fxbuf"
)

const (
	ProfilerTag = "Bloom Pass"

	TempTarget   blit.Target = "_BufferRT1"
	SourceTarget blit.Target = "_SourceTex"
)

// A Level is one step of the blur pyramid: a slot written on the way down
// and one written on the way up, both allocated at Desc.
type Level struct {
	Down, Up blit.Target
	Desc     fxbuf.Descriptor
}

func levelTargets(i int) (blit.Target, blit.Target) {
	return blit.Target(fmt.Sprintf("_BlurMipDown%d", i)), blit.Target(fmt.Sprintf("_BlurMipUp%d", i))
}

// Effect implements blit.Pass.
type Effect struct {
	settings Settings
	material *blit.Material

	target blit.Target
	levels []Level
}

// New copies s; changing it afterwards has no effect on the pass.
func New(s Settings) (*Effect, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	color, _ := s.Color()

	return &Effect{
		settings: s,
		material: NewMaterial(s, color),
	}, nil
}

func (e *Effect) Name() string             { return ProfilerTag }
func (e *Effect) Settings() Settings       { return e.settings }
func (e *Effect) Material() *blit.Material { return e.material }

// Levels returns the pyramid built by the last Record, shallowest first.
func (e *Effect) Levels() []Level {
	return append([]Level(nil), e.levels...)
}

// Setup grabs the camera target and names the pyramid slots. Nothing is
// allocated until Execute, when the frame's size is known.
func (e *Effect) Setup(cmd *blit.CommandBuffer, rd *blit.RenderingData) error {
	if cmd == nil {
		return fmt.Errorf("bloom setup: %w", blit.ErrNilCommandBuffer)
	}
	e.target = rd.CameraTarget

	e.levels = make([]Level, e.settings.PassLoop)
	for i := range e.levels {
		e.levels[i].Down, e.levels[i].Up = levelTargets(i)
	}
	return nil
}

// Record adds the whole pass to cmd, sized for rd's camera descriptor.
func (e *Effect) Record(cmd *blit.CommandBuffer, rd *blit.RenderingData) {
	desc := rd.Descriptor
	desc.DepthBufferBits = 0

	if len(e.levels) != e.settings.PassLoop {
		e.levels = make([]Level, e.settings.PassLoop)
	}

	cmd.BeginSample(ProfilerTag)

	// Keep the untouched frame for the composite
	cmd.GetTemporary(SourceTarget, desc)
	cmd.CopyTexture(e.target, SourceTarget)

	// Bright pass, written back over the camera target
	lastDown := e.target
	cmd.GetTemporary(TempTarget, desc)
	cmd.BlitStage(e.target, TempTarget, e.material, StageExtract)
	cmd.Blit(TempTarget, lastDown)

	// Down the pyramid
	desc = desc.Divide(e.settings.Downsample)
	for i := range e.levels {
		lvl := &e.levels[i]
		lvl.Down, lvl.Up = levelTargets(i)
		lvl.Desc = desc

		cmd.GetTemporary(lvl.Down, desc)
		cmd.GetTemporary(lvl.Up, desc)
		cmd.BlitStage(lastDown, lvl.Down, e.material, StageDownsample)
		lastDown = lvl.Down

		desc = desc.Halve()
	}

	// And back up. Level 0's up slot is never written; the last step goes
	// straight to the camera target.
	lastUp := e.levels[len(e.levels)-1].Down
	for i := len(e.levels) - 2; i > 0; i-- {
		cmd.BlitStage(lastUp, e.levels[i].Up, e.material, StageUpsample)
		lastUp = e.levels[i].Up
	}
	cmd.BlitStage(lastUp, e.target, e.material, StageUpsample)

	// Add the blur onto the captured frame
	cmd.BlitStage(e.target, TempTarget, e.material, StageComposite)
	cmd.Blit(TempTarget, e.target)

	cmd.EndSample(ProfilerTag)
}

func (e *Effect) Execute(ctx context.Context, dev *blit.Device, rd *blit.RenderingData) error {
	e.target = rd.CameraTarget

	cmd := blit.GetCommandBuffer(ProfilerTag)
	defer blit.ReleaseCommandBuffer(cmd)

	e.Record(cmd, rd)
	if err := dev.ExecuteCommandBuffer(ctx, cmd); err != nil {
		return fmt.Errorf("bloom frame %d: %w", rd.Frame, err)
	}
	return nil
}

// Cleanup releases everything Execute allocated.
func (e *Effect) Cleanup(cmd *blit.CommandBuffer) error {
	if cmd == nil {
		return fmt.Errorf("bloom cleanup: %w", blit.ErrNilCommandBuffer)
	}

	for _, lvl := range e.levels {
		cmd.Release(lvl.Down)
		cmd.Release(lvl.Up)
	}
	cmd.Release(TempTarget)
	cmd.Release(SourceTarget)
	return nil
}
