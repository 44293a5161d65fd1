// Package pipeline is the host side of the post-processing passes: it owns
// the device, builds passes from a config, and drives them one frame at a
// time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abworrall/eclipse-postfx/pkg/blit"
	"github.com/abworrall/eclipse-postfx/pkg/fxbuf"
)

// ErrLeakedTemporaries means a pass finished a frame without releasing
// everything it allocated.
var ErrLeakedTemporaries = errors.New("temporaries still live at end of frame")

// Renderer drives a fixed list of passes over a stream of frames. It is not
// safe for concurrent use.
type Renderer struct {
	Config Config

	dev    *blit.Device
	passes []blit.Pass
	frame  int
}

// NewRenderer builds the passes named in c, which should be finalized.
func NewRenderer(c Config) (*Renderer, error) {
	r := &Renderer{
		Config: c,
		dev:    blit.NewDevice(),
	}
	r.dev.DumpDir = c.DumpDir

	for _, name := range c.Passes {
		p, err := c.NewPass(name)
		if err != nil {
			return nil, err
		}
		r.passes = append(r.passes, p)
	}

	return r, nil
}

func (r *Renderer) Device() *blit.Device { return r.dev }
func (r *Renderer) Passes() []blit.Pass  { return r.passes }
func (r *Renderer) Frame() int           { return r.frame }

// AddPass appends a pass to the end of the frame.
func (r *Renderer) AddPass(p blit.Pass) {
	r.passes = append(r.passes, p)
}

// RenderFrame runs every pass over buf, in place. Each pass gets its Cleanup
// even when Execute fails; a failing pass stops the frame. Anything still
// allocated at the end is released and reported as ErrLeakedTemporaries.
func (r *Renderer) RenderFrame(ctx context.Context, buf *fxbuf.Buffer) error {
	start := time.Now()
	rd := &blit.RenderingData{
		Frame:        r.frame,
		CameraTarget: blit.CameraTarget,
		Descriptor:   buf.Descriptor(),
	}
	r.frame++

	if err := r.dev.BindTarget(rd.CameraTarget, buf); err != nil {
		return fmt.Errorf("frame %d: %w", rd.Frame, err)
	}
	defer r.dev.UnbindTarget(rd.CameraTarget)

	for _, p := range r.passes {
		if err := r.runPass(ctx, p, rd); err != nil {
			return errors.Join(fmt.Errorf("frame %d: %w", rd.Frame, err), r.releaseLeaks(rd))
		}
	}

	if err := r.releaseLeaks(rd); err != nil {
		return err
	}

	if l := blit.Logger(); l.Enabled(ctx, slog.LevelInfo) {
		l.Info("frame rendered",
			slog.Int("frame", rd.Frame),
			slog.String("desc", rd.Descriptor.String()),
			slog.Int("passes", len(r.passes)),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("luminance", buf.Stats().String()))
	}

	return nil
}

func (r *Renderer) runPass(ctx context.Context, p blit.Pass, rd *blit.RenderingData) error {
	setup := blit.GetCommandBuffer(p.Name() + " setup")
	defer blit.ReleaseCommandBuffer(setup)

	err := p.Setup(setup, rd)
	if err == nil {
		err = r.dev.ExecuteCommandBuffer(ctx, setup)
	}
	if err == nil {
		err = p.Execute(ctx, r.dev, rd)
	}

	cleanup := blit.GetCommandBuffer(p.Name() + " cleanup")
	defer blit.ReleaseCommandBuffer(cleanup)

	cerr := p.Cleanup(cleanup)
	if cerr == nil {
		// Cleanup must run even if the frame was cancelled
		cerr = r.dev.ExecuteCommandBuffer(context.WithoutCancel(ctx), cleanup)
	}

	if err != nil || cerr != nil {
		return fmt.Errorf("%s: %w", p.Name(), errors.Join(err, cerr))
	}
	return nil
}

// releaseLeaks frees anything left over so the next frame starts clean.
func (r *Renderer) releaseLeaks(rd *blit.RenderingData) error {
	live := r.dev.LiveTemporaries()
	if len(live) == 0 {
		return nil
	}

	blit.Logger().Warn("leaked temporaries", slog.Int("frame", rd.Frame), slog.Any("targets", live))

	cb := blit.GetCommandBuffer("release leaks")
	defer blit.ReleaseCommandBuffer(cb)
	for _, t := range live {
		cb.Release(t)
	}
	if err := r.dev.ExecuteCommandBuffer(context.Background(), cb); err != nil {
		return err
	}

	return fmt.Errorf("frame %d: %w: %v", rd.Frame, ErrLeakedTemporaries, live)
}
