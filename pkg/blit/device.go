// Package blit records GPU style commands (temporary targets, copies,
// full-screen blits through shader stages) and runs them on a CPU device.
package blit

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/abworrall/eclipse-postfx/pkg/fxbuf"
)

// DeviceStats counts what a Device has done since it was created.
type DeviceStats struct {
	CommandBuffers int
	Draws          int // one per Blit
	Copies         int
	Allocations    int
	Releases       int
}

// A Device executes command buffers against a set of render targets. Host
// targets (the camera color buffer) are bound from outside; temporaries come
// from the device's pool and live until a Release command.
//
// A Device is driven by one frame loop and is not safe for concurrent use;
// internally it shades the rows of each blit in parallel.
type Device struct {
	// Workers is how many goroutines shade a blit; 0 means GOMAXPROCS.
	Workers int

	// DumpDir, if set, receives a captioned PNG of every blit result.
	DumpDir string

	pool    *fxbuf.Pool
	targets map[Target]*fxbuf.Buffer
	temps   map[Target]bool
	samples map[string]time.Time
	stats   DeviceStats
}

func NewDevice() *Device {
	return &Device{
		pool:    fxbuf.NewPool(8),
		targets: map[Target]*fxbuf.Buffer{},
		temps:   map[Target]bool{},
		samples: map[string]time.Time{},
	}
}

func (d *Device) Pool() *fxbuf.Pool  { return d.pool }
func (d *Device) Stats() DeviceStats { return d.stats }

// BindTarget makes a host-owned buffer available under a name.
func (d *Device) BindTarget(t Target, buf *fxbuf.Buffer) error {
	if _, exists := d.targets[t]; exists {
		return fmt.Errorf("bind %s: %w", t, ErrTargetExists)
	}
	d.targets[t] = buf
	return nil
}

// UnbindTarget drops a host-owned buffer. Temporaries are left alone; they
// must be released through a command buffer.
func (d *Device) UnbindTarget(t Target) {
	if !d.temps[t] {
		delete(d.targets, t)
	}
}

// Lookup returns the buffer currently behind a target, or nil.
func (d *Device) Lookup(t Target) *fxbuf.Buffer { return d.targets[t] }

// LiveTemporaries lists temporaries that have not been released yet.
func (d *Device) LiveTemporaries() []Target {
	live := []Target{}
	for t := range d.temps {
		live = append(live, t)
	}
	sort.Slice(live, func(i, j int) bool { return live[i] < live[j] })
	return live
}

// ExecuteCommandBuffer runs every command in cb, in order. The whole buffer is
// checked before anything runs, so a bad buffer leaves every target as it
// was. Once running there is no cancellation; ctx is only consulted at
// submission.
func (d *Device) ExecuteCommandBuffer(ctx context.Context, cb *CommandBuffer) error {
	if cb == nil {
		return ErrNilCommandBuffer
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("command buffer %q: %w", cb.Name, err)
	}
	if err := d.validate(cb); err != nil {
		return fmt.Errorf("command buffer %q: %w", cb.Name, err)
	}

	d.stats.CommandBuffers++
	Logger().Debug("execute command buffer", "name", cb.Name, "commands", cb.Len())

	for _, c := range cb.Commands() {
		if err := d.run(c); err != nil {
			// validate() should make this unreachable
			return fmt.Errorf("command buffer %q, %s: %w", cb.Name, c, err)
		}
	}

	return nil
}

// validate replays the buffer against a shadow copy of the target table.
func (d *Device) validate(cb *CommandBuffer) error {
	sizes := map[Target]fxbuf.Descriptor{}
	temps := map[Target]bool{}
	for t, buf := range d.targets {
		sizes[t] = buf.Descriptor()
		temps[t] = d.temps[t]
	}

	live := func(t Target) (fxbuf.Descriptor, error) {
		desc, ok := sizes[t]
		if !ok {
			return desc, fmt.Errorf("%w: %s", ErrUnknownTarget, t)
		}
		return desc, nil
	}

	for i, c := range cb.Commands() {
		switch c.Op {
		case OpGetTemporary:
			if err := c.Desc.Validate(); err != nil {
				return fmt.Errorf("#%d %s: %w", i, c, err)
			}
			if _, exists := sizes[c.Dst]; exists {
				return fmt.Errorf("#%d %s: %w", i, c, ErrTargetExists)
			}
			sizes[c.Dst] = c.Desc
			temps[c.Dst] = true

		case OpRelease:
			if temps[c.Dst] {
				delete(sizes, c.Dst)
				delete(temps, c.Dst)
			}

		case OpCopyTexture, OpBlit:
			src, err := live(c.Src)
			if err != nil {
				return fmt.Errorf("#%d %s: %w", i, c, err)
			}
			dst, err := live(c.Dst)
			if err != nil {
				return fmt.Errorf("#%d %s: %w", i, c, err)
			}
			if c.Src == c.Dst {
				return fmt.Errorf("#%d %s: %w", i, c, ErrAliasedTargets)
			}
			if c.Op == OpCopyTexture && !src.SameSize(dst) {
				return fmt.Errorf("#%d %s: %w", i, c, ErrSizeMismatch)
			}
			if c.Op == OpBlit && c.Stage >= 0 {
				if c.Material == nil {
					return fmt.Errorf("#%d %s: %w: no material", i, c, ErrStageIndex)
				}
				if _, err := c.Material.Stage(c.Stage); err != nil {
					return fmt.Errorf("#%d %s: %w", i, c, err)
				}
			}
		}
	}

	return nil
}

func (d *Device) run(c Command) error {
	switch c.Op {
	case OpGetTemporary:
		buf, err := d.pool.Get(c.Desc)
		if err != nil {
			return err
		}
		d.targets[c.Dst] = buf
		d.temps[c.Dst] = true
		d.stats.Allocations++
		Logger().Debug("get temporary", "target", c.Dst, "desc", c.Desc.String())

	case OpRelease:
		if !d.temps[c.Dst] {
			return nil
		}
		d.pool.Put(d.targets[c.Dst])
		delete(d.targets, c.Dst)
		delete(d.temps, c.Dst)
		d.stats.Releases++

	case OpCopyTexture:
		d.stats.Copies++
		return d.targets[c.Dst].CopyFrom(d.targets[c.Src])

	case OpBlit:
		return d.draw(c)

	case OpBeginSample:
		d.samples[c.Sample] = time.Now()

	case OpEndSample:
		if start, ok := d.samples[c.Sample]; ok {
			Logger().Debug("profiling scope", "sample", c.Sample, "elapsed", time.Since(start))
			delete(d.samples, c.Sample)
		}
	}

	return nil
}

func (d *Device) draw(c Command) error {
	src, dst := d.targets[c.Src], d.targets[c.Dst]
	d.stats.Draws++

	if c.Stage < 0 && src.Descriptor().SameSize(dst.Descriptor()) {
		if err := dst.CopyFrom(src); err != nil {
			return err
		}
	} else {
		shade := func(f *Fragment) mgl32.Vec4 { return f.Sample(f.UV) }
		if c.Stage >= 0 {
			stage, err := c.Material.Stage(c.Stage)
			if err != nil {
				return err
			}
			shade = stage.Shade
		}
		d.shade(src, dst, c.Material, shade)
	}

	if d.DumpDir != "" {
		d.dump(c, dst)
	}
	return nil
}

// shade runs fn for every pixel of dst, in horizontal bands.
func (d *Device) shade(src, dst *fxbuf.Buffer, mat *Material, fn ShadeFunc) {
	w, h := dst.Dx(), dst.Dy()
	workers := d.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > h {
		workers = h
	}

	texelSize := src.TexelSize()
	band := (h + workers - 1) / workers

	// The destination is being written by every band; it is never readable.
	lookup := func(t Target) *fxbuf.Buffer {
		if buf := d.Lookup(t); buf != dst {
			return buf
		}
		return nil
	}

	var wg sync.WaitGroup
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)

		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()

			f := Fragment{
				MainTex:          src,
				MainTexTexelSize: texelSize,
				Material:         mat,
				lookup:           lookup,
			}
			for y := y0; y < y1; y++ {
				for x := 0; x < w; x++ {
					f.X, f.Y = x, y
					f.UV = mgl32.Vec2{(float32(x) + 0.5) / float32(w), (float32(y) + 0.5) / float32(h)}
					dst.Set(x, y, fn(&f))
				}
			}
		}(y0, y1)
	}
	wg.Wait()
}

func (d *Device) dump(c Command, dst *fxbuf.Buffer) {
	filename := filepath.Join(d.DumpDir, fmt.Sprintf("%05d-%s.png", d.stats.Draws, c.Dst))
	if err := dst.ToImg(fmt.Sprintf("%d: %s", d.stats.Draws, c), filename); err != nil {
		Logger().Warn("dump failed", slog.String("file", filename), slog.Any("err", err))
	}
}
