package tonemap

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/abworrall/eclipse-postfx/pkg/blit"
	"github.com/abworrall/eclipse-postfx/pkg/fxbuf"
)

func TestCurveIdentitySettings(t *testing.T) {
	cv := NewCurve(IdentitySettings())
	for _, x := range []float32{0, 0.01, 0.1, 0.25, 0.5, 0.75, 0.9, 0.99, 1} {
		if got := cv.Apply(x); got < x-1e-5 || got > x+1e-5 {
			t.Errorf("Apply(%g) = %g, want %g", x, got, x)
		}
	}
}

// With unit contrast and no pedestal the toe never rises above the linear
// section, so the blend cannot dip.
func TestCurveIsMonotonic(t *testing.T) {
	settings := map[string]Settings{
		"default": DefaultSettings(),
		"bright":  {MaxLuminance: 4, Contrast: 1, LinearSectionStart: 0.3, LinearSectionLength: 0.5, BlackTightnessC: 2, BlackTightnessB: 0},
		"no toe":  {MaxLuminance: 2, Contrast: 1, LinearSectionStart: 0, LinearSectionLength: 0.4, BlackTightnessC: 1, BlackTightnessB: 0},
	}

	for name, s := range settings {
		t.Run(name, func(t *testing.T) {
			cv := NewCurve(s)
			prev := cv.Apply(0)
			for i := 1; i <= 2000; i++ {
				x := float32(i) / 100
				y := cv.Apply(x)
				if y < prev-1e-5 {
					t.Fatalf("Apply(%g) = %g, below Apply of a smaller input (%g)", x, y, prev)
				}
				if y > s.MaxLuminance+1e-4 {
					t.Fatalf("Apply(%g) = %g, above MaxLuminance %g", x, y, s.MaxLuminance)
				}
				prev = y
			}
		})
	}
}

func TestCurveKeepsAlpha(t *testing.T) {
	cv := NewCurve(DefaultSettings())
	if got := cv.ApplyRGB(mgl32.Vec4{3, 2, 1, 0.25}); got[3] != 0.25 {
		t.Errorf("alpha = %g, want 0.25", got[3])
	}
}

func TestSettingsClamp(t *testing.T) {
	got := Settings{MaxLuminance: 0, Contrast: 9, LinearSectionStart: -1, LinearSectionLength: 2, BlackTightnessC: 5, BlackTightnessB: -3}.Clamp()
	want := Settings{MaxLuminance: 1, Contrast: 5, LinearSectionStart: 0, LinearSectionLength: 1, BlackTightnessC: 3, BlackTightnessB: 0}
	if got != want {
		t.Errorf("Clamp() = %+v, want %+v", got, want)
	}
	if DefaultSettings().Clamp() != DefaultSettings() {
		t.Error("defaults are out of range")
	}
}

func TestMaterialProperties(t *testing.T) {
	mat := NewMaterial(DefaultSettings())
	if mat.Name != MaterialName || mat.NumStages() != 1 {
		t.Errorf("material = %s with %d stages", mat.Name, mat.NumStages())
	}
	if got := mat.Float(PropLinearSectionStart); got != 0.4 {
		t.Errorf("%s = %g, want 0.4", PropLinearSectionStart, got)
	}
}

// runFrame drives one frame the way a host does.
func runFrame(t *testing.T, dev *blit.Device, e *Effect, rd *blit.RenderingData) {
	t.Helper()
	ctx := context.Background()

	setup := blit.NewCommandBuffer("setup")
	if err := e.Setup(setup, rd); err != nil {
		t.Fatal(err)
	}
	if err := dev.ExecuteCommandBuffer(ctx, setup); err != nil {
		t.Fatal(err)
	}
	if err := e.Execute(ctx, dev, rd); err != nil {
		t.Fatal(err)
	}
	cleanup := blit.NewCommandBuffer("cleanup")
	if err := e.Cleanup(cleanup); err != nil {
		t.Fatal(err)
	}
	if err := dev.ExecuteCommandBuffer(ctx, cleanup); err != nil {
		t.Fatal(err)
	}
}

func TestEffectIdentityFrame(t *testing.T) {
	dev := blit.NewDevice()
	cam := fxbuf.NewBufferSize(16, 9)
	for y := 0; y < cam.Dy(); y++ {
		for x := 0; x < cam.Dx(); x++ {
			cam.Set(x, y, mgl32.Vec4{float32(x) / 16, float32(y) / 9, 0.5, 1})
		}
	}
	orig := cam.Copy()

	if err := dev.BindTarget(blit.CameraTarget, cam); err != nil {
		t.Fatal(err)
	}
	rd := &blit.RenderingData{CameraTarget: blit.CameraTarget, Descriptor: cam.Descriptor()}

	runFrame(t, dev, New(IdentitySettings()), rd)

	for y := 0; y < cam.Dy(); y++ {
		for x := 0; x < cam.Dx(); x++ {
			a, b := cam.Get(x, y), orig.Get(x, y)
			for c := 0; c < 4; c++ {
				if d := a[c] - b[c]; d < -1e-4 || d > 1e-4 {
					t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, a, b)
				}
			}
		}
	}
	if st := dev.Stats(); st.Draws != 2 {
		t.Errorf("draws = %d, want 2", st.Draws)
	}
}

func TestEffectDoesNotLeak(t *testing.T) {
	dev := blit.NewDevice()
	e := New(DefaultSettings())

	for frame := 0; frame < 1000; frame++ {
		// resolution changes from frame to frame
		cam := fxbuf.NewBufferSize(4+frame%3, 3+frame%5)
		cam.Fill(mgl32.Vec4{2, 1, 0.5, 1})
		if err := dev.BindTarget(blit.CameraTarget, cam); err != nil {
			t.Fatal(err)
		}

		runFrame(t, dev, e, &blit.RenderingData{Frame: frame, CameraTarget: blit.CameraTarget, Descriptor: cam.Descriptor()})

		if live := dev.LiveTemporaries(); len(live) != 0 {
			t.Fatalf("frame %d: live temporaries %v", frame, live)
		}
		if n := dev.Pool().Live(); n != 0 {
			t.Fatalf("frame %d: %d pooled buffers still out", frame, n)
		}
		dev.UnbindTarget(blit.CameraTarget)
	}
}

func TestEffectNilCommandBuffer(t *testing.T) {
	e := New(DefaultSettings())
	if err := e.Cleanup(nil); !errors.Is(err, blit.ErrNilCommandBuffer) {
		t.Errorf("Cleanup(nil) = %v, want ErrNilCommandBuffer", err)
	}
	if err := e.Setup(nil, &blit.RenderingData{}); !errors.Is(err, blit.ErrNilCommandBuffer) {
		t.Errorf("Setup(nil) = %v, want ErrNilCommandBuffer", err)
	}
}
