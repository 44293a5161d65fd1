package bloom

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/abworrall/eclipse-postfx/pkg/emath"
)

// MaxBlurLevel is the deepest pyramid the pass will build.
const MaxBlurLevel = 16

// Settings control the bloom pass. Field names double as the yaml keys
// (lowercased).
type Settings struct {
	Downsample         int     // initial resolution divisor, [1,5]
	PassLoop           int     // pyramid depth, [1,5]
	BlurIntensity      float32 // scales the Kawase sample offsets, [0,10]
	LuminanceThreshold float32 // [0,1]
	BloomColor         string  // sRGB hex, "#rrggbb" or "#rrggbbaa"
	BloomIntensity     float32 // [0,10]
}

func DefaultSettings() Settings {
	return Settings{
		Downsample:         1,
		PassLoop:           2,
		BlurIntensity:      1,
		LuminanceThreshold: 0.5,
		BloomColor:         "#ffffff",
		BloomIntensity:     1,
	}
}

// Clamp pulls every numeric field into its declared range. An empty color
// becomes white.
func (s Settings) Clamp() Settings {
	s.Downsample = min(max(s.Downsample, 1), 5)
	s.PassLoop = min(max(s.PassLoop, 1), 5)
	s.BlurIntensity = emath.Clamp(s.BlurIntensity, 0, 10)
	s.LuminanceThreshold = emath.Saturate(s.LuminanceThreshold)
	s.BloomIntensity = emath.Clamp(s.BloomIntensity, 0, 10)
	if s.BloomColor == "" {
		s.BloomColor = "#ffffff"
	}
	return s
}

// Color parses BloomColor into linear RGB. An 8 digit "#rrggbbaa" form
// carries alpha, which is linear already; otherwise alpha is 1.
func (s Settings) Color() (mgl32.Vec4, error) {
	hex, alpha := s.BloomColor, float32(1)
	if len(hex) == 9 && hex[0] == '#' {
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return mgl32.Vec4{}, fmt.Errorf("bloom color '%s': alpha: %v", s.BloomColor, err)
		}
		hex, alpha = hex[:7], float32(a)/255
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return mgl32.Vec4{}, fmt.Errorf("bloom color '%s': %v", s.BloomColor, err)
	}
	r, g, b := c.LinearRgb()
	return mgl32.Vec4{float32(r), float32(g), float32(b), alpha}, nil
}

// Validate checks what the pass cannot run without. Ranges are not checked;
// that is Clamp's job.
func (s Settings) Validate() error {
	if s.PassLoop < 1 || s.PassLoop > MaxBlurLevel {
		return fmt.Errorf("bloom passloop %d: must be in [1,%d]", s.PassLoop, MaxBlurLevel)
	}
	if s.Downsample < 1 {
		return fmt.Errorf("bloom downsample %d: must be at least 1", s.Downsample)
	}
	_, err := s.Color()
	return err
}
