package tonemap

import (
	"github.com/abworrall/eclipse-postfx/pkg/emath"
)

// Settings are the filmic curve parameters. Field names double as the yaml
// keys (lowercased).
type Settings struct {
	MaxLuminance        float32 // P: the shoulder approaches this, [1,100]
	Contrast            float32 // a: slope of the linear section, [1,5]
	LinearSectionStart  float32 // m: where the toe hands over to the linear section, [0,1]
	LinearSectionLength float32 // l: [0,1]
	BlackTightnessC     float32 // c: toe exponent, [0,3]
	BlackTightnessB     float32 // b: toe pedestal, [0,1]
}

func DefaultSettings() Settings {
	return Settings{
		MaxLuminance:        1,
		Contrast:            1,
		LinearSectionStart:  0.4,
		LinearSectionLength: 0.24,
		BlackTightnessC:     1.33,
		BlackTightnessB:     0,
	}
}

// IdentitySettings make the curve pass [0,1] input straight through.
func IdentitySettings() Settings {
	return Settings{
		MaxLuminance:        1,
		Contrast:            1,
		LinearSectionStart:  0,
		LinearSectionLength: 1,
		BlackTightnessC:     0,
		BlackTightnessB:     0,
	}
}

// Clamp pulls every field into its declared range.
func (s Settings) Clamp() Settings {
	s.MaxLuminance = emath.Clamp(s.MaxLuminance, 1, 100)
	s.Contrast = emath.Clamp(s.Contrast, 1, 5)
	s.LinearSectionStart = emath.Saturate(s.LinearSectionStart)
	s.LinearSectionLength = emath.Saturate(s.LinearSectionLength)
	s.BlackTightnessC = emath.Clamp(s.BlackTightnessC, 0, 3)
	s.BlackTightnessB = emath.Saturate(s.BlackTightnessB)
	return s
}
