package tonemap

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/abworrall/eclipse-postfx/pkg/blit"
	"github.com/abworrall/eclipse-postfx/pkg/emath"
)

const MaterialName = "Custom/PP_Tonemapping"

// Material property names.
const (
	PropMaxLuminance        = "_MaxLuminanice"
	PropContrast            = "_Contrast"
	PropLinearSectionStart  = "_LinearSectionStart"
	PropLinearSectionLength = "_LinearSectionLength"
	PropBlackTightnessC     = "_BlackTightnessC"
	PropBlackTightnessB     = "_BlackTightnessB"
)

// Curve is Uchimura's filmic curve (as used in Gran Turismo): a power toe,
// a linear middle and an exponential shoulder that approaches P, blended
// together by position.
//
// https://www.slideshare.net/nikuque/hdr-theory-and-practicce-jp
type Curve struct {
	P, A, M, L, C, B float32

	// derived
	l0, s0, s1, c2 float32
}

func NewCurve(s Settings) Curve {
	cv := Curve{
		P: s.MaxLuminance,
		A: s.Contrast,
		M: s.LinearSectionStart,
		L: s.LinearSectionLength,
		C: s.BlackTightnessC,
		B: s.BlackTightnessB,
	}

	cv.l0 = (cv.P - cv.M) * cv.L / cv.A
	cv.s0 = cv.M + cv.l0
	cv.s1 = cv.M + cv.A*cv.l0
	if cv.P > cv.s1 {
		cv.c2 = cv.A * cv.P / (cv.P - cv.s1)
	}

	return cv
}

// Apply maps one linear channel value.
func (cv Curve) Apply(x float32) float32 {
	w0 := 1 - emath.Smoothstep(0, cv.M, x)
	w2 := emath.Step(cv.M+cv.l0, x)
	w1 := 1 - w0 - w2

	// toe; with no toe (m == 0) only the pedestal is left
	t := cv.B
	if cv.M > 0 {
		t = cv.M*math32.Pow(math32.Max(x, 0)/cv.M, cv.C) + cv.B
	}

	lin := cv.M + cv.A*(x-cv.M)

	// shoulder; saturated when the linear section already reaches P
	s := cv.P
	if cv.P > cv.s1 {
		s = cv.P - (cv.P-cv.s1)*math32.Exp(-cv.c2*(x-cv.s0)/cv.P)
	}

	return t*w0 + lin*w1 + s*w2
}

// ApplyRGB maps the color channels and keeps alpha.
func (cv Curve) ApplyRGB(c mgl32.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{cv.Apply(c[0]), cv.Apply(c[1]), cv.Apply(c[2]), c[3]}
}

func curveFromMaterial(m *blit.Material) Curve {
	return NewCurve(Settings{
		MaxLuminance:        m.Float(PropMaxLuminance),
		Contrast:            m.Float(PropContrast),
		LinearSectionStart:  m.Float(PropLinearSectionStart),
		LinearSectionLength: m.Float(PropLinearSectionLength),
		BlackTightnessC:     m.Float(PropBlackTightnessC),
		BlackTightnessB:     m.Float(PropBlackTightnessB),
	})
}

// NewMaterial builds the tonemapping material with its parameters bound.
// Stage 0 applies the curve.
func NewMaterial(s Settings) *blit.Material {
	var cv Curve
	mat := blit.NewMaterial(MaterialName, blit.Stage{
		Name: "filmic",
		Shade: func(f *blit.Fragment) mgl32.Vec4 {
			return cv.ApplyRGB(f.Sample(f.UV))
		},
	})

	mat.SetFloat(PropMaxLuminance, s.MaxLuminance)
	mat.SetFloat(PropContrast, s.Contrast)
	mat.SetFloat(PropLinearSectionStart, s.LinearSectionStart)
	mat.SetFloat(PropLinearSectionLength, s.LinearSectionLength)
	mat.SetFloat(PropBlackTightnessC, s.BlackTightnessC)
	mat.SetFloat(PropBlackTightnessB, s.BlackTightnessB)

	cv = curveFromMaterial(mat)
	return mat
}
