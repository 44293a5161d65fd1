package pipeline

import (
	"fmt"
	"image"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/tmo"
)

// References are the global tonemapping operators from mdouchement/hdr, for
// side by side comparison with the filmic pass.
var References = []string{"drago03", "durand", "icam06", "linear", "reinhard05"}

func ListReferences() string {
	return fmt.Sprintf("%v", References)
}

// NewReference sets up a named operator over img. The parameters are tweaked
// so small bright areas (the kind that bloom) don't blow out.
func NewReference(name string, img hdr.Image) (tmo.ToneMappingOperator, error) {
	switch name {
	case "drago03":
		op := tmo.NewDefaultDrago03(img)
		op.Bias = 1.0
		return op, nil

	case "durand":
		return tmo.NewDefaultDurand(img), nil

	case "icam06":
		op := tmo.NewDefaultICam06(img)
		op.Contrast = 0.65
		op.MaxClipping = 0.99999
		return op, nil

	case "linear":
		return tmo.NewLinear(img), nil

	case "reinhard05":
		op := tmo.NewDefaultReinhard05(img)
		op.Chromatic = 0.005
		op.Light = 0.005
		return op, nil
	}

	return nil, fmt.Errorf("reference tonemapper '%s' not recognized, wanted %s", name, ListReferences())
}

// ApplyReference runs one named operator, or every one of them for "all".
// Results are keyed by operator name.
func ApplyReference(name string, img hdr.Image) (map[string]image.Image, error) {
	names := []string{name}
	if name == "all" {
		names = References
	}

	out := map[string]image.Image{}
	for _, n := range names {
		op, err := NewReference(n, img)
		if err != nil {
			return nil, err
		}
		out[n] = op.Perform()
	}
	return out, nil
}
