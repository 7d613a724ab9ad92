// Package color converts label colors between color spaces.
package color

import (
	"math"
	"strconv"
	"strings"
)

// HSL is a color in hue/saturation/lightness space.
// H is in degrees [0,360), S and L are percentages [0,100].
type HSL struct {
	H int `json:"h" yaml:"h"`
	S int `json:"s" yaml:"s"`
	L int `json:"l" yaml:"l"`
}

// HexToHSL converts a six digit hex color (with or without a leading '#')
// to HSL. It returns false when hex is empty or not a valid color; callers
// fall back to the zero HSL.
func HexToHSL(hex string) (HSL, bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return HSL{}, false
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return HSL{}, false
	}

	r := float64((v>>16)&0xff) / 255
	g := float64((v>>8)&0xff) / 255
	b := float64(v&0xff) / 255

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	l := (maxC + minC) / 2

	var h, s float64
	if maxC != minC {
		d := maxC - minC
		if l > 0.5 {
			s = d / (2 - maxC - minC)
		} else {
			s = d / (maxC + minC)
		}

		switch maxC {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		default:
			h = (r-g)/d + 4
		}
		h /= 6
	}

	hue := int(math.Round(h * 360))
	if hue >= 360 {
		hue -= 360
	}

	return HSL{
		H: hue,
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}, true
}
