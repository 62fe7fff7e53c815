package colors

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// OKLab to LMS (cube roots) and linear LMS to linear sRGB matrices, see
// https://bottosson.github.io/posts/oklab/
var (
	oklabToLMS = [3][3]float64{
		{1, 0.3963377774, 0.2158037573},
		{1, -0.1055613458, -0.0638541728},
		{1, -0.0894841775, -1.2914855480},
	}
	lmsToLinearSRGB = [3][3]float64{
		{4.0767416621, -3.3077115913, 0.2309699292},
		{-1.2684380046, 2.6097574011, -0.3413193965},
		{-0.0041960863, -0.7034186147, 1.7076147010},
	}
)

// ToHex converts color to lowercase sRGB hex: "#rrggbb", or "#rrggbbaa" when
// alpha is below 1. Out of gamut channels are clamped. Opaque values are not
// convertible and return false.
func ToHex(c Color) (string, bool) {
	if h, ok := c.(Hex); ok {
		return h.String(), true
	}
	rgb, ok := toColorful(c)
	if !ok {
		return "", false
	}
	hex := rgb.Clamped().Hex()
	if a, ok := alphaByte(c.Alpha()); ok {
		hex += fmt.Sprintf("%02x", a)
	}
	return hex, true
}

// ToHex6 is like ToHex but always drops alpha, native color inputs accept
// only "#rrggbb".
func ToHex6(c Color) (string, bool) {
	hex, ok := ToHex(c)
	if !ok {
		return "", false
	}
	return hex[:7], true
}

// RGBA returns 8-bit sRGB channels and alpha of the color.
func RGBA(c Color) (r, g, b uint8, a float64, ok bool) {
	if h, isHex := c.(Hex); isHex {
		return h.R, h.G, h.B, h.A, true
	}
	rgb, ok := toColorful(c)
	if !ok {
		return 0, 0, 0, 0, false
	}
	r, g, b = rgb.Clamped().RGB255()
	return r, g, b, c.Alpha(), true
}

func toColorful(c Color) (colorful.Color, bool) {
	switch v := c.(type) {
	case Hex:
		return colorful.Color{R: float64(v.R) / 255, G: float64(v.G) / 255, B: float64(v.B) / 255}, true
	case RGB:
		return colorful.Color{R: clamp(v.R/255, 0, 1), G: clamp(v.G/255, 0, 1), B: clamp(v.B/255, 0, 1)}, true
	case HSL:
		return colorful.Hsl(v.H, clamp(v.S, 0, 1), clamp(v.L, 0, 1)), true
	case OKLCH:
		r, g, b := oklchToLinear(v.L, v.C, v.H)
		return colorful.LinearRgb(r, g, b), true
	}
	return colorful.Color{}, false
}

// oklchToLinear converts OKLCH to linear (not gamma encoded) sRGB, result may
// be out of gamut.
func oklchToLinear(l, c, h float64) (r, g, b float64) {
	rad := h * math.Pi / 180
	lab := [3]float64{l, c * math.Cos(rad), c * math.Sin(rad)}

	var lms [3]float64
	for i, row := range oklabToLMS {
		v := row[0]*lab[0] + row[1]*lab[1] + row[2]*lab[2]
		lms[i] = v * v * v
	}

	var out [3]float64
	for i, row := range lmsToLinearSRGB {
		out[i] = row[0]*lms[0] + row[1]*lms[1] + row[2]*lms[2]
	}
	return out[0], out[1], out[2]
}

// alphaByte returns 8-bit alpha and true when the color is translucent.
func alphaByte(a float64) (uint8, bool) {
	b := uint8(math.Round(clamp(a, 0, 1) * 255))
	return b, b < 255
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
