// Package colors parses CSS color values used by theme generators (hex,
// rgb(), hsl(), oklch()) and converts them to sRGB hex understood by native
// color pickers.
package colors

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformed is returned (wrapped) for values which look like one of the
// supported color syntaxes but cannot be parsed.
var ErrMalformed = errors.New("malformed color")

// Color is one of Hex, RGB, HSL, OKLCH or Opaque.
type Color interface {
	// Alpha returns opacity in 0..1 range, Opaque values report 1.
	Alpha() float64
	// String returns CSS representation of the parsed value.
	String() string

	sealed()
}

// Hex is a #RGB[A] or #RRGGBB[AA] color.
type Hex struct {
	R, G, B uint8
	A       float64
}

// RGB is rgb()/rgba() color, channels in 0..255 range.
type RGB struct {
	R, G, B float64
	A       float64
}

// HSL is hsl()/hsla() color: hue in degrees [0,360), saturation and
// lightness as 0..1 fractions.
type HSL struct {
	H, S, L float64
	A       float64
}

// OKLCH is oklch() color: lightness 0..1, chroma >= 0, hue in degrees.
type OKLCH struct {
	L, C, H float64
	A       float64
}

// Opaque is a value which is not a recognized color, kept verbatim.
type Opaque string

func (Hex) sealed()    {}
func (RGB) sealed()    {}
func (HSL) sealed()    {}
func (OKLCH) sealed()  {}
func (Opaque) sealed() {}

func (c Hex) Alpha() float64    { return c.A }
func (c RGB) Alpha() float64    { return c.A }
func (c HSL) Alpha() float64    { return c.A }
func (c OKLCH) Alpha() float64  { return c.A }
func (c Opaque) Alpha() float64 { return 1 }

func (c Hex) String() string {
	if a, ok := alphaByte(c.A); ok {
		return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, a)
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return "rgb(" + num(c.R) + " " + num(c.G) + " " + num(c.B) + alphaSuffix(c.A) + ")"
}

func (c HSL) String() string {
	return "hsl(" + num(c.H) + " " + num(c.S*100) + "% " + num(c.L*100) + "%" + alphaSuffix(c.A) + ")"
}

func (c OKLCH) String() string {
	return "oklch(" + num(c.L) + " " + num(c.C) + " " + num(c.H) + alphaSuffix(c.A) + ")"
}

func (c Opaque) String() string {
	return string(c)
}

// IsColor reports whether c carries color channels, i.e. is not Opaque.
func IsColor(c Color) bool {
	_, opaque := c.(Opaque)
	return c != nil && !opaque
}

// num formats float without locale and without trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(roundTo(v, 4), 'f', -1, 64)
}

func alphaSuffix(a float64) string {
	if a >= 1 {
		return ""
	}
	return " / " + num(a)
}
