// Package preview renders theme tokens as swatch sheets: SVG documents,
// PNG images and terminal output.
package preview

import (
	"image/color"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"

	"themeport/theme"
	"themeport/tokens"
)

const (
	DefaultSize    = 48
	DefaultColumns = 4

	glyphW  = 7  // basicfont.Face7x13 advance
	glyphH  = 13 // basicfont.Face7x13 height
	labelH  = glyphH + 4
	headerH = glyphH + 6
)

// Options control sheet layout.
type Options struct {
	Size    int  // swatch side in pixels
	Columns int  // swatches per row
	Labels  bool // draw token names and variant headers
}

func (o Options) normalized() Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.Columns <= 0 {
		o.Columns = DefaultColumns
	}
	return o
}

type cell struct {
	key   tokens.Key
	value string
	rgb   string // "#rrggbb", empty when value has no sRGB form
	alpha float64
	x, y  int
}

type header struct {
	label string
	x, y  int
}

// sheet is computed geometry shared by all renderers.
type sheet struct {
	opts    Options
	w, h    int
	colW    int
	headers []header
	cells   []cell
}

func layout(res *theme.Result, opts Options) *sheet {
	opts = opts.normalized()
	s := &sheet{opts: opts}
	pad := max(opts.Size/4, 4)

	s.colW = opts.Size
	if opts.Labels {
		for _, v := range theme.Variants() {
			for k := range res.Get(v) {
				if k.IsColor() {
					s.colW = max(s.colW, len(k)*glyphW)
				}
			}
		}
	}
	rowH := opts.Size + pad
	if opts.Labels {
		rowH += labelH
	}

	y := pad
	for _, v := range theme.Variants() {
		keys := colorKeys(res.Get(v))
		if len(keys) == 0 {
			continue
		}
		if opts.Labels {
			s.headers = append(s.headers, header{label: v.String() + " " + v.Selector(), x: pad, y: y})
			y += headerH
		}
		t := res.Get(v)
		for i, k := range keys {
			c := cell{key: k, value: t[k], alpha: 1,
				x: pad + (i%opts.Columns)*(s.colW+pad),
				y: y + (i/opts.Columns)*rowH,
			}
			if hex, ok := t.PickerHex(k); ok {
				c.rgb, c.alpha = splitAlpha(hex)
			}
			s.cells = append(s.cells, c)
		}
		y += (len(keys) + opts.Columns - 1) / opts.Columns * rowH
	}
	s.w = pad + opts.Columns*(s.colW+pad)
	s.h = max(y, 2*pad)
	return s
}

func colorKeys(t theme.Tokens) []tokens.Key {
	var out []tokens.Key
	for _, k := range t.Keys() {
		if k.IsColor() {
			out = append(out, k)
		}
	}
	return out
}

// splitAlpha separates "#rrggbb[aa]" into colour and opacity.
func splitAlpha(hex string) (string, float64) {
	if len(hex) != 9 {
		return hex, 1
	}
	a, err := strconv.ParseUint(hex[7:], 16, 8)
	if err != nil {
		return hex[:7], 1
	}
	return hex[:7], float64(a) / 255
}

var (
	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// textOn picks black or white, whichever is more legible on background
// rgb, using WCAG relative luminance.
func textOn(rgb string) color.NRGBA {
	c, err := colorful.Hex(rgb)
	if err != nil {
		return black
	}
	r, g, b := c.LinearRgb()
	if 0.2126*r+0.7152*g+0.0722*b > 0.179 {
		return black
	}
	return white
}

func hexOf(c color.NRGBA) string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}
