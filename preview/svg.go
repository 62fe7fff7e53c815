package preview

import (
	"io"
	"strconv"

	"github.com/beevik/etree"

	"themeport/theme"
)

const (
	outlineColor = "#808080"
	missingColor = "#c0c0c0"
)

// SVG builds swatch sheet document for theme.
func SVG(res *theme.Result, opts Options) *etree.Document {
	return layout(res, opts).document(true)
}

// WriteSVG writes indented swatch sheet document to w.
func WriteSVG(w io.Writer, res *theme.Result, opts Options) error {
	doc := SVG(res, opts)
	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

// document renders sheet geometry, text elements are optional since the
// rasterizer does not handle them.
func (s *sheet) document(withText bool) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	svg.CreateAttr("width", strconv.Itoa(s.w))
	svg.CreateAttr("height", strconv.Itoa(s.h))
	svg.CreateAttr("viewBox", "0 0 "+strconv.Itoa(s.w)+" "+strconv.Itoa(s.h))

	bg := svg.CreateElement("rect")
	bg.CreateAttr("width", strconv.Itoa(s.w))
	bg.CreateAttr("height", strconv.Itoa(s.h))
	bg.CreateAttr("fill", "#ffffff")

	size := strconv.Itoa(s.opts.Size)
	for _, c := range s.cells {
		g := svg.CreateElement("g")
		g.CreateAttr("id", "swatch-"+c.key.String())

		r := g.CreateElement("rect")
		r.CreateAttr("x", strconv.Itoa(c.x))
		r.CreateAttr("y", strconv.Itoa(c.y))
		r.CreateAttr("width", size)
		r.CreateAttr("height", size)
		switch {
		case c.rgb == "":
			r.CreateAttr("fill", missingColor)
			r.CreateAttr("fill-opacity", "0.3")
		case c.alpha < 1:
			r.CreateAttr("fill", c.rgb)
			r.CreateAttr("fill-opacity", strconv.FormatFloat(c.alpha, 'f', 3, 64))
		default:
			r.CreateAttr("fill", c.rgb)
		}
		r.CreateAttr("stroke", outlineColor)
		r.CreateAttr("stroke-width", "1")

		if !withText {
			continue
		}
		g.CreateElement("title").SetText(c.key.CustomProperty() + ": " + c.value)
		if s.opts.Labels {
			text(g, c.x, c.y+s.opts.Size+glyphH, c.key.String())
		}
	}
	if withText {
		for _, h := range s.headers {
			text(svg, h.x, h.y+glyphH, h.label)
		}
	}
	return doc
}

func text(parent *etree.Element, x, y int, label string) {
	t := parent.CreateElement("text")
	t.CreateAttr("x", strconv.Itoa(x))
	t.CreateAttr("y", strconv.Itoa(y))
	t.CreateAttr("font-family", "monospace")
	t.CreateAttr("font-size", "11")
	t.CreateAttr("fill", "#000000")
	t.SetText(label)
}
