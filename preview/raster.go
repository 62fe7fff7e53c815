package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"themeport/theme"
)

// maxRasterDim is the maximum pixel dimension (width or height) allowed when
// rasterizing. Large themes with big swatches are scaled down to fit.
var maxRasterDim = 8192

// Image renders swatch sheet as raster image.
func Image(res *theme.Result, opts Options) (image.Image, error) {
	s := layout(res, opts)

	var buf bytes.Buffer
	if _, err := s.document(false).WriteTo(&buf); err != nil {
		return nil, err
	}
	img, err := rasterize(buf.Bytes(), s.w, s.h)
	if err != nil {
		return nil, fmt.Errorf("unable to rasterize swatch sheet: %w", err)
	}
	if img.Bounds().Dx() == s.w && img.Bounds().Dy() == s.h {
		s.drawText(img)
	}
	return img, nil
}

// WritePNG encodes swatch sheet image as PNG.
func WritePNG(w io.Writer, res *theme.Result, opts Options) error {
	img, err := Image(res, opts)
	if err != nil {
		return err
	}
	return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
}

// rasterize renders SVG to RGBA image of requested size on white
// background, clamped to maxRasterDim preserving aspect ratio.
func rasterize(svgData []byte, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, err
	}

	w = max(w, 1)
	h = max(h, 1)
	if w > maxRasterDim || h > maxRasterDim {
		s := min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}

// drawText puts labels on unscaled sheet with bitmap font, hex values go
// inside swatches when they fit.
func (s *sheet) drawText(dst draw.Image) {
	d := &font.Drawer{Dst: dst, Face: basicfont.Face7x13}
	put := func(c color.Color, x, y int, str string) {
		d.Src = image.NewUniform(c)
		d.Dot = fixed.P(x, y)
		d.DrawString(str)
	}

	for _, c := range s.cells {
		if c.rgb != "" && s.opts.Size >= len(c.rgb)*glyphW+4 {
			put(textOn(c.rgb), c.x+2, c.y+s.opts.Size-4, c.rgb)
		}
		if s.opts.Labels {
			put(black, c.x, c.y+s.opts.Size+glyphH, c.key.String())
		}
	}
	for _, h := range s.headers {
		put(black, h.x, h.y+glyphH, h.label)
	}
}
