// Package qrcode turns a target URL into a QR artifact. The output depends
// only on (url, format), so a lost artifact can always be rebuilt.
package qrcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"

	"menuqr/internal/models"
	"menuqr/internal/pdf"
)

const (
	pixelsPerModule = 8
	quietZone       = 4 // modules
)

type Renderer struct {
	sheets pdf.Generator
}

func NewRenderer(sheets pdf.Generator) *Renderer {
	return &Renderer{sheets: sheets}
}

func (r *Renderer) Render(url string, format models.QRFormat) ([]byte, error) {
	switch format {
	case models.FormatPNG:
		return RenderPNG(url)
	case models.FormatSVG:
		return RenderSVG(url)
	case models.FormatPDF:
		img, err := RenderPNG(url)
		if err != nil {
			return nil, err
		}
		return r.sheets.QRSheet(pdf.QRSheetData{URL: url, PNG: img})
	}
	return nil, fmt.Errorf("unsupported qr format %q", format)
}

func encode(url string) (barcode.Barcode, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("qr encode: empty content")
	}
	code, err := qr.Encode(url, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return code, nil
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r+g+b < 3*0x8000
}

// RenderPNG draws the code with a white quiet zone around it.
func RenderPNG(url string) ([]byte, error) {
	code, err := encode(url)
	if err != nil {
		return nil, err
	}
	modules := code.Bounds().Dx()
	side := modules * pixelsPerModule
	scaled, err := barcode.Scale(code, side, side)
	if err != nil {
		return nil, fmt.Errorf("qr scale: %w", err)
	}

	margin := quietZone * pixelsPerModule
	canvas := image.NewGray(image.Rect(0, 0, side+2*margin, side+2*margin))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(margin, margin, margin+side, margin+side), scaled, scaled.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderSVG writes one 1x1 rect per dark module in a viewBox that includes
// the quiet zone.
func RenderSVG(url string) ([]byte, error) {
	code, err := encode(url)
	if err != nil {
		return nil, err
	}
	b := code.Bounds()
	modules := b.Dx()
	total := modules + 2*quietZone

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" shape-rendering="crispEdges">`+"\n",
		total, total, total*pixelsPerModule, total*pixelsPerModule)
	fmt.Fprintf(&buf, `<rect x="0" y="0" width="%d" height="%d" fill="#ffffff"/>`+"\n", total, total)
	buf.WriteString(`<g fill="#000000">` + "\n")
	for y := 0; y < modules; y++ {
		for x := 0; x < modules; x++ {
			if isDark(code.At(b.Min.X+x, b.Min.Y+y)) {
				fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="1" height="1"/>`+"\n", x+quietZone, y+quietZone)
			}
		}
	}
	buf.WriteString("</g>\n</svg>\n")
	return buf.Bytes(), nil
}
