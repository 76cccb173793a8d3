package qrcode

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"regexp"
	"strconv"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"

	"menuqr/internal/models"
	"menuqr/internal/pdf"
)

func decodeImage(t *testing.T, img image.Image) string {
	t.Helper()
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		t.Fatalf("bitmap: %v", err)
	}
	res, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res.GetText()
}

var svgViewBox = regexp.MustCompile(`viewBox="0 0 (\d+) (\d+)"`)
var svgModule = regexp.MustCompile(`<rect x="(\d+)" y="(\d+)" width="1" height="1"/>`)

// rasterizeSVG paints the module rects of a rendered SVG for decoding.
func rasterizeSVG(t *testing.T, svg []byte) image.Image {
	t.Helper()
	m := svgViewBox.FindSubmatch(svg)
	if m == nil {
		t.Fatalf("no viewBox in svg")
	}
	total, _ := strconv.Atoi(string(m[1]))
	const px = 6
	img := image.NewGray(image.Rect(0, 0, total*px, total*px))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	black := image.NewUniform(color.Black)
	for _, r := range svgModule.FindAllSubmatch(svg, -1) {
		x, _ := strconv.Atoi(string(r[1]))
		y, _ := strconv.Atoi(string(r[2]))
		draw.Draw(img, image.Rect(x*px, y*px, (x+1)*px, (y+1)*px), black, image.Point{}, draw.Src)
	}
	return img
}

func TestRenderPNGDecodes(t *testing.T) {
	const url = "https://menu.example.test/r/42?table=7"
	b, err := RenderPNG(url)
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	if got := decodeImage(t, img); got != url {
		t.Fatalf("decoded %q, want %q", got, url)
	}
}

func TestRenderSVGDecodes(t *testing.T) {
	const url = "https://x.test"
	b, err := RenderSVG(url)
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("<?xml")) {
		t.Fatalf("not an svg document: %.40q", b)
	}
	if got := decodeImage(t, rasterizeSVG(t, b)); got != url {
		t.Fatalf("decoded %q, want %q", got, url)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer(pdf.NewSheetGenerator("Test Menu", ""))
	for _, f := range []models.QRFormat{models.FormatPNG, models.FormatSVG, models.FormatPDF} {
		a, err := r.Render("https://x.test/menu", f)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		b, err := r.Render("https://x.test/menu", f)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("%s: two renders of the same input differ", f)
		}
	}
}

func TestRenderPDFHeader(t *testing.T) {
	r := NewRenderer(pdf.NewSheetGenerator("Test Menu", ""))
	b, err := r.Render("https://x.test", models.FormatPDF)
	if err != nil {
		t.Fatalf("Render pdf: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("missing pdf header")
	}
}

func TestRenderRejects(t *testing.T) {
	r := NewRenderer(pdf.NewSheetGenerator("Test Menu", ""))
	if _, err := r.Render("  ", models.FormatPNG); err == nil {
		t.Error("empty url accepted")
	}
	if _, err := r.Render("https://x.test", models.QRFormat("gif")); err == nil {
		t.Error("unknown format accepted")
	}
}
