package testutil

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
)

var (
	svgViewBox = regexp.MustCompile(`viewBox="0 0 (\d+) (\d+)"`)
	svgModule  = regexp.MustCompile(`<rect x="(\d+)" y="(\d+)" width="1" height="1"/>`)
)

// DecodeQR reads the text encoded in a rendered PNG or SVG artifact.
func DecodeQR(t *testing.T, data []byte) string {
	t.Helper()
	var img image.Image
	if bytes.HasPrefix(data, []byte("\x89PNG")) {
		var err error
		if img, err = png.Decode(bytes.NewReader(data)); err != nil {
			t.Fatalf("png decode: %v", err)
		}
	} else {
		img = rasterizeSVG(t, data)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		t.Fatalf("bitmap: %v", err)
	}
	res, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		t.Fatalf("qr decode: %v", err)
	}
	return res.GetText()
}

func rasterizeSVG(t *testing.T, svg []byte) image.Image {
	t.Helper()
	m := svgViewBox.FindSubmatch(svg)
	if m == nil {
		t.Fatalf("not a rendered svg: %.60q", svg)
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
