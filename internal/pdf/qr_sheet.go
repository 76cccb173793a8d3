package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// sheetDate is stamped into every sheet so the same input renders to the
// same bytes.
var sheetDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Generator: интерфейс, в тестах легко подменить
type Generator interface {
	QRSheet(data QRSheetData) ([]byte, error)
}

type QRSheetData struct {
	URL string
	PNG []byte // готовый QR в PNG
}

// SheetGenerator renders a branded one-page A4 sheet around a QR image.
type SheetGenerator struct {
	Brand    string
	FontPath string // TTF с кириллицей; если пусто, core Helvetica
	fontName string
}

func NewSheetGenerator(brand, fontPath string) *SheetGenerator {
	g := &SheetGenerator{Brand: brand, FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

func (g *SheetGenerator) QRSheet(data QRSheetData) ([]byte, error) {
	if len(data.PNG) == 0 {
		return nil, fmt.Errorf("qr sheet: empty image")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(sheetDate)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(g.Brand+" QR", true)
	pdf.SetAuthor(g.Brand, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 20)

	g.addUTF8Font(pdf)
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont(g.fontName, "B", 22)
	pdf.CellFormat(0, 12, g.Brand, "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 13)
	pdf.CellFormat(0, 8, "Scan to open the menu", "", 1, "C", false, 0, "")
	g.hr(pdf)

	// ===== QR
	const side = 120.0
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(data.PNG))
	x := (210 - side) / 2
	y := pdf.GetY() + 10
	pdf.ImageOptions("qr", x, y, side, side, false, opts, 0, "")
	pdf.SetY(y + side + 10)
	g.hr(pdf)

	// ===== Подпись с адресом
	g.sectionTitle(pdf, "Link")
	pdf.MultiCell(0, 6, strings.TrimSpace(data.URL), "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("qr sheet: %w", err)
	}
	return buf.Bytes(), nil
}

// ===== helpers =====

func (g *SheetGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *SheetGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *SheetGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	if g.FontPath == "" {
		return
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}
