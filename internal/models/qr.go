package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QRFormat defines the rendered artifact type of a QR asset.
type QRFormat string

const (
	FormatPNG QRFormat = "png"
	FormatSVG QRFormat = "svg"
	FormatPDF QRFormat = "pdf"
)

// ParseQRFormat treats an empty value as png.
func ParseQRFormat(s string) (QRFormat, bool) {
	switch QRFormat(s) {
	case "":
		return FormatPNG, true
	case FormatPNG, FormatSVG, FormatPDF:
		return QRFormat(s), true
	}
	return "", false
}

func (f QRFormat) Extension() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatSVG:
		return "svg"
	case FormatPDF:
		return "pdf"
	}
	return "bin"
}

func (f QRFormat) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// QRAsset is the source of truth for a QR code; the stored file under
// ImageKey is only a cache of Render(URL, Format).
type QRAsset struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	URL        string             `bson:"url" json:"url"`
	Format     QRFormat           `bson:"format" json:"format"`
	Slug       string             `bson:"slug" json:"slug"`
	ImageKey   string             `bson:"imageKey" json:"imageKey"`
	ScanCount  int64              `bson:"scanCount" json:"scanCount"`
	LastScanAt *time.Time         `bson:"lastScanAt,omitempty" json:"lastScanAt,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type ScanEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	QRID      primitive.ObjectID `bson:"qrId" json:"qrId"`
	Slug      string             `bson:"slug" json:"slug"`
	UserAgent string             `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	Referer   string             `bson:"referer,omitempty" json:"referer,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type ScanMeta struct {
	UserAgent string
	Referer   string
}

type QRStats struct {
	TotalCodes     int64      `json:"totalCodes"`
	TotalScans     int64      `json:"totalScans"`
	ScansToday     int64      `json:"scansToday"`
	ScansThisWeek  int64      `json:"scansThisWeek"`
	LastScan       *ScanEvent `json:"lastScan,omitempty"`
	UniqueVisitors int64      `json:"uniqueVisitors"`
}
