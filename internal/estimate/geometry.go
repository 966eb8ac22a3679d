package estimate

import (
	"fmt"
	"math"

	"github.com/ironsheep/panel-area-mcp/internal/catalog"
)

// ImageDimensions is the size of the analysed image in pixels.
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate rejects non-positive dimensions.
func (d ImageDimensions) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", d.Width, d.Height)
	}
	return nil
}

// PixelBox is a region given by absolute pixel corners.
type PixelBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center returns the box centre in pixels.
func (b PixelBox) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Normalize expresses the box as centre and size fractions of the image.
// Corner order does not matter.
func (b PixelBox) Normalize(d ImageDimensions) NormalizedBox {
	w, h := float64(d.Width), float64(d.Height)
	cx, cy := b.Center()
	return NormalizedBox{
		CenterX: cx / w,
		CenterY: cy / h,
		Width:   math.Abs(b.X2-b.X1) / w,
		Height:  math.Abs(b.Y2-b.Y1) / h,
	}
}

// NormalizedBox is a centre/size box in fractions of the image dimensions.
type NormalizedBox struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// PixelCenter scales the centre back to pixel coordinates.
func (b NormalizedBox) PixelCenter(d ImageDimensions) (x, y float64) {
	return b.CenterX * float64(d.Width), b.CenterY * float64(d.Height)
}

// PixelArea is the box area in square pixels.
func (b NormalizedBox) PixelArea(d ImageDimensions) float64 {
	return (b.Width * float64(d.Width)) * (b.Height * float64(d.Height))
}

// PixelBox converts back to pixel corners.
func (b NormalizedBox) PixelBox(d ImageDimensions) PixelBox {
	cx, cy := b.PixelCenter(d)
	hw, hh := b.Width*float64(d.Width)/2, b.Height*float64(d.Height)/2
	return PixelBox{X1: cx - hw, Y1: cy - hh, X2: cx + hw, Y2: cy + hh}
}

// Detection is one object reported by the detector.
type Detection struct {
	Label catalog.ClassID `json:"label"`
	BBox  NormalizedBox   `json:"bbox"`
}

// FromPixelXYWH builds a Detection from a pixel-unit centre/size box, the
// form most YOLO-style detectors emit.
func FromPixelXYWH(label catalog.ClassID, cx, cy, w, h float64, d ImageDimensions) Detection {
	iw, ih := float64(d.Width), float64(d.Height)
	return Detection{
		Label: label,
		BBox: NormalizedBox{
			CenterX: cx / iw,
			CenterY: cy / ih,
			Width:   w / iw,
			Height:  h / ih,
		},
	}
}

func distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// round2 rounds to two decimals, halves to even.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
