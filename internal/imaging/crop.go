package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
)

// CropResult is a cropped region encoded as base64 PNG.
type CropResult struct {
	// Region is the clamped pixel rectangle that was cut out, relative to the
	// image's top-left corner.
	X1          int    `json:"x1"`
	Y1          int    `json:"y1"`
	X2          int    `json:"x2"`
	Y2          int    `json:"y2"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropRegion cuts the box (x1,y1)-(x2,y2) out of img, grown by padding pixels
// on each side and clamped to the image, then optionally rescaled.
//
// Corners may be given in either order and may be fractional; they are
// rounded outward. A region that is empty after clamping is an error.
func CropRegion(img image.Image, x1, y1, x2, y2 float64, padding int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()

	left := int(math.Floor(math.Min(x1, x2))) - padding
	top := int(math.Floor(math.Min(y1, y2))) - padding
	right := int(math.Ceil(math.Max(x1, x2))) + padding
	bottom := int(math.Ceil(math.Max(y1, y2))) + padding

	rect := image.Rect(left, top, right, bottom).Add(bounds.Min).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("crop region (%v,%v)-(%v,%v) does not overlap the %dx%d image",
			x1, y1, x2, y2, bounds.Dx(), bounds.Dy())
	}

	cropped := imaging.Crop(img, rect)

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	rel := rect.Sub(bounds.Min)
	return &CropResult{
		X1:          rel.Min.X,
		Y1:          rel.Min.Y,
		X2:          rel.Max.X,
		Y2:          rel.Max.Y,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
