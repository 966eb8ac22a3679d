package imaging

import (
	"image/color"
	"testing"
)

func TestCropRegion(t *testing.T) {
	img := createInMemoryImage(200, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		padding        int
		scale          float64
		wantW, wantH   int
		wantX1, wantY1 int
	}{
		{"plain", 10, 20, 60, 70, 0, 1, 50, 50, 10, 20},
		{"reversed corners", 60, 70, 10, 20, 0, 1, 50, 50, 10, 20},
		{"fractional rounds outward", 10.5, 20.5, 59.2, 69.9, 0, 1, 50, 50, 10, 20},
		{"padding", 10, 20, 60, 70, 5, 1, 60, 60, 5, 15},
		{"clamped to image", -50, -50, 250, 150, 0, 1, 200, 100, 0, 0},
		{"scaled up", 0, 0, 50, 50, 0, 2, 100, 100, 0, 0},
		{"scaled down", 0, 0, 100, 100, 0, 0.5, 50, 50, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CropRegion(img, tt.x1, tt.y1, tt.x2, tt.y2, tt.padding, tt.scale)
			if err != nil {
				t.Fatalf("CropRegion failed: %v", err)
			}
			if res.Width != tt.wantW || res.Height != tt.wantH {
				t.Errorf("size: got %dx%d, want %dx%d", res.Width, res.Height, tt.wantW, tt.wantH)
			}
			if res.X1 != tt.wantX1 || res.Y1 != tt.wantY1 {
				t.Errorf("origin: got (%d,%d), want (%d,%d)", res.X1, res.Y1, tt.wantX1, tt.wantY1)
			}
			if res.MimeType != "image/png" {
				t.Errorf("MimeType: got %s", res.MimeType)
			}

			out := decodeResult(t, res.ImageBase64)
			if out.Bounds().Dx() != tt.wantW {
				t.Errorf("decoded width: got %d", out.Bounds().Dx())
			}
		})
	}
}

func TestCropRegion_OutsideImage(t *testing.T) {
	img := createInMemoryImage(50, 50, color.White)

	for _, box := range [][4]float64{
		{60, 60, 80, 80},
		{-30, -30, -10, -10},
		{10, 10, 10, 10},
	} {
		if _, err := CropRegion(img, box[0], box[1], box[2], box[3], 0, 1); err == nil {
			t.Errorf("%v: expected error", box)
		}
	}
}
