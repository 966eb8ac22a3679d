package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Box is a labelled pixel rectangle to draw on an overlay. Coordinates are
// relative to the image's top-left corner.
type Box struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Label string  `json:"label"`
	// Class selects the palette colour; equal classes share a colour.
	Class int `json:"class"`
}

// AnnotateOptions controls Annotate.
type AnnotateOptions struct {
	// Target is the region being measured. It is left at full brightness and
	// outlined in TargetColor.
	Target Box
	// Objects are detector boxes. The one at index Chosen (if any) is drawn
	// thicker; pass -1 for none.
	Objects []Box
	Chosen  int
	// Dim darkens everything outside the target, in [0,1). Zero disables.
	Dim float64
}

// TargetColor outlines the measured region.
var TargetColor = color.RGBA{R: 255, G: 214, B: 0, A: 255}

// AnnotateResult is the rendered overlay as base64 PNG.
type AnnotateResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Annotate renders the target region and detector boxes over img.
func Annotate(img image.Image, opts AnnotateOptions) (*AnnotateResult, error) {
	src := img.Bounds()
	width, height := src.Dx(), src.Dy()

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	if opts.Dim > 0 {
		dimmed := adjust.Brightness(img, -math.Min(opts.Dim, 0.95))
		draw.Draw(canvas, canvas.Bounds(), dimmed, dimmed.Bounds().Min, draw.Src)

		target := boxRect(opts.Target).Intersect(canvas.Bounds())
		draw.Draw(canvas, target, img, target.Min.Add(src.Min), draw.Src)
	} else {
		draw.Draw(canvas, canvas.Bounds(), img, src.Min, draw.Src)
	}

	for i, b := range opts.Objects {
		thickness := 1
		if i == opts.Chosen {
			thickness = 3
		}
		c := ClassColor(b.Class)
		strokeRect(canvas, boxRect(b), thickness, c)
		if b.Label != "" {
			drawLabel(canvas, boxRect(b), b.Label, c)
		}
	}

	strokeRect(canvas, boxRect(opts.Target), 3, TargetColor)
	if opts.Target.Label != "" {
		drawLabel(canvas, boxRect(opts.Target), opts.Target.Label, TargetColor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}

	return &AnnotateResult{
		Width:       width,
		Height:      height,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// ClassColor returns a stable, well separated colour for a class id by
// stepping the hue by the golden angle.
func ClassColor(class int) color.RGBA {
	hue := math.Mod(float64(class)*137.508, 360)
	if hue < 0 {
		hue += 360
	}
	r, g, b := colorful.Hsv(hue, 0.8, 0.95).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func boxRect(b Box) image.Rectangle {
	return image.Rect(
		int(math.Floor(math.Min(b.X1, b.X2))),
		int(math.Floor(math.Min(b.Y1, b.Y2))),
		int(math.Ceil(math.Max(b.X1, b.X2))),
		int(math.Ceil(math.Max(b.Y1, b.Y2))),
	)
}

// strokeRect draws a rectangle outline inside r.
func strokeRect(img *image.RGBA, r image.Rectangle, thickness int, c color.RGBA) {
	bounds := img.Bounds()
	set := func(x, y int) {
		if image.Pt(x, y).In(bounds) {
			img.SetRGBA(x, y, c)
		}
	}

	for t := 0; t < thickness; t++ {
		top, bottom := r.Min.Y+t, r.Max.Y-1-t
		left, right := r.Min.X+t, r.Max.X-1-t
		if top > bottom || left > right {
			break
		}
		for x := left; x <= right; x++ {
			set(x, top)
			set(x, bottom)
		}
		for y := top; y <= bottom; y++ {
			set(left, y)
			set(right, y)
		}
	}
}

// drawLabel writes text on a filled tag just above r, or inside its top edge
// when there is no room above.
func drawLabel(img *image.RGBA, r image.Rectangle, text string, bg color.RGBA) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()

	tag := image.Rect(r.Min.X, r.Min.Y-textHeight-2, r.Min.X+textWidth+4, r.Min.Y)
	if tag.Min.Y < img.Bounds().Min.Y {
		tag = tag.Add(image.Pt(0, textHeight+2))
	}
	draw.Draw(img, tag.Intersect(img.Bounds()), image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelInk(bg)),
		Face: face,
		Dot:  fixed.P(tag.Min.X+2, tag.Min.Y+1+metrics.Ascent.Ceil()),
	}
	d.DrawString(text)
}

// labelInk picks black or white text for legibility on bg.
func labelInk(bg color.RGBA) color.Color {
	c, _ := colorful.MakeColor(bg)
	if _, _, l := c.Hsl(); l > 0.55 {
		return color.Black
	}
	return color.White
}
