package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/xiaot623/visionassist/internal/domain"
)

// BoxColor is the outline colour of a detection.
var BoxColor = color.RGBA{R: 255, A: 255}

// BoxThickness is the outline width in pixels.
const BoxThickness = 3

// Annotate returns a copy of img with a rectangle around every detection.
// The source image is never modified.
func Annotate(img image.Image, dets []domain.Detection) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	fill := image.NewUniform(BoxColor)
	for _, d := range dets {
		box := image.Rect(
			b.Min.X+int(math.Round(d.BBox[0])),
			b.Min.Y+int(math.Round(d.BBox[1])),
			b.Min.X+int(math.Round(d.BBox[2])),
			b.Min.Y+int(math.Round(d.BBox[3])),
		).Intersect(b)
		if box.Empty() {
			continue
		}
		for _, edge := range edges(box, BoxThickness) {
			draw.Draw(out, edge.Intersect(box), fill, image.Point{}, draw.Src)
		}
	}
	return out
}

// edges returns the four strips of width t lining the inside of r.
func edges(r image.Rectangle, t int) []image.Rectangle {
	return []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
