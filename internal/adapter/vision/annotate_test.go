package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xiaot623/visionassist/internal/domain"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAnnotateDrawsThreePixelBox(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	src := solidImage(40, 40, white)

	out := Annotate(src, []domain.Detection{{Label: "person", Confidence: 0.87, BBox: [4]float64{10, 10, 30, 30}}})

	assert.Equal(t, BoxColor, out.RGBAAt(10, 10))
	assert.Equal(t, BoxColor, out.RGBAAt(12, 20))
	assert.Equal(t, BoxColor, out.RGBAAt(29, 20))
	assert.Equal(t, BoxColor, out.RGBAAt(20, 27))
	assert.Equal(t, white, out.RGBAAt(13, 20), "inside the outline")
	assert.Equal(t, white, out.RGBAAt(20, 20), "centre")
	assert.Equal(t, white, out.RGBAAt(5, 5), "outside the box")

	assert.Equal(t, white, src.RGBAAt(10, 10), "source must stay untouched")
}

func TestAnnotateClipsToBounds(t *testing.T) {
	src := solidImage(20, 20, color.RGBA{0, 0, 0, 255})

	out := Annotate(src, []domain.Detection{
		{Label: "car", Confidence: 0.5, BBox: [4]float64{-10, -10, 50, 50}},
		{Label: "ghost", Confidence: 0.1, BBox: [4]float64{100, 100, 120, 120}},
	})

	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, BoxColor, out.RGBAAt(0, 0))
	assert.Equal(t, BoxColor, out.RGBAAt(19, 19))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, out.RGBAAt(10, 10))
}

func TestAnnotateNoDetections(t *testing.T) {
	src := solidImage(8, 8, color.RGBA{1, 2, 3, 255})
	out := Annotate(src, nil)
	assert.Equal(t, src.Pix, out.Pix)
}
