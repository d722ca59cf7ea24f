package mask

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func solidPhoto(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func loadedEngine(t *testing.T, w, h int, opts Options) *Engine {
	t.Helper()
	e := New(opts)
	require.NoError(t, e.Load(encodePNG(t, solidPhoto(w, h, red))))
	return e
}

// display 画布按 1:1 显示在 (0, 0)
func display(size int, x, y float64) PointerEvent {
	return PointerEvent{
		ClientX: x,
		ClientY: y,
		Rect:    Rect{Width: float64(size), Height: float64(size)},
	}
}

func distToSegment(px, py float64, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	wx, wy := px-a.X, py-a.Y
	l := vx*vx + vy*vy
	t := 0.0
	if l > 0 {
		t = math.Max(0, math.Min(1, (wx*vx+wy*vy)/l))
	}
	return math.Hypot(px-(a.X+t*vx), py-(a.Y+t*vy))
}
