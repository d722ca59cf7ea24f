package mask

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_LoadLetterbox(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		w, h int
	}{
		{name: "landscape", w: 40, h: 20},
		{name: "portrait", w: 20, h: 40},
		{name: "square", w: 30, h: 30},
		{name: "odd padding", w: 31, h: 10},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := loadedEngine(t, tt.w, tt.h, Options{})
			size := max(tt.w, tt.h)
			require.Equal(t, size, e.Size())

			offX, offY := (size-tt.w)/2, (size-tt.h)/2
			s := e.Surface()
			for y := 0; y < size; y++ {
				for x := 0; x < size; x++ {
					inPhoto := x >= offX && x < offX+tt.w && y >= offY && y < offY+tt.h
					want := white
					if inPhoto {
						want = red
					}
					if !assert.Equal(t, want, s.Pixel(x, y), "pixel (%d, %d)", x, y) {
						return
					}
				}
			}
			assert.Equal(t, StateIdle, e.State())
		})
	}
}

func TestEngine_LoadJPEG(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solidPhoto(24, 12, red), &jpeg.Options{Quality: 90}))

	e := New(Options{})
	require.NoError(t, e.Load(buf.Bytes()))
	assert.Equal(t, 24, e.Size())
	assert.Equal(t, white, e.Surface().Pixel(0, 0))
	assert.Equal(t, uint8(255), e.Surface().Pixel(12, 12).A)
}

func TestEngine_LoadDecodeError(t *testing.T) {
	t.Parallel()

	e := New(Options{})
	err := e.Load([]byte("definitely not a photo"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPhotoDecode)
	var decodeErr *PhotoDecodeError
	assert.True(t, errors.As(err, &decodeErr))
	assert.False(t, e.Initialized())

	require.NoError(t, e.Load(encodePNG(t, solidPhoto(8, 4, red))))
	assert.ErrorIs(t, e.Load(nil), ErrPhotoDecode)
	assert.Equal(t, 8, e.Size(), "failed load keeps the previous surface")

	assert.ErrorIs(t, e.LoadImage(image.NewNRGBA(image.Rectangle{})), ErrPhotoDecode)
}

func TestEngine_Uninitialized(t *testing.T) {
	t.Parallel()

	e := New(Options{})
	ev := display(10, 1, 1)

	assert.ErrorIs(t, e.PointerDown(ev), ErrUninitializedSurface)
	assert.ErrorIs(t, e.PointerMove(ev), ErrUninitializedSurface)
	assert.ErrorIs(t, e.PointerUp(), ErrUninitializedSurface)
	assert.ErrorIs(t, e.PointerLeave(), ErrUninitializedSurface)
	assert.ErrorIs(t, e.Reset(), ErrUninitializedSurface)

	artifact, err := e.Export()
	assert.Nil(t, artifact)
	assert.ErrorIs(t, err, ErrMaskExport)
	assert.ErrorIs(t, err, ErrUninitializedSurface)

	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, 0, e.Size())
}

func TestEngine_StrokeBand(t *testing.T) {
	t.Parallel()

	const radius = 5.0
	e := loadedEngine(t, 100, 100, Options{BrushRadius: radius})

	require.NoError(t, e.PointerDown(display(100, 10, 10)))
	assert.Equal(t, StateStroking, e.State())
	require.NoError(t, e.PointerMove(display(100, 50, 50)))
	require.NoError(t, e.PointerUp())
	assert.Equal(t, StateIdle, e.State())

	a, b := Point{X: 10, Y: 10}, Point{X: 50, Y: 50}
	s := e.Surface()
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			d := distToSegment(float64(x)+0.5, float64(y)+0.5, a, b)
			if math.Abs(d-radius) < 1e-6 {
				continue
			}
			alpha := s.Pixel(x, y).A
			if d < radius {
				require.Equal(t, uint8(0), alpha, "pixel (%d, %d) inside band", x, y)
			} else {
				require.Equal(t, uint8(255), alpha, "pixel (%d, %d) outside band", x, y)
			}
		}
	}

	// 沿路径连续
	for i := 0; i <= 40; i++ {
		assert.Equal(t, uint8(0), s.Pixel(10+i, 10+i).A)
	}
	// 带宽约为 2 * radius
	width := 0
	for x := 0; x < 100; x++ {
		if s.Pixel(x, 30).A == 0 {
			width++
		}
	}
	assert.InDelta(t, 2*radius*math.Sqrt2, float64(width), 2)
}

func TestEngine_StrokeScalesWithDisplay(t *testing.T) {
	t.Parallel()

	const radius = 4.0
	for _, k := range []float64{0.5, 1, 2, 4} {
		e := loadedEngine(t, 100, 100, Options{BrushRadius: radius})

		// 画布显示为 100/k 宽，显示坐标 50/k 映射到画布 (50, 50)
		ev := PointerEvent{
			ClientX: 50 / k,
			ClientY: 50 / k,
			Rect:    Rect{Width: 100 / k, Height: 100 / k},
		}
		m, ok := MapPointer(100, ev)
		require.True(t, ok)
		assert.InDelta(t, 50, m.X, 1e-9)
		assert.InDelta(t, k, m.Scale, 1e-9)

		require.NoError(t, e.PointerDown(ev))
		require.NoError(t, e.PointerMove(ev))
		require.NoError(t, e.PointerUp())

		r := radius * k
		center := Point{X: 50, Y: 50}
		for y := 0; y < 100; y++ {
			for x := 0; x < 100; x++ {
				d := distToSegment(float64(x)+0.5, float64(y)+0.5, center, center)
				if math.Abs(d-r) < 1e-6 {
					continue
				}
				want := uint8(255)
				if d < r {
					want = 0
				}
				require.Equal(t, want, e.Surface().Pixel(x, y).A, "k=%v pixel (%d, %d)", k, x, y)
			}
		}
	}
}

func TestEngine_InvalidTransitionsAreNoops(t *testing.T) {
	t.Parallel()

	e := loadedEngine(t, 50, 50, Options{BrushRadius: 3})
	before := e.Surface().snapshot()

	// 没有按下就移动
	require.NoError(t, e.PointerMove(display(50, 10, 10)))
	require.NoError(t, e.PointerMove(display(50, 40, 40)))
	assert.Equal(t, before.Pix, e.Surface().pix.Pix)

	// 离开之后继续移动
	require.NoError(t, e.PointerDown(display(50, 5, 5)))
	require.NoError(t, e.PointerLeave())
	require.NoError(t, e.PointerMove(display(50, 45, 45)))
	assert.Equal(t, before.Pix, e.Surface().pix.Pix)
	assert.Equal(t, StateIdle, e.State())

	// 未布局的显示区域和非法坐标被忽略
	zero := PointerEvent{ClientX: 10, ClientY: 10}
	require.NoError(t, e.PointerDown(zero))
	assert.Equal(t, StateIdle, e.State())
	require.NoError(t, e.PointerDown(display(50, 5, 5)))
	require.NoError(t, e.PointerMove(display(50, math.NaN(), 5)))
	require.NoError(t, e.PointerMove(zero))
	assert.Equal(t, before.Pix, e.Surface().pix.Pix)
	assert.Equal(t, StateStroking, e.State())
}

func TestEngine_ResetIdempotent(t *testing.T) {
	t.Parallel()

	e := loadedEngine(t, 60, 30, Options{BrushRadius: 6})
	fresh := e.Surface().snapshot()

	require.NoError(t, e.PointerDown(display(60, 5, 5)))
	require.NoError(t, e.PointerMove(display(60, 55, 40)))
	assert.NotEqual(t, fresh.Pix, e.Surface().pix.Pix)

	require.NoError(t, e.Reset())
	once := e.Surface().snapshot()
	assert.Equal(t, fresh.Pix, once.Pix)
	assert.Equal(t, StateIdle, e.State())

	require.NoError(t, e.Reset())
	assert.Equal(t, once.Pix, e.Surface().pix.Pix)
}

func TestEngine_LoadImageKeepsOwnCopy(t *testing.T) {
	t.Parallel()

	blue := color.NRGBA{B: 255, A: 255}
	photo := solidPhoto(10, 10, red)

	e := New(Options{})
	require.NoError(t, e.LoadImage(photo))
	fresh := e.Surface().snapshot()

	// 调用方之后修改自己的图片，不影响画布，也不影响 Reset
	photo.SetNRGBA(5, 5, blue)
	assert.Equal(t, red, e.Surface().Pixel(5, 5))

	require.NoError(t, e.Reset())
	assert.Equal(t, red, e.Surface().Pixel(5, 5))
	assert.Equal(t, fresh.Pix, e.Surface().pix.Pix)
}

func TestEngine_ExportIsPure(t *testing.T) {
	t.Parallel()

	e := loadedEngine(t, 64, 64, Options{BrushRadius: 4})
	require.NoError(t, e.PointerDown(display(64, 8, 8)))
	require.NoError(t, e.PointerMove(display(64, 56, 8)))
	require.NoError(t, e.PointerUp())
	before := e.Surface().snapshot()

	first, err := e.Export()
	require.NoError(t, err)
	second, err := e.Export()
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, before.Pix, e.Surface().pix.Pix)
	assert.Equal(t, MaskFilename, first.Filename)
	assert.Equal(t, MaskMIMEType, first.MIMEType)
	assert.Equal(t, 64, first.Size)

	img, err := first.Image()
	require.NoError(t, err)
	assert.Equal(t, before.Pix, img.Pix)

	n, err := first.TransparentCount()
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestEngine_ExportKeepsAlphaChannel(t *testing.T) {
	t.Parallel()

	e := loadedEngine(t, 16, 9, Options{})
	artifact, err := e.Export()
	require.NoError(t, err)

	// IHDR color type 在第 25 个字节
	require.Greater(t, len(artifact.Data), 26)
	assert.Equal(t, byte(6), artifact.Data[25])

	n, err := artifact.TransparentCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEngine_ExportEndsInFlightStroke(t *testing.T) {
	t.Parallel()

	e := loadedEngine(t, 40, 40, Options{BrushRadius: 2})
	require.NoError(t, e.PointerDown(display(40, 5, 5)))
	require.NoError(t, e.PointerMove(display(40, 20, 5)))

	artifact, err := e.Export()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, e.State())

	// 导出后的移动不会再擦除
	require.NoError(t, e.PointerMove(display(40, 20, 35)))
	again, err := e.Export()
	require.NoError(t, err)
	assert.Equal(t, artifact.Data, again.Data)
}

type flakyEncoder struct {
	failures int
}

func (f *flakyEncoder) Encode(w io.Writer, img image.Image) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	return PNGEncoder{}.Encode(w, img)
}

func TestEngine_ExportErrorIsRetryable(t *testing.T) {
	t.Parallel()

	e := loadedEngine(t, 20, 20, Options{Encoder: &flakyEncoder{failures: 1}})
	require.NoError(t, e.PointerDown(display(20, 2, 2)))
	require.NoError(t, e.PointerMove(display(20, 18, 18)))

	artifact, err := e.Export()
	assert.Nil(t, artifact)
	assert.ErrorIs(t, err, ErrMaskExport)
	var exportErr *MaskExportError
	require.True(t, errors.As(err, &exportErr))
	assert.EqualError(t, exportErr.Err, "disk full")
	assert.True(t, e.Initialized())

	artifact, err = e.Export()
	require.NoError(t, err)
	n, err := artifact.TransparentCount()
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestEngine_ExportRoundTrip(t *testing.T) {
	t.Parallel()

	e := loadedEngine(t, 48, 30, Options{BrushRadius: 5})
	require.NoError(t, e.PointerDown(display(48, 4, 24)))
	require.NoError(t, e.PointerMove(display(48, 40, 20)))
	require.NoError(t, e.PointerUp())

	first, err := e.Export()
	require.NoError(t, err)

	imported := New(Options{})
	require.NoError(t, imported.Import(first.Data))
	assert.Equal(t, 48, imported.Size())
	second, err := imported.Export()
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)

	// 导入后的重置回到导入时的蒙版
	require.NoError(t, imported.PointerDown(display(48, 1, 1)))
	require.NoError(t, imported.PointerMove(display(48, 46, 46)))
	require.NoError(t, imported.Reset())
	third, err := imported.Export()
	require.NoError(t, err)
	assert.Equal(t, first.Data, third.Data)

	assert.ErrorIs(t, imported.Import([]byte("junk")), ErrPhotoDecode)
}

func TestEngine_Complete(t *testing.T) {
	t.Parallel()

	var got *MaskArtifact
	e := loadedEngine(t, 10, 10, Options{OnComplete: func(a *MaskArtifact) { got = a }})

	artifact, err := e.Complete()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, artifact.ID, got.ID)

	e.Close()
	_, err = e.Complete()
	assert.ErrorIs(t, err, ErrUninitializedSurface)
}

func TestEngine_MaxSide(t *testing.T) {
	t.Parallel()

	e := loadedEngine(t, 400, 200, Options{MaxSide: 100})
	assert.Equal(t, 100, e.Size())
	assert.Equal(t, white, e.Surface().Pixel(50, 10))
	assert.Equal(t, uint8(255), e.Surface().Pixel(50, 50).A)
}

func TestEngine_CustomBackground(t *testing.T) {
	t.Parallel()

	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	e := loadedEngine(t, 10, 4, Options{Background: gray})
	assert.Equal(t, gray, e.Surface().Pixel(0, 0))
	assert.Equal(t, red, e.Surface().Pixel(0, 5))
}

func TestEngine_CloseReleases(t *testing.T) {
	t.Parallel()

	e := loadedEngine(t, 10, 10, Options{})
	require.NoError(t, e.PointerDown(display(10, 1, 1)))
	e.Close()

	assert.False(t, e.Initialized())
	assert.Nil(t, e.source)
	assert.Equal(t, StateIdle, e.State())
	assert.ErrorIs(t, e.Reset(), ErrUninitializedSurface)

	require.NoError(t, e.Load(encodePNG(t, solidPhoto(6, 6, red))))
	assert.Equal(t, 6, e.Size())
}
