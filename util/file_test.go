package util

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	t.Parallel()

	img, format, err := DecodeImage(pngBytes(t, 4, 3))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())

	_, _, err = DecodeImage(nil)
	assert.EqualError(t, err, "empty image data")

	_, _, err = DecodeImage([]byte("not an image"))
	assert.ErrorContains(t, err, "decode image")
}

func TestLoadPhoto_Local(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "photo.png")
	want := pngBytes(t, 2, 5)
	require.NoError(t, os.WriteFile(path, want, 0o600))

	data, err := LoadPhoto(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, want, data)

	_, err = LoadPhoto(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorContains(t, err, "read file")
}

func TestLoadPhoto_Remote(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 6, 6)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer server.Close()

	got, err := LoadPhoto(context.Background(), server.URL+"/photo.png")
	require.NoError(t, err)
	img, _, err := DecodeImage(got)
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dx())

	_, err = LoadPhoto(context.Background(), server.URL+"/missing")
	assert.ErrorContains(t, err, "status code 404")
}
