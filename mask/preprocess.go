package mask

import (
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// resizeWithinMax 缩放（最长边 <= maxSize），maxSize <= 0 不缩放
func resizeWithinMax(img *image.NRGBA, maxSize int) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longest := max(w, h)

	if maxSize <= 0 || longest <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(longest)
	newW := max(1, int(float64(w)*scale+0.5))
	newH := max(1, int(float64(h)*scale+0.5))

	resized := resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
	return toNRGBA(resized)
}

// toNRGBA 转为原点在 (0, 0) 的 NRGBA
func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Bounds().Min == (image.Point{}) {
		return nrgba
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ownedNRGBA 和 toNRGBA 相同，但总是返回新分配的图片，之后调用方修改 img 不会影响结果
func ownedNRGBA(img image.Image) *image.NRGBA {
	src := toNRGBA(img)
	if src != img {
		return src
	}
	dst := image.NewNRGBA(src.Bounds())
	copyNRGBA(dst, dst.Bounds(), src, image.Point{})
	return dst
}
