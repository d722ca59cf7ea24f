package mask

import (
	"image"
	"image/color"
)

// Surface 正方形的工作画布，原点在左上角，按行存储 RGBA。
// 初始化之后边长不再变化。
type Surface struct {
	size int
	pix  *image.NRGBA
}

func newSurface(size int) *Surface {
	return &Surface{
		size: size,
		pix:  image.NewNRGBA(image.Rect(0, 0, size, size)),
	}
}

// Size 画布边长（像素）
func (s *Surface) Size() int {
	return s.size
}

// Pixel 返回 (x, y) 处的像素，越界返回完全透明
func (s *Surface) Pixel(x, y int) color.NRGBA {
	if x < 0 || x >= s.size || y < 0 || y >= s.size {
		return color.NRGBA{}
	}
	return s.pix.NRGBAAt(x, y)
}

// snapshot 复制一份独立的像素缓冲，后续对画布的修改不影响它
func (s *Surface) snapshot() *image.NRGBA {
	dst := image.NewNRGBA(s.pix.Bounds())
	copy(dst.Pix, s.pix.Pix)
	return dst
}

// letterboxOffset 计算把 w×h 的图片居中放进正方形画布时的边长和偏移
func letterboxOffset(w, h int) (int, image.Point) {
	size := max(w, h)
	return size, image.Pt((size-w)/2, (size-h)/2)
}

// paintSource 清空画布，铺上背景色，再把 src 居中画上去。
// 照片用 ModeNormal 画；导入已有蒙版时用 ModeCopy 以保留透明区域。
func (s *Surface) paintSource(src image.Image, bg color.Color, mode CompositingMode) {
	b := src.Bounds()
	_, off := letterboxOffset(b.Dx(), b.Dy())

	s.fill(color.Transparent, ModeCopy)
	s.fill(bg, ModeNormal)
	s.drawImage(src, image.Rectangle{Min: off, Max: off.Add(b.Size())}, b.Min, mode)
}

// newLetterboxed 创建边长为 max(w, h) 的画布并绘制 src
func newLetterboxed(src image.Image, bg color.Color, mode CompositingMode) *Surface {
	b := src.Bounds()
	size, _ := letterboxOffset(b.Dx(), b.Dy())
	s := newSurface(size)
	s.paintSource(src, bg, mode)
	return s
}
