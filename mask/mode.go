package mask

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// CompositingMode 决定新绘制的像素如何与已有像素合成。
// 每个绘制调用都显式传入模式，画布本身不保存“当前模式”。
type CompositingMode int

const (
	// ModeNormal source-over，新像素覆盖在已有像素之上
	ModeNormal CompositingMode = iota
	// ModeErase destination-out，被覆盖的区域变成完全透明
	ModeErase
	// ModeCopy source，直接替换，保留源像素的 alpha
	ModeCopy
)

func (m CompositingMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeErase:
		return "erase"
	case ModeCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// fill 用颜色填满整个画布
func (s *Surface) fill(c color.Color, mode CompositingMode) {
	if mode == ModeCopy {
		nc := color.NRGBAModel.Convert(c).(color.NRGBA)
		for i := 0; i < len(s.pix.Pix); i += 4 {
			s.pix.Pix[i+0] = nc.R
			s.pix.Pix[i+1] = nc.G
			s.pix.Pix[i+2] = nc.B
			s.pix.Pix[i+3] = nc.A
		}
		return
	}
	s.drawImage(image.NewUniform(c), s.pix.Bounds(), image.Point{}, mode)
}

// drawImage 把 src 从 sp 开始绘制到画布的 r 区域。
// 只用于铺底和贴图，支持 ModeNormal / ModeCopy；擦除只能通过 strokeSegment。
func (s *Surface) drawImage(src image.Image, r image.Rectangle, sp image.Point, mode CompositingMode) {
	switch mode {
	case ModeNormal:
		draw.Draw(s.pix, r, src, sp, draw.Over)
	case ModeCopy:
		if nrgba, ok := src.(*image.NRGBA); ok {
			copyNRGBA(s.pix, r, nrgba, sp)
			return
		}
		draw.Draw(s.pix, r, src, sp, draw.Src)
	default:
		panic(fmt.Sprintf("mask: drawImage does not support mode %s", mode))
	}
}

// copyNRGBA 按字节复制，避免经过预乘 alpha 转换带来的精度损失
func copyNRGBA(dst *image.NRGBA, r image.Rectangle, src *image.NRGBA, sp image.Point) {
	origin := r.Min
	r = r.Intersect(dst.Bounds())
	sr := r.Sub(origin).Add(sp).Intersect(src.Bounds())
	r = sr.Sub(sp).Add(origin)
	if r.Empty() {
		return
	}
	n := 4 * r.Dx()
	for y := 0; y < r.Dy(); y++ {
		d := dst.PixOffset(r.Min.X, r.Min.Y+y)
		s := src.PixOffset(sr.Min.X, sr.Min.Y+y)
		copy(dst.Pix[d:d+n], src.Pix[s:s+n])
	}
}

// strokeSegment 以半径 radius、圆头圆角的方式描一段线段 a→b，返回被覆盖的像素数。
// 覆盖判定以像素中心为准，结果是二值的，不做抗锯齿。笔画只有 ModeErase 一种模式。
func (s *Surface) strokeSegment(a, b Point, radius float64, mode CompositingMode) int {
	if mode != ModeErase {
		panic(fmt.Sprintf("mask: strokeSegment does not support mode %s", mode))
	}
	if radius <= 0 {
		return 0
	}
	bounds := s.pix.Bounds()
	r := image.Rect(
		int(math.Floor(math.Min(a.X, b.X)-radius)),
		int(math.Floor(math.Min(a.Y, b.Y)-radius)),
		int(math.Ceil(math.Max(a.X, b.X)+radius))+1,
		int(math.Ceil(math.Max(a.Y, b.Y)+radius))+1,
	).Intersect(bounds)

	r2 := radius * radius
	touched := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p := Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if distSqToSegment(p, a, b) > r2 {
				continue
			}
			i := s.pix.PixOffset(x, y)
			clearPixel(s.pix.Pix[i : i+4])
			touched++
		}
	}
	return touched
}

// distSqToSegment 点 p 到线段 ab 的距离平方
func distSqToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	t := 0.0
	if l2 > 0 {
		t = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
		t = math.Max(0, math.Min(1, t))
	}
	cx, cy := a.X+t*dx-p.X, a.Y+t*dy-p.Y
	return cx*cx + cy*cy
}

func clearPixel(px []uint8) {
	px[0], px[1], px[2], px[3] = 0, 0, 0, 0
}
