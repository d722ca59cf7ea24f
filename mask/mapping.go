package mask

import "math"

type Point struct {
	X float64
	Y float64
}

// Rect 画布在显示坐标系（CSS 像素）中的包围盒
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PointerEvent 显示坐标系中的指针事件
type PointerEvent struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	Rect    Rect    `json:"rect"`
}

// Mapping 映射到画布像素坐标后的位置，以及显示到画布的缩放系数
type Mapping struct {
	Point
	Scale float64
}

// fallbackMapping 画布还没有布局（宽或高为 0）时返回的中性结果
var fallbackMapping = Mapping{Scale: 1}

// MapPointer 把显示坐标转换为画布坐标。
//
//	scaleX = size / rect.Width
//	scaleY = size / rect.Height
//	x = (clientX - rect.Left) * scaleX
//	y = (clientY - rect.Top) * scaleY
//	k = max(scaleX, scaleY)
//
// 第二个返回值为 false 表示事件无法映射，此时返回 (0, 0) 和缩放 1。
func MapPointer(size int, ev PointerEvent) (Mapping, bool) {
	r := ev.Rect
	if size <= 0 || !(r.Width > 0) || !(r.Height > 0) || !finite(r.Width, r.Height, r.Left, r.Top) {
		return fallbackMapping, false
	}
	if !finite(ev.ClientX, ev.ClientY) {
		return fallbackMapping, false
	}

	scaleX := float64(size) / r.Width
	scaleY := float64(size) / r.Height
	m := Mapping{
		Point: Point{
			X: (ev.ClientX - r.Left) * scaleX,
			Y: (ev.ClientY - r.Top) * scaleY,
		},
		Scale: math.Max(scaleX, scaleY),
	}
	if !finite(m.X, m.Y, m.Scale) {
		return fallbackMapping, false
	}
	return m, true
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
