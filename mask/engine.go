// Package mask 实现蒙版画布：把照片放进正方形画布，跟踪橡皮擦手势，
// 把擦除后的画布导出为带透明通道的 PNG 蒙版。
//
// Engine 不是并发安全的，调用方需要保证事件按顺序串行送达。
package mask

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"

	"github.com/chaos-io/maskcanvas/util"
)

// DefaultBrushRadius 橡皮擦半径（显示像素），对应 30px 的线宽
const DefaultBrushRadius = 15.0

type Options struct {
	// BrushRadius 橡皮擦的逻辑半径，实际擦除半径 = BrushRadius * 显示缩放
	BrushRadius float64
	// Background 留边的背景色，默认白色
	Background color.Color
	// MaxSide 照片最长边上限，超过会先缩小；0 表示不限制
	MaxSide int
	// Encoder 蒙版编码器，默认 PNGEncoder
	Encoder Encoder
	// OnComplete 用户点击“完成”后收到蒙版
	OnComplete func(*MaskArtifact)
}

func (o Options) withDefaults() Options {
	if o.BrushRadius <= 0 {
		o.BrushRadius = DefaultBrushRadius
	}
	if o.Background == nil {
		o.Background = color.White
	}
	if o.Encoder == nil {
		o.Encoder = PNGEncoder{}
	}
	return o
}

type Engine struct {
	opts Options

	// source 解码后的原图，重置时重新绘制；Close 时释放
	source     image.Image
	sourceMode CompositingMode

	surface *Surface
	stroke  strokeSession
}

func New(opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		opts:   opts,
		stroke: strokeSession{brushRadius: opts.BrushRadius},
	}
}

// Load 解码照片并初始化画布。解码失败时返回 PhotoDecodeError，原有状态不变。
func (e *Engine) Load(photo []byte) error {
	img, format, err := util.DecodeImage(photo)
	if err != nil {
		return &PhotoDecodeError{Err: err}
	}
	Logger().Debug("photo decoded", "format", format, "bytes", len(photo))
	return e.LoadImage(img)
}

// LoadImage 用已解码的照片初始化画布：边长 max(w, h)，白底，照片居中。
// 照片归调用方所有，引擎只保留自己的副本，之后修改 img 不影响 Reset。
func (e *Engine) LoadImage(img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return &PhotoDecodeError{Err: errors.New("empty photo")}
	}
	src := resizeWithinMax(ownedNRGBA(img), e.opts.MaxSide)

	e.install(src, ModeNormal)
	return nil
}

// Import 把之前导出的蒙版重新作为画布，透明区域原样保留
func (e *Engine) Import(artifact []byte) error {
	img, _, err := util.DecodeImage(artifact)
	if err != nil {
		return &PhotoDecodeError{Err: err}
	}
	if img.Bounds().Empty() {
		return &PhotoDecodeError{Err: errors.New("empty mask")}
	}
	e.install(toNRGBA(img), ModeCopy)
	return nil
}

func (e *Engine) install(src image.Image, mode CompositingMode) {
	e.stroke.end()
	e.source = src
	e.sourceMode = mode
	e.surface = newLetterboxed(src, e.opts.Background, mode)

	b := src.Bounds()
	Logger().Info("surface initialized",
		"width", b.Dx(), "height", b.Dy(), "size", e.surface.Size(), "mode", mode.String())
}

// Initialized 画布是否可用
func (e *Engine) Initialized() bool {
	return e.surface != nil
}

// Size 画布边长，未初始化时为 0
func (e *Engine) Size() int {
	if e.surface == nil {
		return 0
	}
	return e.surface.Size()
}

// Surface 当前画布，只读
func (e *Engine) Surface() *Surface {
	return e.surface
}

func (e *Engine) State() StrokeState {
	return e.stroke.state
}

// PointerDown 开始一笔。无法映射的事件被忽略。
func (e *Engine) PointerDown(ev PointerEvent) error {
	if e.surface == nil {
		return &UninitializedSurfaceError{Op: "pointer down"}
	}
	m, ok := MapPointer(e.surface.Size(), ev)
	if !ok {
		Logger().Debug("pointer down ignored", "event", ev)
		return nil
	}
	e.stroke.begin(m)
	return nil
}

// PointerMove 在 Stroking 状态下把路径延伸到当前位置并立即擦除
func (e *Engine) PointerMove(ev PointerEvent) error {
	if e.surface == nil {
		return &UninitializedSurfaceError{Op: "pointer move"}
	}
	m, ok := MapPointer(e.surface.Size(), ev)
	if !ok {
		Logger().Debug("pointer move ignored", "event", ev)
		return nil
	}
	seg, ok := e.stroke.extend(m)
	if !ok {
		return nil
	}
	n := e.surface.strokeSegment(seg.From, seg.To, seg.Radius, ModeErase)
	if l := Logger(); l.Enabled(context.Background(), slog.LevelDebug) {
		l.Debug("segment erased", "from", seg.From, "to", seg.To, "radius", seg.Radius, "pixels", n)
	}
	return nil
}

// PointerUp 结束当前笔画
func (e *Engine) PointerUp() error {
	if e.surface == nil {
		return &UninitializedSurfaceError{Op: "pointer up"}
	}
	e.stroke.end()
	return nil
}

// PointerLeave 指针离开画布，与抬起相同
func (e *Engine) PointerLeave() error {
	if e.surface == nil {
		return &UninitializedSurfaceError{Op: "pointer leave"}
	}
	e.stroke.end()
	return nil
}

// Reset 丢弃所有擦除，恢复到刚初始化时的画布
func (e *Engine) Reset() error {
	if e.surface == nil {
		return &UninitializedSurfaceError{Op: "reset"}
	}
	e.stroke.end()
	e.surface.paintSource(e.source, e.opts.Background, e.sourceMode)
	Logger().Debug("surface reset", "size", e.surface.Size())
	return nil
}

// Export 对当前画布拍快照并编码。不修改画布，可以重复调用。
// 如果还有未结束的笔画，先强制结束再导出。
func (e *Engine) Export() (*MaskArtifact, error) {
	if e.surface == nil {
		return nil, &MaskExportError{Err: &UninitializedSurfaceError{Op: "export"}}
	}
	if e.stroke.end() {
		Logger().Debug("in-flight stroke ended before export")
	}

	snap := e.surface.snapshot()
	var buf bytes.Buffer
	if err := e.opts.Encoder.Encode(&buf, snap); err != nil {
		Logger().Warn("mask encode failed", "error", err)
		return nil, &MaskExportError{Err: err}
	}
	return newArtifact(buf.Bytes(), e.surface.Size()), nil
}

// Complete 导出蒙版并交给 OnComplete
func (e *Engine) Complete() (*MaskArtifact, error) {
	artifact, err := e.Export()
	if err != nil {
		return nil, err
	}
	Logger().Info("mask completed", "id", artifact.ID, "size", artifact.Size, "bytes", len(artifact.Data))
	if e.opts.OnComplete != nil {
		e.opts.OnComplete(artifact)
	}
	return artifact, nil
}

// Close 释放原图和画布，之后的操作都会返回 UninitializedSurfaceError，可以重新 Load
func (e *Engine) Close() {
	if e.stroke.end() {
		Logger().Debug("session closed mid-stroke")
	}
	e.source = nil
	e.surface = nil
}
