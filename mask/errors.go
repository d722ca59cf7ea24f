package mask

import (
	"errors"
	"fmt"
)

var (
	ErrPhotoDecode          = errors.New("photo decode failed")
	ErrUninitializedSurface = errors.New("surface not initialized")
	ErrMaskExport           = errors.New("mask export failed")
)

// PhotoDecodeError 原图无法解码，会话初始化失败，不会创建画布
type PhotoDecodeError struct {
	Err error
}

func (e *PhotoDecodeError) Error() string {
	return fmt.Sprintf("decode photo: %v", e.Err)
}

func (e *PhotoDecodeError) Unwrap() error { return e.Err }

func (e *PhotoDecodeError) Is(target error) bool { return target == ErrPhotoDecode }

// UninitializedSurfaceError 画布尚未初始化时调用了笔画、重置或导出
type UninitializedSurfaceError struct {
	Op string
}

func (e *UninitializedSurfaceError) Error() string {
	return fmt.Sprintf("%s: surface not initialized", e.Op)
}

func (e *UninitializedSurfaceError) Is(target error) bool { return target == ErrUninitializedSurface }

// MaskExportError 导出失败，画布仍然有效，可以重试
type MaskExportError struct {
	Err error
}

func (e *MaskExportError) Error() string {
	return fmt.Sprintf("export mask: %v", e.Err)
}

func (e *MaskExportError) Unwrap() error { return e.Err }

func (e *MaskExportError) Is(target error) bool { return target == ErrMaskExport }
