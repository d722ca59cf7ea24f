package mask

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"io"
)

// Encoder 把画布快照序列化为蒙版文件
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// CompressionLevel 与 image/png 的取值一致：零值表示默认压缩，其余为负数，
// 这样零值的 PNGEncoder 可以直接使用，同时仍然能选择不压缩。
type CompressionLevel int

const (
	DefaultCompression CompressionLevel = 0
	NoCompression      CompressionLevel = -1
	BestSpeed          CompressionLevel = -2
	BestCompression    CompressionLevel = -3
)

func (l CompressionLevel) zlibLevel() (int, error) {
	switch l {
	case DefaultCompression:
		return zlib.DefaultCompression, nil
	case NoCompression:
		return zlib.NoCompression, nil
	case BestSpeed:
		return zlib.BestSpeed, nil
	case BestCompression:
		return zlib.BestCompression, nil
	default:
		return 0, fmt.Errorf("png: invalid compression level %d", int(l))
	}
}

// PNGEncoder 总是输出 8 位 RGBA（color type 6）的 PNG。
// image/png 遇到完全不透明的图片会省掉 alpha 通道，而图像编辑接口要求蒙版必须带 alpha。
// 不写时间戳等元数据，同样的像素总是得到同样的字节。
type PNGEncoder struct {
	CompressionLevel CompressionLevel
}

func (e PNGEncoder) Encode(w io.Writer, img image.Image) error {
	b := img.Bounds()
	if b.Empty() {
		return errors.New("png: empty image")
	}
	src := toNRGBA(img)
	b = src.Bounds()

	level, err := e.CompressionLevel.zlibLevel()
	if err != nil {
		return err
	}

	var idat bytes.Buffer
	zw, err := zlib.NewWriterLevel(&idat, level)
	if err != nil {
		return fmt.Errorf("png: %w", err)
	}
	row := 4 * b.Dx()
	filter := []byte{0}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := src.PixOffset(b.Min.X, y)
		if _, err := zw.Write(filter); err != nil {
			return fmt.Errorf("png: compress: %w", err)
		}
		if _, err := zw.Write(src.Pix[i : i+row]); err != nil {
			return fmt.Errorf("png: compress: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("png: compress: %w", err)
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(b.Dx()))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(b.Dy()))
	ihdr[8] = 8  // bit depth
	ihdr[9] = 6  // truecolor with alpha
	ihdr[10] = 0 // deflate
	ihdr[11] = 0 // adaptive filtering
	ihdr[12] = 0 // no interlace

	if _, err := w.Write(pngSignature); err != nil {
		return err
	}
	if err := writeChunk(w, "IHDR", ihdr); err != nil {
		return err
	}
	if err := writeChunk(w, "IDAT", idat.Bytes()); err != nil {
		return err
	}
	return writeChunk(w, "IEND", nil)
}

func writeChunk(w io.Writer, typ string, data []byte) error {
	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(data)))
	copy(header[4:], typ)

	crc := crc32.NewIEEE()
	_, _ = crc.Write(header[4:])
	_, _ = crc.Write(data)
	var footer [4]byte
	binary.BigEndian.PutUint32(footer[:], crc.Sum32())

	for _, p := range [][]byte{header[:], data, footer[:]} {
		if _, err := w.Write(p); err != nil {
			return fmt.Errorf("png: write %s: %w", typ, err)
		}
	}
	return nil
}
