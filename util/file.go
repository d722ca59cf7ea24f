package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"

	_ "image/gif"  // 注册 GIF 解码器
	_ "image/jpeg" // 注册 JPEG 解码器
	_ "image/png"  // 注册 PNG 解码器

	_ "golang.org/x/image/webp" // 注册 WebP 解码器
)

// maxDownloadBytes 下载图片的大小上限
const maxDownloadBytes = 32 << 20

// DecodeImage 把内存中的图片解码，返回图片和格式名
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", errors.New("empty image data")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// DownloadFile 下载远程文件的原始字节
func DownloadFile(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status code %d", url, resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
}

// LoadPhoto 读取照片字节，src 可以是 http(s) 地址或本地路径
func LoadPhoto(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return DownloadFile(ctx, src)
	}
	return ReadFile(src)
}

// ReadFile 读取整个文件，用于把照片原样交给引擎
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	return data, nil
}
