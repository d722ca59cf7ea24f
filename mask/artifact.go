package mask

import (
	"fmt"
	"image"
	"time"

	"github.com/chaos-io/maskcanvas/util"
	"github.com/segmentio/ksuid"
)

const (
	MaskFilename = "mask.png"
	MaskMIMEType = "image/png"
)

// MaskArtifact 导出的蒙版。透明像素表示“替换这里”，不透明像素表示“保留原图”。
// 生成后不再修改，归调用方所有。
type MaskArtifact struct {
	ID        string
	Filename  string
	MIMEType  string
	Size      int
	Data      []byte
	CreatedAt time.Time
}

func newArtifact(data []byte, size int) *MaskArtifact {
	return &MaskArtifact{
		ID:        ksuid.New().String(),
		Filename:  MaskFilename,
		MIMEType:  MaskMIMEType,
		Size:      size,
		Data:      data,
		CreatedAt: time.Now(),
	}
}

// Image 解码蒙版
func (a *MaskArtifact) Image() (*image.NRGBA, error) {
	img, _, err := util.DecodeImage(a.Data)
	if err != nil {
		return nil, fmt.Errorf("mask artifact %s: %w", a.ID, err)
	}
	return toNRGBA(img), nil
}

// TransparentCount 统计完全透明（需要替换）的像素数
func (a *MaskArtifact) TransparentCount() (int, error) {
	img, err := a.Image()
	if err != nil {
		return 0, err
	}
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] == 0 {
			n++
		}
	}
	return n, nil
}
