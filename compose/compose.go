package compose

import (
	"context"
	"errors"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrNoImage       = errors.New("no image data returned")
)

// Image 上传给图像编辑接口的一张图
type Image struct {
	Filename string
	MIMEType string
	Data     []byte
}

func (i Image) empty() bool {
	return len(i.Data) == 0
}

// FurnitureRequest 把家具放进房间照片里蒙版透明的区域
type FurnitureRequest struct {
	Room      Image
	Furniture Image
	Mask      Image
}

// OutfitRequest 让照片里的人穿上指定衣服。
// Users 是同一个人的多张参考照（不同角度），至少一张。
type OutfitRequest struct {
	Users                  []Image
	Clothing               Image
	ClothingItem           string
	AdditionalInstructions string
}

// Result ImageData 为 base64 编码的图片，部分模型只返回 ImageURL
type Result struct {
	ImageData string `json:"imageData,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

type Composer interface {
	Furniture(ctx context.Context, req *FurnitureRequest) (*Result, error)
	Outfit(ctx context.Context, req *OutfitRequest) (*Result, error)
}
