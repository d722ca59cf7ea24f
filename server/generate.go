package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/chaos-io/maskcanvas/compose"
	"github.com/gin-gonic/gin"
)

var errMissingFields = gin.H{"error": "Missing required fields"}

// formImage 读取表单中的图片，缺失返回 false
func formImage(c *gin.Context, name string) (compose.Image, bool) {
	fh, err := c.FormFile(name)
	if err != nil {
		return compose.Image{}, false
	}
	data, err := readFormFile(fh)
	if err != nil || len(data) == 0 {
		return compose.Image{}, false
	}
	return compose.Image{
		Filename: fh.Filename,
		MIMEType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, true
}

// furnitureGenerate 房间照片 + 家具图 + 蒙版 → 合成图。
// 没有上传 maskImage 时，可以用 sessionId 引用已完成的会话蒙版。
func (s *Server) furnitureGenerate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 3*s.maxUpload)

	room, okRoom := formImage(c, "roomImage")
	furniture, okFurniture := formImage(c, "furnitureImage")
	maskImg, okMask := formImage(c, "maskImage")
	if !okMask {
		maskImg, okMask = s.sessionMask(c.PostForm("sessionId"))
	}
	if !okRoom || !okFurniture || !okMask {
		c.AbortWithStatusJSON(http.StatusBadRequest, errMissingFields)
		return
	}

	result, err := s.composer.Furniture(c.Request.Context(), &compose.FurnitureRequest{
		Room:      room,
		Furniture: furniture,
		Mask:      maskImg,
	})
	s.writeResult(c, result, err)
}

func (s *Server) sessionMask(id string) (compose.Image, bool) {
	if id == "" {
		return compose.Image{}, false
	}
	sess, err := s.store.Get(id)
	if err != nil {
		return compose.Image{}, false
	}
	artifact := sess.Artifact()
	if artifact == nil {
		return compose.Image{}, false
	}
	return compose.Image{
		Filename: artifact.Filename,
		MIMEType: artifact.MIMEType,
		Data:     artifact.Data,
	}, true
}

// maxReferencePhotos 试穿接口最多接收的参考照数量
const maxReferencePhotos = 8

// referencePhotos 按 userImage0、userImage1… 顺序读取参考照，遇到第一个缺失的序号停止。
// 只上传了一张 userImage 时按单张处理。
func referencePhotos(c *gin.Context) []compose.Image {
	var photos []compose.Image
	for i := 0; i < maxReferencePhotos; i++ {
		img, ok := formImage(c, "userImage"+strconv.Itoa(i))
		if !ok {
			break
		}
		photos = append(photos, img)
	}
	if len(photos) == 0 {
		if img, ok := formImage(c, "userImage"); ok {
			photos = append(photos, img)
		}
	}
	return photos
}

// fitAI 人物参考照（一张或多张）+ 衣服图 → 试穿效果图
func (s *Server) fitAI(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, (maxReferencePhotos+1)*s.maxUpload)

	users := referencePhotos(c)
	clothing, okClothing := formImage(c, "clothingImage")
	item := strings.TrimSpace(c.PostForm("clothingItem"))
	if len(users) == 0 || !okClothing || item == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, errMissingFields)
		return
	}

	result, err := s.composer.Outfit(c.Request.Context(), &compose.OutfitRequest{
		Users:                  users,
		Clothing:               clothing,
		ClothingItem:           item,
		AdditionalInstructions: c.PostForm("additionalInstructions"),
	})
	s.writeResult(c, result, err)
}

func (s *Server) writeResult(c *gin.Context, result *compose.Result, err error) {
	if errors.Is(err, compose.ErrMissingFields) {
		c.AbortWithStatusJSON(http.StatusBadRequest, errMissingFields)
		return
	}
	if err != nil {
		slog.Error("generate image failed", "request_id", c.GetString(requestIDKey), "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate image"})
		return
	}
	c.JSON(http.StatusOK, result)
}
