package server

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/chaos-io/maskcanvas/mask"
	"github.com/gin-gonic/gin"
)

type createSessionResp struct {
	ID   string `json:"id"`
	Size int    `json:"size"`
}

// createSession 上传照片（multipart 字段 photo），初始化画布
func (s *Server) createSession(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)

	fh, err := c.FormFile("photo")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "photo is required"})
		return
	}
	photo, err := readFormFile(fh)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.store.Create(photo)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createSessionResp{ID: sess.ID, Size: sess.Size})
}

type pointerReq struct {
	Type string `json:"type"`
	mask.PointerEvent
}

type pointerResp struct {
	State   string `json:"state"`
	Ignored bool   `json:"ignored,omitempty"`
}

// pointer 指针事件。格式错误的事件按空操作处理，不返回错误。
func (s *Server) pointer(c *gin.Context) {
	var req pointerReq
	bindErr := c.ShouldBindJSON(&req)

	var state mask.StrokeState
	ignored := false
	err := s.store.Touch(c.Param("id"), func(e *mask.Engine) error {
		defer func() { state = e.State() }()
		if bindErr != nil {
			ignored = true
			return nil
		}
		switch req.Type {
		case "down":
			return e.PointerDown(req.PointerEvent)
		case "move":
			return e.PointerMove(req.PointerEvent)
		case "up":
			return e.PointerUp()
		case "leave":
			return e.PointerLeave()
		default:
			ignored = true
			return nil
		}
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	if ignored {
		slog.Debug("pointer event ignored", "type", req.Type, "bind_error", bindErr)
	}
	c.JSON(http.StatusOK, pointerResp{State: state.String(), Ignored: ignored})
}

func (s *Server) reset(c *gin.Context) {
	err := s.store.Touch(c.Param("id"), func(e *mask.Engine) error {
		return e.Reset()
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pointerResp{State: mask.StateIdle.String()})
}

// exportMask 返回当前画布的蒙版，不改变画布
func (s *Server) exportMask(c *gin.Context) {
	s.writeArtifact(c, func(e *mask.Engine) (*mask.MaskArtifact, error) {
		return e.Export()
	})
}

// complete 用户点击完成：导出并记录到会话，供合成接口使用
func (s *Server) complete(c *gin.Context) {
	s.writeArtifact(c, func(e *mask.Engine) (*mask.MaskArtifact, error) {
		return e.Complete()
	})
}

func (s *Server) writeArtifact(c *gin.Context, fn func(e *mask.Engine) (*mask.MaskArtifact, error)) {
	var artifact *mask.MaskArtifact
	err := s.store.Touch(c.Param("id"), func(e *mask.Engine) error {
		var err error
		artifact, err = fn(e)
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Header("X-Mask-ID", artifact.ID)
	c.Header("X-Mask-Size", strconv.Itoa(artifact.Size))
	c.Data(http.StatusOK, artifact.MIMEType, artifact.Data)
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.store.Delete(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh == nil {
		return nil, errors.New("missing file")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return io.ReadAll(f)
}
