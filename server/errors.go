package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/chaos-io/maskcanvas/mask"
	"github.com/chaos-io/maskcanvas/session"
	"github.com/gin-gonic/gin"
)

// statusOf 把领域错误映射为 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone
	case errors.Is(err, mask.ErrPhotoDecode):
		return http.StatusBadRequest
	case errors.Is(err, mask.ErrUninitializedSurface):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "request_id", c.GetString(requestIDKey), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
