package server

import (
	"net/http"

	"github.com/chaos-io/maskcanvas/compose"
	"github.com/chaos-io/maskcanvas/session"
	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadBytes 单次上传的大小上限
const DefaultMaxUploadBytes = 20 << 20

type Server struct {
	store     *session.Store
	composer  compose.Composer
	maxUpload int64
	router    *gin.Engine
}

type Option func(*Server)

func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

func New(store *session.Store, composer compose.Composer, opts ...Option) *Server {
	s := &Server{
		store:     store,
		composer:  composer,
		maxUpload: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger())
	r.MaxMultipartMemory = s.maxUpload
	s.routes(r)
	s.router = r
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.store.Len()})
	})

	api := r.Group("/api")
	{
		sessions := api.Group("/sessions")
		sessions.POST("", s.createSession)
		sessions.POST("/:id/pointer", s.pointer)
		sessions.POST("/:id/reset", s.reset)
		sessions.GET("/:id/mask", s.exportMask)
		sessions.POST("/:id/complete", s.complete)
		sessions.DELETE("/:id", s.deleteSession)

		api.POST("/furniture-generate", s.furnitureGenerate)
		api.POST("/fit-ai", s.fitAI)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}
