package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chaos-io/maskcanvas/compose"
	"github.com/chaos-io/maskcanvas/config"
	"github.com/chaos-io/maskcanvas/mask"
	"github.com/chaos-io/maskcanvas/server"
	"github.com/chaos-io/maskcanvas/session"
	"github.com/chaos-io/maskcanvas/util"
	nhttp "github.com/chaos-io/maskcanvas/util/http"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径")
	photoPath := flag.String("photo", "", "离线模式：照片路径或 URL")
	strokesPath := flag.String("strokes", "", "离线模式：笔画 JSON 路径")
	outDir := flag.String("out", "./output", "离线模式：蒙版输出目录")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	mask.SetLogger(logger)

	bg, _ := config.ParseHexColor(cfg.Mask.Background)
	opts := mask.Options{
		BrushRadius: cfg.Mask.BrushRadius,
		Background:  bg,
		MaxSide:     cfg.Mask.MaxSide,
	}

	if *photoPath != "" {
		maskPath, err := runOffline(*photoPath, *strokesPath, *outDir, opts)
		if err != nil {
			log.Fatal("Failed to generate mask:", err)
		}
		log.Println("Done! Mask:", maskPath)
		return
	}

	if err := serve(cfg, opts); err != nil {
		log.Fatal("Server error:", err)
	}
}

func serve(cfg config.Config, opts mask.Options) error {
	store := session.NewStore(opts, cfg.Session.TTL)
	sweeper, err := session.NewSweeper(store, cfg.Session.SweepSpec)
	if err != nil {
		return err
	}
	sweeper.Start()

	composer := compose.NewOpenAIComposer(compose.Config{
		BaseURL: cfg.Compose.BaseURL,
		APIKey:  cfg.Compose.APIKey,
		Model:   cfg.Compose.Model,
		Size:    cfg.Compose.Size,
		Quality: cfg.Compose.Quality,
	}, nhttp.NewHTTPClientWithTimeout(cfg.Compose.Timeout))
	if cfg.Compose.APIKey == "" {
		slog.Warn("no API key configured, image generation requests will be rejected upstream")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(store, composer, server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)

	<-sweeper.Stop().Done()
	store.CloseAll()
	return err
}

// offlineStroke 一笔：显示区域 + 显示坐标序列
type offlineStroke struct {
	Rect   mask.Rect    `json:"rect"`
	Points [][2]float64 `json:"points"`
}

// runOffline 不启动服务，按 JSON 里的笔画直接生成蒙版
func runOffline(photoPath, strokesPath, outDir string, opts mask.Options) (string, error) {
	defer util.Trace("offline mask")()

	photo, err := util.LoadPhoto(context.Background(), photoPath)
	if err != nil {
		return "", err
	}

	var strokes []offlineStroke
	if strokesPath != "" {
		data, err := util.ReadFile(strokesPath)
		if err != nil {
			return "", err
		}
		if err := json.Unmarshal(data, &strokes); err != nil {
			return "", fmt.Errorf("parse strokes: %w", err)
		}
	}

	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return "", err
	}
	maskPath := filepath.Join(outDir, mask.MaskFilename)

	err = mask.Edit(photo, opts, func(e *mask.Engine) error {
		for _, s := range strokes {
			if len(s.Points) == 0 {
				continue
			}
			ev := func(p [2]float64) mask.PointerEvent {
				return mask.PointerEvent{ClientX: p[0], ClientY: p[1], Rect: s.Rect}
			}
			if err := e.PointerDown(ev(s.Points[0])); err != nil {
				return err
			}
			for _, p := range s.Points[1:] {
				if err := e.PointerMove(ev(p)); err != nil {
					return err
				}
			}
			if err := e.PointerUp(); err != nil {
				return err
			}
		}

		artifact, err := e.Complete()
		if err != nil {
			return err
		}
		return os.WriteFile(maskPath, artifact.Data, 0o644)
	})
	if err != nil {
		return "", err
	}
	return maskPath, nil
}
