package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Mask    MaskConfig    `yaml:"mask"`
	Session SessionConfig `yaml:"session"`
	Compose ComposeConfig `yaml:"compose"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type MaskConfig struct {
	// BrushRadius 橡皮擦逻辑半径（显示像素）
	BrushRadius float64 `yaml:"brush_radius"`
	// MaxSide 照片最长边上限，0 不限制
	MaxSide int `yaml:"max_side"`
	// Background 留边颜色，#rrggbb
	Background string `yaml:"background"`
}

type SessionConfig struct {
	TTL       time.Duration `yaml:"ttl"`
	SweepSpec string        `yaml:"sweep_spec"`
}

type ComposeConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Size    string        `yaml:"size"`
	Quality string        `yaml:"quality"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MaxUploadBytes:  20 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Mask: MaskConfig{
			BrushRadius: 15,
			Background:  "#ffffff",
		},
		Session: SessionConfig{
			TTL:       30 * time.Minute,
			SweepSpec: "@every 1m",
		},
		Compose: ComposeConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-image-1",
			Size:    "1024x1024",
			Quality: "high",
			Timeout: 2 * time.Minute,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load 读取 YAML 配置：先填默认值，再用文件覆盖，最后用环境变量覆盖。
// path 为空时只使用默认值和环境变量。
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("MASKCANVAS_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup("MASKCANVAS_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		c.Compose.APIKey = v
	}
	if v, ok := lookup("OPENAI_BASE_URL"); ok && v != "" {
		c.Compose.BaseURL = strings.TrimRight(v, "/")
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if c.Mask.BrushRadius <= 0 {
		errs = append(errs, errors.New("mask.brush_radius must be positive"))
	}
	if c.Mask.MaxSide < 0 {
		errs = append(errs, errors.New("mask.max_side must not be negative"))
	}
	if _, err := ParseHexColor(c.Mask.Background); err != nil {
		errs = append(errs, fmt.Errorf("mask.background: %w", err))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel debug / info / warn / error
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
