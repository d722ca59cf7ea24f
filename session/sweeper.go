package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSpec 默认每分钟检查一次
const DefaultSweepSpec = "@every 1m"

// Sweeper 按 cron 表达式定期回收空闲会话
type Sweeper struct {
	cron  *cron.Cron
	store *Store
}

func NewSweeper(store *Store, spec string) (*Sweeper, error) {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := store.Sweep(); n > 0 {
			slog.Info("expired sessions swept", "count", n, "remaining", store.Len())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parse sweep spec %q: %w", spec, err)
	}
	return &Sweeper{cron: c, store: store}, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop 停止调度，返回的 context 在正在执行的任务结束后关闭
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}
