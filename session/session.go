package session

import (
	"errors"
	"sync"
	"time"

	"github.com/chaos-io/maskcanvas/mask"
)

var ErrClosed = errors.New("session closed")

// Session 一次编辑会话。所有对 engine 的调用都在锁内串行执行，
// 相当于浏览器里事件循环对指针事件的串行化。
type Session struct {
	ID        string
	CreatedAt time.Time
	// Size 画布边长，会话期间不变
	Size int

	mu         sync.Mutex
	engine     *mask.Engine
	lastActive time.Time
	artifact   *mask.MaskArtifact
	closed     bool
}

// Do 在会话锁内执行 fn
func (s *Session) Do(now time.Time, fn func(e *mask.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.lastActive = now
	return fn(s.engine)
}

// Artifact 最近一次 Complete 得到的蒙版
func (s *Session) Artifact() *mask.MaskArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// idleSince 会话在 deadline 之前就没有活动
func (s *Session) idleSince(deadline time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive.Before(deadline)
}

// setArtifact 由 engine 的 OnComplete 回调，调用时已持有锁
func (s *Session) setArtifact(a *mask.MaskArtifact) {
	s.artifact = a
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.engine.Close()
	s.artifact = nil
}
