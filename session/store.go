package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chaos-io/maskcanvas/mask"
	"github.com/segmentio/ksuid"
)

var ErrNotFound = errors.New("session not found")

// DefaultTTL 会话空闲多久后被回收
const DefaultTTL = 30 * time.Minute

// Store 内存中的会话表，key 为 ksuid
type Store struct {
	opts mask.Options
	ttl  time.Duration
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(opts mask.Options, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		opts:     opts,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create 解码照片并创建会话，解码失败不会留下会话
func (s *Store) Create(photo []byte) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:         ksuid.New().String(),
		CreatedAt:  now,
		lastActive: now,
	}

	opts := s.opts
	onComplete := opts.OnComplete
	opts.OnComplete = func(a *mask.MaskArtifact) {
		sess.setArtifact(a)
		if onComplete != nil {
			onComplete(a)
		}
	}

	engine := mask.New(opts)
	if err := engine.Load(photo); err != nil {
		return nil, err
	}
	sess.engine = engine
	sess.Size = engine.Size()

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	slog.Info("session created", "id", sess.ID, "size", engine.Size())
	return sess, nil
}

func (s *Store) Get(id string) (*Session, error) {
	if _, err := ksuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

// Delete 删除会话并释放画布
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sess.close()
	slog.Info("session deleted", "id", id)
	return nil
}

// Touch 在会话锁内执行 fn 并刷新活动时间
func (s *Store) Touch(id string, fn func(e *mask.Engine) error) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	return sess.Do(s.now(), fn)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep 回收空闲超过 TTL 的会话，返回回收数量
func (s *Store) Sweep() int {
	deadline := s.now().Add(-s.ttl)

	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.idleSince(deadline) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
		slog.Debug("session expired", "id", sess.ID)
	}
	return len(expired)
}

// CloseAll 关闭并移除所有会话，进程退出时调用
func (s *Store) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}
