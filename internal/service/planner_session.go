package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Abdullah-Shahriar/UIU-Hub/config"
	"github.com/Abdullah-Shahriar/UIU-Hub/internal/model"
)

// ── 规划会话 ────────────────────────────────────────────────
//
// 每个会话持有一个 SectionPlanStore 与一份只读课程目录。
// SectionPlanStore 本身不加锁：同一会话内的操作由会话互斥锁串行化，
// 不同会话之间互不影响。空闲超过 TTL 的会话由后台清理协程回收。
// ─────────────────────────────────────────────────────────────

var (
	ErrSessionNotFound = errors.New("规划会话不存在或已过期")
	ErrSessionLimit    = errors.New("当前规划会话数量已达上限，请稍后再试")
)

// PlannerSession 单个用户的规划会话
type PlannerSession struct {
	ID        string
	CatalogID string

	mu         sync.Mutex
	store      *SectionPlanStore
	catalog    []model.Course
	lastAccess time.Time
}

// Do 在会话锁内执行操作
func (s *PlannerSession) Do(fn func(store *SectionPlanStore, catalog []model.Course) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store, s.catalog)
}

// SessionManager 会话注册表
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*PlannerSession
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
	logger      *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSessionManager 创建会话注册表（不自动启动清理协程，见 StartJanitor）
func NewSessionManager(cfg *config.PlannerConfig, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*PlannerSession),
		ttl:         cfg.SessionTTL,
		maxSessions: cfg.MaxSessions,
		now:         time.Now,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

// Create 新建会话；达到上限时先回收过期会话，仍满则返回 ErrSessionLimit
func (m *SessionManager) Create(catalogID string, catalog []model.Course) (*PlannerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxSessions {
		m.sweepLocked()
		if len(m.sessions) >= m.maxSessions {
			m.logger.Warn("规划会话数量已达上限", zap.Int("max_sessions", m.maxSessions))
			return nil, ErrSessionLimit
		}
	}

	copied := make([]model.Course, len(catalog))
	copy(copied, catalog)

	sess := &PlannerSession{
		ID:         uuid.NewString(),
		CatalogID:  catalogID,
		store:      NewSectionPlanStore(),
		catalog:    copied,
		lastAccess: m.now(),
	}
	m.sessions[sess.ID] = sess
	return sess, nil
}

// Get 获取会话并刷新最近访问时间；过期会话视为不存在
func (m *SessionManager) Get(id string) (*PlannerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := m.now()
	if now.Sub(sess.lastAccess) > m.ttl {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	sess.lastAccess = now
	return sess, nil
}

// ExpiresAt 会话的过期时间
func (m *SessionManager) ExpiresAt(sess *PlannerSession) time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sess.lastAccess.Add(m.ttl)
}

// Delete 删除会话
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len 当前会话数量
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep 回收所有过期会话，返回回收数量
func (m *SessionManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked()
}

func (m *SessionManager) sweepLocked() int {
	now := m.now()
	removed := 0
	for id, sess := range m.sessions {
		if now.Sub(sess.lastAccess) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor 启动后台清理协程，按 interval 周期回收过期会话
func (m *SessionManager) StartJanitor(interval time.Duration) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					m.logger.Info("已回收过期规划会话", zap.Int("removed", n), zap.Int("active", m.Len()))
				}
			}
		}
	}()
}

// Stop 停止清理协程并等待其退出；可重复调用
func (m *SessionManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}
