package session

import (
	"sync"
	"time"
)

type memoryManager struct {
	mu          sync.RWMutex
	sessions    map[int64]Session
	idleTimeout time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewMemoryManager constructs an in-memory Manager. Sessions idle longer than
// idleTimeout collapse back to the main menu; a janitor goroutine drops them
// so the map does not grow unbounded.
func NewMemoryManager(idleTimeout time.Duration) Manager {
	m := &memoryManager{
		sessions:    make(map[int64]Session),
		idleTimeout: idleTimeout,
		stop:        make(chan struct{}),
	}
	if idleTimeout > 0 {
		go m.janitor()
	}
	return m
}

func (m *memoryManager) Get(userID int64) Session {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok || m.stale(s) {
		return Idle()
	}
	return s
}

func (m *memoryManager) Set(userID int64, s Session) {
	s.UpdatedAt = time.Now()
	m.mu.Lock()
	m.sessions[userID] = s
	m.mu.Unlock()
}

func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}

func (m *memoryManager) InProgress(userID int64) bool {
	return m.Get(userID).Step != StepIdle
}

func (m *memoryManager) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

func (m *memoryManager) stale(s Session) bool {
	return m.idleTimeout > 0 && time.Since(s.UpdatedAt) > m.idleTimeout
}

func (m *memoryManager) janitor() {
	ticker := time.NewTicker(m.idleTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			for id, s := range m.sessions {
				if m.stale(s) {
					delete(m.sessions, id)
				}
			}
			m.mu.Unlock()
		}
	}
}
