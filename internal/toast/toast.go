// Package toast holds the single-slot add-to-cart notification. A new
// toast preempts any in-flight one; the dismissal timer of a superseded
// toast must never clear its successor.
package toast

import (
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

const DefaultTTL = 5 * time.Second

type Manager struct {
	mu      sync.Mutex
	current *domain.Notification
	timer   *time.Timer
	ttl     time.Duration
	seq     uint64 // bumped on every Show/Hide so stale timers no-op
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{ttl: ttl}
}

// Show replaces the current toast unconditionally and restarts the
// dismissal timer.
func (m *Manager) Show(n domain.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
	}

	m.seq++
	m.current = &n

	seq := m.seq
	m.timer = time.AfterFunc(m.ttl, func() {
		m.expire(seq)
	})
}

// Hide clears the toast and cancels any pending dismissal.
func (m *Manager) Hide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

// Current returns a copy of the live toast, or nil when none is showing.
func (m *Manager) Current() *domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	n := *m.current
	return &n
}

func (m *Manager) expire(seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.seq {
		return // a newer toast took the slot
	}
	m.clearLocked()
}

func (m *Manager) clearLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.seq++
	m.current = nil
}
