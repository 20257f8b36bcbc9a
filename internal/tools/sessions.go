package tools

import (
	"sync"
	"time"
)

// Sessions guarda las sesiones abiertas por la API HTTP. Las que no se usan
// durante idle se descartan en el próximo Get.
type Sessions struct {
	mu       sync.Mutex
	idle     time.Duration
	now      func() time.Time
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	s        *Session
	lastSeen time.Time
}

func NewSessions(idle time.Duration) *Sessions {
	return &Sessions{idle: idle, now: time.Now, sessions: make(map[string]*sessionEntry)}
}

// Get devuelve la sesión id, creándola si no existe.
func (m *Sessions) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.evict(now)
	e, ok := m.sessions[id]
	if !ok {
		s := NewSession(id)
		e = &sessionEntry{s: s}
		m.sessions[s.ID] = e
	}
	e.lastSeen = now
	return e.s
}

func (m *Sessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Sessions) evict(now time.Time) {
	if m.idle <= 0 {
		return
	}
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.idle {
			delete(m.sessions, id)
		}
	}
}
