// store.go
package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Store guarda el carrito de cada sesión. Load de una sesión desconocida
// devuelve un carrito vacío.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
}

// MemoryStore mantiene los carritos en el proceso. Guarda copias para que
// un carrito cargado no comparta estado con el guardado. Los carritos sin
// uso durante ttl se descartan en el próximo acceso, igual que en Redis.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	carts map[string]*memoryEntry
}

type memoryEntry struct {
	data     []byte
	lastSeen time.Time
}

type MemoryOption func(*MemoryStore)

// WithMemoryTTL con 0 deja los carritos sin expiración.
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		m.ttl = ttl
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		ttl:   2 * time.Hour,
		now:   time.Now,
		carts: make(map[string]*memoryEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (*Cart, error) {
	m.mu.Lock()
	now := m.now()
	m.evict(now)
	var data []byte
	e, ok := m.carts[sessionID]
	if ok {
		e.lastSeen = now
		data = e.data
	}
	m.mu.Unlock()

	c := New()
	if !ok {
		return c, nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.evict(now)
	if c.Len() == 0 {
		delete(m.carts, sessionID)
		return nil
	}
	m.carts[sessionID] = &memoryEntry{data: data, lastSeen: now}
	return nil
}

func (m *MemoryStore) TTL() time.Duration { return m.ttl }

// Len cuenta los carritos guardados, incluidos los vencidos que aún no se
// descartaron.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.carts)
}

func (m *MemoryStore) evict(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for id, e := range m.carts {
		if now.Sub(e.lastSeen) > m.ttl {
			delete(m.carts, id)
		}
	}
}
