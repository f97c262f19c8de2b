package offline

import (
	"context"
	"sync"
)

// MemoryStore keeps everything in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	kv     map[string][]byte
	lists  map[string][]Item
	closed bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{kv: make(map[string][]byte), lists: make(map[string][]Item)}
}

func (m *MemoryStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.closed {
		return ErrStoreClosed
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, false, err
	}
	v, ok := m.kv[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	m.kv[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	delete(m.kv, key)
	return nil
}

func (m *MemoryStore) Append(ctx context.Context, list string, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	item.Payload = append([]byte(nil), item.Payload...)
	m.lists[list] = append(m.lists[list], item)
	return nil
}

func (m *MemoryStore) Items(ctx context.Context, list string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(m.lists[list]))
	for _, it := range m.lists[list] {
		out = append(out, Item{ID: it.ID, Payload: append([]byte(nil), it.Payload...)})
	}
	return out, nil
}

func (m *MemoryStore) Replace(ctx context.Context, list string, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	items := m.lists[list]
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Payload = append([]byte(nil), item.Payload...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, list, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	items := m.lists[list]
	for i := range items {
		if items[i].ID == id {
			m.lists[list] = append(items[:i:i], items[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ Store = (*MemoryStore)(nil)
