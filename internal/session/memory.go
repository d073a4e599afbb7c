package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

// MemoryStore keeps sessions in process. It serialises updates with a mutex and round-trips values
// through JSON so callers observe the same copy semantics as RedisStore.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string][]byte{}}
}

func (m *MemoryStore) Load(c context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("failed finding session with error=%w", inErrors.ErrSessionNotFound)
	}
	return decode(raw)
}

func (m *MemoryStore) Save(c context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.sessions[s.ID] = raw
	return nil
}

func (m *MemoryStore) Update(c context.Context, id string, fn func(s *Session) error) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("failed updating session with error=%w", inErrors.ErrSessionNotFound)
	}
	s, err := decode(raw)
	if err != nil {
		return Session{}, err
	}
	if err := fn(&s); err != nil {
		return Session{}, fmt.Errorf("failed updating session with error=%w", err)
	}
	out, err := json.Marshal(s)
	if err != nil {
		return Session{}, err
	}
	m.sessions[id] = out
	return s, nil
}

func (m *MemoryStore) Delete(c context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
