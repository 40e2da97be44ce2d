package storage

import (
	"context"
	"encoding/json"
	"sync"

	"mathtutor-backend/internal/model"
	"mathtutor-backend/pkg/logger"
)

// MemoryStore holds the slot in process memory. It round-trips through
// JSON like the durable backends so tests exercise the same encoding.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Seed overwrites the raw slot content, bypassing Save's marshalling.
// Tests use it to simulate corrupted persisted state.
func (m *MemoryStore) Seed(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = data
}

func (m *MemoryStore) Load(ctx context.Context) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.data) == 0 {
		return []model.Session{}, nil
	}

	var sessions []model.Session
	if err := json.Unmarshal(m.data, &sessions); err != nil {
		logger.Warnf("Discarding malformed in-memory session slot: %v", err)
		return []model.Session{}, nil
	}

	return sessions, nil
}

func (m *MemoryStore) Save(ctx context.Context, sessions []model.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = data
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
