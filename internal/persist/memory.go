// internal/persist/memory.go
package persist

import (
	"context"
	"sort"
	"sync"

	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/google/uuid"
)

// MemoryStore keeps encoded records in process memory. Used by STORE_BACKEND=memory and tests.
type MemoryStore struct {
	mu      sync.Mutex
	states  map[uuid.UUID][]byte
	history map[uuid.UUID][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:  make(map[uuid.UUID][]byte),
		history: make(map[uuid.UUID][]byte),
	}
}

func (s *MemoryStore) SaveState(_ context.Context, state game.State) error {
	data, err := EncodeState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.ID] = data
	return nil
}

func (s *MemoryStore) LoadState(_ context.Context, id uuid.UUID) (game.State, error) {
	s.mu.Lock()
	data, ok := s.states[id]
	s.mu.Unlock()
	if !ok {
		return game.State{}, ErrNotFound
	}
	return DecodeState(data)
}

func (s *MemoryStore) SaveHistory(_ context.Context, id uuid.UUID, entries []models.HistoryEntry) error {
	data, err := EncodeHistory(entries)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[id] = data
	return nil
}

func (s *MemoryStore) LoadHistory(_ context.Context, id uuid.UUID) ([]models.HistoryEntry, error) {
	s.mu.Lock()
	data, ok := s.history[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return DecodeHistory(data)
}

func (s *MemoryStore) Clear(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	delete(s.history, id)
	return nil
}

func (s *MemoryStore) ListGames(_ context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// PutRaw stores raw record bytes, bypassing the codec. A nil slice leaves that record alone.
func (s *MemoryStore) PutRaw(id uuid.UUID, state, history []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state != nil {
		s.states[id] = state
	}
	if history != nil {
		s.history[id] = history
	}
}

func (s *MemoryStore) Close() error { return nil }
