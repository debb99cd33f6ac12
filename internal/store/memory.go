package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/AnshRaj112/karmnik-backend/internal/models"
)

// MemoryStore keeps feedings in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.FeedingEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.FeedingEntry)}
}

func (s *MemoryStore) Insert(_ context.Context, entry models.FeedingEntry) (models.FeedingEntry, error) {
	entry.ID = uuid.New().String()

	s.mu.Lock()
	s.entries[entry.ID] = entry
	s.mu.Unlock()

	return entry, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}

	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.FeedingEntry, error) {
	s.mu.RLock()
	out := make([]models.FeedingEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
