package company

import (
	"context"
	"sort"
	"sync"
)

// Store persists companies. Create and Update return ErrDuplicate when the
// name is taken; Get, Update and Delete return ErrNotFound for unknown ids.
type Store interface {
	List(ctx context.Context) ([]Company, error)
	Get(ctx context.Context, id string) (*Company, error)
	Create(ctx context.Context, c *Company) error
	Update(ctx context.Context, c *Company) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a Store for development and tests
type MemoryStore struct {
	mu        sync.RWMutex
	companies map[string]Company
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{companies: make(map[string]Company)}
}

// List returns companies newest first
func (s *MemoryStore) List(_ context.Context) ([]Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) Create(_ context.Context, c *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(c.Name, "") {
		return ErrDuplicate
	}
	s.companies[c.ID] = *c
	return nil
}

func (s *MemoryStore) Update(_ context.Context, c *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[c.ID]; !ok {
		return ErrNotFound
	}
	if s.nameTaken(c.Name, c.ID) {
		return ErrDuplicate
	}
	s.companies[c.ID] = *c
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return ErrNotFound
	}
	delete(s.companies, id)
	return nil
}

// nameTaken must be called with the lock held
func (s *MemoryStore) nameTaken(name, exceptID string) bool {
	for id, c := range s.companies {
		if id != exceptID && c.Name == name {
			return true
		}
	}
	return false
}
