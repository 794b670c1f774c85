package repository

import (
	"context"
	"sync"
)

// MemoryStore keeps settings in process. Used for development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, component, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[component][name]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, component, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[component]
	if !ok {
		m = make(map[string]string)
		s.data[component] = m
	}
	m[name] = value
	return nil
}

func (s *MemoryStore) Unset(_ context.Context, component, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[component], name)
	return nil
}

func (s *MemoryStore) List(_ context.Context, component string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make(map[string]string, len(s.data[component]))
	for k, v := range s.data[component] {
		res[k] = v
	}
	return res, nil
}

func (s *MemoryStore) Health(context.Context) error {
	return nil
}
