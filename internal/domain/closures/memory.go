package closures

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []Closure
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Exists(_ context.Context, batchID, startDate string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(batchID, startDate), nil
}

func (s *MemoryStore) find(batchID, startDate string) bool {
	for _, c := range s.rows {
		if c.BatchID == batchID && c.StartDate == startDate {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Insert(_ context.Context, c Closure) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(c.BatchID, c.StartDate) {
		return false, nil
	}
	s.nextID++
	c.ID = s.nextID
	s.rows = append(s.rows, c)
	return true, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Closure, error) {
	s.mu.Lock()
	out := append([]Closure(nil), s.rows...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.BatchID != b.BatchID {
			return a.BatchID < b.BatchID
		}
		if a.StartDate != b.StartDate {
			return a.StartDate < b.StartDate
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.rows)
	s.rows = nil
	return n, nil
}
