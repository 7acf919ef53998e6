package items

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// NewKey returns a fresh merge key.
func NewKey() string { return uuid.NewString() }

// MemoryStore keeps items in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	items []Item
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Query(_ context.Context, f Filter) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Item
	for _, it := range s.items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.BatchID != b.BatchID {
			return a.BatchID < b.BatchID
		}
		if a.StartDate != b.StartDate {
			return a.StartDate < b.StartDate
		}
		return a.MergeKey < b.MergeKey
	})
	return out, nil
}

func (s *MemoryStore) Insert(_ context.Context, it Item) (string, error) {
	if it.MergeKey == "" {
		it.MergeKey = NewKey()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.MergeKey == it.MergeKey {
			return "", &DuplicateKeyError{Key: it.MergeKey}
		}
	}
	s.items = append(s.items, it)
	return it.MergeKey, nil
}

func (s *MemoryStore) Update(_ context.Context, mergeKey string, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].MergeKey == mergeKey {
			p.apply(&s.items[i])
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Delete(_ context.Context, f Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	removed := 0
	for _, it := range s.items {
		if f.Match(it) {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	return removed, nil
}

// DuplicateKeyError is returned when an insert reuses an existing merge key.
type DuplicateKeyError struct{ Key string }

func (e *DuplicateKeyError) Error() string { return "items: duplicate merge key " + e.Key }
