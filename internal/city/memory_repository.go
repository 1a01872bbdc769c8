package city

import (
	"context"
	"sync"
)

// InMemoryRepository serves city records from process memory.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
}

// NewInMemoryRepository creates a repository seeded with the sample cities.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithRecords(SampleRecords())
}

// NewInMemoryRepositoryWithRecords creates a repository holding the given records.
// Records without a Key are indexed by their normalized City name.
func NewInMemoryRepositoryWithRecords(records []*Record) *InMemoryRepository {
	repo := &InMemoryRepository{
		records: make(map[string]*Record, len(records)),
	}
	for _, r := range records {
		repo.put(r)
	}
	return repo
}

// Get retrieves a copy of the record stored under key.
func (r *InMemoryRepository) Get(_ context.Context, key string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[key]
	if !ok {
		return nil, ErrCityNotFound
	}
	return rec.Clone(), nil
}

// List returns copies of all records in insertion order.
func (r *InMemoryRepository) List(_ context.Context) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Record, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.records[key].Clone())
	}
	return out, nil
}

// Put adds or replaces a record.
func (r *InMemoryRepository) Put(rec *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(rec)
}

func (r *InMemoryRepository) put(rec *Record) {
	stored := rec.Clone()
	if stored.Key == "" {
		stored.Key = NormalizeKey(stored.City)
	}
	if _, exists := r.records[stored.Key]; !exists {
		r.order = append(r.order, stored.Key)
	}
	r.records[stored.Key] = stored
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
