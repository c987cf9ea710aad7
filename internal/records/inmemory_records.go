package records

import (
	"context"
	"sync"

	"namereg/internal/identity"
)

var _ Records = (*MemoryRecords)(nil)

var _ identity.Provider = (*MemoryRecords)(nil)

// MemoryRecords provides an in-memory implementation of the Records interface.
// Tombstones are kept so their versions stay visible to the checks.
type MemoryRecords struct {
	id      string
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryRecords creates a new MemoryRecords instance.
func NewMemoryRecords(id string) *MemoryRecords {
	if id == "" {
		id = identity.NewID()
	}
	return &MemoryRecords{
		id:      id,
		records: make(map[string]Record),
	}
}

// ID returns the store ID.
func (m *MemoryRecords) ID() string {
	return m.id
}

// Get returns the live record stored at address.
func (m *MemoryRecords) Get(ctx context.Context, address string, tag uint64) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[address]
	if !ok || rec.Deleted() {
		return Record{}, ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

// Put creates a record.
func (m *MemoryRecords) Put(ctx context.Context, rec Record) error {
	return m.apply(rec, CheckCreate)
}

// Post updates a record.
func (m *MemoryRecords) Post(ctx context.Context, rec Record) error {
	return m.apply(rec, CheckUpdate)
}

// Delete replaces a record with a tombstone.
func (m *MemoryRecords) Delete(ctx context.Context, rec Record) error {
	return m.apply(rec, CheckDelete)
}

func (m *MemoryRecords) apply(rec Record, check func(*Record, Record) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current *Record
	if existing, ok := m.records[rec.Address]; ok {
		current = &existing
	}
	if err := check(current, rec); err != nil {
		return err
	}

	m.records[rec.Address] = cloneRecord(rec)
	return nil
}
