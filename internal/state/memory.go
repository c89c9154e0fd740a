package state

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory StateStore and DocumentStore, used by tests
// and local pipeline runs. It intentionally mirrors the best-effort
// semantics of the real backends: TrySetInflight is its only atomic check.
type MemoryStore struct {
	mu          sync.Mutex
	flags       map[string]Flags
	docs        map[string]string   // id -> content
	locations   map[string][]Document
	quarantined map[string]bool
	now         func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flags:       map[string]Flags{},
		docs:        map[string]string{},
		locations:   map[string][]Document{},
		quarantined: map[string]bool{},
		now:         time.Now,
	}
}

// AddDocument registers a transcript under a source location.
func (m *MemoryStore) AddDocument(location string, doc Document, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[location] = append(m.locations[location], doc)
	m.docs[doc.ID] = content
}

// Flags implements [StateStore].
func (m *MemoryStore) Flags(ctx context.Context, id string) (Flags, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags[id], nil
}

// TrySetInflight implements [StateStore].
func (m *MemoryStore) TrySetInflight(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.flags[id]
	if f.Inflight || f.Processed {
		return false, nil
	}
	f.Inflight = true
	f.InflightAt = m.now()
	m.flags[id] = f
	return true, nil
}

// SetProcessed implements [StateStore].
func (m *MemoryStore) SetProcessed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.flags[id]
	f.Processed = true
	f.ProcessedAt = m.now()
	f.Inflight = false
	m.flags[id] = f
	return nil
}

// SetEmailSent implements [StateStore].
func (m *MemoryStore) SetEmailSent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.flags[id]
	f.EmailSent = true
	m.flags[id] = f
	return nil
}

// ClearFlag implements [StateStore].
func (m *MemoryStore) ClearFlag(ctx context.Context, id string, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.flags[id]
	switch key {
	case KeyInflight:
		f.Inflight = false
		f.InflightAt = time.Time{}
	case KeyProcessed:
		f.Processed = false
		f.ProcessedAt = time.Time{}
	case KeyEmailSent:
		f.EmailSent = false
	default:
		return fmt.Errorf("unknown flag key %q", key)
	}
	m.flags[id] = f
	return nil
}

// List implements [DocumentStore].
func (m *MemoryStore) List(ctx context.Context, location string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Document
	for _, doc := range m.locations[location] {
		if !m.quarantined[doc.ID] {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Fetch implements [DocumentStore].
func (m *MemoryStore) Fetch(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.docs[id]
	if !ok {
		return "", fmt.Errorf("document %q not found", id)
	}
	return content, nil
}

// Quarantine implements [DocumentStore].
func (m *MemoryStore) Quarantine(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quarantined[id] = true
	return nil
}

// Quarantined reports whether a document has been moved out of the scan set.
func (m *MemoryStore) Quarantined(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quarantined[id]
}
