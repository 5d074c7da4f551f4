// Package configstore provides persisted-config document stores for the
// tracker: an in-memory store for tests and embedding, and a SQLite-backed
// store for durable state.
package configstore

import (
	"context"
	"sync"

	"github.com/dbsmedya/polytrack/internal/tracker"
)

// Memory is an in-process Store. Documents survive only for the lifetime of
// the instance, but sharing one Memory between trackers models a process
// restart against the same storage.
type Memory struct {
	mu   sync.Mutex
	docs map[string]*tracker.PolymorphicConfig
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]*tracker.PolymorphicConfig),
	}
}

// Load returns a deep copy of the stored document, or (nil, nil) when absent.
func (m *Memory) Load(ctx context.Context, configID string) (*tracker.PolymorphicConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[configID]
	if !ok {
		return nil, nil
	}
	return doc.Clone(), nil
}

// Save stores a deep copy of the document under configID.
func (m *Memory) Save(ctx context.Context, configID string, cfg *tracker.PolymorphicConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[configID] = cfg.Clone()
	return nil
}
