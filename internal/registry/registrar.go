package registry

import (
	"sync"

	"github.com/elliotchance/orderedmap/v2"
)

// Registrar is the generic relationship-registration mechanism the
// surrounding application provides. The registry only writes descriptors
// into it.
type Registrar interface {
	Register(d Descriptor) error
	ValidRelationships() []string
	Metadata(name string) (Descriptor, bool)
}

// Unregisterer is an optional Registrar capability. Registrars that support
// it get stale fan-out entries removed on re-synchronization; others keep
// them until the next process start.
type Unregisterer interface {
	Unregister(name string) bool
}

// MemoryRegistrar is an in-process Registrar keeping descriptors in
// insertion order. Registering an existing name updates it in place.
type MemoryRegistrar struct {
	mu   sync.RWMutex
	rels *orderedmap.OrderedMap[string, Descriptor]
}

// NewMemoryRegistrar creates an empty registrar.
func NewMemoryRegistrar() *MemoryRegistrar {
	return &MemoryRegistrar{
		rels: orderedmap.NewOrderedMap[string, Descriptor](),
	}
}

// Register upserts a descriptor under its name.
func (r *MemoryRegistrar) Register(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rels.Set(d.Name, d)
	return nil
}

// ValidRelationships returns registered names in insertion order.
func (r *MemoryRegistrar) ValidRelationships() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.rels.Keys()
}

// Metadata returns the descriptor registered under name.
func (r *MemoryRegistrar) Metadata(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.rels.Get(name)
}

// Unregister removes the named relationship, reporting whether it existed.
func (r *MemoryRegistrar) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rels.Delete(name)
}
