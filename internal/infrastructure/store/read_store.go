package store

import (
	"sync"
)

// ReadStore keeps read models in memory, grouped into named collections
// (products, orders, riders, inventory, inventory_movements, users, carts).
// Used by tests and single-process development runs; production uses the
// Postgres-backed store.
type ReadStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]any
}

func NewReadStore() *ReadStore {
	return &ReadStore{
		collections: make(map[string]map[string]any),
	}
}

// Set inserts or replaces a read model.
func (rs *ReadStore) Set(collection, id string, data any) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	col, ok := rs.collections[collection]
	if !ok {
		col = make(map[string]any)
		rs.collections[collection] = col
	}
	col[id] = data
}

// Get retrieves a read model by id.
func (rs *ReadStore) Get(collection, id string) (any, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	data, ok := rs.collections[collection][id]
	return data, ok
}

// GetAll returns every item in a collection, in no particular order.
func (rs *ReadStore) GetAll(collection string) []any {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	col := rs.collections[collection]
	if len(col) == 0 {
		return nil
	}

	items := make([]any, 0, len(col))
	for _, item := range col {
		items = append(items, item)
	}
	return items
}

// Delete removes a read model.
func (rs *ReadStore) Delete(collection, id string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	delete(rs.collections[collection], id)
}

// Update applies updateFn to an existing read model under the store lock.
// Returns false when the model does not exist; the caller then decides
// whether to Set an initial one.
func (rs *ReadStore) Update(collection, id string, updateFn func(current any) any) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	current, ok := rs.collections[collection][id]
	if !ok {
		return false
	}
	rs.collections[collection][id] = updateFn(current)
	return true
}
