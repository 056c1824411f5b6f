package boxmgr

import (
	"sync"

	"github.com/boxrun/sandboxd/pkg/boxproc"
	"github.com/boxrun/sandboxd/pkg/types"
)

// entry bundles the registry-facing Box record with the live process
// and its filesystem paths.
type entry struct {
	box   *types.Box
	paths boxproc.Paths
	proc  *boxproc.BoxProcess
}

// registry is the in-memory set of boxes BoxManager currently owns.
// Boxes are never persisted: a dead process has nothing worth
// reloading.
type registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*entry)}
}

func (r *registry) put(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.box.ID] = e
}

func (r *registry) get(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// remove deletes id from the registry and reports whether it was
// present, so callers can stay idempotent.
func (r *registry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// list returns a snapshot of the current boxes, sorted by nothing in
// particular: callers that care about order sort it themselves.
func (r *registry) list() []*types.Box {
	r.mu.RLock()
	defer r.mu.RUnlock()

	boxes := make([]*types.Box, 0, len(r.entries))
	for _, e := range r.entries {
		e.box.State = e.proc.State()
		boxes = append(boxes, e.box)
	}
	return boxes
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
