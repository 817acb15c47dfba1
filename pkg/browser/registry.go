package browser

import (
	"sort"
	"sync"
)

// Registry is the single source of truth for "what does this tool believe
// is running". Mutation happens on exactly four paths: launch success,
// explicit close, reconciliation death-prune, reconciliation
// discovery-adopt. Guarded by a mutex because callers poll reconciliation
// from background goroutines while launches run on the caller's goroutine.
type Registry struct {
	mu        sync.Mutex
	instances map[string]*TrackedInstance
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[string]*TrackedInstance),
	}
}

// Get returns the tracked instance for a profile name, or nil
func (r *Registry) Get(profileName string) *TrackedInstance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instances[profileName]
}

// Put inserts or replaces the tracked instance for its profile name
func (r *Registry) Put(instance *TrackedInstance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[instance.ProfileName] = instance
}

// Delete removes the entry for a profile name, reporting whether it existed
func (r *Registry) Delete(profileName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.instances[profileName]
	delete(r.instances, profileName)
	return ok
}

// Contains reports whether a profile name is tracked
func (r *Registry) Contains(profileName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.instances[profileName]
	return ok
}

// Len returns the number of tracked instances
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// Names returns the tracked profile names in sorted order
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the registry map, safe to iterate while other
// goroutines mutate the registry.
func (r *Registry) Snapshot() map[string]*TrackedInstance {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[string]*TrackedInstance, len(r.instances))
	for name, instance := range r.instances {
		snapshot[name] = instance
	}
	return snapshot
}
