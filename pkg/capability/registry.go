package capability

import "sync"

// Registry tracks the active and passive capability registrations of a
// single client. The two sets are kept fully separate: registering a
// capability actively does not make it passively registered, and vice
// versa. Active registrations may cause the service to enable hardware or
// software subsystems; passive registrations never enable anything, they
// only permit reading data that another client's active registration keeps
// flowing.
//
// Register and Unregister are idempotent in both sets: registering a bit
// that is already present, or unregistering one that is absent, is a no-op
// rather than an error.
type Registry struct {
	mu      sync.RWMutex
	active  Capabilities
	passive Capabilities
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds capabilities to the active set.
func (r *Registry) Register(caps Capabilities) {
	r.mu.Lock()
	r.active |= caps
	r.mu.Unlock()
}

// Unregister removes capabilities from the active set.
func (r *Registry) Unregister(caps Capabilities) {
	r.mu.Lock()
	r.active &^= caps
	r.mu.Unlock()
}

// RegisterPassive adds capabilities to the passive set.
func (r *Registry) RegisterPassive(caps Capabilities) {
	r.mu.Lock()
	r.passive |= caps
	r.mu.Unlock()
}

// UnregisterPassive removes capabilities from the passive set.
func (r *Registry) UnregisterPassive(caps Capabilities) {
	r.mu.Lock()
	r.passive &^= caps
	r.mu.Unlock()
}

// Active returns the active set.
func (r *Registry) Active() Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Passive returns the passive set.
func (r *Registry) Passive() Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.passive
}

// Effective returns the union of the active and passive sets: the
// capabilities this client is allowed to query data for.
func (r *Registry) Effective() Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active | r.passive
}

// CanQuery reports whether at least one of the given capabilities is
// registered, actively or passively. Queries gated on a capability fail
// with API_NotRegistered when this is false.
func (r *Registry) CanQuery(caps Capabilities) bool {
	return r.Effective().Intersects(caps)
}
