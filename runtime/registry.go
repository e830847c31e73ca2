package runtime

import (
	"sync"

	"chat-hub/contract"
)

// Registry maps each connected user id to the sink of its single live
// connection. All operations take the one lock, so concurrent callers
// always see one consistent view.
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]contract.PushSink
}

func NewRegistry() *Registry {
	return &Registry{sinks: make(map[string]contract.PushSink)}
}

// Subscribe upserts the sink for userID. A previously registered sink
// is silently replaced; the last subscriber wins and the old sink is
// not closed here.
func (r *Registry) Subscribe(userID string, sink contract.PushSink) {
	r.mu.Lock()
	r.sinks[userID] = sink
	r.mu.Unlock()
}

// Unsubscribe removes the mapping. Absent ids are a no-op.
func (r *Registry) Unsubscribe(userID string) {
	r.mu.Lock()
	delete(r.sinks, userID)
	r.mu.Unlock()
}

// Lookup resolves a live sink, if any.
func (r *Registry) Lookup(userID string) (contract.PushSink, bool) {
	r.mu.RLock()
	sink, ok := r.sinks[userID]
	r.mu.RUnlock()
	return sink, ok
}

// Sinks returns every live sink, for pushes addressed to the whole
// connected population.
func (r *Registry) Sinks() []contract.PushSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sinks := make([]contract.PushSink, 0, len(r.sinks))
	for _, sink := range r.sinks {
		sinks = append(sinks, sink)
	}
	return sinks
}

// ConnectedIDs lists the user ids with a live connection.
func (r *Registry) ConnectedIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sinks))
	for id := range r.sinks {
		ids = append(ids, id)
	}
	return ids
}
