package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/driftchat/driftchat/internal/core"
	"github.com/driftchat/driftchat/internal/domain"
)

// Registry tracks every live connection by client id. It is the delivery
// table for all outbound events and the source of the presence count.
// Transport resources stay adapter-owned; the registry never closes them.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ClientID]core.SignalConnection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ClientID]core.SignalConnection)}
}

// Add binds a connection and returns the new online count.
func (r *Registry) Add(id domain.ClientID, conn core.SignalConnection) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = conn
	log.Info().Str("module", "app.registry").Str("cid", string(id)).Int("online", len(r.conns)).Msg("connection registered")
	return len(r.conns)
}

// Remove unbinds a connection and returns the new online count.
// Removing an unknown id is a no-op.
func (r *Registry) Remove(id domain.ClientID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("cid", string(id)).Int("online", len(r.conns)).Msg("connection removed")
	return len(r.conns)
}

func (r *Registry) Get(id domain.ClientID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Broadcast fans a frame out to every registered connection. Delivery is
// fire-and-forget; a full peer buffer drops the frame.
func (r *Registry) Broadcast(f core.Frame) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, conn := range r.conns {
		if err := conn.TrySend(f); err != nil {
			log.Warn().Str("module", "app.registry").Str("cid", string(id)).Err(err).Msg("broadcast dropped")
		}
	}
}
