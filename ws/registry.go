package ws

import "sync"

// Registry maps a player's permanent identity to their single live
// connection. Game state never stores connection ids; anything that needs
// to reach a player resolves here at send time, because an id captured
// earlier in an operation may already be stale.
type Registry struct {
	mu       sync.Mutex
	byPlayer map[string]string // playerID -> connID
	byConn   map[string]string // connID -> playerID
}

func NewRegistry() *Registry {
	return &Registry{
		byPlayer: make(map[string]string),
		byConn:   make(map[string]string),
	}
}

// Bind points playerID at connID, replacing any previous connection the
// player held and evicting any other player that held connID. Keeps the
// invariant that no two players share a connection.
func (r *Registry) Bind(playerID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byPlayer[playerID]; ok {
		delete(r.byConn, old)
	}
	if other, ok := r.byConn[connID]; ok && other != playerID {
		delete(r.byPlayer, other)
	}
	r.byPlayer[playerID] = connID
	r.byConn[connID] = playerID
}

// UnbindConnection clears whichever player currently holds connID and
// reports who that was. A disconnect arriving after the player already
// rebound to a new connection finds nothing and is a no-op; keying by
// connection identity rather than player identity is what makes stale
// disconnects harmless. Idempotent.
func (r *Registry) UnbindConnection(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	playerID, ok := r.byConn[connID]
	if !ok {
		return "", false
	}
	delete(r.byConn, connID)
	delete(r.byPlayer, playerID)
	return playerID, true
}

// Resolve returns the player's current connection id, if any.
func (r *Registry) Resolve(playerID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	connID, ok := r.byPlayer[playerID]
	return connID, ok
}
