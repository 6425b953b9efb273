package websocket

import "sync"

// Presence tracks which users currently hold at least one live websocket
// connection. A user key exists iff its connection set is non-empty.
type Presence struct {
	mu    sync.Mutex
	conns map[string]map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{
		conns: make(map[string]map[string]struct{}),
	}
}

// Register adds connID to the user's connection set and reports whether this
// was the user's first live connection.
func (p *Presence) Register(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		p.conns[userID] = set
	}
	set[connID] = struct{}{}
	return !ok
}

// Unregister removes connID from the user's connection set and reports
// whether this was the user's last live connection. Removing an absent
// connection is a no-op.
func (p *Presence) Unregister(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(p.conns, userID)
		return true
	}
	return false
}

func (p *Presence) Online(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns[userID]) > 0
}

// Snapshot returns the ids of all currently online users.
func (p *Presence) Snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := make([]string, 0, len(p.conns))
	for userID := range p.conns {
		users = append(users, userID)
	}
	return users
}
