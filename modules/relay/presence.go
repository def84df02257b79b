package relay

import (
	"strings"
	"sync"
)

// PresenceTracker is the set of usernames currently online. Iteration order
// is join order; a user who leaves and rejoins moves to the end.
type PresenceTracker struct {
	mu      sync.Mutex
	order   []string
	present map[string]struct{}
}

// NewPresenceTracker creates an empty presence tracker.
func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		present: make(map[string]struct{}),
	}
}

// Join adds username to the set. Returns false without change if the
// username is blank or already present.
func (p *PresenceTracker) Join(username string) bool {
	if strings.TrimSpace(username) == "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.present[username]; ok {
		return false
	}
	p.present[username] = struct{}{}
	p.order = append(p.order, username)
	return true
}

// Leave removes username from the set. Returns false if it was not present.
func (p *PresenceTracker) Leave(username string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.present[username]; !ok {
		return false
	}
	delete(p.present, username)
	for i, name := range p.order {
		if name == username {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

// Snapshot returns an independent copy of the online usernames in join order.
func (p *PresenceTracker) Snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Count returns the number of users currently online.
func (p *PresenceTracker) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}
