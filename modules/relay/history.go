package relay

import (
	"sync"

	chat "github.com/example/chat-relay/domain/chat"
)

// DefaultHistoryCap is the maximum number of events kept per conversation.
const DefaultHistoryCap = 100

// HistoryStore keeps a bounded, oldest-first event sequence per conversation
// key. When an append would exceed the cap the oldest entry is evicted.
//
// Each conversation has its own lock, so appends to different conversations
// do not block each other. The store-level RWMutex guards only the key map
// during lazy creation and is never held across an append or copy.
type HistoryStore struct {
	cap           int
	mu            sync.RWMutex
	conversations map[string]*conversation
}

type conversation struct {
	mu     sync.Mutex
	events []chat.Event
}

// NewHistoryStore creates a history store. A non-positive cap falls back to
// DefaultHistoryCap.
func NewHistoryStore(cap int) *HistoryStore {
	if cap <= 0 {
		cap = DefaultHistoryCap
	}
	return &HistoryStore{
		cap:           cap,
		conversations: make(map[string]*conversation),
	}
}

// conversation returns the sequence for key, creating it on first use.
func (s *HistoryStore) conversation(key string) *conversation {
	s.mu.RLock()
	c := s.conversations[key]
	s.mu.RUnlock()
	if c != nil {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c = s.conversations[key]; c == nil {
		c = &conversation{}
		s.conversations[key] = c
	}
	return c
}

// Append inserts evt at the end of the sequence for key, evicting the oldest
// entry if the sequence would exceed the cap. Atomic per key.
func (s *HistoryStore) Append(key string, evt chat.Event) {
	c := s.conversation(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	if len(c.events) > s.cap {
		c.events = c.events[len(c.events)-s.cap:]
	}
}

// Snapshot returns an independent copy of the sequence for key, oldest-first.
// An unseen key yields an empty, non-nil slice.
func (s *HistoryStore) Snapshot(key string) []chat.Event {
	s.mu.RLock()
	c := s.conversations[key]
	s.mu.RUnlock()
	if c == nil {
		return []chat.Event{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]chat.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Len returns the number of events currently stored for key.
func (s *HistoryStore) Len(key string) int {
	s.mu.RLock()
	c := s.conversations[key]
	s.mu.RUnlock()
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Conversations returns the number of conversations seen so far.
func (s *HistoryStore) Conversations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
