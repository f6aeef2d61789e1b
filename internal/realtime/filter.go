package realtime

import "sync"

// DefaultDedupeWindow bounds how many message ids a filter remembers.
const DefaultDedupeWindow = 1024

// ConversationFilter keeps only events of one conversation, the unordered pair
// {user, counterpart}, and drops ids it has already accepted.
//
// The broad topic carries every message in the system, so every consumer
// filters; delivery is at-least-once, so every consumer dedupes.
type ConversationFilter struct {
	user        string
	counterpart string
	seen        *IDSet
}

// NewConversationFilter builds a filter remembering up to window ids.
func NewConversationFilter(user, counterpart string, window int) *ConversationFilter {
	return &ConversationFilter{
		user:        user,
		counterpart: counterpart,
		seen:        NewIDSet(window),
	}
}

// InConversation reports whether the message belongs to {user, counterpart}.
func (f *ConversationFilter) InConversation(m MessagePayload) bool {
	return (m.Sender == f.user && m.Receiver == f.counterpart) ||
		(m.Sender == f.counterpart && m.Receiver == f.user)
}

// Accept reports whether m should be delivered: it belongs to the
// conversation and has not been delivered before.
func (f *ConversationFilter) Accept(m MessagePayload) bool {
	if !f.InConversation(m) {
		return false
	}
	return f.seen.Add(m.ID)
}

// MarkSeen records ids delivered by other means (e.g. the history fetch).
func (f *ConversationFilter) MarkSeen(ids ...uint64) {
	for _, id := range ids {
		f.seen.Add(id)
	}
}

// IDSet is a bounded set of ids; the oldest id is evicted when full.
// Safe for concurrent use.
type IDSet struct {
	mu    sync.Mutex
	limit int
	order []uint64
	ids   map[uint64]struct{}
}

// NewIDSet creates a set holding at most limit ids.
func NewIDSet(limit int) *IDSet {
	if limit <= 0 {
		limit = DefaultDedupeWindow
	}
	return &IDSet{
		limit: limit,
		order: make([]uint64, 0, limit),
		ids:   make(map[uint64]struct{}, limit),
	}
}

// Add inserts id and reports whether it was new.
func (s *IDSet) Add(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return false
	}
	if len(s.order) == s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.ids, oldest)
	}
	s.order = append(s.order, id)
	s.ids[id] = struct{}{}
	return true
}

// Has reports whether id is in the set.
func (s *IDSet) Has(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns how many ids are held.
func (s *IDSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
