package transcript

import "sync"

// Store owns the mutable working copy of a transcription's segments.
// The originally fetched result stays immutable; the store is seeded from
// it exactly once per completed job. Edits are text-only: start, end and
// order are never changed by the store.
type Store struct {
	mu       sync.RWMutex
	segments []Segment
}

func NewStore() *Store {
	return &Store{}
}

// Load replaces the working set with a copy of the given segments.
func (s *Store) Load(segments []Segment) {
	working := make([]Segment, len(segments))
	copy(working, segments)

	s.mu.Lock()
	s.segments = working
	s.mu.Unlock()
}

// SetText replaces the text of the segment with the given id, leaving
// every other field and the segment order untouched. A stale id from a
// torn-down view is a no-op, reported by the return value.
func (s *Store) SetText(id, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.segments {
		if s.segments[i].ID == id {
			s.segments[i].Text = text
			return true
		}
	}
	return false
}

// Segments returns a snapshot copy of the working set.
func (s *Store) Segments() []Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]Segment, len(s.segments))
	copy(snapshot, s.segments)
	return snapshot
}

// Get returns the segment with the given id, if present.
func (s *Store) Get(id string) (Segment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, seg := range s.segments {
		if seg.ID == id {
			return seg, true
		}
	}
	return Segment{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}
