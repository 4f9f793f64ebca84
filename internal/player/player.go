// Package player is the boundary to the external audio player. The rest
// of the application never touches player internals; it subscribes to a
// fixed set of named events and issues play/pause/seek commands.
package player

import (
	"sync"

	"github.com/vtstudio/transcript-studio/pkg/log"
)

type EventKind string

// Event names delivered by a Player, in delivery order.
const (
	EventTimeUpdate EventKind = "time-update"
	EventPlay       EventKind = "play"
	EventPause      EventKind = "pause"
	EventFinish     EventKind = "finish"
)

// Event is a single player notification. Time carries the playhead
// position in seconds for time-update events.
type Event struct {
	Kind EventKind
	Time float64
}

// Player is a black-box audio player for one loaded track.
type Player interface {
	// Events delivers player notifications until the player is closed.
	Events() <-chan Event
	// PlayPause toggles playback. State changes surface as events, not
	// as an eager local flip.
	PlayPause() error
	// SetTime seeks to an absolute position in seconds.
	SetTime(seconds float64) error
	// Close releases the player and its resources.
	Close() error
}

// Factory constructs a player for an audio reference.
type Factory func() (Player, error)

// Slot holds at most one live player. Swapping in a new player always
// closes the previous one first, so two live instances for the same
// editor view never coexist.
type Slot struct {
	mu      sync.Mutex
	current Player
}

func NewSlot() *Slot {
	return &Slot{}
}

// Swap closes the current player, then constructs the next one. On
// factory failure the slot is left empty.
func (s *Slot) Swap(factory Factory) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		if err := s.current.Close(); err != nil {
			log.Warn("Failed to close previous player: %v", err)
		}
		s.current = nil
	}

	p, err := factory()
	if err != nil {
		return nil, err
	}
	s.current = p
	return p, nil
}

// Current returns the live player, or nil when the slot is empty.
func (s *Slot) Current() Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Close releases the live player, if any.
func (s *Slot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}
