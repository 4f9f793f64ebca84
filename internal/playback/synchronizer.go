// Package playback keeps the transcript view in lock-step with the audio
// playhead. It reduces player events into a derived playback state and
// relays user intent (seek, toggle) back to the player.
package playback

import (
	"github.com/vtstudio/transcript-studio/internal/player"
	"github.com/vtstudio/transcript-studio/internal/transcript"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePlaying Phase = "playing"
	PhasePaused  Phase = "paused"
)

// SegmentSource is the slice of the segment store the synchronizer reads.
type SegmentSource interface {
	Segments() []transcript.Segment
	Get(id string) (transcript.Segment, bool)
}

// Controls is the slice of the player the synchronizer commands.
type Controls interface {
	PlayPause() error
	SetTime(seconds float64) error
}

// State is derived from the store and the latest player report. It is
// recomputed on every event and never acts as a source of truth.
type State struct {
	Phase           Phase
	CurrentTime     float64
	ActiveSegmentID string
}

// Update is the result of reducing one player event. ScrollTo is set
// exactly once per activation of a new segment, so auto-scroll does not
// fight a user who is scrolling manually.
type Update struct {
	State         State
	ActiveChanged bool
	ScrollTo      string
}

type Synchronizer struct {
	source   SegmentSource
	controls Controls
	state    State
}

func New(source SegmentSource, controls Controls) *Synchronizer {
	return &Synchronizer{
		source:   source,
		controls: controls,
		state:    State{Phase: PhaseIdle},
	}
}

// State returns the current derived playback state.
func (s *Synchronizer) State() State {
	return s.state
}

// Playing reports whether the player last reported active playback.
func (s *Synchronizer) Playing() bool {
	return s.state.Phase == PhasePlaying
}

// Apply reduces a player event into the state, recomputing the active
// segment from the current playhead position.
func (s *Synchronizer) Apply(ev player.Event) Update {
	switch ev.Kind {
	case player.EventTimeUpdate:
		s.state.CurrentTime = ev.Time
	case player.EventPlay:
		s.state.Phase = PhasePlaying
	case player.EventPause:
		s.state.Phase = PhasePaused
	case player.EventFinish:
		s.state.Phase = PhaseIdle
	}

	previous := s.state.ActiveSegmentID
	s.state.ActiveSegmentID = ActiveSegmentID(s.source.Segments(), s.state.CurrentTime)

	update := Update{
		State:         s.state,
		ActiveChanged: s.state.ActiveSegmentID != previous,
	}
	if update.ActiveChanged && s.state.ActiveSegmentID != "" {
		update.ScrollTo = s.state.ActiveSegmentID
	}
	return update
}

// ActiveSegmentID returns the id of the first segment in store order
// containing t, or "" when none does. First match wins for overlapping
// segments; segments are expected non-overlapping in practice.
func ActiveSegmentID(segments []transcript.Segment, t float64) string {
	for _, seg := range segments {
		if seg.Start <= t && t <= seg.End {
			return seg.ID
		}
	}
	return ""
}

// SeekTo delegates to the player. CurrentTime is not updated here; it
// follows from the player's next time report.
func (s *Synchronizer) SeekTo(start float64) error {
	return s.controls.SetTime(start)
}

// SeekToSegment seeks to the start of the segment with the given id.
// A stale id is a no-op.
func (s *Synchronizer) SeekToSegment(id string) error {
	seg, ok := s.source.Get(id)
	if !ok {
		return nil
	}
	return s.SeekTo(seg.Start)
}

// TogglePlayback delegates to the player. The displayed state follows
// the player's own play/pause events rather than flipping eagerly.
func (s *Synchronizer) TogglePlayback() error {
	return s.controls.PlayPause()
}

// HandleSpace toggles playback for the keyboard shortcut, unless focus
// is inside a text-editing control.
func (s *Synchronizer) HandleSpace(editing bool) error {
	if editing {
		return nil
	}
	return s.TogglePlayback()
}
