package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtstudio/transcript-studio/internal/player"
	"github.com/vtstudio/transcript-studio/internal/transcript"
)

type fakeControls struct {
	commands []string
	seeks    []float64
}

func (f *fakeControls) PlayPause() error {
	f.commands = append(f.commands, "playpause")
	return nil
}

func (f *fakeControls) SetTime(seconds float64) error {
	f.commands = append(f.commands, "settime")
	f.seeks = append(f.seeks, seconds)
	return nil
}

func storeWith(segments ...transcript.Segment) *transcript.Store {
	s := transcript.NewStore()
	s.Load(segments)
	return s
}

func timeUpdate(t float64) player.Event {
	return player.Event{Kind: player.EventTimeUpdate, Time: t}
}

func TestActiveSegmentID_OverlapFirstMatchWins(t *testing.T) {
	segments := []transcript.Segment{
		{ID: "1", Start: 0, End: 5, Text: "a"},
		{ID: "2", Start: 4, End: 9, Text: "b"},
	}
	assert.Equal(t, "1", ActiveSegmentID(segments, 4.5))
	assert.Equal(t, "2", ActiveSegmentID(segments, 6))
	assert.Equal(t, "", ActiveSegmentID(segments, 9.5))
}

func TestActiveSegmentID_BoundariesInclusive(t *testing.T) {
	segments := []transcript.Segment{{ID: "1", Start: 1, End: 2, Text: "a"}}
	assert.Equal(t, "1", ActiveSegmentID(segments, 1))
	assert.Equal(t, "1", ActiveSegmentID(segments, 2))
	assert.Equal(t, "", ActiveSegmentID(segments, 0.999))
}

func TestSynchronizer_ScrollSignalFiresOncePerActivation(t *testing.T) {
	store := storeWith(
		transcript.Segment{ID: "1", Start: 0, End: 2, Text: "a"},
		transcript.Segment{ID: "2", Start: 2.5, End: 5, Text: "b"},
	)
	sync := New(store, &fakeControls{})

	up := sync.Apply(timeUpdate(0.5))
	assert.True(t, up.ActiveChanged)
	assert.Equal(t, "1", up.ScrollTo)

	// Same segment stays active: no further scroll signals.
	up = sync.Apply(timeUpdate(1.0))
	assert.False(t, up.ActiveChanged)
	assert.Empty(t, up.ScrollTo)

	up = sync.Apply(timeUpdate(1.9))
	assert.Empty(t, up.ScrollTo)

	// Gap between segments clears the active id without a scroll signal.
	up = sync.Apply(timeUpdate(2.2))
	assert.True(t, up.ActiveChanged)
	assert.Empty(t, up.ScrollTo)
	assert.Equal(t, "", sync.State().ActiveSegmentID)

	up = sync.Apply(timeUpdate(3))
	assert.True(t, up.ActiveChanged)
	assert.Equal(t, "2", up.ScrollTo)
}

func TestSynchronizer_PhaseFollowsPlayerEvents(t *testing.T) {
	store := storeWith()
	controls := &fakeControls{}
	sync := New(store, controls)

	assert.Equal(t, PhaseIdle, sync.State().Phase)

	// Toggling delegates but does not flip local state eagerly.
	require.NoError(t, sync.TogglePlayback())
	assert.Equal(t, PhaseIdle, sync.State().Phase)
	assert.Equal(t, []string{"playpause"}, controls.commands)

	sync.Apply(player.Event{Kind: player.EventPlay})
	assert.True(t, sync.Playing())

	sync.Apply(player.Event{Kind: player.EventPause})
	assert.Equal(t, PhasePaused, sync.State().Phase)

	sync.Apply(player.Event{Kind: player.EventFinish})
	assert.Equal(t, PhaseIdle, sync.State().Phase)
}

func TestSynchronizer_SeekDoesNotTouchCurrentTime(t *testing.T) {
	store := storeWith(transcript.Segment{ID: "1", Start: 10, End: 12, Text: "a"})
	controls := &fakeControls{}
	sync := New(store, controls)

	sync.Apply(timeUpdate(3))
	require.NoError(t, sync.SeekToSegment("1"))

	assert.Equal(t, []float64{10.0}, controls.seeks)
	assert.Equal(t, 3.0, sync.State().CurrentTime, "time follows the next player report")

	// The player reports the new position, and the segment activates.
	up := sync.Apply(timeUpdate(10))
	assert.Equal(t, "1", up.ScrollTo)
}

func TestSynchronizer_SeekToStaleSegmentIsNoOp(t *testing.T) {
	store := storeWith(transcript.Segment{ID: "1", Start: 0, End: 1, Text: "a"})
	controls := &fakeControls{}
	sync := New(store, controls)

	require.NoError(t, sync.SeekToSegment("gone"))
	assert.Empty(t, controls.seeks)
}

func TestSynchronizer_SpaceIgnoredWhileEditing(t *testing.T) {
	store := storeWith()
	controls := &fakeControls{}
	sync := New(store, controls)

	require.NoError(t, sync.HandleSpace(true))
	assert.Empty(t, controls.commands)

	require.NoError(t, sync.HandleSpace(false))
	assert.Equal(t, []string{"playpause"}, controls.commands)
}
