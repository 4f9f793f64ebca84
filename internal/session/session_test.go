package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtstudio/transcript-studio/internal/backend"
	"github.com/vtstudio/transcript-studio/internal/config"
	"github.com/vtstudio/transcript-studio/internal/export"
	"github.com/vtstudio/transcript-studio/internal/player"
	"github.com/vtstudio/transcript-studio/internal/transcript"
)

type stubPlayer struct {
	source string
	events chan player.Event
	closed atomic.Bool
}

func newStubPlayer(source string) *stubPlayer {
	return &stubPlayer{source: source, events: make(chan player.Event, 8)}
}

func (p *stubPlayer) Events() <-chan player.Event { return p.events }
func (p *stubPlayer) PlayPause() error            { return nil }
func (p *stubPlayer) SetTime(float64) error       { return nil }

func (p *stubPlayer) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		close(p.events)
	}
	return nil
}

// fakeBackend scripts the upload/status/audio/save endpoints.
type fakeBackend struct {
	mu        sync.Mutex
	polls     int
	pollsTo   int // number of processing responses before the terminal one
	terminal  backend.JobStatus
	saved     []transcript.Segment
	audioBody string
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"task_id": "task-1", "status": "processing"})
	})
	mux.HandleFunc("/tasks/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.polls++
		done := f.polls > f.pollsTo
		f.mu.Unlock()
		if !done {
			json.NewEncoder(w).Encode(backend.JobStatus{Status: backend.StateProcessing})
			return
		}
		json.NewEncoder(w).Encode(f.terminal)
	})
	mux.HandleFunc("/audio/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(f.audioBody))
	})
	mux.HandleFunc("/save/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewDecoder(r.Body).Decode(&f.saved)
		json.NewEncoder(w).Encode(map[string]string{"status": "saved"})
	})
	return mux
}

func completedStatus() backend.JobStatus {
	return backend.JobStatus{
		Status: backend.StateCompleted,
		Result: &backend.JobResult{
			OriginalFilename: "interview.mp3",
			ExtractedAudio:   "audio.wav",
			VocalsAudio:      "vocals.wav",
			Transcription: transcript.RawResult{
				Language: "en",
				Segments: []transcript.RawSegment{
					{ID: "0", Start: 0, End: 2, Text: "hello"},
					{ID: "1", Start: 2, End: 4, Text: "world"},
				},
			},
		},
	}
}

func newTestSession(t *testing.T, fb *fakeBackend) (*Session, func() *stubPlayer) {
	t.Helper()

	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)

	dataDir := t.TempDir()
	t.Setenv("STUDIO_DATA_DIR", dataDir)
	t.Setenv("STUDIO_EXPORT_DIR", t.TempDir())
	t.Setenv("STUDIO_BACKEND_URL", srv.URL)
	t.Setenv("STUDIO_POLL_INTERVAL", "1")
	cfg, err := config.NewFromEnv()
	require.NoError(t, err)

	client := backend.NewClient(backend.Config{BaseURL: srv.URL})
	s := New(cfg, client, nil)

	var mu sync.Mutex
	var last *stubPlayer
	s.SetPlayerFactory(func(source string) (player.Player, error) {
		mu.Lock()
		defer mu.Unlock()
		last = newStubPlayer(source)
		return last, nil
	})
	t.Cleanup(s.Close)

	return s, func() *stubPlayer {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func uploadFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interview.mp3")
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))
	return path
}

func waitForPhase(t *testing.T, s *Session, phase Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Phase() == phase },
		10*time.Second, 20*time.Millisecond, "waiting for phase %s, at %s", phase, s.Phase())
}

func TestSession_CompletedJobSeedsStoreAndPlayer(t *testing.T) {
	fb := &fakeBackend{pollsTo: 1, terminal: completedStatus(), audioBody: "wav-bytes"}
	s, lastPlayer := newTestSession(t, fb)

	require.NoError(t, s.Submit(context.Background(), uploadFile(t)))
	assert.Equal(t, PhaseProcessing, s.Phase())
	assert.Equal(t, "task-1", s.TaskID())

	waitForPhase(t, s, PhaseReady)
	assert.Equal(t, 2, s.Store().Len())
	assert.Equal(t, "interview.mp3", s.OriginalFilename())
	assert.Equal(t, "en", s.Language())

	p := lastPlayer()
	require.NotNil(t, p)

	// Prefetch succeeded, so the player loads the cached copy.
	data, err := os.ReadFile(p.source)
	require.NoError(t, err)
	assert.Equal(t, "wav-bytes", string(data))
}

func TestSession_FailedJobIsTerminal(t *testing.T) {
	fb := &fakeBackend{pollsTo: 0, terminal: backend.JobStatus{
		Status: backend.StateFailed,
		Error:  "separation failed",
	}}
	s, _ := newTestSession(t, fb)

	require.NoError(t, s.Submit(context.Background(), uploadFile(t)))
	waitForPhase(t, s, PhaseFailed)
	assert.Equal(t, "separation failed", s.ErrorMessage())
}

func TestSession_MalformedTranscriptionFails(t *testing.T) {
	status := completedStatus()
	status.Result.Transcription.Segments[0].End = 0 // end not after start
	fb := &fakeBackend{pollsTo: 0, terminal: status}
	s, _ := newTestSession(t, fb)

	require.NoError(t, s.Submit(context.Background(), uploadFile(t)))
	waitForPhase(t, s, PhaseFailed)
	assert.Contains(t, s.ErrorMessage(), "malformed transcription")
}

func TestSession_SecondSubmitRejectedWhileProcessing(t *testing.T) {
	fb := &fakeBackend{pollsTo: 1000, terminal: completedStatus()}
	s, _ := newTestSession(t, fb)

	require.NoError(t, s.Submit(context.Background(), uploadFile(t)))
	err := s.Submit(context.Background(), uploadFile(t))
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrUpload))
}

func TestSession_ExportsAreNoOpsBeforeCompletion(t *testing.T) {
	fb := &fakeBackend{pollsTo: 1000, terminal: completedStatus()}
	s, _ := newTestSession(t, fb)

	path, err := s.ExportSRT()
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = s.ExportTXT()
	require.NoError(t, err)
	assert.Empty(t, path)

	require.NoError(t, s.CopyTranscript())
}

func TestSession_ExportAfterEdit(t *testing.T) {
	fb := &fakeBackend{pollsTo: 0, terminal: completedStatus(), audioBody: "x"}
	s, _ := newTestSession(t, fb)

	require.NoError(t, s.Submit(context.Background(), uploadFile(t)))
	waitForPhase(t, s, PhaseReady)

	s.SetSegmentText("1", "corrected world")

	srtPath, err := s.ExportSRT()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(srtPath, "interview.srt"))
	data, err := os.ReadFile(srtPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "corrected world")

	parsed, err := export.ParseSubtitleText(string(data))
	require.NoError(t, err)
	assert.Len(t, parsed, 2)

	txtPath, err := s.ExportTXT()
	require.NoError(t, err)
	data, err = os.ReadFile(txtPath)
	require.NoError(t, err)
	assert.Equal(t, "hello\ncorrected world", string(data))
}

func TestSession_SaveEditsSendsWorkingCopy(t *testing.T) {
	fb := &fakeBackend{pollsTo: 0, terminal: completedStatus(), audioBody: "x"}
	s, _ := newTestSession(t, fb)

	require.NoError(t, s.Submit(context.Background(), uploadFile(t)))
	waitForPhase(t, s, PhaseReady)

	s.SetSegmentText("0", "hey")
	require.NoError(t, s.SaveEdits(context.Background()))

	fb.mu.Lock()
	defer fb.mu.Unlock()
	require.Len(t, fb.saved, 2)
	assert.Equal(t, "hey", fb.saved[0].Text)
}

func TestSession_ResetAllowsNewSubmission(t *testing.T) {
	fb := &fakeBackend{pollsTo: 0, terminal: backend.JobStatus{
		Status: backend.StateFailed,
		Error:  "boom",
	}}
	s, _ := newTestSession(t, fb)

	require.NoError(t, s.Submit(context.Background(), uploadFile(t)))
	waitForPhase(t, s, PhaseFailed)

	s.Reset()
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Empty(t, s.TaskID())
	assert.Empty(t, s.ErrorMessage())
	assert.Zero(t, s.Store().Len())

	require.NoError(t, s.Submit(context.Background(), uploadFile(t)))
}

func TestSession_NewAudioReferenceReplacesPlayer(t *testing.T) {
	fb := &fakeBackend{pollsTo: 0, terminal: completedStatus(), audioBody: "x"}
	s, lastPlayer := newTestSession(t, fb)

	require.NoError(t, s.Submit(context.Background(), uploadFile(t)))
	waitForPhase(t, s, PhaseReady)
	first := lastPlayer()
	require.NotNil(t, first)

	s.Reset()
	require.NoError(t, s.Submit(context.Background(), uploadFile(t)))
	waitForPhase(t, s, PhaseReady)
	second := lastPlayer()
	require.NotNil(t, second)

	assert.NotSame(t, first, second)
	assert.True(t, first.closed.Load(), "first player torn down before the second went live")
	assert.False(t, second.closed.Load())
}
