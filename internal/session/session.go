// Package session wires the job poller, segment store, player and
// synchronizer into one editor session: submit a file, track the job,
// seed the working copy on completion, and serve edits, saves and
// exports until the session is reset.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vtstudio/transcript-studio/internal/backend"
	"github.com/vtstudio/transcript-studio/internal/config"
	"github.com/vtstudio/transcript-studio/internal/export"
	"github.com/vtstudio/transcript-studio/internal/history"
	"github.com/vtstudio/transcript-studio/internal/playback"
	"github.com/vtstudio/transcript-studio/internal/player"
	"github.com/vtstudio/transcript-studio/internal/poller"
	"github.com/vtstudio/transcript-studio/internal/transcript"
	"github.com/vtstudio/transcript-studio/pkg/log"
)

// Phase is the editor lifecycle, mirroring the job poller's terminal
// states plus the editable "ready" state after completion.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseProcessing Phase = "processing"
	PhaseReady      Phase = "ready"
	PhaseFailed     Phase = "failed"
)

// Notice is a session state change pushed to the UI.
type Notice struct {
	Phase        Phase
	TaskID       string
	TransientErr string
	ErrMsg       string
}

// PlayerFactory builds a player for an audio source (local path or URL).
type PlayerFactory func(source string) (player.Player, error)

type Session struct {
	cfg     *config.Config
	client  *backend.Client
	store   *transcript.Store
	slot    *player.Slot
	sync    *playback.Synchronizer
	hist    *history.Store
	factory PlayerFactory
	id      string

	notices      chan Notice
	playerEvents chan player.Event

	mu           sync.Mutex
	phase        Phase
	taskID       string
	result       *backend.JobResult
	transcriptRs transcript.Result
	errMsg       string
	transientErr string
	poll         *poller.Poller
	cancelPoll   context.CancelFunc
}

// New creates an idle session. hist may be nil when history is disabled.
func New(cfg *config.Config, client *backend.Client, hist *history.Store) *Session {
	store := transcript.NewStore()
	slot := player.NewSlot()

	s := &Session{
		cfg:          cfg,
		client:       client,
		store:        store,
		slot:         slot,
		hist:         hist,
		factory:      func(source string) (player.Player, error) { return player.NewMPVPlayer(source) },
		id:           uuid.NewString(),
		notices:      make(chan Notice, 16),
		playerEvents: make(chan player.Event, 64),
		phase:        PhaseIdle,
	}
	s.sync = playback.New(store, slotControls{slot})
	return s
}

// SetPlayerFactory replaces the player implementation, e.g. for tests.
func (s *Session) SetPlayerFactory(factory PlayerFactory) {
	s.factory = factory
}

// Notices delivers session state changes to the UI.
func (s *Session) Notices() <-chan Notice {
	return s.notices
}

// PlayerEvents delivers events from whichever player is currently live.
// The channel survives player swaps.
func (s *Session) PlayerEvents() <-chan player.Event {
	return s.playerEvents
}

// Store exposes the segment working copy.
func (s *Session) Store() *transcript.Store {
	return s.store
}

// Synchronizer exposes the playback synchronizer. Apply it only from the
// UI event loop; it is not safe for concurrent use.
func (s *Session) Synchronizer() *playback.Synchronizer {
	return s.sync
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// TaskID returns the backend task id of the tracked job, if any.
func (s *Session) TaskID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskID
}

// OriginalFilename returns the uploaded media's name once completed.
func (s *Session) OriginalFilename() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return ""
	}
	return s.result.OriginalFilename
}

// Language returns the transcription language once completed.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcriptRs.Language.String()
}

// Submit uploads the file and starts tracking the job. Submission failure
// keeps the session idle and is returned for immediate display.
func (s *Session) Submit(ctx context.Context, filePath string) error {
	s.mu.Lock()
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return NewError(ErrUpload, fmt.Sprintf("a job is already in progress (phase %s)", s.phase))
	}
	s.mu.Unlock()

	p := poller.New(s.client, time.Duration(s.cfg.Backend.PollIntervalSeconds)*time.Second)
	taskID, err := p.Submit(ctx, filePath)
	if err != nil {
		return WrapError(err, ErrUpload, "failed to submit media file")
	}

	pollCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.phase = PhaseProcessing
	s.taskID = taskID
	s.errMsg = ""
	s.transientErr = ""
	s.poll = p
	s.cancelPoll = cancel
	s.mu.Unlock()

	s.recordHistory(ctx, history.Entry{
		TaskID:           taskID,
		OriginalFilename: filepath.Base(filePath),
		Status:           string(backend.StateProcessing),
	})

	log.Info("Session %s tracking job %s", s.id, taskID)
	s.publish()
	go s.consume(pollCtx, p)
	return nil
}

// consume drains poller updates until a terminal snapshot or cancellation.
func (s *Session) consume(ctx context.Context, p *poller.Poller) {
	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return
		case snap := <-p.Updates():
			s.applySnapshot(ctx, snap)
			if snap.Terminal() {
				return
			}
		}
	}
}

func (s *Session) applySnapshot(ctx context.Context, snap poller.Snapshot) {
	s.mu.Lock()
	s.transientErr = snap.TransientErr
	s.mu.Unlock()

	switch snap.State {
	case poller.StateCompleted:
		s.handleCompleted(ctx, snap)
	case poller.StateFailed:
		s.mu.Lock()
		s.phase = PhaseFailed
		s.errMsg = snap.Err
		s.mu.Unlock()
		s.updateHistory(ctx, snap.TaskID, string(backend.StateFailed))
	}

	s.publish()
}

func (s *Session) handleCompleted(ctx context.Context, snap poller.Snapshot) {
	if snap.Result == nil {
		s.mu.Lock()
		s.phase = PhaseFailed
		s.errMsg = "backend reported completion without a result payload"
		s.mu.Unlock()
		return
	}

	result, err := transcript.BuildResult(snap.Result.Transcription)
	if err != nil {
		s.mu.Lock()
		s.phase = PhaseFailed
		s.errMsg = WrapError(err, ErrValidation, "backend returned a malformed transcription").Error()
		s.mu.Unlock()
		return
	}

	// The working copy is seeded exactly once per completed job; the
	// fetched result stays immutable reference data.
	s.store.Load(result.Segments)

	audioSource := s.prepareAudio(ctx, snap, result.Language.String())

	s.mu.Lock()
	s.phase = PhaseReady
	s.result = snap.Result
	s.transcriptRs = result
	s.mu.Unlock()

	if err := s.attachPlayer(audioSource); err != nil {
		log.Error("Player setup failed for %s: %v", snap.TaskID, err)
		s.mu.Lock()
		s.transientErr = fmt.Sprintf("audio playback unavailable: %v", err)
		s.mu.Unlock()
	}
}

// prepareAudio prefetches the separated-vocals track into the local cache
// and records the completed job, in parallel. Prefetch failure falls back
// to streaming directly from the backend.
func (s *Session) prepareAudio(ctx context.Context, snap poller.Snapshot, language string) string {
	audioURL := s.client.AudioURL(snap.TaskID, snap.Result.VocalsAudio)
	cachePath := filepath.Join(s.cfg.Storage.AudioCacheDir(),
		fmt.Sprintf("%s-%s", snap.TaskID, snap.Result.VocalsAudio))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.prefetch(gctx, audioURL, cachePath)
	})
	g.Go(func() error {
		s.recordHistory(gctx, history.Entry{
			TaskID:           snap.TaskID,
			OriginalFilename: snap.Result.OriginalFilename,
			Status:           string(backend.StateCompleted),
			Language:         language,
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Warn("Audio prefetch failed, streaming from backend: %v", err)
		return audioURL
	}
	return cachePath
}

func (s *Session) prefetch(ctx context.Context, audioURL, cachePath string) error {
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return fmt.Errorf("create audio cache directory: %w", err)
	}
	f, err := os.Create(cachePath)
	if err != nil {
		return fmt.Errorf("create cached audio file: %w", err)
	}
	defer f.Close()

	if err := s.client.DownloadAudio(ctx, audioURL, f); err != nil {
		_ = os.Remove(cachePath)
		return err
	}
	return nil
}

// attachPlayer swaps a player for the new audio reference into the slot.
// The slot guarantees the previous instance is torn down first.
func (s *Session) attachPlayer(source string) error {
	p, err := s.slot.Swap(func() (player.Player, error) {
		return s.factory(source)
	})
	if err != nil {
		return err
	}

	// The pump ends when the swapped-out player closes its channel, so
	// each live player has exactly one pump.
	go func(events <-chan player.Event) {
		for ev := range events {
			select {
			case s.playerEvents <- ev:
			default:
				if ev.Kind == player.EventTimeUpdate {
					continue
				}
				select {
				case <-s.playerEvents:
				default:
				}
				select {
				case s.playerEvents <- ev:
				default:
				}
			}
		}
	}(p.Events())
	return nil
}

// SetSegmentText applies a text correction to the working copy.
func (s *Session) SetSegmentText(id, text string) {
	if !s.store.SetText(id, text) {
		log.Debug("Ignoring edit for unknown segment %s", id)
	}
}

// SaveEdits persists the corrected segments on the backend. Best effort:
// a failure is reported for display, never retried automatically.
func (s *Session) SaveEdits(ctx context.Context) error {
	s.mu.Lock()
	taskID, phase := s.taskID, s.phase
	s.mu.Unlock()

	if phase != PhaseReady {
		return nil
	}
	if err := s.client.SaveEdits(ctx, taskID, s.store.Segments()); err != nil {
		return WrapError(err, ErrNetwork, "failed to save corrections")
	}
	return nil
}

// ExportSRT writes the subtitle export next to the configured export
// directory and returns its path. Before a completed result exists the
// export is a no-op returning an empty path.
func (s *Session) ExportSRT() (string, error) {
	name, ok := s.exportName()
	if !ok {
		return "", nil
	}
	path := filepath.Join(s.cfg.Storage.ExportDir, name+".srt")
	if err := export.WriteSubtitleFile(path, s.store.Segments()); err != nil {
		return "", WrapError(err, ErrExport, "failed to write subtitle export")
	}
	log.Info("Exported subtitles to %s", path)
	return path, nil
}

// ExportTXT writes the plain-text export and returns its path. A no-op
// before a completed result exists.
func (s *Session) ExportTXT() (string, error) {
	name, ok := s.exportName()
	if !ok {
		return "", nil
	}
	path := filepath.Join(s.cfg.Storage.ExportDir, name+".txt")
	if err := export.WritePlainTextFile(path, s.store.Segments()); err != nil {
		return "", WrapError(err, ErrExport, "failed to write transcript export")
	}
	log.Info("Exported transcript to %s", path)
	return path, nil
}

// CopyTranscript places the plain-text transcript on the system
// clipboard. A no-op before a completed result exists.
func (s *Session) CopyTranscript() error {
	if s.Phase() != PhaseReady {
		return nil
	}
	if err := clipboard.WriteAll(export.PlainText(s.store.Segments())); err != nil {
		return WrapError(err, ErrExport, "failed to copy transcript to clipboard")
	}
	return nil
}

func (s *Session) exportName() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady || s.result == nil {
		return "", false
	}
	return export.BaseName(s.result.OriginalFilename), true
}

// ErrorMessage returns the terminal failure message, if any.
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// TransientError returns the last transient poll error, if not yet
// superseded by a successful poll.
func (s *Session) TransientError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transientErr
}

// Reset tears down polling and playback and returns the session to idle,
// clearing task id, status and errors so a new file can be submitted.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.poll != nil {
		s.poll.Stop()
		s.poll = nil
	}
	if s.cancelPoll != nil {
		s.cancelPoll()
		s.cancelPoll = nil
	}
	s.phase = PhaseIdle
	s.taskID = ""
	s.result = nil
	s.transcriptRs = transcript.Result{}
	s.errMsg = ""
	s.transientErr = ""
	s.mu.Unlock()

	if err := s.slot.Close(); err != nil {
		log.Warn("Failed to close player during reset: %v", err)
	}
	s.store.Load(nil)
	s.publish()
}

// Close releases all session resources.
func (s *Session) Close() {
	s.Reset()
}

func (s *Session) publish() {
	s.mu.Lock()
	notice := Notice{
		Phase:        s.phase,
		TaskID:       s.taskID,
		TransientErr: s.transientErr,
		ErrMsg:       s.errMsg,
	}
	s.mu.Unlock()

	select {
	case s.notices <- notice:
		return
	default:
	}
	select {
	case <-s.notices:
	default:
	}
	select {
	case s.notices <- notice:
	default:
	}
}

func (s *Session) recordHistory(ctx context.Context, entry history.Entry) {
	if s.hist == nil {
		return
	}
	if err := s.hist.Record(ctx, entry); err != nil {
		log.Warn("Failed to record job history: %v", err)
	}
}

func (s *Session) updateHistory(ctx context.Context, taskID, status string) {
	if s.hist == nil {
		return
	}
	if err := s.hist.UpdateStatus(ctx, taskID, status); err != nil {
		log.Warn("Failed to update job history: %v", err)
	}
}

// slotControls routes playback commands to whichever player is live.
// Commands with no live player are no-ops.
type slotControls struct {
	slot *player.Slot
}

func (c slotControls) PlayPause() error {
	p := c.slot.Current()
	if p == nil {
		return nil
	}
	return p.PlayPause()
}

func (c slotControls) SetTime(seconds float64) error {
	p := c.slot.Current()
	if p == nil {
		return nil
	}
	return p.SetTime(seconds)
}
