// Package poller tracks a submitted transcription job until the backend
// reports a terminal state, surfacing progress snapshots to the UI.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vtstudio/transcript-studio/internal/backend"
	"github.com/vtstudio/transcript-studio/pkg/log"
)

type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// StatusClient is the slice of the backend client the poller depends on.
type StatusClient interface {
	SubmitJob(ctx context.Context, filePath string) (string, error)
	GetJobStatus(ctx context.Context, taskID string) (backend.JobStatus, error)
}

// Snapshot is the poller's externally visible state at a point in time.
// TransientErr carries the last failed status query; it is cleared by the
// next successful query and never transitions the state machine.
type Snapshot struct {
	TaskID       string
	State        State
	Result       *backend.JobResult
	Err          string
	TransientErr string
}

// Terminal reports whether the snapshot ends the job's lifecycle.
func (s Snapshot) Terminal() bool {
	return s.State == StateCompleted || s.State == StateFailed
}

// Poller tracks exactly one submission. A failed or completed job is
// never re-polled; retrying means creating a fresh Poller.
type Poller struct {
	client   StatusClient
	interval time.Duration

	mu   sync.Mutex
	snap Snapshot

	updates  chan Snapshot
	stopCh   chan struct{}
	stopOnce sync.Once
}

const DefaultInterval = 2 * time.Second

func New(client StatusClient, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		client:   client,
		interval: interval,
		snap:     Snapshot{State: StateIdle},
		updates:  make(chan Snapshot, 32),
		stopCh:   make(chan struct{}),
	}
}

// Updates delivers snapshots in the order they were produced. Slow
// consumers see older processing snapshots replaced by newer ones;
// terminal snapshots are never dropped.
func (p *Poller) Updates() <-chan Snapshot {
	return p.updates
}

// Snapshot returns the current state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Submit uploads the file and starts the poll loop. Submission failure
// leaves the poller idle and surfaces the error to the caller.
func (p *Poller) Submit(ctx context.Context, filePath string) (string, error) {
	p.mu.Lock()
	if p.snap.State != StateIdle {
		p.mu.Unlock()
		return "", fmt.Errorf("poller already tracking task %s", p.snap.TaskID)
	}
	p.mu.Unlock()

	taskID, err := p.client.SubmitJob(ctx, filePath)
	if err != nil {
		return "", fmt.Errorf("job submission failed: %w", err)
	}

	p.mu.Lock()
	p.snap = Snapshot{TaskID: taskID, State: StateProcessing}
	snap := p.snap
	p.mu.Unlock()

	p.publish(snap)
	go p.loop(ctx, taskID)

	log.Info("Submitted job %s for %s", taskID, filePath)
	return taskID, nil
}

// Stop tears the poll loop down. Safe to call multiple times and after a
// terminal state has already stopped polling.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

func (p *Poller) loop(ctx context.Context, taskID string) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			if terminal := p.tick(ctx, taskID); terminal {
				p.Stop()
				return
			}
		}
	}
}

// tick performs one status query and reduces it into the snapshot.
func (p *Poller) tick(ctx context.Context, taskID string) bool {
	status, err := p.client.GetJobStatus(ctx, taskID)

	p.mu.Lock()
	if p.snap.State != StateProcessing {
		// duplicate terminal observation, nothing to do
		p.mu.Unlock()
		return true
	}

	if err != nil {
		p.snap.TransientErr = err.Error()
		snap := p.snap
		p.mu.Unlock()
		log.Warn("Status poll for %s failed: %v", taskID, err)
		p.publish(snap)
		return false
	}

	p.snap.TransientErr = ""
	switch status.Status {
	case backend.StateCompleted:
		p.snap.State = StateCompleted
		p.snap.Result = status.Result
	case backend.StateFailed:
		p.snap.State = StateFailed
		p.snap.Err = status.Error
	}
	snap := p.snap
	p.mu.Unlock()

	p.publish(snap)
	if snap.Terminal() {
		log.Info("Job %s reached terminal state %s", taskID, snap.State)
		return true
	}
	return false
}

func (p *Poller) publish(snap Snapshot) {
	select {
	case p.updates <- snap:
		return
	default:
	}

	// Full buffer: drop the oldest pending snapshot, last value wins.
	select {
	case <-p.updates:
	default:
	}
	select {
	case p.updates <- snap:
	default:
	}
}
