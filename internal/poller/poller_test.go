package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtstudio/transcript-studio/internal/backend"
)

type scriptedClient struct {
	mu        sync.Mutex
	taskID    string
	responses []pollResponse
	calls     int
}

type pollResponse struct {
	status backend.JobStatus
	err    error
}

func (c *scriptedClient) SubmitJob(_ context.Context, _ string) (string, error) {
	if c.taskID == "" {
		return "", errors.New("submission rejected")
	}
	return c.taskID, nil
}

func (c *scriptedClient) GetJobStatus(_ context.Context, _ string) (backend.JobStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.calls
	c.calls++
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	r := c.responses[idx]
	return r.status, r.err
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func processing() pollResponse {
	return pollResponse{status: backend.JobStatus{Status: backend.StateProcessing}}
}

func completed() pollResponse {
	return pollResponse{status: backend.JobStatus{
		Status: backend.StateCompleted,
		Result: &backend.JobResult{OriginalFilename: "a.mp3"},
	}}
}

func failed(msg string) pollResponse {
	return pollResponse{status: backend.JobStatus{Status: backend.StateFailed, Error: msg}}
}

func transportError() pollResponse {
	return pollResponse{err: errors.New("connection refused")}
}

func collect(t *testing.T, p *Poller) []Snapshot {
	t.Helper()
	var snaps []Snapshot
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-p.Updates():
			snaps = append(snaps, snap)
			if snap.Terminal() {
				return snaps
			}
		case <-deadline:
			t.Fatalf("no terminal snapshot observed; got %v", snaps)
		}
	}
}

func TestPoller_CompletesAfterThirdResponse(t *testing.T) {
	client := &scriptedClient{
		taskID:    "task-1",
		responses: []pollResponse{processing(), processing(), completed()},
	}
	p := New(client, 10*time.Millisecond)

	taskID, err := p.Submit(context.Background(), "a.mp3")
	require.NoError(t, err)
	assert.Equal(t, "task-1", taskID)

	snaps := collect(t, p)
	final := snaps[len(snaps)-1]
	assert.Equal(t, StateCompleted, final.State)
	require.NotNil(t, final.Result)
	assert.Equal(t, "a.mp3", final.Result.OriginalFilename)

	// Polling stops after the terminal observation.
	callsAtTerminal := client.callCount()
	assert.GreaterOrEqual(t, callsAtTerminal, 3)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, callsAtTerminal, client.callCount())
}

func TestPoller_TransientErrorShownThenCleared(t *testing.T) {
	client := &scriptedClient{
		taskID:    "task-2",
		responses: []pollResponse{processing(), transportError(), completed()},
	}
	p := New(client, 10*time.Millisecond)

	_, err := p.Submit(context.Background(), "a.mp3")
	require.NoError(t, err)

	snaps := collect(t, p)

	var sawTransient bool
	for _, snap := range snaps {
		if snap.TransientErr != "" {
			sawTransient = true
			assert.Equal(t, StateProcessing, snap.State, "transport error must not transition state")
		}
	}
	assert.True(t, sawTransient, "expected a transient error snapshot")

	final := snaps[len(snaps)-1]
	assert.Equal(t, StateCompleted, final.State)
	assert.Empty(t, final.TransientErr, "successful poll clears the transient error")

	var terminals int
	for _, snap := range snaps {
		if snap.Terminal() {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
}

func TestPoller_RemoteFailureIsTerminal(t *testing.T) {
	client := &scriptedClient{
		taskID:    "task-3",
		responses: []pollResponse{processing(), failed("demucs crashed")},
	}
	p := New(client, 10*time.Millisecond)

	_, err := p.Submit(context.Background(), "a.mp3")
	require.NoError(t, err)

	snaps := collect(t, p)
	final := snaps[len(snaps)-1]
	assert.Equal(t, StateFailed, final.State)
	assert.Equal(t, "demucs crashed", final.Err)
}

func TestPoller_SubmitFailureStaysIdle(t *testing.T) {
	client := &scriptedClient{taskID: ""}
	p := New(client, 10*time.Millisecond)

	_, err := p.Submit(context.Background(), "a.mp3")
	require.Error(t, err)
	assert.Equal(t, StateIdle, p.Snapshot().State)
	assert.Zero(t, client.callCount())
}

func TestPoller_SecondSubmitRejected(t *testing.T) {
	client := &scriptedClient{taskID: "task-4", responses: []pollResponse{processing()}}
	p := New(client, 10*time.Millisecond)
	defer p.Stop()

	_, err := p.Submit(context.Background(), "a.mp3")
	require.NoError(t, err)

	_, err = p.Submit(context.Background(), "b.mp3")
	require.Error(t, err)
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	client := &scriptedClient{taskID: "task-5", responses: []pollResponse{processing()}}
	p := New(client, 10*time.Millisecond)

	_, err := p.Submit(context.Background(), "a.mp3")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return client.callCount() > 0 }, time.Second, 5*time.Millisecond)

	p.Stop()
	p.Stop()

	calls := client.callCount()
	time.Sleep(80 * time.Millisecond)
	assert.LessOrEqual(t, client.callCount(), calls+1, "no further ticks after Stop")
}

func TestPoller_ContextCancelStopsPolling(t *testing.T) {
	client := &scriptedClient{taskID: "task-6", responses: []pollResponse{processing()}}
	p := New(client, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := p.Submit(ctx, "a.mp3")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return client.callCount() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	time.Sleep(30 * time.Millisecond)
	calls := client.callCount()
	time.Sleep(80 * time.Millisecond)
	assert.LessOrEqual(t, client.callCount(), calls+1)
}
