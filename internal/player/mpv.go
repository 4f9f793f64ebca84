package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vtstudio/transcript-studio/pkg/log"
)

const (
	timePosObserverID = 1
	pauseObserverID   = 2
)

// MPVPlayer drives a local mpv process over its JSON IPC socket and
// translates mpv property changes into player events.
type MPVPlayer struct {
	cmd    *exec.Cmd
	conn   net.Conn
	events chan Event

	mu        sync.Mutex
	writer    *bufio.Writer
	closeOnce sync.Once
	closeErr  error
}

// NewMPVPlayer starts mpv (audio only, initially paused) for the given
// URL and connects to its IPC socket.
func NewMPVPlayer(audioURL string) (*MPVPlayer, error) {
	socketPath := filepath.Join(os.TempDir(), fmt.Sprintf("studio-mpv-%s.sock", uuid.NewString()))

	cmd := exec.Command("mpv",
		"--no-video",
		"--no-terminal",
		"--pause",
		"--keep-open=no",
		"--input-ipc-server="+socketPath,
		audioURL,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}

	conn, err := dialWithRetry(socketPath, 5*time.Second)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("failed to connect to mpv ipc socket: %w", err)
	}

	p := &MPVPlayer{
		cmd:    cmd,
		conn:   conn,
		events: make(chan Event, 64),
		writer: bufio.NewWriter(conn),
	}

	if err := p.observe(); err != nil {
		_ = p.Close()
		return nil, err
	}

	go p.readLoop()
	return p, nil
}

func dialWithRetry(socketPath string, timeout time.Duration) (net.Conn, error) {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (p *MPVPlayer) observe() error {
	if err := p.command("observe_property", timePosObserverID, "time-pos"); err != nil {
		return err
	}
	return p.command("observe_property", pauseObserverID, "pause")
}

func (p *MPVPlayer) Events() <-chan Event {
	return p.events
}

func (p *MPVPlayer) PlayPause() error {
	return p.command("cycle", "pause")
}

func (p *MPVPlayer) SetTime(seconds float64) error {
	return p.command("set_property", "time-pos", seconds)
}

// Close quits mpv, closes the socket and reaps the process. Idempotent.
func (p *MPVPlayer) Close() error {
	p.closeOnce.Do(func() {
		_ = p.command("quit")
		if err := p.conn.Close(); err != nil {
			p.closeErr = err
		}

		done := make(chan error, 1)
		go func() { done <- p.cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			_ = p.cmd.Process.Kill()
			<-done
		}
	})
	return p.closeErr
}

func (p *MPVPlayer) command(args ...interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{"command": args})
	if err != nil {
		return fmt.Errorf("failed to encode mpv command: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.writer.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("failed to send mpv command: %w", err)
	}
	return p.writer.Flush()
}

type mpvMessage struct {
	Event string      `json:"event"`
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Data  interface{} `json:"data"`
}

func (p *MPVPlayer) readLoop() {
	defer close(p.events)

	scanner := bufio.NewScanner(p.conn)
	scanner.Buffer(make([]byte, 0, 4096), 256*1024)

	for scanner.Scan() {
		var msg mpvMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}

		switch msg.Event {
		case "property-change":
			p.handlePropertyChange(msg)
		case "end-file":
			p.emit(Event{Kind: EventFinish})
		}
	}

	if err := scanner.Err(); err != nil {
		log.Debug("mpv ipc read loop ended: %v", err)
	}
}

func (p *MPVPlayer) handlePropertyChange(msg mpvMessage) {
	switch msg.Name {
	case "time-pos":
		pos, ok := msg.Data.(float64)
		if !ok {
			return
		}
		p.emit(Event{Kind: EventTimeUpdate, Time: pos})
	case "pause":
		paused, ok := msg.Data.(bool)
		if !ok {
			return
		}
		if paused {
			p.emit(Event{Kind: EventPause})
		} else {
			p.emit(Event{Kind: EventPlay})
		}
	}
}

// emit drops time updates when the consumer lags; control events are
// delivered by displacing the oldest pending event.
func (p *MPVPlayer) emit(ev Event) {
	select {
	case p.events <- ev:
		return
	default:
	}
	if ev.Kind == EventTimeUpdate {
		return
	}
	select {
	case <-p.events:
	default:
	}
	select {
	case p.events <- ev:
	default:
	}
}
