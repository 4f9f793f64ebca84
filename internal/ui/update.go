package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vtstudio/transcript-studio/internal/player"
	"github.com/vtstudio/transcript-studio/internal/session"
	"github.com/vtstudio/transcript-studio/internal/transcript"
)

const chromeLines = 7 // header, clock, status and help rows around the viewport

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - chromeLines
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.editor.SetWidth(msg.Width - 4)
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case noticeMsg:
		m.phase = msg.Phase
		m.taskID = msg.TaskID
		m.errMsg = msg.ErrMsg
		m.transientErr = msg.TransientErr
		if m.phase == session.PhaseReady && len(m.segments) == 0 {
			m.segments = m.session.Store().Segments()
			m.cursor = 0
			m.refreshViewport()
		}
		if m.phase == session.PhaseIdle {
			m.segments = nil
			m.cursor = 0
			m.editing = false
		}
		return m, waitNoticeCmd(m.session)

	case playerEventMsg:
		update := m.session.Synchronizer().Apply(player.Event(msg))
		if update.ScrollTo != "" {
			if idx := m.segmentIndex(update.ScrollTo); idx >= 0 {
				m.cursor = idx
				m.scrollTo(idx)
			}
		}
		m.refreshViewport()
		return m, waitPlayerEventCmd(m.session)

	case submitFailedMsg:
		m.errMsg = msg.err.Error()
		return m, nil

	case exportedMsg:
		if msg.path == "" {
			m.statusLine = "Nothing to export yet"
		} else {
			m.statusLine = "Exported to " + msg.path
		}
		return m, nil

	case savedMsg:
		m.statusLine = "Corrections saved to backend"
		return m, nil

	case copiedMsg:
		m.statusLine = "Transcript copied to clipboard"
		return m, nil

	case actionFailedMsg:
		m.statusLine = ErrorStyle.Render(msg.err.Error())
		return m, nil

	case spinner.TickMsg:
		if m.phase == session.PhaseProcessing || m.phase == session.PhaseIdle {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleEditKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case " ":
		// Space toggles playback; the editing guard above keeps it out
		// of text corrections.
		if err := m.session.Synchronizer().HandleSpace(false); err != nil {
			m.statusLine = ErrorStyle.Render(err.Error())
		}
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.scrollTo(m.cursor)
			m.refreshViewport()
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.segments)-1 {
			m.cursor++
			m.scrollTo(m.cursor)
			m.refreshViewport()
		}
		return m, nil

	case "enter":
		// Clicking a segment's time label in the reference UI: jump the
		// playhead to the segment start.
		if seg, ok := m.selected(); ok {
			if err := m.session.Synchronizer().SeekToSegment(seg.ID); err != nil {
				m.statusLine = ErrorStyle.Render(err.Error())
			}
		}
		return m, nil

	case "e":
		if seg, ok := m.selected(); ok {
			m.editing = true
			m.editor.SetValue(seg.Text)
			m.editor.Focus()
			return m, textarea.Blink
		}
		return m, nil

	case "s":
		if m.phase == session.PhaseReady {
			return m, saveCmd(m.session)
		}
		return m, nil

	case "x":
		return m, exportSRTCmd(m.session)

	case "t":
		return m, exportTXTCmd(m.session)

	case "y":
		return m, copyCmd(m.session)

	case "r":
		if m.phase == session.PhaseFailed || m.errMsg != "" {
			m.session.Reset()
			m.errMsg = ""
			m.statusLine = ""
			m.segments = nil
			return m, submitCmd(m.session, m.inputFile)
		}
		return m, nil
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if seg, ok := m.selected(); ok {
			m.session.SetSegmentText(seg.ID, m.editor.Value())
			m.segments = m.session.Store().Segments()
		}
		m.editing = false
		m.editor.Blur()
		m.refreshViewport()
		return m, nil

	case "ctrl+c":
		// abandon the edit
		m.editing = false
		m.editor.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *Model) selected() (seg segmentRef, ok bool) {
	if m.cursor < 0 || m.cursor >= len(m.segments) {
		return segmentRef{}, false
	}
	s := m.segments[m.cursor]
	return segmentRef{ID: s.ID, Text: s.Text, Start: s.Start}, true
}

type segmentRef struct {
	ID    string
	Text  string
	Start float64
}

// scrollTo keeps the given segment's rendered rows visible in the
// viewport.
func (m *Model) scrollTo(idx int) {
	if !m.ready || idx < 0 || idx >= len(m.segments) {
		return
	}
	line := m.segmentRow(idx)
	height := segmentRowCount(m.segments[idx])
	top := m.viewport.YOffset
	bottom := top + m.viewport.Height - height
	if line < top || line > bottom {
		offset := line - m.viewport.Height/2
		if offset < 0 {
			offset = 0
		}
		m.viewport.SetYOffset(offset)
	}
}

// segmentRow returns the first rendered row of segment idx. Row counts
// come from the rendered layout, so multi-line corrections keep the
// auto-scroll target aligned.
func (m *Model) segmentRow(idx int) int {
	row := 0
	for i := 0; i < idx && i < len(m.segments); i++ {
		row += segmentRowCount(m.segments[i])
	}
	return row
}

// segmentRowCount is the rendered height of one segment: timestamp row,
// text rows and the blank separator.
func segmentRowCount(seg transcript.Segment) int {
	return 2 + strings.Count(seg.Text, "\n") + 1
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderSegments())
}

func fmtStatus(taskID string, phase session.Phase) string {
	return fmt.Sprintf("Task: %s | Status: %s", taskID, phase)
}
