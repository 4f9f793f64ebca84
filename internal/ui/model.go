// Package ui is the terminal surface of the studio: upload progress, the
// synchronized segment editor and the export actions.
package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vtstudio/transcript-studio/internal/session"
	"github.com/vtstudio/transcript-studio/internal/transcript"
)

type Model struct {
	session   *session.Session
	inputFile string

	phase        session.Phase
	taskID       string
	errMsg       string
	transientErr string
	statusLine   string

	segments []transcript.Segment
	cursor   int
	editing  bool

	spinner  spinner.Model
	viewport viewport.Model
	editor   textarea.Model

	width  int
	height int
	ready  bool

	quitting bool
}

// New builds the initial model for one editor session over inputFile.
func New(s *session.Session, inputFile string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	ed := textarea.New()
	ed.ShowLineNumbers = false
	ed.CharLimit = 0

	return Model{
		session:   s,
		inputFile: inputFile,
		phase:     session.PhaseIdle,
		spinner:   sp,
		editor:    ed,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		submitCmd(m.session, m.inputFile),
		waitNoticeCmd(m.session),
		waitPlayerEventCmd(m.session),
	)
}

// activeIndex returns the list index of the segment with the given id.
func (m Model) segmentIndex(id string) int {
	for i, seg := range m.segments {
		if seg.ID == id {
			return i
		}
	}
	return -1
}
