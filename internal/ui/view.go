package ui

import (
	"fmt"
	"strings"

	"github.com/vtstudio/transcript-studio/internal/playback"
	"github.com/vtstudio/transcript-studio/internal/session"
	"github.com/vtstudio/transcript-studio/internal/timefmt"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.phase {
	case session.PhaseProcessing:
		return m.processingView()
	case session.PhaseReady:
		return m.editorView()
	case session.PhaseFailed:
		return m.failedView()
	}

	if m.errMsg != "" {
		return m.failedView()
	}
	return fmt.Sprintf("\n  %s Uploading %s...\n", m.spinner.View(), m.inputFile)
}

func (m Model) processingView() string {
	var b strings.Builder
	b.WriteString("\n  " + TitleStyle.Render("Transcript Studio") + "\n\n")
	fmt.Fprintf(&b, "  %s Transcribing %s\n", m.spinner.View(), m.inputFile)
	b.WriteString("  " + DimTextStyle.Render(fmtStatus(m.taskID, m.phase)) + "\n")
	if m.transientErr != "" {
		b.WriteString("  " + ErrorStyle.Render("backend unreachable, retrying: "+m.transientErr) + "\n")
	}
	b.WriteString("\n  " + HelpStyle.Render("q: quit") + "\n")
	return b.String()
}

func (m Model) editorView() string {
	state := m.session.Synchronizer().State()

	var b strings.Builder
	header := fmt.Sprintf("%s  %s  %s",
		TitleStyle.Render(m.session.OriginalFilename()),
		DimTextStyle.Render(m.session.Language()),
		m.clockLine(state),
	)
	b.WriteString("\n  " + header + "\n\n")

	if m.ready {
		b.WriteString(m.viewport.View() + "\n")
	} else {
		b.WriteString(m.renderSegments() + "\n")
	}

	if m.editing {
		b.WriteString("\n" + m.editor.View() + "\n")
		b.WriteString("  " + HelpStyle.Render("esc: save edit | ctrl+c: discard") + "\n")
		return b.String()
	}

	if m.statusLine != "" {
		b.WriteString("  " + m.statusLine + "\n")
	}
	if m.transientErr != "" {
		b.WriteString("  " + ErrorStyle.Render(m.transientErr) + "\n")
	}
	b.WriteString("  " + HelpStyle.Render(
		"space: play/pause | enter: jump | e: edit | s: save | x: srt | t: txt | y: copy | q: quit") + "\n")
	return b.String()
}

func (m Model) clockLine(state playback.State) string {
	icon := "⏸"
	if state.Phase == playback.PhasePlaying {
		icon = "▶"
	}
	return TimestampStyle.Render(fmt.Sprintf("%s %s", icon, timefmt.ClockDisplay(state.CurrentTime)))
}

func (m Model) failedView() string {
	msg := m.errMsg
	if msg == "" {
		msg = "job failed"
	}
	var b strings.Builder
	b.WriteString("\n  " + TitleStyle.Render("Transcript Studio") + "\n\n")
	b.WriteString("  " + ErrorStyle.Render("✗ "+msg) + "\n")
	if m.taskID != "" {
		b.WriteString("  " + DimTextStyle.Render("task "+m.taskID) + "\n")
	}
	b.WriteString("\n  " + HelpStyle.Render("r: retry | q: quit") + "\n")
	return b.String()
}

// renderSegments draws the segment list with the playhead highlight and
// the selection cursor.
func (m Model) renderSegments() string {
	if len(m.segments) == 0 {
		return DimTextStyle.Render("  (no segments)")
	}

	active := m.session.Synchronizer().State().ActiveSegmentID

	var b strings.Builder
	for i, seg := range m.segments {
		stamp := timefmt.ClockDisplay(seg.Start)

		prefix := "  "
		style := SegmentStyle
		switch {
		case seg.ID == active && i == m.cursor:
			prefix = CursorStyle.Render("> ")
			style = ActiveStyle
		case seg.ID == active:
			prefix = "  "
			style = ActiveStyle
		case i == m.cursor:
			prefix = CursorStyle.Render("> ")
		}

		b.WriteString(prefix + TimestampStyle.Render("["+stamp+"]") + "\n")
		b.WriteString(prefix + style.Render(seg.Text) + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
