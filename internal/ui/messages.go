package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vtstudio/transcript-studio/internal/player"
	"github.com/vtstudio/transcript-studio/internal/session"
)

type noticeMsg session.Notice

type playerEventMsg player.Event

type submitFailedMsg struct {
	err error
}

type exportedMsg struct {
	path string
}

type savedMsg struct{}

type actionFailedMsg struct {
	err error
}

type copiedMsg struct{}

func submitCmd(s *session.Session, filePath string) tea.Cmd {
	return func() tea.Msg {
		if err := s.Submit(context.Background(), filePath); err != nil {
			return submitFailedMsg{err: err}
		}
		return nil
	}
}

func waitNoticeCmd(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-s.Notices())
	}
}

func waitPlayerEventCmd(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return playerEventMsg(<-s.PlayerEvents())
	}
}

func saveCmd(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		if err := s.SaveEdits(context.Background()); err != nil {
			return actionFailedMsg{err: err}
		}
		return savedMsg{}
	}
}

func exportSRTCmd(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		path, err := s.ExportSRT()
		if err != nil {
			return actionFailedMsg{err: err}
		}
		return exportedMsg{path: path}
	}
}

func exportTXTCmd(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		path, err := s.ExportTXT()
		if err != nil {
			return actionFailedMsg{err: err}
		}
		return exportedMsg{path: path}
	}
}

func copyCmd(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		if err := s.CopyTranscript(); err != nil {
			return actionFailedMsg{err: err}
		}
		return copiedMsg{}
	}
}
