package ui

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	TextStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	DimTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	SpinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	TimestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	SegmentStyle   = lipgloss.NewStyle().PaddingLeft(2)
	ActiveStyle    = lipgloss.NewStyle().PaddingLeft(0).Foreground(lipgloss.Color("3")).Bold(true)
	CursorStyle    = lipgloss.NewStyle().PaddingLeft(0).Foreground(lipgloss.Color("14"))
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	SuccessStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	HelpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
