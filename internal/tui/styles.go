package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Completed = lipgloss.Color("#95E1A3") // Green
	Overdue   = lipgloss.Color("#FF6B6B") // Red
	Partial   = lipgloss.Color("#FFE66D") // Yellow
	Milestone = lipgloss.Color("#FFB347") // Orange

	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	TaskListStyle = lipgloss.NewStyle().
			Padding(1, 2)

	TaskItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TaskItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true)

	TaskOverdueStyle = lipgloss.NewStyle().Foreground(Overdue)
	MilestoneStyle   = lipgloss.NewStyle().Foreground(Milestone).Bold(true)
	ReadOnlyStyle    = lipgloss.NewStyle().Foreground(TextMuted)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	ErrorStyle = lipgloss.NewStyle().Foreground(Overdue).Bold(true)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// progressStyle colors a progress bar by completion
func progressStyle(progress int) lipgloss.Style {
	switch {
	case progress >= 100:
		return lipgloss.NewStyle().Foreground(Completed)
	case progress > 0:
		return lipgloss.NewStyle().Foreground(Partial)
	default:
		return lipgloss.NewStyle().Foreground(TextMuted)
	}
}
