package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/wbsync/internal/model"
)

// View renders the UI
func (m Model) View() string {
	if m.doc == nil {
		return "Loading..."
	}

	content := m.renderTaskList()
	switch m.mode {
	case ModeHelp:
		content = m.renderHelp()
	case ModeAddTask:
		content = m.placeModal(HeaderStyle.Render("New task") + "\n\n" + m.input.View() + "\n\n" +
			HelpStyle.Render("enter to add, esc to cancel"))
	case ModeConfirmDelete:
		name := ""
		if t := m.currentTask(); t != nil {
			name = t.Name
		}
		content = m.placeModal(fmt.Sprintf("Delete %q?\nIts subtasks become top level tasks.\n\n%s",
			name, HelpStyle.Render("y to delete, any other key to cancel")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), content, m.renderStatusBar())
}

func (m Model) placeModal(body string) string {
	if m.width == 0 || m.height == 0 {
		return ModalStyle.Render(body)
	}
	return lipgloss.Place(m.width, m.height-4, lipgloss.Center, lipgloss.Center, ModalStyle.Render(body))
}

func (m Model) renderHeader() string {
	who := "member " + m.viewer.UserID
	if m.viewer.Admin {
		who = "admin"
	}
	if name := m.doc.UserName(m.viewer.UserID); name != "" {
		who += " (" + name + ")"
	}
	filter := ""
	if m.onlyMine {
		filter = " - my tasks"
	}
	return HeaderStyle.Render("WBS") + HelpStyle.Render(fmt.Sprintf("%s%s", who, filter))
}

func (m Model) renderTaskList() string {
	if len(m.rows) == 0 {
		return TaskListStyle.Render(HelpStyle.Render("No tasks."))
	}

	nameWidth := 36
	if m.width > 0 {
		nameWidth = clamp(m.width-70, 16, 60)
	}
	today := model.Today()

	var b strings.Builder
	for i, row := range m.rows {
		b.WriteString(m.renderRow(i == m.cursor, row, nameWidth, today))
		b.WriteByte('\n')
	}
	return TaskListStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderRow(selected bool, row model.OutlineRow, nameWidth int, today model.Date) string {
	t := row.Task

	icon := "○"
	if t.IsMilestone {
		icon = MilestoneStyle.Render("◆")
	}
	name := truncate(strings.Repeat("  ", row.Depth)+t.Name, nameWidth)
	name = fmt.Sprintf("%-*s", nameWidth, name)
	switch {
	case t.IsDone():
		name = TaskDoneStyle.Render(name)
	case t.IsOverdue(today):
		name = TaskOverdueStyle.Render(name)
	}

	assignee := m.doc.UserName(t.Assignee())
	if assignee == "" {
		assignee = "-"
	}
	bar := progressStyle(t.Progress).Render(progressBar(t.Progress, 10))
	line := fmt.Sprintf("%s %s  %-12s %s..%s  %s %3d%%",
		icon, name, truncate(assignee, 12), t.Start, t.End, bar, t.Progress)

	if !m.canEdit(t) {
		line = ReadOnlyStyle.Render(line)
	}
	if selected {
		return TaskItemSelectedStyle.Render(line)
	}
	return TaskItemStyle.Render(line)
}

func (m Model) renderStatusBar() string {
	updated := ""
	if m.doc.Meta.LastUpdated > 0 {
		updated = time.Unix(m.doc.Meta.LastUpdated, 0).Format("Jan 2 15:04")
	}
	status := fmt.Sprintf("v%s  updated %s by %s  ? help", shortVersion(m.version), updated, m.doc.Meta.UpdatedBy)
	if m.message != "" {
		msg := m.message
		if m.isError {
			msg = ErrorStyle.Render(msg)
		}
		status = msg + "  |  " + status
	}
	return StatusBarStyle.Render(status)
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Keys") + "\n\n")
	for _, k := range helpBindings {
		h := k.Help()
		b.WriteString(fmt.Sprintf("  %-8s %s\n", h.Key, HelpStyle.Render(h.Desc)))
	}
	b.WriteString("\n" + HelpStyle.Render("press any key to return"))
	return TaskListStyle.Render(b.String())
}
