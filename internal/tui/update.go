package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/wbsync/internal/edit"
	"github.com/existflow/wbsync/internal/model"
	"github.com/existflow/wbsync/internal/store"
)

// docChangedMsg is sent when the cache swapped in a new document
type docChangedMsg struct{}

// editDoneMsg reports the outcome of a submitted edit
type editDoneMsg struct {
	what string
	err  error
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForChange(), m.reload())
}

// waitForChange blocks until the cache signals a swap
func (m Model) waitForChange() tea.Cmd {
	if m.refreshCh == nil {
		return nil
	}
	return func() tea.Msg {
		<-m.refreshCh
		return docChangedMsg{}
	}
}

func (m Model) reload() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.cache.Refresh(context.Background()); err != nil {
			return editDoneMsg{what: "reload", err: err}
		}
		return docChangedMsg{}
	}
}

func (m Model) submit(what string, fn func(doc *model.Document) (*model.Document, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err := m.cache.Edit(ctx, fn)
		return editDoneMsg{what: what, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case docChangedMsg:
		m.loadSnapshot()
		return m, m.waitForChange()

	case editDoneMsg:
		m.setResult(msg)
		m.loadSnapshot()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAddTask:
			return m.updateAddTask(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m *Model) setResult(msg editDoneMsg) {
	switch {
	case msg.err == nil:
		m.message, m.isError = msg.what+" saved", false
	case errors.Is(msg.err, store.ErrConflict):
		m.message, m.isError = "Someone else changed the document. Reloaded, please try again.", true
	default:
		m.message, m.isError = msg.what+" failed: "+msg.err.Error(), true
	}
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	task := m.currentTask()

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.cursor = clampCursor(m.cursor-1, len(m.rows))
	case key.Matches(msg, keys.Down):
		m.cursor = clampCursor(m.cursor+1, len(m.rows))
	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	case key.Matches(msg, keys.Refresh):
		m.message, m.isError = "Reloading...", false
		return m, m.reload()
	case key.Matches(msg, keys.Mine):
		m.onlyMine = !m.onlyMine
		m.loadSnapshot()

	case key.Matches(msg, keys.Increase), key.Matches(msg, keys.Decrease), key.Matches(msg, keys.Done):
		if task == nil {
			return m, nil
		}
		if !m.canEdit(task) {
			m.message, m.isError = "You can only change tasks assigned to you", true
			return m, nil
		}
		progress := task.Progress
		switch {
		case key.Matches(msg, keys.Increase):
			progress = clamp(progress+10, 0, 100)
		case key.Matches(msg, keys.Decrease):
			progress = clamp(progress-10, 0, 100)
		case task.IsDone():
			progress = 0
		default:
			progress = 100
		}
		id := task.ID
		return m, m.submit("Progress", func(doc *model.Document) (*model.Document, error) {
			return edit.SetProgress(doc, id, progress)
		})

	case key.Matches(msg, keys.Add):
		if !m.viewer.Admin {
			m.message, m.isError = "Only the admin can add tasks", true
			return m, nil
		}
		m.mode = ModeAddTask
		m.input.SetValue("")
		m.input.Focus()
		return m, nil

	case key.Matches(msg, keys.Delete):
		if task == nil {
			return m, nil
		}
		if !m.viewer.Admin {
			m.message, m.isError = "Only the admin can delete tasks", true
			return m, nil
		}
		m.mode = ModeConfirmDelete
	}
	return m, nil
}

func (m Model) updateAddTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	case key.Matches(msg, keys.Enter):
		name := m.input.Value()
		m.mode = ModeNormal
		m.input.Blur()

		start := model.Today()
		parent := ""
		if t := m.currentTask(); t != nil {
			parent = t.ID
			start = t.Start
		}
		task := model.NewTask("", name, start, start.AddDays(7))
		task.ParentID = model.Ref(parent)
		return m, m.submit("Task", func(doc *model.Document) (*model.Document, error) {
			next, _, err := edit.AddTask(doc, task)
			return next, err
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	task := m.currentTask()
	if task == nil || msg.String() != "y" {
		return m, nil
	}
	id := task.ID
	return m, m.submit("Delete", func(doc *model.Document) (*model.Document, error) {
		return edit.DeleteTask(doc, id)
	})
}
