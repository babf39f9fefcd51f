// Package tui is a live view of the shared task list. It redraws whenever
// the poller swaps in a newer document.
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/wbsync/internal/edit"
	"github.com/existflow/wbsync/internal/logger"
	"github.com/existflow/wbsync/internal/model"
	"github.com/existflow/wbsync/internal/sync"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeConfirmDelete
	ModeHelp
)

// Viewer is who is looking at the list
type Viewer struct {
	UserID string
	Admin  bool
}

// Model is the main TUI model
type Model struct {
	cache     *sync.Cache
	viewer    Viewer
	refreshCh chan struct{}

	doc      *model.Document
	version  string
	rows     []model.OutlineRow
	onlyMine bool

	// UI state
	width  int
	height int
	cursor int
	mode   Mode
	input  textinput.Model

	message string
	isError bool
}

// NewModel creates a model over cache. refreshCh receives a value whenever
// the cache changes; see Run.
func NewModel(cache *sync.Cache, viewer Viewer, refreshCh chan struct{}) Model {
	ti := textinput.New()
	ti.Placeholder = "Task name..."
	ti.CharLimit = 256
	ti.Width = 50

	m := Model{
		cache:     cache,
		viewer:    viewer,
		refreshCh: refreshCh,
		input:     ti,
	}
	m.loadSnapshot()
	return m
}

// loadSnapshot copies the cached document and rebuilds the visible rows,
// keeping the cursor on the same task where possible.
func (m *Model) loadSnapshot() {
	selected := ""
	if t := m.currentTask(); t != nil {
		selected = t.ID
	}

	m.doc, m.version = m.cache.Snapshot()
	m.rows = nil
	if m.doc == nil {
		return
	}
	for _, row := range m.doc.Outline() {
		if m.onlyMine && row.Task.Assignee() != m.viewer.UserID {
			continue
		}
		m.rows = append(m.rows, row)
	}

	m.cursor = clampCursor(m.cursor, len(m.rows))
	for i, row := range m.rows {
		if row.Task.ID == selected {
			m.cursor = i
			break
		}
	}
	logger.Debug("TUI reloaded", logger.F("version", m.version), logger.F("rows", len(m.rows)))
}

func clampCursor(cursor, n int) int {
	if n == 0 {
		return 0
	}
	return clamp(cursor, 0, n-1)
}

func (m *Model) currentTask() *model.Task {
	if m.cursor < len(m.rows) {
		return m.rows[m.cursor].Task
	}
	return nil
}

// canEdit applies the member rule: admins edit anything, members only their
// own tasks.
func (m *Model) canEdit(task *model.Task) bool {
	if m.viewer.Admin {
		return true
	}
	if m.doc == nil {
		return false
	}
	user, _ := m.doc.User(m.viewer.UserID)
	return edit.CanEdit(user, task)
}
