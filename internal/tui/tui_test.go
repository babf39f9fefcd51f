package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/wbsync/internal/model"
	"github.com/existflow/wbsync/internal/storage"
	"github.com/existflow/wbsync/internal/store"
	"github.com/existflow/wbsync/internal/sync"
	"github.com/go-playground/assert/v2"
)

func newTestModel(t *testing.T, viewer Viewer) (Model, *store.Store) {
	t.Helper()
	backend, err := storage.NewFile(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	st := store.New(backend)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	doc, version := st.Read(ctx)
	doc.Users = append(doc.Users, model.User{ID: "u2", Name: "Mika", Role: model.RoleMember})
	child := model.NewTask("child", "Child task", doc.Tasks[0].Start, doc.Tasks[0].End)
	child.ParentID = model.Ref(doc.Tasks[0].ID)
	child.AssigneeID = model.Ref("u2")
	doc.Tasks = append(doc.Tasks, child)
	if _, err := st.Write(ctx, doc, version, "setup"); err != nil {
		t.Fatalf("setup write: %v", err)
	}

	cache := sync.NewCache(sync.NewLocal(st), "tui")
	if _, err := cache.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return NewModel(cache, viewer, nil), st
}

func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd != nil {
		if result, ok := cmd().(editDoneMsg); ok {
			next, _ = m.Update(result)
			m = next.(Model)
		}
	}
	return m
}

func TestViewShowsOutline(t *testing.T) {
	m, _ := newTestModel(t, Viewer{Admin: true})

	view := m.View()
	assert.Equal(t, strings.Contains(view, "Sample task"), true)
	assert.Equal(t, strings.Contains(view, "  Child task"), true)
	assert.Equal(t, strings.Contains(view, "Mika"), true)
	assert.Equal(t, len(m.rows), 2)
}

func TestMemberCanOnlyEditOwnTasks(t *testing.T) {
	m, st := newTestModel(t, Viewer{UserID: "u2"})

	// first row is the admin's sample task
	m = press(t, m, "x")
	assert.Equal(t, m.isError, true)

	m = press(t, m, "down")
	m = press(t, m, "x")
	assert.Equal(t, m.isError, false)

	doc, _ := st.Read(context.Background())
	child, _ := doc.Task("child")
	assert.Equal(t, child.Progress, 100)
	assert.Equal(t, doc.Meta.UpdatedBy, "tui")
}

func TestProgressSteps(t *testing.T) {
	m, st := newTestModel(t, Viewer{Admin: true})

	m = press(t, m, "+")
	m = press(t, m, "+")
	m = press(t, m, "-")

	doc, _ := st.Read(context.Background())
	assert.Equal(t, doc.Tasks[0].Progress, 10)
	assert.Equal(t, m.rows[0].Task.Progress, 10)
}

func TestMemberCannotAddOrDelete(t *testing.T) {
	m, _ := newTestModel(t, Viewer{UserID: "u2"})

	m = press(t, m, "a")
	assert.Equal(t, m.mode, ModeNormal)
	m = press(t, m, "d")
	assert.Equal(t, m.mode, ModeNormal)
}

func TestAdminAddsSubtaskAndDeletes(t *testing.T) {
	m, st := newTestModel(t, Viewer{Admin: true})
	parentID := m.rows[0].Task.ID

	m = press(t, m, "a")
	assert.Equal(t, m.mode, ModeAddTask)
	m = press(t, m, "Review")
	m = press(t, m, "enter")
	assert.Equal(t, m.mode, ModeNormal)

	doc, _ := st.Read(context.Background())
	assert.Equal(t, len(doc.Tasks), 3)
	assert.Equal(t, doc.Tasks[2].Name, "Review")
	assert.Equal(t, doc.Tasks[2].Parent(), parentID)

	// delete the parent; its children are promoted
	m.cursor = 0
	m = press(t, m, "d")
	assert.Equal(t, m.mode, ModeConfirmDelete)
	m = press(t, m, "y")

	doc, _ = st.Read(context.Background())
	assert.Equal(t, len(doc.Tasks), 2)
	for _, task := range doc.Tasks {
		assert.Equal(t, task.ParentID == nil, true)
	}
}

func TestConflictReloads(t *testing.T) {
	m, st := newTestModel(t, Viewer{Admin: true})

	// another writer commits behind the cache's back
	doc, version := st.Read(context.Background())
	doc.Tasks[0].Name = "Renamed elsewhere"
	if _, err := st.Write(context.Background(), doc, version, "other"); err != nil {
		t.Fatal(err)
	}

	m = press(t, m, "x")
	assert.Equal(t, m.isError, true)
	assert.Equal(t, strings.Contains(m.message, "Someone else"), true)
	assert.Equal(t, m.rows[0].Task.Name, "Renamed elsewhere")
}

func TestOnlyMineFilter(t *testing.T) {
	m, _ := newTestModel(t, Viewer{UserID: "u2"})
	m = press(t, m, "m")
	assert.Equal(t, len(m.rows), 1)
	assert.Equal(t, m.rows[0].Task.ID, "child")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, progressBar(50, 10), "[#####-----]")
	assert.Equal(t, progressBar(150, 4), "[####]")
	assert.Equal(t, truncate("abcdefgh", 6), "abc...")
	assert.Equal(t, shortVersion("01HZXABCDEFGHJKM"), "DEFGHJKM")
}
