package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/existflow/wbsync/internal/edit"
	"github.com/existflow/wbsync/internal/model"
	"github.com/existflow/wbsync/internal/storage"
	"github.com/existflow/wbsync/internal/store"
	"github.com/existflow/wbsync/internal/sync"
	"github.com/existflow/wbsync/server"
	"github.com/go-playground/assert/v2"
)

var taskIDPattern = regexp.MustCompile(`t-[0-9a-f-]+`)

type testEnv struct {
	t    *testing.T
	home string
	data string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return &testEnv{t: t, home: home, data: filepath.Join(home, "data.json")}
}

// run executes one wbs command with stdin and returns its combined output
func (e *testEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) local(args ...string) (string, error) {
	e.t.Helper()
	return e.run("", append([]string{"--data", e.data}, args...)...)
}

func (e *testEnv) mustLocal(args ...string) string {
	e.t.Helper()
	out, err := e.local(args...)
	if err != nil {
		e.t.Fatalf("wbs %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (e *testEnv) document() *model.Document {
	e.t.Helper()
	backend, err := storage.NewFile(e.data)
	if err != nil {
		e.t.Fatalf("open backend: %v", err)
	}
	st := store.New(backend)
	defer st.Close()
	doc, _ := st.Read(context.Background())
	return doc
}

func TestShowSeedsLocalData(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustLocal("show")
	assert.Equal(t, strings.Contains(out, "Version "), true)
	assert.Equal(t, strings.Contains(out, "Sample task"), true)
	assert.Equal(t, strings.Contains(out, "[Administrator]"), true)

	_, err := os.Stat(env.data)
	assert.Equal(t, err, nil)
}

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	parent := env.document().Tasks[0].ID

	out := env.mustLocal("task", "add", "Write", "report", "--parent", parent, "--assignee", "u1",
		"--start", "2024-06-03", "--end", "2024-06-07")
	id := taskIDPattern.FindString(out)
	assert.NotEqual(t, id, "")

	env.mustLocal("task", "progress", id, "40%")
	env.mustLocal("task", "set", id, "--name", "Write final report", "--milestone")

	doc := env.document()
	task, ok := doc.Task(id)
	assert.Equal(t, ok, true)
	assert.Equal(t, task.Name, "Write final report")
	assert.Equal(t, task.Progress, 40)
	assert.Equal(t, task.IsMilestone, true)
	assert.Equal(t, task.Parent(), parent)
	assert.Equal(t, task.Start.String(), "2024-06-03")

	out = env.mustLocal("show")
	assert.Equal(t, strings.Contains(out, "◆ Write final report"), true)

	env.mustLocal("task", "done", id)
	task, _ = env.document().Task(id)
	assert.Equal(t, task.Progress, 100)

	env.mustLocal("task", "delete", parent)
	task, ok = env.document().Task(id)
	assert.Equal(t, ok, true)
	assert.Equal(t, task.ParentID == nil, true)
}

func TestTaskSetRejectsCycle(t *testing.T) {
	env := newTestEnv(t)
	parent := env.document().Tasks[0].ID
	out := env.mustLocal("task", "add", "Child", "--parent", parent)
	child := taskIDPattern.FindString(out)

	_, err := env.local("task", "set", parent, "--parent", child)
	assert.Equal(t, errors.Is(err, store.ErrInvalidData), true)

	task, _ := env.document().Task(parent)
	assert.Equal(t, task.ParentID == nil, true)
}

func TestTaskSetNothingToChange(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.local("task", "set", "t-1")
	assert.NotEqual(t, err, nil)
}

func TestMemberRules(t *testing.T) {
	env := newTestEnv(t)
	env.mustLocal("user", "add", "Mika")
	doc := env.document()
	admins := doc.Tasks[0].ID

	member := []string{"--mode", "member", "--user-id", "u2"}

	_, err := env.local(append(member, "task", "done", admins)...)
	assert.Equal(t, errors.Is(err, edit.ErrForbidden), true)

	_, err = env.local(append(member, "task", "add", "Sneaky")...)
	assert.Equal(t, errors.Is(err, ErrAdminOnly), true)

	_, err = env.local(append(member, "user", "add", "Other")...)
	assert.Equal(t, errors.Is(err, ErrAdminOnly), true)

	env.mustLocal("task", "set", admins, "--assignee", "u2")
	_, err = env.local(append(member, "task", "done", admins)...)
	assert.Equal(t, err, nil)

	out := env.mustLocal(append(member, "show", "--mine")...)
	assert.Equal(t, strings.Contains(out, "✓ Sample task"), true)
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustLocal("user", "add", "Mika", "Virtanen")
	assert.Equal(t, strings.Contains(out, `Added u2 "Mika Virtanen"`), true)

	doc := env.document()
	env.mustLocal("task", "set", doc.Tasks[0].ID, "--assignee", "u2")

	out = env.mustLocal("user", "list")
	assert.Equal(t, strings.Contains(out, "u2"), true)
	assert.Equal(t, strings.Contains(out, "Mika Virtanen"), true)

	env.mustLocal("user", "delete", "u2")
	doc = env.document()
	assert.Equal(t, len(doc.Users), 1)
	assert.Equal(t, doc.Tasks[0].AssigneeID == nil, true)

	_, err := env.local("user", "delete", "u1")
	assert.NotEqual(t, err, nil)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustLocal("settings")
	assert.Equal(t, strings.Contains(out, "Polling interval: 5s"), true)

	env.mustLocal("settings", "--polling-interval", "2000")
	assert.Equal(t, env.document().Config.PollingInterval, 2000)

	_, err := env.local("settings", "--polling-interval", "10")
	assert.Equal(t, errors.Is(err, store.ErrInvalidData), true)
	assert.Equal(t, env.document().Config.PollingInterval, 2000)
}

func TestBackup(t *testing.T) {
	env := newTestEnv(t)
	env.mustLocal("show")

	out := env.mustLocal("backup")
	assert.Equal(t, strings.Contains(out, filepath.Join(env.home, ".wbs", "backups")), true)
}

func TestConfigureNothing(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("", "configure")
	assert.NotEqual(t, err, nil)
}

func TestRemoteAdminFlow(t *testing.T) {
	env := newTestEnv(t)

	backend, err := storage.NewFile(filepath.Join(t.TempDir(), "server.json"))
	if err != nil {
		t.Fatal(err)
	}
	srv := server.New(store.New(backend), server.Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	defer srv.Close()

	out, err := env.run("", "configure", "--url", ts.URL, "--actor", "Pat")
	assert.Equal(t, err, nil)
	assert.Equal(t, strings.Contains(out, ts.URL), true)

	_, err = env.run("", "user", "add", "Mika")
	assert.Equal(t, errors.Is(err, sync.ErrNotLoggedIn), true)

	_, err = env.run("wrong\n", "login")
	assert.Equal(t, errors.Is(err, sync.ErrUnauthorized), true)

	out, err = env.run("admin\n", "login")
	assert.Equal(t, err, nil)
	assert.Equal(t, strings.Contains(out, "Logged in"), true)

	out, err = env.run("", "user", "add", "Mika")
	assert.Equal(t, err, nil)
	assert.Equal(t, strings.Contains(out, "u2"), true)

	out, err = env.run("", "show")
	assert.Equal(t, err, nil)
	assert.Equal(t, strings.Contains(out, "by Pat"), true)

	out, err = env.run("", "status")
	assert.Equal(t, err, nil)
	assert.Equal(t, strings.Contains(out, "reachable"), true)
	assert.Equal(t, strings.Contains(out, "Users:    2"), true)

	_, err = env.run("", "logout")
	assert.Equal(t, err, nil)
	_, err = env.run("", "backup")
	assert.Equal(t, errors.Is(err, sync.ErrNotLoggedIn), true)
}
