package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/existflow/wbsync/internal/auth"
	"github.com/existflow/wbsync/internal/hierarchy"
	"github.com/existflow/wbsync/internal/model"
	"github.com/existflow/wbsync/internal/storage"
	"github.com/go-playground/assert/v2"
)

var fixedNow = time.Date(2024, time.June, 3, 14, 15, 0, 0, time.UTC)

func newStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	backend, err := storage.NewFile(path)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	s := New(backend, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func encoded(t *testing.T, doc *model.Document) string {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(data)
}

func mustWrite(t *testing.T, s *Store, doc *model.Document, baseline string) CommitResult {
	t.Helper()
	res, err := s.Write(context.Background(), doc, baseline, "tester")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	return res
}

func TestFirstReadSeeds(t *testing.T) {
	s, path := newStore(t)

	doc, v0 := s.Read(context.Background())
	assert.NotEqual(t, v0, "")
	assert.Equal(t, doc.Meta.Version, v0)
	assert.Equal(t, doc.Meta.UpdatedBy, SeedActor)
	assert.Equal(t, doc.Meta.LastUpdated, fixedNow.Unix())

	assert.Equal(t, len(doc.Users), 1)
	assert.Equal(t, doc.Users[0].ID, SeedAdminID)
	assert.Equal(t, doc.Users[0].Role, model.RoleAdmin)

	assert.Equal(t, len(doc.Tasks), 1)
	today := model.DateOf(fixedNow)
	assert.Equal(t, doc.Tasks[0].Start.String(), today.String())
	assert.Equal(t, doc.Tasks[0].End.String(), today.AddDays(7).String())
	assert.Equal(t, auth.CheckSecret(doc.Config.AdminPasswordHash, auth.DefaultAdminSecret), nil)

	_, err := os.Stat(path)
	assert.Equal(t, err, nil)
}

func TestReadIdempotent(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	a, va := s.Read(ctx)
	b, vb := s.Read(ctx)
	assert.Equal(t, va, vb)
	assert.Equal(t, encoded(t, a), encoded(t, b))
}

func TestReadReturnsCopy(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	doc, _ := s.Read(ctx)
	doc.Tasks[0].Name = "scribbled"

	again, _ := s.Read(ctx)
	assert.Equal(t, again.Tasks[0].Name, "Sample task")
}

func TestConflictScenario(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	doc, v0 := s.Read(ctx)

	first := doc.Clone()
	first.Tasks[0].Progress = 50
	res := mustWrite(t, s, first, v0)
	v1 := res.Version
	assert.NotEqual(t, v1, v0)

	second := doc.Clone()
	second.Tasks[0].Name = "Renamed"
	_, err := s.Write(ctx, second, v0, "other")
	assert.Equal(t, errors.Is(err, ErrConflict), true)

	var conflict *ConflictError
	assert.Equal(t, errors.As(err, &conflict), true)
	assert.Equal(t, conflict.Expected, v0)
	assert.Equal(t, conflict.Current, v1)

	fresh, version := s.Read(ctx)
	assert.Equal(t, version, v1)
	assert.Equal(t, fresh.Tasks[0].Progress, 50)
	assert.Equal(t, fresh.Tasks[0].Name, "Sample task")

	fresh.Tasks[0].Name = "Renamed"
	res, err = s.Write(ctx, fresh, v1, "other")
	assert.Equal(t, err, nil)
	assert.Equal(t, res.Meta.UpdatedBy, "other")

	final, _ := s.Read(ctx)
	assert.Equal(t, final.Tasks[0].Name, "Renamed")
	assert.Equal(t, final.Tasks[0].Progress, 50)
}

func TestVersionsStrictlyIncrease(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	doc, version := s.Read(ctx)
	for i := 0; i < 30; i++ {
		day := model.DateOf(fixedNow)
		doc.Tasks = append(doc.Tasks, model.NewTask(model.NewTaskID(), "step", day, day))
		res := mustWrite(t, s, doc, version)
		assert.Equal(t, res.Version > version, true)

		var read string
		doc, read = s.Read(ctx)
		assert.Equal(t, read, res.Version)
		assert.Equal(t, len(doc.Tasks), i+2)
		version = read
	}
}

func TestSameBaselineExactlyOneWins(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	base, v0 := s.Read(ctx)

	const writers = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		losers  int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc := base.Clone()
			name := "writer-" + string(rune('a'+i))
			doc.Tasks[0].Name = name
			_, err := s.Write(ctx, doc, v0, name)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, name)
			case errors.Is(err, ErrConflict):
				losers++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, len(winners), 1)
	assert.Equal(t, losers, writers-1)

	final, _ := s.Read(ctx)
	assert.Equal(t, final.Tasks[0].Name, winners[0])
	assert.Equal(t, final.Meta.UpdatedBy, winners[0])
}

func TestStoresSharingAFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	open := func() *Store {
		backend, err := storage.NewFile(path)
		if err != nil {
			t.Fatalf("new backend: %v", err)
		}
		s := New(backend)
		t.Cleanup(func() { s.Close() })
		return s
	}
	a, b := open(), open()
	ctx := context.Background()

	docA, v0 := a.Read(ctx)
	docB, v0b := b.Read(ctx)
	assert.Equal(t, v0, v0b)

	docA.Tasks[0].Progress = 10
	res, err := a.Write(ctx, docA, v0, "a")
	assert.Equal(t, err, nil)

	docB.Tasks[0].Progress = 20
	_, err = b.Write(ctx, docB, v0, "b")
	assert.Equal(t, errors.Is(err, ErrConflict), true)

	fresh, version := b.Read(ctx)
	assert.Equal(t, version, res.Version)
	assert.Equal(t, fresh.Tasks[0].Progress, 10)
}

func TestBootstrapAdoptsExistingDocument(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	seeded, adopted, err := s.bootstrap(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, adopted, false)

	// a second bootstrap finds the first one's commit and keeps it
	again, adopted, err := s.bootstrap(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, adopted, true)
	assert.Equal(t, again.Version(), seeded.Version())

	_, version := s.Read(ctx)
	assert.Equal(t, version, seeded.Version())
}

func TestRemoveUserClearsAssigneesInOneCommit(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	doc, version := s.Read(ctx)

	doc.Users = append(doc.Users, model.User{ID: "u2", Name: "Mika", Role: model.RoleMember})
	day := model.DateOf(fixedNow)
	for i := 0; i < 4; i++ {
		task := model.NewTask(model.NewTaskID(), "assigned", day, day)
		task.AssigneeID = model.Ref("u2")
		doc.Tasks = append(doc.Tasks, task)
	}
	version = mustWrite(t, s, doc, version).Version

	doc, _ = s.Read(ctx)
	removed, err := hierarchy.RemoveUser(doc, "u2")
	assert.Equal(t, err, nil)
	mustWrite(t, s, removed, version)

	final, _ := s.Read(ctx)
	assert.Equal(t, len(final.Users), 1)
	for _, task := range final.Tasks {
		assert.NotEqual(t, task.Assignee(), "u2")
	}
}

func TestRemoveTaskPromotesChildren(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	doc, version := s.Read(ctx)

	parentID := doc.Tasks[0].ID
	day := model.DateOf(fixedNow)
	for i := 0; i < 3; i++ {
		child := model.NewTask(model.NewTaskID(), "child", day, day)
		child.ParentID = model.Ref(parentID)
		doc.Tasks = append(doc.Tasks, child)
	}
	version = mustWrite(t, s, doc, version).Version

	doc, _ = s.Read(ctx)
	removed, err := hierarchy.RemoveTask(doc, parentID)
	assert.Equal(t, err, nil)
	mustWrite(t, s, removed, version)

	final, _ := s.Read(ctx)
	assert.Equal(t, len(final.Tasks), 3)
	for _, task := range final.Tasks {
		assert.Equal(t, task.ParentID == nil, true)
	}
}

func TestCycleRejectedStateUnchanged(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	doc, version := s.Read(ctx)
	before := encoded(t, doc)

	day := model.DateOf(fixedNow)
	a := model.NewTask("a", "A", day, day)
	b := model.NewTask("b", "B", day, day)
	a.ParentID = model.Ref("b")
	b.ParentID = model.Ref("a")
	proposed := doc.Clone()
	proposed.Tasks = append(proposed.Tasks, a, b)

	_, err := s.Write(ctx, proposed, version, "tester")
	assert.Equal(t, errors.Is(err, ErrInvalidData), true)
	assert.Equal(t, errors.Is(err, hierarchy.ErrViolation), true)

	var v *hierarchy.ViolationError
	assert.Equal(t, errors.As(err, &v), true)
	assert.Equal(t, v.Invariant, hierarchy.TaskParentCycle)

	after, afterVersion := s.Read(ctx)
	assert.Equal(t, afterVersion, version)
	assert.Equal(t, encoded(t, after), before)
}

func TestDependenciesAreNotValidated(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	doc, version := s.Read(ctx)

	doc.Tasks[0].Dependencies = []string{"does-not-exist", doc.Tasks[0].ID}
	mustWrite(t, s, doc, version)

	final, _ := s.Read(ctx)
	assert.Equal(t, final.Tasks[0].Dependencies, []string{"does-not-exist", doc.Tasks[0].ID})
}

func TestWriteKeepsCommittedConfig(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	doc, version := s.Read(ctx)
	hash := doc.Config.AdminPasswordHash

	doc.Config.AdminPasswordHash = "stolen"
	doc.Config.PollingInterval = 1
	mustWrite(t, s, doc, version)

	final, _ := s.Read(ctx)
	assert.Equal(t, final.Config.AdminPasswordHash, hash)
	assert.Equal(t, final.Config.PollingInterval, 5000)
}

func TestEmptyBaselineAgainstExistingDocument(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	doc, _ := s.Read(ctx)

	_, err := s.Write(ctx, doc, "", "tester")
	assert.Equal(t, errors.Is(err, ErrConflict), true)
}

func TestEmptyBaselineBootstrapsEmptyStore(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	day := model.DateOf(fixedNow)
	doc := &model.Document{
		Users: []model.User{{ID: "u1", Name: "Lead", Role: model.RoleAdmin}},
		Tasks: []model.Task{model.NewTask("t1", "Kickoff", day, day)},
	}
	res, err := s.Write(ctx, doc, "", "")
	assert.Equal(t, err, nil)
	assert.Equal(t, res.Meta.UpdatedBy, UnknownActor)

	final, version := s.Read(ctx)
	assert.Equal(t, version, res.Version)
	assert.Equal(t, final.Tasks[0].Name, "Kickoff")
	assert.NotEqual(t, final.Config.AdminPasswordHash, "")
}

func TestWriteNil(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Write(context.Background(), nil, "", "tester")
	assert.Equal(t, errors.Is(err, ErrInvalidData), true)
}

func TestSaveSettings(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	doc, version := s.Read(ctx)

	settings := doc.Config
	settings.PollingInterval = 2000
	res, err := s.SaveSettings(ctx, settings, version, "admin")
	assert.Equal(t, err, nil)
	assert.NotEqual(t, res.Version, version)

	final, _ := s.Read(ctx)
	assert.Equal(t, final.Config.PollingInterval, 2000)
	assert.Equal(t, len(final.Tasks), len(doc.Tasks))

	_, err = s.SaveSettings(ctx, settings, version, "admin")
	assert.Equal(t, errors.Is(err, ErrConflict), true)

	settings.AdminPasswordHash = ""
	_, err = s.SaveSettings(ctx, settings, res.Version, "admin")
	assert.Equal(t, errors.Is(err, ErrInvalidData), true)
}

func TestCorruptStorageFallsBack(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()

	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	doc, v1 := s.Read(ctx)
	assert.NotEqual(t, v1, "")
	assert.Equal(t, len(doc.Tasks), 1)

	_, v2 := s.Read(ctx)
	assert.Equal(t, v1, v2)

	_, err := s.Write(ctx, doc, v1, "tester")
	assert.Equal(t, errors.Is(err, ErrStorageUnavailable), true)

	data, _ := os.ReadFile(path)
	assert.Equal(t, string(data), "{not json")
}

func TestCurrentReportsUnreadableStorage(t *testing.T) {
	s, path := newStore(t)
	ctx := context.Background()
	_, version, err := s.Current(ctx)
	assert.Equal(t, err, nil)
	assert.NotEqual(t, version, "")

	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	doc, version, err := s.Current(ctx)
	assert.Equal(t, errors.Is(err, ErrStorageUnavailable), true)
	assert.Equal(t, doc == nil, true)
	assert.Equal(t, version, "")
}

func TestBackup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	s, _ := newStore(t, WithBackupDir(dir))
	ctx := context.Background()
	_, version := s.Read(ctx)

	path, err := s.Backup(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, filepath.Base(path), "data_backup_20240603_141500.json")
	assert.Equal(t, strings.HasPrefix(path, dir), true)

	data, err := os.ReadFile(path)
	assert.Equal(t, err, nil)
	var doc model.Document
	assert.Equal(t, json.Unmarshal(data, &doc), nil)
	assert.Equal(t, doc.Meta.Version, version)
}

func TestBackupDisabled(t *testing.T) {
	s, _ := newStore(t)
	s.Read(context.Background())

	_, err := s.Backup(context.Background())
	assert.Equal(t, errors.Is(err, ErrBackupDisabled), true)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, classify(nil), nil)
	assert.Equal(t, errors.Is(classify(storage.ErrChanged), ErrConflict), true)
	assert.Equal(t, errors.Is(classify(storage.ErrLocked), ErrStorageUnavailable), true)
	assert.Equal(t, errors.Is(classify(storage.ErrLocked), storage.ErrLocked), true)

	conflict := &ConflictError{Expected: "a", Current: "b"}
	assert.Equal(t, classify(conflict), error(conflict))
}
