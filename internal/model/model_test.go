package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, time.March, 9)

	data, err := json.Marshal(d)
	assert.Equal(t, err, nil)
	assert.Equal(t, string(data), `"2024-03-09"`)

	var back Date
	assert.Equal(t, json.Unmarshal(data, &back), nil)
	assert.Equal(t, back.String(), "2024-03-09")

	var empty Date
	assert.Equal(t, json.Unmarshal([]byte(`""`), &empty), nil)
	assert.Equal(t, empty.IsZero(), true)

	var bad Date
	assert.NotEqual(t, json.Unmarshal([]byte(`"2024-13-40"`), &bad), nil)
}

func TestDateOrdering(t *testing.T) {
	a := NewDate(2024, time.January, 31)
	b := a.AddDays(1)

	assert.Equal(t, b.String(), "2024-02-01")
	assert.Equal(t, a.Before(b), true)
	assert.Equal(t, b.After(a), true)
	assert.Equal(t, a.Before(a), false)
}

func TestCloneIsDeep(t *testing.T) {
	doc := &Document{
		Users: []User{{ID: "u1", Name: "Admin", Role: RoleAdmin}},
		Tasks: []Task{{
			ID:           "t1",
			AssigneeID:   Ref("u1"),
			ParentID:     Ref("t0"),
			Dependencies: []string{"t0"},
		}},
	}

	c := doc.Clone()
	*c.Tasks[0].AssigneeID = "u2"
	c.Tasks[0].Dependencies[0] = "tx"
	c.Users[0].Name = "Changed"

	assert.Equal(t, doc.Tasks[0].Assignee(), "u1")
	assert.Equal(t, doc.Tasks[0].Dependencies[0], "t0")
	assert.Equal(t, doc.Users[0].Name, "Admin")
}

func TestNormalizeEncodesEmptyCollections(t *testing.T) {
	doc := &Document{Tasks: []Task{{ID: "t1"}}}
	doc.Normalize()

	data, err := json.Marshal(doc)
	assert.Equal(t, err, nil)

	var raw map[string]any
	assert.Equal(t, json.Unmarshal(data, &raw), nil)
	assert.Equal(t, raw["users"], []any{})

	task := raw["tasks"].([]any)[0].(map[string]any)
	assert.Equal(t, task["dependencies"], []any{})
	assert.Equal(t, task["assignee_id"], nil)
}

func TestSettingsInterval(t *testing.T) {
	assert.Equal(t, Settings{}.Interval(), DefaultPollingInterval)
	assert.Equal(t, Settings{PollingInterval: 1500}.Interval(), 1500*time.Millisecond)
}

func TestOverdue(t *testing.T) {
	today := NewDate(2024, time.May, 10)
	task := NewTask("t1", "Build", today.AddDays(-5), today.AddDays(-1))

	assert.Equal(t, task.IsOverdue(today), true)
	task.Progress = 100
	assert.Equal(t, task.IsOverdue(today), false)
}

func TestNextUserID(t *testing.T) {
	assert.Equal(t, NextUserID(nil), "u1")
	assert.Equal(t, NextUserID([]User{{ID: "u1"}, {ID: "u7"}, {ID: "guest"}, {ID: "u3"}}), "u8")
}

func TestNewTaskID(t *testing.T) {
	a, b := NewTaskID(), NewTaskID()
	assert.NotEqual(t, a, b)
	assert.Equal(t, strings.HasPrefix(a, "t-"), true)
}

func TestOutline(t *testing.T) {
	day := NewDate(2024, time.June, 3)
	task := func(id, parent string) Task {
		t := NewTask(id, id, day, day)
		t.ParentID = Ref(parent)
		return t
	}
	doc := &Document{Tasks: []Task{
		task("b1", "a"),
		task("a", ""),
		task("orphan", "missing"),
		task("c", "b1"),
		task("b2", "a"),
		task("loop1", "loop2"),
		task("loop2", "loop1"),
	}}

	var got []string
	var depths []int
	for _, row := range doc.Outline() {
		got = append(got, row.Task.ID)
		depths = append(depths, row.Depth)
	}
	assert.Equal(t, got, []string{"a", "b1", "c", "b2", "orphan", "loop1", "loop2"})
	assert.Equal(t, depths, []int{0, 1, 2, 1, 0, 0, 1})
}
