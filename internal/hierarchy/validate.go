// Package hierarchy checks the referential integrity of a proposed document
// and builds the companion updates that keep it intact when users or tasks
// are removed.
package hierarchy

import (
	"fmt"

	"github.com/existflow/wbsync/internal/model"
)

// Validate checks every invariant over doc and returns the first violation.
// It never modifies doc. Task dependencies are advisory and not checked.
func Validate(doc *model.Document) error {
	users := make(map[string]bool, len(doc.Users))
	for _, u := range doc.Users {
		if u.ID == "" {
			return userViolation(UserIDRequired, u.ID, "user %q has no id", u.Name)
		}
		if users[u.ID] {
			return userViolation(UserIDUnique, u.ID, "duplicate user id")
		}
		if !u.Role.Valid() {
			return userViolation(UserRole, u.ID, "unknown role %q", u.Role)
		}
		users[u.ID] = true
	}

	parents := make(map[string]string, len(doc.Tasks))
	for _, t := range doc.Tasks {
		if t.ID == "" {
			return taskViolation(TaskIDRequired, t.ID, "task %q has no id", t.Name)
		}
		if _, dup := parents[t.ID]; dup {
			return taskViolation(TaskIDUnique, t.ID, "duplicate task id")
		}
		parents[t.ID] = t.Parent()
	}

	for _, t := range doc.Tasks {
		if t.Start.IsZero() || t.End.IsZero() {
			return taskViolation(TaskDates, t.ID, "start and end are required")
		}
		if t.End.Before(t.Start) {
			return taskViolation(TaskDates, t.ID, "end %s is before start %s", t.End, t.Start)
		}
		if t.Progress < 0 || t.Progress > 100 {
			return taskViolation(TaskProgress, t.ID, "progress %d outside 0..100", t.Progress)
		}
		if a := t.AssigneeID; a != nil && !users[*a] {
			return taskViolation(TaskAssigneeExists, t.ID, "assignee %q does not exist", *a)
		}
		if err := checkParent(t.ID, parents); err != nil {
			return err
		}
	}

	return nil
}

// checkParent follows the parent chain from id. The walk is bounded by the
// number of tasks, so a malformed chain always terminates.
func checkParent(id string, parents map[string]string) error {
	parent := parents[id]
	if parent == "" {
		return nil
	}
	if parent == id {
		return taskViolation(TaskParentSelf, id, "task is its own parent")
	}
	if _, ok := parents[parent]; !ok {
		return taskViolation(TaskParentExists, id, "parent %q does not exist", parent)
	}

	cur := parent
	for steps := 0; steps < len(parents); steps++ {
		next := parents[cur]
		if next == "" {
			return nil
		}
		if next == id {
			return taskViolation(TaskParentCycle, id, "parent chain returns to the task via %q", cur)
		}
		cur = next
	}
	// The chain loops without passing through id; the tasks on that loop
	// report the cycle themselves.
	return nil
}

// MinPollingInterval is the shortest interval clients may be told to poll at
const MinPollingInterval = 500 // Milliseconds

// ValidateSettings checks a config block before the settings path commits it.
// A zero polling interval means the client default.
func ValidateSettings(s model.Settings) error {
	if s.AdminPasswordHash == "" {
		return &ViolationError{Invariant: ConfigSecret, Entity: "config", Detail: "admin secret hash is required"}
	}
	if s.PollingInterval < 0 || (s.PollingInterval > 0 && s.PollingInterval < MinPollingInterval) {
		return &ViolationError{
			Invariant: ConfigPolling,
			Entity:    "config",
			Detail:    fmt.Sprintf("polling interval %dms must be 0 or at least %dms", s.PollingInterval, MinPollingInterval),
		}
	}
	return nil
}
