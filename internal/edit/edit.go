// Package edit turns single logical changes into whole proposed documents.
//
// Every function works on a copy of the document it is given and returns the
// copy. The caller submits the result to the store with the version of the
// document it started from.
package edit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/existflow/wbsync/internal/hierarchy"
	"github.com/existflow/wbsync/internal/model"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrNameRequired  = errors.New("name is required")
	ErrProtectedUser = errors.New("admin users cannot be removed")
	ErrForbidden     = errors.New("not allowed to edit this task")
)

// TaskPatch lists the fields to change. Nil fields are left alone. An empty
// Assignee or Parent clears the reference.
type TaskPatch struct {
	Name         *string
	Start        *model.Date
	End          *model.Date
	Progress     *int
	Assignee     *string
	Parent       *string
	Milestone    *bool
	Dependencies []string
}

// IsEmpty returns true if the patch changes nothing
func (p TaskPatch) IsEmpty() bool {
	return p.Name == nil && p.Start == nil && p.End == nil && p.Progress == nil &&
		p.Assignee == nil && p.Parent == nil && p.Milestone == nil && p.Dependencies == nil
}

// AddTask appends task with a freshly generated id and returns the new document
// along with the stored task.
func AddTask(doc *model.Document, task model.Task) (*model.Document, model.Task, error) {
	task.Name = strings.TrimSpace(task.Name)
	if task.Name == "" {
		return nil, model.Task{}, ErrNameRequired
	}
	task.ID = model.NewTaskID()
	if task.Dependencies == nil {
		task.Dependencies = []string{}
	}

	next := doc.Clone()
	next.Tasks = append(next.Tasks, task)
	return next, task, nil
}

// UpdateTask applies patch to the task with id
func UpdateTask(doc *model.Document, id string, patch TaskPatch) (*model.Document, error) {
	next := doc.Clone()
	task, ok := next.Task(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		task.Name = name
	}
	if patch.Start != nil {
		task.Start = *patch.Start
	}
	if patch.End != nil {
		task.End = *patch.End
	}
	if patch.Progress != nil {
		task.Progress = *patch.Progress
	}
	if patch.Assignee != nil {
		task.AssigneeID = model.Ref(*patch.Assignee)
	}
	if patch.Parent != nil {
		task.ParentID = model.Ref(*patch.Parent)
	}
	if patch.Milestone != nil {
		task.IsMilestone = *patch.Milestone
	}
	if patch.Dependencies != nil {
		task.Dependencies = append([]string{}, patch.Dependencies...)
	}
	return next, nil
}

// SetProgress changes only the progress of the task with id
func SetProgress(doc *model.Document, id string, progress int) (*model.Document, error) {
	return UpdateTask(doc, id, TaskPatch{Progress: &progress})
}

// DeleteTask removes the task and promotes its children to roots
func DeleteTask(doc *model.Document, id string) (*model.Document, error) {
	next, err := hierarchy.RemoveTask(doc, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return next, nil
}

// AddUser appends a member named name with the next free "uN" id
func AddUser(doc *model.Document, name string) (*model.Document, model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.User{}, ErrNameRequired
	}

	user := model.User{ID: model.NextUserID(doc.Users), Name: name, Role: model.RoleMember}
	next := doc.Clone()
	next.Users = append(next.Users, user)
	return next, user, nil
}

// DeleteUser removes a member and unassigns every task they held
func DeleteUser(doc *model.Document, id string) (*model.Document, error) {
	user, ok := doc.User(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if user.IsAdmin() {
		return nil, ErrProtectedUser
	}
	return hierarchy.RemoveUser(doc, id)
}

// CanEdit reports whether user may change task. Admins may edit anything,
// members only the tasks assigned to them.
func CanEdit(user *model.User, task *model.Task) bool {
	if user == nil || task == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return task.Assignee() == user.ID
}

// Authorize returns ErrForbidden unless userID may edit the task with taskID
// in doc.
func Authorize(doc *model.Document, userID, taskID string) error {
	task, ok := doc.Task(taskID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	user, _ := doc.User(userID)
	if !CanEdit(user, task) {
		return ErrForbidden
	}
	return nil
}
