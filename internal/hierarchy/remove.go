package hierarchy

import (
	"fmt"

	"github.com/existflow/wbsync/internal/model"
)

// RemoveUser returns a copy of doc without the user and with every task that
// was assigned to them left unassigned. Both happen in the one document so
// they commit together.
func RemoveUser(doc *model.Document, userID string) (*model.Document, error) {
	if _, ok := doc.User(userID); !ok {
		return nil, fmt.Errorf("user %q not found", userID)
	}

	next := doc.Clone()
	users := next.Users[:0]
	for _, u := range next.Users {
		if u.ID != userID {
			users = append(users, u)
		}
	}
	next.Users = users

	for i := range next.Tasks {
		if next.Tasks[i].Assignee() == userID {
			next.Tasks[i].AssigneeID = nil
		}
	}
	return next, nil
}

// RemoveTask returns a copy of doc without the task. Its direct children are
// promoted to root tasks rather than deleted.
func RemoveTask(doc *model.Document, taskID string) (*model.Document, error) {
	if _, ok := doc.Task(taskID); !ok {
		return nil, fmt.Errorf("task %q not found", taskID)
	}

	next := doc.Clone()
	tasks := next.Tasks[:0]
	for _, t := range next.Tasks {
		if t.ID == taskID {
			continue
		}
		if t.Parent() == taskID {
			t.ParentID = nil
		}
		tasks = append(tasks, t)
	}
	next.Tasks = tasks
	return next, nil
}
