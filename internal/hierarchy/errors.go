package hierarchy

import (
	"errors"
	"fmt"
)

// ErrViolation matches every *ViolationError
var ErrViolation = errors.New("hierarchy violation")

// Invariant names a rule the document must satisfy before it can be committed
type Invariant string

const (
	UserIDRequired     Invariant = "user.id.required"
	UserIDUnique       Invariant = "user.id.unique"
	UserRole           Invariant = "user.role"
	TaskIDRequired     Invariant = "task.id.required"
	TaskIDUnique       Invariant = "task.id.unique"
	TaskDates          Invariant = "task.dates"
	TaskProgress       Invariant = "task.progress"
	TaskParentExists   Invariant = "task.parent.exists"
	TaskParentSelf     Invariant = "task.parent.self"
	TaskParentCycle    Invariant = "task.parent.cycle"
	TaskAssigneeExists Invariant = "task.assignee.exists"
	ConfigSecret       Invariant = "config.admin_password_hash"
	ConfigPolling      Invariant = "config.polling_interval"
)

// ViolationError identifies the broken invariant and the entity that broke it
type ViolationError struct {
	Invariant Invariant `json:"invariant"`
	Entity    string    `json:"entity"` // "task", "user" or "config"
	ID        string    `json:"id"`
	Detail    string    `json:"detail,omitempty"`
}

func (e *ViolationError) Error() string {
	msg := fmt.Sprintf("%s violated by %s %q", e.Invariant, e.Entity, e.ID)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is lets errors.Is(err, ErrViolation) match
func (e *ViolationError) Is(target error) bool {
	return target == ErrViolation
}

func taskViolation(inv Invariant, id, format string, args ...any) *ViolationError {
	return &ViolationError{Invariant: inv, Entity: "task", ID: id, Detail: fmt.Sprintf(format, args...)}
}

func userViolation(inv Invariant, id, format string, args ...any) *ViolationError {
	return &ViolationError{Invariant: inv, Entity: "user", ID: id, Detail: fmt.Sprintf(format, args...)}
}
