package model

// Task is one row of the work breakdown
type Task struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Start        Date     `json:"start"`
	End          Date     `json:"end"`
	AssigneeID   *string  `json:"assignee_id"`
	ParentID     *string  `json:"parent_id"`
	Progress     int      `json:"progress"`
	IsMilestone  bool     `json:"is_milestone"`
	Dependencies []string `json:"dependencies"` // Advisory only, never validated
}

// NewTask creates a root task with no assignee spanning start..end
func NewTask(id, name string, start, end Date) Task {
	return Task{
		ID:           id,
		Name:         name,
		Start:        start,
		End:          end,
		Dependencies: []string{},
	}
}

// Assignee returns the assignee id or "" when unassigned
func (t *Task) Assignee() string {
	if t.AssigneeID == nil {
		return ""
	}
	return *t.AssigneeID
}

// Parent returns the parent id or "" for root tasks
func (t *Task) Parent() string {
	if t.ParentID == nil {
		return ""
	}
	return *t.ParentID
}

// IsDone returns true when the task is fully complete
func (t *Task) IsDone() bool {
	return t.Progress >= 100
}

// IsOverdue returns true if the task is unfinished and its end date has passed
func (t *Task) IsOverdue(today Date) bool {
	return !t.IsDone() && !t.End.IsZero() && t.End.Before(today)
}

// clone returns a deep copy so edits never alias pointer fields
func (t Task) clone() Task {
	c := t
	c.AssigneeID = copyRef(t.AssigneeID)
	c.ParentID = copyRef(t.ParentID)
	c.Dependencies = append([]string{}, t.Dependencies...)
	return c
}

// Ref returns a pointer to id, or nil for the empty string
func Ref(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func copyRef(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
