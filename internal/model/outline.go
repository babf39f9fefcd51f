package model

// OutlineRow is one task in display order with its nesting depth
type OutlineRow struct {
	Task  *Task
	Depth int
}

// Outline returns the tasks depth first, children after their parent and in
// document order within a level. Tasks whose parent is missing, or that sit
// on a parent loop, are listed as roots so every task appears exactly once.
func (d *Document) Outline() []OutlineRow {
	ids := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		ids[t.ID] = true
	}
	children := make(map[string][]int, len(d.Tasks))
	var roots []int
	for i, t := range d.Tasks {
		if p := t.Parent(); p != "" && p != t.ID && ids[p] {
			children[p] = append(children[p], i)
		} else {
			roots = append(roots, i)
		}
	}

	rows := make([]OutlineRow, 0, len(d.Tasks))
	seen := make(map[string]bool, len(d.Tasks))
	var walk func(i, depth int)
	walk = func(i, depth int) {
		t := &d.Tasks[i]
		if seen[t.ID] {
			return
		}
		seen[t.ID] = true
		rows = append(rows, OutlineRow{Task: t, Depth: depth})
		for _, c := range children[t.ID] {
			walk(c, depth+1)
		}
	}
	for _, i := range roots {
		walk(i, 0)
	}
	for i := range d.Tasks {
		if !seen[d.Tasks[i].ID] {
			walk(i, 0)
		}
	}
	return rows
}

// UserName returns the display name for id, or "" when unassigned or unknown
func (d *Document) UserName(id string) string {
	if u, ok := d.User(id); ok {
		return u.Name
	}
	return ""
}
